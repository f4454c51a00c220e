package sharding

// ShardRouter maps an order number onto one of a fixed set of databases.
type ShardRouter struct {
	ShardCount int
}

func NewShardRouter(shardCount int) *ShardRouter {
	if shardCount < 1 {
		shardCount = 1
	}
	return &ShardRouter{ShardCount: shardCount}
}

// GetShard returns the shard index for an order number. Negative numbers are
// folded so the index is always in range.
func (r *ShardRouter) GetShard(number int64) int {
	idx := int(number % int64(r.ShardCount))
	if idx < 0 {
		idx += r.ShardCount
	}
	return idx
}
