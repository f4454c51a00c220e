package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"storefront-service/internal/entity"
)

const readRetryDelay = time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// StockKeeper moves catalog stock for settled orders.
type StockKeeper interface {
	ReserveStock(ctx context.Context, productID int64, quantity int) error
	ReleaseStock(ctx context.Context, productID int64, quantity int) error
}

type Consumer struct {
	reader messageReader
	stock  StockKeeper
}

func NewConsumer(reader messageReader, stock StockKeeper) *Consumer {
	return &Consumer{reader: reader, stock: stock}
}

// Start reads order events until ctx is cancelled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Msgf("Error reading message: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(readRetryDelay):
			}
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage handles one event keyed order.<event>.<number>.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	event, err := eventType(string(msg.Key))
	if err != nil {
		log.Error().Msgf("Skipping message with key %q: %v", msg.Key, err)
		return
	}

	var order entity.Order
	if err := json.Unmarshal(msg.Value, &order); err != nil {
		log.Error().Msgf("Error unmarshalling message: %v", err)
		return
	}

	switch event {
	case "paid":
		for _, item := range order.Items {
			if err := c.stock.ReserveStock(ctx, item.ProductID, item.Quantity); err != nil {
				log.Error().Msgf("Error reserving stock for product %d of order %d: %v", item.ProductID, order.Number, err)
			}
		}
	case "cancelled":
		for _, item := range order.Items {
			if err := c.stock.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
				log.Error().Msgf("Error releasing stock for product %d of order %d: %v", item.ProductID, order.Number, err)
			}
		}
	default:
		log.Debug().Msgf("Ignoring %s event for order %d", event, order.Number)
	}
}

func eventType(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] != "order" || parts[1] == "" {
		return "", errors.New("malformed event key")
	}
	return parts[1], nil
}
