package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"storefront-service/internal/entity"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes order events and customer notifications to their
// topics.
type KafkaPublisher struct {
	orders        messageWriter
	notifications messageWriter
}

func NewKafkaPublisher(orders, notifications messageWriter) *KafkaPublisher {
	return &KafkaPublisher{orders: orders, notifications: notifications}
}

// PublishOrderEvent keys the message as order.<event>.<number>.
func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event string, order *entity.Order) error {
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order.%s.%d", event, order.Number)),
		Value: orderJSON,
	}
	return p.orders.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) PublishNotification(ctx context.Context, notification *entity.Notification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("notification.%d", notification.OrderNumber)),
		Value: data,
	}
	return p.notifications.WriteMessages(ctx, msg)
}
