package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/fyz_store/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	TopicOrdersCaptured    = "orders-captured"
	EventTypeOrderCaptured = "order_captured"
)

type Publisher interface {
	OrderCaptured(ctx context.Context, order *domain.Order, source domain.OrderSource) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) OrderCaptured(ctx context.Context, order *domain.Order, source domain.OrderSource) error {
	msg, err := buildMessage(order, source)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish order %s: %w", order.OrderID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func buildMessage(order *domain.Order, source domain.OrderSource) (kafka.Message, error) {
	payload := map[string]interface{}{
		"order_id":         order.OrderID,
		"user_id":          order.UserID,
		"email":            order.Email,
		"status":           order.Status,
		"payment_method":   order.PaymentMethod,
		"total_local":      order.TotalLocal.StringFixed(2),
		"total_payment":    order.TotalPayment.StringFixed(2),
		"payment_currency": order.PaymentCurrency,
		"items":            order.Items,
		"created_at":       order.CreatedAt,
		"source":           source,
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal order event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(order.OrderID), // order id for ordering
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeOrderCaptured)},
			{Key: "source", Value: []byte(source)},
		},
	}, nil
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) OrderCaptured(context.Context, *domain.Order, domain.OrderSource) error {
	return nil
}
