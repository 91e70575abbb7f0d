package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"storefront-checkout/internal/domain"

	"github.com/segmentio/kafka-go"
)

const eventOrderPlaced = "order.placed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderPlacedEvent is the payload published after an order is placed and its items left the cart.
type OrderPlacedEvent struct {
	OrderID    string             `json:"order_id"`
	Lines      []domain.OrderLine `json:"lines"`
	Total      int64              `json:"total"`
	VAT        int64              `json:"vat"`
	Rush       bool               `json:"rush"`
	City       string             `json:"city"`
	District   string             `json:"district"`
	PlacedAt   time.Time          `json:"placed_at"`
	ItemCount  int                `json:"item_count"`
	PaymentVia string             `json:"payment_method"`
}

// KafkaPublisher publishes order events keyed by order id.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *log.Logger
}

func NewKafkaPublisher(topic string, logger *log.Logger, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, logger)
}

func newPublisher(w messageWriter, logger *log.Logger) *KafkaPublisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &KafkaPublisher{writer: w, timeout: 5 * time.Second, logger: logger}
}

func (p *KafkaPublisher) OrderPlaced(ctx context.Context, order domain.Order) error {
	payload, err := json.Marshal(OrderPlacedEvent{
		OrderID:    order.ID,
		Lines:      order.Lines,
		Total:      order.Summary.Total,
		VAT:        order.Summary.VAT,
		Rush:       order.Delivery.IsRushOrder,
		City:       order.Delivery.City,
		District:   order.Delivery.District,
		PlacedAt:   order.PlacedAt,
		ItemCount:  order.Summary.ItemCount,
		PaymentVia: order.PaymentMethod,
	})
	if err != nil {
		return fmt.Errorf("marshal order event failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	msg := kafka.Message{
		Key:   []byte(order.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventOrderPlaced)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order event %s: %w", order.ID, err)
	}
	p.logger.Printf("events: published %s order=%s", eventOrderPlaced, order.ID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
