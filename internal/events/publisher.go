package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/service"
)

var _ service.RateSelectionPublisher = (*KafkaPublisher)(nil)

// EventType represents the type of checkout event.
type EventType string

const (
	EventTypeRateSelected EventType = "shipping.rate_selected"
)

// CheckoutEvent represents a checkout-related event.
type CheckoutEvent struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	CartID    string            `json:"cart_id"`
	Data      json.RawMessage   `json:"data"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp time.Time         `json:"timestamp"`
}

// RateSelectedPayload is the data of a shipping.rate_selected event.
type RateSelectedPayload struct {
	PackageID int    `json:"package_id"`
	RateID    string `json:"rate_id"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes checkout events to Kafka.
type KafkaPublisher struct {
	writer messageWriter
	logger *logging.Logger
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.CheckoutTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return newPublisher(writer)
}

func newPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		logger: logging.NewLogger("checkout-publisher"),
	}
}

// PublishRateSelected publishes the shopper's rate choice.
func (p *KafkaPublisher) PublishRateSelected(ctx context.Context, cartID string, packageID int, rateID string) error {
	p.logger.Debug("Publishing rate selected event", logging.Fields{
		"cart_id":    cartID,
		"package_id": packageID,
		"rate_id":    rateID,
	})

	data, err := json.Marshal(RateSelectedPayload{PackageID: packageID, RateID: rateID})
	if err != nil {
		return err
	}

	return p.publish(ctx, &CheckoutEvent{
		ID:        uuid.NewString(),
		Type:      EventTypeRateSelected,
		CartID:    cartID,
		Data:      data,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UTC(),
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, event *CheckoutEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.CartID),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"cart_id":    event.CartID,
			"error":      err.Error(),
		})
		return err
	}

	p.logger.Info("Event published", logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"cart_id":    event.CartID,
	})
	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

// MockEventPublisher records events instead of sending them.
type MockEventPublisher struct {
	Events []*CheckoutEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{Events: make([]*CheckoutEvent, 0)}
}

func (m *MockEventPublisher) PublishRateSelected(ctx context.Context, cartID string, packageID int, rateID string) error {
	data, _ := json.Marshal(RateSelectedPayload{PackageID: packageID, RateID: rateID})
	m.Events = append(m.Events, &CheckoutEvent{
		Type:   EventTypeRateSelected,
		CartID: cartID,
		Data:   data,
	})
	return nil
}
