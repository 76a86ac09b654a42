package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/service"
)

// CartEventType represents the type of cart event.
type CartEventType string

const (
	CartEventShippingUpdated CartEventType = "cart.shipping_updated"
	CartEventDeleted         CartEventType = "cart.deleted"
)

// CartEvent is the envelope the cart service publishes.
type CartEvent struct {
	ID        string          `json:"id"`
	Type      CartEventType   `json:"type"`
	CartID    string          `json:"cart_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// ShippingStateHandler applies cart events to stored shipping state.
type ShippingStateHandler interface {
	ApplyShippingUpdate(ctx context.Context, update *service.ShippingUpdate) error
	ClearShippingState(ctx context.Context, cartID string) error
}

// messageReader is the subset of *kafka.Reader the consumer needs.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer consumes cart events from Kafka.
type KafkaConsumer struct {
	reader   messageReader
	handler  ShippingStateHandler
	metrics  *metrics.Recorder
	logger   *logging.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewKafkaConsumer creates a new Kafka-based cart event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, handler ShippingStateHandler, recorder *metrics.Recorder) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.CartTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return newConsumer(reader, handler, recorder)
}

func newConsumer(reader messageReader, handler ShippingStateHandler, recorder *metrics.Recorder) *KafkaConsumer {
	return &KafkaConsumer{
		reader:  reader,
		handler: handler,
		metrics: recorder,
		logger:  logging.NewLogger("cart-consumer"),
		stopCh:  make(chan struct{}),
	}
}

// Start begins consuming events. It returns when ctx is done or Stop is
// called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Kafka consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				select {
				case <-c.stopCh:
					c.logger.Info("Kafka consumer stopped")
					return nil
				default:
				}
				c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
				continue
			}

			c.handleMessage(ctx, msg)
		}
	}
}

// Stop stops the consumer.
func (c *KafkaConsumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.reader.Close()
	})
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	c.logger.Debug("Received message", logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var event CartEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("Failed to unmarshal event", logging.Fields{"error": err.Error()})
		c.metrics.ObserveCartEvent("malformed")
		return
	}

	var err error
	switch event.Type {
	case CartEventShippingUpdated:
		err = c.handleShippingUpdated(ctx, &event)
	case CartEventDeleted:
		err = c.handler.ClearShippingState(ctx, event.CartID)
	default:
		c.logger.Debug("Ignoring unknown event type", logging.Fields{"type": event.Type})
		c.metrics.ObserveCartEvent("ignored")
		return
	}

	if err != nil {
		c.logger.Error("Failed to apply cart event", logging.Fields{
			"event_id": event.ID,
			"type":     event.Type,
			"cart_id":  event.CartID,
			"error":    err.Error(),
		})
		c.metrics.ObserveCartEvent("failed")
		return
	}
	c.metrics.ObserveCartEvent("applied")
}

func (c *KafkaConsumer) handleShippingUpdated(ctx context.Context, event *CartEvent) error {
	var state models.ShippingState
	if err := json.Unmarshal(event.Data, &state); err != nil {
		return err
	}

	return c.handler.ApplyShippingUpdate(ctx, &service.ShippingUpdate{
		CartID: event.CartID,
		State:  state,
	})
}
