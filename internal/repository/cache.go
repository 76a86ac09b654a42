package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

const (
	shippingStateKeyPrefix = "checkout:shipping:"
	defaultStateTTL        = 30 * time.Minute
	maxUpdateAttempts      = 5
)

// ErrUpdateConflict is returned when a snapshot kept changing underneath an
// Update.
var ErrUpdateConflict = errors.New("shipping state changed concurrently")

var _ ShippingStateStore = (*RedisShippingStateCache)(nil)

// RedisShippingStateCache implements ShippingStateStore using Redis.
type RedisShippingStateCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisShippingStateCache creates a new Redis-backed snapshot store.
func NewRedisShippingStateCache(cfg config.RedisConfig) *RedisShippingStateCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return NewRedisShippingStateCacheWithClient(client, cfg.TTL)
}

// NewRedisShippingStateCacheWithClient wraps an existing client.
func NewRedisShippingStateCacheWithClient(client *redis.Client, ttl time.Duration) *RedisShippingStateCache {
	if ttl == 0 {
		ttl = defaultStateTTL
	}

	return &RedisShippingStateCache{
		client: client,
		ttl:    ttl,
		logger: logging.NewLogger("shipping-state-cache"),
	}
}

// Get retrieves a snapshot from Redis.
func (c *RedisShippingStateCache) Get(ctx context.Context, cartID string) (*models.ShippingState, error) {
	data, err := c.client.Get(ctx, shippingStateKeyPrefix+cartID).Bytes()
	if err == redis.Nil {
		c.logger.Debug("Cache miss", logging.Fields{"cart_id": cartID})
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		c.logger.Error("Cache get error", logging.Fields{
			"cart_id": cartID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("get shipping state %s: %w", cartID, err)
	}

	var state models.ShippingState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode shipping state %s: %w", cartID, err)
	}

	c.logger.Debug("Cache hit", logging.Fields{"cart_id": cartID})
	return &state, nil
}

// Set stores a snapshot, refreshing its TTL.
func (c *RedisShippingStateCache) Set(ctx context.Context, cartID string, state *models.ShippingState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, shippingStateKeyPrefix+cartID, data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set error", logging.Fields{
			"cart_id": cartID,
			"error":   err.Error(),
		})
		return fmt.Errorf("set shipping state %s: %w", cartID, err)
	}

	c.logger.Debug("Shipping state cached", logging.Fields{
		"cart_id":  cartID,
		"packages": len(state.ShippingRates),
		"ttl":      c.ttl.String(),
	})
	return nil
}

// Update reads, modifies and writes a snapshot under WATCH, retrying when
// another writer touched the key in between.
func (c *RedisShippingStateCache) Update(ctx context.Context, cartID string, fn func(*models.ShippingState) error) error {
	key := shippingStateKeyPrefix + cartID

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get shipping state %s: %w", cartID, err)
		}

		var state models.ShippingState
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("decode shipping state %s: %w", cartID, err)
		}
		if err := fn(&state); err != nil {
			return err
		}

		updated, err := json.Marshal(&state)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, c.ttl)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		err := c.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		c.logger.Debug("Shipping state update conflict, retrying", logging.Fields{
			"cart_id": cartID,
			"attempt": attempt,
		})
	}

	c.logger.Warn("Shipping state update gave up", logging.Fields{"cart_id": cartID})
	return ErrUpdateConflict
}

// Delete removes a snapshot.
func (c *RedisShippingStateCache) Delete(ctx context.Context, cartID string) error {
	if err := c.client.Del(ctx, shippingStateKeyPrefix+cartID).Err(); err != nil {
		c.logger.Error("Cache delete error", logging.Fields{
			"cart_id": cartID,
			"error":   err.Error(),
		})
		return err
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (c *RedisShippingStateCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client.
func (c *RedisShippingStateCache) Close() error {
	return c.client.Close()
}
