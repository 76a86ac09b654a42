package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

var _ ShippingStateStore = (*MemoryShippingStateStore)(nil)

// MemoryShippingStateStore keeps snapshots in process memory. Values are
// copied on the way in and out so callers never share a snapshot.
type MemoryShippingStateStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryShippingStateStore() *MemoryShippingStateStore {
	return &MemoryShippingStateStore{data: make(map[string][]byte)}
}

func (s *MemoryShippingStateStore) Get(ctx context.Context, cartID string) (*models.ShippingState, error) {
	s.mu.RLock()
	raw, ok := s.data[cartID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	var state models.ShippingState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *MemoryShippingStateStore) Set(ctx context.Context, cartID string, state *models.ShippingState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data[cartID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryShippingStateStore) Update(ctx context.Context, cartID string, fn func(*models.ShippingState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[cartID]
	if !ok {
		return apperrors.ErrNotFound
	}

	var state models.ShippingState
	if err := json.Unmarshal(raw, &state); err != nil {
		return err
	}
	if err := fn(&state); err != nil {
		return err
	}

	raw, err := json.Marshal(&state)
	if err != nil {
		return err
	}
	s.data[cartID] = raw
	return nil
}

func (s *MemoryShippingStateStore) Delete(ctx context.Context, cartID string) error {
	s.mu.Lock()
	delete(s.data, cartID)
	s.mu.Unlock()
	return nil
}
