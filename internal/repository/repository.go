package repository

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// ShippingStateStore holds the latest shipping snapshot per cart.
type ShippingStateStore interface {
	// Get returns apperrors.ErrNotFound when no snapshot exists.
	Get(ctx context.Context, cartID string) (*models.ShippingState, error)
	Set(ctx context.Context, cartID string, state *models.ShippingState) error
	Delete(ctx context.Context, cartID string) error
	// Update applies fn to the stored snapshot atomically. The snapshot is
	// not written when fn returns an error.
	Update(ctx context.Context, cartID string, fn func(*models.ShippingState) error) error
}

// SettingsRepository resolves the store's display settings.
type SettingsRepository interface {
	GetDisplaySettings(ctx context.Context) (models.DisplaySettings, error)
}

// StaticSettingsRepository serves settings fixed at startup.
type StaticSettingsRepository struct {
	Settings models.DisplaySettings
}

func (r StaticSettingsRepository) GetDisplaySettings(ctx context.Context) (models.DisplaySettings, error) {
	return r.Settings, nil
}
