package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/block"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/pricing"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/repository"
)

// RateSelectionPublisher notifies upstream that the shopper picked a rate.
type RateSelectionPublisher interface {
	PublishRateSelected(ctx context.Context, cartID string, packageID int, rateID string) error
}

// ShippingStateFetcher loads a snapshot from the cart service when none is
// stored locally.
type ShippingStateFetcher interface {
	GetShippingState(ctx context.Context, cartID string) (*models.ShippingState, error)
}

// RenderedBlock is the output of a block render.
type RenderedBlock struct {
	State block.RenderState
	View  block.View
	HTML  string
}

// CheckoutService renders the shipping block and keeps shipping snapshots.
type CheckoutService struct {
	states       repository.ShippingStateStore
	settings     repository.SettingsRepository
	publisher    RateSelectionPublisher
	fetcher      ShippingStateFetcher
	metrics      *metrics.Recorder
	configureURL string
	logger       *logging.Logger
}

// NewCheckoutService creates a new checkout service. publisher and recorder
// may be nil.
func NewCheckoutService(
	states repository.ShippingStateStore,
	settings repository.SettingsRepository,
	publisher RateSelectionPublisher,
	recorder *metrics.Recorder,
	configureURL string,
) *CheckoutService {
	return &CheckoutService{
		states:       states,
		settings:     settings,
		publisher:    publisher,
		metrics:      recorder,
		configureURL: configureURL,
		logger:       logging.NewLogger("checkout-service"),
	}
}

// WithCartFallback makes snapshot misses read through to the cart service.
func (s *CheckoutService) WithCartFallback(fetcher ShippingStateFetcher) *CheckoutService {
	s.fetcher = fetcher
	return s
}

// RenderShippingBlock renders the block for a stored cart snapshot.
func (s *CheckoutService) RenderShippingBlock(ctx context.Context, cartID string, editor models.EditorState) (*RenderedBlock, error) {
	state, err := s.loadState(ctx, cartID)
	if err != nil {
		return nil, err
	}

	return s.RenderFromState(ctx, editor, *state)
}

func (s *CheckoutService) loadState(ctx context.Context, cartID string) (*models.ShippingState, error) {
	state, err := s.states.Get(ctx, cartID)
	if err == nil {
		return state, nil
	}
	if !apperrors.IsNotFound(err) {
		s.logger.Error("Failed to load shipping state", logging.Fields{
			"cart_id": cartID,
			"error":   err.Error(),
		})
		return nil, err
	}
	if s.fetcher == nil {
		return nil, err
	}

	state, err = s.fetcher.GetShippingState(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := s.states.Set(ctx, cartID, state); err != nil {
		s.logger.Warn("Failed to store fetched shipping state", logging.Fields{
			"cart_id": cartID,
			"error":   err.Error(),
		})
	}
	return state, nil
}

// RenderFromState renders the block for an explicitly supplied snapshot.
func (s *CheckoutService) RenderFromState(ctx context.Context, editor models.EditorState, state models.ShippingState) (*RenderedBlock, error) {
	start := time.Now()

	settings, err := s.settings.GetDisplaySettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load display settings: %w", err)
	}

	view := block.Render(editor, state, func(r models.ShippingRate) models.RenderedOption {
		return pricing.FormatRateOption(r, settings)
	})
	view.ConfigureURL = s.configureURL

	var buf bytes.Buffer
	if err := view.Component().Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("render shipping block: %w", err)
	}

	invalid := view.InvalidAmounts()
	if invalid > 0 {
		s.logger.Warn("Rendered shipping rates with unparsable amounts", logging.Fields{
			"count": invalid,
		})
	}
	s.metrics.ObserveRender(view.State.String(), editor.IsEditor, invalid, time.Since(start))

	return &RenderedBlock{
		State: view.State,
		View:  view,
		HTML:  buf.String(),
	}, nil
}

// FormatRates returns the display-ready options for the given packages.
func (s *CheckoutService) FormatRates(ctx context.Context, packages []models.RatePackage) ([]models.RenderedPackage, error) {
	settings, err := s.settings.GetDisplaySettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load display settings: %w", err)
	}
	return pricing.FormatPackages(packages, settings), nil
}

// ApplyShippingUpdate validates and stores a snapshot from upstream.
func (s *CheckoutService) ApplyShippingUpdate(ctx context.Context, update *ShippingUpdate) error {
	if err := ValidateShippingUpdate(update); err != nil {
		return err
	}

	if err := s.states.Set(ctx, update.CartID, &update.State); err != nil {
		return err
	}

	s.logger.Info("Shipping state updated", logging.Fields{
		"cart_id":                 update.CartID,
		"packages":                models.PackageCount(update.State.ShippingRates),
		"rates":                   models.RateCount(update.State.ShippingRates),
		"needs_shipping":          update.State.NeedsShipping,
		"has_calculated_shipping": update.State.HasCalculatedShipping,
	})
	return nil
}

// SelectRate marks rateID as the chosen rate of the package and notifies
// upstream.
func (s *CheckoutService) SelectRate(ctx context.Context, cartID string, packageID int, rateID string) (*models.ShippingState, error) {
	if err := ValidateRateSelection(cartID, rateID); err != nil {
		return nil, err
	}

	// Populates the store from the cart service on a miss.
	if _, err := s.loadState(ctx, cartID); err != nil {
		return nil, err
	}

	logger := s.logger.With(logging.Fields{"cart_id": cartID})

	var state *models.ShippingState
	err := s.states.Update(ctx, cartID, func(st *models.ShippingState) error {
		if err := selectRate(st, packageID, rateID); err != nil {
			return err
		}
		state = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRateSelected(ctx, cartID, packageID, rateID); err != nil {
			// The snapshot already reflects the choice; upstream catches up
			// on the next cart update.
			logger.Error("Failed to publish rate selection", logging.Fields{
				"rate_id": rateID,
				"error":   err.Error(),
			})
		}
	}

	logger.Info("Shipping rate selected", logging.Fields{
		"package_id": packageID,
		"rate_id":    rateID,
	})
	return state, nil
}

// selectRate marks rateID as the only selected rate of the package.
func selectRate(state *models.ShippingState, packageID int, rateID string) error {
	for i := range state.ShippingRates {
		p := &state.ShippingRates[i]
		if p.PackageID != packageID {
			continue
		}
		for j := range p.ShippingRates {
			if p.ShippingRates[j].RateID != rateID {
				continue
			}
			for k := range p.ShippingRates {
				p.ShippingRates[k].Selected = k == j
			}
			return nil
		}
		break
	}
	return fmt.Errorf("rate %s in package %d: %w", rateID, packageID, apperrors.ErrNotFound)
}

// ClearShippingState drops the snapshot for a cart that no longer exists.
func (s *CheckoutService) ClearShippingState(ctx context.Context, cartID string) error {
	if err := s.states.Delete(ctx, cartID); err != nil {
		return err
	}
	s.logger.Info("Shipping state cleared", logging.Fields{"cart_id": cartID})
	return nil
}
