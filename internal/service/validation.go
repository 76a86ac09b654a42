package service

import (
	"fmt"
	"strings"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// ShippingUpdate is a snapshot pushed by the cart service.
type ShippingUpdate struct {
	CartID string               `json:"cart_id"`
	State  models.ShippingState `json:"state"`
}

// ValidateShippingUpdate checks the structure of an inbound snapshot. Prices
// and taxes are passed through untouched; malformed amounts surface as NaN
// at render time instead of being rejected here.
func ValidateShippingUpdate(update *ShippingUpdate) error {
	if strings.TrimSpace(update.CartID) == "" {
		return apperrors.NewValidationError("cart_id", "cart ID is required")
	}

	seenPackages := make(map[int]struct{}, len(update.State.ShippingRates))
	for _, p := range update.State.ShippingRates {
		if _, dup := seenPackages[p.PackageID]; dup {
			return apperrors.NewValidationError("shipping_rates",
				fmt.Sprintf("duplicate package ID %d", p.PackageID))
		}
		seenPackages[p.PackageID] = struct{}{}

		if err := validatePackageRates(&p); err != nil {
			return err
		}
	}

	return nil
}

func validatePackageRates(p *models.RatePackage) error {
	seen := make(map[string]struct{}, len(p.ShippingRates))
	selected := 0
	for _, r := range p.ShippingRates {
		if r.RateID == "" {
			return apperrors.NewValidationError("shipping_rates",
				fmt.Sprintf("rate ID is required for package %d", p.PackageID))
		}
		if _, dup := seen[r.RateID]; dup {
			return apperrors.NewValidationError("shipping_rates",
				fmt.Sprintf("duplicate rate ID %q in package %d", r.RateID, p.PackageID))
		}
		seen[r.RateID] = struct{}{}
		if r.Selected {
			selected++
		}
	}

	if selected > 1 {
		return apperrors.NewValidationError("shipping_rates",
			fmt.Sprintf("package %d has more than one selected rate", p.PackageID))
	}
	return nil
}

// ValidateRateSelection checks a shopper's rate choice.
func ValidateRateSelection(cartID, rateID string) error {
	if strings.TrimSpace(cartID) == "" {
		return apperrors.NewValidationError("cart_id", "cart ID is required")
	}
	if strings.TrimSpace(rateID) == "" {
		return apperrors.NewValidationError("rate_id", "rate ID is required")
	}
	return nil
}
