// Package block renders the checkout shipping-methods block.
//
// Rendering is a pure function of the editor state, the shipping state
// snapshot and an option renderer. The caller owns all inputs; nothing here
// reads ambient state or mutates the snapshot.
package block

import (
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/pricing"
)

const (
	NoResultsNoticeText = "There are no shipping options available. Please ensure that your address has been entered correctly, or contact us if you need any help."

	NoResultsMessageText = "Shipping options will appear here after entering your full shipping address."

	NoResultsNoticeClass = "wc-block-components-shipping-rates-control__no-results-notice woocommerce-error"
)

// RenderState is the branch the block takes for a given input.
type RenderState int

const (
	StateNotNeeded RenderState = iota
	StateEditorPlaceholder
	StateNoResultsNotice
	StateNoResultsMessage
	StateRates
)

func (s RenderState) String() string {
	switch s {
	case StateNotNeeded:
		return "not_needed"
	case StateEditorPlaceholder:
		return "editor_placeholder"
	case StateNoResultsNotice:
		return "no_results_notice"
	case StateNoResultsMessage:
		return "no_results_message"
	case StateRates:
		return "rates"
	default:
		return "unknown"
	}
}

// OptionRenderer turns a raw rate into the option shown in the control.
type OptionRenderer func(rate models.ShippingRate) models.RenderedOption

// Decide evaluates the render branches in order.
func Decide(editor models.EditorState, state models.ShippingState) RenderState {
	if !state.NeedsShipping {
		return StateNotNeeded
	}

	rateCount := models.RateCount(state.ShippingRates)

	if editor.IsEditor && rateCount == 0 {
		return StateEditorPlaceholder
	}

	if rateCount == 0 {
		if state.HasCalculatedShipping {
			return StateNoResultsNotice
		}
		return StateNoResultsMessage
	}

	return StateRates
}

// View is everything needed to produce the block's markup.
type View struct {
	State    RenderState
	Loading  bool
	Packages []models.RenderedPackage

	// ConfigureURL is linked from the editor placeholder.
	ConfigureURL string
}

// Render decides the branch and, for the rates branch, formats every option
// through renderOption.
func Render(editor models.EditorState, state models.ShippingState, renderOption OptionRenderer) View {
	v := View{
		State:   Decide(editor, state),
		Loading: state.ShippingRatesLoading,
	}
	if v.State != StateRates {
		return v
	}

	v.Packages = pricing.BuildPackages(state.ShippingRates, renderOption)
	return v
}

// InvalidAmounts counts options whose secondary label could not be parsed.
func (v View) InvalidAmounts() int {
	n := 0
	for _, p := range v.Packages {
		for _, o := range p.Options {
			if !o.SecondaryLabel.Valid {
				n++
			}
		}
	}
	return n
}
