package block

import (
	"strconv"

	"github.com/a-h/templ"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

//go:generate templ generate

const loadingLabel = "Loading shipping rates…"

// Component returns the markup for the view. StateNotNeeded renders nothing.
func (v View) Component() templ.Component {
	switch v.State {
	case StateNotNeeded:
		return templ.NopComponent
	case StateEditorPlaceholder:
		return NoShippingPlaceholder(v.ConfigureURL)
	case StateNoResultsNotice:
		return ratesControl(v.Loading, NoResultsNotice())
	case StateNoResultsMessage:
		return ratesControl(v.Loading, NoResultsMessage())
	default:
		return ratesControl(v.Loading, packageList(v.Packages))
	}
}

func radioGroupName(packageID int) string {
	return "radio-control-" + strconv.Itoa(packageID)
}

// checkedRate is the selected rate, or the first option when none is.
func checkedRate(p models.RenderedPackage) string {
	if p.SelectedRate == "" && len(p.Options) > 0 {
		return p.Options[0].Value
	}
	return p.SelectedRate
}
