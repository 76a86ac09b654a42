package models

// ShippingRate is one selectable shipping option as delivered by the cart
// service. Price and Taxes are decimal-integer strings in minor units.
type ShippingRate struct {
	RateID       string `json:"rate_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DeliveryTime string `json:"delivery_time"`
	Price        string `json:"price"`
	Taxes        string `json:"taxes"`
	InstanceID   int    `json:"instance_id"`
	MethodID     string `json:"method_id"`
	Selected     bool   `json:"selected"`

	CurrencyCode              string `json:"currency_code"`
	CurrencySymbol            string `json:"currency_symbol"`
	CurrencyMinorUnit         *int   `json:"currency_minor_unit,omitempty"`
	CurrencyDecimalSeparator  string `json:"currency_decimal_separator"`
	CurrencyThousandSeparator string `json:"currency_thousand_separator"`
	CurrencyPrefix            string `json:"currency_prefix"`
	CurrencySuffix            string `json:"currency_suffix"`
}

// ShippingAddress is the destination a package ships to.
type ShippingAddress struct {
	Address1 string `json:"address_1"`
	Address2 string `json:"address_2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// PackageItem identifies a cart line shipped in a package.
type PackageItem struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// RatePackage groups the rates offered for one shipment.
type RatePackage struct {
	PackageID     int             `json:"package_id"`
	Name          string          `json:"name"`
	Destination   ShippingAddress `json:"destination"`
	Items         []PackageItem   `json:"items"`
	ShippingRates []ShippingRate  `json:"shipping_rates"`
}

// ShippingState is a read-only snapshot of the cart's shipping data.
type ShippingState struct {
	ShippingRates         []RatePackage `json:"shipping_rates"`
	ShippingRatesLoading  bool          `json:"shipping_rates_loading"`
	NeedsShipping         bool          `json:"needs_shipping"`
	HasCalculatedShipping bool          `json:"has_calculated_shipping"`
}

// EditorState reports whether the block is rendered inside the page editor.
type EditorState struct {
	IsEditor bool `json:"is_editor"`
}

// DisplaySettings are the store settings the rate formatter depends on.
type DisplaySettings struct {
	IncludeTaxInDisplayedPrice bool `json:"include_tax_in_displayed_price"`
}

// Currency describes how a monetary amount is printed.
type Currency struct {
	Code              string `json:"code"`
	Symbol            string `json:"symbol"`
	MinorUnit         int    `json:"minor_unit"`
	DecimalSeparator  string `json:"decimal_separator"`
	ThousandSeparator string `json:"thousand_separator"`
	Prefix            string `json:"prefix"`
	Suffix            string `json:"suffix"`
}

// MonetaryAmount is a value in minor units. Valid is false when the source
// strings could not be parsed; such amounts print as NaN.
type MonetaryAmount struct {
	Value    int64    `json:"value"`
	Valid    bool     `json:"valid"`
	Currency Currency `json:"currency"`
}

// RenderedOption is the display-ready form of a ShippingRate.
type RenderedOption struct {
	Label                string         `json:"label"`
	Value                string         `json:"value"`
	Description          string         `json:"description"`
	SecondaryLabel       MonetaryAmount `json:"secondary_label"`
	SecondaryDescription string         `json:"secondary_description"`
}

// RenderedPackage pairs a package with its formatted options.
type RenderedPackage struct {
	PackageID    int              `json:"package_id"`
	Name         string           `json:"name"`
	Options      []RenderedOption `json:"options"`
	SelectedRate string           `json:"selected_rate,omitempty"`
}

// RateCount returns the number of rates across all packages.
func RateCount(packages []RatePackage) int {
	n := 0
	for _, p := range packages {
		n += len(p.ShippingRates)
	}
	return n
}

// PackageCount returns the number of packages.
func PackageCount(packages []RatePackage) int {
	return len(packages)
}

// SelectedRateID returns the id of the selected rate in the package, if any.
func (p RatePackage) SelectedRateID() string {
	for _, r := range p.ShippingRates {
		if r.Selected {
			return r.RateID
		}
	}
	return ""
}
