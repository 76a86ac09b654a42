package pricing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

func intPtr(v int) *int { return &v }

func testRate() models.ShippingRate {
	return models.ShippingRate{
		RateID:                    "flat_rate:1",
		Name:                      "Flat &amp; Fast",
		Description:               "Ships from &quot;Main&quot; warehouse",
		DeliveryTime:              "2&ndash;3 days",
		Price:                     "500",
		Taxes:                     "75",
		CurrencyCode:              "USD",
		CurrencySymbol:            "$",
		CurrencyMinorUnit:         intPtr(2),
		CurrencyDecimalSeparator:  ".",
		CurrencyThousandSeparator: ",",
		CurrencyPrefix:            "$",
	}
}

func TestDisplayPrice(t *testing.T) {
	tests := []struct {
		name       string
		price      string
		taxes      string
		includeTax bool
		want       int64
		valid      bool
	}{
		{"excluding tax", "500", "75", false, 500, true},
		{"including tax", "500", "75", true, 575, true},
		{"zero price with tax", "0", "0", true, 0, true},
		{"large values", "123456789012", "987654321", true, 124444443333, true},
		{"bad tax ignored when excluded", "500", "abc", false, 500, true},
		{"bad tax when included", "500", "abc", true, 0, false},
		{"bad price", "free", "0", false, 0, false},
		{"empty price", "", "0", true, 0, false},
		{"trailing garbage parsed leniently", "12abc", "3", true, 15, true},
		{"leading whitespace", "  42", "0", false, 42, true},
		{"negative taxes", "500", "-100", true, 400, true},
		{"decimal string truncates", "12.99", "0", false, 12, true},
		{"overflow is invalid", "9223372036854775807", "1", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := testRate()
			rate.Price = tt.price
			rate.Taxes = tt.taxes

			got := DisplayPrice(rate, models.DisplaySettings{IncludeTaxInDisplayedPrice: tt.includeTax})

			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, got.Value)
			}
		})
	}
}

func TestFormatRateOption(t *testing.T) {
	opt := FormatRateOption(testRate(), models.DisplaySettings{IncludeTaxInDisplayedPrice: true})

	assert.Equal(t, "Flat & Fast", opt.Label)
	assert.Equal(t, "flat_rate:1", opt.Value)
	assert.Equal(t, `Ships from "Main" warehouse`, opt.Description)
	assert.Equal(t, "2–3 days", opt.SecondaryDescription)
	assert.True(t, opt.SecondaryLabel.Valid)
	assert.Equal(t, int64(575), opt.SecondaryLabel.Value)
	assert.Equal(t, "USD", opt.SecondaryLabel.Currency.Code)
}

func TestFormatRateOption_Idempotent(t *testing.T) {
	rate := testRate()
	settings := models.DisplaySettings{IncludeTaxInDisplayedPrice: true}

	first := FormatRateOption(rate, settings)
	second := FormatRateOption(rate, settings)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("FormatRateOption not idempotent (-first +second):\n%s", diff)
	}
	assert.Equal(t, testRate(), rate, "input rate must not be modified")
}

func TestFormatRateOption_MalformedPricePassesThrough(t *testing.T) {
	rate := testRate()
	rate.Price = "n/a"

	require.NotPanics(t, func() {
		opt := FormatRateOption(rate, models.DisplaySettings{})
		assert.False(t, opt.SecondaryLabel.Valid)
		assert.Equal(t, "$NaN", FormatMonetaryAmount(opt.SecondaryLabel))
	})
}

func TestDecodeEntities(t *testing.T) {
	tests := map[string]string{
		"Plain":             "Plain",
		"A &amp; B":         "A & B",
		"&lt;b&gt;":         "<b>",
		"caf&#233;":         "café",
		"caf&#xE9;":         "café",
		"&euro;5":           "€5",
		"unknown &foo; ref": "unknown &foo; ref",
	}
	for in, want := range tests {
		assert.Equal(t, want, DecodeEntities(in), in)
	}
}

func TestCurrencyFromRate_Defaults(t *testing.T) {
	c := CurrencyFromRate(models.ShippingRate{CurrencyCode: "EUR", CurrencySymbol: "€"})

	assert.Equal(t, 2, c.MinorUnit)
	assert.Equal(t, ".", c.DecimalSeparator)
	assert.Equal(t, ",", c.ThousandSeparator)
	assert.Equal(t, "€", c.Prefix)
	assert.Empty(t, c.Suffix)
}

func TestFormatMonetaryAmount(t *testing.T) {
	usd := models.Currency{Code: "USD", MinorUnit: 2, DecimalSeparator: ".", ThousandSeparator: ",", Prefix: "$"}
	eur := models.Currency{Code: "EUR", MinorUnit: 2, DecimalSeparator: ",", ThousandSeparator: ".", Suffix: " €"}
	jpy := models.Currency{Code: "JPY", MinorUnit: 0, DecimalSeparator: ".", ThousandSeparator: ",", Prefix: "¥"}

	tests := []struct {
		name   string
		amount models.MonetaryAmount
		want   string
	}{
		{"usd simple", models.MonetaryAmount{Value: 575, Valid: true, Currency: usd}, "$5.75"},
		{"usd cents only", models.MonetaryAmount{Value: 5, Valid: true, Currency: usd}, "$0.05"},
		{"usd zero", models.MonetaryAmount{Value: 0, Valid: true, Currency: usd}, "$0.00"},
		{"usd thousands", models.MonetaryAmount{Value: 123456789, Valid: true, Currency: usd}, "$1,234,567.89"},
		{"usd negative", models.MonetaryAmount{Value: -1250, Valid: true, Currency: usd}, "-$12.50"},
		{"eur suffix", models.MonetaryAmount{Value: 100000, Valid: true, Currency: eur}, "1.000,00 €"},
		{"jpy no minor unit", models.MonetaryAmount{Value: 1500, Valid: true, Currency: jpy}, "¥1,500"},
		{"invalid", models.MonetaryAmount{Valid: false, Currency: eur}, "NaN €"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMonetaryAmount(tt.amount))
		})
	}
}

func TestFormatPackages(t *testing.T) {
	second := testRate()
	second.RateID = "free_shipping:2"
	second.Price = "0"
	second.Taxes = "0"
	second.Selected = true

	packages := []models.RatePackage{
		{PackageID: 0, Name: "Shipment &#8470;1", ShippingRates: []models.ShippingRate{testRate(), second}},
	}

	got := FormatPackages(packages, models.DisplaySettings{})

	require.Len(t, got, 1)
	assert.Equal(t, "Shipment №1", got[0].Name)
	assert.Equal(t, "free_shipping:2", got[0].SelectedRate)
	require.Len(t, got[0].Options, 2)
	assert.Equal(t, int64(500), got[0].Options[0].SecondaryLabel.Value)
}

func TestBuildPackages_UsesRenderer(t *testing.T) {
	packages := []models.RatePackage{
		{PackageID: 3, Name: "Shipment &amp; co", ShippingRates: []models.ShippingRate{testRate()}},
		{PackageID: 4, ShippingRates: nil},
	}

	calls := 0
	got := BuildPackages(packages, func(r models.ShippingRate) models.RenderedOption {
		calls++
		return models.RenderedOption{Value: "custom:" + r.RateID}
	})

	assert.Equal(t, 1, calls)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].PackageID)
	assert.Equal(t, "Shipment & co", got[0].Name)
	assert.Equal(t, "custom:"+testRate().RateID, got[0].Options[0].Value)
	assert.Empty(t, got[1].Options)
	assert.NotNil(t, got[1].Options)
}
