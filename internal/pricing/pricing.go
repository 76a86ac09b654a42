package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
	"golang.org/x/net/html"
)

const (
	defaultMinorUnit         = 2
	defaultDecimalSeparator  = "."
	defaultThousandSeparator = ","
)

// DisplayPrice returns the amount shown for a rate: price plus taxes when
// the store displays prices including tax, otherwise the bare price.
// Unparsable input produces an invalid amount rather than an error.
func DisplayPrice(rate models.ShippingRate, settings models.DisplaySettings) models.MonetaryAmount {
	amount := models.MonetaryAmount{Currency: CurrencyFromRate(rate)}

	price, ok := parseMinorUnits(rate.Price)
	if !ok {
		return amount
	}

	if settings.IncludeTaxInDisplayedPrice {
		taxes, ok := parseMinorUnits(rate.Taxes)
		if !ok {
			return amount
		}
		if (taxes > 0 && price > math.MaxInt64-taxes) || (taxes < 0 && price < math.MinInt64-taxes) {
			return amount
		}
		price += taxes
	}

	amount.Value = price
	amount.Valid = true
	return amount
}

// parseMinorUnits reads a base-10 integer the way a lenient integer parser
// does: leading whitespace and sign are accepted and parsing stops at the
// first non-digit. No digits at all is a failure.
func parseMinorUnits(raw string) (int64, bool) {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign, s = s[:1], s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	v, err := strconv.ParseInt(sign+s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CurrencyFromRate extracts the currency description carried on a rate.
func CurrencyFromRate(rate models.ShippingRate) models.Currency {
	c := models.Currency{
		Code:              rate.CurrencyCode,
		Symbol:            rate.CurrencySymbol,
		MinorUnit:         defaultMinorUnit,
		DecimalSeparator:  rate.CurrencyDecimalSeparator,
		ThousandSeparator: rate.CurrencyThousandSeparator,
		Prefix:            rate.CurrencyPrefix,
		Suffix:            rate.CurrencySuffix,
	}
	if rate.CurrencyMinorUnit != nil {
		c.MinorUnit = *rate.CurrencyMinorUnit
	}
	if c.DecimalSeparator == "" {
		c.DecimalSeparator = defaultDecimalSeparator
	}
	if c.ThousandSeparator == "" {
		c.ThousandSeparator = defaultThousandSeparator
	}
	if c.Prefix == "" && c.Suffix == "" {
		c.Prefix = c.Symbol
	}
	return c
}

// DecodeEntities replaces HTML character references with the characters
// they stand for.
func DecodeEntities(s string) string {
	return html.UnescapeString(s)
}

// FormatRateOption maps a raw rate into the option shown by the rates
// control. It has no side effects.
func FormatRateOption(rate models.ShippingRate, settings models.DisplaySettings) models.RenderedOption {
	return models.RenderedOption{
		Label:                DecodeEntities(rate.Name),
		Value:                rate.RateID,
		Description:          DecodeEntities(rate.Description),
		SecondaryLabel:       DisplayPrice(rate, settings),
		SecondaryDescription: DecodeEntities(rate.DeliveryTime),
	}
}

// FormatPackages formats every rate of every package.
func FormatPackages(packages []models.RatePackage, settings models.DisplaySettings) []models.RenderedPackage {
	return BuildPackages(packages, func(r models.ShippingRate) models.RenderedOption {
		return FormatRateOption(r, settings)
	})
}

// BuildPackages turns rate packages into rendered packages, producing each
// option with renderOption. Package names are entity-decoded.
func BuildPackages(packages []models.RatePackage, renderOption func(models.ShippingRate) models.RenderedOption) []models.RenderedPackage {
	out := make([]models.RenderedPackage, 0, len(packages))
	for _, p := range packages {
		rp := models.RenderedPackage{
			PackageID:    p.PackageID,
			Name:         DecodeEntities(p.Name),
			Options:      make([]models.RenderedOption, 0, len(p.ShippingRates)),
			SelectedRate: p.SelectedRateID(),
		}
		for _, r := range p.ShippingRates {
			rp.Options = append(rp.Options, renderOption(r))
		}
		out = append(out, rp)
	}
	return out
}

// FormatMonetaryAmount prints an amount in major units using the currency's
// separators, prefix and suffix.
func FormatMonetaryAmount(amount models.MonetaryAmount) string {
	c := amount.Currency
	if !amount.Valid {
		return c.Prefix + "NaN" + c.Suffix
	}

	value := amount.Value
	negative := value < 0
	digits := strconv.FormatInt(value, 10)
	if negative {
		digits = digits[1:]
	}

	minor := c.MinorUnit
	if minor < 0 {
		minor = 0
	}
	if len(digits) <= minor {
		digits = strings.Repeat("0", minor-len(digits)+1) + digits
	}

	whole := digits[:len(digits)-minor]
	fraction := digits[len(digits)-minor:]

	var b strings.Builder
	if negative {
		b.WriteString("-")
	}
	b.WriteString(c.Prefix)
	b.WriteString(groupThousands(whole, c.ThousandSeparator))
	if minor > 0 {
		b.WriteString(c.DecimalSeparator)
		b.WriteString(fraction)
	}
	b.WriteString(c.Suffix)
	return b.String()
}

func groupThousands(whole, sep string) string {
	if len(whole) <= 3 || sep == "" {
		return whole
	}
	var b strings.Builder
	head := len(whole) % 3
	if head > 0 {
		b.WriteString(whole[:head])
	}
	for i := head; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(whole[i : i+3])
	}
	return b.String()
}
