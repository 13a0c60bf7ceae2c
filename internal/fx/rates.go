// Package fx provides simple currency-rate lookup and minor-unit conversion
// for display purposes. It makes no attempt at correctness beyond applying
// a stored rate: no spreads, no historical rates, no rounding law.
package fx

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
)

// Converter converts minor-unit amounts between currencies using a fixed
// rate table keyed against a base currency.
type Converter struct {
	base string
	// rates[code] is how many units of code one unit of the base buys.
	rates map[string]decimal.Decimal
}

// NewConverter builds a converter for the given base currency. Rates are
// expressed as units of the quoted currency per unit of the base.
func NewConverter(base string, rates map[string]decimal.Decimal) *Converter {
	all := make(map[string]decimal.Decimal, len(rates)+1)
	for code, rate := range rates {
		all[code] = rate
	}
	all[base] = decimal.NewFromInt(1)
	return &Converter{base: base, rates: all}
}

// Rate returns the from -> to exchange rate.
func (c *Converter) Rate(from, to string) (decimal.Decimal, error) {
	fromRate, ok := c.rates[from]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: no rate for currency %q", models.ErrInvalidArgument, from)
	}
	toRate, ok := c.rates[to]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: no rate for currency %q", models.ErrInvalidArgument, to)
	}
	return toRate.Div(fromRate), nil
}

// Convert converts a minor-unit amount between currencies, rounding to the
// nearest minor unit.
func (c *Converter) Convert(amount int64, from, to string) (int64, error) {
	if from == to {
		return amount, nil
	}
	rate, err := c.Rate(from, to)
	if err != nil {
		return 0, err
	}
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart(), nil
}

// ConvertBalance returns a copy of the balance re-quoted in the target
// currency.
func (c *Converter) ConvertBalance(b models.UserBalance, to string) (models.UserBalance, error) {
	amount, err := c.Convert(b.Amount, b.CurrencyCode, to)
	if err != nil {
		return models.UserBalance{}, err
	}
	return models.UserBalance{UserID: b.UserID, Amount: amount, CurrencyCode: to}, nil
}
