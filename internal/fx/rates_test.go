package fx

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
)

func testConverter() *Converter {
	return NewConverter("EUR", map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("1.10"),
		"GBP": decimal.RequireFromString("0.85"),
	})
}

func TestConvert(t *testing.T) {
	c := testConverter()

	tests := []struct {
		name     string
		amount   int64
		from, to string
		want     int64
	}{
		{name: "same currency is identity", amount: 1234, from: "EUR", to: "EUR", want: 1234},
		{name: "base to quote", amount: 1000, from: "EUR", to: "USD", want: 1100},
		{name: "quote to base", amount: 1100, from: "USD", to: "EUR", want: 1000},
		{name: "cross rate via base", amount: 1100, from: "USD", to: "GBP", want: 850},
		{name: "rounds to nearest minor unit", amount: 1, from: "EUR", to: "USD", want: 1},
		{name: "negative amounts convert symmetrically", amount: -1000, from: "EUR", to: "USD", want: -1100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Convert(tt.amount, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("converted = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConvertUnknownCurrency(t *testing.T) {
	c := testConverter()

	if _, err := c.Convert(100, "XXX", "EUR"); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestConvertBalance(t *testing.T) {
	c := testConverter()

	got, err := c.ConvertBalance(models.UserBalance{UserID: "u1", Amount: 1000, CurrencyCode: "EUR"}, "USD")
	if err != nil {
		t.Fatalf("ConvertBalance() error = %v", err)
	}
	want := models.UserBalance{UserID: "u1", Amount: 1100, CurrencyCode: "USD"}
	if got != want {
		t.Errorf("balance = %+v, want %+v", got, want)
	}
}
