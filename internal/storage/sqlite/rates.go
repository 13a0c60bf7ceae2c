package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// FxRates returns the stored exchange rates for the given base currency,
// keyed by quote currency code.
func (s *Store) FxRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, rate FROM fx_rates WHERE base = ?`, base)
	if err != nil {
		return nil, fmt.Errorf("failed to query fx rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[string]decimal.Decimal)
	for rows.Next() {
		var code, raw string
		if err := rows.Scan(&code, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan fx rate: %w", err)
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("bad fx rate for %s: %w", code, err)
		}
		rates[code] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fx rates: %w", err)
	}
	return rates, nil
}

// SetFxRate inserts or replaces a single exchange rate.
func (s *Store) SetFxRate(ctx context.Context, base, code string, rate decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fx_rates (base, code, rate) VALUES (?, ?, ?)
		 ON CONFLICT (base, code) DO UPDATE SET rate = excluded.rate`,
		base, code, rate.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to set fx rate: %w", err)
	}
	return nil
}
