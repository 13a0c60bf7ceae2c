package service

import (
	"context"
	"log/slog"

	"github.com/tallyhq/tally/internal/billing"
	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/fx"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// BalanceService aggregates who-owes-whom balances across subscriptions
// and one-off transactions.
type BalanceService struct {
	store  storage.Store
	engine *billing.Engine

	// baseCurrency is the currency balances are converted into when the
	// caller asks for a single-currency view.
	baseCurrency string
}

// NewBalanceService creates a new balance service. baseCurrency is used for
// converted balance views; conversion rates come from the store.
func NewBalanceService(store storage.Store, engine *billing.Engine, baseCurrency string) *BalanceService {
	return &BalanceService{store: store, engine: engine, baseCurrency: baseCurrency}
}

// Balances computes the caller's net balance against every other user they
// share money events with, grouped by (user, currency). Positive amounts
// mean the other user owes the caller.
func (s *BalanceService) Balances(ctx context.Context, callerID string) ([]models.UserBalance, error) {
	groups, err := s.balanceGroups(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return calculator.CombineUserBalances(groups...), nil
}

// ConvertedBalances is Balances with every entry converted into the
// service's base currency using stored exchange rates.
func (s *BalanceService) ConvertedBalances(ctx context.Context, callerID string) ([]models.UserBalance, error) {
	groups, err := s.balanceGroups(ctx, callerID)
	if err != nil {
		return nil, err
	}

	rates, err := s.store.FxRates(ctx, s.baseCurrency)
	if err != nil {
		return nil, err
	}
	converter := fx.NewConverter(s.baseCurrency, rates)

	var converted []models.UserBalance
	for _, group := range groups {
		for _, b := range group {
			cb, err := converter.ConvertBalance(b, s.baseCurrency)
			if err != nil {
				slog.Warn("Skipping balance with no conversion rate",
					"currency", b.CurrencyCode, "user_id", b.UserID)
				continue
			}
			converted = append(converted, cb)
		}
	}
	return calculator.CombineUserBalances(converted), nil
}

func (s *BalanceService) balanceGroups(ctx context.Context, callerID string) ([][]models.UserBalance, error) {
	subs, err := s.store.ListSubscriptionsByUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.ListTransactionsByUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var groups [][]models.UserBalance
	for _, sub := range subs {
		balances, err := s.engine.Balances(sub, callerID)
		if err != nil {
			return nil, err
		}
		groups = append(groups, balances)
	}
	for _, txn := range txns {
		groups = append(groups, calculator.TransactionTransfers(txn, callerID))
	}
	return groups, nil
}
