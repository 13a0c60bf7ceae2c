package calculator

import "github.com/tallyhq/tally/internal/models"

// CombineUserBalances flattens per-event balance slices, merging entries
// that share (user, currency) by summing their amounts. Output order is the
// order in which each (user, currency) pair first appears; callers needing a
// sort order apply it themselves.
func CombineUserBalances(groups ...[]models.UserBalance) []models.UserBalance {
	type key struct {
		userID   string
		currency string
	}

	index := make(map[key]int)
	var combined []models.UserBalance
	for _, group := range groups {
		for _, b := range group {
			k := key{b.UserID, b.CurrencyCode}
			if i, seen := index[k]; seen {
				combined[i].Amount += b.Amount
				continue
			}
			index[k] = len(combined)
			combined = append(combined, b)
		}
	}
	return combined
}

// TransactionTransfers derives the caller's balance entries from a one-off
// transaction. A non-payer caller owes the payer their share; a payer
// caller is owed every other participant's share. Transactions with fewer
// than two assigned participants or no payer transfer nothing.
func TransactionTransfers(tx *models.Transaction, callerID string) []models.UserBalance {
	var assigned []models.Contribution
	for _, c := range tx.Contributions {
		if c.Participant.Assigned() {
			assigned = append(assigned, c)
		}
	}
	if len(assigned) < 2 {
		return nil
	}

	var payerID string
	for _, c := range assigned {
		if c.AmountPaid > 0 {
			payerID, _ = c.Participant.UserID()
			break
		}
	}
	if payerID == "" {
		return nil
	}

	if callerID != payerID {
		for _, c := range assigned {
			if uid, _ := c.Participant.UserID(); uid == callerID {
				return []models.UserBalance{{
					UserID:       payerID,
					Amount:       -c.AmountOwed,
					CurrencyCode: tx.CurrencyCode,
				}}
			}
		}
		return nil
	}

	var balances []models.UserBalance
	for _, c := range assigned {
		uid, _ := c.Participant.UserID()
		if uid == callerID {
			continue
		}
		balances = append(balances, models.UserBalance{
			UserID:       uid,
			Amount:       c.AmountOwed,
			CurrencyCode: tx.CurrencyCode,
		})
	}
	return balances
}

// TransactionSpend returns the user's owed amount in a one-off transaction.
// Settle transfers clear balances rather than spend money, so they count as
// zero, as does a transaction the user has no contribution in.
func TransactionSpend(userID string, tx *models.Transaction) int64 {
	if tx.Type == models.TxSettle {
		return 0
	}
	for _, c := range tx.Contributions {
		if uid, ok := c.Participant.UserID(); ok && uid == userID {
			return c.AmountOwed
		}
	}
	return 0
}
