package models

// TransactionType distinguishes ordinary payments from settle-up transfers.
type TransactionType string

const (
	// TxPayment is a regular one-off expense.
	TxPayment TransactionType = "PAYMENT"

	// TxSettle is a balance-clearing transfer between users. Settle
	// transactions are excluded from spend aggregation.
	TxSettle TransactionType = "SETTLE"
)

// Transaction is a one-off money event.
type Transaction struct {
	ID           string
	Name         string
	OwnerID      string
	Type         TransactionType
	Date         Date
	Amount       int64
	CurrencyCode string

	Contributions []Contribution
}
