package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// Transaction records a single wallet movement. Amount is always a positive
// magnitude; the direction comes from Type. The wallet reference is
// immutable after creation.
type Transaction struct {
	ID              int64           `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	TransactionDate time.Time       `json:"transaction_date"`
	Type            TransactionType `json:"type"`
	Category        string          `json:"category,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	WalletID        int64           `json:"wallet_id"`
}

// SignedEffect returns the balance delta this transaction contributes:
// positive for INCOME, negative for EXPENSE.
func (t Transaction) SignedEffect() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}
