package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type WalletType string

const (
	WalletPersonal WalletType = "PERSONAL"
	WalletSavings  WalletType = "SAVINGS"
	WalletShared   WalletType = "SHARED"
)

// Wallet holds a stored running balance. The balance is only ever mutated
// through the ledger engine; it must equal the sum of the signed effects of
// the wallet's transactions at all times.
type Wallet struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Balance     decimal.Decimal `json:"balance"`
	Type        WalletType      `json:"type"`
	Icon        string          `json:"icon,omitempty"`
	Color       string          `json:"color,omitempty"`
	Description string          `json:"description,omitempty"`
	OwnerID     int64           `json:"owner_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WalletShare grants a non-owner read/write access to one wallet.
// At most one share exists per (wallet, grantee) pair.
type WalletShare struct {
	ID        int64     `json:"id"`
	WalletID  int64     `json:"wallet_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
