// Package ledger applies transactions to wallet balances. Every balance
// mutation in the system happens here, inside one database transaction
// spanning the balance update and the transaction record write, so the
// stored balance always equals the sum of the signed effects of the
// wallet's transactions.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/noxius/grana/internal/access"
	"github.com/noxius/grana/internal/apperr"
	"github.com/noxius/grana/internal/model"
	"github.com/noxius/grana/internal/store"
)

type Engine struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewEngine(db *sql.DB, logger *slog.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// Create applies a new transaction to its wallet. The input must not carry
// an identifier; the transaction date defaults to now when unset.
func (e *Engine) Create(ctx context.Context, caller *model.User, input model.Transaction) (*model.Transaction, error) {
	if input.ID != 0 {
		return nil, apperr.ErrIDAlreadyExists
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	wallets := store.NewWalletStore(tx)
	transactions := store.NewTransactionStore(tx)
	shares := store.NewWalletShareStore(tx)

	wallet, err := wallets.GetByID(ctx, input.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, apperr.ErrWalletNotFound
	}

	if err := access.RequireAccess(ctx, shares, caller, wallet); err != nil {
		return nil, err
	}

	if input.TransactionDate.IsZero() {
		input.TransactionDate = time.Now()
	}

	newBalance := wallet.Balance.Add(input.SignedEffect())
	if err := wallets.UpdateBalance(ctx, wallet.ID, newBalance); err != nil {
		return nil, err
	}

	created, err := transactions.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}

	e.logger.Info("transaction applied",
		"transaction_id", created.ID,
		"wallet_id", wallet.ID,
		"type", created.Type,
		"amount", created.Amount,
		"balance", newBalance,
	)
	return created, nil
}

// Update rewrites an existing transaction and adjusts the wallet balance in
// one step: the old signed effect is reversed and the new one applied. The
// wallet reference is immutable; whatever wallet the caller supplies is
// overwritten with the stored transaction's wallet.
func (e *Engine) Update(ctx context.Context, caller *model.User, input model.Transaction) (*model.Transaction, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	wallets := store.NewWalletStore(tx)
	transactions := store.NewTransactionStore(tx)
	shares := store.NewWalletShareStore(tx)

	existing, err := transactions.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.ErrTransactionNotFound
	}

	wallet, err := wallets.GetByID(ctx, existing.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, apperr.ErrWalletNotFound
	}

	if err := access.RequireAccess(ctx, shares, caller, wallet); err != nil {
		return nil, err
	}

	input.WalletID = existing.WalletID
	if input.TransactionDate.IsZero() {
		input.TransactionDate = existing.TransactionDate
	}

	newBalance := wallet.Balance.Sub(existing.SignedEffect()).Add(input.SignedEffect())
	if err := wallets.UpdateBalance(ctx, wallet.ID, newBalance); err != nil {
		return nil, err
	}

	updated, err := transactions.Update(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}

	e.logger.Info("transaction updated",
		"transaction_id", updated.ID,
		"wallet_id", wallet.ID,
		"balance", newBalance,
	)
	return updated, nil
}

// Delete reverses the transaction's signed effect on the wallet balance and
// removes the record, atomically.
func (e *Engine) Delete(ctx context.Context, caller *model.User, id int64) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	wallets := store.NewWalletStore(tx)
	transactions := store.NewTransactionStore(tx)
	shares := store.NewWalletShareStore(tx)

	existing, err := transactions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.ErrTransactionNotFound
	}

	wallet, err := wallets.GetByID(ctx, existing.WalletID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return apperr.ErrWalletNotFound
	}

	if err := access.RequireAccess(ctx, shares, caller, wallet); err != nil {
		return err
	}

	newBalance := wallet.Balance.Sub(existing.SignedEffect())
	if err := wallets.UpdateBalance(ctx, wallet.ID, newBalance); err != nil {
		return err
	}

	if err := transactions.Delete(ctx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	e.logger.Info("transaction reverted",
		"transaction_id", id,
		"wallet_id", wallet.ID,
		"balance", newBalance,
	)
	return nil
}

// Get returns a single transaction after an access check on its wallet.
func (e *Engine) Get(ctx context.Context, caller *model.User, id int64) (*model.Transaction, error) {
	transactions := store.NewTransactionStore(e.db)
	wallets := store.NewWalletStore(e.db)
	shares := store.NewWalletShareStore(e.db)

	t, err := transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.ErrTransactionNotFound
	}

	wallet, err := wallets.GetByID(ctx, t.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, apperr.ErrWalletNotFound
	}

	if err := access.RequireAccess(ctx, shares, caller, wallet); err != nil {
		return nil, err
	}
	return t, nil
}

// Filter narrows a wallet's transaction history. Zero values mean "not set".
type Filter struct {
	Type     model.TransactionType
	Category string
	Start    time.Time
	End      time.Time
}

func (f Filter) hasRange() bool {
	return !f.Start.IsZero() && !f.End.IsZero()
}

// List returns the wallet's transactions, newest first. When several
// filters are supplied, category wins over type and date range; type and
// range combine when both are present without a category.
func (e *Engine) List(ctx context.Context, caller *model.User, walletID int64, f Filter) ([]model.Transaction, error) {
	wallets := store.NewWalletStore(e.db)
	transactions := store.NewTransactionStore(e.db)
	shares := store.NewWalletShareStore(e.db)

	wallet, err := wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, apperr.ErrWalletNotFound
	}

	if err := access.RequireAccess(ctx, shares, caller, wallet); err != nil {
		return nil, err
	}

	switch {
	case f.Category != "":
		return transactions.ListByWalletAndCategory(ctx, walletID, f.Category)
	case f.Type != "" && f.hasRange():
		return transactions.ListByWalletAndTypeAndDateRange(ctx, walletID, f.Type, f.Start, f.End)
	case f.hasRange():
		return transactions.ListByWalletAndDateRange(ctx, walletID, f.Start, f.End)
	case f.Type != "":
		return transactions.ListByWalletAndType(ctx, walletID, f.Type)
	default:
		return transactions.ListByWallet(ctx, walletID)
	}
}
