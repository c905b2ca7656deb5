// Package wallet covers wallet lifecycle outside the ledger: creation,
// descriptive updates, listing, and guarded deletion.
package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/noxius/grana/internal/access"
	"github.com/noxius/grana/internal/apperr"
	"github.com/noxius/grana/internal/model"
	"github.com/noxius/grana/internal/store"
)

type Service struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewService(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Create opens a new wallet owned by the caller. The initial balance may be
// non-zero (an opening balance supplied by the caller).
func (s *Service) Create(ctx context.Context, owner *model.User, w model.Wallet) (*model.Wallet, error) {
	if w.ID != 0 {
		return nil, apperr.ErrIDAlreadyExists
	}
	w.OwnerID = owner.ID
	if w.Type == "" {
		w.Type = model.WalletPersonal
	}

	created, err := store.NewWalletStore(s.db).Create(ctx, w)
	if err != nil {
		return nil, err
	}

	s.logger.Info("wallet created", "wallet_id", created.ID, "owner_id", owner.ID, "type", created.Type)
	return created, nil
}

// Get returns a wallet after an access check.
func (s *Service) Get(ctx context.Context, caller *model.User, id int64) (*model.Wallet, error) {
	wallets := store.NewWalletStore(s.db)
	shares := store.NewWalletShareStore(s.db)

	w, err := wallets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperr.ErrWalletNotFound
	}

	if err := access.RequireAccess(ctx, shares, caller, w); err != nil {
		return nil, err
	}
	return w, nil
}

// List returns the caller's own wallets followed by wallets shared with them.
func (s *Service) List(ctx context.Context, caller *model.User) ([]model.Wallet, error) {
	wallets := store.NewWalletStore(s.db)
	shares := store.NewWalletShareStore(s.db)

	owned, err := wallets.ListByOwner(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	grants, err := shares.ListByUser(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	result := owned
	for _, grant := range grants {
		w, err := wallets.GetByID(ctx, grant.WalletID)
		if err != nil {
			return nil, err
		}
		if w != nil {
			result = append(result, *w)
		}
	}
	return result, nil
}

// Update changes descriptive fields. Owner, creation time, and balance are
// preserved regardless of what the caller sends; owners and share grantees
// may both update.
func (s *Service) Update(ctx context.Context, caller *model.User, w model.Wallet) (*model.Wallet, error) {
	wallets := store.NewWalletStore(s.db)
	shares := store.NewWalletShareStore(s.db)

	existing, err := wallets.GetByID(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.ErrWalletNotFound
	}

	if err := access.RequireAccess(ctx, shares, caller, existing); err != nil {
		return nil, err
	}

	return wallets.Update(ctx, w.ID, w.Name, w.Type, w.Icon, w.Color, w.Description)
}

// Delete removes a wallet. Owner only, and refused while transactions still
// reference the wallet: the ledger history must be emptied (or moved) first
// so no balance evidence silently disappears.
func (s *Service) Delete(ctx context.Context, caller *model.User, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin wallet delete: %w", err)
	}
	defer tx.Rollback()

	wallets := store.NewWalletStore(tx)
	transactions := store.NewTransactionStore(tx)

	w, err := wallets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return apperr.ErrWalletNotFound
	}

	if err := access.RequireOwner(caller, w); err != nil {
		return err
	}

	n, err := transactions.CountByWallet(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.ErrWalletNotEmpty
	}

	if err := wallets.Delete(ctx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit wallet delete: %w", err)
	}

	s.logger.Info("wallet deleted", "wallet_id", id, "owner_id", caller.ID)
	return nil
}
