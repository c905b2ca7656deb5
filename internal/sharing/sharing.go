// Package sharing manages wallet share grants between a wallet owner and
// other users.
package sharing

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

type Registry struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRegistry(db *sql.DB, logger *slog.Logger) *Registry {
	return &Registry{db: db, logger: logger}
}

// Share grants granteeUsername access to the wallet. Only the owner may
// share; sharing twice with the same user fails with ErrAlreadyShared.
func (r *Registry) Share(ctx context.Context, owner *model.User, walletID int64, granteeUsername string) (*model.WalletShare, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin share: %w", err)
	}
	defer tx.Rollback()

	wallets := store.NewWalletStore(tx)
	users := store.NewUserStore(tx)
	shares := store.NewWalletShareStore(tx)

	wallet, err := wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, apperr.ErrWalletNotFound
	}

	if err := access.RequireOwner(owner, wallet); err != nil {
		return nil, err
	}

	grantee, err := users.GetByUsername(ctx, granteeUsername)
	if err != nil {
		return nil, err
	}
	if grantee == nil {
		return nil, apperr.ErrUserNotFound
	}

	existing, err := shares.GetByWalletAndUser(ctx, wallet.ID, grantee.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.ErrAlreadyShared
	}

	share, err := shares.Create(ctx, wallet.ID, grantee.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit share: %w", err)
	}

	r.logger.Info("wallet shared", "wallet_id", wallet.ID, "owner_id", owner.ID, "grantee", granteeUsername)
	return share, nil
}

// Revoke removes granteeUsername's grant on the wallet. Only the owner may
// revoke; revoking a grant that does not exist fails with ErrNotShared.
func (r *Registry) Revoke(ctx context.Context, owner *model.User, walletID int64, granteeUsername string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin revoke: %w", err)
	}
	defer tx.Rollback()

	wallets := store.NewWalletStore(tx)
	users := store.NewUserStore(tx)
	shares := store.NewWalletShareStore(tx)

	wallet, err := wallets.GetByID(ctx, walletID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return apperr.ErrWalletNotFound
	}

	if err := access.RequireOwner(owner, wallet); err != nil {
		return err
	}

	grantee, err := users.GetByUsername(ctx, granteeUsername)
	if err != nil {
		return err
	}
	if grantee == nil {
		return apperr.ErrUserNotFound
	}

	// The (wallet, grantee) pair is unique, so at most one row matches;
	// deleting the first match satisfies the revoke either way.
	walletShares, err := shares.ListByWallet(ctx, wallet.ID)
	if err != nil {
		return err
	}
	for _, share := range walletShares {
		if share.UserID == grantee.ID {
			if err := shares.Delete(ctx, share.ID); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("commit revoke: %w", err)
			}
			r.logger.Info("wallet share revoked", "wallet_id", wallet.ID, "owner_id", owner.ID, "grantee", granteeUsername)
			return nil
		}
	}

	return apperr.ErrNotShared
}

// ListForUser returns every grant held by the user.
func (r *Registry) ListForUser(ctx context.Context, user *model.User) ([]model.WalletShare, error) {
	return store.NewWalletShareStore(r.db).ListByUser(ctx, user.ID)
}

// ListForWallet returns every grant attached to the wallet. Owner only.
func (r *Registry) ListForWallet(ctx context.Context, caller *model.User, walletID int64) ([]model.WalletShare, error) {
	wallets := store.NewWalletStore(r.db)

	wallet, err := wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, apperr.ErrWalletNotFound
	}
	if err := access.RequireOwner(caller, wallet); err != nil {
		return nil, err
	}

	return store.NewWalletShareStore(r.db).ListByWallet(ctx, walletID)
}
