// Package access is the single wallet access policy: who may read or write
// a wallet. Every ledger and sharing operation goes through these guards
// before touching wallet state.
package access

import (
	"context"
	"fmt"

	"github.com/noxius/grana/internal/apperr"
	"github.com/noxius/grana/internal/model"
	"github.com/noxius/grana/internal/store"
)

// CanAccess reports whether user is the wallet's owner or holds a share
// grant on it.
func CanAccess(ctx context.Context, shares *store.WalletShareStore, user *model.User, wallet *model.Wallet) (bool, error) {
	if wallet.OwnerID == user.ID {
		return true, nil
	}

	share, err := shares.GetByWalletAndUser(ctx, wallet.ID, user.ID)
	if err != nil {
		return false, fmt.Errorf("check share grant: %w", err)
	}
	return share != nil, nil
}

// RequireAccess fails with apperr.ErrForbidden unless user may read/write
// the wallet.
func RequireAccess(ctx context.Context, shares *store.WalletShareStore, user *model.User, wallet *model.Wallet) error {
	ok, err := CanAccess(ctx, shares, user, wallet)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrForbidden
	}
	return nil
}

// RequireOwner fails with apperr.ErrForbidden unless user is exactly the
// wallet's owner. Share grants do not count: only owners may manage shares
// or delete a wallet.
func RequireOwner(user *model.User, wallet *model.Wallet) error {
	if wallet.OwnerID != user.ID {
		return apperr.ErrForbidden
	}
	return nil
}
