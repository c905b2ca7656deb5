// Package apperr defines the error kinds shared across the wallet core.
// Every service returns one of these sentinels (possibly wrapped) so the
// HTTP layer can map them to status codes with errors.Is.
package apperr

import "errors"

var (
	// ErrUnauthenticated means no principal was presented at all.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUserNotFound means a principal or username did not resolve to a user.
	ErrUserNotFound = errors.New("user not found")

	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrForbidden means the caller is authenticated but is neither the
	// wallet's owner nor a share grantee.
	ErrForbidden = errors.New("forbidden")

	// ErrIDAlreadyExists means a create was called with a pre-assigned identifier.
	ErrIDAlreadyExists = errors.New("id already exists")

	ErrAlreadyShared = errors.New("wallet already shared with this user")
	ErrNotShared     = errors.New("wallet is not shared with this user")

	// ErrWalletNotEmpty means a wallet delete was refused because
	// transactions still reference it.
	ErrWalletNotEmpty = errors.New("wallet still has transactions")
)
