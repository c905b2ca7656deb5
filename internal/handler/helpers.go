// Package handler exposes the ledger over JSON HTTP endpoints.
package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/noxius/grana/internal/apperr"
	"github.com/noxius/grana/internal/auth"
	"github.com/noxius/grana/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

// writeError maps domain errors to HTTP statuses. Anything unrecognized is a
// 500 and gets logged; the known errors are the caller's fault and are not.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrUserNotFound),
		errors.Is(err, apperr.ErrWalletNotFound),
		errors.Is(err, apperr.ErrTransactionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrIDAlreadyExists),
		errors.Is(err, apperr.ErrAlreadyShared),
		errors.Is(err, apperr.ErrNotShared),
		errors.Is(err, apperr.ErrWalletNotEmpty):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrUsernameTaken):
		status = http.StatusBadRequest
	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// walletAudience returns the usernames that should hear about a change to
// the given wallet: the owner plus every share grantee.
func walletAudience(ctx context.Context, db *sql.DB, walletID int64) []string {
	users := store.NewUserStore(db)
	wallets := store.NewWalletStore(db)
	shares := store.NewWalletShareStore(db)

	w, err := wallets.GetByID(ctx, walletID)
	if err != nil || w == nil {
		return nil
	}

	var audience []string
	if owner, err := users.GetByID(ctx, w.OwnerID); err == nil && owner != nil {
		audience = append(audience, owner.Username)
	}
	grants, err := shares.ListByWallet(ctx, walletID)
	if err != nil {
		return audience
	}
	for _, grant := range grants {
		if u, err := users.GetByID(ctx, grant.UserID); err == nil && u != nil {
			audience = append(audience, u.Username)
		}
	}
	return audience
}
