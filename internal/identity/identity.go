// Package identity resolves the authenticated principal to an application
// user record.
package identity

import (
	"context"
	"fmt"

	"github.com/noxius/grana/internal/apperr"
	"github.com/noxius/grana/internal/auth"
	"github.com/noxius/grana/internal/model"
	"github.com/noxius/grana/internal/store"
)

// Resolver looks up the user record behind the current principal.
// Pure lookup, no side effects.
type Resolver struct {
	users *store.UserStore
}

func NewResolver(users *store.UserStore) *Resolver {
	return &Resolver{users: users}
}

// Resolve maps the principal on ctx to a User. Returns
// apperr.ErrUnauthenticated when no principal is present and
// apperr.ErrUserNotFound when the principal has no user record.
func (r *Resolver) Resolve(ctx context.Context) (*model.User, error) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok || p.Username == "" {
		return nil, apperr.ErrUnauthenticated
	}

	user, err := r.users.GetByUsername(ctx, p.Username)
	if err != nil {
		return nil, fmt.Errorf("resolve principal: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}
	return user, nil
}
