// Package auth carries the caller's identity: the principal context the
// external auth layer establishes, token issuing, and password hashing.
package auth

import "context"

type contextKey struct{}

// Principal is the authenticated caller as presented by the transport
// layer. It is an opaque identity reference; the identity resolver turns
// it into an application user record.
type Principal struct {
	Username string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

// Username returns the current principal's username, or "" when no
// principal is present.
func Username(ctx context.Context) string {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return ""
	}
	return p.Username
}
