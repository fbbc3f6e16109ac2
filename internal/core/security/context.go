// Package security carries the pre-authenticated caller identity through
// context. The engine does not authenticate; the HTTP layer extracts the
// subject from an upstream-issued JWT and it ends up in audit fields.
package security

import "context"

type userKey struct{}

// Identity is the caller extracted from the access token.
type Identity struct {
	UserID string
	Email  string
}

// WithIdentity attaches the caller identity to the context.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, userKey{}, ident)
}

// GetIdentity returns the caller identity, or a zero Identity.
func GetIdentity(ctx context.Context) Identity {
	if ident, ok := ctx.Value(userKey{}).(Identity); ok {
		return ident
	}
	return Identity{}
}

// GetUserID returns the caller's user id, or "".
func GetUserID(ctx context.Context) string {
	return GetIdentity(ctx).UserID
}
