// ABOUTME: Identity propagation through request handlers via context
// ABOUTME: Provides WithIdentity/IdentityFromContext for downstream dispatchers

package auth

import (
	"context"
)

// identityKey is the key type for storing an Identity in context.Context.
type identityKey struct{}

// WithIdentity returns a new context with the verified identity attached.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// IdentityFromContext retrieves the Identity from the context, returning
// nil if not present.
func IdentityFromContext(ctx context.Context) *Identity {
	val := ctx.Value(identityKey{})
	if val == nil {
		return nil
	}
	ident, ok := val.(*Identity)
	if !ok {
		return nil
	}
	return ident
}
