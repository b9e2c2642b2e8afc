// Package auth verifies bearer tokens against the external auth provider
// and carries the resulting identity through request contexts. Session and
// token lifecycle live entirely in the provider; this package only asks
// "who is this token".
package auth

import "context"

// Identity is a verified user as reported by the auth provider.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

type contextKey struct{}

// WithIdentity stores a verified identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFrom extracts the verified identity placed by the auth
// middleware. The second return is false when the request was not
// authenticated.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
