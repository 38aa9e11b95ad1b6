package auth

import "context"

type credentialContextKey struct{}

// WithCredential stores the authenticated credential for downstream handlers.
func WithCredential(ctx context.Context, cred *Credential) context.Context {
	return context.WithValue(ctx, credentialContextKey{}, cred)
}

// CredentialFromContext returns nil when no credential was stored.
func CredentialFromContext(ctx context.Context) *Credential {
	cred, _ := ctx.Value(credentialContextKey{}).(*Credential)
	return cred
}
