package session

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for session persistence
type Store interface {
	// Save stores a session and evicts any other session of the same credential.
	Save(ctx context.Context, session *Session) error

	// Get retrieves a session by token. Expired sessions are removed and
	// reported as ErrSessionExpired.
	Get(ctx context.Context, token string) (*Session, error)

	// MarkVerified sets the verified flag on an unexpired session.
	MarkVerified(ctx context.Context, token string) error

	// ResetVerification clears the verified flag of the credential's session, if any.
	ResetVerification(ctx context.Context, credentialID uuid.UUID) error

	// Delete removes a session by token. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByCredentialID removes the credential's session, if any.
	DeleteByCredentialID(ctx context.Context, credentialID uuid.UUID) error

	// DeleteExpired removes all expired sessions
	DeleteExpired(ctx context.Context) error
}
