package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
)

const tokenSize = 32

// Session is a bearer session bound to one credential.
type Session struct {
	Token        string    `json:"token"`
	CredentialID uuid.UUID `json:"credential_id"`
	Verified     bool      `json:"verified"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// New issues a session with a fresh random token that expires ttl after now.
func New(credentialID uuid.UUID, verified bool, now time.Time, ttl time.Duration) (*Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:        token,
		CredentialID: credentialID,
		Verified:     verified,
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
	}, nil
}

// Validate reports whether the session is well formed enough to persist.
func (s *Session) Validate() error {
	if s == nil || s.Token == "" || s.CredentialID == uuid.Nil {
		return ErrInvalidSession
	}
	return nil
}

// ExpiredAt reports whether the session is past its deadline at t.
func (s *Session) ExpiredAt(t time.Time) bool {
	return s != nil && !t.Before(s.ExpiresAt)
}

// FullyAuthenticatedAt reports whether the session grants access at t.
// A session is fully authenticated when it is unexpired and either the
// credential has no second factor or the second factor was verified.
func (s *Session) FullyAuthenticatedAt(t time.Time, twoFactorEnabled bool) bool {
	if s == nil || s.ExpiredAt(t) {
		return false
	}
	return !twoFactorEnabled || s.Verified
}

// TTL returns the remaining lifetime at t, never negative.
func (s *Session) TTL(t time.Time) time.Duration {
	if s == nil {
		return 0
	}
	return max(s.ExpiresAt.Sub(t), 0)
}

// GenerateToken returns 32 random bytes encoded as unpadded base64url.
func GenerateToken() (string, error) {
	b := make([]byte, tokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
