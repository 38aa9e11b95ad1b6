package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleUser }

// Credential is a back-office operator account. PasswordHash and TOTPSecret
// never leave the process in JSON.
type Credential struct {
	ID               uuid.UUID  `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	FullName         string     `json:"full_name"`
	Role             Role       `json:"role"`
	Active           bool       `json:"is_active"`
	PasswordHash     string     `json:"-"`
	TOTPSecret       string     `json:"-"` // encrypted envelope, empty until setup starts
	TwoFactorEnabled bool       `json:"is_2fa_enabled"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	LastLoginAt      *time.Time `json:"last_login,omitempty"`
}

func (c *Credential) IsAdmin() bool { return c != nil && c.Role == RoleAdmin }

// HasTOTPSecret reports whether two-factor setup has been started.
func (c *Credential) HasTOTPSecret() bool { return c != nil && c.TOTPSecret != "" }

// NormalizeUsername trims and lower-cases a username for lookup and storage.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CredentialStore persists credentials and their two-factor state.
//
// Lookups return ErrCredentialNotFound for unknown IDs or usernames. Every
// two-factor transition must be atomic with respect to concurrent callers.
type CredentialStore interface {
	// CreateCredential inserts c. Duplicate usernames or emails fail with
	// ErrUsernameTaken or ErrEmailTaken.
	CreateCredential(ctx context.Context, c *Credential) error
	GetCredentialByID(ctx context.Context, id uuid.UUID) (*Credential, error)
	GetCredentialByUsername(ctx context.Context, username string) (*Credential, error)
	HasAdmin(ctx context.Context) (bool, error)

	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// SetTOTPSecret stores secret only when none is stored yet and returns the
	// secret that is stored afterwards, so concurrent setups converge.
	SetTOTPSecret(ctx context.Context, id uuid.UUID, secret string) (string, error)

	// EnableTwoFactor flips the enabled flag and replaces the backup code
	// hashes in one step. It fails with ErrTwoFactorNotInitialized when no
	// secret is stored and ErrTwoFactorAlreadyEnabled when already on.
	EnableTwoFactor(ctx context.Context, id uuid.UUID, codeHashes []string) error

	// DisableTwoFactor clears the secret, the backup codes and the enabled
	// flag in one step.
	DisableTwoFactor(ctx context.Context, id uuid.UUID) error

	// ConsumeBackupCode removes the matching hash and reports whether one
	// was removed. A miss leaves the set untouched.
	ConsumeBackupCode(ctx context.Context, id uuid.UUID, codeHash string) (bool, error)
	CountBackupCodes(ctx context.Context, id uuid.UUID) (int, error)
}
