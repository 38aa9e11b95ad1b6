package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCredentialInactive = errors.New("credential is inactive")
)

var (
	ErrTwoFactorNotEnabled     = errors.New("two-factor authentication is not enabled")
	ErrTwoFactorRequired       = errors.New("two-factor verification required")
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication is already enabled")
	ErrTwoFactorNotInitialized = errors.New("two-factor authentication setup not started")
)

// Store errors. CredentialStore implementations return these so the service
// can tell absence and conflicts from infrastructure failures.
var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrAdminExists        = errors.New("an admin account already exists")
)

var (
	ErrPasswordMismatch   = errors.New("password does not match")
	ErrUnsupportedHash    = errors.New("unsupported password hash format")
	ErrHashingFailed      = errors.New("failed to hash password")
	ErrUnknownHasher      = errors.New("unknown password hasher")
	ErrSamePassword       = errors.New("new password must differ from the current one")
	ErrSecretUnavailable  = errors.New("two-factor secret could not be read")
	ErrProvisioningFailed = errors.New("failed to provision two-factor authentication")
)
