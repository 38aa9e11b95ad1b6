package vault

import "errors"

var (
	ErrMissingTenant    = errors.New("vault: tenant id is required")
	ErrUnknownField     = errors.New("vault: unknown field")
	ErrNotSensitive     = errors.New("vault: field is not a secret")
	ErrNotConfigured    = errors.New("vault: field is not configured")
	ErrRecordNotFound   = errors.New("vault: record not found")
	ErrVersionConflict  = errors.New("vault: record was modified concurrently")
	ErrTooManyConflicts = errors.New("vault: gave up after repeated write conflicts")
	ErrProviderRejected = errors.New("vault: provider rejected the credentials")
	ErrProviderFailed   = errors.New("vault: provider request failed")
)
