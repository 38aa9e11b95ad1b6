// Package settings serves the per-operator integration settings backed by
// the vault service: reading the masked snapshot, partial updates, reset and
// the OpenAI connectivity check.
//
// All routes require a fully authenticated session. The vault tenant is the
// ID of the authenticated credential.
package settings
