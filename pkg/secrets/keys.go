package secrets

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the derived key length (AES-256).
	KeySize = 32

	// MinIterations is the PBKDF2 work factor floor.
	MinIterations = 100_000
)

// DeriveKey stretches the master secret into a KeySize key with
// PBKDF2-HMAC-SHA256. It is expensive by design; call it once per process.
func DeriveKey(masterSecret, salt []byte, iterations int) ([]byte, error) {
	if len(masterSecret) == 0 {
		return nil, ErrMissingMasterKey
	}
	if len(salt) == 0 {
		return nil, ErrMissingSalt
	}
	if iterations < MinIterations {
		return nil, ErrTooFewIterations
	}
	return pbkdf2.Key(masterSecret, salt, iterations, KeySize, sha256.New), nil
}

// clearBytes zeroes key material that is no longer needed.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
