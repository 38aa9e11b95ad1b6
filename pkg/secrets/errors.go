package secrets

import "errors"

var (
	ErrMissingMasterKey    = errors.New("secrets: master key is empty")
	ErrMissingSalt         = errors.New("secrets: salt is empty")
	ErrTooFewIterations    = errors.New("secrets: key derivation needs at least 100000 iterations")
	ErrKeyDerivationFailed = errors.New("secrets: key derivation failed")

	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
)
