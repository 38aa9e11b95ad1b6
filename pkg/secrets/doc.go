// Package secrets implements the symmetric cipher that protects third-party
// credentials (provider API keys, access tokens, database URLs) at rest.
//
// A single 32-byte key is derived from the process master secret with
// PBKDF2-HMAC-SHA256. Derivation is deliberately slow, so it happens exactly
// once, inside NewCipher; the resulting *Cipher is immutable and safe for
// concurrent use.
//
// # Envelope format
//
// Encrypt seals the plaintext with AES-256-GCM under a fresh random nonce and
// returns base64url(nonce || ciphertext || tag). The envelope is either opened
// completely or not at all: a malformed envelope, a flipped bit, or an
// envelope sealed under a different master secret or salt all fail with
// ErrDecryptionFailed.
//
// # Usage
//
//	var cfg secrets.Config
//	config.MustLoad(&cfg)
//
//	cipher, err := secrets.NewCipher(cfg)
//	if err != nil {
//	    // handle error
//	}
//
//	envelope, err := cipher.Encrypt("sk-live-...")
//	plain, err := cipher.Decrypt(envelope)
//
// # Error Handling
//
// Errors wrap ErrEncryptionFailed or ErrDecryptionFailed. Use errors.Is to
// tell a corrupted or foreign envelope apart from an absent value; callers
// must never treat a decryption failure as an empty secret.
package secrets
