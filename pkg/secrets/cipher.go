package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

var envelopeEncoding = base64.URLEncoding

// Cipher seals and opens credential envelopes under one derived key.
// The zero value is not usable; construct with NewCipher.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher validates cfg, derives the key and prepares AES-256-GCM.
func NewCipher(cfg Config) (*Cipher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	key, err := DeriveKey([]byte(cfg.MasterKey), []byte(cfg.Salt), cfg.Iterations)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	return newCipherFromKey(key)
}

func newCipherFromKey(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt returns the base64url envelope of plaintext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	sealed, err := c.EncryptBytes([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return envelopeEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt.
func (c *Cipher) Decrypt(envelope string) (string, error) {
	raw, err := envelopeEncoding.DecodeString(envelope)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	plain, err := c.DecryptBytes(raw)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// EncryptBytes seals data and returns nonce || ciphertext || tag.
func (c *Cipher) EncryptBytes(data []byte) ([]byte, error) {
	if c == nil || c.aead == nil {
		return nil, ErrEncryptionFailed
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	return c.aead.Seal(nonce, nonce, data, nil), nil
}

// DecryptBytes opens nonce || ciphertext || tag.
func (c *Cipher) DecryptBytes(sealed []byte) ([]byte, error) {
	if c == nil || c.aead == nil {
		return nil, ErrDecryptionFailed
	}

	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize+c.aead.Overhead() {
		return nil, ErrDecryptionFailed
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plain, nil
}
