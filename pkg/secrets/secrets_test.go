package secrets_test

import (
	"encoding/base64"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiqiqi-tech/backoffice/pkg/secrets"
)

func testConfig() secrets.Config {
	return secrets.Config{
		MasterKey:  "test-master-key-0123456789",
		Salt:       "777tech_salt_2024",
		Iterations: secrets.MinIterations,
	}
}

func newCipher(t *testing.T, cfg secrets.Config) *secrets.Cipher {
	t.Helper()
	c, err := secrets.NewCipher(cfg)
	require.NoError(t, err)
	return c
}

func TestCipher_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newCipher(t, testConfig())

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty string", ""},
		{"api key", "sk-proj-abcdefghijklmnopqrstuvwxyz"},
		{"url", "libsql://db-org.turso.io"},
		{"unicode", "七七七科技後台系統"},
		{"long", strings.Repeat("x", 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			envelope, err := c.Encrypt(tt.plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, envelope)

			_, err = base64.URLEncoding.DecodeString(envelope)
			require.NoError(t, err, "envelope must be base64url")

			got, err := c.Decrypt(envelope)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, got)
		})
	}
}

func TestCipher_FreshNoncePerCall(t *testing.T) {
	t.Parallel()

	c := newCipher(t, testConfig())

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCipher_SameConfigInterop(t *testing.T) {
	t.Parallel()

	first := newCipher(t, testConfig())
	second := newCipher(t, testConfig())

	envelope, err := first.Encrypt("shared")
	require.NoError(t, err)

	got, err := second.Decrypt(envelope)
	require.NoError(t, err)
	assert.Equal(t, "shared", got)
}

func TestCipher_DecryptFailures(t *testing.T) {
	t.Parallel()

	c := newCipher(t, testConfig())
	envelope, err := c.Encrypt("sk-secret-value-1234567890")
	require.NoError(t, err)

	raw, err := base64.URLEncoding.DecodeString(envelope)
	require.NoError(t, err)

	tampered := append([]byte(nil), raw...)
	tampered[len(tampered)-1] ^= 0x01

	otherKey := testConfig()
	otherKey.MasterKey = "another-master-key-987654321"

	otherSalt := testConfig()
	otherSalt.Salt = "different-salt"

	tests := []struct {
		name     string
		cipher   *secrets.Cipher
		envelope string
	}{
		{"not base64", c, "***not-base64***"},
		{"empty", c, ""},
		{"truncated", c, base64.URLEncoding.EncodeToString(raw[:10])},
		{"tampered", c, base64.URLEncoding.EncodeToString(tampered)},
		{"wrong master key", newCipher(t, otherKey), envelope},
		{"wrong salt", newCipher(t, otherSalt), envelope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.cipher.Decrypt(tt.envelope)
			require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
			assert.Empty(t, got)
		})
	}
}

func TestNewCipher_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*secrets.Config)
		wantErr error
	}{
		{"missing master key", func(c *secrets.Config) { c.MasterKey = "" }, secrets.ErrMissingMasterKey},
		{"missing salt", func(c *secrets.Config) { c.Salt = "" }, secrets.ErrMissingSalt},
		{"too few iterations", func(c *secrets.Config) { c.Iterations = 1000 }, secrets.ErrTooFewIterations},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			tt.mutate(&cfg)

			c, err := secrets.NewCipher(cfg)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, c)
		})
	}
}

func TestDeriveKey(t *testing.T) {
	t.Parallel()

	a, err := secrets.DeriveKey([]byte("master"), []byte("salt"), secrets.MinIterations)
	require.NoError(t, err)
	assert.Len(t, a, secrets.KeySize)

	b, err := secrets.DeriveKey([]byte("master"), []byte("salt"), secrets.MinIterations)
	require.NoError(t, err)
	assert.Equal(t, a, b, "derivation must be deterministic")

	c, err := secrets.DeriveKey([]byte("master"), []byte("other"), secrets.MinIterations)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestCipher_ConcurrentUse(t *testing.T) {
	t.Parallel()

	c := newCipher(t, testConfig())

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plain := strings.Repeat("k", i+1)
			envelope, err := c.Encrypt(plain)
			assert.NoError(t, err)
			got, err := c.Decrypt(envelope)
			assert.NoError(t, err)
			assert.Equal(t, plain, got)
		}(i)
	}
	wg.Wait()
}
