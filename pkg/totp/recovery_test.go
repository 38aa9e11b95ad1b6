package totp_test

import (
	"regexp"
	"testing"

	"github.com/qiqiqi-tech/backoffice/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recoveryCodeRegex = regexp.MustCompile(`^[0-9A-F]{8}$`)

func TestGenerateRecoveryCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{"Default count", totp.DefaultRecoveryCodeCount, false},
		{"Generate 1 code", 1, false},
		{"Generate 0 codes", 0, true},
		{"Generate negative codes", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			codes, err := totp.GenerateRecoveryCodes(tt.count)
			if tt.wantErr {
				assert.ErrorIs(t, err, totp.ErrInvalidRecoveryCodeCount)
				assert.Nil(t, codes)
				return
			}

			require.NoError(t, err)
			assert.Len(t, codes, tt.count)

			seen := make(map[string]bool)
			for _, code := range codes {
				assert.Regexp(t, recoveryCodeRegex, code)
				assert.False(t, seen[code], "Duplicate code found")
				seen[code] = true
			}
		})
	}
}

func TestNormalizeRecoveryCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "A1B2C3D4", totp.NormalizeRecoveryCode("  a1b2c3d4\n"))
	assert.Equal(t, "A1B2C3D4", totp.NormalizeRecoveryCode("A1B2C3D4"))
	assert.Equal(t, "", totp.NormalizeRecoveryCode("   "))
}

func TestHashRecoveryCode(t *testing.T) {
	t.Parallel()
	hash := totp.HashRecoveryCode("A1B2C3D4")
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, totp.HashRecoveryCode("A1B2C3D4"), "hash must be deterministic")
	assert.Equal(t, hash, totp.HashRecoveryCode(" a1b2c3d4 "), "hash must normalize input")
	assert.NotEqual(t, hash, totp.HashRecoveryCode("A1B2C3D5"))
}

func TestVerifyRecoveryCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		code       string
		hashedCode string
		wantResult bool
	}{
		{"Valid code", "DEADBEEF", totp.HashRecoveryCode("DEADBEEF"), true},
		{"Lowercase input", "deadbeef", totp.HashRecoveryCode("DEADBEEF"), true},
		{"Padded input", " DEADBEEF\t", totp.HashRecoveryCode("DEADBEEF"), true},
		{"Different code", "DEADBEEF", totp.HashRecoveryCode("CAFEBABE"), false},
		{"Empty hash", "DEADBEEF", "", false},
		{"Empty code", "", totp.HashRecoveryCode("DEADBEEF"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantResult, totp.VerifyRecoveryCode(tt.code, tt.hashedCode))
		})
	}
}

func BenchmarkVerifyRecoveryCode(b *testing.B) {
	hashedCode := totp.HashRecoveryCode("DEADBEEF")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		totp.VerifyRecoveryCode("DEADBEEF", hashedCode)
	}
}
