package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qiqiqi-tech/backoffice/pkg/validator"
)

func TestRules(t *testing.T) {
	t.Parallel()

	strength := validator.DefaultPasswordStrength()

	tests := []struct {
		name string
		rule validator.Rule
		want bool
	}{
		{"required ok", validator.RequiredString("f", "a"), true},
		{"required blank", validator.RequiredString("f", "  \t"), false},
		{"min len runes", validator.MinLenString("f", "系統管", 3), true},
		{"min len short", validator.MinLenString("f", "ab", 3), false},
		{"max len ok", validator.MaxLenString("f", "abc", 3), true},
		{"max len long", validator.MaxLenString("f", "abcd", 3), false},
		{"prefix ok", validator.HasPrefix("f", "sk-abc", "sk-"), true},
		{"prefix missing", validator.HasPrefix("f", "pk-abc", "sk-"), false},
		{"no whitespace ok", validator.NoWhitespace("f", "abc"), true},
		{"no whitespace bad", validator.NoWhitespace("f", "a bc"), false},
		{"email ok", validator.ValidEmail("f", "admin@777tech.com"), true},
		{"email display name", validator.ValidEmail("f", "Admin <admin@777tech.com>"), false},
		{"email no tld", validator.ValidEmail("f", "admin@localhost"), false},
		{"email empty label", validator.ValidEmail("f", "admin@a..com"), false},
		{"url libsql", validator.ValidURLWithScheme("f", "libsql://db-org.turso.io", []string{"libsql", "https"}), true},
		{"url https", validator.ValidURLWithScheme("f", "https://db-org.turso.io", []string{"libsql", "https"}), true},
		{"url http rejected", validator.ValidURLWithScheme("f", "http://db-org.turso.io", []string{"libsql", "https"}), false},
		{"url no host", validator.ValidURLWithScheme("f", "libsql:///path", []string{"libsql"}), false},
		{"repo owner", validator.ValidRepository("f", "qiqiqi-tech/site"), true},
		{"repo bare", validator.ValidRepository("f", "site"), true},
		{"repo nested", validator.ValidRepository("f", "a/b/c"), false},
		{"otp ok", validator.ValidOTP("f", "012345", 6), true},
		{"otp letters", validator.ValidOTP("f", "01234a", 6), false},
		{"otp length", validator.ValidOTP("f", "0123", 6), false},
		{"username ok", validator.ValidUsername("f", "admin.ops", 3, 50), true},
		{"username space", validator.ValidUsername("f", "ad min", 3, 50), false},
		{"api key ok", validator.ValidAPIKey("f", "abcdef", 4, 10), true},
		{"api key space", validator.ValidAPIKey("f", "abc def", 4, 10), false},
		{"one of ok", validator.OneOf("f", "argon2id", []string{"bcrypt", "argon2id"}), true},
		{"one of bad", validator.OneOf("f", "md5", []string{"bcrypt", "argon2id"}), false},
		{"password default admin", validator.StrongPassword("f", "777tech2024!", strength), true},
		{"password one class", validator.StrongPassword("f", "abcdefghij", strength), false},
		{"password short", validator.StrongPassword("f", "a1!", strength), false},
		{"password common", validator.NotCommonPassword("f", "Password123"), false},
		{"password uncommon", validator.NotCommonPassword("f", "777tech2024!"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.rule.Check())
			assert.Equal(t, "f", tt.rule.Error.Field)
			assert.NotEmpty(t, tt.rule.Error.Message)
		})
	}
}
