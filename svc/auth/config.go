package auth

import (
	"time"

	"github.com/qiqiqi-tech/backoffice/pkg/totp"
)

type Config struct {
	SessionTTL     time.Duration `env:"AUTH_SESSION_TTL" envDefault:"24h"`
	TOTPIssuer     string        `env:"AUTH_TOTP_ISSUER" envDefault:"七七七科技後台系統"`
	TOTPWindow     int           `env:"AUTH_TOTP_WINDOW" envDefault:"1"`
	PasswordHasher string        `env:"AUTH_PASSWORD_HASHER" envDefault:"bcrypt"`
	BcryptCost     int           `env:"AUTH_BCRYPT_COST" envDefault:"12"`

	BootstrapAdmin AdminConfig `envPrefix:"AUTH_BOOTSTRAP_ADMIN_"`
}

// AdminConfig seeds the first admin account. An empty Password disables
// seeding at startup.
type AdminConfig struct {
	Username string `env:"USERNAME" envDefault:"admin"`
	Email    string `env:"EMAIL" envDefault:"admin@777tech.com"`
	FullName string `env:"FULL_NAME" envDefault:"系統管理員"`
	Password string `env:"PASSWORD"`
}

func DefaultConfig() Config {
	return Config{
		SessionTTL:     24 * time.Hour,
		TOTPIssuer:     "七七七科技後台系統",
		TOTPWindow:     totp.DefaultWindow,
		PasswordHasher: HasherBcrypt,
		BcryptCost:     12,
		BootstrapAdmin: AdminConfig{
			Username: "admin",
			Email:    "admin@777tech.com",
			FullName: "系統管理員",
		},
	}
}

// Options converts the config into service options.
func (c Config) Options() ([]Option, error) {
	hasher, err := NewPasswordHasher(c.PasswordHasher, c.BcryptCost)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithSessionTTL(c.SessionTTL),
		WithIssuer(c.TOTPIssuer),
		WithTOTPWindow(c.TOTPWindow),
		WithPasswordHasher(hasher),
	}, nil
}
