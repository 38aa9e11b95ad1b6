package session

import "time"

// Config holds session configuration
type Config struct {
	// TTL is the absolute lifetime of a session from issuance.
	TTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"24h"`

	// CleanupInterval for expired sessions in the memory store (0 to disable)
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	// HeaderName carries the bearer token.
	HeaderName string `env:"SESSION_HEADER_NAME" envDefault:"Authorization"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		TTL:             24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
		HeaderName:      "Authorization",
	}
}
