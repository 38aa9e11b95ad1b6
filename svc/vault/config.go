package vault

import (
	"log/slog"
	"net/http"
	"time"
)

const DefaultModel = "gpt-4o-mini"

type Config struct {
	DefaultModel  string        `env:"VAULT_DEFAULT_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string        `env:"VAULT_OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	ProbeTimeout  time.Duration `env:"VAULT_PROBE_TIMEOUT" envDefault:"10s"`
	MaxAttempts   int           `env:"VAULT_MAX_WRITE_ATTEMPTS" envDefault:"3"`
}

// Options converts the config into service options.
func (c Config) Options() []Option {
	return []Option{
		WithDefaultModel(c.DefaultModel),
		WithOpenAIBaseURL(c.OpenAIBaseURL),
		WithProbeTimeout(c.ProbeTimeout),
		WithMaxAttempts(c.MaxAttempts),
	}
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithDefaultModel(model string) Option {
	return func(s *Service) {
		if model != "" {
			s.defaultModel = model
		}
	}
}

// WithOpenAIBaseURL points TestOpenAI at another host, e.g. a proxy or a
// test server.
func WithOpenAIBaseURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.openAIBaseURL = u
		}
	}
}

func WithProbeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithMaxAttempts bounds how often a write is retried on version conflicts.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}
