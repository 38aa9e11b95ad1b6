package session

import (
	"net/http"
	"strings"
)

// HeaderTransport implements Transport using HTTP headers
type HeaderTransport struct {
	headerName string
	prefix     string
}

// NewHeaderTransport creates a new header-based transport
func NewHeaderTransport(headerName string, opts ...HeaderOption) *HeaderTransport {
	t := &HeaderTransport{
		headerName: headerName,
		prefix:     "Bearer ",
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// HeaderOption is a functional option for HeaderTransport
type HeaderOption func(*HeaderTransport)

// WithHeaderPrefix sets a custom prefix for the header value
func WithHeaderPrefix(prefix string) HeaderOption {
	return func(t *HeaderTransport) {
		t.prefix = prefix
	}
}

// GetToken extracts the session token from the header. The prefix is
// matched case-insensitively.
func (t *HeaderTransport) GetToken(r *http.Request) (string, error) {
	value := strings.TrimSpace(r.Header.Get(t.headerName))
	if value == "" {
		return "", ErrNoToken
	}

	// value is already trimmed, so "Bearer " arrives as "Bearer".
	if prefix := strings.TrimSpace(t.prefix); prefix != "" && len(value) >= len(prefix) &&
		strings.EqualFold(value[:len(prefix)], prefix) {
		rest := value[len(prefix):]
		// a prefix configured with a trailing space must be followed by one
		if rest == "" || len(prefix) == len(t.prefix) || rest[0] == ' ' || rest[0] == '\t' {
			value = strings.TrimSpace(rest)
		}
	}

	if value == "" {
		return "", ErrNoToken
	}
	return value, nil
}
