package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiqiqi-tech/backoffice/pkg/session"
)

func TestHeaderTransport_GetToken(t *testing.T) {
	t.Parallel()

	transport := session.NewHeaderTransport("Authorization")

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"bearer", "Bearer abc123", "abc123", nil},
		{"lowercase bearer", "bearer abc123", "abc123", nil},
		{"bare token", "abc123", "abc123", nil},
		{"missing", "", "", session.ErrNoToken},
		{"prefix only", "Bearer ", "", session.ErrNoToken},
		{"prefix without space", "Bearer", "", session.ErrNoToken},
		{"prefix with padding", "bearer   ", "", session.ErrNoToken},
		{"token sharing prefix letters", "Bearerabc", "Bearerabc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			got, err := transport.GetToken(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderTransport_CustomPrefix(t *testing.T) {
	t.Parallel()

	transport := session.NewHeaderTransport("X-Auth", session.WithHeaderPrefix("Token:"))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Auth", "Token:abc")

	got, err := transport.GetToken(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var (
		gotToken string
		gotOK    bool
	)
	h := session.Middleware(session.NewHeaderTransport("X-Session"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken, gotOK = session.TokenFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Session", "Bearer tok")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.True(t, gotOK)
	assert.Equal(t, "tok", gotToken)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.False(t, gotOK)
}
