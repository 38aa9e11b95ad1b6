package auth_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/qiqiqi-tech/backoffice/pkg/secrets"
	"github.com/qiqiqi-tech/backoffice/pkg/session"
	"github.com/qiqiqi-tech/backoffice/svc/auth"
)

const testPassword = "777tech2024!"

var testCipher = sync.OnceValue(func() *secrets.Cipher {
	c, err := secrets.NewCipher(secrets.Config{
		MasterKey:  "test-master-key",
		Salt:       "test-salt",
		Iterations: secrets.MinIterations,
	})
	if err != nil {
		panic(err)
	}
	return c
})

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc      *auth.Service
	creds    *auth.MemoryStore
	sessions *session.MemoryStore
	clock    *fakeClock
}

func newFixture(t *testing.T, opts ...auth.Option) *fixture {
	t.Helper()

	clk := newFakeClock()
	creds := auth.NewMemoryStore()
	sessions := session.NewMemoryStore(0, session.WithClock(clk.Now))
	t.Cleanup(func() { _ = sessions.Close() })

	base := []auth.Option{
		auth.WithClock(clk.Now),
		auth.WithPasswordHasher(auth.BcryptHasher{Cost: bcrypt.MinCost}),
		auth.WithQRCodeSize(128),
	}
	svc, err := auth.NewService(creds, sessions, testCipher(), append(base, opts...)...)
	require.NoError(t, err)

	return &fixture{svc: svc, creds: creds, sessions: sessions, clock: clk}
}

func (f *fixture) createUser(t *testing.T, username string) *auth.Credential {
	t.Helper()

	cred, err := f.svc.CreateCredential(t.Context(), auth.CreateCredentialParams{
		Username: username,
		Email:    username + "@777tech.com",
		FullName: "Test " + username,
		Password: testPassword,
	})
	require.NoError(t, err)
	return cred
}
