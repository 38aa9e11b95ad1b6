package vault_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qiqiqi-tech/backoffice/pkg/secrets"
	"github.com/qiqiqi-tech/backoffice/svc/vault"
)

const (
	tenant    = "7f0c3c8e-1d2a-4b8e-9d1f-2a3b4c5d6e7f"
	openAIKey = "sk-proj-abcdefghijklmnopqrstuvwx"
)

var testCipher = sync.OnceValue(func() *secrets.Cipher {
	return newCipher("vault-test-master-key")
})

func newCipher(master string) *secrets.Cipher {
	c, err := secrets.NewCipher(secrets.Config{
		MasterKey:  master,
		Salt:       "vault-test-salt",
		Iterations: secrets.MinIterations,
	})
	if err != nil {
		panic(err)
	}
	return c
}

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, store vault.Store, opts ...vault.Option) *vault.Service {
	t.Helper()
	if store == nil {
		store = vault.NewMemoryStore()
	}
	base := []vault.Option{vault.WithClock(func() time.Time { return fixedNow })}
	svc, err := vault.NewService(store, testCipher(), append(base, opts...)...)
	require.NoError(t, err)
	return svc
}
