package auth_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiqiqi-tech/backoffice/svc/auth"
)

func seedCredential(t *testing.T, store *auth.MemoryStore) *auth.Credential {
	t.Helper()
	c := &auth.Credential{
		ID:        uuid.New(),
		Username:  "alice",
		Email:     "alice@777tech.com",
		Role:      auth.RoleUser,
		Active:    true,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateCredential(t.Context(), c))
	return c
}

func TestMemoryStore_NotFound(t *testing.T) {
	t.Parallel()

	store := auth.NewMemoryStore()
	id := uuid.New()

	_, err := store.GetCredentialByID(t.Context(), id)
	assert.ErrorIs(t, err, auth.ErrCredentialNotFound)
	_, err = store.GetCredentialByUsername(t.Context(), "ghost")
	assert.ErrorIs(t, err, auth.ErrCredentialNotFound)
	assert.ErrorIs(t, store.SetActive(t.Context(), id, false), auth.ErrCredentialNotFound)
	_, err = store.ConsumeBackupCode(t.Context(), id, "x")
	assert.ErrorIs(t, err, auth.ErrCredentialNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	store := auth.NewMemoryStore()
	c := seedCredential(t, store)

	got, err := store.GetCredentialByID(t.Context(), c.ID)
	require.NoError(t, err)
	got.Role = auth.RoleAdmin

	again, err := store.GetCredentialByID(t.Context(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, again.Role)

	hasAdmin, err := store.HasAdmin(t.Context())
	require.NoError(t, err)
	assert.False(t, hasAdmin)
}

func TestMemoryStore_SetTOTPSecretConverges(t *testing.T) {
	t.Parallel()

	store := auth.NewMemoryStore()
	c := seedCredential(t, store)

	results := make([]string, 10)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.SetTOTPSecret(t.Context(), c.ID, uuid.NewString())
			assert.NoError(t, err)
			results[i] = got
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestMemoryStore_TwoFactorTransitions(t *testing.T) {
	t.Parallel()

	store := auth.NewMemoryStore()
	c := seedCredential(t, store)
	ctx := t.Context()

	assert.ErrorIs(t, store.EnableTwoFactor(ctx, c.ID, []string{"a"}), auth.ErrTwoFactorNotInitialized)

	_, err := store.SetTOTPSecret(ctx, c.ID, "enc")
	require.NoError(t, err)
	require.NoError(t, store.EnableTwoFactor(ctx, c.ID, []string{"a", "b"}))
	assert.ErrorIs(t, store.EnableTwoFactor(ctx, c.ID, []string{"c"}), auth.ErrTwoFactorAlreadyEnabled)

	ok, err := store.ConsumeBackupCode(ctx, c.ID, "zzz")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.ConsumeBackupCode(ctx, c.ID, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := store.CountBackupCodes(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.DisableTwoFactor(ctx, c.ID))
	got, err := store.GetCredentialByID(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.TwoFactorEnabled)
	assert.Empty(t, got.TOTPSecret)

	n, err = store.CountBackupCodes(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
