package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiqiqi-tech/backoffice/pkg/session"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStore(t *testing.T) (*session.MemoryStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := session.NewMemoryStore(0, session.WithClock(clock.Now))
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func issue(t *testing.T, clock *fakeClock, id uuid.UUID, verified bool) *session.Session {
	t.Helper()
	sess, err := session.New(id, verified, clock.Now(), time.Hour)
	require.NoError(t, err)
	return sess
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	t.Parallel()
	store, clock := newStore(t)
	ctx := context.Background()

	sess := issue(t, clock, uuid.New(), true)
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, *sess, *got)

	// Returned value is a copy.
	got.Verified = false
	again, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, again.Verified)
}

func TestMemoryStore_SaveRejectsInvalid(t *testing.T) {
	t.Parallel()
	store, _ := newStore(t)

	assert.ErrorIs(t, store.Save(context.Background(), nil), session.ErrInvalidSession)
	assert.ErrorIs(t, store.Save(context.Background(), &session.Session{Token: "x"}), session.ErrInvalidSession)
}

func TestMemoryStore_LastLoginWins(t *testing.T) {
	t.Parallel()
	store, clock := newStore(t)
	ctx := context.Background()
	id := uuid.New()

	first := issue(t, clock, id, true)
	require.NoError(t, store.Save(ctx, first))

	second := issue(t, clock, id, false)
	require.NoError(t, store.Save(ctx, second))

	_, err := store.Get(ctx, first.Token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	got, err := store.Get(ctx, second.Token)
	require.NoError(t, err)
	assert.False(t, got.Verified)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_ExpiredIsRemovedLazily(t *testing.T) {
	t.Parallel()
	store, clock := newStore(t)
	ctx := context.Background()

	sess := issue(t, clock, uuid.New(), true)
	require.NoError(t, store.Save(ctx, sess))

	clock.Advance(time.Hour)

	_, err := store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrSessionExpired)

	_, err = store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestMemoryStore_MarkVerified(t *testing.T) {
	t.Parallel()
	store, clock := newStore(t)
	ctx := context.Background()

	sess := issue(t, clock, uuid.New(), false)
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.MarkVerified(ctx, sess.Token))

	got, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, got.Verified)

	assert.ErrorIs(t, store.MarkVerified(ctx, "missing"), session.ErrSessionNotFound)

	clock.Advance(2 * time.Hour)
	assert.ErrorIs(t, store.MarkVerified(ctx, sess.Token), session.ErrSessionExpired)
}

func TestMemoryStore_ResetVerification(t *testing.T) {
	t.Parallel()
	store, clock := newStore(t)
	ctx := context.Background()
	id := uuid.New()

	sess := issue(t, clock, id, true)
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.ResetVerification(ctx, id))

	got, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.False(t, got.Verified)

	assert.NoError(t, store.ResetVerification(ctx, uuid.New()))
}

func TestMemoryStore_Delete(t *testing.T) {
	t.Parallel()
	store, clock := newStore(t)
	ctx := context.Background()
	id := uuid.New()

	sess := issue(t, clock, id, true)
	require.NoError(t, store.Save(ctx, sess))

	require.NoError(t, store.Delete(ctx, sess.Token))
	require.NoError(t, store.Delete(ctx, sess.Token), "delete must be idempotent")

	_, err := store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	// A new session for the same credential is unaffected by the stale index.
	next := issue(t, clock, id, true)
	require.NoError(t, store.Save(ctx, next))
	require.NoError(t, store.DeleteByCredentialID(ctx, id))
	_, err = store.Get(ctx, next.Token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	t.Parallel()
	store, clock := newStore(t)
	ctx := context.Background()

	old := issue(t, clock, uuid.New(), true)
	require.NoError(t, store.Save(ctx, old))

	clock.Advance(30 * time.Minute)
	fresh := issue(t, clock, uuid.New(), true)
	require.NoError(t, store.Save(ctx, fresh))

	clock.Advance(45 * time.Minute)
	require.NoError(t, store.DeleteExpired(ctx))

	assert.Equal(t, 1, store.Len())
	_, err := store.Get(ctx, fresh.Token)
	assert.NoError(t, err)
}

func TestMemoryStore_ConcurrentLogins(t *testing.T) {
	t.Parallel()
	store, clock := newStore(t)
	ctx := context.Background()
	id := uuid.New()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := session.New(id, true, clock.Now(), time.Hour)
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, store.Save(ctx, sess))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.Len(), "exactly one session per credential must survive")
}

func TestMemoryStore_CleanupLoop(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(10 * time.Millisecond)
	defer store.Close()

	sess, err := session.New(uuid.New(), true, time.Now(), 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sess))

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 10*time.Millisecond)
}
