package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store interface using in-memory storage.
// Both indexes are guarded by one mutex so replacement is atomic.
type MemoryStore struct {
	mu           sync.Mutex
	sessions     map[string]*Session
	byCredential map[uuid.UUID]string
	now          func() time.Time
	ticker       *time.Ticker
	done         chan struct{}
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore(cleanupInterval time.Duration, opts ...MemoryStoreOption) *MemoryStore {
	store := &MemoryStore{
		sessions:     make(map[string]*Session),
		byCredential: make(map[uuid.UUID]string),
		now:          time.Now,
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(store)
	}

	if cleanupInterval > 0 {
		store.ticker = time.NewTicker(cleanupInterval)
		go store.cleanupLoop(store.ticker.C)
	}

	return store
}

// Save stores a copy of session, replacing the credential's previous one.
func (m *MemoryStore) Save(ctx context.Context, session *Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.byCredential[session.CredentialID]; ok && prev != session.Token {
		delete(m.sessions, prev)
	}

	sessionCopy := *session
	m.sessions[session.Token] = &sessionCopy
	m.byCredential[session.CredentialID] = session.Token
	return nil
}

// Get retrieves a session by token
func (m *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[token]
	if !exists {
		return nil, ErrSessionNotFound
	}

	if session.ExpiredAt(m.now()) {
		m.deleteLocked(token)
		return nil, ErrSessionExpired
	}

	sessionCopy := *session
	return &sessionCopy, nil
}

// MarkVerified flips the verified flag on a live session.
func (m *MemoryStore) MarkVerified(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[token]
	if !exists {
		return ErrSessionNotFound
	}
	if session.ExpiredAt(m.now()) {
		m.deleteLocked(token)
		return ErrSessionExpired
	}

	session.Verified = true
	return nil
}

// ResetVerification clears the verified flag of the credential's session.
func (m *MemoryStore) ResetVerification(ctx context.Context, credentialID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token, ok := m.byCredential[credentialID]; ok {
		m.sessions[token].Verified = false
	}
	return nil
}

// Delete removes a session by token
func (m *MemoryStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteLocked(token)
	return nil
}

// DeleteByCredentialID removes the credential's session.
func (m *MemoryStore) DeleteByCredentialID(ctx context.Context, credentialID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token, ok := m.byCredential[credentialID]; ok {
		m.deleteLocked(token)
	}
	return nil
}

// DeleteExpired removes all expired sessions
func (m *MemoryStore) DeleteExpired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for token, session := range m.sessions {
		if session.ExpiredAt(now) {
			m.deleteLocked(token)
		}
	}

	return nil
}

// Close stops the cleanup goroutine
func (m *MemoryStore) Close() error {
	if m.ticker != nil {
		m.ticker.Stop()
		close(m.done)
		m.ticker = nil
	}
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) deleteLocked(token string) {
	session, ok := m.sessions[token]
	if !ok {
		return
	}
	delete(m.sessions, token)
	if m.byCredential[session.CredentialID] == token {
		delete(m.byCredential, session.CredentialID)
	}
}

// cleanupLoop runs periodic cleanup of expired sessions
func (m *MemoryStore) cleanupLoop(tick <-chan time.Time) {
	for {
		select {
		case <-tick:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}
