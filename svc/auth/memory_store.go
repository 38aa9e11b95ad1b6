package auth

import (
	"context"
	"crypto/subtle"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process CredentialStore. All two-factor transitions
// happen under a single mutex.
type MemoryStore struct {
	mu         sync.Mutex
	byID       map[uuid.UUID]*memoryCredential
	byUsername map[string]uuid.UUID
	byEmail    map[string]uuid.UUID
	now        func() time.Time
}

type memoryCredential struct {
	cred        Credential
	backupCodes []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[uuid.UUID]*memoryCredential),
		byUsername: make(map[string]uuid.UUID),
		byEmail:    make(map[string]uuid.UUID),
		now:        time.Now,
	}
}

func (m *MemoryStore) CreateCredential(_ context.Context, c *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byUsername[c.Username]; ok {
		return ErrUsernameTaken
	}
	if _, ok := m.byEmail[c.Email]; ok && c.Email != "" {
		return ErrEmailTaken
	}

	m.byID[c.ID] = &memoryCredential{cred: *c}
	m.byUsername[c.Username] = c.ID
	if c.Email != "" {
		m.byEmail[c.Email] = c.ID
	}
	return nil
}

func (m *MemoryStore) GetCredentialByID(_ context.Context, id uuid.UUID) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return rec.snapshot(), nil
}

func (m *MemoryStore) GetCredentialByUsername(_ context.Context, username string) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byUsername[username]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return m.byID[id].snapshot(), nil
}

func (m *MemoryStore) HasAdmin(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.byID {
		if rec.cred.Role == RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	return m.update(id, func(rec *memoryCredential) error {
		rec.cred.PasswordHash = hash
		return nil
	})
}

func (m *MemoryStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	return m.update(id, func(rec *memoryCredential) error {
		rec.cred.Active = active
		return nil
	})
}

func (m *MemoryStore) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return ErrCredentialNotFound
	}
	rec.cred.LastLoginAt = &at
	return nil
}

func (m *MemoryStore) SetTOTPSecret(_ context.Context, id uuid.UUID, secret string) (string, error) {
	var stored string
	err := m.update(id, func(rec *memoryCredential) error {
		if rec.cred.TOTPSecret == "" {
			rec.cred.TOTPSecret = secret
		}
		stored = rec.cred.TOTPSecret
		return nil
	})
	return stored, err
}

func (m *MemoryStore) EnableTwoFactor(_ context.Context, id uuid.UUID, codeHashes []string) error {
	return m.update(id, func(rec *memoryCredential) error {
		switch {
		case rec.cred.TOTPSecret == "":
			return ErrTwoFactorNotInitialized
		case rec.cred.TwoFactorEnabled:
			return ErrTwoFactorAlreadyEnabled
		}
		rec.cred.TwoFactorEnabled = true
		rec.backupCodes = slices.Clone(codeHashes)
		return nil
	})
}

func (m *MemoryStore) DisableTwoFactor(_ context.Context, id uuid.UUID) error {
	return m.update(id, func(rec *memoryCredential) error {
		rec.cred.TwoFactorEnabled = false
		rec.cred.TOTPSecret = ""
		rec.backupCodes = nil
		return nil
	})
}

func (m *MemoryStore) ConsumeBackupCode(_ context.Context, id uuid.UUID, codeHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return false, ErrCredentialNotFound
	}

	idx := -1
	for i, h := range rec.backupCodes {
		if subtle.ConstantTimeCompare([]byte(h), []byte(codeHash)) == 1 {
			idx = i
		}
	}
	if idx < 0 {
		return false, nil
	}
	rec.backupCodes = slices.Delete(rec.backupCodes, idx, idx+1)
	return true, nil
}

func (m *MemoryStore) CountBackupCodes(_ context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return 0, ErrCredentialNotFound
	}
	return len(rec.backupCodes), nil
}

// update applies fn under the lock and bumps UpdatedAt when fn succeeds.
func (m *MemoryStore) update(id uuid.UUID, fn func(*memoryCredential) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return ErrCredentialNotFound
	}
	if err := fn(rec); err != nil {
		return err
	}
	rec.cred.UpdatedAt = m.now()
	return nil
}

func (rec *memoryCredential) snapshot() *Credential {
	c := rec.cred
	if c.LastLoginAt != nil {
		t := *c.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}
