package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	red "github.com/redis/go-redis/v9"

	"github.com/qiqiqi-tech/backoffice/pkg/session"
)

const defaultKeyPrefix = "backoffice"

// saveScript stores the session hash and swaps the credential pointer,
// deleting the token it pointed to before.
//
// KEYS: token key, credential key
// ARGV: token, credential id, verified, expires_at, created_at, ttl ms, token key prefix
var saveScript = red.NewScript(`
local prev = redis.call('GET', KEYS[2])
if prev and prev ~= ARGV[1] then
	redis.call('DEL', ARGV[7] .. prev)
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'credential_id', ARGV[2], 'verified', ARGV[3], 'expires_at', ARGV[4], 'created_at', ARGV[5])
redis.call('PEXPIRE', KEYS[1], ARGV[6])
redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[6])
return 1
`)

// verifyScript sets the verified flag only on an existing hash.
//
// KEYS: token key; ARGV: flag value
var verifyScript = red.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'verified', ARGV[1])
return 1
`)

// deleteScript removes a token and the credential pointer if it still
// refers to that token.
//
// KEYS: token key; ARGV: token, credential key prefix
var deleteScript = red.NewScript(`
local cred = redis.call('HGET', KEYS[1], 'credential_id')
redis.call('DEL', KEYS[1])
if cred then
	local ptr = ARGV[2] .. cred
	if redis.call('GET', ptr) == ARGV[1] then
		redis.call('DEL', ptr)
	end
end
return 1
`)

// deleteByCredentialScript removes the credential pointer and its token.
//
// KEYS: credential key; ARGV: token key prefix
var deleteByCredentialScript = red.NewScript(`
local tok = redis.call('GET', KEYS[1])
if tok then
	redis.call('DEL', ARGV[1] .. tok)
end
redis.call('DEL', KEYS[1])
return 1
`)

// SessionStore implements session.Store on Redis.
type SessionStore struct {
	client red.UniversalClient
	prefix string
	now    func() time.Time
}

var _ session.Store = (*SessionStore)(nil)

type Option func(*SessionStore)

// WithClock overrides the time source used for expiry checks and TTLs.
func WithClock(now func() time.Time) Option {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionStore builds a store whose keys live under keyPrefix. The
// prefix is wrapped in a hash tag ("{backoffice}") unless it already carries
// one, so every key of the store maps to one cluster slot. The scripts
// derive keys from ARGV and rely on that.
func NewSessionStore(client red.UniversalClient, keyPrefix string, opts ...Option) *SessionStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if !hasHashTag(prefix) {
		prefix = "{" + prefix + "}"
	}
	s := &SessionStore{client: client, prefix: prefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionStore) tokenPrefix() string { return s.prefix + ":session:token:" }
func (s *SessionStore) credPrefix() string  { return s.prefix + ":session:cred:" }

func (s *SessionStore) tokenKey(token string) string { return s.tokenPrefix() + token }

func (s *SessionStore) credKey(id uuid.UUID) string { return s.credPrefix() + id.String() }

func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}

	ttl := sess.TTL(s.now())
	if ttl <= 0 {
		return s.DeleteByCredentialID(ctx, sess.CredentialID)
	}

	err := saveScript.Run(ctx, s.client,
		[]string{s.tokenKey(sess.Token), s.credKey(sess.CredentialID)},
		sess.Token,
		sess.CredentialID.String(),
		formatBool(sess.Verified),
		sess.ExpiresAt.UTC().Format(time.RFC3339Nano),
		sess.CreatedAt.UTC().Format(time.RFC3339Nano),
		max(ttl.Milliseconds(), 1),
		s.tokenPrefix(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, session.ErrSessionNotFound
	}

	fields, err := s.client.HGetAll(ctx, s.tokenKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	if len(fields) == 0 {
		return nil, session.ErrSessionNotFound
	}

	sess, err := parseSession(token, fields)
	if err != nil {
		return nil, err
	}
	if sess.ExpiredAt(s.now()) {
		if err := s.Delete(ctx, token); err != nil {
			return nil, err
		}
		return nil, session.ErrSessionExpired
	}
	return sess, nil
}

func (s *SessionStore) MarkVerified(ctx context.Context, token string) error {
	if _, err := s.Get(ctx, token); err != nil {
		return err
	}
	n, err := verifyScript.Run(ctx, s.client, []string{s.tokenKey(token)}, "1").Int()
	if err != nil {
		return fmt.Errorf("redis verify session: %w", err)
	}
	if n == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) ResetVerification(ctx context.Context, credentialID uuid.UUID) error {
	token, err := s.client.Get(ctx, s.credKey(credentialID)).Result()
	if errors.Is(err, red.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis get credential session: %w", err)
	}
	if err := verifyScript.Run(ctx, s.client, []string{s.tokenKey(token)}, "0").Err(); err != nil {
		return fmt.Errorf("redis reset verification: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := deleteScript.Run(ctx, s.client, []string{s.tokenKey(token)}, token, s.credPrefix()).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteByCredentialID(ctx context.Context, credentialID uuid.UUID) error {
	if err := deleteByCredentialScript.Run(ctx, s.client, []string{s.credKey(credentialID)}, s.tokenPrefix()).Err(); err != nil {
		return fmt.Errorf("redis delete credential session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: key TTLs already evict expired sessions.
func (s *SessionStore) DeleteExpired(context.Context) error {
	return nil
}

func parseSession(token string, fields map[string]string) (*session.Session, error) {
	credID, err := uuid.Parse(fields["credential_id"])
	if err != nil {
		return nil, fmt.Errorf("redis session credential id: %w", err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, fields["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("redis session expiry: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("redis session creation time: %w", err)
	}
	return &session.Session{
		Token:        token,
		CredentialID: credID,
		Verified:     fields["verified"] == "1",
		ExpiresAt:    expiresAt,
		CreatedAt:    createdAt,
	}, nil
}

// hasHashTag reports whether Redis Cluster would hash only part of key,
// i.e. it contains a non-empty "{...}" section.
func hasHashTag(key string) bool {
	open := strings.IndexByte(key, '{')
	if open < 0 {
		return false
	}
	return strings.IndexByte(key[open+1:], '}') > 0
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
