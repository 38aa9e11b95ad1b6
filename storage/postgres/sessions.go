package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/qiqiqi-tech/backoffice/pkg/pg"
	"github.com/qiqiqi-tech/backoffice/pkg/session"
)

const sessionsTable = "sessions"

// SessionRepository implements session.Store. The unique credential_id
// column keeps at most one session per credential.
type SessionRepository struct {
	db      pgExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

var _ session.Store = (*SessionRepository)(nil)

type SessionOption func(*SessionRepository)

// WithSessionClock overrides the time source used for expiry checks.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(r *SessionRepository) {
		if now != nil {
			r.now = now
		}
	}
}

func NewSessionRepository(db pgExecutor, opts ...SessionOption) *SessionRepository {
	r := &SessionRepository{db: db, builder: newBuilder(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save upserts on credential_id, replacing any previous token.
func (r *SessionRepository) Save(ctx context.Context, s *session.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	stmt, args, err := r.builder.Insert(sessionsTable).
		Columns("token", "credential_id", "verified", "expires_at", "created_at").
		Values(s.Token, s.CredentialID, s.Verified, s.ExpiresAt, s.CreatedAt).
		Suffix(`ON CONFLICT (credential_id) DO UPDATE SET
			token = EXCLUDED.token,
			verified = EXCLUDED.verified,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert session sql: %w", err)
	}

	if _, err := r.db.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, token string) (*session.Session, error) {
	stmt, args, err := r.builder.Select("token", "credential_id", "verified", "expires_at", "created_at").
		From(sessionsTable).
		Where(squirrel.Eq{"token": token}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	var s session.Session
	if err := r.db.QueryRow(ctx, stmt, args...).Scan(
		&s.Token,
		&s.CredentialID,
		&s.Verified,
		&s.ExpiresAt,
		&s.CreatedAt,
	); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}

	if s.ExpiredAt(r.now()) {
		if err := r.Delete(ctx, token); err != nil {
			return nil, err
		}
		return nil, session.ErrSessionExpired
	}
	return &s, nil
}

func (r *SessionRepository) MarkVerified(ctx context.Context, token string) error {
	stmt, args, err := r.builder.Update(sessionsTable).
		Set("verified", true).
		Where(squirrel.Eq{"token": token}).
		Where(squirrel.Gt{"expires_at": r.now()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build verify session sql: %w", err)
	}

	tag, err := r.db.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("verify session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Classify the miss as not found or expired.
		if _, err := r.Get(ctx, token); err != nil {
			return err
		}
		return session.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) ResetVerification(ctx context.Context, credentialID uuid.UUID) error {
	return r.exec(ctx, r.builder.Update(sessionsTable).
		Set("verified", false).
		Where(squirrel.Eq{"credential_id": credentialID}))
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	return r.exec(ctx, r.builder.Delete(sessionsTable).Where(squirrel.Eq{"token": token}))
}

func (r *SessionRepository) DeleteByCredentialID(ctx context.Context, credentialID uuid.UUID) error {
	return r.exec(ctx, r.builder.Delete(sessionsTable).Where(squirrel.Eq{"credential_id": credentialID}))
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) error {
	return r.exec(ctx, r.builder.Delete(sessionsTable).Where(squirrel.LtOrEq{"expires_at": r.now()}))
}

func (r *SessionRepository) exec(ctx context.Context, q squirrel.Sqlizer) error {
	stmt, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build session sql: %w", err)
	}
	if _, err := r.db.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("exec session sql: %w", err)
	}
	return nil
}
