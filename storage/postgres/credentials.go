package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/qiqiqi-tech/backoffice/pkg/pg"
	"github.com/qiqiqi-tech/backoffice/svc/auth"
)

const (
	credentialsTable = "credentials"
	backupCodesTable = "backup_codes"

	usernameConstraint = "credentials_username_key"
	emailConstraint    = "credentials_email_key"
)

var credentialColumns = []string{
	"id",
	"username",
	"email",
	"full_name",
	"role",
	"is_active",
	"password_hash",
	"COALESCE(totp_secret, '')",
	"is_2fa_enabled",
	"created_at",
	"updated_at",
	"last_login",
}

// CredentialRepository implements auth.CredentialStore.
type CredentialRepository struct {
	db      pgPool
	builder squirrel.StatementBuilderType
}

var _ auth.CredentialStore = (*CredentialRepository)(nil)

func NewCredentialRepository(db pgPool) *CredentialRepository {
	return &CredentialRepository{db: db, builder: newBuilder()}
}

func (r *CredentialRepository) CreateCredential(ctx context.Context, c *auth.Credential) error {
	stmt, args, err := r.builder.Insert(credentialsTable).
		Columns(
			"id",
			"username",
			"email",
			"full_name",
			"role",
			"is_active",
			"password_hash",
			"is_2fa_enabled",
			"created_at",
			"updated_at",
		).
		Values(
			c.ID,
			c.Username,
			c.Email,
			c.FullName,
			string(c.Role),
			c.Active,
			c.PasswordHash,
			c.TwoFactorEnabled,
			c.CreatedAt,
			c.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert credential sql: %w", err)
	}

	if _, err := r.db.Exec(ctx, stmt, args...); err != nil {
		if pg.IsDuplicateKeyError(err) {
			switch pg.ConstraintName(err) {
			case usernameConstraint:
				return auth.ErrUsernameTaken
			case emailConstraint:
				return auth.ErrEmailTaken
			}
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) GetCredentialByID(ctx context.Context, id uuid.UUID) (*auth.Credential, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *CredentialRepository) GetCredentialByUsername(ctx context.Context, username string) (*auth.Credential, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

func (r *CredentialRepository) getOne(ctx context.Context, where squirrel.Eq) (*auth.Credential, error) {
	stmt, args, err := r.builder.Select(credentialColumns...).
		From(credentialsTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select credential sql: %w", err)
	}

	c, err := scanCredential(r.db.QueryRow(ctx, stmt, args...))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("select credential: %w", err)
	}
	return c, nil
}

func scanCredential(row pgx.Row) (*auth.Credential, error) {
	var (
		c    auth.Credential
		role string
	)
	if err := row.Scan(
		&c.ID,
		&c.Username,
		&c.Email,
		&c.FullName,
		&role,
		&c.Active,
		&c.PasswordHash,
		&c.TOTPSecret,
		&c.TwoFactorEnabled,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.LastLoginAt,
	); err != nil {
		return nil, err
	}
	c.Role = auth.Role(role)
	return &c, nil
}

func (r *CredentialRepository) HasAdmin(ctx context.Context) (bool, error) {
	stmt, args, err := r.builder.Select().
		Column(squirrel.Expr("EXISTS (SELECT 1 FROM credentials WHERE role = ?)", string(auth.RoleAdmin))).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build admin exists sql: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, stmt, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check admin exists: %w", err)
	}
	return exists, nil
}

func (r *CredentialRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(ctx, id, map[string]any{"password_hash": hash})
}

func (r *CredentialRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.update(ctx, id, map[string]any{"is_active": active})
}

func (r *CredentialRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.exec(ctx, r.db, r.builder.Update(credentialsTable).
		Set("last_login", at).
		Where(squirrel.Eq{"id": id}), true)
}

func (r *CredentialRepository) update(ctx context.Context, id uuid.UUID, set map[string]any) error {
	return r.exec(ctx, r.db, r.builder.Update(credentialsTable).
		SetMap(set).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}), true)
}

// exec runs q and, when mustMatch is set, maps zero affected rows to
// auth.ErrCredentialNotFound.
func (r *CredentialRepository) exec(ctx context.Context, db pgExecutor, q squirrel.Sqlizer, mustMatch bool) error {
	stmt, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build credential sql: %w", err)
	}
	tag, err := db.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("exec credential sql: %w", err)
	}
	if mustMatch && tag.RowsAffected() == 0 {
		return auth.ErrCredentialNotFound
	}
	return nil
}

func (r *CredentialRepository) SetTOTPSecret(ctx context.Context, id uuid.UUID, secret string) (string, error) {
	stmt, args, err := r.builder.Update(credentialsTable).
		Set("totp_secret", squirrel.Expr("COALESCE(NULLIF(totp_secret, ''), ?)", secret)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING totp_secret").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build set totp secret sql: %w", err)
	}

	var stored string
	if err := r.db.QueryRow(ctx, stmt, args...).Scan(&stored); err != nil {
		if pg.IsNotFoundError(err) {
			return "", auth.ErrCredentialNotFound
		}
		return "", fmt.Errorf("set totp secret: %w", err)
	}
	return stored, nil
}

func (r *CredentialRepository) EnableTwoFactor(ctx context.Context, id uuid.UUID, codeHashes []string) error {
	return pg.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		stmt, args, err := r.builder.Select("COALESCE(totp_secret, '')", "is_2fa_enabled").
			From(credentialsTable).
			Where(squirrel.Eq{"id": id}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return fmt.Errorf("build lock credential sql: %w", err)
		}

		var (
			secret  string
			enabled bool
		)
		if err := tx.QueryRow(ctx, stmt, args...).Scan(&secret, &enabled); err != nil {
			if pg.IsNotFoundError(err) {
				return auth.ErrCredentialNotFound
			}
			return fmt.Errorf("lock credential: %w", err)
		}
		switch {
		case secret == "":
			return auth.ErrTwoFactorNotInitialized
		case enabled:
			return auth.ErrTwoFactorAlreadyEnabled
		}

		if err := r.exec(ctx, tx, r.builder.Update(credentialsTable).
			Set("is_2fa_enabled", true).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": id}), true); err != nil {
			return err
		}
		if err := r.exec(ctx, tx, r.builder.Delete(backupCodesTable).
			Where(squirrel.Eq{"credential_id": id}), false); err != nil {
			return err
		}
		if len(codeHashes) == 0 {
			return nil
		}

		insert := r.builder.Insert(backupCodesTable).Columns("credential_id", "code_hash")
		for _, h := range codeHashes {
			insert = insert.Values(id, h)
		}
		return r.exec(ctx, tx, insert, false)
	})
}

func (r *CredentialRepository) DisableTwoFactor(ctx context.Context, id uuid.UUID) error {
	return pg.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := r.exec(ctx, tx, r.builder.Update(credentialsTable).
			Set("is_2fa_enabled", false).
			Set("totp_secret", nil).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": id}), true); err != nil {
			return err
		}
		return r.exec(ctx, tx, r.builder.Delete(backupCodesTable).
			Where(squirrel.Eq{"credential_id": id}), false)
	})
}

// ConsumeBackupCode deletes the matching row; the delete itself is the
// compare-and-remove, so concurrent callers cannot both succeed.
func (r *CredentialRepository) ConsumeBackupCode(ctx context.Context, id uuid.UUID, codeHash string) (bool, error) {
	stmt, args, err := r.builder.Delete(backupCodesTable).
		Where(squirrel.Eq{"credential_id": id, "code_hash": codeHash}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build consume backup code sql: %w", err)
	}

	tag, err := r.db.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("consume backup code: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	if _, err := r.GetCredentialByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *CredentialRepository) CountBackupCodes(ctx context.Context, id uuid.UUID) (int, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From(backupCodesTable).
		Where(squirrel.Eq{"credential_id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count backup codes sql: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count backup codes: %w", err)
	}
	if n == 0 {
		if _, err := r.GetCredentialByID(ctx, id); err != nil {
			return 0, err
		}
	}
	return n, nil
}
