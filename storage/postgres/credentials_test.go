package postgres_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiqiqi-tech/backoffice/storage/postgres"
	"github.com/qiqiqi-tech/backoffice/svc/auth"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

var credentialCols = []string{
	"id", "username", "email", "full_name", "role", "is_active", "password_hash",
	"totp_secret", "is_2fa_enabled", "created_at", "updated_at", "last_login",
}

func TestCredentialRepository_Create(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := &auth.Credential{
		ID:           uuid.New(),
		Username:     "admin",
		Email:        "admin@777tech.com",
		FullName:     "系統管理員",
		Role:         auth.RoleAdmin,
		Active:       true,
		PasswordHash: "$2a$12$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	args := []any{c.ID, c.Username, c.Email, c.FullName, "admin", true, c.PasswordHash, false, now, now}

	tests := []struct {
		name   string
		result error
		want   error
	}{
		{name: "inserted"},
		{
			name:   "duplicate username",
			result: &pgconn.PgError{Code: "23505", ConstraintName: "credentials_username_key"},
			want:   auth.ErrUsernameTaken,
		},
		{
			name:   "duplicate email",
			result: &pgconn.PgError{Code: "23505", ConstraintName: "credentials_email_key"},
			want:   auth.ErrEmailTaken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := newMock(t)
			exp := mock.ExpectExec(`INSERT INTO credentials`).WithArgs(args...)
			if tt.result != nil {
				exp.WillReturnError(tt.result)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			err := postgres.NewCredentialRepository(mock).CreateCredential(t.Context(), c)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCredentialRepository_GetByUsername(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := postgres.NewCredentialRepository(mock)

	id := uuid.New()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM credentials WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows(credentialCols).AddRow(
			id, "alice", "alice@777tech.com", "Alice", "user", true, "hash",
			"envelope", true, now, now, nil,
		))
	mock.ExpectQuery(`SELECT .* FROM credentials WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	c, err := repo.GetCredentialByUsername(t.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, auth.RoleUser, c.Role)
	assert.True(t, c.TwoFactorEnabled)
	assert.Equal(t, "envelope", c.TOTPSecret)
	assert.Nil(t, c.LastLoginAt)

	_, err = repo.GetCredentialByUsername(t.Context(), "ghost")
	assert.ErrorIs(t, err, auth.ErrCredentialNotFound)
}

func TestCredentialRepository_HasAdmin(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM credentials WHERE role = \$1\)`).
		WithArgs("admin").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := postgres.NewCredentialRepository(mock).HasAdmin(t.Context())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCredentialRepository_SetActive_NotFound(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	id := uuid.New()
	mock.ExpectExec(`UPDATE credentials SET is_active = \$1, updated_at = now\(\) WHERE id = \$2`).
		WithArgs(false, id.String()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := postgres.NewCredentialRepository(mock).SetActive(t.Context(), id, false)
	assert.ErrorIs(t, err, auth.ErrCredentialNotFound)
}

func TestCredentialRepository_SetTOTPSecret(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	id := uuid.New()
	mock.ExpectQuery(`UPDATE credentials SET totp_secret = COALESCE\(NULLIF\(totp_secret, ''\), \$1\).*RETURNING totp_secret`).
		WithArgs("second", id.String()).
		WillReturnRows(pgxmock.NewRows([]string{"totp_secret"}).AddRow("first"))

	stored, err := postgres.NewCredentialRepository(mock).SetTOTPSecret(t.Context(), id, "second")
	require.NoError(t, err)
	assert.Equal(t, "first", stored)
}

func TestCredentialRepository_EnableTwoFactor(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	hashes := []string{"h1", "h2"}

	t.Run("replaces codes in one transaction", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .* FROM credentials WHERE id = \$1 FOR UPDATE`).
			WithArgs(id.String()).
			WillReturnRows(pgxmock.NewRows([]string{"totp_secret", "is_2fa_enabled"}).AddRow("envelope", false))
		mock.ExpectExec(`UPDATE credentials SET is_2fa_enabled = \$1`).
			WithArgs(true, id.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(`DELETE FROM backup_codes WHERE credential_id = \$1`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectExec(`INSERT INTO backup_codes \(credential_id,code_hash\) VALUES \(\$1,\$2\),\(\$3,\$4\)`).
			WithArgs(id, "h1", id, "h2").
			WillReturnResult(pgxmock.NewResult("INSERT", 2))
		mock.ExpectCommit()

		require.NoError(t, postgres.NewCredentialRepository(mock).EnableTwoFactor(t.Context(), id, hashes))
	})

	t.Run("already enabled rolls back", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(id.String()).
			WillReturnRows(pgxmock.NewRows([]string{"totp_secret", "is_2fa_enabled"}).AddRow("envelope", true))
		mock.ExpectRollback()

		err := postgres.NewCredentialRepository(mock).EnableTwoFactor(t.Context(), id, hashes)
		assert.ErrorIs(t, err, auth.ErrTwoFactorAlreadyEnabled)
	})

	t.Run("not initialized", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(id.String()).
			WillReturnRows(pgxmock.NewRows([]string{"totp_secret", "is_2fa_enabled"}).AddRow("", false))
		mock.ExpectRollback()

		err := postgres.NewCredentialRepository(mock).EnableTwoFactor(t.Context(), id, hashes)
		assert.ErrorIs(t, err, auth.ErrTwoFactorNotInitialized)
	})
}

func TestCredentialRepository_ConsumeBackupCode(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mock := newMock(t)
	repo := postgres.NewCredentialRepository(mock)

	// squirrel orders Eq keys alphabetically and passes uuid.UUID through
	// driver.Valuer, so the id arrives as its string form.
	mock.ExpectExec(`DELETE FROM backup_codes WHERE code_hash = \$1 AND credential_id = \$2`).
		WithArgs("h1", id.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM backup_codes`).
		WithArgs("h1", id.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(`SELECT .* FROM credentials WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(pgxmock.NewRows(credentialCols).AddRow(
			id, "alice", "alice@777tech.com", "", "user", true, "hash", "envelope", true, now, now, nil,
		))

	ok, err := repo.ConsumeBackupCode(t.Context(), id, "h1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ConsumeBackupCode(t.Context(), id, "h1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentialRepository_DisableTwoFactor(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE credentials SET is_2fa_enabled = \$1, totp_secret = \$2`).
		WithArgs(false, nil, id.String()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM backup_codes WHERE credential_id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 10))
	mock.ExpectCommit()

	require.NoError(t, postgres.NewCredentialRepository(mock).DisableTwoFactor(t.Context(), id))
}
