package postgres_test

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiqiqi-tech/backoffice/storage/postgres"
	"github.com/qiqiqi-tech/backoffice/svc/vault"
)

func TestVaultRepository_Get(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	mock := newMock(t)
	repo := postgres.NewVaultRepository(mock)

	mock.ExpectQuery(`SELECT .* FROM vault_records WHERE tenant_id = \$1`).
		WithArgs("t1").
		WillReturnRows(pgxmock.NewRows([]string{
			"tenant_id", "secrets", "plain_values", "flags", "last_tested_at", "created_at", "updated_at", "version",
		}).AddRow(
			"t1",
			[]byte(`{"openai_api_key":"envelope"}`),
			[]byte(`{"openai_model":"gpt-4o"}`),
			[]byte(`{"ai_enabled":true}`),
			nil, now, now, int64(4),
		))
	mock.ExpectQuery(`FROM vault_records`).
		WithArgs("t2").
		WillReturnError(pgx.ErrNoRows)

	rec, err := repo.Get(t.Context(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "envelope", rec.Secrets[vault.FieldOpenAIAPIKey])
	assert.Equal(t, "gpt-4o", rec.Values[vault.FieldOpenAIModel])
	assert.True(t, rec.Flags[vault.FieldAIEnabled])
	assert.EqualValues(t, 4, rec.Version)
	assert.Nil(t, rec.LastTestedAt)

	_, err = repo.Get(t.Context(), "t2")
	assert.ErrorIs(t, err, vault.ErrRecordNotFound)
}

func TestVaultRepository_Save(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("insert", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO vault_records .* ON CONFLICT \(tenant_id\) DO NOTHING`).
			WithArgs("t1", []byte(`{}`), []byte(`{}`), []byte(`{"ai_enabled":true}`), (*time.Time)(nil), now, now, 1).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		rec := &vault.Record{
			TenantID:  "t1",
			Secrets:   map[vault.Field]string{},
			Values:    map[vault.Field]string{},
			Flags:     map[vault.Field]bool{vault.FieldAIEnabled: true},
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, postgres.NewVaultRepository(mock).Save(t.Context(), rec))
		assert.EqualValues(t, 1, rec.Version)
	})

	t.Run("stale version", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		mock.ExpectExec(`UPDATE vault_records SET .* WHERE tenant_id = \$7 AND version = \$8`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), now, int64(3), "t1", int64(2)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		rec := &vault.Record{TenantID: "t1", UpdatedAt: now, Version: 2}
		err := postgres.NewVaultRepository(mock).Save(t.Context(), rec)
		assert.ErrorIs(t, err, vault.ErrVersionConflict)
		assert.EqualValues(t, 2, rec.Version)
	})
}
