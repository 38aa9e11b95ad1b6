package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/qiqiqi-tech/backoffice/pkg/pg"
	"github.com/qiqiqi-tech/backoffice/svc/vault"
)

const vaultTable = "vault_records"

// VaultRepository implements vault.Store with a version column for
// optimistic concurrency.
type VaultRepository struct {
	db      pgExecutor
	builder squirrel.StatementBuilderType
}

var _ vault.Store = (*VaultRepository)(nil)

func NewVaultRepository(db pgExecutor) *VaultRepository {
	return &VaultRepository{db: db, builder: newBuilder()}
}

func (r *VaultRepository) Get(ctx context.Context, tenantID string) (*vault.Record, error) {
	stmt, args, err := r.builder.Select(
		"tenant_id",
		"secrets",
		"plain_values",
		"flags",
		"last_tested_at",
		"created_at",
		"updated_at",
		"version",
	).
		From(vaultTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select vault record sql: %w", err)
	}

	var (
		rec                   vault.Record
		secrets, values, flag []byte
		lastTested            *time.Time
	)
	if err := r.db.QueryRow(ctx, stmt, args...).Scan(
		&rec.TenantID,
		&secrets,
		&values,
		&flag,
		&lastTested,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.Version,
	); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, vault.ErrRecordNotFound
		}
		return nil, fmt.Errorf("select vault record: %w", err)
	}

	if err := decodeJSONB(secrets, &rec.Secrets); err != nil {
		return nil, err
	}
	if err := decodeJSONB(values, &rec.Values); err != nil {
		return nil, err
	}
	if err := decodeJSONB(flag, &rec.Flags); err != nil {
		return nil, err
	}
	rec.LastTestedAt = lastTested
	return rec.Clone(), nil
}

// Save inserts when rec.Version is zero and otherwise updates only the row
// still carrying rec.Version.
func (r *VaultRepository) Save(ctx context.Context, rec *vault.Record) error {
	secrets, err := json.Marshal(rec.Secrets)
	if err != nil {
		return fmt.Errorf("encode vault secrets: %w", err)
	}
	values, err := json.Marshal(rec.Values)
	if err != nil {
		return fmt.Errorf("encode vault values: %w", err)
	}
	flags, err := json.Marshal(rec.Flags)
	if err != nil {
		return fmt.Errorf("encode vault flags: %w", err)
	}

	var q squirrel.Sqlizer
	if rec.Version == 0 {
		q = r.builder.Insert(vaultTable).
			Columns("tenant_id", "secrets", "plain_values", "flags", "last_tested_at", "created_at", "updated_at", "version").
			Values(rec.TenantID, secrets, values, flags, rec.LastTestedAt, rec.CreatedAt, rec.UpdatedAt, 1).
			Suffix("ON CONFLICT (tenant_id) DO NOTHING")
	} else {
		q = r.builder.Update(vaultTable).
			Set("secrets", secrets).
			Set("plain_values", values).
			Set("flags", flags).
			Set("last_tested_at", rec.LastTestedAt).
			Set("updated_at", rec.UpdatedAt).
			Set("version", rec.Version+1).
			Where(squirrel.Eq{"tenant_id": rec.TenantID, "version": rec.Version})
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build save vault record sql: %w", err)
	}
	tag, err := r.db.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("save vault record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vault.ErrVersionConflict
	}

	rec.Version++
	return nil
}

func decodeJSONB[T any](data []byte, dst *T) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode vault record: %w", err)
	}
	return nil
}
