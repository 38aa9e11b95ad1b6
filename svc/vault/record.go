package vault

import (
	"context"
	"maps"
	"time"
)

// Record is the stored form of one tenant's configuration. Secrets holds
// cipher envelopes, never plaintext.
type Record struct {
	TenantID     string           `json:"tenant_id"`
	Secrets      map[Field]string `json:"secrets"`
	Values       map[Field]string `json:"values"`
	Flags        map[Field]bool   `json:"flags"`
	LastTestedAt *time.Time       `json:"last_tested_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	// Version is the optimistic-concurrency token. Zero means never saved.
	Version int64 `json:"version"`
}

func newRecord(tenantID string) *Record {
	return &Record{
		TenantID: tenantID,
		Secrets:  map[Field]string{},
		Values:   map[Field]string{},
		Flags:    map[Field]bool{},
	}
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	c.Secrets = maps.Clone(r.Secrets)
	c.Values = maps.Clone(r.Values)
	c.Flags = maps.Clone(r.Flags)
	if c.Secrets == nil {
		c.Secrets = map[Field]string{}
	}
	if c.Values == nil {
		c.Values = map[Field]string{}
	}
	if c.Flags == nil {
		c.Flags = map[Field]bool{}
	}
	if r.LastTestedAt != nil {
		t := *r.LastTestedAt
		c.LastTestedAt = &t
	}
	return &c
}

func (r *Record) has(f Field) bool {
	return r.Secrets[f] != ""
}

// Store persists vault records.
type Store interface {
	// Get returns ErrRecordNotFound when the tenant has no record.
	Get(ctx context.Context, tenantID string) (*Record, error)

	// Save writes rec if the stored version still equals rec.Version (zero
	// meaning "must not exist yet") and then increments rec.Version. A stale
	// version fails with ErrVersionConflict.
	Save(ctx context.Context, rec *Record) error
}
