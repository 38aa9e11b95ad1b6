package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/qiqiqi-tech/backoffice/pkg/logger"
	"github.com/qiqiqi-tech/backoffice/pkg/secrets"
	"github.com/qiqiqi-tech/backoffice/pkg/validator"
)

type Service struct {
	store  Store
	cipher *secrets.Cipher
	logger *slog.Logger
	now    func() time.Time

	defaultModel  string
	maxAttempts   int
	openAIBaseURL string
	probeTimeout  time.Duration
	httpClient    *http.Client
}

func NewService(store Store, cipher *secrets.Cipher, opts ...Option) (*Service, error) {
	if store == nil || cipher == nil {
		return nil, errors.New("vault: store and cipher are required")
	}

	s := &Service{
		store:         store,
		cipher:        cipher,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:           time.Now,
		defaultModel:  DefaultModel,
		maxAttempts:   3,
		openAIBaseURL: "https://api.openai.com",
		probeTimeout:  10 * time.Second,
		httpClient:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type getOptions struct {
	reveal bool
}

type GetOption func(*getOptions)

// WithReveal decrypts every stored secret into Snapshot.Revealed. The
// plaintext is neither cached nor logged.
func WithReveal() GetOption {
	return func(o *getOptions) { o.reveal = true }
}

// Get returns the tenant's configuration. A tenant without a record reads as
// an empty configuration.
func (s *Service) Get(ctx context.Context, tenantID string, opts ...GetOption) (*Snapshot, error) {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	rec, err := s.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	snap := snapshotOf(rec, s.defaultModel)
	if !o.reveal {
		return snap, nil
	}

	snap.Revealed = make(map[Field]string, len(rec.Secrets))
	for f, envelope := range rec.Secrets {
		if envelope == "" {
			continue
		}
		plain, err := s.cipher.Decrypt(envelope)
		if err != nil {
			s.logger.ErrorContext(ctx, "stored secret cannot be decrypted",
				logger.Component("vault"), logger.TenantID(tenantID), logger.Field(string(f)), logger.Error(err))
			return nil, fmt.Errorf("reveal %s: %w", f, err)
		}
		snap.Revealed[f] = plain
	}
	return snap, nil
}

// Reveal decrypts a single secret. An absent secret is ErrNotConfigured; a
// corrupt one matches secrets.ErrDecryptionFailed.
func (s *Service) Reveal(ctx context.Context, tenantID string, field Field) (string, error) {
	if !field.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if !field.Sensitive() {
		return "", fmt.Errorf("%w: %q", ErrNotSensitive, field)
	}

	rec, err := s.load(ctx, tenantID)
	if err != nil {
		return "", err
	}
	envelope := rec.Secrets[field]
	if envelope == "" {
		return "", fmt.Errorf("%w: %s", ErrNotConfigured, field)
	}

	plain, err := s.cipher.Decrypt(envelope)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored secret cannot be decrypted",
			logger.Component("vault"), logger.TenantID(tenantID), logger.Field(string(field)), logger.Error(err))
		return "", fmt.Errorf("reveal %s: %w", field, err)
	}
	return plain, nil
}

type UpdateResult struct {
	Snapshot *Snapshot                  `json:"settings"`
	Applied  []Field                    `json:"applied"`
	Rejected validator.ValidationErrors `json:"rejected,omitempty"`
}

type change struct {
	field Field
	clear bool
	value string
}

// Update applies u field by field. Fields failing validation are listed in
// Rejected and skipped; the rest are saved. An encryption or store failure
// aborts the whole update without saving anything.
func (s *Service) Update(ctx context.Context, tenantID string, u Update) (*UpdateResult, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}

	keys := make([]Field, 0, len(u))
	for f := range u {
		keys = append(keys, f)
	}
	slices.Sort(keys)

	var (
		changes  []change
		rejected validator.ValidationErrors
	)
	for _, f := range keys {
		val := u[f]
		if !f.Valid() {
			rejected.Add(validator.ValidationError{Field: string(f), Message: "unknown field", TranslationKey: "validation.unknown_field"})
			continue
		}
		if val.kind == valueInvalid {
			rejected.Add(validator.ValidationError{Field: string(f), Message: val.v, TranslationKey: "validation.invalid_type"})
			continue
		}

		switch {
		case val.IsUnset(), val.IsBlank():
			continue
		case val.IsClear():
			changes = append(changes, change{field: f, clear: true})
			continue
		}

		v, _ := val.Get()
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if err := f.validate(v); err != nil {
			rejected.Merge(err)
			continue
		}
		if f.Sensitive() {
			envelope, err := s.cipher.Encrypt(v)
			if err != nil {
				return nil, fmt.Errorf("encrypt %s: %w", f, err)
			}
			v = envelope
		}
		changes = append(changes, change{field: f, value: v})
	}

	applied := make([]Field, 0, len(changes))
	for _, c := range changes {
		applied = append(applied, c.field)
	}

	var rec *Record
	var err error
	if len(changes) == 0 {
		rec, err = s.load(ctx, tenantID)
	} else {
		rec, err = s.mutate(ctx, tenantID, func(r *Record) {
			for _, c := range changes {
				applyChange(r, c)
			}
		})
	}
	if err != nil {
		return nil, err
	}

	if len(rejected) > 0 {
		s.logger.InfoContext(ctx, "vault fields rejected",
			logger.Component("vault"), logger.TenantID(tenantID), logger.Fields(rejected.Fields()))
	}
	if len(applied) > 0 {
		names := make([]string, len(applied))
		for i, f := range applied {
			names[i] = string(f)
		}
		s.logger.InfoContext(ctx, "vault updated",
			logger.Component("vault"), logger.TenantID(tenantID), logger.Fields(names))
	}

	return &UpdateResult{
		Snapshot: snapshotOf(rec, s.defaultModel),
		Applied:  applied,
		Rejected: rejected,
	}, nil
}

func applyChange(r *Record, c change) {
	switch fields[c.field].kind {
	case kindSecret:
		if c.clear {
			delete(r.Secrets, c.field)
		} else {
			r.Secrets[c.field] = c.value
		}
	case kindPlain:
		if c.clear {
			delete(r.Values, c.field)
		} else {
			r.Values[c.field] = c.value
		}
	case kindFlag:
		if c.clear {
			delete(r.Flags, c.field)
		} else {
			b, _ := strconv.ParseBool(c.value)
			r.Flags[c.field] = b
		}
	}
}

// Reset drops every secret, restores the default model and switches all
// feature flags off. GitHub username and repository are kept.
func (s *Service) Reset(ctx context.Context, tenantID string) (*Snapshot, error) {
	rec, err := s.mutate(ctx, tenantID, func(r *Record) {
		clear(r.Secrets)
		r.Values[FieldOpenAIModel] = s.defaultModel
		for f, spec := range fields {
			if spec.kind == kindFlag {
				r.Flags[f] = false
			}
		}
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "vault reset", logger.Component("vault"), logger.TenantID(tenantID))
	return snapshotOf(rec, s.defaultModel), nil
}

func (s *Service) load(ctx context.Context, tenantID string) (*Record, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	rec, err := s.store.Get(ctx, tenantID)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return newRecord(tenantID), nil
	case err != nil:
		return nil, fmt.Errorf("load vault record: %w", err)
	}
	return rec.Clone(), nil
}

// mutate reloads, applies fn and saves, retrying on version conflicts.
func (s *Service) mutate(ctx context.Context, tenantID string, fn func(*Record)) (*Record, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		rec, err := s.load(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		fn(rec)
		now := s.now()
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now

		err = s.store.Save(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, fmt.Errorf("save vault record: %w", err)
		}
		s.logger.DebugContext(ctx, "vault write conflict, retrying",
			logger.Component("vault"), logger.TenantID(tenantID), slog.Int("attempt", attempt))
	}
	return nil, ErrTooManyConflicts
}
