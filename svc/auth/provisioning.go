package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/qiqiqi-tech/backoffice/pkg/logger"
	"github.com/qiqiqi-tech/backoffice/pkg/validator"
)

type CreateCredentialParams struct {
	Username string
	Email    string
	FullName string
	Password string
	Role     Role
}

// CreateCredential validates params, hashes the password and stores an
// active credential.
func (s *Service) CreateCredential(ctx context.Context, p CreateCredentialParams) (*Credential, error) {
	p.Username = NormalizeUsername(p.Username)
	p.Email = NormalizeEmail(p.Email)
	if p.Role == "" {
		p.Role = RoleUser
	}

	var verrs validator.ValidationErrors
	verrs.Merge(validator.Apply(
		validator.ValidUsername("username", p.Username, 3, 64),
		validator.ValidEmail("email", p.Email),
		validator.MaxLenString("full_name", p.FullName, 100),
		validator.OneOf("role", p.Role, []Role{RoleAdmin, RoleUser}),
	))
	verrs.Merge(s.validatePassword("password", p.Password))
	if !verrs.IsEmpty() {
		return nil, verrs
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cred := &Credential{
		ID:           uuid.New(),
		Username:     p.Username,
		Email:        p.Email,
		FullName:     p.FullName,
		Role:         p.Role,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.credentials.CreateCredential(ctx, cred); err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			return nil, validator.ValidationErrors{{Field: "username", Message: "username already exists", TranslationKey: "validation.username_taken"}}
		case errors.Is(err, ErrEmailTaken):
			return nil, validator.ValidationErrors{{Field: "email", Message: "email already exists", TranslationKey: "validation.email_taken"}}
		}
		return nil, fmt.Errorf("create credential: %w", err)
	}

	s.logger.InfoContext(ctx, "credential created", append(s.logAttrs(cred), logger.Event("credential_created"))...)
	return cred, nil
}

type AdminParams struct {
	Username string
	Email    string
	FullName string
	Password string
}

func (p AdminParams) withDefaults() AdminParams {
	d := DefaultConfig().BootstrapAdmin
	if p.Username == "" {
		p.Username = d.Username
	}
	if p.Email == "" {
		p.Email = d.Email
	}
	if p.FullName == "" {
		p.FullName = d.FullName
	}
	return p
}

// EnsureAdmin creates the admin account unless one with that username
// exists. The bool reports whether it was created.
func (s *Service) EnsureAdmin(ctx context.Context, p AdminParams) (*Credential, bool, error) {
	p = p.withDefaults()

	existing, err := s.credentials.GetCredentialByUsername(ctx, NormalizeUsername(p.Username))
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, ErrCredentialNotFound):
		return nil, false, fmt.Errorf("look up admin: %w", err)
	}

	cred, err := s.CreateCredential(ctx, CreateCredentialParams{
		Username: p.Username,
		Email:    p.Email,
		FullName: p.FullName,
		Password: p.Password,
		Role:     RoleAdmin,
	})
	if err != nil {
		// Lost a race with a concurrent bootstrap.
		if verrs := validator.ExtractValidationErrors(err); verrs.Has("username") {
			if existing, getErr := s.credentials.GetCredentialByUsername(ctx, NormalizeUsername(p.Username)); getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return cred, true, nil
}

// InitAdmin creates the first admin and refuses once any admin exists.
func (s *Service) InitAdmin(ctx context.Context, p AdminParams) (*Credential, error) {
	exists, err := s.credentials.HasAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return nil, ErrAdminExists
	}
	cred, _, err := s.EnsureAdmin(ctx, p)
	return cred, err
}

// ChangePassword replaces the password of the session's credential. The
// session stays valid.
func (s *Service) ChangePassword(ctx context.Context, token, current, next string) error {
	_, cred, err := s.fullSession(ctx, token)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(cred.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	if err := s.validatePassword("new_password", next); err != nil {
		return err
	}
	if current == next {
		return validator.ValidationErrors{{Field: "new_password", Message: ErrSamePassword.Error(), TranslationKey: "validation.password_same"}}
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.credentials.UpdatePasswordHash(ctx, cred.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", append(s.logAttrs(cred), logger.Event("password_changed"))...)
	return nil
}

// SetActive toggles soft deactivation. Deactivating also ends the
// credential's session.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.credentials.SetActive(ctx, id, active); err != nil {
		return err
	}
	if !active {
		if err := s.sessions.DeleteByCredentialID(ctx, id); err != nil {
			return fmt.Errorf("end session: %w", err)
		}
	}
	s.logger.InfoContext(ctx, "credential activity changed",
		logger.Component("auth"), logger.CredentialID(id), logger.Event("credential_active_changed"))
	return nil
}
