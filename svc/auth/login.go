package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/qiqiqi-tech/backoffice/pkg/logger"
	"github.com/qiqiqi-tech/backoffice/pkg/session"
	"github.com/qiqiqi-tech/backoffice/pkg/totp"
	"github.com/qiqiqi-tech/backoffice/pkg/validator"
)

type LoginResult struct {
	Token             string      `json:"session_token"`
	ExpiresAt         time.Time   `json:"expires_at"`
	RequiresTwoFactor bool        `json:"requires_2fa"`
	Credential        *Credential `json:"user"`
}

// SecondFactor carries either a TOTP code or a backup code. TOTPCode wins
// when both are set.
type SecondFactor struct {
	TOTPCode   string
	BackupCode string
}

type SessionStatus struct {
	State              session.State `json:"state"`
	Authenticated      bool          `json:"authenticated"`
	FullyAuthenticated bool          `json:"fully_authenticated"`
	ExpiresAt          time.Time     `json:"expires_at"`
	Credential         *Credential   `json:"user"`
}

// Login checks the password and issues a session, replacing any previous
// session of the credential. The session starts verified unless the
// credential has two-factor authentication enabled.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = NormalizeUsername(username)
	if err := validator.Apply(
		validator.RequiredString("username", username),
		validator.RequiredString("password", password),
	); err != nil {
		return nil, err
	}

	cred, err := s.credentials.GetCredentialByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrCredentialNotFound):
		s.burnDecoys("", password)
		s.logger.InfoContext(ctx, "login rejected",
			logger.Component("auth"), logger.Event("login_failed"), logger.Username(username))
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("load credential: %w", err)
	case !cred.Active:
		s.burnDecoys("", password)
		s.logger.InfoContext(ctx, "login rejected for inactive account",
			append(s.logAttrs(cred), logger.Event("login_failed"))...)
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(cred.PasswordHash, password); err != nil {
		s.burnDecoys(cred.PasswordHash, password)
		if !errors.Is(err, ErrPasswordMismatch) {
			s.logger.ErrorContext(ctx, "stored password hash unusable", append(s.logAttrs(cred), logger.Error(err))...)
		}
		s.logger.InfoContext(ctx, "login rejected", append(s.logAttrs(cred), logger.Event("login_failed"))...)
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	sess, err := session.New(cred.ID, !cred.TwoFactorEnabled, now, s.sessionTTL)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if err := s.credentials.TouchLastLogin(ctx, cred.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login", append(s.logAttrs(cred), logger.Error(err))...)
	} else {
		cred.LastLoginAt = &now
	}

	s.logger.InfoContext(ctx, "password verified",
		append(s.logAttrs(cred), logger.Event("login"), slog.Bool("requires_2fa", cred.TwoFactorEnabled))...)

	return &LoginResult{
		Token:             sess.Token,
		ExpiresAt:         sess.ExpiresAt,
		RequiresTwoFactor: cred.TwoFactorEnabled,
		Credential:        cred,
	}, nil
}

// burnDecoys compares password against every decoy whose format differs
// from stored. An empty stored hash stands for a missing account.
func (s *Service) burnDecoys(stored, password string) {
	format := hashFormat(stored)
	for _, d := range s.decoys {
		if stored != "" && hashFormat(d) == format {
			continue
		}
		_ = s.hasher.Compare(d, password)
	}
}

// VerifySecondFactor upgrades a password-verified session. A failed check
// leaves both the session and the backup codes untouched.
func (s *Service) VerifySecondFactor(ctx context.Context, token string, factor SecondFactor) (*Credential, error) {
	sess, cred, err := s.liveSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if !cred.TwoFactorEnabled {
		return nil, ErrTwoFactorNotEnabled
	}

	totpCode := strings.TrimSpace(factor.TOTPCode)
	backupCode := totp.NormalizeRecoveryCode(factor.BackupCode)

	var ok bool
	switch {
	case totpCode != "":
		ok, err = s.checkTOTP(cred, totpCode)
	case backupCode != "":
		ok, err = s.credentials.ConsumeBackupCode(ctx, cred.ID, totp.HashRecoveryCode(backupCode))
		if err == nil && ok {
			s.logger.InfoContext(ctx, "backup code used", append(s.logAttrs(cred), logger.Event("backup_code_consumed"))...)
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.InfoContext(ctx, "second factor rejected", append(s.logAttrs(cred), logger.Event("2fa_failed"))...)
		return nil, ErrInvalidCode
	}

	if err := s.sessions.MarkVerified(ctx, sess.Token); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrSessionExpired) {
			return nil, errors.Join(ErrSessionExpired, err)
		}
		return nil, fmt.Errorf("mark session verified: %w", err)
	}

	s.logger.InfoContext(ctx, "second factor verified", append(s.logAttrs(cred), logger.Event("2fa_verified"))...)
	return cred, nil
}

// checkTOTP decrypts the stored secret and validates code around now.
// Malformed codes are a plain miss.
func (s *Service) checkTOTP(cred *Credential, code string) (bool, error) {
	if validator.Apply(validator.ValidOTP("totp_code", code, totp.DefaultDigits)) != nil {
		return false, nil
	}
	secret, err := s.cipher.Decrypt(cred.TOTPSecret)
	if err != nil {
		return false, errors.Join(ErrSecretUnavailable, err)
	}
	ok, err := totp.ValidateTOTPWithTime(secret, code, s.now(), s.totpWindow)
	if err != nil {
		if errors.Is(err, totp.ErrInvalidOTP) {
			return false, nil
		}
		return false, errors.Join(ErrSecretUnavailable, err)
	}
	return ok, nil
}

// IsFullyAuthenticated reports whether token grants access right now.
func (s *Service) IsFullyAuthenticated(ctx context.Context, token string) bool {
	_, _, err := s.fullSession(ctx, token)
	return err == nil
}

// Authenticate returns the credential behind a fully authenticated token.
func (s *Service) Authenticate(ctx context.Context, token string) (*Credential, error) {
	_, cred, err := s.fullSession(ctx, token)
	return cred, err
}

// CheckSession describes the token without mutating it. Unknown and expired
// tokens are reported as a status, not an error.
func (s *Service) CheckSession(ctx context.Context, token string) (*SessionStatus, error) {
	sess, cred, err := s.liveSession(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			state := session.StateUnauthenticated
			if errors.Is(err, session.ErrSessionExpired) {
				state = session.StateExpired
			}
			return &SessionStatus{State: state}, nil
		}
		return nil, err
	}

	state := sess.StateAt(s.now(), cred.TwoFactorEnabled)
	return &SessionStatus{
		State:              state,
		Authenticated:      true,
		FullyAuthenticated: state == session.StateFullyAuthenticated,
		ExpiresAt:          sess.ExpiresAt,
		Credential:         cred,
	}, nil
}

// Logout deletes the session. Empty, unknown and expired tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.InfoContext(ctx, "session closed", logger.Component("auth"), logger.Event("logout"))
	return nil
}
