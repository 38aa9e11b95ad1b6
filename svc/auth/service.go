package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/qiqiqi-tech/backoffice/pkg/logger"
	"github.com/qiqiqi-tech/backoffice/pkg/qrcode"
	"github.com/qiqiqi-tech/backoffice/pkg/secrets"
	"github.com/qiqiqi-tech/backoffice/pkg/session"
	"github.com/qiqiqi-tech/backoffice/pkg/totp"
	"github.com/qiqiqi-tech/backoffice/pkg/validator"
)

// maxPasswordBytes is the bcrypt input limit, applied to every hasher.
const maxPasswordBytes = 72

// Service drives the login and two-factor state machine over a credential
// store and a session store.
type Service struct {
	credentials CredentialStore
	sessions    session.Store
	cipher      *secrets.Cipher
	hasher      PasswordHasher
	logger      *slog.Logger
	now         func() time.Time

	sessionTTL       time.Duration
	issuer           string
	totpWindow       int
	qrSize           int
	passwordStrength validator.PasswordStrengthConfig

	// decoys hold one hash per accepted format. Failed logins are compared
	// against them so that every failure costs one comparison per format.
	decoys []string
}

func NewService(credentials CredentialStore, sessions session.Store, cipher *secrets.Cipher, opts ...Option) (*Service, error) {
	if credentials == nil || sessions == nil || cipher == nil {
		return nil, errors.New("auth: credential store, session store and cipher are required")
	}

	s := &Service{
		credentials:      credentials,
		sessions:         sessions,
		cipher:           cipher,
		hasher:           BcryptHasher{},
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:              time.Now,
		sessionTTL:       24 * time.Hour,
		issuer:           DefaultConfig().TOTPIssuer,
		totpWindow:       totp.DefaultWindow,
		qrSize:           qrcode.DefaultSize,
		passwordStrength: validator.DefaultPasswordStrength(),
	}
	for _, opt := range opts {
		opt(s)
	}

	decoys, err := decoyHashes(s.hasher)
	if err != nil {
		return nil, fmt.Errorf("auth: prepare decoy hashes: %w", err)
	}
	s.decoys = decoys

	return s, nil
}

// liveSession loads the session and its credential, mapping every absence
// to ErrSessionExpired. Sessions of deactivated credentials are dropped.
func (s *Service) liveSession(ctx context.Context, token string) (*session.Session, *Credential, error) {
	if token == "" {
		return nil, nil, errors.Join(ErrSessionExpired, session.ErrNoToken)
	}

	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrSessionExpired) {
			return nil, nil, errors.Join(ErrSessionExpired, err)
		}
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	if sess.ExpiredAt(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, nil, errors.Join(ErrSessionExpired, session.ErrSessionExpired)
	}

	cred, err := s.credentials.GetCredentialByID(ctx, sess.CredentialID)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			_ = s.sessions.Delete(ctx, token)
			return nil, nil, errors.Join(ErrSessionExpired, err)
		}
		return nil, nil, fmt.Errorf("load credential: %w", err)
	}
	if !cred.Active {
		_ = s.sessions.Delete(ctx, token)
		return nil, nil, errors.Join(ErrSessionExpired, ErrCredentialInactive)
	}

	return sess, cred, nil
}

// fullSession is liveSession plus the fully-authenticated requirement.
func (s *Service) fullSession(ctx context.Context, token string) (*session.Session, *Credential, error) {
	sess, cred, err := s.liveSession(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if !sess.FullyAuthenticatedAt(s.now(), cred.TwoFactorEnabled) {
		return nil, nil, ErrTwoFactorRequired
	}
	return sess, cred, nil
}

func (s *Service) validatePassword(field, password string) error {
	return validator.Apply(
		validator.StrongPassword(field, password, s.passwordStrength),
		validator.NotCommonPassword(field, password),
		validator.Rule{
			Check: func() bool { return len(password) <= maxPasswordBytes },
			Error: validator.ValidationError{
				Field:          field,
				Message:        fmt.Sprintf("must be at most %d bytes", maxPasswordBytes),
				TranslationKey: "validation.password_too_long",
			},
		},
	)
}

func (s *Service) logAttrs(cred *Credential) []any {
	return []any{
		logger.Component("auth"),
		logger.CredentialID(cred.ID),
		logger.Username(cred.Username),
	}
}
