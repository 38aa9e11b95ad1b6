package account

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/qiqiqi-tech/backoffice/handler"
	"github.com/qiqiqi-tech/backoffice/pkg/binder"
	"github.com/qiqiqi-tech/backoffice/pkg/session"
	"github.com/qiqiqi-tech/backoffice/svc/auth"
)

type AuthService struct {
	auth         *auth.Service
	transport    session.Transport
	logger       *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
}

type Option func(*AuthService)

func WithLogger(l *slog.Logger) Option {
	return func(s *AuthService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTransport sets where tokens are read from when the body has none.
func WithTransport(t session.Transport) Option {
	return func(s *AuthService) {
		if t != nil {
			s.transport = t
		}
	}
}

func NewAuthService(svc *auth.Service, opts ...Option) *AuthService {
	s := &AuthService{
		auth:      svc,
		transport: session.NewHeaderTransport("Authorization"),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandler = handler.NewErrorHandler(s.logger, ErrorMapper)
	return s
}

func (s *AuthService) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(session.Middleware(s.transport))

	r.Post("/login", wrap(s.login, s.errorHandler))
	r.Post("/verify-2fa", wrap(s.verifyTwoFactor, s.errorHandler))
	r.Post("/setup-2fa", wrap(s.setupTwoFactor, s.errorHandler))
	r.Post("/enable-2fa", wrap(s.enableTwoFactor, s.errorHandler))
	r.Post("/disable-2fa", wrap(s.disableTwoFactor, s.errorHandler))
	r.Post("/backup-codes", wrap(s.backupCodes, s.errorHandler))
	r.Post("/logout", wrap(s.logout, s.errorHandler))
	r.Post("/check-session", wrap(s.checkSession, s.errorHandler))
	r.Post("/change-password", wrap(s.changePassword, s.errorHandler))
	r.Post("/init-admin", wrap(s.initAdmin, s.errorHandler))

	return r
}

func wrap[R any](h handler.HandlerFunc[handler.Context, R], eh handler.ErrorHandler[handler.Context]) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binder.JSON()),
		handler.WithErrorHandler[handler.Context, R](eh),
	)
}

// token prefers the body token over the transport one.
func token(ctx handler.Context, body string) string {
	if t := strings.TrimSpace(body); t != "" {
		return t
	}
	t, _ := session.TokenFromContext(ctx)
	return t
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	SessionToken string           `json:"session_token"`
	ExpiresAt    time.Time        `json:"expires_at"`
	Requires2FA  bool             `json:"requires_2fa"`
	User         *auth.Credential `json:"user"`
}

func (s *AuthService) login(ctx handler.Context, req LoginRequest) handler.Response {
	res, err := s.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return handler.Error(err)
	}

	msg := "登入成功"
	if res.RequiresTwoFactor {
		msg = "請輸入Google Authenticator驗證碼"
	}
	return handler.JSON(LoginResponse{
		SessionToken: res.Token,
		ExpiresAt:    res.ExpiresAt,
		Requires2FA:  res.RequiresTwoFactor,
		User:         res.Credential,
	}, handler.WithMessage(msg))
}

type VerifyTwoFactorRequest struct {
	SessionToken string `json:"session_token"`
	TOTPCode     string `json:"totp_code"`
	BackupCode   string `json:"backup_code"`
}

func (s *AuthService) verifyTwoFactor(ctx handler.Context, req VerifyTwoFactorRequest) handler.Response {
	cred, err := s.auth.VerifySecondFactor(ctx, token(ctx, req.SessionToken), auth.SecondFactor{
		TOTPCode:   req.TOTPCode,
		BackupCode: req.BackupCode,
	})
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(map[string]any{"user": cred}, handler.WithMessage("2FA驗證成功，登入完成"))
}

type TokenRequest struct {
	SessionToken string `json:"session_token"`
}

type SetupTwoFactorResponse struct {
	Secret         string `json:"secret"`
	QRCode         string `json:"qr_code"`
	ManualEntryKey string `json:"manual_entry_key"`
	URI            string `json:"uri"`
}

func (s *AuthService) setupTwoFactor(ctx handler.Context, req TokenRequest) handler.Response {
	setup, err := s.auth.SetupTwoFactor(ctx, token(ctx, req.SessionToken))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(SetupTwoFactorResponse{
		Secret:         setup.Secret,
		QRCode:         setup.QRCode,
		ManualEntryKey: setup.Secret,
		URI:            setup.URI,
	})
}

type EnableTwoFactorRequest struct {
	SessionToken string `json:"session_token"`
	TOTPCode     string `json:"totp_code"`
}

func (s *AuthService) enableTwoFactor(ctx handler.Context, req EnableTwoFactorRequest) handler.Response {
	codes, err := s.auth.EnableTwoFactor(ctx, token(ctx, req.SessionToken), req.TOTPCode)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(map[string]any{"backup_codes": codes}, handler.WithMessage("2FA已成功啟用"))
}

type DisableTwoFactorRequest struct {
	SessionToken string `json:"session_token"`
	Password     string `json:"password"`
}

func (s *AuthService) disableTwoFactor(ctx handler.Context, req DisableTwoFactorRequest) handler.Response {
	if err := s.auth.DisableTwoFactor(ctx, token(ctx, req.SessionToken), req.Password); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(nil, handler.WithMessage("2FA已停用"))
}

func (s *AuthService) backupCodes(ctx handler.Context, req TokenRequest) handler.Response {
	n, err := s.auth.RemainingBackupCodes(ctx, token(ctx, req.SessionToken))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(map[string]int{"remaining": n})
}

func (s *AuthService) logout(ctx handler.Context, req TokenRequest) handler.Response {
	if err := s.auth.Logout(ctx, token(ctx, req.SessionToken)); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(nil, handler.WithMessage("已成功登出"))
}

type CheckSessionResponse struct {
	Authenticated      bool             `json:"authenticated"`
	FullyAuthenticated bool             `json:"fully_authenticated"`
	State              session.State    `json:"state"`
	ExpiresAt          time.Time        `json:"expires_at"`
	User               *auth.Credential `json:"user"`
}

// checkSession answers 401 for unknown and expired tokens. A session that
// still waits for its second factor is reported, not rejected.
func (s *AuthService) checkSession(ctx handler.Context, req TokenRequest) handler.Response {
	status, err := s.auth.CheckSession(ctx, token(ctx, req.SessionToken))
	if err != nil {
		return handler.Error(err)
	}
	if !status.Authenticated {
		return handler.Error(ErrSessionExpired)
	}
	return handler.JSON(CheckSessionResponse{
		Authenticated:      status.Authenticated,
		FullyAuthenticated: status.FullyAuthenticated,
		State:              status.State,
		ExpiresAt:          status.ExpiresAt,
		User:               status.Credential,
	})
}

type ChangePasswordRequest struct {
	SessionToken    string `json:"session_token"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *AuthService) changePassword(ctx handler.Context, req ChangePasswordRequest) handler.Response {
	if err := s.auth.ChangePassword(ctx, token(ctx, req.SessionToken), req.CurrentPassword, req.NewPassword); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(nil, handler.WithMessage("密碼已更新"))
}

type InitAdminRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

func (s *AuthService) initAdmin(ctx handler.Context, req InitAdminRequest) handler.Response {
	cred, err := s.auth.InitAdmin(ctx, auth.AdminParams{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(map[string]string{
		"username": cred.Username,
		"email":    cred.Email,
	}, handler.WithStatus(http.StatusCreated), handler.WithMessage("管理員帳號建立成功"))
}
