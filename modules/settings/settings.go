package settings

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qiqiqi-tech/backoffice/handler"
	"github.com/qiqiqi-tech/backoffice/modules/account"
	"github.com/qiqiqi-tech/backoffice/pkg/binder"
	"github.com/qiqiqi-tech/backoffice/pkg/session"
	"github.com/qiqiqi-tech/backoffice/svc/auth"
	"github.com/qiqiqi-tech/backoffice/svc/vault"
)

// Authenticator resolves a session token to a fully authenticated credential.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Credential, error)
}

type Service struct {
	vault        *vault.Service
	auth         Authenticator
	transport    session.Transport
	logger       *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithTransport(t session.Transport) Option {
	return func(s *Service) {
		if t != nil {
			s.transport = t
		}
	}
}

func NewService(v *vault.Service, a Authenticator, opts ...Option) *Service {
	s := &Service{
		vault:     v,
		auth:      a,
		transport: session.NewHeaderTransport("Authorization"),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandler = handler.NewErrorHandler(s.logger, ErrorMapper, account.ErrorMapper)
	return s
}

func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(session.Middleware(s.transport))

	r.Get("/", wrap(s.get, s))
	r.Post("/", wrap(s.update, s))
	r.Post("/reset", wrap(s.reset, s))
	r.Post("/test-openai", wrap(s.testOpenAI, s))

	return r
}

func wrap[R any](h handler.HandlerFunc[handler.Context, R], s *Service) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binder.JSON()),
		handler.WithErrorHandler[handler.Context, R](s.errorHandler),
		handler.WithDecorators(requireCredential[R](s.auth)),
	)
}

// tokenCarrier is implemented by requests that may carry the session token
// in their body.
type tokenCarrier interface {
	BodyToken() string
}

// requireCredential authenticates the request and stores the credential in
// the context passed to next.
func requireCredential[R any](a Authenticator) handler.Decorator[handler.Context, R] {
	return func(next handler.HandlerFunc[handler.Context, R]) handler.HandlerFunc[handler.Context, R] {
		return func(ctx handler.Context, req R) handler.Response {
			token, _ := session.TokenFromContext(ctx)
			if tc, ok := any(req).(tokenCarrier); ok && tc.BodyToken() != "" {
				token = tc.BodyToken()
			}

			cred, err := a.Authenticate(ctx, token)
			if err != nil {
				return handler.Error(err)
			}

			r := ctx.Request()
			r = r.WithContext(auth.WithCredential(r.Context(), cred))
			return next(handler.NewContext(ctx.ResponseWriter(), r), req)
		}
	}
}

func tenantOf(ctx context.Context) string {
	return auth.CredentialFromContext(ctx).ID.String()
}

// TokenRequest is the body of the action routes. It may be empty.
type TokenRequest struct {
	SessionToken string `json:"session_token"`
}

func (r TokenRequest) BodyToken() string { return r.SessionToken }

// UpdateRequest is a flat JSON object of vault fields plus an optional
// session_token.
type UpdateRequest struct {
	SessionToken string
	Update       vault.Update
}

func (r UpdateRequest) BodyToken() string { return r.SessionToken }

// UnmarshalJSON pulls session_token out before decoding the vault fields.
// user_id is accepted and ignored; the tenant always comes from the session.
func (r *UpdateRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if tok, ok := raw["session_token"]; ok {
		if err := json.Unmarshal(tok, &r.SessionToken); err != nil {
			return err
		}
		delete(raw, "session_token")
	}
	delete(raw, "user_id")

	rest, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(rest, &r.Update)
}

func (s *Service) get(ctx handler.Context, _ TokenRequest) handler.Response {
	snap, err := s.vault.Get(ctx, tenantOf(ctx))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(snap)
}

// update saves what it can. When every submitted field was rejected the
// response is a validation error; otherwise rejected fields are listed next
// to the new snapshot.
func (s *Service) update(ctx handler.Context, req UpdateRequest) handler.Response {
	res, err := s.vault.Update(ctx, tenantOf(ctx), req.Update)
	if err != nil {
		return handler.Error(err)
	}
	if len(res.Rejected) > 0 && len(res.Applied) == 0 {
		return handler.Error(res.Rejected)
	}

	msg := "AI設定更新成功"
	if len(res.Rejected) > 0 {
		msg = "部分AI設定未通過驗證"
	}
	return handler.JSON(res, handler.WithMessage(msg))
}

func (s *Service) reset(ctx handler.Context, _ TokenRequest) handler.Response {
	snap, err := s.vault.Reset(ctx, tenantOf(ctx))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(snap, handler.WithMessage("AI設定已重設"))
}

func (s *Service) testOpenAI(ctx handler.Context, _ TokenRequest) handler.Response {
	res, err := s.vault.TestOpenAI(ctx, tenantOf(ctx))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(res, handler.WithMessage("OpenAI API連接成功"))
}
