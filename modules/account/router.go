package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount in the API router.
// Each service is optional and will only be mounted if provided.
type RouterOptions struct {
	Auth     Mountable // mounted at /auth
	Settings Mountable // mounted at /ai-settings
}

// Router creates the API router. Mount it under /api.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/api", account.Router(account.RouterOptions{
//	    Auth:     account.NewAuthService(authSvc),
//	    Settings: settings.NewService(vaultSvc, authSvc),
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.Auth != nil {
		r.Mount("/auth", opts.Auth.Handle())
	}
	if opts.Settings != nil {
		r.Mount("/ai-settings", opts.Settings.Handle())
	}

	return r
}
