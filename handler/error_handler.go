package handler

import (
	"log/slog"
	"net/http"

	"github.com/qiqiqi-tech/backoffice/pkg/logger"
	"github.com/qiqiqi-tech/backoffice/pkg/requestid"
)

// ErrorMapper translates domain errors into client-facing errors (usually an
// HTTPError or validator.ValidationErrors). It returns nil when err is not
// one it knows.
type ErrorMapper func(err error) error

// NewErrorHandler logs the error and renders it as a JSON envelope after
// running it through the mappers. Client errors log at warn, server errors at
// error.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		mapped := MapError(err, mappers...)
		resp := JSONError(mapped).(*jsonResponse)

		level := slog.LevelError
		if resp.status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		r := ctx.Request()
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", resp.status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response",
				logger.Error(renderErr),
				logger.Component("error_handler"),
			)
		}
	}
}

// MapError returns the first non-nil mapping of err, or err itself.
func MapError(err error, mappers ...ErrorMapper) error {
	for _, m := range mappers {
		if mapped := m(err); mapped != nil {
			return mapped
		}
	}
	return err
}
