package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiqiqi-tech/backoffice/handler"
	"github.com/qiqiqi-tech/backoffice/pkg/binder"
	"github.com/qiqiqi-tech/backoffice/pkg/validator"
)

type greetRequest struct {
	Name string `json:"name"`
}

var errDomain = errors.New("domain: thing exploded")

func decode(t *testing.T, body *bytes.Buffer) handler.Envelope {
	t.Helper()
	var env struct {
		Success bool                 `json:"success"`
		Message string               `json:"message"`
		Data    json.RawMessage      `json:"data"`
		Error   *handler.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &env))
	return handler.Envelope{Success: env.Success, Message: env.Message, Data: string(env.Data), Error: env.Error}
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/greet", strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func greet(ctx handler.Context, req greetRequest) handler.Response {
	if err := validator.Apply(validator.RequiredString("name", req.Name)); err != nil {
		return handler.Error(err)
	}
	if req.Name == "boom" {
		return handler.Error(errDomain)
	}
	return handler.JSON(map[string]string{"hello": req.Name}, handler.WithMessage("ok"))
}

func TestWrap(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mapper := func(err error) error {
		if errors.Is(err, errDomain) {
			return handler.ErrConflict.WithMessage("try again")
		}
		return nil
	}
	h := handler.Wrap(greet,
		handler.WithBinders[handler.Context, greetRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, greetRequest](handler.NewErrorHandler(log, mapper)),
	)

	tests := []struct {
		name     string
		body     string
		wantCode int
		check    func(t *testing.T, env handler.Envelope)
	}{
		{
			name:     "success",
			body:     `{"name":"ada"}`,
			wantCode: http.StatusOK,
			check: func(t *testing.T, env handler.Envelope) {
				assert.True(t, env.Success)
				assert.Equal(t, "ok", env.Message)
				assert.JSONEq(t, `{"hello":"ada"}`, env.Data.(string))
			},
		},
		{
			name:     "validation error has per-field details",
			body:     `{"name":""}`,
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, env handler.Envelope) {
				assert.False(t, env.Success)
				require.NotNil(t, env.Error)
				assert.Equal(t, "validation_error", env.Error.Code)
				assert.Contains(t, env.Error.Details, "name")
			},
		},
		{
			name:     "empty body binds zero value",
			body:     "",
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, env handler.Envelope) {
				assert.Equal(t, "validation_error", env.Error.Code)
			},
		},
		{
			name:     "malformed body",
			body:     `{"name":`,
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, env handler.Envelope) {
				assert.Equal(t, "bad_request", env.Error.Code)
			},
		},
		{
			name:     "mapped domain error",
			body:     `{"name":"boom"}`,
			wantCode: http.StatusConflict,
			check: func(t *testing.T, env handler.Envelope) {
				assert.Equal(t, "conflict", env.Error.Code)
				assert.Equal(t, "try again", env.Error.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := post(h, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			tt.check(t, decode(t, rec.Body))
		})
	}
}

func TestWrap_UnmappedErrorIsGeneric(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(greet, handler.WithBinders[handler.Context, greetRequest](binder.JSON()))
	rec := post(h, `{"name":"boom"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "exploded")
}

func TestWrap_NilResponse(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil })
	rec := post(h, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWrap_DecoratorOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) handler.Decorator[handler.Context, struct{}] {
		return func(next handler.HandlerFunc[handler.Context, struct{}]) handler.HandlerFunc[handler.Context, struct{}] {
			return func(ctx handler.Context, req struct{}) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}

	h := handler.Wrap(func(handler.Context, struct{}) handler.Response { return handler.Empty() },
		handler.WithDecorators(mark("outer"), mark("inner")),
	)
	rec := post(h, "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestErrorToDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKey  string
	}{
		{"http error", handler.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"joined http error", errors.Join(errDomain, handler.ErrForbidden), http.StatusForbidden, "forbidden"},
		{"too large", binder.ErrBodyTooLarge, http.StatusRequestEntityTooLarge, "request_entity_too_large"},
		{"media type", binder.ErrMissingContentType, http.StatusUnsupportedMediaType, "unsupported_media_type"},
		{"validation", validator.ValidationErrors{{Field: "f", Message: "bad"}}, http.StatusBadRequest, "validation_error"},
		{"other", errDomain, http.StatusInternalServerError, "internal_server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, detail := handler.ErrorToDetail(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantKey, detail.Code)
		})
	}
}
