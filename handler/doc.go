// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a decoded request value and returns a
// Response. Wrap decodes the request with the configured binders, runs any
// decorators and renders the response. Errors from binding or rendering go to
// the ErrorHandler, which by default writes a JSON error envelope.
//
//	type loginRequest struct {
//		Username string `json:"username"`
//		Password string `json:"password"`
//	}
//
//	r.Post("/login", handler.Wrap(func(ctx handler.Context, req loginRequest) handler.Response {
//		res, err := svc.Login(ctx, req.Username, req.Password)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(res)
//	}, handler.WithBinders[handler.Context, loginRequest](binder.JSON())))
//
// Every JSON body has the shape {"success": bool, "data": ..., "error": {...}}.
// Validation failures carry a per-field "details" map. HTTPError values render
// their Code and Key; any other error renders as a generic 500 so internal
// messages never reach the client.
package handler
