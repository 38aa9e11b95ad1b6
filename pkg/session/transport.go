package session

import "net/http"

// Transport extracts the session token from an incoming request.
type Transport interface {
	GetToken(r *http.Request) (string, error)
}
