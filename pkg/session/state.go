package session

import "time"

// State is the authentication stage a token represents.
type State string

const (
	StateUnauthenticated    State = "unauthenticated"
	StatePasswordVerified   State = "password_verified"
	StateFullyAuthenticated State = "fully_authenticated"
	StateExpired            State = "expired"
)

// StateAt classifies the session at t. A nil session is unauthenticated.
func (s *Session) StateAt(t time.Time, twoFactorEnabled bool) State {
	switch {
	case s == nil:
		return StateUnauthenticated
	case s.ExpiredAt(t):
		return StateExpired
	case s.FullyAuthenticatedAt(t, twoFactorEnabled):
		return StateFullyAuthenticated
	default:
		return StatePasswordVerified
	}
}
