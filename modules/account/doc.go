// Package account serves the back-office authentication API: password login,
// the TOTP second step, two-factor enrollment, logout, session checks,
// password changes and the one-time admin bootstrap.
//
// Every response uses the handler JSON envelope. The session token is read
// from the request body (session_token) or, when the body does not carry
// one, from the transport configured with WithTransport (an Authorization
// Bearer header by default).
//
//	authAPI := account.NewAuthService(authSvc, account.WithLogger(log))
//	r.Mount("/api", account.Router(account.RouterOptions{Auth: authAPI}))
package account
