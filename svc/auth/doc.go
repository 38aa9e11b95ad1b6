// Package auth implements back-office sign-in: password login, TOTP two-factor
// authentication with single-use backup codes, and session lifecycle.
//
// A login issues an opaque session token. When the credential has two-factor
// authentication enabled the token starts unverified and must be upgraded with
// VerifySecondFactor before IsFullyAuthenticated reports true. Each credential
// holds at most one session; a new login replaces the previous one.
//
// TOTP secrets are stored encrypted with a secrets.Cipher. Backup codes are
// stored as SHA-256 hashes and consumed atomically by the CredentialStore.
//
// Usage:
//
//	svc, err := auth.NewService(credStore, sessionStore, cipher,
//		auth.WithLogger(log),
//		auth.WithIssuer(cfg.TOTPIssuer),
//	)
//	res, err := svc.Login(ctx, "admin", password)
//	if res.RequiresTwoFactor {
//		_, err = svc.VerifySecondFactor(ctx, res.Token, auth.SecondFactor{TOTPCode: code})
//	}
//
// Login, VerifySecondFactor and DisableTwoFactor report every credential
// failure as ErrInvalidCredentials or ErrInvalidCode so callers cannot tell an
// unknown username from a wrong password.
package auth
