// Package session models the bearer sessions issued to back-office
// operators after a successful password check.
//
// A session is an opaque 256-bit token bound to exactly one credential. At
// most one live session exists per credential: saving a new session evicts
// the previous token ("last login wins"). Each session carries a verified
// flag that records whether the second factor has been presented; a
// credential without two-factor authentication receives an already verified
// session.
//
// # Architecture
//
// The Store interface is the persistence seam. MemoryStore ships here for
// tests and single-node deployments; Postgres and Redis implementations live
// under storage/. Every Store enforces the same contract:
//
//   - Save replaces any prior session of the same credential atomically.
//   - Get reports ErrSessionExpired for a token past its deadline and removes
//     it lazily; unknown tokens report ErrSessionNotFound.
//   - Delete is idempotent.
//
// Tokens reach the server through a Transport. HeaderTransport reads
// "Authorization: Bearer <token>"; Middleware stores the extracted token in
// the request context where handlers pick it up with TokenFromContext.
//
// # Usage
//
//	store := session.NewMemoryStore(cfg.CleanupInterval)
//	defer store.Close()
//
//	sess, err := session.New(credentialID, !twoFactorEnabled, time.Now(), cfg.TTL)
//	if err != nil {
//	    return err
//	}
//	if err := store.Save(ctx, sess); err != nil {
//	    return err
//	}
//
// # Error Handling
//
// All sentinel errors are declared in errors.go. Use errors.Is to branch on
// ErrSessionNotFound and ErrSessionExpired.
package session
