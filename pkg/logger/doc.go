// Package logger builds the process *slog.Logger and provides attribute
// helpers for the back-office domain.
//
// New applies functional options, picks a JSON or text handler, and wraps it
// with LogHandlerDecorator so request-scoped values (request id, environment)
// registered through WithContextExtractors land on every record. Attribute
// keys that name credentials (password, session_token, totp_code, ...) are
// always redacted.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, cfg.Name),
//	    logger.WithConfig(logCfg),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "login succeeded", logger.CredentialID(id), logger.Component("auth"))
//
// Services accept a *slog.Logger through their options and default to
// Discard.
package logger
