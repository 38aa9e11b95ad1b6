// Package validator provides small declarative validation rules for request
// payloads and stored settings.
//
// A Rule pairs a Check function with a ValidationError describing the failure.
// Apply evaluates rules in order and aggregates failures into a
// ValidationErrors slice that satisfies the error interface, so one call can
// report every bad field at once.
//
// # Usage
//
//	err := validator.Apply(
//	    validator.RequiredString("username", username),
//	    validator.ValidEmail("email", email),
//	    validator.StrongPassword("password", password, validator.DefaultPasswordStrength()),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//	    // report verrs.Get("email") etc.
//	}
//
// Messages are plain English; TranslationKey carries a stable key for
// clients that localize.
package validator
