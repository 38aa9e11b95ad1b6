// Package vault stores per-tenant third-party configuration: API keys,
// access tokens and the plain settings that go with them.
//
// Sensitive fields are encrypted with a secrets.Cipher before they reach the
// Store and are only decrypted on an explicit reveal. Get returns presence
// flags instead of secret values.
//
// Updates are partial. Each field in an Update carries a tagged Value:
//
//	Unset   field absent from the request, left untouched
//	Blank   explicit empty string, also left untouched
//	Set(v)  validated, then encrypted or stored as is
//	Clear   explicit null, removes the stored value
//
// A field that fails validation is reported in UpdateResult.Rejected while
// the remaining fields are still applied. Records are versioned; concurrent
// writers retry on conflict.
package vault
