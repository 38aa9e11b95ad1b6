// Package binder decodes HTTP request bodies into typed request structs for
// handler.Wrap. Only JSON is supported; string values are kept byte-for-byte
// so passwords and secrets reach the services unchanged.
package binder
