package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// CredentialID records the operator credential under the key "credential_id".
// If id is nil, it returns an empty Attr.
func CredentialID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("credential_id", id)
}

// TenantID records the vault tenant under the key "tenant_id".
func TenantID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("tenant_id", id)
}

// Username records a login name. Only use it for attempts, never with a password.
func Username(name string) slog.Attr {
	return slog.String("username", name)
}

// Field records a vault field name under the key "field".
func Field(name string) slog.Attr {
	return slog.String("field", name)
}

// Fields records several vault field names.
func Fields(names []string) slog.Attr {
	return slog.Any("fields", names)
}

// RequestID records the request identifier under the key "request_id".
// If id is nil, it returns an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}
