package settings

import (
	"errors"
	"net/http"

	"github.com/qiqiqi-tech/backoffice/handler"
	"github.com/qiqiqi-tech/backoffice/pkg/secrets"
	"github.com/qiqiqi-tech/backoffice/svc/vault"
)

var (
	ErrNotConfigured    = handler.HTTPError{Code: http.StatusBadRequest, Key: "not_configured", Message: "請先設定OpenAI API密鑰"}
	ErrProviderRejected = handler.HTTPError{Code: http.StatusBadRequest, Key: "provider_rejected", Message: "OpenAI API密鑰無效"}
	ErrProviderFailed   = handler.HTTPError{Code: http.StatusBadGateway, Key: "provider_unreachable", Message: "無法連接OpenAI服務"}
	ErrConflict         = handler.HTTPError{Code: http.StatusConflict, Key: "conflict", Message: "設定正在被其他請求修改，請重試"}
	ErrUnknownField     = handler.HTTPError{Code: http.StatusBadRequest, Key: "unknown_field", Message: "不支援的設定欄位"}
	ErrSecretUnreadable = handler.HTTPError{Code: http.StatusInternalServerError, Key: "secret_unreadable", Message: "密鑰解密失敗"}
)

// ErrorMapper translates vault errors for handler.NewErrorHandler.
func ErrorMapper(err error) error {
	switch {
	case errors.Is(err, vault.ErrNotConfigured):
		return ErrNotConfigured
	case errors.Is(err, vault.ErrProviderRejected):
		return ErrProviderRejected
	case errors.Is(err, vault.ErrProviderFailed):
		return ErrProviderFailed
	case errors.Is(err, vault.ErrTooManyConflicts):
		return ErrConflict
	case errors.Is(err, vault.ErrUnknownField):
		return ErrUnknownField
	case errors.Is(err, secrets.ErrDecryptionFailed):
		return ErrSecretUnreadable
	}
	return nil
}
