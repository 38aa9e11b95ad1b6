package account

import (
	"errors"
	"net/http"

	"github.com/qiqiqi-tech/backoffice/handler"
	"github.com/qiqiqi-tech/backoffice/svc/auth"
)

// Client-facing errors. Authentication failures share one message so that a
// caller cannot tell an unknown username from a wrong password.
var (
	ErrInvalidCredentials = handler.HTTPError{Code: http.StatusUnauthorized, Key: "invalid_credentials", Message: "用戶名或密碼錯誤"}
	ErrSessionExpired     = handler.HTTPError{Code: http.StatusUnauthorized, Key: "session_expired", Message: "會話已過期，請重新登入"}
	ErrVerificationNeeded = handler.HTTPError{Code: http.StatusUnauthorized, Key: "2fa_required", Message: "請先完成登入驗證"}
	ErrInvalidCode        = handler.HTTPError{Code: http.StatusUnauthorized, Key: "invalid_code", Message: "驗證碼錯誤"}
	ErrNotEnabled         = handler.HTTPError{Code: http.StatusBadRequest, Key: "2fa_not_enabled", Message: "用戶未啟用2FA"}
	ErrAlreadyEnabled     = handler.HTTPError{Code: http.StatusConflict, Key: "2fa_already_enabled", Message: "2FA已啟用"}
	ErrNotInitialized     = handler.HTTPError{Code: http.StatusBadRequest, Key: "2fa_not_initialized", Message: "請先設定2FA"}
	ErrAdminExists        = handler.HTTPError{Code: http.StatusBadRequest, Key: "admin_exists", Message: "管理員帳號已存在"}
)

// ErrorMapper translates auth service errors for handler.NewErrorHandler.
func ErrorMapper(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, auth.ErrSessionExpired):
		return ErrSessionExpired
	case errors.Is(err, auth.ErrTwoFactorRequired):
		return ErrVerificationNeeded
	case errors.Is(err, auth.ErrInvalidCode):
		return ErrInvalidCode
	case errors.Is(err, auth.ErrTwoFactorNotEnabled):
		return ErrNotEnabled
	case errors.Is(err, auth.ErrTwoFactorAlreadyEnabled):
		return ErrAlreadyEnabled
	case errors.Is(err, auth.ErrTwoFactorNotInitialized):
		return ErrNotInitialized
	case errors.Is(err, auth.ErrAdminExists):
		return ErrAdminExists
	}
	return nil
}
