package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/qiqiqi-tech/backoffice/pkg/logger"
	"github.com/qiqiqi-tech/backoffice/pkg/qrcode"
	"github.com/qiqiqi-tech/backoffice/pkg/totp"
)

// TwoFactorSetup is what an authenticator app needs to enroll. Secret is
// shown once during setup and never logged.
type TwoFactorSetup struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRCode string `json:"qr_code"`
}

// SetupTwoFactor creates the TOTP secret if none exists yet and returns the
// enrollment data. Repeated calls before EnableTwoFactor return the same
// secret.
func (s *Service) SetupTwoFactor(ctx context.Context, token string) (*TwoFactorSetup, error) {
	_, cred, err := s.fullSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if cred.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	stored := cred.TOTPSecret
	if stored == "" {
		secret, err := totp.GenerateSecretKey()
		if err != nil {
			return nil, errors.Join(ErrProvisioningFailed, err)
		}
		envelope, err := s.cipher.Encrypt(secret)
		if err != nil {
			return nil, errors.Join(ErrProvisioningFailed, err)
		}
		if stored, err = s.credentials.SetTOTPSecret(ctx, cred.ID, envelope); err != nil {
			return nil, fmt.Errorf("store totp secret: %w", err)
		}
	}

	secret, err := s.cipher.Decrypt(stored)
	if err != nil {
		return nil, errors.Join(ErrSecretUnavailable, err)
	}

	uri, err := totp.GetTOTPURI(totp.TOTPParams{
		Secret:      secret,
		AccountName: s.accountLabel(cred),
		Issuer:      s.issuer,
	})
	if err != nil {
		return nil, errors.Join(ErrProvisioningFailed, err)
	}
	qr, err := qrcode.DataURI(uri, s.qrSize)
	if err != nil {
		return nil, errors.Join(ErrProvisioningFailed, err)
	}

	s.logger.InfoContext(ctx, "two-factor setup started", append(s.logAttrs(cred), logger.Event("2fa_setup"))...)
	return &TwoFactorSetup{Secret: secret, URI: uri, QRCode: qr}, nil
}

// EnableTwoFactor confirms enrollment with a code from the authenticator and
// returns freshly generated backup codes. Only their hashes are stored, so
// this is the one time the plaintext codes are available.
func (s *Service) EnableTwoFactor(ctx context.Context, token, code string) ([]string, error) {
	_, cred, err := s.fullSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if cred.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}
	if !cred.HasTOTPSecret() {
		return nil, ErrTwoFactorNotInitialized
	}

	ok, err := s.checkTOTP(cred, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCode
	}

	codes, err := totp.GenerateRecoveryCodes(totp.DefaultRecoveryCodeCount)
	if err != nil {
		return nil, errors.Join(ErrProvisioningFailed, err)
	}
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = totp.HashRecoveryCode(c)
	}

	if err := s.credentials.EnableTwoFactor(ctx, cred.ID, hashes); err != nil {
		if errors.Is(err, ErrTwoFactorAlreadyEnabled) || errors.Is(err, ErrTwoFactorNotInitialized) {
			return nil, err
		}
		return nil, fmt.Errorf("enable two-factor: %w", err)
	}

	s.logger.InfoContext(ctx, "two-factor enabled", append(s.logAttrs(cred), logger.Event("2fa_enabled"))...)
	return codes, nil
}

// DisableTwoFactor re-checks the password, wipes the two-factor state and
// resets the verified flag of the credential's session.
func (s *Service) DisableTwoFactor(ctx context.Context, token, password string) error {
	_, cred, err := s.fullSession(ctx, token)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(cred.PasswordHash, password); err != nil {
		return ErrInvalidCredentials
	}

	if err := s.credentials.DisableTwoFactor(ctx, cred.ID); err != nil {
		return fmt.Errorf("disable two-factor: %w", err)
	}
	if err := s.sessions.ResetVerification(ctx, cred.ID); err != nil {
		return fmt.Errorf("reset session verification: %w", err)
	}

	s.logger.InfoContext(ctx, "two-factor disabled", append(s.logAttrs(cred), logger.Event("2fa_disabled"))...)
	return nil
}

// RemainingBackupCodes returns how many unused backup codes the session's
// credential has left.
func (s *Service) RemainingBackupCodes(ctx context.Context, token string) (int, error) {
	_, cred, err := s.fullSession(ctx, token)
	if err != nil {
		return 0, err
	}
	if !cred.TwoFactorEnabled {
		return 0, ErrTwoFactorNotEnabled
	}
	return s.credentials.CountBackupCodes(ctx, cred.ID)
}

func (s *Service) accountLabel(cred *Credential) string {
	if cred.Email != "" {
		return cred.Email
	}
	return cred.Username
}
