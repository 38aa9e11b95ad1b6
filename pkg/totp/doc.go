// Package totp implements RFC 6238 time-based one-time passwords and the
// single-use backup codes that stand in for them.
//
// Secrets are 20 random bytes encoded as unpadded Base32, which is what
// every mainstream authenticator app expects. Codes are six digits over a
// 30-second step computed with HMAC-SHA1.
//
// # Usage
//
//	secret, _ := totp.GenerateSecretKey()
//
//	uri, _ := totp.GetTOTPURI(totp.TOTPParams{
//	    Secret:      secret,
//	    AccountName: "admin@777tech.com",
//	    Issuer:      "七七七科技後台系統",
//	})
//
//	ok, _ := totp.ValidateTOTPWithTime(secret, "123456", time.Now(), totp.DefaultWindow)
//
// Backup codes are generated in plaintext once, shown to the operator, and
// persisted only as HashRecoveryCode digests:
//
//	codes, _ := totp.GenerateRecoveryCodes(totp.DefaultRecoveryCodeCount)
//	hash := totp.HashRecoveryCode(codes[0])
//	ok := totp.VerifyRecoveryCode(" a1b2c3d4 ", hash) // input is normalized
//
// # Error Handling
//
// Errors may be wrapped using errors.Join. Inspect them with errors.Is
// against the package sentinels such as ErrInvalidSecret and ErrInvalidOTP.
package totp
