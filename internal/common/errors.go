// Package common defines shared constants and sentinel errors used across
// passvault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Secret-store errors.
	ErrorNotFound = errors.New("not found")

	// Crypto engine errors.
	ErrInvalidKey             = errors.New("invalid key material")
	ErrDecryptionFailed       = errors.New("decryption failed")
	ErrEngineNotInitialized   = errors.New("crypto engine not initialized")
	ErrVerifierNotInitialized = errors.New("otp verifier not initialized")

	// Password authority errors.
	ErrPolicyViolation  = errors.New("password does not meet the requirements")
	ErrPasswordMismatch = errors.New("passwords do not match")

	// OTP authority errors.
	ErrNoSecret = errors.New("no otp secret")

	// Unlock failures. Distinct so the shell can show which factor failed.
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidOTP      = errors.New("invalid otp")
)
