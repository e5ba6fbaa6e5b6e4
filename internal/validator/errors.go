package validator

import "errors"

var (
	ErrTokenInactive     = errors.New("token inactive")
	ErrMissingUsername   = errors.New("no username provided in token")
	ErrUsernameMismatch  = errors.New("username mismatch")
	ErrRootUsername      = errors.New("remote username root is not allowed")
	ErrMissingScope      = errors.New("no scope provided in token")
	ErrInsufficientScope = errors.New("insufficient scopes")
	ErrMissingExpiry     = errors.New("no expiration time provided in token")
	ErrTokenExpired      = errors.New("token expired")

	ErrMissingKeyID      = errors.New("token header has no key id")
	ErrUnknownKeyID      = errors.New("no signing key matches key id")
	ErrIssuerMismatch    = errors.New("issuer not accepted")
	ErrAudienceMismatch  = errors.New("audience does not contain client id")
	ErrAlgorithmMismatch = errors.New("token algorithm does not match key")

	ErrCELValidationFailed = errors.New("CEL validation failed")
	ErrCELNoBooleanResult  = errors.New("CEL expression did not return a boolean")
)
