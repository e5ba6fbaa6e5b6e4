package oauth2

import (
	"errors"
	"strconv"
	"strings"

	"github.com/zitadel/oidc/v3/pkg/oidc"
)

// Kind classifies every error returned by the provider client and the device flow.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNetwork is a transport failure, DNS or TLS error or an unreadable body.
	KindNetwork
	// KindProvider is a structured OAuth2 error response with a known error code.
	KindProvider
	// KindMalformed is a response that could not be interpreted.
	KindMalformed
	// KindValidation is a token that failed at least one validation check.
	KindValidation
	// KindUnverifiable is a token whose signature or origin could not be established.
	KindUnverifiable
	// KindTimeout is a device flow that did not complete before its deadline.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network error"
	case KindProvider:
		return "provider error"
	case KindMalformed:
		return "malformed response"
	case KindValidation:
		return "validation failed"
	case KindUnverifiable:
		return "token unverifiable"
	case KindTimeout:
		return "timed out"
	case KindUnknown:
		fallthrough
	default:
		return "unknown error"
	}
}

// ErrorCode is an OAuth2 error code as defined by RFC 6749 section 5.2 and RFC 8628 section 3.5.
type ErrorCode string

// Error is the error type of the provider client and the device flow.
type Error struct {
	Err         error
	Code        ErrorCode
	Description string
	Kind        Kind
	StatusCode  int
}

func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Kind.String())

	if e.Code != "" {
		sb.WriteString(": ")
		sb.WriteString(string(e.Code))
	}

	if e.StatusCode != 0 {
		sb.WriteString(" (http status code ")
		sb.WriteString(strconv.Itoa(e.StatusCode))
		sb.WriteString(")")
	}

	if e.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Description)
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind. If the target carries a provider code,
// the code must match as well.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

var (
	ErrNetwork      = &Error{Kind: KindNetwork}
	ErrProvider     = &Error{Kind: KindProvider}
	ErrMalformed    = &Error{Kind: KindMalformed}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrUnverifiable = &Error{Kind: KindUnverifiable}
	ErrTimeout      = &Error{Kind: KindTimeout}

	// ErrIntrospectionNotConfigured is wrapped into a [KindMalformed] error.
	ErrIntrospectionNotConfigured = errors.New("introspection endpoint not configured")

	ErrAuthorizationPending = &Error{Kind: KindProvider, Code: ErrorCode(oidc.AuthorizationPending)}
	ErrSlowDown             = &Error{Kind: KindProvider, Code: ErrorCode(oidc.SlowDown)}
	ErrAccessDenied         = &Error{Kind: KindProvider, Code: ErrorCode(oidc.AccessDenied)}
	ErrExpiredToken         = &Error{Kind: KindProvider, Code: ErrorCode(oidc.ExpiredToken)}
	ErrInvalidClient        = &Error{Kind: KindProvider, Code: ErrorCode(oidc.InvalidClient)}
)

// KindOf returns the kind of the first [Error] in the chain of err.
func KindOf(err error) Kind {
	var oauth2Err *Error
	if errors.As(err, &oauth2Err) {
		return oauth2Err.Kind
	}

	return KindUnknown
}

// knownErrorCodes are the error codes of RFC 6749 section 5.2 and RFC 8628 section 3.5.
// Any other code is treated as a malformed response.
var knownErrorCodes = map[ErrorCode]struct{}{
	ErrorCode(oidc.InvalidRequest):       {},
	ErrorCode(oidc.InvalidClient):        {},
	ErrorCode(oidc.InvalidGrant):         {},
	ErrorCode(oidc.UnauthorizedClient):   {},
	ErrorCode(oidc.UnsupportedGrantType): {},
	ErrorCode(oidc.InvalidScope):         {},
	ErrorCode(oidc.AuthorizationPending): {},
	ErrorCode(oidc.SlowDown):             {},
	ErrorCode(oidc.AccessDenied):         {},
	ErrorCode(oidc.ExpiredToken):         {},
}

func newProviderError(statusCode int, code, description string) *Error {
	errorCode := ErrorCode(code)

	if _, ok := knownErrorCodes[errorCode]; !ok {
		return &Error{
			Kind:        KindMalformed,
			StatusCode:  statusCode,
			Description: description,
			Err:         errors.New("unknown error code " + strconv.Quote(code)),
		}
	}

	return &Error{
		Kind:        KindProvider,
		Code:        errorCode,
		Description: description,
		StatusCode:  statusCode,
	}
}
