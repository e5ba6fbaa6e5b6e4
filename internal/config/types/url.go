package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

var ErrURLScheme = errors.New("invalid URL scheme, only http:// and https:// are supported")

type URL struct {
	*url.URL
}

func NewURL(u string) (URL, error) {
	if u == "" {
		return URL{}, errors.New("empty URL")
	}

	stdURL, err := url.Parse(u)
	if err != nil {
		return URL{}, fmt.Errorf("failed to parse URL: %w", err)
	}

	return URL{stdURL}, nil
}

// IsEmpty checks if the URL is empty.
//
//goland:noinspection GoMixedReceiverTypes
func (u *URL) IsEmpty() bool {
	return u == nil || u.URL == nil || u.URL.String() == ""
}

// ValidateHTTP returns an error unless the URL is an absolute http or https URL.
//
//goland:noinspection GoMixedReceiverTypes
func (u URL) ValidateHTTP() error {
	if u.IsEmpty() {
		return errors.New("empty URL")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %s", ErrURLScheme, u.Redacted())
	}

	if u.Host == "" {
		return fmt.Errorf("missing host: %s", u.Redacted())
	}

	return nil
}

// String returns the string representation of the URL.
//
//goland:noinspection GoMixedReceiverTypes
func (u URL) String() string {
	if u.IsEmpty() {
		return ""
	}

	return u.URL.String()
}

// MarshalText implements [encoding.TextMarshaler] interface.
//
//goland:noinspection GoMixedReceiverTypes
func (u URL) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
// An empty text resets the URL.
//
//goland:noinspection GoMixedReceiverTypes
func (u *URL) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*u = URL{}

		return nil
	}

	parsedURL, err := NewURL(string(text))
	if err != nil {
		return err
	}

	*u = parsedURL

	return nil
}

// MarshalJSON implements the [json.Marshaler] interface.
//
//goland:noinspection GoMixedReceiverTypes
func (u *URL) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String()) //nolint:wrapcheck
}
