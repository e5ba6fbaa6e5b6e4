package types

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Secret is a string that is never printed. Values prefixed with file://
// are read from the named file.
type Secret string

// String returns the secret in clear text.
//
//goland:noinspection GoMixedReceiverTypes
func (secret Secret) String() string {
	return string(secret)
}

// LogValue implements [slog.LogValuer] and hides the secret.
//
//goland:noinspection GoMixedReceiverTypes
func (secret Secret) LogValue() slog.Value {
	if secret == "" {
		return slog.StringValue("")
	}

	return slog.StringValue("***")
}

// MarshalText implements [encoding.TextMarshaler] interface for Secret
//
//goland:noinspection GoMixedReceiverTypes
func (secret Secret) MarshalText() ([]byte, error) {
	return []byte(secret), nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface for Secret
//
//goland:noinspection GoMixedReceiverTypes
func (secret *Secret) UnmarshalText(text []byte) error {
	stringText := string(text)
	if !strings.HasPrefix(stringText, "file://") {
		*secret = Secret(stringText)

		return nil
	}

	body, err := os.ReadFile(strings.TrimPrefix(stringText, "file://"))
	if err != nil {
		return fmt.Errorf("unable to read secret: %w", err)
	}

	*secret = Secret(strings.TrimRight(string(body), "\r\n"))

	return nil
}
