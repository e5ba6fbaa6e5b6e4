package types

import (
	"strings"
)

// StringSlice is a comma separated list on the command line and a sequence in YAML.
type StringSlice []string

// String returns the comma separated representation.
//
//goland:noinspection GoMixedReceiverTypes
func (s StringSlice) String() string {
	return strings.Join(s, ",")
}

// MarshalText implements [encoding.TextMarshaler] interface.
//
//goland:noinspection GoMixedReceiverTypes
func (s StringSlice) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
// Empty elements are dropped.
//
//goland:noinspection GoMixedReceiverTypes
func (s *StringSlice) UnmarshalText(text []byte) error {
	slice := StringSlice{}

	for _, value := range strings.Split(string(text), ",") {
		if value = strings.TrimSpace(value); value != "" {
			slice = append(slice, value)
		}
	}

	*s = slice

	return nil
}
