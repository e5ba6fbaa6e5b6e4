package types

import (
	"strings"
)

// Scopes is a set of OAuth2 scopes. Order and duplicates are not significant.
type Scopes []string

// ParseScopes splits a space-delimited scope string. The result is never nil.
func ParseScopes(scope string) Scopes {
	fields := strings.Fields(scope)
	if fields == nil {
		return Scopes{}
	}

	return fields
}

// Missing returns all scopes of required that are not part of s.
func (s Scopes) Missing(required Scopes) Scopes {
	granted := make(map[string]struct{}, len(s))
	for _, scope := range s {
		granted[scope] = struct{}{}
	}

	var missing Scopes

	for _, scope := range required {
		if _, ok := granted[scope]; !ok {
			missing = append(missing, scope)
		}
	}

	return missing
}

// Contains reports whether all scopes of required are granted by s.
func (s Scopes) Contains(required Scopes) bool {
	return len(s.Missing(required)) == 0
}

// String returns the space-delimited representation.
func (s Scopes) String() string {
	return strings.Join(s, " ")
}
