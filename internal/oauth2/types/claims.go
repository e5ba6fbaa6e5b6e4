package types

import (
	"time"
)

// Claims are the properties of an access token the validator decides on.
//
// A nil Scopes means the token carried no scope information, an empty
// non-nil Scopes means the provider granted no scope. A zero Expiry means
// the token carried no expiration time.
type Claims struct {
	Expiry   time.Time
	Raw      map[string]any
	Username string
	Issuer   string
	Subject  string
	Scopes   Scopes
	Audience []string
	Active   bool
}
