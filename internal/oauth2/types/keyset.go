package types

import (
	"github.com/go-jose/go-jose/v4"
)

// KeySet is a JSON Web Key Set fetched from the provider.
type KeySet struct {
	jose.JSONWebKeySet
}

// SigningKey returns the public signing key identified by kid.
// Keys marked for encryption and non-public keys are never returned.
func (k KeySet) SigningKey(kid string) (jose.JSONWebKey, bool) {
	if kid == "" {
		return jose.JSONWebKey{}, false
	}

	for _, key := range k.Key(kid) {
		if key.Use != "" && key.Use != "sig" {
			continue
		}

		if !key.Valid() || !key.IsPublic() {
			continue
		}

		return key, true
	}

	return jose.JSONWebKey{}, false
}
