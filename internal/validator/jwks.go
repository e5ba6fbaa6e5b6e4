package validator

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jkroepke/pam-oauth2-device/internal/oauth2"
	"github.com/jkroepke/pam-oauth2-device/internal/oauth2/types"
	"github.com/jkroepke/pam-oauth2-device/internal/utils"
	xoauth2 "golang.org/x/oauth2"
)

// TenantPlaceholder is replaced in issuer templates with the tenant id.
const TenantPlaceholder = "{tenantid}"

// DefaultUsernameClaim holds the remote identity in a JWT.
const DefaultUsernameClaim = "preferred_username"

// signingAlgorithms are accepted for local verification. Symmetric algorithms
// and "none" are never accepted.
//
//nolint:gochecknoglobals
var signingAlgorithms = []string{
	"RS256", "RS384", "RS512",
	"PS256", "PS384", "PS512",
	"ES256", "ES384", "ES512",
	"EdDSA",
}

// KeyFetcher is implemented by [oauth2.Client].
type KeyFetcher interface {
	FetchKeys(ctx context.Context, keySetURL string) (types.KeySet, error)
}

type JWKSConfig struct {
	KeySetURL     string
	ClientID      string
	Tenant        string
	UsernameClaim string
	Issuers       []string
}

// JWKSSource verifies the access token locally against the key set of the provider.
// The key set is fetched for every token.
type JWKSSource struct {
	fetcher KeyFetcher
	now     func() time.Time
	conf    JWKSConfig
}

func NewJWKSSource(fetcher KeyFetcher, conf JWKSConfig) *JWKSSource {
	if conf.UsernameClaim == "" {
		conf.UsernameClaim = DefaultUsernameClaim
	}

	return &JWKSSource{
		fetcher: fetcher,
		conf:    conf,
		now:     time.Now,
	}
}

func (s *JWKSSource) Claims(ctx context.Context, token *xoauth2.Token) (types.Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods(signingAlgorithms), jwt.WithoutClaimsValidation())

	unverified, _, err := parser.ParseUnverified(token.AccessToken, jwt.MapClaims{})
	if err != nil {
		return types.Claims{}, unverifiable(fmt.Errorf("unable to parse token: %w", err))
	}

	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return types.Claims{}, unverifiable(ErrMissingKeyID)
	}

	keySet, err := s.fetcher.FetchKeys(ctx, s.conf.KeySetURL)
	if err != nil {
		return types.Claims{}, fmt.Errorf("unable to fetch key set: %w", err)
	}

	key, ok := keySet.SigningKey(kid)
	if !ok {
		return types.Claims{}, unverifiable(fmt.Errorf("%w %q", ErrUnknownKeyID, kid))
	}

	mapClaims := jwt.MapClaims{}

	_, err = parser.ParseWithClaims(token.AccessToken, mapClaims, func(t *jwt.Token) (any, error) {
		if key.Algorithm != "" && key.Algorithm != t.Method.Alg() {
			return nil, fmt.Errorf("%w: %s != %s", ErrAlgorithmMismatch, t.Method.Alg(), key.Algorithm)
		}

		return key.Key, nil
	})
	if err != nil {
		return types.Claims{}, unverifiable(fmt.Errorf("invalid token signature: %w", err))
	}

	issuer, _ := mapClaims.GetIssuer()
	if !s.issuerAccepted(issuer, mapClaims) {
		return types.Claims{}, unverifiable(fmt.Errorf("%w: %q", ErrIssuerMismatch, issuer))
	}

	audience, _ := mapClaims.GetAudience()
	if !slices.Contains(audience, s.conf.ClientID) {
		return types.Claims{}, unverifiable(fmt.Errorf("%w %q", ErrAudienceMismatch, s.conf.ClientID))
	}

	return s.toClaims(mapClaims, issuer, audience), nil
}

func (s *JWKSSource) toClaims(mapClaims jwt.MapClaims, issuer string, audience []string) types.Claims {
	claims := types.Claims{
		Issuer:   issuer,
		Audience: audience,
		Raw:      mapClaims,
		Active:   true,
	}

	claims.Subject, _ = mapClaims.GetSubject()
	claims.Username, _ = mapClaims[s.conf.UsernameClaim].(string)

	if nbf, err := mapClaims.GetNotBefore(); err == nil && nbf != nil {
		claims.Active = !nbf.After(s.now())
	}

	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.Expiry = exp.Time
	}

	// Entra ID uses scp, everyone else scope. Both appear as string or array.
	for _, name := range []string{"scope", "scp"} {
		switch value := mapClaims[name].(type) {
		case string:
			claims.Scopes = types.ParseScopes(value)
		case []any:
			scopes, err := utils.CastToSlice[string](value)
			if err != nil {
				continue
			}

			claims.Scopes = append(types.Scopes{}, scopes...)
		default:
			continue
		}

		break
	}

	return claims
}

// issuerAccepted matches issuer against the configured templates. The tenant
// placeholder is filled with the configured tenant or, for multi-tenant
// applications, the tid claim of the token.
func (s *JWKSSource) issuerAccepted(issuer string, mapClaims jwt.MapClaims) bool {
	if issuer == "" {
		return false
	}

	tenant := s.conf.Tenant
	switch tenant {
	case "", "common", "organizations", "consumers":
		tenant, _ = mapClaims["tid"].(string)
	}

	for _, template := range s.conf.Issuers {
		if strings.Contains(template, TenantPlaceholder) {
			if tenant == "" {
				continue
			}

			template = strings.ReplaceAll(template, TenantPlaceholder, tenant)
		}

		if strings.TrimSuffix(template, "/") == strings.TrimSuffix(issuer, "/") {
			return true
		}
	}

	return false
}

func unverifiable(err error) error {
	return &oauth2.Error{Kind: oauth2.KindUnverifiable, Err: err}
}
