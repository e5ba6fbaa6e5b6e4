package oauth2

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/zitadel/logging"
	"github.com/zitadel/oidc/v3/pkg/client"
)

// Endpoints are the provider URLs the device flow and the validator need.
type Endpoints struct {
	DeviceAuthorization string
	Token               string
	Introspection       string
	KeySet              string
}

// Discover reads the endpoints from the OpenID Connect discovery document of issuer.
// A non-empty discoveryURL overrides the well-known location.
func Discover(ctx context.Context, logger *slog.Logger, httpClient *http.Client, issuer, discoveryURL string) (Endpoints, error) {
	ctx = logging.ToContext(ctx, logger)

	var wellKnown []string
	if discoveryURL != "" {
		wellKnown = append(wellKnown, discoveryURL)
	}

	discovery, err := client.Discover(ctx, issuer, httpClient, wellKnown...)
	if err != nil {
		return Endpoints{}, &Error{Kind: KindNetwork, Err: fmt.Errorf("unable to discover endpoints of %s: %w", issuer, err)}
	}

	endpoints := Endpoints{
		DeviceAuthorization: discovery.DeviceAuthorizationEndpoint,
		Token:               discovery.TokenEndpoint,
		Introspection:       discovery.IntrospectionEndpoint,
		KeySet:              discovery.JwksURI,
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "discovered provider endpoints",
		slog.String("issuer", discovery.Issuer),
		slog.String("device_authorization_endpoint", endpoints.DeviceAuthorization),
		slog.String("token_endpoint", endpoints.Token),
		slog.String("introspection_endpoint", endpoints.Introspection),
		slog.String("jwks_uri", endpoints.KeySet),
	)

	return endpoints, nil
}

// Merge fills every empty endpoint of e from other.
func (e Endpoints) Merge(other Endpoints) Endpoints {
	if e.DeviceAuthorization == "" {
		e.DeviceAuthorization = other.DeviceAuthorization
	}

	if e.Token == "" {
		e.Token = other.Token
	}

	if e.Introspection == "" {
		e.Introspection = other.Introspection
	}

	if e.KeySet == "" {
		e.KeySet = other.KeySet
	}

	return e
}
