package validator

import (
	"context"

	"github.com/jkroepke/pam-oauth2-device/internal/oauth2/types"
	xoauth2 "golang.org/x/oauth2"
)

// Introspector is implemented by [oauth2.Client].
type Introspector interface {
	Introspect(ctx context.Context, token string) (types.Claims, error)
}

// IntrospectionSource asks the provider about the token (RFC 7662).
type IntrospectionSource struct {
	client Introspector
}

func NewIntrospectionSource(client Introspector) *IntrospectionSource {
	return &IntrospectionSource{client: client}
}

func (s *IntrospectionSource) Claims(ctx context.Context, token *xoauth2.Token) (types.Claims, error) {
	return s.client.Introspect(ctx, token.AccessToken) //nolint:wrapcheck
}
