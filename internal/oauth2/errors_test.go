package oauth2_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jkroepke/pam-oauth2-device/internal/oauth2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zitadel/oidc/v3/pkg/oidc"
)

func TestErrorIs(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("error polling token endpoint: %w", &oauth2.Error{
		Kind:        oauth2.KindProvider,
		Code:        oauth2.ErrorCode(oidc.SlowDown),
		Description: "too many requests",
		StatusCode:  400,
	})

	require.ErrorIs(t, err, oauth2.ErrSlowDown)
	require.ErrorIs(t, err, oauth2.ErrProvider)
	require.NotErrorIs(t, err, oauth2.ErrAuthorizationPending)
	require.NotErrorIs(t, err, oauth2.ErrMalformed)
	assert.Equal(t, oauth2.KindProvider, oauth2.KindOf(err))
	assert.Equal(t, oauth2.KindUnknown, oauth2.KindOf(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		err    *oauth2.Error
		expect string
	}{
		{
			"provider",
			&oauth2.Error{Kind: oauth2.KindProvider, Code: oauth2.ErrorCode(oidc.AccessDenied), StatusCode: 400, Description: "user declined"},
			"provider error: access_denied (http status code 400): user declined",
		},
		{
			"malformed",
			&oauth2.Error{Kind: oauth2.KindMalformed, StatusCode: 502, Err: errors.New("unexpected status")},
			"malformed response (http status code 502): unexpected status",
		},
		{
			"timeout",
			&oauth2.Error{Kind: oauth2.KindTimeout},
			"timed out",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expect, tc.err.Error())
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &oauth2.Error{Kind: oauth2.KindNetwork, Err: cause}

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, oauth2.ErrNetwork)
}
