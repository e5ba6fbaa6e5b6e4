package oauth2_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jkroepke/pam-oauth2-device/internal/oauth2"
	"github.com/jkroepke/pam-oauth2-device/internal/oauth2/types"
	"github.com/jkroepke/pam-oauth2-device/internal/utils/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xoauth2 "golang.org/x/oauth2"
)

type fakeAuthorizer struct {
	authErr error
	results []error
	auth    types.DeviceAuthorization
	polls   int
}

func (f *fakeAuthorizer) DeviceAuthorize(_ context.Context, _ []string) (types.DeviceAuthorization, error) {
	return f.auth, f.authErr
}

func (f *fakeAuthorizer) PollToken(_ context.Context, deviceCode string) (*xoauth2.Token, error) {
	if deviceCode != f.auth.DeviceCode {
		return nil, errors.New("unexpected device code")
	}

	result := f.results[min(f.polls, len(f.results)-1)]
	f.polls++

	if result != nil {
		return nil, result
	}

	return &xoauth2.Token{AccessToken: "tok123", TokenType: "Bearer"}, nil
}

func newDeviceAuthorization(expiresIn time.Duration) types.DeviceAuthorization {
	issuedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	return types.DeviceAuthorization{
		DeviceCode:      "D1273234",
		UserCode:        "WDJB-MJHT",
		VerificationURI: "https://idp.example/device",
		IssuedAt:        issuedAt,
		ExpiresAt:       issuedAt.Add(expiresIn),
		Interval:        5 * time.Second,
	}
}

func repeat(err error, n int) []error {
	results := make([]error, n)
	for i := range results {
		results[i] = err
	}

	return results
}

func TestDeviceFlowRun(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name      string
		authErr   error
		err       error
		results   []error
		sleeps    []time.Duration
		expiresIn time.Duration
		timeout   time.Duration
		polls     int
		state     oauth2.State
	}{
		{
			name:      "immediate success",
			results:   []error{nil},
			expiresIn: 30 * time.Minute,
			polls:     1,
			state:     oauth2.StateSucceeded,
		},
		{
			name:      "pending three times",
			results:   append(repeat(oauth2.ErrAuthorizationPending, 3), nil),
			expiresIn: 30 * time.Minute,
			sleeps:    []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second},
			polls:     4,
			state:     oauth2.StateSucceeded,
		},
		{
			name: "slow down raises interval permanently",
			results: []error{
				oauth2.ErrAuthorizationPending,
				oauth2.ErrSlowDown,
				oauth2.ErrSlowDown,
				oauth2.ErrAuthorizationPending,
				nil,
			},
			expiresIn: 30 * time.Minute,
			sleeps:    []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second, 15 * time.Second},
			polls:     5,
			state:     oauth2.StateSucceeded,
		},
		{
			name:      "provider expiry",
			results:   []error{oauth2.ErrAuthorizationPending},
			expiresIn: 12 * time.Second,
			sleeps:    []time.Duration{5 * time.Second, 5 * time.Second},
			polls:     3,
			err:       oauth2.ErrTimeout,
			state:     oauth2.StateTimedOut,
		},
		{
			name:      "deadline reached exactly",
			results:   append(repeat(oauth2.ErrAuthorizationPending, 2), nil),
			expiresIn: 10 * time.Second,
			sleeps:    []time.Duration{5 * time.Second, 5 * time.Second},
			polls:     3,
			state:     oauth2.StateSucceeded,
		},
		{
			name:      "timeout override",
			results:   []error{oauth2.ErrAuthorizationPending},
			expiresIn: 30 * time.Minute,
			timeout:   7 * time.Second,
			sleeps:    []time.Duration{5 * time.Second},
			polls:     2,
			err:       oauth2.ErrTimeout,
			state:     oauth2.StateTimedOut,
		},
		{
			name:      "access denied",
			results:   []error{oauth2.ErrAuthorizationPending, &oauth2.Error{Kind: oauth2.KindProvider, Code: oauth2.ErrAccessDenied.Code}},
			expiresIn: 30 * time.Minute,
			sleeps:    []time.Duration{5 * time.Second},
			polls:     2,
			err:       oauth2.ErrAccessDenied,
			state:     oauth2.StateFailed,
		},
		{
			name:      "expired token",
			results:   []error{&oauth2.Error{Kind: oauth2.KindProvider, Code: oauth2.ErrExpiredToken.Code}},
			expiresIn: 30 * time.Minute,
			polls:     1,
			err:       oauth2.ErrExpiredToken,
			state:     oauth2.StateFailed,
		},
		{
			name:      "network error while polling",
			results:   []error{&oauth2.Error{Kind: oauth2.KindNetwork, Err: errors.New("connection refused")}},
			expiresIn: 30 * time.Minute,
			polls:     1,
			err:       oauth2.ErrNetwork,
			state:     oauth2.StateFailed,
		},
		{
			name:      "device authorization fails",
			authErr:   &oauth2.Error{Kind: oauth2.KindProvider, Code: oauth2.ErrInvalidClient.Code},
			expiresIn: 30 * time.Minute,
			err:       oauth2.ErrInvalidClient,
			state:     oauth2.StateFailed,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			authorizer := &fakeAuthorizer{
				auth:    newDeviceAuthorization(tc.expiresIn),
				authErr: tc.authErr,
				results: tc.results,
			}

			clock := testutils.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
			logger := testutils.NewTestLogger()

			flow := oauth2.NewDeviceFlow(logger.Logger, authorizer, oauth2.DeviceFlowOptions{
				Clock:   clock,
				Timeout: tc.timeout,
			})

			var displayed []types.DeviceAuthorization

			token, err := flow.Run(t.Context(), []string{"openid"}, func(_ context.Context, auth types.DeviceAuthorization) error {
				displayed = append(displayed, auth)

				return nil
			})

			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				assert.Nil(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "tok123", token.AccessToken)
			}

			assert.Equal(t, tc.state, flow.State())
			assert.Equal(t, tc.polls, authorizer.polls)
			assert.Equal(t, tc.sleeps, clock.Sleeps())

			if tc.authErr == nil {
				require.Len(t, displayed, 1)
				assert.Equal(t, "WDJB-MJHT", displayed[0].UserCode)
			} else {
				assert.Empty(t, displayed)
			}

			assert.NotContains(t, logger.GetLogs(), "D1273234")
		})
	}
}

func TestDeviceFlowDisplayErrorIsIgnored(t *testing.T) {
	t.Parallel()

	authorizer := &fakeAuthorizer{auth: newDeviceAuthorization(time.Minute), results: []error{nil}}
	logger := testutils.NewTestLogger()

	flow := oauth2.NewDeviceFlow(logger.Logger, authorizer, oauth2.DeviceFlowOptions{
		Clock: testutils.NewClock(time.Now()),
	})

	token, err := flow.Run(t.Context(), nil, func(context.Context, types.DeviceAuthorization) error {
		return errors.New("no terminal")
	})

	require.NoError(t, err)
	assert.Equal(t, "tok123", token.AccessToken)
	assert.Contains(t, logger.GetLogs(), "unable to display verification instructions")
}

func TestDeviceFlowCanceledContext(t *testing.T) {
	t.Parallel()

	authorizer := &fakeAuthorizer{auth: newDeviceAuthorization(time.Minute), results: []error{oauth2.ErrAuthorizationPending}}

	ctx, cancel := context.WithCancel(t.Context())

	flow := oauth2.NewDeviceFlow(testutils.NewTestLogger().Logger, authorizer, oauth2.DeviceFlowOptions{})

	cancel()

	_, err := flow.Run(ctx, nil, nil)
	require.ErrorIs(t, err, oauth2.ErrTimeout)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, oauth2.StateTimedOut, flow.State())
}

func TestDeviceFlowWithProvider(t *testing.T) {
	t.Parallel()

	provider := testutils.SetupProvider(t)
	provider.On(testutils.PathDevice, testutils.JSONReply(http.StatusOK,
		`{"device_code":"D1273234","user_code":"WDJB-MJHT","verification_uri":"https://idp.example/device","expires_in":1800,"interval":5}`,
	))
	provider.On(testutils.PathToken,
		testutils.JSONReply(http.StatusBadRequest, `{"error":"authorization_pending"}`),
		testutils.JSONReply(http.StatusBadRequest, `{"error":"authorization_pending"}`),
		testutils.JSONReply(http.StatusOK, `{"access_token":"tok123","token_type":"Bearer","expires_in":3600}`),
	)

	clock := testutils.NewClock(time.Now())
	logger := testutils.NewTestLogger()
	client := oauth2.NewClient(provider.Client(), provider.OAuth2Config(), "")
	flow := oauth2.NewDeviceFlow(logger.Logger, client, oauth2.DeviceFlowOptions{Clock: clock})

	token, err := flow.Run(t.Context(), []string{"openid", "profile"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "tok123", token.AccessToken)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, clock.Sleeps())
	assert.Len(t, provider.Requests(testutils.PathToken), 3)
	assert.Contains(t, logger.GetLogs(), "to=succeeded")
}

func TestStateString(t *testing.T) {
	t.Parallel()

	for state, expect := range map[oauth2.State]string{
		oauth2.StateInit:         "init",
		oauth2.StateAwaitingUser: "awaiting_user",
		oauth2.StatePolling:      "polling",
		oauth2.StateSucceeded:    "succeeded",
		oauth2.StateFailed:       "failed",
		oauth2.StateTimedOut:     "timed_out",
		oauth2.State(42):         "unknown",
	} {
		assert.Equal(t, expect, state.String())
	}
}
