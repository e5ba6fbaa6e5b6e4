package oauth2

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jkroepke/pam-oauth2-device/internal/oauth2/types"
	"golang.org/x/oauth2"
)

// DefaultSlowDownIncrement is added to the polling interval after each slow_down response.
const DefaultSlowDownIncrement = 5 * time.Second

// State is the state of a single device flow attempt.
type State int

const (
	StateInit State = iota
	StateAwaitingUser
	StatePolling
	StateSucceeded
	StateFailed
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAwaitingUser:
		return "awaiting_user"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// DeviceAuthorizer is the part of [Client] the device flow needs.
type DeviceAuthorizer interface {
	DeviceAuthorize(ctx context.Context, scopes []string) (types.DeviceAuthorization, error)
	PollToken(ctx context.Context, deviceCode string) (*oauth2.Token, error)
}

// Clock provides the current time and blocking waits.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock is the [Clock] backed by the time package.
//
//nolint:gochecknoglobals
var SystemClock Clock = systemClock{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	case <-timer.C:
		return nil
	}
}

// DisplayFunc shows the verification instructions to the user.
// Its error is logged, but never stops the flow.
type DisplayFunc func(ctx context.Context, auth types.DeviceAuthorization) error

// DeviceFlowOptions configure a [DeviceFlow]. Zero values select the defaults.
type DeviceFlowOptions struct {
	Clock Clock
	// Timeout overrides the lifetime of the device code announced by the provider.
	Timeout           time.Duration
	SlowDownIncrement time.Duration
}

// DeviceFlow runs the polling part of RFC 8628 for a single login attempt.
type DeviceFlow struct {
	client            DeviceAuthorizer
	clock             Clock
	logger            *slog.Logger
	timeout           time.Duration
	slowDownIncrement time.Duration
	state             State
}

func NewDeviceFlow(logger *slog.Logger, client DeviceAuthorizer, opts DeviceFlowOptions) *DeviceFlow {
	flow := &DeviceFlow{
		client:            client,
		logger:            logger,
		clock:             opts.Clock,
		timeout:           opts.Timeout,
		slowDownIncrement: opts.SlowDownIncrement,
	}

	if flow.clock == nil {
		flow.clock = SystemClock
	}

	if flow.slowDownIncrement <= 0 {
		flow.slowDownIncrement = DefaultSlowDownIncrement
	}

	return flow
}

// State returns the state the last call of Run ended in.
func (f *DeviceFlow) State() State {
	return f.state
}

// Run requests a device code, hands it to display and polls the token
// endpoint until the user completed the login, the provider reported a fatal
// error or the deadline passed.
//
// The first poll happens immediately. Each authorization_pending waits
// exactly the current interval, each slow_down raises it permanently. If the
// next wait would end after the deadline, Run returns a [KindTimeout] error
// without waiting.
func (f *DeviceFlow) Run(ctx context.Context, scopes []string, display DisplayFunc) (*oauth2.Token, error) {
	f.state = StateInit

	auth, err := f.client.DeviceAuthorize(ctx, scopes)
	if err != nil {
		f.transition(ctx, StateFailed, slog.String("kind", KindOf(err).String()))

		return nil, fmt.Errorf("error requesting device authorization: %w", err)
	}

	issuedAt := f.clock.Now()

	timeout := f.timeout
	if timeout <= 0 {
		timeout = auth.ExpiresIn()
	}

	deadline := issuedAt.Add(timeout)

	f.transition(ctx, StateAwaitingUser,
		slog.Any("device_authorization", auth),
		slog.Duration("timeout", timeout),
	)

	if display != nil {
		if err = display(ctx, auth); err != nil {
			f.logger.WarnContext(ctx, "unable to display verification instructions", slog.Any("err", err))
		}
	}

	f.transition(ctx, StatePolling)

	interval := auth.Interval
	polls := 0

	for {
		polls++

		token, err := f.client.PollToken(ctx, auth.DeviceCode)
		if err == nil {
			f.transition(ctx, StateSucceeded, slog.Int("polls", polls))

			return token, nil
		}

		switch {
		case errors.Is(err, ErrAuthorizationPending):
			f.logger.DebugContext(ctx, "authorization pending", slog.Duration("interval", interval))
		case errors.Is(err, ErrSlowDown):
			interval += f.slowDownIncrement

			f.logger.InfoContext(ctx, "provider requested to slow down", slog.Duration("interval", interval))
		default:
			f.transition(ctx, StateFailed, slog.String("kind", KindOf(err).String()), slog.Int("polls", polls))

			return nil, fmt.Errorf("error polling token endpoint: %w", err)
		}

		if f.clock.Now().Add(interval).After(deadline) {
			f.transition(ctx, StateTimedOut, slog.Int("polls", polls))

			return nil, &Error{Kind: KindTimeout, Err: fmt.Errorf("user did not complete the login within %s", timeout)}
		}

		if err = f.clock.Sleep(ctx, interval); err != nil {
			f.transition(ctx, StateTimedOut, slog.Int("polls", polls))

			return nil, &Error{Kind: KindTimeout, Err: err}
		}
	}
}

func (f *DeviceFlow) transition(ctx context.Context, to State, attrs ...slog.Attr) {
	from := f.state
	f.state = to

	attrs = append([]slog.Attr{slog.String("from", from.String()), slog.String("to", to.String())}, attrs...)
	f.logger.LogAttrs(ctx, slog.LevelDebug, "device flow state changed", attrs...)
}
