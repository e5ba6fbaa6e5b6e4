package authenticator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jkroepke/pam-oauth2-device/internal/config"
	"github.com/jkroepke/pam-oauth2-device/internal/oauth2"
	"github.com/jkroepke/pam-oauth2-device/internal/oauth2/types"
	"github.com/jkroepke/pam-oauth2-device/internal/prompt"
	"github.com/jkroepke/pam-oauth2-device/internal/provision"
	"github.com/jkroepke/pam-oauth2-device/internal/utils"
	"github.com/jkroepke/pam-oauth2-device/internal/validator"
	"github.com/zitadel/logging"
	xoauth2 "golang.org/x/oauth2"
	"golang.org/x/text/message"
)

// Provisioner creates the local account after a successful login.
type Provisioner interface {
	Provision(ctx context.Context, username string) error
}

// Authenticator runs one device flow login per call of Authenticate.
type Authenticator struct {
	httpClient  *http.Client
	sender      prompt.Sender
	logger      *slog.Logger
	clock       oauth2.Clock
	renderer    *prompt.Renderer
	provisioner Provisioner
	conf        config.Config
}

type Option func(*Authenticator)

// WithClock replaces the clock of the device flow and the expiry check.
func WithClock(clock oauth2.Clock) Option {
	return func(a *Authenticator) {
		a.clock = clock
	}
}

// WithProvisioner replaces the local account provisioning.
func WithProvisioner(provisioner Provisioner) Option {
	return func(a *Authenticator) {
		a.provisioner = provisioner
	}
}

func New(conf config.Config, logger *slog.Logger, httpClient *http.Client, sender prompt.Sender, opts ...Option) (*Authenticator, error) {
	var rendererOpts []prompt.RendererOption
	if conf.Prompt.QRCode {
		rendererOpts = append(rendererOpts, prompt.WithQRCode(logger))
	}

	renderer, err := prompt.NewRenderer(conf.Prompt.Language, conf.Prompt.Template.Template, conf.Prompt.WaitForEnter, rendererOpts...)
	if err != nil {
		return nil, fmt.Errorf("error creating prompt renderer: %w", err)
	}

	authenticator := &Authenticator{
		conf:       conf,
		logger:     logger,
		httpClient: httpClient,
		sender:     sender,
		renderer:   renderer,
		clock:      oauth2.SystemClock,
	}

	if conf.Provision.Enabled {
		authenticator.provisioner = provision.New(logger, conf.Provision.Group, conf.Provision.Shell,
			provision.WithCommands(conf.Provision.UserAdd, conf.Provision.UserMod),
		)
	}

	for _, opt := range opts {
		opt(authenticator)
	}

	return authenticator, nil
}

// Authenticate logs in the remote identity and binds it to localUsername.
// Details of a failure are written to the log only. The user is shown a
// generic message.
func (a *Authenticator) Authenticate(ctx context.Context, localUsername string) Outcome {
	logger := a.logger.With(slog.String("username", localUsername))
	ctx = logging.ToContext(ctx, logger)

	start := a.clock.Now()

	err := a.authenticate(ctx, logger, localUsername)
	outcome := classify(err)

	attrs := []slog.Attr{
		slog.String("outcome", outcome.String()),
		slog.Duration("duration", a.clock.Now().Sub(start).Round(time.Millisecond)),
	}

	if err == nil {
		logger.LogAttrs(ctx, slog.LevelInfo, "authentication succeeded", attrs...)

		return outcome
	}

	attrs = append(attrs, slog.String("kind", oauth2.KindOf(err).String()))
	logger.LogAttrs(ctx, slog.LevelError, utils.ErrorChain("authentication failed", err), attrs...)

	a.notify(ctx, logger, outcome)

	return outcome
}

func (a *Authenticator) authenticate(ctx context.Context, logger *slog.Logger, localUsername string) error {
	endpoints, err := a.endpoints(ctx, logger)
	if err != nil {
		return err
	}

	client := oauth2.NewClient(a.httpClient, &xoauth2.Config{
		ClientID:     a.conf.OAuth2.Client.ID,
		ClientSecret: a.conf.OAuth2.Client.Secret.String(),
		RedirectURL:  a.conf.OAuth2.RedirectURI,
		Scopes:       a.conf.OAuth2.Scopes,
		Endpoint: xoauth2.Endpoint{
			DeviceAuthURL: endpoints.DeviceAuthorization,
			TokenURL:      endpoints.Token,
		},
	}, endpoints.Introspection)

	tokenValidator, err := a.validator(logger, client, endpoints)
	if err != nil {
		return err
	}

	flow := oauth2.NewDeviceFlow(logger, client, oauth2.DeviceFlowOptions{
		Clock:             a.clock,
		Timeout:           a.conf.OAuth2.Timeout,
		SlowDownIncrement: a.conf.OAuth2.SlowDownIncrement,
	})

	token, err := flow.Run(ctx, a.conf.OAuth2.Scopes, a.display)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if err = tokenValidator.Validate(ctx, token, localUsername); err != nil {
		return fmt.Errorf("token rejected: %w", err)
	}

	if a.provisioner == nil {
		return nil
	}

	if err = a.provisioner.Provision(ctx, localUsername); err != nil {
		return fmt.Errorf("error provisioning local user: %w", err)
	}

	return nil
}

// endpoints returns the configured endpoints. Missing ones are discovered from the issuer.
func (a *Authenticator) endpoints(ctx context.Context, logger *slog.Logger) (oauth2.Endpoints, error) {
	configured := oauth2.Endpoints{
		DeviceAuthorization: a.conf.OAuth2.Endpoints.Device.String(),
		Token:               a.conf.OAuth2.Endpoints.Token.String(),
		Introspection:       a.conf.OAuth2.Endpoints.Introspection.String(),
		KeySet:              a.conf.OAuth2.Endpoints.Keys.String(),
	}

	if a.conf.OAuth2.Issuer.IsEmpty() || a.complete(configured) {
		return configured, nil
	}

	discovered, err := oauth2.Discover(ctx, logger, a.httpClient,
		a.conf.OAuth2.Issuer.String(), a.conf.OAuth2.Endpoints.Discovery.String(),
	)
	if err != nil {
		return oauth2.Endpoints{}, err //nolint:wrapcheck
	}

	return configured.Merge(discovered), nil
}

func (a *Authenticator) complete(endpoints oauth2.Endpoints) bool {
	if endpoints.DeviceAuthorization == "" || endpoints.Token == "" {
		return false
	}

	if a.conf.OAuth2.Validation == config.ValidationJWKS {
		return endpoints.KeySet != ""
	}

	return endpoints.Introspection != ""
}

func (a *Authenticator) validator(logger *slog.Logger, client *oauth2.Client, endpoints oauth2.Endpoints) (*validator.Validator, error) {
	var source validator.ClaimsSource

	switch a.conf.OAuth2.Validation {
	case config.ValidationJWKS:
		issuers := a.conf.OAuth2.Validate.Issuers
		if len(issuers) == 0 {
			issuers = []string{a.conf.OAuth2.Issuer.String()}
		}

		source = validator.NewJWKSSource(client, validator.JWKSConfig{
			KeySetURL:     endpoints.KeySet,
			ClientID:      a.conf.OAuth2.Client.ID,
			Tenant:        a.conf.OAuth2.Tenant,
			UsernameClaim: a.conf.OAuth2.Validate.UsernameClaim,
			Issuers:       issuers,
		})
	default:
		source = validator.NewIntrospectionSource(client)
	}

	tokenValidator, err := validator.New(logger, source, a.conf.OAuth2.Scopes,
		validator.WithClock(a.clock.Now),
		validator.WithCEL(a.conf.OAuth2.Validate.CEL),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating token validator: %w", err)
	}

	return tokenValidator, nil
}

func (a *Authenticator) display(ctx context.Context, auth types.DeviceAuthorization) error {
	if a.sender == nil {
		return nil
	}

	text, err := a.renderer.Render(auth)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return a.sender.Send(ctx, a.renderer.Kind(), text) //nolint:wrapcheck
}

// notify shows a generic failure message to the user.
func (a *Authenticator) notify(ctx context.Context, logger *slog.Logger, outcome Outcome) {
	if a.sender == nil {
		return
	}

	key := "Authentication failed."
	if outcome == TimedOut {
		key = "Authentication timed out."
	}

	if err := a.sender.Send(ctx, prompt.KindInfo, "\n"+a.renderer.Printer().Sprintf(message.Reference(key))+"\n"); err != nil {
		logger.WarnContext(ctx, "unable to show failure message", slog.Any("err", err))
	}
}

// classify reduces err to the outcome reported to the host. Denied or expired
// logins and rejected tokens are authentication failures. Everything else the
// user cannot fix is a system error.
func classify(err error) Outcome {
	if err == nil {
		return Success
	}

	switch oauth2.KindOf(err) {
	case oauth2.KindTimeout:
		return TimedOut
	case oauth2.KindValidation, oauth2.KindUnverifiable:
		return AuthError
	case oauth2.KindProvider:
		if errors.Is(err, oauth2.ErrAccessDenied) || errors.Is(err, oauth2.ErrExpiredToken) {
			return AuthError
		}

		return SystemError
	default:
		return SystemError
	}
}
