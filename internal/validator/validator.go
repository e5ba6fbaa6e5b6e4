package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/jkroepke/pam-oauth2-device/internal/oauth2"
	"github.com/jkroepke/pam-oauth2-device/internal/oauth2/types"
	xoauth2 "golang.org/x/oauth2"
)

// RootUsername can never be the remote identity of a login.
const RootUsername = "root"

// ClaimsSource obtains the claims of an access token.
type ClaimsSource interface {
	Claims(ctx context.Context, token *xoauth2.Token) (types.Claims, error)
}

// Validator decides whether an access token authorizes a local account.
type Validator struct {
	source         ClaimsSource
	logger         *slog.Logger
	now            func() time.Time
	celEvalPrg     cel.Program
	requiredScopes types.Scopes
}

type Option func(*Validator) error

// WithClock replaces the time source of the expiry check.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) error {
		v.now = now

		return nil
	}
}

// WithCEL adds a CEL expression that must evaluate to true for the token to be accepted.
// An empty expression is ignored.
func WithCEL(expression string) Option {
	return func(v *Validator) error {
		if expression == "" {
			return nil
		}

		prg, err := compileCEL(expression)
		if err != nil {
			return err
		}

		v.celEvalPrg = prg

		return nil
	}
}

func New(logger *slog.Logger, source ClaimsSource, requiredScopes []string, opts ...Option) (*Validator, error) {
	validator := &Validator{
		source:         source,
		logger:         logger,
		now:            time.Now,
		requiredScopes: requiredScopes,
	}

	for _, opt := range opts {
		if err := opt(validator); err != nil {
			return nil, err
		}
	}

	return validator, nil
}

// Validate obtains the claims of token and checks them. A nil error accepts the login.
func (v *Validator) Validate(ctx context.Context, token *xoauth2.Token, localUsername string) error {
	if token == nil || token.AccessToken == "" {
		return &oauth2.Error{Kind: oauth2.KindValidation, Err: errors.New("no access token")}
	}

	claims, err := v.source.Claims(ctx, token)
	if err != nil {
		return fmt.Errorf("unable to obtain token claims: %w", err)
	}

	return v.Check(ctx, claims, localUsername)
}

// Check evaluates every check on claims, even if an earlier one failed.
// Each failure is logged and part of the returned error.
func (v *Validator) Check(ctx context.Context, claims types.Claims, localUsername string) error {
	errs := []error{
		v.checkActive(ctx, claims),
		v.checkIdentity(ctx, claims, localUsername),
		v.checkScopes(ctx, claims),
		v.checkExpiry(ctx, claims),
	}

	if v.celEvalPrg != nil {
		errs = append(errs, v.checkCEL(ctx, claims, localUsername))
	}

	if err := errors.Join(errs...); err != nil {
		return &oauth2.Error{Kind: oauth2.KindValidation, Err: err}
	}

	v.logger.DebugContext(ctx, "token accepted", slog.String("username", localUsername))

	return nil
}

func (v *Validator) checkActive(ctx context.Context, claims types.Claims) error {
	if !claims.Active {
		v.logger.WarnContext(ctx, "token inactive")

		return ErrTokenInactive
	}

	return nil
}

func (v *Validator) checkIdentity(ctx context.Context, claims types.Claims, localUsername string) error {
	switch {
	case claims.Username == "":
		v.logger.WarnContext(ctx, "no username provided in token",
			slog.String("local_username", localUsername),
		)

		return ErrMissingUsername
	case claims.Username == RootUsername:
		v.logger.WarnContext(ctx, "remote username root is not allowed",
			slog.String("local_username", localUsername),
		)

		return ErrRootUsername
	case claims.Username != localUsername:
		v.logger.WarnContext(ctx, "username mismatch",
			slog.String("local_username", localUsername),
			slog.String("remote_username", claims.Username),
		)

		return fmt.Errorf("%w: remote %q, local %q", ErrUsernameMismatch, claims.Username, localUsername)
	}

	return nil
}

func (v *Validator) checkScopes(ctx context.Context, claims types.Claims) error {
	if claims.Scopes == nil {
		v.logger.WarnContext(ctx, "no scope provided in token")

		return ErrMissingScope
	}

	if missing := claims.Scopes.Missing(v.requiredScopes); len(missing) > 0 {
		v.logger.WarnContext(ctx, "insufficient scopes",
			slog.String("granted", claims.Scopes.String()),
			slog.String("missing", missing.String()),
		)

		return fmt.Errorf("%w: missing %q", ErrInsufficientScope, missing.String())
	}

	return nil
}

func (v *Validator) checkExpiry(ctx context.Context, claims types.Claims) error {
	if claims.Expiry.IsZero() {
		v.logger.WarnContext(ctx, "no expiration time provided in token")

		return ErrMissingExpiry
	}

	if now := v.now(); !claims.Expiry.After(now) {
		v.logger.WarnContext(ctx, "token expired",
			slog.Time("expiry", claims.Expiry),
			slog.Time("now", now),
		)

		return fmt.Errorf("%w at %s", ErrTokenExpired, claims.Expiry.UTC().Format(time.RFC3339))
	}

	return nil
}
