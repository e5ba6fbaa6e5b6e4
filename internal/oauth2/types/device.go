package types

import (
	"log/slog"
	"time"

	"github.com/jkroepke/pam-oauth2-device/internal/utils"
)

// DeviceAuthorization is the result of a successful device authorization request.
type DeviceAuthorization struct {
	IssuedAt                time.Time
	ExpiresAt               time.Time
	DeviceCode              string
	UserCode                string
	VerificationURI         string
	VerificationURIComplete string
	Interval                time.Duration
}

// ExpiresIn returns the lifetime of the device code as announced by the provider.
func (d DeviceAuthorization) ExpiresIn() time.Duration {
	return d.ExpiresAt.Sub(d.IssuedAt)
}

// LogValue implements [slog.LogValuer]. The device code is truncated.
func (d DeviceAuthorization) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("device_code", utils.Redact(d.DeviceCode, 4)),
		slog.String("user_code", d.UserCode),
		slog.String("verification_uri", d.VerificationURI),
		slog.Bool("verification_uri_complete", d.VerificationURIComplete != ""),
		slog.Duration("expires_in", d.ExpiresIn()),
		slog.Duration("interval", d.Interval),
	)
}
