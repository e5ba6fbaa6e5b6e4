package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/jkroepke/pam-oauth2-device/internal/config/types"
)

// Validate validates the config.
func Validate(conf Config) error {
	if err := validateLogConfig(conf); err != nil {
		return err
	}

	if err := validateOAuth2Config(conf); err != nil {
		return err
	}

	return validateProvisionConfig(conf)
}

func validateProvisionConfig(conf Config) error {
	if !conf.Provision.Enabled {
		return nil
	}

	if conf.Provision.Shell == "" {
		return fmt.Errorf("provision.shell is %w", ErrRequired)
	}

	commands := map[string]string{
		"provision.useradd": conf.Provision.UserAdd,
		"provision.usermod": conf.Provision.UserMod,
	}

	for key, command := range commands {
		if !filepath.IsAbs(command) {
			return fmt.Errorf("%s: must be an absolute path, got %q", key, command)
		}
	}

	return nil
}

func validateLogConfig(conf Config) error {
	if !slices.Contains([]string{LogFormatConsole, LogFormatJSON}, conf.Log.Format) {
		return fmt.Errorf("log.format: invalid value %q, must be json or console", conf.Log.Format)
	}

	return nil
}

//nolint:cyclop
func validateOAuth2Config(conf Config) error {
	if conf.OAuth2.Client.ID == "" {
		return fmt.Errorf("oauth2.client.id is %w", ErrRequired)
	}

	if len(conf.OAuth2.Scopes) == 0 {
		return fmt.Errorf("oauth2.scopes is %w", ErrRequired)
	}

	if conf.OAuth2.Timeout < 0 {
		return errors.New("oauth2.timeout must not be negative")
	}

	if !slices.Contains([]string{ValidationIntrospection, ValidationJWKS}, conf.OAuth2.Validation) {
		return fmt.Errorf("oauth2.validation: invalid value %q, must be introspection or jwks", conf.OAuth2.Validation)
	}

	urls := map[string]types.URL{
		"oauth2.issuer":                 conf.OAuth2.Issuer,
		"oauth2.endpoint.discovery":     conf.OAuth2.Endpoints.Discovery,
		"oauth2.endpoint.device":        conf.OAuth2.Endpoints.Device,
		"oauth2.endpoint.token":         conf.OAuth2.Endpoints.Token,
		"oauth2.endpoint.introspection": conf.OAuth2.Endpoints.Introspection,
		"oauth2.endpoint.keys":          conf.OAuth2.Endpoints.Keys,
	}

	for key, value := range urls {
		if value.IsEmpty() {
			continue
		}

		if err := value.ValidateHTTP(); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	// all endpoints can be discovered from the issuer
	if !conf.OAuth2.Issuer.IsEmpty() {
		return nil
	}

	required := []string{"oauth2.endpoint.device", "oauth2.endpoint.token"}

	switch conf.OAuth2.Validation {
	case ValidationIntrospection:
		required = append(required, "oauth2.endpoint.introspection")
	case ValidationJWKS:
		required = append(required, "oauth2.endpoint.keys")
	}

	for _, key := range required {
		if value := urls[key]; value.IsEmpty() {
			return fmt.Errorf("%s is %w", key, ErrRequired)
		}
	}

	if conf.OAuth2.Validation == ValidationJWKS && len(conf.OAuth2.Validate.Issuers) == 0 {
		return fmt.Errorf("oauth2.validate.issuers is %w", ErrRequired)
	}

	return nil
}
