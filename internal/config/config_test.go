package config_test

import (
	"bytes"
	"flag"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jkroepke/pam-oauth2-device/internal/config"
	"github.com/jkroepke/pam-oauth2-device/internal/config/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name       string
		configFile string
		conf       func(conf config.Config) config.Config
		err        string
	}{
		{
			"empty file",
			"",
			func(conf config.Config) config.Config {
				return conf
			},
			"",
		},
		{
			"minimal file",
			// language=yaml
			`
oauth2:
    issuer: "https://login.example.com"
    client:
        id: "pam"
`,
			func(conf config.Config) config.Config {
				conf.OAuth2.Issuer = types.URL{URL: &url.URL{Scheme: "https", Host: "login.example.com"}}
				conf.OAuth2.Client.ID = "pam"

				return conf
			},
			"",
		},
		{
			"full file",
			// language=yaml
			`
log:
    format: json
    level: DEBUG
    path: /var/log/pam-oauth2-device.log
http:
    timeout: 10s
    ca-file: /etc/ssl/idp.pem
oauth2:
    issuer: "https://login.example.com"
    tenant: "contoso"
    client:
        id: "pam"
        secret: "s3cr3t"
    scopes:
        - openid
        - email
    redirect-uri: "https://localhost/callback"
    endpoint:
        device: "https://login.example.com/device"
        token: "https://login.example.com/token"
        keys: "https://login.example.com/keys"
    validation: jwks
    validate:
        issuers:
            - "https://login.example.com/{tenantid}/v2.0"
        username-claim: upn
        cel: "localUsername == tokenClaims.upn"
    timeout: 2m
    slow-down-increment: 10s
prompt:
    language: de
    qrcode: false
    wait-for-enter: true
provision:
    enabled: true
    group: users
    shell: /bin/sh
    usermod: /sbin/usermod
`,
			func(conf config.Config) config.Config {
				conf.Log = config.Log{Format: "json", Level: slog.LevelDebug, Path: "/var/log/pam-oauth2-device.log"}
				conf.HTTP = config.HTTP{Timeout: 10 * time.Second, CAFile: "/etc/ssl/idp.pem"}
				conf.OAuth2.Issuer = types.URL{URL: &url.URL{Scheme: "https", Host: "login.example.com"}}
				conf.OAuth2.Tenant = "contoso"
				conf.OAuth2.Client = config.OAuth2Client{ID: "pam", Secret: "s3cr3t"}
				conf.OAuth2.Scopes = types.StringSlice{"openid", "email"}
				conf.OAuth2.RedirectURI = "https://localhost/callback"
				conf.OAuth2.Endpoints.Device = types.URL{URL: &url.URL{Scheme: "https", Host: "login.example.com", Path: "/device"}}
				conf.OAuth2.Endpoints.Token = types.URL{URL: &url.URL{Scheme: "https", Host: "login.example.com", Path: "/token"}}
				conf.OAuth2.Endpoints.Keys = types.URL{URL: &url.URL{Scheme: "https", Host: "login.example.com", Path: "/keys"}}
				conf.OAuth2.Validation = config.ValidationJWKS
				conf.OAuth2.Validate = config.OAuth2Validate{
					Issuers:       types.StringSlice{"https://login.example.com/{tenantid}/v2.0"},
					UsernameClaim: "upn",
					CEL:           "localUsername == tokenClaims.upn",
				}
				conf.OAuth2.Timeout = 2 * time.Minute
				conf.OAuth2.SlowDownIncrement = 10 * time.Second
				conf.Prompt.Language = "de"
				conf.Prompt.QRCode = false
				conf.Prompt.WaitForEnter = true
				conf.Provision = config.Provision{
					Enabled: true,
					Group:   "users",
					Shell:   "/bin/sh",
					UserAdd: "/usr/sbin/useradd",
					UserMod: "/sbin/usermod",
				}

				return conf
			},
			"",
		},
		{
			"unknown key",
			// language=yaml
			`
oauth2:
    issuer: "https://login.example.com"
    unknown: true
`,
			nil,
			"field unknown not found in type config.OAuth2",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			filePath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(filePath, []byte(tc.configFile), 0o600))

			conf, err := config.New([]string{"pam-oauth2-device", "--config", filePath}, &bytes.Buffer{})
			if tc.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.err)

				return
			}

			require.NoError(t, err)

			expected := config.Defaults
			expected.ConfigFile = filePath

			assert.Equal(t, tc.conf(expected), conf)
		})
	}
}

func TestConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.New([]string{"pam-oauth2-device", "--config=/nonexistent.yaml"}, &bytes.Buffer{})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigHelpFlag(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	_, err := config.New([]string{"pam-oauth2-device", "--help"}, &buf)

	require.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, buf.String(), "--oauth2.client.id")
	assert.Contains(t, buf.String(), "CONFIG_OAUTH2_CLIENT_ID")
}

func TestConfigVersionFlag(t *testing.T) {
	t.Parallel()

	_, err := config.New([]string{"pam-oauth2-device", "--version"}, &bytes.Buffer{})

	require.ErrorIs(t, err, config.ErrVersion)
}

func TestConfigFlagSet(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name         string
		args         []string
		expectConfig func(conf config.Config) config.Config
	}{
		{
			"--oauth2.scopes",
			[]string{"--oauth2.scopes=openid, email"},
			func(conf config.Config) config.Config {
				conf.OAuth2.Scopes = types.StringSlice{"openid", "email"}

				return conf
			},
		},
		{
			"--oauth2.timeout",
			[]string{"--oauth2.timeout=90s"},
			func(conf config.Config) config.Config {
				conf.OAuth2.Timeout = 90 * time.Second

				return conf
			},
		},
		{
			"--log.level",
			[]string{"--log.level=warn"},
			func(conf config.Config) config.Config {
				conf.Log.Level = slog.LevelWarn

				return conf
			},
		},
		{
			"--oauth2.endpoint.introspection",
			[]string{"--oauth2.endpoint.introspection=https://idp.example/introspect"},
			func(conf config.Config) config.Config {
				conf.OAuth2.Endpoints.Introspection = types.URL{URL: &url.URL{Scheme: "https", Host: "idp.example", Path: "/introspect"}}

				return conf
			},
		},
		{
			"--provision.enabled",
			[]string{"--provision.enabled", "--provision.group=staff", "--provision.useradd=/sbin/useradd"},
			func(conf config.Config) config.Config {
				conf.Provision.Enabled = true
				conf.Provision.Group = "staff"
				conf.Provision.UserAdd = "/sbin/useradd"

				return conf
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			conf, err := config.New(append([]string{"pam-oauth2-device"}, tc.args...), &bytes.Buffer{})
			require.NoError(t, err)

			assert.Equal(t, tc.expectConfig(config.Defaults), conf)
		})
	}
}

func TestConfigFlagOverridesFile(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte("oauth2:\n    client:\n        id: from-file\n"), 0o600))

	conf, err := config.New([]string{"pam-oauth2-device", "--config=" + filePath, "--oauth2.client.id=from-flag"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", conf.OAuth2.Client.ID)
}

//nolint:paralleltest
func TestConfigEnvironment(t *testing.T) {
	t.Setenv("CONFIG_OAUTH2_CLIENT_ID", "from-env")
	t.Setenv("CONFIG_OAUTH2_SLOW__DOWN__INCREMENT", "7s")
	t.Setenv("CONFIG_PROMPT_WAIT__FOR__ENTER", "true")

	conf, err := config.New([]string{"pam-oauth2-device"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "from-env", conf.OAuth2.Client.ID)
	assert.Equal(t, 7*time.Second, conf.OAuth2.SlowDownIncrement)
	assert.True(t, conf.Prompt.WaitForEnter)

	conf, err = config.New([]string{"pam-oauth2-device", "--oauth2.client.id=from-flag"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", conf.OAuth2.Client.ID)
}
