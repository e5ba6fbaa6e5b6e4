package config

import (
	"log/slog"
	"time"

	"github.com/jkroepke/pam-oauth2-device/internal/config/types"
)

const (
	ValidationIntrospection = "introspection"
	ValidationJWKS          = "jwks"

	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

//nolint:gochecknoglobals
var Defaults = Config{
	Log: Log{
		Format: LogFormatConsole,
		Level:  slog.LevelInfo,
	},
	HTTP: HTTP{
		Timeout: 30 * time.Second,
	},
	OAuth2: OAuth2{
		Scopes:            types.StringSlice{"openid", "profile"},
		RedirectURI:       "urn:ietf:wg:oauth:2.0:oob",
		Validation:        ValidationIntrospection,
		SlowDownIncrement: 5 * time.Second,
		Validate: OAuth2Validate{
			UsernameClaim: "preferred_username",
		},
	},
	Prompt: Prompt{
		Language: "en",
		QRCode:   true,
	},
	Provision: Provision{
		Enabled: false,
		Shell:   "/bin/bash",
		UserAdd: "/usr/sbin/useradd",
		UserMod: "/usr/sbin/usermod",
	},
}
