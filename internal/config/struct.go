package config

import (
	"log/slog"
	"time"

	"github.com/jkroepke/pam-oauth2-device/internal/config/types"
)

type Config struct {
	ConfigFile string    `json:"config"    yaml:"config"`
	Log        Log       `json:"log"       yaml:"log"`
	HTTP       HTTP      `json:"http"      yaml:"http"`
	OAuth2     OAuth2    `json:"oauth2"    yaml:"oauth2"`
	Prompt     Prompt    `json:"prompt"    yaml:"prompt"`
	Provision  Provision `json:"provision" yaml:"provision"`
}

type Log struct {
	Format string     `json:"format" yaml:"format"`
	Path   string     `json:"path"   yaml:"path"`
	Level  slog.Level `json:"level"  yaml:"level"`
}

type HTTP struct {
	CAFile  string        `json:"ca-file" yaml:"ca-file"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

type OAuth2 struct {
	Issuer            types.URL         `json:"issuer"              yaml:"issuer"`
	Tenant            string            `json:"tenant"              yaml:"tenant"`
	Client            OAuth2Client      `json:"client"              yaml:"client"`
	Scopes            types.StringSlice `json:"scopes"              yaml:"scopes"`
	RedirectURI       string            `json:"redirect-uri"        yaml:"redirect-uri"`
	Endpoints         OAuth2Endpoints   `json:"endpoint"            yaml:"endpoint"`
	Validation        string            `json:"validation"          yaml:"validation"`
	Validate          OAuth2Validate    `json:"validate"            yaml:"validate"`
	Timeout           time.Duration     `json:"timeout"             yaml:"timeout"`
	SlowDownIncrement time.Duration     `json:"slow-down-increment" yaml:"slow-down-increment"`
}

type OAuth2Client struct {
	ID     string       `json:"id"     yaml:"id"`
	Secret types.Secret `json:"secret" yaml:"secret"`
}

type OAuth2Endpoints struct {
	Discovery     types.URL `json:"discovery"     yaml:"discovery"`
	Device        types.URL `json:"device"        yaml:"device"`
	Token         types.URL `json:"token"         yaml:"token"`
	Introspection types.URL `json:"introspection" yaml:"introspection"`
	Keys          types.URL `json:"keys"          yaml:"keys"`
}

type OAuth2Validate struct {
	Issuers       types.StringSlice `json:"issuers"        yaml:"issuers"`
	UsernameClaim string            `json:"username-claim" yaml:"username-claim"`
	CEL           string            `json:"cel"            yaml:"cel"`
}

type Prompt struct {
	Template     types.Template `json:"template"       yaml:"template"`
	Language     string         `json:"language"       yaml:"language"`
	QRCode       bool           `json:"qrcode"         yaml:"qrcode"`
	WaitForEnter bool           `json:"wait-for-enter" yaml:"wait-for-enter"`
}

type Provision struct {
	Group   string `json:"group"   yaml:"group"`
	Shell   string `json:"shell"   yaml:"shell"`
	UserAdd string `json:"useradd" yaml:"useradd"`
	UserMod string `json:"usermod" yaml:"usermod"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}
