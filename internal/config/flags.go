package config

import (
	"flag"
)

//goland:noinspection GoMixedReceiverTypes
func (c *Config) flagSetLog(flagSet *flag.FlagSet) {
	c.registerStringFlag(flagSet, &c.Log.Format, "log.format",
		"log format. json or console")
	c.registerTextFlag(flagSet, &c.Log.Level, "log.level",
		"log level. Can be one of: debug, info, warn, error")
	c.registerStringFlag(flagSet, &c.Log.Path, "log.path",
		"append logs to this file instead of stderr")
}

//goland:noinspection GoMixedReceiverTypes
func (c *Config) flagSetHTTP(flagSet *flag.FlagSet) {
	c.registerDurationFlag(flagSet, &c.HTTP.Timeout, "http.timeout",
		"timeout of a single request to the identity provider")
	c.registerStringFlag(flagSet, &c.HTTP.CAFile, "http.ca-file",
		"path to a PEM file with additional CA certificates trusted for the identity provider")
}

//goland:noinspection GoMixedReceiverTypes
func (c *Config) flagSetOAuth2(flagSet *flag.FlagSet) {
	c.registerTextFlag(flagSet, &c.OAuth2.Issuer, "oauth2.issuer",
		"oauth2 issuer. Endpoints which are not configured explicitly are discovered from it")
	c.registerStringFlag(flagSet, &c.OAuth2.Tenant, "oauth2.tenant",
		"tenant id which replaces {tenantid} in oauth2.validate.issuers. "+
			"If empty or common, the tid claim of the token is used")
	c.registerStringFlag(flagSet, &c.OAuth2.Client.ID, "oauth2.client.id",
		"oauth2 client id")
	c.registerTextFlag(flagSet, &c.OAuth2.Client.Secret, "oauth2.client.secret",
		"oauth2 client secret. If argument starts with file:// it reads the secret from a file.")
	c.registerTextFlag(flagSet, &c.OAuth2.Scopes, "oauth2.scopes",
		"oauth2 scopes requested and required to be granted. Comma separated list")
	c.registerStringFlag(flagSet, &c.OAuth2.RedirectURI, "oauth2.redirect-uri",
		"redirect_uri sent with the device authorization request")
	c.registerTextFlag(flagSet, &c.OAuth2.Endpoints.Discovery, "oauth2.endpoint.discovery",
		"custom oauth2 discovery url")
	c.registerTextFlag(flagSet, &c.OAuth2.Endpoints.Device, "oauth2.endpoint.device",
		"custom oauth2 device authorization endpoint")
	c.registerTextFlag(flagSet, &c.OAuth2.Endpoints.Token, "oauth2.endpoint.token",
		"custom oauth2 token endpoint")
	c.registerTextFlag(flagSet, &c.OAuth2.Endpoints.Introspection, "oauth2.endpoint.introspection",
		"custom oauth2 token introspection endpoint")
	c.registerTextFlag(flagSet, &c.OAuth2.Endpoints.Keys, "oauth2.endpoint.keys",
		"custom oauth2 JSON web key set endpoint")
	c.registerDurationFlag(flagSet, &c.OAuth2.Timeout, "oauth2.timeout",
		"maximum time a user has to complete the login. 0 uses the lifetime of the device code")
	c.registerDurationFlag(flagSet, &c.OAuth2.SlowDownIncrement, "oauth2.slow-down-increment",
		"added to the polling interval each time the provider answers slow_down")
	c.registerStringFlag(flagSet, &c.OAuth2.Validation, "oauth2.validation",
		"token validation strategy. introspection or jwks")
	c.registerTextFlag(flagSet, &c.OAuth2.Validate.Issuers, "oauth2.validate.issuers",
		"accepted token issuers for jwks validation. Can contain {tenantid}. Defaults to oauth2.issuer")
	c.registerStringFlag(flagSet, &c.OAuth2.Validate.UsernameClaim, "oauth2.validate.username-claim",
		"token claim holding the username for jwks validation")
	c.registerStringFlag(flagSet, &c.OAuth2.Validate.CEL, "oauth2.validate.cel",
		"CEL expression which must evaluate to true. Variables: localUsername, tokenClaims")
}

//goland:noinspection GoMixedReceiverTypes
func (c *Config) flagSetPrompt(flagSet *flag.FlagSet) {
	c.registerTextFlag(flagSet, &c.Prompt.Template, "prompt.template",
		"path to a text/template file rendering the login instructions")
	c.registerStringFlag(flagSet, &c.Prompt.Language, "prompt.language",
		"language of the login instructions. en or de")
	c.registerBoolFlag(flagSet, &c.Prompt.QRCode, "prompt.qrcode",
		"show the verification link as QR code")
	c.registerBoolFlag(flagSet, &c.Prompt.WaitForEnter, "prompt.wait-for-enter",
		"ask the user to press ENTER after the login in the web browser")
}

//goland:noinspection GoMixedReceiverTypes
func (c *Config) flagSetProvision(flagSet *flag.FlagSet) {
	c.registerBoolFlag(flagSet, &c.Provision.Enabled, "provision.enabled",
		"create the local user after a successful login if it does not exist")
	c.registerStringFlag(flagSet, &c.Provision.Group, "provision.group",
		"add created users to this group")
	c.registerStringFlag(flagSet, &c.Provision.Shell, "provision.shell",
		"login shell of created users")
	c.registerStringFlag(flagSet, &c.Provision.UserAdd, "provision.useradd",
		"absolute path of the useradd binary")
	c.registerStringFlag(flagSet, &c.Provision.UserMod, "provision.usermod",
		"absolute path of the usermod binary")
}
