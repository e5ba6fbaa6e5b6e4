package oauth2

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jkroepke/pam-oauth2-device/internal/oauth2/types"
	"github.com/zitadel/logging"
	"github.com/zitadel/oidc/v3/pkg/oidc"
	"golang.org/x/oauth2"
)

// DefaultInterval is used when the provider does not announce a polling interval.
const DefaultInterval = 5 * time.Second

// Client talks to the device authorization, token, introspection and key set
// endpoints of an OAuth2 provider. Every call performs exactly one request.
type Client struct {
	httpClient       *http.Client
	conf             *oauth2.Config
	now              func() time.Time
	introspectionURL string
}

// NewClient returns a provider client. The device authorization and token
// endpoints are taken from conf.Endpoint.
func NewClient(httpClient *http.Client, conf *oauth2.Config, introspectionURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient:       httpClient,
		conf:             conf,
		introspectionURL: introspectionURL,
		now:              time.Now,
	}
}

// DeviceAuthorize requests a new device code.
func (c *Client) DeviceAuthorize(ctx context.Context, scopes []string) (types.DeviceAuthorization, error) {
	form := url.Values{
		"client_id":     {c.conf.ClientID},
		"client_secret": {c.conf.ClientSecret},
		"scope":         {strings.Join(scopes, " ")},
		"redirect_uri":  {c.conf.RedirectURL},
	}

	resp, err := c.postForm(ctx, c.conf.Endpoint.DeviceAuthURL, form, false)
	if err != nil {
		return types.DeviceAuthorization{}, err
	}

	var data deviceAuthorizationResponse
	if err = resp.decode(&data); err != nil {
		return types.DeviceAuthorization{}, err
	}

	issuedAt := c.now()

	auth := types.DeviceAuthorization{
		DeviceCode:              data.DeviceCode,
		UserCode:                data.UserCode,
		VerificationURI:         data.VerificationURI,
		VerificationURIComplete: data.VerificationURIComplete,
		IssuedAt:                issuedAt,
		ExpiresAt:               issuedAt.Add(time.Duration(data.ExpiresIn) * time.Second),
		Interval:                time.Duration(data.Interval) * time.Second,
	}

	// Google and older Microsoft endpoints use verification_url.
	if auth.VerificationURI == "" {
		auth.VerificationURI = data.VerificationURL
	}

	switch {
	case auth.DeviceCode == "":
		return types.DeviceAuthorization{}, resp.malformed(errors.New("missing device_code"))
	case auth.UserCode == "":
		return types.DeviceAuthorization{}, resp.malformed(errors.New("missing user_code"))
	case auth.VerificationURI == "":
		return types.DeviceAuthorization{}, resp.malformed(errors.New("missing verification_uri"))
	case data.ExpiresIn <= 0:
		return types.DeviceAuthorization{}, resp.malformed(errors.New("missing or invalid expires_in"))
	}

	if auth.Interval < time.Second {
		auth.Interval = DefaultInterval
	}

	loggerFromContext(ctx).LogAttrs(ctx, slog.LevelDebug, "device authorization received",
		slog.Any("device_authorization", auth),
	)

	return auth, nil
}

// PollToken asks the token endpoint once whether the device code has been authorized.
func (c *Client) PollToken(ctx context.Context, deviceCode string) (*oauth2.Token, error) {
	form := url.Values{
		"client_id":     {c.conf.ClientID},
		"client_secret": {c.conf.ClientSecret},
		"grant_type":    {string(oidc.GrantTypeDeviceCode)},
		"device_code":   {deviceCode},
	}

	resp, err := c.postForm(ctx, c.conf.Endpoint.TokenURL, form, false)
	if err != nil {
		return nil, err
	}

	var data tokenResponse
	if err = resp.decode(&data); err != nil {
		return nil, err
	}

	if data.AccessToken == "" {
		return nil, resp.malformed(errors.New("missing access_token"))
	}

	token := &oauth2.Token{
		AccessToken:  data.AccessToken,
		TokenType:    data.TokenType,
		RefreshToken: data.RefreshToken,
	}

	if data.ExpiresIn > 0 {
		token.Expiry = c.now().Add(time.Duration(data.ExpiresIn) * time.Second)
	}

	extra := map[string]any{}
	if data.IDToken != "" {
		extra["id_token"] = data.IDToken
	}

	if data.Scope != "" {
		extra["scope"] = data.Scope
	}

	return token.WithExtra(extra), nil
}

// Introspect asks the introspection endpoint about the given token.
// The client authenticates with HTTP basic auth.
func (c *Client) Introspect(ctx context.Context, token string) (types.Claims, error) {
	if c.introspectionURL == "" {
		return types.Claims{}, &Error{Kind: KindMalformed, Err: ErrIntrospectionNotConfigured}
	}

	resp, err := c.postForm(ctx, c.introspectionURL, url.Values{"token": {token}}, true)
	if err != nil {
		return types.Claims{}, err
	}

	var data introspectionResponse
	if err = resp.decode(&data); err != nil {
		return types.Claims{}, err
	}

	if data.Active == nil {
		return types.Claims{}, resp.malformed(errors.New("missing active"))
	}

	claims := types.Claims{
		Active:   *data.Active,
		Issuer:   data.Issuer,
		Subject:  data.Subject,
		Audience: data.Audience,
	}

	if data.Username != nil {
		claims.Username = *data.Username
	}

	if data.Scope != nil {
		claims.Scopes = types.ParseScopes(*data.Scope)
	}

	if data.Exp != nil {
		claims.Expiry = time.Unix(int64(*data.Exp), 0)
	}

	if err = json.Unmarshal(resp.body, &claims.Raw); err != nil {
		return types.Claims{}, resp.malformed(err)
	}

	return claims, nil
}

// FetchKeys downloads the JSON Web Key Set from keySetURL. Both the standard
// {"keys": [...]} document and a bare array of keys are accepted.
func (c *Client) FetchKeys(ctx context.Context, keySetURL string) (types.KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, keySetURL, nil)
	if err != nil {
		return types.KeySet{}, fmt.Errorf("error creating request context with URL %s: %w", keySetURL, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return types.KeySet{}, err
	}

	if resp.statusCode != http.StatusOK {
		if err = resp.providerError(); err != nil {
			return types.KeySet{}, err
		}

		return types.KeySet{}, resp.malformed(errors.New("unexpected status"))
	}

	var keySet types.KeySet

	body := bytes.TrimSpace(resp.body)
	if bytes.HasPrefix(body, []byte("[")) {
		err = json.Unmarshal(body, &keySet.Keys)
	} else {
		err = json.Unmarshal(body, &keySet.JSONWebKeySet)
	}

	if err != nil {
		return types.KeySet{}, resp.malformed(fmt.Errorf("unable to decode key set: %w", err))
	}

	if len(keySet.Keys) == 0 {
		return types.KeySet{}, resp.malformed(errors.New("key set contains no keys"))
	}

	return keySet, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, basicAuth bool) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error creating request context with URL %s: %w", endpoint, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	if basicAuth {
		// RFC 6749 section 2.3.1 requires form encoding of the credentials.
		req.SetBasicAuth(url.QueryEscape(c.conf.ClientID), url.QueryEscape(c.conf.ClientSecret))
	}

	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *http.Request) (*response, error) {
	logger := loggerFromContext(ctx)
	endpoint := req.URL.Redacted()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: fmt.Errorf("error calling %s: %w", endpoint, err)}
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			Kind:       KindNetwork,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unable to read body from %s: %w", endpoint, err),
		}
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "provider response received",
		slog.String("method", req.Method),
		slog.String("url", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Int("body_length", len(body)),
	)

	return &response{
		endpoint:    endpoint,
		contentType: resp.Header.Get("Content-Type"),
		statusCode:  resp.StatusCode,
		body:        body,
	}, nil
}

func loggerFromContext(ctx context.Context) *slog.Logger {
	logger, ok := logging.FromContext(ctx)
	if !ok {
		return slog.Default()
	}

	return logger
}

type response struct {
	endpoint    string
	contentType string
	body        []byte
	statusCode  int
}

// decode interprets the body. A structured error wins over the status code,
// since some providers report errors with HTTP 200.
func (r *response) decode(v any) error {
	if err := r.providerError(); err != nil {
		return err
	}

	if r.statusCode < 200 || r.statusCode > 299 {
		return r.malformed(errors.New("unexpected status"))
	}

	if err := json.Unmarshal(r.body, v); err != nil {
		return r.malformed(fmt.Errorf("unable to decode JSON: %w", err))
	}

	return nil
}

// providerError returns the structured OAuth2 error carried by the body, if any.
func (r *response) providerError() error {
	var data errorResponse
	if err := json.Unmarshal(r.body, &data); err != nil || data.Error == "" {
		if r.statusCode >= 400 {
			// some providers send form encoded errors
			values, err := url.ParseQuery(string(r.body))
			if err == nil && values.Get("error") != "" && r.isForm() {
				return newProviderError(r.statusCode, values.Get("error"), values.Get("error_description"))
			}
		}

		return nil
	}

	return newProviderError(r.statusCode, data.Error, data.ErrorDescription)
}

func (r *response) isForm() bool {
	mediaType, _, err := mime.ParseMediaType(r.contentType)

	return err == nil && mediaType == "application/x-www-form-urlencoded"
}

// malformed never includes the body, since a successful response may carry secrets.
func (r *response) malformed(err error) error {
	return &Error{
		Kind:       KindMalformed,
		StatusCode: r.statusCode,
		Err: fmt.Errorf("%s returned %d bytes of %s: %w",
			r.endpoint, len(r.body), strconv.Quote(r.contentType), err),
	}
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type deviceAuthorizationResponse struct {
	DeviceCode              string     `json:"device_code"`
	UserCode                string     `json:"user_code"`
	VerificationURI         string     `json:"verification_uri"`
	VerificationURL         string     `json:"verification_url"`
	VerificationURIComplete string     `json:"verification_uri_complete"`
	ExpiresIn               flexNumber `json:"expires_in"`
	Interval                flexNumber `json:"interval"`
}

type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	TokenType    string     `json:"token_type"`
	RefreshToken string     `json:"refresh_token"`
	IDToken      string     `json:"id_token"`
	Scope        string     `json:"scope"`
	ExpiresIn    flexNumber `json:"expires_in"`
}

type introspectionResponse struct {
	Active   *bool         `json:"active"`
	Scope    *string       `json:"scope"`
	Username *string       `json:"username"`
	Exp      *flexNumber   `json:"exp"`
	Issuer   string        `json:"iss"`
	Subject  string        `json:"sub"`
	Audience oidc.Audience `json:"aud"`
}

// maxSeconds is the largest number of seconds a [time.Duration] can hold.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// flexNumber accepts JSON numbers as well as numbers encoded as strings.
// Values must fit into a [time.Duration] of seconds.
type flexNumber int64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		*n = 0

		return nil
	}

	number, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", data, err)
	}

	if math.IsNaN(number) || math.IsInf(number, 0) || math.Abs(number) > float64(maxSeconds) {
		return fmt.Errorf("number %s out of range", data)
	}

	*n = flexNumber(number)

	return nil
}
