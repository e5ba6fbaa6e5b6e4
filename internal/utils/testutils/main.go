package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"golang.org/x/oauth2"
)

const (
	ClientID = "pam-oauth2-device"
	Secret   = "0123456789101112"
)

const (
	PathDevice        = "/oauth2/device"
	PathToken         = "/oauth2/token"
	PathIntrospection = "/oauth2/introspect"
	PathKeys          = "/oauth2/keys"
	PathDiscovery     = "/.well-known/openid-configuration"
)

// Reply is a canned response of the fake provider.
type Reply struct {
	Header http.Header
	Body   string
	Status int
}

// JSONReply returns a Reply with an application/json body.
func JSONReply(status int, body string) Reply {
	return Reply{
		Status: status,
		Body:   body,
		Header: http.Header{"Content-Type": {"application/json"}},
	}
}

// Request is a request received by the fake provider.
type Request struct {
	Form      url.Values
	Method    string
	User      string
	Password  string
	BasicAuth bool
}

// Provider is an OAuth2 provider serving scripted replies.
// Each endpoint answers with its replies in order and repeats the last one.
type Provider struct {
	*httptest.Server

	replies  map[string][]Reply
	requests map[string][]Request
	mu       sync.Mutex
}

// SetupProvider starts a fake provider that is closed on test cleanup.
func SetupProvider(tb testing.TB) *Provider {
	tb.Helper()

	provider := &Provider{
		replies:  make(map[string][]Reply),
		requests: make(map[string][]Request),
	}

	mux := http.NewServeMux()
	for _, path := range []string{PathDevice, PathToken, PathIntrospection, PathKeys} {
		mux.HandleFunc(path, provider.handle(path))
	}

	mux.HandleFunc(PathDiscovery, provider.discovery)

	provider.Server = httptest.NewServer(mux)

	tb.Cleanup(provider.Close)

	return provider
}

// On sets the replies of the endpoint at path.
func (p *Provider) On(path string, replies ...Reply) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.replies[path] = replies
}

// Requests returns all requests the endpoint at path received.
func (p *Provider) Requests(path string) []Request {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]Request(nil), p.requests[path]...)
}

// Endpoint returns the absolute URL of path.
func (p *Provider) Endpoint(path string) string {
	return p.URL + path
}

// OAuth2Config returns a client configuration pointing to the fake provider.
func (p *Provider) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     ClientID,
		ClientSecret: Secret,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: p.Endpoint(PathDevice),
			TokenURL:      p.Endpoint(PathToken),
		},
	}
}

func (p *Provider) handle(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()

		user, password, basicAuth := r.BasicAuth()

		p.mu.Lock()
		p.requests[path] = append(p.requests[path], Request{
			Method:    r.Method,
			Form:      r.PostForm,
			User:      user,
			Password:  password,
			BasicAuth: basicAuth,
		})

		replies := p.replies[path]

		var reply Reply

		switch len(replies) {
		case 0:
			reply = Reply{Status: http.StatusNotImplemented, Body: "no reply configured"}
		case 1:
			reply = replies[0]
		default:
			reply = replies[0]
			p.replies[path] = replies[1:]
		}
		p.mu.Unlock()

		for key, values := range reply.Header {
			w.Header()[key] = values
		}

		w.WriteHeader(reply.Status)
		_, _ = w.Write([]byte(reply.Body))
	}
}

func (p *Provider) discovery(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	_ = json.NewEncoder(w).Encode(map[string]any{
		"issuer":                                p.URL,
		"device_authorization_endpoint":         p.Endpoint(PathDevice),
		"token_endpoint":                        p.Endpoint(PathToken),
		"introspection_endpoint":                p.Endpoint(PathIntrospection),
		"jwks_uri":                              p.Endpoint(PathKeys),
		"authorization_endpoint":                p.URL + "/oauth2/authorize",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}
