package utils

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

const UserAgent = "pam-oauth2-device"

var ErrNoCertificates = errors.New("no certificates found")

type UserAgentTransport struct {
	rt http.RoundTripper
}

func NewUserAgentTransport(rt http.RoundTripper) *UserAgentTransport {
	if rt == nil {
		rt = http.DefaultTransport
	}

	return &UserAgentTransport{rt}
}

func (adt *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", UserAgent)

	return adt.rt.RoundTrip(req) //nolint: wrapcheck
}

// NewHTTPClient returns the client used for all provider calls. If caFile is
// non-empty, the PEM bundle replaces the system roots.
func NewHTTPClient(timeout time.Duration, caFile string) (*http.Client, error) {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("unexpected default transport")
	}

	transport = transport.Clone()

	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("error reading CA file %s: %w", caFile, err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w in %s", ErrNoCertificates, caFile)
		}

		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    pool,
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: NewUserAgentTransport(transport),
	}, nil
}
