// Package network builds the HTTP clients used for page, manifest and segment requests.
package network

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the per-request timeout used when none is configured.
const DefaultTimeout = 30 * time.Second

// Options configures a client built by NewClient.
type Options struct {
	Timeout time.Duration
	// Proxy applies to both http and https requests.
	Proxy string
	// Fingerprint makes TLS handshakes look like Chrome 120. It is ignored when a proxy is set.
	Fingerprint bool
}

// Client is a shared client with the tuned transport and default timeout.
var Client = &http.Client{
	Timeout:   DefaultTimeout,
	Transport: newTransport(),
}

// NewClient returns a client for the given options.
func NewClient(options Options) (*http.Client, error) {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if options.Proxy != "" {
		proxy, err := url.Parse(options.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", options.Proxy, err)
		}

		t := newTransport()
		t.Proxy = http.ProxyURL(proxy)
		return &http.Client{Timeout: timeout, Transport: t}, nil
	}

	if options.Fingerprint {
		return &http.Client{Timeout: timeout, Transport: newChromeTransport(timeout)}, nil
	}

	return &http.Client{Timeout: timeout, Transport: newTransport()}, nil
}

// newTransport initializes a tuned http.Transport. Segments are fetched one by one,
// so a small idle pool per host is enough.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 20
	t.MaxIdleConnsPerHost = 4
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = DefaultTimeout
	t.ExpectContinueTimeout = time.Second
	return t
}
