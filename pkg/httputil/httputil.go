// Package httputil provides shared HTTP client construction for the bridge.
// It centralizes the timeout budgets used against the remote TTS service so
// that no network call can block its caller indefinitely.
package httputil

import (
	"net"
	"net/http"
	"time"
)

// Standard timeout budgets.
const (
	// DefaultCatalogTimeout bounds a full speaker-list round trip, body included.
	DefaultCatalogTimeout = 15 * time.Second

	// DefaultSynthesisTimeout bounds the wait for the synthesis response headers.
	// The reference server renders the whole utterance before replying, so this
	// is effectively the generation budget.
	DefaultSynthesisTimeout = 120 * time.Second

	// DefaultDialTimeout bounds establishing the TCP connection.
	DefaultDialTimeout = 10 * time.Second

	defaultIdleConnTimeout = 90 * time.Second
	defaultMaxIdleConns    = 16
)

// NewHTTPClient returns an *http.Client whose Timeout covers the entire
// exchange, including reading the body.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// NewStreamingHTTPClient returns an *http.Client suitable for responses whose
// body is handed to the caller unconsumed. The overall client timeout is left
// unset (it would cut long audio streams short); instead the dial and the
// wait for response headers are bounded.
func NewStreamingHTTPClient(headerTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultDialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: headerTimeout,
		IdleConnTimeout:       defaultIdleConnTimeout,
		MaxIdleConns:          defaultMaxIdleConns,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport}
}
