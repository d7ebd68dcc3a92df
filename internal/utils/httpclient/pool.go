package httpclient

import (
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	sharedTransport http.RoundTripper
	transportOnce   sync.Once
)

// transport returns the process-wide traced transport shared by all clients
func transport() http.RoundTripper {
	transportOnce.Do(func() {
		base := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
		}
		sharedTransport = otelhttp.NewTransport(base)
	})
	return sharedTransport
}

// New returns an HTTP client with the given overall timeout.
// Clients share one connection pool and propagate trace context.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: transport(),
	}
}
