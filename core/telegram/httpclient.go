package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/menubot/core/telegram/netutil"
)

// HTTPOptions tunes the Bot API client. Zero values select defaults.
type HTTPOptions struct {
	// Timeout must exceed the long-poll timeout or getUpdates will abort.
	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
}

// BuildHTTPClient returns an HTTP client for Bot API calls that retries
// transient transport failures.
func BuildHTTPClient(opts HTTPOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &retryTransport{
			base:    transport,
			retries: opts.Retries,
			backoff: opts.RetryBackoff,
		},
	}
}

type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

// RoundTrip replays requests whose body can be rebuilt; others get a
// single attempt.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	for attempt := 1; attempt <= t.retries && err != nil && netutil.ShouldRetry(err); attempt++ {
		if req.Body != nil && req.GetBody == nil {
			break
		}
		timer := time.NewTimer(t.backoff * time.Duration(attempt))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}

		retry := req.Clone(req.Context())
		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, bodyErr
			}
			retry.Body = body
		}
		resp, err = t.base.RoundTrip(retry)
	}
	return resp, err
}
