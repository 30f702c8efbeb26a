package telegram

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/kitbot/core/telegram/netutil"
)

// HTTPClientOptions tunes the Telegram API client. Zero values pick defaults.
type HTTPClientOptions struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

const (
	defaultClientTimeout = 30 * time.Second
	defaultRetries       = 3
	defaultRetryBackoff  = 2 * time.Second
)

func (o HTTPClientOptions) withDefaults() HTTPClientOptions {
	if o.Timeout <= 0 {
		o.Timeout = defaultClientTimeout
	}
	if o.Retries < 0 {
		o.Retries = 0
	} else if o.Retries == 0 {
		o.Retries = defaultRetries
	}
	if o.Backoff <= 0 {
		o.Backoff = defaultRetryBackoff
	}
	return o
}

// BuildHTTPClient returns the client used for Bot API calls.
func BuildHTTPClient(opts HTTPClientOptions) *http.Client {
	opts = opts.withDefaults()
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &retryTransport{
			base:    base,
			retries: opts.Retries,
			backoff: opts.Backoff,
		},
	}
}

// retryTransport repeats a request only when it never reached Telegram, or
// when it is a GET and the failure was transient. Bot API sends are POSTs and
// repeating one that was delivered would duplicate the message.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.retries && t.retryable(req, err); attempt++ {
		next, rerr := rewind(req)
		if rerr != nil {
			return nil, err
		}
		timer := time.NewTimer(t.backoff * time.Duration(attempt))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
		resp, err = t.base.RoundTrip(next)
	}
	return resp, err
}

func (t *retryTransport) retryable(req *http.Request, err error) bool {
	if netutil.NotSent(err) {
		return true
	}
	return req.Method == http.MethodGet && netutil.Transient(err)
}

var errNoRewind = errors.New("telegram: request body cannot be replayed")

func rewind(req *http.Request) (*http.Request, error) {
	next := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return next, nil
	}
	if req.GetBody == nil {
		return nil, errNoRewind
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	next.Body = body
	return next, nil
}
