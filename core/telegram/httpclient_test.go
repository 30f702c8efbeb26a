package telegram

import (
	"net"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedTransport struct {
	errs  []error
	calls int
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func newRetryTransport(base http.RoundTripper) *retryTransport {
	return &retryTransport{base: base, retries: 2, backoff: time.Millisecond}
}

func TestRetryTransportRetriesDialFailures(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	base := &scriptedTransport{errs: []error{dial, dial}}

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader("text=hi"))
	require.NoError(t, err)

	resp, err := newRetryTransport(base).RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, base.calls)
}

func TestRetryTransportKeepsPostsAfterSend(t *testing.T) {
	reset := &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}
	base := &scriptedTransport{errs: []error{reset}}

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader("text=hi"))
	require.NoError(t, err)

	_, err = newRetryTransport(base).RoundTrip(req)
	require.ErrorIs(t, err, syscall.ECONNRESET)
	assert.Equal(t, 1, base.calls)
}

func TestRetryTransportRetriesTransientGets(t *testing.T) {
	reset := &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}
	base := &scriptedTransport{errs: []error{reset}}

	req, err := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	require.NoError(t, err)

	_, err = newRetryTransport(base).RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, 2, base.calls)
}

func TestHTTPClientOptionsDefaults(t *testing.T) {
	o := HTTPClientOptions{}.withDefaults()
	assert.Equal(t, defaultClientTimeout, o.Timeout)
	assert.Equal(t, defaultRetries, o.Retries)

	o = HTTPClientOptions{Retries: -1}.withDefaults()
	assert.Zero(t, o.Retries)
}
