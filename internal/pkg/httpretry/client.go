// Package httpretry wraps an HTTP client with bounded retries.
//
// The outbound calls that go through it are status polls against the agent
// service and webhook deliveries, both of which shed load with 429s and
// transient 5xxs. Retries use exponential backoff with jitter and honor a
// Retry-After header when the server sends one.
package httpretry

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/growthbench/planforge/internal/pkg/logger"
)

// HTTPDoer is satisfied by *http.Client, *RetryClient, and test fakes.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryClient retries requests that fail with a transient error or a
// retryable status code. Client errors (4xx other than 429) pass through
// untouched, and the final response is always returned as-is so the caller
// can read the body.
type RetryClient struct {
	inner HTTPDoer
	max   int
	base  time.Duration
	cap   time.Duration
}

// NewRetryClient wraps client with up to maxRetries retries after the
// initial attempt. A nil client gets a 30s-timeout http.Client; a
// non-positive maxRetries defaults to 3.
func NewRetryClient(client HTTPDoer, maxRetries int) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RetryClient{
		inner: client,
		max:   maxRetries,
		base:  500 * time.Millisecond,
		cap:   20 * time.Second,
	}
}

// Do executes the request, retrying on network errors and on 429, 500, 502,
// 503 and 504. Context cancellation stops the loop immediately.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	var serverHint time.Duration

	for attempt := 0; attempt <= rc.max; attempt++ {
		if attempt > 0 {
			if err := rewindBody(req); err != nil {
				return nil, err
			}
			delay := rc.backoff(attempt)
			if serverHint > delay {
				delay = serverHint
			}
			logger.Debug("retrying request",
				"attempt", attempt, "max", rc.max,
				"method", req.Method, "host", req.URL.Host, "delay", delay.String())
			select {
			case <-time.After(delay):
			case <-req.Context().Done():
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, req.Context().Err()
			}
		}

		resp, err := rc.inner.Do(req)
		if err != nil {
			// A canceled or expired context is the caller's signal to stop.
			if req.Context().Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}

		if !retryableStatus(resp.StatusCode) || attempt == rc.max {
			return resp, nil
		}

		serverHint = retryAfter(resp)
		// Drain so the underlying connection can be reused.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: status %d from %s", resp.StatusCode, req.URL.Host)
	}

	return nil, lastErr
}

func rewindBody(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("httpretry: rewind request body: %w", err)
	}
	req.Body = body
	return nil
}

// backoff returns a jittered delay in [d/2, d] where d doubles per attempt
// from the base, capped at rc.cap.
func (rc *RetryClient) backoff(attempt int) time.Duration {
	d := rc.base << uint(attempt-1)
	if d > rc.cap || d <= 0 {
		d = rc.cap
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// retryAfter parses a delay-seconds Retry-After header. HTTP-date values and
// absent headers yield zero, leaving the backoff schedule in charge.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
