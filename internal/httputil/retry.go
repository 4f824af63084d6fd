// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the collectors.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Policy describes how a collector retries a single request. Attempts are
// counted from 1; a policy with MaxAttempts 5 issues at most 5 requests.
type Policy struct {
	// MaxAttempts is the total request budget, including the first try.
	MaxAttempts int

	// Backoff returns the delay before retrying after the given attempt.
	Backoff func(attempt int) time.Duration

	// RetryStatus reports whether a response status code is transient.
	RetryStatus func(code int) bool

	// RetryTransport retries transport-level errors (connection refused,
	// timeouts) in addition to retryable statuses.
	RetryTransport bool
}

// ExpBackoff returns an exponential backoff schedule: base, 2*base,
// 4*base, ... with delays clamped to max.
func ExpBackoff(base, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base << (attempt - 1)
		if d > max || d <= 0 {
			return max
		}
		return d
	}
}

// LinearBackoff returns a linear backoff schedule: step, 2*step, 3*step, ...
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// DoWithRetry executes req, retrying per the policy. On a retryable
// response the body is drained and closed before sleeping. If the context
// is cancelled during a backoff wait the function returns ctx.Err().
// After exhausting the budget the last response (or transport error) is
// returned as-is so the caller can inspect status and body.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if !p.RetryTransport || attempt >= p.MaxAttempts {
				return nil, err
			}
		} else {
			if p.RetryStatus == nil || !p.RetryStatus(resp.StatusCode) {
				return resp, nil
			}
			if attempt >= p.MaxAttempts {
				return resp, nil
			}
			// Drain and close the body before retrying.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		var backoff time.Duration
		if p.Backoff != nil {
			backoff = p.Backoff(attempt)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// Transient reports whether a status code indicates a transient upstream
// failure: 429 or any 5xx.
func Transient(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// StatusError builds an error describing a non-2xx response, capturing a
// bounded prefix of the body. The body is consumed but not closed.
func StatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if len(body) == 0 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
}
