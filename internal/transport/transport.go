// SPDX-License-Identifier: MPL-2.0

// Package transport is the authenticated HTTP layer every registry call
// goes through. It attaches the API key, applies the retry policy, and
// classifies each exchange into a terminal Outcome instead of leaking raw
// HTTP errors upward.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
)

const (
	// APIKeyHeader carries the registry API key on authenticated requests.
	APIKeyHeader = "X-NuGet-ApiKey"

	// maxResponseBytes is the upper bound on buffered response bodies (10 MB).
	// Prevents unbounded memory consumption from malformed or hostile servers.
	maxResponseBytes = 10 << 20
)

// Status is the terminal classification of an exchange.
type Status int

const (
	// StatusSuccess means the request completed with a 2xx response.
	StatusSuccess Status = iota
	// StatusRetryable means the failure class is transient. It is surfaced
	// once the retry budget is spent, or immediately when retrying would be
	// unsafe for the request.
	StatusRetryable
	// StatusFatal means retrying cannot help (client error, auth failure,
	// cancellation).
	StatusFatal
)

// Reason refines a Status with the failure class that produced it.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonNetwork         Reason = "network"
	ReasonTimeout         Reason = "timeout"
	ReasonThrottled       Reason = "throttled"
	ReasonServerError     Reason = "server_error"
	ReasonClientError     Reason = "client_error"
	ReasonCanceled        Reason = "canceled"
)

type (
	// Request describes one registry exchange. Idempotent marks requests
	// that are safe to repeat after a response was received; requests that
	// mutate server state exactly once (publish) must leave it false.
	Request struct {
		Method       string
		URL          string
		Header       http.Header
		Body         []byte
		RequiresAuth bool
		Idempotent   bool
		// Timeout bounds this single call including retries. Zero means the
		// caller's context is the only bound.
		Timeout time.Duration
	}

	// Outcome is the terminal result of Send. Body holds the (bounded)
	// response body for both successes and failures; Attempts counts the
	// HTTP round trips performed.
	Outcome struct {
		Status     Status
		Reason     Reason
		HTTPStatus int
		Body       []byte
		Attempts   int
		Err        error
	}

	// Policy bounds the retry loop.
	Policy struct {
		MaxAttempts int
		MaxElapsed  time.Duration
		BaseDelay   time.Duration
	}

	// Client sends classified, authenticated, retried requests. Safe for
	// concurrent use; one shared Client per process is the intended shape.
	Client struct {
		httpClient *http.Client
		apiKey     string
		policy     Policy
		logger     *log.Logger
	}

	// Option configures a Client during construction.
	Option func(*Client)
)

// DefaultPolicy returns the stock retry bounds: 3 attempts within 30
// seconds, first backoff interval 500 ms.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		MaxElapsed:  30 * time.Second,
		BaseDelay:   500 * time.Millisecond,
	}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.Status == StatusSuccess }

// String renders the status for logs and error messages.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRetryable:
		return "retryable"
	case StatusFatal:
		return "fatal"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy
// configurations.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Client) { t.httpClient = c }
}

// WithAPIKey sets the API key attached to every request.
func WithAPIKey(key string) Option {
	return func(t *Client) { t.apiKey = key }
}

// WithPolicy overrides the retry policy.
func WithPolicy(p Policy) Option {
	return func(t *Client) { t.policy = p }
}

// WithLogger sets the structured logger used for per-attempt debug lines.
func WithLogger(l *log.Logger) Option {
	return func(t *Client) { t.logger = l }
}

// NewClient creates a Client with sensible defaults: http.DefaultClient,
// no API key, DefaultPolicy, and a discarding logger.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		policy:     DefaultPolicy(),
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send performs the exchange under the retry policy and returns its
// terminal Outcome. A request that requires authentication fails fast as
// Fatal/unauthenticated when no API key is configured, before any network
// round trip.
func (c *Client) Send(ctx context.Context, req Request) Outcome {
	if req.RequiresAuth && c.apiKey == "" {
		return Outcome{Status: StatusFatal, Reason: ReasonUnauthenticated}
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.policy.BaseDelay
	bo.MaxElapsedTime = c.policy.MaxElapsed
	bo.Reset()

	var last Outcome
	for attempt := 1; ; attempt++ {
		last = c.attempt(ctx, req)
		last.Attempts = attempt
		c.logger.Debug("request attempt finished",
			"method", req.Method, "url", req.URL,
			"attempt", attempt, "status", last.Status.String(),
			"http_status", last.HTTPStatus, "reason", string(last.Reason))

		if last.Status != StatusRetryable {
			return last
		}
		// A non-idempotent request that received any HTTP response must not
		// be repeated: the server may have applied it.
		if !req.Idempotent && last.HTTPStatus != 0 {
			return last
		}
		if attempt >= c.policy.MaxAttempts {
			return last
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return last
		}
		select {
		case <-ctx.Done():
			last.Status = StatusFatal
			last.Reason = ReasonCanceled
			last.Err = ctx.Err()
			return last
		case <-time.After(wait):
		}
	}
}

// attempt performs a single HTTP round trip and classifies its result.
// Attempts is left for the caller to fill in.
func (c *Client) attempt(ctx context.Context, req Request) Outcome {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return Outcome{Status: StatusFatal, Reason: ReasonClientError, Err: fmt.Errorf("creating request: %w", err)}
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if c.apiKey != "" {
		httpReq.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return Outcome{Status: StatusRetryable, Reason: ReasonNetwork, HTTPStatus: resp.StatusCode,
			Err: fmt.Errorf("reading response: %w", readErr)}
	}

	return classifyResponse(resp.StatusCode, body)
}

// classifyTransportError maps an error from the HTTP client (no response
// was received) into an Outcome. Pure network failures are retryable even
// for non-idempotent requests, since the server never answered.
func classifyTransportError(ctx context.Context, err error) Outcome {
	switch {
	case ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled):
		return Outcome{Status: StatusFatal, Reason: ReasonCanceled, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return Outcome{Status: StatusRetryable, Reason: ReasonTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Outcome{Status: StatusRetryable, Reason: ReasonTimeout, Err: err}
	}
	return Outcome{Status: StatusRetryable, Reason: ReasonNetwork, Err: err}
}

// classifyResponse maps an HTTP status into an Outcome. 429 and 5xx are
// transient; every other non-2xx is a hard client-side failure carrying
// the response body for diagnosis.
func classifyResponse(status int, body []byte) Outcome {
	switch {
	case status >= 200 && status < 300:
		return Outcome{Status: StatusSuccess, HTTPStatus: status, Body: body}
	case status == http.StatusTooManyRequests:
		return Outcome{Status: StatusRetryable, Reason: ReasonThrottled, HTTPStatus: status, Body: body}
	case status >= 500:
		return Outcome{Status: StatusRetryable, Reason: ReasonServerError, HTTPStatus: status, Body: body}
	default:
		return Outcome{Status: StatusFatal, Reason: ReasonClientError, HTTPStatus: status, Body: body}
	}
}
