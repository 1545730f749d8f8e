// Package httpclient implements identity.Client against the provider's REST
// backend API, authenticated with the instance secret key.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dashgate/internal/identity"
	"dashgate/pkg/platform/circuit"
	"dashgate/pkg/platform/tracer"
)

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer receives per-call latency and failures. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveProviderCall(operation string, seconds float64)
	IncProviderError(operation, code string)
}

// Client talks to the provider. Safe for concurrent use. It never retries;
// the breaker only fails calls fast while the provider is known to be down.
type Client struct {
	baseURL   string
	secretKey string
	http      HTTPDoer
	breaker   *circuit.Breaker
	tracer    tracer.Tracer
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Client)

func WithHTTPClient(d HTTPDoer) Option      { return func(c *Client) { c.http = d } }
func WithBreaker(b *circuit.Breaker) Option { return func(c *Client) { c.breaker = b } }
func WithTracer(t tracer.Tracer) Option     { return func(c *Client) { c.tracer = t } }
func WithObserver(o Observer) Option        { return func(c *Client) { c.observer = o } }
func WithLogger(l *slog.Logger) Option      { return func(c *Client) { c.logger = l } }

// New builds a client for baseURL (e.g. "https://api.identity.example").
// timeout applies to the default http.Client only.
func New(baseURL, secretKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		tracer:    tracer.Noop{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		c.http = &http.Client{Timeout: timeout}
	}
	return c
}

// Health reports the breaker state for the readiness probe.
func (c *Client) Health(context.Context) error {
	if c.breaker != nil && c.breaker.State() == circuit.StateOpen {
		return circuit.ErrOpen
	}
	return nil
}

// call is one provider request.
type call struct {
	op     string
	method string
	path   string
	body   any
	// raw overrides body with a pre-encoded payload and content type.
	raw         []byte
	contentType string
}

// do executes c and decodes a 2xx JSON response into out (when non-nil).
// Every failure is an *identity.APIError.
func (c *Client) do(ctx context.Context, cl call, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "identity."+cl.op,
		tracer.String(tracer.AttrOperation, cl.op),
		tracer.String(tracer.AttrHTTPMethod, cl.method),
	)
	start := c.now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveProviderCall(cl.op, c.now().Sub(start).Seconds())
			if err != nil {
				var apiErr *identity.APIError
				code := "unknown"
				if errors.As(err, &apiErr) && apiErr.Code() != "" {
					code = apiErr.Code()
				}
				c.observer.IncProviderError(cl.op, code)
			}
		}
		span.End(err)
	}()

	if c.breaker != nil {
		if berr := c.breaker.Allow(); berr != nil {
			span.AddEvent(tracer.EventBreakerRejected, tracer.String(tracer.AttrBreakerState, c.breaker.State().String()))
			return identity.NewUnavailable(identity.CodeUnavailable, berr)
		}
	}

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		c.recordOutcome(false)
		return identity.NewUnavailable(identity.CodeBadResponse, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if callerGone(ctx, err) {
			c.releaseOutcome()
			return identity.NewUnavailable(identity.CodeUnavailable, err)
		}
		c.recordOutcome(false)
		code := identity.CodeUnavailable
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			code = identity.CodeTimeout
		}
		c.logger.WarnContext(ctx, "identity provider call failed", "operation", cl.op, "error", err)
		return identity.NewUnavailable(code, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(tracer.Int(tracer.AttrHTTPStatus, resp.StatusCode))

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if callerGone(ctx, err) {
			c.releaseOutcome()
			return identity.NewUnavailable(identity.CodeUnavailable, err)
		}
		c.recordOutcome(false)
		return identity.NewUnavailable(identity.CodeBadResponse, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		// A 4xx is the provider deciding; only 5xx counts against the breaker.
		c.recordOutcome(resp.StatusCode < http.StatusInternalServerError)
		apiErr := decodeError(resp, payload)
		span.SetAttributes(tracer.String(tracer.AttrErrorCode, apiErr.Code()))
		return apiErr
	}
	c.recordOutcome(true)

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return identity.NewUnavailable(identity.CodeBadResponse, fmt.Errorf("decode %s response: %w", cl.op, err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	var body io.Reader
	contentType := cl.contentType
	switch {
	case cl.raw != nil:
		body = bytes.NewReader(cl.raw)
	case cl.body != nil:
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", cl.op, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.secretKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
	}
	return req, nil
}

func (c *Client) recordOutcome(ok bool) {
	if c.breaker == nil {
		return
	}
	if ok {
		c.breaker.RecordSuccess()
		return
	}
	c.breaker.RecordFailure()
}

// releaseOutcome frees the breaker without counting the call either way.
func (c *Client) releaseOutcome() {
	if c.breaker != nil {
		c.breaker.Release()
	}
}

// callerGone reports a call cut short by its own caller cancelling, which says
// nothing about the provider's health.
func callerGone(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)
}

func decodeError(resp *http.Response, payload []byte) *identity.APIError {
	apiErr := &identity.APIError{Status: resp.StatusCode}
	var body errorBody
	if err := json.Unmarshal(payload, &body); err == nil {
		apiErr.Errors = body.Errors
		apiErr.TraceID = body.TraceID
	}
	if len(apiErr.Errors) == 0 {
		apiErr.Errors = []identity.ErrorDetail{{
			Code:    fmt.Sprintf("http_%d", resp.StatusCode),
			Message: http.StatusText(resp.StatusCode),
		}}
	}
	return apiErr
}

var _ identity.Client = (*Client)(nil)
