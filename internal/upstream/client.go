package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rogerio-castellano/catalog-gateway/internal/aggregate"
	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
	"github.com/rogerio-castellano/catalog-gateway/internal/requestctx"
)

const maxResponseBytes = 16 << 20

type Options struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// Transport overrides the instrumented default transport.
	Transport http.RoundTripper
}

// StatusError is a non-2xx answer from a backend service.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return aggregate.ErrUpstreamUnavailable }

func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

type client struct {
	service    string
	baseURL    string
	http       *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

func newClient(service, baseURL string, opts Options, log *logger.Logger) (*client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s base URL %q", service, baseURL)
	}
	if log == nil {
		log = logger.Nop()
	}
	transport := opts.Transport
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	wait := opts.RetryBackoff
	if wait <= 0 {
		wait = 200 * time.Millisecond
	}
	return &client{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Transport: transport},
		timeout:    timeout,
		maxRetries: max(opts.MaxRetries, 0),
		backoff:    wait,
		log:        log.With("client", service),
	}, nil
}

// do sends one request and decodes a 2xx JSON body into out. GET requests are
// retried on transport failures and retryable statuses; other methods are sent once.
func (c *client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s request: %w", c.service, err)
		}
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var (
		raw []byte
		err error
	)
	if method == http.MethodGet && c.maxRetries > 0 {
		raw, err = c.withRetry(ctx, method, target, payload)
	} else {
		raw, err = c.once(ctx, method, target, payload)
	}
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.service, err)
	}
	return nil
}

func (c *client) withRetry(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.backoff
	policy.MaxInterval = 10 * c.backoff

	attempt := 0
	return backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		raw, err := c.once(ctx, method, target, payload)
		if err != nil && !isRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return raw, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Warn("upstream request retrying",
				"method", method,
				"url", target,
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"sleep", next.String(),
				"error", err.Error(),
			)
		}),
	)
}

func (c *client) once(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rd := requestctx.Get(ctx); rd != nil {
		if rd.RequestID != "" {
			req.Header.Set(requestctx.HeaderRequestID, rd.RequestID)
		}
		if rd.InternalToken != "" {
			req.Header.Set(requestctx.HeaderInternalToken, rd.InternalToken)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s %s: %w", aggregate.ErrUpstreamUnavailable, c.service, method, target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %w", aggregate.ErrUpstreamUnavailable, c.service, err)
	}

	c.log.Debug("upstream response",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Service: c.service, StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	return raw, nil
}

func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		code := se.StatusCode
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
	}
	return errors.Is(err, aggregate.ErrUpstreamUnavailable)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
