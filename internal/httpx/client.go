package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/agenthands/claimcheck/internal/config"
)

const maxBody = 8 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.StatusCode)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is the outbound HTTP client shared by linkers, retrievers and model services.
// Every call is bounded by a timeout, waits on the per-host limiter and retries
// transient failures.
type Client struct {
	hc        *http.Client
	limiter   *HostLimiter
	attempts  uint
	delay     time.Duration
	userAgent string
}

func New(cfg config.HTTPConfig) *Client {
	return NewWithHTTPClient(&http.Client{Timeout: cfg.Timeout()}, cfg)
}

func NewWithHTTPClient(hc *http.Client, cfg config.HTTPConfig) *Client {
	return &Client{
		hc:        hc,
		limiter:   NewHostLimiter(cfg.RatePerSecond, cfg.Burst),
		attempts:  cfg.Retries + 1,
		delay:     100 * time.Millisecond,
		userAgent: cfg.UserAgent,
	}
}

// Get issues a GET and returns the response body.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, headers)
}

// PostJSON marshals payload, POSTs it and returns the response body.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload any, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return c.do(ctx, http.MethodPost, rawURL, body, h)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) ([]byte, error) {
	var out []byte
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx, rawURL); err != nil {
				return retry.Unrecoverable(err)
			}
			b, err := c.once(ctx, method, rawURL, body, headers)
			if err != nil {
				return err
			}
			out = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) once(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: redact(req.URL), StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// redact drops userinfo, query and fragment, which may carry API keys or query text.
func redact(u *url.URL) string {
	c := *u
	c.User = nil
	c.RawQuery = ""
	c.ForceQuery = false
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	return true
}
