package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gestureflow/client/internal/infrastructure/logging"
	"github.com/gestureflow/client/internal/infrastructure/monitoring"
	"github.com/gestureflow/client/internal/infrastructure/resilience"
)

// TokenSource supplies the current bearer token. An empty token means
// the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Refresher renews credentials after the backend rejects a token.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// RefreshFunc adapts a function to Refresher.
type RefreshFunc func(ctx context.Context) error

func (f RefreshFunc) Refresh(ctx context.Context) error { return f(ctx) }

// ErrUnauthorized is returned when a request fails 401 even after a
// credential refresh.
var ErrUnauthorized = errors.New("backend: unauthorized")

// ErrUnavailable is returned when the circuit breaker refuses a request.
var ErrUnavailable = errors.New("backend: service unavailable")

// Options configures a Client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	RetryMax       int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
	RequestsPerSec float64
	Tokens         TokenSource
	Refresher      Refresher
	Logger         *logging.Logger
	Metrics        *monitoring.Metrics
}

// Client talks to the vision backend.
type Client struct {
	resty     *resty.Client
	limiter   *rate.Limiter
	breaker   *resilience.Breaker
	tokens    TokenSource
	refresher Refresher
	baseURL   string
	logger    *logging.Logger
	metrics   *monitoring.Metrics
}

// New builds a client from options. Zero fields get defaults suited to
// the sub-second polling cadence the callers run at.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = 100 * time.Millisecond
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = nil

	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", "gestureflow-client/1.0")
	rc.SetTransport(retryClient.HTTPClient.Transport)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSec), int(opts.RequestsPerSec)+1)
	}

	breaker := resilience.New("backend", resilience.Settings{
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 8
		},
	})

	return &Client{
		resty:     rc,
		limiter:   limiter,
		breaker:   breaker,
		tokens:    opts.Tokens,
		refresher: opts.Refresher,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		logger:    opts.Logger.Named("backend"),
		metrics:   opts.Metrics,
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// BreakerState exposes the circuit breaker state for health reporting.
func (c *Client) BreakerState() resilience.State { return c.breaker.State() }

func (c *Client) newRequest(ctx context.Context, authed bool) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	req := c.resty.R().SetContext(ctx)
	if authed && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("token source: %w", err)
		}
		if token != "" {
			req.SetAuthToken(token)
		}
	}
	return req, nil
}

// call runs one request through the breaker. If the response is 401 and
// a refresher is configured, it refreshes once and retries exactly once;
// a second 401 surfaces as ErrUnauthorized.
func (c *Client) call(ctx context.Context, method, path string, authed bool, build func(*resty.Request) *resty.Request) (*resty.Response, error) {
	start := time.Now()
	resp, err := c.execute(ctx, method, path, authed, build)

	if err == nil && resp.StatusCode() == http.StatusUnauthorized && authed && c.refresher != nil {
		c.logger.Debug("token rejected, refreshing once", zap.String("path", path))
		if rerr := c.refresher.Refresh(ctx); rerr != nil {
			return nil, fmt.Errorf("refresh credentials: %w", rerr)
		}
		resp, err = c.execute(ctx, method, path, authed, build)
		if err == nil && resp.StatusCode() == http.StatusUnauthorized {
			err = ErrUnauthorized
		}
	}

	if c.metrics != nil {
		status := "error"
		if resp != nil {
			status = strconv.Itoa(resp.StatusCode())
		}
		c.metrics.RecordBackendRequest(path, status, time.Since(start))
	}
	return resp, err
}

func (c *Client) execute(ctx context.Context, method, path string, authed bool, build func(*resty.Request) *resty.Request) (*resty.Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := c.newRequest(ctx, authed)
		if err != nil {
			return nil, err
		}
		if build != nil {
			req = build(req)
		}
		return req.Execute(method, path)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, ErrUnavailable
	}
	if err != nil {
		return nil, err
	}
	return result.(*resty.Response), nil
}

// getJSON issues an authenticated GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.call(ctx, http.MethodGet, path, true, func(r *resty.Request) *resty.Request {
		return r.SetResult(out)
	})
	if err != nil {
		return err
	}
	return checkStatus(resp, path)
}

// postJSON issues an authenticated POST with an optional JSON body.
func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	resp, err := c.call(ctx, http.MethodPost, path, true, func(r *resty.Request) *resty.Request {
		if body != nil {
			r = r.SetBody(body)
		}
		if out != nil {
			r = r.SetResult(out)
		}
		return r
	})
	if err != nil {
		return err
	}
	return checkStatus(resp, path)
}

func checkStatus(resp *resty.Response, path string) error {
	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode() >= 400:
		return fmt.Errorf("backend: %s returned %s", path, resp.Status())
	}
	return nil
}
