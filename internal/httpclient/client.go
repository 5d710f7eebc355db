// Package httpclient is the single HTTP client geopool uses for every
// upstream registry. It rate limits requests, retries a bounded number of
// times when an upstream reports overload through its status (or, per
// client, a marker in the body), and turns non-2xx responses into
// KindNetwork errors.
package httpclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nishad/geopool/internal/config"
	"github.com/nishad/geopool/internal/errors"
	"golang.org/x/time/rate"
)

// ErrRetriesExhausted is returned when an upstream is still overloaded after
// the last retry.
var ErrRetriesExhausted = errors.New("upstream still overloaded after retries")

// Options configures a Client
type Options struct {
	Timeout           time.Duration
	MaxRetries        int           // retries after the first attempt
	RetryWait         time.Duration // fixed wait before each retry
	RequestsPerSecond float64       // 0 disables rate limiting
	UserAgent         string
}

// OptionsFromConfig builds client options from the loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Timeout:           cfg.Timeout(),
		MaxRetries:        cfg.HTTP.MaxRetries,
		RetryWait:         cfg.RetryWait(),
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		UserAgent:         cfg.HTTP.UserAgent,
	}
}

// Client performs GET requests against the upstream registries
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	marker  string // body text that also counts as overload, empty for none
}

// New creates a client
func New(opts Options) *Client {
	c := &Client{http: resty.New()}

	if opts.Timeout > 0 {
		c.http.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		c.http.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	wait := opts.RetryWait
	c.http.
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(wait).
		SetRetryAfter(func(*resty.Client, *resty.Response) (time.Duration, error) {
			return wait, nil
		}).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			return err == nil && Overloaded(res)
		}).
		AddRetryHook(func(res *resty.Response, err error) {
			if res != nil && res.Request != nil {
				slog.WarnContext(res.Request.Context(), "upstream overloaded, retrying",
					"url", res.Request.URL,
					"status", res.StatusCode(),
					"wait", wait,
				)
			}
		})

	c.http.OnBeforeRequest(c.onBeforeRequest)
	c.http.OnAfterResponse(onAfterResponse)
	c.http.OnError(onError)

	return c
}

// WithOverloadMarker returns a client sharing c's transport and rate limit
// that also treats a body containing marker as overload. Only upstreams
// known to shed load in a 200 body should use it.
func (c *Client) WithOverloadMarker(marker string) *Client {
	cp := *c
	cp.marker = marker
	return &cp
}

// Get fetches url with the given query parameters and returns the body.
func (c *Client) Get(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	const op = errors.Op("httpclient.Get")

	req := c.http.R().
		SetContext(ctx).
		SetQueryParams(params)
	if c.marker != "" {
		req.AddRetryCondition(func(res *resty.Response, err error) bool {
			return err == nil && c.markedOverload(res)
		})
	}

	res, err := req.Get(url)
	if err != nil {
		return nil, errors.E(op, errors.KindNetwork, err, fmt.Sprintf("GET %s", url))
	}

	if Overloaded(res) || c.markedOverload(res) {
		return nil, errors.E(op, errors.KindNetwork, ErrRetriesExhausted,
			fmt.Sprintf("GET %s: status %d", url, res.StatusCode()))
	}

	if !res.IsSuccess() {
		return nil, errors.E(op, errors.KindNetwork, statusMessage(url, res.StatusCode()))
	}

	return res.Body(), nil
}

// Overloaded reports whether the response status asks the caller to back off.
func Overloaded(res *resty.Response) bool {
	if res == nil {
		return false
	}
	switch res.StatusCode() {
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return true
	}
	return false
}

func (c *Client) markedOverload(res *resty.Response) bool {
	return c.marker != "" && res != nil && strings.Contains(res.String(), c.marker)
}

func statusMessage(url string, status int) string {
	switch status {
	case http.StatusForbidden:
		return fmt.Sprintf("GET %s: access to the resource is forbidden", url)
	case http.StatusNotFound:
		return fmt.Sprintf("GET %s: resource was not found on the server", url)
	default:
		return fmt.Sprintf("GET %s: unexpected status %d %s", url, status, http.StatusText(status))
	}
}

func (c *Client) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx := req.Context()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	slog.DebugContext(ctx, "start request", "method", req.Method, "url", req.URL)
	return nil
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	slog.DebugContext(res.Request.Context(), "request complete",
		"method", res.Request.Method,
		"url", res.Request.URL,
		"status", res.StatusCode(),
		"elapsed", res.Time(),
	)
	return nil
}

func onError(req *resty.Request, err error) {
	slog.ErrorContext(req.Context(), "request failed",
		"method", req.Method,
		"url", req.URL,
		"err", err,
	)
}
