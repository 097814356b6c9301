// Package client provides the origin HTTP client used by the edge worker:
// request forwarding onto the origin base URL, error classification,
// optional retry and metrics.
package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for origin requests.
var (
	originRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_origin_requests_total",
		Help: "Total origin requests by method and status",
	}, []string{"method", "status"})

	originRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portfolio_origin_request_duration_seconds",
		Help:    "Origin request duration in seconds by method",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method"})

	originErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_origin_errors_total",
		Help: "Total origin errors by class",
	}, []string{"class"})
)

// Hop-by-hop headers are stripped before forwarding (RFC 9110 §7.6.1).
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Client fetches resources from the portfolio origin.
type Client struct {
	httpClient *http.Client
	origin     *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// OriginURL is the base URL of the portfolio origin (REQUIRED)
	OriginURL string

	// UserAgent is set on forwarded requests that carry none
	UserAgent string

	// Timeout bounds each attempt; 0 means no timeout
	Timeout time.Duration

	// Retry applies to idempotent requests that fail at the transport level
	Retry RetryConfig
}

// DefaultConfig returns a default configuration: no timeout, no retries.
func DefaultConfig(originURL, userAgent string) Config {
	return Config{
		OriginURL: originURL,
		UserAgent: userAgent,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new origin client.
func New(cfg Config) (*Client, error) {
	if cfg.OriginURL == "" {
		return nil, fmt.Errorf("origin url is required")
	}

	origin, err := url.Parse(cfg.OriginURL)
	if err != nil {
		return nil, fmt.Errorf("parse origin url: %w", err)
	}
	if origin.Scheme != "http" && origin.Scheme != "https" {
		return nil, fmt.Errorf("origin url must be http or https (got %q)", cfg.OriginURL)
	}
	if origin.Host == "" {
		return nil, fmt.Errorf("origin url has no host (got %q)", cfg.OriginURL)
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}

	logger := log.With().Str("component", "origin-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			// Redirects are the browser's business; hand them back untouched
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		origin: origin,
		config: cfg,
		logger: logger,
	}, nil
}

// Origin returns a copy of the origin base URL.
func (c *Client) Origin() *url.URL {
	u := *c.origin
	return &u
}

// Fetch forwards an inbound request to the origin and returns the
// origin's response. HTTP error statuses are not errors; only transport
// failures are, as *FetchError.
func (c *Client) Fetch(ctx context.Context, in *http.Request) (*http.Response, error) {
	if in == nil || in.URL == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}

	target := c.Origin()
	target.Path = joinPath(c.origin.Path, in.URL.Path)
	target.RawPath = ""
	target.RawQuery = in.URL.RawQuery

	out, err := http.NewRequestWithContext(ctx, in.Method, target.String(), in.Body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	out.ContentLength = in.ContentLength
	if in.GetBody != nil {
		out.GetBody = in.GetBody
	}

	out.Header = in.Header.Clone()
	if out.Header == nil {
		out.Header = http.Header{}
	}
	for _, h := range hopHeaders {
		out.Header.Del(h)
	}
	if in.Host != "" {
		out.Header.Set("X-Forwarded-Host", in.Host)
	}
	setForwardedHeaders(out, in)

	return c.Do(out)
}

// Get fetches path (which may carry a query string) from the origin.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := newInboundRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.Fetch(ctx, req)
}

// Do performs an outbound request with retry and metrics.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	method := req.Method
	path := req.URL.Path

	startTime := time.Now()
	defer func() {
		originRequestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	if c.config.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	retry := c.config.Retry
	if !isIdempotent(method) {
		retry.MaxAttempts = 1
	}

	var resp *http.Response
	attempt := 0
	err := retryWithBackoff(ctx, retry, func() error {
		attempt++
		r := req
		if attempt > 1 {
			r = req.Clone(ctx)
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return &FetchError{Class: ErrorClassClient, Method: method, Path: path, Err: err}
				}
				r.Body = body
			}
		}

		var reqErr error
		resp, reqErr = c.httpClient.Do(r)
		if reqErr != nil {
			originErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			originRequestsTotal.WithLabelValues(method, "network_error").Inc()
			c.logger.Debug().
				Err(reqErr).
				Str("method", method).
				Str("path", path).
				Int("attempt", attempt).
				Msg("Origin request failed")
			return &FetchError{Class: ErrorClassNetwork, Method: method, Path: path, Err: reqErr}
		}

		originRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
		if class := classifyStatus(resp.StatusCode); class != "" {
			originErrorsTotal.WithLabelValues(string(class)).Inc()
			c.logger.Debug().
				Str("method", method).
				Str("path", path).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Origin returned error status")
		}
		return nil
	}, func(err error) ErrorClass {
		if fe, ok := err.(*FetchError); ok {
			return fe.Class
		}
		return ""
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func newInboundRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func joinPath(base, path string) string {
	if path == "" {
		path = "/"
	}
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func setForwardedHeaders(outbound *http.Request, inbound *http.Request) {
	clientIP := inbound.RemoteAddr
	if host, _, err := net.SplitHostPort(inbound.RemoteAddr); err == nil {
		clientIP = host
	}

	if clientIP != "" {
		prior := outbound.Header.Get("X-Forwarded-For")
		if prior != "" {
			clientIP = prior + ", " + clientIP
		}
		outbound.Header.Set("X-Forwarded-For", clientIP)
	}

	proto := "http"
	if inbound.TLS != nil {
		proto = "https"
	}
	outbound.Header.Set("X-Forwarded-Proto", proto)
}
