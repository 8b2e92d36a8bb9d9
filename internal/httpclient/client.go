// Package httpclient provides the HTTP adapter shared by the catalog
// scraper and the entity API facade. It surfaces status codes and
// rate-limit headers to callers and maps transport failures onto the
// error taxonomy.
package httpclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/moma1992/smartcity-mcp/internal/errors"
	"github.com/moma1992/smartcity-mcp/internal/ratelimit"
)

// Rate-limit headers exposed by the entity API gateway.
const (
	HeaderRateRemaining = "x-ratelimit-remaining-minute"
	HeaderRateReset     = "ratelimit-reset"
)

// Client is an HTTP client tuned for sequential API access with
// connection reuse.
type Client struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
	cookies   []*http.Cookie
	limiter   *ratelimit.Limiter
	mu        sync.RWMutex
}

// Config holds configuration for the HTTP client.
type Config struct {
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	UserAgent           string
	Headers             map[string]string
	RequestsPerSecond   float64
	Burst               int
}

// DefaultConfig returns sensible defaults for catalog and entity API access.
func DefaultConfig() Config {
	return Config{
		Timeout:             30 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		UserAgent:           "smartcity-service",
		RequestsPerSecond:   5,
		Burst:               5,
	}
}

// New creates a new HTTP client.
func New(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 5
	}
	if config.Burst <= 0 {
		config.Burst = 5
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		userAgent: config.UserAgent,
		headers:   config.Headers,
		limiter:   ratelimit.NewLimiter(config.RequestsPerSecond, config.Burst),
	}
}

// SetCookies sets session cookies for all subsequent requests.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.mu.Lock()
	c.cookies = cookies
	c.mu.Unlock()
}

// SetHeaders sets default headers for all subsequent requests.
func (c *Client) SetHeaders(headers map[string]string) {
	c.mu.Lock()
	c.headers = headers
	c.mu.Unlock()
}

// Limiter returns the client's rate limiter.
func (c *Client) Limiter() *ratelimit.Limiter {
	return c.limiter
}

// Response contains the result of a request, including the headers the
// caller needs for rate-limit interpretation.
type Response struct {
	URL           string
	FinalURL      string
	StatusCode    int
	ContentType   string
	Header        http.Header
	Body          []byte
	Cookies       []*http.Cookie
	RateRemaining string
	RateReset     string
	Duration      time.Duration
}

// Get performs a GET request. Query values and per-request headers may
// be nil. Transport failures are returned categorized; non-2xx statuses
// are NOT an error at this layer, the caller interprets them.
func (c *Client) Get(ctx context.Context, targetURL string, query url.Values, headers map[string]string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Categorize(err, targetURL)
	}

	start := time.Now()

	if len(query) > 0 {
		u, err := url.Parse(targetURL)
		if err != nil {
			return nil, errors.NewParseError(targetURL, "url_parse", err)
		}
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
		targetURL = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, errors.NewParseError(targetURL, "request_creation", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	c.mu.RLock()
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	c.mu.RUnlock()

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Categorize(err, targetURL)
	}
	defer resp.Body.Close()

	// 5MB cap: catalog pages and entity responses are small
	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, errors.NewFetchError(targetURL, "body_read", err)
	}

	return &Response{
		URL:           targetURL,
		FinalURL:      resp.Request.URL.String(),
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		Header:        resp.Header,
		Body:          body,
		Cookies:       resp.Cookies(),
		RateRemaining: resp.Header.Get(HeaderRateRemaining),
		RateReset:     resp.Header.Get(HeaderRateReset),
		Duration:      time.Since(start),
	}, nil
}

// IsSuccess reports whether the response carries a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// RateExhausted reports whether the response advertises zero remaining
// quota or a 429 status.
func (r *Response) RateExhausted() bool {
	return r.StatusCode == http.StatusTooManyRequests || r.RateRemaining == "0"
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
