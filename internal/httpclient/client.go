// internal/httpclient/client.go
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/law-makers/homeharvest/internal/cache"
	"github.com/law-makers/homeharvest/internal/proxy"
	"github.com/law-makers/homeharvest/internal/ratelimit"
	"github.com/law-makers/homeharvest/internal/reqctx"
	"github.com/law-makers/homeharvest/internal/retry"
	"github.com/law-makers/homeharvest/internal/utils/headers"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"
)

const (
	// DefaultUserAgent mimics a desktop browser; the listing sites reject obvious bots
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	maxBodyBytes = 32 << 20
)

type proxyKey struct{}

// Options configures a Client. Zero values get sensible defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Proxies   *proxy.Pool
	Limiter   ratelimit.RateLimiter
	Retry     *retry.Config
	Cache     cache.Cache
	CacheTTL  time.Duration
}

// Client is the shared outbound HTTP layer for every provider. It applies
// per-host rate limiting, proxy rotation, retry on throttling and an
// optional response cache for idempotent lookups.
type Client struct {
	http      *http.Client
	userAgent string
	headers   map[string]string
	proxies   *proxy.Pool
	limiter   ratelimit.RateLimiter
	retry     retry.Config
	cache     cache.Cache
	cacheTTL  time.Duration
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string
}

// JSON parses the body with gjson
func (r *Response) JSON() gjson.Result {
	if r == nil {
		return gjson.Result{}
	}
	return gjson.ParseBytes(r.Body)
}

// Text returns the body as a string
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// New creates a Client
func New(opts Options) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewHostLimiter(0, 0)
	}
	retryCfg := retry.DefaultConfig()
	if opts.Retry != nil {
		retryCfg = *opts.Retry
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}

	c := &Client{
		userAgent: opts.UserAgent,
		headers:   opts.Headers,
		proxies:   opts.Proxies,
		limiter:   opts.Limiter,
		retry:     retryCfg,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
	}

	transport := &http.Transport{
		Proxy:               c.proxyFunc,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	c.http = &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		Jar:       jar,
	}

	return c, nil
}

// CloseIdleConnections releases pooled connections
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

// proxyFunc reads the proxy chosen for this request from its context
func (c *Client) proxyFunc(req *http.Request) (*url.URL, error) {
	if u, ok := req.Context().Value(proxyKey{}).(*url.URL); ok && u != nil {
		return u, nil
	}
	if c.proxies.Len() > 0 {
		return nil, nil
	}
	return http.ProxyFromEnvironment(req)
}

// Get performs a GET with query params
func (c *Client) Get(ctx context.Context, rawURL string, params map[string]string, hdrs map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, params, nil, hdrs)
}

// Post sends body (JSON-encoded unless it is []byte, string or url.Values)
func (c *Client) Post(ctx context.Context, rawURL string, body any, hdrs map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodPost, rawURL, nil, body, hdrs)
}

// Put sends body like Post
func (c *Client) Put(ctx context.Context, rawURL string, body any, hdrs map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodPut, rawURL, nil, body, hdrs)
}

// GetCached is Get backed by the response cache. Only 2xx bodies are cached.
func (c *Client) GetCached(ctx context.Context, rawURL string, params map[string]string, hdrs map[string]string) (*Response, error) {
	if c.cache == nil {
		return c.Get(ctx, rawURL, params, hdrs)
	}

	key := cache.Key(http.MethodGet, rawURL, params)
	if body, ok := c.cache.Get(key); ok {
		return &Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: body, URL: rawURL}, nil
	}

	resp, err := c.Get(ctx, rawURL, params, hdrs)
	if err != nil {
		return resp, err
	}
	if err := c.cache.Set(key, resp.Body, c.cacheTTL); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Failed to cache response")
	}
	return resp, nil
}

// Do executes a request with retry. Non-2xx statuses come back as a
// retry.HTTPError together with the last response.
func (c *Client) Do(ctx context.Context, method, rawURL string, params map[string]string, body any, hdrs map[string]string) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := buildURL(rawURL, params)
	if err != nil {
		return nil, err
	}

	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	var last *Response
	err = retry.WithRetry(ctx, c.retry, func(attempt int) error {
		resp, err := c.once(ctx, method, target, payload, contentType, hdrs)
		last = resp
		return err
	})
	return last, err
}

func (c *Client) once(ctx context.Context, method, target string, payload []byte, contentType string, hdrs map[string]string) (*Response, error) {
	if err := c.limiter.Wait(ctx, target); err != nil {
		return nil, err
	}

	chosen := c.proxies.Next()
	if chosen != nil {
		ctx = context.WithValue(ctx, proxyKey{}, chosen)
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	headers.Apply(req.Header, c.headers)
	headers.Apply(req.Header, hdrs)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.proxies.MarkFailed(chosen)
		return nil, fmt.Errorf("%s %s: %w", method, redact(target), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.proxies.MarkFailed(chosen)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	c.proxies.MarkHealthy(chosen)

	log.Debug().
		Str("request_id", reqctx.GetRequestContext(ctx).RequestID).
		Str("method", method).
		Str("url", redact(target)).
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("HTTP request")

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		URL:        target,
	}

	if !out.OK() {
		return out, retry.NewHTTPError(resp.StatusCode, resp.Status, redact(target), snippet(data))
	}
	return out, nil
}

func buildURL(rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if len(params) == 0 {
		return u.String(), nil
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "", nil
	case string:
		return []byte(b), "", nil
	case url.Values:
		return []byte(b.Encode()), "application/x-www-form-urlencoded", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		return data, "application/json", nil
	}
}

// redact drops the query string so tokens never reach the logs
func redact(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i]
	}
	return target
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
