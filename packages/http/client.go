package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// Client is the net/http backed Transport. It streams natively and opens
// sessions with their own connection pool and cookie jar.
type Client struct {
	httpClient     *http.Client
	transport      *http.Transport
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	defaultHeaders map[string]string
	rateLimit      rate.Limit
	rateBurst      int
	limiter        *rate.Limiter
	cookies        bool
	opts           []ClientOption
}

type ClientOption func(*Client)

var (
	_ Transport      = (*Client)(nil)
	_ Streamer       = (*Client)(nil)
	_ SessionFactory = (*Client)(nil)
	_ Session        = (*Client)(nil)
)

// NewClient creates a new HTTP client with the given options
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
		opts:           opts,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.transport = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	if !c.validateSSL {
		c.transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if c.proxyURL != "" {
		proxyURL, err := neturl.Parse(c.proxyURL)
		if err == nil {
			c.transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !c.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= c.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	c.httpClient = &http.Client{
		Transport:     c.transport,
		CheckRedirect: redirectPolicy,
	}

	if c.cookies {
		// cookiejar.New only fails on a non-nil PublicSuffixList error.
		jar, _ := cookiejar.New(nil)
		c.httpClient.Jar = jar
	}

	if c.rateLimit > 0 {
		burst := c.rateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(c.rateLimit, burst)
	}

	return c
}

// WithTimeout sets the timeout applied when a call carries none.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithFollowRedirects sets whether to follow redirects
func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

// WithMaxRedirects sets the maximum number of redirects to follow
func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithDefaultHeader adds a header sent when a request does not set it
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithRateLimit caps outgoing requests per second. Calls wait for a token and
// give up when their context ends.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		c.rateLimit = rate.Limit(perSecond)
		c.rateBurst = burst
	}
}

// WithCookies keeps cookies between requests made by the same client.
func WithCookies(enabled bool) ClientOption {
	return func(c *Client) {
		c.cookies = enabled
	}
}

// NewSession opens a client with the same settings but its own connection
// pool and cookie jar.
func (c *Client) NewSession() (Session, error) {
	opts := append(append([]ClientOption{}, c.opts...), WithCookies(true))
	return NewClient(opts...), nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Do(ctx, GET, url, opts)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Do(ctx, POST, url, opts)
}

// Put performs a PUT request
func (c *Client) Put(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Do(ctx, PUT, url, opts)
}

// Patch performs a PATCH request
func (c *Client) Patch(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Do(ctx, PATCH, url, opts)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Do(ctx, DELETE, url, opts)
}

// Head performs a HEAD request
func (c *Client) Head(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Do(ctx, HEAD, url, opts)
}

// Options performs an OPTIONS request
func (c *Client) Options(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Do(ctx, OPTIONS, url, opts)
}

// Stream performs the request and returns before reading the body.
func (c *Client) Stream(ctx context.Context, method Verb, url string, opts *Options) (*Response, error) {
	return c.do(ctx, method, url, opts, true)
}

// Do performs the request. The body is buffered unless opts.Stream is set.
func (c *Client) Do(ctx context.Context, method Verb, url string, opts *Options) (*Response, error) {
	stream := opts != nil && opts.Stream
	return c.do(ctx, method, url, opts, stream)
}

func (c *Client) do(ctx context.Context, method Verb, url string, opts *Options, stream bool) (*Response, error) {
	if opts == nil {
		opts = &Options{}
	}

	if err := ValidateURL(url); err != nil {
		return nil, err
	}

	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	// For streams the timeout bounds only the wait for response headers.
	cancel := context.CancelFunc(func() {})
	var headerDeadline *time.Timer
	switch {
	case timeout > 0 && stream:
		ctx, cancel = context.WithCancel(ctx)
		headerDeadline = time.AfterFunc(timeout, cancel)
	case timeout > 0:
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			cancel()
			return nil, err
		}
	}

	httpReq, err := NewHTTPRequest(ctx, method, url, opts)
	if err != nil {
		cancel()
		return nil, err
	}

	for k, v := range c.defaultHeaders {
		if httpReq.Header.Get(k) == "" {
			httpReq.Header.Set(k, v)
		}
	}

	if err := applyAuth(httpReq, opts.Auth); err != nil {
		cancel()
		return nil, err
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		if headerDeadline != nil && !headerDeadline.Stop() {
			return nil, fmt.Errorf("no response headers within %s: %w", timeout, context.DeadlineExceeded)
		}
		return nil, err
	}

	if creds, ok := digestCredentials(opts.Auth); ok && httpResp.StatusCode == http.StatusUnauthorized {
		httpResp, err = c.retryDigest(httpReq, httpResp, creds)
		if err != nil {
			cancel()
			return nil, err
		}
	}

	if stream {
		if headerDeadline != nil && !headerDeadline.Stop() {
			httpResp.Body.Close()
			cancel()
			return nil, fmt.Errorf("no response headers within %s: %w", timeout, context.DeadlineExceeded)
		}
		resp := NewStreamResponse(httpResp.StatusCode, httpResp.Status, httpResp.Header.Clone(),
			&cancelOnClose{ReadCloser: httpResp.Body, cancel: cancel})
		resp.Duration = time.Since(start)
		return resp, nil
	}

	defer cancel()
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header.Clone(),
		Body:       respBody,
		Duration:   time.Since(start),
	}, nil
}

func (c *Client) retryDigest(req *http.Request, resp *http.Response, creds DigestAuth) (*http.Response, error) {
	wwwAuth := resp.Header.Get("WWW-Authenticate")
	if wwwAuth == "" {
		return resp, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	authHeader, err := answerDigest(creds, req.Method, req.URL.RequestURI(), wwwAuth)
	if err != nil {
		return nil, err
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", authHeader)

	return c.httpClient.Do(retry)
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
