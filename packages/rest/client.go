package rest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/core/binder"
	"github.com/abdul-hamid-achik/decorest/packages/core/dispatch"
	"github.com/abdul-hamid-achik/decorest/packages/core/endpoint"
	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
	"github.com/abdul-hamid-achik/decorest/packages/core/response"
	"github.com/abdul-hamid-achik/decorest/packages/core/synth"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/abdul-hamid-achik/decorest/packages/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Kwargs carries keyword arguments and call-time overrides. It must be the
// last argument of a call.
type Kwargs map[string]any

// Caller is implemented by Client and Session.
type Caller interface {
	Call(ctx context.Context, operation string, args ...any) (any, error)
}

var (
	_ Caller = (*Client)(nil)
	_ Caller = (*Session)(nil)
)

// Client calls the operations of one API.
type Client struct {
	api             *API
	endpoint        string
	transport       http.Transport
	auth            any
	logger          zerolog.Logger
	metrics         *metrics.Metrics
	requestIDHeader string
	tracerProvider  trace.TracerProvider
	dispatcher      *dispatch.Dispatcher
}

type ClientOption func(*Client)

// NewClient returns a client for api. Without WithTransport calls go through
// a net/http backed http.Client.
func NewClient(api *API, opts ...ClientOption) *Client {
	c := &Client{
		api:    api,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = http.NewClient()
	}
	c.dispatcher = dispatch.New(c.tracerProvider)
	return c
}

// WithEndpoint overrides the API's declared base URL.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithTransport replaces the default net/http transport.
func WithTransport(t http.Transport) ClientOption {
	return func(c *Client) {
		c.transport = t
	}
}

// WithAuth sets the opaque value forwarded to the transport's auth parameter.
func WithAuth(auth any) ClientOption {
	return func(c *Client) {
		c.auth = auth
	}
}

// WithLogger sets the logger attached to each call context.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records every call in m.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRequestID sends a fresh UUID under header on every call that does not
// already carry one.
func WithRequestID(header string) ClientOption {
	return func(c *Client) {
		c.requestIDHeader = header
	}
}

// WithTracer sets the provider for dispatch spans.
func WithTracer(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		c.tracerProvider = tp
	}
}

// API returns the declarations the client calls.
func (c *Client) API() *API {
	return c.api
}

// Auth returns the authentication value handed to every call.
func (c *Client) Auth() any {
	return c.auth
}

// Endpoint returns the base URL calls are joined onto.
func (c *Client) Endpoint() string {
	if c.endpoint != "" {
		return c.endpoint
	}
	return c.api.Endpoint()
}

func (c *Client) Transport() http.Transport {
	return c.transport
}

// Call runs operation with args. A trailing Kwargs binds by name and carries
// the call-time overrides.
func (c *Client) Call(ctx context.Context, operation string, args ...any) (any, error) {
	return c.call(ctx, c.transport, operation, args)
}

// CallAsync starts operation in its own goroutine and returns immediately.
func (c *Client) CallAsync(ctx context.Context, operation string, args ...any) *Future {
	f := newFuture()
	go func() {
		f.resolve(c.call(ctx, c.transport, operation, args))
	}()
	return f
}

func (c *Client) call(ctx context.Context, transport http.Transport, name string, args []any) (any, error) {
	ctx = c.logger.With().Str("api", c.api.Name()).Logger().WithContext(ctx)

	op, ok := c.api.Lookup(name)
	if !ok {
		c.metrics.RecordError(name, metrics.KindUnknownCall)
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}

	c.metrics.CallStart(name)
	defer c.metrics.CallEnd(name)

	result, err := c.invoke(ctx, transport, op, args)
	if err != nil {
		c.metrics.RecordError(name, errorKind(err))
		return nil, err
	}
	return result, nil
}

func (c *Client) invoke(ctx context.Context, transport http.Transport, op *Operation, args []any) (any, error) {
	positional, kwargs := splitArgs(args)

	bound, overrides, err := binder.Bind(op.Signature, positional, kwargs)
	if err != nil {
		return nil, err
	}

	req, err := synth.Synthesize(ctx, synth.Input{
		API:       c.api.Declaration(),
		Operation: op.Declaration,
		Signature: op.Signature,
		Args:      bound,
		Overrides: overrides,
		Auth:      c.Auth(),
	})
	if err != nil {
		return nil, err
	}

	if c.requestIDHeader != "" && !req.Headers.Has(c.requestIDHeader) {
		req.Headers.Set(c.requestIDHeader, uuid.NewString())
	}

	url := endpoint.Join(c.Endpoint(), req.Path)

	start := time.Now()
	resp, err := c.dispatcher.Dispatch(ctx, req, url, transport)
	if err != nil {
		return nil, err
	}
	c.metrics.RecordResponse(op.Name, string(req.Method), resp.StatusCode, time.Since(start))

	return response.Route(ctx, resp, req.Handlers, req.Stream)
}

// splitArgs separates a trailing Kwargs from the positional values.
func splitArgs(args []any) ([]any, map[string]any) {
	if len(args) == 0 {
		return nil, nil
	}
	if kw, ok := args[len(args)-1].(Kwargs); ok {
		return args[:len(args)-1], kw
	}
	return args, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, binder.ErrBinding):
		return metrics.KindBinding
	case errors.Is(err, endpoint.ErrPathRender):
		return metrics.KindPath
	case errors.Is(err, synth.ErrValidation):
		return metrics.KindValidation
	case errors.Is(err, synth.ErrUnsupportedMethod):
		return metrics.KindMethod
	case errors.Is(err, dispatch.ErrTransport):
		return metrics.KindTransport
	case errors.Is(err, response.ErrHTTP):
		return metrics.KindHTTP
	case errors.Is(err, metadata.ErrInvalidKey):
		return metrics.KindValidation
	default:
		return metrics.KindHandler
	}
}
