package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"
)

// HandlerTransport serves requests in-process from an http.Handler. It has no
// network, no native streaming and no connection state, so a session is the
// transport itself.
type HandlerTransport struct {
	Handler http.Handler
}

var (
	_ Transport      = (*HandlerTransport)(nil)
	_ SessionFactory = (*HandlerTransport)(nil)
)

// NewHandlerTransport returns a transport that serves every call from h.
func NewHandlerTransport(h http.Handler) *HandlerTransport {
	return &HandlerTransport{Handler: h}
}

// NewSession returns t itself. Handlers keep no per-session state.
func (t *HandlerTransport) NewSession() (Session, error) {
	return t, nil
}

func (t *HandlerTransport) Close() error {
	return nil
}

func (t *HandlerTransport) Get(ctx context.Context, url string, opts *Options) (*Response, error) {
	return t.serve(ctx, GET, url, opts)
}

func (t *HandlerTransport) Post(ctx context.Context, url string, opts *Options) (*Response, error) {
	return t.serve(ctx, POST, url, opts)
}

func (t *HandlerTransport) Put(ctx context.Context, url string, opts *Options) (*Response, error) {
	return t.serve(ctx, PUT, url, opts)
}

func (t *HandlerTransport) Patch(ctx context.Context, url string, opts *Options) (*Response, error) {
	return t.serve(ctx, PATCH, url, opts)
}

func (t *HandlerTransport) Delete(ctx context.Context, url string, opts *Options) (*Response, error) {
	return t.serve(ctx, DELETE, url, opts)
}

func (t *HandlerTransport) Head(ctx context.Context, url string, opts *Options) (*Response, error) {
	return t.serve(ctx, HEAD, url, opts)
}

func (t *HandlerTransport) Options(ctx context.Context, url string, opts *Options) (*Response, error) {
	return t.serve(ctx, OPTIONS, url, opts)
}

func (t *HandlerTransport) serve(ctx context.Context, method Verb, url string, opts *Options) (*Response, error) {
	if opts != nil && opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := NewHTTPRequest(ctx, method, url, opts)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		if err := applyAuth(req, opts.Auth); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	rec := httptest.NewRecorder()
	t.Handler.ServeHTTP(rec, req)
	result := rec.Result()

	return &Response{
		StatusCode: result.StatusCode,
		Status:     result.Status,
		Headers:    result.Header,
		Body:       rec.Body.Bytes(),
		Duration:   time.Since(start),
	}, nil
}
