// Package dispatch hands a resolved request to a transport.
package dispatch

import (
	"context"
	"errors"
	"strings"

	"github.com/abdul-hamid-achik/decorest/packages/core/synth"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "github.com/abdul-hamid-achik/decorest/packages/core/dispatch"

var errNoResponse = errors.New("transport returned no response")

type Dispatcher struct {
	tracer trace.Tracer
}

// New returns a Dispatcher reporting spans to tp, or to the global provider
// when tp is nil.
func New(tp trace.TracerProvider) *Dispatcher {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Dispatcher{tracer: tp.Tracer(TracerName)}
}

// Dispatch sends req to url through transport using the global tracer
// provider.
func Dispatch(ctx context.Context, req *synth.Request, url string, transport http.Transport) (*http.Response, error) {
	return New(nil).Dispatch(ctx, req, url, transport)
}

// Dispatch invokes the transport call matching req.Method. A streaming GET
// goes through Stream when the transport implements http.Streamer.
func (d *Dispatcher) Dispatch(ctx context.Context, req *synth.Request, url string, transport http.Transport) (*http.Response, error) {
	verb := http.Verb(strings.ToUpper(string(req.Method)))

	ctx, span := d.tracer.Start(ctx, spanName(req, verb),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(string(verb)),
			semconv.URLFull(url),
			attribute.String("decorest.operation", req.Operation),
			attribute.Bool("decorest.stream", req.Stream),
		),
	)
	defer span.End()

	zerolog.Ctx(ctx).Debug().
		Str("operation", req.Operation).
		Msgf("Request: %s %s", verb, url)

	resp, err := d.invoke(ctx, verb, url, req.TransportOptions(), transport)
	if err == nil && resp == nil {
		err = errNoResponse
	}
	if err != nil {
		var unsupported *synth.UnsupportedMethodError
		if !errors.As(err, &unsupported) {
			err = &TransportError{Method: verb, URL: url, Cause: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, resp.Status)
	}
	return resp, nil
}

func (d *Dispatcher) invoke(ctx context.Context, verb http.Verb, url string, opts *http.Options, transport http.Transport) (*http.Response, error) {
	if verb == http.GET && opts.Stream {
		if s, ok := transport.(http.Streamer); ok {
			return s.Stream(ctx, verb, url, opts)
		}
	}

	switch verb {
	case http.GET:
		return transport.Get(ctx, url, opts)
	case http.POST:
		return transport.Post(ctx, url, opts)
	case http.PUT:
		return transport.Put(ctx, url, opts)
	case http.PATCH:
		return transport.Patch(ctx, url, opts)
	case http.DELETE:
		return transport.Delete(ctx, url, opts)
	case http.HEAD:
		return transport.Head(ctx, url, opts)
	case http.OPTIONS:
		return transport.Options(ctx, url, opts)
	default:
		return nil, &synth.UnsupportedMethodError{Method: string(verb)}
	}
}

func spanName(req *synth.Request, verb http.Verb) string {
	if req.Operation != "" {
		return req.Operation
	}
	return string(verb)
}
