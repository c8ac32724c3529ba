package synth

import (
	"context"
	"fmt"
	"io"
	"mime"
	"reflect"
	"strings"

	"github.com/abdul-hamid-achik/decorest/packages/core/binder"
	"github.com/abdul-hamid-achik/decorest/packages/core/endpoint"
	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Input carries everything one call contributes to its request.
type Input struct {
	API       *metadata.Declaration
	Operation *metadata.Declaration
	Signature binder.Signature
	Args      *binder.Arguments
	Overrides binder.Overrides
	Auth      any
}

// Synthesize resolves in into a Request. The logger attached to ctx, if any,
// receives debug lines when a payload is dropped.
func Synthesize(ctx context.Context, in Input) (*Request, error) {
	logger := zerolog.Ctx(ctx)
	api, op, args := in.API, in.Operation, in.Args

	method, err := resolveMethod(op)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method: method,
		Auth:   in.Auth,
	}
	if op != nil {
		req.Operation = op.Name
	}

	template, _ := op.String(metadata.KeyEndpoint)
	if req.Path, err = endpoint.Render(template, args); err != nil {
		return nil, err
	}

	req.Query = collect(op.Params(metadata.KeyQuery), args)
	req.Form = collect(op.Params(metadata.KeyForm), args)
	req.Multipart = collect(op.Params(metadata.KeyMultipart), args)

	req.Headers = resolveHeaders(api, op, in.Signature, args)

	if req.Body, err = resolveBody(op, args); err != nil {
		return nil, err
	}

	req.Handlers = api.Handlers().Merge(op.Handlers())

	if t, ok := op.Timeout(); ok {
		req.Timeout = t
	} else if t, ok := api.Timeout(); ok {
		req.Timeout = t
	}

	if s, ok := op.Stream(); ok {
		req.Stream = s
	} else if s, ok := api.Stream(); ok {
		req.Stream = s
	}

	if err := applyOverrides(req, in.Overrides); err != nil {
		return nil, err
	}

	if len(req.Multipart) > 0 {
		if len(req.Form) > 0 || req.Body != nil {
			logger.Debug().
				Str("operation", req.Operation).
				Msg("multipart parts present, dropping form fields and body")
		}
		req.Form = nil
		req.Body = nil
		req.Headers.Del(HeaderContentType)
	} else {
		if len(req.Form) > 0 && req.Body != nil {
			logger.Debug().
				Str("operation", req.Operation).
				Msg("form fields present, dropping body")
			req.Body = nil
		}
		if !req.Headers.Has(HeaderContentType) {
			req.Headers.Set(HeaderContentType, MediaJSON)
		}
	}

	if !req.Headers.Has(HeaderAccept) {
		req.Headers.Set(HeaderAccept, MediaJSON)
	}
	if len(req.Form) > 0 {
		req.Headers.Set(HeaderContentType, MediaForm)
	}

	if req.Body != nil && isJSON(req.Header(HeaderContentType)) && structured(req.Body) {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize body: %w", err)
		}
		req.Body = string(data)
	}

	return req, nil
}

func resolveMethod(op *metadata.Declaration) (http.Verb, error) {
	verb, ok := op.Method()
	if !ok {
		return "", &UnsupportedMethodError{}
	}
	upper := http.Verb(strings.ToUpper(string(verb)))
	for _, v := range http.Verbs {
		if v == upper {
			return v, nil
		}
	}
	return "", &UnsupportedMethodError{Method: string(verb)}
}

// collect maps each declared argument that was supplied with a non-nil value
// to its wire name.
func collect(params metadata.Params, args *binder.Arguments) map[string]any {
	out := make(map[string]any)
	for arg, param := range params {
		if v, ok := args.Get(arg); ok && v != nil {
			out[param] = v
		}
	}
	return out
}

// resolveHeaders layers API headers, API accept/content, operation headers and
// operation accept/content. An operation header pair (name, value) captures
// argument name into header value when that argument was supplied. The pair is
// sent literally only when neither side names a declared parameter.
func resolveHeaders(api, op *metadata.Declaration, sig binder.Signature, args *binder.Arguments) *metadata.Headers {
	h := api.Headers().Clone()
	applyAcceptContent(h, api)

	declared := op.Headers()
	for _, name := range declared.Keys() {
		value, _ := declared.Get(name)
		if v, ok := args.Get(name); ok && v != nil {
			h.Set(value, fmt.Sprint(v))
		}
		if !sig.Has(value) && !sig.Has(name) {
			h.Set(name, value)
		}
	}

	applyAcceptContent(h, op)
	return h
}

func applyAcceptContent(h *metadata.Headers, d *metadata.Declaration) {
	if v, ok := d.String(metadata.KeyAccept); ok {
		h.Set(HeaderAccept, v)
	}
	if v, ok := d.String(metadata.KeyContent); ok {
		h.Set(HeaderContentType, v)
	}
}

func resolveBody(op *metadata.Declaration, args *binder.Arguments) (any, error) {
	binding, ok := op.Body()
	if !ok {
		return nil, nil
	}
	v, ok := args.Get(binding.Arg)
	if !ok || v == nil {
		return nil, nil
	}
	if binding.Serializer == nil {
		return v, nil
	}
	out, err := binding.Serializer(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize argument %q: %w", binding.Arg, err)
	}
	return out, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == MediaJSON
}

// structured reports whether v is a value JSON encoding applies to, as opposed
// to an already encoded payload.
func structured(v any) bool {
	switch v.(type) {
	case string, []byte, io.Reader:
		return false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return true
	}
	return false
}
