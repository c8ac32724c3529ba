package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/decorest/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/decorest/packages/capture"
	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/abdul-hamid-achik/decorest/packages/rest"
)

// Serializers are the body serializers a declaration can name.
var Serializers = map[string]metadata.Serializer{
	"json": func(v any) (any, error) {
		return json.MarshalToString(v)
	},
	"text": func(v any) (any, error) {
		return fmt.Sprint(v), nil
	},
}

// Build registers the declared API and its operations.
func (f *File) Build() (*rest.API, error) {
	apiOpts, err := commonOptions(f.Headers, f.Accept, f.Content, f.Timeout, f.Stream, f.On)
	if err != nil {
		return nil, fmt.Errorf("api %s: %w", f.Name, err)
	}
	if f.Endpoint != "" {
		apiOpts = append(apiOpts, metadata.Endpoint(f.Endpoint))
	}

	api, err := rest.NewAPI(f.Name, apiOpts...)
	if err != nil {
		return nil, err
	}

	for _, op := range f.Operations {
		opts, err := op.options()
		if err != nil {
			return nil, fmt.Errorf("operation %s: %w", op.Name, err)
		}
		if _, err := api.Register(op.Name, op.Params, opts...); err != nil {
			return nil, err
		}
	}
	return api, nil
}

func (op OperationSpec) options() ([]metadata.Option, error) {
	opts := []metadata.Option{
		metadata.Method(http.Verb(strings.ToUpper(op.Method))),
		metadata.Endpoint(op.Path),
	}

	for _, arg := range sortedKeys(op.Query) {
		opts = append(opts, metadata.Query(arg, op.Query[arg]))
	}
	for _, arg := range sortedKeys(op.Form) {
		opts = append(opts, metadata.Form(arg, op.Form[arg]))
	}
	for _, arg := range sortedKeys(op.Multipart) {
		opts = append(opts, metadata.Multipart(arg, op.Multipart[arg]))
	}

	if op.Body != nil {
		if op.Body.Serializer == "" {
			opts = append(opts, metadata.Body(op.Body.Arg))
		} else {
			serializer, ok := Serializers[op.Body.Serializer]
			if !ok {
				return nil, fmt.Errorf("unknown body serializer %q", op.Body.Serializer)
			}
			opts = append(opts, metadata.Body(op.Body.Arg, serializer))
		}
	}

	common, err := commonOptions(op.Headers, op.Accept, op.Content, op.Timeout, op.Stream, op.On)
	if err != nil {
		return nil, err
	}
	return append(opts, common...), nil
}

func commonOptions(headers map[string]string, accept, content string, timeout *Duration, stream *bool, on map[string]HandlerSpec) ([]metadata.Option, error) {
	var opts []metadata.Option
	for _, name := range sortedKeys(headers) {
		opts = append(opts, metadata.Header(name, headers[name]))
	}
	if accept != "" {
		opts = append(opts, metadata.Accept(accept))
	}
	if content != "" {
		opts = append(opts, metadata.Content(content))
	}
	if timeout != nil {
		opts = append(opts, metadata.Timeout(timeout.Duration))
	}
	if stream != nil {
		opts = append(opts, metadata.Stream(*stream))
	}

	for _, key := range sortedKeys(on) {
		status, err := parseStatus(key)
		if err != nil {
			return nil, err
		}
		handler, err := on[key].Handler()
		if err != nil {
			return nil, fmt.Errorf("on %s: %w", key, err)
		}
		opts = append(opts, metadata.On(status, handler))
	}
	return opts, nil
}

func parseStatus(key string) (int, error) {
	if key == "*" || strings.EqualFold(key, "any") {
		return metadata.AnyStatus, nil
	}
	status, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("invalid status %q", key)
	}
	return status, nil
}

// Handler builds the status handler described by h.
func (h HandlerSpec) Handler() (metadata.Handler, error) {
	switch h.Kind {
	case HandlerValue:
		return capture.Value(h.Value), nil
	case HandlerExtract:
		c, err := capture.Parse(h.Extract)
		if err != nil {
			return nil, err
		}
		return capture.Extract(c), nil
	case HandlerError:
		return capture.Error(h.Error), nil
	case HandlerSchema:
		return capture.Schema(h.Schema)
	default:
		return nil, fmt.Errorf("unknown handler kind %q", h.Kind)
	}
}

// Authenticator returns the declared authentication, or nil when the file
// declares none. opts configure the OAuth2 provider.
func (f *File) Authenticator(opts ...oauth2.Option) (http.Authenticator, error) {
	if f.Auth == nil {
		return nil, nil
	}
	a := f.Auth

	switch a.Type {
	case AuthBasic:
		return http.BasicAuth{Username: a.Username, Password: a.Password}, nil
	case AuthBearer:
		return http.BearerToken(a.Token), nil
	case AuthAPIKey:
		return http.APIKey{Name: a.Name, Value: a.Value, InQuery: a.In == "query"}, nil
	case AuthDigest:
		return http.DigestAuth{Username: a.Username, Password: a.Password}, nil
	case AuthAWS:
		return http.AWSSigV4{AccessKey: a.AccessKey, SecretKey: a.SecretKey, Region: a.Region, Service: a.Service}, nil
	case AuthOAuth2:
		cfg := &oauth2.Config{
			TokenURL:     a.TokenURL,
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
			Scopes:       a.Scopes,
			Username:     a.Username,
			Password:     a.Password,
			GrantType:    oauth2.GrantType(a.GrantType),
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return oauth2.NewProvider(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("unknown auth type %q", a.Type)
	}
}
