package metadata

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/http"
)

// Option attaches metadata to a declaration.
type Option func(d *Declaration) error

// Apply runs opts against d in order and stops at the first failure.
func (d *Declaration) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return fmt.Errorf("%s %s: %w", d.Kind, d.Name, err)
		}
	}
	return nil
}

// Header declares a header. With no value the name doubles as the value. On
// an operation the pair may also capture an argument: Header("token",
// "X-Token") sends the "token" argument as X-Token.
func Header(name string, value ...string) Option {
	v := name
	if len(value) > 0 && value[0] != "" {
		v = value[0]
	}
	return func(d *Declaration) error {
		h := NewHeaders()
		h.Set(name, v)
		return d.Set(KeyHeader, h)
	}
}

// Query maps argument arg to query parameter param (arg when omitted).
func Query(arg string, param ...string) Option {
	return paramOption(KeyQuery, arg, param)
}

// Form maps argument arg to urlencoded form field param (arg when omitted).
func Form(arg string, param ...string) Option {
	return paramOption(KeyForm, arg, param)
}

// Multipart maps argument arg to multipart part param (arg when omitted).
func Multipart(arg string, param ...string) Option {
	return paramOption(KeyMultipart, arg, param)
}

func paramOption(key Key, arg string, param []string) Option {
	p := arg
	if len(param) > 0 && param[0] != "" {
		p = param[0]
	}
	return func(d *Declaration) error {
		if d.Kind != KindOperation {
			return fmt.Errorf("%s can only be declared on operations", key)
		}
		return d.Set(key, Params{arg: p})
	}
}

// On registers a handler for status, or for every status with AnyStatus.
func On(status int, h Handler) Option {
	return func(d *Declaration) error {
		if status != AnyStatus && (status < 100 || status > 599) {
			return fmt.Errorf("status in on must be a valid HTTP status or AnyStatus, got %d", status)
		}
		if h == nil {
			return fmt.Errorf("handler for status %d is nil", status)
		}
		return d.Set(KeyOn, StatusHandlers{status: h})
	}
}

// Accept sets the Accept header default.
func Accept(value string) Option {
	return func(d *Declaration) error {
		return d.Set(KeyAccept, value)
	}
}

// Content sets the Content-Type header default.
func Content(value string) Option {
	return func(d *Declaration) error {
		return d.Set(KeyContent, value)
	}
}

// Timeout sets the per-call timeout. Negative values are rejected.
func Timeout(t time.Duration) Option {
	return func(d *Declaration) error {
		if t < 0 {
			return fmt.Errorf("timeout must not be negative")
		}
		return d.Set(KeyTimeout, t)
	}
}

// Stream asks for the raw response instead of a decoded body.
func Stream(enabled bool) Option {
	return func(d *Declaration) error {
		return d.Set(KeyStream, enabled)
	}
}

// Body names the argument carrying the request body and an optional
// serializer applied to it.
func Body(arg string, serializer ...Serializer) Option {
	b := BodyBinding{Arg: arg}
	if len(serializer) > 0 {
		b.Serializer = serializer[0]
	}
	return func(d *Declaration) error {
		if arg == "" {
			return fmt.Errorf("body argument name is required")
		}
		return d.Set(KeyBody, b)
	}
}

// Endpoint sets the base URL of an API or the path template of an operation.
func Endpoint(value string) Option {
	return func(d *Declaration) error {
		return d.Set(KeyEndpoint, value)
	}
}

// Method sets the HTTP verb of an operation.
func Method(verb http.Verb) Option {
	return func(d *Declaration) error {
		return d.Set(KeyHTTPMethod, verb)
	}
}
