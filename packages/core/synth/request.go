package synth

import (
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
	"github.com/abdul-hamid-achik/decorest/packages/http"
)

const (
	HeaderAccept      = "Accept"
	HeaderContentType = "Content-Type"

	MediaJSON = "application/json"
	MediaForm = "application/x-www-form-urlencoded"
)

// Request is the fully resolved description of one call. It is built per call
// and never shared.
type Request struct {
	Operation string
	Method    http.Verb
	Path      string
	Headers   *metadata.Headers
	Query     map[string]any
	Form      map[string]any
	Multipart map[string]any
	Body      any
	Timeout   time.Duration
	Stream    bool
	Auth      any
	Handlers  metadata.StatusHandlers
}

// Header returns the resolved value of a header, ignoring case.
func (r *Request) Header(name string) string {
	v, _ := r.Headers.Get(name)
	return v
}

// TransportOptions converts the request into the keyword set a transport
// accepts.
func (r *Request) TransportOptions() *http.Options {
	opts := &http.Options{
		Headers: r.Headers.Map(),
		Auth:    r.Auth,
		Timeout: r.Timeout,
		Stream:  r.Stream,
	}
	if len(r.Query) > 0 {
		opts.Params = r.Query
	}
	switch {
	case len(r.Multipart) > 0:
		opts.Files = r.Multipart
	case len(r.Form) > 0:
		opts.Data = r.Form
	case r.Body != nil:
		opts.Data = r.Body
	}
	return opts
}
