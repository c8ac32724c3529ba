package http

import (
	"context"
	"time"
)

// Verb is an HTTP method supported by the engine.
type Verb string

const (
	GET     Verb = "GET"
	POST    Verb = "POST"
	PUT     Verb = "PUT"
	PATCH   Verb = "PATCH"
	DELETE  Verb = "DELETE"
	HEAD    Verb = "HEAD"
	OPTIONS Verb = "OPTIONS"
)

// Verbs lists every supported method.
var Verbs = []Verb{GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS}

// Options is the keyword set handed to a transport call.
type Options struct {
	Headers map[string]string
	// Params are query parameters. Slice values produce repeated keys.
	Params map[string]any
	// Data is the request payload: string, []byte and io.Reader are sent raw,
	// url.Values and string/any maps are urlencoded.
	Data any
	// Files holds multipart parts. Non-empty Files excludes Data.
	Files map[string]any
	// Auth is forwarded verbatim from the declaration owner.
	Auth    any
	Timeout time.Duration
	Stream  bool
}

// Transport executes one HTTP exchange per verb.
type Transport interface {
	Get(ctx context.Context, url string, opts *Options) (*Response, error)
	Post(ctx context.Context, url string, opts *Options) (*Response, error)
	Put(ctx context.Context, url string, opts *Options) (*Response, error)
	Patch(ctx context.Context, url string, opts *Options) (*Response, error)
	Delete(ctx context.Context, url string, opts *Options) (*Response, error)
	Head(ctx context.Context, url string, opts *Options) (*Response, error)
	Options(ctx context.Context, url string, opts *Options) (*Response, error)
}

// Streamer is implemented by transports that can hand back a response whose
// body has not been read yet.
type Streamer interface {
	Stream(ctx context.Context, method Verb, url string, opts *Options) (*Response, error)
}

// Session is a transport bound to a reusable connection context.
type Session interface {
	Transport
	Close() error
}

// SessionFactory is implemented by transports able to open sessions.
type SessionFactory interface {
	NewSession() (Session, error)
}
