package metadata

import (
	"github.com/abdul-hamid-achik/decorest/packages/http"
)

// AnyStatus keys the catch-all handler.
const AnyStatus = -1

// Handler turns a finished response into the caller visible result.
type Handler func(resp *http.Response) (any, error)

// StatusHandlers maps a status code, or AnyStatus, to its handler.
type StatusHandlers map[int]Handler

// Merge returns a new table holding s overlaid with other.
func (s StatusHandlers) Merge(other StatusHandlers) StatusHandlers {
	out := make(StatusHandlers, len(s)+len(other))
	for code, h := range s {
		out[code] = h
	}
	for code, h := range other {
		out[code] = h
	}
	return out
}

// Lookup returns the handler for status, falling back to AnyStatus.
func (s StatusHandlers) Lookup(status int) (Handler, bool) {
	if h, ok := s[status]; ok {
		return h, true
	}
	if h, ok := s[AnyStatus]; ok {
		return h, true
	}
	return nil, false
}

// Serializer converts a body argument before it is sent.
type Serializer func(v any) (any, error)

// BodyBinding names the argument carrying the request body.
type BodyBinding struct {
	Arg        string
	Serializer Serializer
}

// Params maps argument names to the wire names of query, form or multipart
// parameters.
type Params map[string]string

// Merge returns the union of p and other; other wins on collisions.
func (p Params) Merge(other Params) Params {
	out := make(Params, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
