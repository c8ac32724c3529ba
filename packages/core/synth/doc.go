// Package synth resolves the API declaration, the operation declaration, the
// bound arguments and the call-time overrides of one call into a single
// Request.
//
// Resolution runs in a fixed order: path, query/form/multipart parameters,
// headers, body, auth, status handlers, timeout, stream, call-time overrides,
// payload exclusivity, header defaults and finally body serialization. Later
// steps override earlier ones except where a step merges.
//
// Only one payload is ever sent. Multipart parts win over form fields, and
// form fields win over a raw body. A multipart request never carries an
// explicit Content-Type; the transport sets it with the boundary.
package synth
