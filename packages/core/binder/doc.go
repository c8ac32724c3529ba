// Package binder maps the arguments of one call onto the parameter names an
// operation declares.
//
// Positional values fill parameters in declaration order. Keyword values bind
// by name, except for the reserved override keys (header, query, form,
// multipart, on, accept, content, timeout, stream, body) which are split out
// and returned separately so the synthesizer can apply them last.
package binder
