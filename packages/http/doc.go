// Package http provides the transport boundary for decorest calls.
//
// It defines the Transport interface the engine dispatches through and ships
// two backends:
//   - Client, built on the standard library's net/http with configurable
//     timeouts, redirect handling, proxy, TLS validation and rate limiting
//   - HandlerTransport, which serves requests in-process from an http.Handler
//
// Request assembly (headers, query parameters, urlencoded and multipart
// payloads, authentication) and response buffering or streaming live here so
// the engine never touches backend specific types.
package http
