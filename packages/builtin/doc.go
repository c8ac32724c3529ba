// Package builtin provides the functions available inside {{ }} expressions
// of declaration files.
//
// Available functions:
//   - uuid(): Generate a random UUID v4
//   - now(): Current UTC time in RFC 3339 format
//   - timestamp(): Current Unix timestamp
//   - date(layout): Current UTC date, "2006-01-02" by default
//   - base64(value): Base64 encode a string
//   - basicAuth(user, password): Value of a Basic Authorization header
//   - urlEncode(value): Query-escape a string
//   - sha256(value): Hex encoded SHA-256 digest
//   - env(name, fallback): Environment variable with an optional fallback
//
// Arguments may be quoted with single or double quotes.
package builtin
