// Package capture builds status handlers that turn a response into a value.
//
// Values can come from:
//   - the response body, addressed with gjson paths (body.data.id)
//   - a response header (header.Location)
//   - the status code or the round trip duration
//
// Schema validates a JSON body against a JSON schema before returning it,
// and Error turns a status into a failure with a fixed message.
package capture
