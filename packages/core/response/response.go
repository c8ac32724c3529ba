// Package response turns a finished transport response into the value a call
// returns.
package response

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/decorest/packages/core/dispatch"
	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/rs/zerolog"
)

const (
	MediaJSON   = "application/json"
	MediaBinary = "application/octet-stream"
)

// Route picks the result for resp. In order: the handler registered for the
// status, the AnyStatus handler, the raw response when streaming, an
// HTTPError for statuses of 400 and above, and finally the body decoded by
// media type. An empty body yields nil. Handler errors are returned as is.
func Route(ctx context.Context, resp *http.Response, handlers metadata.StatusHandlers, stream bool) (any, error) {
	logger := zerolog.Ctx(ctx)

	if h, ok := handlers[resp.StatusCode]; ok {
		logger.Trace().Int("status", resp.StatusCode).Msg("routing to status handler")
		return h(resp)
	}
	if h, ok := handlers[metadata.AnyStatus]; ok {
		logger.Trace().Int("status", resp.StatusCode).Msg("routing to catch-all handler")
		return h(resp)
	}
	if stream {
		logger.Trace().Int("status", resp.StatusCode).Msg("returning raw streamed response")
		return resp, nil
	}

	body, err := resp.Content()
	if err != nil {
		return nil, &dispatch.TransportError{Cause: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       body,
			Response:   resp,
		}
	}

	if len(body) == 0 {
		return nil, nil
	}
	return Decode(resp)
}

// Decode converts a buffered body by media type: JSON to a decoded value,
// octet-stream to bytes, anything else to text.
func Decode(resp *http.Response) (any, error) {
	switch resp.MediaType() {
	case MediaJSON:
		v, err := resp.BodyJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to decode json response: %w", err)
		}
		return v, nil
	case MediaBinary:
		body, err := resp.Content()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), body...), nil
	default:
		return resp.Text(), nil
	}
}
