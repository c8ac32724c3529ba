package response

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/decorest/packages/http"
)

// ErrHTTP matches every HTTPError.
var ErrHTTP = errors.New("http error status")

const maxErrorBody = 256

// HTTPError reports a failure status that no handler claimed.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
	Response   *http.Response
}

// Error includes at most maxErrorBody bytes of the body, cut on a rune
// boundary.
func (e *HTTPError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d", e.StatusCode)
	}
	if len(e.Body) == 0 {
		return "http error: " + status
	}
	body := e.Body
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return fmt.Sprintf("http error: %s: %s", status, body)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrHTTP
}
