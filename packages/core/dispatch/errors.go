package dispatch

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/decorest/packages/http"
)

// ErrTransport matches every TransportError.
var ErrTransport = errors.New("transport failed")

// TransportError wraps any failure raised by a transport so callers never see
// a backend specific error type at the top level.
type TransportError struct {
	Method http.Verb
	URL    string
	Cause  error
}

func (e *TransportError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("transport: %v", e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
