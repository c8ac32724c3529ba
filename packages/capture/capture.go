package capture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/tidwall/gjson"
)

type Source string

const (
	SourceBody     Source = "body"
	SourceHeader   Source = "header"
	SourceStatus   Source = "status"
	SourceDuration Source = "duration"
)

var (
	ErrNotFound = errors.New("capture: value not found")
	ErrHandler  = errors.New("capture: handler error")
)

// Capture addresses one value of a response.
type Capture struct {
	Source Source
	Path   string
}

// Parse reads "body", "body.<gjson path>", "header.<name>", "status" or
// "duration". An empty expression captures the whole body.
func Parse(expr string) (Capture, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Capture{Source: SourceBody}, nil
	}

	head, rest, _ := strings.Cut(expr, ".")
	switch Source(head) {
	case SourceBody:
		return Capture{Source: SourceBody, Path: rest}, nil
	case SourceHeader:
		if rest == "" {
			return Capture{}, fmt.Errorf("capture %q: header name is required", expr)
		}
		return Capture{Source: SourceHeader, Path: rest}, nil
	case SourceStatus, SourceDuration:
		if rest != "" {
			return Capture{}, fmt.Errorf("capture %q: %s takes no path", expr, head)
		}
		return Capture{Source: Source(head)}, nil
	default:
		return Capture{}, fmt.Errorf("capture %q: unknown source %q", expr, head)
	}
}

func (c Capture) String() string {
	if c.Path == "" {
		return string(c.Source)
	}
	return string(c.Source) + "." + c.Path
}

type Extractor struct {
	response *http.Response
	body     []byte
	bodyJSON gjson.Result
	err      error
}

func NewExtractor(resp *http.Response) *Extractor {
	e := &Extractor{response: resp}
	e.body, e.err = resp.Content()
	if e.err == nil && resp.IsJSON() && gjson.ValidBytes(e.body) {
		e.bodyJSON = gjson.ParseBytes(e.body)
	}
	return e
}

func (e *Extractor) Extract(c Capture) (any, error) {
	switch c.Source {
	case SourceBody:
		return e.extractFromBody(c.Path)
	case SourceHeader:
		return e.extractFromHeader(c.Path)
	case SourceStatus:
		return e.response.StatusCode, nil
	case SourceDuration:
		return e.response.DurationMs(), nil
	default:
		return nil, fmt.Errorf("unknown capture source %q", c.Source)
	}
}

func (e *Extractor) extractFromBody(path string) (any, error) {
	if e.err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", e.err)
	}
	if !e.bodyJSON.Exists() {
		if path == "" {
			return string(e.body), nil
		}
		return nil, fmt.Errorf("%w: body is not JSON, cannot read %q", ErrNotFound, path)
	}

	if path == "" {
		return e.bodyJSON.Value(), nil
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return nil, fmt.Errorf("%w: body path %q", ErrNotFound, path)
	}
	return result.Value(), nil
}

func (e *Extractor) extractFromHeader(name string) (any, error) {
	if values := e.response.Headers.Values(name); len(values) > 0 {
		return values[0], nil
	}
	return nil, fmt.Errorf("%w: header %q", ErrNotFound, name)
}

// ExtractAll resolves every named capture, skipping the ones that fail.
func ExtractAll(resp *http.Response, captures map[string]Capture) map[string]any {
	extractor := NewExtractor(resp)
	results := make(map[string]any, len(captures))
	for name, c := range captures {
		if value, err := extractor.Extract(c); err == nil {
			results[name] = value
		}
	}
	return results
}

// Extract returns a handler yielding the captured value.
func Extract(c Capture) metadata.Handler {
	return func(resp *http.Response) (any, error) {
		return NewExtractor(resp).Extract(c)
	}
}

// Value returns a handler yielding v whatever the response.
func Value(v any) metadata.Handler {
	return func(*http.Response) (any, error) {
		return v, nil
	}
}

// HandlerError is returned by the Error handler.
type HandlerError struct {
	StatusCode int
	Message    string
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func (e *HandlerError) Is(target error) bool {
	return target == ErrHandler
}

// Error returns a handler failing with message.
func Error(message string) metadata.Handler {
	return func(resp *http.Response) (any, error) {
		return nil, &HandlerError{StatusCode: resp.StatusCode, Message: message}
	}
}
