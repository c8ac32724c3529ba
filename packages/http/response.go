package http

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Duration   time.Duration

	mu     sync.Mutex
	stream io.ReadCloser
}

// NewStreamResponse wraps an unread body. The caller owns the body until it is
// consumed through Content or released with Close.
func NewStreamResponse(statusCode int, status string, headers http.Header, body io.ReadCloser) *Response {
	return &Response{
		StatusCode: statusCode,
		Status:     status,
		Headers:    headers,
		stream:     body,
	}
}

// IsStream reports whether the body is still unread.
func (r *Response) IsStream() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream != nil
}

// Reader returns the unread body of a streamed response, or a reader over the
// buffered body otherwise.
func (r *Response) Reader() io.ReadCloser {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream != nil {
		return r.stream
	}
	return io.NopCloser(bytes.NewReader(r.Body))
}

// Content returns the body bytes, draining a streamed body on first use.
func (r *Response) Content() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream == nil {
		return r.Body, nil
	}
	defer func() {
		r.stream.Close()
		r.stream = nil
	}()
	data, err := io.ReadAll(r.stream)
	if err != nil {
		return nil, err
	}
	r.Body = data
	return data, nil
}

// Close releases a streamed body. It is a no-op for buffered responses.
func (r *Response) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream == nil {
		return nil
	}
	err := r.stream.Close()
	r.stream = nil
	return err
}

// Text returns the body as a string
func (r *Response) Text() string {
	body, _ := r.Content()
	return string(body)
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	body, err := r.Content()
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// BodyJSON decodes the body into a generic value.
func (r *Response) BodyJSON() (any, error) {
	var result any
	if err := r.JSON(&result); err != nil {
		return nil, err
	}
	return result, nil
}

// Header returns the first value of a response header
func (r *Response) Header(key string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get(key)
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

// MediaType returns the content type without parameters, lower-cased.
func (r *Response) MediaType() string {
	ct := r.ContentType()
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	}
	return mt
}

func (r *Response) IsJSON() bool {
	return r.MediaType() == "application/json"
}

// IsSuccess returns true for 2xx status codes
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
