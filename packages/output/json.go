package output

import (
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/abdul-hamid-achik/decorest/packages/rest"
	"github.com/abdul-hamid-achik/decorest/packages/sse"
)

// JSONResult is the JSON document written for one call
type JSONResult struct {
	API       string  `json:"api"`
	Operation string  `json:"operation"`
	Status    int     `json:"status,omitempty"`
	Duration  float64 `json:"duration"`
	Value     any     `json:"value,omitempty"`
	Error     string  `json:"error,omitempty"`
	Time      string  `json:"time"`
}

// JSONEvent is the JSON document written for one server-sent event
type JSONEvent struct {
	ID    string `json:"id,omitempty"`
	Type  string `json:"type,omitempty"`
	Data  string `json:"data"`
	Retry int64  `json:"retry,omitempty"`
}

// JSONFormatter writes one indented JSON document per formatted item
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) encode(v any) {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}

func (f *JSONFormatter) FormatResult(result *Result) {
	out := JSONResult{
		API:       result.API,
		Operation: result.Operation,
		Status:    result.Status(),
		Duration:  float64(result.Duration.Milliseconds()),
		Time:      time.Now().Format(time.RFC3339),
	}
	if result.Err != nil {
		out.Error = result.Err.Error()
	} else {
		out.Value = jsonValue(result.Value)
	}
	f.encode(out)
}

// jsonValue keeps values that have no JSON form readable.
func jsonValue(v any) any {
	switch v.(type) {
	case []byte, *http.Response:
		return formatValue(v)
	}
	return v
}

func (f *JSONFormatter) FormatEvent(event sse.Event) {
	f.encode(JSONEvent{
		ID:    event.ID,
		Type:  event.Type,
		Data:  event.Data,
		Retry: event.Retry.Milliseconds(),
	})
}

func (f *JSONFormatter) FormatOperations(api *rest.API) {
	f.encode(struct {
		Name       string          `json:"name"`
		Endpoint   string          `json:"endpoint,omitempty"`
		Operations []operationInfo `json:"operations"`
	}{
		Name:       api.Name(),
		Endpoint:   api.Endpoint(),
		Operations: describe(api),
	})
}

func (f *JSONFormatter) FormatError(err error) {
	f.encode(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}
