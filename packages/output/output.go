package output

import (
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
	"github.com/abdul-hamid-achik/decorest/packages/core/response"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/abdul-hamid-achik/decorest/packages/rest"
	"github.com/abdul-hamid-achik/decorest/packages/sse"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result is the outcome of one operation call.
type Result struct {
	API       string
	Operation string
	Value     any
	Err       error
	Duration  time.Duration
}

// Status returns the HTTP status behind the result when one is known.
func (r *Result) Status() int {
	var herr *response.HTTPError
	if errors.As(r.Err, &herr) {
		return herr.StatusCode
	}
	if resp, ok := r.Value.(*http.Response); ok {
		return resp.StatusCode
	}
	return 0
}

// Formatter interface for all output formats
type Formatter interface {
	FormatResult(result *Result)
	FormatEvent(event sse.Event)
	FormatOperations(api *rest.API)
	FormatError(err error)
}

// formatValue renders a call value for display.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(val))
	case *http.Response:
		return fmt.Sprintf("<stream %s, %s>", val.Status, val.ContentType())
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

type operationInfo struct {
	Name   string   `json:"name"`
	Method string   `json:"method"`
	Path   string   `json:"path"`
	Params []string `json:"params,omitempty"`
}

func describe(api *rest.API) []operationInfo {
	names := api.Operations()
	infos := make([]operationInfo, 0, len(names))
	for _, name := range names {
		op, ok := api.Lookup(name)
		if !ok {
			continue
		}
		method, _ := op.Declaration.Method()
		path, _ := op.Declaration.String(metadata.KeyEndpoint)
		infos = append(infos, operationInfo{
			Name:   name,
			Method: string(method),
			Path:   path,
			Params: op.Signature.Params,
		})
	}
	return infos
}
