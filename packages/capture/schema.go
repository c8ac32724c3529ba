package capture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/xeipuuv/gojsonschema"
)

var ErrSchema = errors.New("capture: response does not match schema")

// SchemaError lists the violations found in a response body.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema validation failed: %s", strings.Join(e.Violations, "; "))
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// Schema compiles schema once and returns a handler that validates the JSON
// body against it. A valid body is returned decoded.
func Schema(schema []byte) (metadata.Handler, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("invalid json schema: %w", err)
	}

	return func(resp *http.Response) (any, error) {
		body, err := resp.Content()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		result, err := compiled.Validate(gojsonschema.NewBytesLoader(body))
		if err != nil {
			return nil, fmt.Errorf("schema validation error: %w", err)
		}
		if !result.Valid() {
			violations := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				violations = append(violations, desc.String())
			}
			return nil, &SchemaError{Violations: violations}
		}
		return resp.BodyJSON()
	}, nil
}
