package capture

import (
	nethttp "net/http"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     nethttp.StatusText(status),
		Headers:    nethttp.Header{"Content-Type": {"application/json"}, "Location": {"/users/9"}},
		Body:       []byte(body),
		Duration:   1500 * time.Millisecond,
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		expr    string
		want    Capture
		wantErr bool
	}{
		{expr: "", want: Capture{Source: SourceBody}},
		{expr: "body", want: Capture{Source: SourceBody}},
		{expr: "body.data.items.#.id", want: Capture{Source: SourceBody, Path: "data.items.#.id"}},
		{expr: "header.X-Request-Id", want: Capture{Source: SourceHeader, Path: "X-Request-Id"}},
		{expr: "status", want: Capture{Source: SourceStatus}},
		{expr: "duration", want: Capture{Source: SourceDuration}},
		{expr: "header", wantErr: true},
		{expr: "status.code", wantErr: true},
		{expr: "cookie.sid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Parse(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract(t *testing.T) {
	resp := jsonResponse(201, `{"data":{"id":9,"tags":["a","b"]}}`)

	tests := []struct {
		expr string
		want any
	}{
		{expr: "body.data.id", want: float64(9)},
		{expr: "body.data.tags.1", want: "b"},
		{expr: "body.data.tags.#", want: float64(2)},
		{expr: "header.location", want: "/users/9"},
		{expr: "status", want: 201},
		{expr: "duration", want: int64(1500)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			c, err := Parse(tt.expr)
			require.NoError(t, err)

			got, err := Extract(c)(resp)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_NotFound(t *testing.T) {
	_, err := Extract(Capture{Source: SourceBody, Path: "data.missing"})(jsonResponse(200, `{"data":{}}`))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Extract(Capture{Source: SourceHeader, Path: "X-Nope"})(jsonResponse(200, `{}`))
	assert.ErrorIs(t, err, ErrNotFound)

	text := &http.Response{StatusCode: 200, Headers: nethttp.Header{"Content-Type": {"text/plain"}}, Body: []byte("hi")}
	got, err := Extract(Capture{Source: SourceBody})(text)
	require.NoError(t, err)
	assert.Equal(t, "hi", got)

	_, err = Extract(Capture{Source: SourceBody, Path: "a"})(text)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExtractAll(t *testing.T) {
	got := ExtractAll(jsonResponse(200, `{"id":3}`), map[string]Capture{
		"id":      {Source: SourceBody, Path: "id"},
		"status":  {Source: SourceStatus},
		"missing": {Source: SourceBody, Path: "nope"},
	})
	assert.Equal(t, map[string]any{"id": float64(3), "status": 200}, got)
}

func TestValueAndError(t *testing.T) {
	got, err := Value(false)(jsonResponse(404, ""))
	require.NoError(t, err)
	assert.Equal(t, false, got)

	_, err = Error("user not found")(jsonResponse(404, ""))
	assert.ErrorIs(t, err, ErrHandler)
	assert.EqualError(t, err, "404: user not found")
}

func TestSchema(t *testing.T) {
	handler, err := Schema([]byte(`{
		"type": "object",
		"required": ["id", "name"],
		"properties": {"id": {"type": "integer"}, "name": {"type": "string"}}
	}`))
	require.NoError(t, err)

	got, err := handler(jsonResponse(200, `{"id":1,"name":"ada"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": float64(1), "name": "ada"}, got)

	_, err = handler(jsonResponse(200, `{"id":"one"}`))
	require.ErrorIs(t, err, ErrSchema)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Len(t, serr.Violations, 2)

	_, err = Schema([]byte(`{"type": 12}`))
	assert.Error(t, err)
}
