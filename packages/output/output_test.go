package output

import (
	"bytes"
	"errors"
	nethttp "net/http"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
	"github.com/abdul-hamid-achik/decorest/packages/core/response"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/abdul-hamid-achik/decorest/packages/rest"
	"github.com/abdul-hamid-achik/decorest/packages/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAPI(t *testing.T) *rest.API {
	t.Helper()
	api, err := rest.NewAPI("posts", metadata.Endpoint("https://api.test"))
	require.NoError(t, err)
	api.MustRegister("get_post", rest.Params("id"), metadata.Method(http.GET), metadata.Endpoint("/posts/{id}"))
	api.MustRegister("ping", nil, metadata.Method(http.HEAD), metadata.Endpoint("/ping"))
	return api
}

func TestResult_Status(t *testing.T) {
	assert.Equal(t, 404, (&Result{Err: &response.HTTPError{StatusCode: 404}}).Status())
	assert.Equal(t, 200, (&Result{Value: &http.Response{StatusCode: 200}}).Status())
	assert.Equal(t, 0, (&Result{Value: "ok"}).Status())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "null", formatValue(nil))
	assert.Equal(t, "plain", formatValue("plain"))
	assert.Equal(t, "<3 bytes>", formatValue([]byte("abc")))
	assert.Equal(t, "{\n  \"id\": 1\n}", formatValue(map[string]any{"id": 1}))

	resp := &http.Response{Status: "200 OK", Headers: nethttp.Header{"Content-Type": {"text/event-stream"}}}
	assert.Equal(t, "<stream 200 OK, text/event-stream>", formatValue(resp))
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatResult(&Result{API: "posts", Operation: "get_post", Value: map[string]any{"id": 1}, Duration: 12 * time.Millisecond})
	assert.Contains(t, buf.String(), "✓ posts.get_post (12ms)")
	assert.Contains(t, buf.String(), `"id": 1`)

	buf.Reset()
	f.FormatResult(&Result{API: "posts", Operation: "get_post", Err: &response.HTTPError{StatusCode: 500, Status: "500 Internal Server Error", Body: []byte("boom")}})
	assert.Contains(t, buf.String(), "✗ posts.get_post")
	assert.Contains(t, buf.String(), "Body: boom")

	buf.Reset()
	f.FormatEvent(sse.Event{ID: "4", Data: "hello"})
	assert.Equal(t, "message#4: hello\n", buf.String())

	buf.Reset()
	f.FormatOperations(testAPI(t))
	assert.Contains(t, buf.String(), "posts https://api.test")
	assert.Contains(t, buf.String(), "get_post GET     /posts/{id} (id)")
	assert.Contains(t, buf.String(), "ping HEAD    /ping\n")

	buf.Reset()
	f.FormatError(errors.New("no such file"))
	assert.Equal(t, "Error: no such file\n", buf.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatResult(&Result{API: "posts", Operation: "get_post", Value: map[string]any{"id": 1}, Duration: time.Second})
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "get_post", got["operation"])
	assert.Equal(t, float64(1000), got["duration"])
	assert.Equal(t, map[string]any{"id": float64(1)}, got["value"])
	assert.NotContains(t, got, "error")

	buf.Reset()
	f.FormatResult(&Result{API: "posts", Operation: "get_post", Err: &response.HTTPError{StatusCode: 404, Status: "404 Not Found"}})
	got = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, float64(404), got["status"])
	assert.NotEmpty(t, got["error"])

	buf.Reset()
	f.FormatOperations(testAPI(t))
	assert.JSONEq(t, `{
		"name": "posts",
		"endpoint": "https://api.test",
		"operations": [
			{"name": "get_post", "method": "GET", "path": "/posts/{id}", "params": ["id"]},
			{"name": "ping", "method": "HEAD", "path": "/ping"}
		]
	}`, buf.String())

	buf.Reset()
	f.FormatEvent(sse.Event{Type: "tick", Data: "1", Retry: 3 * time.Second})
	assert.JSONEq(t, `{"type":"tick","data":"1","retry":3000}`, buf.String())
}
