package rest

import (
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/abdul-hamid-achik/decorest/packages/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostsAPI(t *testing.T, baseURL string) *API {
	t.Helper()

	api, err := NewAPI("posts",
		metadata.Endpoint(baseURL),
		metadata.Header("X-Client", "decorest-test"),
		metadata.Accept("application/json"),
		metadata.Timeout(5*time.Second),
	)
	require.NoError(t, err)

	api.MustRegister("get_post", Params("id", "post_id", "expand"),
		metadata.Method(http.GET),
		metadata.Endpoint("/users/{id}/posts/{post_id}"),
		metadata.Query("expand"),
	)
	api.MustRegister("find_post", Params("id"),
		metadata.Method(http.GET),
		metadata.Endpoint("/posts/{id}"),
		metadata.On(404, func(*http.Response) (any, error) { return "not found", nil }),
	)
	api.MustRegister("get_raw", Params("id"),
		metadata.Method(http.GET),
		metadata.Endpoint("/posts/{id}"),
	)
	api.MustRegister("create_post", Params("post"),
		metadata.Method(http.POST),
		metadata.Endpoint("/posts"),
		metadata.Body("post"),
		metadata.On(201, func(resp *http.Response) (any, error) { return resp.Header("Location"), nil }),
	)
	api.MustRegister("delete_post", Params("id"),
		metadata.Method(http.DELETE),
		metadata.Endpoint("/posts/{id}"),
	)
	api.MustRegister("watch", nil,
		metadata.Method(http.GET),
		metadata.Endpoint("/events"),
		metadata.Stream(true),
	)
	api.MustRegister("login", Params("username", "password"),
		metadata.Method(http.POST),
		metadata.Endpoint("/login"),
		metadata.Form("username"),
		metadata.Form("password"),
	)
	api.MustRegister("upload", Params("file", "note"),
		metadata.Method(http.PUT),
		metadata.Endpoint("/files"),
		metadata.Multipart("file"),
		metadata.Multipart("note", "comment"),
	)
	api.MustRegister("me", nil,
		metadata.Method(http.GET),
		metadata.Endpoint("/me"),
	)
	return api
}

func newPostsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := nethttp.NewServeMux()

	mux.HandleFunc("/users/7/posts/42", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "decorest-test", r.Header.Get("X-Client"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":42,"expand":"`+r.URL.Query().Get("expand")+`"}`)
	})
	mux.HandleFunc("/posts/1", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.Method {
		case nethttp.MethodDelete:
			w.WriteHeader(nethttp.StatusNoContent)
		default:
			w.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(w, "first post")
		}
	})
	mux.HandleFunc("/posts/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Error(w, "no such post", nethttp.StatusNotFound)
	})
	mux.HandleFunc("/posts", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, nethttp.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"title":"hello"}`, string(body))
		w.Header().Set("Location", "/posts/99")
		w.WriteHeader(nethttp.StatusCreated)
	})
	mux.HandleFunc("/events", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: one\n\ndata: two\n\n")
	})
	mux.HandleFunc("/login", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		if !assert.NoError(t, r.ParseForm()) {
			return
		}
		if r.PostForm.Get("username") != "ada" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(nethttp.StatusUnauthorized)
			return
		}
		nethttp.SetCookie(w, &nethttp.Cookie{Name: "session", Value: "abc", Path: "/"})
		w.WriteHeader(nethttp.StatusNoContent)
	})
	mux.HandleFunc("/me", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		cookie, err := r.Cookie("session")
		if err != nil {
			w.WriteHeader(nethttp.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"session":"`+cookie.Value+`"}`)
	})
	mux.HandleFunc("/files", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, nethttp.MethodPut, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		f, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(header.Filename + ":" + string(data) + ":" + r.FormValue("comment")))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_Call(t *testing.T) {
	server := newPostsServer(t)
	client := NewClient(newPostsAPI(t, server.URL))
	ctx := context.Background()

	t.Run("path and query", func(t *testing.T) {
		got, err := client.Call(ctx, "get_post", 7, 42, Kwargs{"expand": "comments"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": float64(42), "expand": "comments"}, got)
	})

	t.Run("text body", func(t *testing.T) {
		got, err := client.Call(ctx, "get_raw", 1)
		require.NoError(t, err)
		assert.Equal(t, "first post", got)
	})

	t.Run("404 handler", func(t *testing.T) {
		got, err := client.Call(ctx, "find_post", 5)
		require.NoError(t, err)
		assert.Equal(t, "not found", got)
	})

	t.Run("404 without handler", func(t *testing.T) {
		_, err := client.Call(ctx, "get_raw", 5)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrHTTP)

		var herr *HTTPError
		require.ErrorAs(t, err, &herr)
		assert.Equal(t, 404, herr.StatusCode)
		assert.Contains(t, string(herr.Body), "no such post")
	})

	t.Run("204 yields nil", func(t *testing.T) {
		got, err := client.Call(ctx, "delete_post", 1)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("json body and created handler", func(t *testing.T) {
		got, err := client.Call(ctx, "create_post", map[string]any{"title": "hello"})
		require.NoError(t, err)
		assert.Equal(t, "/posts/99", got)
	})

	t.Run("multipart upload", func(t *testing.T) {
		file := &http.File{Name: "notes.txt", Content: strings.NewReader("data")}
		got, err := client.Call(ctx, "upload", file, "draft")
		require.NoError(t, err)
		assert.Equal(t, []byte("notes.txt:data:draft"), got)
	})
}

func TestClient_StreamReturnsRawResponse(t *testing.T) {
	server := newPostsServer(t)
	client := NewClient(newPostsAPI(t, server.URL))

	got, err := client.Call(context.Background(), "watch")
	require.NoError(t, err)

	resp, ok := got.(*http.Response)
	require.True(t, ok, "expected *http.Response, got %T", got)
	assert.True(t, resp.IsStream())
	defer resp.Close()

	data, err := io.ReadAll(resp.Reader())
	require.NoError(t, err)
	assert.Equal(t, "data: one\n\ndata: two\n\n", string(data))
}

func TestClient_StreamOverride(t *testing.T) {
	server := newPostsServer(t)
	client := NewClient(newPostsAPI(t, server.URL))

	got, err := client.Call(context.Background(), "watch", Kwargs{"stream": false})
	require.NoError(t, err)
	assert.Equal(t, "data: one\n\ndata: two\n\n", got)
}

func TestClient_Errors(t *testing.T) {
	server := newPostsServer(t)
	client := NewClient(newPostsAPI(t, server.URL))
	ctx := context.Background()

	t.Run("unknown operation", func(t *testing.T) {
		_, err := client.Call(ctx, "nope")
		assert.ErrorIs(t, err, ErrUnknownOperation)
	})

	t.Run("binding", func(t *testing.T) {
		_, err := client.Call(ctx, "get_raw", 1, 2)
		assert.ErrorIs(t, err, ErrBinding)

		_, err = client.Call(ctx, "get_raw", Kwargs{"slug": "x"})
		assert.ErrorIs(t, err, ErrBinding)
	})

	t.Run("path render", func(t *testing.T) {
		_, err := client.Call(ctx, "get_post", 7)
		assert.ErrorIs(t, err, ErrPathRender)
	})

	t.Run("override validation", func(t *testing.T) {
		_, err := client.Call(ctx, "get_raw", 1, Kwargs{"stream": "yes"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("transport failure", func(t *testing.T) {
		dead := NewClient(newPostsAPI(t, "http://127.0.0.1:1"))
		_, err := dead.Call(ctx, "get_raw", 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransport)
	})
}

func TestClient_TimeoutOverride(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	api, err := NewAPI("slow", metadata.Endpoint(server.URL))
	require.NoError(t, err)
	api.MustRegister("wait", nil, metadata.Method(http.GET))

	start := time.Now()
	_, err = NewClient(api).Call(context.Background(), "wait", Kwargs{"timeout": 0.05})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestClient_Options(t *testing.T) {
	headers := make(chan nethttp.Header, 2)
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		headers <- r.Header.Clone()
		w.WriteHeader(nethttp.StatusNoContent)
	}))
	defer server.Close()

	api, err := NewAPI("opts", metadata.Endpoint("http://unused.invalid"))
	require.NoError(t, err)
	api.MustRegister("ping", nil, metadata.Method(http.GET), metadata.Endpoint("/ping"))

	client := NewClient(api,
		WithEndpoint(server.URL),
		WithAuth(http.BearerToken("tok")),
		WithRequestID("X-Request-Id"),
	)
	assert.Equal(t, http.BearerToken("tok"), client.Auth())
	assert.Equal(t, server.URL, client.Endpoint())

	_, err = client.Call(context.Background(), "ping")
	require.NoError(t, err)

	seen := <-headers
	assert.Equal(t, "Bearer tok", seen.Get("Authorization"))
	_, err = uuid.Parse(seen.Get("X-Request-Id"))
	assert.NoError(t, err)

	_, err = client.Call(context.Background(), "ping", Kwargs{"header": map[string]string{"X-Request-Id": "fixed"}})
	require.NoError(t, err)
	seen = <-headers
	assert.Equal(t, "fixed", seen.Get("X-Request-Id"))
}

func TestClient_HandlerTransport(t *testing.T) {
	handler := nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"path":"`+r.URL.Path+`"}`)
	})

	api, err := NewAPI("local", metadata.Endpoint("http://local"))
	require.NoError(t, err)
	api.MustRegister("get", Params("id"), metadata.Method(http.GET), metadata.Endpoint("/items/{id}"))

	client := NewClient(api, WithTransport(http.NewHandlerTransport(handler)))
	got, err := client.Call(context.Background(), "get", "a")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"path": "/items/a"}, got)
}

func TestClient_Metrics(t *testing.T) {
	server := newPostsServer(t)
	registry := prometheus.NewRegistry()
	client := NewClient(newPostsAPI(t, server.URL), WithMetrics(metrics.NewWithRegistry(registry)))
	ctx := context.Background()

	_, err := client.Call(ctx, "get_raw", 1)
	require.NoError(t, err)
	_, err = client.Call(ctx, "get_raw", 5)
	require.Error(t, err)

	expected := `
# HELP decorest_calls_total Total number of declared API calls that received a response
# TYPE decorest_calls_total counter
decorest_calls_total{method="GET",operation="get_raw",status="200"} 1
decorest_calls_total{method="GET",operation="get_raw",status="404"} 1
# HELP decorest_errors_total Total number of failed declared API calls by error kind
# TYPE decorest_errors_total counter
decorest_errors_total{kind="http",operation="get_raw"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"decorest_calls_total", "decorest_errors_total"))
}

func TestClient_CallAsync(t *testing.T) {
	server := newPostsServer(t)
	client := NewClient(newPostsAPI(t, server.URL))

	f1 := client.CallAsync(context.Background(), "get_raw", 1)
	f2 := client.CallAsync(context.Background(), "get_raw", 5)

	got, err := f1.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first post", got)

	_, err = f2.Await(context.Background())
	assert.ErrorIs(t, err, ErrHTTP)
}

func TestFuture_AwaitCancelled(t *testing.T) {
	f := newFuture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAPI_Register(t *testing.T) {
	api, err := NewAPI("api")
	require.NoError(t, err)

	_, err = api.Register("a", Params("x", "x"))
	assert.ErrorContains(t, err, "duplicate parameter")

	_, err = api.Register("a", nil, metadata.Method(http.GET))
	require.NoError(t, err)
	_, err = api.Register("a", nil)
	assert.ErrorContains(t, err, "already registered")

	_, err = api.Register("b", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, api.Operations())

	_, err = NewAPI("bad", metadata.Query("q"))
	assert.ErrorContains(t, err, "can only be declared on operations")
}

func TestSplitArgs(t *testing.T) {
	pos, kw := splitArgs([]any{1, Kwargs{"a": 2}})
	assert.Equal(t, []any{1}, pos)
	assert.Equal(t, map[string]any{"a": 2}, kw)

	pos, kw = splitArgs([]any{1, map[string]any{"a": 2}})
	assert.Len(t, pos, 2, "a plain map is a positional value")
	assert.Nil(t, kw)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, metrics.KindHTTP, errorKind(&HTTPError{StatusCode: 500}))
	assert.Equal(t, metrics.KindTransport, errorKind(&TransportError{Cause: errors.New("x")}))
	assert.Equal(t, metrics.KindHandler, errorKind(errors.New("handler failed")))
}

func TestAsyncSession_Limit(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		hits.Add(1)
		w.WriteHeader(nethttp.StatusNoContent)
	}))
	defer server.Close()

	api, err := NewAPI("count", metadata.Endpoint(server.URL))
	require.NoError(t, err)
	api.MustRegister("hit", nil, metadata.Method(http.GET))

	s := NewClient(api).AsyncSession()
	s.SetLimit(2)
	require.NoError(t, s.Enter(context.Background()))

	futures := make([]*Future, 0, 6)
	for i := 0; i < 6; i++ {
		futures = append(futures, s.Go(context.Background(), "hit"))
	}
	require.NoError(t, s.Exit())

	for _, f := range futures {
		select {
		case <-f.Done():
		default:
			t.Fatal("future not resolved after Exit")
		}
		_, err := f.Await(context.Background())
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(6), hits.Load())
}
