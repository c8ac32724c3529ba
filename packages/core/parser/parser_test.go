package parser

import (
	"context"
	"io"
	nethttp "net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/decorest/packages/capture"
	"github.com/abdul-hamid-achik/decorest/packages/core/env"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/abdul-hamid-achik/decorest/packages/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postsDocument = `
name: posts
endpoint: "http://{{host}}"
headers:
  X-Client: decorest
accept: application/json
timeout: 2.5
auth:
  type: bearer
  token: "{{$DECOREST_PARSER_TOKEN}}"
on:
  "*": {extract: body}
operations:
  - name: get_post
    method: get
    path: /posts/{post_id}
    params: [post_id, fields, token]
    query: {fields: ""}
    headers: {token: X-Token}
    on:
      404: {value: null}
  - name: create_post
    method: POST
    path: /posts
    params: [post]
    body: {arg: post, serializer: json}
    timeout: 500ms
    on:
      201: {extract: header.Location}
      422: {error: invalid post}
  - name: get_user
    method: GET
    path: /users/{id}
    params: [id]
    on:
      200:
        schema:
          type: object
          required: [id]
`

func postsResolver() *env.Resolver {
	r := env.NewResolver()
	r.SetVariable("host", "api.test")
	return r
}

func postsHandler(t *testing.T) nethttp.Handler {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("GET /posts/7", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"fields":"`+r.URL.Query().Get("fields")+`","token":"`+r.Header.Get("X-Token")+
			`","auth":"`+r.Header.Get("Authorization")+`","client":"`+r.Header.Get("X-Client")+`"}`)
	})
	mux.HandleFunc("GET /posts/8", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
	})
	mux.HandleFunc("POST /posts", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, err := io.ReadAll(r.Body)
		if !assert.NoError(t, err) {
			return
		}
		if !strings.Contains(string(body), `"title"`) {
			w.WriteHeader(nethttp.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Location", "/posts/9")
		w.WriteHeader(nethttp.StatusCreated)
	})
	mux.HandleFunc("GET /users/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.PathValue("id") == "1" {
			_, _ = io.WriteString(w, `{"id":1}`)
			return
		}
		_, _ = io.WriteString(w, `{"name":"nobody"}`)
	})
	return mux
}

func TestParse_Document(t *testing.T) {
	t.Setenv("DECOREST_PARSER_TOKEN", "t0k")

	file, err := Parse([]byte(postsDocument), "posts.yaml", WithResolver(postsResolver()))
	require.NoError(t, err)

	assert.Equal(t, "posts", file.Name)
	assert.Equal(t, "http://api.test", file.Endpoint)
	assert.Equal(t, 2500*time.Millisecond, file.Timeout.Duration)
	assert.Equal(t, "t0k", file.Auth.Token)
	require.Len(t, file.Operations, 3)

	get := file.Operations[0]
	assert.Equal(t, "get_post", get.Name)
	assert.Equal(t, []string{"post_id", "fields", "token"}, get.Params)
	assert.Equal(t, HandlerValue, get.On["404"].Kind)
	assert.Nil(t, get.On["404"].Value)

	create := file.Operations[1]
	assert.Equal(t, "json", create.Body.Serializer)
	assert.Equal(t, 500*time.Millisecond, create.Timeout.Duration)
	assert.Equal(t, HandlerError, create.On["422"].Kind)
	assert.Equal(t, "invalid post", create.On["422"].Error)

	assert.JSONEq(t, `{"type":"object","required":["id"]}`, string(file.Operations[2].On["200"].Schema))
}

func TestBuild_CallsThroughClient(t *testing.T) {
	t.Setenv("DECOREST_PARSER_TOKEN", "t0k")

	file, err := Parse([]byte(postsDocument), "posts.yaml", WithResolver(postsResolver()))
	require.NoError(t, err)

	api, err := file.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"get_post", "create_post", "get_user"}, api.Operations())

	auth, err := file.Authenticator()
	require.NoError(t, err)

	client := rest.NewClient(api,
		rest.WithTransport(http.NewHandlerTransport(postsHandler(t))),
		rest.WithAuth(auth),
	)
	ctx := context.Background()

	got, err := client.Call(ctx, "get_post", 7, rest.Kwargs{"fields": "title", "token": "abc"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"fields": "title", "token": "abc", "auth": "Bearer t0k", "client": "decorest"}, got)

	got, err = client.Call(ctx, "get_post", 8)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = client.Call(ctx, "create_post", map[string]any{"title": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "/posts/9", got)

	_, err = client.Call(ctx, "create_post", map[string]any{"body": "no title"})
	assert.ErrorIs(t, err, capture.ErrHandler)
	assert.EqualError(t, err, "422: invalid post")

	got, err = client.Call(ctx, "get_user", 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": float64(1)}, got)

	_, err = client.Call(ctx, "get_user", 2)
	assert.ErrorIs(t, err, capture.ErrSchema)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			doc:     "name: [",
			wantErr: "invalid yaml",
		},
		{
			name:    "empty document",
			doc:     "",
			wantErr: "document is empty",
		},
		{
			name:    "unresolved variable",
			doc:     "name: x\nendpoint: '{{base}}/{{version}}'\noperations: []",
			wantErr: "unresolved variables: base, version",
		},
		{
			name:    "missing operations",
			doc:     "name: x",
			wantErr: "operations is required",
		},
		{
			name:    "unsupported method",
			doc:     "name: x\noperations:\n  - {name: op, method: TRACE}",
			wantErr: "document does not match schema",
		},
		{
			name:    "unknown field",
			doc:     "name: x\nretries: 3\noperations: []",
			wantErr: "retries",
		},
		{
			name:    "two handler kinds",
			doc:     "name: x\non:\n  404: {value: 1, error: boom}\noperations: []",
			wantErr: "document does not match schema",
		},
		{
			name:    "bearer without token",
			doc:     "name: x\nauth: {type: bearer}\noperations: []",
			wantErr: "token is required",
		},
		{
			name:    "duplicate operation",
			doc:     "name: x\noperations:\n  - {name: a, method: GET}\n  - {name: a, method: POST}",
			wantErr: `operation "a" is declared twice`,
		},
		{
			name:    "query on undeclared param",
			doc:     "name: x\noperations:\n  - {name: a, method: GET, params: [id], query: {page: p}}",
			wantErr: `query argument "page" is not a declared param`,
		},
		{
			name:    "body on undeclared param",
			doc:     "name: x\noperations:\n  - {name: a, method: POST, body: {arg: payload}}",
			wantErr: `body argument "payload" is not a declared param`,
		},
		{
			name:    "bad duration",
			doc:     "name: x\ntimeout: soon\noperations: []",
			wantErr: "invalid duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "api.yaml")
			require.Error(t, err)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "api.yaml", perr.File)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: ping\nendpoint: http://localhost\noperations:\n  - {name: ping, method: HEAD, path: /ping}\n"), 0644))

	file, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, file.Path)

	api, err := file.Build()
	require.NoError(t, err)
	op, ok := api.Lookup("ping")
	require.True(t, ok)
	method, _ := op.Declaration.Method()
	assert.Equal(t, http.HEAD, method)

	auth, err := file.Authenticator()
	require.NoError(t, err)
	assert.Nil(t, auth)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "cannot read file")
}

func TestFile_Authenticator(t *testing.T) {
	tests := []struct {
		name string
		spec AuthSpec
		want http.Authenticator
	}{
		{name: "basic", spec: AuthSpec{Type: AuthBasic, Username: "u", Password: "p"}, want: http.BasicAuth{Username: "u", Password: "p"}},
		{name: "bearer", spec: AuthSpec{Type: AuthBearer, Token: "t"}, want: http.BearerToken("t")},
		{name: "api key in query", spec: AuthSpec{Type: AuthAPIKey, Name: "key", Value: "v", In: "query"}, want: http.APIKey{Name: "key", Value: "v", InQuery: true}},
		{name: "digest", spec: AuthSpec{Type: AuthDigest, Username: "u", Password: "p"}, want: http.DigestAuth{Username: "u", Password: "p"}},
		{name: "aws", spec: AuthSpec{Type: AuthAWS, AccessKey: "a", SecretKey: "s", Region: "r", Service: "execute-api"}, want: http.AWSSigV4{AccessKey: "a", SecretKey: "s", Region: "r", Service: "execute-api"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := tt.spec
			got, err := (&File{Auth: &spec}).Authenticator()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("oauth2", func(t *testing.T) {
		got, err := (&File{Auth: &AuthSpec{Type: AuthOAuth2, TokenURL: "https://auth.test/token", ClientID: "id"}}).Authenticator()
		require.NoError(t, err)
		assert.IsType(t, &oauth2.Provider{}, got)

		_, err = (&File{Auth: &AuthSpec{Type: AuthOAuth2, TokenURL: "nope", ClientID: "id"}}).Authenticator()
		assert.Error(t, err)
	})
}

func TestHandlerSpec_Value(t *testing.T) {
	h, err := HandlerSpec{Kind: HandlerValue, Value: "fallback"}.Handler()
	require.NoError(t, err)
	got, err := h(&http.Response{StatusCode: 500})
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)

	_, err = HandlerSpec{Kind: HandlerExtract, Extract: "cookie.x"}.Handler()
	assert.Error(t, err)
}

func TestSerializers(t *testing.T) {
	out, err := Serializers["json"](map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)

	out, err = Serializers["text"](42)
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}
