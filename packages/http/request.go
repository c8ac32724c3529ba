package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// BuildURL appends query parameters to rawURL. Slice values produce one
// key per element.
func BuildURL(rawURL string, params map[string]any) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %v", err)
	}

	q := u.Query()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range valueStrings(params[k]) {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// EncodeForm urlencodes a form payload.
func EncodeForm(data any) (string, bool) {
	switch v := data.(type) {
	case url.Values:
		return v.Encode(), true
	case map[string]string:
		values := url.Values{}
		for k, s := range v {
			values.Set(k, s)
		}
		return values.Encode(), true
	case map[string]any:
		values := url.Values{}
		for k, item := range v {
			for _, s := range valueStrings(item) {
				values.Add(k, s)
			}
		}
		return values.Encode(), true
	}
	return "", false
}

func ParseFormBody(body string) map[string]string {
	result := make(map[string]string)
	pairs := strings.Split(body, "&")
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 {
			key, _ := url.QueryUnescape(kv[0])
			value, _ := url.QueryUnescape(kv[1])
			result[key] = value
		}
	}
	return result
}

// NewHTTPRequest assembles a net/http request from the transport keyword set.
// Authentication is applied by the caller once the request exists.
func NewHTTPRequest(ctx context.Context, method Verb, rawURL string, opts *Options) (*http.Request, error) {
	if opts == nil {
		opts = &Options{}
	}

	target, err := BuildURL(rawURL, opts.Params)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	var contentType string

	if len(opts.Files) > 0 {
		multipartBody, ct, err := BuildMultipartBody(opts.Files)
		if err != nil {
			return nil, err
		}
		body = multipartBody
		contentType = ct
	} else if opts.Data != nil {
		payload, ct, err := encodeData(opts.Data)
		if err != nil {
			return nil, err
		}
		body = payload
		contentType = ct
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(method), target, body)
	if err != nil {
		return nil, err
	}

	for k, v := range opts.Headers {
		httpReq.Header.Set(k, v)
	}

	// Multipart boundaries always win; urlencoded only fills a gap.
	if len(opts.Files) > 0 {
		httpReq.Header.Set("Content-Type", contentType)
	} else if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	return httpReq, nil
}

func encodeData(data any) (io.Reader, string, error) {
	switch v := data.(type) {
	case string:
		return strings.NewReader(v), "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case io.Reader:
		// Buffer so redirects and digest retries can replay the body.
		buf, err := io.ReadAll(v)
		if err != nil {
			return nil, "", fmt.Errorf("reading request body: %w", err)
		}
		return bytes.NewReader(buf), "", nil
	}

	if encoded, ok := EncodeForm(data); ok {
		return strings.NewReader(encoded), "application/x-www-form-urlencoded", nil
	}

	return nil, "", fmt.Errorf("unsupported request data type %T", data)
}

func valueStrings(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case []string:
		return val
	case []byte:
		return []string{string(val)}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, fmt.Sprint(rv.Index(i).Interface()))
		}
		return out
	}
	return []string{fmt.Sprint(v)}
}
