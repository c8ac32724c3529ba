package synth

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/core/binder"
	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
)

var overrideOrder = []metadata.Key{
	metadata.KeyHeader,
	metadata.KeyQuery,
	metadata.KeyForm,
	metadata.KeyMultipart,
	metadata.KeyOn,
	metadata.KeyAccept,
	metadata.KeyContent,
	metadata.KeyTimeout,
	metadata.KeyStream,
	metadata.KeyBody,
}

// applyOverrides merges mapping overrides into req and replaces scalar ones.
func applyOverrides(req *Request, overrides binder.Overrides) error {
	for _, key := range overrideOrder {
		value, ok := overrides[key]
		if !ok {
			continue
		}

		switch key {
		case metadata.KeyHeader:
			h, err := headerOverride(value)
			if err != nil {
				return err
			}
			req.Headers = req.Headers.Merge(h)
		case metadata.KeyQuery:
			m, err := stringMap(key, value)
			if err != nil {
				return err
			}
			req.Query = mergeAny(req.Query, m)
		case metadata.KeyForm:
			m, err := stringMap(key, value)
			if err != nil {
				return err
			}
			req.Form = mergeAny(req.Form, m)
		case metadata.KeyMultipart:
			m, err := stringMap(key, value)
			if err != nil {
				return err
			}
			req.Multipart = mergeAny(req.Multipart, m)
		case metadata.KeyOn:
			handlers, err := handlersOverride(value)
			if err != nil {
				return err
			}
			req.Handlers = req.Handlers.Merge(handlers)
		case metadata.KeyAccept:
			s, ok := value.(string)
			if !ok {
				return &ValidationError{Key: key, Expected: "string", Got: value}
			}
			req.Headers.Set(HeaderAccept, s)
		case metadata.KeyContent:
			s, ok := value.(string)
			if !ok {
				return &ValidationError{Key: key, Expected: "string", Got: value}
			}
			req.Headers.Set(HeaderContentType, s)
		case metadata.KeyTimeout:
			t, err := timeoutOverride(value)
			if err != nil {
				return err
			}
			req.Timeout = t
		case metadata.KeyStream:
			s, ok := value.(bool)
			if !ok {
				return &ValidationError{Key: key, Expected: "bool", Got: value}
			}
			req.Stream = s
		case metadata.KeyBody:
			req.Body = value
		}
	}
	return nil
}

func headerOverride(value any) (*metadata.Headers, error) {
	switch v := value.(type) {
	case *metadata.Headers:
		if v != nil {
			return v, nil
		}
	case map[string]string:
		return metadata.HeadersFrom(v), nil
	case map[string]any:
		h := metadata.NewHeaders()
		for k, val := range v {
			h.Set(k, fmt.Sprint(val))
		}
		return h, nil
	}
	return nil, &ValidationError{Key: metadata.KeyHeader, Expected: "map[string]string", Got: value}
}

func stringMap(key metadata.Key, value any) (map[string]any, error) {
	switch v := value.(type) {
	case map[string]any:
		return v, nil
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out, nil
	}
	return nil, &ValidationError{Key: key, Expected: "map[string]any", Got: value}
}

func handlersOverride(value any) (metadata.StatusHandlers, error) {
	switch v := value.(type) {
	case metadata.StatusHandlers:
		return v, nil
	case map[int]metadata.Handler:
		return metadata.StatusHandlers(v), nil
	}
	return nil, &ValidationError{Key: metadata.KeyOn, Expected: "metadata.StatusHandlers", Got: value}
}

// timeoutOverride accepts a time.Duration or a number of seconds.
func timeoutOverride(value any) (time.Duration, error) {
	var d time.Duration
	switch v := value.(type) {
	case time.Duration:
		d = v
	case int:
		d = time.Duration(v) * time.Second
	case int64:
		d = time.Duration(v) * time.Second
	case float64:
		d = time.Duration(v * float64(time.Second))
	case float32:
		d = time.Duration(float64(v) * float64(time.Second))
	default:
		return 0, &ValidationError{Key: metadata.KeyTimeout, Expected: "time.Duration or seconds", Got: value}
	}
	if d < 0 {
		return 0, &ValidationError{Key: metadata.KeyTimeout, Expected: "non-negative timeout", Got: value}
	}
	return d, nil
}

func mergeAny(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
