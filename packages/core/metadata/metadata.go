package metadata

import (
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/http"
)

// Key names one metadata entry.
type Key string

const (
	KeyHeader     Key = "header"
	KeyQuery      Key = "query"
	KeyForm       Key = "form"
	KeyMultipart  Key = "multipart"
	KeyOn         Key = "on"
	KeyAccept     Key = "accept"
	KeyContent    Key = "content"
	KeyTimeout    Key = "timeout"
	KeyStream     Key = "stream"
	KeyBody       Key = "body"
	KeyEndpoint   Key = "endpoint"
	KeyHTTPMethod Key = "http_method"
)

// Keys lists every recognized key.
var Keys = []Key{
	KeyHeader, KeyQuery, KeyForm, KeyMultipart, KeyOn, KeyAccept,
	KeyContent, KeyTimeout, KeyStream, KeyBody, KeyEndpoint, KeyHTTPMethod,
}

// ParseKey returns the recognized key named s.
func ParseKey(s string) (Key, error) {
	for _, k := range Keys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", &InvalidKeyError{Key: s}
}

// ErrInvalidKey matches every InvalidKeyError.
var ErrInvalidKey = errors.New("invalid metadata key")

type InvalidKeyError struct {
	Key string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid metadata key %q", e.Key)
}

func (e *InvalidKeyError) Is(target error) bool {
	return target == ErrInvalidKey
}

// Kind tells API level declarations from operation level ones.
type Kind int

const (
	KindAPI Kind = iota
	KindOperation
)

func (k Kind) String() string {
	if k == KindAPI {
		return "api"
	}
	return "operation"
}

// Declaration is a named holder of metadata.
type Declaration struct {
	Name    string
	Kind    Kind
	entries map[Key]any
}

// NewDeclaration returns an empty declaration.
func NewDeclaration(name string, kind Kind) *Declaration {
	return &Declaration{Name: name, Kind: kind}
}

// Set stores value under key. Mapping values (headers, parameter maps, status
// handlers) merge into the current value; everything else replaces it.
func (d *Declaration) Set(key Key, value any) error {
	if err := checkValue(key, value); err != nil {
		return err
	}
	if d.entries == nil {
		d.entries = make(map[Key]any)
	}

	current, exists := d.entries[key]

	switch v := value.(type) {
	case map[string]string:
		if key == KeyHeader {
			value = HeadersFrom(v)
		} else {
			value = Params(v)
		}
	}

	if !exists {
		d.entries[key] = value
		return nil
	}

	switch v := value.(type) {
	case *Headers:
		d.entries[key] = current.(*Headers).Merge(v)
	case Params:
		d.entries[key] = current.(Params).Merge(v)
	case StatusHandlers:
		d.entries[key] = current.(StatusHandlers).Merge(v)
	default:
		d.entries[key] = value
	}
	return nil
}

// Get returns the value under key and whether it was ever set.
func (d *Declaration) Get(key Key) (any, bool) {
	if d == nil || d.entries == nil {
		return nil, false
	}
	v, ok := d.entries[key]
	return v, ok
}

// Headers returns the declared headers, or nil.
func (d *Declaration) Headers() *Headers {
	if v, ok := d.Get(KeyHeader); ok {
		return v.(*Headers)
	}
	return nil
}

// Params returns the argument mapping stored under key.
func (d *Declaration) Params(key Key) Params {
	if v, ok := d.Get(key); ok {
		return v.(Params)
	}
	return nil
}

func (d *Declaration) Handlers() StatusHandlers {
	if v, ok := d.Get(KeyOn); ok {
		return v.(StatusHandlers)
	}
	return nil
}

func (d *Declaration) String(key Key) (string, bool) {
	if v, ok := d.Get(key); ok {
		s, isString := v.(string)
		return s, isString
	}
	return "", false
}

// Timeout reports the declared timeout and whether one was set.
func (d *Declaration) Timeout() (time.Duration, bool) {
	if v, ok := d.Get(KeyTimeout); ok {
		return v.(time.Duration), true
	}
	return 0, false
}

// Stream reports the declared stream flag and whether one was set.
func (d *Declaration) Stream() (bool, bool) {
	if v, ok := d.Get(KeyStream); ok {
		return v.(bool), true
	}
	return false, false
}

func (d *Declaration) Body() (BodyBinding, bool) {
	if v, ok := d.Get(KeyBody); ok {
		return v.(BodyBinding), true
	}
	return BodyBinding{}, false
}

// Method returns the declared verb.
func (d *Declaration) Method() (http.Verb, bool) {
	if v, ok := d.Get(KeyHTTPMethod); ok {
		return v.(http.Verb), true
	}
	return "", false
}

func checkValue(key Key, value any) error {
	var ok bool
	var want string

	switch key {
	case KeyHeader:
		want = "*Headers or map[string]string"
		switch v := value.(type) {
		case *Headers:
			ok = v != nil
		case map[string]string:
			ok = true
		}
	case KeyQuery, KeyForm, KeyMultipart:
		want = "Params or map[string]string"
		switch value.(type) {
		case Params, map[string]string:
			ok = true
		}
	case KeyOn:
		want = "StatusHandlers"
		_, ok = value.(StatusHandlers)
	case KeyAccept, KeyContent, KeyEndpoint:
		want = "string"
		_, ok = value.(string)
	case KeyTimeout:
		want = "time.Duration"
		_, ok = value.(time.Duration)
	case KeyStream:
		want = "bool"
		_, ok = value.(bool)
	case KeyBody:
		want = "BodyBinding"
		_, ok = value.(BodyBinding)
	case KeyHTTPMethod:
		want = "http.Verb"
		_, ok = value.(http.Verb)
	default:
		return &InvalidKeyError{Key: string(key)}
	}

	if !ok {
		return fmt.Errorf("metadata %s expects %s, got %T", key, want, value)
	}
	return nil
}
