package parser

import (
	"fmt"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// File is a decoded declaration file.
type File struct {
	Path       string                 `json:"-"`
	Name       string                 `json:"name"`
	Endpoint   string                 `json:"endpoint"`
	Headers    map[string]string      `json:"headers,omitempty"`
	Accept     string                 `json:"accept,omitempty"`
	Content    string                 `json:"content,omitempty"`
	Timeout    *Duration              `json:"timeout,omitempty"`
	Stream     *bool                  `json:"stream,omitempty"`
	Auth       *AuthSpec              `json:"auth,omitempty"`
	On         map[string]HandlerSpec `json:"on,omitempty"`
	Operations []OperationSpec        `json:"operations"`
}

// OperationSpec declares one operation. Query, Form and Multipart map an
// argument name to the wire name; an empty wire name reuses the argument's.
type OperationSpec struct {
	Name      string                 `json:"name"`
	Method    string                 `json:"method"`
	Path      string                 `json:"path"`
	Params    []string               `json:"params,omitempty"`
	Query     map[string]string      `json:"query,omitempty"`
	Form      map[string]string      `json:"form,omitempty"`
	Multipart map[string]string      `json:"multipart,omitempty"`
	Headers   map[string]string      `json:"headers,omitempty"`
	Body      *BodySpec              `json:"body,omitempty"`
	Accept    string                 `json:"accept,omitempty"`
	Content   string                 `json:"content,omitempty"`
	Timeout   *Duration              `json:"timeout,omitempty"`
	Stream    *bool                  `json:"stream,omitempty"`
	On        map[string]HandlerSpec `json:"on,omitempty"`
}

type BodySpec struct {
	Arg        string `json:"arg"`
	Serializer string `json:"serializer,omitempty"`
}

type AuthType string

const (
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "apikey"
	AuthDigest AuthType = "digest"
	AuthAWS    AuthType = "aws"
	AuthOAuth2 AuthType = "oauth2"
)

// AuthSpec carries the fields of every auth type; which ones apply depends
// on Type.
type AuthSpec struct {
	Type AuthType `json:"type"`

	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`

	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
	In    string `json:"in,omitempty"`

	AccessKey string `json:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
	Region    string `json:"region,omitempty"`
	Service   string `json:"service,omitempty"`

	TokenURL     string   `json:"tokenUrl,omitempty"`
	ClientID     string   `json:"clientId,omitempty"`
	ClientSecret string   `json:"clientSecret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	GrantType    string   `json:"grantType,omitempty"`
}

type HandlerKind string

const (
	HandlerValue   HandlerKind = "value"
	HandlerExtract HandlerKind = "extract"
	HandlerError   HandlerKind = "error"
	HandlerSchema  HandlerKind = "schema"
)

// HandlerSpec is one entry of an on block. Exactly one kind is set.
type HandlerSpec struct {
	Kind    HandlerKind
	Value   any
	Extract string
	Error   string
	Schema  []byte
}

func (h *HandlerSpec) UnmarshalJSON(data []byte) error {
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) != 1 {
		return fmt.Errorf("handler must set exactly one of value, extract, error, schema")
	}

	for key, raw := range fields {
		h.Kind = HandlerKind(key)
		switch h.Kind {
		case HandlerValue:
			return json.Unmarshal(raw, &h.Value)
		case HandlerExtract:
			return json.Unmarshal(raw, &h.Extract)
		case HandlerError:
			return json.Unmarshal(raw, &h.Error)
		case HandlerSchema:
			h.Schema = append([]byte(nil), raw...)
			return nil
		}
	}
	return fmt.Errorf("unknown handler kind %q", h.Kind)
}

// Duration accepts "1.5s" style strings or a number of seconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		d.Duration = time.Duration(v * float64(time.Second))
	case string:
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			d.Duration = time.Duration(secs * float64(time.Second))
			return nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}

// ParseError reports a declaration file that could not be loaded.
type ParseError struct {
	File       string
	Message    string
	Violations []string
	Err        error
}

func (e *ParseError) Error() string {
	msg := e.File + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	for _, v := range e.Violations {
		msg += "\n  - " + v
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
