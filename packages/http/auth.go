package http

import (
	"encoding/base64"
	"fmt"
	"net/http"
)

// Authenticator decorates an outgoing request with credentials.
type Authenticator interface {
	Apply(req *http.Request) error
}

// BasicAuth sends an RFC 7617 Authorization header.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Apply(req *http.Request) error {
	creds := a.Username + ":" + a.Password
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(creds)))
	return nil
}

// BearerToken sends "Authorization: Bearer <token>".
type BearerToken string

func (t BearerToken) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+string(t))
	return nil
}

// APIKey sends a key in a header, or in the query string when InQuery is set.
type APIKey struct {
	Name    string
	Value   string
	InQuery bool
}

func (k APIKey) Apply(req *http.Request) error {
	if k.Name == "" {
		return fmt.Errorf("api key name is required")
	}
	if !k.InQuery {
		req.Header.Set(k.Name, k.Value)
		return nil
	}
	q := req.URL.Query()
	q.Set(k.Name, k.Value)
	req.URL.RawQuery = q.Encode()
	return nil
}

// DigestAuth answers an RFC 7616 challenge. The first attempt goes out
// without credentials; the client retries once after a 401.
type DigestAuth struct {
	Username string
	Password string
}

// Apply is a no-op: digest credentials depend on the server challenge.
func (DigestAuth) Apply(*http.Request) error {
	return nil
}

// AWSSigV4 signs requests with AWS Signature Version 4.
type AWSSigV4 struct {
	AccessKey string
	SecretKey string
	Region    string
	Service   string
}

// Apply signs req in place.
func (a AWSSigV4) Apply(req *http.Request) error {
	return SignAWSRequest(req, a)
}

// applyAuth interprets the opaque auth value forwarded by the engine.
func applyAuth(req *http.Request, auth any) error {
	switch a := auth.(type) {
	case nil:
		return nil
	case Authenticator:
		return a.Apply(req)
	case [2]string:
		return BasicAuth{Username: a[0], Password: a[1]}.Apply(req)
	default:
		return fmt.Errorf("unsupported auth type %T", auth)
	}
}

func digestCredentials(auth any) (DigestAuth, bool) {
	switch a := auth.(type) {
	case DigestAuth:
		return a, true
	case *DigestAuth:
		if a != nil {
			return *a, true
		}
	}
	return DigestAuth{}, false
}
