package builtin

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownFunction is returned by Call for names missing from the registry.
var ErrUnknownFunction = errors.New("unknown function")

type Func func(args []string) (string, error)

type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["now"] = funcNow
	r.funcs["timestamp"] = funcTimestamp
	r.funcs["uuid"] = funcUUID
	r.funcs["date"] = funcDate
	r.funcs["base64"] = funcBase64
	r.funcs["basicAuth"] = funcBasicAuth
	r.funcs["urlEncode"] = funcURLEncode
	r.funcs["sha256"] = funcSHA256
	r.funcs["env"] = funcEnv
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// IsCall reports whether expr has the shape name(args).
func IsCall(expr string) bool {
	return funcCallPattern.MatchString(expr)
}

// Call evaluates an expression of the form name(arg, ...).
func (r *Registry) Call(expr string) (string, error) {
	matches := funcCallPattern.FindStringSubmatch(expr)
	if matches == nil {
		return "", fmt.Errorf("not a function call: %q", expr)
	}

	fn, ok := r.funcs[matches[1]]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunction, matches[1])
	}
	out, err := fn(parseArgs(matches[2]))
	if err != nil {
		return "", fmt.Errorf("%s(): %w", matches[1], err)
	}
	return out, nil
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
		case inQuote && ch == quoteChar:
			inQuote = false
			quoteChar = 0
		case !inQuote && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func requireArgs(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("expects %d argument(s), got %d", n, len(args))
	}
	return nil
}

func funcNow(_ []string) (string, error) {
	return time.Now().UTC().Format(time.RFC3339), nil
}

func funcTimestamp(_ []string) (string, error) {
	return strconv.FormatInt(time.Now().Unix(), 10), nil
}

func funcUUID(_ []string) (string, error) {
	return uuid.NewString(), nil
}

func funcDate(args []string) (string, error) {
	layout := "2006-01-02"
	if len(args) >= 1 && args[0] != "" {
		layout = args[0]
	}
	return time.Now().UTC().Format(layout), nil
}

func funcBase64(args []string) (string, error) {
	if err := requireArgs(args, 1); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0])), nil
}

func funcBasicAuth(args []string) (string, error) {
	if err := requireArgs(args, 2); err != nil {
		return "", err
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(args[0]+":"+args[1])), nil
}

func funcURLEncode(args []string) (string, error) {
	if err := requireArgs(args, 1); err != nil {
		return "", err
	}
	return url.QueryEscape(args[0]), nil
}

func funcSHA256(args []string) (string, error) {
	if err := requireArgs(args, 1); err != nil {
		return "", err
	}
	hash := sha256.Sum256([]byte(args[0]))
	return hex.EncodeToString(hash[:]), nil
}

func funcEnv(args []string) (string, error) {
	if err := requireArgs(args, 1); err != nil {
		return "", err
	}
	if v, ok := os.LookupEnv(args[0]); ok {
		return v, nil
	}
	if len(args) >= 2 {
		return args[1], nil
	}
	return "", fmt.Errorf("environment variable %s is not set", args[0])
}
