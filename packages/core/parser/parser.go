package parser

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/decorest/packages/core/env"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var documentSchema []byte

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(documentSchema))
	if err != nil {
		panic(fmt.Sprintf("parser: invalid embedded schema: %v", err))
	}
	return s
}

type Option func(*options)

type options struct {
	resolver *env.Resolver
}

// WithResolver resolves {{ }} expressions with r. Without it only {{$NAME}}
// lookups and built-in functions resolve.
func WithResolver(r *env.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// Load reads and parses the declaration file at path.
func Load(path string, opts ...Option) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{File: path, Message: "cannot read file", Err: err}
	}
	return Parse(data, path, opts...)
}

// Parse decodes a declaration document. filename is only used in errors.
func Parse(data []byte, filename string, opts ...Option) (*File, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.resolver == nil {
		o.resolver = env.NewResolver()
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{File: filename, Message: "invalid yaml", Err: err}
	}
	doc := normalize(raw)
	if doc == nil {
		return nil, &ParseError{File: filename, Message: "document is empty"}
	}

	if missing := unresolved(o.resolver, doc); len(missing) > 0 {
		return nil, &ParseError{File: filename, Message: "unresolved variables: " + strings.Join(missing, ", ")}
	}
	doc = o.resolver.ResolveValue(doc)

	if violations, err := ValidateDocument(doc); err != nil {
		return nil, &ParseError{File: filename, Message: "schema validation error", Err: err}
	} else if len(violations) > 0 {
		return nil, &ParseError{File: filename, Message: "document does not match schema", Violations: violations}
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, &ParseError{File: filename, Message: "cannot encode document", Err: err}
	}
	file := &File{}
	if err := json.Unmarshal(encoded, file); err != nil {
		return nil, &ParseError{File: filename, Message: "cannot decode document", Err: err}
	}
	file.Path = filename

	if err := file.check(); err != nil {
		return nil, &ParseError{File: filename, Message: "invalid declaration", Err: err}
	}
	return file, nil
}

// ValidateDocument checks a decoded document against the declaration schema
// and returns its violations.
func ValidateDocument(doc any) ([]string, error) {
	result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(normalize(doc)))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, nil
}

// check enforces the rules the schema cannot express.
func (f *File) check() error {
	seen := make(map[string]bool, len(f.Operations))
	for _, op := range f.Operations {
		if seen[op.Name] {
			return fmt.Errorf("operation %q is declared twice", op.Name)
		}
		seen[op.Name] = true

		declared := make(map[string]bool, len(op.Params))
		for _, p := range op.Params {
			declared[p] = true
		}
		for kind, m := range map[string]map[string]string{"query": op.Query, "form": op.Form, "multipart": op.Multipart} {
			for _, arg := range sortedKeys(m) {
				if !declared[arg] {
					return fmt.Errorf("operation %q: %s argument %q is not a declared param", op.Name, kind, arg)
				}
			}
		}
		if op.Body != nil && !declared[op.Body.Arg] {
			return fmt.Errorf("operation %q: body argument %q is not a declared param", op.Name, op.Body.Arg)
		}
	}
	return nil
}

// normalize turns the map[any]any values yaml produces for non-string keys
// into map[string]any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}

func unresolved(r *env.Resolver, doc any) []string {
	seen := map[string]bool{}
	var missing []string
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			for _, name := range r.GetUnresolvedVariables(t) {
				if !seen[name] {
					seen[name] = true
					missing = append(missing, name)
				}
			}
		case map[string]any:
			for _, k := range sortedKeys(t) {
				walk(t[k])
			}
		case []any:
			for _, item := range t {
				walk(item)
			}
		}
	}
	walk(doc)
	return missing
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
