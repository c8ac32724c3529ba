// Package openapi converts OpenAPI 3 documents to decorest declarations.
package openapi

import (
	"bytes"
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/decorest/packages/core/endpoint"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Declaration mirrors the declaration file layout so it can be written as
// YAML in a stable field order.
type Declaration struct {
	Name       string      `yaml:"name"`
	Endpoint   string      `yaml:"endpoint,omitempty"`
	Operations []Operation `yaml:"operations"`
}

type Operation struct {
	Name      string             `yaml:"name"`
	Method    string             `yaml:"method"`
	Path      string             `yaml:"path"`
	Params    []string           `yaml:"params,omitempty"`
	Query     map[string]string  `yaml:"query,omitempty"`
	Form      map[string]string  `yaml:"form,omitempty"`
	Multipart map[string]string  `yaml:"multipart,omitempty"`
	Headers   map[string]string  `yaml:"headers,omitempty"`
	Body      *Body              `yaml:"body,omitempty"`
	On        map[string]Handler `yaml:"on,omitempty"`
}

type Body struct {
	Arg string `yaml:"arg"`
}

type Handler struct {
	Error string `yaml:"error"`
}

// Converter converts OpenAPI specs to declarations
type Converter struct {
	endpoint    string
	includeTags []string
	excludeTags []string
	includeOnly []string // specific operation IDs
	handlers    bool
}

// Option is a functional option for Converter
type Option func(*Converter)

// WithEndpoint sets the base URL, overriding the document's first server
func WithEndpoint(endpoint string) Option {
	return func(c *Converter) {
		c.endpoint = endpoint
	}
}

// WithTags keeps only operations carrying one of tags
func WithTags(tags []string) Option {
	return func(c *Converter) {
		c.includeTags = tags
	}
}

// WithExcludeTags drops operations carrying one of tags
func WithExcludeTags(tags []string) Option {
	return func(c *Converter) {
		c.excludeTags = tags
	}
}

// WithOperations keeps only the operations with these IDs
func WithOperations(ops []string) Option {
	return func(c *Converter) {
		c.includeOnly = ops
	}
}

// WithHandlers controls whether documented error responses become error
// handlers. Enabled by default.
func WithHandlers(enabled bool) Option {
	return func(c *Converter) {
		c.handlers = enabled
	}
}

// NewConverter creates a new OpenAPI converter
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		handlers: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads an OpenAPI document from a file path or an http(s) URL.
func Load(ctx context.Context, location string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true

	var (
		doc *openapi3.T
		err error
	)
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		var u *url.URL
		u, err = url.Parse(location)
		if err == nil {
			doc, err = loader.LoadFromURI(u)
		}
	} else {
		doc, err = loader.LoadFromFile(location)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	return doc, nil
}

// ConvertFile loads the document at location and returns the declaration
// as YAML.
func (c *Converter) ConvertFile(ctx context.Context, location string) ([]byte, error) {
	doc, err := Load(ctx, location)
	if err != nil {
		return nil, err
	}
	decl, err := c.Convert(ctx, doc)
	if err != nil {
		return nil, err
	}
	return decl.Marshal()
}

// Convert builds a declaration with one operation per OpenAPI operation.
func (c *Converter) Convert(ctx context.Context, doc *openapi3.T) (*Declaration, error) {
	if err := doc.Validate(ctx); err != nil {
		// some specs have minor validation issues
		log.Warn().Err(err).Msg("OpenAPI spec validation")
	}

	decl := &Declaration{
		Name:     "api",
		Endpoint: c.endpoint,
	}
	if doc.Info != nil && doc.Info.Title != "" {
		decl.Name = doc.Info.Title
	}
	if decl.Endpoint == "" && len(doc.Servers) > 0 {
		decl.Endpoint = doc.Servers[0].URL
	}

	if doc.Paths == nil {
		return decl, nil
	}

	paths := doc.Paths.Map()
	names := map[string]int{}
	for _, path := range sortedKeys(paths) {
		item := paths[path]
		if item == nil {
			continue
		}

		ops := item.Operations()
		for _, method := range sortedKeys(ops) {
			op := ops[method]
			if !supportedMethods[method] || !c.shouldInclude(op) {
				continue
			}

			converted := c.convertOperation(path, method, op, item.Parameters)
			converted.Name = uniqueName(names, converted.Name)
			decl.Operations = append(decl.Operations, converted)
		}
	}

	return decl, nil
}

// Marshal writes the declaration as YAML.
func (d *Declaration) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Converter) shouldInclude(op *openapi3.Operation) bool {
	if op == nil {
		return false
	}
	if len(c.includeOnly) > 0 && !slices.Contains(c.includeOnly, op.OperationID) {
		return false
	}
	if len(c.includeTags) > 0 && !slices.ContainsFunc(op.Tags, func(t string) bool {
		return slices.Contains(c.includeTags, t)
	}) {
		return false
	}
	return !slices.ContainsFunc(op.Tags, func(t string) bool {
		return slices.Contains(c.excludeTags, t)
	})
}

var supportedMethods = map[string]bool{
	nethttp.MethodGet:     true,
	nethttp.MethodPost:    true,
	nethttp.MethodPut:     true,
	nethttp.MethodPatch:   true,
	nethttp.MethodDelete:  true,
	nethttp.MethodHead:    true,
	nethttp.MethodOptions: true,
}

// argNames hands out unique argument names.
type argNames struct {
	op   *Operation
	seen map[string]bool
}

func (a *argNames) add(wire string) string {
	name := sanitizeName(wire)
	for i := 2; a.seen[name]; i++ {
		name = sanitizeName(wire) + "_" + strconv.Itoa(i)
	}
	a.seen[name] = true
	a.op.Params = append(a.op.Params, name)
	return name
}

func (c *Converter) convertOperation(path, method string, op *openapi3.Operation, shared openapi3.Parameters) Operation {
	name := op.OperationID
	if name == "" {
		name = strings.ToLower(method) + "_" + path
	}

	out := Operation{
		Name:   sanitizeName(name),
		Method: method,
		Path:   path,
	}
	args := &argNames{op: &out, seen: map[string]bool{}}

	params := mergeParameters(shared, op.Parameters)

	// path params follow the order of their placeholders
	for _, placeholder := range endpoint.Placeholders(path) {
		if slices.Contains(out.Params, placeholder) {
			continue
		}
		arg := args.add(placeholder)
		if arg != placeholder {
			out.Path = strings.ReplaceAll(out.Path, "{"+placeholder+"}", "{"+arg+"}")
		}
	}

	for _, p := range params {
		switch p.In {
		case openapi3.ParameterInQuery:
			if out.Query == nil {
				out.Query = map[string]string{}
			}
			out.Query[args.add(p.Name)] = p.Name
		case openapi3.ParameterInHeader:
			if out.Headers == nil {
				out.Headers = map[string]string{}
			}
			out.Headers[args.add(p.Name)] = p.Name
		}
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		c.convertRequestBody(&out, args, op.RequestBody.Value)
	}

	if c.handlers {
		out.On = errorHandlers(op.Responses)
	}

	return out
}

// mergeParameters returns the operation's parameters, with path-level ones
// it does not override, required first.
func mergeParameters(shared, own openapi3.Parameters) []*openapi3.Parameter {
	var out []*openapi3.Parameter
	overridden := map[string]bool{}
	for _, ref := range own {
		if ref == nil || ref.Value == nil {
			continue
		}
		overridden[ref.Value.In+":"+ref.Value.Name] = true
		out = append(out, ref.Value)
	}
	for _, ref := range shared {
		if ref == nil || ref.Value == nil || overridden[ref.Value.In+":"+ref.Value.Name] {
			continue
		}
		out = append(out, ref.Value)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Required && !out[j].Required
	})
	return out
}

func (c *Converter) convertRequestBody(out *Operation, args *argNames, body *openapi3.RequestBody) {
	for _, contentType := range sortedKeys(body.Content) {
		media := body.Content[contentType]
		switch {
		case strings.Contains(contentType, "json"):
			out.Body = &Body{Arg: args.add("body")}
			return
		case contentType == "multipart/form-data":
			out.Multipart = formFields(args, media)
			return
		case contentType == "application/x-www-form-urlencoded":
			out.Form = formFields(args, media)
			return
		}
	}
}

func formFields(args *argNames, media *openapi3.MediaType) map[string]string {
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	props := media.Schema.Value.Properties
	if len(props) == 0 {
		return nil
	}
	fields := make(map[string]string, len(props))
	for _, name := range sortedKeys(props) {
		fields[args.add(name)] = name
	}
	return fields
}

// errorHandlers turns documented 4xx and 5xx responses into error handlers
// carrying the response description.
func errorHandlers(responses *openapi3.Responses) map[string]Handler {
	if responses == nil {
		return nil
	}
	var handlers map[string]Handler
	for code, ref := range responses.Map() {
		status, err := strconv.Atoi(code)
		if err != nil || status < 400 || status > 599 {
			continue
		}
		message := nethttp.StatusText(status)
		if ref != nil && ref.Value != nil && ref.Value.Description != nil && *ref.Value.Description != "" {
			message = *ref.Value.Description
		}
		if message == "" {
			message = "status " + code
		}
		if handlers == nil {
			handlers = map[string]Handler{}
		}
		handlers[code] = Handler{Error: message}
	}
	return handlers
}

func sanitizeName(name string) string {
	result := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)

	for strings.Contains(result, "__") {
		result = strings.ReplaceAll(result, "__", "_")
	}
	result = strings.Trim(result, "_")

	if result == "" {
		return "arg"
	}
	if result[0] >= '0' && result[0] <= '9' {
		result = "_" + result
	}
	return result
}

func uniqueName(seen map[string]int, name string) string {
	seen[name]++
	if n := seen[name]; n > 1 {
		return name + "_" + strconv.Itoa(n)
	}
	return name
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
