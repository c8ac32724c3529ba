package rest

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/decorest/packages/core/binder"
	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
)

// ErrUnknownOperation is returned when calling a name no operation was
// registered under.
var ErrUnknownOperation = errors.New("unknown operation")

// Operation is one declared call.
type Operation struct {
	Name        string
	Signature   binder.Signature
	Declaration *metadata.Declaration
}

// API is the API level declaration plus its operations.
type API struct {
	decl  *metadata.Declaration
	ops   map[string]*Operation
	order []string
}

// Params is shorthand for an operation's ordered parameter list.
func Params(names ...string) []string {
	return names
}

// NewAPI creates an API declaration. Query, form and multipart options are
// rejected at this level.
func NewAPI(name string, opts ...metadata.Option) (*API, error) {
	decl := metadata.NewDeclaration(name, metadata.KindAPI)
	if err := decl.Apply(opts...); err != nil {
		return nil, err
	}
	return &API{decl: decl, ops: make(map[string]*Operation)}, nil
}

func (a *API) Name() string {
	return a.decl.Name
}

func (a *API) Declaration() *metadata.Declaration {
	return a.decl
}

// Endpoint returns the declared base URL.
func (a *API) Endpoint() string {
	v, _ := a.decl.String(metadata.KeyEndpoint)
	return v
}

// Register declares an operation taking params in order.
func (a *API) Register(name string, params []string, opts ...metadata.Option) (*Operation, error) {
	if name == "" {
		return nil, fmt.Errorf("operation name is required")
	}
	if _, exists := a.ops[name]; exists {
		return nil, fmt.Errorf("operation %q already registered", name)
	}

	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p == "" {
			return nil, fmt.Errorf("operation %q: empty parameter name", name)
		}
		if seen[p] {
			return nil, fmt.Errorf("operation %q: duplicate parameter %q", name, p)
		}
		seen[p] = true
	}

	decl := metadata.NewDeclaration(name, metadata.KindOperation)
	if err := decl.Apply(opts...); err != nil {
		return nil, err
	}

	op := &Operation{
		Name:        name,
		Signature:   binder.Signature{Name: name, Params: append([]string(nil), params...)},
		Declaration: decl,
	}
	a.ops[name] = op
	a.order = append(a.order, name)
	return op, nil
}

// MustRegister is like Register but panics on error. It is meant for
// package level declarations.
func (a *API) MustRegister(name string, params []string, opts ...metadata.Option) *Operation {
	op, err := a.Register(name, params, opts...)
	if err != nil {
		panic(err)
	}
	return op
}

// Lookup returns the operation registered under name.
func (a *API) Lookup(name string) (*Operation, bool) {
	op, ok := a.ops[name]
	return op, ok
}

// Operations lists operation names in registration order.
func (a *API) Operations() []string {
	return append([]string(nil), a.order...)
}
