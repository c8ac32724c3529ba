package binder

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
)

// ErrBinding matches every BindingError.
var ErrBinding = errors.New("argument binding failed")

// BindingError reports arguments that do not fit an operation's signature.
type BindingError struct {
	Operation string
	Reason    string
}

func (e *BindingError) Error() string {
	if e.Operation == "" {
		return "binding: " + e.Reason
	}
	return fmt.Sprintf("binding %s: %s", e.Operation, e.Reason)
}

func (e *BindingError) Is(target error) bool {
	return target == ErrBinding
}

// Signature is the ordered parameter list of an operation.
type Signature struct {
	Name   string
	Params []string
}

func (s Signature) Has(name string) bool {
	for _, p := range s.Params {
		if p == name {
			return true
		}
	}
	return false
}

// Reserved reports whether name is a call-time override key.
func Reserved(name string) bool {
	switch metadata.Key(name) {
	case metadata.KeyHeader, metadata.KeyQuery, metadata.KeyForm,
		metadata.KeyMultipart, metadata.KeyOn, metadata.KeyAccept,
		metadata.KeyContent, metadata.KeyTimeout, metadata.KeyStream,
		metadata.KeyBody:
		return true
	}
	return false
}

// Overrides holds the reserved keyword arguments of one call.
type Overrides map[metadata.Key]any

func (o Overrides) Get(key metadata.Key) (any, bool) {
	v, ok := o[key]
	return v, ok
}

// Bind produces the arguments of one call. Parameters that received no value
// are absent from the result. A keyword named after a declared parameter binds
// to it even when the name is also an override key; every other reserved
// keyword becomes an override.
func Bind(sig Signature, positional []any, kwargs map[string]any) (*Arguments, Overrides, error) {
	if len(positional) > len(sig.Params) {
		return nil, nil, &BindingError{
			Operation: sig.Name,
			Reason:    fmt.Sprintf("takes %d positional arguments but %d were given", len(sig.Params), len(positional)),
		}
	}

	args := NewArguments()
	for i, v := range positional {
		args.Set(sig.Params[i], v)
	}

	var overrides Overrides
	for _, name := range sortedKeys(kwargs) {
		v := kwargs[name]
		switch {
		case sig.Has(name):
			if args.Has(name) {
				return nil, nil, &BindingError{
					Operation: sig.Name,
					Reason:    fmt.Sprintf("got multiple values for argument %q", name),
				}
			}
			args.Set(name, v)
		case Reserved(name):
			if overrides == nil {
				overrides = make(Overrides)
			}
			overrides[metadata.Key(name)] = v
		default:
			return nil, nil, &BindingError{
				Operation: sig.Name,
				Reason:    fmt.Sprintf("got an unexpected keyword argument %q", name),
			}
		}
	}

	return args.ordered(sig), overrides, nil
}
