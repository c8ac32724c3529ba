package synth

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
)

var (
	ErrValidation        = errors.New("invalid override")
	ErrUnsupportedMethod = errors.New("unsupported http method")
)

// ValidationError reports a call-time override of the wrong type.
type ValidationError struct {
	Key      metadata.Key
	Expected string
	Got      any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("override %s expects %s, got %T", e.Key, e.Expected, e.Got)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type UnsupportedMethodError struct {
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	if e.Method == "" {
		return "operation declares no http method"
	}
	return fmt.Sprintf("unsupported http method %q", e.Method)
}

func (e *UnsupportedMethodError) Is(target error) bool {
	return target == ErrUnsupportedMethod
}
