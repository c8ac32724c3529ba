package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/decorest/packages/core/binder"
	"github.com/abdul-hamid-achik/decorest/packages/core/dispatch"
	"github.com/abdul-hamid-achik/decorest/packages/core/endpoint"
	"github.com/abdul-hamid-achik/decorest/packages/core/parser"
	"github.com/abdul-hamid-achik/decorest/packages/core/response"
	"github.com/abdul-hamid-achik/decorest/packages/core/synth"
	"github.com/abdul-hamid-achik/decorest/packages/rest"
)

// Exit codes for decorest CLI
const (
	// ExitSuccess indicates the call succeeded
	ExitSuccess = 0

	// ExitCallFailure indicates a status handler or other call failure
	ExitCallFailure = 1

	// ExitParseError indicates a declaration file error
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitHTTPError indicates the server answered with an error status
	ExitHTTPError = 5

	// ExitUsageError indicates invalid CLI usage or call arguments
	ExitUsageError = 64
)

type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var (
		usage *usageError
		cfg   *configError
		perr  *parser.ParseError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage),
		errors.Is(err, binder.ErrBinding),
		errors.Is(err, endpoint.ErrPathRender),
		errors.Is(err, synth.ErrValidation),
		errors.Is(err, rest.ErrUnknownOperation):
		return ExitUsageError
	case errors.As(err, &cfg):
		return ExitConfigError
	case errors.As(err, &perr):
		return ExitParseError
	case errors.Is(err, dispatch.ErrTransport):
		return ExitNetworkError
	case errors.Is(err, response.ErrHTTP):
		return ExitHTTPError
	default:
		return ExitCallFailure
	}
}
