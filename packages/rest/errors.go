package rest

import (
	"github.com/abdul-hamid-achik/decorest/packages/core/binder"
	"github.com/abdul-hamid-achik/decorest/packages/core/dispatch"
	"github.com/abdul-hamid-achik/decorest/packages/core/endpoint"
	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
	"github.com/abdul-hamid-achik/decorest/packages/core/response"
	"github.com/abdul-hamid-achik/decorest/packages/core/synth"
)

type (
	BindingError           = binder.BindingError
	PathRenderError        = endpoint.RenderError
	ValidationError        = synth.ValidationError
	UnsupportedMethodError = synth.UnsupportedMethodError
	TransportError         = dispatch.TransportError
	HTTPError              = response.HTTPError
	InvalidKeyError        = metadata.InvalidKeyError
)

var (
	ErrBinding           = binder.ErrBinding
	ErrPathRender        = endpoint.ErrPathRender
	ErrValidation        = synth.ErrValidation
	ErrUnsupportedMethod = synth.ErrUnsupportedMethod
	ErrTransport         = dispatch.ErrTransport
	ErrHTTP              = response.ErrHTTP
	ErrInvalidKey        = metadata.ErrInvalidKey
)
