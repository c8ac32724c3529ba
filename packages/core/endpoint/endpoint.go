// Package endpoint renders operation path templates and joins them onto an
// API base URL.
package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/decorest/packages/core/binder"
)

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// ErrPathRender matches every RenderError.
var ErrPathRender = errors.New("path render failed")

// RenderError names the placeholder that had no bound value.
type RenderError struct {
	Template    string
	Placeholder string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("path %q: no value bound for {%s}", e.Template, e.Placeholder)
}

func (e *RenderError) Is(target error) bool {
	return target == ErrPathRender
}

// Placeholders returns the placeholder names of template in order.
func Placeholders(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSpace(m[1]))
	}
	return names
}

// Render substitutes every {name} in template with the path escaped value
// bound to name.
func Render(template string, args *binder.Arguments) (string, error) {
	var renderErr error
	out := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		if renderErr != nil {
			return match
		}
		name := strings.TrimSpace(match[1 : len(match)-1])
		v, ok := args.Get(name)
		if !ok || v == nil {
			renderErr = &RenderError{Template: template, Placeholder: name}
			return match
		}
		return url.PathEscape(fmt.Sprint(v))
	})
	if renderErr != nil {
		return "", renderErr
	}
	return out, nil
}

// Join appends path to base with exactly one slash between them. An absolute
// URL in path is returned unchanged.
func Join(base, path string) string {
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
