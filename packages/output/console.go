package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/decorest/packages/core/response"
	"github.com/abdul-hamid-achik/decorest/packages/rest"
	"github.com/abdul-hamid-achik/decorest/packages/sse"
	"github.com/fatih/color"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	name := result.API + "." + result.Operation
	timing := cyan(fmt.Sprintf("(%dms)", result.Duration.Milliseconds()))

	if result.Err != nil {
		fmt.Fprintf(f.writer, "%s %s %s\n", red("✗"), bold(name), timing)
		fmt.Fprintf(f.writer, "  %s\n", red(result.Err.Error()))

		var herr *response.HTTPError
		if f.verbose && errors.As(result.Err, &herr) && len(herr.Body) > 0 {
			fmt.Fprintf(f.writer, "  Body: %s\n", string(herr.Body))
		}
		return
	}

	status := ""
	if code := result.Status(); code != 0 {
		status = fmt.Sprintf(" %d", code)
	}
	fmt.Fprintf(f.writer, "%s %s%s %s\n", green("✓"), bold(name), status, timing)
	fmt.Fprintf(f.writer, "%s\n", formatValue(result.Value))
}

func (f *ConsoleFormatter) FormatEvent(event sse.Event) {
	yellow := color.New(color.FgYellow).SprintFunc()

	label := event.Type
	if label == "" {
		label = "message"
	}
	if f.verbose && event.ID != "" {
		label += "#" + event.ID
	}
	fmt.Fprintf(f.writer, "%s %s\n", yellow(label+":"), event.Data)
}

func (f *ConsoleFormatter) FormatOperations(api *rest.API) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "%s", bold(api.Name()))
	if endpoint := api.Endpoint(); endpoint != "" {
		fmt.Fprintf(f.writer, " %s", endpoint)
	}
	fmt.Fprintf(f.writer, "\n")

	for _, op := range describe(api) {
		fmt.Fprintf(f.writer, "  - %s %s %s", op.Name, cyan(fmt.Sprintf("%-7s", op.Method)), op.Path)
		if len(op.Params) > 0 {
			fmt.Fprintf(f.writer, " (%s)", strings.Join(op.Params, ", "))
		}
		fmt.Fprintf(f.writer, "\n")
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}
