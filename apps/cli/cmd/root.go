package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	verboseFlag int // 0=warn, 1=-v debug, 2=-vv trace
	noColorFlag bool
	outputFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "decorest",
	Short: "Call HTTP APIs from declarations. No client code.",
	Long: `decorest turns declarative API descriptions into HTTP calls.
Describe an API once in a YAML file, then call its operations by name
with positional or keyword arguments.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(verboseFlag, noColorFlag)
	},
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			newFormatter(os.Stderr).FormatError(err)
		}
		os.Exit(exitCode(err))
	}
}

// initLogger writes human readable logs to stderr at a level picked by -v.
func initLogger(verbosity int, noColor bool) {
	level := zerolog.WarnLevel
	switch {
	case verbosity >= 2:
		level = zerolog.TraceLevel
	case verbosity == 1:
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}).With().Timestamp().Logger()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v", "Verbose logging (-v debug, -vv trace)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("DECOREST_NO_COLOR", false), "Disable colored output (env: DECOREST_NO_COLOR)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", getEnvString("DECOREST_OUTPUT", "console"), "Output format: console, json (env: DECOREST_OUTPUT)")

	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
}

func errUsage(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}
