package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/decorest/packages/core/config"
	"github.com/abdul-hamid-achik/decorest/packages/core/env"
	"github.com/abdul-hamid-achik/decorest/packages/core/parser"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/abdul-hamid-achik/decorest/packages/metrics"
	"github.com/abdul-hamid-achik/decorest/packages/output"
	"github.com/abdul-hamid-achik/decorest/packages/rest"
	"github.com/abdul-hamid-achik/decorest/packages/sse"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <file> <operation> [args...]",
	Short: "Call one operation of a declared API",
	Long: `Call an operation declared in a YAML file. Positional arguments bind
to the operation's params in order; values that parse as JSON are sent
as JSON values, anything else as strings.

Examples:
  decorest call posts.yaml get_post 7
  decorest call posts.yaml get_post --kw post_id=7 --query expand=author
  decorest call posts.yaml create_post --body @post.json
  decorest call posts.yaml watch --stream --max-events 10
  decorest call posts.yaml get_post 7 --env staging --var host=api.local`,
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completeOperation,
	RunE:              callCommand,
}

var (
	kwFlag          []string
	headerFlag      []string
	queryFlag       []string
	varFlag         []string
	bodyFlag        string
	timeoutFlag     string
	streamFlag      bool
	maxEventsFlag   int
	envFlag         string
	envFileFlag     string
	configFlag      string
	endpointFlag    string
	insecureFlag    bool
	proxyFlag       string
	metricsFileFlag string
)

func init() {
	addArgumentFlags(callCmd)
	callCmd.Flags().BoolVar(&streamFlag, "stream", false, "Stream the response instead of decoding it")
	callCmd.Flags().IntVar(&maxEventsFlag, "max-events", getEnvInt("DECOREST_MAX_EVENTS", 0), "Stop after this many server-sent events, 0 for no limit (env: DECOREST_MAX_EVENTS)")
	addClientFlags(callCmd)
}

// addArgumentFlags registers the flags that build call arguments.
func addArgumentFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&kwFlag, "kw", nil, "Keyword argument key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headerFlag, "header", "H", nil, "Extra header name=value (repeatable)")
	cmd.Flags().StringArrayVarP(&queryFlag, "query", "q", nil, "Extra query parameter key=value (repeatable)")
	cmd.Flags().StringVarP(&bodyFlag, "body", "b", "", "Request body, or @file to read it from a file")
	cmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("DECOREST_TIMEOUT", ""), "Request timeout override (e.g., 30s, 1m) (env: DECOREST_TIMEOUT)")
}

// addClientFlags registers the variable, network and metrics flags.
func addClientFlags(cmd *cobra.Command) {
	// Variable flags
	cmd.Flags().StringArrayVar(&varFlag, "var", nil, "Declaration variable name=value (repeatable)")
	cmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("DECOREST_ENV", ""), "Environment whose .env.<name> file is loaded (env: DECOREST_ENV)")
	cmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("DECOREST_ENV_FILE", ""), "Path to .env file for variable interpolation (env: DECOREST_ENV_FILE)")
	cmd.Flags().StringVar(&configFlag, "config", getEnvString("DECOREST_CONFIG", ""), "Path to config file (env: DECOREST_CONFIG)")

	// Network flags
	cmd.Flags().StringVar(&endpointFlag, "endpoint", getEnvString("DECOREST_ENDPOINT", ""), "Override the declared base URL (env: DECOREST_ENDPOINT)")
	cmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("DECOREST_PROXY", ""), "Proxy URL for HTTP requests (env: DECOREST_PROXY)")
	cmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("DECOREST_INSECURE", false), "Disable SSL certificate validation (env: DECOREST_INSECURE)")

	// Metrics flags
	cmd.Flags().StringVar(&metricsFileFlag, "metrics-file", getEnvString("DECOREST_METRICS_FILE", ""), "Write Prometheus text metrics to this file (env: DECOREST_METRICS_FILE)")
}

func callCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	file, operation := args[0], args[1]

	setup, err := newClientSetup(file)
	if err != nil {
		return err
	}
	defer setup.Close()
	api, client := setup.api, setup.client

	callArgs, err := buildCallArgs(args[2:])
	if err != nil {
		return err
	}

	start := time.Now()
	value, callErr := client.Call(ctx, operation, callArgs...)
	result := &output.Result{
		API:       api.Name(),
		Operation: operation,
		Value:     value,
		Err:       callErr,
		Duration:  time.Since(start),
	}

	formatter := newFormatter(cmd.OutOrStdout())
	if resp, ok := value.(*http.Response); ok && callErr == nil {
		callErr = printStream(ctx, cmd.OutOrStdout(), formatter, result, resp)
	} else {
		formatter.FormatResult(result)
	}

	setup.writeMetrics()

	if callErr != nil {
		// already reported by the formatter
		return &reportedError{err: callErr}
	}
	return nil
}

// clientSetup is a built API with the client that calls it.
type clientSetup struct {
	api       *rest.API
	client    *rest.Client
	transport *http.Client
	registry  *prometheus.Registry
}

func newClientSetup(file string) (*clientSetup, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	decl, err := loadDeclaration(file, cfg)
	if err != nil {
		return nil, err
	}
	api, err := decl.Build()
	if err != nil {
		return nil, err
	}

	transport := http.NewClient(cfg.ClientOptions()...)

	auth, err := decl.Authenticator(oauth2.WithTransport(transport))
	if err != nil {
		_ = transport.Close()
		return nil, &configError{err: err}
	}

	registry := prometheus.NewRegistry()
	opts := []rest.ClientOption{
		rest.WithTransport(transport),
		rest.WithLogger(log.Logger),
		rest.WithMetrics(metrics.NewWithRegistry(registry)),
	}
	if auth != nil {
		opts = append(opts, rest.WithAuth(auth))
	}
	if endpointFlag != "" {
		opts = append(opts, rest.WithEndpoint(endpointFlag))
	}
	if cfg.RequestIDHeader != "" {
		opts = append(opts, rest.WithRequestID(cfg.RequestIDHeader))
	}

	return &clientSetup{
		api:       api,
		client:    rest.NewClient(api, opts...),
		transport: transport,
		registry:  registry,
	}, nil
}

func (s *clientSetup) Close() error {
	return s.transport.Close()
}

// writeMetrics dumps the call metrics when --metrics-file is set.
func (s *clientSetup) writeMetrics() {
	if metricsFileFlag == "" {
		return
	}
	if err := prometheus.WriteToTextfile(metricsFileFlag, s.registry); err != nil {
		log.Warn().Err(err).Str("file", metricsFileFlag).Msg("failed to write metrics")
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, &configError{err: err}
	}

	overrides := &config.Config{Proxy: proxyFlag, Environment: envFlag}
	if insecureFlag {
		overrides.ValidateSSL = config.BoolPtr(false)
	}
	cfg = cfg.Merge(overrides)
	if err := cfg.Validate(); err != nil {
		return nil, &configError{err: err}
	}
	return cfg, nil
}

// loadDeclaration resolves variables from, lowest precedence first: the
// config file, the environment's dotenv files next to the declaration,
// --env-file, DECOREST_VAR_* variables and --var flags.
func loadDeclaration(path string, cfg *config.Config) (*parser.File, error) {
	resolver := env.NewResolver()
	resolver.SetWarnFunc(func(format string, args ...any) {
		log.Warn().Msgf(format, args...)
	})
	resolver.SetStrings(cfg.Variables)

	dotenv, err := env.LoadEnvironment(filepath.Dir(path), cfg.Environment)
	if err != nil {
		return nil, &configError{err: err}
	}
	resolver.SetStrings(dotenv)

	if envFileFlag != "" {
		vars, err := env.LoadAndExportDotEnv(envFileFlag)
		if err != nil {
			return nil, &configError{err: err}
		}
		resolver.SetStrings(vars)
	}

	resolver.SetStrings(env.LoadSystemEnv("DECOREST_VAR_"))

	vars, err := parsePairs("var", varFlag)
	if err != nil {
		return nil, err
	}
	resolver.SetStrings(vars)

	return parser.Load(path, parser.WithResolver(resolver))
}

// buildCallArgs turns positional values and flags into call arguments. The
// trailing rest.Kwargs carries keyword arguments and overrides.
func buildCallArgs(positional []string) ([]any, error) {
	args := make([]any, 0, len(positional)+1)
	for _, p := range positional {
		args = append(args, parseValue(p))
	}

	kwargs := rest.Kwargs{}
	kw, err := parsePairs("kw", kwFlag)
	if err != nil {
		return nil, err
	}
	for k, v := range kw {
		kwargs[k] = parseValue(v)
	}

	headers, err := parsePairs("header", headerFlag)
	if err != nil {
		return nil, err
	}
	if headers != nil {
		kwargs["header"] = headers
	}

	query, err := parsePairs("query", queryFlag)
	if err != nil {
		return nil, err
	}
	if query != nil {
		kwargs["query"] = query
	}

	if bodyFlag != "" {
		body, err := readBody(bodyFlag)
		if err != nil {
			return nil, err
		}
		kwargs["body"] = body
	}

	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, errUsage("invalid --timeout %q: %v", timeoutFlag, err)
		}
		kwargs["timeout"] = d
	}

	if streamFlag {
		kwargs["stream"] = true
	}

	if len(kwargs) > 0 {
		args = append(args, kwargs)
	}
	return args, nil
}

// printStream writes a streamed response as it arrives. Event streams are
// printed event by event.
func printStream(ctx context.Context, w io.Writer, formatter output.Formatter, result *output.Result, resp *http.Response) error {
	if resp.MediaType() != sse.MediaType {
		formatter.FormatResult(result)
		defer resp.Close()
		if _, err := io.Copy(w, resp.Reader()); err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
		return nil
	}

	count := 0
	err := sse.Read(ctx, resp, func(ev sse.Event) error {
		formatter.FormatEvent(ev)
		count++
		if maxEventsFlag > 0 && count >= maxEventsFlag {
			return sse.ErrStop
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// reportedError marks a call failure the formatter has already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }
