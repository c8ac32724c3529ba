package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/rest"
	"github.com/abdul-hamid-achik/decorest/packages/stress"
	"github.com/spf13/cobra"
)

var (
	stressDurationFlag    time.Duration
	stressRateFlag        float64
	stressConcurrencyFlag int
	stressThresholdFlag   string
)

var errThresholds = errors.New("stress thresholds failed")

var stressCmd = &cobra.Command{
	Use:   "stress <file> <operation> [args...]",
	Short: "Call one operation repeatedly at a fixed rate",
	Long: `Call an operation at a fixed rate for a fixed duration over one client
session and report latency percentiles and failures. Arguments bind the same
way as for call.

Threshold syntax (comma-separated):
  p50<100ms     50th percentile latency
  p95<200ms     95th percentile latency
  p99<500ms     99th percentile latency
  max<1s        maximum latency
  errors<1%     error rate
  rps>100       minimum requests per second

Examples:
  decorest stress posts.yaml get_post 7 --rate 50 --duration 30s
  decorest stress posts.yaml list_posts --threshold "p95<200ms,errors<1%"
  decorest stress posts.yaml get_post 7 -o json`,
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completeOperation,
	RunE:              stressCommand,
}

func init() {
	stressCmd.Flags().DurationVarP(&stressDurationFlag, "duration", "d", 30*time.Second, "How long to run")
	stressCmd.Flags().Float64VarP(&stressRateFlag, "rate", "r", 10, "Calls per second")
	stressCmd.Flags().IntVar(&stressConcurrencyFlag, "concurrency", 100, "Maximum calls in flight")
	stressCmd.Flags().StringVar(&stressThresholdFlag, "threshold", "", "Pass/fail thresholds (e.g., p95<200ms,errors<1%)")
	addArgumentFlags(stressCmd)
	addClientFlags(stressCmd)

	rootCmd.AddCommand(stressCmd)
}

func stressCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	thresholds, err := stress.ParseThresholds(stressThresholdFlag)
	if err != nil {
		return errUsage("invalid --threshold: %v", err)
	}
	cfg := &stress.Config{
		Duration:    stressDurationFlag,
		Rate:        stressRateFlag,
		Concurrency: stressConcurrencyFlag,
		Thresholds:  thresholds,
	}
	if err := cfg.Validate(); err != nil {
		return errUsage("%v", err)
	}

	setup, err := newClientSetup(args[0])
	if err != nil {
		return err
	}
	defer setup.Close()

	callArgs, err := buildCallArgs(args[2:])
	if err != nil {
		return err
	}
	target := stress.Target{Operation: args[1], Args: callArgs}
	if _, ok := setup.api.Lookup(target.Operation); !ok {
		return errUsage("unknown operation %q", target.Operation)
	}

	reporter := stress.NewReporter(stress.WithWriter(cmd.OutOrStdout()), stress.WithNoColor(noColorFlag))
	if outputFlag != "json" {
		reporter.Header(setup.api.Name(), target, cfg)
	}

	var result *stress.Result
	err = setup.client.WithSession(ctx, func(ctx context.Context, s *rest.Session) error {
		var runErr error
		result, runErr = stress.NewRunner(s, target, cfg).Run(ctx)
		return runErr
	})
	if err != nil {
		return err
	}
	setup.writeMetrics()

	if outputFlag == "json" {
		if err := reporter.JSONSummary(result); err != nil {
			return err
		}
	} else {
		reporter.Summary(result)
	}

	if !result.Passed {
		return &reportedError{err: errThresholds}
	}
	return nil
}
