package stress

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/core/dispatch"
	"github.com/abdul-hamid-achik/decorest/packages/core/response"
	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/abdul-hamid-achik/decorest/packages/rest"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Target is the call repeated during a run.
type Target struct {
	Operation string
	Args      []any
}

// Runner repeats one call through a rest.Caller.
type Runner struct {
	caller  rest.Caller
	target  Target
	config  *Config
	metrics *Metrics
}

func NewRunner(caller rest.Caller, target Target, config *Config) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Runner{
		caller:  caller,
		target:  target,
		config:  config,
		metrics: NewMetrics(),
	}
}

// Result holds the final result of a run
type Result struct {
	Summary    *Summary
	Thresholds []ThresholdResult
	Passed     bool
}

// Run starts calls at the configured rate until the duration elapses or ctx
// is done, then waits for the calls in flight.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().
		Str("operation", r.target.Operation).
		Float64("rate", r.config.Rate).
		Dur("duration", r.config.Duration).
		Msg("stress run starting")

	runCtx, cancel := context.WithTimeout(ctx, r.config.Duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(r.config.Rate), 1)
	group := new(errgroup.Group)
	group.SetLimit(r.config.Concurrency)

	r.metrics.Start()
	for limiter.Wait(runCtx) == nil {
		group.Go(func() error {
			r.execute(runCtx)
			return nil
		})
	}
	_ = group.Wait()
	r.metrics.Stop()

	summary := r.metrics.Summary()
	result := &Result{Summary: summary, Passed: true}
	if r.config.Thresholds.HasThresholds() {
		result.Thresholds = summary.Evaluate(r.config.Thresholds)
	}
	for _, tr := range result.Thresholds {
		if !tr.Passed {
			result.Passed = false
		}
	}

	logger.Debug().Int64("calls", summary.TotalRequests).Int64("errors", summary.ErrorCount).Msg("stress run finished")
	return result, nil
}

func (r *Runner) execute(ctx context.Context) {
	start := time.Now()
	value, err := r.caller.Call(ctx, r.target.Operation, r.target.Args...)
	duration := time.Since(start)

	if resp, ok := value.(*http.Response); ok {
		_ = resp.Close()
	}

	if err != nil && ctx.Err() != nil {
		r.metrics.RecordTimeout()
		return
	}
	r.metrics.Record(duration, failureKind(err))
}

// failureKind labels a failed call by status code, "transport" or "error".
func failureKind(err error) string {
	var herr *response.HTTPError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &herr):
		return strconv.Itoa(herr.StatusCode)
	case errors.Is(err, dispatch.ErrTransport):
		return "transport"
	default:
		return "error"
	}
}
