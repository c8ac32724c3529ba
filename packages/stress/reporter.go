package stress

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Reporter prints run headers and summaries
type Reporter struct {
	writer io.Writer

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
}

type ReporterOption func(*Reporter)

func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.writer = w
	}
}

// WithNoColor disables colored output
func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		if noColor {
			color.NoColor = true
		}
	}
}

func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{
		writer: os.Stdout,
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		cyan:   color.New(color.FgCyan),
		bold:   color.New(color.Bold),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Header prints what is about to run
func (r *Reporter) Header(api string, target Target, config *Config) {
	fmt.Fprintln(r.writer)
	r.cyan.Fprintf(r.writer, "Stress testing %s.%s\n", api, target.Operation)
	fmt.Fprintf(r.writer, "Target: %s req/s | Duration: %s | Concurrency: %d\n",
		formatFloat(config.Rate), config.Duration, config.Concurrency)
	fmt.Fprintln(r.writer)
}

// Summary prints the final summary
func (r *Reporter) Summary(result *Result) {
	summary := result.Summary

	r.bold.Fprintln(r.writer, "STRESS TEST SUMMARY")
	fmt.Fprintln(r.writer, strings.Repeat("─", 40))

	fmt.Fprintf(r.writer, "Duration:   %s\n", formatDuration(summary.Duration))
	fmt.Fprintf(r.writer, "Total:      ")
	r.bold.Fprintf(r.writer, "%d", summary.TotalRequests)
	fmt.Fprintf(r.writer, " calls (%.1f req/s)\n", summary.RPS)

	fmt.Fprintf(r.writer, "Success:    ")
	r.green.Fprintf(r.writer, "%d", summary.SuccessCount)
	fmt.Fprintf(r.writer, " (%.1f%%)\n", summary.SuccessRate*100)

	fmt.Fprintf(r.writer, "Failed:     ")
	if summary.ErrorCount > 0 {
		r.red.Fprintf(r.writer, "%d", summary.ErrorCount)
	} else {
		fmt.Fprintf(r.writer, "%d", summary.ErrorCount)
	}
	fmt.Fprintf(r.writer, " (%.1f%%)\n", summary.ErrorRate*100)

	if summary.TimeoutCount > 0 {
		fmt.Fprintf(r.writer, "Timeouts:   ")
		r.yellow.Fprintf(r.writer, "%d\n", summary.TimeoutCount)
	}

	if len(summary.Failures) > 0 {
		kinds := make([]string, 0, len(summary.Failures))
		for k := range summary.Failures {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		parts := make([]string, len(kinds))
		for i, k := range kinds {
			parts[i] = fmt.Sprintf("%s=%d", k, summary.Failures[k])
		}
		fmt.Fprintf(r.writer, "Failures:   %s\n", strings.Join(parts, " "))
	}

	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "LATENCY (ms)")
	fmt.Fprintf(r.writer, "  p50: %-6s | p95: %-6s | p99: %-6s | max: %s\n",
		formatLatencyMs(summary.P50),
		formatLatencyMs(summary.P95),
		formatLatencyMs(summary.P99),
		formatLatencyMs(summary.Max))
	fmt.Fprintf(r.writer, "  min: %-6s | mean: %-5s | stddev: %s\n",
		formatLatencyMs(summary.Min),
		formatLatencyMs(summary.Mean),
		formatLatencyMs(summary.StdDev))

	if len(result.Thresholds) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "THRESHOLDS")
		for _, tr := range result.Thresholds {
			if tr.Passed {
				r.green.Fprintf(r.writer, "  ✓ ")
			} else {
				r.red.Fprintf(r.writer, "  ✗ ")
			}
			fmt.Fprintf(r.writer, "%s %s    (actual: %s)\n", tr.Name, tr.Expected, tr.Actual)
		}
		fmt.Fprintln(r.writer)
		if result.Passed {
			r.green.Fprintln(r.writer, "All thresholds passed!")
		} else {
			r.red.Fprintln(r.writer, "Some thresholds failed!")
		}
	}

	fmt.Fprintln(r.writer)
}

type jsonSummary struct {
	Duration   string             `json:"duration"`
	Requests   jsonRequests       `json:"requests"`
	RPS        float64            `json:"rps"`
	ErrorRate  float64            `json:"errorRate"`
	Failures   map[string]int64   `json:"failures,omitempty"`
	Latency    map[string]float64 `json:"latencyMs"`
	Thresholds []ThresholdResult  `json:"thresholds,omitempty"`
	Passed     bool               `json:"passed"`
}

type jsonRequests struct {
	Total    int64 `json:"total"`
	Success  int64 `json:"success"`
	Failed   int64 `json:"failed"`
	Timeouts int64 `json:"timeouts"`
}

// JSONSummary writes the result as one JSON document
func (r *Reporter) JSONSummary(result *Result) error {
	s := result.Summary
	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

	out := jsonSummary{
		Duration: s.Duration.String(),
		Requests: jsonRequests{
			Total:    s.TotalRequests,
			Success:  s.SuccessCount,
			Failed:   s.ErrorCount,
			Timeouts: s.TimeoutCount,
		},
		RPS:       s.RPS,
		ErrorRate: s.ErrorRate,
		Failures:  s.Failures,
		Latency: map[string]float64{
			"p50":    ms(s.P50),
			"p95":    ms(s.P95),
			"p99":    ms(s.P99),
			"min":    ms(s.Min),
			"max":    ms(s.Max),
			"mean":   ms(s.Mean),
			"stddev": ms(s.StdDev),
		},
		Thresholds: result.Thresholds,
		Passed:     result.Passed,
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}

func formatLatencyMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000
	switch {
	case ms < 1:
		return fmt.Sprintf("%.2f", ms)
	case ms < 10:
		return fmt.Sprintf("%.1f", ms)
	default:
		return fmt.Sprintf("%.0f", ms)
	}
}
