// Package stress drives one declared operation at a fixed rate for a fixed
// duration and summarizes latency and failures.
package stress

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for a stress run
type Config struct {
	Duration    time.Duration
	Rate        float64 // calls per second
	Concurrency int     // max calls in flight
	Thresholds  Thresholds
}

// Thresholds defines pass/fail criteria for a run
type Thresholds struct {
	P50        time.Duration
	P95        time.Duration
	P99        time.Duration
	MaxLatency time.Duration
	ErrorRate  float64 // 0.0 - 1.0
	MinRPS     float64
}

func DefaultConfig() *Config {
	return &Config{
		Duration:    30 * time.Second,
		Rate:        10,
		Concurrency: 100,
	}
}

func (c *Config) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	return nil
}

var thresholdPattern = regexp.MustCompile(`^(\w+)\s*([<>]=?)\s*(.+)$`)

// ParseThresholds parses a threshold list like "p95<200ms,errors<0.1%,rps>50"
func ParseThresholds(s string) (Thresholds, error) {
	var t Thresholds
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if err := parseThresholdPart(part, &t); err != nil {
			return t, err
		}
	}
	return t, nil
}

func parseThresholdPart(part string, t *Thresholds) error {
	matches := thresholdPattern.FindStringSubmatch(part)
	if len(matches) != 4 {
		return fmt.Errorf("invalid threshold format: %s", part)
	}
	metric, op, value := strings.ToLower(matches[1]), matches[2], strings.TrimSpace(matches[3])

	upper := op == "<" || op == "<="
	latency := func(target *time.Duration) error {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %s", metric, value)
		}
		if !upper {
			return fmt.Errorf("%s threshold must use < or <=", metric)
		}
		*target = d
		return nil
	}

	switch metric {
	case "p50":
		return latency(&t.P50)
	case "p95":
		return latency(&t.P95)
	case "p99":
		return latency(&t.P99)
	case "max", "maxlatency":
		return latency(&t.MaxLatency)
	case "errors", "error", "errorrate":
		raw, percent := strings.CutSuffix(value, "%")
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid error rate: %s", value)
		}
		if percent {
			f /= 100
		}
		if !upper {
			return fmt.Errorf("error rate threshold must use < or <=")
		}
		t.ErrorRate = f
	case "rps", "rate":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid RPS: %s", value)
		}
		if upper {
			return fmt.Errorf("RPS threshold must use > or >=")
		}
		t.MinRPS = f
	default:
		return fmt.Errorf("unknown threshold metric: %s", metric)
	}
	return nil
}

func (t Thresholds) HasThresholds() bool {
	return t.P50 > 0 || t.P95 > 0 || t.P99 > 0 || t.MaxLatency > 0 || t.ErrorRate > 0 || t.MinRPS > 0
}

// ThresholdResult holds the result of evaluating a threshold
type ThresholdResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}
