package stress

import (
	"strconv"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// latency bounds in microseconds
const (
	minLatency = 1
	maxLatency = 60_000_000
)

// Metrics aggregates call outcomes of a run
type Metrics struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	total     int64
	success   int64
	errors    int64
	timeouts  int64
	statuses  map[string]int64

	startTime time.Time
	endTime   time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		histogram: hdrhistogram.New(minLatency, maxLatency, 3),
		statuses:  map[string]int64{},
	}
}

func (m *Metrics) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startTime = time.Now()
}

func (m *Metrics) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endTime = time.Now()
}

// Record counts a finished call. kind groups failures in the summary.
func (m *Metrics) Record(duration time.Duration, kind string) {
	us := min(max(duration.Microseconds(), minLatency), maxLatency)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	if kind == "" {
		m.success++
	} else {
		m.errors++
		m.statuses[kind]++
	}
	_ = m.histogram.RecordValue(us)
}

// RecordTimeout counts a call cut short by the end of the run.
func (m *Metrics) RecordTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	m.errors++
	m.timeouts++
}

// Summary is the final report of a run
type Summary struct {
	Duration      time.Duration
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	TimeoutCount  int64
	Failures      map[string]int64

	RPS         float64
	SuccessRate float64
	ErrorRate   float64

	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration
}

func (m *Metrics) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.endTime
	if end.IsZero() {
		end = time.Now()
	}
	s := &Summary{
		Duration:      end.Sub(m.startTime),
		TotalRequests: m.total,
		SuccessCount:  m.success,
		ErrorCount:    m.errors,
		TimeoutCount:  m.timeouts,
		Failures:      make(map[string]int64, len(m.statuses)),
		P50:           micros(m.histogram.ValueAtQuantile(50)),
		P95:           micros(m.histogram.ValueAtQuantile(95)),
		P99:           micros(m.histogram.ValueAtQuantile(99)),
		Min:           micros(m.histogram.Min()),
		Max:           micros(m.histogram.Max()),
		Mean:          micros(int64(m.histogram.Mean())),
		StdDev:        micros(int64(m.histogram.StdDev())),
	}
	for k, v := range m.statuses {
		s.Failures[k] = v
	}
	if secs := s.Duration.Seconds(); secs > 0 {
		s.RPS = float64(s.TotalRequests) / secs
	}
	if s.TotalRequests > 0 {
		s.SuccessRate = float64(s.SuccessCount) / float64(s.TotalRequests)
		s.ErrorRate = float64(s.ErrorCount) / float64(s.TotalRequests)
	}
	return s
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}

// Evaluate checks the summary against t.
func (s *Summary) Evaluate(t Thresholds) []ThresholdResult {
	var results []ThresholdResult
	latency := func(name string, limit, actual time.Duration) {
		if limit > 0 {
			results = append(results, ThresholdResult{
				Name:     name,
				Passed:   actual <= limit,
				Expected: "< " + limit.String(),
				Actual:   actual.String(),
			})
		}
	}
	latency("p50", t.P50, s.P50)
	latency("p95", t.P95, s.P95)
	latency("p99", t.P99, s.P99)
	latency("max latency", t.MaxLatency, s.Max)

	if t.ErrorRate > 0 {
		results = append(results, ThresholdResult{
			Name:     "error rate",
			Passed:   s.ErrorRate <= t.ErrorRate,
			Expected: "< " + formatPercent(t.ErrorRate),
			Actual:   formatPercent(s.ErrorRate),
		})
	}
	if t.MinRPS > 0 {
		results = append(results, ThresholdResult{
			Name:     "min RPS",
			Passed:   s.RPS >= t.MinRPS,
			Expected: "> " + formatFloat(t.MinRPS),
			Actual:   formatFloat(s.RPS),
		})
	}
	return results
}

func formatPercent(f float64) string {
	return formatFloat(f*100) + "%"
}

func formatFloat(f float64) string {
	if f == float64(int(f)) {
		return strconv.Itoa(int(f))
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
