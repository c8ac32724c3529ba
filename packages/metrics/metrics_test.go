package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)

	m.CallStart("get_user")
	m.CallStart("get_user")
	m.CallEnd("get_user")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.callsInFlight.WithLabelValues("get_user")))

	m.RecordResponse("get_user", "GET", 200, 120*time.Millisecond)
	m.RecordResponse("get_user", "GET", 404, 80*time.Millisecond)
	m.RecordResponse("get_user", "GET", 200, 50*time.Millisecond)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.callsTotal.WithLabelValues("get_user", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.callsTotal.WithLabelValues("get_user", "GET", "404")))

	m.RecordError("get_user", KindHTTP)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.errorsTotal.WithLabelValues("get_user", KindHTTP)))

	expected := `
# HELP decorest_errors_total Total number of failed declared API calls by error kind
# TYPE decorest_errors_total counter
decorest_errors_total{kind="http",operation="get_user"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "decorest_errors_total"))

	count, err := testutil.GatherAndCount(registry, "decorest_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CallStart("op")
		m.CallEnd("op")
		m.RecordResponse("op", "GET", 200, time.Second)
		m.RecordError("op", KindTransport)
	})
}
