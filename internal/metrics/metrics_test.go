package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTxCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveTx("user.get", "commit", time.Millisecond)
	m.ObserveTx("user.get", "commit", time.Millisecond)
	m.ObserveTx("user.get", "rollback", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TxTotal.WithLabelValues("user.get", "commit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxTotal.WithLabelValues("user.get", "rollback")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestObserveRequestLabelsStatusCode(t *testing.T) {
	m := New(nil)

	m.ObserveRequest("/user/{account_name}", "GET", 404, 2*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/user/{account_name}", "GET", "404")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTx("op", "commit", time.Second)
		m.ObserveRequest("/", "GET", 200, time.Second)
	})
}
