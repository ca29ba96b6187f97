package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docqd/internal/metrics"
)

func TestNewRegistersCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.QueriesTotal.Inc()
	m.CacheHits.Inc()
	m.CacheHits.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.QueriesTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.InferenceCalls))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["docqd_queries_total"])
	assert.True(t, names["docqd_cache_hits_total"])
}

func TestNewNopIsIsolated(t *testing.T) {
	a := metrics.NewNop()
	b := metrics.NewNop()

	a.InferenceCalls.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.InferenceCalls))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.InferenceCalls))
}
