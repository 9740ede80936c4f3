package scopedauth

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	metrics := NoopMetrics{}

	metrics.IncCounter("test_counter", map[string]string{"tag": "value"})
	metrics.ObserveHistogram("test_histogram", 1.5, map[string]string{"tag": "value"})
	metrics.SetGauge("test_gauge", 2.5, map[string]string{"tag": "value"})
}

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric %q not gathered", name)
	return nil
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(reg)

	t.Run("IncCounter", func(t *testing.T) {
		tags := map[string]string{"outcome": "authenticated"}
		metrics.IncCounter(MetricRequestsTotal, tags)
		metrics.IncCounter(MetricRequestsTotal, tags)
		metrics.IncCounter(MetricRequestsTotal, map[string]string{"outcome": "anonymous"})

		family := gather(t, reg, MetricRequestsTotal)
		require.Len(t, family.GetMetric(), 2)

		metric := &dto.Metric{}
		err := metrics.counters[MetricRequestsTotal].With(prometheus.Labels(tags)).(prometheus.Metric).Write(metric)
		require.NoError(t, err)
		assert.Equal(t, float64(2), metric.GetCounter().GetValue())
	})

	t.Run("mismatched labels are dropped", func(t *testing.T) {
		assert.NotPanics(t, func() {
			metrics.IncCounter(MetricRequestsTotal, map[string]string{"unexpected": "x"})
		})
		family := gather(t, reg, MetricRequestsTotal)
		assert.Len(t, family.GetMetric(), 2)
	})

	t.Run("ObserveHistogram", func(t *testing.T) {
		metrics.ObserveHistogram(MetricActionDuration, 0.25, map[string]string{"action": "sum"})

		family := gather(t, reg, MetricActionDuration)
		require.Len(t, family.GetMetric(), 1)
		assert.Equal(t, uint64(1), family.GetMetric()[0].GetHistogram().GetSampleCount())
		assert.Equal(t, 0.25, family.GetMetric()[0].GetHistogram().GetSampleSum())
	})

	t.Run("SetGauge", func(t *testing.T) {
		metrics.SetGauge("scopedauth_test_gauge", 4.5, map[string]string{"store": "memory"})

		family := gather(t, reg, "scopedauth_test_gauge")
		require.Len(t, family.GetMetric(), 1)
		assert.Equal(t, 4.5, family.GetMetric()[0].GetGauge().GetValue())
	})
}

func TestKeys(t *testing.T) {
	result := keys(map[string]string{"outcome": "1", "action": "2", "store": "3"})
	assert.Equal(t, []string{"action", "outcome", "store"}, result)
}
