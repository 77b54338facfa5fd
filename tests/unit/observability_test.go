package unit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ranothil/nautilus-trader/internal/observability"
)

type recordingLogger struct {
	debugs int
	infos  int
	errors int
}

func (r *recordingLogger) Debug(string, ...observability.Field) { r.debugs++ }
func (r *recordingLogger) Info(string, ...observability.Field)  { r.infos++ }
func (r *recordingLogger) Error(string, ...observability.Field) { r.errors++ }

func TestSetLoggerOverridesGlobal(t *testing.T) {
	recorder := new(recordingLogger)
	observability.SetLogger(recorder)
	defer observability.SetLogger(nil)

	observability.Log().Debug("test")
	require.Equal(t, 1, recorder.debugs)

	observability.SetLogger(nil)
	observability.Log().Info("noop")
	require.Equal(t, 0, recorder.infos)
}

type recordingMetrics struct {
	counters   map[string]float64
	histograms map[string]float64
	gauges     map[string]float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		counters:   make(map[string]float64),
		histograms: make(map[string]float64),
		gauges:     make(map[string]float64),
	}
}

func (r *recordingMetrics) IncCounter(name string, value float64, _ map[string]string) {
	r.counters[name] += value
}

func (r *recordingMetrics) ObserveHistogram(name string, value float64, _ map[string]string) {
	r.histograms[name] = value
}

func (r *recordingMetrics) SetGauge(name string, value float64, _ map[string]string) {
	r.gauges[name] = value
}

func TestSetMetricsOverridesGlobal(t *testing.T) {
	recorder := newRecordingMetrics()
	observability.SetMetrics(recorder)
	defer observability.SetMetrics(nil)

	observability.Telemetry().IncCounter("orders", 1, nil)
	observability.Telemetry().IncCounter("orders", 2, nil)
	observability.Telemetry().SetGauge("balance", 42, nil)
	require.Equal(t, float64(3), recorder.counters["orders"])
	require.Equal(t, float64(42), recorder.gauges["balance"])

	observability.SetMetrics(nil)
	observability.Telemetry().IncCounter("orders", 1, nil)
	require.Equal(t, float64(3), recorder.counters["orders"])
}
