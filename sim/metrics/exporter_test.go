package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/autoscale-sim/sim"
)

func TestExporter_ObserveAggregate_LastTickWins(t *testing.T) {
	e := NewExporter("test")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	e.ObserveAggregate(sim.AggregateRecord{Timestamp: start, RPS: 50, RequestsInFlight: 60, LatencyMs: 128, PodCount: 1})
	e.ObserveAggregate(sim.AggregateRecord{Timestamp: start.Add(time.Minute), RPS: 80, RequestsInFlight: 96, LatencyMs: 118.4, PodCount: 2})

	assert.Equal(t, 2.0, testutil.ToFloat64(e.currentReplicasGauge.WithLabelValues("test")))
	assert.Equal(t, 80.0, testutil.ToFloat64(e.rpsGauge.WithLabelValues("test")))
	assert.Equal(t, 96.0, testutil.ToFloat64(e.inFlightGauge.WithLabelValues("test")))
	assert.Equal(t, 118.4, testutil.ToFloat64(e.latencyGauge.WithLabelValues("test")))
	assert.Equal(t, 1, testutil.CollectAndCount(e.latencyHistogram))
}

func TestExporter_ObserveRequest_CountsOutcomes(t *testing.T) {
	e := NewExporter("req")
	for i := 0; i < 10; i++ {
		e.ObserveRequest(sim.RequestRecord{LatencyMs: 90, RequestsInFlight: 5, PodCount: 1, Success: i != 3})
	}

	assert.Equal(t, 9.0, testutil.ToFloat64(e.requestsCounter.WithLabelValues("req", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.requestsCounter.WithLabelValues("req", "failure")))
}

func TestExporter_ObserveEvent_CountsDirections(t *testing.T) {
	e := NewExporter("ev")
	e.ObserveEvent(sim.ScalingEvent{Action: sim.ScaleUp})
	e.ObserveEvent(sim.ScalingEvent{Action: sim.ScaleUp})
	e.ObserveEvent(sim.ScalingEvent{Action: sim.ScaleDown})
	e.ObserveEvent(sim.ScalingEvent{Action: sim.ScaleNone})

	assert.Equal(t, 2.0, testutil.ToFloat64(e.scalingCounter.WithLabelValues("ev", "up")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.scalingCounter.WithLabelValues("ev", "down")))
	assert.Equal(t, 2, testutil.CollectAndCount(e.scalingCounter))
}

func TestExporter_WriteTextfile(t *testing.T) {
	e := NewExporter("file")
	e.ObserveAggregate(sim.AggregateRecord{RPS: 12, RequestsInFlight: 14, LatencyMs: 91.2, PodCount: 3})

	path := filepath.Join(t.TempDir(), "autosim.prom")
	require.NoError(t, e.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `autosim_current_replicas{run="file"} 3`), text)
	assert.Contains(t, text, "# TYPE autosim_request_latency_ms histogram")
}

func TestExporter_SeparateRegistries(t *testing.T) {
	a := NewExporter("a")
	b := NewExporter("b")
	a.ObserveEvent(sim.ScalingEvent{Action: sim.ScaleUp})

	assert.Equal(t, 1, testutil.CollectAndCount(a.scalingCounter))
	assert.Equal(t, 0, testutil.CollectAndCount(b.scalingCounter))
}
