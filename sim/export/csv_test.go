package export

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/autoscale-sim/sim"
)

func TestAggregateCSV_RoundTrip_PreservesAllFields(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []sim.AggregateRecord{
		{Timestamp: start, RPS: 50, RequestsInFlight: 61, LatencyMs: 128.8, PodCount: 1},
		{Timestamp: start.Add(time.Minute), RPS: 212, RequestsInFlight: 250, LatencyMs: 180.25, PodCount: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAggregateCSV(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,rps,requests_in_flight,latency_ms,pod_count", lines[0])
	assert.Equal(t, "2024-01-01T00:00:00Z,50,61,128.8,1", lines[1])

	loaded, err := ReadAggregateCSV(&buf)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	for i := range records {
		assert.True(t, records[i].Timestamp.Equal(loaded[i].Timestamp), "row %d timestamp", i)
		assert.Equal(t, records[i].RPS, loaded[i].RPS)
		assert.Equal(t, records[i].RequestsInFlight, loaded[i].RequestsInFlight)
		assert.Equal(t, records[i].LatencyMs, loaded[i].LatencyMs)
		assert.Equal(t, records[i].PodCount, loaded[i].PodCount)
	}
}

func TestRequestCSV_RoundTrip_PreservesAllFields(t *testing.T) {
	records := []sim.RequestRecord{
		{RequestID: sim.RequestID(0, 0), TimestampOffsetSeconds: 0.0125, LatencyMs: 97.31,
			RequestsInFlight: 60, PodID: "pod-1", PodCount: 2, Success: true},
		{RequestID: sim.RequestID(0, 1), TimestampOffsetSeconds: 0.5, LatencyMs: 101,
			RequestsInFlight: 60, PodID: "pod-2", PodCount: 2, Success: false},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRequestCSV(&buf, records))
	loaded, err := ReadRequestCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestReadAggregateCSV_RejectsWrongHeader(t *testing.T) {
	_, err := ReadAggregateCSV(strings.NewReader("a,b,c,d,e\n1,2,3,4,5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected CSV header")
}

func TestReadAggregateCSV_ReportsLineOfBadValue(t *testing.T) {
	data := "timestamp,rps,requests_in_flight,latency_ms,pod_count\n" +
		"2024-01-01T00:00:00Z,50,61,128.8,1\n" +
		"2024-01-01T00:01:00Z,fifty,61,128.8,1\n"
	_, err := ReadAggregateCSV(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestReadRequestCSV_EmptyInput(t *testing.T) {
	_, err := ReadRequestCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestWriteScalingEventsCSV_OneRowPerEvent(t *testing.T) {
	events := []sim.ScalingEvent{
		{TimestampOffsetSeconds: 60, Action: sim.ScaleUp, ReplicasBefore: 1, ReplicasAfter: 2,
			RequestsInFlight: 80, Reason: "in_flight 80 > 50"},
		{TimestampOffsetSeconds: 600, Action: sim.ScaleDown, ReplicasBefore: 2, ReplicasAfter: 1,
			RequestsInFlight: 10, Reason: "in_flight 10 < 50"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteScalingEventsCSV(&buf, events))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(ScalingEventColumns, ","), lines[0])
	assert.Equal(t, "60,scale_up,1,2,80,in_flight 80 > 50", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "600,scale_down,2,1,10,"))
}

func TestDetectKind(t *testing.T) {
	assert.Equal(t, KindAggregate, DetectKind(AggregateColumns))
	assert.Equal(t, KindRequests, DetectKind(RequestColumns))
	assert.Equal(t, "", DetectKind([]string{"timestamp"}))
}

func TestWriteFile_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "agg.csv")
	err := WriteFile(path, func(w io.Writer) error {
		return WriteAggregateCSV(w, nil)
	})
	require.NoError(t, err)

	header, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, AggregateColumns, header)
}

func TestEngineOutput_ExportsAndReloads(t *testing.T) {
	// GIVEN a short aggregate run
	engine, err := sim.NewEngine(sim.DefaultConfig())
	require.NoError(t, err)
	records, err := engine.RunTicks(30)
	require.NoError(t, err)

	// WHEN exported and read back
	path := filepath.Join(t.TempDir(), "run.csv")
	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		return WriteAggregateCSV(w, records)
	}))
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	loaded, err := ReadAggregateCSV(file)
	require.NoError(t, err)

	// THEN every tick survives unchanged
	require.Len(t, loaded, len(records))
	for i := range records {
		assert.Equal(t, records[i].RPS, loaded[i].RPS)
		assert.Equal(t, records[i].LatencyMs, loaded[i].LatencyMs)
		assert.Equal(t, records[i].PodCount, loaded[i].PodCount)
	}
}
