package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/autoscale-sim/sim"
)

func TestRunHeader_RoundTrip(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Scaling.MaxReplicas = 7
	header := &RunHeader{
		Mode:            KindRequests,
		Ticks:           10,
		IntervalSeconds: 60,
		Records:         4200,
		ScalingEvents:   3,
		Config:          cfg,
	}
	path := filepath.Join(t.TempDir(), "run.header.yaml")
	require.NoError(t, WriteRunHeader(path, header))

	loaded, err := LoadRunHeader(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Version)
	assert.NotEmpty(t, loaded.CreatedAt)
	assert.Equal(t, KindRequests, loaded.Mode)
	assert.Equal(t, 4200, loaded.Records)
	assert.Equal(t, 7, loaded.Config.Scaling.MaxReplicas)
	assert.Equal(t, cfg.Seed, loaded.Config.Seed)
	assert.True(t, cfg.StartTime.Equal(loaded.Config.StartTime))
}

func TestBuildFileName_SortsKeys(t *testing.T) {
	got := BuildFileName("aggregate", ".csv", map[string]string{
		"seed":    "42",
		"maxpods": "10",
		"latency": "linear",
	})
	assert.Equal(t, "aggregate__latency=linear__maxpods=10__seed=42.csv", got)
}

func TestBuildFileName_NoMetadata(t *testing.T) {
	assert.Equal(t, "requests.csv", BuildFileName("requests", ".csv", nil))
}

func TestParseFileMetadata(t *testing.T) {
	meta := ParseFileMetadata("/out/dir/aggregate__latency=linear__maxpods=10__seed=42.csv")
	assert.Equal(t, map[string]string{"latency": "linear", "maxpods": "10", "seed": "42"}, meta)

	assert.Empty(t, ParseFileMetadata("plain.csv"))
}

func TestHeaderPath(t *testing.T) {
	assert.Equal(t, "/tmp/run__seed=1.header.yaml", HeaderPath("/tmp/run__seed=1.csv"))
}
