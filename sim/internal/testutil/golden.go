// Package testutil provides shared test infrastructure for the autoscaling
// simulator: the hand-computed golden scenarios and assertion helpers.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/golden_scenarios.json.
type GoldenDataset struct {
	Load    []GoldenLoadCase    `json:"load"`
	Latency []GoldenLatencyCase `json:"latency"`
	Scaling []GoldenScalingCase `json:"scaling"`
}

// GoldenLoadCase is a noise-free load model with expected rates at fixed times.
type GoldenLoadCase struct {
	Name                 string            `json:"name"`
	BaseRate             float64           `json:"base_rate"`
	Amplitude            float64           `json:"amplitude"`
	PeriodSeconds        float64           `json:"period_seconds"`
	PhaseSeconds         float64           `json:"phase_seconds"`
	SpikeIntervalSeconds float64           `json:"spike_interval_seconds"`
	SpikeOffsetSeconds   float64           `json:"spike_offset_seconds"`
	SpikeDurationSeconds float64           `json:"spike_duration_seconds"`
	SpikeMagnitude       float64           `json:"spike_magnitude"`
	Points               []GoldenLoadPoint `json:"points"`
}

// GoldenLoadPoint is one (time, expected rate) pair.
type GoldenLoadPoint struct {
	T           float64 `json:"t"`
	ExpectedRPS float64 `json:"expected_rps"`
}

// GoldenLatencyCase is one mean-latency evaluation.
type GoldenLatencyCase struct {
	Model           string  `json:"model"`
	BaseMs          float64 `json:"base_ms"`
	CongestionCoeff float64 `json:"congestion_coeff"`
	QuadraticScale  float64 `json:"quadratic_scale"`
	InFlight        int     `json:"in_flight"`
	Replicas        int     `json:"replicas"`
	ExpectedMs      float64 `json:"expected_ms"`
}

// GoldenScalingCase is an in-flight sequence and the replica count after
// each autoscaler observation.
type GoldenScalingCase struct {
	Name            string  `json:"name"`
	ScaleThreshold  float64 `json:"scale_threshold"`
	MinReplicas     int     `json:"min_replicas"`
	MaxReplicas     int     `json:"max_replicas"`
	InitialReplicas int     `json:"initial_replicas"`
	CooldownSeconds float64 `json:"cooldown_seconds"`
	TickSeconds     float64 `json:"tick_seconds"`
	InFlight        []int   `json:"in_flight"`
	Replicas        []int   `json:"replicas"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden_scenarios.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
