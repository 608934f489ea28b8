package sim

import (
	"math"
	"testing"
)

func testLoadConfig() LoadConfig {
	return LoadConfig{
		BaseRate:             100,
		Amplitude:            0.5,
		PeriodSeconds:        3600,
		MinRate:              1,
		SpikeIntervalSeconds: 1000,
		SpikeOffsetSeconds:   200,
		SpikeDurationSeconds: 100,
		SpikeMagnitude:       3,
	}
}

func TestLoadModel_Baseline_FollowsSine(t *testing.T) {
	m := NewLoadModel(testLoadConfig())
	tests := []struct {
		t    float64
		want float64
	}{
		{0, 100},
		{900, 150},  // quarter period: peak
		{1800, 100}, // half period
		{2700, 50},  // three quarters: trough
	}
	for _, tt := range tests {
		if got := m.Baseline(tt.t); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Baseline(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestLoadModel_SpikeRamp_HalfSineWindow(t *testing.T) {
	m := NewLoadModel(testLoadConfig())
	tests := []struct {
		name string
		t    float64
		want float64
	}{
		{"before first window", 150, 0},
		{"window start", 200, 0},
		{"window midpoint", 250, 1},
		{"after window", 320, 0},
		{"next window midpoint", 1250, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.SpikeRamp(tt.t); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SpikeRamp(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestLoadModel_SpikeRamp_IsContinuous(t *testing.T) {
	// Consecutive samples one second apart never jump by more than the
	// steepest slope of the half-sine (pi/duration per second).
	m := NewLoadModel(testLoadConfig())
	maxStep := math.Pi / 100
	prev := m.SpikeRamp(0)
	for s := 1; s < 3000; s++ {
		cur := m.SpikeRamp(float64(s))
		if math.Abs(cur-prev) > maxStep+1e-9 {
			t.Fatalf("ramp jumped from %v to %v at t=%d", prev, cur, s)
		}
		prev = cur
	}
}

func TestLoadModel_Expected_SpikeRaisesToPeak(t *testing.T) {
	m := NewLoadModel(testLoadConfig())
	// t=250 is the spike midpoint: rate equals the peak (3 * 100).
	if got := m.Expected(250); math.Abs(got-300) > 1e-9 {
		t.Errorf("Expected(250) = %v, want 300", got)
	}
	// Outside windows the rate is the baseline.
	if got, want := m.Expected(500), m.Baseline(500); got != want {
		t.Errorf("Expected(500) = %v, want baseline %v", got, want)
	}
}

func TestLoadModel_Expected_LowPeakNeverLowersRate(t *testing.T) {
	cfg := testLoadConfig()
	cfg.SpikeMagnitude = 0.1
	m := NewLoadModel(cfg)
	if got, want := m.Expected(250), m.Baseline(250); got != want {
		t.Errorf("Expected(250) = %v, want baseline %v", got, want)
	}
}

func TestLoadModel_Rate_NoNoiseRoundsExpected(t *testing.T) {
	m := NewLoadModel(testLoadConfig())
	rng := newRandFromSeed(1)
	for _, ts := range []float64{0, 250, 900, 2700} {
		if got, want := m.Rate(ts, rng), int(math.Round(m.Expected(ts))); got != want {
			t.Errorf("Rate(%v) = %d, want %d", ts, got, want)
		}
	}
}

func TestLoadModel_Rate_NeverBelowFloor(t *testing.T) {
	// GIVEN a signal that touches zero and heavy noise
	cfg := testLoadConfig()
	cfg.BaseRate = 2
	cfg.Amplitude = 1
	cfg.NoiseFraction = 2
	cfg.MinRate = 2.5
	m := NewLoadModel(cfg)
	rng := newRandFromSeed(42)

	// THEN every draw stays at or above the floor
	for s := 0; s < 10000; s += 7 {
		if r := m.Rate(float64(s), rng); float64(r) < cfg.MinRate {
			t.Fatalf("Rate(%d) = %d, below floor %v", s, r, cfg.MinRate)
		}
	}
}

func TestLoadModel_SpikesDisabled(t *testing.T) {
	cfg := testLoadConfig()
	cfg.SpikeIntervalSeconds = 0
	m := NewLoadModel(cfg)
	if got := m.SpikeRamp(250); got != 0 {
		t.Errorf("SpikeRamp with spikes disabled = %v, want 0", got)
	}
}
