package sim

import (
	"fmt"
	"testing"

	"github.com/inference-sim/autoscale-sim/sim/internal/testutil"
)

// TestGolden_LoadModel checks noise-free rates against hand-computed values.
func TestGolden_LoadModel(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	for _, tc := range dataset.Load {
		t.Run(tc.Name, func(t *testing.T) {
			m := NewLoadModel(LoadConfig{
				BaseRate:             tc.BaseRate,
				Amplitude:            tc.Amplitude,
				PeriodSeconds:        tc.PeriodSeconds,
				PhaseSeconds:         tc.PhaseSeconds,
				SpikeIntervalSeconds: tc.SpikeIntervalSeconds,
				SpikeOffsetSeconds:   tc.SpikeOffsetSeconds,
				SpikeDurationSeconds: tc.SpikeDurationSeconds,
				SpikeMagnitude:       tc.SpikeMagnitude,
			})
			for _, p := range tc.Points {
				testutil.AssertFloat64Equal(t, fmt.Sprintf("Expected(%v)", p.T), p.ExpectedRPS, m.Expected(p.T), 1e-9)
			}
		})
	}
}

func TestGolden_LatencyModel(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	for _, tc := range dataset.Latency {
		name := fmt.Sprintf("%s/%d_over_%d", tc.Model, tc.InFlight, tc.Replicas)
		t.Run(name, func(t *testing.T) {
			m, err := NewLatencyModel(LatencyConfig{
				Model:           tc.Model,
				BaseMs:          tc.BaseMs,
				CongestionCoeff: tc.CongestionCoeff,
				QuadraticScale:  tc.QuadraticScale,
			})
			if err != nil {
				t.Fatalf("NewLatencyModel: %v", err)
			}
			testutil.AssertFloat64Equal(t, "MeanLatencyMs", tc.ExpectedMs, m.MeanLatencyMs(tc.InFlight, tc.Replicas), 1e-12)
		})
	}
}

func TestGolden_AutoscalerSequences(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	for _, tc := range dataset.Scaling {
		t.Run(tc.Name, func(t *testing.T) {
			a, err := NewAutoscaler(ScalingConfig{
				MinReplicas:     tc.MinReplicas,
				MaxReplicas:     tc.MaxReplicas,
				InitialReplicas: tc.InitialReplicas,
				ScaleThreshold:  tc.ScaleThreshold,
				CooldownSeconds: tc.CooldownSeconds,
			})
			if err != nil {
				t.Fatalf("NewAutoscaler: %v", err)
			}
			if len(tc.InFlight) != len(tc.Replicas) {
				t.Fatalf("malformed case: %d inputs, %d expectations", len(tc.InFlight), len(tc.Replicas))
			}
			for i, inFlight := range tc.InFlight {
				got := a.Observe(inFlight, float64(i)*tc.TickSeconds).After
				if got != tc.Replicas[i] {
					t.Errorf("step %d: in_flight=%d -> replicas %d, want %d", i, inFlight, got, tc.Replicas[i])
				}
			}
		})
	}
}
