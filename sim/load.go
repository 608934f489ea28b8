package sim

import (
	"math"
	"math/rand"
)

// LoadModel computes the target request rate at a simulated time: a
// periodic baseline, half-sine spike windows on a fixed interval, and
// gaussian noise drawn on every evaluation.
type LoadModel struct {
	cfg LoadConfig
}

// NewLoadModel creates a LoadModel. cfg is assumed validated.
func NewLoadModel(cfg LoadConfig) *LoadModel {
	return &LoadModel{cfg: cfg}
}

// Baseline returns the periodic signal at t seconds, before spikes and noise.
func (m *LoadModel) Baseline(t float64) float64 {
	phase := 2 * math.Pi * (t + m.cfg.PhaseSeconds) / m.cfg.PeriodSeconds
	return m.cfg.BaseRate * (1 + m.cfg.Amplitude*math.Sin(phase))
}

// SpikeRamp returns the spike envelope at t in [0, 1]: sin(pi*p) for the
// position p in [0, 1) inside an active spike window, 0 outside.
func (m *LoadModel) SpikeRamp(t float64) float64 {
	interval, duration := m.cfg.SpikeIntervalSeconds, m.cfg.SpikeDurationSeconds
	if interval <= 0 || duration <= 0 || t < m.cfg.SpikeOffsetSeconds {
		return 0
	}
	pos := math.Mod(t-m.cfg.SpikeOffsetSeconds, interval)
	if pos >= duration {
		return 0
	}
	return math.Sin(math.Pi * pos / duration)
}

// Expected returns the noise-free rate at t: the baseline raised toward
// the spike peak by the spike envelope. A peak below the baseline never
// lowers the rate.
func (m *LoadModel) Expected(t float64) float64 {
	base := m.Baseline(t)
	peak := m.cfg.BaseRate * m.cfg.SpikeMagnitude
	return base + math.Max(0, peak-base)*m.SpikeRamp(t)
}

// Rate returns the integer request rate at t with noise drawn from rng.
// The result is never below the configured floor and never below 1.
func (m *LoadModel) Rate(t float64, rng *rand.Rand) int {
	rate := m.Expected(t)
	rate += rng.NormFloat64() * m.cfg.NoiseFraction * rate
	rate = math.Max(rate, m.cfg.MinRate)
	n := int(math.Round(rate))
	if float64(n) < m.cfg.MinRate || n < 1 {
		n = int(math.Max(1, math.Ceil(m.cfg.MinRate)))
	}
	return n
}
