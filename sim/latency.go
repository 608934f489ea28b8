package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// LatencyModel maps in-flight load and serving capacity to an expected
// latency in milliseconds. Implementations must be monotonically
// non-decreasing in inFlight and non-increasing in replicas.
type LatencyModel interface {
	MeanLatencyMs(inFlight, replicas int) float64
}

// LinearLatencyModel grows latency linearly with per-replica load:
// base + (inFlight / replicas) * coeff.
type LinearLatencyModel struct {
	BaseMs          float64
	CongestionCoeff float64
}

func (m *LinearLatencyModel) MeanLatencyMs(inFlight, replicas int) float64 {
	return m.BaseMs + perReplica(inFlight, replicas)*m.CongestionCoeff
}

// QuadraticLatencyModel grows latency with the square of per-replica load:
// base * (1 + (inFlight / replicas / scale)^2).
type QuadraticLatencyModel struct {
	BaseMs float64
	Scale  float64
}

func (m *QuadraticLatencyModel) MeanLatencyMs(inFlight, replicas int) float64 {
	ratio := perReplica(inFlight, replicas) / m.Scale
	return m.BaseMs * (1 + ratio*ratio)
}

// NewLatencyModel builds the model named by cfg.Model.
func NewLatencyModel(cfg LatencyConfig) (LatencyModel, error) {
	switch cfg.Model {
	case LatencyModelLinear:
		return &LinearLatencyModel{BaseMs: cfg.BaseMs, CongestionCoeff: cfg.CongestionCoeff}, nil
	case LatencyModelQuadratic:
		if cfg.QuadraticScale <= 0 {
			return nil, fmt.Errorf("%w: latency.quadratic_scale must be positive, got %f", ErrInvalidConfig, cfg.QuadraticScale)
		}
		return &QuadraticLatencyModel{BaseMs: cfg.BaseMs, Scale: cfg.QuadraticScale}, nil
	default:
		return nil, fmt.Errorf("%w: unknown latency model %q", ErrInvalidConfig, cfg.Model)
	}
}

// perReplica floors replicas at 1 and inFlight at 0.
func perReplica(inFlight, replicas int) float64 {
	if replicas < 1 {
		replicas = 1
	}
	if inFlight < 0 {
		inFlight = 0
	}
	return float64(inFlight) / float64(replicas)
}

// sampleInFlight derives the in-flight count for a tick from its rate:
// rps * factor, scaled by a uniform jitter in [-jitter, +jitter], floored at 0.
func sampleInFlight(rps int, cfg LatencyConfig, rng *rand.Rand) int {
	u := 2*rng.Float64() - 1
	v := float64(rps) * cfg.InFlightFactor * (1 + u*cfg.InFlightJitter)
	if v < 0 {
		return 0
	}
	return int(math.Round(v))
}

// sampleLatency draws one request latency around mean with a gaussian
// std-dev of noiseFraction*mean, clamped to floor.
func sampleLatency(mean, noiseFraction, floor float64, rng *rand.Rand) float64 {
	v := mean + rng.NormFloat64()*noiseFraction*mean
	return math.Max(v, floor)
}

// roundMs rounds to two decimals, the precision records carry.
func roundMs(v float64) float64 {
	return math.Round(v*100) / 100
}
