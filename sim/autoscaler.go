package sim

import (
	"fmt"
)

// ScalingDecision is the outcome of one Autoscaler.Observe call.
type ScalingDecision struct {
	Action ScaleAction
	Before int
	After  int
	Reason string
}

// Autoscaler is a step autoscaler with threshold hysteresis. Each
// observation moves the replica count by at most one:
//   - inFlight > threshold * replicas       → +1 (capped at max)
//   - inFlight < threshold * (replicas - 1) → -1 (floored at min)
//   - otherwise                              → unchanged
//
// An optional cooldown suppresses changes within cooldown seconds of the
// previous change.
//
// Thread-safety: NOT thread-safe.
type Autoscaler struct {
	minReplicas int
	maxReplicas int
	threshold   float64
	cooldown    float64

	replicas  int
	lastScale float64
	scaled    bool
}

// NewAutoscaler creates an Autoscaler starting at cfg.InitialReplicas.
func NewAutoscaler(cfg ScalingConfig) (*Autoscaler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Autoscaler{
		minReplicas: cfg.MinReplicas,
		maxReplicas: cfg.MaxReplicas,
		threshold:   cfg.ScaleThreshold,
		cooldown:    cfg.CooldownSeconds,
		replicas:    cfg.InitialReplicas,
	}, nil
}

// Replicas returns the replica count currently in effect.
func (a *Autoscaler) Replicas() int {
	return a.replicas
}

// Desired applies the threshold rule to inFlight without mutating state
// and without considering cooldown.
func (a *Autoscaler) Desired(inFlight int) int {
	load := float64(inFlight)
	switch {
	case load > a.threshold*float64(a.replicas):
		return min(a.replicas+1, a.maxReplicas)
	case load < a.threshold*float64(a.replicas-1):
		return max(a.replicas-1, a.minReplicas)
	default:
		return a.replicas
	}
}

// Observe evaluates the rule for the in-flight count seen at simulated
// time now and applies the result.
func (a *Autoscaler) Observe(inFlight int, now float64) ScalingDecision {
	before := a.replicas
	target := a.Desired(inFlight)
	if target == before {
		return ScalingDecision{Action: ScaleNone, Before: before, After: before}
	}
	if a.cooldown > 0 && a.scaled && now-a.lastScale < a.cooldown {
		return ScalingDecision{
			Action: ScaleNone, Before: before, After: before,
			Reason: fmt.Sprintf("cooldown: %.0fs since last change < %.0fs", now-a.lastScale, a.cooldown),
		}
	}

	a.replicas = target
	a.lastScale = now
	a.scaled = true

	d := ScalingDecision{Before: before, After: target}
	if target > before {
		d.Action = ScaleUp
		d.Reason = fmt.Sprintf("in_flight=%d > %.4g*%d", inFlight, a.threshold, before)
	} else {
		d.Action = ScaleDown
		d.Reason = fmt.Sprintf("in_flight=%d < %.4g*%d", inFlight, a.threshold, before-1)
	}
	return d
}
