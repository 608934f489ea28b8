package sim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrModeMixed is returned when Tick and GenerateRequests are both used
	// on one engine.
	ErrModeMixed = errors.New("engine already running in another mode")

	// ErrTickOutOfOrder is returned when GenerateRequests is asked to start
	// before the engine's current simulated time.
	ErrTickOutOfOrder = errors.New("tick starts before current simulated time")

	// ErrInvalidDuration is returned for a non-positive or non-finite interval.
	ErrInvalidDuration = errors.New("tick duration must be positive")
)

type runMode int

const (
	modeUnset runMode = iota
	modeAggregate
	modeRequests
)

func (m runMode) String() string {
	switch m {
	case modeAggregate:
		return "aggregate"
	case modeRequests:
		return "requests"
	default:
		return "unset"
	}
}

// tickStats is the shared per-tick computation behind both entry points.
type tickStats struct {
	rps       int
	inFlight  int
	latencyMs float64
	pods      int
}

// Engine owns one simulation run: simulated time, the autoscaler state
// and the seeded random streams. Create one per run with NewEngine.
//
// Thread-safety: NOT thread-safe. Ticks must be requested sequentially.
type Engine struct {
	cfg     Config
	rng     *PartitionedRNG
	load    *LoadModel
	latency LatencyModel
	scaler  *Autoscaler

	elapsed float64 // seconds since simulation start
	mode    runMode
	events  []ScalingEvent
}

// NewEngine validates cfg and creates an engine at simulated time 0.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	latency, err := NewLatencyModel(cfg.Latency)
	if err != nil {
		return nil, err
	}
	scaler, err := NewAutoscaler(cfg.Scaling)
	if err != nil {
		return nil, err
	}
	if cfg.StartTime.IsZero() {
		cfg.StartTime = DefaultStartTime
	}
	return &Engine{
		cfg:     cfg,
		rng:     NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		load:    NewLoadModel(cfg.Load),
		latency: latency,
		scaler:  scaler,
	}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Key returns the simulation key every random stream of this engine derives from.
func (e *Engine) Key() SimulationKey { return e.rng.Key() }

// Replicas returns the replica count that applies to the next tick.
func (e *Engine) Replicas() int { return e.scaler.Replicas() }

// Elapsed returns simulated seconds since the start of the run.
func (e *Engine) Elapsed() float64 { return e.elapsed }

// ScalingEvents returns every replica change so far, in order.
func (e *Engine) ScalingEvents() []ScalingEvent {
	out := make([]ScalingEvent, len(e.events))
	copy(out, e.events)
	return out
}

// Tick advances one tick of Config.TickSeconds and returns the aggregate
// snapshot for it.
func (e *Engine) Tick() (AggregateRecord, error) {
	if err := e.enterMode(modeAggregate); err != nil {
		return AggregateRecord{}, err
	}
	start := e.elapsed
	st := e.computeTickStats(start)
	e.elapsed = start + e.cfg.TickSeconds

	return AggregateRecord{
		Timestamp:        e.cfg.StartTime.Add(secondsToDuration(start)),
		RPS:              st.rps,
		RequestsInFlight: st.inFlight,
		LatencyMs:        roundMs(st.latencyMs),
		PodCount:         st.pods,
	}, nil
}

// GenerateRequests advances one interval of durationSeconds starting at
// tickStart (seconds since simulation start) and expands it into individual
// requests. tickStart may skip ahead of the current simulated time but never
// go back.
func (e *Engine) GenerateRequests(tickStart, durationSeconds float64) ([]RequestRecord, error) {
	if math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) || durationSeconds <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDuration, durationSeconds)
	}
	if math.IsNaN(tickStart) || tickStart < e.elapsed {
		return nil, fmt.Errorf("%w: start %v, simulated time %v", ErrTickOutOfOrder, tickStart, e.elapsed)
	}
	if err := e.enterMode(modeRequests); err != nil {
		return nil, err
	}
	st := e.computeTickStats(tickStart)
	e.elapsed = tickStart + durationSeconds
	return e.expandRequests(st, tickStart, durationSeconds), nil
}

// RunTicks calls Tick n times and collects the records.
func (e *Engine) RunTicks(n int) ([]AggregateRecord, error) {
	records := make([]AggregateRecord, 0, max(n, 0))
	for i := 0; i < n; i++ {
		r, err := e.Tick()
		if err != nil {
			return records, err
		}
		records = append(records, r)
	}
	return records, nil
}

// RunRequests generates n back-to-back intervals of intervalSeconds each,
// starting at the current simulated time.
func (e *Engine) RunRequests(n int, intervalSeconds float64) ([]RequestRecord, error) {
	var records []RequestRecord
	for i := 0; i < n; i++ {
		batch, err := e.GenerateRequests(e.elapsed, intervalSeconds)
		if err != nil {
			return records, err
		}
		records = append(records, batch...)
	}
	return records, nil
}

func (e *Engine) enterMode(m runMode) error {
	if e.mode == modeUnset {
		e.mode = m
		return nil
	}
	if e.mode != m {
		return fmt.Errorf("%w: %s requested, engine is in %s mode", ErrModeMixed, m, e.mode)
	}
	return nil
}

// computeTickStats draws the tick's rate and in-flight count, computes
// latency with the replica count in effect, then lets the autoscaler react.
// The new replica count applies from the next tick.
func (e *Engine) computeTickStats(at float64) tickStats {
	rps := e.load.Rate(at, e.rng.ForSubsystem(SubsystemLoad))
	inFlight := sampleInFlight(rps, e.cfg.Latency, e.rng.ForSubsystem(SubsystemLatency))
	pods := e.scaler.Replicas()
	st := tickStats{
		rps:       rps,
		inFlight:  inFlight,
		latencyMs: e.latency.MeanLatencyMs(inFlight, pods),
		pods:      pods,
	}

	d := e.scaler.Observe(inFlight, at)
	if d.Action != ScaleNone {
		e.events = append(e.events, ScalingEvent{
			TimestampOffsetSeconds: at,
			Action:                 d.Action,
			ReplicasBefore:         d.Before,
			ReplicasAfter:          d.After,
			RequestsInFlight:       inFlight,
			Reason:                 d.Reason,
		})
		logrus.Debugf("t=%.0fs %s %d -> %d (%s)", at, d.Action, d.Before, d.After, d.Reason)
	} else if d.Reason != "" {
		logrus.Tracef("t=%.0fs scaling suppressed: %s", at, d.Reason)
	}
	return st
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
