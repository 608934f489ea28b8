package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure from Config.Validate.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Latency model names accepted by LatencyConfig.Model.
const (
	LatencyModelLinear    = "linear"
	LatencyModelQuadratic = "quadratic"
)

// DefaultStartTime anchors AggregateRecord timestamps when no start_time is
// configured. A fixed instant keeps runs reproducible.
var DefaultStartTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// LoadConfig groups the traffic model parameters.
type LoadConfig struct {
	BaseRate             float64 `yaml:"base_rate"`              // mean requests per second
	Amplitude            float64 `yaml:"amplitude"`              // relative periodic swing around BaseRate (0.6 = ±60%)
	PeriodSeconds        float64 `yaml:"period_seconds"`         // length of one periodic cycle
	PhaseSeconds         float64 `yaml:"phase_seconds"`          // shifts the cycle start
	NoiseFraction        float64 `yaml:"noise_fraction"`         // gaussian std-dev relative to the rate
	MinRate              float64 `yaml:"min_rate"`               // floor applied after noise (must be > 0)
	SpikeIntervalSeconds float64 `yaml:"spike_interval_seconds"` // 0 disables spikes
	SpikeOffsetSeconds   float64 `yaml:"spike_offset_seconds"`   // start of the first spike window
	SpikeDurationSeconds float64 `yaml:"spike_duration_seconds"`
	SpikeMagnitude       float64 `yaml:"spike_magnitude"` // peak rate as a multiple of BaseRate
}

// LatencyConfig groups the congestion model parameters.
type LatencyConfig struct {
	Model           string  `yaml:"model"` // "linear" (default) or "quadratic"
	BaseMs          float64 `yaml:"base_ms"`
	CongestionCoeff float64 `yaml:"congestion_coeff"` // ms per in-flight request per replica (linear)
	QuadraticScale  float64 `yaml:"quadratic_scale"`  // per-replica in-flight at which latency doubles (quadratic)
	NoiseFraction   float64 `yaml:"noise_fraction"`   // per-request gaussian std-dev relative to the mean
	MinLatencyMs    float64 `yaml:"min_latency_ms"`
	InFlightFactor  float64 `yaml:"in_flight_factor"` // in-flight requests per unit of rps
	InFlightJitter  float64 `yaml:"in_flight_jitter"` // bounded uniform jitter, relative
}

// ScalingConfig groups the autoscaler parameters.
type ScalingConfig struct {
	MinReplicas     int     `yaml:"min_replicas"`
	MaxReplicas     int     `yaml:"max_replicas"`
	InitialReplicas int     `yaml:"initial_replicas"`
	ScaleThreshold  float64 `yaml:"scale_threshold"`  // in-flight requests one replica absorbs
	CooldownSeconds float64 `yaml:"cooldown_seconds"` // 0 = threshold hysteresis only
}

// RequestConfig groups per-request expansion parameters.
type RequestConfig struct {
	JitterFraction     float64 `yaml:"jitter_fraction"`     // max timestamp jitter as a fraction of the spacing, in [0, 1)
	FailureProbability float64 `yaml:"failure_probability"` // independent per-request failure chance
}

// Config is the full engine configuration. It is fixed for the lifetime of
// an Engine.
type Config struct {
	Seed        int64         `yaml:"seed"`
	TickSeconds float64       `yaml:"tick_seconds"`
	StartTime   time.Time     `yaml:"start_time"`
	Load        LoadConfig    `yaml:"load"`
	Latency     LatencyConfig `yaml:"latency"`
	Scaling     ScalingConfig `yaml:"scaling"`
	Requests    RequestConfig `yaml:"requests"`
}

// DefaultConfig returns the canonical parameter set: a one-hour sinusoidal
// cycle around 50 rps, a 4x spike lasting five minutes every half hour, and
// up to 10 replicas each absorbing 50 in-flight requests.
func DefaultConfig() Config {
	return Config{
		Seed:        42,
		TickSeconds: 60,
		StartTime:   DefaultStartTime,
		Load: LoadConfig{
			BaseRate:             50,
			Amplitude:            0.6,
			PeriodSeconds:        3600,
			NoiseFraction:        0.05,
			MinRate:              1,
			SpikeIntervalSeconds: 1800,
			SpikeOffsetSeconds:   900,
			SpikeDurationSeconds: 300,
			SpikeMagnitude:       4,
		},
		Latency: LatencyConfig{
			Model:           LatencyModelLinear,
			BaseMs:          80,
			CongestionCoeff: 0.8,
			QuadraticScale:  200,
			NoiseFraction:   0.15,
			MinLatencyMs:    1,
			InFlightFactor:  1.2,
			InFlightJitter:  0.1,
		},
		Scaling: ScalingConfig{
			MinReplicas:     1,
			MaxReplicas:     10,
			InitialReplicas: 1,
			ScaleThreshold:  50,
		},
		Requests: RequestConfig{
			JitterFraction:     0.5,
			FailureProbability: 0.01,
		},
	}
}

// LoadConfigFile reads a YAML configuration on top of DefaultConfig.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.ApplyYAML(data); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyYAML overlays the keys present in data onto c. Uses strict parsing:
// unrecognized keys (typos) are rejected. An empty document is a no-op.
func (c *Config) ApplyYAML(data []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

// Validate checks construction-time constraints. Every error wraps
// ErrInvalidConfig.
func (c Config) Validate() error {
	if err := validatePositive("tick_seconds", c.TickSeconds); err != nil {
		return err
	}
	if err := c.Load.validate(); err != nil {
		return err
	}
	if err := c.Latency.validate(); err != nil {
		return err
	}
	if err := c.Scaling.validate(); err != nil {
		return err
	}
	return c.Requests.validate()
}

func (l LoadConfig) validate() error {
	if err := validatePositive("load.base_rate", l.BaseRate); err != nil {
		return err
	}
	if err := validatePositive("load.period_seconds", l.PeriodSeconds); err != nil {
		return err
	}
	if err := validatePositive("load.min_rate", l.MinRate); err != nil {
		return err
	}
	if err := validateNonNegatives([]namedValue{
		{"load.amplitude", l.Amplitude},
		{"load.noise_fraction", l.NoiseFraction},
		{"load.spike_interval_seconds", l.SpikeIntervalSeconds},
		{"load.spike_offset_seconds", l.SpikeOffsetSeconds},
		{"load.spike_duration_seconds", l.SpikeDurationSeconds},
		{"load.spike_magnitude", l.SpikeMagnitude},
	}); err != nil {
		return err
	}
	if !finite(l.PhaseSeconds) {
		return invalid("load.phase_seconds must be a finite number, got %f", l.PhaseSeconds)
	}
	if l.SpikeIntervalSeconds > 0 && l.SpikeDurationSeconds > l.SpikeIntervalSeconds {
		return invalid("load.spike_duration_seconds (%g) must not exceed spike_interval_seconds (%g)",
			l.SpikeDurationSeconds, l.SpikeIntervalSeconds)
	}
	return nil
}

func (l LatencyConfig) validate() error {
	switch l.Model {
	case LatencyModelLinear, LatencyModelQuadratic:
	default:
		return invalid("unknown latency.model %q; valid: %s, %s", l.Model, LatencyModelLinear, LatencyModelQuadratic)
	}
	if err := validatePositive("latency.base_ms", l.BaseMs); err != nil {
		return err
	}
	if err := validatePositive("latency.min_latency_ms", l.MinLatencyMs); err != nil {
		return err
	}
	if l.Model == LatencyModelQuadratic {
		if err := validatePositive("latency.quadratic_scale", l.QuadraticScale); err != nil {
			return err
		}
	}
	if err := validateNonNegatives([]namedValue{
		{"latency.congestion_coeff", l.CongestionCoeff},
		{"latency.noise_fraction", l.NoiseFraction},
		{"latency.in_flight_factor", l.InFlightFactor},
		{"latency.in_flight_jitter", l.InFlightJitter},
	}); err != nil {
		return err
	}
	if l.InFlightJitter > 1 {
		return invalid("latency.in_flight_jitter must be in [0, 1], got %f", l.InFlightJitter)
	}
	return nil
}

func (s ScalingConfig) validate() error {
	if s.MaxReplicas < 1 {
		return invalid("scaling.max_replicas must be >= 1, got %d", s.MaxReplicas)
	}
	if s.MinReplicas < 1 || s.MinReplicas > s.MaxReplicas {
		return invalid("scaling.min_replicas must be in [1, %d], got %d", s.MaxReplicas, s.MinReplicas)
	}
	if s.InitialReplicas < s.MinReplicas || s.InitialReplicas > s.MaxReplicas {
		return invalid("scaling.initial_replicas must be in [%d, %d], got %d",
			s.MinReplicas, s.MaxReplicas, s.InitialReplicas)
	}
	if err := validatePositive("scaling.scale_threshold", s.ScaleThreshold); err != nil {
		return err
	}
	return validateNonNegative("scaling.cooldown_seconds", s.CooldownSeconds)
}

func (r RequestConfig) validate() error {
	if !finite(r.JitterFraction) || r.JitterFraction < 0 || r.JitterFraction >= 1 {
		return invalid("requests.jitter_fraction must be in [0, 1), got %f", r.JitterFraction)
	}
	if !finite(r.FailureProbability) || r.FailureProbability < 0 || r.FailureProbability > 1 {
		return invalid("requests.failure_probability must be in [0, 1], got %f", r.FailureProbability)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validatePositive(name string, val float64) error {
	if !finite(val) {
		return invalid("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return invalid("%s must be positive, got %f", name, val)
	}
	return nil
}

func validateNonNegative(name string, val float64) error {
	if !finite(val) {
		return invalid("%s must be a finite number, got %f", name, val)
	}
	if val < 0 {
		return invalid("%s must be non-negative, got %f", name, val)
	}
	return nil
}

type namedValue struct {
	name string
	val  float64
}

func validateNonNegatives(vals []namedValue) error {
	for _, v := range vals {
		if err := validateNonNegative(v.name, v.val); err != nil {
			return err
		}
	}
	return nil
}
