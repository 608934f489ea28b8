// Package sim provides the synthetic telemetry engine for autoscale-sim.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - engine.go: Engine, the two entry points (Tick, GenerateRequests) and
//     the shared per-tick computation
//   - load.go: periodic traffic with half-sine spike windows and noise
//   - autoscaler.go: one-step-per-tick scaling with threshold hysteresis
//   - latency.go: linear and quadratic congestion models
//   - requests.go: per-request expansion (timestamps, pods, success draws)
//
// # Tick Order
//
// Each tick draws the request rate, derives in-flight requests from it,
// computes latency with the replica count in effect, and only then lets the
// autoscaler react. A scaling decision is visible from the following tick.
//
// # Reproducibility
//
// All randomness comes from a PartitionedRNG owned by the engine and
// seeded from Config.Seed, so a fixed seed and configuration reproduce the
// same record sequence.
//
// Sub-packages consume engine output:
//   - sim/export/: CSV files and YAML run headers
//   - sim/stats/: summaries, scaling-event detection, comparison tables
//   - sim/metrics/: Prometheus gauges and textfile dumps
package sim
