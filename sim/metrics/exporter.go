// Package metrics mirrors engine output into Prometheus collectors so a run
// can be inspected with the same tooling as a live autoscaler.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inference-sim/autoscale-sim/sim"
)

// Exporter holds one private registry per run. The last observed tick or
// request wins for gauges.
type Exporter struct {
	run      string
	registry *prometheus.Registry

	currentReplicasGauge *prometheus.GaugeVec
	rpsGauge             *prometheus.GaugeVec
	inFlightGauge        *prometheus.GaugeVec
	latencyGauge         *prometheus.GaugeVec
	latencyHistogram     *prometheus.HistogramVec
	requestsCounter      *prometheus.CounterVec
	scalingCounter       *prometheus.CounterVec
}

// NewExporter builds and registers the collectors, labelled with run.
func NewExporter(run string) *Exporter {
	e := &Exporter{
		run:      run,
		registry: prometheus.NewRegistry(),
		currentReplicasGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "autosim_current_replicas",
				Help: "Replica count in effect during the last simulated tick",
			},
			[]string{"run"},
		),
		rpsGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "autosim_requests_per_second",
				Help: "Request rate of the last simulated tick",
			},
			[]string{"run"},
		),
		inFlightGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "autosim_requests_in_flight",
				Help: "Requests in flight during the last simulated tick",
			},
			[]string{"run"},
		),
		latencyGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "autosim_latency_ms",
				Help: "Latency of the last simulated tick or request in milliseconds",
			},
			[]string{"run"},
		),
		latencyHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autosim_request_latency_ms",
				Help:    "Distribution of simulated latencies in milliseconds",
				Buckets: prometheus.ExponentialBuckets(10, 2, 10),
			},
			[]string{"run"},
		),
		requestsCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autosim_requests_total",
				Help: "Simulated requests by outcome",
			},
			[]string{"run", "outcome"},
		),
		scalingCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autosim_scaling_events_total",
				Help: "Replica changes by direction",
			},
			[]string{"run", "direction"},
		),
	}
	e.registry.MustRegister(
		e.currentReplicasGauge, e.rpsGauge, e.inFlightGauge, e.latencyGauge,
		e.latencyHistogram, e.requestsCounter, e.scalingCounter,
	)
	return e
}

// Registry exposes the private registry, e.g. for an HTTP handler.
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

// ObserveAggregate records one tick.
func (e *Exporter) ObserveAggregate(r sim.AggregateRecord) {
	e.currentReplicasGauge.WithLabelValues(e.run).Set(float64(r.PodCount))
	e.rpsGauge.WithLabelValues(e.run).Set(float64(r.RPS))
	e.inFlightGauge.WithLabelValues(e.run).Set(float64(r.RequestsInFlight))
	e.latencyGauge.WithLabelValues(e.run).Set(r.LatencyMs)
	e.latencyHistogram.WithLabelValues(e.run).Observe(r.LatencyMs)
}

// ObserveRequest records one request.
func (e *Exporter) ObserveRequest(r sim.RequestRecord) {
	e.currentReplicasGauge.WithLabelValues(e.run).Set(float64(r.PodCount))
	e.inFlightGauge.WithLabelValues(e.run).Set(float64(r.RequestsInFlight))
	e.latencyGauge.WithLabelValues(e.run).Set(r.LatencyMs)
	e.latencyHistogram.WithLabelValues(e.run).Observe(r.LatencyMs)
	outcome := "success"
	if !r.Success {
		outcome = "failure"
	}
	e.requestsCounter.WithLabelValues(e.run, outcome).Inc()
}

// ObserveEvent counts one replica change. ScaleNone is ignored.
func (e *Exporter) ObserveEvent(ev sim.ScalingEvent) {
	switch ev.Action {
	case sim.ScaleUp:
		e.scalingCounter.WithLabelValues(e.run, "up").Inc()
	case sim.ScaleDown:
		e.scalingCounter.WithLabelValues(e.run, "down").Inc()
	}
}

// WriteTextfile writes the registry in the text exposition format, suitable
// for the node_exporter textfile collector.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
