// Package stats computes summary statistics over engine output and formats
// comparison tables across runs.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/autoscale-sim/sim"
)

// AggregateSummary describes a sequence of per-tick snapshots.
type AggregateSummary struct {
	Rows            int
	DurationSeconds float64 // first to last timestamp
	MeanRPS         float64
	MaxRPS          int
	MeanInFlight    float64
	MeanLatencyMs   float64
	P95LatencyMs    float64
	MeanPods        float64
	MaxPods         int
	ScaleUps        int
	ScaleDowns      int
}

// RequestSummary describes a sequence of per-request records.
// Latency percentiles are nearest-rank.
type RequestSummary struct {
	TotalRequests      int
	SuccessfulRequests int
	SuccessRate        float64 // percent
	MeanLatencyMs      float64
	StdLatencyMs       float64 // sample standard deviation
	MedianLatencyMs    float64
	P95LatencyMs       float64
	P99LatencyMs       float64
	MaxLatencyMs       float64
	MeanInFlight       float64
	MaxInFlight        int
	Throughput         float64 // requests per second between first and last timestamp
}

// SummarizeAggregate returns the zero summary for no rows.
func SummarizeAggregate(rows []sim.AggregateRecord) AggregateSummary {
	var s AggregateSummary
	if len(rows) == 0 {
		return s
	}
	s.Rows = len(rows)
	s.DurationSeconds = rows[len(rows)-1].Timestamp.Sub(rows[0].Timestamp).Seconds()

	rps := make([]float64, len(rows))
	inFlight := make([]float64, len(rows))
	latency := make([]float64, len(rows))
	pods := make([]float64, len(rows))
	for i, r := range rows {
		rps[i] = float64(r.RPS)
		inFlight[i] = float64(r.RequestsInFlight)
		latency[i] = r.LatencyMs
		pods[i] = float64(r.PodCount)
		s.MaxRPS = max(s.MaxRPS, r.RPS)
		s.MaxPods = max(s.MaxPods, r.PodCount)
	}
	s.MeanRPS = stat.Mean(rps, nil)
	s.MeanInFlight = stat.Mean(inFlight, nil)
	s.MeanLatencyMs = stat.Mean(latency, nil)
	s.MeanPods = stat.Mean(pods, nil)
	s.P95LatencyMs = quantile(0.95, latency)

	for _, ev := range DetectScalingEvents(rows) {
		switch ev.Action {
		case sim.ScaleUp:
			s.ScaleUps++
		case sim.ScaleDown:
			s.ScaleDowns++
		}
	}
	return s
}

// SummarizeRequests returns the zero summary for no records.
func SummarizeRequests(records []sim.RequestRecord) RequestSummary {
	var s RequestSummary
	if len(records) == 0 {
		return s
	}
	s.TotalRequests = len(records)

	latency := make([]float64, len(records))
	inFlight := make([]float64, len(records))
	first, last := records[0].TimestampOffsetSeconds, records[0].TimestampOffsetSeconds
	for i, r := range records {
		latency[i] = r.LatencyMs
		inFlight[i] = float64(r.RequestsInFlight)
		if r.Success {
			s.SuccessfulRequests++
		}
		s.MaxInFlight = max(s.MaxInFlight, r.RequestsInFlight)
		first = min(first, r.TimestampOffsetSeconds)
		last = max(last, r.TimestampOffsetSeconds)
	}
	s.SuccessRate = float64(s.SuccessfulRequests) / float64(s.TotalRequests) * 100

	if len(latency) > 1 {
		s.MeanLatencyMs, s.StdLatencyMs = stat.MeanStdDev(latency, nil)
	} else {
		s.MeanLatencyMs = latency[0]
	}
	s.MeanInFlight = stat.Mean(inFlight, nil)

	sort.Float64s(latency)
	s.MedianLatencyMs = stat.Quantile(0.5, stat.Empirical, latency, nil)
	s.P95LatencyMs = stat.Quantile(0.95, stat.Empirical, latency, nil)
	s.P99LatencyMs = stat.Quantile(0.99, stat.Empirical, latency, nil)
	s.MaxLatencyMs = latency[len(latency)-1]

	if span := last - first; span > 0 {
		s.Throughput = float64(s.TotalRequests) / span
	}
	return s
}

// quantile sorts a copy of x and returns its nearest-rank p-quantile.
func quantile(p float64, x []float64) float64 {
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}
