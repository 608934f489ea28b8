package sim

import (
	"math"
	"strconv"

	"github.com/google/uuid"
)

// requestNamespace scopes the name-based request IDs.
var requestNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("autoscale-sim/request"))

// RequestID returns the deterministic ID of the index-th request of the
// tick starting at tickStart.
func RequestID(tickStart float64, index int) string {
	name := strconv.FormatFloat(tickStart, 'f', -1, 64) + "/" + strconv.Itoa(index)
	return uuid.NewSHA1(requestNamespace, []byte(name)).String()
}

// PodID names the replica serving the index-th request of a tick with
// pods active replicas: "pod-1" .. "pod-N", round-robin.
func PodID(index, pods int) string {
	if pods < 1 {
		pods = 1
	}
	return "pod-" + strconv.Itoa(index%pods+1)
}

// expandRequests turns a tick into rps request records over
// [tickStart, tickStart+duration). Each offset is the previous one plus
// duration/rps and a positive jitter below JitterFraction of that spacing,
// clamped strictly below the tick end.
func (e *Engine) expandRequests(st tickStats, tickStart, duration float64) []RequestRecord {
	rng := e.rng.ForSubsystem(SubsystemRequests)
	count := st.rps
	if count < 1 {
		count = int(math.Max(1, math.Ceil(e.cfg.Load.MinRate)))
	}
	spacing := duration / float64(count)
	end := tickStart + duration
	last := math.Nextafter(end, math.Inf(-1))

	records := make([]RequestRecord, count)
	ts := tickStart
	for i := 0; i < count; i++ {
		if i > 0 {
			ts += spacing
		}
		ts += rng.Float64() * e.cfg.Requests.JitterFraction * spacing
		if ts > last {
			ts = last
		}

		latency := sampleLatency(st.latencyMs, e.cfg.Latency.NoiseFraction, e.cfg.Latency.MinLatencyMs, rng)
		records[i] = RequestRecord{
			RequestID:              RequestID(tickStart, i),
			TimestampOffsetSeconds: ts,
			LatencyMs:              roundMs(latency),
			RequestsInFlight:       st.inFlight,
			PodID:                  PodID(i, st.pods),
			PodCount:               st.pods,
			Success:                rng.Float64() >= e.cfg.Requests.FailureProbability,
		}
	}
	return records
}
