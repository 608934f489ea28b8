package sim

import "time"

// AggregateRecord is one per-tick snapshot of the simulated cluster.
// PodCount is the replica count in effect during the tick; a scaling
// decision taken at the end of the tick shows up in the next record.
type AggregateRecord struct {
	Timestamp        time.Time
	RPS              int
	RequestsInFlight int
	LatencyMs        float64
	PodCount         int
}

// RequestRecord is one synthetic request produced by per-request expansion.
// TimestampOffsetSeconds is measured from the simulation start.
type RequestRecord struct {
	RequestID              string
	TimestampOffsetSeconds float64
	LatencyMs              float64
	RequestsInFlight       int
	PodID                  string
	PodCount               int
	Success                bool
}

// ScaleAction names the outcome of one autoscaler evaluation.
type ScaleAction string

const (
	ScaleNone ScaleAction = "none"
	ScaleUp   ScaleAction = "scale_up"
	ScaleDown ScaleAction = "scale_down"
)

// ScalingEvent records a replica count change.
type ScalingEvent struct {
	TimestampOffsetSeconds float64
	Action                 ScaleAction
	ReplicasBefore         int
	ReplicasAfter          int
	RequestsInFlight       int
	Reason                 string
}
