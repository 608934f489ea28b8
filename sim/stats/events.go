package stats

import (
	"fmt"

	"github.com/inference-sim/autoscale-sim/sim"
)

// DetectScalingEvents derives replica changes from consecutive aggregate
// rows. A change first visible in row i was decided at the end of row i-1,
// so the event carries row i-1's offset and in-flight count. Offsets are
// measured from the first row.
func DetectScalingEvents(rows []sim.AggregateRecord) []sim.ScalingEvent {
	var events []sim.ScalingEvent
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if cur.PodCount == prev.PodCount {
			continue
		}
		action := sim.ScaleUp
		if cur.PodCount < prev.PodCount {
			action = sim.ScaleDown
		}
		events = append(events, sim.ScalingEvent{
			TimestampOffsetSeconds: prev.Timestamp.Sub(rows[0].Timestamp).Seconds(),
			Action:                 action,
			ReplicasBefore:         prev.PodCount,
			ReplicasAfter:          cur.PodCount,
			RequestsInFlight:       prev.RequestsInFlight,
			Reason:                 fmt.Sprintf("pod_count %d -> %d", prev.PodCount, cur.PodCount),
		})
	}
	return events
}
