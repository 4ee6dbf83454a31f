// Package relay fans a message out to every connection joined to a room.
// Delivery is best-effort, at-most-once per recipient per call.
package relay

import (
	"drawsync/pkg/logger"
	"drawsync/pkg/metrics"
	"drawsync/pkg/registry"
)

// Relay is stateless fan-out over the registry's membership snapshots.
type Relay struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Relay {
	return &Relay{reg: reg}
}

// Broadcast delivers msg to every member of roomID except excluding.
// Sends happen outside the registry lock (the snapshot is taken first) and
// a recipient whose buffer is full is skipped rather than stalling the
// rest. Returns the number of recipients reached; an empty room is a
// no-op.
func (r *Relay) Broadcast(roomID string, msg []byte, excluding registry.Sender) int {
	members := r.reg.MembersOf(roomID, excluding)
	delivered := 0
	for _, m := range members {
		if m.TrySend(msg) {
			delivered++
		} else {
			logger.Warn("broadcast_drop", "room", roomID)
			metrics.BroadcastsDropped.Inc()
		}
	}
	metrics.BroadcastsDelivered.Add(float64(delivered))
	return delivered
}
