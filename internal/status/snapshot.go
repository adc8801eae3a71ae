// internal/status/snapshot.go
package status

import "time"

// Snapshot is the latest state the supervisor is allowed to hand out.
// It is a value copy: consumers read it, never mutate shared state.
// Power fields are zero when no mains voltage is configured.
type Snapshot struct {
	CT1Current float64 // amperes
	CT2Current float64 // amperes
	CT1Power   float64 // watts, derived
	CT2Power   float64 // watts, derived

	State State
	Stale bool // readings survive an outage but are flagged
	At    time.Time
}
