// internal/status/constants.go
package status

// Connectivity states of the supervised device link.

// State is the supervisor's lifecycle state.
type State int

// StateIdle is the initial state before the supervisor runs.
const StateIdle State = 0

// StateConnecting means a connection attempt is in progress.
const StateConnecting State = 1

// StateConnected means the link is up and polling.
const StateConnected State = 2

// StateDisconnected means the link is down and a backoff wait is pending.
const StateDisconnected State = 3

// StateStopped is terminal; entered only on explicit shutdown.
const StateStopped State = 4

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Connected reports whether the link is up from a consumer's point of view.
func (s State) Connected() bool {
	return s == StateConnected
}
