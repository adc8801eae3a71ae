// internal/publish/types.go
package publish

import "github.com/velectric-tools/velectric2mqtt/internal/status"

// Publisher delivers snapshots to the host platform.
// Readings arrive in decode order; state transitions arrive as they
// happen. Implementations must tolerate being called from a single
// goroutine only.
type Publisher interface {
	PublishReading(snap status.Snapshot) error
	PublishState(snap status.Snapshot) error
	Close() error
}
