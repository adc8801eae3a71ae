// internal/publish/log.go
package publish

import (
	"log"

	"github.com/velectric-tools/velectric2mqtt/internal/status"
)

// logPublisher is the no-broker fallback: readings go to the log.
type logPublisher struct{}

// NewLog returns a Publisher that writes to the standard logger.
func NewLog() Publisher {
	return logPublisher{}
}

func (logPublisher) PublishReading(snap status.Snapshot) error {
	if snap.CT1Power != 0 || snap.CT2Power != 0 {
		log.Printf("reading ct1=%.1fA ct2=%.1fA ct1_power=%.0fW ct2_power=%.0fW",
			snap.CT1Current, snap.CT2Current, snap.CT1Power, snap.CT2Power)
		return nil
	}
	log.Printf("reading ct1=%.1fA ct2=%.1fA", snap.CT1Current, snap.CT2Current)
	return nil
}

func (logPublisher) PublishState(snap status.Snapshot) error {
	log.Printf("connection %s", snap.State)
	return nil
}

func (logPublisher) Close() error { return nil }
