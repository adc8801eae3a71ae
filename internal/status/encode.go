// internal/status/encode.go
package status

import (
	"encoding/json"
	"time"
)

// statePayload is the JSON shape published on the state topic.
type statePayload struct {
	CT1Current float64 `json:"ct1_current"`
	CT2Current float64 `json:"ct2_current"`
	CT1Power   float64 `json:"ct1_power,omitempty"`
	CT2Power   float64 `json:"ct2_power,omitempty"`

	ConnectionStatus string `json:"connection_status"`
	Stale            bool   `json:"stale"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

// Encode converts a Snapshot into the JSON state payload.
// No IO. No side effects.
func Encode(s Snapshot) ([]byte, error) {
	p := statePayload{
		CT1Current:       s.CT1Current,
		CT2Current:       s.CT2Current,
		CT1Power:         s.CT1Power,
		CT2Power:         s.CT2Power,
		ConnectionStatus: s.State.String(),
		Stale:            s.Stale,
	}
	if !s.At.IsZero() {
		p.UpdatedAt = s.At.UTC().Format(time.RFC3339)
	}
	return json.Marshal(p)
}
