// internal/protocol/frame.go
package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Wire protocol constants.
// These values define the device protocol and MUST NOT be configurable.

// RequestByte is the single-byte poll command ('g').
const RequestByte byte = 103

// FrameLen is the exact length of a telemetry response frame.
const FrameLen = 14

// Bytes 0-1 and 2-3 carry the raw CT values; bytes 4-13 are reserved
// and ignored.
const (
	offCT1 = 0
	offCT2 = 2
)

// Reading is one decoded telemetry sample. Immutable once produced.
type Reading struct {
	CT1 float64 // amperes
	CT2 float64 // amperes
	At  time.Time
}

// BadFrameError reports a response that is not a valid telemetry frame.
type BadFrameError struct {
	Length int
}

func (e *BadFrameError) Error() string {
	return fmt.Sprintf("protocol: bad frame: got %d bytes, want %d", e.Length, FrameLen)
}

// Decode extracts CT currents from a raw device frame.
// Length is validated before extraction; a wrong-length frame produces
// a BadFrameError and no Reading. Trailing reserved bytes are ignored.
//
// The device reports each channel as an unsigned little-endian 16-bit
// value proportional to the square of the measured current, so the
// reading is sqrt(raw).
func Decode(frame []byte) (Reading, error) {
	if len(frame) != FrameLen {
		return Reading{}, &BadFrameError{Length: len(frame)}
	}

	raw1 := binary.LittleEndian.Uint16(frame[offCT1 : offCT1+2])
	raw2 := binary.LittleEndian.Uint16(frame[offCT2 : offCT2+2])

	return Reading{
		CT1: math.Sqrt(float64(raw1)),
		CT2: math.Sqrt(float64(raw2)),
		At:  time.Now(),
	}, nil
}

// Encode builds a valid telemetry frame from raw channel values.
// Reserved bytes are zero. Used by tests and simulators.
func Encode(raw1, raw2 uint16) []byte {
	frame := make([]byte, FrameLen)
	binary.LittleEndian.PutUint16(frame[offCT1:offCT1+2], raw1)
	binary.LittleEndian.PutUint16(frame[offCT2:offCT2+2], raw2)
	return frame
}
