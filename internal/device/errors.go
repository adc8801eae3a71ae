// internal/device/errors.go
package device

import "errors"

// Transport error taxonomy. Wrapped by Connect/Poll so callers can
// dispatch with errors.Is. Malformed frames are reported separately as
// *protocol.BadFrameError.

// ErrConnection covers an unreachable, refused, closed or reset transport.
var ErrConnection = errors.New("device: connection error")

// ErrTimeout means no response arrived within the configured bound.
var ErrTimeout = errors.New("device: poll timeout")
