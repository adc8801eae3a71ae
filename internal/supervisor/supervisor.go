// internal/supervisor/supervisor.go
package supervisor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"github.com/velectric-tools/velectric2mqtt/internal/protocol"
	"github.com/velectric-tools/velectric2mqtt/internal/publish"
	"github.com/velectric-tools/velectric2mqtt/internal/status"
)

// Conn is the exact device contract the supervisor drives.
// The supervisor depends on lifecycle and readings only.
type Conn interface {
	Connect(ctx context.Context) error
	Poll(ctx context.Context) (protocol.Reading, error)
	Close() error
}

// Config is the minimal runtime config the supervisor needs.
type Config struct {
	Interval time.Duration // time between poll cycle starts
	Timeout  time.Duration // per connect/poll bound

	BackoffMin time.Duration
	BackoffMax time.Duration

	// Voltage derives per-channel power; 0 disables it.
	Voltage float64
}

// Supervisor keeps one device connection alive, drives poll cycles and
// owns the latest-readings snapshot. Everything runs on the single
// goroutine inside Run; Snapshot hands out value copies only.
type Supervisor struct {
	cfg   Config
	conn  Conn
	pub   publish.Publisher
	retry *backoff.Backoff

	mu   sync.RWMutex
	snap status.Snapshot
}

// New creates a supervisor with immutable config.
func New(cfg Config, conn Conn, pub publish.Publisher) (*Supervisor, error) {
	if conn == nil {
		return nil, errors.New("supervisor: conn required")
	}
	if pub == nil {
		return nil, errors.New("supervisor: publisher required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("supervisor: interval must be > 0")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("supervisor: timeout must be > 0")
	}
	if cfg.BackoffMin <= 0 || cfg.BackoffMax < cfg.BackoffMin {
		return nil, errors.New("supervisor: backoff bounds invalid")
	}

	return &Supervisor{
		cfg:  cfg,
		conn: conn,
		pub:  pub,
		retry: &backoff.Backoff{
			Min:    cfg.BackoffMin,
			Max:    cfg.BackoffMax,
			Factor: 2,
			Jitter: false,
		},
		snap: status.Snapshot{State: status.StateIdle},
	}, nil
}

// Snapshot returns a copy of the latest readings and connectivity state.
func (s *Supervisor) Snapshot() status.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Run drives connect / poll / backoff until ctx is cancelled.
// Reconnection attempts continue indefinitely; only cancellation stops
// the loop. On exit the connection is closed and the state is Stopped.
func (s *Supervisor) Run(ctx context.Context) {
	defer func() {
		_ = s.conn.Close()
		s.setState(status.StateStopped)
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		s.setState(status.StateConnecting)

		cctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		err := s.conn.Connect(cctx)
		cancel()

		if err != nil {
			log.Printf("supervisor: connect failed: %v", err)
			s.setState(status.StateDisconnected)
			if !s.wait(ctx, s.retry.Duration()) {
				return
			}
			continue
		}

		s.setState(status.StateConnected)

		if !s.pollLoop(ctx) {
			return
		}

		// Transport died mid-polling: drop the connection, flag the
		// last readings stale and go through backoff.
		_ = s.conn.Close()
		s.markStale()
		s.setState(status.StateDisconnected)
		if !s.wait(ctx, s.retry.Duration()) {
			return
		}
	}
}

// pollLoop runs cycles on the configured cadence. Cycles are strictly
// sequential: a slow cycle delays the next tick, never overlaps it.
// Returns false when ctx ended the loop, true on transport failure.
func (s *Supervisor) pollLoop(ctx context.Context) bool {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	awaitingFirst := true

	for {
		pctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		reading, err := s.conn.Poll(pctx)
		cancel()

		switch {
		case err == nil:
			if awaitingFirst {
				// Connect plus first good poll resets the backoff.
				s.retry.Reset()
				awaitingFirst = false
			}
			s.store(reading)

		case isBadFrame(err):
			// Malformed reply: discard, stay connected, keep cadence.
			log.Printf("supervisor: discarding frame: %v", err)

		default:
			if ctx.Err() != nil {
				return false
			}
			log.Printf("supervisor: poll failed: %v", err)
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// wait sleeps for the backoff delay, abandoning it on cancellation.
func (s *Supervisor) wait(ctx context.Context, d time.Duration) bool {
	log.Printf("supervisor: reconnecting in %s", d)

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// store commits a decoded reading and publishes it.
func (s *Supervisor) store(r protocol.Reading) {
	s.mu.Lock()
	s.snap.CT1Current = r.CT1
	s.snap.CT2Current = r.CT2
	if s.cfg.Voltage > 0 {
		s.snap.CT1Power = r.CT1 * s.cfg.Voltage
		s.snap.CT2Power = r.CT2 * s.cfg.Voltage
	}
	s.snap.Stale = false
	s.snap.At = r.At
	snap := s.snap
	s.mu.Unlock()

	if err := s.pub.PublishReading(snap); err != nil {
		log.Printf("supervisor: publish reading failed: %v", err)
	}
}

// markStale flags the retained readings as last-known values.
func (s *Supervisor) markStale() {
	s.mu.Lock()
	s.snap.Stale = true
	s.mu.Unlock()
}

// setState records and publishes a connectivity transition.
func (s *Supervisor) setState(st status.State) {
	s.mu.Lock()
	if s.snap.State == st {
		s.mu.Unlock()
		return
	}
	s.snap.State = st
	snap := s.snap
	s.mu.Unlock()

	if err := s.pub.PublishState(snap); err != nil {
		log.Printf("supervisor: publish state failed: %v", err)
	}
}

func isBadFrame(err error) bool {
	var bad *protocol.BadFrameError
	return errors.As(err, &bad)
}
