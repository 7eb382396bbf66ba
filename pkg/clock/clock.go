package clock

import "time"

// Clock is the time source consumed by the join/renew state machine and
// the DHCP engine's pending-offer deadline. Millis is a free-running
// millisecond counter; it need not correlate with wall-clock time across
// restarts. DelayMilliseconds blocks the caller for the given duration -
// the only form of waiting the single-threaded protocol performs.
type Clock interface {
	Millis() uint32
	DelayMilliseconds(ms uint32)
}

// System is the real clock, backed by time.Now and time.Sleep.
type System struct {
	start time.Time
}

// NewSystem returns a Clock anchored to the current wall-clock time.
func NewSystem() *System {
	return &System{start: time.Now()}
}

func (s *System) Millis() uint32 {
	return uint32(time.Since(s.start).Milliseconds())
}

func (s *System) DelayMilliseconds(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

var _ Clock = (*System)(nil)
