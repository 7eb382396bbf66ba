package meshtest

import "sync"

// Clock is a millisecond counter that ticks forward on every read, so a
// test's busy-wait loops (poll, request, confirm) make deterministic
// progress toward their deadlines without a real sleep. DelayMilliseconds
// fast-forwards it directly.
type Clock struct {
	mu sync.Mutex
	ms uint32
}

func NewClock() *Clock { return &Clock{} }

func (c *Clock) Millis() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms++
	return c.ms
}

func (c *Clock) DelayMilliseconds(ms uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms += ms
}
