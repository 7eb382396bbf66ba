package meshtest

import (
	"sync"

	"github.com/rf24mesh/mesh-go/pkg/radio"
)

// Radio is a no-op radio.Radio: channel/rate/power calls are recorded but
// have no effect, since meshtest's Network fake delivers frames directly
// through a Medium rather than over an actual air interface.
type Radio struct {
	mu        sync.Mutex
	channel   uint8
	rate      radio.DataRate
	power     radio.PowerLevel
	listening bool
	fifoFull  bool
}

func NewRadio() *Radio { return &Radio{} }

func (r *Radio) SetChannel(channel uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channel = channel
	return nil
}

func (r *Radio) SetDataRate(rate radio.DataRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rate = rate
	return nil
}

func (r *Radio) SetPowerLevel(level radio.PowerLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.power = level
	return nil
}

func (r *Radio) StartListening() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listening = true
}

func (r *Radio) StopListening() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listening = false
}

func (r *Radio) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fifoFull
}

func (r *Radio) RxFifoFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fifoFull
}

// SetFifoFull lets a test simulate CheckConnection's liveness signal.
func (r *Radio) SetFifoFull(full bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fifoFull = full
}

var _ radio.Radio = (*Radio)(nil)
