package mesh

import (
	"github.com/rf24mesh/mesh-go/pkg/clock"
	"github.com/rf24mesh/mesh-go/pkg/log"
	"github.com/rf24mesh/mesh-go/pkg/persistence"
	"github.com/rf24mesh/mesh-go/pkg/wire"
)

// config holds the optional collaborators a Mesh is built with.
// defaultConfig fills in the defaults (NoopLogger, the real system
// clock, no persistence, DefaultMaxChildren), matching the teacher stack's pattern
// of constructing services from mostly-defaulted config plus Option
// overrides rather than exposing every field as a constructor argument.
type config struct {
	logger      log.Logger
	clk         clock.Clock
	store       persistence.SnapshotStore
	maxChildren int
}

func defaultConfig() config {
	return config{
		logger:      log.NoopLogger{},
		clk:         clock.NewSystem(),
		maxChildren: wire.DefaultMaxChildren,
	}
}

// Option configures a Mesh at construction time.
type Option func(*config)

// WithLogger sets the structured logger events are reported to.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source, used by tests to inject a fake.
func WithClock(clk clock.Clock) Option {
	return func(c *config) {
		if clk != nil {
			c.clk = clk
		}
	}
}

// WithSnapshotStore enables SaveDHCP/LoadDHCP by giving the master a
// place to persist its binding table across restarts. Without this
// option those operations return a NotConfigured error, matching the
// core's no-persistence-by-default contract.
func WithSnapshotStore(store persistence.SnapshotStore) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithMaxChildren overrides the default child-slot count (1..5).
func WithMaxChildren(n int) Option {
	return func(c *config) {
		if n >= 1 && n <= wire.HardMaxChildren {
			c.maxChildren = n
		}
	}
}
