package cecore

import (
	"context"

	"github.com/valerio/go-cecore/cecore/backend"
	"github.com/valerio/go-cecore/cecore/debug"
	"github.com/valerio/go-cecore/cecore/input/action"
	"github.com/valerio/go-cecore/cecore/timing"
)

// Emulator is what hosts and drivers need from a running core.
type Emulator interface {
	RunFrame(ctx context.Context) bool
	HandleAction(act action.Action)
	Snapshot() *debug.Snapshot
}

var _ Emulator = (*Emu)(nil)

// Config holds the loop settings. Zero values select defaults.
type Config struct {
	// ThrottleInterval is the number of core cycles between throttle ticks.
	ThrottleInterval uint64
	// Limiter paces throttle ticks against wall clock time.
	Limiter timing.Limiter
	// Host is pumped on every throttle tick.
	Host backend.Host
	// OnExit runs once the loop has exited, before device state is
	// released.
	OnExit func(e *Emu)
}

func (c Config) withDefaults() Config {
	if c.ThrottleInterval == 0 {
		c.ThrottleInterval = timing.CyclesPerFrame
	}
	if c.Limiter == nil {
		c.Limiter = timing.NewNoOpLimiter()
	}
	return c
}
