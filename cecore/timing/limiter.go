package timing

import (
	"context"
	"time"
)

// Limiter paces emulation to real time. It is called once per throttle tick.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule or ctx is done.
	// A single call never blocks for more than one frame duration.
	WaitForNextFrame(ctx context.Context)

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (headless runs and
// host-driven loops, where the host owns the cadence).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame(context.Context) {}
func (n *noOpLimiter) Reset()                           {}

// Constants for calculator timing
const (
	FramesPerSecond = 60
	CPUFrequency    = 48000000
	CyclesPerFrame  = CPUFrequency / FramesPerSecond
)

// FrameDuration returns the target duration of a single throttle tick.
func FrameDuration() time.Duration {
	return time.Second / FramesPerSecond
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
