package timing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameDuration(t *testing.T) {
	assert.Equal(t, time.Second/60, FrameDuration())
	assert.Equal(t, 800000, CyclesPerFrame)
}

func TestNoOpLimiterDoesNotBlock(t *testing.T) {
	l := NewNoOpLimiter()
	start := time.Now()
	for i := 0; i < 100; i++ {
		l.WaitForNextFrame(context.Background())
	}
	assert.Less(t, time.Since(start), FrameDuration())
}

func TestAdaptiveLimiterBoundedByOneFrame(t *testing.T) {
	l := NewAdaptiveLimiter()
	// push the schedule far into the future; a single wait must still be bounded
	l.nextFrameTime = time.Now().Add(time.Hour)

	start := time.Now()
	l.WaitForNextFrame(context.Background())
	assert.Less(t, time.Since(start), 3*FrameDuration())
}

func TestAdaptiveLimiterCancelled(t *testing.T) {
	l := NewAdaptiveLimiter()
	l.WaitForNextFrame(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	l.WaitForNextFrame(ctx)
	assert.Less(t, time.Since(start), FrameDuration()/2)
}

func TestTickerLimiterCancelled(t *testing.T) {
	l := NewTickerLimiter()
	defer l.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	l.WaitForNextFrame(ctx)
	assert.Less(t, time.Since(start), FrameDuration())
}
