package timing

import (
	"context"
	"log/slog"
	"time"
)

// AdaptiveLimiter uses precise timing with drift compensation.
// Combines sleep for efficiency with busy-waiting for accuracy.
type AdaptiveLimiter struct {
	targetFrameTime time.Duration
	nextFrameTime   time.Time
	frameCounter    int64
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	return &AdaptiveLimiter{
		targetFrameTime: FrameDuration(),
		nextFrameTime:   time.Now(),
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame(ctx context.Context) {
	now := time.Now()
	sleepTime := a.nextFrameTime.Sub(now)

	// never wait longer than one frame, whatever drift correction did
	if sleepTime > a.targetFrameTime {
		sleepTime = a.targetFrameTime
		a.nextFrameTime = now.Add(sleepTime)
	}

	if sleepTime > 0 {
		if sleepTime >= 2*time.Millisecond {
			sleep(ctx, sleepTime-time.Millisecond)
		}
		for ctx.Err() == nil && time.Now().Before(a.nextFrameTime) {
			// busy-wait the last stretch, higher accuracy.
		}
	} else if sleepTime < -5*time.Millisecond {
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.targetFrameTime)
	a.frameCounter++

	if a.frameCounter%FramesPerSecond == 0 {
		drift := time.Now().Sub(a.nextFrameTime.Add(-a.targetFrameTime))

		if drift.Abs() > 10*time.Millisecond {
			a.nextFrameTime = a.nextFrameTime.Add(drift / 10)
			slog.Debug("Frame timing drift correction", "drift_ms", drift.Milliseconds())
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.nextFrameTime = time.Now()
	a.frameCounter = 0
}
