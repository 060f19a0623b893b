package cecore

import (
	"context"
	"log/slog"

	"github.com/valerio/go-cecore/cecore/events"
)

// iterate runs one loop iteration and reports whether a frame boundary
// was reached. Both loop forms are built on it.
func (e *Emu) iterate() bool {
	c := e.asic.CPU

	if c.Events().Has(events.Reset) {
		slog.Info("Reset triggered")
		e.asic.Reset()
		e.scheduleThrottle()
		// A stepping session refers to the core before the reset.
		e.dbg.Reset()
		c.Events().Clear(events.Reset | events.Stepping)
	}

	e.frameDone = false
	e.asic.Sched.ProcessPending()
	if e.frameDone {
		return true
	}

	cycles := c.Execute()
	e.asic.Sched.Advance(uint64(cycles))
	if c.Idle() {
		e.asic.Sched.SkipToNext()
	}
	return false
}

// throttle is the periodic frame item: it pumps the host and paces the
// loop against wall clock time.
func (e *Emu) throttle(id events.ItemID) {
	e.asic.Sched.Repeat(id, e.cfg.ThrottleInterval)
	e.frameDone = true
	e.frames++

	if h := e.cfg.Host; h != nil {
		if err := h.Pump(); err != nil {
			slog.Error("Host failed, exiting", "error", err)
			e.hostErr = err
			e.Exit()
		}
	}

	e.cfg.Limiter.WaitForNextFrame(e.ctx())
}

// Start prepares the host-driven form. When reset is true the device is
// reset at the top of the first iteration.
func (e *Emu) Start(reset bool) error {
	if !e.Loaded() {
		return ErrNotLoaded
	}
	e.exiting.Store(false)
	e.hostErr = nil
	e.running = true
	e.cfg.Limiter.Reset()
	if reset {
		e.asic.CPU.Events().Set(events.Reset)
	}
	slog.Info("Emulation started", "device", e.asic.Device())
	return nil
}

// RunFrame runs iterations until the next frame boundary. Returns false
// once the loop has exited; device state is released at that point.
func (e *Emu) RunFrame(ctx context.Context) bool {
	if !e.running {
		return false
	}
	e.loopCtx = ctx
	defer func() { e.loopCtx = nil }()

	for !e.exiting.Load() {
		if e.iterate() {
			return true
		}
	}
	e.stop()
	return false
}

// Run is the self-driven form: it loops until Exit is called or ctx is
// done, then releases device state.
func (e *Emu) Run(ctx context.Context, reset bool) error {
	if err := e.Start(reset); err != nil {
		return err
	}
	e.loopCtx = ctx
	defer func() { e.loopCtx = nil }()

	unwatch := context.AfterFunc(ctx, e.Exit)
	defer unwatch()

	for !e.exiting.Load() {
		e.iterate()
	}
	e.stop()
	return e.hostErr
}

// Exit asks the loop to stop at the top of its next iteration. Safe to
// call from any goroutine.
func (e *Emu) Exit() {
	e.exiting.Store(true)
}

// Running reports whether a loop has been started and not yet exited.
func (e *Emu) Running() bool {
	return e.running
}

// Err returns the host error that ended the last run, if any.
func (e *Emu) Err() error {
	return e.hostErr
}

func (e *Emu) stop() {
	e.running = false
	if e.cfg.OnExit != nil {
		e.cfg.OnExit(e)
	}
	e.asic.Free()
	slog.Info("Emulation stopped", "frames", e.frames)
}

func (e *Emu) ctx() context.Context {
	if e.loopCtx != nil {
		return e.loopCtx
	}
	return context.Background()
}
