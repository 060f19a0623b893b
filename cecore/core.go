package cecore

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/valerio/go-cecore/cecore/asic"
	"github.com/valerio/go-cecore/cecore/cpu"
	"github.com/valerio/go-cecore/cecore/debug"
	"github.com/valerio/go-cecore/cecore/disasm"
	"github.com/valerio/go-cecore/cecore/events"
	"github.com/valerio/go-cecore/cecore/input/action"
)

// ErrNotLoaded is returned when an operation needs device state and
// neither a ROM nor an image has been loaded.
var ErrNotLoaded = errors.New("no ROM or image loaded")

// disassemblyLines is how many instructions Snapshot decodes from PC.
const disassemblyLines = 12

// Emu represents the root struct and entry point for running the emulation
type Emu struct {
	asic *asic.ASIC
	dbg  *debug.Debugger
	cfg  Config

	exiting atomic.Bool
	running bool
	loopCtx context.Context

	// frameDone is set by the throttle item during the current iteration.
	frameDone bool
	frames    uint64
	hostErr   error
}

// New creates an emulator with no device state loaded.
func New(cfg Config) *Emu {
	dbg := debug.New()
	return &Emu{
		asic: asic.New(dbg),
		dbg:  dbg,
		cfg:  cfg.withDefaults(),
	}
}

// initDevice allocates fresh device state and arms the throttle item.
func (e *Emu) initDevice() {
	e.asic.Init()
	e.frames = 0
	e.asic.Sched.Register(events.ItemThrottle, "throttle", e.throttle)
	e.scheduleThrottle()
}

func (e *Emu) scheduleThrottle() {
	e.asic.Sched.Schedule(events.ItemThrottle, e.cfg.ThrottleInterval)
}

// Loaded reports whether device state is present.
func (e *Emu) Loaded() bool {
	return e.asic.Initialized()
}

// ASIC exposes the device state.
func (e *Emu) ASIC() *asic.ASIC {
	return e.asic
}

// CPU returns the execution core, nil when nothing is loaded.
func (e *Emu) CPU() *cpu.CPU {
	return e.asic.CPU
}

// Debugger returns the debug session state. It outlives reloads.
func (e *Emu) Debugger() *debug.Debugger {
	return e.dbg
}

// Device returns the current hardware variant.
func (e *Emu) Device() asic.Device {
	return e.asic.Device()
}

// Frames returns the number of throttle ticks since the last load.
func (e *Emu) Frames() uint64 {
	return e.frames
}

// Controller returns the stepping controller bound to the current core.
func (e *Emu) Controller() (debug.Controller, error) {
	if !e.Loaded() {
		return nil, ErrNotLoaded
	}
	return debug.NewController(e.dbg, e.asic.CPU, disasm.New(e.asic.Mem)), nil
}

// Pause parks the core at its next instruction boundary.
func (e *Emu) Pause() {
	if e.Loaded() {
		e.dbg.Request(e.asic.CPU)
	}
}

// Resume lets a parked core run freely.
func (e *Emu) Resume() {
	e.dbg.Resume()
}

// Paused reports whether the core is parked in the debugger.
func (e *Emu) Paused() bool {
	return e.dbg.Stopped
}

// LastStop reports where the core is parked, if it is.
func (e *Emu) LastStop() (debug.Stop, bool) {
	return e.dbg.LastStop, e.dbg.Stopped
}

// RequestReset asks the loop to reset the device at the top of its next
// iteration. Safe to call from any goroutine.
func (e *Emu) RequestReset() {
	if c := e.asic.CPU; c != nil {
		c.Events().Set(events.Reset)
	}
}

// HandleAction applies a debugger action coming from a host.
func (e *Emu) HandleAction(act action.Action) {
	switch act {
	case action.EmulatorQuit:
		e.Exit()
		return
	case action.EmulatorReset:
		e.RequestReset()
		return
	case action.EmulatorPauseToggle:
		if e.Paused() {
			e.Resume()
		} else {
			e.Pause()
		}
		return
	}

	ctl, err := e.Controller()
	if err != nil {
		slog.Warn("Ignored debugger action", "action", act, "error", err)
		return
	}

	switch act {
	case action.DebugStepIn:
		ctl.StepIn()
	case action.DebugStepOver:
		ctl.StepOver()
	case action.DebugStepNext:
		ctl.StepNext()
	case action.DebugStepOut:
		ctl.StepOut()
	default:
		slog.Debug("Unhandled action", "action", act)
	}
}

// Snapshot collects the state shown by debug displays. Returns nil when
// nothing is loaded.
func (e *Emu) Snapshot() *debug.Snapshot {
	c := e.asic.CPU
	if c == nil {
		return nil
	}

	s := &debug.Snapshot{
		CPU:         c.State(),
		State:       debug.DebuggerRunning,
		Disassembly: disasm.DisassembleRange(e.asic.Mem, c.PC(), disassemblyLines, c.ADL()),
		Events:      c.Events().Load().String(),
		Device:      e.asic.Device().String(),
		Frames:      e.frames,
	}
	if e.dbg.Stopped {
		s.State = debug.DebuggerPaused
		stop := e.dbg.LastStop
		s.LastStop = &stop
	}
	return s
}
