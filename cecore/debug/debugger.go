package debug

import (
	"fmt"

	"github.com/valerio/go-cecore/cecore/events"
)

// Core is the view of the execution core the debugger works against.
type Core interface {
	PC() uint32
	ADL() bool
	SPL() uint32
	SPS() uint16
	Events() *events.Flags
}

// Disassembler computes the address immediately following the one
// instruction located at base.
type Disassembler interface {
	NextAddress(base uint32, adl bool) uint32
}

// Reason says why the core stopped.
type Reason int

const (
	StopBreakpoint Reason = iota
	StopStepIn
	StopStepOver
	StopStepNext
	StopStepOut
	StopRunUntil
	StopRequested
)

func (r Reason) String() string {
	switch r {
	case StopBreakpoint:
		return "breakpoint"
	case StopStepIn:
		return "step-in"
	case StopStepOver:
		return "step-over"
	case StopStepNext:
		return "step-next"
	case StopStepOut:
		return "step-out"
	case StopRunUntil:
		return "run-until"
	case StopRequested:
		return "requested"
	default:
		return "unknown"
	}
}

// Stop describes where and why the core stopped.
type Stop struct {
	Reason Reason
	PC     uint32
	ADL    bool
}

func (s Stop) String() string {
	return fmt.Sprintf("%s at 0x%06X", s.Reason, s.PC)
}

// Debugger is the debug session state. It is written by the stepping
// controller and read by the execution core at every instruction boundary.
type Debugger struct {
	Breakpoints *Breakpoints

	// StepOverMode is the ADL mode captured when stepping was armed;
	// temporary breakpoints only match in that mode.
	StepOverMode      bool
	StepOverInstrEnd  uint32
	StepOverFirstStep bool

	// step-out thresholds for each stack width, one above the register
	// value at arm time. They do not wrap, so a stack already at the top
	// of its width never satisfies them. StepOutWait < 0 disables.
	StepOutSPL  uint32
	StepOutSPS  uint32
	StepOutWait int

	RunUntilAddress uint32

	// Stopped parks the core until a controller operation or Resume.
	Stopped  bool
	LastStop Stop

	// OnStop, if set, is called every time a stop fires.
	OnStop func(Stop)
}

func New() *Debugger {
	return &Debugger{
		Breakpoints: NewBreakpoints(),
		StepOutWait: -1,
	}
}

// ClearTempBreak removes the stepping breakpoint.
func (d *Debugger) ClearTempBreak() {
	d.Breakpoints.ClearTemp()
}

// Resume lets a parked core run again without arming anything.
func (d *Debugger) Resume() {
	d.Stopped = false
}

// Request parks the core at its next instruction boundary.
func (d *Debugger) Request(core Core) {
	d.stop(core, StopRequested)
}

// Reset drops any stepping session and releases a parked core.
// Permanent breakpoints are kept. The stepping event bits live on the
// core and are cleared by the caller.
func (d *Debugger) Reset() {
	d.ClearTempBreak()
	d.StepOverFirstStep = false
	d.StepOutWait = -1
	d.Stopped = false
	d.LastStop = Stop{}
}
