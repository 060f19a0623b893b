//go:build !nodebug

package debug

import (
	"log/slog"

	"github.com/valerio/go-cecore/cecore/events"
)

// Enabled reports whether stepping support is compiled in.
const Enabled = true

type stepper struct {
	dbg  *Debugger
	core Core
	dis  Disassembler
}

// NewController returns the stepping controller driving dbg for core.
func NewController(dbg *Debugger, core Core, dis Disassembler) Controller {
	return &stepper{dbg: dbg, core: core, dis: dis}
}

// armSuccessor places the temporary breakpoint right after the instruction
// at PC, decoded in the current mode, and captures that mode.
func (s *stepper) armSuccessor() {
	d := s.dbg
	d.ClearTempBreak()

	pc, adl := s.core.PC(), s.core.ADL()
	d.StepOverInstrEnd = s.dis.NextAddress(pc, adl)
	d.Breakpoints.SetTemp(d.StepOverInstrEnd)
	d.StepOverMode = adl
}

// clearStepOut disarms any step-out thresholds left by a previous session.
func (s *stepper) clearStepOut() {
	s.dbg.StepOutSPL = 0
	s.dbg.StepOutSPS = 0
	s.dbg.StepOutWait = -1
}

func (s *stepper) begin(ev events.Event) {
	flags := s.core.Events()
	flags.Clear(events.Stepping)
	flags.Set(ev)
	s.dbg.Stopped = false
}

func (s *stepper) StepIn() {
	s.armSuccessor()
	s.dbg.StepOverFirstStep = false
	s.clearStepOut()
	s.begin(events.DebugStep)
	slog.Debug("step in armed", "target", Hex24(s.dbg.StepOverInstrEnd))
}

func (s *stepper) StepNext() {
	s.armSuccessor()
	s.dbg.StepOverFirstStep = true
	s.clearStepOut()
	s.begin(events.DebugStep | events.DebugStepNext)
	slog.Debug("step next armed", "target", Hex24(s.dbg.StepOverInstrEnd))
}

// StepOver does not track call depth: a callee that recurses back through
// the armed address stops there too.
func (s *stepper) StepOver() {
	s.armSuccessor()
	s.dbg.StepOverFirstStep = false
	s.begin(events.DebugStep | events.DebugStepOver)
	slog.Debug("step over armed", "target", Hex24(s.dbg.StepOverInstrEnd))
}

// StepOut fires once the live stack pointer for the current mode has
// risen one unit above its value at arm time.
func (s *stepper) StepOut() {
	d := s.dbg
	d.ClearTempBreak()
	d.StepOverFirstStep = true
	d.StepOutSPL = s.core.SPL() + 1
	d.StepOutSPS = uint32(s.core.SPS()) + 1
	d.StepOutWait = 0
	s.begin(events.DebugStep | events.DebugStepOut)
	slog.Debug("step out armed", "spl", Hex24(d.StepOutSPL), "sps", Hex24(d.StepOutSPS))
}

func (s *stepper) RunUntil(addr uint32) {
	d := s.dbg
	d.ClearTempBreak()
	d.RunUntilAddress = addr
	d.StepOverInstrEnd = addr
	d.Breakpoints.SetTemp(addr)
	d.StepOverMode = s.core.ADL()
	d.StepOverFirstStep = false
	s.begin(0)
	slog.Debug("run until armed", "target", Hex24(addr))
}
