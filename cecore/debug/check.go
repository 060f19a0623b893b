package debug

import (
	"log/slog"

	"github.com/valerio/go-cecore/cecore/events"
)

// Check is evaluated by the execution core before fetching each
// instruction. It reports whether the core must stop here, and why.
//
// The order matters. The first boundary after a step was armed is skipped
// entirely so the instruction under PC can execute; after that, a temporary
// breakpoint hit in the armed mode wins over a step-out threshold, which
// in turn wins over a permanent breakpoint.
func (d *Debugger) Check(core Core) (Stop, bool) {
	if d.Stopped {
		return d.LastStop, true
	}

	if d.StepOverFirstStep {
		d.StepOverFirstStep = false
		return Stop{}, false
	}

	pc := core.PC()
	flags := d.Breakpoints.Get(pc)
	ev := core.Events()

	if flags&TempExec != 0 && core.ADL() == d.StepOverMode {
		return d.stop(core, tempReason(ev.Load())), true
	}

	if ev.Has(events.DebugStepOut) && d.StepOutWait >= 0 && d.stepOutReached(core) {
		return d.stop(core, StopStepOut), true
	}

	if flags&Exec != 0 {
		return d.stop(core, StopBreakpoint), true
	}

	return Stop{}, false
}

// tempReason derives the stop reason from the stepping bits that were
// armed together with the temporary breakpoint.
func tempReason(ev events.Event) Reason {
	switch {
	case ev.Has(events.DebugStepNext):
		return StopStepNext
	case ev.Has(events.DebugStepOver):
		return StopStepOver
	case ev.Has(events.DebugStep):
		return StopStepIn
	default:
		return StopRunUntil
	}
}

// stepOutReached compares the live stack pointer for the current mode
// against the threshold captured for that width.
func (d *Debugger) stepOutReached(core Core) bool {
	if core.ADL() {
		return core.SPL() >= d.StepOutSPL
	}
	return uint32(core.SPS()) >= d.StepOutSPS
}

func (d *Debugger) stop(core Core, reason Reason) Stop {
	d.ClearTempBreak()
	core.Events().Clear(events.Stepping)
	d.StepOutWait = -1
	d.StepOverFirstStep = false

	s := Stop{Reason: reason, PC: core.PC(), ADL: core.ADL()}
	d.Stopped = true
	d.LastStop = s

	slog.Debug("execution stopped", "reason", reason.String(), "pc", Hex24(s.PC), "adl", s.ADL)

	if d.OnStop != nil {
		d.OnStop(s)
	}
	return s
}
