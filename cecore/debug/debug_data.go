package debug

import (
	"fmt"

	"github.com/valerio/go-cecore/cecore/disasm"
)

// CPUState contains the register information shown by debug displays
type CPUState struct {
	A      uint8
	F      uint8
	PC     uint32
	SPL    uint32
	SPS    uint16
	MB     uint8
	ADL    bool
	Halted bool
	Cycles uint64
}

// DebuggerState represents the current debugger state
type DebuggerState int

const (
	DebuggerRunning DebuggerState = iota
	DebuggerPaused
)

func (s DebuggerState) String() string {
	if s == DebuggerPaused {
		return "PAUSED"
	}
	return "RUNNING"
}

// Snapshot contains all debug information needed by debug displays
type Snapshot struct {
	CPU         CPUState
	State       DebuggerState
	LastStop    *Stop
	Disassembly []disasm.Line
	Events      string
	Device      string
	Frames      uint64
}

// Mode names the addressing mode for display.
func (c CPUState) Mode() string {
	if c.ADL {
		return "ADL"
	}
	return "Z80"
}

// ActiveSP returns the stack pointer in use for the current mode.
func (c CPUState) ActiveSP() uint32 {
	if c.ADL {
		return c.SPL
	}
	return uint32(c.SPS)
}

// Hex24 formats a 24 bit address the way the debugger prints it.
func Hex24(v uint32) string {
	return fmt.Sprintf("0x%06X", v)
}
