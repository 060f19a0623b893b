package cpu

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/valerio/go-cecore/cecore/bit"
	"github.com/valerio/go-cecore/cecore/debug"
	"github.com/valerio/go-cecore/cecore/events"
)

// Bus provides the memory view the CPU executes against.
type Bus interface {
	Read(addr uint32) uint8
	Write(addr uint32, value uint8)
}

// Flag is the bit index of one of the flags held in F.
type Flag uint8

const (
	zeroFlag Flag = 6
)

const haltCycles = 4

// CPU is a reference eZ80 core. It covers the register state the debugger
// observes and a small instruction set, enough to drive stepping and
// scheduling end to end. It is not cycle accurate.
type CPU struct {
	// registers
	a   uint8
	f   uint8
	pc  uint32
	spl uint32
	sps uint16
	mb  uint8
	adl bool

	// metadata
	currentOpcode uint16
	halted        bool
	cycles        uint64

	events events.Flags

	bus Bus
	dbg *debug.Debugger
}

// New returns a CPU in its reset state. dbg may be nil, in which case no
// instruction boundary checks are made.
func New(bus Bus, dbg *debug.Debugger) *CPU {
	c := &CPU{bus: bus, dbg: dbg}
	c.Reset()
	return c
}

// Reset puts every register back to zero, in Z80 mode.
func (c *CPU) Reset() {
	c.a, c.f = 0, 0
	c.pc, c.spl, c.sps = 0, 0, 0
	c.mb = 0
	c.adl = false
	c.halted = false
	c.cycles = 0
	c.currentOpcode = 0
}

// Execute runs the boundary check, then at most one instruction.
// Returns the amount of cycles that execution has taken; zero when the
// debugger holds the core.
func (c *CPU) Execute() int {
	if c.dbg != nil {
		if _, stopped := c.dbg.Check(c); stopped {
			return 0
		}
	}

	if c.halted {
		c.cycles += haltCycles
		return haltCycles
	}

	instruction := Decode(c)
	cycles := instruction(c)
	c.cycles += uint64(cycles)
	return cycles
}

// Idle reports whether running Execute would make no progress: the core
// is halted or parked by the debugger.
func (c *CPU) Idle() bool {
	return c.halted || (c.dbg != nil && c.dbg.Stopped)
}

// Wake releases a HALT.
func (c *CPU) Wake() {
	c.halted = false
}

// address resolves a 16 or 24 bit operand to a bus address for the
// current mode.
func (c *CPU) address(nn uint32) uint32 {
	if c.adl {
		return nn & bit.Mask24
	}
	return uint32(c.mb)<<16 | nn&0xFFFF
}

// advance returns the PC moved forward by n in the current mode.
func (c *CPU) advance(n int) uint32 {
	if c.adl {
		return (c.pc + uint32(n)) & bit.Mask24
	}
	return c.pc&0xFF0000 | (c.pc+uint32(n))&0xFFFF
}

// readImmediate returns the byte at PC and moves PC past it.
func (c *CPU) readImmediate() uint8 {
	n := c.bus.Read(c.pc)
	c.pc = c.advance(1)
	return n
}

// readImmediateWord reads a mode-sized operand: 3 bytes in ADL mode,
// 2 bytes in Z80 mode.
func (c *CPU) readImmediateWord() uint32 {
	if c.adl {
		return c.readImmediate24()
	}
	return uint32(c.readImmediate16())
}

func (c *CPU) readImmediate16() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

func (c *CPU) readImmediate24() uint32 {
	low := c.readImmediate()
	high := c.readImmediate()
	upper := c.readImmediate()
	return bit.Combine24(upper, high, low)
}

func (c *CPU) setFlag(flag Flag) {
	c.f = bit.Set(uint8(flag), c.f)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f = bit.Clear(uint8(flag), c.f)
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return bit.IsSet(uint8(flag), c.f)
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if !condition {
		c.resetFlag(flag)
		return
	}

	c.setFlag(flag)
}

// Register getters, these also make CPU a debug.Core.
func (c *CPU) A() uint8 { return c.a }
func (c *CPU) F() uint8 { return c.f }
func (c *CPU) PC() uint32 { return c.pc }
func (c *CPU) SPL() uint32 { return c.spl }
func (c *CPU) SPS() uint16 { return c.sps }
func (c *CPU) MB() uint8 { return c.mb }
func (c *CPU) ADL() bool { return c.adl }
func (c *CPU) Halted() bool { return c.halted }
func (c *CPU) Cycles() uint64 { return c.cycles }
func (c *CPU) Events() *events.Flags { return &c.events }
func (c *CPU) Debugger() *debug.Debugger { return c.dbg }

// Register setters, used by hosts and scripts.
func (c *CPU) SetA(v uint8)    { c.a = v }
func (c *CPU) SetF(v uint8)    { c.f = v }
func (c *CPU) SetPC(v uint32)  { c.pc = v & bit.Mask24 }
func (c *CPU) SetSPL(v uint32) { c.spl = v & bit.Mask24 }
func (c *CPU) SetSPS(v uint16) { c.sps = v }
func (c *CPU) SetMB(v uint8)   { c.mb = v }
func (c *CPU) SetADL(v bool)   { c.adl = v }

// State returns the register view used by debug displays.
func (c *CPU) State() debug.CPUState {
	return debug.CPUState{
		A:      c.a,
		F:      c.f,
		PC:     c.pc,
		SPL:    c.spl,
		SPS:    c.sps,
		MB:     c.mb,
		ADL:    c.adl,
		Halted: c.halted,
		Cycles: c.cycles,
	}
}

// GetFlagString returns a human-readable representation of the flag register
func (c *CPU) GetFlagString() string {
	if c.isSetFlag(zeroFlag) {
		return "Z"
	}
	return "-"
}

type state struct {
	A, F   uint8
	MB     uint8
	ADL    uint8
	Halted uint8
	_      [3]uint8
	PC     uint32
	SPL    uint32
	SPS    uint16
	_      [6]uint8
	Cycles uint64
	Events uint32
	_      [4]uint8
}

// Save writes the register file and the event flags.
func (c *CPU) Save(w io.Writer) error {
	s := state{
		A:      c.a,
		F:      c.f,
		MB:     c.mb,
		ADL:    boolByte(c.adl),
		Halted: boolByte(c.halted),
		PC:     c.pc,
		SPL:    c.spl,
		SPS:    c.sps,
		Cycles: c.cycles,
		Events: uint32(c.events.Load()),
	}
	if err := binary.Write(w, binary.LittleEndian, &s); err != nil {
		return fmt.Errorf("failed to save cpu state: %w", err)
	}
	return nil
}

// Restore reads state written by Save.
func (c *CPU) Restore(r io.Reader) error {
	var s state
	if err := binary.Read(r, binary.LittleEndian, &s); err != nil {
		return fmt.Errorf("failed to restore cpu state: %w", err)
	}
	c.a, c.f, c.mb = s.A, s.F, s.MB
	c.adl = s.ADL != 0
	c.halted = s.Halted != 0
	c.pc = s.PC & bit.Mask24
	c.spl = s.SPL & bit.Mask24
	c.sps = s.SPS
	c.cycles = s.Cycles
	c.events.Store(events.Event(s.Events))
	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
