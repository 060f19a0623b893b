package memory

import (
	"fmt"
	"io"
	"log/slog"
)

// Sizes and bases of the calculator's address map.
const (
	SizeFlash = 0x400000
	SizeRAM   = 0x65800

	RAMStart     = 0xD00000
	ControlStart = 0xE00000
	TimerStart   = 0xF20000

	portSize = 0x100
)

type memRegion uint8

const (
	regionUnmapped memRegion = iota
	regionFlash
	regionRAM
	regionControl
	regionTimer
)

// Port is a block of memory-mapped peripheral registers.
type Port interface {
	Read(offset uint8) uint8
	Write(offset uint8, value uint8)
}

// MMU allows access to flash, RAM and the memory mapped ports.
type MMU struct {
	Flash []byte
	RAM   []byte

	regionMap [256]memRegion
	control   Port
	timer     Port
}

// New creates a memory unit with zeroed flash and RAM and no ports attached.
func New() *MMU {
	m := &MMU{
		Flash: make([]byte, SizeFlash),
		RAM:   make([]byte, SizeRAM),
	}
	initRegionMap(m)
	return m
}

func initRegionMap(m *MMU) {
	// Flash: 0x000000-0x3FFFFF
	for i := 0x00; i < SizeFlash>>16; i++ {
		m.regionMap[i] = regionFlash
	}
	// RAM: 0xD00000-0xD657FF, bounds checked on access
	for i := RAMStart >> 16; i <= (RAMStart+SizeRAM-1)>>16; i++ {
		m.regionMap[i] = regionRAM
	}
	m.regionMap[ControlStart>>16] = regionControl
	m.regionMap[TimerStart>>16] = regionTimer
}

// AttachPorts connects the peripheral register blocks.
func (m *MMU) AttachPorts(control, timer Port) {
	m.control = control
	m.timer = timer
}

func portOffset(addr uint32) (uint8, bool) {
	off := addr & 0xFFFF
	return uint8(off), off < portSize
}

// Read reads a byte from a 24 bit address. Unmapped addresses read as zero.
func (m *MMU) Read(addr uint32) uint8 {
	addr &= 0xFFFFFF
	switch m.regionMap[addr>>16] {
	case regionFlash:
		return m.Flash[addr]
	case regionRAM:
		if off := addr - RAMStart; off < SizeRAM {
			return m.RAM[off]
		}
	case regionControl:
		if off, ok := portOffset(addr); ok && m.control != nil {
			return m.control.Read(off)
		}
	case regionTimer:
		if off, ok := portOffset(addr); ok && m.timer != nil {
			return m.timer.Read(off)
		}
	}
	return 0x00
}

// Write writes a byte to a 24 bit address. Flash is not writable from the
// CPU side; such writes are dropped.
func (m *MMU) Write(addr uint32, value uint8) {
	addr &= 0xFFFFFF
	switch m.regionMap[addr>>16] {
	case regionFlash:
		slog.Debug("Ignored write to flash", "addr", fmt.Sprintf("0x%06X", addr), "value", fmt.Sprintf("0x%02X", value))
	case regionRAM:
		if off := addr - RAMStart; off < SizeRAM {
			m.RAM[off] = value
		}
	case regionControl:
		if off, ok := portOffset(addr); ok && m.control != nil {
			m.control.Write(off, value)
		}
	case regionTimer:
		if off, ok := portOffset(addr); ok && m.timer != nil {
			m.timer.Write(off, value)
		}
	}
}

// ResetRAM clears RAM. Flash contents survive a reset.
func (m *MMU) ResetRAM() {
	clear(m.RAM)
}

// Save writes flash then RAM.
func (m *MMU) Save(w io.Writer) error {
	if _, err := w.Write(m.Flash); err != nil {
		return fmt.Errorf("failed to save flash: %w", err)
	}
	if _, err := w.Write(m.RAM); err != nil {
		return fmt.Errorf("failed to save ram: %w", err)
	}
	return nil
}

// Restore reads state written by Save.
func (m *MMU) Restore(r io.Reader) error {
	if _, err := io.ReadFull(r, m.Flash); err != nil {
		return fmt.Errorf("failed to restore flash: %w", err)
	}
	if _, err := io.ReadFull(r, m.RAM); err != nil {
		return fmt.Errorf("failed to restore ram: %w", err)
	}
	return nil
}
