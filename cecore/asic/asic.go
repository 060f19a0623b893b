// Package asic holds the device state of the calculator: memory, the
// execution core, the scheduler and the peripherals, with their lifecycle.
package asic

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/valerio/go-cecore/cecore/cpu"
	"github.com/valerio/go-cecore/cecore/debug"
	"github.com/valerio/go-cecore/cecore/events"
	"github.com/valerio/go-cecore/cecore/memory"
)

// Device is the hardware variant, as reported by the ROM certificate.
type Device uint8

const (
	TI84PCE Device = 0
	TI83PCE Device = 1
)

func (d Device) String() string {
	switch d {
	case TI84PCE:
		return "TI-84 Plus CE"
	case TI83PCE:
		return "TI-83 Premium CE"
	default:
		return fmt.Sprintf("Device(%d)", uint8(d))
	}
}

// ErrNotInitialized is returned by operations that need device state
// before Init has been called.
var ErrNotInitialized = errors.New("device state not initialized")

// ASIC owns all device state. Its fields are nil until Init.
type ASIC struct {
	Mem     *memory.MMU
	CPU     *cpu.CPU
	Sched   *events.Scheduler
	Control *Control
	Timer   *Timer

	device      Device
	dbg         *debug.Debugger
	initialized bool
}

// New returns an ASIC with no device state. dbg is shared with the
// execution core across Init calls and may be nil.
func New(dbg *debug.Debugger) *ASIC {
	return &ASIC{dbg: dbg}
}

// Init allocates fresh device state. Flash and RAM are zeroed. The device
// variant is kept.
func (a *ASIC) Init() {
	if a.initialized {
		a.Free()
	}

	a.Mem = memory.New()
	a.Sched = events.NewScheduler()
	a.Control = &Control{device: a.device}
	a.Timer = newTimer(a.Sched)
	a.Mem.AttachPorts(a.Control, a.Timer)
	a.CPU = cpu.New(a.Mem, a.dbg)
	a.Timer.OnExpire = a.CPU.Wake
	a.initialized = true

	slog.Debug("Device state initialized", "device", a.device)
}

// Initialized reports whether Init has been called since the last Free.
func (a *ASIC) Initialized() bool {
	return a.initialized
}

// Reset reinitializes the core, RAM, peripherals and scheduler clock.
// Flash survives.
func (a *ASIC) Reset() {
	if !a.initialized {
		return
	}
	a.CPU.Reset()
	a.Mem.ResetRAM()
	a.Control.reset()
	a.Timer.reset()
	a.Sched.Reset()
}

// Free releases device state. Safe to call at any time, more than once.
func (a *ASIC) Free() {
	if !a.initialized {
		return
	}
	a.Mem = nil
	a.CPU = nil
	a.Sched = nil
	a.Control = nil
	a.Timer = nil
	a.initialized = false

	slog.Debug("Device state released")
}

// Device returns the hardware variant.
func (a *ASIC) Device() Device {
	return a.device
}

// SetDevice selects the hardware variant.
func (a *ASIC) SetDevice(d Device) {
	a.device = d
	if a.Control != nil {
		a.Control.device = d
	}
}

type header struct {
	Device uint8
	_      [3]uint8
}

// Save writes the device state: variant, core, memory, scheduler and
// peripherals, in that order.
func (a *ASIC) Save(w io.Writer) error {
	if !a.initialized {
		return ErrNotInitialized
	}
	if err := binary.Write(w, binary.LittleEndian, header{Device: uint8(a.device)}); err != nil {
		return fmt.Errorf("failed to save device header: %w", err)
	}
	if err := a.CPU.Save(w); err != nil {
		return err
	}
	if err := a.Mem.Save(w); err != nil {
		return err
	}
	if err := a.Sched.Save(w); err != nil {
		return err
	}
	ports := struct {
		Control controlState
		Timer   timerState
	}{
		Control: controlState{Power: a.Control.power, Scratch: a.Control.scratch},
		Timer:   a.Timer.state(),
	}
	if err := binary.Write(w, binary.LittleEndian, &ports); err != nil {
		return fmt.Errorf("failed to save ports: %w", err)
	}
	return nil
}

// Restore reads state written by Save into initialized device state.
func (a *ASIC) Restore(r io.Reader) error {
	if !a.initialized {
		return ErrNotInitialized
	}

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("failed to restore device header: %w", err)
	}
	if err := a.CPU.Restore(r); err != nil {
		return err
	}
	if err := a.Mem.Restore(r); err != nil {
		return err
	}
	if err := a.Sched.Restore(r); err != nil {
		return err
	}
	var ports struct {
		Control controlState
		Timer   timerState
	}
	if err := binary.Read(r, binary.LittleEndian, &ports); err != nil {
		return fmt.Errorf("failed to restore ports: %w", err)
	}

	a.SetDevice(Device(h.Device))
	a.Control.power = ports.Control.Power
	a.Control.scratch = ports.Control.Scratch
	a.Timer.setState(ports.Timer)
	return nil
}
