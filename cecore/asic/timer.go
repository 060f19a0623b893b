package asic

import (
	"github.com/valerio/go-cecore/cecore/bit"
	"github.com/valerio/go-cecore/cecore/events"
)

// Timer port offsets.
const (
	timerReload  = 0x00 // 3 bytes, little endian
	timerControl = 0x04
	timerExpired = 0x08

	timerEnable   = 0
	timerPeriodic = 1
)

// Timer is a general purpose countdown driven by the scheduler. When it
// expires it bumps the expiry counter and calls OnExpire, which the ASIC
// uses to wake a halted core.
type Timer struct {
	reload  uint32
	control uint8
	expired uint8

	sched *events.Scheduler

	// OnExpire is called every time the countdown reaches zero.
	OnExpire func()
}

func newTimer(sched *events.Scheduler) *Timer {
	t := &Timer{sched: sched}
	sched.Register(events.ItemTimer, "timer", t.fire)
	return t
}

func (t *Timer) Read(offset uint8) uint8 {
	switch offset {
	case timerReload:
		return bit.Low(t.reload)
	case timerReload + 1:
		return bit.High(t.reload)
	case timerReload + 2:
		return bit.Upper(t.reload)
	case timerControl:
		return t.control
	case timerExpired:
		return t.expired
	}
	return 0
}

func (t *Timer) Write(offset uint8, value uint8) {
	switch offset {
	case timerReload:
		t.reload = t.reload&0xFFFF00 | uint32(value)
	case timerReload + 1:
		t.reload = t.reload&0xFF00FF | uint32(value)<<8
	case timerReload + 2:
		t.reload = t.reload&0x00FFFF | uint32(value)<<16
	case timerControl:
		t.control = value & 0x03
		t.arm()
	case timerExpired:
		t.expired = 0
	}
}

// arm (re)starts the countdown from the reload value, or stops it when
// the timer is disabled.
func (t *Timer) arm() {
	if !bit.IsSet(timerEnable, t.control) || t.reload == 0 {
		t.sched.Cancel(events.ItemTimer)
		return
	}
	t.sched.Schedule(events.ItemTimer, uint64(t.reload))
}

func (t *Timer) fire(events.ItemID) {
	t.expired++
	if bit.IsSet(timerPeriodic, t.control) {
		t.sched.Repeat(events.ItemTimer, uint64(t.reload))
	} else {
		t.control = bit.Clear(timerEnable, t.control)
	}
	if t.OnExpire != nil {
		t.OnExpire()
	}
}

func (t *Timer) reset() {
	t.reload = 0
	t.control = 0
	t.expired = 0
	t.sched.Cancel(events.ItemTimer)
}

type timerState struct {
	Reload  uint32
	Control uint8
	Expired uint8
	_       [2]uint8
}

func (t *Timer) state() timerState {
	return timerState{Reload: t.reload, Control: t.control, Expired: t.expired}
}

// setState restores registers only; the scheduler item is restored with
// the scheduler.
func (t *Timer) setState(s timerState) {
	t.reload = s.Reload & bit.Mask24
	t.control = s.Control
	t.expired = s.Expired
}
