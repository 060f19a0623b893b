package events

import (
	"strings"
	"sync/atomic"
)

// Event is a set of signals shared between the execution core, the
// stepping controller and the loop driver.
type Event uint32

const (
	Reset Event = 1 << iota
	DebugStep
	DebugStepOver
	DebugStepOut
	DebugStepNext
)

// Stepping is every bit that marks an active stepping session.
const Stepping = DebugStep | DebugStepOver | DebugStepOut | DebugStepNext

var eventNames = []struct {
	ev   Event
	name string
}{
	{Reset, "Reset"},
	{DebugStep, "DebugStep"},
	{DebugStepOver, "DebugStepOver"},
	{DebugStepOut, "DebugStepOut"},
	{DebugStepNext, "DebugStepNext"},
}

// Union returns the bits set in either e or o.
func (e Event) Union(o Event) Event { return e | o }

// Intersect returns the bits set in both e and o.
func (e Event) Intersect(o Event) Event { return e & o }

// Without returns e with the bits of o cleared.
func (e Event) Without(o Event) Event { return e &^ o }

// Has reports whether any bit of o is set in e.
func (e Event) Has(o Event) bool { return e&o != 0 }

func (e Event) String() string {
	if e == 0 {
		return "None"
	}
	var names []string
	for _, n := range eventNames {
		if e.Has(n.ev) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// Flags holds the shared event set. The zero value is empty and ready to use.
// All methods are safe to call from any goroutine.
type Flags struct {
	bits atomic.Uint32
}

// Load returns the current set.
func (f *Flags) Load() Event {
	return Event(f.bits.Load())
}

// Store replaces the whole set.
func (f *Flags) Store(e Event) {
	f.bits.Store(uint32(e))
}

// Set adds the bits of e.
func (f *Flags) Set(e Event) {
	f.bits.Or(uint32(e))
}

// Clear removes the bits of e.
func (f *Flags) Clear(e Event) {
	f.bits.And(^uint32(e))
}

// Has reports whether any bit of e is currently set.
func (f *Flags) Has(e Event) bool {
	return f.Load().Has(e)
}
