package events

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
)

// ItemID identifies a scheduled item. The set of items is fixed so that
// their state can be saved and restored by position.
type ItemID int

const (
	ItemThrottle ItemID = iota
	ItemTimer

	NumItems
)

// Callback is invoked when an item becomes due. The item is already
// inactive at that point; call Repeat or Schedule to re-arm it.
type Callback func(id ItemID)

type item struct {
	name     string
	due      uint64
	active   bool
	callback Callback
}

// Scheduler dispatches one-shot and periodic items against a cycle clock
// that the loop advances after every executed instruction.
type Scheduler struct {
	items     [NumItems]item
	clock     uint64
	processed uint64
}

// NewScheduler creates a scheduler with no registered items and the clock at zero.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Register binds a callback to an item slot.
func (s *Scheduler) Register(id ItemID, name string, cb Callback) {
	s.items[id].name = name
	s.items[id].callback = cb
}

// Schedule arms an item to fire delay cycles from now.
func (s *Scheduler) Schedule(id ItemID, delay uint64) {
	it := &s.items[id]
	it.due = s.clock + delay
	it.active = true
}

// Repeat re-arms an item interval cycles after its previous due time, so
// periodic items keep a fixed cadence regardless of dispatch latency.
func (s *Scheduler) Repeat(id ItemID, interval uint64) {
	if interval == 0 {
		interval = 1
	}
	it := &s.items[id]
	it.due += interval
	it.active = true
}

// Cancel disarms an item.
func (s *Scheduler) Cancel(id ItemID) {
	s.items[id].active = false
}

// Active reports whether an item is armed.
func (s *Scheduler) Active(id ItemID) bool {
	return s.items[id].active
}

// Due returns the absolute cycle at which an item fires.
func (s *Scheduler) Due(id ItemID) uint64 {
	return s.items[id].due
}

// Clock returns the current cycle count.
func (s *Scheduler) Clock() uint64 {
	return s.clock
}

// Processed returns how many items have fired since the last Reset.
func (s *Scheduler) Processed() uint64 {
	return s.processed
}

// Advance moves the clock forward.
func (s *Scheduler) Advance(cycles uint64) {
	s.clock += cycles
}

// Next returns the earliest due time among armed items.
func (s *Scheduler) Next() (ItemID, uint64, bool) {
	found := false
	var next ItemID
	var due uint64
	for i := range s.items {
		it := &s.items[i]
		if !it.active {
			continue
		}
		if !found || it.due < due {
			found = true
			next = ItemID(i)
			due = it.due
		}
	}
	return next, due, found
}

// SkipToNext moves the clock to the earliest due item, if it lies ahead.
// Used while the core is idle so that time still passes.
func (s *Scheduler) SkipToNext() {
	if _, due, ok := s.Next(); ok && due > s.clock {
		s.clock = due
	}
}

// ProcessPending fires every armed item whose due time has elapsed, in due
// order. Items re-armed by their callback fire again if still due.
// Returns the number of items fired.
func (s *Scheduler) ProcessPending() int {
	fired := 0
	for {
		id, due, ok := s.Next()
		if !ok || due > s.clock {
			return fired
		}

		it := &s.items[id]
		it.active = false
		fired++
		s.processed++

		if it.callback == nil {
			slog.Warn("Scheduled item has no callback", "item", it.name, "id", id)
			continue
		}
		it.callback(id)
	}
}

// Reset zeroes the clock and disarms all items. Registrations are kept.
func (s *Scheduler) Reset() {
	s.clock = 0
	s.processed = 0
	for i := range s.items {
		s.items[i].active = false
		s.items[i].due = 0
	}
}

type itemState struct {
	Active uint8
	_      [7]uint8
	Due    uint64
}

// Save writes the clock and the state of every item slot.
func (s *Scheduler) Save(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, s.clock); err != nil {
		return fmt.Errorf("failed to save scheduler clock: %w", err)
	}
	for i := range s.items {
		st := itemState{Due: s.items[i].due}
		if s.items[i].active {
			st.Active = 1
		}
		if err := binary.Write(w, binary.LittleEndian, &st); err != nil {
			return fmt.Errorf("failed to save scheduler item %d: %w", i, err)
		}
	}
	return nil
}

// Restore reads state written by Save. Callbacks registered on this
// scheduler are kept.
func (s *Scheduler) Restore(r io.Reader) error {
	var clock uint64
	if err := binary.Read(r, binary.LittleEndian, &clock); err != nil {
		return fmt.Errorf("failed to restore scheduler clock: %w", err)
	}
	var states [NumItems]itemState
	for i := range states {
		if err := binary.Read(r, binary.LittleEndian, &states[i]); err != nil {
			return fmt.Errorf("failed to restore scheduler item %d: %w", i, err)
		}
	}

	s.clock = clock
	for i, st := range states {
		s.items[i].active = st.Active != 0
		s.items[i].due = st.Due
	}
	return nil
}
