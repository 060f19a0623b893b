package input

import (
	"time"

	"github.com/valerio/go-cecore/cecore/input/action"
)

const (
	// debounceDuration is the minimum time between two triggers of the
	// same debounced action
	debounceDuration = 150 * time.Millisecond
)

// debounced lists actions that must not repeat while a key is held.
// Stepping keys are left out so that holding them keeps stepping.
var debounced = map[action.Action]bool{
	action.EmulatorPauseToggle: true,
	action.EmulatorReset:       true,
	action.EmulatorQuit:        true,
}

// Manager handles input actions and their associated callbacks
type Manager struct {
	handlers      map[action.Action][]func()
	lastTriggered map[action.Action]time.Time
	now           func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		handlers:      make(map[action.Action][]func()),
		lastTriggered: make(map[action.Action]time.Time),
		now:           time.Now,
	}
}

// On registers a callback for a specific action
func (m *Manager) On(act action.Action, callback func()) {
	m.handlers[act] = append(m.handlers[act], callback)
}

// Trigger runs the callbacks of the given action. Returns false when the
// action was debounced or has no callbacks.
func (m *Manager) Trigger(act action.Action) bool {
	if debounced[act] {
		now := m.now()
		if now.Sub(m.lastTriggered[act]) < debounceDuration {
			return false
		}
		m.lastTriggered[act] = now
	}

	callbacks := m.handlers[act]
	for _, callback := range callbacks {
		callback()
	}
	return len(callbacks) > 0
}
