package backend

import (
	"github.com/valerio/go-cecore/cecore/debug"
	"github.com/valerio/go-cecore/cecore/input"
)

// Host represents the platform the emulator runs on (terminal, headless).
// Hosts are responsible for:
// - Translating platform-specific input events to Actions via InputManager
// - Presenting the debugger state to the user
// - Handling host-specific features (log capture, frame limits)
type Host interface {
	// Init configures the host with the provided configuration.
	// This is a required step before calling Pump.
	Init(config HostConfig) error

	// Pump is called once per throttle tick, between two instructions.
	// Hosts should:
	// 1. Drain pending platform events without blocking
	// 2. Translate events to Actions and call InputManager.Trigger()
	// 3. Present the current state
	Pump() error

	// Cleanup resources when shutting down
	Cleanup() error
}

// StateProvider gives hosts read access to the debugger view of the core.
type StateProvider interface {
	// Snapshot collects the full debugger view; nil when nothing is loaded.
	Snapshot() *debug.Snapshot
	// LastStop reports where the core is parked, if it is.
	LastStop() (debug.Stop, bool)
}

// HostConfig holds configuration for hosts
type HostConfig struct {
	Title         string
	Callbacks     HostCallbacks  // Callbacks for host communication
	InputManager  *input.Manager // Shared input manager for unified input handling
	StateProvider StateProvider  // Hosts may ignore it
}

// HostCallbacks allows hosts to communicate with the emulator
type HostCallbacks struct {
	// Control callbacks
	OnQuit func() // Host requests shutdown (e.g., quit key, frame limit)

	// Debug callbacks (optional)
	OnDebugMessage func(message string) // Host can send debug info to emulator
}

// Quit invokes OnQuit if set.
func (c HostCallbacks) Quit() {
	if c.OnQuit != nil {
		c.OnQuit()
	}
}
