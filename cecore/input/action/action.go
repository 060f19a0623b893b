package action

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// Debugger controls
	DebugStepIn Action = iota
	DebugStepOver
	DebugStepNext
	DebugStepOut
	DebugLogLevelIncrease
	DebugLogLevelDecrease

	// Emulator features
	EmulatorPauseToggle
	EmulatorReset
	EmulatorQuit
)

var names = map[Action]string{
	DebugStepIn:           "step-in",
	DebugStepOver:         "step-over",
	DebugStepNext:         "step-next",
	DebugStepOut:          "step-out",
	DebugLogLevelIncrease: "log-level-increase",
	DebugLogLevelDecrease: "log-level-decrease",
	EmulatorPauseToggle:   "pause-toggle",
	EmulatorReset:         "reset",
	EmulatorQuit:          "quit",
}

func (a Action) String() string {
	if n, ok := names[a]; ok {
		return n
	}
	return "unknown"
}
