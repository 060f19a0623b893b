package headless

import (
	"log/slog"

	"github.com/valerio/go-cecore/cecore/backend"
	"github.com/valerio/go-cecore/cecore/debug"
)

// Backend implements the Host interface for automated testing and batch processing
type Backend struct {
	config      backend.HostConfig
	frameCount  int
	maxFrames   int
	traceConfig TraceConfig
	quitSent    bool
}

// TraceConfig holds configuration for periodic state logging
type TraceConfig struct {
	Interval int // Log core state every N frames, 0 disables
	// QuitOnStop ends the run when the core parks in the debugger, since
	// nothing can resume it without an interactive host.
	QuitOnStop bool
}

// New returns a headless host. maxFrames <= 0 runs until something else
// asks the emulator to quit.
func New(maxFrames int, traceConfig TraceConfig) *Backend {
	return &Backend{
		maxFrames:   maxFrames,
		traceConfig: traceConfig,
	}
}

func (h *Backend) Init(config backend.HostConfig) error {
	h.config = config
	h.frameCount = 0
	h.quitSent = false

	slog.Info("Running headless mode",
		"frames", h.maxFrames,
		"trace_interval", h.traceConfig.Interval,
		"quit_on_stop", h.traceConfig.QuitOnStop)

	return nil
}

// Pump counts frames, traces state and signals quit when done
func (h *Backend) Pump() error {
	h.frameCount++

	state := h.config.StateProvider

	if state != nil && h.traceConfig.Interval > 0 && h.frameCount%h.traceConfig.Interval == 0 {
		if snap := state.Snapshot(); snap != nil {
			traceState(h.frameCount, snap)
		}
	}

	// Log progress periodically
	if h.frameCount%60 == 0 {
		slog.Debug("Frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	if state != nil && h.traceConfig.QuitOnStop {
		if stop, stopped := state.LastStop(); stopped {
			slog.Info("Core stopped in debugger", "stop", stop.String(), "frames", h.frameCount)
			h.quit()
			return nil
		}
	}

	// Check if we've reached the target frame count
	if h.maxFrames > 0 && h.frameCount >= h.maxFrames {
		slog.Info("Headless execution completed", "frames", h.frameCount)
		h.quit()
	}

	return nil
}

// Frames returns how many times Pump has been called since Init.
func (h *Backend) Frames() int {
	return h.frameCount
}

func (h *Backend) Cleanup() error {
	return nil
}

func (h *Backend) quit() {
	if h.quitSent {
		return
	}
	h.quitSent = true
	h.config.Callbacks.Quit()
}

func traceState(frame int, snap *debug.Snapshot) {
	cpu := snap.CPU
	slog.Info("State",
		"frame", frame,
		"pc", debug.Hex24(cpu.PC),
		"sp", debug.Hex24(cpu.ActiveSP()),
		"mode", cpu.Mode(),
		"a", cpu.A,
		"halted", cpu.Halted,
		"cycles", cpu.Cycles,
		"events", snap.Events)
}
