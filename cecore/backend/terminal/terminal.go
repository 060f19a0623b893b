package terminal

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-cecore/cecore/backend"
	"github.com/valerio/go-cecore/cecore/backend/terminal/render"
	"github.com/valerio/go-cecore/cecore/debug"
	"github.com/valerio/go-cecore/cecore/disasm"
	"github.com/valerio/go-cecore/cecore/input"
	"github.com/valerio/go-cecore/cecore/input/action"
)

const (
	leftPanelWidth = 40
	registerHeight = 9
	disasmHeight   = 12
	minTermWidth   = 80
	minTermHeight  = 24
	logCapacity    = 200
)

const helpLine = "i:step in  o:step over  n:step next  u:step out  space:pause  r:reset  +/-:log level  q:quit"

// Backend implements the Host interface using tcell for terminal rendering
type Backend struct {
	screen    tcell.Screen
	logBuffer *render.LogBuffer
	logLevel  slog.Level // minimum level shown in the log pane
	config    backend.HostConfig
}

// New creates a new terminal backend on the process terminal
func New() *Backend {
	return &Backend{logLevel: slog.LevelInfo}
}

// NewWithScreen creates a terminal backend drawing on an existing screen,
// such as a tcell simulation screen.
func NewWithScreen(screen tcell.Screen) *Backend {
	b := New()
	b.screen = screen
	return b
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.HostConfig) error {
	t.config = config

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	// Capture every log record; the pane filters on display
	t.logBuffer = render.NewLogBuffer(logCapacity)
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, slog.LevelDebug)))
	slog.Info("Terminal backend initialized")

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()
	return nil
}

// Pump drains pending terminal events and redraws the debugger view
func (t *Backend) Pump() error {
	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	t.render()
	t.screen.Show()
	return nil
}

// Cleanup cleans up terminal resources
func (t *Backend) Cleanup() error {
	if t.screen != nil {
		slog.Info("Cleaning up terminal backend")
		t.screen.Fini()
	}
	return nil
}

// Logs returns the captured log buffer, nil before Init.
func (t *Backend) Logs() *render.LogBuffer {
	return t.logBuffer
}

// tcellKeyNameMap converts tcell keys to key names used in default mappings
var tcellKeyNameMap = map[tcell.Key]string{
	tcell.KeyEscape: "Escape",
	tcell.KeyF7:     "F7",
	tcell.KeyF8:     "F8",
}

func keyName(ev *tcell.EventKey) (string, bool) {
	if ev.Key() == tcell.KeyRune {
		if ev.Rune() == ' ' {
			return "Space", true
		}
		return string(ev.Rune()), true
	}
	name, ok := tcellKeyNameMap[ev.Key()]
	return name, ok
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC {
		t.config.Callbacks.Quit()
		return
	}

	name, ok := keyName(ev)
	if !ok {
		return
	}
	act, ok := input.GetDefaultMapping(name)
	if !ok {
		return
	}
	slog.Debug("Key event", "key", name, "action", act)

	switch act {
	case action.DebugLogLevelIncrease:
		t.changeLogLevel(1)
	case action.DebugLogLevelDecrease:
		t.changeLogLevel(-1)
	case action.EmulatorQuit:
		t.config.Callbacks.Quit()
	default:
		if t.config.InputManager != nil {
			t.config.InputManager.Trigger(act)
		}
	}
}

// changeLogLevel moves the log pane filter; +1 shows more, -1 shows less
func (t *Backend) changeLogLevel(direction int) {
	levels := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	idx := 0
	for i, lvl := range levels {
		if lvl == t.logLevel {
			idx = i
		}
	}

	idx -= direction
	if idx < 0 || idx >= len(levels) {
		return
	}

	oldLevel := t.logLevel
	t.logLevel = levels[idx]
	slog.Info("Log filter changed", "from", oldLevel, "to", t.logLevel)
}

func (t *Backend) render() {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	var snap *debug.Snapshot
	if t.config.StateProvider != nil {
		snap = t.config.StateProvider.Snapshot()
	}

	t.drawBorders(termWidth, termHeight)
	t.drawRegisters(snap, 1, 1)
	t.drawDisassembly(snap, 1, registerHeight+2)
	t.drawLogs(leftPanelWidth+2, 1, termWidth-leftPanelWidth-3, termHeight-3)
	t.drawText(1, termHeight-1, termWidth-2, helpLine, tcell.StyleDefault.Foreground(tcell.ColorGray))
}

func (t *Backend) drawBorders(termWidth, termHeight int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	for y := 1; y < termHeight-1; y++ {
		t.screen.SetContent(leftPanelWidth+1, y, '│', nil, borderStyle)
	}
	for x := 0; x <= leftPanelWidth; x++ {
		t.screen.SetContent(x, registerHeight+1, '─', nil, borderStyle)
	}
	t.screen.SetContent(leftPanelWidth+1, registerHeight+1, '┤', nil, borderStyle)

	title := " cecore "
	if t.config.Title != "" {
		title = fmt.Sprintf(" cecore - %s ", t.config.Title)
	}
	t.drawText(1, 0, termWidth-2, title, titleStyle)
	t.drawText(leftPanelWidth+3, 0, termWidth-leftPanelWidth-4, " Logs ", titleStyle)
}

func (t *Backend) drawRegisters(snap *debug.Snapshot, startX, startY int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	if snap == nil {
		t.drawText(startX, startY, leftPanelWidth, "No ROM loaded", style)
		return
	}

	cpu := snap.CPU
	status := snap.State.String()
	if snap.LastStop != nil {
		status = fmt.Sprintf("%s (%s)", status, snap.LastStop)
	}
	halted := "no"
	if cpu.Halted {
		halted = "yes"
	}

	lines := []string{
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Device: %s", snap.Device),
		fmt.Sprintf("A: 0x%02X  F: 0x%02X  MB: 0x%02X", cpu.A, cpu.F, cpu.MB),
		fmt.Sprintf("PC: %s  Mode: %s", debug.Hex24(cpu.PC), cpu.Mode()),
		fmt.Sprintf("SPL: %s  SPS: 0x%04X", debug.Hex24(cpu.SPL), cpu.SPS),
		fmt.Sprintf("Halted: %s", halted),
		fmt.Sprintf("Events: %s", snap.Events),
		fmt.Sprintf("Cycles: %d", cpu.Cycles),
		fmt.Sprintf("Frames: %d", snap.Frames),
	}

	for i, line := range lines {
		if i >= registerHeight {
			break
		}
		t.drawText(startX, startY+i, leftPanelWidth-1, line, style)
	}
}

func (t *Backend) drawDisassembly(snap *debug.Snapshot, startX, startY int) {
	if snap == nil {
		return
	}

	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	currentStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)

	for i, line := range snap.Disassembly {
		if i >= disasmHeight {
			break
		}
		isCurrent := line.Address == snap.CPU.PC
		useStyle := style
		if isCurrent {
			useStyle = currentStyle
		}
		t.drawText(startX, startY+i, leftPanelWidth-1, disasm.FormatLine(line, isCurrent), useStyle)
	}
}

func (t *Backend) drawLogs(startX, startY, width, height int) {
	if width <= 0 || height <= 0 || t.logBuffer == nil {
		return
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	for i, entry := range t.logBuffer.Recent(height, t.logLevel) {
		style := infoStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = errStyle
		case entry.Level >= slog.LevelWarn:
			style = warnStyle
		case entry.Level < slog.LevelInfo:
			style = debugStyle
		}

		text := render.FormatLogEntry(entry)
		if len(text) > width && width > 3 {
			text = text[:width-3] + "..."
		}
		t.drawText(startX, startY+i, width, text, style)
	}
}

// drawText writes text from (x, y), clipped to width cells
func (t *Backend) drawText(x, y, width int, text string, style tcell.Style) {
	col := 0
	for _, ch := range text {
		if col >= width {
			return
		}
		t.screen.SetContent(x+col, y, ch, nil, style)
		col++
	}
}
