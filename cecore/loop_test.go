package cecore

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-cecore/cecore/backend"
	"github.com/valerio/go-cecore/cecore/debug"
	"github.com/valerio/go-cecore/cecore/events"
	"github.com/valerio/go-cecore/cecore/input/action"
)

const testThrottle = 64

// testROM switches to ADL mode, counts A down, calls a routine that
// stores 0x42 at the start of RAM, then halts.
func testROM() []byte {
	return buildROM(map[int][]byte{
		0x000: {0x5B, 0xC3, 0x10, 0x00, 0x00}, // JP.LIL 0x000010
		0x010: {0x31, 0x00, 0x01, 0xD0},       // LD SP,0xD00100
		0x014: {0x3E, 0x03},                   // LD A,3
		0x016: {0x3D},                         // DEC A
		0x017: {0x20, 0xFD},                   // JR NZ,0x000016
		0x019: {0xCD, 0x20, 0x00, 0x00},       // CALL 0x000020
		0x01D: {0x76},                         // HALT
		0x020: {0x3E, 0x42},                   // LD A,0x42
		0x022: {0x32, 0x00, 0x00, 0xD0},       // LD (0xD00000),A
		0x026: {0xC9},                         // RET
	})
}

func buildROM(program map[int][]byte) []byte {
	rom := make([]byte, 0x100)
	for addr, code := range program {
		copy(rom[addr:], code)
	}
	return rom
}

type fakeHost struct {
	pumps  int
	err    error
	onPump func(n int)
}

func (h *fakeHost) Init(backend.HostConfig) error { return nil }
func (h *fakeHost) Cleanup() error                { return nil }

func (h *fakeHost) Pump() error {
	h.pumps++
	if h.onPump != nil {
		h.onPump(h.pumps)
	}
	return h.err
}

func newLoaded(t testing.TB, cfg Config, rom []byte) *Emu {
	t.Helper()
	if cfg.ThrottleInterval == 0 {
		cfg.ThrottleInterval = testThrottle
	}
	e := New(cfg)
	require.NoError(t, e.LoadROM(bytes.NewReader(rom)))
	return e
}

// runUntilPaused drives the host form until the debugger parks the core.
func runUntilPaused(t *testing.T, e *Emu, maxFrames int) {
	t.Helper()
	for i := 0; i < maxFrames; i++ {
		require.True(t, e.RunFrame(context.Background()), "loop exited")
		if e.Paused() {
			return
		}
	}
	t.Fatalf("core did not stop within %d frames", maxFrames)
}

func TestLoopRequiresLoadedDevice(t *testing.T) {
	e := New(Config{})
	assert.ErrorIs(t, e.Run(context.Background(), false), ErrNotLoaded)
	assert.ErrorIs(t, e.Start(false), ErrNotLoaded)
	assert.False(t, e.RunFrame(context.Background()), "not started")
}

func TestRunExitsAndReleasesState(t *testing.T) {
	host := &fakeHost{}
	var e *Emu
	host.onPump = func(n int) {
		if n == 3 {
			e.Exit()
		}
	}
	e = newLoaded(t, Config{Host: host}, testROM())

	require.NoError(t, e.Run(context.Background(), true))
	assert.Equal(t, 3, host.pumps)
	assert.Equal(t, uint64(3), e.Frames())
	assert.False(t, e.Loaded())
	assert.False(t, e.Running())
}

func TestRunStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := &fakeHost{onPump: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	e := newLoaded(t, Config{Host: host}, testROM())

	require.NoError(t, e.Run(ctx, false))
	assert.GreaterOrEqual(t, host.pumps, 2)
	assert.False(t, e.Loaded())
}

func TestHostErrorEndsRun(t *testing.T) {
	errHost := errors.New("display went away")
	host := &fakeHost{err: errHost}
	e := newLoaded(t, Config{Host: host}, testROM())

	err := e.Run(context.Background(), false)
	assert.ErrorIs(t, err, errHost)
	assert.Equal(t, 1, host.pumps)
	assert.ErrorIs(t, e.Err(), errHost)
}

func TestRunFramePumpsOncePerFrame(t *testing.T) {
	host := &fakeHost{}
	e := newLoaded(t, Config{Host: host}, testROM())
	require.NoError(t, e.Start(false))

	for i := 0; i < 5; i++ {
		require.True(t, e.RunFrame(context.Background()))
	}
	assert.Equal(t, 5, host.pumps)
	assert.Equal(t, uint64(5), e.Frames())

	assert.Equal(t, uint32(0x00001E), e.CPU().PC())
	assert.True(t, e.CPU().Halted())
	assert.Equal(t, uint8(0x42), e.ASIC().Mem.Read(0xD00000))

	e.Exit()
	assert.False(t, e.RunFrame(context.Background()))
	assert.False(t, e.Loaded())
}

func TestLoopFormsAreIdentical(t *testing.T) {
	const frames = 4

	var selfImage bytes.Buffer
	host := &fakeHost{}
	var self *Emu
	host.onPump = func(n int) {
		if n == frames {
			self.Exit()
		}
	}
	self = newLoaded(t, Config{
		Host: host,
		OnExit: func(e *Emu) {
			require.NoError(t, e.SaveImage(&selfImage))
		},
	}, testROM())
	require.NoError(t, self.Run(context.Background(), true))

	hosted := newLoaded(t, Config{Host: &fakeHost{}}, testROM())
	require.NoError(t, hosted.Start(true))
	for i := 0; i < frames; i++ {
		require.True(t, hosted.RunFrame(context.Background()))
	}
	var hostedImage bytes.Buffer
	require.NoError(t, hosted.SaveImage(&hostedImage))

	assert.Equal(t, selfImage.Bytes(), hostedImage.Bytes())
}

func TestResetRequest(t *testing.T) {
	e := newLoaded(t, Config{}, testROM())
	require.NoError(t, e.Start(false))
	for i := 0; i < 5; i++ {
		require.True(t, e.RunFrame(context.Background()))
	}
	require.True(t, e.CPU().Halted())

	e.Debugger().Breakpoints.Set(0x000010, debug.Exec)
	e.HandleAction(action.EmulatorReset)
	assert.True(t, e.CPU().Events().Has(events.Reset))

	runUntilPaused(t, e, 10)
	assert.False(t, e.CPU().Events().Has(events.Reset))
	assert.Equal(t, debug.Stop{Reason: debug.StopBreakpoint, PC: 0x10, ADL: true}, e.Debugger().LastStop)
	assert.Equal(t, uint8(0), e.ASIC().Mem.Read(0xD00000), "RAM cleared by reset")
}

func TestResetReleasesParkedCore(t *testing.T) {
	e := newLoaded(t, Config{}, testROM())
	require.NoError(t, e.Start(false))
	require.True(t, e.RunFrame(context.Background()))

	e.Pause()
	require.True(t, e.Paused())
	require.Equal(t, uint32(0x1E), e.Debugger().LastStop.PC)

	e.RequestReset()
	require.True(t, e.RunFrame(context.Background()))

	assert.False(t, e.Paused())
	assert.Equal(t, debug.Stop{}, e.Debugger().LastStop)
	assert.NotZero(t, e.CPU().Cycles(), "core runs again after the reset")
	assert.Equal(t, debug.DebuggerRunning, e.Snapshot().State)
}

func TestPauseToggle(t *testing.T) {
	e := newLoaded(t, Config{}, testROM())
	require.NoError(t, e.Start(false))

	e.Pause()
	assert.True(t, e.Paused())
	require.True(t, e.RunFrame(context.Background()))
	assert.Equal(t, uint32(0), e.CPU().PC(), "parked core does not execute")

	snap := e.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, debug.DebuggerPaused, snap.State)
	assert.Equal(t, debug.StopRequested, snap.LastStop.Reason)
	assert.Equal(t, "TI-84 Plus CE", snap.Device)

	e.Resume()
	require.True(t, e.RunFrame(context.Background()))
	assert.NotEqual(t, uint32(0), e.CPU().PC())
	assert.Equal(t, debug.DebuggerRunning, e.Snapshot().State)
}
