//go:build !nodebug

package autotester

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-cecore/cecore"
)

// testROM switches to ADL mode, counts A down, calls a routine that
// stores 0x42 at the start of RAM, then halts.
func testROM() []byte {
	rom := make([]byte, 0x100)
	program := map[int][]byte{
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
	}
	for addr, code := range program {
		copy(rom[addr:], code)
	}
	return rom
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	emu := cecore.New(cecore.Config{ThrottleInterval: 64})
	require.NoError(t, emu.LoadROM(bytes.NewReader(testROM())))

	r, err := New(emu)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestNewRequiresLoadedDevice(t *testing.T) {
	_, err := New(cecore.New(cecore.Config{}))
	assert.ErrorIs(t, err, cecore.ErrNotLoaded)
}

func TestSteppingScript(t *testing.T) {
	r := newRunner(t)

	err := r.RunString(context.Background(), `
		assert(device() == "TI-84 Plus CE")

		break_at(0x10)
		assert(resume() == "breakpoint")
		assert(reg("pc") == 0x10 and reg("adl") == 1)
		clear_break(0x10)

		assert(run_until(0x19) == "run-until")
		assert(reg("a") == 0)

		assert(step_over() == "step-over")
		assert(reg("pc") == 0x1D)
		assert(reg("a") == 0x42)
		assert(peek(consts.ram_start) == 0x42)
		assert(reg("spl") == 0xD00100)
	`)
	require.NoError(t, err)
}

func TestStepOutScript(t *testing.T) {
	r := newRunner(t)

	err := r.RunString(context.Background(), `
		break_at(0x20)
		assert(resume() == "breakpoint")
		clear_break(0x20)
		assert(reg("spl") == 0xD000FD)

		assert(step_in() == "step-in")
		assert(reg("pc") == 0x22)

		assert(step_out() == "step-out")
		assert(reg("pc") == 0x1D)
	`)
	require.NoError(t, err)
}

func TestResumeBudget(t *testing.T) {
	r := newRunner(t)

	// Nothing ever stops a halted core without breakpoints.
	err := r.RunString(context.Background(), `
		assert(resume(50) == nil)
		assert(reg("pc") == 0x1E)
		run_frames(3)
	`)
	require.NoError(t, err)
}

func TestRegistersAndMemory(t *testing.T) {
	r := newRunner(t)

	err := r.RunString(context.Background(), `
		set_reg("a", 0x99)
		set_reg("pc", 0x1000020)
		assert(reg("A") == 0x99)
		assert(reg("pc") == 0x20)

		poke(0xD00010, 0x7F)
		assert(peek(0xD00010) == 0x7F)
		poke(0x000000, 0xFF)
		assert(peek(0x000000) == 0x5B)
	`)
	require.NoError(t, err)

	err = r.RunString(context.Background(), `reg("ix")`)
	assert.ErrorContains(t, err, "unknown register ix")
}

func TestExpectHash(t *testing.T) {
	r := newRunner(t)
	want := crc32.ChecksumIEEE([]byte{0x42, 0x00})

	script := fmt.Sprintf(`
		break_at(0x10)
		assert(resume() == "breakpoint")
		clear_break(0x10)
		assert(run_until(0x1D) == "run-until")
		assert(hash(consts.ram_start, 2) == %d)
		assert(expect_hash("stored byte", consts.ram_start, 2, 1, %d))
		assert(not expect_hash("wrong crc", consts.ram_start, 2, 1, 2))
	`, want, want)

	require.NoError(t, r.RunString(context.Background(), script))
	assert.Equal(t, Results{Tested: 2, Passed: 1, Failed: 1}, r.Results())
}

func TestExpectHashNeedsExpectedValue(t *testing.T) {
	r := newRunner(t)
	err := r.RunString(context.Background(), `expect_hash("x", 0, 1)`)
	assert.Error(t, err)
	assert.Equal(t, Results{}, r.Results())
}

func TestHashSizeBounded(t *testing.T) {
	r := newRunner(t)

	err := r.RunString(context.Background(), `hash(0, 0xFFFFFFFF)`)
	assert.ErrorContains(t, err, "exceeds the address space")

	err = r.RunString(context.Background(), `expect_hash("too big", 0, 0x1000001, 0)`)
	assert.ErrorContains(t, err, "exceeds the address space")
	assert.Equal(t, Results{}, r.Results())

	require.NoError(t, r.RunString(context.Background(), `hash(0, 0x1000000)`))
}

func TestRunFile(t *testing.T) {
	r := newRunner(t)
	path := filepath.Join(t.TempDir(), "test.lua")
	require.NoError(t, os.WriteFile(path, []byte(`run_frames(2)`), 0o644))

	require.NoError(t, r.RunFile(context.Background(), path))
}

func TestExitedLoopRaises(t *testing.T) {
	r := newRunner(t)
	r.emu.Exit()

	err := r.RunString(context.Background(), `run_frames(1)`)
	assert.ErrorContains(t, err, ErrExited.Error())
}
