// Package autotester drives the core from Lua scripts: it steps, runs,
// inspects memory and checks CRC-32 hashes of memory ranges against
// expected values.
package autotester

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/valerio/go-cecore/cecore"
	"github.com/valerio/go-cecore/cecore/bit"
	"github.com/valerio/go-cecore/cecore/debug"
	"github.com/valerio/go-cecore/cecore/memory"
)

// maxHashSize is the whole 24-bit address space.
const maxHashSize = bit.Mask24 + 1

// DefaultFrameBudget bounds how many frames a stepping call may run
// before giving up on the stop.
const DefaultFrameBudget = 600

// ErrExited is raised inside a script when the loop ends under it.
var ErrExited = errors.New("emulation exited")

// Results counts the outcome of expect_hash calls.
type Results struct {
	Tested int
	Passed int
	Failed int
}

// Runner executes test scripts against a loaded emulator.
type Runner struct {
	emu     *cecore.Emu
	L       *lua.LState
	ctx     context.Context
	results Results
}

// hashConsts are addresses and sizes usable in hash calls.
var hashConsts = map[string]uint32{
	"ram_start":   memory.RAMStart,
	"ram_size":    memory.SizeRAM,
	"textShadow":  0xD006C0,
	"cmdShadow":   0xD0232D,
	"pixelShadow": 0xD031F6,
	"userMem":     0xD1A881,

	"textShadow_size":  260,
	"cmdShadow_size":   260,
	"pixelShadow_size": 8400,
}

// New prepares a runner and starts the host-driven loop of emu.
func New(emu *cecore.Emu) (*Runner, error) {
	if err := emu.Start(false); err != nil {
		return nil, fmt.Errorf("failed to start emulation: %w", err)
	}

	r := &Runner{
		emu: emu,
		L:   lua.NewState(),
		ctx: context.Background(),
	}
	r.register()
	return r, nil
}

// Close releases the Lua state.
func (r *Runner) Close() {
	r.L.Close()
}

// Results returns the hash counters so far.
func (r *Runner) Results() Results {
	return r.results
}

// RunString executes a script held in memory.
func (r *Runner) RunString(ctx context.Context, src string) error {
	r.setContext(ctx)
	return r.L.DoString(src)
}

// RunFile executes the script at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	r.setContext(ctx)
	slog.Info("Running test script", "path", path)
	return r.L.DoFile(path)
}

func (r *Runner) setContext(ctx context.Context) {
	r.ctx = ctx
	r.L.SetContext(ctx)
}

func (r *Runner) register() {
	funcs := map[string]lua.LGFunction{
		"step_in":     r.stepFunc(func(c debug.Controller) { c.StepIn() }),
		"step_over":   r.stepFunc(func(c debug.Controller) { c.StepOver() }),
		"step_next":   r.stepFunc(func(c debug.Controller) { c.StepNext() }),
		"step_out":    r.stepFunc(func(c debug.Controller) { c.StepOut() }),
		"run_until":   r.runUntil,
		"resume":      r.resume,
		"run_frames":  r.runFrames,
		"reg":         r.reg,
		"set_reg":     r.setReg,
		"peek":        r.peek,
		"poke":        r.poke,
		"break_at":    r.breakAt,
		"clear_break": r.clearBreak,
		"reset":       r.reset,
		"device":      r.device,
		"hash":        r.hash,
		"expect_hash": r.expectHash,
	}
	for name, fn := range funcs {
		r.L.SetGlobal(name, r.L.NewFunction(fn))
	}

	consts := r.L.NewTable()
	for name, v := range hashConsts {
		consts.RawSetString(name, lua.LNumber(v))
	}
	r.L.SetGlobal("consts", consts)
}

// runUntilStop runs frames until the debugger parks the core. Pushes the
// stop description, or nil when the budget ran out first.
func (r *Runner) runUntilStop(L *lua.LState, budget int) int {
	dbg := r.emu.Debugger()
	for i := 0; i < budget; i++ {
		if !r.emu.RunFrame(r.ctx) {
			L.RaiseError("%v", ErrExited)
			return 0
		}
		if dbg.Stopped {
			L.Push(lua.LString(dbg.LastStop.Reason.String()))
			return 1
		}
	}
	L.Push(lua.LNil)
	return 1
}

func (r *Runner) controller(L *lua.LState) debug.Controller {
	ctl, err := r.emu.Controller()
	if err != nil {
		L.RaiseError("%v", err)
	}
	return ctl
}

func (r *Runner) stepFunc(arm func(debug.Controller)) lua.LGFunction {
	return func(L *lua.LState) int {
		budget := L.OptInt(1, DefaultFrameBudget)
		arm(r.controller(L))
		return r.runUntilStop(L, budget)
	}
}

func (r *Runner) runUntil(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1)) & bit.Mask24
	budget := L.OptInt(2, DefaultFrameBudget)
	r.controller(L).RunUntil(addr)
	return r.runUntilStop(L, budget)
}

func (r *Runner) resume(L *lua.LState) int {
	budget := L.OptInt(1, DefaultFrameBudget)
	r.emu.Resume()
	return r.runUntilStop(L, budget)
}

func (r *Runner) runFrames(L *lua.LState) int {
	n := L.CheckInt(1)
	for i := 0; i < n; i++ {
		if !r.emu.RunFrame(r.ctx) {
			L.RaiseError("%v", ErrExited)
			return 0
		}
	}
	return 0
}

func (r *Runner) reg(L *lua.LState) int {
	c := r.emu.CPU()
	if c == nil {
		L.RaiseError("%v", cecore.ErrNotLoaded)
		return 0
	}

	var v uint64
	switch name := strings.ToLower(L.CheckString(1)); name {
	case "a":
		v = uint64(c.A())
	case "f":
		v = uint64(c.F())
	case "pc":
		v = uint64(c.PC())
	case "spl":
		v = uint64(c.SPL())
	case "sps":
		v = uint64(c.SPS())
	case "mb":
		v = uint64(c.MB())
	case "adl":
		if c.ADL() {
			v = 1
		}
	case "cycles":
		v = c.Cycles()
	default:
		L.ArgError(1, "unknown register "+name)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (r *Runner) setReg(L *lua.LState) int {
	c := r.emu.CPU()
	if c == nil {
		L.RaiseError("%v", cecore.ErrNotLoaded)
		return 0
	}

	name := strings.ToLower(L.CheckString(1))
	v := uint32(L.CheckInt64(2))
	switch name {
	case "a":
		c.SetA(uint8(v))
	case "f":
		c.SetF(uint8(v))
	case "pc":
		c.SetPC(v)
	case "spl":
		c.SetSPL(v)
	case "sps":
		c.SetSPS(uint16(v))
	case "mb":
		c.SetMB(uint8(v))
	case "adl":
		c.SetADL(v != 0)
	default:
		L.ArgError(1, "unknown register "+name)
	}
	return 0
}

func (r *Runner) mmu(L *lua.LState) *memory.MMU {
	mem := r.emu.ASIC().Mem
	if mem == nil {
		L.RaiseError("%v", cecore.ErrNotLoaded)
	}
	return mem
}

func (r *Runner) peek(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	L.Push(lua.LNumber(r.mmu(L).Read(addr)))
	return 1
}

func (r *Runner) poke(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	v := uint8(L.CheckInt(2))
	r.mmu(L).Write(addr, v)
	return 0
}

func (r *Runner) breakAt(L *lua.LState) int {
	r.emu.Debugger().Breakpoints.Set(uint32(L.CheckInt64(1)), debug.Exec)
	return 0
}

func (r *Runner) clearBreak(L *lua.LState) int {
	r.emu.Debugger().Breakpoints.Remove(uint32(L.CheckInt64(1)), debug.Exec)
	return 0
}

// reset takes effect at the top of the next iteration.
func (r *Runner) reset(L *lua.LState) int {
	r.emu.RequestReset()
	return 0
}

func (r *Runner) device(L *lua.LState) int {
	L.Push(lua.LString(r.emu.Device().String()))
	return 1
}

func (r *Runner) crc(L *lua.LState, start, size uint32, sizeArg int) uint32 {
	if size > maxHashSize {
		L.ArgError(sizeArg, fmt.Sprintf("size 0x%X exceeds the address space", size))
		return 0
	}
	mem := r.mmu(L)
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = mem.Read((start + uint32(i)) & bit.Mask24)
	}
	return crc32.ChecksumIEEE(buf)
}

func (r *Runner) hash(L *lua.LState) int {
	start := uint32(L.CheckInt64(1))
	size := uint32(L.CheckInt64(2))
	L.Push(lua.LNumber(r.crc(L, start, size, 2)))
	return 1
}

// expectHash(description, start, size, crc...) passes when the hash of
// the range matches any of the expected values.
func (r *Runner) expectHash(L *lua.LState) int {
	desc := L.CheckString(1)
	start := uint32(L.CheckInt64(2))
	size := uint32(L.CheckInt64(3))
	if L.GetTop() < 4 {
		L.ArgError(4, "at least one expected CRC is required")
		return 0
	}

	got := r.crc(L, start, size, 3)
	r.results.Tested++
	for i := 4; i <= L.GetTop(); i++ {
		if uint32(L.CheckInt64(i)) == got {
			r.results.Passed++
			slog.Info("Hash matched", "test", desc, "crc", fmt.Sprintf("%08X", got))
			L.Push(lua.LTrue)
			return 1
		}
	}

	r.results.Failed++
	slog.Warn("Hash mismatch", "test", desc, "crc", fmt.Sprintf("%08X", got))
	L.Push(lua.LFalse)
	return 1
}
