package disasm

import (
	"fmt"

	"github.com/valerio/go-cecore/cecore/bit"
)

// Reader is the memory view the disassembler needs.
type Reader interface {
	Read(addr uint32) uint8
}

// Line represents a single disassembled instruction
type Line struct {
	Address     uint32
	Instruction string
	Length      int
}

type operand int

const (
	none operand = iota
	imm8         // one byte immediate
	rel8         // signed displacement from the next instruction
	immWord      // 2 bytes in Z80 mode, 3 bytes in ADL mode
	imm16        // always 2 bytes
	imm24        // always 3 bytes
)

type opcode struct {
	template string
	operand  operand
}

var opcodes = map[uint8]opcode{
	0x00: {"NOP", none},
	0x18: {"JR 0x%06X", rel8},
	0x20: {"JR NZ,0x%06X", rel8},
	0x31: {"LD SP,0x%06X", immWord},
	0x32: {"LD (0x%06X),A", immWord},
	0x3A: {"LD A,(0x%06X)", immWord},
	0x3C: {"INC A", none},
	0x3D: {"DEC A", none},
	0x3E: {"LD A,0x%02X", imm8},
	0x76: {"HALT", none},
	0xC3: {"JP 0x%06X", immWord},
	0xC9: {"RET", none},
	0xCD: {"CALL 0x%06X", immWord},
	0xF1: {"POP AF", none},
	0xF5: {"PUSH AF", none},
}

// suffixed jumps: prefix byte followed by C3
var suffixed = map[uint8]opcode{
	0x40: {"JP.SIS 0x%04X", imm16},
	0x5B: {"JP.LIL 0x%06X", imm24},
}

var edOpcodes = map[uint8]string{
	0x6D: "LD MB,A",
}

// Offset returns the address i bytes after pc. In Z80 mode the address
// wraps inside the current 64KiB window.
func Offset(pc uint32, i int, adl bool) uint32 {
	if adl {
		return (pc + uint32(i)) & bit.Mask24
	}
	return pc&0xFF0000 | (pc+uint32(i))&0xFFFF
}

func readWord(mem Reader, addr uint32, adl bool, size int) uint32 {
	low := mem.Read(Offset(addr, 0, adl))
	high := mem.Read(Offset(addr, 1, adl))
	if size == 2 {
		return uint32(bit.Combine(high, low))
	}
	return bit.Combine24(mem.Read(Offset(addr, 2, adl)), high, low)
}

// DisassembleAt disassembles the instruction at the given program counter
func DisassembleAt(mem Reader, pc uint32, adl bool) Line {
	first := mem.Read(pc)
	wordSize := 2
	if adl {
		wordSize = 3
	}

	if first == 0xED {
		second := mem.Read(Offset(pc, 1, adl))
		text, ok := edOpcodes[second]
		if !ok {
			text = fmt.Sprintf("DB 0xED,0x%02X", second)
		}
		return Line{Address: pc, Instruction: text, Length: 2}
	}

	if op, ok := suffixed[first]; ok && mem.Read(Offset(pc, 1, adl)) == 0xC3 {
		size := 2
		if op.operand == imm24 {
			size = 3
		}
		nn := readWord(mem, Offset(pc, 2, adl), adl, size)
		return Line{Address: pc, Instruction: fmt.Sprintf(op.template, nn), Length: 2 + size}
	}

	op, ok := opcodes[first]
	if !ok {
		return Line{Address: pc, Instruction: fmt.Sprintf("DB 0x%02X", first), Length: 1}
	}

	var line Line
	line.Address = pc

	switch op.operand {
	case none:
		line.Length = 1
		line.Instruction = op.template
	case imm8:
		line.Length = 2
		line.Instruction = fmt.Sprintf(op.template, mem.Read(Offset(pc, 1, adl)))
	case rel8:
		line.Length = 2
		e := int8(mem.Read(Offset(pc, 1, adl)))
		target := Offset(pc, 2+int(e), adl)
		line.Instruction = fmt.Sprintf(op.template, target)
	case immWord:
		line.Length = 1 + wordSize
		line.Instruction = fmt.Sprintf(op.template, readWord(mem, Offset(pc, 1, adl), adl, wordSize))
	}

	return line
}

// DisassembleRange disassembles multiple instructions starting from the given PC
func DisassembleRange(mem Reader, startPC uint32, count int, adl bool) []Line {
	lines := make([]Line, 0, count)
	pc := startPC

	for i := 0; i < count; i++ {
		line := DisassembleAt(mem, pc, adl)
		lines = append(lines, line)
		pc = Offset(pc, line.Length, adl)
	}

	return lines
}

// FormatLine formats a disassembly line for display
func FormatLine(line Line, isCurrentPC bool) string {
	prefix := " "
	if isCurrentPC {
		prefix = ">"
	}

	return fmt.Sprintf("%s0x%06X: %s", prefix, line.Address, line.Instruction)
}

// Disassembler answers "where does the next instruction start" for the
// stepping controller.
type Disassembler struct {
	mem Reader
}

func New(mem Reader) *Disassembler {
	return &Disassembler{mem: mem}
}

// NextAddress returns the address immediately following the one
// instruction located at base when decoded in the given mode.
func (d *Disassembler) NextAddress(base uint32, adl bool) uint32 {
	line := DisassembleAt(d.mem, base, adl)
	return Offset(base, line.Length, adl)
}
