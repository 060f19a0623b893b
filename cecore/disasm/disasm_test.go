package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeMem map[uint32]uint8

func (m fakeMem) Read(addr uint32) uint8 { return m[addr] }

func load(base uint32, code ...uint8) fakeMem {
	m := fakeMem{}
	for i, b := range code {
		m[base+uint32(i)] = b
	}
	return m
}

func TestDisassembleAt(t *testing.T) {
	tests := []struct {
		name   string
		code   []uint8
		adl    bool
		text   string
		length int
	}{
		{"nop", []uint8{0x00}, true, "NOP", 1},
		{"halt", []uint8{0x76}, false, "HALT", 1},
		{"ld a,n", []uint8{0x3E, 0x42}, true, "LD A,0x42", 2},
		{"call adl", []uint8{0xCD, 0x56, 0x34, 0x12}, true, "CALL 0x123456", 4},
		{"call z80", []uint8{0xCD, 0x34, 0x12}, false, "CALL 0x001234", 3},
		{"jp adl", []uint8{0xC3, 0x00, 0x00, 0xD0}, true, "JP 0xD00000", 4},
		{"ld sp adl", []uint8{0x31, 0x7E, 0xA8, 0xD1}, true, "LD SP,0xD1A87E", 4},
		{"jp.lil from z80", []uint8{0x5B, 0xC3, 0x00, 0x01, 0x00}, false, "JP.LIL 0x000100", 5},
		{"jp.sis from adl", []uint8{0x40, 0xC3, 0x00, 0x02}, true, "JP.SIS 0x0200", 4},
		{"ld mb,a", []uint8{0xED, 0x6D}, true, "LD MB,A", 2},
		{"unknown ed", []uint8{0xED, 0x01}, true, "DB 0xED,0x01", 2},
		{"unknown", []uint8{0xFF}, true, "DB 0xFF", 1},
		{"jr backwards", []uint8{0x18, 0xFE}, true, "JR 0x000100", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := load(0x100, tt.code...)
			line := DisassembleAt(mem, 0x100, tt.adl)
			assert.Equal(t, tt.text, line.Instruction)
			assert.Equal(t, tt.length, line.Length)
			assert.Equal(t, uint32(0x100), line.Address)
		})
	}
}

func TestNextAddressDependsOnMode(t *testing.T) {
	mem := load(0x000200, 0xCD, 0x00, 0x03, 0x00)
	d := New(mem)

	assert.Equal(t, uint32(0x000204), d.NextAddress(0x000200, true))
	assert.Equal(t, uint32(0x000203), d.NextAddress(0x000200, false))
}

func TestNextAddressWrapsInZ80Window(t *testing.T) {
	mem := load(0xD0FFFF, 0x3E)
	mem[0xD00000] = 0x10
	d := New(mem)

	assert.Equal(t, uint32(0xD00001), d.NextAddress(0xD0FFFF, false))
	assert.Equal(t, uint32(0xD10001), d.NextAddress(0xD0FFFF, true))
}

func TestDisassembleRange(t *testing.T) {
	mem := load(0, 0x3E, 0x01, 0x3C, 0xC9)
	lines := DisassembleRange(mem, 0, 3, true)

	assert.Len(t, lines, 3)
	assert.Equal(t, []uint32{0, 2, 3}, []uint32{lines[0].Address, lines[1].Address, lines[2].Address})
	assert.Equal(t, "RET", lines[2].Instruction)
	assert.Equal(t, ">0x000002: INC A", FormatLine(lines[1], true))
	assert.Equal(t, " 0x000003: RET", FormatLine(lines[2], false))
}
