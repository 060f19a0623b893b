package cpu

// Opcode represents a function that executes an opcode
type Opcode func(*CPU) int

var opcodes = [256]Opcode{
	0x00: opcode0x00,
	0x18: opcode0x18,
	0x20: opcode0x20,
	0x31: opcode0x31,
	0x32: opcode0x32,
	0x3A: opcode0x3A,
	0x3C: opcode0x3C,
	0x3D: opcode0x3D,
	0x3E: opcode0x3E,
	0x40: opcode0x40,
	0x5B: opcode0x5B,
	0x76: opcode0x76,
	0xC3: opcode0xC3,
	0xC9: opcode0xC9,
	0xCD: opcode0xCD,
	0xED: opcode0xED,
	0xF1: opcode0xF1,
	0xF5: opcode0xF5,
}

var opcodesED = [256]Opcode{
	0x6D: opcode0xED6D,
}

// Decode retrieves the instruction at PC and moves PC past its opcode
// byte. Unknown opcodes decode as a one byte no-op.
func Decode(c *CPU) Opcode {
	op := c.readImmediate()
	c.currentOpcode = uint16(op)
	if instr := opcodes[op]; instr != nil {
		return instr
	}
	return opcode0x00
}

//NOP
//#0x00:
func opcode0x00(_ *CPU) int {
	return 1
}

//JR e
//#0x18:
func opcode0x18(cpu *CPU) int {
	e := int8(cpu.readImmediate())
	cpu.jumpRelative(e)
	return 3
}

//JR NZ, e
//#0x20:
func opcode0x20(cpu *CPU) int {
	e := int8(cpu.readImmediate())
	if cpu.isSetFlag(zeroFlag) {
		return 2
	}
	cpu.jumpRelative(e)
	return 3
}

//LD SP, nn
//#0x31:
func opcode0x31(cpu *CPU) int {
	nn := cpu.readImmediateWord()
	if cpu.adl {
		cpu.spl = nn
		return 4
	}
	cpu.sps = uint16(nn)
	return 3
}

//LD (nn), A
//#0x32:
func opcode0x32(cpu *CPU) int {
	nn := cpu.readImmediateWord()
	cpu.bus.Write(cpu.address(nn), cpu.a)
	return 5
}

//LD A, (nn)
//#0x3A:
func opcode0x3A(cpu *CPU) int {
	nn := cpu.readImmediateWord()
	cpu.a = cpu.bus.Read(cpu.address(nn))
	return 5
}

//INC A
//#0x3C:
func opcode0x3C(cpu *CPU) int {
	cpu.inc(&cpu.a)
	return 1
}

//DEC A
//#0x3D:
func opcode0x3D(cpu *CPU) int {
	cpu.dec(&cpu.a)
	return 1
}

//LD A, n
//#0x3E:
func opcode0x3E(cpu *CPU) int {
	cpu.a = cpu.readImmediate()
	return 2
}

//.SIS suffix, only JP is supported after it
//#0x40:
func opcode0x40(cpu *CPU) int {
	if cpu.bus.Read(cpu.pc) != 0xC3 {
		return 1
	}
	cpu.pc = cpu.advance(1)
	nn := cpu.readImmediate16()
	cpu.adl = false
	cpu.pc = uint32(cpu.mb)<<16 | uint32(nn)
	return 4
}

//.LIL suffix, only JP is supported after it
//#0x5B:
func opcode0x5B(cpu *CPU) int {
	if cpu.bus.Read(cpu.pc) != 0xC3 {
		return 1
	}
	cpu.pc = cpu.advance(1)
	nn := cpu.readImmediate24()
	cpu.adl = true
	cpu.pc = nn
	return 5
}

//HALT
//#0x76:
func opcode0x76(cpu *CPU) int {
	cpu.halted = true
	return 2
}

//JP nn
//#0xC3:
func opcode0xC3(cpu *CPU) int {
	cpu.jump(cpu.readImmediateWord())
	return 4
}

//RET
//#0xC9:
func opcode0xC9(cpu *CPU) int {
	cpu.jump(cpu.popStack())
	return 4
}

//CALL nn
//#0xCD:
func opcode0xCD(cpu *CPU) int {
	nn := cpu.readImmediateWord()
	ret := cpu.pc
	if !cpu.adl {
		ret &= 0xFFFF
	}
	cpu.pushStack(ret)
	cpu.jump(nn)
	return 5
}

//ED prefix
//#0xED:
func opcode0xED(cpu *CPU) int {
	op := cpu.readImmediate()
	cpu.currentOpcode = 0xED00 | uint16(op)
	if instr := opcodesED[op]; instr != nil {
		return instr(cpu)
	}
	return 2
}

//POP AF
//#0xF1:
func opcode0xF1(cpu *CPU) int {
	af := cpu.popStack()
	cpu.f = uint8(af)
	cpu.a = uint8(af >> 8)
	return 3
}

//PUSH AF
//#0xF5:
func opcode0xF5(cpu *CPU) int {
	cpu.pushStack(uint32(cpu.a)<<8 | uint32(cpu.f))
	return 3
}

//LD MB, A
//#0xED6D:
func opcode0xED6D(cpu *CPU) int {
	cpu.mb = cpu.a
	return 2
}
