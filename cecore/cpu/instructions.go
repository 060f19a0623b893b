package cpu

// pushStack stores value on the stack for the current mode: three bytes
// below SPL in ADL mode, two bytes below SPS in Z80 mode.
func (c *CPU) pushStack(value uint32) {
	if c.adl {
		for shift := 16; shift >= 0; shift -= 8 {
			c.spl = (c.spl - 1) & 0xFFFFFF
			c.bus.Write(c.spl, uint8(value>>shift))
		}
		return
	}

	for shift := 8; shift >= 0; shift -= 8 {
		c.sps--
		c.bus.Write(c.address(uint32(c.sps)), uint8(value>>shift))
	}
}

// popStack is the inverse of pushStack.
func (c *CPU) popStack() uint32 {
	var value uint32
	if c.adl {
		for shift := 0; shift <= 16; shift += 8 {
			value |= uint32(c.bus.Read(c.spl)) << shift
			c.spl = (c.spl + 1) & 0xFFFFFF
		}
		return value
	}

	for shift := 0; shift <= 8; shift += 8 {
		value |= uint32(c.bus.Read(c.address(uint32(c.sps)))) << shift
		c.sps++
	}
	return value
}

func (c *CPU) inc(r *uint8) {
	*r++
	c.setFlagToCondition(zeroFlag, *r == 0)
}

func (c *CPU) dec(r *uint8) {
	*r--
	c.setFlagToCondition(zeroFlag, *r == 0)
}

// jump moves PC to a mode-sized target.
func (c *CPU) jump(nn uint32) {
	if c.adl {
		c.pc = nn & 0xFFFFFF
		return
	}
	c.pc = c.address(nn)
}

// jumpRelative applies a signed displacement to the already advanced PC.
func (c *CPU) jumpRelative(e int8) {
	c.pc = c.advance(int(e))
}
