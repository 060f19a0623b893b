package asic

// Control port offsets.
const (
	controlDevice  = 0x00
	controlPower   = 0x01
	controlScratch = 0x0F
)

// Control is the system control port block. The device byte is read-only
// from the CPU side.
type Control struct {
	device  Device
	power   uint8
	scratch uint8
}

func (c *Control) Read(offset uint8) uint8 {
	switch offset {
	case controlDevice:
		return uint8(c.device)
	case controlPower:
		return c.power
	case controlScratch:
		return c.scratch
	}
	return 0
}

func (c *Control) Write(offset uint8, value uint8) {
	switch offset {
	case controlPower:
		c.power = value
	case controlScratch:
		c.scratch = value
	}
}

func (c *Control) reset() {
	c.power = 0
	c.scratch = 0
}

type controlState struct {
	Power   uint8
	Scratch uint8
	_       [2]uint8
}
