package bit

// Mask24 keeps the low 24 bits, the width of an eZ80 address in ADL mode.
const Mask24 = 0xFFFFFF

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// Combine24 combines three 8 bit values into a 24 bit value, upper byte first.
func Combine24(upper, high, low uint8) uint32 {
	return uint32(upper)<<16 | uint32(high)<<8 | uint32(low)
}

// IsSet will check if the bit at the specified index is Set to 1 or not.
func IsSet(index, byte uint8) bool {
	return ((byte >> index) & 1) == 1
}

// Clear will return the passed byte with the bit at the specified index Set to 0.
func Clear(index, byte uint8) uint8 {
	return byte & ^(1 << index)
}

// Set will return the passed byte with the bit at the specified index Set to 1.
func Set(index, byte uint8) uint8 {
	return byte | (1 << index)
}

// Low returns the low (LSB) part of a 16 or 24 bit number.
func Low(value uint32) uint8 {
	return uint8(value)
}

// High returns the middle byte of a 24 bit number (the MSB of a 16 bit one).
func High(value uint32) uint8 {
	return uint8(value >> 8)
}

// Upper returns the most significant byte of a 24 bit number.
func Upper(value uint32) uint8 {
	return uint8(value >> 16)
}
