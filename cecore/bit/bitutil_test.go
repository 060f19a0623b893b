package bit

import (
	"testing"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
		{0x12, 0x34, 0x1234},
	}

	for _, tt := range tests {
		result := Combine(tt.high, tt.low)
		if result != tt.expected {
			t.Errorf("Combine(%X, %X) = %X; want %X", tt.high, tt.low, result, tt.expected)
		}
	}
}

func TestCombine24(t *testing.T) {
	tests := []struct {
		upper, high, low uint8
		expected         uint32
	}{
		{0xD0, 0x00, 0x00, 0xD00000},
		{0x00, 0x00, 0x00, 0x000000},
		{0xFF, 0xFF, 0xFF, 0xFFFFFF},
		{0x12, 0x34, 0x56, 0x123456},
	}

	for _, tt := range tests {
		result := Combine24(tt.upper, tt.high, tt.low)
		if result != tt.expected {
			t.Errorf("Combine24(%X, %X, %X) = %X; want %X", tt.upper, tt.high, tt.low, result, tt.expected)
		}
	}
}

func TestSplit(t *testing.T) {
	const value = 0xD1A87E
	if got := Upper(value); got != 0xD1 {
		t.Errorf("Upper(%X) = %X; want D1", value, got)
	}
	if got := High(value); got != 0xA8 {
		t.Errorf("High(%X) = %X; want A8", value, got)
	}
	if got := Low(value); got != 0x7E {
		t.Errorf("Low(%X) = %X; want 7E", value, got)
	}
}

func TestIsSet(t *testing.T) {
	tests := []struct {
		index    uint8
		value    uint8
		expected bool
	}{
		{0, 0b00000001, true},
		{6, 0b01000000, true},
		{6, 0b10111111, false},
		{7, 0b00000000, false},
	}

	for _, tt := range tests {
		result := IsSet(tt.index, tt.value)
		if result != tt.expected {
			t.Errorf("IsSet(%d, %08b) = %v; want %v", tt.index, tt.value, result, tt.expected)
		}
	}
}

func TestSetClear(t *testing.T) {
	tests := []struct {
		index      uint8
		value      uint8
		set, clear uint8
	}{
		{0, 0b00000000, 0b00000001, 0b00000000},
		{6, 0b01000000, 0b01000000, 0b00000000},
		{7, 0b01111111, 0b11111111, 0b01111111},
	}

	for _, tt := range tests {
		if result := Set(tt.index, tt.value); result != tt.set {
			t.Errorf("Set(%d, %08b) = %08b; want %08b", tt.index, tt.value, result, tt.set)
		}
		if result := Clear(tt.index, tt.value); result != tt.clear {
			t.Errorf("Clear(%d, %08b) = %08b; want %08b", tt.index, tt.value, result, tt.clear)
		}
	}
}
