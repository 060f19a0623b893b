package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakpointsPermanentFlags(t *testing.T) {
	b := NewBreakpoints()

	assert.Equal(t, Flag(0), b.Get(0xD00000))
	assert.Nil(t, b.pages[0xD0], "reading must not allocate")

	b.Set(0xD00010, Exec|Write)
	assert.Equal(t, Exec|Write, b.Get(0xD00010))
	assert.Equal(t, Exec|Write, b.Get(0x1D00010), "addresses are masked to 24 bits")

	b.Set(0xD00010, TempExec)
	assert.Equal(t, Exec|Write, b.Get(0xD00010), "Set never arms the temporary bit")

	b.Remove(0xD00010, Write)
	assert.Equal(t, Exec, b.Get(0xD00010))

	b.Remove(0x400000, Exec)
	assert.Nil(t, b.pages[0x40])
}

func TestBreakpointsSingleTemp(t *testing.T) {
	b := NewBreakpoints()
	b.Set(0x000104, Exec)

	b.SetTemp(0x000104)
	b.SetTemp(0x000200)

	assert.Equal(t, Exec, b.Get(0x000104), "moving the temp leaves the permanent bit")
	assert.Equal(t, TempExec, b.Get(0x000200))

	addr, ok := b.Temp()
	assert.True(t, ok)
	assert.Equal(t, uint32(0x000200), addr)

	b.ClearTemp()
	assert.Equal(t, Flag(0), b.Get(0x000200))
	_, ok = b.Temp()
	assert.False(t, ok)

	b.Clear()
	assert.Equal(t, Flag(0), b.Get(0x000104))
}
