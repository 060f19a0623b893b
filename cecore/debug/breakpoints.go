package debug

import "github.com/valerio/go-cecore/cecore/bit"

// Flag marks an address in the breakpoint overlay.
type Flag uint8

const (
	// Exec is a permanent, user-set execution breakpoint.
	Exec Flag = 1 << iota
	// Read and Write are permanent watch bits. They are recorded for the
	// host's benefit; the reference core does not evaluate them.
	Read
	Write
	// TempExec is the transient breakpoint armed by the stepping controller.
	TempExec

	permanent = Exec | Read | Write
)

const pageSize = 0x10000

// Breakpoints is a flag per 24 bit address. Pages of 64KiB are allocated
// the first time a flag is set inside them.
//
// At most one address carries TempExec at any time.
type Breakpoints struct {
	pages [256]*[pageSize]Flag

	temp    uint32
	hasTemp bool
}

func NewBreakpoints() *Breakpoints {
	return &Breakpoints{}
}

// Get returns the flags at an address.
func (b *Breakpoints) Get(addr uint32) Flag {
	addr &= bit.Mask24
	page := b.pages[addr>>16]
	if page == nil {
		return 0
	}
	return page[addr&0xFFFF]
}

func (b *Breakpoints) slot(addr uint32) *Flag {
	addr &= bit.Mask24
	page := b.pages[addr>>16]
	if page == nil {
		page = new([pageSize]Flag)
		b.pages[addr>>16] = page
	}
	return &page[addr&0xFFFF]
}

// Set adds permanent flags at an address. TempExec is ignored here; use SetTemp.
func (b *Breakpoints) Set(addr uint32, f Flag) {
	*b.slot(addr) |= f & permanent
}

// Remove clears permanent flags at an address.
func (b *Breakpoints) Remove(addr uint32, f Flag) {
	if b.Get(addr) == 0 {
		return
	}
	*b.slot(addr) &^= f & permanent
}

// SetTemp moves the temporary breakpoint to addr.
func (b *Breakpoints) SetTemp(addr uint32) {
	b.ClearTemp()
	addr &= bit.Mask24
	*b.slot(addr) |= TempExec
	b.temp = addr
	b.hasTemp = true
}

// ClearTemp removes the temporary breakpoint, leaving permanent flags alone.
func (b *Breakpoints) ClearTemp() {
	if !b.hasTemp {
		return
	}
	*b.slot(b.temp) &^= TempExec
	b.hasTemp = false
}

// Temp returns the address of the temporary breakpoint, if one is armed.
func (b *Breakpoints) Temp() (uint32, bool) {
	return b.temp, b.hasTemp
}

// Clear removes every flag, permanent and temporary.
func (b *Breakpoints) Clear() {
	for i := range b.pages {
		b.pages[i] = nil
	}
	b.hasTemp = false
}
