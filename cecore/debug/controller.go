package debug

// Controller arms the debugger for one debugging command. Each operation
// replaces whatever session was armed before it and lets a stopped core
// run again.
type Controller interface {
	StepIn()
	StepOver()
	StepNext()
	StepOut()
	// RunUntil runs to addr as a plain breakpoint run.
	RunUntil(addr uint32)
}
