//go:build nodebug

package debug

// Enabled reports whether stepping support is compiled in.
const Enabled = false

type noopController struct{}

// NewController returns a controller that ignores every command.
func NewController(*Debugger, Core, Disassembler) Controller {
	return noopController{}
}

func (noopController) StepIn()         {}
func (noopController) StepOver()       {}
func (noopController) StepNext()       {}
func (noopController) StepOut()        {}
func (noopController) RunUntil(uint32) {}
