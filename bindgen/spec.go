package bindgen

import (
	"github.com/samber/lo"
)

// ArgSpec describes one argument of a binding: the name it has in both the
// generated signature and the assembly operand, the register it is passed
// in, and its Rust type.
type ArgSpec struct {
	Name string
	Reg  string
	Ty   string
}

// Binding describes one generated function.
type Binding struct {
	Name   string
	Offset uint32
	Args   []ArgSpec
	Ret    string
}

// Spec is the whole content of a specification file. It is produced by Load
// and is never modified afterwards.
type Spec struct {
	InterruptNumber  uint16
	FunctionSig      *uint16
	FunctionRegister string
	Bindings         []Binding
}

// ArgNames returns the names of the binding's arguments in declared order.
func (b *Binding) ArgNames() []string {
	return lo.Map(b.Args, func(arg ArgSpec, _ int) string {
		return arg.Name
	})
}
