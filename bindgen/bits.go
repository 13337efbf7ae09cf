package bindgen

import (
	"fmt"
)

// BindingNumber is the selector value passed to the interrupt handler in the
// dispatch register. The optional function signature occupies the high 16
// bits and the binding's offset the low bits.
//
// The same value is also applied as a mask to the raw value read back out of
// the dispatch register: the handlers this tool targets only guarantee the
// bits that are set in the request selector, so anything else is discarded.
type BindingNumber uint32

// PackBindingNumber computes the binding number for the given binding within
// the given specification.
func PackBindingNumber(spec *Spec, binding *Binding) BindingNumber {
	var sig uint32
	if spec.FunctionSig != nil {
		sig = uint32(*spec.FunctionSig) << 16
	}
	return BindingNumber(sig | binding.Offset)
}

// String returns the number as a lower-case hexadecimal Rust literal.
func (n BindingNumber) String() string {
	return fmt.Sprintf("0x%x", uint32(n))
}
