package bindgen

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// FileOptions controls the parts of a generated file that surround the
// bindings themselves.
type FileOptions struct {
	// Header, if set, makes GenerateFile begin with a comment block naming
	// the generator version and quoting Source.
	Header  bool
	Version string
	Source  []byte
}

const filePrologue = "#![no_std]\nextern crate core;\n"

// The target has no unwinding support, so panicking is undefined behavior
// and the handler exists only to satisfy the compiler.
const filePanicHandler = `
#[panic_handler]
fn panic(_info: &core::panic::PanicInfo) -> ! {
    unsafe { ::core::hint::unreachable_unchecked() }
}
`

// GenerateFile renders a complete no_std source file with one function per
// binding, in specification order.
func GenerateFile(logger hclog.Logger, spec *Spec, opts FileOptions) string {
	logger = orNullLogger(logger)

	var w strings.Builder
	if opts.Header {
		logger.Debug("adding header")
		writeHeader(&w, opts)
	}

	logger.Debug("adding no_std attribute")
	w.WriteString(filePrologue)

	for i := range spec.Bindings {
		w.WriteString(GenerateBinding(logger, spec, &spec.Bindings[i]))
	}

	logger.Debug("adding panic handler, this is just for the compiler, it should never be called")
	w.WriteString(filePanicHandler)

	return w.String()
}

func writeHeader(w *strings.Builder, opts FileOptions) {
	w.WriteString("//! Bindgen Generated File, do not edit by hand!\n")
	fmt.Fprintf(w, "//! Bindgen Version: %s\n", opts.Version)
	w.WriteString("//! Bindgen Spec:\n")
	src := strings.TrimRight(string(opts.Source), "\n")
	if src == "" {
		return
	}
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			w.WriteString("//!\n")
			continue
		}
		fmt.Fprintf(w, "//! %s\n", line)
	}
}

// GenerateBinding renders the extern function for a single binding.
//
// Diagnostic output for the binding goes to a logger derived from the given
// one and named after the binding; the given logger itself is not changed.
func GenerateBinding(logger hclog.Logger, spec *Spec, binding *Binding) string {
	logger = orNullLogger(logger)
	logger.Debug("generating binding", "name", binding.Name)

	log := logger.ResetNamed(bindingLabel(binding.Name))
	fn := newRustFunc(log, spec, binding)

	var w strings.Builder
	fn.render(&w)

	log.Debug("binding generation complete")
	return w.String()
}

// GenerateInlineAsm renders the body statements that perform the interrupt
// call for a binding, leaving the raw result in a local named _ret.
//
// The generated code is unsafe: if the binding doesn't match what the
// interrupt handler actually expects then calling it is undefined behavior.
func GenerateInlineAsm(logger hclog.Logger, spec *Spec, binding *Binding) string {
	logger = orNullLogger(logger)
	asm := newAsmBlock(logger, spec, binding, PackBindingNumber(spec, binding))

	var w strings.Builder
	asm.render(&w)
	return w.String()
}

type rustParam struct {
	Name string
	Type string
}

// rustFunc is an extern function wrapping a single interrupt call.
type rustFunc struct {
	Attrs  []string
	Doc    string
	Name   string
	Params []rustParam
	Ret    string
	Asm    *asmBlock

	// Mask is the binding number that was loaded into the dispatch
	// register. The raw result is masked with it on return.
	Mask BindingNumber
}

func newRustFunc(log hclog.Logger, spec *Spec, binding *Binding) *rustFunc {
	number := PackBindingNumber(spec, binding)

	fn := &rustFunc{
		Attrs: []string{"inline(never)", "no_mangle"},
		Name:  binding.Name,
		Ret:   binding.Ret,
		Mask:  number,
	}
	log.Debug("adding attributes", "attrs", strings.Join(fn.Attrs, ", "))

	fn.Doc = fmt.Sprintf(
		`Calls the Function "%s" with the arguments "%s".`,
		binding.Name, strings.Join(binding.ArgNames(), ", "),
	)
	log.Debug("adding documentation", "doc", fn.Doc)

	for _, arg := range binding.Args {
		log.Debug("adding argument", "name", arg.Name, "type", arg.Ty)
		fn.Params = append(fn.Params, rustParam{Name: arg.Name, Type: arg.Ty})
	}

	fn.Asm = newAsmBlock(log, spec, binding, number)
	return fn
}

func (fn *rustFunc) render(w *strings.Builder) {
	for _, attr := range fn.Attrs {
		fmt.Fprintf(w, "#[%s]\n", attr)
	}
	fmt.Fprintf(w, "#[doc = %s]\n", rustStringLiteral(fn.Doc))

	fmt.Fprintf(w, "pub unsafe extern \"C\" fn %s(", fn.Name)
	for i, param := range fn.Params {
		if i > 0 {
			w.WriteString(", ")
		}
		fmt.Fprintf(w, "%s: %s", param.Name, param.Type)
	}
	fmt.Fprintf(w, ") -> %s {\n", fn.Ret)

	fn.Asm.render(w)

	fmt.Fprintf(w, "    return %s & %s;\n", fn.Asm.RetVar, fn.Mask)
	w.WriteString("}\n")
}

type asmOperand struct {
	Reg  string
	Expr string
}

// asmBlock is a single asm! invocation. Its operands are always rendered
// as the selector input, then the argument inputs in declaration order, then
// the late output, so the dispatch register is only reused for the result
// after the interrupt has returned.
type asmBlock struct {
	RetVar   string
	RetType  string
	Template string
	Selector asmOperand
	Inputs   []asmOperand
	Result   asmOperand
	Options  []string
}

func newAsmBlock(log hclog.Logger, spec *Spec, binding *Binding, number BindingNumber) *asmBlock {
	const retVar = "_ret"

	a := &asmBlock{
		RetVar:  retVar,
		RetType: binding.Ret,
		Options: []string{"nostack", "nomem", "raw"},
	}

	a.Template = fmt.Sprintf("int 0x%x", spec.InterruptNumber)
	log.Debug("adding interrupt", "instruction", a.Template)

	a.Selector = asmOperand{Reg: spec.FunctionRegister, Expr: number.String()}
	log.Debug("adding function register", "reg", spec.FunctionRegister, "binding_number", number)

	for _, arg := range binding.Args {
		log.Debug("adding argument operand", "name", arg.Name, "reg", arg.Reg)
		a.Inputs = append(a.Inputs, asmOperand{Reg: arg.Reg, Expr: arg.Name})
	}

	a.Result = asmOperand{Reg: spec.FunctionRegister, Expr: retVar}
	log.Debug("adding lateout register", "reg", spec.FunctionRegister)
	log.Debug("adding options", "options", strings.Join(a.Options, ", "))

	return a
}

func (a *asmBlock) render(w *strings.Builder) {
	fmt.Fprintf(w, "    let mut %s: %s;\n", a.RetVar, a.RetType)
	w.WriteString("    ::core::arch::asm!(\n")
	fmt.Fprintf(w, "    %s,\n", rustStringLiteral(a.Template))
	fmt.Fprintf(w, "    in(%s) %s,\n", rustStringLiteral(a.Selector.Reg), a.Selector.Expr)
	for _, op := range a.Inputs {
		fmt.Fprintf(w, "    in(%s) %s,\n", rustStringLiteral(op.Reg), op.Expr)
	}
	fmt.Fprintf(w, "    lateout(%s) %s,\n", rustStringLiteral(a.Result.Reg), a.Result.Expr)
	fmt.Fprintf(w, "    options(%s)\n", strings.Join(a.Options, ", "))
	w.WriteString("    );\n")
}

func orNullLogger(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}
