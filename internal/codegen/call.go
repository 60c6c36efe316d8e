package codegen

import (
	"github.com/skx/cc/internal/ast"
)

// genCall implements spec.md §4.3's "Call sequence": stage every argument
// onto the stack in reverse (rightmost first), then pop them off in
// left-to-right order into the first six integer argument registers and
// the first eight floating argument registers, set %al to the
// floating-register count for a variadic callee, 16-byte-align %rsp
// around the call with a temporary subq/addq pair, and leave the result
// in %rax/%xmm0.
func (g *Generator) genCall(v *ast.FuncCall) error {
	for i := len(v.Args) - 1; i >= 0; i-- {
		if err := g.genExpr(v.Args[i]); err != nil {
			return err
		}
		if isFloatType(v.Args[i].Ctype()) {
			g.pushFloat()
		} else {
			g.pushInt()
		}
	}

	intIdx, floatIdx := 0, 0
	for i := 0; i < len(v.Args); i++ {
		t := v.Args[i].Ctype()
		if isFloatType(t) {
			if floatIdx < 8 {
				g.popFloat(floatArgReg(floatIdx))
			}
			floatIdx++
		} else {
			if intIdx < 6 {
				// popInt always emits popq: the operand must be the
				// 64-bit register name regardless of the argument's
				// own width, else this generates e.g. "popq %esi".
				g.popInt(intArgReg(intIdx, 8))
			}
			intIdx++
		}
	}

	if v.Sig.Variadic {
		g.emit("\tmovl $%d, %%eax", floatIdx)
	}

	g.emit("\tmovq %%rsp, %%r10")
	g.emit("\tandq $15, %%r10")
	g.emit("\tsubq %%r10, %%rsp")
	// %r10 is caller-saved, so the adjustment is kept on the stack across
	// the call; the 8-byte pad keeps %rsp 16-byte aligned after the push.
	g.emit("\tsubq $8, %%rsp")
	g.emit("\tpushq %%r10")
	g.emit("\tcall %s", v.Name)
	g.emit("\tpopq %%r10")
	g.emit("\taddq $8, %%rsp")
	g.emit("\taddq %%r10, %%rsp")
	return nil
}
