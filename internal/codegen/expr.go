package codegen

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/skx/cc/internal/ast"
	"github.com/skx/cc/internal/ctype"
)

// genExpr emits n and leaves its result in %rax (integer/pointer) or
// %xmm0 (floating), per spec.md §4.3's canonical-location convention.
func (g *Generator) genExpr(n ast.Node) error {
	switch v := n.(type) {
	case *ast.Constant:
		return g.genConstant(v)
	case *ast.String:
		return g.genString(v)
	case *ast.Var:
		g.loadFromFrame(v.Decl.Offset, v.Ctype())
		return nil
	case *ast.Unary:
		return g.genUnary(v)
	case *ast.Postfix:
		return g.genPostfix(v)
	case *ast.Binary:
		return g.genBinary(v)
	case *ast.Ternary:
		return g.genTernary(v)
	case *ast.ArithConv:
		return g.genArithConv(v)
	case *ast.Cast:
		// original_source's emit_cast is an empty function; this
		// subset's grammar never constructs a Cast node (see its doc
		// comment in package ast), so this arm exists only to keep the
		// dispatch total.
		return g.genExpr(v.Expr)
	case *ast.FuncCall:
		return g.genCall(v)
	default:
		return fmt.Errorf("codegen: unsupported expression node %T", n)
	}
}

func (g *Generator) genConstant(c *ast.Constant) error {
	t := c.Ctype()
	if t.Kind == ctype.Int {
		g.emit("\tmovl $%d, %%eax", c.IVal)
		return nil
	}
	if c.Label == "" {
		c.Label = g.newDataLabel()
		if t.Kind == ctype.Float {
			g.rodata.WriteString(fmt.Sprintf("%s:\n\t.long %d\n", c.Label, math.Float32bits(float32(c.FVal))))
		} else {
			g.rodata.WriteString(fmt.Sprintf("%s:\n\t.quad %d\n", c.Label, int64(math.Float64bits(c.FVal))))
		}
	}
	g.emit("\tmovs%s %s(%%rip), %%xmm0", floatSuffix(t), c.Label)
	return nil
}

func (g *Generator) genString(s *ast.String) error {
	if s.Label == "" {
		s.Label = g.newDataLabel()
		g.rodata.WriteString(fmt.Sprintf("%s:\n\t.string %s\n", s.Label, quoteCString(s.Body)))
	}
	g.emit("\tleaq %s(%%rip), %%rax", s.Label)
	return nil
}

// quoteCString re-escapes an already-unescaped string body for emission
// into a `.string` directive, matching original_source's unescape().
func quoteCString(body string) string {
	var sb []byte
	sb = append(sb, '"')
	for _, r := range body {
		switch r {
		case '"':
			sb = append(sb, '\\', '"')
		case '\\':
			sb = append(sb, '\\', '\\')
		case '\n':
			sb = append(sb, '\\', 'n')
		case '\t':
			sb = append(sb, '\\', 't')
		default:
			sb = append(sb, []byte(string(r))...)
		}
	}
	sb = append(sb, '"')
	return string(sb)
}

func (g *Generator) pushInt() { g.emit("\tpushq %%rax") }
func (g *Generator) popInt(reg string) {
	g.emit("\tpopq %s", reg)
}

func (g *Generator) pushFloat() {
	g.emit("\tsubq $8, %%rsp")
	g.emit("\tmovsd %%xmm0, (%%rsp)")
}
func (g *Generator) popFloat(reg string) {
	g.emit("\tmovsd (%%rsp), %s", reg)
	g.emit("\taddq $8, %%rsp")
}

func (g *Generator) genUnary(v *ast.Unary) error {
	switch v.Op {
	case ast.UAddr:
		switch op := v.Operand.(type) {
		case *ast.Var:
			g.emit("\tleaq -%d(%%rbp), %%rax", op.Decl.Offset)
			return nil
		case *ast.Unary:
			// &*p cancels down to evaluating p itself.
			if op.Op == ast.UDeref {
				return g.genExpr(op.Operand)
			}
		}
		return fmt.Errorf("codegen: unsupported operand to unary '&'")

	case ast.UDeref:
		if err := g.genExpr(v.Operand); err != nil {
			return err
		}
		t := v.Ctype()
		if isFloatType(t) {
			g.emit("\tmovs%s (%%rax), %%xmm0", floatSuffix(t))
		} else if t.IsArray() {
			// decay: address is already in %rax
		} else {
			size := t.Size
			if size < 4 {
				size = 4
			}
			if t.Size == 1 {
				g.emit("\tmovzbl (%%rax), %%eax")
			} else {
				g.emit("\tmov%s (%%rax), %s", intSuffixForSize(size), regName("a", size))
			}
		}
		return nil

	case ast.UNeg:
		if err := g.genExpr(v.Operand); err != nil {
			return err
		}
		t := v.Ctype()
		if isFloatType(t) {
			label := g.signMaskLabel(t)
			g.emit("\txorp%s %s(%%rip), %%xmm0", lo.Ternary(t.Kind == ctype.Float, "s", "d"), label)
			return nil
		}
		g.emit("\tnegl %%eax")
		return nil

	case ast.UPlus:
		return g.genExpr(v.Operand)

	case ast.UBitNot:
		if err := g.genExpr(v.Operand); err != nil {
			return err
		}
		g.emit("\tnotl %%eax")
		return nil

	case ast.UNot:
		if err := g.genExpr(v.Operand); err != nil {
			return err
		}
		g.compareZero(v.Operand.Ctype())
		g.emit("\tsete %%al")
		g.emit("\tmovzbl %%al, %%eax")
		return nil
	}
	return fmt.Errorf("codegen: unsupported unary operator")
}

// signMaskLabel returns (creating once) the .rodata label for the
// sign-bit mask used to negate a float/double via xorps/xorpd, per
// spec.md §4.3.
func (g *Generator) signMaskLabel(t *ctype.Type) string {
	if t.Kind == ctype.Float {
		if g.negF32Label == "" {
			g.negF32Label = g.newDataLabel()
			g.rodata.WriteString(fmt.Sprintf("\t.align 16\n%s:\n\t.long 2147483648\n\t.long 0\n\t.long 0\n\t.long 0\n", g.negF32Label))
		}
		return g.negF32Label
	}
	if g.negF64Label == "" {
		g.negF64Label = g.newDataLabel()
		g.rodata.WriteString(fmt.Sprintf("\t.align 16\n%s:\n\t.quad 9223372036854775808\n\t.quad 0\n", g.negF64Label))
	}
	return g.negF64Label
}

// floatOneLabel returns (creating once) the .rodata reference to the
// constant 1.0 in t's width, used by float/double ++/--: the double form
// sits at the label and the float form 8 bytes after it.
func (g *Generator) floatOneLabel(t *ctype.Type) string {
	if g.one64Label == "" {
		g.one64Label = g.newDataLabel()
		g.rodata.WriteString(fmt.Sprintf("%s:\n\t.quad %d\n\t.long %d\n", g.one64Label, int64(math.Float64bits(1.0)), math.Float32bits(1.0)))
	}
	if t.Kind == ctype.Float {
		return g.one64Label + "+8"
	}
	return g.one64Label
}

func (g *Generator) genPostfix(v *ast.Postfix) error {
	t := v.Ctype()

	if deref, ok := v.Operand.(*ast.Unary); ok && deref.Op == ast.UDeref {
		return g.genPostfixDeref(v, deref, t)
	}

	if isFloatType(t) {
		if err := g.genExpr(v.Operand); err != nil {
			return err
		}
		g.emit("\tmovs%s %%xmm0, %%xmm1", floatSuffix(t))
		g.emit("\tmovs%s %s(%%rip), %%xmm0", floatSuffix(t), g.floatOneLabel(t))
		if v.Op == ast.PInc {
			g.emit("\tadds%s %%xmm1, %%xmm0", floatSuffix(t))
		} else {
			g.emit("\tmovs%s %%xmm1, %%xmm2", floatSuffix(t))
			g.emit("\tsubs%s %%xmm0, %%xmm2", floatSuffix(t))
			g.emit("\tmovs%s %%xmm2, %%xmm0", floatSuffix(t))
		}
		variable := v.Operand.(*ast.Var)
		g.storeToFrame(variable.Decl.Offset, t)
		if !v.Prefix {
			// post-form's result is the value before the update.
			g.emit("\tmovs%s %%xmm1, %%xmm0", floatSuffix(t))
		}
		return nil
	}

	op := v.Operand.(*ast.Var)
	g.loadFromFrame(op.Decl.Offset, t)
	step := 1
	if t.IsPointer() {
		step = t.Elem.Size
	}
	// Pointers are a full 8 bytes; a 32-bit stash would truncate the
	// address and hand back a corrupt old value for p++/p--.
	if t.Size == 8 {
		g.emit("\tmovq %%rax, %%rcx")
	} else {
		g.emit("\tmovl %%eax, %%ecx")
	}
	if v.Op == ast.PInc {
		g.emit("\taddq $%d, %%rax", step)
	} else {
		g.emit("\tsubq $%d, %%rax", step)
	}
	g.storeToFrame(op.Decl.Offset, t)
	if !v.Prefix {
		if t.Size == 8 {
			g.emit("\tmovq %%rcx, %%rax")
		} else {
			g.emit("\tmovl %%ecx, %%eax")
		}
	}
	return nil
}

// genPostfixDeref implements ++/-- on a `*p` lvalue: evaluate the pointer
// once into %rcx, load the pointee through it, bump by the pointee's step
// (or 1.0 for floats), store back through the same address, then leave
// either the old or new value in %rax/%xmm0 depending on Prefix.
func (g *Generator) genPostfixDeref(v *ast.Postfix, deref *ast.Unary, t *ctype.Type) error {
	if err := g.genExpr(deref.Operand); err != nil {
		return err
	}
	g.emit("\tmovq %%rax, %%rcx")

	if isFloatType(t) {
		g.emit("\tmovs%s (%%rcx), %%xmm1", floatSuffix(t))
		g.emit("\tmovs%s %s(%%rip), %%xmm0", floatSuffix(t), g.floatOneLabel(t))
		if v.Op == ast.PInc {
			g.emit("\tadds%s %%xmm1, %%xmm0", floatSuffix(t))
		} else {
			g.emit("\tmovs%s %%xmm1, %%xmm2", floatSuffix(t))
			g.emit("\tsubs%s %%xmm0, %%xmm2", floatSuffix(t))
			g.emit("\tmovs%s %%xmm2, %%xmm0", floatSuffix(t))
		}
		g.emit("\tmovs%s %%xmm0, (%%rcx)", floatSuffix(t))
		if !v.Prefix {
			g.emit("\tmovs%s %%xmm1, %%xmm0", floatSuffix(t))
		}
		return nil
	}

	size := t.Size
	if size < 4 {
		size = 4
	}
	if t.Size == 1 {
		g.emit("\tmovzbl (%%rcx), %%eax")
	} else {
		g.emit("\tmov%s (%%rcx), %s", intSuffixForSize(size), regName("a", size))
	}
	g.emit("\tmov%s %s, %s", intSuffixForSize(size), regName("a", size), regName("d", size))
	step := 1
	if t.IsPointer() {
		step = t.Elem.Size
	}
	if v.Op == ast.PInc {
		g.emit("\taddq $%d, %%rax", step)
	} else {
		g.emit("\tsubq $%d, %%rax", step)
	}
	g.emit("\tmov%s %s, (%%rcx)", intSuffixForSize(size), regName("a", size))
	if !v.Prefix {
		g.emit("\tmov%s %s, %s", intSuffixForSize(size), regName("d", size), regName("a", size))
	}
	return nil
}

func (g *Generator) genArithConv(v *ast.ArithConv) error {
	if err := g.genExpr(v.Expr); err != nil {
		return err
	}
	from, to := v.Expr.Ctype(), v.Ctype()
	switch {
	case from == to:
		return nil
	case from.Kind == ctype.Int && to.Kind == ctype.Float:
		g.emit("\tcvtsi2ssl %%eax, %%xmm0")
	case from.Kind == ctype.Int && to.Kind == ctype.Double:
		g.emit("\tcvtsi2sdl %%eax, %%xmm0")
	case from.Kind == ctype.Float && to.Kind == ctype.Double:
		// Scalar single-to-double, not the packed cvtps2pd the original
		// mistakenly used (spec.md §9 Open Questions).
		g.emit("\tcvtss2sd %%xmm0, %%xmm0")
	case from.Kind == ctype.Double && to.Kind == ctype.Float:
		g.emit("\tcvtsd2ss %%xmm0, %%xmm0")
	case from.Kind == ctype.Float && to.Kind == ctype.Int:
		g.emit("\tcvttss2si %%xmm0, %%eax")
	case from.Kind == ctype.Double && to.Kind == ctype.Int:
		g.emit("\tcvttsd2si %%xmm0, %%eax")
	}
	return nil
}

func (g *Generator) genTernary(v *ast.Ternary) error {
	elseLabel := g.newJumpLabel()
	done := g.newJumpLabel()
	if err := g.genExpr(v.Cond); err != nil {
		return err
	}
	g.compareZero(v.Cond.Ctype())
	g.emit("\tje %s", elseLabel)
	if err := g.genExpr(v.Then); err != nil {
		return err
	}
	g.emit("\tjmp %s", done)
	g.emit("%s:", elseLabel)
	if err := g.genExpr(v.Else); err != nil {
		return err
	}
	g.emit("%s:", done)
	return nil
}
