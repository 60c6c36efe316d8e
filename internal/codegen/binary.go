package codegen

import (
	"fmt"

	"github.com/skx/cc/internal/ast"
)

func (g *Generator) genBinary(v *ast.Binary) error {
	switch v.Op {
	case ast.BComma:
		if err := g.genExpr(v.Left); err != nil {
			return err
		}
		return g.genExpr(v.Right)

	case ast.BAssign:
		return g.genAssign(v)

	case ast.BLogAnd, ast.BLogOr:
		return g.genLogical(v)

	case ast.BEq, ast.BNe, ast.BLt, ast.BGt, ast.BLe, ast.BGe:
		return g.genComparison(v)
	}

	lt := v.Left.Ctype()
	if lt.IsPointer() {
		return g.genPointerArith(v)
	}
	if isFloatType(lt) {
		return g.genFloatArith(v)
	}
	return g.genIntArith(v)
}

func (g *Generator) genAssign(v *ast.Binary) error {
	if deref, ok := v.Left.(*ast.Unary); ok && deref.Op == ast.UDeref {
		t := v.Ctype()
		if isFloatType(t) {
			if err := g.genExpr(v.Right); err != nil {
				return err
			}
			g.pushFloat()
			if err := g.genExpr(deref.Operand); err != nil {
				return err
			}
			g.emit("\tmovq %%rax, %%rcx")
			g.popFloat("%xmm0")
			g.emit("\tmovs%s %%xmm0, (%%rcx)", floatSuffix(t))
			return nil
		}
		if err := g.genExpr(v.Right); err != nil {
			return err
		}
		g.pushInt()
		if err := g.genExpr(deref.Operand); err != nil {
			return err
		}
		g.emit("\tmovq %%rax, %%rcx")
		g.popInt("%rax")
		size := t.Size
		if size < 4 {
			size = 4
		}
		g.emit("\tmov%s %s, (%%rcx)", intSuffixForSize(size), regName("a", size))
		return nil
	}

	variable, ok := v.Left.(*ast.Var)
	if !ok {
		return fmt.Errorf("codegen: assignment target is not a variable or dereference")
	}
	if err := g.genExpr(v.Right); err != nil {
		return err
	}
	g.storeToFrame(variable.Decl.Offset, variable.Ctype())
	return nil
}

// genLogical implements short-circuit && / ||, loading $1/$0 into %eax
// in the appropriate arm.
func (g *Generator) genLogical(v *ast.Binary) error {
	shortCircuit := g.newJumpLabel()
	done := g.newJumpLabel()

	if err := g.genExpr(v.Left); err != nil {
		return err
	}
	g.compareZero(v.Left.Ctype())
	if v.Op == ast.BLogAnd {
		g.emit("\tje %s", shortCircuit)
	} else {
		g.emit("\tjne %s", shortCircuit)
	}

	if err := g.genExpr(v.Right); err != nil {
		return err
	}
	g.compareZero(v.Right.Ctype())
	g.emit("\tsetne %%al")
	g.emit("\tmovzbl %%al, %%eax")
	g.emit("\tjmp %s", done)

	g.emit("%s:", shortCircuit)
	if v.Op == ast.BLogAnd {
		g.emit("\tmovl $0, %%eax")
	} else {
		g.emit("\tmovl $1, %%eax")
	}
	g.emit("%s:", done)
	return nil
}

var intCC = map[ast.BinaryOp]string{
	ast.BEq: "e", ast.BNe: "ne",
	ast.BLt: "l", ast.BGt: "g", ast.BLe: "le", ast.BGe: "ge",
}

// unsignedCC is used for pointer comparisons, which compare addresses.
var unsignedCC = map[ast.BinaryOp]string{
	ast.BEq: "e", ast.BNe: "ne",
	ast.BLt: "b", ast.BGt: "a", ast.BLe: "be", ast.BGe: "ae",
}

// floatCC is used for ucomiss/ucomisd-based comparisons; NaN results are
// unordered, and `==` uses setnp (not-parity) so NaN never compares equal
// while every other relation already treats unordered as false via the
// flags ucomis* sets. `<` and `<=` compare the operands in reverse order
// so they can use the same above/above-or-equal codes as `>` and `>=`.
var floatCC = map[ast.BinaryOp]string{
	ast.BEq: "np", ast.BNe: "ne",
	ast.BLt: "a", ast.BGt: "a", ast.BLe: "ae", ast.BGe: "ae",
}

func (g *Generator) genComparison(v *ast.Binary) error {
	lt := v.Left.Ctype()

	if isFloatType(lt) {
		if err := g.genExpr(v.Left); err != nil {
			return err
		}
		g.pushFloat()
		if err := g.genExpr(v.Right); err != nil {
			return err
		}
		g.emit("\tmovs%s %%xmm0, %%xmm1", floatSuffix(lt))
		g.popFloat("%xmm0")
		if v.Op == ast.BLt || v.Op == ast.BLe {
			g.emit("\tucomis%s %%xmm0, %%xmm1", floatSuffix(lt))
		} else {
			g.emit("\tucomis%s %%xmm1, %%xmm0", floatSuffix(lt))
		}
		g.emit("\tset%s %%al", floatCC[v.Op])
		g.emit("\tmovzbl %%al, %%eax")
		return nil
	}

	if err := g.genExpr(v.Left); err != nil {
		return err
	}
	g.pushInt()
	if err := g.genExpr(v.Right); err != nil {
		return err
	}
	g.emit("\tmovq %%rax, %%rcx")
	g.popInt("%rax")

	cc := intCC
	if lt.IsPointer() {
		cc = unsignedCC
	}
	if lt.Size == 8 {
		g.emit("\tcmpq %%rcx, %%rax")
	} else {
		g.emit("\tcmpl %%ecx, %%eax")
	}
	g.emit("\tset%s %%al", cc[v.Op])
	g.emit("\tmovzbl %%al, %%eax")
	return nil
}

// genPointerArith scales the integer operand by the pointee size, per
// spec.md §4.3's "Pointer arithmetic" rule and its §9 Open Question:
// non-power-of-two pointee sizes are handled by multiplication, not a
// shift that only happens to work for 1/4/8.
func (g *Generator) genPointerArith(v *ast.Binary) error {
	rt := v.Right.Ctype()

	if rt.IsPointer() {
		// ptr - ptr -> int, scaled down by the element size.
		if err := g.genExpr(v.Left); err != nil {
			return err
		}
		g.pushInt()
		if err := g.genExpr(v.Right); err != nil {
			return err
		}
		g.emit("\tmovq %%rax, %%rcx")
		g.popInt("%rax")
		g.emit("\tsubq %%rcx, %%rax")
		elemSize := v.Left.Ctype().Elem.Size
		emitDivByConst(g, elemSize)
		g.emit("\tmovl %%eax, %%eax")
		return nil
	}

	if err := g.genExpr(v.Left); err != nil {
		return err
	}
	g.pushInt()
	if err := g.genExpr(v.Right); err != nil {
		return err
	}
	elemSize := v.Left.Ctype().Elem.Size
	emitMulByConst(g, elemSize)
	g.emit("\tmovq %%rax, %%rcx")
	g.popInt("%rax")
	if v.Op == ast.BAdd {
		g.emit("\taddq %%rcx, %%rax")
	} else {
		g.emit("\tsubq %%rcx, %%rax")
	}
	return nil
}

// emitMulByConst scales %rax by n, using a shift when n is a power of
// two and an imulq otherwise.
func emitMulByConst(g *Generator, n int) {
	if shift, ok := log2PowerOfTwo(n); ok {
		if shift > 0 {
			g.emit("\tsalq $%d, %%rax", shift)
		}
		return
	}
	g.emit("\timulq $%d, %%rax, %%rax", n)
}

func emitDivByConst(g *Generator, n int) {
	if shift, ok := log2PowerOfTwo(n); ok {
		if shift > 0 {
			g.emit("\tsarq $%d, %%rax", shift)
		}
		return
	}
	g.emit("\tmovq $%d, %%rcx", n)
	g.emit("\tcqto")
	g.emit("\tidivq %%rcx")
}

func log2PowerOfTwo(n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	shift := 0
	for (1 << shift) < n {
		shift++
	}
	if (1 << shift) != n {
		return 0, false
	}
	return shift, true
}

func (g *Generator) genFloatArith(v *ast.Binary) error {
	t := v.Ctype()
	if err := g.genExpr(v.Left); err != nil {
		return err
	}
	g.pushFloat()
	if err := g.genExpr(v.Right); err != nil {
		return err
	}
	g.emit("\tmovs%s %%xmm0, %%xmm1", floatSuffix(t))
	g.popFloat("%xmm0")

	switch v.Op {
	case ast.BAdd:
		g.emit("\tadds%s %%xmm1, %%xmm0", floatSuffix(t))
	case ast.BSub:
		g.emit("\tsubs%s %%xmm1, %%xmm0", floatSuffix(t))
	case ast.BMul:
		g.emit("\tmuls%s %%xmm1, %%xmm0", floatSuffix(t))
	case ast.BDiv:
		g.emit("\tdivs%s %%xmm1, %%xmm0", floatSuffix(t))
	default:
		return fmt.Errorf("codegen: unsupported floating operator")
	}
	return nil
}

// genIntArith implements spec.md §4.3's "Integer binary" template: emit
// left, push, emit right, pop into %rcx, then combine with left/right
// order adjusted per operator so the result ends up in %eax/%rax. 8-byte
// division uses cqto/idivq (spec.md §9 Open Questions), 4-byte uses
// cltd/idivl.
func (g *Generator) genIntArith(v *ast.Binary) error {
	t := v.Ctype()
	size := t.Size
	if size < 4 {
		size = 4
	}
	suf := intSuffixForSize(size)

	switch v.Op {
	case ast.BAdd, ast.BMul, ast.BBitAnd, ast.BBitOr, ast.BBitXor:
		if err := g.genExpr(v.Left); err != nil {
			return err
		}
		g.pushInt()
		if err := g.genExpr(v.Right); err != nil {
			return err
		}
		g.emit("\tmov%s %s, %s", suf, regName("a", size), regName("c", size))
		g.popInt("%rax")
		switch v.Op {
		case ast.BAdd:
			g.emit("\tadd%s %s, %s", suf, regName("c", size), regName("a", size))
		case ast.BMul:
			g.emit("\timul%s %s, %s", suf, regName("c", size), regName("a", size))
		case ast.BBitAnd:
			g.emit("\tand%s %s, %s", suf, regName("c", size), regName("a", size))
		case ast.BBitOr:
			g.emit("\tor%s %s, %s", suf, regName("c", size), regName("a", size))
		case ast.BBitXor:
			g.emit("\txor%s %s, %s", suf, regName("c", size), regName("a", size))
		}
		return nil

	case ast.BSub, ast.BShl, ast.BShr:
		if err := g.genExpr(v.Right); err != nil {
			return err
		}
		g.pushInt()
		if err := g.genExpr(v.Left); err != nil {
			return err
		}
		g.popInt("%rcx")
		switch v.Op {
		case ast.BSub:
			g.emit("\tsub%s %s, %s", suf, regName("c", size), regName("a", size))
		case ast.BShl:
			g.emit("\tsal%s %%cl, %s", suf, regName("a", size))
		case ast.BShr:
			g.emit("\tsar%s %%cl, %s", suf, regName("a", size))
		}
		return nil

	case ast.BDiv, ast.BMod:
		if err := g.genExpr(v.Right); err != nil {
			return err
		}
		g.pushInt()
		if err := g.genExpr(v.Left); err != nil {
			return err
		}
		g.popInt("%rcx")
		if size == 8 {
			g.emit("\tcqto")
			g.emit("\tidivq %%rcx")
		} else {
			g.emit("\tcltd")
			g.emit("\tidivl %%ecx")
		}
		if v.Op == ast.BMod {
			g.emit("\tmov%s %s, %s", suf, regName("d", size), regName("a", size))
		}
		return nil
	}
	return fmt.Errorf("codegen: unsupported integer operator")
}
