package codegen

import (
	"fmt"

	"github.com/skx/cc/internal/ast"
	"github.com/skx/cc/internal/ctype"
)

// genCompoundStmt implements spec.md §4.3's per-block rule: collect this
// block's own local declarations (not nested blocks' — those manage
// their own slice on their own entry/exit), assign offsets, bump %rsp by
// exactly that many bytes, emit the statements, then restore %rsp and
// offset.
func (g *Generator) genCompoundStmt(cs *ast.CompoundStmt) error {
	saved := g.offset
	for _, d := range localDeclsOf(cs.Stmts) {
		g.assignOffset(d)
	}
	frame := alignUp(g.offset-saved, 8)
	if frame > 0 {
		g.emit("\tsubq $%d, %%rsp", frame)
	}
	for _, s := range cs.Stmts {
		if err := g.genStmt(s); err != nil {
			return err
		}
	}
	if frame > 0 {
		g.emit("\taddq $%d, %%rsp", frame)
	}
	g.offset = saved
	return nil
}

func (g *Generator) genStmt(n ast.Node) error {
	switch v := n.(type) {
	case *ast.EmptyStmt:
		return nil
	case *ast.ExprStmt:
		return g.genExpr(v.Expr)
	case *ast.CompoundStmt:
		return g.genCompoundStmt(v)
	case *ast.VarDecl:
		return nil // slot already reserved by the enclosing block's rsp bump
	case *ast.VarInit:
		return g.genVarInit(v)
	case *ast.ArrayInit:
		return g.genArrayInit(v)
	case *ast.DeclList:
		for _, d := range v.Decls {
			if err := g.genStmt(d); err != nil {
				return err
			}
		}
		return nil
	case *ast.If:
		return g.genIf(v)
	case *ast.For:
		return g.genFor(v)
	case *ast.While:
		return g.genWhile(v)
	case *ast.DoWhile:
		return g.genDoWhile(v)
	case *ast.Return:
		return g.genReturn(v)
	default:
		return fmt.Errorf("codegen: unsupported statement node %T", n)
	}
}

func (g *Generator) genVarInit(v *ast.VarInit) error {
	if err := g.genExpr(v.Init); err != nil {
		return err
	}
	g.storeToFrame(v.Target.Offset, v.Target.Ctype())
	return nil
}

// storeToFrame stores the value currently in %rax/%xmm0 into the frame
// slot at -offset(%rbp).
func (g *Generator) storeToFrame(offset int, t *ctype.Type) {
	if isFloatType(t) {
		g.emit("\tmovs%s %%xmm0, -%d(%%rbp)", floatSuffix(t), offset)
		return
	}
	size := t.Size
	if size < 4 {
		size = 4
	}
	g.emit("\tmov%s %s, -%d(%%rbp)", intSuffixForSize(size), regName("a", size), offset)
}

// loadFromFrame loads the frame slot at -offset(%rbp) into %rax/%xmm0.
func (g *Generator) loadFromFrame(offset int, t *ctype.Type) {
	if t.IsArray() {
		g.emit("\tleaq -%d(%%rbp), %%rax", offset)
		return
	}
	if isFloatType(t) {
		g.emit("\tmovs%s -%d(%%rbp), %%xmm0", floatSuffix(t), offset)
		return
	}
	size := t.Size
	if size < 4 {
		size = 4
	}
	if size == 4 && t.Kind == ctype.Int {
		g.emit("\tmovl -%d(%%rbp), %%eax", offset)
		return
	}
	if size == 1 {
		g.emit("\tmovzbl -%d(%%rbp), %%eax", offset)
		return
	}
	g.emit("\tmov%s -%d(%%rbp), %s", intSuffixForSize(size), offset, regName("a", size))
}

func (g *Generator) genArrayInit(v *ast.ArrayInit) error {
	arr := v.Target.Ctype()
	elemSize := arr.Elem.Size
	base := v.Target.Offset // -base(%rbp) is the lowest address of the slot
	// Element i lives at -(base - i*elemSize)(%rbp): element 0 at the
	// lowest address of the slot, matching original_source's descending
	// offset allocation order for array elements.
	for i := 0; i < arr.Len; i++ {
		elemOffset := base - i*elemSize
		if i < len(v.Elems) {
			if err := g.genExpr(v.Elems[i]); err != nil {
				return err
			}
			g.storeToFrame(elemOffset, arr.Elem)
		} else {
			g.zeroFrame(elemOffset, arr.Elem)
		}
	}
	return nil
}

func (g *Generator) zeroFrame(offset int, t *ctype.Type) {
	if isFloatType(t) {
		g.emit("\tpxor %%xmm0, %%xmm0")
		g.emit("\tmovs%s %%xmm0, -%d(%%rbp)", floatSuffix(t), offset)
		return
	}
	size := t.Size
	if size < 4 {
		size = 4
	}
	g.emit("\tmov%s $0, -%d(%%rbp)", intSuffixForSize(size), offset)
}

func (g *Generator) genIf(v *ast.If) error {
	if v.Else == nil {
		done := g.newJumpLabel()
		if err := g.genExpr(v.Cond); err != nil {
			return err
		}
		g.compareZero(v.Cond.Ctype())
		g.emit("\tje %s", done)
		if err := g.genStmt(v.Then); err != nil {
			return err
		}
		g.emit("%s:", done)
		return nil
	}

	elseLabel := g.newJumpLabel()
	done := g.newJumpLabel()
	if err := g.genExpr(v.Cond); err != nil {
		return err
	}
	g.compareZero(v.Cond.Ctype())
	g.emit("\tje %s", elseLabel)
	if err := g.genStmt(v.Then); err != nil {
		return err
	}
	g.emit("\tjmp %s", done)
	g.emit("%s:", elseLabel)
	if err := g.genStmt(v.Else); err != nil {
		return err
	}
	g.emit("%s:", done)
	return nil
}

// compareZero emits the comparison against zero used by control-flow
// conditions, leaving flags set for a subsequent je/jne.
func (g *Generator) compareZero(t *ctype.Type) {
	if isFloatType(t) {
		g.emit("\tpxor %%xmm1, %%xmm1")
		g.emit("\tucomis%s %%xmm1, %%xmm0", floatSuffix(t))
		return
	}
	size := t.Size
	if size < 4 {
		size = 4
	}
	g.emit("\tcmp%s $0, %s", intSuffixForSize(size), regName("a", size))
}

func (g *Generator) genFor(v *ast.For) error {
	saved := g.offset
	if v.Init != nil {
		for _, d := range localDeclsOf([]ast.Node{v.Init}) {
			g.assignOffset(d)
		}
	}
	frame := alignUp(g.offset-saved, 8)
	if frame > 0 {
		g.emit("\tsubq $%d, %%rsp", frame)
	}

	if v.Init != nil {
		if err := g.genStmt(v.Init); err != nil {
			return err
		}
	}

	test := g.newJumpLabel()
	loop := g.newJumpLabel()
	g.emit("\tjmp %s", test)
	g.emit("%s:", loop)
	if err := g.genStmt(v.Body); err != nil {
		return err
	}
	if v.Step != nil {
		if err := g.genExpr(v.Step); err != nil {
			return err
		}
	}
	g.emit("%s:", test)
	if v.Cond == nil {
		g.emit("\tjmp %s", loop)
	} else {
		if err := g.genExpr(v.Cond); err != nil {
			return err
		}
		g.compareZero(v.Cond.Ctype())
		g.emit("\tjne %s", loop)
	}

	if frame > 0 {
		g.emit("\taddq $%d, %%rsp", frame)
	}
	g.offset = saved
	return nil
}

func (g *Generator) genWhile(v *ast.While) error {
	test := g.newJumpLabel()
	loop := g.newJumpLabel()
	g.emit("\tjmp %s", test)
	g.emit("%s:", loop)
	if err := g.genStmt(v.Body); err != nil {
		return err
	}
	g.emit("%s:", test)
	if err := g.genExpr(v.Cond); err != nil {
		return err
	}
	g.compareZero(v.Cond.Ctype())
	g.emit("\tjne %s", loop)
	return nil
}

func (g *Generator) genDoWhile(v *ast.DoWhile) error {
	loop := g.newJumpLabel()
	g.emit("%s:", loop)
	if err := g.genStmt(v.Body); err != nil {
		return err
	}
	if err := g.genExpr(v.Cond); err != nil {
		return err
	}
	g.compareZero(v.Cond.Ctype())
	g.emit("\tjne %s", loop)
	return nil
}

func (g *Generator) genReturn(v *ast.Return) error {
	if v.Expr != nil {
		if err := g.genExpr(v.Expr); err != nil {
			return err
		}
	}
	g.emit("\tleave")
	g.emit("\tret")
	return nil
}
