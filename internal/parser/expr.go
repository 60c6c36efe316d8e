package parser

import (
	"strconv"
	"strings"

	"github.com/skx/cc/internal/ast"
	"github.com/skx/cc/internal/ctype"
	"github.com/skx/cc/internal/sema"
	"github.com/skx/cc/internal/token"
)

// parseExpr parses the comma operator, the lowest-precedence level of
// spec.md's expression grammar.
func (p *Parser) parseExpr() (ast.Node, error) {
	left, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !t.IsPunct(token.COMMA) {
			return left, nil
		}
		p.next()
		right, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(ast.BComma, left, right, right.Ctype())
	}
}

var assignOps = map[token.Sub]ast.BinaryOp{
	token.ADD_ASSIGN: ast.BAdd,
	token.SUB_ASSIGN: ast.BSub,
	token.MUL_ASSIGN: ast.BMul,
	token.DIV_ASSIGN: ast.BDiv,
	token.MOD_ASSIGN: ast.BMod,
	token.AND_ASSIGN: ast.BBitAnd,
	token.OR_ASSIGN:  ast.BBitOr,
	token.XOR_ASSIGN: ast.BBitXor,
	token.SHL_ASSIGN: ast.BShl,
	token.SHR_ASSIGN: ast.BShr,
}

// parseAssignExpr implements spec.md's `assignment ::= conditional |
// unary assign-op assignment` and the compound-assignment desugaring
// `x op= y` -> `x = x op y` described in §4.2 rule 4 / §2 of SPEC_FULL.md.
func (p *Parser) parseAssignExpr() (ast.Node, error) {
	left, err := p.parseCondExpr()
	if err != nil {
		return nil, err
	}

	t, err := p.peek()
	if err != nil {
		return nil, err
	}

	if t.IsPunct(token.ASSIGN) {
		p.next()
		if !sema.IsLvalue(left) {
			return nil, p.errorf(t, "lvalue required as left operand of assignment")
		}
		right, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		if !assignCompatible(left.Ctype(), right.Ctype()) {
			return nil, p.errorf(t, "assignment type mismatch: cannot assign '%s' to '%s'", right.Ctype(), left.Ctype())
		}
		right = convertAssign(right, left.Ctype())
		return ast.NewBinary(ast.BAssign, left, right, left.Ctype()), nil
	}

	if op, ok := assignOps[t.Sub]; ok && t.Kind == token.Punctuator {
		p.next()
		if !sema.IsLvalue(left) {
			return nil, p.errorf(t, "lvalue required as left operand of assignment")
		}
		right, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		desugared, err := p.buildBinary(t, op, left, right)
		if err != nil {
			return nil, err
		}
		// The declared result type of a compound assignment is the
		// lvalue's own type, not the converted common type (SPEC_FULL.md
		// §2), so assignCompatible/convertAssign run again here.
		if !assignCompatible(left.Ctype(), desugared.Ctype()) {
			return nil, p.errorf(t, "assignment type mismatch: cannot assign '%s' to '%s'", desugared.Ctype(), left.Ctype())
		}
		desugared = convertAssign(desugared, left.Ctype())
		return ast.NewBinary(ast.BAssign, left, desugared, left.Ctype()), nil
	}

	return left, nil
}

// parseCondExpr implements the ternary conditional.
func (p *Parser) parseCondExpr() (ast.Node, error) {
	cond, err := p.parseLogOr()
	if err != nil {
		return nil, err
	}
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if !t.IsPunct(token.QUESTION) {
		return cond, nil
	}
	p.next()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(token.COLON); err != nil {
		return nil, err
	}
	els, err := p.parseCondExpr()
	if err != nil {
		return nil, err
	}

	then, els, result, err := p.ternaryType(t, then, els)
	if err != nil {
		return nil, err
	}
	return ast.NewTernary(cond, then, els, result), nil
}

// ternaryType applies spec.md §4.2's conditional-expression typing rule.
// When both arms are arithmetic it also wraps each in an ast.ArithConv to
// their common type, mirroring buildComparison/buildAdditive, so codegen
// never has to reconcile an int arm against a double consumer.
func (p *Parser) ternaryType(t *token.Token, then, els ast.Node) (ast.Node, ast.Node, *ctype.Type, error) {
	a, b := then.Ctype(), els.Ctype()
	switch {
	case a.IsArith() && b.IsArith():
		common := ctype.ArithConv(a, b)
		return sema.Convert(then, common), sema.Convert(els, common), common, nil
	case a.IsPointer() && ctype.Same(a, b):
		return then, els, a, nil
	case a.IsPointer() && sema.IsNull(els):
		return then, els, a, nil
	case b.IsPointer() && sema.IsNull(then):
		return then, els, b, nil
	default:
		return nil, nil, nil, p.errorf(t, "incompatible operand types in conditional expression")
	}
}

// binLevel is one precedence level: the punctuator set recognized at this
// level, each mapped to its BinaryOp, and the next-higher-precedence
// parse function to call for operands.
type binLevel struct {
	ops  map[token.Sub]ast.BinaryOp
	next func(*Parser) (ast.Node, error)
}

func leftAssoc(p *Parser, lvl binLevel) (ast.Node, error) {
	left, err := lvl.next(p)
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		op, ok := lvl.ops[t.Sub]
		if !ok || t.Kind != token.Punctuator {
			return left, nil
		}
		p.next()
		right, err := lvl.next(p)
		if err != nil {
			return nil, err
		}
		left, err = p.buildBinary(t, op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseLogOr() (ast.Node, error) {
	return leftAssoc(p, binLevel{map[token.Sub]ast.BinaryOp{token.LOR: ast.BLogOr}, (*Parser).parseLogAnd})
}
func (p *Parser) parseLogAnd() (ast.Node, error) {
	return leftAssoc(p, binLevel{map[token.Sub]ast.BinaryOp{token.LAND: ast.BLogAnd}, (*Parser).parseBitOr})
}
func (p *Parser) parseBitOr() (ast.Node, error) {
	return leftAssoc(p, binLevel{map[token.Sub]ast.BinaryOp{token.PIPE: ast.BBitOr}, (*Parser).parseBitXor})
}
func (p *Parser) parseBitXor() (ast.Node, error) {
	return leftAssoc(p, binLevel{map[token.Sub]ast.BinaryOp{token.CARET: ast.BBitXor}, (*Parser).parseBitAnd})
}
func (p *Parser) parseBitAnd() (ast.Node, error) {
	return leftAssoc(p, binLevel{map[token.Sub]ast.BinaryOp{token.AMP: ast.BBitAnd}, (*Parser).parseEquality})
}
func (p *Parser) parseEquality() (ast.Node, error) {
	return leftAssoc(p, binLevel{map[token.Sub]ast.BinaryOp{token.EQ: ast.BEq, token.NE: ast.BNe}, (*Parser).parseRelational})
}
func (p *Parser) parseRelational() (ast.Node, error) {
	return leftAssoc(p, binLevel{map[token.Sub]ast.BinaryOp{
		token.LT: ast.BLt, token.GT: ast.BGt, token.LE: ast.BLe, token.GE: ast.BGe,
	}, (*Parser).parseShift})
}
func (p *Parser) parseShift() (ast.Node, error) {
	return leftAssoc(p, binLevel{map[token.Sub]ast.BinaryOp{token.SHL: ast.BShl, token.SHR: ast.BShr}, (*Parser).parseAdditive})
}
func (p *Parser) parseAdditive() (ast.Node, error) {
	return leftAssoc(p, binLevel{map[token.Sub]ast.BinaryOp{token.PLUS: ast.BAdd, token.MINUS: ast.BSub}, (*Parser).parseMultiplicative})
}
func (p *Parser) parseMultiplicative() (ast.Node, error) {
	return leftAssoc(p, binLevel{map[token.Sub]ast.BinaryOp{
		token.STAR: ast.BMul, token.SLASH: ast.BDiv, token.PERCENT: ast.BMod,
	}, (*Parser).parseCastExpr})
}

// parseCastExpr has no explicit C-style cast syntax in this subset's
// grammar (see ast.Cast's doc comment); it falls straight through to
// unary, exactly as original_source/src/parser.c's parse_cast_expr does.
func (p *Parser) parseCastExpr() (ast.Node, error) {
	return p.parseUnary()
}

var integerOnlyOps = map[ast.BinaryOp]bool{
	ast.BMod: true, ast.BShl: true, ast.BShr: true,
	ast.BBitAnd: true, ast.BBitOr: true, ast.BBitXor: true,
}

// buildBinary applies spec.md §4.2's typing rules 1-3 to construct a
// Binary node for op, inserting ArithConv nodes and pointer-arithmetic
// rewrites as needed.
func (p *Parser) buildBinary(t *token.Token, op ast.BinaryOp, left, right ast.Node) (ast.Node, error) {
	lt, rt := left.Ctype(), right.Ctype()

	switch op {
	case ast.BComma:
		return ast.NewBinary(op, left, right, rt), nil

	case ast.BLogOr, ast.BLogAnd:
		if !isScalar(lt) || !isScalar(rt) {
			return nil, p.errorf(t, "invalid operands to binary '%s' (have '%s' and '%s')", opText(op), lt, rt)
		}
		return ast.NewBinary(op, left, right, ctype.IntType), nil

	case ast.BEq, ast.BNe, ast.BLt, ast.BGt, ast.BLe, ast.BGe:
		return p.buildComparison(t, op, left, right)

	case ast.BAdd, ast.BSub:
		return p.buildAdditive(t, op, left, right)

	case ast.BMul, ast.BDiv:
		if !lt.IsArith() || !rt.IsArith() {
			return nil, p.errorf(t, "invalid operands to binary '%s' (have '%s' and '%s')", opText(op), lt, rt)
		}
		if op == ast.BDiv && sema.IsZero(right) {
			return nil, p.errorf(t, "division by zero")
		}
		common := ctype.ArithConv(lt, rt)
		return ast.NewBinary(op, sema.Convert(left, common), sema.Convert(right, common), common), nil

	default:
		if integerOnlyOps[op] {
			if !lt.IsInt() || !rt.IsInt() {
				return nil, p.errorf(t, "invalid operands to binary '%s' (have '%s' and '%s')", opText(op), lt, rt)
			}
			if op == ast.BMod && sema.IsZero(right) {
				return nil, p.errorf(t, "division by zero")
			}
			return ast.NewBinary(op, left, right, ctype.IntType), nil
		}
		return nil, p.errorf(t, "unsupported binary operator")
	}
}

func (p *Parser) buildAdditive(t *token.Token, op ast.BinaryOp, left, right ast.Node) (ast.Node, error) {
	lt, rt := left.Ctype(), right.Ctype()

	switch {
	case lt.IsArith() && rt.IsArith():
		common := ctype.ArithConv(lt, rt)
		return ast.NewBinary(op, sema.Convert(left, common), sema.Convert(right, common), common), nil

	case lt.IsPointer() && rt.IsInt():
		return ast.NewBinary(op, left, right, lt), nil

	case lt.IsInt() && rt.IsPointer() && op == ast.BAdd:
		// `int + ptr` rewrites to `ptr + int`.
		return ast.NewBinary(op, right, left, rt), nil

	case lt.IsPointer() && rt.IsPointer() && op == ast.BSub:
		if !ctype.Same(lt, rt) {
			return nil, p.errorf(t, "invalid operands to binary '-' (have '%s' and '%s')", lt, rt)
		}
		return ast.NewBinary(op, left, right, ctype.IntType), nil

	default:
		return nil, p.errorf(t, "invalid operands to binary '%s' (have '%s' and '%s')", opText(op), lt, rt)
	}
}

func (p *Parser) buildComparison(t *token.Token, op ast.BinaryOp, left, right ast.Node) (ast.Node, error) {
	lt, rt := left.Ctype(), right.Ctype()

	switch {
	case lt.IsArith() && rt.IsArith():
		common := ctype.ArithConv(lt, rt)
		return ast.NewBinary(op, sema.Convert(left, common), sema.Convert(right, common), ctype.IntType), nil

	case lt.IsPointer() && rt.IsPointer():
		if !ctype.Same(lt, rt) {
			return nil, p.errorf(t, "comparison between incompatible pointer types ('%s' and '%s')", lt, rt)
		}
		return ast.NewBinary(op, left, right, ctype.IntType), nil

	case lt.IsPointer() && sema.IsNull(right):
		return ast.NewBinary(op, left, right, ctype.IntType), nil
	case rt.IsPointer() && sema.IsNull(left):
		return ast.NewBinary(op, left, right, ctype.IntType), nil

	case lt.IsPointer() && rt.IsInt(), lt.IsInt() && rt.IsPointer():
		return nil, p.errorf(t, "comparison between pointer and integer ('%s' and '%s')", lt, rt)

	default:
		return nil, p.errorf(t, "invalid operands to comparison (have '%s' and '%s')", lt, rt)
	}
}

func isScalar(t *ctype.Type) bool { return t.IsArith() || t.IsPointer() }

func opText(op ast.BinaryOp) string {
	switch op {
	case ast.BAdd:
		return "+"
	case ast.BSub:
		return "-"
	case ast.BMul:
		return "*"
	case ast.BDiv:
		return "/"
	case ast.BMod:
		return "%"
	case ast.BShl:
		return "<<"
	case ast.BShr:
		return ">>"
	case ast.BBitAnd:
		return "&"
	case ast.BBitOr:
		return "|"
	case ast.BBitXor:
		return "^"
	case ast.BLogAnd:
		return "&&"
	case ast.BLogOr:
		return "||"
	case ast.BEq:
		return "=="
	case ast.BNe:
		return "!="
	case ast.BLt:
		return "<"
	case ast.BGt:
		return ">"
	case ast.BLe:
		return "<="
	case ast.BGe:
		return ">="
	}
	return "?"
}

// assignCompatible implements spec.md §4.2 rule 4: same type, arithmetic
// to arithmetic, any-pointer compatibility via ctype.Same, or a pointer
// target with an integer-zero source.
func assignCompatible(target, src *ctype.Type) bool {
	switch {
	case target == src:
		return true
	case target.IsArith() && src.IsArith():
		return true
	case target.IsPointer() && src.IsPointer():
		return ctype.Same(target, src)
	case target.IsPointer() && src.IsInt():
		return true
	default:
		return false
	}
}

func convertAssign(expr ast.Node, target *ctype.Type) ast.Node {
	if expr.Ctype() == target || target.IsPointer() {
		return expr
	}
	if target.IsArith() && expr.Ctype().IsArith() {
		return sema.Convert(expr, target)
	}
	return expr
}

// parseUnary implements spec.md §4.2 rule 6.
func (p *Parser) parseUnary() (ast.Node, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch {
	case t.IsPunct(token.INC), t.IsPunct(token.DEC):
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !sema.IsLvalue(operand) {
			return nil, p.errorf(t, "lvalue required as unary '%s' operand", punctOpText(t))
		}
		ot := operand.Ctype()
		if !ot.IsArith() && !ot.IsPointer() {
			return nil, p.errorf(t, "invalid operand to unary '%s' (have '%s')", punctOpText(t), ot)
		}
		op := ast.PInc
		if t.IsPunct(token.DEC) {
			op = ast.PDec
		}
		return ast.NewPrefix(op, operand, ot), nil

	case t.IsPunct(token.PLUS):
		p.next()
		operand, err := p.parseCastExpr()
		if err != nil {
			return nil, err
		}
		if !operand.Ctype().IsArith() {
			return nil, p.errorf(t, "invalid operand to unary '+' (have '%s')", operand.Ctype())
		}
		return ast.NewUnary(ast.UPlus, operand, operand.Ctype()), nil

	case t.IsPunct(token.MINUS):
		p.next()
		operand, err := p.parseCastExpr()
		if err != nil {
			return nil, err
		}
		if !operand.Ctype().IsArith() {
			return nil, p.errorf(t, "invalid operand to unary '-' (have '%s')", operand.Ctype())
		}
		return ast.NewUnary(ast.UNeg, operand, operand.Ctype()), nil

	case t.IsPunct(token.TILDE):
		p.next()
		operand, err := p.parseCastExpr()
		if err != nil {
			return nil, err
		}
		if !operand.Ctype().IsInt() {
			return nil, p.errorf(t, "invalid operand to unary '~' (have '%s')", operand.Ctype())
		}
		return ast.NewUnary(ast.UBitNot, operand, ctype.IntType), nil

	case t.IsPunct(token.NOT):
		p.next()
		operand, err := p.parseCastExpr()
		if err != nil {
			return nil, err
		}
		if !isScalar(operand.Ctype()) {
			return nil, p.errorf(t, "invalid operand to unary '!' (have '%s')", operand.Ctype())
		}
		return ast.NewUnary(ast.UNot, operand, ctype.IntType), nil

	case t.IsPunct(token.AMP):
		p.next()
		operand, err := p.parseCastExpr()
		if err != nil {
			return nil, err
		}
		if !sema.IsLvalue(operand) {
			return nil, p.errorf(t, "lvalue required as unary '&' operand")
		}
		return ast.NewUnary(ast.UAddr, operand, ctype.NewPointer(operand.Ctype())), nil

	case t.IsPunct(token.STAR):
		p.next()
		operand, err := p.parseCastExpr()
		if err != nil {
			return nil, err
		}
		if !operand.Ctype().IsPointer() {
			return nil, p.errorf(t, "invalid operand to unary '*' (have '%s')", operand.Ctype())
		}
		return ast.NewUnary(ast.UDeref, operand, operand.Ctype().Elem), nil

	default:
		return p.parsePostfix()
	}
}

func punctOpText(t *token.Token) string {
	for _, p := range token.Punctuators {
		if p.Sub == t.Sub {
			return p.Text
		}
	}
	return "?"
}

// parsePostfix implements postfix ++/-- and function calls.
func (p *Parser) parsePostfix() (ast.Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch {
		case t.IsPunct(token.INC), t.IsPunct(token.DEC):
			p.next()
			if !sema.IsLvalue(expr) {
				return nil, p.errorf(t, "lvalue required as unary '%s' operand", punctOpText(t))
			}
			et := expr.Ctype()
			if !et.IsArith() && !et.IsPointer() {
				return nil, p.errorf(t, "invalid operand to unary '%s' (have '%s')", punctOpText(t), et)
			}
			op := ast.PInc
			if t.IsPunct(token.DEC) {
				op = ast.PDec
			}
			expr = ast.NewPostfix(op, expr, et)
		default:
			return expr, nil
		}
	}
}

// parsePrimary implements `ident | number | char | string | '(' expr ')'`
// plus function-call recognition, which in this grammar only fires for a
// bare identifier immediately followed by '('.
func (p *Parser) parsePrimary() (ast.Node, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}

	switch t.Kind {
	case token.Number:
		return p.parseNumberLiteral(t)

	case token.Character:
		return ast.NewConstantInt(t.IVal), nil

	case token.String:
		return ast.NewString(t.Lit, ctype.NewPointer(ctype.CharType)), nil

	case token.Identifier:
		if nt, err := p.peek(); err != nil {
			return nil, err
		} else if nt.IsPunct(token.LPAREN) {
			return p.parseCall(t)
		}
		sym := p.env.Lookup(t.Lit)
		if sym == nil || sym.VarDecl == nil {
			return nil, p.errorf(t, "use of undeclared identifier '%s'", t.Lit)
		}
		return ast.NewVar(t.Lit, sym.VarDecl), nil

	case token.Punctuator:
		if t.Sub == token.LPAREN {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(token.RPAREN); err != nil {
				return nil, err
			}
			return expr, nil
		}
	}

	return nil, p.errorf(t, "unexpected token '%s'", t.Text())
}

// parseNumberLiteral decides, per spec.md §4.1, whether a numeric literal
// is an int, float or double: a bare digit sequence with no '.', 'e'/'E'
// or 'f'/'F' suffix is int; a trailing f/F makes it float; anything else
// with a fractional part or exponent is double.
func (p *Parser) parseNumberLiteral(t *token.Token) (ast.Node, error) {
	text := t.Lit
	isFloatSuffix := strings.HasSuffix(text, "f") || strings.HasSuffix(text, "F")
	body := text
	if isFloatSuffix {
		body = text[:len(text)-1]
	}
	hasDot := strings.ContainsAny(body, ".")
	hasExp := strings.ContainsAny(body, "eE")

	if !hasDot && !hasExp && !isFloatSuffix {
		n, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return nil, p.errorf(t, "invalid integer literal '%s'", text)
		}
		return ast.NewConstantInt(n), nil
	}

	f, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return nil, p.errorf(t, "invalid floating literal '%s'", text)
	}
	if isFloatSuffix {
		return ast.NewConstantFloat(ctype.FloatType, f), nil
	}
	return ast.NewConstantFloat(ctype.DoubleType, f), nil
}

// parseCall parses a function call `name '(' args ')'`, enforcing spec.md
// §4.2 rule 7 (argument count against the declared parameter list, with
// variadic tails accepted beyond the fixed prefix).
func (p *Parser) parseCall(name *token.Token) (ast.Node, error) {
	sym := p.env.Lookup(name.Lit)
	if sym == nil || (sym.FuncDecl == nil && sym.FuncDef == nil) {
		return nil, p.errorf(name, "call to undeclared function '%s'", name.Lit)
	}
	var sig *ctype.FuncSig
	if sym.FuncDecl != nil {
		sig = sym.FuncDecl.Sig
	} else {
		sig = sym.FuncDef.Sig
	}

	p.next() // '('
	var args []ast.Node
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t.IsPunct(token.RPAREN) {
			break
		}
		if len(args) > 0 {
			if _, err := p.expectPunct(token.COMMA); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	closeParen, err := p.expectPunct(token.RPAREN)
	if err != nil {
		return nil, err
	}

	if len(args) < len(sig.Params) {
		return nil, p.errorf(closeParen, "too few arguments to function '%s'", name.Lit)
	}
	if !sig.Variadic && len(args) > len(sig.Params) {
		return nil, p.errorf(closeParen, "too many arguments to function '%s'", name.Lit)
	}
	for i, pt := range sig.Params {
		if !assignCompatible(pt, args[i].Ctype()) {
			return nil, p.errorf(closeParen, "incompatible argument %d to '%s' (have '%s', want '%s')", i+1, name.Lit, args[i].Ctype(), pt)
		}
		args[i] = convertAssign(args[i], pt)
	}

	return ast.NewFuncCall(name.Lit, sig, args, sig.Return), nil
}
