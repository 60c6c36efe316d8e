package parser

import (
	"github.com/samber/lo"

	"github.com/skx/cc/internal/ast"
	"github.com/skx/cc/internal/ctype"
	"github.com/skx/cc/internal/sema"
	"github.com/skx/cc/internal/token"
)

// parseFuncDef parses one top-level function definition and registers it
// in the global environment before parsing its body, so recursive calls
// resolve.
func (p *Parser) parseFuncDef() (*ast.FuncDef, error) {
	base, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}
	retType, err := p.parsePointer(base)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.next()
	if err != nil {
		return nil, err
	}
	if nameTok.Kind != token.Identifier {
		return nil, p.errorf(nameTok, "expected function name, got '%s'", nameTok.Text())
	}
	if _, err := p.expectPunct(token.LPAREN); err != nil {
		return nil, err
	}
	params, variadic, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(token.RPAREN); err != nil {
		return nil, err
	}

	paramTypes := lo.Map(params, func(pm *ast.VarDecl, _ int) *ctype.Type { return pm.Ctype() })
	sig := &ctype.FuncSig{Return: retType, Params: paramTypes, Variadic: variadic}

	fn := &ast.FuncDef{Name: nameTok.Lit, Sig: sig, Params: params}
	p.env.Define(nameTok.Lit, &sema.Symbol{FuncDef: fn})

	savedEnv, savedFunc := p.env, p.curFunc
	p.env = p.env.Child()
	p.curFunc = fn
	for _, pm := range params {
		p.env.Define(pm.Name, &sema.Symbol{VarDecl: pm})
	}

	body, err := p.parseCompoundStmtBody()
	if err != nil {
		return nil, err
	}
	fn.Body = body

	p.env = savedEnv
	p.curFunc = savedFunc
	return fn, nil
}

// parseCompoundStmtBody parses the `{ ... }` of a block whose scope the
// caller has already pushed (used for a function body, which shares its
// scope with the parameter list).
func (p *Parser) parseCompoundStmtBody() (*ast.CompoundStmt, error) {
	if _, err := p.expectPunct(token.LBRACE); err != nil {
		return nil, err
	}
	var stmts []ast.Node
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t.IsPunct(token.RBRACE) {
			p.next()
			break
		}
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, item)
	}
	return &ast.CompoundStmt{Stmts: stmts}, nil
}

// parseCompoundStmt parses a nested `{ ... }`, pushing a fresh child
// scope for its own locals and popping it on exit.
func (p *Parser) parseCompoundStmt() (*ast.CompoundStmt, error) {
	saved := p.env
	p.env = p.env.Child()
	body, err := p.parseCompoundStmtBody()
	p.env = saved
	return body, err
}

func (p *Parser) parseBlockItem() (ast.Node, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isTypeKeyword(t) {
		return p.parseLocalDecl()
	}
	return p.parseStmt()
}

// parseLocalDecl parses one declaration statement, possibly declaring
// several comma-separated variables, each optionally initialized or
// (for arrays) given a brace initializer list. Two or more declarators
// are collected into a DeclList so codegen's local-variable walk has one
// node kind to look for instead of original_source's nil-ctype
// comma-chain convention; a single declarator is returned on its own.
func (p *Parser) parseLocalDecl() (ast.Node, error) {
	base, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}

	var decls []ast.Node
	for {
		name, typ, nameTok, err := p.parseDeclarator(base)
		if err != nil {
			return nil, err
		}
		if sym := p.env.LookupLocal(name); sym != nil {
			return nil, p.errorf(nameTok, "redefinition of '%s'", name)
		}
		decl := ast.NewVarDecl(name, typ)
		p.env.Define(name, &sema.Symbol{VarDecl: decl})

		nt, err := p.peek()
		if err != nil {
			return nil, err
		}
		if nt.IsPunct(token.ASSIGN) {
			p.next()
			if typ.IsArray() {
				init, err := p.parseArrayInitializer(typ)
				if err != nil {
					return nil, err
				}
				decls = append(decls, ast.NewArrayInit(decl, init))
			} else {
				expr, err := p.parseAssignExpr()
				if err != nil {
					return nil, err
				}
				if !assignCompatible(typ, expr.Ctype()) {
					return nil, p.errorf(nameTok, "initialization type mismatch: cannot initialize '%s' with '%s'", typ, expr.Ctype())
				}
				expr = convertAssign(expr, typ)
				decls = append(decls, ast.NewVarInit(decl, expr))
			}
		} else {
			decls = append(decls, decl)
		}

		nt, err = p.peek()
		if err != nil {
			return nil, err
		}
		if nt.IsPunct(token.COMMA) {
			p.next()
			continue
		}
		break
	}

	if _, err := p.expectPunct(token.SEMI); err != nil {
		return nil, err
	}

	if len(decls) == 1 {
		return decls[0], nil
	}
	return &ast.DeclList{Decls: decls}, nil
}

// parseArrayInitializer parses a brace-enclosed, comma-separated list of
// element initializers for an array declaration.
func (p *Parser) parseArrayInitializer(arrType *ctype.Type) ([]ast.Node, error) {
	open, err := p.expectPunct(token.LBRACE)
	if err != nil {
		return nil, err
	}
	var elems []ast.Node
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t.IsPunct(token.RBRACE) {
			p.next()
			break
		}
		if len(elems) > 0 {
			if _, err := p.expectPunct(token.COMMA); err != nil {
				return nil, err
			}
			if t, err := p.peek(); err != nil {
				return nil, err
			} else if t.IsPunct(token.RBRACE) {
				p.next()
				break
			}
		}
		expr, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		if !assignCompatible(arrType.Elem, expr.Ctype()) {
			return nil, p.errorf(t, "initialization type mismatch: cannot initialize '%s' with '%s'", arrType.Elem, expr.Ctype())
		}
		elems = append(elems, convertAssign(expr, arrType.Elem))
	}
	if len(elems) > arrType.Len {
		return nil, p.errorf(open, "too many initializers for array of length %d", arrType.Len)
	}
	return elems, nil
}

func (p *Parser) parseStmt() (ast.Node, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch {
	case t.IsPunct(token.LBRACE):
		return p.parseCompoundStmt()
	case t.IsPunct(token.SEMI):
		p.next()
		return &ast.EmptyStmt{}, nil
	case t.IsKeyword(token.IF):
		return p.parseIfStmt()
	case t.IsKeyword(token.FOR):
		return p.parseForStmt()
	case t.IsKeyword(token.WHILE):
		return p.parseWhileStmt()
	case t.IsKeyword(token.DO):
		return p.parseDoWhileStmt()
	case t.IsKeyword(token.RETURN):
		return p.parseReturnStmt()
	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Expr: expr}, nil
	}
}

func (p *Parser) parseIfStmt() (ast.Node, error) {
	p.next()
	if _, err := p.expectPunct(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(token.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	var els ast.Node
	if t, err := p.peek(); err != nil {
		return nil, err
	} else if t.IsKeyword(token.ELSE) {
		p.next()
		els, err = p.parseStmt()
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseForStmt() (ast.Node, error) {
	p.next()
	if _, err := p.expectPunct(token.LPAREN); err != nil {
		return nil, err
	}

	saved := p.env
	p.env = p.env.Child()
	defer func() { p.env = saved }()

	var init ast.Node
	if t, err := p.peek(); err != nil {
		return nil, err
	} else if !t.IsPunct(token.SEMI) {
		if isTypeKeyword(t) {
			d, err := p.parseLocalDecl()
			if err != nil {
				return nil, err
			}
			init = d
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			init = &ast.ExprStmt{Expr: e}
			if _, err := p.expectPunct(token.SEMI); err != nil {
				return nil, err
			}
		}
	} else {
		p.next()
	}

	var cond ast.Node
	if t, err := p.peek(); err != nil {
		return nil, err
	} else if !t.IsPunct(token.SEMI) {
		c, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cond = c
	}
	if _, err := p.expectPunct(token.SEMI); err != nil {
		return nil, err
	}

	var step ast.Node
	if t, err := p.peek(); err != nil {
		return nil, err
	} else if !t.IsPunct(token.RPAREN) {
		s, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		step = s
	}
	if _, err := p.expectPunct(token.RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.For{Init: init, Cond: cond, Step: step, Body: body}, nil
}

func (p *Parser) parseWhileStmt() (ast.Node, error) {
	p.next()
	if _, err := p.expectPunct(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseDoWhileStmt() (ast.Node, error) {
	p.next()
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	wt, err := p.next()
	if err != nil {
		return nil, err
	}
	if !wt.IsKeyword(token.WHILE) {
		return nil, p.errorf(wt, "expected 'while', got '%s'", wt.Text())
	}
	if _, err := p.expectPunct(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(token.SEMI); err != nil {
		return nil, err
	}
	return &ast.DoWhile{Cond: cond, Body: body}, nil
}

func (p *Parser) parseReturnStmt() (ast.Node, error) {
	kw, err := p.next()
	if err != nil {
		return nil, err
	}
	retType := p.curFunc.Sig.Return

	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if t.IsPunct(token.SEMI) {
		p.next()
		if retType != ctype.VoidType {
			return nil, p.errorf(kw, "return makes '%s' from 'void'", retType)
		}
		return &ast.Return{FuncType: retType}, nil
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(token.SEMI); err != nil {
		return nil, err
	}
	if !assignCompatible(retType, expr.Ctype()) {
		return nil, p.errorf(kw, "return makes '%s' from '%s'", retType, expr.Ctype())
	}
	return &ast.Return{Expr: convertAssign(expr, retType), FuncType: retType}, nil
}
