package parser

import (
	"github.com/skx/cc/internal/ast"
	"github.com/skx/cc/internal/ctype"
	"github.com/skx/cc/internal/token"
)

// isTypeKeyword reports whether t begins a declaration-specifier.
func isTypeKeyword(t *token.Token) bool {
	if t.Kind != token.Keyword {
		return false
	}
	switch t.Sub {
	case token.VOID, token.CHAR, token.INT, token.FLOAT, token.DOUBLE:
		return true
	}
	return false
}

// parseTypeSpec consumes exactly one type keyword and returns its base
// (unpointered, unarrayed) type.
func (p *Parser) parseTypeSpec() (*ctype.Type, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}
	if !isTypeKeyword(t) {
		return nil, p.errorf(t, "expected a type name, got '%s'", t.Text())
	}
	switch t.Sub {
	case token.VOID:
		return ctype.VoidType, nil
	case token.CHAR:
		return ctype.CharType, nil
	case token.INT:
		return ctype.IntType, nil
	case token.FLOAT:
		return ctype.FloatType, nil
	case token.DOUBLE:
		return ctype.DoubleType, nil
	}
	panic("unreachable")
}

// parsePointer consumes zero or more '*' and wraps base in a Pointer type
// for each one, outermost last (`int **p` -> Pointer(Pointer(Int))).
func (p *Parser) parsePointer(base *ctype.Type) (*ctype.Type, error) {
	typ := base
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !t.IsPunct(token.STAR) {
			return typ, nil
		}
		p.next()
		typ = ctype.NewPointer(typ)
	}
}

// parseDeclarator parses `pointer* identifier ('[' number ']')?` and
// returns the declared name and its full type.
func (p *Parser) parseDeclarator(base *ctype.Type) (string, *ctype.Type, *token.Token, error) {
	typ, err := p.parsePointer(base)
	if err != nil {
		return "", nil, nil, err
	}
	name, err := p.next()
	if err != nil {
		return "", nil, nil, err
	}
	if name.Kind != token.Identifier {
		return "", nil, nil, p.errorf(name, "expected identifier, got '%s'", name.Text())
	}

	if t, err := p.peek(); err != nil {
		return "", nil, nil, err
	} else if t.IsPunct(token.LBRACKET) {
		p.next()
		lenTok, err := p.next()
		if err != nil {
			return "", nil, nil, err
		}
		if lenTok.Kind != token.Number {
			return "", nil, nil, p.errorf(lenTok, "expected array length, got '%s'", lenTok.Text())
		}
		n, err := parseIntLiteral(lenTok.Lit)
		if err != nil {
			return "", nil, nil, p.errorf(lenTok, "invalid array length '%s'", lenTok.Lit)
		}
		if _, err := p.expectPunct(token.RBRACKET); err != nil {
			return "", nil, nil, err
		}
		typ = ctype.NewArray(typ, int(n))
	}

	return name.Lit, typ, name, nil
}

// parseParamList parses the comma-separated parameter list between the
// parentheses of a function prototype/definition. A single bare `void`
// parameter means "no parameters". A trailing `, ...` sets variadic.
func (p *Parser) parseParamList() ([]*ast.VarDecl, bool, error) {
	var params []*ast.VarDecl
	variadic := false

	t, err := p.peek()
	if err != nil {
		return nil, false, err
	}
	if t.IsKeyword(token.VOID) {
		// Could be `(void)` or `(void x)`; only the former means empty.
		p.next()
		if nt, err := p.peek(); err != nil {
			return nil, false, err
		} else if nt.IsPunct(token.RPAREN) {
			return nil, false, nil
		}
		p.unget(t)
	}

	for {
		nt, err := p.peek()
		if err != nil {
			return nil, false, err
		}
		if nt.IsPunct(token.RPAREN) {
			break
		}
		if len(params) > 0 {
			if _, err := p.expectPunct(token.COMMA); err != nil {
				return nil, false, err
			}
		}
		if dt, err := p.peek(); err != nil {
			return nil, false, err
		} else if dt.IsPunct(token.DOT) {
			// "..." is lexed as three DOT punctuators in sequence; this
			// subset doesn't special-case a single ellipsis token.
			p.next()
			p.next()
			p.next()
			variadic = true
			break
		}

		base, err := p.parseTypeSpec()
		if err != nil {
			return nil, false, err
		}
		name, typ, _, err := p.parseDeclarator(base)
		if err != nil {
			return nil, false, err
		}
		params = append(params, ast.NewVarDecl(name, typ))
	}
	return params, variadic, nil
}

func parseIntLiteral(s string) (int64, error) {
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &strconvError{s}
		}
		n = n*10 + int64(r-'0')
	}
	return n, nil
}

type strconvError struct{ s string }

func (e *strconvError) Error() string { return "invalid integer literal: " + e.s }
