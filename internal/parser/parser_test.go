package parser

import (
	"testing"

	"github.com/skx/cc/internal/ast"
	"github.com/skx/cc/internal/ctype"
)

func parseOK(t *testing.T, src string) []*ast.FuncDef {
	t.Helper()
	p := New("test.c", src)
	funcs, err := p.ParseTranslationUnit()
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	return funcs
}

func parseErr(t *testing.T, src string) error {
	t.Helper()
	p := New("test.c", src)
	_, err := p.ParseTranslationUnit()
	if err == nil {
		t.Fatalf("expected a parse error for:\n%s", src)
	}
	return err
}

func TestParseSimpleFunction(t *testing.T) {
	funcs := parseOK(t, `int main() { return 0; }`)
	if len(funcs) != 1 {
		t.Fatalf("expected 1 function, got %d", len(funcs))
	}
	if funcs[0].Name != "main" {
		t.Fatalf("expected function named main, got %s", funcs[0].Name)
	}
}

func TestParseArithmeticPromotesToDouble(t *testing.T) {
	funcs := parseOK(t, `int main() { double d; d = 1 + 2.0; return 0; }`)
	body := funcs[0].Body.Stmts
	// the assignment is the second statement (first is the declaration)
	exprStmt, ok := body[1].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected an ExprStmt, got %T", body[1])
	}
	bin, ok := exprStmt.Expr.(*ast.Binary)
	if !ok || bin.Op != ast.BAssign {
		t.Fatalf("expected an assignment, got %#v", exprStmt.Expr)
	}
	if bin.Ctype() != ctype.DoubleType {
		t.Fatalf("expected the assignment's type to be double, got %s", bin.Ctype())
	}
	sum, ok := bin.Right.(*ast.Binary)
	if !ok || sum.Ctype() != ctype.DoubleType {
		t.Fatalf("expected 1 + 2.0 to be typed double, got %#v", bin.Right)
	}
	if _, ok := sum.Left.(*ast.ArithConv); !ok {
		t.Fatalf("expected the int operand to be wrapped in an ArithConv, got %#v", sum.Left)
	}
}

func TestParsePointerArithmeticKeepsPointerType(t *testing.T) {
	funcs := parseOK(t, `int main() { int *p; p = p + 1; return 0; }`)
	exprStmt := funcs[0].Body.Stmts[1].(*ast.ExprStmt)
	bin := exprStmt.Expr.(*ast.Binary)
	if !bin.Ctype().IsPointer() {
		t.Fatalf("expected pointer + int to remain a pointer, got %s", bin.Ctype())
	}
}

func TestAssignmentToNonLvalueIsAnError(t *testing.T) {
	parseErr(t, `int main() { 1 = 2; return 0; }`)
}

func TestPointerIntComparisonIsAnError(t *testing.T) {
	parseErr(t, `int main() { int *p; int x; if (p == x) return 1; return 0; }`)
}

func TestRedeclarationInSameScopeIsAnError(t *testing.T) {
	parseErr(t, `int main() { int x; int x; return 0; }`)
}

func TestCallWithTooFewArgumentsIsAnError(t *testing.T) {
	parseErr(t, `int add(int a, int b) { return a + b; }
	int main() { return add(1); }`)
}

func TestCallWithTooManyArgumentsIsAnError(t *testing.T) {
	parseErr(t, `int add(int a, int b) { return a + b; }
	int main() { return add(1, 2, 3); }`)
}

func TestVariadicCallAcceptsExtraArguments(t *testing.T) {
	parseOK(t, `int main() { printf("%d %d\n", 1, 2); return 0; }`)
}

func TestReturnTypeMismatchIsAnError(t *testing.T) {
	parseErr(t, `int f() { return "hi"; }`)
}

func TestCompoundAssignmentDesugarsToBinaryAssign(t *testing.T) {
	funcs := parseOK(t, `int main() { int x; x += 2; return 0; }`)
	exprStmt := funcs[0].Body.Stmts[1].(*ast.ExprStmt)
	bin := exprStmt.Expr.(*ast.Binary)
	if bin.Op != ast.BAssign {
		t.Fatalf("expected a desugared assignment, got op %d", bin.Op)
	}
	rhs, ok := bin.Right.(*ast.Binary)
	if !ok || rhs.Op != ast.BAdd {
		t.Fatalf("expected the right side to be x + 2, got %#v", bin.Right)
	}
}

func TestTernaryRequiresCompatibleBranches(t *testing.T) {
	parseOK(t, `int main() { int x; x = 1 ? 2 : 3; return 0; }`)
}

func TestPrefixVsPostfixIncrement(t *testing.T) {
	funcs := parseOK(t, `int main() { int x; x++; ++x; return 0; }`)
	post := funcs[0].Body.Stmts[1].(*ast.ExprStmt).Expr.(*ast.Postfix)
	pre := funcs[0].Body.Stmts[2].(*ast.ExprStmt).Expr.(*ast.Postfix)
	if post.Prefix {
		t.Fatalf("x++ should parse with Prefix = false")
	}
	if !pre.Prefix {
		t.Fatalf("++x should parse with Prefix = true")
	}
}

func TestMultiDeclaratorStatementProducesDeclList(t *testing.T) {
	funcs := parseOK(t, `int main() { int a = 1, b = 2; return a + b; }`)
	if _, ok := funcs[0].Body.Stmts[0].(*ast.DeclList); !ok {
		t.Fatalf("expected a DeclList for the comma-separated declaration, got %T", funcs[0].Body.Stmts[0])
	}
}

func TestArrayDeclarationWithInitializer(t *testing.T) {
	funcs := parseOK(t, `int main() { int a[3] = {1, 2}; return 0; }`)
	if _, ok := funcs[0].Body.Stmts[0].(*ast.ArrayInit); !ok {
		t.Fatalf("expected an ArrayInit, got %T", funcs[0].Body.Stmts[0])
	}
}

func TestTooManyArrayInitializersIsAnError(t *testing.T) {
	parseErr(t, `int main() { int a[2] = {1, 2, 3}; return 0; }`)
}

func TestDivisionByLiteralZeroIsAnError(t *testing.T) {
	parseErr(t, `int main() { return 1 / 0; }`)
}

func TestModulusByLiteralZeroIsAnError(t *testing.T) {
	parseErr(t, `int main() { return 1 % 0; }`)
}

func TestTernaryArithmeticArmsConvertToCommonType(t *testing.T) {
	funcs := parseOK(t, `int main() { int c; double d; d = c ? 1 : 2.0; return 0; }`)
	exprStmt := funcs[0].Body.Stmts[2].(*ast.ExprStmt)
	assign := exprStmt.Expr.(*ast.Binary)
	tern := assign.Right.(*ast.Ternary)
	if _, ok := tern.Then.(*ast.ArithConv); !ok {
		t.Fatalf("expected the int arm to be wrapped in an ArithConv to double, got %#v", tern.Then)
	}
	if tern.Else.Ctype() != ctype.DoubleType {
		t.Fatalf("expected the double arm to stay double, got %s", tern.Else.Ctype())
	}
}

func TestVoidPointerParameterParses(t *testing.T) {
	funcs := parseOK(t, `int f(void *p) { return 0; }`)
	if len(funcs[0].Params) != 1 {
		t.Fatalf("expected 1 parameter, got %d", len(funcs[0].Params))
	}
	if !funcs[0].Params[0].Ctype().IsPointer() {
		t.Fatalf("expected a pointer parameter, got %s", funcs[0].Params[0].Ctype())
	}
}
