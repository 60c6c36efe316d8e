package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, src string) string {
	t.Helper()
	c, err := New("test.c", strings.NewReader(src))
	require.NoError(t, err)
	out, err := c.Compile()
	require.NoError(t, err)
	return out
}

// TestHelloWorld covers spec.md §8's simplest scenario: a single puts call.
func TestHelloWorld(t *testing.T) {
	out := mustCompile(t, `
		int main() {
			puts("hello, world");
			return 0;
		}
	`)
	assert.Contains(t, out, "main:")
	assert.Contains(t, out, "call puts")
	assert.Contains(t, out, ".string \"hello, world\"")
}

// TestArithmeticAndPrintf covers mixed integer arithmetic formatted via a
// variadic call.
func TestArithmeticAndPrintf(t *testing.T) {
	out := mustCompile(t, `
		int add(int a, int b) {
			return a + b;
		}
		int main() {
			printf("%d\n", add(2, 3));
			return 0;
		}
	`)
	assert.Contains(t, out, "add:")
	assert.Contains(t, out, "call add")
	assert.Contains(t, out, "call printf")
}

// TestForLoopControlFlow covers a summing for-loop, exercising the jump
// labels the loop's test-at-the-end shape produces.
func TestForLoopControlFlow(t *testing.T) {
	out := mustCompile(t, `
		int sum(int n) {
			int i;
			int total;
			total = 0;
			for (i = 0; i < n; i = i + 1) {
				total = total + i;
			}
			return total;
		}
	`)
	assert.Contains(t, out, "sum:")
	assert.Contains(t, out, "jne .L")
}

// TestPointerArithmetic covers advancing a pointer and dereferencing it,
// including the pointee-size scaling spec.md calls out.
func TestPointerArithmetic(t *testing.T) {
	out := mustCompile(t, `
		int first(int *p) {
			return *p;
		}
		int second(int *p) {
			return *(p + 1);
		}
	`)
	assert.Contains(t, out, "first:")
	assert.Contains(t, out, "second:")
	assert.Contains(t, out, "salq $2, %rax")
}

// TestFloatArithmetic covers scalar SSE double arithmetic end to end.
func TestFloatArithmetic(t *testing.T) {
	out := mustCompile(t, `
		double average(double a, double b) {
			return (a + b) / 2.0;
		}
	`)
	assert.Contains(t, out, "addsd")
	assert.Contains(t, out, "divsd")
}

// TestDoWhileAndTernary covers a do-while loop alongside a ternary
// expression in the same function.
func TestDoWhileAndTernary(t *testing.T) {
	out := mustCompile(t, `
		int clampToTen(int n) {
			int i;
			i = 0;
			do {
				i = i + 1;
			} while (i < n);
			return i > 10 ? 10 : i;
		}
	`)
	assert.Contains(t, out, "clampToTen:")
	assert.Contains(t, out, "je .L")
}

// TestDebugModeAddsMarkerComment exercises SetDebug's effect on the
// emitted output.
func TestDebugModeAddsMarkerComment(t *testing.T) {
	c, err := New("test.c", strings.NewReader(`int main() { return 0; }`))
	require.NoError(t, err)
	c.SetDebug(true)
	out, err := c.Compile()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "\t# debug:"))
}

// TestUndeclaredFunctionIsAnError covers the negative path: calling an
// unknown function is a compile-time error, not a silent assembly of a
// bogus call instruction.
func TestUndeclaredFunctionIsAnError(t *testing.T) {
	c, err := New("test.c", strings.NewReader(`
		int main() {
			return mystery(1, 2);
		}
	`))
	require.NoError(t, err)
	_, err = c.Compile()
	assert.Error(t, err)
}

// TestSyntaxErrorIsReported covers a malformed program never reaching the
// code generator.
func TestSyntaxErrorIsReported(t *testing.T) {
	c, err := New("test.c", strings.NewReader(`int main() { return 0 }`))
	require.NoError(t, err)
	_, err = c.Compile()
	assert.Error(t, err)
}
