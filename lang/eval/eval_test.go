package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minilang-dev/minilang/lang/parser"
)

func runProgram(t *testing.T, source string) ([]string, error) {
	t.Helper()
	program, err := parser.Parse(source)
	require.NoError(t, err)
	return New(nil).Run(program)
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := runProgram(t, `print(2 + 3 * 4)`)
	require.NoError(t, err)
	assert.Equal(t, []string{"14"}, out)
}

func TestBlockScopingShadowsThenRestores(t *testing.T) {
	out, err := runProgram(t, "let x = 1\nif true { let x = 99\nprint(x) }\nprint(x)")
	require.NoError(t, err)
	assert.Equal(t, []string{"99", "1"}, out)
}

func TestRecursiveFunction(t *testing.T) {
	out, err := runProgram(t, "fn fib(n) { if n <= 1 { return n }\nreturn fib(n-1) + fib(n-2) }\nprint(fib(7))")
	require.NoError(t, err)
	assert.Equal(t, []string{"13"}, out)
}

func TestIndexAssignMutatesInPlace(t *testing.T) {
	out, err := runProgram(t, "let a = [1,2,3]\na[1] = 99\nprint(a)")
	require.NoError(t, err)
	assert.Equal(t, []string{"[1, 99, 3]"}, out)
}

func TestForRangeIsHalfOpen(t *testing.T) {
	out, err := runProgram(t, "for i in 0..4 { print(i) }")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2", "3"}, out)
}

func TestForRangeEmptyWhenStartNotLessThanEnd(t *testing.T) {
	out, err := runProgram(t, "for i in 4..4 { print(i) }")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestShortCircuitAndOrReturnOperandValue(t *testing.T) {
	out, err := runProgram(t, "print(true and false)\nprint(1 or 2)")
	require.NoError(t, err)
	assert.Equal(t, []string{"false", "1"}, out)
}

func TestAndDoesNotEvaluateRightWhenLeftFalsy(t *testing.T) {
	out, err := runProgram(t, `print(false and noSuchVar)`)
	require.NoError(t, err)
	assert.Equal(t, []string{"false"}, out)
}

func TestOrDoesNotEvaluateRightWhenLeftTruthy(t *testing.T) {
	out, err := runProgram(t, `print(1 or noSuchVar)`)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, out)
}

func TestUndefinedVariableError(t *testing.T) {
	_, err := runProgram(t, `print(noSuchVar)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable")
}

func TestArithmeticTypeMismatchError(t *testing.T) {
	_, err := runProgram(t, `let x = 1 + true`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires two numbers")
}

func TestArityMismatchError(t *testing.T) {
	_, err := runProgram(t, "fn f(a,b){return a+b}\nf(1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected 2 arguments, got 1")
}

func TestBareReturnYieldsNull(t *testing.T) {
	out, err := runProgram(t, "fn f() { return }\nprint(f())")
	require.NoError(t, err)
	assert.Equal(t, []string{"null"}, out)
}

func TestFallOffEndYieldsNull(t *testing.T) {
	out, err := runProgram(t, "fn f() { let x = 1 }\nprint(f())")
	require.NoError(t, err)
	assert.Equal(t, []string{"null"}, out)
}

func TestEmptyProgramYieldsEmptyOutput(t *testing.T) {
	out, err := runProgram(t, "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestIndexingEmptyArrayIsError(t *testing.T) {
	_, err := runProgram(t, "let a = []\nprint(a[0])")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")
}

func TestNegativeIndexIsOutOfBounds(t *testing.T) {
	_, err := runProgram(t, "let a = [1,2,3]\nprint(a[-1])")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")
}

func TestStringAndArrayConcatenation(t *testing.T) {
	out, err := runProgram(t, `print("foo" + "bar")`)
	require.NoError(t, err)
	assert.Equal(t, []string{"foobar"}, out)

	out, err = runProgram(t, "print([1,2] + [3])")
	require.NoError(t, err)
	assert.Equal(t, []string{"[1, 2, 3]"}, out)
}

func TestLenBuiltin(t *testing.T) {
	out, err := runProgram(t, `print(len("hello"))`)
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, out)

	out, err = runProgram(t, "print(len([1,2,3]))")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, out)
}

func TestLenArityError(t *testing.T) {
	_, err := runProgram(t, "len(1, 2)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "len() takes exactly 1 argument")
}

func TestBuiltinsCannotBeShadowedOrPassedAsValues(t *testing.T) {
	out, err := runProgram(t, "let print = 5\nprint(print)")
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, out)

	_, err = runProgram(t, "let f = len")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable 'len'")
}

func TestScopeBalanceAcrossReturn(t *testing.T) {
	ev := New(nil)
	program, err := parser.Parse("fn f() { if true { return 1 } return 2 }\nf()")
	require.NoError(t, err)
	_, err = ev.Run(program)
	require.NoError(t, err)
	assert.Len(t, ev.scopes, 1) // balanced back to just the global scope
}

func TestDivisionByZeroYieldsInfNotError(t *testing.T) {
	out, err := runProgram(t, "print(1 / 0)")
	require.NoError(t, err)
	assert.Equal(t, []string{"+Inf"}, out)
}
