package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minilang-dev/minilang/lang/ast"
	"github.com/minilang-dev/minilang/lang/token"
)

func TestParsePrecedence(t *testing.T) {
	program, err := Parse(`2 + 3 * 4`)
	require.NoError(t, err)
	require.Len(t, program, 1)

	stmt, ok := program[0].(ast.ExprStmt)
	require.True(t, ok)

	bin, ok := stmt.Expr.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Add, bin.Op)

	right, ok := bin.Right.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Mul, right.Op)
}

func TestParseLetAndAssign(t *testing.T) {
	program, err := Parse("let x = 1\nx = 2")
	require.NoError(t, err)
	require.Len(t, program, 2)
	assert.Equal(t, ast.Let{Name: "x", Init: ast.Number{Value: 1}}, program[0])
	assert.Equal(t, ast.Assign{Name: "x", Expr: ast.Number{Value: 2}}, program[1])
}

func TestParseIndexAssignVsExprStmt(t *testing.T) {
	program, err := Parse("a[0] = 1")
	require.NoError(t, err)
	require.Len(t, program, 1)
	assert.Equal(t, ast.IndexAssign{Name: "a", Index: ast.Number{Value: 0}, Value: ast.Number{Value: 1}}, program[0])

	program, err = Parse("a[0]")
	require.NoError(t, err)
	require.Len(t, program, 1)
	stmt, ok := program[0].(ast.ExprStmt)
	require.True(t, ok)
	assert.Equal(t, ast.Index{Target: ast.Ident{Name: "a"}, Index: ast.Number{Value: 0}}, stmt.Expr)
}

func TestParseIfElse(t *testing.T) {
	program, err := Parse(`if x > 0 { print(1) } else { print(0) }`)
	require.NoError(t, err)
	require.Len(t, program, 1)

	stmt, ok := program[0].(ast.If)
	require.True(t, ok)
	assert.Len(t, stmt.Then, 1)
	assert.Len(t, stmt.Else, 1)
}

func TestParseWhileAndFor(t *testing.T) {
	program, err := Parse("while x < 3 { x = x + 1 }\nfor i in 0..4 { print(i) }")
	require.NoError(t, err)
	require.Len(t, program, 2)

	_, ok := program[0].(ast.While)
	assert.True(t, ok)

	forStmt, ok := program[1].(ast.For)
	require.True(t, ok)
	assert.Equal(t, "i", forStmt.Var)
	assert.Equal(t, ast.Number{Value: 0}, forStmt.Start)
	assert.Equal(t, ast.Number{Value: 4}, forStmt.End)
}

func TestParseFnAndReturn(t *testing.T) {
	program, err := Parse(`fn add(a, b) { return a + b }`)
	require.NoError(t, err)
	require.Len(t, program, 1)

	fn, ok := program[0].(ast.Fn)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, []string{"a", "b"}, fn.Params)
	require.Len(t, fn.Body, 1)

	ret, ok := fn.Body[0].(ast.Return)
	require.True(t, ok)
	assert.NotNil(t, ret.Value)
}

func TestParseBareReturn(t *testing.T) {
	program, err := Parse(`fn f() { return }`)
	require.NoError(t, err)
	fn := program[0].(ast.Fn)
	ret := fn.Body[0].(ast.Return)
	assert.Nil(t, ret.Value)
}

func TestParseArrayLiteralAndCall(t *testing.T) {
	program, err := Parse(`print([1, 2, 3])`)
	require.NoError(t, err)
	stmt := program[0].(ast.ExprStmt)
	call := stmt.Expr.(ast.Call)
	assert.Equal(t, ast.Ident{Name: "print"}, call.Callee)
	require.Len(t, call.Args, 1)
	arr := call.Args[0].(ast.Array)
	assert.Len(t, arr.Elements, 3)
}

func TestParseLogicalAndComparisonChain(t *testing.T) {
	program, err := Parse(`true and false or 1 < 2`)
	require.NoError(t, err)
	stmt := program[0].(ast.ExprStmt)
	top, ok := stmt.Expr.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Or, top.Op)
}

func TestParseUnaryRightAssociative(t *testing.T) {
	program, err := Parse(`- - 1`)
	require.NoError(t, err)
	stmt := program[0].(ast.ExprStmt)
	outer := stmt.Expr.(ast.Unary)
	assert.Equal(t, ast.Neg, outer.Op)
	inner, ok := outer.Operand.(ast.Unary)
	require.True(t, ok)
	assert.Equal(t, ast.Neg, inner.Op)
}

func TestParseErrorIncludesOffendingToken(t *testing.T) {
	_, err := Parse(`let = 1`)
	require.Error(t, err)

	parseErr, ok := err.(*Error)
	require.True(t, ok)
	assert.NotEmpty(t, parseErr.Message)
	assert.Equal(t, token.EQ, parseErr.Tok.Kind)
}

func TestParseUnterminatedBlockIsError(t *testing.T) {
	_, err := Parse(`if true { print(1)`)
	require.Error(t, err)
}
