// Package eval implements minilang's tree-walking evaluator: a scope
// chain over runtime values, an explicit return-signal discipline
// instead of host exceptions for control flow, and the two structural
// builtins. There is no teacher analog for a full evaluator — this
// package is built directly from the language's own statement and
// expression semantics, in the idiom the rest of this module already
// established (tagged interfaces, sentinel *Error types, an optional
// go-hclog sink for diagnostics).
package eval

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-hclog"

	"github.com/minilang-dev/minilang/lang/ast"
	"github.com/minilang-dev/minilang/lang/value"
)

// Error is a runtime error: undefined variable, type mismatch, arity
// mismatch, or index out of bounds.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func errf(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// signal is the result of executing a statement or block.
type signalKind int

const (
	signalNone signalKind = iota
	signalReturn
)

type signal struct {
	kind  signalKind
	value value.Value
}

var none = signal{kind: signalNone}

// scope is one frame of the scope chain: a flat name-to-value map.
type scope map[string]value.Value

// Evaluator holds the state the spec requires to persist across
// successive parse-and-run calls: the scope chain (global scope at index
// 0) and the accumulated output buffer.
type Evaluator struct {
	scopes []scope
	output []string
	log    hclog.Logger
}

// New constructs an Evaluator with a single empty global scope. A nil
// logger is replaced with hclog.NewNullLogger, matching the teacher's
// convention of never leaving a logger field nil.
func New(log hclog.Logger) *Evaluator {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Evaluator{
		scopes: []scope{make(scope)},
		output: nil,
		log:    log,
	}
}

// Output returns the full accumulated output buffer.
func (e *Evaluator) Output() []string { return e.output }

// Run executes an already-parsed program against the Evaluator's
// persistent state, returning only the output entries appended during
// this call.
func (e *Evaluator) Run(program ast.Block) ([]string, error) {
	before := len(e.output)
	depthBefore := len(e.scopes)

	for _, stmt := range program {
		sig, err := e.execStmt(stmt)
		if err != nil {
			return nil, err
		}
		if sig.kind == signalReturn {
			break // top-level return terminates quietly
		}
	}

	if len(e.scopes) != depthBefore {
		// Should be unreachable: every push above is paired with a pop.
		e.scopes = e.scopes[:depthBefore]
	}
	return e.output[before:], nil
}

func (e *Evaluator) pushScope() {
	e.scopes = append(e.scopes, make(scope))
	e.log.Debug("push scope", "depth", len(e.scopes))
}

func (e *Evaluator) popScope() {
	e.scopes = e.scopes[:len(e.scopes)-1]
	e.log.Debug("pop scope", "depth", len(e.scopes))
}

func (e *Evaluator) getVar(name string) (value.Value, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// setVar updates name in the innermost scope that already binds it, or
// defines it in the innermost scope if unbound anywhere.
func (e *Evaluator) setVar(name string, v value.Value) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i][name]; ok {
			e.scopes[i][name] = v
			return
		}
	}
	e.defineVar(name, v)
}

// defineVar unconditionally (re)binds name in the innermost scope.
func (e *Evaluator) defineVar(name string, v value.Value) {
	e.scopes[len(e.scopes)-1][name] = v
}

func (e *Evaluator) execBlock(block ast.Block) (signal, error) {
	e.pushScope()
	defer e.popScope()
	return e.execStmts(block)
}

func (e *Evaluator) execStmts(stmts []ast.Stmt) (signal, error) {
	for _, stmt := range stmts {
		sig, err := e.execStmt(stmt)
		if err != nil {
			return none, err
		}
		if sig.kind == signalReturn {
			return sig, nil
		}
	}
	return none, nil
}

func (e *Evaluator) execStmt(stmt ast.Stmt) (signal, error) {
	e.log.Trace("exec statement", "type", fmt.Sprintf("%T", stmt))

	switch s := stmt.(type) {
	case ast.Let:
		v, err := e.evalExpr(s.Init)
		if err != nil {
			return none, err
		}
		e.defineVar(s.Name, v)
		return none, nil

	case ast.Assign:
		v, err := e.evalExpr(s.Expr)
		if err != nil {
			return none, err
		}
		e.setVar(s.Name, v)
		return none, nil

	case ast.IndexAssign:
		return none, e.execIndexAssign(s)

	case ast.If:
		cond, err := e.evalExpr(s.Cond)
		if err != nil {
			return none, err
		}
		if value.Truthy(cond) {
			return e.execBlock(s.Then)
		}
		if s.Else != nil {
			return e.execBlock(s.Else)
		}
		return none, nil

	case ast.While:
		for {
			cond, err := e.evalExpr(s.Cond)
			if err != nil {
				return none, err
			}
			if !value.Truthy(cond) {
				return none, nil
			}
			sig, err := e.execBlock(s.Body)
			if err != nil {
				return none, err
			}
			if sig.kind == signalReturn {
				return sig, nil
			}
		}

	case ast.For:
		return e.execFor(s)

	case ast.Fn:
		e.defineVar(s.Name, value.Function{Name: s.Name, Params: s.Params, Body: s.Body})
		return none, nil

	case ast.Return:
		if s.Value == nil {
			return signal{kind: signalReturn, value: value.Null{}}, nil
		}
		v, err := e.evalExpr(s.Value)
		if err != nil {
			return none, err
		}
		return signal{kind: signalReturn, value: v}, nil

	case ast.ExprStmt:
		_, err := e.evalExpr(s.Expr)
		return none, err

	default:
		return none, errf("unknown statement type %T", stmt)
	}
}

func (e *Evaluator) execIndexAssign(s ast.IndexAssign) error {
	idx, err := e.evalExpr(s.Index)
	if err != nil {
		return err
	}
	v, err := e.evalExpr(s.Value)
	if err != nil {
		return err
	}

	for i := len(e.scopes) - 1; i >= 0; i-- {
		held, ok := e.scopes[i][s.Name]
		if !ok {
			continue
		}
		arr, ok := held.(value.Array)
		if !ok {
			return errf("'%s' is not an array", s.Name)
		}
		n, ok := idx.(value.Number)
		if !ok {
			return errf("Array index must be a number")
		}
		pos := int(n)
		if pos < 0 || pos >= arr.Len() {
			return errf("Index %d out of bounds", pos)
		}
		arr.Set(pos, v)
		return nil
	}
	return errf("Undefined variable '%s'", s.Name)
}

func (e *Evaluator) execFor(s ast.For) (signal, error) {
	startV, err := e.evalExpr(s.Start)
	if err != nil {
		return none, err
	}
	startN, ok := startV.(value.Number)
	if !ok {
		return none, errf("For range start must be a number")
	}
	endV, err := e.evalExpr(s.End)
	if err != nil {
		return none, err
	}
	endN, ok := endV.(value.Number)
	if !ok {
		return none, errf("For range end must be a number")
	}

	for i := int64(startN); i < int64(endN); i++ {
		e.pushScope()
		e.defineVar(s.Var, value.Number(i))
		sig, err := e.execStmts(s.Body)
		e.popScope()
		if err != nil {
			return none, err
		}
		if sig.kind == signalReturn {
			return sig, nil
		}
	}
	return none, nil
}

func (e *Evaluator) evalExpr(expr ast.Expr) (value.Value, error) {
	switch x := expr.(type) {
	case ast.Number:
		return value.Number(x.Value), nil
	case ast.String:
		return value.String(x.Value), nil
	case ast.Bool:
		return value.Bool(x.Value), nil
	case ast.Ident:
		v, ok := e.getVar(x.Name)
		if !ok {
			return nil, errf("Undefined variable '%s'", x.Name)
		}
		return v, nil
	case ast.Array:
		elems := make([]value.Value, len(x.Elements))
		for i, el := range x.Elements {
			v, err := e.evalExpr(el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return value.NewArray(elems), nil
	case ast.Index:
		return e.evalIndex(x)
	case ast.Call:
		return e.evalCall(x)
	case ast.Unary:
		return e.evalUnary(x)
	case ast.Binary:
		return e.evalBinary(x)
	default:
		return nil, errf("unknown expression type %T", expr)
	}
}

func (e *Evaluator) evalIndex(x ast.Index) (value.Value, error) {
	// Both operands are evaluated, in order, before either is type-checked
	// — a side-effecting index expression still runs even if the target
	// turns out not to be an array.
	target, err := e.evalExpr(x.Target)
	if err != nil {
		return nil, err
	}
	idxV, err := e.evalExpr(x.Index)
	if err != nil {
		return nil, err
	}

	arr, arrOK := target.(value.Array)
	n, numOK := idxV.(value.Number)
	if !arrOK || !numOK {
		return nil, errf("Index operator requires array and number")
	}
	pos := int(n)
	if pos < 0 || pos >= arr.Len() {
		return nil, errf("Index %d out of bounds", pos)
	}
	return arr.Get(pos), nil
}

// builtins lists the two structurally-resolved builtins; matching
// happens on the callee's identifier name before any variable lookup, so
// neither can be shadowed or passed as a value.
var builtins = map[string]bool{"print": true, "len": true}

func (e *Evaluator) evalCall(x ast.Call) (value.Value, error) {
	if ident, ok := x.Callee.(ast.Ident); ok && builtins[ident.Name] {
		return e.evalBuiltin(ident.Name, x.Args)
	}

	calleeV, err := e.evalExpr(x.Callee)
	if err != nil {
		return nil, err
	}
	fn, ok := calleeV.(value.Function)
	if !ok {
		return nil, errf("Attempted to call a non-function")
	}

	args := make([]value.Value, len(x.Args))
	for i, a := range x.Args {
		v, err := e.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if len(args) != len(fn.Params) {
		return nil, errf("Expected %d arguments, got %d", len(fn.Params), len(args))
	}
	e.log.Debug("call function", "name", fn.Name, "args", len(args))

	e.pushScope()
	for i, p := range fn.Params {
		e.defineVar(p, args[i])
	}
	sig, err := e.execStmts(fn.Body)
	e.popScope()
	if err != nil {
		return nil, err
	}
	if sig.kind == signalReturn {
		return sig.value, nil
	}
	return value.Null{}, nil
}

func (e *Evaluator) evalBuiltin(name string, argExprs []ast.Expr) (value.Value, error) {
	switch name {
	case "print":
		if len(argExprs) == 0 {
			return value.Null{}, nil
		}
		first, err := e.evalExpr(argExprs[0])
		if err != nil {
			return nil, err
		}
		for _, a := range argExprs[1:] {
			if _, err := e.evalExpr(a); err != nil {
				return nil, err
			}
		}
		e.output = append(e.output, value.Display(first))
		return value.Null{}, nil

	case "len":
		if len(argExprs) != 1 {
			return nil, errf("len() takes exactly 1 argument")
		}
		v, err := e.evalExpr(argExprs[0])
		if err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case value.Array:
			return value.Number(v.Len()), nil
		case value.String:
			return value.Number(len(string(v))), nil
		default:
			return nil, errf("len() requires array or string")
		}

	default:
		return nil, errf("unknown builtin %q", name)
	}
}

func (e *Evaluator) evalUnary(x ast.Unary) (value.Value, error) {
	operand, err := e.evalExpr(x.Operand)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case ast.Neg:
		n, ok := operand.(value.Number)
		if !ok {
			return nil, errf("Unary '-' requires a number")
		}
		return -n, nil
	case ast.Not:
		return value.Bool(!value.Truthy(operand)), nil
	default:
		return nil, errf("unknown unary operator")
	}
}

func (e *Evaluator) evalBinary(x ast.Binary) (value.Value, error) {
	// And/Or short-circuit and return the operand value unchanged.
	if x.Op == ast.And || x.Op == ast.Or {
		left, err := e.evalExpr(x.Left)
		if err != nil {
			return nil, err
		}
		truthy := value.Truthy(left)
		if x.Op == ast.And && !truthy {
			return left, nil
		}
		if x.Op == ast.Or && truthy {
			return left, nil
		}
		return e.evalExpr(x.Right)
	}

	left, err := e.evalExpr(x.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.evalExpr(x.Right)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case ast.Add:
		return addValues(left, right)
	case ast.Sub, ast.Mul, ast.Div, ast.Mod:
		ln, lok := left.(value.Number)
		rn, rok := right.(value.Number)
		if !lok || !rok {
			return nil, errf("Arithmetic operator requires two numbers")
		}
		return arithOp(x.Op, ln, rn), nil
	case ast.Lt, ast.LtEq, ast.Gt, ast.GtEq:
		ln, lok := left.(value.Number)
		rn, rok := right.(value.Number)
		if !lok || !rok {
			return nil, errf("Comparison operator requires two numbers")
		}
		return compareOp(x.Op, ln, rn), nil
	case ast.Eq:
		return value.Bool(value.Equal(left, right)), nil
	case ast.Neq:
		return value.Bool(!value.Equal(left, right)), nil
	default:
		return nil, errf("unknown binary operator")
	}
}

func addValues(left, right value.Value) (value.Value, error) {
	switch l := left.(type) {
	case value.Number:
		r, ok := right.(value.Number)
		if !ok {
			return nil, errf("'+' requires two numbers, two strings, or two arrays")
		}
		return l + r, nil
	case value.String:
		r, ok := right.(value.String)
		if !ok {
			return nil, errf("'+' requires two numbers, two strings, or two arrays")
		}
		return l + r, nil
	case value.Array:
		r, ok := right.(value.Array)
		if !ok {
			return nil, errf("'+' requires two numbers, two strings, or two arrays")
		}
		combined := make([]value.Value, 0, l.Len()+r.Len())
		combined = append(combined, l.Elements()...)
		combined = append(combined, r.Elements()...)
		return value.NewArray(combined), nil
	default:
		return nil, errf("'+' requires two numbers, two strings, or two arrays")
	}
}

func arithOp(op ast.BinOp, l, r value.Number) value.Value {
	switch op {
	case ast.Sub:
		return l - r
	case ast.Mul:
		return l * r
	case ast.Div:
		return l / r
	case ast.Mod:
		return value.Number(math.Mod(float64(l), float64(r)))
	default:
		panic("unreachable")
	}
}

func compareOp(op ast.BinOp, l, r value.Number) value.Value {
	switch op {
	case ast.Lt:
		return value.Bool(l < r)
	case ast.LtEq:
		return value.Bool(l <= r)
	case ast.Gt:
		return value.Bool(l > r)
	case ast.GtEq:
		return value.Bool(l >= r)
	default:
		panic("unreachable")
	}
}
