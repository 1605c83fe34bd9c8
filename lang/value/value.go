// Package value implements minilang's runtime value representation: a
// closed tagged union mirroring the Rust original's Value enum, its
// Display formatting rules, and the equality/truthiness helpers the
// evaluator needs.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/minilang-dev/minilang/lang/ast"
)

// Value is implemented by every runtime value variant.
type Value interface {
	valueNode()
	Type() string
}

// Number is minilang's single numeric type (no int/float distinction).
type Number float64

// String is an immutable text value.
type String string

// Bool is a boolean value.
type Bool bool

// Null is the sole null value.
type Null struct{}

// Array is a shared, mutable sequence. The indirection through a pointer
// to a backing slice is what lets IndexAssign mutate an array in place
// and have the mutation visible through every binding that holds the
// same array, even though Go assignment and function calls otherwise
// copy struct values.
type Array struct {
	elems *[]Value
}

// NewArray wraps elems as a shared array handle.
func NewArray(elems []Value) Array {
	return Array{elems: &elems}
}

// Elements returns the live backing slice. Callers that mutate it mutate
// every Array value sharing this handle.
func (a Array) Elements() []Value { return *a.elems }

// Len reports the element count.
func (a Array) Len() int { return len(*a.elems) }

// Get returns the element at i. The caller must range-check first.
func (a Array) Get(i int) Value { return (*a.elems)[i] }

// Set mutates the element at i in place. The caller must range-check
// first.
func (a Array) Set(i int, v Value) { (*a.elems)[i] = v }

// Function is a closed-over-nothing callable: free variables inside its
// body resolve dynamically against the caller's scope chain at call
// time, not against a captured environment.
type Function struct {
	Name   string
	Params []string
	Body   ast.Block
}

func (Number) valueNode()   {}
func (String) valueNode()   {}
func (Bool) valueNode()     {}
func (Null) valueNode()     {}
func (Array) valueNode()    {}
func (Function) valueNode() {}

func (Number) Type() string   { return "number" }
func (String) Type() string   { return "string" }
func (Bool) Type() string     { return "bool" }
func (Null) Type() string     { return "null" }
func (Array) Type() string    { return "array" }
func (Function) Type() string { return "function" }

// Display renders a Value the way print and the REPL do: whole-valued
// numbers without a decimal point, host float formatting otherwise,
// arrays as "[e, e, ...]", functions as "<function>".
func Display(v Value) string {
	switch v := v.(type) {
	case Number:
		f := float64(v)
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case String:
		return string(v)
	case Bool:
		if v {
			return "true"
		}
		return "false"
	case Null:
		return "null"
	case Array:
		parts := make([]string, v.Len())
		for i, e := range v.Elements() {
			parts[i] = Display(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Function:
		return "<function>"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Truthy implements minilang's truthiness rule: Bool is itself; Null is
// false; Number is true iff nonzero (NaN follows the host's != rule,
// which treats it as nonzero, i.e. truthy); String and Array are true
// iff non-empty; Function is always true.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case Null:
		return false
	case Number:
		return float64(v) != 0.0
	case String:
		return len(v) > 0
	case Array:
		return v.Len() > 0
	case Function:
		return true
	default:
		return true
	}
}

// Equal implements value equality: numbers, strings, and bools compare
// by value; null equals null; arrays and functions never compare equal,
// even to themselves.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Number:
		b, ok := b.(Number)
		return ok && a == b
	case String:
		b, ok := b.(String)
		return ok && a == b
	case Bool:
		b, ok := b.(Bool)
		return ok && a == b
	case Null:
		_, ok := b.(Null)
		return ok
	default:
		return false
	}
}
