// Package evaluate reduces a translated, planned Expr to a runtime value
// given an optional row Context, an optional aggregate-bindings map, and a
// SubqueryRunner for nested Selects (§4.5).
package evaluate

import "gluedb/value"

// Evaluated is the evaluator's working result: either a materialized Value,
// or a StrSlice view into a source string that a later TRIM/SUBSTR can
// keep slicing without allocating, only materializing into Value::Str on
// the first cross-operand combination (such as concat).
type Evaluated struct {
	val     value.Value
	source  string
	lo, hi  int
	isSlice bool
}

// FromValue wraps a materialized Value.
func FromValue(v value.Value) Evaluated { return Evaluated{val: v} }

// fromStrSlice builds a non-materialized slice view.
func fromStrSlice(source string, lo, hi int) Evaluated {
	return Evaluated{isSlice: true, source: source, lo: lo, hi: hi}
}

// ToValue materializes the result into a Value, allocating a Str copy if
// this is still a StrSlice.
func (e Evaluated) ToValue() value.Value {
	if e.isSlice {
		return value.NewStr(e.source[e.lo:e.hi])
	}
	return e.val
}

func (e Evaluated) IsNull() bool {
	if e.isSlice {
		return false
	}
	return e.val.IsNull()
}

// Str returns the slice's text without materializing a Value when e is a
// StrSlice, else falls back to the underlying Value's string form.
func (e Evaluated) Str() (string, bool) {
	if e.isSlice {
		return e.source[e.lo:e.hi], true
	}
	return e.val.Str()
}

// Equal compares two Evaluated results by their materialized Values, the
// full cross-type equality the evaluator's CASE/IN/Between contracts need.
func Equal(a, b Evaluated) bool {
	return value.Equal(a.ToValue(), b.ToValue())
}
