package translate

import (
	"math"
	"math/big"

	"gluedb/ast"
	"gluedb/errs"
	"gluedb/value"
)

// Param is a host-language value bound into a prepared statement in place
// of a `?` placeholder. It mirrors the representable value space a caller
// can hand the engine without going through SQL text first.
type Param struct {
	kind paramKind
	b    bool
	i    int64
	u    uint64
	big  *big.Int
	f    float64
	s    string
	by   []byte
	null bool
}

type paramKind int

const (
	paramNull paramKind = iota
	paramBool
	paramInt
	paramUint
	paramBigInt
	paramFloat
	paramString
	paramBytes
)

func ParamNull() Param             { return Param{kind: paramNull, null: true} }
func ParamBool(b bool) Param       { return Param{kind: paramBool, b: b} }
func ParamInt(i int64) Param       { return Param{kind: paramInt, i: i} }
func ParamUint(u uint64) Param     { return Param{kind: paramUint, u: u} }
func ParamBigInt(n *big.Int) Param { return Param{kind: paramBigInt, big: n} }
func ParamFloat(f float64) Param   { return Param{kind: paramFloat, f: f} }
func ParamString(s string) Param   { return Param{kind: paramString, s: s} }
func ParamBytes(b []byte) Param    { return Param{kind: paramBytes, by: b} }

// IntoParamLiteral converts a bindable Param into a literal expression.
// Every representable value converts; non-finite floats are rejected.
// Integers wider than a machine word convert through a scale-0 Decimal
// (NewDecimalFromParts) rather than through float64, so no precision is
// lost en route to the engine's Value space; one whose magnitude exceeds
// the 96-bit mantissa is rejected.
func IntoParamLiteral(p Param) (ast.Expr, error) {
	switch p.kind {
	case paramNull:
		return &ast.Literal{Value: value.NewNull()}, nil
	case paramBool:
		return &ast.Literal{Value: value.NewBool(p.b)}, nil
	case paramInt:
		return &ast.Literal{Value: value.NewI64(p.i)}, nil
	case paramUint:
		return &ast.Literal{Value: value.NewU64(p.u)}, nil
	case paramBigInt:
		if _, err := value.NewDecimalFromParts(p.big, 0); err != nil {
			return nil, err
		}
		return bigIntLiteral(p.big), nil
	case paramFloat:
		if math.IsNaN(p.f) || math.IsInf(p.f, 0) {
			return nil, errs.New(errs.KindNonFiniteFloatParameter, "non-finite float parameter")
		}
		return &ast.Literal{Value: value.NewF64(p.f)}, nil
	case paramString:
		return &ast.Literal{Value: value.NewStr(p.s)}, nil
	case paramBytes:
		return &ast.Literal{Value: value.NewBytea(p.by)}, nil
	default:
		return nil, errs.New(errs.KindInvalidParamLiteral, "unrecognized parameter kind")
	}
}

// Placeholder stands for params[Index] in BindParams, which replaces it with
// that parameter's IntoParamLiteral conversion. BindParams descends only
// through Nested, BinaryOp, UnaryOp and Cast; a Placeholder under any other
// node is left in place. Placeholders are introduced by the caller, never
// produced by translateExpr.
type Placeholder struct{ Index int }

// exprNode satisfies ast.Expr so callers can build placeholder trees before
// binding; it is never reachable from parsed SQL, only from programmatic
// statement construction.
func (*Placeholder) exprNode() {}

func BindParams(e ast.Expr, params []Param) (ast.Expr, error) {
	switch n := e.(type) {
	case nil:
		return nil, nil
	case *Placeholder:
		if n.Index < 0 || n.Index >= len(params) {
			return nil, errs.New(errs.KindInvalidParamLiteral, "parameter index %d out of range", n.Index)
		}
		return IntoParamLiteral(params[n.Index])
	case *ast.Nested:
		inner, err := BindParams(n.Inner, params)
		if err != nil {
			return nil, err
		}
		return &ast.Nested{Inner: inner}, nil
	case *ast.BinaryOp:
		l, err := BindParams(n.Left, params)
		if err != nil {
			return nil, err
		}
		r, err := BindParams(n.Right, params)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Left: l, Op: n.Op, Right: r}, nil
	case *ast.UnaryOp:
		v, err := BindParams(n.Expr, params)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: n.Op, Expr: v}, nil
	case *ast.Cast:
		v, err := BindParams(n.Expr, params)
		if err != nil {
			return nil, err
		}
		return &ast.Cast{Expr: v, Type: n.Type}, nil
	default:
		return e, nil
	}
}
