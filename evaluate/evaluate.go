package evaluate

import (
	"gluedb/ast"
	"gluedb/errs"
	"gluedb/storage"
	"gluedb/value"
)

// SubqueryRunner executes a planned Select against storage and returns its
// rows, letting the evaluator stay ignorant of the executor's pipeline
// while still satisfying Subquery/Exists/InSubquery (§4.5).
type SubqueryRunner interface {
	RunSelect(outer *Context, sel *ast.Select) (rows [][]value.Value, err error)
}

// Evaluator reduces Expr nodes to Evaluated results.
type Evaluator struct {
	Storage storage.Storage
	Runner  SubqueryRunner
}

func New(store storage.Storage, runner SubqueryRunner) *Evaluator {
	return &Evaluator{Storage: store, Runner: runner}
}

// Eval reduces e to an Evaluated, resolving identifiers against ctx (nil if
// there is no row in scope) and aggregate calls against aggregated (nil
// outside a grouped projection/having).
func (ev *Evaluator) Eval(ctx *Context, aggregated map[*ast.Aggregate]value.Value, e ast.Expr) (Evaluated, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return FromValue(n.Value), nil

	case *ast.TypedString:
		v, err := typedStringValue(n)
		if err != nil {
			return Evaluated{}, err
		}
		return FromValue(v), nil

	case *ast.Identifier:
		if ctx == nil {
			return Evaluated{}, errs.New(errs.KindUnreachableEmptyContext, "no row context to resolve %q", n.Name)
		}
		v, ok := ctx.Get(n.Name)
		if !ok {
			return Evaluated{}, errs.New(errs.KindValueNotFound, "%s", n.Name)
		}
		return FromValue(v), nil

	case *ast.CompoundIdentifier:
		if len(n.Parts) != 2 {
			return Evaluated{}, errs.New(errs.KindUnsupportedCompoundIdentifier, "%v", n.Parts)
		}
		if ctx == nil {
			return Evaluated{}, errs.New(errs.KindUnreachableEmptyContext, "no row context to resolve %v", n.Parts)
		}
		v, ok := ctx.GetAlias(n.Parts[0], n.Parts[1])
		if !ok {
			return Evaluated{}, errs.New(errs.KindValueNotFound, "%s", n.Parts[1])
		}
		return FromValue(v), nil

	case *ast.Nested:
		return ev.Eval(ctx, aggregated, n.Inner)

	case *ast.MapIndex:
		obj, err := ev.Eval(ctx, aggregated, n.Obj)
		if err != nil {
			return Evaluated{}, err
		}
		ov := obj.ToValue()
		if ov.IsNull() {
			return FromValue(value.NewNull()), nil
		}
		m, ok := ov.MapVal()
		if !ok {
			return Evaluated{}, errs.New(errs.KindFunctionRequiresMapValue, "%s", n.Key)
		}
		if v, ok := m[n.Key]; ok {
			return FromValue(v), nil
		}
		return FromValue(value.NewNull()), nil

	case *ast.BinaryOp:
		return ev.evalBinaryOp(ctx, aggregated, n)

	case *ast.UnaryOp:
		v, err := ev.Eval(ctx, aggregated, n.Expr)
		if err != nil {
			return Evaluated{}, err
		}
		return evalUnaryOp(n.Op, v.ToValue())

	case *ast.Aggregate:
		if aggregated == nil {
			return Evaluated{}, errs.New(errs.KindUnreachableEmptyAggregateValue, "%s", n.Func)
		}
		v, ok := aggregated[n]
		if !ok {
			return Evaluated{}, errs.New(errs.KindUnreachableEmptyAggregateValue, "%s", n.Func)
		}
		return FromValue(v), nil

	case *ast.Function:
		return ev.evalFunction(ctx, aggregated, n)

	case *ast.Cast:
		v, err := ev.Eval(ctx, aggregated, n.Expr)
		if err != nil {
			return Evaluated{}, err
		}
		cast, err := value.Cast(v.ToValue(), n.Type.ValueKind())
		if err != nil {
			return Evaluated{}, err
		}
		return FromValue(cast), nil

	case *ast.InList:
		target, err := ev.Eval(ctx, aggregated, n.Expr)
		if err != nil {
			return Evaluated{}, err
		}
		found := false
		for _, item := range n.List {
			v, err := ev.Eval(ctx, aggregated, item)
			if err != nil {
				return Evaluated{}, err
			}
			if Equal(v, target) {
				found = true
				break
			}
		}
		return FromValue(value.NewBool(found != n.Negated)), nil

	case *ast.InSubquery:
		target, err := ev.Eval(ctx, aggregated, n.Expr)
		if err != nil {
			return Evaluated{}, err
		}
		rows, err := ev.Runner.RunSelect(ctx, n.Subquery)
		if err != nil {
			return Evaluated{}, err
		}
		found := false
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			if value.Equal(row[0], target.ToValue()) {
				found = true
				break
			}
		}
		return FromValue(value.NewBool(found != n.Negated)), nil

	case *ast.Subquery:
		rows, err := ev.Runner.RunSelect(ctx, n.Select)
		if err != nil {
			return Evaluated{}, err
		}
		if len(rows) == 0 || len(rows[0]) == 0 {
			return Evaluated{}, errs.New(errs.KindNestedSelectRowNotFound, "scalar subquery returned no rows")
		}
		return FromValue(rows[0][0]), nil

	case *ast.Exists:
		rows, err := ev.Runner.RunSelect(ctx, n.Select)
		if err != nil {
			return Evaluated{}, err
		}
		return FromValue(value.NewBool((len(rows) > 0) != n.Negated)), nil

	case *ast.Between:
		target, err := ev.Eval(ctx, aggregated, n.Expr)
		if err != nil {
			return Evaluated{}, err
		}
		lo, err := ev.Eval(ctx, aggregated, n.Low)
		if err != nil {
			return Evaluated{}, err
		}
		hi, err := ev.Eval(ctx, aggregated, n.High)
		if err != nil {
			return Evaluated{}, err
		}
		return evalBetween(target.ToValue(), n.Negated, lo.ToValue(), hi.ToValue())

	case *ast.IsNull:
		v, err := ev.Eval(ctx, aggregated, n.Expr)
		if err != nil {
			return Evaluated{}, err
		}
		isNull := v.IsNull()
		if n.Negated {
			isNull = !isNull
		}
		return FromValue(value.NewBool(isNull)), nil

	case *ast.Case:
		return ev.evalCase(ctx, aggregated, n)

	case *ast.Wildcard, *ast.QualifiedWildcard:
		return Evaluated{}, errs.New(errs.KindWildcardUnreachablePosition, "wildcard cannot appear in a scalar position")

	default:
		return Evaluated{}, errs.New(errs.KindUnsupportedSyntax, "cannot evaluate %T", e)
	}
}

func typedStringValue(n *ast.TypedString) (value.Value, error) {
	return value.Cast(value.NewStr(n.Text), n.Type.ValueKind())
}

func (ev *Evaluator) evalBinaryOp(ctx *Context, aggregated map[*ast.Aggregate]value.Value, n *ast.BinaryOp) (Evaluated, error) {
	left, err := ev.Eval(ctx, aggregated, n.Left)
	if err != nil {
		return Evaluated{}, err
	}
	right, err := ev.Eval(ctx, aggregated, n.Right)
	if err != nil {
		return Evaluated{}, err
	}
	return evalBinaryValue(n.Op, left, right)
}

func evalBinaryValue(op ast.BinaryOperator, left, right Evaluated) (Evaluated, error) {
	switch op {
	case ast.OpAnd, ast.OpOr:
		l, lok := left.ToValue().Bool()
		r, rok := right.ToValue().Bool()
		switch op {
		case ast.OpAnd:
			if lok && !l {
				return FromValue(value.NewBool(false)), nil
			}
			if rok && !r {
				return FromValue(value.NewBool(false)), nil
			}
			if left.IsNull() || right.IsNull() {
				return FromValue(value.NewNull()), nil
			}
			return FromValue(value.NewBool(l && r)), nil
		default: // OR
			if lok && l {
				return FromValue(value.NewBool(true)), nil
			}
			if rok && r {
				return FromValue(value.NewBool(true)), nil
			}
			if left.IsNull() || right.IsNull() {
				return FromValue(value.NewNull()), nil
			}
			return FromValue(value.NewBool(l || r)), nil
		}
	case ast.OpEq, ast.OpNotEq, ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		if left.IsNull() || right.IsNull() {
			return FromValue(value.NewNull()), nil
		}
		cmp, ok := value.Compare(left.ToValue(), right.ToValue())
		if !ok {
			if op == ast.OpEq {
				return FromValue(value.NewBool(value.Equal(left.ToValue(), right.ToValue()))), nil
			}
			if op == ast.OpNotEq {
				return FromValue(value.NewBool(!value.Equal(left.ToValue(), right.ToValue()))), nil
			}
			return FromValue(value.NewNull()), nil
		}
		var result bool
		switch op {
		case ast.OpEq:
			result = cmp == 0
		case ast.OpNotEq:
			result = cmp != 0
		case ast.OpLt:
			result = cmp < 0
		case ast.OpLtEq:
			result = cmp <= 0
		case ast.OpGt:
			result = cmp > 0
		case ast.OpGtEq:
			result = cmp >= 0
		}
		return FromValue(value.NewBool(result)), nil
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		v, err := arith(op, left.ToValue(), right.ToValue())
		if err != nil {
			return Evaluated{}, err
		}
		return FromValue(v), nil
	case ast.OpConcat:
		return concat(left, right)
	case ast.OpLike, ast.OpNotLike:
		return evalLike(op, left.ToValue(), right.ToValue())
	default:
		return Evaluated{}, errs.New(errs.KindUnsupportedSyntax, "unsupported binary operator %s", op)
	}
}

func arith(op ast.BinaryOperator, l, r value.Value) (value.Value, error) {
	switch op {
	case ast.OpAdd:
		return value.Add(l, r)
	case ast.OpSub:
		return value.Sub(l, r)
	case ast.OpMul:
		return value.Mul(l, r)
	case ast.OpDiv:
		return value.Div(l, r)
	case ast.OpMod:
		return value.Mod(l, r)
	default:
		return value.Value{}, errs.New(errs.KindUnsupportedSyntax, "unsupported arithmetic operator %s", op)
	}
}

func concat(left, right Evaluated) (Evaluated, error) {
	v, err := value.Concat(left.ToValue(), right.ToValue())
	if err != nil {
		return Evaluated{}, err
	}
	return FromValue(v), nil
}

func evalLike(op ast.BinaryOperator, target, pattern value.Value) (Evaluated, error) {
	if target.IsNull() || pattern.IsNull() {
		return FromValue(value.NewNull()), nil
	}
	s, ok := target.Str()
	if !ok {
		return Evaluated{}, errs.New(errs.KindFunctionRequiresStringValue, "LIKE")
	}
	pat, ok := pattern.Str()
	if !ok {
		return Evaluated{}, errs.New(errs.KindFunctionRequiresStringValue, "LIKE")
	}
	matched := matchLike(s, pat)
	if op == ast.OpNotLike {
		matched = !matched
	}
	return FromValue(value.NewBool(matched)), nil
}

// matchLike implements SQL LIKE with `%` (any run) and `_` (single char)
// wildcards via a standard two-pointer/backtrack matcher.
func matchLike(s, pattern string) bool {
	sr, pr := []rune(s), []rune(pattern)
	var sIdx, pIdx, starIdx, sTmpIdx int
	starIdx = -1
	for sIdx < len(sr) {
		if pIdx < len(pr) && (pr[pIdx] == '_' || pr[pIdx] == sr[sIdx]) {
			sIdx++
			pIdx++
		} else if pIdx < len(pr) && pr[pIdx] == '%' {
			starIdx = pIdx
			sTmpIdx = sIdx
			pIdx++
		} else if starIdx != -1 {
			pIdx = starIdx + 1
			sTmpIdx++
			sIdx = sTmpIdx
		} else {
			return false
		}
	}
	for pIdx < len(pr) && pr[pIdx] == '%' {
		pIdx++
	}
	return pIdx == len(pr)
}

func evalUnaryOp(op ast.UnaryOperator, v value.Value) (Evaluated, error) {
	if v.IsNull() {
		return FromValue(value.NewNull()), nil
	}
	switch op {
	case ast.OpNot:
		b, ok := v.Bool()
		if !ok {
			return Evaluated{}, errs.New(errs.KindNonNumericMathOperation, "NOT requires a boolean operand")
		}
		return FromValue(value.NewBool(!b)), nil
	case ast.OpPlus:
		return FromValue(v), nil
	case ast.OpNegate:
		zero := value.NewI64(0)
		neg, err := value.Sub(zero, v)
		if err != nil {
			return Evaluated{}, err
		}
		return FromValue(neg), nil
	default:
		return Evaluated{}, errs.New(errs.KindUnsupportedSyntax, "unsupported unary operator %s", op)
	}
}

func evalBetween(target value.Value, negated bool, lo, hi value.Value) (Evaluated, error) {
	ge, err := evalBinaryValue(ast.OpGtEq, FromValue(target), FromValue(lo))
	if err != nil {
		return Evaluated{}, err
	}
	le, err := evalBinaryValue(ast.OpLtEq, FromValue(target), FromValue(hi))
	if err != nil {
		return Evaluated{}, err
	}
	result, err := evalBinaryValue(ast.OpAnd, ge, le)
	if err != nil {
		return Evaluated{}, err
	}
	if !negated {
		return result, nil
	}
	if result.IsNull() {
		return result, nil
	}
	return evalUnaryOp(ast.OpNot, result.ToValue())
}

func (ev *Evaluator) evalCase(ctx *Context, aggregated map[*ast.Aggregate]value.Value, n *ast.Case) (Evaluated, error) {
	var operand Evaluated
	hasOperand := n.Operand != nil
	if hasOperand {
		v, err := ev.Eval(ctx, aggregated, n.Operand)
		if err != nil {
			return Evaluated{}, err
		}
		operand = v
	} else {
		operand = FromValue(value.NewBool(true))
	}

	for _, w := range n.Whens {
		when, err := ev.Eval(ctx, aggregated, w.When)
		if err != nil {
			return Evaluated{}, err
		}
		var matches bool
		if hasOperand {
			matches = Equal(when, operand)
		} else {
			b, _ := when.ToValue().Bool()
			matches = b
		}
		if matches {
			return ev.Eval(ctx, aggregated, w.Then)
		}
	}

	if n.Else != nil {
		return ev.Eval(ctx, aggregated, n.Else)
	}
	return FromValue(value.NewNull()), nil
}
