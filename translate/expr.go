package translate

import (
	"math"
	"math/big"
	"strings"

	tiast "github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	driver "github.com/pingcap/tidb/pkg/parser/test_driver"

	"gluedb/ast"
	"gluedb/errs"
	"gluedb/value"
)

var binOps = map[opcode.Op]ast.BinaryOperator{
	opcode.EQ:       ast.OpEq,
	opcode.NE:       ast.OpNotEq,
	opcode.LT:       ast.OpLt,
	opcode.LE:       ast.OpLtEq,
	opcode.GT:       ast.OpGt,
	opcode.GE:       ast.OpGtEq,
	opcode.LogicAnd: ast.OpAnd,
	opcode.LogicOr:  ast.OpOr,
	opcode.Plus:     ast.OpAdd,
	opcode.Minus:    ast.OpSub,
	opcode.Mul:      ast.OpMul,
	opcode.Div:      ast.OpDiv,
	opcode.Mod:      ast.OpMod,
}

func translateExpr(e tiast.ExprNode) (ast.Expr, error) {
	switch n := e.(type) {
	case nil:
		return nil, nil
	case *driver.ValueExpr:
		return translateValueExpr(n)
	case *tiast.ColumnNameExpr:
		return translateColumnName(n.Name), nil
	case *tiast.ParenthesesExpr:
		inner, err := translateExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.Nested{Inner: inner}, nil
	case *tiast.BinaryOperationExpr:
		op, ok := binOps[n.Op]
		if !ok {
			return nil, errs.New(errs.KindUnsupportedSyntax, "unsupported binary operator %v", n.Op)
		}
		l, err := translateExpr(n.L)
		if err != nil {
			return nil, err
		}
		r, err := translateExpr(n.R)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Left: l, Op: op, Right: r}, nil
	case *tiast.UnaryOperationExpr:
		var op ast.UnaryOperator
		switch n.Op {
		case opcode.Not, opcode.Not2:
			op = ast.OpNot
		case opcode.Minus:
			op = ast.OpNegate
		case opcode.Plus:
			op = ast.OpPlus
		default:
			return nil, errs.New(errs.KindUnsupportedSyntax, "unsupported unary operator %v", n.Op)
		}
		v, err := translateExpr(n.V)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: op, Expr: v}, nil
	case *tiast.IsNullExpr:
		v, err := translateExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.IsNull{Expr: v, Negated: n.Not}, nil
	case *tiast.BetweenExpr:
		v, err := translateExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		lo, err := translateExpr(n.Left)
		if err != nil {
			return nil, err
		}
		hi, err := translateExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return &ast.Between{Expr: v, Negated: n.Not, Low: lo, High: hi}, nil
	case *tiast.CaseExpr:
		return translateCase(n)
	case *tiast.FuncCallExpr:
		return translateFuncCall(n)
	case *tiast.AggregateFuncExpr:
		return translateAggregate(n)
	case *tiast.PatternInExpr:
		return translatePatternIn(n)
	case *tiast.SubqueryExpr:
		sel, err := translateSelect(n.Query.(*tiast.SelectStmt))
		if err != nil {
			return nil, err
		}
		return &ast.Subquery{Select: sel}, nil
	case *tiast.ExistsSubqueryExpr:
		sub, ok := n.Sel.(*tiast.SubqueryExpr)
		if !ok {
			return nil, errs.New(errs.KindUnsupportedSyntax, "EXISTS expects a subquery")
		}
		sel, err := translateSelect(sub.Query.(*tiast.SelectStmt))
		if err != nil {
			return nil, err
		}
		return &ast.Exists{Select: sel, Negated: n.Not}, nil
	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "unsupported expression %T", e)
	}
}

func translateColumnName(name *tiast.ColumnName) ast.Expr {
	if name.Table.O == "" {
		return &ast.Identifier{Name: name.Name.O}
	}
	parts := []string{name.Table.O, name.Name.O}
	if name.Schema.O != "" {
		parts = append([]string{name.Schema.O}, parts...)
	}
	return &ast.CompoundIdentifier{Parts: parts}
}

// translateValueExpr converts a tidb literal Datum to a Value literal.
// Integer types convert through a decimal-text intermediate only when the
// literal would otherwise lose precision (int64/uint64 fit exactly in Go's
// native width, so direct conversion is safe and avoids an allocation).
func translateValueExpr(n *driver.ValueExpr) (ast.Expr, error) {
	d := n.Datum
	switch d.Kind() {
	case driver.KindNull:
		return &ast.Literal{Value: value.NewNull()}, nil
	case driver.KindInt64:
		return &ast.Literal{Value: value.NewI64(d.GetInt64())}, nil
	case driver.KindUint64:
		return &ast.Literal{Value: value.NewU64(d.GetUint64())}, nil
	case driver.KindFloat32:
		f := d.GetFloat64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errs.New(errs.KindNonFiniteFloatParameter, "non-finite float literal")
		}
		return &ast.Literal{Value: value.NewF32(float32(f))}, nil
	case driver.KindFloat64:
		f := d.GetFloat64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errs.New(errs.KindNonFiniteFloatParameter, "non-finite float literal")
		}
		return &ast.Literal{Value: value.NewF64(f)}, nil
	case driver.KindString, driver.KindBytes:
		return &ast.Literal{Value: value.NewStr(d.GetString())}, nil
	case driver.KindMysqlDecimal:
		dec, err := value.ParseDecimal(d.GetMysqlDecimal().String())
		if err != nil {
			return nil, err
		}
		return &ast.Literal{Value: value.NewDecimal(dec)}, nil
	default:
		return nil, errs.New(errs.KindInvalidParamLiteral, "unsupported literal kind %v", d.Kind())
	}
}

func translateCase(n *tiast.CaseExpr) (ast.Expr, error) {
	var operand ast.Expr
	var err error
	if n.Value != nil {
		operand, err = translateExpr(n.Value)
		if err != nil {
			return nil, err
		}
	}
	whens := make([]ast.WhenClause, 0, len(n.WhenClauses))
	for _, w := range n.WhenClauses {
		cond, err := translateExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		res, err := translateExpr(w.Result)
		if err != nil {
			return nil, err
		}
		whens = append(whens, ast.WhenClause{When: cond, Then: res})
	}
	var elseExpr ast.Expr
	if n.ElseClause != nil {
		elseExpr, err = translateExpr(n.ElseClause)
		if err != nil {
			return nil, err
		}
	}
	return &ast.Case{Operand: operand, Whens: whens, Else: elseExpr}, nil
}

var aggregateNames = map[string]ast.AggregateFunc{
	"count":    ast.AggCount,
	"sum":      ast.AggSum,
	"min":      ast.AggMin,
	"max":      ast.AggMax,
	"avg":      ast.AggAvg,
	"variance": ast.AggVar,
	"std":      ast.AggStdev,
	"stddev":   ast.AggStdev,
}

func translateAggregate(n *tiast.AggregateFuncExpr) (ast.Expr, error) {
	fn, ok := aggregateNames[strings.ToLower(n.F)]
	if !ok {
		return nil, errs.New(errs.KindUnsupportedSyntax, "unsupported aggregate function %q", n.F)
	}
	var arg ast.Expr
	if len(n.Args) == 1 {
		if cn, isCol := n.Args[0].(*tiast.ColumnNameExpr); !isCol || cn.Name.Name.O != "*" || fn != ast.AggCount {
			a, err := translateExpr(n.Args[0])
			if err != nil {
				return nil, err
			}
			arg = a
		}
	} else if len(n.Args) > 1 {
		return nil, errs.New(errs.KindFunctionArgsLength, "aggregate %q takes exactly one argument, found %d", n.F, len(n.Args))
	}
	return &ast.Aggregate{Func: fn, Arg: arg, Distinct: n.Distinct}, nil
}

func translateFuncCall(n *tiast.FuncCallExpr) (ast.Expr, error) {
	name := strings.ToUpper(n.FnName.O)
	args := make([]ast.Expr, 0, len(n.Args))
	for _, a := range n.Args {
		if _, ok := a.(*tiast.ColumnNameExpr); ok {
			if cn := a.(*tiast.ColumnNameExpr); cn.Name.Name.O == "*" {
				return nil, errs.New(errs.KindWildcardFunctionArg, "function %q does not accept a wildcard argument", name)
			}
		}
		t, err := translateExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	return &ast.Function{Name: name, Args: args}, nil
}

func translatePatternIn(n *tiast.PatternInExpr) (ast.Expr, error) {
	e, err := translateExpr(n.Expr)
	if err != nil {
		return nil, err
	}
	if n.Sel != nil {
		sub, ok := n.Sel.(*tiast.SubqueryExpr)
		if !ok {
			return nil, errs.New(errs.KindUnsupportedSyntax, "IN expects a subquery or literal list")
		}
		sel, err := translateSelect(sub.Query.(*tiast.SelectStmt))
		if err != nil {
			return nil, err
		}
		return &ast.InSubquery{Expr: e, Subquery: sel, Negated: n.Not}, nil
	}
	list := make([]ast.Expr, 0, len(n.List))
	for _, item := range n.List {
		t, err := translateExpr(item)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return &ast.InList{Expr: e, List: list, Negated: n.Not}, nil
}

// bigIntLiteral is used by param.go to build integer literals as a scale-0
// Decimal, avoiding precision loss for values outside int64/uint64 range.
// The caller checks that n fits the Decimal's 96-bit mantissa.
func bigIntLiteral(n *big.Int) ast.Expr {
	d, _ := value.NewDecimalFromParts(n, 0)
	return &ast.Literal{Value: value.NewDecimal(d)}
}
