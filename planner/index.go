// Package planner rewrites a parsed Statement against a schema snapshot so
// the executor issues fewer, smaller scans: the index planner attaches a
// secondary-index access path to a table scan (§4.4.1), and the schemaless
// planner rewrites bare column identifiers against document-shaped tables
// into map lookups (§4.4.2). Both planners are read-only with respect to
// the schema: they consult it, never mutate it.
package planner

import (
	"gluedb/ast"
	"gluedb/schema"
	"gluedb/value"
)

// PlanIndex walks stmt and attaches index access paths wherever a table
// scan can be narrowed or an ORDER BY term can be satisfied by an index,
// recursing into every nested Select reachable through a subquery, EXISTS,
// IN, or derived table.
func PlanIndex(schemas map[string]*schema.Table, stmt ast.Statement) (ast.Statement, error) {
	switch s := stmt.(type) {
	case *ast.Select:
		return planSelect(schemas, s)
	case *ast.Insert:
		if src, ok := s.Source.(*ast.SelectSource); ok {
			sel, err := planSelect(schemas, src.Select)
			if err != nil {
				return nil, err
			}
			src.Select = sel
		}
		return s, nil
	default:
		return stmt, nil
	}
}

func planSelect(schemas map[string]*schema.Table, sel *ast.Select) (*ast.Select, error) {
	if d, ok := sel.From.(*ast.Derived); ok {
		inner, err := planSelect(schemas, d.Select)
		if err != nil {
			return nil, err
		}
		d.Select = inner
	}
	for _, j := range sel.Joins {
		if d, ok := j.Relation.(*ast.Derived); ok {
			inner, err := planSelect(schemas, d.Select)
			if err != nil {
				return nil, err
			}
			d.Select = inner
		}
	}
	table, isTable := sel.From.(*ast.Table)
	var sc *schema.Table
	if isTable && table.Index == nil {
		sc = schemas[lowerName(table.Name)]
	}

	if sc != nil && len(sel.OrderBy) > 0 {
		last := sel.OrderBy[len(sel.OrderBy)-1]
		if name, ok := findOrderedIndex(sc, last); ok {
			table.Index = &ast.NonClusteredIndex{Name: name, Asc: last.Direction == ast.OrderAsc}
			sel.OrderBy = sel.OrderBy[:len(sel.OrderBy)-1]
		}
	}

	if sel.Where != nil {
		if sc != nil && table.Index == nil {
			planned, err := planIndexExpr(schemas, sc, sel.Where)
			if err != nil {
				return nil, err
			}
			if planned.indexed {
				table.Index = &ast.NonClusteredIndex{Name: planned.indexName, Op: planned.op, Value: planned.value}
				sel.Where = planned.residual
			} else {
				sel.Where = planned.residual
			}
		} else {
			rewritten, err := planSubqueriesInExpr(schemas, sel.Where)
			if err != nil {
				return nil, err
			}
			sel.Where = rewritten
		}
	}

	for i := range sel.Projection {
		item, ok := sel.Projection[i].(*ast.ExprItem)
		if !ok {
			continue
		}
		rewritten, err := planSubqueriesInExpr(schemas, item.Expr)
		if err != nil {
			return nil, err
		}
		item.Expr = rewritten
	}

	return sel, nil
}

func lowerName(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func findOrderedIndex(sc *schema.Table, order ast.OrderByExpr) (string, bool) {
	ident, ok := exprColumnName(order.Expr)
	if !ok {
		return "", false
	}
	for _, idx := range sc.Indexes {
		if !equalFoldASCII(idx.Expression, ident) {
			continue
		}
		switch idx.Order {
		case schema.SortBoth:
			return idx.Name, true
		case schema.SortAsc:
			if order.Direction == ast.OrderAsc {
				return idx.Name, true
			}
		case schema.SortDesc:
			if order.Direction == ast.OrderDesc {
				return idx.Name, true
			}
		}
	}
	return "", false
}

func exprColumnName(e ast.Expr) (string, bool) {
	switch n := e.(type) {
	case *ast.Identifier:
		return n.Name, true
	case *ast.CompoundIdentifier:
		if len(n.Parts) > 0 {
			return n.Parts[len(n.Parts)-1], true
		}
	}
	return "", false
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// plannedExpr is the index planner's intermediate result for one WHERE
// expression: either it fully resolved to an index access (indexed=true,
// residual holds whatever AND-conjuncts remain), or it resolved to a plain
// (subquery-rewritten) expression with no index contribution.
type plannedExpr struct {
	indexed   bool
	indexName string
	op        ast.BinaryOperator
	value     ast.Expr
	residual  ast.Expr // remaining selection, possibly nil
}

func exprPlanned(e ast.Expr) plannedExpr { return plannedExpr{residual: e} }

func planIndexExpr(schemas map[string]*schema.Table, sc *schema.Table, e ast.Expr) (plannedExpr, error) {
	switch n := e.(type) {
	case *ast.Nested:
		return planIndexExpr(schemas, sc, n.Inner)
	case *ast.IsNull:
		if name, ok := indexedColumn(sc, n.Expr); ok {
			op := ast.OpEq
			if n.Negated {
				op = ast.OpLt
			}
			return plannedExpr{indexed: true, indexName: name, op: op, value: &ast.Literal{Value: value.NewNull()}}, nil
		}
		rewritten, err := planSubqueriesInExpr(schemas, n.Expr)
		if err != nil {
			return plannedExpr{}, err
		}
		return exprPlanned(&ast.IsNull{Expr: rewritten, Negated: n.Negated}), nil
	case *ast.Subquery:
		sel, err := planSelect(schemas, n.Select)
		if err != nil {
			return plannedExpr{}, err
		}
		return exprPlanned(&ast.Subquery{Select: sel}), nil
	case *ast.Exists:
		sel, err := planSelect(schemas, n.Select)
		if err != nil {
			return plannedExpr{}, err
		}
		return exprPlanned(&ast.Exists{Select: sel, Negated: n.Negated}), nil
	case *ast.InSubquery:
		left, err := planSubqueriesInExpr(schemas, n.Expr)
		if err != nil {
			return plannedExpr{}, err
		}
		sel, err := planSelect(schemas, n.Subquery)
		if err != nil {
			return plannedExpr{}, err
		}
		return exprPlanned(&ast.InSubquery{Expr: left, Subquery: sel, Negated: n.Negated}), nil
	case *ast.BinaryOp:
		if n.Op == ast.OpAnd {
			left, err := planIndexExpr(schemas, sc, n.Left)
			if err != nil {
				return plannedExpr{}, err
			}
			if left.indexed {
				residual := left.residual
				if residual != nil {
					residual = &ast.BinaryOp{Left: residual, Op: ast.OpAnd, Right: n.Right}
				} else {
					residual = n.Right
				}
				left.residual = residual
				return left, nil
			}

			right, err := planIndexExpr(schemas, sc, n.Right)
			if err != nil {
				return plannedExpr{}, err
			}
			if right.indexed {
				residual := right.residual
				if residual != nil {
					residual = &ast.BinaryOp{Left: left.residual, Op: ast.OpAnd, Right: residual}
				} else {
					residual = left.residual
				}
				right.residual = residual
				return right, nil
			}

			return exprPlanned(&ast.BinaryOp{Left: left.residual, Op: ast.OpAnd, Right: right.residual}), nil
		}

		if isComparisonOp(n.Op) {
			return searchIndexOp(schemas, sc, n.Op, n.Left, n.Right)
		}

		left, err := planSubqueriesInExpr(schemas, n.Left)
		if err != nil {
			return plannedExpr{}, err
		}
		right, err := planSubqueriesInExpr(schemas, n.Right)
		if err != nil {
			return plannedExpr{}, err
		}
		return exprPlanned(&ast.BinaryOp{Left: left, Op: n.Op, Right: right}), nil
	default:
		rewritten, err := planSubqueriesInExpr(schemas, e)
		if err != nil {
			return plannedExpr{}, err
		}
		return exprPlanned(rewritten), nil
	}
}

func isComparisonOp(op ast.BinaryOperator) bool {
	switch op {
	case ast.OpEq, ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		return true
	default:
		return false
	}
}

func searchIndexOp(schemas map[string]*schema.Table, sc *schema.Table, op ast.BinaryOperator, left, right ast.Expr) (plannedExpr, error) {
	if name, ok := indexedColumn(sc, left); ok && ast.IsDeterministic(right) && !ast.CanReturnNull(right) {
		value, err := planSubqueriesInExpr(schemas, right)
		if err != nil {
			return plannedExpr{}, err
		}
		return plannedExpr{indexed: true, indexName: name, op: op, value: value}, nil
	}
	if name, ok := indexedColumn(sc, right); ok && ast.IsDeterministic(left) && !ast.CanReturnNull(left) {
		value, err := planSubqueriesInExpr(schemas, left)
		if err != nil {
			return plannedExpr{}, err
		}
		return plannedExpr{indexed: true, indexName: name, op: op.Reverse(), value: value}, nil
	}
	if nested, ok := left.(*ast.Nested); ok {
		return searchIndexOp(schemas, sc, op, nested.Inner, right)
	}
	if nested, ok := right.(*ast.Nested); ok {
		return searchIndexOp(schemas, sc, op, left, nested.Inner)
	}
	l, err := planSubqueriesInExpr(schemas, left)
	if err != nil {
		return plannedExpr{}, err
	}
	r, err := planSubqueriesInExpr(schemas, right)
	if err != nil {
		return plannedExpr{}, err
	}
	return exprPlanned(&ast.BinaryOp{Left: l, Op: op, Right: r}), nil
}

func indexedColumn(sc *schema.Table, e ast.Expr) (string, bool) {
	name, ok := exprColumnName(e)
	if !ok {
		return "", false
	}
	for _, idx := range sc.Indexes {
		if equalFoldASCII(idx.Expression, name) {
			return idx.Name, true
		}
	}
	return "", false
}

// planSubqueriesInExpr recurses into any expression looking for nested
// Selects (Subquery/Exists/InSubquery) and plans them too, leaving every
// other node shape unchanged. It never itself attaches an index.
func planSubqueriesInExpr(schemas map[string]*schema.Table, e ast.Expr) (ast.Expr, error) {
	switch n := e.(type) {
	case nil:
		return nil, nil
	case *ast.Subquery:
		sel, err := planSelect(schemas, n.Select)
		if err != nil {
			return nil, err
		}
		return &ast.Subquery{Select: sel}, nil
	case *ast.Exists:
		sel, err := planSelect(schemas, n.Select)
		if err != nil {
			return nil, err
		}
		return &ast.Exists{Select: sel, Negated: n.Negated}, nil
	case *ast.InSubquery:
		left, err := planSubqueriesInExpr(schemas, n.Expr)
		if err != nil {
			return nil, err
		}
		sel, err := planSelect(schemas, n.Subquery)
		if err != nil {
			return nil, err
		}
		return &ast.InSubquery{Expr: left, Subquery: sel, Negated: n.Negated}, nil
	case *ast.Nested:
		inner, err := planSubqueriesInExpr(schemas, n.Inner)
		if err != nil {
			return nil, err
		}
		return &ast.Nested{Inner: inner}, nil
	case *ast.BinaryOp:
		l, err := planSubqueriesInExpr(schemas, n.Left)
		if err != nil {
			return nil, err
		}
		r, err := planSubqueriesInExpr(schemas, n.Right)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Left: l, Op: n.Op, Right: r}, nil
	case *ast.UnaryOp:
		v, err := planSubqueriesInExpr(schemas, n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: n.Op, Expr: v}, nil
	case *ast.Between:
		v, err := planSubqueriesInExpr(schemas, n.Expr)
		if err != nil {
			return nil, err
		}
		lo, err := planSubqueriesInExpr(schemas, n.Low)
		if err != nil {
			return nil, err
		}
		hi, err := planSubqueriesInExpr(schemas, n.High)
		if err != nil {
			return nil, err
		}
		return &ast.Between{Expr: v, Negated: n.Negated, Low: lo, High: hi}, nil
	case *ast.IsNull:
		v, err := planSubqueriesInExpr(schemas, n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.IsNull{Expr: v, Negated: n.Negated}, nil
	case *ast.Cast:
		v, err := planSubqueriesInExpr(schemas, n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.Cast{Expr: v, Type: n.Type}, nil
	case *ast.InList:
		v, err := planSubqueriesInExpr(schemas, n.Expr)
		if err != nil {
			return nil, err
		}
		list := make([]ast.Expr, len(n.List))
		for i, item := range n.List {
			t, err := planSubqueriesInExpr(schemas, item)
			if err != nil {
				return nil, err
			}
			list[i] = t
		}
		return &ast.InList{Expr: v, List: list, Negated: n.Negated}, nil
	case *ast.Case:
		var operand ast.Expr
		var err error
		if n.Operand != nil {
			operand, err = planSubqueriesInExpr(schemas, n.Operand)
			if err != nil {
				return nil, err
			}
		}
		whens := make([]ast.WhenClause, len(n.Whens))
		for i, w := range n.Whens {
			when, err := planSubqueriesInExpr(schemas, w.When)
			if err != nil {
				return nil, err
			}
			then, err := planSubqueriesInExpr(schemas, w.Then)
			if err != nil {
				return nil, err
			}
			whens[i] = ast.WhenClause{When: when, Then: then}
		}
		var elseExpr ast.Expr
		if n.Else != nil {
			elseExpr, err = planSubqueriesInExpr(schemas, n.Else)
			if err != nil {
				return nil, err
			}
		}
		return &ast.Case{Operand: operand, Whens: whens, Else: elseExpr}, nil
	case *ast.Function:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			t, err := planSubqueriesInExpr(schemas, a)
			if err != nil {
				return nil, err
			}
			args[i] = t
		}
		return &ast.Function{Name: n.Name, Args: args, Distinct: n.Distinct}, nil
	case *ast.Aggregate:
		if n.Arg == nil {
			return n, nil
		}
		arg, err := planSubqueriesInExpr(schemas, n.Arg)
		if err != nil {
			return nil, err
		}
		return &ast.Aggregate{Func: n.Func, Arg: arg, Distinct: n.Distinct}, nil
	default:
		return e, nil
	}
}
