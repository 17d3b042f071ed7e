package translate

import (
	tiast "github.com/pingcap/tidb/pkg/parser/ast"

	"gluedb/ast"
	"gluedb/errs"
)

func translateSelect(stmt *tiast.SelectStmt) (*ast.Select, error) {
	sel := &ast.Select{}

	if stmt.Fields != nil {
		for _, f := range stmt.Fields.Fields {
			item, err := translateSelectField(f)
			if err != nil {
				return nil, err
			}
			sel.Projection = append(sel.Projection, item)
		}
	}

	if stmt.From != nil && stmt.From.TableRefs != nil {
		from, joins, err := flattenJoin(stmt.From.TableRefs)
		if err != nil {
			return nil, err
		}
		sel.From = from
		sel.Joins = joins
	}

	if stmt.Where != nil {
		where, err := translateExpr(stmt.Where)
		if err != nil {
			return nil, err
		}
		sel.Where = where
	}

	if stmt.GroupBy != nil {
		for _, item := range stmt.GroupBy.Items {
			e, err := translateExpr(item.Expr)
			if err != nil {
				return nil, err
			}
			sel.GroupBy = append(sel.GroupBy, e)
		}
	}

	if stmt.Having != nil {
		having, err := translateExpr(stmt.Having.Expr)
		if err != nil {
			return nil, err
		}
		sel.Having = having
	}

	if stmt.OrderBy != nil {
		for _, item := range stmt.OrderBy.Items {
			e, err := translateExpr(item.Expr)
			if err != nil {
				return nil, err
			}
			dir := ast.OrderAsc
			if item.Desc {
				dir = ast.OrderDesc
			}
			sel.OrderBy = append(sel.OrderBy, ast.OrderByExpr{Expr: e, Direction: dir})
		}
	}

	if stmt.Limit != nil {
		limit := &ast.Limit{}
		if stmt.Limit.Count != nil {
			e, err := translateExpr(stmt.Limit.Count)
			if err != nil {
				return nil, err
			}
			limit.Limit = e
		}
		if stmt.Limit.Offset != nil {
			e, err := translateExpr(stmt.Limit.Offset)
			if err != nil {
				return nil, err
			}
			limit.Offset = e
		}
		sel.Limit = limit
	}

	return sel, nil
}

func translateSelectField(f *tiast.SelectField) (ast.SelectItem, error) {
	if f.WildCard != nil {
		if f.WildCard.Table.O == "" {
			return &ast.Wildcard{}, nil
		}
		return &ast.QualifiedWildcard{Alias: f.WildCard.Table.O}, nil
	}
	e, err := translateExpr(f.Expr)
	if err != nil {
		return nil, err
	}
	return &ast.ExprItem{Expr: e, Alias: f.AsName.O}, nil
}

// flattenJoin walks tidb's binary Join tree (built left-deep: ((A JOIN B)
// JOIN C)) into this engine's flat base-relation-plus-join-list shape, since
// the executor's join stage processes joins one at a time against an
// accumulating row stream rather than a tree.
func flattenJoin(node tiast.ResultSetNode) (ast.TableFactor, []ast.Join, error) {
	j, isJoin := node.(*tiast.Join)
	if !isJoin || j.Right == nil {
		factor, err := translateTableFactor(node)
		return factor, nil, err
	}

	base, joins, err := flattenJoin(j.Left)
	if err != nil {
		return nil, nil, err
	}

	right, err := translateTableFactor(j.Right)
	if err != nil {
		return nil, nil, err
	}

	op := ast.JoinInner
	if j.Tp == tiast.LeftJoin {
		op = ast.JoinLeft
	}

	var on ast.Expr
	if j.On != nil {
		on, err = translateExpr(j.On.Expr)
		if err != nil {
			return nil, nil, err
		}
	}

	joins = append(joins, ast.Join{
		Relation: right,
		Operator: op,
		Executor: &ast.NestedLoopJoin{On: on},
	})
	return base, joins, nil
}

func translateTableFactor(node tiast.ResultSetNode) (ast.TableFactor, error) {
	switch n := node.(type) {
	case *tiast.TableSource:
		inner, err := translateTableSourceInner(n.Source)
		if err != nil {
			return nil, err
		}
		applyAlias(inner, n.AsName.O)
		return inner, nil
	case *tiast.TableName:
		return &ast.Table{Name: n.Name.O}, nil
	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "unsupported FROM-clause source %T", node)
	}
}

func translateTableSourceInner(node tiast.ResultSetNode) (ast.TableFactor, error) {
	switch n := node.(type) {
	case *tiast.TableName:
		return &ast.Table{Name: n.Name.O}, nil
	case *tiast.SelectStmt:
		sel, err := translateSelect(n)
		if err != nil {
			return nil, err
		}
		return &ast.Derived{Select: sel}, nil
	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "unsupported table source %T", node)
	}
}

func applyAlias(factor ast.TableFactor, alias string) {
	if alias == "" {
		return
	}
	switch f := factor.(type) {
	case *ast.Table:
		f.Alias = alias
	case *ast.Derived:
		f.Alias = alias
	case *ast.Series:
		f.Alias = alias
	case *ast.Dictionary:
		f.Alias = alias
	}
}

func translateInsert(stmt *tiast.InsertStmt) (ast.Statement, error) {
	tableName, err := singleTableName(stmt.Table)
	if err != nil {
		return nil, err
	}
	ins := &ast.Insert{Table: tableName}
	for _, c := range stmt.Columns {
		ins.Columns = append(ins.Columns, c.Name.O)
	}

	if stmt.Select != nil {
		selStmt, ok := stmt.Select.(*tiast.SelectStmt)
		if !ok {
			return nil, errs.New(errs.KindUnsupportedSyntax, "INSERT ... SELECT expects a plain SELECT")
		}
		sel, err := translateSelect(selStmt)
		if err != nil {
			return nil, err
		}
		ins.Source = &ast.SelectSource{Select: sel}
		return ins, nil
	}

	rows := make([][]ast.Expr, 0, len(stmt.Lists))
	for _, row := range stmt.Lists {
		exprs := make([]ast.Expr, 0, len(row))
		for _, e := range row {
			t, err := translateExpr(e)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, t)
		}
		rows = append(rows, exprs)
	}
	ins.Source = &ast.ValuesSource{Rows: rows}
	return ins, nil
}

func translateUpdate(stmt *tiast.UpdateStmt) (ast.Statement, error) {
	tableName, err := tableRefsToSingleName(stmt.TableRefs)
	if err != nil {
		return nil, err
	}
	upd := &ast.Update{Table: tableName}
	for _, a := range stmt.List {
		e, err := translateExpr(a.Expr)
		if err != nil {
			return nil, err
		}
		upd.Assignments = append(upd.Assignments, ast.Assignment{Column: a.Column.Name.O, Value: e})
	}
	if stmt.Where != nil {
		where, err := translateExpr(stmt.Where)
		if err != nil {
			return nil, err
		}
		upd.Where = where
	}
	return upd, nil
}

func translateDelete(stmt *tiast.DeleteStmt) (ast.Statement, error) {
	tableName, err := tableRefsToSingleName(stmt.TableRefs)
	if err != nil {
		return nil, err
	}
	del := &ast.Delete{Table: tableName}
	if stmt.Where != nil {
		where, err := translateExpr(stmt.Where)
		if err != nil {
			return nil, err
		}
		del.Where = where
	}
	return del, nil
}

func singleTableName(refs *tiast.TableRefsClause) (string, error) {
	if refs == nil {
		return "", errs.New(errs.KindUnsupportedSyntax, "missing target table")
	}
	return tableRefsToSingleName(refs)
}

func tableRefsToSingleName(refs *tiast.TableRefsClause) (string, error) {
	if refs == nil || refs.TableRefs == nil {
		return "", errs.New(errs.KindUnsupportedSyntax, "missing target table")
	}
	j := refs.TableRefs
	if j.Right != nil {
		return "", errs.New(errs.KindUnsupportedSyntax, "multi-table statements are not supported")
	}
	src, ok := j.Left.(*tiast.TableSource)
	if !ok {
		return "", errs.New(errs.KindUnsupportedSyntax, "unsupported target table reference")
	}
	name, ok := src.Source.(*tiast.TableName)
	if !ok {
		return "", errs.New(errs.KindUnsupportedSyntax, "unsupported target table reference")
	}
	return name.Name.O, nil
}
