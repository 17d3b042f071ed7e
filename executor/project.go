package executor

import (
	"strings"

	"gluedb/ast"
	"gluedb/errs"
	"gluedb/evaluate"
	"gluedb/value"
)

// projectRow expands sel's projection list for one row, resolving Wildcard
// and QualifiedWildcard against the Context chain baseAlias/joinAliases
// describe, and evaluating every *ast.ExprItem scalar.
func (ex *Executor) projectRow(row joinedRow, projection []ast.SelectItem, baseAlias string, joinAliases []string) ([]value.Value, error) {
	var out []value.Value
	for _, item := range projection {
		switch it := item.(type) {
		case *ast.Wildcard:
			vs, err := blockValues(row.ctx, baseAlias)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
			for _, alias := range joinAliases {
				vs, err := blockValues(row.ctx, alias)
				if err != nil {
					return nil, err
				}
				out = append(out, vs...)
			}
		case *ast.QualifiedWildcard:
			vs, err := blockValues(row.ctx, it.Alias)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		case *ast.ExprItem:
			v, err := ex.eval.Eval(row.ctx, row.aggregated, it.Expr)
			if err != nil {
				return nil, err
			}
			out = append(out, v.ToValue())
		default:
			return nil, errs.New(errs.KindUnsupportedSyntax, "cannot project %T", item)
		}
	}
	return out, nil
}

// blockValues returns the values of the Context block named alias, walking
// the Next chain (it never reaches into Outer — a wildcard only expands
// this query's own relations).
func blockValues(ctx *evaluate.Context, alias string) ([]value.Value, error) {
	for cur := ctx; cur != nil; cur = cur.Next {
		if strings.EqualFold(cur.Alias, alias) {
			return cur.Values, nil
		}
	}
	return nil, errs.New(errs.KindTableAliasNotFound, "%s", alias)
}

