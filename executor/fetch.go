package executor

import (
	"go.uber.org/zap"

	"gluedb/ast"
	"gluedb/errs"
	"gluedb/evaluate"
	"gluedb/schema"
	"gluedb/storage"
	"gluedb/value"
)

// fetchSource streams every row a single RowIter yields as a joinedRow
// whose Context is a single labeled block named by alias.
type fetchSource struct {
	iter   storage.RowIter
	alias  string
	labels []string
	outer  *evaluate.Context
}

func (f *fetchSource) Next() (joinedRow, bool, error) {
	row, ok, err := f.iter.Next()
	if err != nil || !ok {
		return joinedRow{}, ok, err
	}
	ctx := singleBlockContext(f.alias, f.labels, row.Values)
	ctx.Outer = f.outer
	return joinedRow{ctx: ctx}, true, nil
}

// relationAlias returns the name a row from this factor resolves against
// for unqualified and qualified-wildcard references.
func relationAlias(factor ast.TableFactor) string {
	switch n := factor.(type) {
	case *ast.Table:
		if n.Alias != "" {
			return n.Alias
		}
		return n.Name
	case *ast.Series:
		return n.Alias
	case *ast.Derived:
		return n.Alias
	case *ast.Dictionary:
		if n.Alias != "" {
			return n.Alias
		}
		return n.Name
	default:
		return ""
	}
}

// relationLabels returns the column names a row from this factor carries,
// in storage/projection order.
func (ex *Executor) relationLabels(factor ast.TableFactor) ([]string, error) {
	switch n := factor.(type) {
	case *ast.Table:
		t, err := ex.fetchSchema(n.Name)
		if err != nil {
			return nil, err
		}
		if t.IsSchemaless() {
			return []string{schema.ReservedDocColumn}, nil
		}
		return t.ColumnNames(), nil
	case *ast.Series:
		return []string{"N"}, nil
	case *ast.Dictionary:
		return dictionaryLabels(n.Name)
	case *ast.Derived:
		return ex.selectLabels(n.Select)
	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "cannot fetch labels for %T", factor)
	}
}

// selectLabels computes the projected column names of sel without running
// it, for use when sel is a derived table or subquery in FROM.
func (ex *Executor) selectLabels(sel *ast.Select) ([]string, error) {
	baseLabels, err := ex.relationLabels(sel.From)
	if err != nil {
		return nil, err
	}
	baseAlias := relationAlias(sel.From)

	type aliasedLabels struct {
		alias  string
		labels []string
	}
	joinLabels := make([]aliasedLabels, 0, len(sel.Joins))
	for _, j := range sel.Joins {
		labels, err := ex.relationLabels(j.Relation)
		if err != nil {
			return nil, err
		}
		joinLabels = append(joinLabels, aliasedLabels{relationAlias(j.Relation), labels})
	}

	var out []string
	for _, item := range sel.Projection {
		switch it := item.(type) {
		case *ast.Wildcard:
			out = append(out, baseLabels...)
			for _, jl := range joinLabels {
				out = append(out, jl.labels...)
			}
		case *ast.QualifiedWildcard:
			if it.Alias == baseAlias {
				out = append(out, baseLabels...)
				continue
			}
			found := false
			for _, jl := range joinLabels {
				if jl.alias == it.Alias {
					out = append(out, jl.labels...)
					found = true
					break
				}
			}
			if !found {
				return nil, errs.New(errs.KindTableAliasNotFound, "%s", it.Alias)
			}
		case *ast.ExprItem:
			if it.Alias != "" {
				out = append(out, it.Alias)
			} else {
				out = append(out, ast.ToSQL(it.Expr))
			}
		}
	}
	return out, nil
}

// fetchRelation streams the rows of factor, evaluating a planner-attached
// IndexItem on *ast.Table when present instead of a full scan.
func (ex *Executor) fetchRelation(factor ast.TableFactor, outer *evaluate.Context) (rowSource, error) {
	labels, err := ex.relationLabels(factor)
	if err != nil {
		return nil, err
	}
	alias := relationAlias(factor)

	switch n := factor.(type) {
	case *ast.Table:
		iter, err := ex.scanTable(n, outer)
		if err != nil {
			return nil, err
		}
		return &fetchSource{iter: iter, alias: alias, labels: labels, outer: outer}, nil

	case *ast.Series:
		return ex.fetchSeries(n, outer)

	case *ast.Dictionary:
		rows, err := ex.fetchDictionary(n)
		if err != nil {
			return nil, err
		}
		return wrapRows(alias, labels, rows, outer), nil

	case *ast.Derived:
		_, sub, err := ex.runSelect(outer, n.Select)
		if err != nil {
			return nil, err
		}
		return wrapRows(alias, labels, sub, outer), nil

	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "cannot fetch relation %T", factor)
	}
}

func wrapRows(alias string, labels []string, rows [][]value.Value, outer *evaluate.Context) rowSource {
	out := make([]joinedRow, len(rows))
	for i, vs := range rows {
		ctx := singleBlockContext(alias, labels, vs)
		ctx.Outer = outer
		out[i] = joinedRow{ctx: ctx}
	}
	return newSliceSource(out)
}

func (ex *Executor) scanTable(t *ast.Table, outer *evaluate.Context) (storage.RowIter, error) {
	switch idx := t.Index.(type) {
	case *ast.PrimaryKeyIndex:
		v, err := ex.eval.Eval(outer, nil, idx.Key)
		if err != nil {
			return nil, err
		}
		keyVal := v.ToValue()
		row, ok, err := ex.storage.FetchData(t.Name, value.EncodeKey(keyVal))
		if err != nil {
			return nil, err
		}
		if !ok {
			return storage.NewSliceIter(nil), nil
		}
		return storage.NewSliceIter([]storage.Row{{Key: value.EncodeKey(keyVal), Values: row}}), nil

	case *ast.NonClusteredIndex:
		var bound *storage.IndexBound
		if idx.Value != nil {
			v, err := ex.eval.Eval(outer, nil, idx.Value)
			if err != nil {
				return nil, err
			}
			bound = &storage.IndexBound{Op: storage.CompareOp(idx.Op), Value: v.ToValue()}
		}
		iter, err := ex.storage.ScanIndexedData(t.Name, idx.Name, idx.Asc, bound)
		if err == nil {
			ex.log.Debug("fetch: indexed scan", zap.String("table", t.Name), zap.String("index", idx.Name))
			return iter, nil
		}
		if kind, ok := errs.KindOf(err); !ok || kind != errs.KindUnsupportedCapability {
			return nil, err
		}
		ex.log.Debug("fetch: index unsupported, falling back to full scan", zap.String("table", t.Name), zap.String("index", idx.Name))
		return ex.storage.ScanData(t.Name)

	default:
		return ex.storage.ScanData(t.Name)
	}
}

func (ex *Executor) fetchSeries(s *ast.Series, outer *evaluate.Context) (rowSource, error) {
	v, err := ex.eval.Eval(outer, nil, s.Count)
	if err != nil {
		return nil, err
	}
	n, ok := v.ToValue().Int64()
	if !ok {
		return nil, errs.New(errs.KindFunctionRequiresIntegerValue, "SERIES")
	}
	if n < 0 {
		return nil, errs.New(errs.KindSeriesSizeWrong, "%d", n)
	}
	rows := make([][]value.Value, 0, n)
	for i := int64(1); i <= n; i++ {
		rows = append(rows, []value.Value{value.NewI64(i)})
	}
	return wrapRows(s.Alias, []string{"N"}, rows, outer), nil
}
