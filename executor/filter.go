package executor

import "gluedb/ast"

// filterSource drops rows whose WHERE expression doesn't evaluate true.
// Null (and any other non-boolean result) is treated as false, per the
// engine's three-valued-logic filtering contract — a row survives only on
// a definite true. HAVING is filtered separately, after aggregation, by
// runAggregate.
type filterSource struct {
	src  rowSource
	ex   *Executor
	expr ast.Expr
}

func (ex *Executor) filter(src rowSource, expr ast.Expr) rowSource {
	if expr == nil {
		return src
	}
	return &filterSource{src: src, ex: ex, expr: expr}
}

func (f *filterSource) Next() (joinedRow, bool, error) {
	for {
		row, ok, err := f.src.Next()
		if err != nil || !ok {
			return joinedRow{}, ok, err
		}
		v, err := f.ex.eval.Eval(row.ctx, nil, f.expr)
		if err != nil {
			return joinedRow{}, false, err
		}
		b, isBool := v.ToValue().Bool()
		if isBool && b {
			return row, true, nil
		}
	}
}
