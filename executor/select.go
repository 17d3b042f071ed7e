package executor

import (
	"go.uber.org/zap"

	"gluedb/ast"
	"gluedb/errs"
	"gluedb/evaluate"
	"gluedb/value"
)

// runSelect runs sel's full pipeline — fetch, join, filter, aggregate, sort,
// limit/offset, project — returning the projected labels and rows. outer
// chains onto every produced row's Context so a correlated subquery
// (Derived table or scalar subquery) resolves references to the enclosing
// query.
func (ex *Executor) runSelect(outer *evaluate.Context, sel *ast.Select) ([]string, [][]value.Value, error) {
	ex.log.Debug("select: fetch", zap.String("relation", relationAlias(sel.From)))
	src, err := ex.fetchRelation(sel.From, outer)
	if err != nil {
		return nil, nil, err
	}

	baseAlias := relationAlias(sel.From)
	joinAliases := make([]string, 0, len(sel.Joins))
	for _, j := range sel.Joins {
		ex.log.Debug("select: join", zap.String("relation", relationAlias(j.Relation)))
		src, err = ex.applyJoin(src, j, outer)
		if err != nil {
			return nil, nil, err
		}
		joinAliases = append(joinAliases, relationAlias(j.Relation))
	}

	if sel.Where != nil {
		ex.log.Debug("select: filter")
	}
	src = ex.filter(src, sel.Where)

	if len(sel.GroupBy) > 0 || sel.Having != nil {
		ex.log.Debug("select: aggregate", zap.Int("group_by_exprs", len(sel.GroupBy)))
	}
	src, err = ex.runAggregate(src, sel.Projection, sel.GroupBy, sel.Having)
	if err != nil {
		return nil, nil, err
	}

	if len(sel.OrderBy) > 0 {
		ex.log.Debug("select: sort", zap.Int("order_by_exprs", len(sel.OrderBy)))
	}
	src, err = ex.runSort(src, sel.OrderBy)
	if err != nil {
		return nil, nil, err
	}

	if sel.Limit != nil {
		ex.log.Debug("select: limit")
	}
	src, err = ex.applyLimit(src, sel.Limit, outer)
	if err != nil {
		return nil, nil, err
	}

	labels, err := ex.selectLabels(sel)
	if err != nil {
		return nil, nil, err
	}

	var rows [][]value.Value
	for {
		row, ok, err := src.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		vs, err := ex.projectRow(row, sel.Projection, baseAlias, joinAliases)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, vs)
	}
	return labels, rows, nil
}

// applyLimit applies OFFSET then LIMIT, in that order, to src. It must
// materialize its input: skipping Offset rows and capping at Limit both
// require consuming the source sequentially from the start, and this keeps
// the pipeline's stage boundary uniform with the other blocking stages.
func (ex *Executor) applyLimit(src rowSource, limit *ast.Limit, outer *evaluate.Context) (rowSource, error) {
	if limit == nil {
		return src, nil
	}

	var offset, count int64 = 0, -1
	if limit.Offset != nil {
		v, err := ex.eval.Eval(outer, nil, limit.Offset)
		if err != nil {
			return nil, err
		}
		n, ok := v.ToValue().Int64()
		if !ok || n < 0 {
			return nil, errs.New(errs.KindFunctionRequiresIntegerValue, "OFFSET")
		}
		offset = n
	}
	if limit.Limit != nil {
		v, err := ex.eval.Eval(outer, nil, limit.Limit)
		if err != nil {
			return nil, err
		}
		n, ok := v.ToValue().Int64()
		if !ok || n < 0 {
			return nil, errs.New(errs.KindFunctionRequiresIntegerValue, "LIMIT")
		}
		count = n
	}

	rows, err := drain(src)
	if err != nil {
		return nil, err
	}
	if offset >= int64(len(rows)) {
		return newSliceSource(nil), nil
	}
	rows = rows[offset:]
	if count >= 0 && count < int64(len(rows)) {
		rows = rows[:count]
	}
	return newSliceSource(rows), nil
}
