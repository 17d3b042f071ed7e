package executor

import (
	"go.uber.org/zap"

	"gluedb/ast"
	"gluedb/evaluate"
	"gluedb/value"
)

// runAggregate groups rows by groupBy (or the whole input into one group
// when groupBy is empty but an aggregate appears in the projection/having),
// folding every collected aggregate per group, then applies HAVING. It must
// materialize its whole input: both hashing the group key and finalizing
// an aggregate require every row.
func (ex *Executor) runAggregate(src rowSource, projection []ast.SelectItem, groupBy []ast.Expr, having ast.Expr) (rowSource, error) {
	aggregates := collectAggregates(projection, having)
	if !hasAggregation(projection, groupBy) && len(aggregates) == 0 {
		return src, nil
	}

	order := make([]string, 0)
	groups := map[string]*groupState{}

	for {
		row, ok, err := src.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		keyVals := make([]value.Value, len(groupBy))
		for i, e := range groupBy {
			v, err := ex.eval.Eval(row.ctx, nil, e)
			if err != nil {
				return nil, err
			}
			keyVals[i] = v.ToValue()
		}
		key := string(value.EncodeCompositeKey(keyVals))

		state, exists := groups[key]
		if !exists {
			state = &groupState{row: row, aggregates: map[*ast.Aggregate]*aggrValue{}}
			groups[key] = state
			order = append(order, key)
		}

		for _, agg := range aggregates {
			av, ok := state.aggregates[agg]
			if !ok {
				av = newAggrValue(agg.Func, agg.Distinct)
				state.aggregates[agg] = av
			}
			v, err := ex.evalAggregateArg(row.ctx, agg)
			if err != nil {
				return nil, err
			}
			if err := av.accumulate(v); err != nil {
				return nil, err
			}
		}
	}

	var out []joinedRow
	for _, key := range order {
		state := groups[key]
		bindings := map[*ast.Aggregate]value.Value{}
		for _, agg := range aggregates {
			av := state.aggregates[agg]
			v, err := av.finalize()
			if err != nil {
				return nil, err
			}
			bindings[agg] = v
		}

		if having != nil {
			v, err := ex.eval.Eval(state.row.ctx, bindings, having)
			if err != nil {
				return nil, err
			}
			if b, ok := v.ToValue().Bool(); !ok || !b {
				continue
			}
		}

		out = append(out, joinedRow{ctx: state.row.ctx, aggregated: bindings})
	}
	ex.log.Debug("aggregate: grouped", zap.Int("groups", len(order)), zap.Int("output_rows", len(out)))
	return newSliceSource(out), nil
}

// evalAggregateArg evaluates the single expression an aggregate call folds
// over; COUNT(*) has no expression, so it evaluates a constant non-null
// value so accumulate's Null-skipping never excludes a counted row.
func (ex *Executor) evalAggregateArg(ctx *evaluate.Context, agg *ast.Aggregate) (value.Value, error) {
	if agg.Arg == nil {
		return value.NewBool(true), nil
	}
	v, err := ex.eval.Eval(ctx, nil, agg.Arg)
	if err != nil {
		return value.Value{}, err
	}
	return v.ToValue(), nil
}
