package executor

import (
	"math"

	"gluedb/ast"
	"gluedb/errs"
	"gluedb/value"
)

// groupState accumulates one GROUP BY bucket's aggregate values alongside
// the first row that fell into it, which supplies non-aggregated column
// references in the projection (the engine does not validate that those
// are functionally dependent on the grouping key — same as the original).
type groupState struct {
	row        joinedRow
	aggregates map[*ast.Aggregate]*aggrValue
}

// aggrValue is the running accumulator for one Aggregate call, covering
// COUNT/SUM/MIN/MAX/AVG/VARIANCE/STDEV with an optional DISTINCT set.
type aggrValue struct {
	fn       ast.AggregateFunc
	count    int64
	sum      value.Value
	sumSq    value.Value
	min, max value.Value
	distinct map[string]bool
}

func newAggrValue(fn ast.AggregateFunc, distinct bool) *aggrValue {
	a := &aggrValue{fn: fn, sum: value.NewI64(0), sumSq: value.NewI64(0)}
	if distinct {
		a.distinct = map[string]bool{}
	}
	return a
}

// accumulate folds one row's value into the running state. Null is skipped
// for every function — COUNT(expr) excludes it, and SUM/MIN/MAX/AVG treat
// it as absent rather than poisoning the running value; COUNT(*) is
// handled by the caller passing a non-null sentinel per row instead of the
// row's actual column value.
func (a *aggrValue) accumulate(v value.Value) error {
	if v.IsNull() {
		return nil
	}
	if a.distinct != nil {
		k := string(value.EncodeKey(v))
		if a.distinct[k] {
			return nil
		}
		a.distinct[k] = true
	}

	a.count++
	switch a.fn {
	case ast.AggCount:
		return nil
	case ast.AggSum, ast.AggAvg, ast.AggVar, ast.AggStdev:
		sum, err := value.Add(a.sum, v)
		if err != nil {
			return err
		}
		a.sum = sum
		if a.fn == ast.AggVar || a.fn == ast.AggStdev {
			sq, err := value.Mul(v, v)
			if err != nil {
				return err
			}
			sumSq, err := value.Add(a.sumSq, sq)
			if err != nil {
				return err
			}
			a.sumSq = sumSq
		}
		return nil
	case ast.AggMin:
		if a.min.Kind() == value.Null {
			a.min = v
			return nil
		}
		cmp, ok := value.Compare(a.min, v)
		if ok && cmp > 0 {
			a.min = v
		}
		return nil
	case ast.AggMax:
		if a.max.Kind() == value.Null {
			a.max = v
			return nil
		}
		cmp, ok := value.Compare(a.max, v)
		if ok && cmp < 0 {
			a.max = v
		}
		return nil
	default:
		return errs.New(errs.KindUnsupportedSyntax, "unsupported aggregate function %s", a.fn)
	}
}

func (a *aggrValue) finalize() (value.Value, error) {
	switch a.fn {
	case ast.AggCount:
		return value.NewI64(a.count), nil
	case ast.AggSum:
		return a.sum, nil
	case ast.AggMin:
		return a.min, nil
	case ast.AggMax:
		return a.max, nil
	case ast.AggAvg:
		if a.count == 0 {
			return value.NewNull(), nil
		}
		return value.Div(a.sum, value.NewI64(a.count))
	case ast.AggVar, ast.AggStdev:
		if a.count == 0 {
			return value.NewNull(), nil
		}
		n := float64(a.count)
		sum, _ := a.sum.AsFloat64()
		sumSq, _ := a.sumSq.AsFloat64()
		mean := sum / n
		variance := sumSq/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		if a.fn == ast.AggVar {
			return value.NewF64(variance), nil
		}
		return value.NewF64(math.Sqrt(variance)), nil
	default:
		return value.Value{}, errs.New(errs.KindUnsupportedSyntax, "unsupported aggregate function %s", a.fn)
	}
}

// collectAggregates walks the projection and HAVING expr for every distinct
// *ast.Aggregate node, keyed by pointer identity so the evaluator's
// aggregated-bindings map can be built once per group and reused across
// every reference to the same aggregate call in the output row.
func collectAggregates(projection []ast.SelectItem, having ast.Expr) []*ast.Aggregate {
	var out []*ast.Aggregate
	seen := map[*ast.Aggregate]bool{}
	visit := func(e ast.Expr) {
		walkAggregates(e, func(a *ast.Aggregate) {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		})
	}
	for _, item := range projection {
		if it, ok := item.(*ast.ExprItem); ok {
			visit(it.Expr)
		}
	}
	if having != nil {
		visit(having)
	}
	return out
}

func hasAggregation(projection []ast.SelectItem, groupBy []ast.Expr) bool {
	if len(groupBy) > 0 {
		return true
	}
	found := false
	for _, item := range projection {
		if it, ok := item.(*ast.ExprItem); ok {
			walkAggregates(it.Expr, func(*ast.Aggregate) { found = true })
		}
	}
	return found
}

// walkAggregates recurses through expr's full shape, invoking visit on
// every *ast.Aggregate node it finds (aggregates cannot nest, but they can
// appear inside arithmetic, CASE, function args, and so on).
func walkAggregates(expr ast.Expr, visit func(*ast.Aggregate)) {
	switch n := expr.(type) {
	case nil:
		return
	case *ast.Aggregate:
		visit(n)
	case *ast.Nested:
		walkAggregates(n.Inner, visit)
	case *ast.BinaryOp:
		walkAggregates(n.Left, visit)
		walkAggregates(n.Right, visit)
	case *ast.UnaryOp:
		walkAggregates(n.Expr, visit)
	case *ast.Between:
		walkAggregates(n.Expr, visit)
		walkAggregates(n.Low, visit)
		walkAggregates(n.High, visit)
	case *ast.IsNull:
		walkAggregates(n.Expr, visit)
	case *ast.Case:
		walkAggregates(n.Operand, visit)
		for _, w := range n.Whens {
			walkAggregates(w.When, visit)
			walkAggregates(w.Then, visit)
		}
		walkAggregates(n.Else, visit)
	case *ast.Function:
		for _, a := range n.Args {
			walkAggregates(a, visit)
		}
	case *ast.Cast:
		walkAggregates(n.Expr, visit)
	case *ast.InList:
		walkAggregates(n.Expr, visit)
		for _, item := range n.List {
			walkAggregates(item, visit)
		}
	case *ast.MapIndex:
		walkAggregates(n.Obj, visit)
	default:
		return
	}
}
