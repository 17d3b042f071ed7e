package executor

import (
	"gluedb/ast"
	"gluedb/evaluate"
	"gluedb/value"
)

// joinedRow is one row flowing through the pipeline: ctx resolves
// identifiers (including every relation a join has folded in so far).
// aggregated is nil until the aggregate stage runs; once set, it supplies
// every *ast.Aggregate reference in the projection/having/order-by for
// this row's group.
type joinedRow struct {
	ctx        *evaluate.Context
	aggregated map[*ast.Aggregate]value.Value
}

// rowSource is a lazy, forward-only sequence of joinedRow, the executor's
// analogue of storage.RowIter — each pipeline stage wraps the source below
// it rather than materializing eagerly, except where the operation itself
// is blocking (sort, hash aggregation, join, limit/offset).
type rowSource interface {
	Next() (joinedRow, bool, error)
}

// sliceSource adapts an already-materialized []joinedRow into a rowSource,
// for stages (aggregate, sort) that must see every row before producing
// any output.
type sliceSource struct {
	rows []joinedRow
	pos  int
}

func newSliceSource(rows []joinedRow) *sliceSource { return &sliceSource{rows: rows} }

func (s *sliceSource) Next() (joinedRow, bool, error) {
	if s.pos >= len(s.rows) {
		return joinedRow{}, false, nil
	}
	r := s.rows[s.pos]
	s.pos++
	return r, true, nil
}

func drain(src rowSource) ([]joinedRow, error) {
	var out []joinedRow
	for {
		r, ok, err := src.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, r)
	}
}

func singleBlockContext(alias string, labels []string, values []value.Value) *evaluate.Context {
	return &evaluate.Context{Alias: alias, Labels: labels, Values: values}
}
