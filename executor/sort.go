package executor

import (
	"sort"

	"go.uber.org/zap"

	"gluedb/ast"
	"gluedb/value"
)

// runSort materializes src and stable-sorts it by orderBy. A Null sorts
// before every other value on ASC and after every other value on DESC, so
// it is always the "smallest" value under the direction actually applied.
func (ex *Executor) runSort(src rowSource, orderBy []ast.OrderByExpr) (rowSource, error) {
	if len(orderBy) == 0 {
		return src, nil
	}
	rows, err := drain(src)
	if err != nil {
		return nil, err
	}

	type keyedRow struct {
		row joinedRow
		key []value.Value
	}
	keyed := make([]keyedRow, len(rows))
	for i, row := range rows {
		key := make([]value.Value, len(orderBy))
		for j, ob := range orderBy {
			v, err := ex.eval.Eval(row.ctx, row.aggregated, ob.Expr)
			if err != nil {
				return nil, err
			}
			key[j] = v.ToValue()
		}
		keyed[i] = keyedRow{row: row, key: key}
	}

	sort.SliceStable(keyed, func(i, j int) bool {
		for k, ob := range orderBy {
			cmp := compareSortKey(keyed[i].key[k], keyed[j].key[k], ob.Direction)
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})

	out := make([]joinedRow, len(keyed))
	for i, kr := range keyed {
		out[i] = kr.row
	}
	ex.log.Debug("sort: stable sort complete", zap.Int("rows", len(out)), zap.Int("keys", len(orderBy)))
	return newSliceSource(out), nil
}

func compareSortKey(a, b value.Value, dir ast.OrderDirection) int {
	aNull, bNull := a.IsNull(), b.IsNull()
	if aNull || bNull {
		if aNull && bNull {
			return 0
		}
		nullFirst := dir != ast.OrderDesc
		if aNull {
			if nullFirst {
				return -1
			}
			return 1
		}
		if nullFirst {
			return 1
		}
		return -1
	}
	cmp, ok := value.Compare(a, b)
	if !ok {
		cmp = 0
	}
	if dir == ast.OrderDesc {
		return -cmp
	}
	return cmp
}
