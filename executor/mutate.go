package executor

import (
	"strings"

	"go.uber.org/zap"

	"gluedb/ast"
	"gluedb/errs"
	"gluedb/schema"
	"gluedb/storage"
	"gluedb/value"
)

// execInsert evaluates n's source into concrete rows and appends them,
// checking nullability/uniqueness/foreign-key constraints row by row since
// storage itself enforces none of them.
func (ex *Executor) execInsert(n *ast.Insert) (Payload, error) {
	t, err := ex.fetchSchema(n.Table)
	if err != nil {
		return Payload{}, err
	}

	rows, err := ex.evalInsertSource(t, n)
	if err != nil {
		return Payload{}, err
	}

	if err := ex.checkConstraints(t, rows, nil); err != nil {
		return Payload{}, err
	}

	keys, err := ex.storage.AppendData(t.Name, rows)
	if err != nil {
		return Payload{}, err
	}
	ex.log.Debug("insert", zap.String("table", t.Name), zap.Int("rows", len(keys)))
	return Payload{Affected: len(keys), Statement: "INSERT"}, nil
}

func (ex *Executor) evalInsertSource(t *schema.Table, n *ast.Insert) ([][]value.Value, error) {
	columns := n.Columns
	if len(columns) == 0 && !t.IsSchemaless() {
		columns = t.ColumnNames()
	}

	switch src := n.Source.(type) {
	case *ast.ValuesSource:
		rows := make([][]value.Value, len(src.Rows))
		for i, exprs := range src.Rows {
			vs := make([]value.Value, len(exprs))
			for j, e := range exprs {
				v, err := ex.eval.Eval(nil, nil, e)
				if err != nil {
					return nil, err
				}
				vs[j] = v.ToValue()
			}
			row, err := ex.placeRow(t, columns, vs)
			if err != nil {
				return nil, err
			}
			rows[i] = row
		}
		return rows, nil

	case *ast.SelectSource:
		_, selRows, err := ex.runSelect(nil, src.Select)
		if err != nil {
			return nil, err
		}
		rows := make([][]value.Value, len(selRows))
		for i, vs := range selRows {
			row, err := ex.placeRow(t, columns, vs)
			if err != nil {
				return nil, err
			}
			rows[i] = row
		}
		return rows, nil

	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "cannot insert from %T", src)
	}
}

// placeRow reorders values named by columns into t's declared column order,
// defaulting every column columns did not name.
func (ex *Executor) placeRow(t *schema.Table, columns []string, values []value.Value) ([]value.Value, error) {
	if t.IsSchemaless() {
		if len(values) != 1 {
			return nil, errs.New(errs.KindFunctionArgsLength, "schemaless table %q takes one document value", t.Name)
		}
		return values, nil
	}
	if len(columns) != len(values) {
		return nil, errs.New(errs.KindFunctionArgsLength, "column count does not match value count for table %q", t.Name)
	}
	out := make([]value.Value, len(t.Columns))
	set := make([]bool, len(t.Columns))
	for i, col := range columns {
		idx := columnIndex(t, col)
		if idx < 0 {
			return nil, errs.New(errs.KindColumnNotFound, "column %q not found in table %q", col, t.Name)
		}
		out[idx] = values[i]
		set[idx] = true
	}
	for i, c := range t.Columns {
		if set[i] {
			continue
		}
		if c.Default != nil {
			out[i] = *c.Default
		} else {
			out[i] = value.NewNull()
		}
	}
	return out, nil
}

func columnIndex(t *schema.Table, name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// execUpdate scans t, evaluates each Assignment against every row the Where
// clause admits, re-checks constraints against the mutated rows (excluding
// the rows being replaced from uniqueness comparison), and upserts them
// back under their existing key.
func (ex *Executor) execUpdate(n *ast.Update) (Payload, error) {
	t, err := ex.fetchSchema(n.Table)
	if err != nil {
		return Payload{}, err
	}
	labels := relationLabelsOf(t)

	iter, err := ex.storage.ScanData(t.Name)
	if err != nil {
		return Payload{}, err
	}

	var keys [][]byte
	var rows [][]value.Value
	for {
		row, ok, err := iter.Next()
		if err != nil {
			return Payload{}, err
		}
		if !ok {
			break
		}
		if n.Where != nil {
			ctx := singleBlockContext(t.Name, labels, row.Values)
			v, err := ex.eval.Eval(ctx, nil, n.Where)
			if err != nil {
				return Payload{}, err
			}
			if b, ok := v.ToValue().Bool(); !ok || !b {
				continue
			}
		}

		updated := append([]value.Value(nil), row.Values...)
		ctx := singleBlockContext(t.Name, labels, row.Values)
		for _, a := range n.Assignments {
			idx := columnIndex(t, a.Column)
			if idx < 0 {
				return Payload{}, errs.New(errs.KindColumnNotFound, "column %q not found in table %q", a.Column, t.Name)
			}
			v, err := ex.eval.Eval(ctx, nil, a.Value)
			if err != nil {
				return Payload{}, err
			}
			updated[idx] = v.ToValue()
		}

		keys = append(keys, row.Key)
		rows = append(rows, updated)
	}

	if err := ex.checkConstraints(t, rows, keys); err != nil {
		return Payload{}, err
	}

	keyedRows := make([]storage.KeyedRow, len(keys))
	for i, k := range keys {
		keyedRows[i] = storage.KeyedRow{Key: k, Values: rows[i]}
	}
	if err := ex.storage.InsertData(t.Name, keyedRows); err != nil {
		return Payload{}, err
	}
	ex.log.Debug("update", zap.String("table", t.Name), zap.Int("rows", len(keys)))
	return Payload{Affected: len(keys), Statement: "UPDATE"}, nil
}

// execDelete scans t, collects the keys of every row the Where clause
// admits (all rows if Where is nil), refuses the delete if another table's
// NO ACTION foreign key still references one of them, and removes them.
func (ex *Executor) execDelete(n *ast.Delete) (Payload, error) {
	t, err := ex.fetchSchema(n.Table)
	if err != nil {
		return Payload{}, err
	}
	labels := relationLabelsOf(t)

	iter, err := ex.storage.ScanData(t.Name)
	if err != nil {
		return Payload{}, err
	}

	var keys [][]byte
	var deleted []value.Value
	for {
		row, ok, err := iter.Next()
		if err != nil {
			return Payload{}, err
		}
		if !ok {
			break
		}
		if n.Where != nil {
			ctx := singleBlockContext(t.Name, labels, row.Values)
			v, err := ex.eval.Eval(ctx, nil, n.Where)
			if err != nil {
				return Payload{}, err
			}
			if b, ok := v.ToValue().Bool(); !ok || !b {
				continue
			}
		}
		keys = append(keys, row.Key)
		if t.PrimaryKey != "" {
			if idx := columnIndex(t, t.PrimaryKey); idx >= 0 {
				deleted = append(deleted, row.Values[idx])
			}
		}
	}

	if err := ex.checkReferencingRows(t, deleted); err != nil {
		return Payload{}, err
	}

	if err := ex.storage.DeleteData(t.Name, keys); err != nil {
		return Payload{}, err
	}
	ex.log.Debug("delete", zap.String("table", t.Name), zap.Int("rows", len(keys)))
	return Payload{Affected: len(keys), Statement: "DELETE"}, nil
}

func relationLabelsOf(t *schema.Table) []string {
	if t.IsSchemaless() {
		return []string{schema.ReservedDocColumn}
	}
	return t.ColumnNames()
}
