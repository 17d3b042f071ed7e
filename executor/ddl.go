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

func (ex *Executor) execCreateTable(n *ast.CreateTable) (Payload, error) {
	if _, ok, err := ex.storage.FetchSchema(n.Table.Name); err != nil {
		return Payload{}, err
	} else if ok {
		if n.IfNotExists {
			return Payload{Statement: "CREATE TABLE"}, nil
		}
		return Payload{}, errs.New(errs.KindDuplicateColumn, "table %q already exists", n.Table.Name)
	}

	if !n.Table.IsSchemaless() {
		if err := n.Table.Validate(); err != nil {
			return Payload{}, err
		}
	}
	schemas, err := ex.storage.FetchAllSchemas()
	if err != nil {
		return Payload{}, err
	}
	db := schema.NewDatabase()
	for _, t := range schemas {
		if err := db.AddTable(t); err != nil {
			return Payload{}, err
		}
	}
	if err := n.Table.ValidateForeignKeys(db); err != nil {
		return Payload{}, err
	}

	if err := ex.storage.InsertSchema(n.Table); err != nil {
		return Payload{}, err
	}
	ex.log.Debug("create table", zap.String("table", n.Table.Name))
	return Payload{Statement: "CREATE TABLE"}, nil
}

func (ex *Executor) execDropTable(n *ast.DropTable) (Payload, error) {
	t, ok, err := ex.storage.FetchSchema(n.Table)
	if err != nil {
		return Payload{}, err
	}
	if !ok {
		if n.IfExists {
			return Payload{Statement: "DROP TABLE"}, nil
		}
		return Payload{}, errs.New(errs.KindTableNotFound, "table %q not found", n.Table)
	}

	schemas, err := ex.storage.FetchAllSchemas()
	if err != nil {
		return Payload{}, err
	}
	var referencing []string
	for _, other := range schemas {
		if other.Name == t.Name {
			continue
		}
		for _, fk := range other.ForeignKeys {
			if strings.EqualFold(fk.ReferencedTable, t.Name) {
				referencing = append(referencing, other.Name)
			}
		}
	}
	if len(referencing) > 0 {
		if !n.Cascade {
			return Payload{}, errs.New(errs.KindCannotDropTableWithReferencing,
				"table %q is referenced by %v", t.Name, referencing)
		}
		for _, name := range referencing {
			if err := ex.storage.DeleteSchema(name); err != nil {
				return Payload{}, err
			}
		}
	}

	if err := ex.storage.DeleteSchema(t.Name); err != nil {
		return Payload{}, err
	}
	ex.log.Debug("drop table", zap.String("table", t.Name))
	return Payload{Statement: "DROP TABLE"}, nil
}

// execAlterTable applies one already-decided schema change. Storage has no
// in-place schema-update call, so every action re-materializes the table's
// rows, deletes the old schema, installs the new one, and reinserts the
// rows (transformed to the new column layout) under their original keys.
func (ex *Executor) execAlterTable(n *ast.AlterTable) (Payload, error) {
	t, err := ex.fetchSchema(n.Table)
	if err != nil {
		return Payload{}, err
	}
	if t.IsSchemaless() {
		return Payload{}, errs.New(errs.KindUnsupportedSyntax, "cannot ALTER TABLE a schemaless table %q", t.Name)
	}

	newTable := *t
	newTable.Columns = append([]schema.Column(nil), t.Columns...)

	var transform func([]value.Value) []value.Value

	switch action := n.Action.(type) {
	case *ast.AddColumn:
		newTable.Columns = append(newTable.Columns, action.Column)
		def := value.NewNull()
		if action.Column.Default != nil {
			def = *action.Column.Default
		}
		transform = func(vs []value.Value) []value.Value {
			return append(append([]value.Value(nil), vs...), def)
		}

	case *ast.DropColumn:
		idx := columnIndex(t, action.Name)
		if idx < 0 {
			return Payload{}, errs.New(errs.KindColumnNotFound, "column %q not found in table %q", action.Name, t.Name)
		}
		if strings.EqualFold(t.PrimaryKey, action.Name) {
			return Payload{}, errs.New(errs.KindUnsupportedSyntax, "cannot drop primary key column %q", action.Name)
		}
		newTable.Columns = append(append([]schema.Column(nil), t.Columns[:idx]...), t.Columns[idx+1:]...)
		transform = func(vs []value.Value) []value.Value {
			return append(append([]value.Value(nil), vs[:idx]...), vs[idx+1:]...)
		}

	case *ast.RenameColumn:
		idx := columnIndex(t, action.From)
		if idx < 0 {
			return Payload{}, errs.New(errs.KindColumnNotFound, "column %q not found in table %q", action.From, t.Name)
		}
		newTable.Columns[idx].Name = action.To
		if strings.EqualFold(t.PrimaryKey, action.From) {
			newTable.PrimaryKey = action.To
		}
		transform = func(vs []value.Value) []value.Value { return vs }

	case *ast.RenameTable:
		newTable.Name = action.To
		transform = func(vs []value.Value) []value.Value { return vs }

	default:
		return Payload{}, errs.New(errs.KindUnsupportedSyntax, "unknown alter action %T", action)
	}

	if err := newTable.Validate(); err != nil {
		return Payload{}, err
	}

	if err := ex.migrateSchema(t, &newTable, transform); err != nil {
		return Payload{}, err
	}
	ex.log.Debug("alter table", zap.String("table", t.Name), zap.String("action", alterActionKind(n.Action)))
	return Payload{Statement: "ALTER TABLE"}, nil
}

func alterActionKind(action ast.AlterTableAction) string {
	switch action.(type) {
	case *ast.AddColumn:
		return "ADD COLUMN"
	case *ast.DropColumn:
		return "DROP COLUMN"
	case *ast.RenameColumn:
		return "RENAME COLUMN"
	case *ast.RenameTable:
		return "RENAME TABLE"
	default:
		return "UNKNOWN"
	}
}

func (ex *Executor) execCreateIndex(n *ast.CreateIndex) (Payload, error) {
	t, err := ex.fetchSchema(n.Table)
	if err != nil {
		return Payload{}, err
	}
	newTable := *t
	newTable.Indexes = append(append([]schema.Index(nil), t.Indexes...), n.Index)
	if err := newTable.Validate(); err != nil {
		return Payload{}, err
	}
	if err := ex.migrateSchema(t, &newTable, func(vs []value.Value) []value.Value { return vs }); err != nil {
		return Payload{}, err
	}
	ex.log.Debug("create index", zap.String("table", t.Name), zap.String("index", n.Index.Name))
	return Payload{Statement: "CREATE INDEX"}, nil
}

func (ex *Executor) execDropIndex(n *ast.DropIndex) (Payload, error) {
	t, err := ex.fetchSchema(n.Table)
	if err != nil {
		return Payload{}, err
	}
	if t.FindIndex(n.Name) == nil {
		return Payload{}, errs.New(errs.KindUnsupportedIndexExpr, "index %q not found on table %q", n.Name, t.Name)
	}
	newTable := *t
	newTable.Indexes = nil
	for _, idx := range t.Indexes {
		if !strings.EqualFold(idx.Name, n.Name) {
			newTable.Indexes = append(newTable.Indexes, idx)
		}
	}
	if err := ex.migrateSchema(t, &newTable, func(vs []value.Value) []value.Value { return vs }); err != nil {
		return Payload{}, err
	}
	ex.log.Debug("drop index", zap.String("table", t.Name), zap.String("index", n.Name))
	return Payload{Statement: "DROP INDEX"}, nil
}

func (ex *Executor) execShowColumns(n *ast.ShowColumns) (Payload, error) {
	t, err := ex.fetchSchema(n.Table)
	if err != nil {
		return Payload{}, err
	}
	if t.IsSchemaless() {
		return Payload{Labels: []string{"FIELD", "TYPE"}, Statement: "SHOW COLUMNS"}, nil
	}
	rows := make([][]value.Value, len(t.Columns))
	for i, c := range t.Columns {
		rows[i] = []value.Value{value.NewStr(c.Name), value.NewStr(c.Type.String())}
	}
	return Payload{Labels: []string{"FIELD", "TYPE"}, Rows: rows, Statement: "SHOW COLUMNS"}, nil
}

// migrateSchema replaces oldTable with newTable, transforming every stored
// row's values and reinserting them under their original keys.
func (ex *Executor) migrateSchema(oldTable, newTable *schema.Table, transform func([]value.Value) []value.Value) error {
	iter, err := ex.storage.ScanData(oldTable.Name)
	if err != nil {
		return err
	}
	var keyed []storage.KeyedRow
	for {
		row, ok, err := iter.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		keyed = append(keyed, storage.KeyedRow{Key: row.Key, Values: transform(row.Values)})
	}

	if err := ex.storage.DeleteSchema(oldTable.Name); err != nil {
		return err
	}
	if err := ex.storage.InsertSchema(newTable); err != nil {
		return err
	}
	if len(keyed) == 0 {
		return nil
	}
	return ex.storage.InsertData(newTable.Name, keyed)
}
