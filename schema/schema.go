// Package schema is the engine's table/column/index/foreign-key model,
// trimmed from a dialect-aware DDL representation down to the single
// shape spec §3 names: schemas live in storage, the planner treats them
// read-only, and nothing here carries dialect-specific DDL variance.
package schema

import (
	"fmt"
	"strings"

	"gluedb/errs"
	"gluedb/value"
)

// ReferentialAction is the behavior applied to a referencing row when the
// referenced row is deleted or updated.
type ReferentialAction string

const (
	ActionNoAction   ReferentialAction = "NO ACTION"
	ActionCascade    ReferentialAction = "CASCADE"
	ActionSetNull    ReferentialAction = "SET NULL"
	ActionSetDefault ReferentialAction = "SET DEFAULT"
)

// SortOrder is an index column's direction, or Both for an index usable in
// either direction (e.g. a synthetic primary-key index).
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
	SortBoth SortOrder = "BOTH"
)

// Column is one declared field of a schemaful table.
type Column struct {
	Name     string
	Type     value.Kind
	Nullable bool
	Default  *value.Value // nil means "no declared default"
	Unique   bool
	Comment  string
}

// Index is a secondary index over a single expression (spec §3: composite
// indexes are out of scope, see CreateIndex validation in the executor).
type Index struct {
	Name       string
	Expression string // column name, or a stored expression text
	Order      SortOrder
	Unique     bool
}

// ForeignKey is one referential edge from this table to another, per
// spec §3 "ForeignKey". The referenced column must be the referenced
// table's primary key and its type must match exactly; both are checked by
// ValidateForeignKeys against the owning database's table set.
type ForeignKey struct {
	Name               string
	ReferencingColumn  string
	ReferencedTable    string
	ReferencedColumn   string
	OnDelete           ReferentialAction
	OnUpdate           ReferentialAction
}

// Table is a single schema entry. Columns == nil means the table is
// schemaless: rows are stored as a single value.Map under column "_doc".
type Table struct {
	Name        string
	Columns     []Column // nil for a schemaless table
	PrimaryKey  string   // empty if no declared primary key
	Indexes     []Index
	Engine      string // optional storage engine hint, opaque to the core
	ForeignKeys []ForeignKey
	Comment     string
}

// ReservedDocColumn is the column name schemaless rows are stored under.
const ReservedDocColumn = "_doc"

func (t *Table) IsSchemaless() bool { return t.Columns == nil }

func (t *Table) FindColumn(name string) *Column {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

func (t *Table) FindIndex(name string) *Index {
	for i := range t.Indexes {
		if strings.EqualFold(t.Indexes[i].Name, name) {
			return &t.Indexes[i]
		}
	}
	return nil
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Database is the full set of tables the planner and executor see as one
// schema snapshot.
type Database struct {
	Tables map[string]*Table
}

func NewDatabase() *Database { return &Database{Tables: map[string]*Table{}} }

func (db *Database) FindTable(name string) *Table {
	return db.Tables[strings.ToLower(name)]
}

func (db *Database) AddTable(t *Table) error {
	key := strings.ToLower(t.Name)
	if _, exists := db.Tables[key]; exists {
		return errs.New(errs.KindDuplicateColumn, "table %q already exists", t.Name)
	}
	db.Tables[key] = t
	return nil
}

func (db *Database) DropTable(name string, cascade bool) error {
	key := strings.ToLower(name)
	t, ok := db.Tables[key]
	if !ok {
		return errs.New(errs.KindTableNotFound, "table %q not found", name)
	}
	referencing := db.ReferencingTables(t.Name)
	if len(referencing) > 0 && !cascade {
		return errs.New(errs.KindCannotDropTableWithReferencing,
			"table %q is referenced by %s", name, strings.Join(referencing, ", "))
	}
	for _, ref := range referencing {
		delete(db.Tables, strings.ToLower(ref))
	}
	delete(db.Tables, key)
	return nil
}

// ReferencingTables returns the names of tables with a foreign key pointing
// at table.
func (db *Database) ReferencingTables(table string) []string {
	var out []string
	for _, t := range db.Tables {
		for _, fk := range t.ForeignKeys {
			if strings.EqualFold(fk.ReferencedTable, table) {
				out = append(out, t.Name)
				break
			}
		}
	}
	return out
}

func (t *Table) String() string {
	if t.IsSchemaless() {
		return fmt.Sprintf("%s (schemaless)", t.Name)
	}
	return fmt.Sprintf("%s (%s)", t.Name, strings.Join(t.ColumnNames(), ", "))
}
