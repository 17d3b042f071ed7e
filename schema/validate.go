package schema

import (
	"strings"

	"gluedb/errs"
)

// Validate checks a table for the structural rules spec §4.6.3 names:
// multiple primary keys, empty index column lists, duplicate columns, and
// duplicate index names. It does not check foreign-key targets — that
// needs the owning Database and is done by ValidateForeignKeys.
func (t *Table) Validate() error {
	if err := t.validateColumns(); err != nil {
		return err
	}
	if err := t.validateIndexes(); err != nil {
		return err
	}
	return nil
}

func (t *Table) validateColumns() error {
	if t.IsSchemaless() {
		return nil
	}
	seen := make(map[string]bool, len(t.Columns))
	pkCount := 0
	for _, c := range t.Columns {
		lower := strings.ToLower(c.Name)
		if seen[lower] {
			return errs.New(errs.KindDuplicateColumn, "duplicate column %q in table %q", c.Name, t.Name)
		}
		seen[lower] = true
	}
	if t.PrimaryKey != "" {
		if t.FindColumn(t.PrimaryKey) == nil {
			return errs.New(errs.KindColumnNotFound, "primary key column %q not found in table %q", t.PrimaryKey, t.Name)
		}
		pkCount++
	}
	for _, c := range t.Columns {
		if c.Unique && strings.EqualFold(c.Name, t.PrimaryKey) {
			return errs.New(errs.KindMultiplePrimaryKey, "column %q cannot be both PRIMARY KEY and UNIQUE-declared as a second key in table %q", c.Name, t.Name)
		}
	}
	if pkCount > 1 {
		return errs.New(errs.KindMultiplePrimaryKey, "table %q declares more than one primary key", t.Name)
	}
	return nil
}

func (t *Table) validateIndexes() error {
	seenNames := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		if idx.Name == "" {
			return errs.New(errs.KindEmptyUniqueColumns, "index in table %q has no name", t.Name)
		}
		lower := strings.ToLower(idx.Name)
		if seenNames[lower] {
			return errs.New(errs.KindDuplicateConstraint, "duplicate index name %q in table %q", idx.Name, t.Name)
		}
		seenNames[lower] = true
		if idx.Expression == "" {
			return errs.New(errs.KindEmptyUniqueColumns, "index %q in table %q has no expression", idx.Name, t.Name)
		}
		if strings.ContainsAny(idx.Expression, ",") {
			return errs.New(errs.KindCompositeIndexNotSupported, "index %q in table %q is composite", idx.Name, t.Name)
		}
		if !t.IsSchemaless() && t.FindColumn(idx.Expression) == nil && !looksLikeExpr(idx.Expression) {
			return errs.New(errs.KindUnsupportedIndexExpr, "index %q references unsupported expression %q", idx.Name, idx.Expression)
		}
	}
	return nil
}

// looksLikeExpr is a narrow heuristic: an index expression that isn't a
// bare column name must at least look like a function call or operator
// expression, not arbitrary unparsed text.
func looksLikeExpr(expr string) bool {
	return strings.ContainsAny(expr, "()+-*/")
}

// ValidateForeignKeys checks every declared foreign key of t against db:
// the referenced table must exist, its referenced column must be its
// declared primary key, and the column types must match exactly.
func (t *Table) ValidateForeignKeys(db *Database) error {
	for _, fk := range t.ForeignKeys {
		if t.FindColumn(fk.ReferencingColumn) == nil {
			return errs.New(errs.KindColumnNotFound, "foreign key %q references unknown column %q", fk.Name, fk.ReferencingColumn)
		}
		target := db.FindTable(fk.ReferencedTable)
		if target == nil {
			return errs.New(errs.KindTableNotFound, "foreign key %q references unknown table %q", fk.Name, fk.ReferencedTable)
		}
		if !strings.EqualFold(target.PrimaryKey, fk.ReferencedColumn) {
			return errs.New(errs.KindColumnNotFound,
				"foreign key %q must reference the primary key of %q, not %q", fk.Name, target.Name, fk.ReferencedColumn)
		}
		referencing := t.FindColumn(fk.ReferencingColumn)
		referenced := target.FindColumn(fk.ReferencedColumn)
		if referencing == nil || referenced == nil || referencing.Type != referenced.Type {
			return errs.New(errs.KindColumnNotFound,
				"foreign key %q column type mismatch between %q and %q", fk.Name, t.Name, target.Name)
		}
	}
	return nil
}
