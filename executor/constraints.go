package executor

import (
	"strings"

	"gluedb/errs"
	"gluedb/schema"
	"gluedb/value"
)

// checkConstraints validates rows (newly inserted or updated in place)
// against t's declared NOT NULL, UNIQUE/PRIMARY KEY, and foreign-key rules.
// excludeKeys names the keys of the rows being replaced, so an UPDATE that
// leaves a unique value unchanged doesn't collide with itself.
func (ex *Executor) checkConstraints(t *schema.Table, rows [][]value.Value, excludeKeys [][]byte) error {
	if t.IsSchemaless() {
		return nil
	}
	if err := ex.checkNullability(t, rows); err != nil {
		return err
	}
	if err := ex.checkUnique(t, rows, excludeKeys); err != nil {
		return err
	}
	return ex.checkForeignKeys(t, rows)
}

func (ex *Executor) checkNullability(t *schema.Table, rows [][]value.Value) error {
	for _, row := range rows {
		for i, c := range t.Columns {
			if !c.Nullable && row[i].IsNull() {
				return errs.New(errs.KindNullabilityViolation, "column %q in table %q does not accept Null", c.Name, t.Name)
			}
		}
	}
	return nil
}

// checkUnique enforces every UNIQUE-declared column and the primary key
// against both the batch being written and the rows already stored,
// excluding excludeKeys (the rows an UPDATE is about to overwrite).
func (ex *Executor) checkUnique(t *schema.Table, rows [][]value.Value, excludeKeys [][]byte) error {
	uniqueCols := make([]int, 0)
	for i, c := range t.Columns {
		if c.Unique || strings.EqualFold(c.Name, t.PrimaryKey) {
			uniqueCols = append(uniqueCols, i)
		}
	}
	if len(uniqueCols) == 0 {
		return nil
	}

	exclude := make(map[string]bool, len(excludeKeys))
	for _, k := range excludeKeys {
		exclude[string(k)] = true
	}

	for _, idx := range uniqueCols {
		seen := map[string]bool{}
		for _, row := range rows {
			if row[idx].IsNull() {
				continue
			}
			enc := string(value.EncodeKey(row[idx]))
			if seen[enc] {
				return errs.New(errs.KindUniqueViolation, "duplicate value for unique column %q in table %q", t.Columns[idx].Name, t.Name)
			}
			seen[enc] = true
		}

		iter, err := ex.storage.ScanData(t.Name)
		if err != nil {
			return err
		}
		for {
			existing, ok, err := iter.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if exclude[string(existing.Key)] {
				continue
			}
			if existing.Values[idx].IsNull() {
				continue
			}
			enc := string(value.EncodeKey(existing.Values[idx]))
			if seen[enc] {
				return errs.New(errs.KindUniqueViolation, "duplicate value for unique column %q in table %q", t.Columns[idx].Name, t.Name)
			}
		}
	}
	return nil
}

// checkForeignKeys requires every declared foreign key's referencing value
// to exist as the referenced table's primary-key value, unless the
// referencing column is Null.
func (ex *Executor) checkForeignKeys(t *schema.Table, rows [][]value.Value) error {
	for _, fk := range t.ForeignKeys {
		idx := columnIndex(t, fk.ReferencingColumn)
		if idx < 0 {
			continue
		}
		target, err := ex.fetchSchema(fk.ReferencedTable)
		if err != nil {
			return err
		}
		refIdx := columnIndex(target, fk.ReferencedColumn)
		if refIdx < 0 {
			continue
		}

		for _, row := range rows {
			if row[idx].IsNull() {
				continue
			}
			found, err := ex.valueExistsInColumn(target, refIdx, row[idx])
			if err != nil {
				return err
			}
			if !found {
				return errs.New(errs.KindCannotFindReferencedValue,
					"foreign key %q: no row in %q with %q matching the referencing value", fk.Name, target.Name, fk.ReferencedColumn)
			}
		}
	}
	return nil
}

func (ex *Executor) valueExistsInColumn(t *schema.Table, colIdx int, v value.Value) (bool, error) {
	iter, err := ex.storage.ScanData(t.Name)
	if err != nil {
		return false, err
	}
	target := value.EncodeKey(v)
	for {
		row, ok, err := iter.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if string(value.EncodeKey(row.Values[colIdx])) == string(target) {
			return true, nil
		}
	}
}

// checkReferencingRows refuses to delete deletedPKValues from t when
// another table's foreign key with OnDelete == NO ACTION still points at
// one of them. Foreign keys whose OnDelete is CASCADE, SET NULL or SET
// DEFAULT are skipped: their referencing rows are neither deleted nor
// updated, and the delete goes ahead.
func (ex *Executor) checkReferencingRows(t *schema.Table, deletedPKValues []value.Value) error {
	if len(deletedPKValues) == 0 {
		return nil
	}
	schemas, err := ex.storage.FetchAllSchemas()
	if err != nil {
		return err
	}
	targetSet := make(map[string]bool, len(deletedPKValues))
	for _, v := range deletedPKValues {
		targetSet[string(value.EncodeKey(v))] = true
	}

	for _, other := range schemas {
		for _, fk := range other.ForeignKeys {
			if !strings.EqualFold(fk.ReferencedTable, t.Name) {
				continue
			}
			if fk.OnDelete == schema.ActionCascade || fk.OnDelete == schema.ActionSetNull || fk.OnDelete == schema.ActionSetDefault {
				continue
			}
			idx := columnIndex(other, fk.ReferencingColumn)
			if idx < 0 {
				continue
			}
			iter, err := ex.storage.ScanData(other.Name)
			if err != nil {
				return err
			}
			for {
				row, ok, err := iter.Next()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				if row.Values[idx].IsNull() {
					continue
				}
				if targetSet[string(value.EncodeKey(row.Values[idx]))] {
					return errs.New(errs.KindReferencingColumnExists,
						"table %q still has rows referencing %q via foreign key %q", other.Name, t.Name, fk.Name)
				}
			}
		}
	}
	return nil
}

