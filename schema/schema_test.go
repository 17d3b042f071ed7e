package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDropTableRejectsReferenced(t *testing.T) {
	db := NewDatabase()
	assert.NoError(t, db.AddTable(&Table{Name: "p", PrimaryKey: "id", Columns: []Column{{Name: "id"}}}))
	assert.NoError(t, db.AddTable(&Table{Name: "c", Columns: []Column{{Name: "p"}},
		ForeignKeys: []ForeignKey{{Name: "fk_c_p", ReferencingColumn: "p", ReferencedTable: "p", ReferencedColumn: "id"}}}))

	err := db.DropTable("p", false)
	assert.Error(t, err)
}

func TestDropTableCascadeRemovesReferencing(t *testing.T) {
	db := NewDatabase()
	assert.NoError(t, db.AddTable(&Table{Name: "p", PrimaryKey: "id", Columns: []Column{{Name: "id"}}}))
	assert.NoError(t, db.AddTable(&Table{Name: "c", Columns: []Column{{Name: "p"}},
		ForeignKeys: []ForeignKey{{Name: "fk_c_p", ReferencingColumn: "p", ReferencedTable: "p", ReferencedColumn: "id"}}}))

	assert.NoError(t, db.DropTable("p", true))
	assert.Nil(t, db.FindTable("p"))
	assert.Nil(t, db.FindTable("c"))
}

func TestValidateRejectsDuplicateColumn(t *testing.T) {
	tbl := &Table{Name: "t", Columns: []Column{{Name: "a"}, {Name: "a"}}}
	assert.Error(t, tbl.Validate())
}

func TestValidateRejectsCompositeIndex(t *testing.T) {
	tbl := &Table{Name: "t", Columns: []Column{{Name: "a"}, {Name: "b"}},
		Indexes: []Index{{Name: "idx", Expression: "a,b"}}}
	assert.Error(t, tbl.Validate())
}

func TestValidateForeignKeyMustReferencePrimaryKey(t *testing.T) {
	db := NewDatabase()
	assert.NoError(t, db.AddTable(&Table{Name: "p", PrimaryKey: "id",
		Columns: []Column{{Name: "id"}, {Name: "other"}}}))
	c := &Table{Name: "c", Columns: []Column{{Name: "p"}},
		ForeignKeys: []ForeignKey{{Name: "fk", ReferencingColumn: "p", ReferencedTable: "p", ReferencedColumn: "other"}}}
	assert.Error(t, c.ValidateForeignKeys(db))
}
