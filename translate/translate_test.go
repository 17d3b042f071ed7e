package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gluedb/ast"
)

func TestTranslateSimpleSelect(t *testing.T) {
	tr := NewTranslator()
	stmts, err := tr.Translate("SELECT a, b FROM users WHERE a = 1")
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	sel, ok := stmts[0].(*ast.Select)
	require.True(t, ok)
	require.Len(t, sel.Projection, 2)
	tbl, ok := sel.From.(*ast.Table)
	require.True(t, ok)
	assert.Equal(t, "users", tbl.Name)
	where, ok := sel.Where.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.OpEq, where.Op)
}

func TestTranslateJoin(t *testing.T) {
	tr := NewTranslator()
	stmts, err := tr.Translate("SELECT * FROM a JOIN b ON a.id = b.id")
	require.NoError(t, err)
	sel := stmts[0].(*ast.Select)
	require.Len(t, sel.Joins, 1)
	assert.Equal(t, ast.JoinInner, sel.Joins[0].Operator)
}

func TestTranslateInsertValues(t *testing.T) {
	tr := NewTranslator()
	stmts, err := tr.Translate("INSERT INTO users (a, b) VALUES (1, 'x')")
	require.NoError(t, err)
	ins := stmts[0].(*ast.Insert)
	assert.Equal(t, "users", ins.Table)
	assert.Equal(t, []string{"a", "b"}, ins.Columns)
	src, ok := ins.Source.(*ast.ValuesSource)
	require.True(t, ok)
	require.Len(t, src.Rows, 1)
	require.Len(t, src.Rows[0], 2)
}

func TestTranslateCreateTable(t *testing.T) {
	tr := NewTranslator()
	stmts, err := tr.Translate("CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(64) NOT NULL)")
	require.NoError(t, err)
	ct := stmts[0].(*ast.CreateTable)
	assert.Equal(t, "users", ct.Table.Name)
	assert.Equal(t, "id", ct.Table.PrimaryKey)
	col := ct.Table.FindColumn("name")
	require.NotNil(t, col)
	assert.False(t, col.Nullable)
}

func TestTranslateUnsupportedStatementRejected(t *testing.T) {
	tr := NewTranslator()
	_, err := tr.Translate("GRANT ALL ON *.* TO 'x'@'%'")
	require.Error(t, err)
}

func TestIntoParamLiteralRejectsNonFiniteFloat(t *testing.T) {
	_, err := IntoParamLiteral(ParamFloat(posInf()))
	require.Error(t, err)
}

func posInf() float64 {
	var f float64 = 1
	return f / zero()
}

func zero() float64 { return 0 }
