package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gluedb/ast"
	"gluedb/schema"
	"gluedb/storage/memory"
	"gluedb/value"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	return New(memory.New(), nil)
}

func createTable(t *testing.T, ex *Executor, tbl *schema.Table) {
	t.Helper()
	_, err := ex.Execute(&ast.CreateTable{Table: tbl})
	require.NoError(t, err)
}

func usersTable() *schema.Table {
	return &schema.Table{
		Name:       "users",
		PrimaryKey: "id",
		Columns: []schema.Column{
			{Name: "id", Type: value.I64},
			{Name: "name", Type: value.Str},
			{Name: "age", Type: value.I64, Nullable: true},
		},
	}
}

func insertUsers(t *testing.T, ex *Executor, rows [][3]any) {
	t.Helper()
	var exprs [][]ast.Expr
	for _, r := range rows {
		exprs = append(exprs, []ast.Expr{
			&ast.Literal{Value: value.NewI64(r[0].(int64))},
			&ast.Literal{Value: value.NewStr(r[1].(string))},
			&ast.Literal{Value: value.NewI64(r[2].(int64))},
		})
	}
	_, err := ex.Execute(&ast.Insert{
		Table:   "users",
		Columns: []string{"id", "name", "age"},
		Source:  &ast.ValuesSource{Rows: exprs},
	})
	require.NoError(t, err)
}

func TestInsertAndSelectAll(t *testing.T) {
	ex := newTestExecutor(t)
	createTable(t, ex, usersTable())
	insertUsers(t, ex, [][3]any{
		{int64(1), "ann", int64(30)},
		{int64(2), "bo", int64(25)},
	})

	payload, err := ex.Execute(&ast.Select{
		Projection: []ast.SelectItem{&ast.Wildcard{}},
		From:       &ast.Table{Name: "users", Alias: "users"},
	})
	require.NoError(t, err)
	assert.Len(t, payload.Rows, 2)
	assert.Equal(t, []string{"id", "name", "age"}, payload.Labels)
}

func TestSelectWithWhereFilter(t *testing.T) {
	ex := newTestExecutor(t)
	createTable(t, ex, usersTable())
	insertUsers(t, ex, [][3]any{
		{int64(1), "ann", int64(30)},
		{int64(2), "bo", int64(25)},
	})

	payload, err := ex.Execute(&ast.Select{
		Projection: []ast.SelectItem{&ast.ExprItem{Expr: &ast.Identifier{Name: "name"}}},
		From:       &ast.Table{Name: "users", Alias: "users"},
		Where: &ast.BinaryOp{
			Op:    ast.OpGt,
			Left:  &ast.Identifier{Name: "age"},
			Right: &ast.Literal{Value: value.NewI64(26)},
		},
	})
	require.NoError(t, err)
	require.Len(t, payload.Rows, 1)
	s, _ := payload.Rows[0][0].Str()
	assert.Equal(t, "ann", s)
}

func TestSelectWithOrderByAndLimit(t *testing.T) {
	ex := newTestExecutor(t)
	createTable(t, ex, usersTable())
	insertUsers(t, ex, [][3]any{
		{int64(1), "ann", int64(30)},
		{int64(2), "bo", int64(25)},
		{int64(3), "cy", int64(40)},
	})

	payload, err := ex.Execute(&ast.Select{
		Projection: []ast.SelectItem{&ast.ExprItem{Expr: &ast.Identifier{Name: "name"}}},
		From:       &ast.Table{Name: "users", Alias: "users"},
		OrderBy:    []ast.OrderByExpr{{Expr: &ast.Identifier{Name: "age"}, Direction: ast.OrderDesc}},
		Limit:      &ast.Limit{Limit: &ast.Literal{Value: value.NewI64(2)}},
	})
	require.NoError(t, err)
	require.Len(t, payload.Rows, 2)
	first, _ := payload.Rows[0][0].Str()
	second, _ := payload.Rows[1][0].Str()
	assert.Equal(t, "cy", first)
	assert.Equal(t, "ann", second)
}

func TestSelectWithGroupByAggregate(t *testing.T) {
	ex := newTestExecutor(t)
	createTable(t, ex, &schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "customer", Type: value.Str},
			{Name: "amount", Type: value.I64},
		},
	})
	_, err := ex.Execute(&ast.Insert{
		Table: "orders",
		Source: &ast.ValuesSource{Rows: [][]ast.Expr{
			{&ast.Literal{Value: value.NewStr("a")}, &ast.Literal{Value: value.NewI64(10)}},
			{&ast.Literal{Value: value.NewStr("a")}, &ast.Literal{Value: value.NewI64(5)}},
			{&ast.Literal{Value: value.NewStr("b")}, &ast.Literal{Value: value.NewI64(7)}},
		}},
	})
	require.NoError(t, err)

	payload, err := ex.Execute(&ast.Select{
		Projection: []ast.SelectItem{
			&ast.ExprItem{Expr: &ast.Identifier{Name: "customer"}},
			&ast.ExprItem{Expr: &ast.Aggregate{Func: ast.AggSum, Arg: &ast.Identifier{Name: "amount"}}, Alias: "total"},
		},
		From:    &ast.Table{Name: "orders", Alias: "orders"},
		GroupBy: []ast.Expr{&ast.Identifier{Name: "customer"}},
		OrderBy: []ast.OrderByExpr{{Expr: &ast.Identifier{Name: "customer"}, Direction: ast.OrderAsc}},
	})
	require.NoError(t, err)
	require.Len(t, payload.Rows, 2)
	total0, _ := payload.Rows[0][1].Int64()
	assert.Equal(t, int64(15), total0)
	total1, _ := payload.Rows[1][1].Int64()
	assert.Equal(t, int64(7), total1)
}

func TestUpdateAppliesAssignments(t *testing.T) {
	ex := newTestExecutor(t)
	createTable(t, ex, usersTable())
	insertUsers(t, ex, [][3]any{{int64(1), "ann", int64(30)}})

	payload, err := ex.Execute(&ast.Update{
		Table: "users",
		Assignments: []ast.Assignment{
			{Column: "age", Value: &ast.Literal{Value: value.NewI64(31)}},
		},
		Where: &ast.BinaryOp{Op: ast.OpEq, Left: &ast.Identifier{Name: "id"}, Right: &ast.Literal{Value: value.NewI64(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, payload.Affected)

	sel, err := ex.Execute(&ast.Select{
		Projection: []ast.SelectItem{&ast.ExprItem{Expr: &ast.Identifier{Name: "age"}}},
		From:       &ast.Table{Name: "users", Alias: "users"},
	})
	require.NoError(t, err)
	age, _ := sel.Rows[0][0].Int64()
	assert.Equal(t, int64(31), age)
}

func TestUpdateRejectsNullabilityViolation(t *testing.T) {
	ex := newTestExecutor(t)
	createTable(t, ex, usersTable())
	insertUsers(t, ex, [][3]any{{int64(1), "ann", int64(30)}})

	_, err := ex.Execute(&ast.Update{
		Table: "users",
		Assignments: []ast.Assignment{
			{Column: "name", Value: &ast.Literal{Value: value.NewNull()}},
		},
	})
	require.Error(t, err)
}

func TestDeleteRemovesMatchingRows(t *testing.T) {
	ex := newTestExecutor(t)
	createTable(t, ex, usersTable())
	insertUsers(t, ex, [][3]any{
		{int64(1), "ann", int64(30)},
		{int64(2), "bo", int64(25)},
	})

	payload, err := ex.Execute(&ast.Delete{
		Table: "users",
		Where: &ast.BinaryOp{Op: ast.OpEq, Left: &ast.Identifier{Name: "id"}, Right: &ast.Literal{Value: value.NewI64(2)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, payload.Affected)

	sel, err := ex.Execute(&ast.Select{
		Projection: []ast.SelectItem{&ast.Wildcard{}},
		From:       &ast.Table{Name: "users", Alias: "users"},
	})
	require.NoError(t, err)
	assert.Len(t, sel.Rows, 1)
}

func TestInsertRejectsUniqueViolation(t *testing.T) {
	ex := newTestExecutor(t)
	tbl := usersTable()
	tbl.Columns[1].Unique = true
	createTable(t, ex, tbl)
	insertUsers(t, ex, [][3]any{{int64(1), "ann", int64(30)}})

	_, err := ex.Execute(&ast.Insert{
		Table:   "users",
		Columns: []string{"id", "name", "age"},
		Source: &ast.ValuesSource{Rows: [][]ast.Expr{
			{&ast.Literal{Value: value.NewI64(2)}, &ast.Literal{Value: value.NewStr("ann")}, &ast.Literal{Value: value.NewI64(1)}},
		}},
	})
	require.Error(t, err)
}

func TestNestedLoopJoin(t *testing.T) {
	ex := newTestExecutor(t)
	createTable(t, ex, usersTable())
	insertUsers(t, ex, [][3]any{{int64(1), "ann", int64(30)}})
	createTable(t, ex, &schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "user_id", Type: value.I64},
			{Name: "amount", Type: value.I64},
		},
	})
	_, err := ex.Execute(&ast.Insert{
		Table: "orders",
		Source: &ast.ValuesSource{Rows: [][]ast.Expr{
			{&ast.Literal{Value: value.NewI64(1)}, &ast.Literal{Value: value.NewI64(99)}},
		}},
	})
	require.NoError(t, err)

	payload, err := ex.Execute(&ast.Select{
		Projection: []ast.SelectItem{
			&ast.ExprItem{Expr: &ast.CompoundIdentifier{Parts: []string{"users", "name"}}},
			&ast.ExprItem{Expr: &ast.CompoundIdentifier{Parts: []string{"orders", "amount"}}},
		},
		From: &ast.Table{Name: "users", Alias: "users"},
		Joins: []ast.Join{{
			Relation: &ast.Table{Name: "orders", Alias: "orders"},
			Operator: ast.JoinInner,
			Executor: &ast.NestedLoopJoin{
				On: &ast.BinaryOp{
					Op:    ast.OpEq,
					Left:  &ast.CompoundIdentifier{Parts: []string{"users", "id"}},
					Right: &ast.CompoundIdentifier{Parts: []string{"orders", "user_id"}},
				},
			},
		}},
	})
	require.NoError(t, err)
	require.Len(t, payload.Rows, 1)
	amount, _ := payload.Rows[0][1].Int64()
	assert.Equal(t, int64(99), amount)
}

func TestLeftJoinNullPads(t *testing.T) {
	ex := newTestExecutor(t)
	createTable(t, ex, usersTable())
	insertUsers(t, ex, [][3]any{{int64(1), "ann", int64(30)}})
	createTable(t, ex, &schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "user_id", Type: value.I64},
			{Name: "amount", Type: value.I64},
		},
	})

	payload, err := ex.Execute(&ast.Select{
		Projection: []ast.SelectItem{
			&ast.ExprItem{Expr: &ast.CompoundIdentifier{Parts: []string{"orders", "amount"}}},
		},
		From: &ast.Table{Name: "users", Alias: "users"},
		Joins: []ast.Join{{
			Relation: &ast.Table{Name: "orders", Alias: "orders"},
			Operator: ast.JoinLeft,
			Executor: &ast.NestedLoopJoin{
				On: &ast.BinaryOp{
					Op:    ast.OpEq,
					Left:  &ast.CompoundIdentifier{Parts: []string{"users", "id"}},
					Right: &ast.CompoundIdentifier{Parts: []string{"orders", "user_id"}},
				},
			},
		}},
	})
	require.NoError(t, err)
	require.Len(t, payload.Rows, 1)
	assert.True(t, payload.Rows[0][0].IsNull())
}

func TestAlterTableAddColumnPreservesRows(t *testing.T) {
	ex := newTestExecutor(t)
	createTable(t, ex, usersTable())
	insertUsers(t, ex, [][3]any{{int64(1), "ann", int64(30)}})

	_, err := ex.Execute(&ast.AlterTable{
		Table:  "users",
		Action: &ast.AddColumn{Column: schema.Column{Name: "active", Type: value.Bool, Nullable: true}},
	})
	require.NoError(t, err)

	payload, err := ex.Execute(&ast.Select{
		Projection: []ast.SelectItem{&ast.Wildcard{}},
		From:       &ast.Table{Name: "users", Alias: "users"},
	})
	require.NoError(t, err)
	require.Len(t, payload.Rows, 1)
	require.Len(t, payload.Rows[0], 4)
	assert.True(t, payload.Rows[0][3].IsNull())
}

func TestDropTableRejectedWhenReferenced(t *testing.T) {
	ex := newTestExecutor(t)
	createTable(t, ex, usersTable())
	createTable(t, ex, &schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: value.I64},
			{Name: "user_id", Type: value.I64},
		},
		ForeignKeys: []schema.ForeignKey{
			{Name: "fk_user", ReferencingColumn: "user_id", ReferencedTable: "users", ReferencedColumn: "id"},
		},
	})

	_, err := ex.Execute(&ast.DropTable{Table: "users"})
	require.Error(t, err)
}
