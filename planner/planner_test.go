package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gluedb/ast"
	"gluedb/errs"
	"gluedb/schema"
	"gluedb/value"
)

func usersTable() *schema.Table {
	return &schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: value.I64},
			{Name: "name", Type: value.Str},
		},
		Indexes: []schema.Index{
			{Name: "idx_id", Expression: "id", Order: schema.SortBoth},
			{Name: "idx_name", Expression: "name", Order: schema.SortAsc},
		},
	}
}

func selectUsersWhereIDEq1() *ast.Select {
	return &ast.Select{
		Projection: []ast.SelectItem{&ast.Wildcard{}},
		From:       &ast.Table{Name: "users"},
		Where: &ast.BinaryOp{
			Left:  &ast.Identifier{Name: "id"},
			Op:    ast.OpEq,
			Right: &ast.Literal{Value: value.NewI64(1)},
		},
	}
}

func TestPlanIndexAttachesEqualityBound(t *testing.T) {
	schemas := map[string]*schema.Table{"users": usersTable()}
	stmt, err := PlanIndex(schemas, selectUsersWhereIDEq1())
	require.NoError(t, err)

	sel := stmt.(*ast.Select)
	table := sel.From.(*ast.Table)
	idx, ok := table.Index.(*ast.NonClusteredIndex)
	require.True(t, ok, "expected NonClusteredIndex, got %T", table.Index)
	assert.Equal(t, "idx_id", idx.Name)
	assert.Equal(t, ast.OpEq, idx.Op)
	assert.Nil(t, sel.Where)
}

func TestPlanIndexReversesValueOnLeft(t *testing.T) {
	schemas := map[string]*schema.Table{"users": usersTable()}
	sel := &ast.Select{
		From: &ast.Table{Name: "users"},
		Where: &ast.BinaryOp{
			Left:  &ast.Literal{Value: value.NewI64(5)},
			Op:    ast.OpLt,
			Right: &ast.Identifier{Name: "id"},
		},
	}
	stmt, err := PlanIndex(schemas, sel)
	require.NoError(t, err)

	table := stmt.(*ast.Select).From.(*ast.Table)
	idx := table.Index.(*ast.NonClusteredIndex)
	assert.Equal(t, ast.OpGt, idx.Op) // (5 < id) reverses to (id > 5)
}

func TestPlanIndexPeelsFirstConjunctFromAnd(t *testing.T) {
	schemas := map[string]*schema.Table{"users": usersTable()}
	sel := &ast.Select{
		From: &ast.Table{Name: "users"},
		Where: &ast.BinaryOp{
			Left: &ast.BinaryOp{
				Left:  &ast.Identifier{Name: "id"},
				Op:    ast.OpEq,
				Right: &ast.Literal{Value: value.NewI64(1)},
			},
			Op: ast.OpAnd,
			Right: &ast.BinaryOp{
				Left:  &ast.Identifier{Name: "name"},
				Op:    ast.OpEq,
				Right: &ast.Literal{Value: value.NewStr("a")},
			},
		},
	}
	stmt, err := PlanIndex(schemas, sel)
	require.NoError(t, err)

	planned := stmt.(*ast.Select)
	table := planned.From.(*ast.Table)
	idx := table.Index.(*ast.NonClusteredIndex)
	assert.Equal(t, "idx_id", idx.Name)
	residual, ok := planned.Where.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.OpEq, residual.Op)
	ident, ok := residual.Left.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "name", ident.Name)
}

func TestPlanIndexSkipsColumnToColumnComparison(t *testing.T) {
	schemas := map[string]*schema.Table{"users": usersTable()}
	sel := &ast.Select{
		From: &ast.Table{Name: "users"},
		Where: &ast.BinaryOp{
			Left:  &ast.Identifier{Name: "id"},
			Op:    ast.OpEq,
			Right: &ast.Identifier{Name: "name"},
		},
	}
	stmt, err := PlanIndex(schemas, sel)
	require.NoError(t, err)

	table := stmt.(*ast.Select).From.(*ast.Table)
	assert.Nil(t, table.Index)
}

func TestPlanIndexOrderByAttachesWithoutConsumingWhere(t *testing.T) {
	schemas := map[string]*schema.Table{"users": usersTable()}
	sel := &ast.Select{
		From:    &ast.Table{Name: "users"},
		OrderBy: []ast.OrderByExpr{{Expr: &ast.Identifier{Name: "name"}, Direction: ast.OrderAsc}},
	}
	stmt, err := PlanIndex(schemas, sel)
	require.NoError(t, err)

	planned := stmt.(*ast.Select)
	table := planned.From.(*ast.Table)
	idx := table.Index.(*ast.NonClusteredIndex)
	assert.Equal(t, "idx_name", idx.Name)
	assert.True(t, idx.Asc)
	assert.Empty(t, planned.OrderBy)
}

func TestPlanIndexIsNullLowersToEqNull(t *testing.T) {
	schemas := map[string]*schema.Table{"users": usersTable()}
	sel := &ast.Select{
		From:  &ast.Table{Name: "users"},
		Where: &ast.IsNull{Expr: &ast.Identifier{Name: "id"}},
	}
	stmt, err := PlanIndex(schemas, sel)
	require.NoError(t, err)

	table := stmt.(*ast.Select).From.(*ast.Table)
	idx := table.Index.(*ast.NonClusteredIndex)
	assert.Equal(t, ast.OpEq, idx.Op)
	lit := idx.Value.(*ast.Literal)
	assert.True(t, lit.Value.IsNull())
}

func playerTable() *schema.Table {
	return &schema.Table{Name: "player"}
}

func itemTable() *schema.Table {
	return &schema.Table{
		Name:    "item",
		Columns: []schema.Column{{Name: "id", Type: value.I64}},
	}
}

func TestPlanSchemalessRewritesWildcardToDoc(t *testing.T) {
	schemas := map[string]*schema.Table{"player": playerTable()}
	sel := &ast.Select{
		Projection: []ast.SelectItem{&ast.Wildcard{}},
		From:       &ast.Table{Name: "player"},
	}
	stmt, err := PlanSchemaless(schemas, sel)
	require.NoError(t, err)

	planned := stmt.(*ast.Select)
	require.Len(t, planned.Projection, 1)
	item := planned.Projection[0].(*ast.ExprItem)
	assert.Equal(t, schema.ReservedDocColumn, item.Alias)
}

func TestPlanSchemalessRewritesIdentifierToMapIndex(t *testing.T) {
	schemas := map[string]*schema.Table{"player": playerTable()}
	sel := &ast.Select{
		Projection: []ast.SelectItem{&ast.ExprItem{Expr: &ast.Identifier{Name: "id"}, Alias: "id"}},
		From:       &ast.Table{Name: "player"},
		Where:      &ast.BinaryOp{Left: &ast.Identifier{Name: "name"}, Op: ast.OpEq, Right: &ast.Literal{Value: value.NewStr("a")}},
	}
	stmt, err := PlanSchemaless(schemas, sel)
	require.NoError(t, err)

	planned := stmt.(*ast.Select)
	item := planned.Projection[0].(*ast.ExprItem)
	idx := item.Expr.(*ast.MapIndex)
	assert.Equal(t, "id", idx.Key)
	obj := idx.Obj.(*ast.Identifier)
	assert.Equal(t, schema.ReservedDocColumn, obj.Name)

	where := planned.Where.(*ast.BinaryOp)
	whereIdx := where.Left.(*ast.MapIndex)
	assert.Equal(t, "name", whereIdx.Key)
}

func TestPlanSchemalessRejectsMixedJoinWildcard(t *testing.T) {
	schemas := map[string]*schema.Table{"player": playerTable(), "item": itemTable()}
	sel := &ast.Select{
		Projection: []ast.SelectItem{&ast.Wildcard{}},
		From:       &ast.Table{Name: "player"},
		Joins: []ast.Join{{
			Relation: &ast.Table{Name: "item"},
			Operator: ast.JoinInner,
			Executor: &ast.NestedLoopJoin{On: &ast.BinaryOp{
				Left: &ast.CompoundIdentifier{Parts: []string{"player", "id"}}, Op: ast.OpEq,
				Right: &ast.CompoundIdentifier{Parts: []string{"item", "id"}},
			}},
		}},
	}
	_, err := PlanSchemaless(schemas, sel)
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindSchemalessMixedJoinWildcard, kind)
}

func TestPlanSchemalessAllowsNonWildcardJoinProjection(t *testing.T) {
	schemas := map[string]*schema.Table{"player": playerTable(), "item": itemTable()}
	sel := &ast.Select{
		Projection: []ast.SelectItem{&ast.ExprItem{Expr: &ast.CompoundIdentifier{Parts: []string{"item", "id"}}, Alias: "id"}},
		From:       &ast.Table{Name: "player"},
		Joins: []ast.Join{{
			Relation: &ast.Table{Name: "item"},
			Operator: ast.JoinInner,
			Executor: &ast.NestedLoopJoin{On: &ast.BinaryOp{
				Left: &ast.CompoundIdentifier{Parts: []string{"player", "id"}}, Op: ast.OpEq,
				Right: &ast.CompoundIdentifier{Parts: []string{"item", "id"}},
			}},
		}},
	}
	_, err := PlanSchemaless(schemas, sel)
	require.NoError(t, err)
}

func TestPlanSchemalessInsertRewritesColumnsToDoc(t *testing.T) {
	schemas := map[string]*schema.Table{"player": playerTable()}
	ins := &ast.Insert{
		Table:   "player",
		Columns: []string{"id", "name"},
		Source:  &ast.ValuesSource{Rows: [][]ast.Expr{{&ast.Literal{Value: value.NewI64(1)}}}},
	}
	stmt, err := PlanSchemaless(schemas, ins)
	require.NoError(t, err)

	planned := stmt.(*ast.Insert)
	assert.Equal(t, []string{schema.ReservedDocColumn}, planned.Columns)
}

func TestPlanSchemalessNoOpWhenNoSchemalessTables(t *testing.T) {
	schemas := map[string]*schema.Table{"item": itemTable()}
	sel := &ast.Select{From: &ast.Table{Name: "item"}}
	stmt, err := PlanSchemaless(schemas, sel)
	require.NoError(t, err)
	assert.Same(t, sel, stmt)
}
