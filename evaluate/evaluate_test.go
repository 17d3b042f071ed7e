package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gluedb/ast"
	"gluedb/value"
)

type noopRunner struct{}

func (noopRunner) RunSelect(*Context, *ast.Select) ([][]value.Value, error) {
	return nil, nil
}

func newEvaluator() *Evaluator {
	return New(nil, noopRunner{})
}

func rowContext(alias string, labels []string, values []value.Value) *Context {
	return &Context{Alias: alias, Labels: labels, Values: values}
}

func lit(v value.Value) ast.Expr { return &ast.Literal{Value: v} }

func TestEvalIdentifierResolvesAgainstContext(t *testing.T) {
	ctx := rowContext("u", []string{"id", "name"}, []value.Value{value.NewI64(1), value.NewStr("ann")})
	ev := newEvaluator()

	got, err := ev.Eval(ctx, nil, &ast.Identifier{Name: "name"})
	require.NoError(t, err)
	s, ok := got.ToValue().Str()
	require.True(t, ok)
	assert.Equal(t, "ann", s)
}

func TestEvalIdentifierNotFound(t *testing.T) {
	ctx := rowContext("u", []string{"id"}, []value.Value{value.NewI64(1)})
	ev := newEvaluator()

	_, err := ev.Eval(ctx, nil, &ast.Identifier{Name: "missing"})
	require.Error(t, err)
}

func TestEvalCompoundIdentifierResolvesChainedContext(t *testing.T) {
	inner := rowContext("o", []string{"total"}, []value.Value{value.NewI64(42)})
	outer := rowContext("u", []string{"id"}, []value.Value{value.NewI64(1)})
	outer.Next = inner
	ev := newEvaluator()

	got, err := ev.Eval(outer, nil, &ast.CompoundIdentifier{Parts: []string{"o", "total"}})
	require.NoError(t, err)
	n, ok := got.ToValue().Int64()
	require.True(t, ok)
	assert.Equal(t, int64(42), n)
}

func TestEvalMapIndexLooksUpDocField(t *testing.T) {
	doc := value.NewMap(map[string]value.Value{"age": value.NewI64(30)})
	ctx := rowContext("p", []string{"_doc"}, []value.Value{doc})
	ev := newEvaluator()

	got, err := ev.Eval(ctx, nil, &ast.MapIndex{Obj: &ast.Identifier{Name: "_doc"}, Key: "age"})
	require.NoError(t, err)
	n, ok := got.ToValue().Int64()
	require.True(t, ok)
	assert.Equal(t, int64(30), n)
}

func TestEvalMapIndexMissingKeyIsNull(t *testing.T) {
	doc := value.NewMap(map[string]value.Value{"age": value.NewI64(30)})
	ctx := rowContext("p", []string{"_doc"}, []value.Value{doc})
	ev := newEvaluator()

	got, err := ev.Eval(ctx, nil, &ast.MapIndex{Obj: &ast.Identifier{Name: "_doc"}, Key: "missing"})
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestEvalArithmeticNullPropagation(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.BinaryOp{Op: ast.OpAdd, Left: lit(value.NewI64(1)), Right: lit(value.NewNull())}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestEvalBetweenComposesGtEqLtEq(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.Between{Expr: lit(value.NewI64(5)), Low: lit(value.NewI64(1)), High: lit(value.NewI64(10))}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	b, ok := got.ToValue().Bool()
	require.True(t, ok)
	assert.True(t, b)
}

func TestEvalBetweenNegated(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.Between{Expr: lit(value.NewI64(5)), Negated: true, Low: lit(value.NewI64(1)), High: lit(value.NewI64(10))}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	b, ok := got.ToValue().Bool()
	require.True(t, ok)
	assert.False(t, b)
}

func TestEvalCaseSearchedFirstMatchWins(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.Case{
		Whens: []ast.WhenClause{
			{When: lit(value.NewBool(false)), Then: lit(value.NewStr("no"))},
			{When: lit(value.NewBool(true)), Then: lit(value.NewStr("yes"))},
		},
		Else: lit(value.NewStr("else")),
	}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	s, _ := got.ToValue().Str()
	assert.Equal(t, "yes", s)
}

func TestEvalCaseOperandMatchesByEquality(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.Case{
		Operand: lit(value.NewI64(2)),
		Whens: []ast.WhenClause{
			{When: lit(value.NewI64(1)), Then: lit(value.NewStr("one"))},
			{When: lit(value.NewI64(2)), Then: lit(value.NewStr("two"))},
		},
	}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	s, _ := got.ToValue().Str()
	assert.Equal(t, "two", s)
}

func TestEvalCaseNoMatchNoElseIsNull(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.Case{
		Whens: []ast.WhenClause{
			{When: lit(value.NewBool(false)), Then: lit(value.NewStr("no"))},
		},
	}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestEvalLikeWildcards(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.BinaryOp{Op: ast.OpLike, Left: lit(value.NewStr("hello world")), Right: lit(value.NewStr("hel%rld"))}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	b, _ := got.ToValue().Bool()
	assert.True(t, b)
}

func TestEvalNotLikeSingleCharWildcard(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.BinaryOp{Op: ast.OpNotLike, Left: lit(value.NewStr("cat")), Right: lit(value.NewStr("c_t"))}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	b, _ := got.ToValue().Bool()
	assert.False(t, b)
}

func TestEvalInListFindsMatch(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.InList{
		Expr: lit(value.NewI64(2)),
		List: []ast.Expr{lit(value.NewI64(1)), lit(value.NewI64(2)), lit(value.NewI64(3))},
	}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	b, _ := got.ToValue().Bool()
	assert.True(t, b)
}

func TestEvalInListNegated(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.InList{
		Expr:    lit(value.NewI64(5)),
		List:    []ast.Expr{lit(value.NewI64(1)), lit(value.NewI64(2))},
		Negated: true,
	}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	b, _ := got.ToValue().Bool()
	assert.True(t, b)
}

func TestEvalFunctionLower(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.Function{Name: "LOWER", Args: []ast.Expr{lit(value.NewStr("HeLLo"))}}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	s, _ := got.ToValue().Str()
	assert.Equal(t, "hello", s)
}

func TestEvalFunctionSubstrUsesStrSlice(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.Function{Name: "SUBSTR", Args: []ast.Expr{
		lit(value.NewStr("hello world")), lit(value.NewI64(7)), lit(value.NewI64(5)),
	}}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	s, ok := got.Str()
	require.True(t, ok)
	assert.Equal(t, "world", s)
}

func TestEvalFunctionSubstrNegativeLengthErrors(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.Function{Name: "SUBSTR", Args: []ast.Expr{
		lit(value.NewStr("hello")), lit(value.NewI64(1)), lit(value.NewI64(-1)),
	}}

	_, err := ev.Eval(nil, nil, expr)
	require.Error(t, err)
}

func TestEvalFunctionDivByZeroErrors(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.Function{Name: "DIV", Args: []ast.Expr{lit(value.NewI64(4)), lit(value.NewI64(0))}}

	_, err := ev.Eval(nil, nil, expr)
	require.Error(t, err)
}

func TestEvalFunctionTrimReturnsSlice(t *testing.T) {
	ev := newEvaluator()
	expr := &ast.Function{Name: "TRIM", Args: []ast.Expr{lit(value.NewStr("  padded  "))}}

	got, err := ev.Eval(nil, nil, expr)
	require.NoError(t, err)
	s, ok := got.Str()
	require.True(t, ok)
	assert.Equal(t, "padded", s)
}

func TestEvalAggregateResolvesFromBindings(t *testing.T) {
	agg := &ast.Aggregate{Func: ast.AggCount}
	bindings := map[*ast.Aggregate]value.Value{agg: value.NewI64(7)}
	ev := newEvaluator()

	got, err := ev.Eval(nil, bindings, agg)
	require.NoError(t, err)
	n, _ := got.ToValue().Int64()
	assert.Equal(t, int64(7), n)
}

func TestEvalAggregateMissingBindingsErrors(t *testing.T) {
	agg := &ast.Aggregate{Func: ast.AggCount}
	ev := newEvaluator()

	_, err := ev.Eval(nil, nil, agg)
	require.Error(t, err)
}
