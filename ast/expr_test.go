package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gluedb/value"
)

func TestIsDeterministicRejectsVolatileFunction(t *testing.T) {
	e := &Function{Name: "NOW"}
	assert.False(t, IsDeterministic(e))
}

func TestIsDeterministicAcceptsLiteralArithmetic(t *testing.T) {
	e := &BinaryOp{Left: &Literal{Value: value.NewI32(1)}, Op: OpAdd, Right: &Literal{Value: value.NewI32(2)}}
	assert.True(t, IsDeterministic(e))
}

func TestIsDeterministicRejectsIdentifier(t *testing.T) {
	e := &BinaryOp{Left: &Identifier{Name: "a"}, Op: OpEq, Right: &Literal{Value: value.NewI32(2)}}
	assert.False(t, IsDeterministic(e))
}

func TestReverseFlipsInequality(t *testing.T) {
	assert.Equal(t, OpGt, OpLt.Reverse())
	assert.Equal(t, OpEq, OpEq.Reverse())
}

func TestToSQLBinaryOp(t *testing.T) {
	e := &BinaryOp{Left: &Identifier{Name: "a"}, Op: OpEq, Right: &Literal{Value: value.NewI32(5)}}
	assert.Equal(t, "a = 5", ToSQL(e))
}

func TestToSQLCompoundIdentifier(t *testing.T) {
	e := &CompoundIdentifier{Parts: []string{"t", "col"}}
	assert.Equal(t, "t.col", ToSQL(e))
}
