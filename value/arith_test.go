package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gluedb/errs"
)

func TestAddU128WithSignedOutOfI128RangeIsConversionError(t *testing.T) {
	// 2^127 has no I128 representation; pairing it with any signed operand
	// must fail before the operation's own overflow check ever runs.
	huge := new(big.Int).Lsh(big.NewInt(1), 127)
	_, err := Add(NewU128(huge), NewI8(1))
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindConversionErrorFromDataTypeAToB, kind)
}

func TestAddU128WithSignedWithinI128RangeOverflowsOrdinarily(t *testing.T) {
	// 2^127 - 1 is I128's max, so the conversion check passes; adding 1
	// then overflows the *result* kind, a distinct failure from the above.
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	_, err := Add(NewU128(max), NewI8(1))
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindBinaryOperationOverflow, kind)
}

func TestAddU128WithSignedFitsWithinI128(t *testing.T) {
	v, err := Add(NewU128(big.NewInt(10)), NewI8(5))
	require.NoError(t, err)
	n, ok := v.BigInt()
	require.True(t, ok)
	assert.Equal(t, int64(15), n.Int64())
}
