package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueZeroIsNull(t *testing.T) {
	var v Value
	assert.True(t, v.IsNull())
	assert.Equal(t, Null, v.Kind())
}

func TestAsFloat64Widening(t *testing.T) {
	f, ok := NewI32(42).AsFloat64()
	assert.True(t, ok)
	assert.Equal(t, float64(42), f)

	f, ok = NewU8(7).AsFloat64()
	assert.True(t, ok)
	assert.Equal(t, float64(7), f)
}

func TestDecimalAddOverflow(t *testing.T) {
	max, _ := NewDecimalFromParts(decimalMaxMantissa, 0)
	one, _ := ParseDecimal("1")
	_, err := max.Add(one)
	assert.Error(t, err)
}

func TestDecimalStringRoundTrip(t *testing.T) {
	d, err := ParseDecimal("-12.340")
	assert.NoError(t, err)
	assert.Equal(t, "-12.340", d.String())
}

func TestDecimalFromFloatRetainsShortestText(t *testing.T) {
	d, err := DecimalFromFloat(3.14)
	assert.NoError(t, err)
	assert.Equal(t, "3.14", d.String())
}

func TestIntervalAddRejectsMixedUnits(t *testing.T) {
	_, err := Months(3).Add(Microseconds(10))
	assert.Error(t, err)
}

func TestIntervalCompareMonthAlwaysAboveMicro(t *testing.T) {
	assert.Equal(t, 1, Months(0).Compare(Microseconds(1_000_000_000)))
}

func TestParseIntervalYearToMonth(t *testing.T) {
	iv, err := ParseInterval("3-6", "YEAR", "MONTH")
	assert.NoError(t, err)
	assert.Equal(t, IntervalMonthUnit, iv.Unit)
	assert.Equal(t, int32(42), iv.Months)
}

func TestParseIntervalNegative(t *testing.T) {
	iv, err := ParseInterval("-2", "DAY", "DAY")
	assert.NoError(t, err)
	assert.Equal(t, int64(-2*24*3600*1_000_000), iv.Micros)
}

func TestCivilDateAddMonthsCarriesYear(t *testing.T) {
	d := CivilDate{Year: 2024, Month: 11, Day: 15}
	nd, err := d.AddMonths(3)
	assert.NoError(t, err)
	assert.Equal(t, int32(2025), nd.Year)
	assert.Equal(t, int8(2), nd.Month)
}

func TestAddIntOverflow(t *testing.T) {
	_, err := Add(NewI8(120), NewI8(100))
	// both I8, result stays within resultIntKind(I8,I8)=I8, should overflow
	assert.Error(t, err)
}

func TestAddMixedWidthWidens(t *testing.T) {
	v, err := Add(NewI8(100), NewI32(100))
	assert.NoError(t, err)
	assert.Equal(t, I32, v.Kind())
	n, ok := v.Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(200), n)
}

func TestAddFloatPromotes(t *testing.T) {
	v, err := Add(NewI32(1), NewF64(0.5))
	assert.NoError(t, err)
	assert.Equal(t, F64, v.Kind())
	f, _ := v.AsFloat64()
	assert.Equal(t, 1.5, f)
}

func TestDivByZero(t *testing.T) {
	_, err := Div(NewI32(1), NewI32(0))
	assert.Error(t, err)
}

func TestModPreservesDividendSign(t *testing.T) {
	v, err := Mod(NewI32(-7), NewI32(3))
	assert.NoError(t, err)
	n, _ := v.Int64()
	assert.Equal(t, int64(-1), n)
}

func TestAddDateAndMonthInterval(t *testing.T) {
	d := NewDate(CivilDate{Year: 2024, Month: 1, Day: 31})
	v, err := Add(d, NewInterval(Months(1)))
	assert.NoError(t, err)
	assert.Equal(t, Date, v.Kind())
}

func TestAddTimeAndMonthIntervalRejected(t *testing.T) {
	tm := NewTime(CivilTime{Hour: 10})
	_, err := Add(tm, NewInterval(Months(1)))
	assert.Error(t, err)
}

func TestCompareNullUnordered(t *testing.T) {
	_, ok := Compare(NewNull(), NewI32(1))
	assert.False(t, ok)
}

func TestCompareCrossWidthInt(t *testing.T) {
	c, ok := Compare(NewI8(5), NewI64(5))
	assert.True(t, ok)
	assert.Equal(t, 0, c)
}

func TestCompareDecimalVsInt(t *testing.T) {
	d, _ := ParseDecimal("5.00")
	c, ok := Compare(NewDecimal(d), NewI32(5))
	assert.True(t, ok)
	assert.Equal(t, 0, c)
}

func TestEqualNullNeverEqual(t *testing.T) {
	assert.False(t, Equal(NewNull(), NewNull()))
}

func TestCastStrToBool(t *testing.T) {
	v, err := Cast(NewStr("true"), Bool)
	assert.NoError(t, err)
	b, _ := v.Bool()
	assert.True(t, b)
}

func TestCastStrToBoolInvalid(t *testing.T) {
	_, err := Cast(NewStr("yes"), Bool)
	assert.Error(t, err)
}

func TestCastFloatToIntTruncates(t *testing.T) {
	v, err := Cast(NewF64(9.9), I32)
	assert.NoError(t, err)
	n, _ := v.Int64()
	assert.Equal(t, int64(9), n)
}

func TestCastNullIsAlwaysNull(t *testing.T) {
	v, err := Cast(NewNull(), I32)
	assert.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestCastOverflowRejected(t *testing.T) {
	_, err := Cast(NewI32(1000), I8)
	assert.Error(t, err)
}

func TestEncodeKeyOrdersNumericsBySign(t *testing.T) {
	lo := EncodeKey(NewI32(-5))
	hi := EncodeKey(NewI32(5))
	assert.True(t, string(lo) < string(hi))
}

func TestEncodeKeyOrdersAcrossWidth(t *testing.T) {
	small := EncodeKey(NewI8(5))
	big2 := EncodeKey(NewI64(5))
	assert.Equal(t, string(small), string(big2))
}

func TestFitsInBounds(t *testing.T) {
	assert.True(t, fitsIn(big.NewInt(127), I8))
	assert.False(t, fitsIn(big.NewInt(128), I8))
}
