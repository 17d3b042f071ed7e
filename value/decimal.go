package value

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"gluedb/errs"
)

// decimalMaxMantissa is the largest magnitude representable by the 96-bit
// mantissa (2^96 - 1), matching the spec's "96-bit mantissa + scale" layout.
var decimalMaxMantissa = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1))

// Decimal is a fixed-precision decimal: mantissa * 10^-scale.
type Decimal struct {
	Mantissa *big.Int
	Scale    int32
}

func NewDecimalFromParts(mantissa *big.Int, scale int32) (Decimal, error) {
	abs := new(big.Int).Abs(mantissa)
	if abs.Cmp(decimalMaxMantissa) > 0 {
		return Decimal{}, errs.New(errs.KindBinaryOperationOverflow, "decimal mantissa overflows 96 bits")
	}
	return Decimal{Mantissa: new(big.Int).Set(mantissa), Scale: scale}, nil
}

// ParseDecimal parses a plain decimal text literal ("123", "-4.50").
func ParseDecimal(s string) (Decimal, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	digits := intPart
	scale := int32(0)
	if hasFrac {
		digits += fracPart
		scale = int32(len(fracPart))
	}
	m, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, errs.New(errs.KindImpossibleCast, "invalid decimal literal %q", s)
	}
	if neg {
		m.Neg(m)
	}
	return NewDecimalFromParts(m, scale)
}

func (d Decimal) rescaleTo(scale int32) *big.Int {
	if d.Scale == scale {
		return new(big.Int).Set(d.Mantissa)
	}
	diff := scale - d.Scale
	m := new(big.Int).Set(d.Mantissa)
	if diff > 0 {
		return m.Mul(m, pow10(diff))
	}
	return m.Quo(m, pow10(-diff))
}

func pow10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func (d Decimal) String() string {
	m := new(big.Int).Abs(d.Mantissa)
	s := m.String()
	sign := ""
	if d.Mantissa.Sign() < 0 {
		sign = "-"
	}
	if d.Scale <= 0 {
		if d.Scale < 0 {
			s += strings.Repeat("0", int(-d.Scale))
		}
		return sign + s
	}
	for int32(len(s)) <= d.Scale {
		s = "0" + s
	}
	cut := int32(len(s)) - d.Scale
	return sign + s[:cut] + "." + s[cut:]
}

func (d Decimal) Compare(o Decimal) int {
	scale := d.Scale
	if o.Scale > scale {
		scale = o.Scale
	}
	return d.rescaleTo(scale).Cmp(o.rescaleTo(scale))
}

func (d Decimal) Equal(o Decimal) bool { return d.Compare(o) == 0 }

func (d Decimal) Add(o Decimal) (Decimal, error) {
	scale := maxI32(d.Scale, o.Scale)
	m := new(big.Int).Add(d.rescaleTo(scale), o.rescaleTo(scale))
	return NewDecimalFromParts(m, scale)
}

func (d Decimal) Sub(o Decimal) (Decimal, error) {
	scale := maxI32(d.Scale, o.Scale)
	m := new(big.Int).Sub(d.rescaleTo(scale), o.rescaleTo(scale))
	return NewDecimalFromParts(m, scale)
}

func (d Decimal) Mul(o Decimal) (Decimal, error) {
	m := new(big.Int).Mul(d.Mantissa, o.Mantissa)
	return NewDecimalFromParts(m, d.Scale+o.Scale)
}

func (d Decimal) Div(o Decimal) (Decimal, error) {
	if o.Mantissa.Sign() == 0 {
		return Decimal{}, errs.New(errs.KindDivisorShouldNotBeZero, "division by zero decimal")
	}
	// Scale the dividend up so the quotient retains reasonable precision.
	const extraScale = 12
	scale := d.Scale + extraScale
	num := d.rescaleTo(scale + o.Scale)
	q := new(big.Int).Quo(num, o.Mantissa)
	return NewDecimalFromParts(q, scale)
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// ToFloat64 converts the decimal to the nearest float64.
func (d Decimal) ToFloat64() float64 {
	f := new(big.Float).SetInt(d.Mantissa)
	scaleFactor := new(big.Float).SetInt(pow10(absI32(d.Scale)))
	if d.Scale > 0 {
		f.Quo(f, scaleFactor)
	} else if d.Scale < 0 {
		f.Mul(f, scaleFactor)
	}
	r, _ := f.Float64()
	return r
}

func absI32(n int32) int32 {
	if n < 0 {
		return -n
	}
	return n
}

// DecimalFromFloat converts a float with "retain" semantics: the float's
// shortest round-tripping decimal text becomes the mantissa/scale. Any
// float that is not finite, or whose text doesn't fit the 96-bit mantissa,
// fails with FloatToDecimalConversionFailure.
func DecimalFromFloat(f float64) (Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Decimal{}, errs.New(errs.KindFloatToDecimalConversionFailure, "float %v is not finite", f)
	}
	text := strconv.FormatFloat(f, 'f', -1, 64)
	d, err := ParseDecimal(text)
	if err != nil {
		return Decimal{}, errs.Wrap(errs.KindFloatToDecimalConversionFailure, err, "float %v does not fit a decimal", f)
	}
	return d, nil
}
