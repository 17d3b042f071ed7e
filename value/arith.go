package value

import (
	"math/big"

	"gluedb/errs"
)

// resultIntKind picks the Kind that an integer binary operation between lhs
// and rhs should produce, following the canonical widening rules: same
// signedness widens to the larger width; a signed/unsigned mix promotes to
// a signed kind two steps up the ladder from the wider operand (clamped at
// I128); U128 against any signed operand requires the value to fit in I128.
func resultIntKind(lhs, rhs Kind) Kind {
	if lhs.isSignedInt() == rhs.isSignedInt() {
		w := lhs.bitWidth()
		if rhs.bitWidth() > w {
			w = rhs.bitWidth()
		}
		if lhs.isSignedInt() {
			return signedKindAtWidth(w)
		}
		return unsignedKindAtWidth(w)
	}
	w := lhs.bitWidth()
	if rhs.bitWidth() > w {
		w = rhs.bitWidth()
	}
	idx := 0
	for i, ww := range intWidths {
		if ww == w {
			idx = i
			break
		}
	}
	idx += 2
	if idx >= len(intWidths) {
		idx = len(intWidths) - 1
	}
	return signedKindAtWidth(intWidths[idx])
}

// combineMode classifies how two numeric Values should combine: as
// integers, as floats, or as decimals, per the spec's canonical widening
// (int op int -> int; int/float op float -> float; int/float op decimal ->
// decimal).
type combineMode int

const (
	combineInt combineMode = iota
	combineFloat
	combineDecimal
)

func combineModeOf(lhs, rhs Kind) (combineMode, error) {
	if !lhs.IsNumeric() || !rhs.IsNumeric() {
		return 0, errs.New(errs.KindNonNumericMathOperation, "cannot perform arithmetic on %s and %s", lhs, rhs)
	}
	if lhs == DecimalKind || rhs == DecimalKind {
		return combineDecimal, nil
	}
	if lhs.isFloat() || rhs.isFloat() {
		return combineFloat, nil
	}
	return combineInt, nil
}

func (v Value) toDecimal() (Decimal, error) {
	switch v.Kind() {
	case DecimalKind:
		d, _ := v.Decimal()
		return d, nil
	case F32, F64:
		f, _ := v.AsFloat64()
		return DecimalFromFloat(f)
	default:
		if bi, ok := v.asBigInt(); ok {
			return NewDecimalFromParts(bi, 0)
		}
	}
	return Decimal{}, errs.New(errs.KindNonNumericMathOperation, "cannot convert %s to decimal", v.Kind())
}

type intOp func(z, x, y *big.Int) *big.Int

// checkU128AgainstSigned enforces the one case the canonical widening rule
// in resultIntKind cannot express as an ordinary overflow: a U128 operand
// paired with a signed operand must itself convert into I128 before the op
// runs at all. A U128 value at or above 2^127 has no I128 representation,
// and that failure is a type conversion error, not an overflow of the
// operation's result.
func checkU128AgainstSigned(lhs, rhs Value) error {
	var u128, other Value
	switch {
	case lhs.Kind() == U128 && rhs.Kind().isSignedInt():
		u128, other = lhs, rhs
	case rhs.Kind() == U128 && lhs.Kind().isSignedInt():
		u128, other = rhs, lhs
	default:
		return nil
	}
	n, _ := u128.asBigInt()
	if !fitsIn(n, I128) {
		return errs.New(errs.KindConversionErrorFromDataTypeAToB,
			"%s does not fit in %s, required to combine with %s", u128.Kind(), I128, other.Kind())
	}
	return nil
}

func checkedIntOp(lhs, rhs Value, op intOp, opName string) (Value, error) {
	if err := checkU128AgainstSigned(lhs, rhs); err != nil {
		return Value{}, err
	}
	a, _ := lhs.asBigInt()
	b, _ := rhs.asBigInt()
	resultKind := resultIntKind(lhs.Kind(), rhs.Kind())
	r := op(new(big.Int), a, b)
	if !fitsIn(r, resultKind) {
		return Value{}, errs.New(errs.KindBinaryOperationOverflow,
			"%s %s %s overflows %s", lhs.String(), opName, rhs.String(), resultKind)
	}
	return fromBigInt(resultKind, r), nil
}

// Add implements the documented '+' contract across numerics, Interval, and
// Interval-against-temporal combinations.
func Add(lhs, rhs Value) (Value, error) {
	if lhs.Kind() == IntervalKind || rhs.Kind() == IntervalKind {
		return addInterval(lhs, rhs, false)
	}
	if isTemporal(lhs.Kind()) || isTemporal(rhs.Kind()) {
		return addInterval(lhs, rhs, false)
	}
	mode, err := combineModeOf(lhs.Kind(), rhs.Kind())
	if err != nil {
		return Value{}, err
	}
	switch mode {
	case combineInt:
		return checkedIntOp(lhs, rhs, (*big.Int).Add, "+")
	case combineFloat:
		a, _ := lhs.AsFloat64()
		b, _ := rhs.AsFloat64()
		return NewF64(a + b), nil
	default:
		da, err := lhs.toDecimal()
		if err != nil {
			return Value{}, err
		}
		db, err := rhs.toDecimal()
		if err != nil {
			return Value{}, err
		}
		d, err := da.Add(db)
		if err != nil {
			return Value{}, err
		}
		return NewDecimal(d), nil
	}
}

func Sub(lhs, rhs Value) (Value, error) {
	if lhs.Kind() == IntervalKind && rhs.Kind() == IntervalKind {
		li, _ := lhs.Interval()
		ri, _ := rhs.Interval()
		r, err := li.Sub(ri)
		if err != nil {
			return Value{}, err
		}
		return NewInterval(r), nil
	}
	if isTemporal(lhs.Kind()) && isTemporal(rhs.Kind()) {
		return subTemporal(lhs, rhs)
	}
	if rhs.Kind() == IntervalKind || isTemporal(rhs.Kind()) {
		return addInterval(lhs, rhs, true)
	}
	mode, err := combineModeOf(lhs.Kind(), rhs.Kind())
	if err != nil {
		return Value{}, err
	}
	switch mode {
	case combineInt:
		return checkedIntOp(lhs, rhs, (*big.Int).Sub, "-")
	case combineFloat:
		a, _ := lhs.AsFloat64()
		b, _ := rhs.AsFloat64()
		return NewF64(a - b), nil
	default:
		da, err := lhs.toDecimal()
		if err != nil {
			return Value{}, err
		}
		db, err := rhs.toDecimal()
		if err != nil {
			return Value{}, err
		}
		d, err := da.Sub(db)
		if err != nil {
			return Value{}, err
		}
		return NewDecimal(d), nil
	}
}

func Mul(lhs, rhs Value) (Value, error) {
	if lhs.Kind() == IntervalKind || rhs.Kind() == IntervalKind {
		var iv Interval
		var scalar float64
		if lhs.Kind() == IntervalKind {
			iv, _ = lhs.Interval()
			f, ok := rhs.AsFloat64()
			if !ok {
				return Value{}, errs.New(errs.KindNonNumericMathOperation, "cannot multiply interval by %s", rhs.Kind())
			}
			scalar = f
		} else {
			iv, _ = rhs.Interval()
			f, ok := lhs.AsFloat64()
			if !ok {
				return Value{}, errs.New(errs.KindNonNumericMathOperation, "cannot multiply interval by %s", lhs.Kind())
			}
			scalar = f
		}
		return NewInterval(iv.MulScalar(scalar)), nil
	}
	mode, err := combineModeOf(lhs.Kind(), rhs.Kind())
	if err != nil {
		return Value{}, err
	}
	switch mode {
	case combineInt:
		return checkedIntOp(lhs, rhs, (*big.Int).Mul, "*")
	case combineFloat:
		a, _ := lhs.AsFloat64()
		b, _ := rhs.AsFloat64()
		return NewF64(a * b), nil
	default:
		da, err := lhs.toDecimal()
		if err != nil {
			return Value{}, err
		}
		db, err := rhs.toDecimal()
		if err != nil {
			return Value{}, err
		}
		d, err := da.Mul(db)
		if err != nil {
			return Value{}, err
		}
		return NewDecimal(d), nil
	}
}

func Div(lhs, rhs Value) (Value, error) {
	mode, err := combineModeOf(lhs.Kind(), rhs.Kind())
	if err != nil {
		return Value{}, err
	}
	switch mode {
	case combineInt:
		b, _ := rhs.asBigInt()
		if b.Sign() == 0 {
			return Value{}, errs.New(errs.KindDivisorShouldNotBeZero, "division by zero")
		}
		return checkedIntOp(lhs, rhs, (*big.Int).Quo, "/")
	case combineFloat:
		a, _ := lhs.AsFloat64()
		b, _ := rhs.AsFloat64()
		if b == 0 {
			return Value{}, errs.New(errs.KindDivisorShouldNotBeZero, "division by zero")
		}
		return NewF64(a / b), nil
	default:
		da, err := lhs.toDecimal()
		if err != nil {
			return Value{}, err
		}
		db, err := rhs.toDecimal()
		if err != nil {
			return Value{}, err
		}
		d, err := da.Div(db)
		if err != nil {
			return Value{}, err
		}
		return NewDecimal(d), nil
	}
}

// Mod implements '%', preserving the dividend's sign (Go's big.Int.Rem
// semantics already match this).
func Mod(lhs, rhs Value) (Value, error) {
	mode, err := combineModeOf(lhs.Kind(), rhs.Kind())
	if err != nil {
		return Value{}, err
	}
	switch mode {
	case combineInt:
		b, _ := rhs.asBigInt()
		if b.Sign() == 0 {
			return Value{}, errs.New(errs.KindDivisorShouldNotBeZero, "modulo by zero")
		}
		return checkedIntOp(lhs, rhs, (*big.Int).Rem, "%")
	case combineFloat:
		a, _ := lhs.AsFloat64()
		b, _ := rhs.AsFloat64()
		if b == 0 {
			return Value{}, errs.New(errs.KindDivisorShouldNotBeZero, "modulo by zero")
		}
		return NewF64(modFloat(a, b)), nil
	default:
		da, err := lhs.toDecimal()
		if err != nil {
			return Value{}, err
		}
		db, err := rhs.toDecimal()
		if err != nil {
			return Value{}, err
		}
		if db.Mantissa.Sign() == 0 {
			return Value{}, errs.New(errs.KindDivisorShouldNotBeZero, "modulo by zero")
		}
		q, err := da.Div(db)
		if err != nil {
			return Value{}, err
		}
		qTrunc, _ := NewDecimalFromParts(truncToInt(q), 0)
		prod, err := qTrunc.Mul(db)
		if err != nil {
			return Value{}, err
		}
		r, err := da.Sub(prod)
		if err != nil {
			return Value{}, err
		}
		return NewDecimal(r), nil
	}
}

func modFloat(a, b float64) float64 {
	q := int64(a / b)
	return a - float64(q)*b
}

func truncToInt(d Decimal) *big.Int {
	if d.Scale <= 0 {
		return new(big.Int).Set(d.Mantissa)
	}
	return d.rescaleTo(0)
}

// Concat implements '||' for text values only.
func Concat(lhs, rhs Value) (Value, error) {
	a, ok1 := lhs.Str()
	b, ok2 := rhs.Str()
	if !ok1 || !ok2 {
		return Value{}, errs.New(errs.KindNonNumericMathOperation, "cannot concatenate %s and %s", lhs.Kind(), rhs.Kind())
	}
	return NewStr(a + b), nil
}

func isTemporal(k Kind) bool { return k == Date || k == Time || k == Timestamp }

// addInterval implements Date/Time/Timestamp +/- Interval, and Interval +
// Date/Time/Timestamp (the commutative case). sub negates the interval
// before applying it.
func addInterval(lhs, rhs Value, sub bool) (Value, error) {
	temporal, iv, temporalIsLhs := lhs, Interval{}, true
	if lhs.Kind() == IntervalKind {
		iv, _ = lhs.Interval()
		temporal = rhs
		temporalIsLhs = false
	} else {
		iv, _ = rhs.Interval()
	}
	if sub && !temporalIsLhs {
		return Value{}, errs.New(errs.KindNonNumericMathOperation, "cannot subtract a temporal value from an interval")
	}
	if sub {
		iv = Interval{Unit: iv.Unit, Months: -iv.Months, Micros: -iv.Micros}
	}

	switch temporal.Kind() {
	case Date:
		d, _ := temporal.DateVal()
		if iv.Unit == IntervalMonthUnit {
			nd, err := d.AddMonths(iv.Months)
			if err != nil {
				return Value{}, err
			}
			return NewDate(nd), nil
		}
		ts, err := d.AddDuration(iv.Micros)
		if err != nil {
			return Value{}, err
		}
		return NewTimestamp(ts), nil
	case Time:
		t, _ := temporal.TimeVal()
		if iv.Unit == IntervalMonthUnit {
			return Value{}, errs.New(errs.KindAddYearOrMonthToTime, "cannot add a YEAR TO MONTH interval to TIME")
		}
		return NewTime(t.AddDuration(iv.Micros)), nil
	case Timestamp:
		t, _ := temporal.TimestampVal()
		if iv.Unit == IntervalMonthUnit {
			nt, err := t.AddMonths(iv.Months)
			if err != nil {
				return Value{}, err
			}
			return NewTimestamp(nt), nil
		}
		nt, err := t.AddDuration(iv.Micros)
		if err != nil {
			return Value{}, err
		}
		return NewTimestamp(nt), nil
	default:
		return Value{}, errs.New(errs.KindNonNumericMathOperation, "cannot combine %s and INTERVAL", temporal.Kind())
	}
}

func subTemporal(lhs, rhs Value) (Value, error) {
	if lhs.Kind() != rhs.Kind() {
		return Value{}, errs.New(errs.KindNonNumericMathOperation, "cannot subtract %s from %s", rhs.Kind(), lhs.Kind())
	}
	switch lhs.Kind() {
	case Date:
		a, _ := lhs.DateVal()
		b, _ := rhs.DateVal()
		days := a.toTime().Sub(b.toTime()).Hours() / 24
		return NewInterval(Microseconds(int64(days) * 24 * 3600 * 1_000_000)), nil
	case Time:
		a, _ := lhs.TimeVal()
		b, _ := rhs.TimeVal()
		diff := a.toDuration() - b.toDuration()
		return NewInterval(Microseconds(diff.Microseconds())), nil
	case Timestamp:
		a, _ := lhs.TimestampVal()
		b, _ := rhs.TimestampVal()
		diff := a.toTime().Sub(b.toTime())
		return NewInterval(Microseconds(diff.Microseconds())), nil
	default:
		return Value{}, errs.New(errs.KindNonNumericMathOperation, "cannot subtract %s values", lhs.Kind())
	}
}
