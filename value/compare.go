package value

import "bytes"

// Compare imposes a total order across comparable Values. ok is false when
// either operand is Null (Null compares unordered) or the two kinds are not
// mutually comparable (e.g. Str against Point).
func Compare(a, b Value) (cmp int, ok bool) {
	if a.IsNull() || b.IsNull() {
		return 0, false
	}
	if a.Kind().IsNumeric() && b.Kind().IsNumeric() {
		return compareNumeric(a, b), true
	}
	if a.Kind() != b.Kind() {
		return 0, false
	}
	switch a.Kind() {
	case Bool:
		x, _ := a.Bool()
		y, _ := b.Bool()
		if x == y {
			return 0, true
		}
		if !x {
			return -1, true
		}
		return 1, true
	case Str:
		x, _ := a.Str()
		y, _ := b.Str()
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		default:
			return 0, true
		}
	case Bytea:
		x, _ := a.Bytea()
		y, _ := b.Bytea()
		return bytes.Compare(x, y), true
	case Date:
		x, _ := a.DateVal()
		y, _ := b.DateVal()
		return x.Compare(y), true
	case Time:
		x, _ := a.TimeVal()
		y, _ := b.TimeVal()
		return x.Compare(y), true
	case Timestamp:
		x, _ := a.TimestampVal()
		y, _ := b.TimestampVal()
		return x.Compare(y), true
	case IntervalKind:
		x, _ := a.Interval()
		y, _ := b.Interval()
		return x.Compare(y), true
	case Uuid:
		x, _ := a.UUID()
		y, _ := b.UUID()
		return bytes.Compare(x[:], y[:]), true
	default:
		return 0, false
	}
}

// compareNumeric compares across numeric kinds under canonical widening:
// if either side is Decimal, compare as decimals; else if either side is
// float, compare as float64; else compare as big.Int.
func compareNumeric(a, b Value) int {
	if a.Kind() == DecimalKind || b.Kind() == DecimalKind {
		da, _ := a.toDecimal()
		db, _ := b.toDecimal()
		return da.Compare(db)
	}
	if a.Kind().isFloat() || b.Kind().isFloat() {
		fa, _ := a.AsFloat64()
		fb, _ := b.AsFloat64()
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	ba, _ := a.asBigInt()
	bb, _ := b.asBigInt()
	return ba.Cmp(bb)
}

// Equal reports whether a and b are equal. Null is never equal to anything,
// including another Null (SQL NULL semantics; callers needing IS NULL
// should check IsNull directly).
func Equal(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return false
	}
	if a.Kind().IsNumeric() && b.Kind().IsNumeric() {
		return compareNumeric(a, b) == 0
	}
	c, ok := Compare(a, b)
	return ok && c == 0
}
