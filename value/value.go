package value

import (
	"fmt"
	"math/big"
	"net"

	"github.com/google/uuid"
)

// Value is the engine's runtime scalar. The zero Value is Null.
type Value struct {
	kind Kind
	v    any
}

// Kind reports the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is SQL NULL.
func (v Value) IsNull() bool { return v.kind == Null }

// NewNull returns the Null value.
func NewNull() Value { return Value{kind: Null} }

func NewBool(b bool) Value { return Value{kind: Bool, v: b} }

func NewI8(n int8) Value   { return Value{kind: I8, v: n} }
func NewI16(n int16) Value { return Value{kind: I16, v: n} }
func NewI32(n int32) Value { return Value{kind: I32, v: n} }
func NewI64(n int64) Value { return Value{kind: I64, v: n} }

// NewI128 wraps a big.Int as a signed 128-bit value. The caller guarantees
// it fits; use Checked variants in arith.go when that isn't known.
func NewI128(n *big.Int) Value { return Value{kind: I128, v: new(big.Int).Set(n)} }

func NewU8(n uint8) Value   { return Value{kind: U8, v: n} }
func NewU16(n uint16) Value { return Value{kind: U16, v: n} }
func NewU32(n uint32) Value { return Value{kind: U32, v: n} }
func NewU64(n uint64) Value { return Value{kind: U64, v: n} }
func NewU128(n *big.Int) Value { return Value{kind: U128, v: new(big.Int).Set(n)} }

func NewF32(f float32) Value { return Value{kind: F32, v: f} }
func NewF64(f float64) Value { return Value{kind: F64, v: f} }

func NewDecimal(d Decimal) Value { return Value{kind: DecimalKind, v: d} }

func NewStr(s string) Value   { return Value{kind: Str, v: s} }
func NewBytea(b []byte) Value { return Value{kind: Bytea, v: append([]byte(nil), b...)} }
func NewInet(ip net.IP) Value { return Value{kind: Inet, v: ip} }

func NewDate(d CivilDate) Value           { return Value{kind: Date, v: d} }
func NewTime(t CivilTime) Value           { return Value{kind: Time, v: t} }
func NewTimestamp(t CivilTimestamp) Value { return Value{kind: Timestamp, v: t} }
func NewInterval(i Interval) Value        { return Value{kind: IntervalKind, v: i} }

func NewUUID(u uuid.UUID) Value { return Value{kind: Uuid, v: u} }

func NewPoint(x, y float64) Value { return Value{kind: Point, v: PointValue{X: x, Y: y}} }

func NewMap(m map[string]Value) Value { return Value{kind: Map, v: m} }
func NewList(l []Value) Value         { return Value{kind: List, v: l} }

// PointValue is the payload of a Point value.
type PointValue struct{ X, Y float64 }

// Bool returns the payload of a Bool value; ok is false otherwise.
func (v Value) Bool() (b bool, ok bool) {
	b, ok = v.v.(bool)
	return
}

func (v Value) Str() (s string, ok bool) {
	s, ok = v.v.(string)
	return
}

func (v Value) Bytea() (b []byte, ok bool) {
	b, ok = v.v.([]byte)
	return
}

func (v Value) Inet() (ip net.IP, ok bool) {
	ip, ok = v.v.(net.IP)
	return
}

func (v Value) Decimal() (d Decimal, ok bool) {
	d, ok = v.v.(Decimal)
	return
}

func (v Value) DateVal() (d CivilDate, ok bool) {
	d, ok = v.v.(CivilDate)
	return
}

func (v Value) TimeVal() (t CivilTime, ok bool) {
	t, ok = v.v.(CivilTime)
	return
}

func (v Value) TimestampVal() (t CivilTimestamp, ok bool) {
	t, ok = v.v.(CivilTimestamp)
	return
}

func (v Value) Interval() (i Interval, ok bool) {
	i, ok = v.v.(Interval)
	return
}

func (v Value) UUID() (u uuid.UUID, ok bool) {
	u, ok = v.v.(uuid.UUID)
	return
}

func (v Value) PointVal() (p PointValue, ok bool) {
	p, ok = v.v.(PointValue)
	return
}

func (v Value) MapVal() (m map[string]Value, ok bool) {
	m, ok = v.v.(map[string]Value)
	return
}

func (v Value) ListVal() (l []Value, ok bool) {
	l, ok = v.v.([]Value)
	return
}

// Int64 reads any integer kind narrower than 128 bits as an int64. Used by
// code paths (LIMIT/OFFSET, series bounds) that only need machine-word
// integers and have already range-checked.
func (v Value) Int64() (int64, bool) {
	switch n := v.v.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case *big.Int:
		if n.IsInt64() {
			return n.Int64(), true
		}
	}
	return 0, false
}

// BigInt exposes the same widened-integer conversion asBigInt uses
// internally, for callers (storage backends serializing a full-width I128
// or U128) that need the exact magnitude rather than Int64's truncated one.
func (v Value) BigInt() (*big.Int, bool) { return v.asBigInt() }

// asBigInt converts any integer Value to a big.Int for widened arithmetic.
// Returns ok=false for non-integer kinds.
func (v Value) asBigInt() (*big.Int, bool) {
	switch n := v.v.(type) {
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case *big.Int:
		return new(big.Int).Set(n), true
	}
	return nil, false
}

// fromBigInt builds a Value of the given integer Kind from a big.Int that is
// known to already fit (callers must have range-checked via fitsIn).
func fromBigInt(k Kind, n *big.Int) Value {
	switch k {
	case I8:
		return NewI8(int8(n.Int64()))
	case I16:
		return NewI16(int16(n.Int64()))
	case I32:
		return NewI32(int32(n.Int64()))
	case I64:
		return NewI64(n.Int64())
	case I128:
		return NewI128(n)
	case U8:
		return NewU8(uint8(n.Uint64()))
	case U16:
		return NewU16(uint16(n.Uint64()))
	case U32:
		return NewU32(uint32(n.Uint64()))
	case U64:
		return NewU64(n.Uint64())
	case U128:
		return NewU128(n)
	default:
		panic(fmt.Sprintf("value: fromBigInt called with non-integer kind %v", k))
	}
}

// AsFloat64 widens any numeric Value (except Decimal) to float64.
func (v Value) AsFloat64() (float64, bool) {
	switch n := v.v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if bi, ok := v.asBigInt(); ok {
		f := new(big.Float).SetInt(bi)
		r, _ := f.Float64()
		return r, true
	}
	return 0, false
}

func (v Value) String() string {
	switch v.kind {
	case Null:
		return "NULL"
	case Bool:
		b, _ := v.Bool()
		return fmt.Sprintf("%t", b)
	case Str:
		s, _ := v.Str()
		return s
	case Bytea:
		b, _ := v.Bytea()
		return fmt.Sprintf("%x", b)
	case Inet:
		ip, _ := v.Inet()
		return ip.String()
	case Date:
		d, _ := v.DateVal()
		return d.String()
	case Time:
		t, _ := v.TimeVal()
		return t.String()
	case Timestamp:
		t, _ := v.TimestampVal()
		return t.String()
	case IntervalKind:
		i, _ := v.Interval()
		return i.String()
	case Uuid:
		u, _ := v.UUID()
		return u.String()
	case Point:
		p, _ := v.PointVal()
		return fmt.Sprintf("POINT(%g %g)", p.X, p.Y)
	case DecimalKind:
		d, _ := v.Decimal()
		return d.String()
	case F32:
		f, _ := v.v.(float32)
		return fmt.Sprintf("%g", f)
	case F64:
		f, _ := v.v.(float64)
		return fmt.Sprintf("%g", f)
	case Map, List:
		return fmt.Sprintf("%v", v.v)
	default:
		if bi, ok := v.asBigInt(); ok {
			return bi.String()
		}
		return fmt.Sprintf("%v", v.v)
	}
}
