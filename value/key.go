package value

import (
	"encoding/binary"
	"math"
	"math/big"
)

// key tag bytes, ordered so Null sorts before every other kind and the
// remaining tags group numerics together ahead of text/binary/temporal.
const (
	tagNull byte = iota
	tagBool
	tagNumeric
	tagStr
	tagBytea
	tagDate
	tagTime
	tagTimestamp
	tagInterval
	tagUuid
	tagOther
)

// EncodeKey produces a byte string such that bytes.Compare(EncodeKey(a),
// EncodeKey(b)) agrees with Compare(a, b) for any two comparable values.
// Used by storage backends and in-memory indexes that need a sortable,
// fixed-format row key.
func EncodeKey(v Value) []byte {
	switch v.Kind() {
	case Null:
		return []byte{tagNull}
	case Bool:
		b, _ := v.Bool()
		if b {
			return []byte{tagBool, 1}
		}
		return []byte{tagBool, 0}
	case Str:
		s, _ := v.Str()
		return append([]byte{tagStr}, []byte(s)...)
	case Bytea:
		b, _ := v.Bytea()
		return append([]byte{tagBytea}, b...)
	case Date:
		d, _ := v.DateVal()
		buf := make([]byte, 1+4+1+1)
		buf[0] = tagDate
		binary.BigEndian.PutUint32(buf[1:5], uint32(d.Year)^0x80000000)
		buf[5] = byte(d.Month)
		buf[6] = byte(d.Day)
		return buf
	case Time:
		t, _ := v.TimeVal()
		buf := make([]byte, 1+1+1+1+4)
		buf[0] = tagTime
		buf[1] = byte(t.Hour)
		buf[2] = byte(t.Min)
		buf[3] = byte(t.Sec)
		binary.BigEndian.PutUint32(buf[4:8], uint32(t.Nanos))
		return buf
	case Timestamp:
		t, _ := v.TimestampVal()
		out := append([]byte{tagTimestamp}, EncodeKey(NewDate(t.Date))[1:]...)
		return append(out, EncodeKey(NewTime(t.Time))[1:]...)
	case IntervalKind:
		i, _ := v.Interval()
		buf := make([]byte, 1+1+8)
		buf[0] = tagInterval
		if i.Unit == IntervalMonthUnit {
			buf[1] = 1
			binary.BigEndian.PutUint64(buf[2:], uint64(int64(i.Months))^0x8000000000000000)
		} else {
			buf[1] = 0
			binary.BigEndian.PutUint64(buf[2:], uint64(i.Micros)^0x8000000000000000)
		}
		return buf
	case Uuid:
		u, _ := v.UUID()
		return append([]byte{tagUuid}, u[:]...)
	default:
		if v.Kind().IsNumeric() {
			return encodeNumericKey(v)
		}
		return []byte{tagOther}
	}
}

// encodeNumericKey maps every numeric kind onto a common sortable
// representation: a sign byte followed by a fixed-width big-endian
// magnitude, wide enough to hold a 128-bit integer or a decimal mantissa.
func encodeNumericKey(v Value) []byte {
	var mag *big.Int
	var neg bool
	switch v.Kind() {
	case F32:
		f, _ := v.v.(float32)
		return encodeFloatKey(float64(f))
	case F64:
		f, _ := v.v.(float64)
		return encodeFloatKey(f)
	case DecimalKind:
		d, _ := v.Decimal()
		mag = new(big.Int).Abs(d.Mantissa)
		neg = d.Mantissa.Sign() < 0
		scaleBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(scaleBuf, uint32(d.Scale))
		out := []byte{tagNumeric, signByte(neg)}
		out = append(out, padBigInt(mag, 24)...)
		return append(out, scaleBuf...)
	default:
		bi, _ := v.asBigInt()
		mag = new(big.Int).Abs(bi)
		neg = bi.Sign() < 0
	}
	out := []byte{tagNumeric, signByte(neg)}
	return append(out, padBigInt(mag, 24)...)
}

func signByte(neg bool) byte {
	if neg {
		return 0
	}
	return 1
}

func padBigInt(n *big.Int, width int) []byte {
	b := n.Bytes()
	if len(b) >= width {
		return b[len(b)-width:]
	}
	buf := make([]byte, width)
	copy(buf[width-len(b):], b)
	return buf
}

// EncodeCompositeKey concatenates each value's key encoding with a length
// prefix, so two tuples get the same key exactly when their components'
// EncodeKey results are equal in order. Each prefix precedes its component,
// so byte order compares encoded lengths first and does not follow
// component-by-component order.
func EncodeCompositeKey(vs []Value) []byte {
	var out []byte
	for _, v := range vs {
		k := EncodeKey(v)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(k)))
		out = append(out, lenBuf[:]...)
		out = append(out, k...)
	}
	return out
}

func encodeFloatKey(f float64) []byte {
	bits := math.Float64bits(f)
	if f >= 0 {
		bits ^= 0x8000000000000000
	} else {
		bits = ^bits
	}
	buf := make([]byte, 9)
	buf[0] = tagNumeric
	binary.BigEndian.PutUint64(buf[1:], bits)
	return buf
}
