package mysqlstore

import (
	"encoding/json"
	"math/big"
	"net"

	"github.com/google/uuid"

	"gluedb/errs"
	"gluedb/value"
)

func parseInet(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, errs.New(errs.KindStorageIO, "decode stored inet %q", s)
	}
	return ip, nil
}

// wireValue is value.Value's JSON-on-the-wire shape. Only the field(s)
// relevant to Kind are populated; everything else is the JSON zero value and
// omitted on encode.
type wireValue struct {
	Kind  value.Kind    `json:"k"`
	Bool  *bool         `json:"b,omitempty"`
	Int   *big.Int      `json:"i,omitempty"`
	Float *float64      `json:"f,omitempty"`
	Str   *string       `json:"s,omitempty"`
	Bytes []byte        `json:"by,omitempty"`
	Dec   *wireDecimal  `json:"dec,omitempty"`
	Date  *wireDate     `json:"d,omitempty"`
	Time  *wireTime     `json:"t,omitempty"`
	Ts    *wireTs       `json:"ts,omitempty"`
	Ival  *wireInterval `json:"iv,omitempty"`
	Point *wirePoint    `json:"pt,omitempty"`
	Map   map[string]wireValue `json:"m,omitempty"`
	List  []wireValue   `json:"l,omitempty"`
}

type wireDecimal struct {
	Mantissa *big.Int `json:"m"`
	Scale    int32    `json:"s"`
}

type wireDate struct{ Year int32; Month, Day int8 }
type wireTime struct{ Hour, Min, Sec int8; Nanos int32 }
type wireTs struct {
	Date wireDate
	Time wireTime
}
type wireInterval struct {
	Month bool
	N     int64
}
type wirePoint struct{ X, Y float64 }

func toWire(v value.Value) wireValue {
	w := wireValue{Kind: v.Kind()}
	switch v.Kind() {
	case value.Null:
	case value.Bool:
		b, _ := v.Bool()
		w.Bool = &b
	case value.I8, value.I16, value.I32, value.I64, value.I128,
		value.U8, value.U16, value.U32, value.U64, value.U128:
		bi, _ := v.BigInt()
		w.Int = bi
	case value.F32:
		f, _ := v.AsFloat64()
		w.Float = &f
	case value.F64:
		f, _ := v.AsFloat64()
		w.Float = &f
	case value.DecimalKind:
		d, _ := v.Decimal()
		w.Dec = &wireDecimal{Mantissa: d.Mantissa, Scale: d.Scale}
	case value.Str:
		s, _ := v.Str()
		w.Str = &s
	case value.Bytea:
		b, _ := v.Bytea()
		w.Bytes = b
	case value.Inet:
		ip, _ := v.Inet()
		s := ip.String()
		w.Str = &s
	case value.Date:
		d, _ := v.DateVal()
		w.Date = &wireDate{Year: d.Year, Month: d.Month, Day: d.Day}
	case value.Time:
		t, _ := v.TimeVal()
		w.Time = &wireTime{Hour: t.Hour, Min: t.Min, Sec: t.Sec, Nanos: t.Nanos}
	case value.Timestamp:
		ts, _ := v.TimestampVal()
		w.Ts = &wireTs{
			Date: wireDate{Year: ts.Date.Year, Month: ts.Date.Month, Day: ts.Date.Day},
			Time: wireTime{Hour: ts.Time.Hour, Min: ts.Time.Min, Sec: ts.Time.Sec, Nanos: ts.Time.Nanos},
		}
	case value.IntervalKind:
		iv, _ := v.Interval()
		if iv.Unit == value.IntervalMonthUnit {
			w.Ival = &wireInterval{Month: true, N: int64(iv.Months)}
		} else {
			w.Ival = &wireInterval{Month: false, N: iv.Micros}
		}
	case value.Uuid:
		u, _ := v.UUID()
		s := u.String()
		w.Str = &s
	case value.Point:
		p, _ := v.PointVal()
		w.Point = &wirePoint{X: p.X, Y: p.Y}
	case value.Map:
		m, _ := v.MapVal()
		w.Map = make(map[string]wireValue, len(m))
		for k, mv := range m {
			w.Map[k] = toWire(mv)
		}
	case value.List:
		l, _ := v.ListVal()
		w.List = make([]wireValue, len(l))
		for i, lv := range l {
			w.List[i] = toWire(lv)
		}
	}
	return w
}

func fromWire(w wireValue) (value.Value, error) {
	switch w.Kind {
	case value.Null:
		return value.NewNull(), nil
	case value.Bool:
		return value.NewBool(*w.Bool), nil
	case value.I8:
		return value.NewI8(int8(w.Int.Int64())), nil
	case value.I16:
		return value.NewI16(int16(w.Int.Int64())), nil
	case value.I32:
		return value.NewI32(int32(w.Int.Int64())), nil
	case value.I64:
		return value.NewI64(w.Int.Int64()), nil
	case value.I128:
		return value.NewI128(w.Int), nil
	case value.U8:
		return value.NewU8(uint8(w.Int.Uint64())), nil
	case value.U16:
		return value.NewU16(uint16(w.Int.Uint64())), nil
	case value.U32:
		return value.NewU32(uint32(w.Int.Uint64())), nil
	case value.U64:
		return value.NewU64(w.Int.Uint64()), nil
	case value.U128:
		return value.NewU128(w.Int), nil
	case value.F32:
		return value.NewF32(float32(*w.Float)), nil
	case value.F64:
		return value.NewF64(*w.Float), nil
	case value.DecimalKind:
		d, err := value.NewDecimalFromParts(w.Dec.Mantissa, w.Dec.Scale)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewDecimal(d), nil
	case value.Str:
		return value.NewStr(*w.Str), nil
	case value.Bytea:
		return value.NewBytea(w.Bytes), nil
	case value.Inet:
		ip, err := parseInet(*w.Str)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInet(ip), nil
	case value.Date:
		return value.NewDate(value.CivilDate{Year: w.Date.Year, Month: w.Date.Month, Day: w.Date.Day}), nil
	case value.Time:
		return value.NewTime(value.CivilTime{Hour: w.Time.Hour, Min: w.Time.Min, Sec: w.Time.Sec, Nanos: w.Time.Nanos}), nil
	case value.Timestamp:
		return value.NewTimestamp(value.CivilTimestamp{
			Date: value.CivilDate{Year: w.Ts.Date.Year, Month: w.Ts.Date.Month, Day: w.Ts.Date.Day},
			Time: value.CivilTime{Hour: w.Ts.Time.Hour, Min: w.Ts.Time.Min, Sec: w.Ts.Time.Sec, Nanos: w.Ts.Time.Nanos},
		}), nil
	case value.IntervalKind:
		if w.Ival.Month {
			return value.NewInterval(value.Months(int32(w.Ival.N))), nil
		}
		return value.NewInterval(value.Microseconds(w.Ival.N)), nil
	case value.Uuid:
		u, err := uuid.Parse(*w.Str)
		if err != nil {
			return value.Value{}, errs.Wrap(errs.KindStorageIO, err, "decode stored uuid")
		}
		return value.NewUUID(u), nil
	case value.Point:
		return value.NewPoint(w.Point.X, w.Point.Y), nil
	case value.Map:
		m := make(map[string]value.Value, len(w.Map))
		for k, wv := range w.Map {
			dv, err := fromWire(wv)
			if err != nil {
				return value.Value{}, err
			}
			m[k] = dv
		}
		return value.NewMap(m), nil
	case value.List:
		l := make([]value.Value, len(w.List))
		for i, wv := range w.List {
			dv, err := fromWire(wv)
			if err != nil {
				return value.Value{}, err
			}
			l[i] = dv
		}
		return value.NewList(l), nil
	default:
		return value.Value{}, errs.New(errs.KindStorageIO, "unknown stored value kind %d", w.Kind)
	}
}

// encodeRow serializes a row's values to the JSON document stored in the
// data table's row_values column.
func encodeRow(vs []value.Value) ([]byte, error) {
	wires := make([]wireValue, len(vs))
	for i, v := range vs {
		wires[i] = toWire(v)
	}
	return json.Marshal(wires)
}

func decodeRow(data []byte) ([]value.Value, error) {
	var wires []wireValue
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, errs.Wrap(errs.KindStorageIO, err, "decode stored row")
	}
	vs := make([]value.Value, len(wires))
	for i, w := range wires {
		v, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}
