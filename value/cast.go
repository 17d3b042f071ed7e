package value

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"gluedb/errs"
)

var bigOne = big.NewInt(1)
var bigZero = big.NewInt(0)

func bigFromFloat(f float64) *big.Int {
	bf := new(big.Float).SetFloat64(f)
	n, _ := bf.Int(nil)
	return n
}

// Cast converts v to the target Kind, per the engine's documented
// (source, target) cast table. Null always casts to Null. Casting a value
// to its own Kind always succeeds and returns it unchanged.
func Cast(v Value, target Kind) (Value, error) {
	if v.IsNull() {
		return NewNull(), nil
	}
	if v.Kind() == target {
		return v, nil
	}

	switch target {
	case Bool:
		return castToBool(v)
	case Str:
		return NewStr(v.String()), nil
	case I8, I16, I32, I64, I128, U8, U16, U32, U64, U128:
		return castToInt(v, target)
	case F32:
		f, err := castToFloat64(v)
		if err != nil {
			return Value{}, err
		}
		return NewF32(float32(f)), nil
	case F64:
		f, err := castToFloat64(v)
		if err != nil {
			return Value{}, err
		}
		return NewF64(f), nil
	case DecimalKind:
		d, err := v.toDecimal()
		if err != nil {
			return Value{}, errs.Wrap(errs.KindImpossibleCast, err, "cannot cast %s to DECIMAL", v.Kind())
		}
		return NewDecimal(d), nil
	case Date:
		return castToDate(v)
	case Time:
		return castToTime(v)
	case Timestamp:
		return castToTimestamp(v)
	default:
		return Value{}, errs.New(errs.KindConversionErrorFromDataTypeAToB, "cannot cast %s to %s", v.Kind(), target)
	}
}

func castToBool(v Value) (Value, error) {
	switch v.Kind() {
	case Str:
		s, _ := v.Str()
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "TRUE":
			return NewBool(true), nil
		case "FALSE":
			return NewBool(false), nil
		default:
			return Value{}, errs.New(errs.KindImpossibleCast, "cannot cast %q to BOOLEAN", s)
		}
	case DecimalKind:
		d, _ := v.Decimal()
		if d.Mantissa.Sign() == 0 && d.Scale == 0 {
			return NewBool(false), nil
		}
		one, _ := ParseDecimal("1")
		zero, _ := ParseDecimal("0")
		switch {
		case d.Equal(one):
			return NewBool(true), nil
		case d.Equal(zero):
			return NewBool(false), nil
		default:
			return Value{}, errs.New(errs.KindImpossibleCast, "cannot cast decimal %s to BOOLEAN", d.String())
		}
	default:
		if bi, ok := v.asBigInt(); ok {
			switch {
			case bi.Sign() == 0:
				return NewBool(false), nil
			case bi.Cmp(bigOne) == 0:
				return NewBool(true), nil
			default:
				return Value{}, errs.New(errs.KindImpossibleCast, "cannot cast %s to BOOLEAN", v.String())
			}
		}
		return Value{}, errs.New(errs.KindImpossibleCast, "cannot cast %s to BOOLEAN", v.Kind())
	}
}

func castToInt(v Value, target Kind) (Value, error) {
	switch v.Kind() {
	case Bool:
		b, _ := v.Bool()
		if b {
			return fromBigInt(target, bigOne), nil
		}
		return fromBigInt(target, bigZero), nil
	case Str:
		s, _ := v.Str()
		n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
		if !ok {
			return Value{}, errs.New(errs.KindImpossibleCast, "cannot cast %q to %s", s, target)
		}
		if !fitsIn(n, target) {
			return Value{}, errs.New(errs.KindBinaryOperationOverflow, "%q overflows %s", s, target)
		}
		return fromBigInt(target, n), nil
	case F32, F64:
		f, _ := v.AsFloat64()
		n := bigFromFloat(f)
		if !fitsIn(n, target) {
			return Value{}, errs.New(errs.KindBinaryOperationOverflow, "%v overflows %s", f, target)
		}
		return fromBigInt(target, n), nil
	case DecimalKind:
		d, _ := v.Decimal()
		n := truncToInt(d)
		if !fitsIn(n, target) {
			return Value{}, errs.New(errs.KindBinaryOperationOverflow, "%s overflows %s", d.String(), target)
		}
		return fromBigInt(target, n), nil
	default:
		if bi, ok := v.asBigInt(); ok {
			if !fitsIn(bi, target) {
				return Value{}, errs.New(errs.KindBinaryOperationOverflow, "%s overflows %s", v.String(), target)
			}
			return fromBigInt(target, bi), nil
		}
		return Value{}, errs.New(errs.KindConversionErrorFromDataTypeAToB, "cannot cast %s to %s", v.Kind(), target)
	}
}

func castToFloat64(v Value) (float64, error) {
	switch v.Kind() {
	case Bool:
		b, _ := v.Bool()
		if b {
			return 1, nil
		}
		return 0, nil
	case Str:
		s, _ := v.Str()
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, errs.Wrap(errs.KindImpossibleCast, err, "cannot cast %q to FLOAT", s)
		}
		return f, nil
	case DecimalKind:
		d, _ := v.Decimal()
		return d.ToFloat64(), nil
	default:
		if f, ok := v.AsFloat64(); ok {
			return f, nil
		}
		return 0, errs.New(errs.KindConversionErrorFromDataTypeAToB, "cannot cast %s to FLOAT", v.Kind())
	}
}

func castToDate(v Value) (Value, error) {
	switch v.Kind() {
	case Str:
		s, _ := v.Str()
		t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
		if err != nil {
			return Value{}, errs.Wrap(errs.KindImpossibleCast, err, "cannot cast %q to DATE", s)
		}
		d, err := civilDateFromTime(t)
		if err != nil {
			return Value{}, err
		}
		return NewDate(d), nil
	case Timestamp:
		ts, _ := v.TimestampVal()
		return NewDate(ts.Date), nil
	default:
		return Value{}, errs.New(errs.KindConversionErrorFromDataTypeAToB, "cannot cast %s to DATE", v.Kind())
	}
}

func castToTime(v Value) (Value, error) {
	switch v.Kind() {
	case Str:
		s, _ := v.Str()
		t, err := time.Parse("15:04:05", strings.TrimSpace(s))
		if err != nil {
			t, err = time.Parse("15:04:05.999999999", strings.TrimSpace(s))
			if err != nil {
				return Value{}, errs.Wrap(errs.KindImpossibleCast, err, "cannot cast %q to TIME", s)
			}
		}
		return NewTime(civilTimeFromTime(t)), nil
	case Timestamp:
		ts, _ := v.TimestampVal()
		return NewTime(ts.Time), nil
	default:
		return Value{}, errs.New(errs.KindConversionErrorFromDataTypeAToB, "cannot cast %s to TIME", v.Kind())
	}
}

func castToTimestamp(v Value) (Value, error) {
	switch v.Kind() {
	case Str:
		s, _ := v.Str()
		layouts := []string{"2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}
		var lastErr error
		for _, layout := range layouts {
			t, err := time.Parse(layout, strings.TrimSpace(s))
			if err == nil {
				ts, cerr := civilTimestampFromTime(t)
				if cerr != nil {
					return Value{}, cerr
				}
				return NewTimestamp(ts), nil
			}
			lastErr = err
		}
		return Value{}, errs.Wrap(errs.KindImpossibleCast, lastErr, "cannot cast %q to TIMESTAMP", s)
	case Date:
		d, _ := v.DateVal()
		return NewTimestamp(CivilTimestamp{Date: d}), nil
	default:
		return Value{}, errs.New(errs.KindConversionErrorFromDataTypeAToB, "cannot cast %s to TIMESTAMP", v.Kind())
	}
}
