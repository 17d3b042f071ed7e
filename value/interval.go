package value

import (
	"fmt"
	"strconv"
	"strings"

	"gluedb/errs"
)

// IntervalUnit distinguishes the two disjoint interval families. A Value
// never mixes them: Interval is either month-based or microsecond-based.
type IntervalUnit uint8

const (
	IntervalMonthUnit IntervalUnit = iota
	IntervalMicroUnit
)

// Interval holds either a signed month count or a signed microsecond count,
// never both; Unit says which field is live.
type Interval struct {
	Unit   IntervalUnit
	Months int32
	Micros int64
}

func Months(n int32) Interval      { return Interval{Unit: IntervalMonthUnit, Months: n} }
func Microseconds(n int64) Interval { return Interval{Unit: IntervalMicroUnit, Micros: n} }

func (i Interval) String() string {
	if i.Unit == IntervalMonthUnit {
		y, m := i.Months/12, i.Months%12
		return fmt.Sprintf("INTERVAL '%d-%d' YEAR TO MONTH", y, m)
	}
	d := i.Micros / (24 * 3600 * 1_000_000)
	rem := i.Micros % (24 * 3600 * 1_000_000)
	return fmt.Sprintf("INTERVAL '%d %d' DAY TO SECOND (%d us)", d, rem/1_000_000, rem%1_000_000)
}

// Compare imposes a total order: any month-interval sorts strictly above
// any microsecond-interval (spec's documented tie-break), same-unit
// intervals compare by magnitude.
func (i Interval) Compare(o Interval) int {
	if i.Unit != o.Unit {
		if i.Unit == IntervalMonthUnit {
			return 1
		}
		return -1
	}
	if i.Unit == IntervalMonthUnit {
		return cmpInt64(int64(i.Months), int64(o.Months))
	}
	return cmpInt64(i.Micros, o.Micros)
}

func (i Interval) Equal(o Interval) bool { return i.Unit == o.Unit && i.Compare(o) == 0 }

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Add adds two intervals of the same unit; mixing units is an error.
func (i Interval) Add(o Interval) (Interval, error) {
	if i.Unit != o.Unit {
		return Interval{}, errs.New(errs.KindAddBetweenYearToMonthAndHourToSecond,
			"cannot add a year-to-month interval to an hour-to-second interval")
	}
	if i.Unit == IntervalMonthUnit {
		return Months(i.Months + o.Months), nil
	}
	return Microseconds(i.Micros + o.Micros), nil
}

func (i Interval) Sub(o Interval) (Interval, error) {
	if i.Unit != o.Unit {
		return Interval{}, errs.New(errs.KindSubBetweenYearToMonthAndHourToSecond,
			"cannot subtract an hour-to-second interval from a year-to-month interval")
	}
	if i.Unit == IntervalMonthUnit {
		return Months(i.Months - o.Months), nil
	}
	return Microseconds(i.Micros - o.Micros), nil
}

// MulScalar multiplies the interval's inner quantity by a scalar.
func (i Interval) MulScalar(factor float64) Interval {
	if i.Unit == IntervalMonthUnit {
		return Months(int32(float64(i.Months) * factor))
	}
	return Microseconds(int64(float64(i.Micros) * factor))
}

// leading/last field pairs accepted by interval literal parsing.
type intervalField string

const (
	fieldYear   intervalField = "YEAR"
	fieldMonth  intervalField = "MONTH"
	fieldDay    intervalField = "DAY"
	fieldHour   intervalField = "HOUR"
	fieldMinute intervalField = "MINUTE"
	fieldSecond intervalField = "SECOND"
)

var microsPerUnit = map[intervalField]int64{
	fieldDay:    24 * 3600 * 1_000_000,
	fieldHour:   3600 * 1_000_000,
	fieldMinute: 60 * 1_000_000,
	fieldSecond: 1_000_000,
}

// ParseInterval parses an interval literal's text against a leading/last
// field pair, per spec §4.1: (Year,Month), (Day,Hour|Minute|Second),
// (Hour,Minute|Second), (Minute,Second), and single-unit forms with decimal
// fractions. A leading '-' negates the whole literal.
func ParseInterval(text string, leading, last string) (Interval, error) {
	text = strings.TrimSpace(text)
	neg := false
	if strings.HasPrefix(text, "-") {
		neg = true
		text = strings.TrimSpace(text[1:])
	}

	lf := intervalField(strings.ToUpper(leading))
	tf := intervalField(strings.ToUpper(last))
	if tf == "" {
		tf = lf
	}

	switch {
	case lf == fieldYear && tf == fieldMonth:
		y, m, err := splitTwo(text, "-")
		if err != nil {
			return Interval{}, err
		}
		total := y*12 + m
		return applySign(Months(int32(total)), neg), nil
	case lf == fieldYear && tf == fieldYear:
		n, err := strconv.Atoi(text)
		if err != nil {
			return Interval{}, errs.Wrap(errs.KindImpossibleCast, err, "invalid YEAR interval %q", text)
		}
		return applySign(Months(int32(n*12)), neg), nil
	case lf == fieldMonth && tf == fieldMonth:
		n, err := strconv.Atoi(text)
		if err != nil {
			return Interval{}, errs.Wrap(errs.KindImpossibleCast, err, "invalid MONTH interval %q", text)
		}
		return applySign(Months(int32(n)), neg), nil
	case lf == fieldDay && (tf == fieldHour || tf == fieldMinute || tf == fieldSecond):
		return parseDayToSub(text, tf, neg)
	case lf == fieldHour && (tf == fieldMinute || tf == fieldSecond):
		return parseHourToSub(text, tf, neg)
	case lf == fieldMinute && tf == fieldSecond:
		m, s, err := splitTwo(text, ":")
		if err != nil {
			return Interval{}, err
		}
		micros := int64(m)*microsPerUnit[fieldMinute] + int64(s)*microsPerUnit[fieldSecond]
		return applySign(Microseconds(micros), neg), nil
	case tf == lf && (lf == fieldDay || lf == fieldHour || lf == fieldMinute || lf == fieldSecond):
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Interval{}, errs.Wrap(errs.KindImpossibleCast, err, "invalid %s interval %q", lf, text)
		}
		micros := int64(f * float64(microsPerUnit[lf]))
		return applySign(Microseconds(micros), neg), nil
	default:
		return Interval{}, errs.New(errs.KindUnsupportedRange, "unsupported interval range %s TO %s", leading, last)
	}
}

func applySign(i Interval, neg bool) Interval {
	if !neg {
		return i
	}
	if i.Unit == IntervalMonthUnit {
		i.Months = -i.Months
	} else {
		i.Micros = -i.Micros
	}
	return i
}

func splitTwo(text, sep string) (int, int, error) {
	parts := strings.SplitN(text, sep, 2)
	if len(parts) != 2 {
		return 0, 0, errs.New(errs.KindImpossibleCast, "expected %q-separated interval, got %q", sep, text)
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, errs.Wrap(errs.KindImpossibleCast, err, "invalid interval field %q", parts[0])
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, errs.Wrap(errs.KindImpossibleCast, err, "invalid interval field %q", parts[1])
	}
	return a, b, nil
}

func parseDayToSub(text string, last intervalField, neg bool) (Interval, error) {
	daysPart, rest, ok := strings.Cut(text, " ")
	if !ok {
		return Interval{}, errs.New(errs.KindImpossibleCast, "invalid DAY TO %s interval %q", last, text)
	}
	days, err := strconv.Atoi(strings.TrimSpace(daysPart))
	if err != nil {
		return Interval{}, errs.Wrap(errs.KindImpossibleCast, err, "invalid day count %q", daysPart)
	}
	micros := int64(days) * microsPerUnit[fieldDay]
	switch last {
	case fieldHour:
		h, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return Interval{}, errs.Wrap(errs.KindImpossibleCast, err, "invalid hour field %q", rest)
		}
		micros += int64(h) * microsPerUnit[fieldHour]
	case fieldMinute:
		h, m, err := splitTwo(rest, ":")
		if err != nil {
			return Interval{}, err
		}
		micros += int64(h)*microsPerUnit[fieldHour] + int64(m)*microsPerUnit[fieldMinute]
	case fieldSecond:
		sub, err := parseHourToSub(rest, fieldSecond, false)
		if err != nil {
			return Interval{}, err
		}
		micros += sub.Micros
	}
	return applySign(Microseconds(micros), neg), nil
}

func parseHourToSub(text string, last intervalField, neg bool) (Interval, error) {
	switch last {
	case fieldMinute:
		h, m, err := splitTwo(text, ":")
		if err != nil {
			return Interval{}, err
		}
		micros := int64(h)*microsPerUnit[fieldHour] + int64(m)*microsPerUnit[fieldMinute]
		return applySign(Microseconds(micros), neg), nil
	case fieldSecond:
		parts := strings.SplitN(text, ":", 3)
		if len(parts) != 3 {
			return Interval{}, errs.New(errs.KindImpossibleCast, "invalid HOUR TO SECOND interval %q", text)
		}
		h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return Interval{}, errs.Wrap(errs.KindImpossibleCast, err, "invalid hour field %q", parts[0])
		}
		m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return Interval{}, errs.Wrap(errs.KindImpossibleCast, err, "invalid minute field %q", parts[1])
		}
		s, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return Interval{}, errs.Wrap(errs.KindImpossibleCast, err, "invalid second field %q", parts[2])
		}
		micros := int64(h)*microsPerUnit[fieldHour] + int64(m)*microsPerUnit[fieldMinute] + int64(s*1_000_000)
		return applySign(Microseconds(micros), neg), nil
	default:
		return Interval{}, errs.New(errs.KindUnsupportedRange, "unsupported last field %s", last)
	}
}
