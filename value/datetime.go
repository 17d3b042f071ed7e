package value

import (
	"fmt"
	"math"
	"time"

	"gluedb/errs"
)

// CivilDate is a calendar date with no time zone.
type CivilDate struct {
	Year  int32
	Month int8 // 1-12
	Day   int8 // 1-31
}

func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d CivilDate) toTime() time.Time {
	return time.Date(int(d.Year), time.Month(d.Month), int(d.Day), 0, 0, 0, 0, time.UTC)
}

func civilDateFromTime(t time.Time) (CivilDate, error) {
	y := t.Year()
	if y < math.MinInt32 || y > math.MaxInt32 {
		return CivilDate{}, errs.New(errs.KindDateOverflow, "year %d out of range", y)
	}
	return CivilDate{Year: int32(y), Month: int8(t.Month()), Day: int8(t.Day())}, nil
}

// AddMonths adds signed months, normalizing month overflow into the year
// (spec: "the result normalizes; month modulo 12 carries to year").
func (d CivilDate) AddMonths(months int32) (CivilDate, error) {
	t := d.toTime().AddDate(0, int(months), 0)
	return civilDateFromTime(t)
}

// AddDuration adds a microsecond-based offset, treating Date as midnight.
func (d CivilDate) AddDuration(micros int64) (CivilTimestamp, error) {
	t := d.toTime().Add(time.Duration(micros) * time.Microsecond)
	cd, err := civilDateFromTime(t)
	if err != nil {
		return CivilTimestamp{}, err
	}
	return CivilTimestamp{Date: cd, Time: civilTimeFromTime(t)}, nil
}

func (d CivilDate) Compare(o CivilDate) int {
	switch {
	case d.Year != o.Year:
		return cmpInt32(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt8(d.Month, o.Month)
	default:
		return cmpInt8(d.Day, o.Day)
	}
}

// CivilTime is a time of day with no time zone, nanosecond resolution.
type CivilTime struct {
	Hour  int8
	Min   int8
	Sec   int8
	Nanos int32
}

func (t CivilTime) String() string {
	if t.Nanos == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Min, t.Sec)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%09d", t.Hour, t.Min, t.Sec, t.Nanos)
}

func (t CivilTime) toDuration() time.Duration {
	return time.Duration(t.Hour)*time.Hour + time.Duration(t.Min)*time.Minute +
		time.Duration(t.Sec)*time.Second + time.Duration(t.Nanos)*time.Nanosecond
}

func civilTimeFromTime(t time.Time) CivilTime {
	return CivilTime{Hour: int8(t.Hour()), Min: int8(t.Minute()), Sec: int8(t.Second()), Nanos: int32(t.Nanosecond())}
}

// AddDuration adds a microsecond offset, wrapping within a single day (no
// month-interval is permitted against Time; callers must reject that case
// before calling, per AddYearOrMonthToTime).
func (t CivilTime) AddDuration(micros int64) CivilTime {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(t.toDuration() + time.Duration(micros)*time.Microsecond)
	// wrap into [0, 24h) so Time stays a time-of-day
	day := 24 * time.Hour
	d := base.Sub(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	d %= day
	if d < 0 {
		d += day
	}
	return civilTimeFromTime(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(d))
}

func (t CivilTime) Compare(o CivilTime) int {
	switch {
	case t.Hour != o.Hour:
		return cmpInt8(t.Hour, o.Hour)
	case t.Min != o.Min:
		return cmpInt8(t.Min, o.Min)
	case t.Sec != o.Sec:
		return cmpInt8(t.Sec, o.Sec)
	default:
		return cmpInt32(t.Nanos, o.Nanos)
	}
}

// CivilTimestamp is a civil date-time with no time zone.
type CivilTimestamp struct {
	Date CivilDate
	Time CivilTime
}

func (t CivilTimestamp) String() string {
	return t.Date.String() + " " + t.Time.String()
}

func (t CivilTimestamp) toTime() time.Time {
	d := t.Date
	return time.Date(int(d.Year), time.Month(d.Month), int(d.Day),
		int(t.Time.Hour), int(t.Time.Min), int(t.Time.Sec), int(t.Time.Nanos), time.UTC)
}

func civilTimestampFromTime(t time.Time) (CivilTimestamp, error) {
	cd, err := civilDateFromTime(t)
	if err != nil {
		return CivilTimestamp{}, err
	}
	return CivilTimestamp{Date: cd, Time: civilTimeFromTime(t)}, nil
}

func (t CivilTimestamp) AddMonths(months int32) (CivilTimestamp, error) {
	nt := t.toTime().AddDate(0, int(months), 0)
	return civilTimestampFromTime(nt)
}

func (t CivilTimestamp) AddDuration(micros int64) (CivilTimestamp, error) {
	nt := t.toTime().Add(time.Duration(micros) * time.Microsecond)
	return civilTimestampFromTime(nt)
}

func (t CivilTimestamp) Compare(o CivilTimestamp) int {
	if c := t.Date.Compare(o.Date); c != 0 {
		return c
	}
	return t.Time.Compare(o.Time)
}

func cmpInt32(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt8(a, b int8) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
