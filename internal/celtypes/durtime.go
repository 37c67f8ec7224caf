package celtypes

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxDurationSeconds bounds durations to ±10,000 years, matching the
// protobuf Duration range.
const MaxDurationSeconds int64 = 315576000000

const nanosPerSecond = int64(time.Second)

var unixEpoch = time.Unix(0, 0).UTC()

// Timestamps must stay within the protobuf Timestamp range.
var (
	minTimestamp = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxTimestamp = time.Date(9999, time.December, 31, 23, 59, 59, 999999999, time.UTC)
)

// DurationVal is a span of time with nanosecond precision. Seconds and
// Nanos always share a sign, and |Seconds| never exceeds
// MaxDurationSeconds.
type DurationVal struct {
	Seconds int64
	Nanos   int32
}

// NewDuration creates a normalized, range-checked duration.
func NewDuration(seconds int64, nanos int64) (*DurationVal, *EvalError) {
	seconds += nanos / nanosPerSecond
	nanos %= nanosPerSecond
	// Normalize mixed signs toward the seconds component.
	if seconds > 0 && nanos < 0 {
		seconds--
		nanos += nanosPerSecond
	} else if seconds < 0 && nanos > 0 {
		seconds++
		nanos -= nanosPerSecond
	}
	if seconds > MaxDurationSeconds || seconds < -MaxDurationSeconds {
		return nil, NewError(ErrRange, "duration exceeds ±%d seconds", MaxDurationSeconds)
	}
	return &DurationVal{Seconds: seconds, Nanos: int32(nanos)}, nil
}

// Kind returns KindDuration.
func (v *DurationVal) Kind() Kind {
	return KindDuration
}

// String returns the canonical seconds form, e.g. "9000s" or "-0.5s".
func (v *DurationVal) String() string {
	if v.Nanos == 0 {
		return strconv.FormatInt(v.Seconds, 10) + "s"
	}
	nanos := v.Nanos
	secs := v.Seconds
	sign := ""
	if secs < 0 || nanos < 0 {
		sign = "-"
		secs = -secs
		nanos = -nanos
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", nanos), "0")
	return fmt.Sprintf("%s%d.%ss", sign, secs, frac)
}

// TotalSeconds returns the duration in whole seconds, truncated toward zero.
func (v *DurationVal) TotalSeconds() int64 {
	return v.Seconds
}

// durationUnits maps unit suffixes to their size in nanoseconds.
var durationUnits = []struct {
	suffix string
	nanos  int64
}{
	// Longer suffixes first so "ms" wins over "m" and "us" over "s".
	{"ns", 1},
	{"us", int64(time.Microsecond)},
	{"µs", int64(time.Microsecond)},
	{"ms", int64(time.Millisecond)},
	{"s", int64(time.Second)},
	{"m", int64(time.Minute)},
	{"h", int64(time.Hour)},
}

// ParseDuration parses the grammar [-+]?(\d+(\.\d+)?(ns|us|µs|ms|s|m|h))+
// into a range-checked duration value.
func ParseDuration(s string) (*DurationVal, *EvalError) {
	input := s
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if s == "" {
		return nil, NewError(ErrInvalidArgument, "invalid duration %q", input)
	}

	var seconds, nanos int64
	for len(s) > 0 {
		digits := 0
		for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
			digits++
		}
		if digits == 0 {
			return nil, NewError(ErrInvalidArgument, "invalid duration %q", input)
		}
		whole, err := strconv.ParseUint(s[:digits], 10, 63)
		if err != nil {
			return nil, NewError(ErrRange, "duration component out of range in %q", input)
		}
		s = s[digits:]

		frac := 0.0
		if strings.HasPrefix(s, ".") {
			s = s[1:]
			fracDigits := 0
			for fracDigits < len(s) && s[fracDigits] >= '0' && s[fracDigits] <= '9' {
				fracDigits++
			}
			if fracDigits == 0 {
				return nil, NewError(ErrInvalidArgument, "invalid duration %q", input)
			}
			frac, _ = strconv.ParseFloat("0."+s[:fracDigits], 64)
			s = s[fracDigits:]
		}

		unitNanos := int64(0)
		for _, u := range durationUnits {
			if strings.HasPrefix(s, u.suffix) {
				unitNanos = u.nanos
				s = s[len(u.suffix):]
				break
			}
		}
		if unitNanos == 0 {
			return nil, NewError(ErrInvalidArgument, "missing or unknown unit in duration %q", input)
		}

		if unitNanos >= nanosPerSecond {
			unitSeconds := unitNanos / nanosPerSecond
			sec, ok := mulInt64(int64(whole), unitSeconds)
			if !ok {
				return nil, NewError(ErrRange, "duration %q out of range", input)
			}
			seconds, ok = addInt64(seconds, sec)
			if !ok {
				return nil, NewError(ErrRange, "duration %q out of range", input)
			}
		} else {
			ns, ok := mulInt64(int64(whole), unitNanos)
			if !ok {
				return nil, NewError(ErrRange, "duration %q out of range", input)
			}
			nanos, ok = addInt64(nanos, ns)
			if !ok {
				return nil, NewError(ErrRange, "duration %q out of range", input)
			}
		}
		if frac > 0 {
			fracNanos := int64(math.Round(frac * float64(unitNanos)))
			var ok bool
			nanos, ok = addInt64(nanos, fracNanos)
			if !ok {
				return nil, NewError(ErrRange, "duration %q out of range", input)
			}
		}
	}

	if negative {
		seconds, nanos = -seconds, -nanos
	}
	d, rangeErr := NewDuration(seconds, nanos)
	if rangeErr != nil {
		return nil, rangeErr
	}
	return d, nil
}

// TimestampVal is an instant in UTC with nanosecond precision.
type TimestampVal struct {
	Time time.Time
}

// NewTimestamp creates a range-checked timestamp normalized to UTC.
func NewTimestamp(t time.Time) (*TimestampVal, *EvalError) {
	t = t.UTC()
	if t.Before(minTimestamp) || t.After(maxTimestamp) {
		return nil, NewError(ErrRange, "timestamp out of range [0001-01-01, 9999-12-31]")
	}
	return &TimestampVal{Time: t}, nil
}

// ParseTimestamp parses an RFC 3339 timestamp string.
func ParseTimestamp(s string) (*TimestampVal, *EvalError) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, NewError(ErrInvalidArgument, "invalid timestamp %q", s)
	}
	return NewTimestamp(t)
}

// Kind returns KindTimestamp.
func (v *TimestampVal) Kind() Kind {
	return KindTimestamp
}

// String returns the RFC 3339 form in UTC.
func (v *TimestampVal) String() string {
	return v.Time.Format(time.RFC3339Nano)
}

// ResolveTimezone interprets a timezone argument: an empty name means UTC,
// "±HH:MM" is a fixed offset, anything else is an IANA zone name.
func ResolveTimezone(name string) (*time.Location, *EvalError) {
	if name == "" || name == "UTC" {
		return time.UTC, nil
	}
	if len(name) == 6 && (name[0] == '+' || name[0] == '-') && name[3] == ':' {
		hours, herr := strconv.Atoi(name[1:3])
		mins, merr := strconv.Atoi(name[4:6])
		if herr == nil && merr == nil {
			offset := (hours*60 + mins) * 60
			if name[0] == '-' {
				offset = -offset
			}
			return time.FixedZone(name, offset), nil
		}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, NewError(ErrInvalidArgument, "unknown timezone %q", name)
	}
	return loc, nil
}

// In returns the timestamp's wall-clock time in the given zone.
func (v *TimestampVal) In(loc *time.Location) time.Time {
	return v.Time.In(loc)
}

// timeFromUnix builds a UTC time from epoch seconds.
func timeFromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
