package celtypes

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Type conversion functions. Out-of-range numeric conversions and malformed
// strings report errors; nothing converts implicitly.

// doubleExactMax is the smallest power of two not representable as int64.
const doubleExactMax = float64(math.MaxInt64)

// ToInt converts to int. Doubles truncate toward zero; NaN, infinities and
// out-of-range magnitudes are range errors.
func ToInt(v Val) Val {
	switch o := v.(type) {
	case *EvalError:
		return o
	case *IntVal:
		return o
	case *UintVal:
		if o.Value > math.MaxInt64 {
			return NewError(ErrRange, "uint value %d exceeds int range", o.Value)
		}
		return &IntVal{Value: int64(o.Value)}
	case *DoubleVal:
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			return NewError(ErrRange, "cannot convert %s to int", o)
		}
		t := math.Trunc(o.Value)
		if t >= doubleExactMax || t < float64(math.MinInt64) {
			return NewError(ErrRange, "double value %s exceeds int range", o)
		}
		return &IntVal{Value: int64(t)}
	case *StringVal:
		i, err := strconv.ParseInt(o.Value, 10, 64)
		if err != nil {
			return NewError(ErrInvalidArgument, "cannot convert %q to int", o.Value)
		}
		return &IntVal{Value: i}
	case *TimestampVal:
		return &IntVal{Value: o.Time.Unix()}
	case *DurationVal:
		return &IntVal{Value: o.TotalSeconds()}
	}
	return NoSuchUnaryOverload("int", v)
}

// ToUint converts to uint. Negative values are range errors.
func ToUint(v Val) Val {
	switch o := v.(type) {
	case *EvalError:
		return o
	case *UintVal:
		return o
	case *IntVal:
		if o.Value < 0 {
			return NewError(ErrRange, "negative value %d has no uint form", o.Value)
		}
		return &UintVal{Value: uint64(o.Value)}
	case *DoubleVal:
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			return NewError(ErrRange, "cannot convert %s to uint", o)
		}
		t := math.Trunc(o.Value)
		if t < 0 || t >= float64(math.MaxUint64) {
			return NewError(ErrRange, "double value %s exceeds uint range", o)
		}
		return &UintVal{Value: uint64(t)}
	case *StringVal:
		u, err := strconv.ParseUint(o.Value, 10, 64)
		if err != nil {
			return NewError(ErrInvalidArgument, "cannot convert %q to uint", o.Value)
		}
		return &UintVal{Value: u}
	}
	return NoSuchUnaryOverload("uint", v)
}

// ToDouble converts to double.
func ToDouble(v Val) Val {
	switch o := v.(type) {
	case *EvalError:
		return o
	case *DoubleVal:
		return o
	case *IntVal:
		return &DoubleVal{Value: float64(o.Value)}
	case *UintVal:
		return &DoubleVal{Value: float64(o.Value)}
	case *StringVal:
		d, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			return NewError(ErrInvalidArgument, "cannot convert %q to double", o.Value)
		}
		return &DoubleVal{Value: d}
	}
	return NoSuchUnaryOverload("double", v)
}

// ToBool converts to bool. Only the canonical string spellings convert.
func ToBool(v Val) Val {
	switch o := v.(type) {
	case *EvalError:
		return o
	case *BoolVal:
		return o
	case *StringVal:
		switch strings.ToLower(o.Value) {
		case "true", "1":
			return True
		case "false", "0":
			return False
		}
		return NewError(ErrInvalidArgument, "cannot convert %q to bool", o.Value)
	}
	return NoSuchUnaryOverload("bool", v)
}

// ToString converts to string. Bytes must hold valid UTF-8.
func ToString(v Val) Val {
	switch o := v.(type) {
	case *EvalError:
		return o
	case *StringVal:
		return o
	case *BytesVal:
		if !utf8.Valid(o.Value) {
			return NewError(ErrInvalidArgument, "bytes are not valid UTF-8")
		}
		return &StringVal{Value: string(o.Value)}
	case *IntVal, *UintVal, *DoubleVal, *BoolVal, *DurationVal, *TimestampVal:
		return &StringVal{Value: o.String()}
	}
	return NoSuchUnaryOverload("string", v)
}

// ToBytes converts to bytes via UTF-8 encoding.
func ToBytes(v Val) Val {
	switch o := v.(type) {
	case *EvalError:
		return o
	case *BytesVal:
		return o
	case *StringVal:
		return &BytesVal{Value: []byte(o.Value)}
	}
	return NoSuchUnaryOverload("bytes", v)
}

// ToDuration converts to duration, parsing strings against the duration
// grammar.
func ToDuration(v Val) Val {
	switch o := v.(type) {
	case *EvalError:
		return o
	case *DurationVal:
		return o
	case *StringVal:
		d, err := ParseDuration(o.Value)
		if err != nil {
			return err
		}
		return d
	case *IntVal:
		d, err := NewDuration(o.Value, 0)
		if err != nil {
			return err
		}
		return d
	}
	return NoSuchUnaryOverload("duration", v)
}

// ToTimestamp converts to timestamp, parsing strings as RFC 3339. Ints are
// epoch seconds.
func ToTimestamp(v Val) Val {
	switch o := v.(type) {
	case *EvalError:
		return o
	case *TimestampVal:
		return o
	case *StringVal:
		ts, err := ParseTimestamp(o.Value)
		if err != nil {
			return err
		}
		return ts
	case *IntVal:
		ts, err := NewTimestamp(timeFromUnix(o.Value))
		if err != nil {
			return err
		}
		return ts
	}
	return NoSuchUnaryOverload("timestamp", v)
}
