package cel

import (
	"fmt"
	"time"

	"github.com/cwbudde/go-cel/internal/celtypes"
)

// Constructors for CEL values, for use in bindings and extension
// functions.

// Bool returns a CEL bool.
func Bool(b bool) Value {
	return celtypes.Bool(b)
}

// Int returns a CEL int.
func Int(i int64) Value {
	return &celtypes.IntVal{Value: i}
}

// Uint returns a CEL uint.
func Uint(u uint64) Value {
	return &celtypes.UintVal{Value: u}
}

// Double returns a CEL double.
func Double(d float64) Value {
	return &celtypes.DoubleVal{Value: d}
}

// String returns a CEL string.
func String(s string) Value {
	return &celtypes.StringVal{Value: s}
}

// Bytes returns a CEL bytes value over a copy of b.
func Bytes(b []byte) Value {
	return &celtypes.BytesVal{Value: append([]byte(nil), b...)}
}

// Null returns the CEL null value.
func Null() Value {
	return celtypes.Null
}

// Timestamp returns a CEL timestamp, range-checked.
func Timestamp(t time.Time) (Value, error) {
	ts, err := celtypes.NewTimestamp(t)
	if err != nil {
		return nil, err
	}
	return ts, nil
}

// Duration returns a CEL duration, range-checked.
func Duration(d time.Duration) (Value, error) {
	dur, err := celtypes.NewDuration(int64(d/time.Second), int64(d%time.Second))
	if err != nil {
		return nil, err
	}
	return dur, nil
}

// List returns a CEL list over the given elements.
func List(elems ...Value) Value {
	return celtypes.NewList(elems)
}

// ErrorValue builds an evaluation error for extension functions to return.
func ErrorValue(format string, args ...any) Value {
	return celtypes.NewError(celtypes.ErrFunctionError, format, args...)
}

// NativeToValue converts a Go value into a CEL value. Value instances pass
// through unchanged; nil becomes null. Supported native kinds mirror the
// JSON adapter plus time.Time, time.Duration, signed/unsigned integers and
// byte slices.
func NativeToValue(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return celtypes.Null, nil
	case Value:
		return v, nil
	case bool:
		return celtypes.Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return Uint(uint64(v)), nil
	case uint32:
		return Uint(uint64(v)), nil
	case uint64:
		return Uint(v), nil
	case float32:
		return Double(float64(v)), nil
	case float64:
		return Double(v), nil
	case string:
		return String(v), nil
	case []byte:
		return Bytes(v), nil
	case time.Time:
		return Timestamp(v)
	case time.Duration:
		return Duration(v)
	case []any:
		elems := make([]Value, len(v))
		for i, item := range v {
			conv, err := NativeToValue(item)
			if err != nil {
				return nil, err
			}
			elems[i] = conv
		}
		return celtypes.NewList(elems), nil
	case map[string]any:
		pairs := make([]Value, 0, len(v)*2)
		for key, item := range v {
			conv, err := NativeToValue(item)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, String(key), conv)
		}
		m, merr := celtypes.NewMap(pairs)
		if merr != nil {
			return nil, merr
		}
		return m, nil
	}
	return nil, fmt.Errorf("no CEL representation for %T", raw)
}
