package celtypes

import (
	"math"
	"time"
)

// Checked int64/uint64 primitives. Every Int/Uint operator site goes
// through these; language-level wraparound is never relied on.

func addInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

func subInt64(a, b int64) (int64, bool) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, false
	}
	return a - b, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a == -1 && b == math.MinInt64 || b == -1 && a == math.MinInt64 {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

func negInt64(a int64) (int64, bool) {
	if a == math.MinInt64 {
		return 0, false
	}
	return -a, true
}

func addUint64(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

func subUint64(a, b uint64) (uint64, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

func mulUint64(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

// Add implements the "+" operator matrix.
func Add(lhs, rhs Val) Val {
	if e, ok := lhs.(*EvalError); ok {
		return e
	}
	if e, ok := rhs.(*EvalError); ok {
		return e
	}
	switch l := lhs.(type) {
	case *IntVal:
		if r, ok := rhs.(*IntVal); ok {
			sum, ok := addInt64(l.Value, r.Value)
			if !ok {
				return NewError(ErrOverflow, MsgOverflow)
			}
			return &IntVal{Value: sum}
		}
	case *UintVal:
		if r, ok := rhs.(*UintVal); ok {
			sum, ok := addUint64(l.Value, r.Value)
			if !ok {
				return NewError(ErrOverflow, MsgOverflow)
			}
			return &UintVal{Value: sum}
		}
	case *DoubleVal:
		if r, ok := rhs.(*DoubleVal); ok {
			return &DoubleVal{Value: l.Value + r.Value}
		}
	case *StringVal:
		if r, ok := rhs.(*StringVal); ok {
			return &StringVal{Value: l.Value + r.Value}
		}
	case *BytesVal:
		if r, ok := rhs.(*BytesVal); ok {
			joined := make([]byte, 0, len(l.Value)+len(r.Value))
			joined = append(joined, l.Value...)
			joined = append(joined, r.Value...)
			return &BytesVal{Value: joined}
		}
	case *ListVal:
		if r, ok := rhs.(*ListVal); ok {
			elems := make([]Val, 0, len(l.Elems)+len(r.Elems))
			elems = append(elems, l.Elems...)
			elems = append(elems, r.Elems...)
			return &ListVal{Elems: elems}
		}
	case *DurationVal:
		switch r := rhs.(type) {
		case *DurationVal:
			return durationAdd(l, r)
		case *TimestampVal:
			return timestampAddDuration(r, l)
		}
	case *TimestampVal:
		if r, ok := rhs.(*DurationVal); ok {
			return timestampAddDuration(l, r)
		}
	}
	return NoSuchOverload("+", lhs, rhs)
}

// Subtract implements the "-" operator matrix.
func Subtract(lhs, rhs Val) Val {
	if e, ok := lhs.(*EvalError); ok {
		return e
	}
	if e, ok := rhs.(*EvalError); ok {
		return e
	}
	switch l := lhs.(type) {
	case *IntVal:
		if r, ok := rhs.(*IntVal); ok {
			diff, ok := subInt64(l.Value, r.Value)
			if !ok {
				return NewError(ErrOverflow, MsgOverflow)
			}
			return &IntVal{Value: diff}
		}
	case *UintVal:
		if r, ok := rhs.(*UintVal); ok {
			diff, ok := subUint64(l.Value, r.Value)
			if !ok {
				return NewError(ErrOverflow, MsgOverflow)
			}
			return &UintVal{Value: diff}
		}
	case *DoubleVal:
		if r, ok := rhs.(*DoubleVal); ok {
			return &DoubleVal{Value: l.Value - r.Value}
		}
	case *DurationVal:
		if r, ok := rhs.(*DurationVal); ok {
			return durationSub(l, r)
		}
	case *TimestampVal:
		switch r := rhs.(type) {
		case *TimestampVal:
			return timestampDiff(l, r)
		case *DurationVal:
			neg := &DurationVal{Seconds: -r.Seconds, Nanos: -r.Nanos}
			return timestampAddDuration(l, neg)
		}
	}
	return NoSuchOverload("-", lhs, rhs)
}

// Multiply implements the "*" operator matrix.
func Multiply(lhs, rhs Val) Val {
	if e, ok := lhs.(*EvalError); ok {
		return e
	}
	if e, ok := rhs.(*EvalError); ok {
		return e
	}
	switch l := lhs.(type) {
	case *IntVal:
		if r, ok := rhs.(*IntVal); ok {
			prod, ok := mulInt64(l.Value, r.Value)
			if !ok {
				return NewError(ErrOverflow, MsgOverflow)
			}
			return &IntVal{Value: prod}
		}
	case *UintVal:
		if r, ok := rhs.(*UintVal); ok {
			prod, ok := mulUint64(l.Value, r.Value)
			if !ok {
				return NewError(ErrOverflow, MsgOverflow)
			}
			return &UintVal{Value: prod}
		}
	case *DoubleVal:
		if r, ok := rhs.(*DoubleVal); ok {
			return &DoubleVal{Value: l.Value * r.Value}
		}
	}
	return NoSuchOverload("*", lhs, rhs)
}

// Divide implements the "/" operator matrix. Integer division truncates
// toward zero and reports divide-by-zero; double division by zero yields
// ±Inf, never an error.
func Divide(lhs, rhs Val) Val {
	if e, ok := lhs.(*EvalError); ok {
		return e
	}
	if e, ok := rhs.(*EvalError); ok {
		return e
	}
	switch l := lhs.(type) {
	case *IntVal:
		if r, ok := rhs.(*IntVal); ok {
			if r.Value == 0 {
				return NewError(ErrDivideByZero, MsgDivideByZero)
			}
			if l.Value == math.MinInt64 && r.Value == -1 {
				return NewError(ErrOverflow, MsgOverflow)
			}
			return &IntVal{Value: l.Value / r.Value}
		}
	case *UintVal:
		if r, ok := rhs.(*UintVal); ok {
			if r.Value == 0 {
				return NewError(ErrDivideByZero, MsgDivideByZero)
			}
			return &UintVal{Value: l.Value / r.Value}
		}
	case *DoubleVal:
		if r, ok := rhs.(*DoubleVal); ok {
			return &DoubleVal{Value: l.Value / r.Value}
		}
	}
	return NoSuchOverload("/", lhs, rhs)
}

// Modulo implements the "%" operator matrix. The result's sign follows the
// dividend, preserving x/y*y + x%y == x; modulo is undefined on doubles.
func Modulo(lhs, rhs Val) Val {
	if e, ok := lhs.(*EvalError); ok {
		return e
	}
	if e, ok := rhs.(*EvalError); ok {
		return e
	}
	switch l := lhs.(type) {
	case *IntVal:
		if r, ok := rhs.(*IntVal); ok {
			if r.Value == 0 {
				return NewError(ErrDivideByZero, MsgModulusByZero)
			}
			if l.Value == math.MinInt64 && r.Value == -1 {
				return &IntVal{Value: 0}
			}
			return &IntVal{Value: l.Value % r.Value}
		}
	case *UintVal:
		if r, ok := rhs.(*UintVal); ok {
			if r.Value == 0 {
				return NewError(ErrDivideByZero, MsgModulusByZero)
			}
			return &UintVal{Value: l.Value % r.Value}
		}
	}
	return NoSuchOverload("%", lhs, rhs)
}

// Negate implements unary "-". Negation is forbidden on uint and bool.
func Negate(v Val) Val {
	switch o := v.(type) {
	case *EvalError:
		return o
	case *IntVal:
		neg, ok := negInt64(o.Value)
		if !ok {
			return NewError(ErrOverflow, MsgOverflow)
		}
		return &IntVal{Value: neg}
	case *DoubleVal:
		return &DoubleVal{Value: -o.Value}
	}
	return NoSuchUnaryOverload("-", v)
}

func durationAdd(l, r *DurationVal) Val {
	secs, ok := addInt64(l.Seconds, r.Seconds)
	if !ok {
		return NewError(ErrOverflow, MsgOverflow)
	}
	d, err := NewDuration(secs, int64(l.Nanos)+int64(r.Nanos))
	if err != nil {
		return err
	}
	return d
}

func durationSub(l, r *DurationVal) Val {
	secs, ok := subInt64(l.Seconds, r.Seconds)
	if !ok {
		return NewError(ErrOverflow, MsgOverflow)
	}
	d, err := NewDuration(secs, int64(l.Nanos)-int64(r.Nanos))
	if err != nil {
		return err
	}
	return d
}

func timestampAddDuration(t *TimestampVal, d *DurationVal) Val {
	// Shift via Unix seconds rather than time.Duration, whose nanosecond
	// range is narrower than a protobuf Duration.
	secs, ok := addInt64(t.Time.Unix(), d.Seconds)
	if !ok {
		return NewError(ErrRange, "timestamp out of range [0001-01-01, 9999-12-31]")
	}
	shifted := time.Unix(secs, int64(t.Time.Nanosecond())+int64(d.Nanos))
	ts, err := NewTimestamp(shifted)
	if err != nil {
		return err
	}
	return ts
}

func timestampDiff(l, r *TimestampVal) Val {
	secs, ok := subInt64(l.Time.Unix(), r.Time.Unix())
	if !ok {
		return NewError(ErrOverflow, MsgOverflow)
	}
	nanos := int64(l.Time.Nanosecond()) - int64(r.Time.Nanosecond())
	d, err := NewDuration(secs, nanos)
	if err != nil {
		return err
	}
	return d
}
