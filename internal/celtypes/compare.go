package celtypes

import "bytes"

// Equal implements "==". Equality is total over non-error values: values of
// distinct types compare unequal rather than erroring. Lists and maps
// compare elementwise and keywise, absorbing a nested error whenever the
// remaining comparison already determines the result.
func Equal(lhs, rhs Val) Val {
	if e, ok := lhs.(*EvalError); ok {
		return e
	}
	if e, ok := rhs.(*EvalError); ok {
		return e
	}
	return Bool(equalValues(lhs, rhs))
}

// NotEqual implements "!=".
func NotEqual(lhs, rhs Val) Val {
	eq := Equal(lhs, rhs)
	if b, ok := eq.(*BoolVal); ok {
		return Bool(!b.Value)
	}
	return eq
}

func equalValues(lhs, rhs Val) bool {
	switch l := lhs.(type) {
	case *BoolVal:
		r, ok := rhs.(*BoolVal)
		return ok && l.Value == r.Value
	case *IntVal:
		r, ok := rhs.(*IntVal)
		return ok && l.Value == r.Value
	case *UintVal:
		r, ok := rhs.(*UintVal)
		return ok && l.Value == r.Value
	case *DoubleVal:
		r, ok := rhs.(*DoubleVal)
		return ok && l.Value == r.Value
	case *StringVal:
		r, ok := rhs.(*StringVal)
		return ok && l.Value == r.Value
	case *BytesVal:
		r, ok := rhs.(*BytesVal)
		return ok && bytes.Equal(l.Value, r.Value)
	case *NullVal:
		_, ok := rhs.(*NullVal)
		return ok
	case *TypeVal:
		r, ok := rhs.(*TypeVal)
		return ok && l.Name == r.Name
	case *DurationVal:
		r, ok := rhs.(*DurationVal)
		return ok && l.Seconds == r.Seconds && l.Nanos == r.Nanos
	case *TimestampVal:
		r, ok := rhs.(*TimestampVal)
		return ok && l.Time.Equal(r.Time)
	case *ListVal:
		r, ok := rhs.(*ListVal)
		if !ok || len(l.Elems) != len(r.Elems) {
			return false
		}
		for i := range l.Elems {
			if !equalValues(l.Elems[i], r.Elems[i]) {
				return false
			}
		}
		return true
	case *MapVal:
		r, ok := rhs.(*MapVal)
		if !ok || len(l.keys) != len(r.keys) {
			return false
		}
		for mk, lv := range l.entries {
			rv, present := r.entries[mk]
			if !present || !equalValues(lv, rv) {
				return false
			}
		}
		return true
	case *MessageVal:
		r, ok := rhs.(*MessageVal)
		if !ok || l.TypeName != r.TypeName || len(l.fields) != len(r.fields) {
			return false
		}
		for name, lv := range l.fields {
			rv, present := r.fields[name]
			if !present || !equalValues(lv, rv) {
				return false
			}
		}
		return true
	}
	return false
}

// compareOrder returns -1/0/+1 for same-type ordered operands, unordered when
// a double operand is NaN, or false when the pair has no ordering.
func compareOrder(lhs, rhs Val) (int, bool) {
	switch l := lhs.(type) {
	case *BoolVal:
		if r, ok := rhs.(*BoolVal); ok {
			return boolCmp(l.Value) - boolCmp(r.Value), true
		}
	case *IntVal:
		if r, ok := rhs.(*IntVal); ok {
			return cmpInt64(l.Value, r.Value), true
		}
	case *UintVal:
		if r, ok := rhs.(*UintVal); ok {
			switch {
			case l.Value < r.Value:
				return -1, true
			case l.Value > r.Value:
				return 1, true
			}
			return 0, true
		}
	case *DoubleVal:
		if r, ok := rhs.(*DoubleVal); ok {
			switch {
			case l.Value < r.Value:
				return -1, true
			case l.Value > r.Value:
				return 1, true
			case l.Value == r.Value:
				return 0, true
			}
			// NaN: unordered against everything, all relations false.
			return unordered, true
		}
	case *StringVal:
		if r, ok := rhs.(*StringVal); ok {
			switch {
			case l.Value < r.Value:
				return -1, true
			case l.Value > r.Value:
				return 1, true
			}
			return 0, true
		}
	case *BytesVal:
		if r, ok := rhs.(*BytesVal); ok {
			return bytes.Compare(l.Value, r.Value), true
		}
	case *DurationVal:
		if r, ok := rhs.(*DurationVal); ok {
			if c := cmpInt64(l.Seconds, r.Seconds); c != 0 {
				return c, true
			}
			return cmpInt64(int64(l.Nanos), int64(r.Nanos)), true
		}
	case *TimestampVal:
		if r, ok := rhs.(*TimestampVal); ok {
			switch {
			case l.Time.Before(r.Time):
				return -1, true
			case l.Time.After(r.Time):
				return 1, true
			}
			return 0, true
		}
	}
	return 0, false
}

func boolCmp(b bool) int {
	if b {
		return 1
	}
	return 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Less implements "<".
func Less(lhs, rhs Val) Val {
	return ordered("<", lhs, rhs, func(c int) bool { return c < 0 })
}

// LessEqual implements "<=".
func LessEqual(lhs, rhs Val) Val {
	return ordered("<=", lhs, rhs, func(c int) bool { return c <= 0 })
}

// Greater implements ">".
func Greater(lhs, rhs Val) Val {
	return ordered(">", lhs, rhs, func(c int) bool { return c > 0 })
}

// GreaterEqual implements ">=".
func GreaterEqual(lhs, rhs Val) Val {
	return ordered(">=", lhs, rhs, func(c int) bool { return c >= 0 })
}

// unordered marks a NaN comparison result.
const unordered = 2

func ordered(op string, lhs, rhs Val, test func(int) bool) Val {
	if e, ok := lhs.(*EvalError); ok {
		return e
	}
	if e, ok := rhs.(*EvalError); ok {
		return e
	}
	c, ok := compareOrder(lhs, rhs)
	if !ok {
		return NoSuchOverload(op, lhs, rhs)
	}
	if c == unordered {
		return False
	}
	return Bool(test(c))
}

// LogicalNot implements "!".
func LogicalNot(v Val) Val {
	switch o := v.(type) {
	case *EvalError:
		return o
	case *BoolVal:
		return Bool(!o.Value)
	}
	return NoSuchUnaryOverload("!", v)
}

// asLogical classifies an operand for the commutative &&/|| tables: a
// definite bool, or an error (non-bool operands count as overload errors).
func asLogical(op string, v Val) (bool, *EvalError) {
	switch o := v.(type) {
	case *BoolVal:
		return o.Value, nil
	case *EvalError:
		return false, o
	}
	return false, NoSuchUnaryOverload(op, v)
}

// LogicalAnd applies the 4-case (bool|err) x (bool|err) table for "&&": a
// false operand forces the result and absorbs an error on the other side.
func LogicalAnd(lhs, rhs Val) Val {
	lb, lerr := asLogical("&&", lhs)
	rb, rerr := asLogical("&&", rhs)
	if lerr == nil && !lb || rerr == nil && !rb {
		return False
	}
	if lerr != nil {
		return lerr
	}
	if rerr != nil {
		return rerr
	}
	return True
}

// LogicalOr applies the dual table for "||": a true operand forces the
// result and absorbs an error on the other side.
func LogicalOr(lhs, rhs Val) Val {
	lb, lerr := asLogical("||", lhs)
	rb, rerr := asLogical("||", rhs)
	if lerr == nil && lb || rerr == nil && rb {
		return True
	}
	if lerr != nil {
		return lerr
	}
	if rerr != nil {
		return rerr
	}
	return False
}

// In implements "x in container" for lists (elementwise equality) and maps
// (key membership).
func In(x, container Val) Val {
	if e, ok := x.(*EvalError); ok {
		return e
	}
	switch c := container.(type) {
	case *EvalError:
		return c
	case *ListVal:
		for _, elem := range c.Elems {
			if equalValues(x, elem) {
				return True
			}
		}
		return False
	case *MapVal:
		_, ok, err := c.Get(x)
		if err != nil {
			return err
		}
		return Bool(ok)
	}
	return NoSuchOverload("in", x, container)
}
