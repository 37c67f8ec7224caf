// Package celtypes implements the CEL value algebra: the tagged runtime
// value variants, checked arithmetic, comparisons, conversions, and the
// evaluation error model.
//
// Values are immutable once constructed. Operations never mutate their
// operands; collection results are freshly allocated.
package celtypes

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind tags the variant of a runtime value.
type Kind uint8

// Value kinds.
const (
	KindBool Kind = iota
	KindInt
	KindUint
	KindDouble
	KindString
	KindBytes
	KindDuration
	KindTimestamp
	KindList
	KindMap
	KindNull
	KindType
	KindMessage
	KindError
)

// TypeName returns the CEL type name for the kind.
func (k Kind) TypeName() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindDuration:
		return "duration"
	case KindTimestamp:
		return "timestamp"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindNull:
		return "null_type"
	case KindType:
		return "type"
	case KindMessage:
		return "message"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Val is a runtime value. All variants implement this interface; dispatch
// happens on Kind() inside the operator implementations rather than through
// per-type methods.
type Val interface {
	// Kind returns the variant tag.
	Kind() Kind
	// String returns the display form of the value.
	String() string
}

// BoolVal is a CEL bool.
type BoolVal struct {
	Value bool
}

// Kind returns KindBool.
func (v *BoolVal) Kind() Kind {
	return KindBool
}

// String returns "true" or "false".
func (v *BoolVal) String() string {
	if v.Value {
		return "true"
	}
	return "false"
}

// True and False are the shared bool instances; operators return these
// rather than allocating.
var (
	True  = &BoolVal{Value: true}
	False = &BoolVal{Value: false}
)

// Bool returns the shared instance for b.
func Bool(b bool) *BoolVal {
	if b {
		return True
	}
	return False
}

// IntVal is a CEL signed 64-bit integer.
type IntVal struct {
	Value int64
}

// Kind returns KindInt.
func (v *IntVal) Kind() Kind {
	return KindInt
}

// String returns the decimal form.
func (v *IntVal) String() string {
	return strconv.FormatInt(v.Value, 10)
}

// UintVal is a CEL unsigned 64-bit integer, a distinct type from IntVal.
type UintVal struct {
	Value uint64
}

// Kind returns KindUint.
func (v *UintVal) Kind() Kind {
	return KindUint
}

// String returns the decimal form.
func (v *UintVal) String() string {
	return strconv.FormatUint(v.Value, 10)
}

// DoubleVal is a CEL IEEE-754 binary64 value.
type DoubleVal struct {
	Value float64
}

// Kind returns KindDouble.
func (v *DoubleVal) Kind() Kind {
	return KindDouble
}

// String returns the shortest round-trip form.
func (v *DoubleVal) String() string {
	return strconv.FormatFloat(v.Value, 'g', -1, 64)
}

// StringVal is a CEL string. Size is measured in code points, not bytes.
type StringVal struct {
	Value string
}

// Kind returns KindString.
func (v *StringVal) Kind() Kind {
	return KindString
}

// String returns the string contents.
func (v *StringVal) String() string {
	return v.Value
}

// CodePoints returns the length in Unicode code points.
func (v *StringVal) CodePoints() int {
	return utf8.RuneCountInString(v.Value)
}

// BytesVal is a CEL byte sequence, distinct from StringVal.
type BytesVal struct {
	Value []byte
}

// Kind returns KindBytes.
func (v *BytesVal) Kind() Kind {
	return KindBytes
}

// String returns a quoted display form.
func (v *BytesVal) String() string {
	return fmt.Sprintf("b%q", v.Value)
}

// NullVal is the CEL null value, a type of its own.
type NullVal struct{}

// Null is the shared null instance.
var Null = &NullVal{}

// Kind returns KindNull.
func (v *NullVal) Kind() Kind {
	return KindNull
}

// String returns "null".
func (v *NullVal) String() string {
	return "null"
}

// TypeVal is a reified type handle, the result of type(x).
type TypeVal struct {
	Name string
}

// Kind returns KindType.
func (v *TypeVal) Kind() Kind {
	return KindType
}

// String returns the type name.
func (v *TypeVal) String() string {
	return v.Name
}

// TypeOf returns the reified type handle for a value. For messages the
// handle carries the message's declared type name.
func TypeOf(v Val) Val {
	if err, ok := v.(*EvalError); ok {
		return err
	}
	if m, ok := v.(*MessageVal); ok {
		return &TypeVal{Name: m.TypeName}
	}
	if _, ok := v.(*TypeVal); ok {
		return &TypeVal{Name: "type"}
	}
	return &TypeVal{Name: v.Kind().TypeName()}
}

// displayString renders a value the way aggregate String methods embed it:
// strings quoted, everything else in display form.
func displayString(v Val) string {
	if s, ok := v.(*StringVal); ok {
		return strconv.Quote(s.Value)
	}
	return v.String()
}

// joinDisplay renders a value slice as "a, b, c".
func joinDisplay(vals []Val) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = displayString(v)
	}
	return strings.Join(parts, ", ")
}
