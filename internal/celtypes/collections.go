package celtypes

import (
	"fmt"
	"strings"
)

// ListVal is an ordered, heterogeneous sequence of values.
type ListVal struct {
	Elems []Val
}

// NewList creates a list value over elems. The slice is owned by the list
// afterwards; callers must not mutate it.
func NewList(elems []Val) *ListVal {
	return &ListVal{Elems: elems}
}

// Kind returns KindList.
func (v *ListVal) Kind() Kind {
	return KindList
}

// String returns "[e1, e2, …]".
func (v *ListVal) String() string {
	return "[" + joinDisplay(v.Elems) + "]"
}

// Size returns the element count.
func (v *ListVal) Size() int {
	return len(v.Elems)
}

// Index returns the element at an integral index, or a range/overload error.
func (v *ListVal) Index(key Val) Val {
	var i int64
	switch k := key.(type) {
	case *IntVal:
		i = k.Value
	case *UintVal:
		if k.Value > uint64(len(v.Elems)) {
			return NewError(ErrRange, "index %d out of range [0, %d)", k.Value, len(v.Elems))
		}
		i = int64(k.Value)
	case *EvalError:
		return k
	default:
		return NewError(ErrNoSuchOverload, "list index must be int or uint, found %s", TypeOf(key))
	}
	if i < 0 || i >= int64(len(v.Elems)) {
		return NewError(ErrRange, "index %d out of range [0, %d)", i, len(v.Elems))
	}
	return v.Elems[i]
}

// mapKey is the comparable form of a legal map key. Int, uint, bool, and
// string keys stay distinct even when numerically equal.
type mapKey struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	s    string
}

func newMapKey(v Val) (mapKey, *EvalError) {
	switch k := v.(type) {
	case *BoolVal:
		return mapKey{kind: KindBool, b: k.Value}, nil
	case *IntVal:
		return mapKey{kind: KindInt, i: k.Value}, nil
	case *UintVal:
		return mapKey{kind: KindUint, u: k.Value}, nil
	case *StringVal:
		return mapKey{kind: KindString, s: k.Value}, nil
	case *EvalError:
		return mapKey{}, k
	default:
		return mapKey{}, NewError(ErrNoSuchOverload, "unsupported map key type %s", TypeOf(v))
	}
}

// MapVal is an association with int, uint, bool, or string keys. Insertion
// order is recorded and is the iteration order observed by macros, which
// keeps comprehension results reproducible.
type MapVal struct {
	keys    []Val
	entries map[mapKey]Val
}

// NewMap builds a map from alternating key/value pairs. Duplicate keys are
// invalid at construction.
func NewMap(pairs []Val) (*MapVal, *EvalError) {
	if len(pairs)%2 != 0 {
		return nil, NewError(ErrInvalidArgument, "map literal needs key/value pairs")
	}
	m := &MapVal{entries: make(map[mapKey]Val, len(pairs)/2)}
	for i := 0; i < len(pairs); i += 2 {
		if err := m.put(pairs[i], pairs[i+1]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (v *MapVal) put(key, val Val) *EvalError {
	mk, err := newMapKey(key)
	if err != nil {
		return err
	}
	if _, exists := v.entries[mk]; exists {
		return NewError(ErrInvalidArgument, "repeated key %s in map literal", displayString(key))
	}
	v.keys = append(v.keys, key)
	v.entries[mk] = val
	return nil
}

// Kind returns KindMap.
func (v *MapVal) Kind() Kind {
	return KindMap
}

// String returns "{k1: v1, …}" in insertion order.
func (v *MapVal) String() string {
	parts := make([]string, len(v.keys))
	for i, k := range v.keys {
		mk, _ := newMapKey(k)
		parts[i] = fmt.Sprintf("%s: %s", displayString(k), displayString(v.entries[mk]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Size returns the entry count.
func (v *MapVal) Size() int {
	return len(v.keys)
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not mutate it.
func (v *MapVal) Keys() []Val {
	return v.keys
}

// Get returns the value for key and whether it was present. A key of an
// illegal type reports an error.
func (v *MapVal) Get(key Val) (Val, bool, *EvalError) {
	mk, err := newMapKey(key)
	if err != nil {
		return nil, false, err
	}
	val, ok := v.entries[mk]
	return val, ok, nil
}

// Index returns the value for key, or a no-such-key error.
func (v *MapVal) Index(key Val) Val {
	if err, ok := key.(*EvalError); ok {
		return err
	}
	val, ok, err := v.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return NewError(ErrNoSuchKey, MsgNoSuchKey, displayString(key))
	}
	return val
}

// FieldType declares a message field with its value kind.
type FieldType struct {
	Kind Kind
}

// MessageVal is a named struct with typed fields. Reading a declared but
// unset field yields the typed zero value; reading an undeclared field is a
// no-such-field error.
type MessageVal struct {
	TypeName string
	Decls    map[string]FieldType
	fields   map[string]Val
	order    []string
}

// NewMessage builds a message of the given declared type with the provided
// field values. Fields absent from decls are rejected. A nil decls map
// declares an open struct: any field may be set, unset fields are errors.
func NewMessage(typeName string, decls map[string]FieldType, fields []string, values []Val) (*MessageVal, *EvalError) {
	m := &MessageVal{
		TypeName: typeName,
		Decls:    decls,
		fields:   make(map[string]Val, len(fields)),
	}
	for i, name := range fields {
		if decls != nil {
			if _, ok := decls[name]; !ok {
				return nil, NewError(ErrNoSuchField, MsgNoSuchField, name)
			}
		}
		if _, dup := m.fields[name]; dup {
			return nil, NewError(ErrInvalidArgument, "repeated field %s in message literal", name)
		}
		m.fields[name] = values[i]
		m.order = append(m.order, name)
	}
	return m, nil
}

// Kind returns KindMessage.
func (v *MessageVal) Kind() Kind {
	return KindMessage
}

// String returns "Name{f1: v1, …}".
func (v *MessageVal) String() string {
	parts := make([]string, len(v.order))
	for i, name := range v.order {
		parts[i] = fmt.Sprintf("%s: %s", name, displayString(v.fields[name]))
	}
	return v.TypeName + "{" + strings.Join(parts, ", ") + "}"
}

// FieldNames returns the explicitly set field names in literal order. The
// returned slice is shared; callers must not mutate it.
func (v *MessageVal) FieldNames() []string {
	return v.order
}

// Has reports whether the field is explicitly set.
func (v *MessageVal) Has(name string) bool {
	_, ok := v.fields[name]
	return ok
}

// Field returns the field value. Unset declared fields produce the typed
// zero default; undeclared fields are no-such-field errors.
func (v *MessageVal) Field(name string) Val {
	if val, ok := v.fields[name]; ok {
		return val
	}
	if v.Decls != nil {
		if decl, ok := v.Decls[name]; ok {
			return zeroValue(decl.Kind)
		}
	}
	return NewError(ErrNoSuchField, MsgNoSuchField, name)
}

// zeroValue returns the typed default for an unset declared field.
func zeroValue(k Kind) Val {
	switch k {
	case KindBool:
		return False
	case KindInt:
		return &IntVal{}
	case KindUint:
		return &UintVal{}
	case KindDouble:
		return &DoubleVal{}
	case KindString:
		return &StringVal{}
	case KindBytes:
		return &BytesVal{Value: []byte{}}
	case KindDuration:
		return &DurationVal{}
	case KindTimestamp:
		return &TimestampVal{Time: unixEpoch}
	case KindList:
		return &ListVal{}
	case KindMap:
		return &MapVal{entries: map[mapKey]Val{}}
	default:
		return Null
	}
}
