package interp

import "github.com/cwbudde/go-cel/internal/celtypes"

// Macro comprehension semantics shared by the tree-walking evaluator and
// the closure-graph compiler. Macros are recognized by call shape during
// evaluation or compilation; they are never resolved through the function
// registry.

// comprehensionMacros names the member-form macros and their argument count.
var comprehensionMacros = map[string]int{
	"all":        2,
	"exists":     2,
	"exists_one": 2,
	"filter":     2,
	"map":        2,
}

// IsComprehensionMacro reports whether a member call of the given name and
// argument count is a comprehension macro.
func IsComprehensionMacro(name string, argCount int) bool {
	n, ok := comprehensionMacros[name]
	return ok && n == argCount
}

// IterableElems returns the values a comprehension visits: list elements in
// order, or map keys in insertion order.
func IterableElems(v celtypes.Val) ([]celtypes.Val, *celtypes.EvalError) {
	switch c := v.(type) {
	case *celtypes.EvalError:
		return nil, c
	case *celtypes.ListVal:
		return c.Elems, nil
	case *celtypes.MapVal:
		return c.Keys(), nil
	}
	return nil, celtypes.NewError(celtypes.ErrTypeError, "type %s is not iterable", celtypes.TypeOf(v))
}

// macroBool coerces a predicate result, mapping non-bool values to overload
// errors so the absorption rules treat them uniformly.
func macroBool(v celtypes.Val) (bool, *celtypes.EvalError) {
	switch o := v.(type) {
	case *celtypes.BoolVal:
		return o.Value, nil
	case *celtypes.EvalError:
		return false, o
	}
	return false, celtypes.NewError(celtypes.ErrNoSuchOverload,
		"predicate produced %s, expected bool", celtypes.TypeOf(v))
}

// MacroAll implements e.all(x, P): every element satisfies P. A false
// element short-circuits and absorbs any earlier predicate error.
func MacroAll(elems []celtypes.Val, pred func(celtypes.Val) celtypes.Val) celtypes.Val {
	var pending *celtypes.EvalError
	for _, elem := range elems {
		b, err := macroBool(pred(elem))
		if err != nil {
			if pending == nil {
				pending = err
			}
			continue
		}
		if !b {
			return celtypes.False
		}
	}
	if pending != nil {
		return pending
	}
	return celtypes.True
}

// MacroExists implements e.exists(x, P): some element satisfies P. A true
// element short-circuits and absorbs any earlier predicate error.
func MacroExists(elems []celtypes.Val, pred func(celtypes.Val) celtypes.Val) celtypes.Val {
	var pending *celtypes.EvalError
	for _, elem := range elems {
		b, err := macroBool(pred(elem))
		if err != nil {
			if pending == nil {
				pending = err
			}
			continue
		}
		if b {
			return celtypes.True
		}
	}
	if pending != nil {
		return pending
	}
	return celtypes.False
}

// MacroExistsOne implements e.exists_one(x, P): exactly one element
// satisfies P. All elements are visited; errors propagate.
func MacroExistsOne(elems []celtypes.Val, pred func(celtypes.Val) celtypes.Val) celtypes.Val {
	count := 0
	for _, elem := range elems {
		b, err := macroBool(pred(elem))
		if err != nil {
			return err
		}
		if b {
			count++
		}
	}
	return celtypes.Bool(count == 1)
}

// MacroFilter implements e.filter(x, P): the elements satisfying P, in
// order. Errors propagate.
func MacroFilter(elems []celtypes.Val, pred func(celtypes.Val) celtypes.Val) celtypes.Val {
	var kept []celtypes.Val
	for _, elem := range elems {
		b, err := macroBool(pred(elem))
		if err != nil {
			return err
		}
		if b {
			kept = append(kept, elem)
		}
	}
	return celtypes.NewList(kept)
}

// MacroMap implements e.map(x, T): the transform of each element, in
// order. Errors propagate.
func MacroMap(elems []celtypes.Val, transform func(celtypes.Val) celtypes.Val) celtypes.Val {
	mapped := make([]celtypes.Val, 0, len(elems))
	for _, elem := range elems {
		v := transform(elem)
		if celtypes.IsError(v) {
			return v
		}
		mapped = append(mapped, v)
	}
	return celtypes.NewList(mapped)
}

// RunComprehension dispatches a recognized macro over the iterable's
// elements with the given per-element body.
func RunComprehension(name string, elems []celtypes.Val, body func(celtypes.Val) celtypes.Val) celtypes.Val {
	switch name {
	case "all":
		return MacroAll(elems, body)
	case "exists":
		return MacroExists(elems, body)
	case "exists_one":
		return MacroExistsOne(elems, body)
	case "filter":
		return MacroFilter(elems, body)
	case "map":
		return MacroMap(elems, body)
	}
	return celtypes.NewError(celtypes.ErrNoSuchFunction, celtypes.MsgNoSuchFunction, name)
}

// HasMacro implements has(e.f) once the operand has been evaluated: a map
// tests key membership, a message tests field presence, and lookup errors
// at the leaf never escape. An operand that is already an error (from
// evaluating the operand itself) is returned unchanged.
func HasMacro(operand celtypes.Val, field string) celtypes.Val {
	switch o := operand.(type) {
	case *celtypes.EvalError:
		return o
	case *celtypes.MapVal:
		_, ok, err := o.Get(&celtypes.StringVal{Value: field})
		if err != nil {
			return err
		}
		return celtypes.Bool(ok)
	case *celtypes.MessageVal:
		return celtypes.Bool(o.Has(field))
	}
	return celtypes.NewError(celtypes.ErrTypeError,
		"has() requires a map or message, found %s", celtypes.TypeOf(operand))
}
