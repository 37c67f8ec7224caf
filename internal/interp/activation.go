// Package interp implements the CEL runtime: activations, macro
// comprehension semantics, and the tree-walking evaluator.
//
// The evaluator walks the labeled parse tree directly. The closure-graph
// compiler in internal/compile produces the same observable behavior by
// reusing the operator matrix, macro loops, and dispatch helpers defined
// here.
package interp

import (
	"strings"

	"github.com/cwbudde/go-cel/internal/celtypes"
)

// FuncImpl is a callable registered with an Activation or the builtin
// registry. Implementations report problems by returning an EvalError;
// panics are caught at the dispatch boundary and wrapped.
type FuncImpl func(args []celtypes.Val) celtypes.Val

// MessageDecls declares the typed fields of a message type, keyed by field
// name.
type MessageDecls map[string]celtypes.FieldType

// Activation is an immutable, layered binding of names to values, message
// type declarations, and functions. A comprehension introduces its loop
// variable by layering a new Activation over the enclosing one, so sibling
// macros never observe each other's variables.
type Activation struct {
	parent    *Activation
	pkg       string
	vars      map[string]celtypes.Val
	producers map[string]func() celtypes.Val
	funcs     map[string]FuncImpl
	msgDecls  map[string]MessageDecls
}

// NewActivation creates a root activation.
func NewActivation(pkg string, vars map[string]celtypes.Val, funcs map[string]FuncImpl) *Activation {
	return &Activation{pkg: pkg, vars: vars, funcs: funcs}
}

// WithMessageDecls returns a copy of the root activation carrying message
// type declarations for member_object construction.
func (a *Activation) WithMessageDecls(decls map[string]MessageDecls) *Activation {
	clone := *a
	clone.msgDecls = decls
	return &clone
}

// Extend returns a new Activation layered atop this one. The receiver is
// not modified.
func (a *Activation) Extend(vars map[string]celtypes.Val) *Activation {
	return &Activation{parent: a, vars: vars}
}

// ExtendValue layers a single binding; the common case for comprehension
// variables.
func (a *Activation) ExtendValue(name string, v celtypes.Val) *Activation {
	return &Activation{parent: a, vars: map[string]celtypes.Val{name: v}}
}

// Package returns the dotted package prefix for unqualified resolution.
func (a *Activation) Package() string {
	for act := a; act != nil; act = act.parent {
		if act.pkg != "" {
			return act.pkg
		}
	}
	return ""
}

// lookup finds a bound name in this layer or any parent.
func (a *Activation) lookup(name string) (celtypes.Val, bool) {
	for act := a; act != nil; act = act.parent {
		if act.vars != nil {
			if v, ok := act.vars[name]; ok {
				return v, true
			}
		}
		if act.producers != nil {
			if produce, ok := act.producers[name]; ok {
				return produce(), true
			}
		}
	}
	return nil, false
}

// ResolveName resolves a simple identifier, trying the package-qualified
// spelling before the bare one.
func (a *Activation) ResolveName(name string) celtypes.Val {
	if pkg := a.Package(); pkg != "" {
		if v, ok := a.lookup(pkg + "." + name); ok {
			return v
		}
	}
	if v, ok := a.lookup(name); ok {
		return v
	}
	return celtypes.NewError(celtypes.ErrNoSuchIdentifier, celtypes.MsgNoSuchIdentifier, name)
}

// ResolveDotted resolves a dotted name by longest bound prefix: "a.b.c" is
// tried whole, then "a.b" with field access on "c", then "a" with field
// access on "b.c". Package-qualified candidates are tried before bare ones.
// The absolute form (leading dot) skips the package candidate.
func (a *Activation) ResolveDotted(name string, absolute bool) celtypes.Val {
	candidates := []string{name}
	if !absolute {
		if pkg := a.Package(); pkg != "" {
			candidates = []string{pkg + "." + name, name}
		}
	}
	for _, candidate := range candidates {
		parts := strings.Split(candidate, ".")
		for n := len(parts); n >= 1; n-- {
			prefix := strings.Join(parts[:n], ".")
			v, ok := a.lookup(prefix)
			if !ok {
				continue
			}
			for _, field := range parts[n:] {
				v = FieldAccess(v, field)
				if celtypes.IsError(v) {
					return v
				}
			}
			return v
		}
	}
	return celtypes.NewError(celtypes.ErrNoSuchIdentifier, celtypes.MsgNoSuchIdentifier, name)
}

// ResolveFunction finds a user-registered function by name, searching from
// the innermost layer out. Builtins are consulted before this by dispatch.
func (a *Activation) ResolveFunction(name string) (FuncImpl, bool) {
	for act := a; act != nil; act = act.parent {
		if act.funcs != nil {
			if fn, ok := act.funcs[name]; ok {
				return fn, true
			}
		}
	}
	return nil, false
}

// ResolveMessageDecls finds declarations for a message type name, trying
// the package-qualified spelling first. The returned name is the spelling
// the declaration was registered under; an undeclared type keeps its
// literal spelling and constructs an open struct.
func (a *Activation) ResolveMessageDecls(name string) (MessageDecls, string) {
	pkg := a.Package()
	for act := a; act != nil; act = act.parent {
		if act.msgDecls == nil {
			continue
		}
		if pkg != "" {
			if d, ok := act.msgDecls[pkg+"."+name]; ok {
				return d, pkg + "." + name
			}
		}
		if d, ok := act.msgDecls[name]; ok {
			return d, name
		}
	}
	return nil, name
}

// FieldAccess performs e.f on a map or message value.
func FieldAccess(v celtypes.Val, field string) celtypes.Val {
	switch o := v.(type) {
	case *celtypes.EvalError:
		return o
	case *celtypes.MapVal:
		return o.Index(&celtypes.StringVal{Value: field})
	case *celtypes.MessageVal:
		return o.Field(field)
	}
	return celtypes.NewError(celtypes.ErrTypeError, "type %s has no field %q", celtypes.TypeOf(v), field)
}
