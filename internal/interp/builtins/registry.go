// Package builtins provides the registry of CEL standard library functions.
// The same entry serves both call forms: x.f(y) and f(x, y) dispatch to one
// implementation with the receiver prepended to the argument list.
package builtins

import (
	"sort"
	"sync"

	"github.com/cwbudde/go-cel/internal/celtypes"
)

// Category groups built-in functions.
type Category string

const (
	// CategoryString includes string and bytes tests (contains, matches, …)
	CategoryString Category = "string"

	// CategoryConversion includes the type conversion functions (int, uint, …)
	CategoryConversion Category = "conversion"

	// CategoryDateTime includes the timestamp and duration accessors
	CategoryDateTime Category = "datetime"

	// CategoryCollections includes size and membership helpers
	CategoryCollections Category = "collections"

	// CategoryType includes type introspection
	CategoryType Category = "type"
)

// BuiltinFunc is the implementation of a built-in. Arity has already been
// checked against the registration before the call.
type BuiltinFunc func(args []celtypes.Val) celtypes.Val

// FunctionInfo holds metadata about a built-in function.
type FunctionInfo struct {
	// Name is the canonical name of the function
	Name string

	// Function is the implementation
	Function BuiltinFunc

	// Category is the functional category
	Category Category

	// MinArgs and MaxArgs bound the accepted argument count, receiver
	// included for method-form calls
	MinArgs int
	MaxArgs int

	// Description is a brief description of what the function does
	Description string
}

// Registry manages built-in functions.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]*FunctionInfo
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{functions: make(map[string]*FunctionInfo)}
}

// Register adds a function to the registry, replacing any previous entry
// with the same name.
func (r *Registry) Register(info *FunctionInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[info.Name] = info
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (*FunctionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.functions[name]
	return info, ok
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call checks arity and invokes the function. Argument count mismatches
// are overload errors, matching how an undefined type pairing reports.
func (info *FunctionInfo) Call(args []celtypes.Val) celtypes.Val {
	if len(args) < info.MinArgs || len(args) > info.MaxArgs {
		return celtypes.NewError(celtypes.ErrNoSuchOverload,
			"found no %d-argument overload for %q", len(args), info.Name)
	}
	return info.Function(args)
}
