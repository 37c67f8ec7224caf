package builtins

// DefaultRegistry is the global registry of CEL standard functions,
// populated on package initialization.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry()
	RegisterAll(DefaultRegistry)
}

// RegisterAll registers every standard function with the given registry.
// This allows building custom registries with a reduced set.
func RegisterAll(r *Registry) {
	registerStringFuncs(r)
	registerConversionFuncs(r)
	registerDateTimeFuncs(r)
	registerCollectionFuncs(r)
	registerTypeFuncs(r)
}
