package builtins

import "github.com/cwbudde/go-cel/internal/celtypes"

func registerTypeFuncs(r *Registry) {
	r.Register(&FunctionInfo{
		Name: "type",
		Function: func(args []celtypes.Val) celtypes.Val {
			return celtypes.TypeOf(args[0])
		},
		Category:    CategoryType,
		MinArgs:     1,
		MaxArgs:     1,
		Description: "Reified type handle of the argument",
	})
}
