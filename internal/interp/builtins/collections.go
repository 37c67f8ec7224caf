package builtins

import "github.com/cwbudde/go-cel/internal/celtypes"

func registerCollectionFuncs(r *Registry) {
	r.Register(&FunctionInfo{
		Name:        "size",
		Function:    sizeFunc,
		Category:    CategoryCollections,
		MinArgs:     1,
		MaxArgs:     1,
		Description: "Length of a string (code points), bytes, list, or map",
	})
}

func sizeFunc(args []celtypes.Val) celtypes.Val {
	switch v := args[0].(type) {
	case *celtypes.StringVal:
		return &celtypes.IntVal{Value: int64(v.CodePoints())}
	case *celtypes.BytesVal:
		return &celtypes.IntVal{Value: int64(len(v.Value))}
	case *celtypes.ListVal:
		return &celtypes.IntVal{Value: int64(v.Size())}
	case *celtypes.MapVal:
		return &celtypes.IntVal{Value: int64(v.Size())}
	}
	return celtypes.NoSuchUnaryOverload("size", args[0])
}
