package interp

import (
	"github.com/cwbudde/go-cel/internal/celtypes"
	"github.com/cwbudde/go-cel/internal/interp/builtins"
)

// Dispatch resolves and invokes a function by name: builtins first, then
// the activation's registered functions. A panic inside an implementation
// is caught here and wrapped, so host exceptions never escape evaluation.
func Dispatch(act *Activation, name string, args []celtypes.Val) celtypes.Val {
	if info, ok := builtins.DefaultRegistry.Lookup(name); ok {
		return safeCall(name, args, info.Call)
	}
	if fn, ok := act.ResolveFunction(name); ok {
		return safeCall(name, args, fn)
	}
	return celtypes.NewError(celtypes.ErrNoSuchFunction, celtypes.MsgNoSuchFunction, name)
}

func safeCall(name string, args []celtypes.Val, fn func([]celtypes.Val) celtypes.Val) (result celtypes.Val) {
	defer func() {
		if r := recover(); r != nil {
			result = celtypes.NewError(celtypes.ErrFunctionError, "function %q panicked: %v", name, r)
		}
	}()
	result = fn(args)
	if result == nil {
		return celtypes.NewError(celtypes.ErrFunctionError, "function %q returned no value", name)
	}
	return result
}

// argCountError reports a macro applied with the wrong shape.
func argCountError(name string, want, got int) *celtypes.EvalError {
	return celtypes.NewError(celtypes.ErrInvalidArgument,
		"%s() takes %d arguments, found %d", name, want, got)
}
