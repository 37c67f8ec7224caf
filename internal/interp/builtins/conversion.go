package builtins

import "github.com/cwbudde/go-cel/internal/celtypes"

func registerConversionFuncs(r *Registry) {
	conversions := []struct {
		name    string
		convert func(celtypes.Val) celtypes.Val
		desc    string
	}{
		{"bool", celtypes.ToBool, "Converts to bool"},
		{"int", celtypes.ToInt, "Converts to int, checking range"},
		{"uint", celtypes.ToUint, "Converts to uint, checking range"},
		{"double", celtypes.ToDouble, "Converts to double"},
		{"string", celtypes.ToString, "Converts to string"},
		{"bytes", celtypes.ToBytes, "Converts to bytes"},
		{"duration", celtypes.ToDuration, "Converts or parses a duration"},
		{"timestamp", celtypes.ToTimestamp, "Converts or parses a timestamp"},
	}
	for _, c := range conversions {
		convert := c.convert
		r.Register(&FunctionInfo{
			Name:        c.name,
			Function:    func(args []celtypes.Val) celtypes.Val { return convert(args[0]) },
			Category:    CategoryConversion,
			MinArgs:     1,
			MaxArgs:     1,
			Description: c.desc,
		})
	}
}
