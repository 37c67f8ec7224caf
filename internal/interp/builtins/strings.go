package builtins

import (
	"regexp"
	"strings"

	"github.com/cwbudde/go-cel/internal/celtypes"
)

func registerStringFuncs(r *Registry) {
	r.Register(&FunctionInfo{
		Name:        "contains",
		Function:    stringPredicate("contains", strings.Contains),
		Category:    CategoryString,
		MinArgs:     2,
		MaxArgs:     2,
		Description: "Tests whether the receiver contains the substring",
	})
	r.Register(&FunctionInfo{
		Name:        "startsWith",
		Function:    stringPredicate("startsWith", strings.HasPrefix),
		Category:    CategoryString,
		MinArgs:     2,
		MaxArgs:     2,
		Description: "Tests whether the receiver starts with the prefix",
	})
	r.Register(&FunctionInfo{
		Name:        "endsWith",
		Function:    stringPredicate("endsWith", strings.HasSuffix),
		Category:    CategoryString,
		MinArgs:     2,
		MaxArgs:     2,
		Description: "Tests whether the receiver ends with the suffix",
	})
	r.Register(&FunctionInfo{
		Name:        "matches",
		Function:    matchesFunc,
		Category:    CategoryString,
		MinArgs:     2,
		MaxArgs:     2,
		Description: "Tests the receiver against an RE2 pattern",
	})
	r.Register(&FunctionInfo{
		Name:        "lowerAscii",
		Function:    caseMapper("lowerAscii", asciiLower),
		Category:    CategoryString,
		MinArgs:     1,
		MaxArgs:     1,
		Description: "Lowercases the ASCII letters of a string or bytes value",
	})
	r.Register(&FunctionInfo{
		Name:        "upperAscii",
		Function:    caseMapper("upperAscii", asciiUpper),
		Category:    CategoryString,
		MinArgs:     1,
		MaxArgs:     1,
		Description: "Uppercases the ASCII letters of a string or bytes value",
	})
}

func asciiLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func asciiUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// caseMapper applies an ASCII byte mapping to strings and bytes. Non-ASCII
// sequences pass through untouched, which keeps UTF-8 intact.
func caseMapper(name string, mapByte func(byte) byte) BuiltinFunc {
	return func(args []celtypes.Val) celtypes.Val {
		switch v := args[0].(type) {
		case *celtypes.StringVal:
			mapped := []byte(v.Value)
			for i := range mapped {
				mapped[i] = mapByte(mapped[i])
			}
			return &celtypes.StringVal{Value: string(mapped)}
		case *celtypes.BytesVal:
			mapped := make([]byte, len(v.Value))
			for i, b := range v.Value {
				mapped[i] = mapByte(b)
			}
			return &celtypes.BytesVal{Value: mapped}
		}
		return celtypes.NoSuchUnaryOverload(name, args[0])
	}
}

// stringPredicate adapts a two-string test to the builtin signature.
func stringPredicate(name string, test func(s, sub string) bool) BuiltinFunc {
	return func(args []celtypes.Val) celtypes.Val {
		s, ok := args[0].(*celtypes.StringVal)
		if !ok {
			return celtypes.NoSuchUnaryOverload(name, args[0])
		}
		sub, ok := args[1].(*celtypes.StringVal)
		if !ok {
			return celtypes.NoSuchOverload(name, args[0], args[1])
		}
		return celtypes.Bool(test(s.Value, sub.Value))
	}
}

// matchesFunc evaluates an RE2 pattern. The match is unanchored; patterns
// direct their own anchoring with ^ and $. The stdlib engine provides the
// linear-time guarantee.
func matchesFunc(args []celtypes.Val) celtypes.Val {
	s, ok := args[0].(*celtypes.StringVal)
	if !ok {
		return celtypes.NoSuchUnaryOverload("matches", args[0])
	}
	pattern, ok := args[1].(*celtypes.StringVal)
	if !ok {
		return celtypes.NoSuchOverload("matches", args[0], args[1])
	}
	re, err := regexp.Compile(pattern.Value)
	if err != nil {
		return celtypes.NewError(celtypes.ErrInvalidArgument, "invalid regular expression %q: %v", pattern.Value, err)
	}
	return celtypes.Bool(re.MatchString(s.Value))
}
