package interp

import (
	"strings"
	"testing"

	"github.com/cwbudde/go-cel/internal/celtypes"
	"github.com/cwbudde/go-cel/internal/lexer"
	"github.com/cwbudde/go-cel/internal/parser"
)

// testEval parses and evaluates input under the given activation.
func testEval(t *testing.T, input string, act *Activation) celtypes.Val {
	t.Helper()
	p := parser.New(lexer.New(input))
	expr := p.ParseExpression()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors for %q: %v", input, errs)
	}
	if act == nil {
		act = NewActivation("", nil, nil)
	}
	return New().Evaluate(expr, act)
}

func expectInt(t *testing.T, v celtypes.Val, want int64) {
	t.Helper()
	iv, ok := v.(*celtypes.IntVal)
	if !ok {
		t.Fatalf("expected int %d, got %s", want, v)
	}
	if iv.Value != want {
		t.Errorf("expected %d, got %d", want, iv.Value)
	}
}

func expectBool(t *testing.T, v celtypes.Val, want bool) {
	t.Helper()
	bv, ok := v.(*celtypes.BoolVal)
	if !ok {
		t.Fatalf("expected bool %t, got %s", want, v)
	}
	if bv.Value != want {
		t.Errorf("expected %t, got %t", want, bv.Value)
	}
}

func expectErrKind(t *testing.T, v celtypes.Val, kind celtypes.ErrKind) {
	t.Helper()
	err, ok := celtypes.AsError(v)
	if !ok {
		t.Fatalf("expected %s error, got %s", kind, v)
	}
	if err.Code != kind {
		t.Errorf("expected %s, got %s (%s)", kind, err.Code, err.Msg)
	}
}

// TestEndToEndScenarios covers the seed scenarios for the evaluator.
func TestEndToEndScenarios(t *testing.T) {
	world := NewActivation("", map[string]celtypes.Val{
		"name": &celtypes.StringVal{Value: "World"},
	}, nil)

	t.Run("string concatenation with binding", func(t *testing.T) {
		v := testEval(t, `"Hello, " + name + "!"`, world)
		sv, ok := v.(*celtypes.StringVal)
		if !ok || sv.Value != "Hello, World!" {
			t.Fatalf("expected greeting, got %s", v)
		}
	})

	t.Run("map macro doubles elements", func(t *testing.T) {
		v := testEval(t, `[1,2,3].map(x, x*2)`, nil)
		lv, ok := v.(*celtypes.ListVal)
		if !ok || lv.Size() != 3 {
			t.Fatalf("expected three-element list, got %s", v)
		}
		for i, want := range []int64{2, 4, 6} {
			expectInt(t, lv.Elems[i], want)
		}
	})

	t.Run("has on present and absent keys", func(t *testing.T) {
		expectBool(t, testEval(t, `has({"a":1}.a) && !has({"a":1}.b)`, nil), true)
	})

	t.Run("integer division by zero in condition", func(t *testing.T) {
		expectErrKind(t, testEval(t, `2 / 0 > 4 ? "x" : "y"`, nil), celtypes.ErrDivideByZero)
	})

	t.Run("or absorbs error when left is true", func(t *testing.T) {
		expectBool(t, testEval(t, `true || (1/0 > 0)`, nil), true)
	})

	t.Run("timestamp month is zero-based", func(t *testing.T) {
		expectInt(t, testEval(t, `timestamp("2009-02-13T23:31:30Z").getMonth()`, nil), 1)
	})

	t.Run("int literal overflow on add", func(t *testing.T) {
		expectErrKind(t, testEval(t, `9223372036854775807 + 1`, nil), celtypes.ErrOverflow)
	})

	t.Run("exists over heterogeneous list", func(t *testing.T) {
		expectBool(t, testEval(t, `[1,"a",3].exists(e, e != "1")`, nil), true)
	})

	t.Run("missing map key", func(t *testing.T) {
		expectErrKind(t, testEval(t, `{"k":"v"}["missing"]`, nil), celtypes.ErrNoSuchKey)
	})

	t.Run("duration minutes are totals", func(t *testing.T) {
		expectInt(t, testEval(t, `duration("2h30m").getMinutes()`, nil), 150)
	})
}

func TestArithmeticEvaluation(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"7 / 2", 3},
		{"-7 / 2", -3},
		{"7 % 2", 1},
		{"-7 % 2", -1},
		{"-(3 + 4)", -7},
		{"2 - 5", -3},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectInt(t, testEval(t, tt.input, nil), tt.expected)
		})
	}
}

func TestShortCircuitDoesNotEvaluateUnchosenBranch(t *testing.T) {
	// The unchosen ternary branch would error if forced.
	expectInt(t, testEval(t, `true ? 1 : 1/0`, nil), 1)
	expectInt(t, testEval(t, `false ? 1/0 : 2`, nil), 2)
	expectBool(t, testEval(t, `false && (1/0 > 0)`, nil), false)

	// Absorption is commutative.
	expectBool(t, testEval(t, `(1/0 > 0) && false`, nil), false)
	expectBool(t, testEval(t, `(1/0 > 0) || true`, nil), true)
}

func TestConditionalRequiresBool(t *testing.T) {
	expectErrKind(t, testEval(t, `1 ? 2 : 3`, nil), celtypes.ErrNoSuchOverload)
}

func TestMacros(t *testing.T) {
	t.Run("all", func(t *testing.T) {
		expectBool(t, testEval(t, `[1,2,3].all(x, x > 0)`, nil), true)
		expectBool(t, testEval(t, `[1,2,3].all(x, x > 1)`, nil), false)
	})

	t.Run("all absorbs error when later element is false", func(t *testing.T) {
		expectBool(t, testEval(t, `[1, 0, 8].all(x, 4 / x > 1)`, nil), false)
	})

	t.Run("all propagates error when no element is false", func(t *testing.T) {
		expectErrKind(t, testEval(t, `[1, 0].all(x, 4 / x > 1)`, nil), celtypes.ErrDivideByZero)
	})

	t.Run("exists absorbs error when later element is true", func(t *testing.T) {
		expectBool(t, testEval(t, `[0, 8].exists(x, 4 / x < 1)`, nil), true)
	})

	t.Run("exists_one", func(t *testing.T) {
		expectBool(t, testEval(t, `[1,2,3].exists_one(x, x == 2)`, nil), true)
		expectBool(t, testEval(t, `[2,2,3].exists_one(x, x == 2)`, nil), false)
	})

	t.Run("filter", func(t *testing.T) {
		v := testEval(t, `[1,2,3,4].filter(x, x % 2 == 0)`, nil)
		lv, ok := v.(*celtypes.ListVal)
		if !ok || lv.Size() != 2 {
			t.Fatalf("expected [2, 4], got %s", v)
		}
		expectInt(t, lv.Elems[0], 2)
		expectInt(t, lv.Elems[1], 4)
	})

	t.Run("map over map iterates keys", func(t *testing.T) {
		v := testEval(t, `{"a": 1, "b": 2}.map(k, k)`, nil)
		lv, ok := v.(*celtypes.ListVal)
		if !ok || lv.Size() != 2 {
			t.Fatalf("expected two keys, got %s", v)
		}
		// Insertion order is preserved.
		if lv.Elems[0].(*celtypes.StringVal).Value != "a" || lv.Elems[1].(*celtypes.StringVal).Value != "b" {
			t.Errorf("expected insertion order [a, b], got %s", v)
		}
	})

	t.Run("dyn is identity", func(t *testing.T) {
		expectInt(t, testEval(t, `dyn(5) + 1`, nil), 6)
	})

	t.Run("comprehension variables do not leak", func(t *testing.T) {
		expectErrKind(t, testEval(t, `[1].map(x, x)[0] + x`, nil), celtypes.ErrNoSuchIdentifier)
	})

	t.Run("nested comprehensions", func(t *testing.T) {
		v := testEval(t, `[[1,2],[3]].map(row, row.map(x, x * 10))`, nil)
		lv, ok := v.(*celtypes.ListVal)
		if !ok || lv.Size() != 2 {
			t.Fatalf("expected nested result, got %s", v)
		}
		inner := lv.Elems[0].(*celtypes.ListVal)
		expectInt(t, inner.Elems[1], 20)
	})

	t.Run("non-iterable range", func(t *testing.T) {
		expectErrKind(t, testEval(t, `5.map(x, x)`, nil), celtypes.ErrTypeError)
	})
}

func TestHasSemantics(t *testing.T) {
	msgAct := NewActivation("", map[string]celtypes.Val{
		"m": mustMessage(t),
	}, nil)

	t.Run("message field presence", func(t *testing.T) {
		expectBool(t, testEval(t, `has(m.name)`, msgAct), true)
		expectBool(t, testEval(t, `has(m.count)`, msgAct), false)
	})

	t.Run("undeclared field is false, not an error", func(t *testing.T) {
		expectBool(t, testEval(t, `has(m.ghost)`, msgAct), false)
	})

	t.Run("errors inside the operand propagate", func(t *testing.T) {
		expectErrKind(t, testEval(t, `has(([1][5]).f)`, nil), celtypes.ErrRange)
	})

	t.Run("non-selection argument", func(t *testing.T) {
		expectErrKind(t, testEval(t, `has(5)`, nil), celtypes.ErrInvalidArgument)
	})
}

func TestIndexing(t *testing.T) {
	expectInt(t, testEval(t, `[10, 20, 30][1]`, nil), 20)
	expectErrKind(t, testEval(t, `[10][3]`, nil), celtypes.ErrRange)
	expectErrKind(t, testEval(t, `[10][-1]`, nil), celtypes.ErrRange)
	expectInt(t, testEval(t, `{1: 10, 2: 20}[2]`, nil), 20)
	expectErrKind(t, testEval(t, `{1: 10}[2.5]`, nil), celtypes.ErrNoSuchOverload)
	expectErrKind(t, testEval(t, `"abc"[0]`, nil), celtypes.ErrTypeError)
}

func TestBuiltinDispatch(t *testing.T) {
	t.Run("size forms", func(t *testing.T) {
		expectInt(t, testEval(t, `size("héllo")`, nil), 5)
		expectInt(t, testEval(t, `size(b"héllo")`, nil), 6)
		expectInt(t, testEval(t, `size([1,2])`, nil), 2)
		expectInt(t, testEval(t, `"héllo".size()`, nil), 5)
	})

	t.Run("string tests", func(t *testing.T) {
		expectBool(t, testEval(t, `"hello".contains("ell")`, nil), true)
		expectBool(t, testEval(t, `"hello".startsWith("he")`, nil), true)
		expectBool(t, testEval(t, `"hello".endsWith("lo")`, nil), true)
		expectBool(t, testEval(t, `"hello".matches("^h.*o$")`, nil), true)
		expectBool(t, testEval(t, `matches("hello", "xyz")`, nil), false)
	})

	t.Run("type function", func(t *testing.T) {
		expectBool(t, testEval(t, `type(1) == type(2)`, nil), true)
		expectBool(t, testEval(t, `type(1) == type(1u)`, nil), false)
		expectBool(t, testEval(t, `type(type(1)) == type(type("x"))`, nil), true)
	})

	t.Run("unknown function", func(t *testing.T) {
		expectErrKind(t, testEval(t, `frobnicate(1)`, nil), celtypes.ErrNoSuchFunction)
	})

	t.Run("wrong arity", func(t *testing.T) {
		expectErrKind(t, testEval(t, `size("a", "b")`, nil), celtypes.ErrNoSuchOverload)
	})
}

func TestUserFunctions(t *testing.T) {
	act := NewActivation("", nil, map[string]FuncImpl{
		"twice": func(args []celtypes.Val) celtypes.Val {
			iv, ok := args[0].(*celtypes.IntVal)
			if !ok {
				return celtypes.NoSuchUnaryOverload("twice", args[0])
			}
			return &celtypes.IntVal{Value: iv.Value * 2}
		},
		"boom": func(args []celtypes.Val) celtypes.Val {
			panic("kaboom")
		},
	})

	expectInt(t, testEval(t, `twice(21)`, act), 42)
	expectInt(t, testEval(t, `21.twice()`, act), 42)
	expectErrKind(t, testEval(t, `boom()`, act), celtypes.ErrFunctionError)
}

func TestArgumentErrorsPropagate(t *testing.T) {
	expectErrKind(t, testEval(t, `size([1/0])`, nil), celtypes.ErrDivideByZero)
}

func TestTimestampAccessorsWithTimezone(t *testing.T) {
	// 2020-01-01T00:30:00Z is still 2019 in New York.
	expectInt(t, testEval(t, `timestamp("2020-01-01T00:30:00Z").getFullYear("America/New_York")`, nil), 2019)
	expectInt(t, testEval(t, `timestamp("2020-01-01T00:30:00Z").getHours("+01:00")`, nil), 1)
	expectErrKind(t, testEval(t, `timestamp("2020-01-01T00:30:00Z").getHours("Mars/Olympus")`, nil), celtypes.ErrInvalidArgument)
}

func TestMessageConstruction(t *testing.T) {
	act := NewActivation("", nil, nil).WithMessageDecls(map[string]MessageDecls{
		"Widget": {
			"name":  {Kind: celtypes.KindString},
			"count": {Kind: celtypes.KindInt},
		},
	})

	v := testEval(t, `Widget{name: "w"}.count`, act)
	expectInt(t, v, 0)

	bad := testEval(t, `Widget{ghost: 1}`, act)
	expectErrKind(t, bad, celtypes.ErrNoSuchField)
}

func TestDeepRecursionGuard(t *testing.T) {
	depth := 4000
	input := strings.Repeat("(", depth) + "1" + strings.Repeat(")", depth)
	p := parser.New(lexer.New(input))
	p.SetMaxDepth(10000)
	expr := p.ParseExpression()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	result := New(WithMaxDepth(100)).Evaluate(expr, NewActivation("", nil, nil))
	expectErrKind(t, result, celtypes.ErrInvalidArgument)
}

func mustMessage(t *testing.T) *celtypes.MessageVal {
	t.Helper()
	msg, err := celtypes.NewMessage("Widget",
		map[string]celtypes.FieldType{
			"name":  {Kind: celtypes.KindString},
			"count": {Kind: celtypes.KindInt},
		},
		[]string{"name"},
		[]celtypes.Val{&celtypes.StringVal{Value: "w"}},
	)
	if err != nil {
		t.Fatalf("message construction failed: %s", err)
	}
	return msg
}
