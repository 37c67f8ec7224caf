package cel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/go-cel/internal/celtypes"
)

func compileAndRun(t *testing.T, env *Environment, source string, bindings map[string]any) (Value, error) {
	t.Helper()
	tree, err := env.Compile(source)
	require.NoError(t, err, "compile %q", source)
	runner, err := env.Program(tree, nil)
	require.NoError(t, err)
	return runner.Evaluate(bindings)
}

func TestCompileReportsParseErrors(t *testing.T) {
	env := NewEnvironment()
	_, err := env.Compile(`1 + * 2`)
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.NotEmpty(t, parseErr.Errors)
	assert.Equal(t, celtypes.ErrParse, parseErr.Kind())
	assert.Contains(t, err.Error(), "syntax error")
}

func TestEvaluateWithBindings(t *testing.T) {
	env := NewEnvironment()
	out, err := compileAndRun(t, env, `"Hello, " + name + "!"`, map[string]any{"name": "World"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", out.String())
}

func TestNativeBindingConversion(t *testing.T) {
	env := NewEnvironment()
	out, err := compileAndRun(t, env, `resource.count + 1`, map[string]any{
		"resource": map[string]any{"count": 41},
	})
	require.NoError(t, err)
	assert.Equal(t, "42", out.String())

	out, err = compileAndRun(t, env, `tags.filter(tag, tag.startsWith("env"))`, map[string]any{
		"tags": []any{"env:prod", "team:infra", "env:dev"},
	})
	require.NoError(t, err)
	assert.Equal(t, `["env:prod", "env:dev"]`, out.String())
}

func TestTimeBindings(t *testing.T) {
	env := NewEnvironment()
	out, err := compileAndRun(t, env, `created + ttl > created`, map[string]any{
		"created": time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		"ttl":     45 * time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, "true", out.String())
}

func TestEvaluationErrorsCarryKinds(t *testing.T) {
	env := NewEnvironment()
	tests := []struct {
		source string
		kind   celtypes.ErrKind
	}{
		{`1 / 0`, celtypes.ErrDivideByZero},
		{`9223372036854775807 + 1`, celtypes.ErrOverflow},
		{`{"k": 1}["x"]`, celtypes.ErrNoSuchKey},
		{`ghost`, celtypes.ErrNoSuchIdentifier},
		{`frob(1)`, celtypes.ErrNoSuchFunction},
		{`-1u`, celtypes.ErrNoSuchOverload},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, err := compileAndRun(t, env, tt.source, nil)
			require.Error(t, err)
			var evalErr *EvalError
			require.True(t, errors.As(err, &evalErr))
			assert.Equal(t, tt.kind, evalErr.Code)
		})
	}
}

func TestPackageResolution(t *testing.T) {
	env := NewEnvironment(WithPackage("acme.policy"))
	out, err := compileAndRun(t, env, `limit - 1`, map[string]any{
		"acme.policy.limit": 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "9", out.String())
}

func TestExtensionFunctions(t *testing.T) {
	env := NewEnvironment()
	tree, err := env.Compile(`shout(greeting)`)
	require.NoError(t, err)

	runner, err := env.Program(tree, map[string]Function{
		"shout": func(args []Value) Value {
			s, ok := args[0].(*celtypes.StringVal)
			if !ok {
				return ErrorValue("shout wants a string")
			}
			return String(s.Value + "!!")
		},
	})
	require.NoError(t, err)

	out, err := runner.Evaluate(map[string]any{"greeting": "hey"})
	require.NoError(t, err)
	assert.Equal(t, "hey!!", out.String())
}

func TestCompiledEngineMatchesInterpreted(t *testing.T) {
	sources := []string{
		`[1,2,3].map(x, x * 2)`,
		`has({"a": 1}.b)`,
		`true || (1/0 > 0)`,
		`2 / 0`,
	}
	interpEnv := NewEnvironment()
	compiledEnv := NewEnvironment(WithCompiled())

	for _, source := range sources {
		t.Run(source, func(t *testing.T) {
			iv, ierr := compileAndRun(t, interpEnv, source, nil)
			cv, cerr := compileAndRun(t, compiledEnv, source, nil)

			if ierr != nil {
				require.Error(t, cerr)
				var ie, ce *EvalError
				require.True(t, errors.As(ierr, &ie))
				require.True(t, errors.As(cerr, &ce))
				assert.Equal(t, ie.Code, ce.Code)
				return
			}
			require.NoError(t, cerr)
			assert.Equal(t, iv.String(), cv.String())
		})
	}
}

func TestMessageTypes(t *testing.T) {
	env := NewEnvironment(WithMessageType("Widget", FieldDecls{
		"name":  {Kind: celtypes.KindString},
		"count": {Kind: celtypes.KindInt},
	}))

	out, err := compileAndRun(t, env, `Widget{name: "w"}.count == 0`, nil)
	require.NoError(t, err)
	assert.Equal(t, "true", out.String())
}

func TestRunnerIsConcurrencySafe(t *testing.T) {
	env := NewEnvironment(WithCompiled())
	tree, err := env.Compile(`x * x + 1`)
	require.NoError(t, err)
	runner, err := env.Program(tree, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for n := 1; n <= 8; n++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			out, evalErr := runner.Evaluate(map[string]any{"x": n})
			if evalErr != nil {
				t.Errorf("unexpected error: %v", evalErr)
				return
			}
			want := n*n + 1
			if out.(*celtypes.IntVal).Value != want {
				t.Errorf("expected %d, got %s", want, out)
			}
		}(int64(n))
	}
	wg.Wait()
}

func TestRecursionLimitOption(t *testing.T) {
	env := NewEnvironment(WithRecursionLimit(5))
	_, err := env.Compile(`((((((1))))))`)
	assert.Error(t, err)
}

func TestImmutability(t *testing.T) {
	env := NewEnvironment()
	tree, err := env.Compile(`xs + [4]`)
	require.NoError(t, err)
	runner, err := env.Program(tree, nil)
	require.NoError(t, err)

	xs := List(Int(1), Int(2), Int(3))
	out, err := runner.Evaluate(map[string]any{"xs": xs})
	require.NoError(t, err)
	assert.Equal(t, "[1, 2, 3, 4]", out.String())
	// The input list is untouched.
	assert.Equal(t, "[1, 2, 3]", xs.String())
}
