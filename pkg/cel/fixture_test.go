package cel

import (
	"fmt"
	"os"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

func TestMain(m *testing.M) {
	code := m.Run()
	snaps.Clean(m)
	os.Exit(code)
}

// fixtureExpressions pins the rendered output of a broad expression corpus.
// Each entry is evaluated under both engines; the snapshot records the
// engine-independent result.
var fixtureExpressions = []string{
	`42`,
	`-7`,
	`42u`,
	`1.5e3`,
	`"héllo"`,
	`b"bytes"`,
	`true`,
	`null`,
	`[1, "two", 3.0]`,
	`{"a": 1, "b": [true, null]}`,
	`1 + 2 * 3 - 4`,
	`7 / 2`,
	`-7 % 2`,
	`1.0 / 0.0`,
	`-1.0 / 0.0`,
	`"concat" + "enation"`,
	`[1] + [2, 3]`,
	`2 / 0`,
	`9223372036854775807 + 1`,
	`-1u`,
	`1 == 1.0`,
	`"a" < "b"`,
	`true || (1/0 > 0)`,
	`true && (1/0 > 0)`,
	`false ? 1/0 : 2`,
	`[10, 20, 30][1]`,
	`{"k": "v"}["missing"]`,
	`1 in [1, 2, 3]`,
	`size("héllo")`,
	`size({"a": 1})`,
	`[1,2,3].map(x, x * 2)`,
	`[1,2,3,4].filter(x, x % 2 == 0)`,
	`[1,2,3].all(x, x > 0)`,
	`[1,2,3].exists_one(x, x == 2)`,
	`has({"a": 1}.a)`,
	`has({"a": 1}.b)`,
	`type(1)`,
	`type(1u)`,
	`type(null)`,
	`int("42")`,
	`string(1.5)`,
	`string(duration("2h30m"))`,
	`string(timestamp("2009-02-13T23:31:30Z"))`,
	`timestamp("2009-02-13T23:31:30Z").getMonth()`,
	`timestamp("2009-02-13T23:31:30Z").getDayOfWeek()`,
	`duration("2h30m").getMinutes()`,
	`"hello".matches("^h.*o$")`,
	`ghost`,
}

// render evaluates one expression and formats value or error uniformly.
func render(env *Environment, source string) string {
	tree, err := env.Compile(source)
	if err != nil {
		return fmt.Sprintf("parse error: %v", err)
	}
	runner, err := env.Program(tree, nil)
	if err != nil {
		return fmt.Sprintf("program error: %v", err)
	}
	out, err := runner.Evaluate(nil)
	if err != nil {
		var evalErr *EvalError
		if ok := asEvalError(err, &evalErr); ok {
			return fmt.Sprintf("error<%s>", evalErr.Code)
		}
		return fmt.Sprintf("error: %v", err)
	}
	return out.String()
}

func asEvalError(err error, target **EvalError) bool {
	e, ok := err.(*EvalError)
	if ok {
		*target = e
	}
	return ok
}

func TestExpressionFixtures(t *testing.T) {
	interpreted := NewEnvironment()
	compiled := NewEnvironment(WithCompiled())

	for _, source := range fixtureExpressions {
		t.Run(source, func(t *testing.T) {
			walked := render(interpreted, source)
			emitted := render(compiled, source)
			if walked != emitted {
				t.Fatalf("engines disagree: interpreted=%q compiled=%q", walked, emitted)
			}
			snaps.MatchSnapshot(t, fmt.Sprintf("%s => %s", source, walked))
		})
	}
}
