// Package cel is the embedding API for compiling and evaluating CEL
// expressions.
//
// The Environment compiles source text into a parse tree, Program packages
// the tree into a reusable Runner, and Runner.Evaluate applies it to one
// set of bindings. A Runner is immutable and safe to share across
// goroutines; each evaluation builds its own activation.
//
//	env := cel.NewEnvironment(cel.WithPackage("request"))
//	tree, err := env.Compile(`user.age >= 18 && has(user.email)`)
//	runner, err := env.Program(tree, nil)
//	out, err := runner.Evaluate(map[string]any{"user": userData})
package cel

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/cwbudde/go-cel/internal/ast"
	"github.com/cwbudde/go-cel/internal/celtypes"
	"github.com/cwbudde/go-cel/internal/compile"
	"github.com/cwbudde/go-cel/internal/interp"
	"github.com/cwbudde/go-cel/internal/lexer"
	"github.com/cwbudde/go-cel/internal/parser"
)

// Value is a CEL runtime value.
type Value = celtypes.Val

// Function is a host-registered callable. Implementations receive fully
// evaluated arguments (the receiver first for method-form calls) and
// return a Value or an error value built with ErrorValue.
type Function = interp.FuncImpl

// FieldDecls declares the typed fields of a message type for object
// construction, keyed by field name.
type FieldDecls = interp.MessageDecls

// Ast is a compiled parse tree, ready to be packaged by Program.
type Ast struct {
	expr   *ast.Expr
	source string
}

// String renders the tree in its compact labeled form.
func (a *Ast) String() string {
	return a.expr.String()
}

// ParseError aggregates the syntax errors from one Compile call.
type ParseError struct {
	Source string
	Errors []parser.Error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, pe := range e.Errors {
		msgs[i] = pe.Error()
	}
	return fmt.Sprintf("found %d syntax error(s):\n%s", len(e.Errors), strings.Join(msgs, "\n"))
}

// Kind returns the stable error tag for parse failures.
func (e *ParseError) Kind() celtypes.ErrKind {
	return celtypes.ErrParse
}

// Environment holds the compilation configuration: the package prefix for
// name resolution, message type declarations, the recursion limit, and the
// choice of execution engine.
type Environment struct {
	pkg      string
	compiled bool
	maxDepth int
	msgDecls map[string]FieldDecls
	logger   *log.Entry
}

// Option configures an Environment.
type Option func(*Environment)

// WithPackage sets the dotted package prefix used for unqualified name
// resolution.
func WithPackage(pkg string) Option {
	return func(e *Environment) {
		e.pkg = pkg
	}
}

// WithCompiled selects the closure-graph engine instead of the
// tree-walking evaluator. Both engines produce identical results; the
// compiled form amortizes walk overhead across many evaluations.
func WithCompiled() Option {
	return func(e *Environment) {
		e.compiled = true
	}
}

// WithRecursionLimit overrides the expression nesting limit. The limit
// must admit at least 2500 levels for conformance.
func WithRecursionLimit(n int) Option {
	return func(e *Environment) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithMessageType declares a message type and its field types, enabling
// typed defaults for unset fields in Name{...} construction.
func WithMessageType(name string, decls FieldDecls) Option {
	return func(e *Environment) {
		e.msgDecls[name] = decls
	}
}

// WithLogger sets the logger used by compilation and evaluation.
func WithLogger(logger *log.Entry) Option {
	return func(e *Environment) {
		e.logger = logger
	}
}

// NewEnvironment creates an Environment.
func NewEnvironment(opts ...Option) *Environment {
	env := &Environment{
		maxDepth: interp.DefaultMaxDepth,
		msgDecls: make(map[string]FieldDecls),
		logger:   log.NewEntry(log.StandardLogger()),
	}
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// Compile parses source text into an Ast. Compilation is purely syntactic
// and needs no bindings.
func (e *Environment) Compile(source string) (*Ast, error) {
	p := parser.New(lexer.New(source))
	p.SetMaxDepth(e.maxDepth)
	expr := p.ParseExpression()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, &ParseError{Source: source, Errors: errs}
	}
	return &Ast{expr: expr, source: source}, nil
}

// Runner is a compiled, reusable artifact. Evaluate is a pure function of
// the bindings and may be called concurrently.
type Runner interface {
	// Evaluate resolves names against the bindings and returns the
	// expression's value. Binding values are converted with NativeToValue;
	// Value bindings pass through unchanged. An evaluation error is
	// returned as *EvalError.
	Evaluate(bindings map[string]any) (Value, error)
}

// EvalError is the evaluation failure type surfaced by Runner.Evaluate.
type EvalError = celtypes.EvalError

// Program packages an Ast into a Runner, binding any extension functions.
// The engine is chosen by the environment's options.
func (e *Environment) Program(a *Ast, functions map[string]Function) (Runner, error) {
	if a == nil || a.expr == nil {
		return nil, fmt.Errorf("no ast to run")
	}
	base := &runnerBase{env: e, expr: a.expr, functions: functions}
	if !e.compiled {
		return &interpretedRunner{
			runnerBase: base,
			interp: interp.New(
				interp.WithMaxDepth(e.maxDepth),
				interp.WithLogger(e.logger.WithField("runner", "interpreted")),
			),
		}, nil
	}
	thunk, err := compile.NewCompiler(compile.WithMaxDepth(e.maxDepth)).Compile(a.expr)
	if err != nil {
		return nil, err
	}
	return &compiledRunner{runnerBase: base, thunk: thunk}, nil
}

// runnerBase carries what both engines share: the environment, the tree,
// and the registered functions.
type runnerBase struct {
	env       *Environment
	expr      *ast.Expr
	functions map[string]Function
}

// newActivation builds the per-evaluation activation from bindings.
func (r *runnerBase) newActivation(bindings map[string]any) (*interp.Activation, error) {
	vars := make(map[string]Value, len(bindings))
	for name, raw := range bindings {
		v, err := NativeToValue(raw)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", name, err)
		}
		vars[name] = v
	}
	act := interp.NewActivation(r.env.pkg, vars, r.functions)
	if len(r.env.msgDecls) > 0 {
		act = act.WithMessageDecls(r.env.msgDecls)
	}
	return act, nil
}

// finish converts an evaluation result into the public return shape.
func finish(v Value) (Value, error) {
	if err, ok := celtypes.AsError(v); ok {
		return nil, err
	}
	return v, nil
}

// interpretedRunner evaluates by walking the tree.
type interpretedRunner struct {
	*runnerBase
	interp *interp.Interpreter
}

func (r *interpretedRunner) Evaluate(bindings map[string]any) (Value, error) {
	act, err := r.newActivation(bindings)
	if err != nil {
		return nil, err
	}
	return finish(r.interp.Evaluate(r.expr, act))
}

// compiledRunner evaluates the closure graph emitted by the compiler.
type compiledRunner struct {
	*runnerBase
	thunk compile.Thunk
}

func (r *compiledRunner) Evaluate(bindings map[string]any) (Value, error) {
	act, err := r.newActivation(bindings)
	if err != nil {
		return nil, err
	}
	return finish(r.thunk(act))
}
