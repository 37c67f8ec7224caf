package interp

import (
	log "github.com/sirupsen/logrus"

	"github.com/cwbudde/go-cel/internal/ast"
	"github.com/cwbudde/go-cel/internal/celtypes"
)

// DefaultMaxDepth bounds evaluation nesting; it must admit at least 2500
// levels of nested subexpression.
const DefaultMaxDepth = 3000

// Interpreter is the tree-walking evaluator. It holds no per-evaluation
// state, so one instance may serve concurrent evaluations; the AST it
// walks is shared and read-only.
type Interpreter struct {
	maxDepth int
	logger   *log.Entry
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMaxDepth overrides the recursion depth limit.
func WithMaxDepth(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxDepth = n
		}
	}
}

// WithLogger sets the evaluation logger.
func WithLogger(logger *log.Entry) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// New creates an Interpreter.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		maxDepth: DefaultMaxDepth,
		logger:   log.NewEntry(log.StandardLogger()),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Evaluate walks the expression under the given activation and returns its
// value, or an EvalError value describing the failure.
func (i *Interpreter) Evaluate(e *ast.Expr, act *Activation) celtypes.Val {
	result := i.eval(e, act, 0)
	if err, ok := celtypes.AsError(result); ok {
		i.logger.WithField("error", err.Error()).Debug("evaluation failed")
	}
	return result
}

func (i *Interpreter) eval(e *ast.Expr, act *Activation, depth int) celtypes.Val {
	if depth > i.maxDepth {
		return celtypes.NewError(celtypes.ErrInvalidArgument,
			"expression recursion depth exceeds %d", i.maxDepth)
	}

	switch e.Label {
	case ast.IntLit:
		return &celtypes.IntVal{Value: e.IntVal}
	case ast.UintLit:
		return &celtypes.UintVal{Value: e.UintVal}
	case ast.DoubleLit:
		return &celtypes.DoubleVal{Value: e.DoubleVal}
	case ast.StringLit:
		return &celtypes.StringVal{Value: e.StrVal}
	case ast.BytesLit:
		return &celtypes.BytesVal{Value: e.BytesVal}
	case ast.BoolLit:
		return celtypes.Bool(e.BoolVal)
	case ast.NullLit:
		return celtypes.Null

	case ast.Ident:
		return i.annotate(act.ResolveDotted(e.Name, false), e)
	case ast.DotIdent:
		return i.annotate(act.ResolveDotted(e.Name, true), e)

	case ast.ParenExpr:
		return i.eval(e.Children[0], act, depth+1)

	case ast.MemberDot:
		if name, absolute, ok := identChain(e); ok {
			return i.annotate(act.ResolveDotted(name, absolute), e)
		}
		operand := i.eval(e.Children[0], act, depth+1)
		return i.annotate(FieldAccess(operand, e.Name), e)

	case ast.MemberIndex:
		return i.annotate(i.evalIndex(e, act, depth), e)

	case ast.MemberObject:
		return i.annotate(i.evalObject(e, act, depth), e)

	case ast.ListLit:
		elems, err := i.evalList(e.Children[0], act, depth)
		if err != nil {
			return err
		}
		return celtypes.NewList(elems)

	case ast.MapLit:
		pairs, err := i.evalList(e.Children[0], act, depth)
		if err != nil {
			return err
		}
		m, merr := celtypes.NewMap(pairs)
		if merr != nil {
			return merr.At(e.Pos)
		}
		return m

	case ast.UnaryNot:
		return i.annotate(celtypes.LogicalNot(i.eval(e.Children[0], act, depth+1)), e)
	case ast.UnaryNeg:
		return i.annotate(celtypes.Negate(i.eval(e.Children[0], act, depth+1)), e)

	case ast.MultiplicationMul:
		return i.binary(celtypes.Multiply, e, act, depth)
	case ast.MultiplicationDiv:
		return i.binary(celtypes.Divide, e, act, depth)
	case ast.MultiplicationMod:
		return i.binary(celtypes.Modulo, e, act, depth)
	case ast.AdditionAdd:
		return i.binary(celtypes.Add, e, act, depth)
	case ast.AdditionSub:
		return i.binary(celtypes.Subtract, e, act, depth)
	case ast.RelationLT:
		return i.binary(celtypes.Less, e, act, depth)
	case ast.RelationLE:
		return i.binary(celtypes.LessEqual, e, act, depth)
	case ast.RelationGT:
		return i.binary(celtypes.Greater, e, act, depth)
	case ast.RelationGE:
		return i.binary(celtypes.GreaterEqual, e, act, depth)
	case ast.RelationEQ:
		return i.binary(celtypes.Equal, e, act, depth)
	case ast.RelationNE:
		return i.binary(celtypes.NotEqual, e, act, depth)
	case ast.RelationIn:
		return i.binary(celtypes.In, e, act, depth)

	case ast.ConditionalAnd:
		lhs := i.eval(e.Children[0], act, depth+1)
		if b, ok := lhs.(*celtypes.BoolVal); ok && !b.Value {
			return celtypes.False
		}
		rhs := i.eval(e.Children[1], act, depth+1)
		return i.annotate(celtypes.LogicalAnd(lhs, rhs), e)

	case ast.ConditionalOr:
		lhs := i.eval(e.Children[0], act, depth+1)
		if b, ok := lhs.(*celtypes.BoolVal); ok && b.Value {
			return celtypes.True
		}
		rhs := i.eval(e.Children[1], act, depth+1)
		return i.annotate(celtypes.LogicalOr(lhs, rhs), e)

	case ast.Conditional:
		cond := i.eval(e.Children[0], act, depth+1)
		switch c := cond.(type) {
		case *celtypes.EvalError:
			return c
		case *celtypes.BoolVal:
			if c.Value {
				return i.eval(e.Children[1], act, depth+1)
			}
			return i.eval(e.Children[2], act, depth+1)
		}
		return i.annotate(celtypes.NewError(celtypes.ErrNoSuchOverload,
			"ternary condition must be bool, found %s", celtypes.TypeOf(cond)), e)

	case ast.IdentArg:
		return i.annotate(i.evalCall(e, act, depth), e)
	case ast.DotIdentArg:
		return i.annotate(i.evalFunctionCall(e.Name, e.Children[0], act, depth), e)
	case ast.MemberDotArg:
		return i.annotate(i.evalMethodCall(e, act, depth), e)
	}

	return celtypes.NewError(celtypes.ErrInvalidArgument, "unexpected node label %q", e.Label)
}

// annotate attaches the node position to position-free errors.
func (i *Interpreter) annotate(v celtypes.Val, e *ast.Expr) celtypes.Val {
	if err, ok := celtypes.AsError(v); ok {
		return err.At(e.Pos)
	}
	return v
}

func (i *Interpreter) binary(op func(celtypes.Val, celtypes.Val) celtypes.Val, e *ast.Expr, act *Activation, depth int) celtypes.Val {
	lhs := i.eval(e.Children[0], act, depth+1)
	rhs := i.eval(e.Children[1], act, depth+1)
	return i.annotate(op(lhs, rhs), e)
}

// evalList evaluates an exprlist node, stopping at the first error.
func (i *Interpreter) evalList(list *ast.Expr, act *Activation, depth int) ([]celtypes.Val, *celtypes.EvalError) {
	vals := make([]celtypes.Val, 0, len(list.Children))
	for _, child := range list.Children {
		v := i.eval(child, act, depth+1)
		if err, ok := celtypes.AsError(v); ok {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func (i *Interpreter) evalIndex(e *ast.Expr, act *Activation, depth int) celtypes.Val {
	operand := i.eval(e.Children[0], act, depth+1)
	index := i.eval(e.Children[1], act, depth+1)
	return IndexAccess(operand, index)
}

func (i *Interpreter) evalObject(e *ast.Expr, act *Activation, depth int) celtypes.Val {
	inits := e.Children[0]
	fields := make([]string, 0, len(inits.Children)/2)
	values := make([]celtypes.Val, 0, len(inits.Children)/2)
	for n := 0; n+1 < len(inits.Children); n += 2 {
		fields = append(fields, inits.Children[n].Name)
		v := i.eval(inits.Children[n+1], act, depth+1)
		if err, ok := celtypes.AsError(v); ok {
			return err
		}
		values = append(values, v)
	}
	decls, typeName := act.ResolveMessageDecls(e.Name)
	msg, err := celtypes.NewMessage(typeName, decls, fields, values)
	if err != nil {
		return err
	}
	return msg
}

// evalCall handles free-function calls, including the syntactic macros has
// and dyn.
func (i *Interpreter) evalCall(e *ast.Expr, act *Activation, depth int) celtypes.Val {
	args := e.Children[0]
	switch e.Name {
	case "has":
		if len(args.Children) != 1 {
			return argCountError("has", 1, len(args.Children))
		}
		return i.evalHas(args.Children[0], act, depth)
	case "dyn":
		if len(args.Children) != 1 {
			return argCountError("dyn", 1, len(args.Children))
		}
		return i.eval(args.Children[0], act, depth+1)
	}
	return i.evalFunctionCall(e.Name, args, act, depth)
}

// evalHas implements has(e.f). The argument must be a field selection; the
// operand is evaluated normally, so errors inside it still propagate.
func (i *Interpreter) evalHas(arg *ast.Expr, act *Activation, depth int) celtypes.Val {
	target := arg
	for target.Label == ast.ParenExpr {
		target = target.Children[0]
	}
	if target.Label != ast.MemberDot {
		return celtypes.NewError(celtypes.ErrInvalidArgument, "has() requires a field selection")
	}
	operand := i.eval(target.Children[0], act, depth+1)
	return HasMacro(operand, target.Name)
}

func (i *Interpreter) evalFunctionCall(name string, args *ast.Expr, act *Activation, depth int) celtypes.Val {
	vals, err := i.evalList(args, act, depth)
	if err != nil {
		return err
	}
	return Dispatch(act, name, vals)
}

// evalMethodCall handles e.f(args): comprehension macros by shape, then
// method-form dispatch with the receiver prepended.
func (i *Interpreter) evalMethodCall(e *ast.Expr, act *Activation, depth int) celtypes.Val {
	target := e.Children[0]
	args := e.Children[1]

	if IsComprehensionMacro(e.Name, len(args.Children)) {
		loopVar := args.Children[0]
		if loopVar.Label != ast.Ident {
			return celtypes.NewError(celtypes.ErrInvalidArgument,
				"%s() loop variable must be an identifier", e.Name)
		}
		rangeVal := i.eval(target, act, depth+1)
		elems, iterErr := IterableElems(rangeVal)
		if iterErr != nil {
			return iterErr
		}
		body := args.Children[1]
		return RunComprehension(e.Name, elems, func(elem celtypes.Val) celtypes.Val {
			scoped := act.ExtendValue(loopVar.Name, elem)
			return i.eval(body, scoped, depth+1)
		})
	}

	recv := i.eval(target, act, depth+1)
	if err, ok := celtypes.AsError(recv); ok {
		return err
	}
	vals, err := i.evalList(args, act, depth)
	if err != nil {
		return err
	}
	return Dispatch(act, e.Name, append([]celtypes.Val{recv}, vals...))
}

// IndexAccess performs e[i] on lists and maps.
func IndexAccess(operand, index celtypes.Val) celtypes.Val {
	switch o := operand.(type) {
	case *celtypes.EvalError:
		return o
	case *celtypes.ListVal:
		return o.Index(index)
	case *celtypes.MapVal:
		return o.Index(index)
	}
	if err, ok := celtypes.AsError(index); ok {
		return err
	}
	return celtypes.NewError(celtypes.ErrTypeError, "type %s is not indexable", celtypes.TypeOf(operand))
}

// identChain flattens a pure identifier selection chain ("a.b.c") for
// longest-prefix resolution. It fails when any link is not a plain
// identifier (for example a call or an index step).
func identChain(e *ast.Expr) (name string, absolute bool, ok bool) {
	switch e.Label {
	case ast.Ident:
		return e.Name, false, true
	case ast.DotIdent:
		return e.Name, true, true
	case ast.MemberDot:
		prefix, abs, pok := identChain(e.Children[0])
		if !pok {
			return "", false, false
		}
		return prefix + "." + e.Name, abs, true
	}
	return "", false, false
}
