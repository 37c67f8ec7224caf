// Package compile transforms the labeled parse tree into a closure graph:
// one thunk per node, each mapping an Activation to a value or error. The
// graph is built once per program and shared across evaluations, which
// amortizes tree-walk overhead for expressions applied to many inputs.
//
// The emitted graph has the same observable semantics as the tree-walking
// evaluator: identical short-circuiting, error absorption, and macro
// behavior. Thunks for unchosen branches are constructed at compile time
// but never forced until evaluation reaches them.
package compile

import (
	"fmt"

	"github.com/cwbudde/go-cel/internal/ast"
	"github.com/cwbudde/go-cel/internal/celtypes"
	"github.com/cwbudde/go-cel/internal/interp"
	"github.com/cwbudde/go-cel/pkg/token"
)

// Thunk computes one subexpression under an activation.
type Thunk func(act *interp.Activation) celtypes.Val

// Compiler emits thunks for a parse tree.
type Compiler struct {
	maxDepth int
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithMaxDepth overrides the nesting limit applied while compiling.
func WithMaxDepth(n int) Option {
	return func(c *Compiler) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// NewCompiler creates a Compiler.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{maxDepth: interp.DefaultMaxDepth}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds the closure graph for an expression. The returned thunk
// is immutable and safe for concurrent use with distinct activations; a
// panic escaping a nested thunk is caught at this boundary and reported as
// a function-error.
func (c *Compiler) Compile(e *ast.Expr) (Thunk, error) {
	body, err := c.compile(e, 0)
	if err != nil {
		return nil, err
	}
	return func(act *interp.Activation) (result celtypes.Val) {
		defer func() {
			if r := recover(); r != nil {
				result = celtypes.NewError(celtypes.ErrFunctionError, "evaluation panicked: %v", r)
			}
		}()
		return body(act)
	}, nil
}

func (c *Compiler) compile(e *ast.Expr, depth int) (Thunk, error) {
	if depth > c.maxDepth {
		return nil, fmt.Errorf("expression recursion depth exceeds %d", c.maxDepth)
	}

	switch e.Label {
	case ast.IntLit:
		v := &celtypes.IntVal{Value: e.IntVal}
		return constThunk(v), nil
	case ast.UintLit:
		v := &celtypes.UintVal{Value: e.UintVal}
		return constThunk(v), nil
	case ast.DoubleLit:
		v := &celtypes.DoubleVal{Value: e.DoubleVal}
		return constThunk(v), nil
	case ast.StringLit:
		v := &celtypes.StringVal{Value: e.StrVal}
		return constThunk(v), nil
	case ast.BytesLit:
		v := &celtypes.BytesVal{Value: e.BytesVal}
		return constThunk(v), nil
	case ast.BoolLit:
		return constThunk(celtypes.Bool(e.BoolVal)), nil
	case ast.NullLit:
		return constThunk(celtypes.Null), nil

	case ast.Ident:
		name := e.Name
		pos := e.Pos
		return func(act *interp.Activation) celtypes.Val {
			return annotate(act.ResolveDotted(name, false), pos)
		}, nil
	case ast.DotIdent:
		name := e.Name
		pos := e.Pos
		return func(act *interp.Activation) celtypes.Val {
			return annotate(act.ResolveDotted(name, true), pos)
		}, nil

	case ast.ParenExpr:
		return c.compile(e.Children[0], depth+1)

	case ast.MemberDot:
		return c.compileMemberDot(e, depth)
	case ast.MemberIndex:
		return c.compileIndex(e, depth)
	case ast.MemberObject:
		return c.compileObject(e, depth)
	case ast.ListLit:
		return c.compileListLit(e, depth)
	case ast.MapLit:
		return c.compileMapLit(e, depth)

	case ast.UnaryNot:
		return c.compileUnary(celtypes.LogicalNot, e, depth)
	case ast.UnaryNeg:
		return c.compileUnary(celtypes.Negate, e, depth)

	case ast.MultiplicationMul:
		return c.compileBinary(celtypes.Multiply, e, depth)
	case ast.MultiplicationDiv:
		return c.compileBinary(celtypes.Divide, e, depth)
	case ast.MultiplicationMod:
		return c.compileBinary(celtypes.Modulo, e, depth)
	case ast.AdditionAdd:
		return c.compileBinary(celtypes.Add, e, depth)
	case ast.AdditionSub:
		return c.compileBinary(celtypes.Subtract, e, depth)
	case ast.RelationLT:
		return c.compileBinary(celtypes.Less, e, depth)
	case ast.RelationLE:
		return c.compileBinary(celtypes.LessEqual, e, depth)
	case ast.RelationGT:
		return c.compileBinary(celtypes.Greater, e, depth)
	case ast.RelationGE:
		return c.compileBinary(celtypes.GreaterEqual, e, depth)
	case ast.RelationEQ:
		return c.compileBinary(celtypes.Equal, e, depth)
	case ast.RelationNE:
		return c.compileBinary(celtypes.NotEqual, e, depth)
	case ast.RelationIn:
		return c.compileBinary(celtypes.In, e, depth)

	case ast.ConditionalAnd:
		lhs, err := c.compile(e.Children[0], depth+1)
		if err != nil {
			return nil, err
		}
		rhs, err := c.compile(e.Children[1], depth+1)
		if err != nil {
			return nil, err
		}
		pos := e.Pos
		return func(act *interp.Activation) celtypes.Val {
			l := lhs(act)
			if b, ok := l.(*celtypes.BoolVal); ok && !b.Value {
				return celtypes.False
			}
			return annotate(celtypes.LogicalAnd(l, rhs(act)), pos)
		}, nil

	case ast.ConditionalOr:
		lhs, err := c.compile(e.Children[0], depth+1)
		if err != nil {
			return nil, err
		}
		rhs, err := c.compile(e.Children[1], depth+1)
		if err != nil {
			return nil, err
		}
		pos := e.Pos
		return func(act *interp.Activation) celtypes.Val {
			l := lhs(act)
			if b, ok := l.(*celtypes.BoolVal); ok && b.Value {
				return celtypes.True
			}
			return annotate(celtypes.LogicalOr(l, rhs(act)), pos)
		}, nil

	case ast.Conditional:
		cond, err := c.compile(e.Children[0], depth+1)
		if err != nil {
			return nil, err
		}
		then, err := c.compile(e.Children[1], depth+1)
		if err != nil {
			return nil, err
		}
		els, err := c.compile(e.Children[2], depth+1)
		if err != nil {
			return nil, err
		}
		pos := e.Pos
		return func(act *interp.Activation) celtypes.Val {
			switch v := cond(act).(type) {
			case *celtypes.EvalError:
				return v
			case *celtypes.BoolVal:
				if v.Value {
					return then(act)
				}
				return els(act)
			default:
				return annotate(celtypes.NewError(celtypes.ErrNoSuchOverload,
					"ternary condition must be bool, found %s", celtypes.TypeOf(v)), pos)
			}
		}, nil

	case ast.IdentArg:
		return c.compileCall(e, depth)
	case ast.DotIdentArg:
		return c.compileFunctionCall(e.Name, e.Children[0], e.Pos, depth)
	case ast.MemberDotArg:
		return c.compileMethodCall(e, depth)
	}

	return nil, fmt.Errorf("unexpected node label %q", e.Label)
}

func constThunk(v celtypes.Val) Thunk {
	return func(*interp.Activation) celtypes.Val { return v }
}

func annotate(v celtypes.Val, pos token.Position) celtypes.Val {
	if err, ok := celtypes.AsError(v); ok {
		return err.At(pos)
	}
	return v
}

func (c *Compiler) compileUnary(op func(celtypes.Val) celtypes.Val, e *ast.Expr, depth int) (Thunk, error) {
	operand, err := c.compile(e.Children[0], depth+1)
	if err != nil {
		return nil, err
	}
	pos := e.Pos
	return func(act *interp.Activation) celtypes.Val {
		return annotate(op(operand(act)), pos)
	}, nil
}

func (c *Compiler) compileBinary(op func(celtypes.Val, celtypes.Val) celtypes.Val, e *ast.Expr, depth int) (Thunk, error) {
	lhs, err := c.compile(e.Children[0], depth+1)
	if err != nil {
		return nil, err
	}
	rhs, err := c.compile(e.Children[1], depth+1)
	if err != nil {
		return nil, err
	}
	pos := e.Pos
	return func(act *interp.Activation) celtypes.Val {
		return annotate(op(lhs(act), rhs(act)), pos)
	}, nil
}

func (c *Compiler) compileMemberDot(e *ast.Expr, depth int) (Thunk, error) {
	if name, absolute, ok := identChain(e); ok {
		pos := e.Pos
		return func(act *interp.Activation) celtypes.Val {
			return annotate(act.ResolveDotted(name, absolute), pos)
		}, nil
	}
	operand, err := c.compile(e.Children[0], depth+1)
	if err != nil {
		return nil, err
	}
	field := e.Name
	pos := e.Pos
	return func(act *interp.Activation) celtypes.Val {
		return annotate(interp.FieldAccess(operand(act), field), pos)
	}, nil
}

func (c *Compiler) compileIndex(e *ast.Expr, depth int) (Thunk, error) {
	operand, err := c.compile(e.Children[0], depth+1)
	if err != nil {
		return nil, err
	}
	index, err := c.compile(e.Children[1], depth+1)
	if err != nil {
		return nil, err
	}
	pos := e.Pos
	return func(act *interp.Activation) celtypes.Val {
		return annotate(interp.IndexAccess(operand(act), index(act)), pos)
	}, nil
}

// compileThunkList compiles an exprlist's children.
func (c *Compiler) compileThunkList(list *ast.Expr, depth int) ([]Thunk, error) {
	thunks := make([]Thunk, len(list.Children))
	for n, child := range list.Children {
		t, err := c.compile(child, depth+1)
		if err != nil {
			return nil, err
		}
		thunks[n] = t
	}
	return thunks, nil
}

// forceAll evaluates thunks left to right, stopping at the first error.
func forceAll(thunks []Thunk, act *interp.Activation) ([]celtypes.Val, *celtypes.EvalError) {
	vals := make([]celtypes.Val, len(thunks))
	for n, t := range thunks {
		v := t(act)
		if err, ok := celtypes.AsError(v); ok {
			return nil, err
		}
		vals[n] = v
	}
	return vals, nil
}

func (c *Compiler) compileListLit(e *ast.Expr, depth int) (Thunk, error) {
	thunks, err := c.compileThunkList(e.Children[0], depth)
	if err != nil {
		return nil, err
	}
	return func(act *interp.Activation) celtypes.Val {
		vals, verr := forceAll(thunks, act)
		if verr != nil {
			return verr
		}
		return celtypes.NewList(vals)
	}, nil
}

func (c *Compiler) compileMapLit(e *ast.Expr, depth int) (Thunk, error) {
	thunks, err := c.compileThunkList(e.Children[0], depth)
	if err != nil {
		return nil, err
	}
	pos := e.Pos
	return func(act *interp.Activation) celtypes.Val {
		pairs, verr := forceAll(thunks, act)
		if verr != nil {
			return verr
		}
		m, merr := celtypes.NewMap(pairs)
		if merr != nil {
			return merr.At(pos)
		}
		return m
	}, nil
}

func (c *Compiler) compileObject(e *ast.Expr, depth int) (Thunk, error) {
	inits := e.Children[0]
	fields := make([]string, 0, len(inits.Children)/2)
	valueThunks := make([]Thunk, 0, len(inits.Children)/2)
	for n := 0; n+1 < len(inits.Children); n += 2 {
		fields = append(fields, inits.Children[n].Name)
		t, err := c.compile(inits.Children[n+1], depth+1)
		if err != nil {
			return nil, err
		}
		valueThunks = append(valueThunks, t)
	}
	typeName := e.Name
	return func(act *interp.Activation) celtypes.Val {
		values, verr := forceAll(valueThunks, act)
		if verr != nil {
			return verr
		}
		decls, resolved := act.ResolveMessageDecls(typeName)
		msg, merr := celtypes.NewMessage(resolved, decls, fields, values)
		if merr != nil {
			return merr
		}
		return msg
	}, nil
}

func (c *Compiler) compileCall(e *ast.Expr, depth int) (Thunk, error) {
	args := e.Children[0]
	switch e.Name {
	case "has":
		if len(args.Children) != 1 {
			return nil, fmt.Errorf("has() takes 1 argument, found %d", len(args.Children))
		}
		return c.compileHas(args.Children[0], depth)
	case "dyn":
		if len(args.Children) != 1 {
			return nil, fmt.Errorf("dyn() takes 1 argument, found %d", len(args.Children))
		}
		return c.compile(args.Children[0], depth+1)
	}
	return c.compileFunctionCall(e.Name, args, e.Pos, depth)
}

func (c *Compiler) compileHas(arg *ast.Expr, depth int) (Thunk, error) {
	target := arg
	for target.Label == ast.ParenExpr {
		target = target.Children[0]
	}
	if target.Label != ast.MemberDot {
		return nil, fmt.Errorf("has() requires a field selection")
	}
	operand, err := c.compile(target.Children[0], depth+1)
	if err != nil {
		return nil, err
	}
	field := target.Name
	return func(act *interp.Activation) celtypes.Val {
		return interp.HasMacro(operand(act), field)
	}, nil
}

func (c *Compiler) compileFunctionCall(name string, args *ast.Expr, pos token.Position, depth int) (Thunk, error) {
	thunks, err := c.compileThunkList(args, depth)
	if err != nil {
		return nil, err
	}
	return func(act *interp.Activation) celtypes.Val {
		vals, verr := forceAll(thunks, act)
		if verr != nil {
			return verr
		}
		return annotate(interp.Dispatch(act, name, vals), pos)
	}, nil
}

func (c *Compiler) compileMethodCall(e *ast.Expr, depth int) (Thunk, error) {
	target := e.Children[0]
	args := e.Children[1]
	name := e.Name
	pos := e.Pos

	if interp.IsComprehensionMacro(name, len(args.Children)) {
		loopVar := args.Children[0]
		if loopVar.Label != ast.Ident {
			return nil, fmt.Errorf("%s() loop variable must be an identifier", name)
		}
		rangeThunk, err := c.compile(target, depth+1)
		if err != nil {
			return nil, err
		}
		bodyThunk, err := c.compile(args.Children[1], depth+1)
		if err != nil {
			return nil, err
		}
		varName := loopVar.Name
		return func(act *interp.Activation) celtypes.Val {
			elems, iterErr := interp.IterableElems(rangeThunk(act))
			if iterErr != nil {
				return iterErr
			}
			return annotate(interp.RunComprehension(name, elems, func(elem celtypes.Val) celtypes.Val {
				return bodyThunk(act.ExtendValue(varName, elem))
			}), pos)
		}, nil
	}

	recvThunk, err := c.compile(target, depth+1)
	if err != nil {
		return nil, err
	}
	argThunks, err := c.compileThunkList(args, depth)
	if err != nil {
		return nil, err
	}
	return func(act *interp.Activation) celtypes.Val {
		recv := recvThunk(act)
		if rerr, ok := celtypes.AsError(recv); ok {
			return rerr
		}
		vals, verr := forceAll(argThunks, act)
		if verr != nil {
			return verr
		}
		return annotate(interp.Dispatch(act, name, append([]celtypes.Val{recv}, vals...)), pos)
	}, nil
}

// identChain mirrors the evaluator's pure-identifier chain detection.
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
