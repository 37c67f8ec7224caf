package celtypes

import (
	"fmt"

	"github.com/cwbudde/go-cel/pkg/token"
)

// ErrKind is the stable tag on an evaluation error. The tag is the contract
// for automated matching; message text is advisory.
type ErrKind string

// Evaluation error kinds.
const (
	ErrParse            ErrKind = "parse"
	ErrNoSuchIdentifier ErrKind = "no-such-identifier"
	ErrNoSuchKey        ErrKind = "no-such-key"
	ErrNoSuchField      ErrKind = "no-such-field"
	ErrNoSuchOverload   ErrKind = "no-such-overload"
	ErrNoSuchFunction   ErrKind = "no-such-function"
	ErrOverflow         ErrKind = "overflow"
	ErrDivideByZero     ErrKind = "divide-by-zero"
	ErrRange            ErrKind = "range"
	ErrInvalidArgument  ErrKind = "invalid-argument"
	ErrTypeError        ErrKind = "type-error"
	ErrFunctionError    ErrKind = "function-error"
)

// Standard error message formats. Messages start lowercase, use present
// tense, and include the operand types or names involved.
const (
	MsgNoSuchOverload   = "found no matching overload for %q applied to (%s, %s)"
	MsgNoSuchUnary      = "found no matching overload for %q applied to (%s)"
	MsgNoSuchIdentifier = "undeclared reference to %q"
	MsgNoSuchKey        = "no such key: %s"
	MsgNoSuchField      = "no such field: %s"
	MsgNoSuchFunction   = "unbound function: %s"
	MsgOverflow         = "return error for overflow"
	MsgDivideByZero     = "divide by zero"
	MsgModulusByZero    = "modulus by zero"
)

// EvalError is an evaluation error. It is a value within the evaluator's
// domain: operators propagate it, short-circuit sites may absorb it, and it
// only becomes a Go error at the top of evaluate.
type EvalError struct {
	Code ErrKind
	Msg  string
	Pos  *token.Position
}

// Kind returns KindError.
func (e *EvalError) Kind() Kind {
	return KindError
}

// String returns the display form, matching Error().
func (e *EvalError) String() string {
	return e.Error()
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Pos != nil && e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// At returns a copy of the error annotated with a source position. Errors
// that already carry a position are returned unchanged, so the innermost
// location wins.
func (e *EvalError) At(pos token.Position) *EvalError {
	if e.Pos != nil || !pos.IsValid() {
		return e
	}
	p := pos
	return &EvalError{Code: e.Code, Msg: e.Msg, Pos: &p}
}

// NewError creates an EvalError with a formatted message.
func NewError(kind ErrKind, format string, args ...any) *EvalError {
	return &EvalError{Code: kind, Msg: fmt.Sprintf(format, args...)}
}

// NoSuchOverload is the standard error for an undefined binary type pairing.
func NoSuchOverload(op string, lhs, rhs Val) *EvalError {
	return NewError(ErrNoSuchOverload, MsgNoSuchOverload, op, TypeOf(lhs), TypeOf(rhs))
}

// NoSuchUnaryOverload is the standard error for an undefined unary operand.
func NoSuchUnaryOverload(op string, v Val) *EvalError {
	return NewError(ErrNoSuchOverload, MsgNoSuchUnary, op, TypeOf(v))
}

// IsError reports whether v is an evaluation error.
func IsError(v Val) bool {
	_, ok := v.(*EvalError)
	return ok
}

// AsError returns v as an EvalError when it is one.
func AsError(v Val) (*EvalError, bool) {
	e, ok := v.(*EvalError)
	return e, ok
}
