// Package ast defines the labeled parse tree the evaluator and the closure
// compiler consume. Trees are built once by the parser and never mutated.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/go-cel/pkg/token"
)

// Label identifies the grammatical production a node was parsed from.
type Label string

// Node labels. Every consumer dispatches on this set and nothing else.
const (
	IntLit    Label = "int_lit"
	UintLit   Label = "uint_lit"
	DoubleLit Label = "double_lit"
	StringLit Label = "string_lit"
	BytesLit  Label = "bytes_lit"
	BoolLit   Label = "bool_lit"
	NullLit   Label = "null_lit"

	Ident Label = "ident"

	MemberDot    Label = "member_dot"    // e.f
	MemberIndex  Label = "member_index"  // e[i]
	MemberObject Label = "member_object" // Name{fieldinits}

	IdentArg     Label = "ident_arg"      // f(args)
	MemberDotArg Label = "member_dot_arg" // e.f(args)
	DotIdent     Label = "dot_ident"      // .a.b
	DotIdentArg  Label = "dot_ident_arg"  // .a.b(args)

	UnaryNot Label = "unary_not"
	UnaryNeg Label = "unary_neg"

	MultiplicationMul Label = "multiplication_mul"
	MultiplicationDiv Label = "multiplication_div"
	MultiplicationMod Label = "multiplication_mod"
	AdditionAdd       Label = "addition_add"
	AdditionSub       Label = "addition_sub"

	RelationLT Label = "relation_lt"
	RelationLE Label = "relation_le"
	RelationGT Label = "relation_gt"
	RelationGE Label = "relation_ge"
	RelationEQ Label = "relation_eq"
	RelationNE Label = "relation_ne"
	RelationIn Label = "relation_in"

	ConditionalAnd Label = "conditionaland"
	ConditionalOr  Label = "conditionalor"
	Conditional    Label = "expr" // c ? a : b

	ListLit    Label = "list_lit"
	MapLit     Label = "map_lit"
	ExprList   Label = "exprlist"
	MapInits   Label = "mapinits"
	FieldInits Label = "fieldinits"

	ParenExpr Label = "paren_expr"
)

// Expr is one node of the parse tree. The literal payload fields are
// populated only for the literal labels; Name is set for identifiers, field
// selections, call targets and object type names. Other labels carry only
// children.
//
// Trees are immutable after parsing and may be traversed concurrently.
type Expr struct {
	Label    Label
	Pos      token.Position
	Children []*Expr

	// Terminal payloads
	Name      string // Ident, MemberDot field, call target, object type name
	IntVal    int64
	UintVal   uint64
	DoubleVal float64
	StrVal    string
	BytesVal  []byte
	BoolVal   bool
}

// String renders the tree in a compact s-expression form, used by the CLI
// parse command and the parser tests.
func (e *Expr) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e *Expr) write(sb *strings.Builder) {
	switch e.Label {
	case IntLit:
		fmt.Fprintf(sb, "%s(%d)", e.Label, e.IntVal)
		return
	case UintLit:
		fmt.Fprintf(sb, "%s(%du)", e.Label, e.UintVal)
		return
	case DoubleLit:
		fmt.Fprintf(sb, "%s(%s)", e.Label, strconv.FormatFloat(e.DoubleVal, 'g', -1, 64))
		return
	case StringLit:
		fmt.Fprintf(sb, "%s(%q)", e.Label, e.StrVal)
		return
	case BytesLit:
		fmt.Fprintf(sb, "%s(%q)", e.Label, e.BytesVal)
		return
	case BoolLit:
		fmt.Fprintf(sb, "%s(%t)", e.Label, e.BoolVal)
		return
	case NullLit:
		sb.WriteString(string(e.Label))
		return
	case Ident:
		fmt.Fprintf(sb, "%s(%s)", e.Label, e.Name)
		return
	}

	sb.WriteString(string(e.Label))
	if e.Name != "" {
		fmt.Fprintf(sb, "[%s]", e.Name)
	}
	sb.WriteString("(")
	for i, c := range e.Children {
		if i > 0 {
			sb.WriteString(", ")
		}
		c.write(sb)
	}
	sb.WriteString(")")
}
