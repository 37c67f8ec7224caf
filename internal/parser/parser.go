// Package parser builds the labeled CEL parse tree from source text.
//
// The parser is a hand-written recursive-descent implementation of the CEL
// operator grammar: each precedence level has its own parse method, and
// member access, indexing, calls and object construction are handled by a
// postfix loop. The produced tree uses only the ast label set.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/go-cel/internal/ast"
	"github.com/cwbudde/go-cel/internal/lexer"
	"github.com/cwbudde/go-cel/pkg/token"
)

// Error is a syntax error with its source position.
type Error struct {
	Msg string
	Pos token.Position
}

// Error implements the error interface.
func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Parser parses a single CEL expression.
type Parser struct {
	l        *lexer.Lexer
	errors   []Error
	curTok   token.Token
	peekTok  token.Token
	depth    int
	maxDepth int
}

// DefaultMaxDepth bounds expression nesting. CEL conformance requires
// at least 2500 levels; keep headroom above that.
const DefaultMaxDepth = 3000

// New creates a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l, maxDepth: DefaultMaxDepth}
	p.nextToken()
	p.nextToken()
	return p
}

// SetMaxDepth overrides the nesting limit.
func (p *Parser) SetMaxDepth(n int) {
	if n > 0 {
		p.maxDepth = n
	}
}

// Errors returns all syntax errors, including lexical ones.
func (p *Parser) Errors() []Error {
	errs := make([]Error, 0, len(p.errors)+len(p.l.Errors()))
	for _, le := range p.l.Errors() {
		errs = append(errs, Error{Msg: le.Msg, Pos: le.Pos})
	}
	errs = append(errs, p.errors...)
	return errs
}

// ParseExpression parses the whole input as one expression. The input must
// be fully consumed; trailing tokens are a syntax error.
func (p *Parser) ParseExpression() *ast.Expr {
	expr := p.parseExpr()
	if expr != nil && p.curTok.Type != token.EOF {
		p.errorf(p.curTok.Pos, "unexpected trailing token %s", p.curTok.Type)
		return nil
	}
	if len(p.Errors()) > 0 {
		return nil
	}
	return expr
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) errorf(pos token.Position, format string, args ...any) {
	p.errors = append(p.errors, Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(t token.Type) bool {
	if p.curTok.Type != t {
		p.errorf(p.curTok.Pos, "expected %s, found %s", t, p.curTok.Type)
		return false
	}
	p.nextToken()
	return true
}

func (p *Parser) enter(pos token.Position) bool {
	p.depth++
	if p.depth > p.maxDepth {
		p.errorf(pos, "expression nesting exceeds %d levels", p.maxDepth)
		return false
	}
	return true
}

func (p *Parser) leave() {
	p.depth--
}

// parseExpr parses the ternary level: ConditionalOr ["?" ConditionalOr ":" Expr].
func (p *Parser) parseExpr() *ast.Expr {
	pos := p.curTok.Pos
	if !p.enter(pos) {
		return nil
	}
	defer p.leave()

	cond := p.parseConditionalOr()
	if cond == nil {
		return nil
	}
	if p.curTok.Type != token.QUESTION {
		return cond
	}
	p.nextToken()
	then := p.parseConditionalOr()
	if then == nil {
		return nil
	}
	if !p.expect(token.COLON) {
		return nil
	}
	els := p.parseExpr()
	if els == nil {
		return nil
	}
	return &ast.Expr{Label: ast.Conditional, Pos: pos, Children: []*ast.Expr{cond, then, els}}
}

func (p *Parser) parseConditionalOr() *ast.Expr {
	left := p.parseConditionalAnd()
	for left != nil && p.curTok.Type == token.OR {
		pos := p.curTok.Pos
		p.nextToken()
		right := p.parseConditionalAnd()
		if right == nil {
			return nil
		}
		left = &ast.Expr{Label: ast.ConditionalOr, Pos: pos, Children: []*ast.Expr{left, right}}
	}
	return left
}

func (p *Parser) parseConditionalAnd() *ast.Expr {
	left := p.parseRelation()
	for left != nil && p.curTok.Type == token.AND {
		pos := p.curTok.Pos
		p.nextToken()
		right := p.parseRelation()
		if right == nil {
			return nil
		}
		left = &ast.Expr{Label: ast.ConditionalAnd, Pos: pos, Children: []*ast.Expr{left, right}}
	}
	return left
}

var relationLabels = map[token.Type]ast.Label{
	token.LT: ast.RelationLT,
	token.LE: ast.RelationLE,
	token.GT: ast.RelationGT,
	token.GE: ast.RelationGE,
	token.EQ: ast.RelationEQ,
	token.NE: ast.RelationNE,
	token.IN: ast.RelationIn,
}

func (p *Parser) parseRelation() *ast.Expr {
	left := p.parseAddition()
	for left != nil {
		label, ok := relationLabels[p.curTok.Type]
		if !ok {
			break
		}
		pos := p.curTok.Pos
		p.nextToken()
		right := p.parseAddition()
		if right == nil {
			return nil
		}
		left = &ast.Expr{Label: label, Pos: pos, Children: []*ast.Expr{left, right}}
	}
	return left
}

func (p *Parser) parseAddition() *ast.Expr {
	left := p.parseMultiplication()
	for left != nil && (p.curTok.Type == token.PLUS || p.curTok.Type == token.MINUS) {
		label := ast.AdditionAdd
		if p.curTok.Type == token.MINUS {
			label = ast.AdditionSub
		}
		pos := p.curTok.Pos
		p.nextToken()
		right := p.parseMultiplication()
		if right == nil {
			return nil
		}
		left = &ast.Expr{Label: label, Pos: pos, Children: []*ast.Expr{left, right}}
	}
	return left
}

func (p *Parser) parseMultiplication() *ast.Expr {
	left := p.parseUnary()
	for left != nil {
		var label ast.Label
		switch p.curTok.Type {
		case token.STAR:
			label = ast.MultiplicationMul
		case token.SLASH:
			label = ast.MultiplicationDiv
		case token.PERCENT:
			label = ast.MultiplicationMod
		default:
			return left
		}
		pos := p.curTok.Pos
		p.nextToken()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = &ast.Expr{Label: label, Pos: pos, Children: []*ast.Expr{left, right}}
	}
	return left
}

func (p *Parser) parseUnary() *ast.Expr {
	pos := p.curTok.Pos
	if !p.enter(pos) {
		return nil
	}
	defer p.leave()

	switch p.curTok.Type {
	case token.BANG:
		p.nextToken()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.Expr{Label: ast.UnaryNot, Pos: pos, Children: []*ast.Expr{operand}}
	case token.MINUS:
		// Fold the sign into a directly following numeric literal so that
		// -9223372036854775808 parses without overflowing on the way in.
		if p.peekTok.Type == token.INT || p.peekTok.Type == token.FLOAT {
			p.nextToken()
			return p.parseNumericLiteral(true)
		}
		p.nextToken()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.Expr{Label: ast.UnaryNeg, Pos: pos, Children: []*ast.Expr{operand}}
	}
	return p.parseMember()
}

// parseMember parses a primary followed by any number of postfix selections:
// field access, method call, indexing, and object construction.
func (p *Parser) parseMember() *ast.Expr {
	expr := p.parsePrimary()
	for expr != nil {
		switch p.curTok.Type {
		case token.DOT:
			pos := p.curTok.Pos
			p.nextToken()
			if p.curTok.Type != token.IDENT && p.curTok.Type != token.IN {
				p.errorf(p.curTok.Pos, "expected field name after '.', found %s", p.curTok.Type)
				return nil
			}
			name := p.curTok.Literal
			p.nextToken()
			if p.curTok.Type == token.LPAREN {
				args := p.parseCallArgs()
				if args == nil {
					return nil
				}
				expr = &ast.Expr{Label: ast.MemberDotArg, Pos: pos, Name: name, Children: []*ast.Expr{expr, args}}
			} else {
				expr = &ast.Expr{Label: ast.MemberDot, Pos: pos, Name: name, Children: []*ast.Expr{expr}}
			}
		case token.LBRACKET:
			pos := p.curTok.Pos
			p.nextToken()
			index := p.parseExpr()
			if index == nil {
				return nil
			}
			if !p.expect(token.RBRACKET) {
				return nil
			}
			expr = &ast.Expr{Label: ast.MemberIndex, Pos: pos, Children: []*ast.Expr{expr, index}}
		case token.LBRACE:
			// Object construction on a (possibly dotted) type name.
			name, ok := dottedName(expr)
			if !ok {
				return expr
			}
			pos := p.curTok.Pos
			inits := p.parseFieldInits()
			if inits == nil {
				return nil
			}
			expr = &ast.Expr{Label: ast.MemberObject, Pos: pos, Name: name, Children: []*ast.Expr{inits}}
		default:
			return expr
		}
	}
	return expr
}

// dottedName flattens an ident / member_dot chain into "a.b.c".
func dottedName(e *ast.Expr) (string, bool) {
	switch e.Label {
	case ast.Ident:
		return e.Name, true
	case ast.DotIdent:
		return e.Name, true
	case ast.MemberDot:
		prefix, ok := dottedName(e.Children[0])
		if !ok {
			return "", false
		}
		return prefix + "." + e.Name, true
	}
	return "", false
}

func (p *Parser) parsePrimary() *ast.Expr {
	pos := p.curTok.Pos
	switch p.curTok.Type {
	case token.INT, token.FLOAT:
		return p.parseNumericLiteral(false)
	case token.UINT:
		lit := p.curTok.Literal
		p.nextToken()
		var v uint64
		var err error
		if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
			v, err = strconv.ParseUint(lit[2:], 16, 64)
		} else {
			v, err = strconv.ParseUint(lit, 10, 64)
		}
		if err != nil {
			p.errorf(pos, "invalid uint literal %q", lit)
			return nil
		}
		return &ast.Expr{Label: ast.UintLit, Pos: pos, UintVal: v}
	case token.STRING:
		e := &ast.Expr{Label: ast.StringLit, Pos: pos, StrVal: p.curTok.Literal}
		p.nextToken()
		return e
	case token.BYTES:
		e := &ast.Expr{Label: ast.BytesLit, Pos: pos, BytesVal: []byte(p.curTok.Literal)}
		p.nextToken()
		return e
	case token.TRUE, token.FALSE:
		e := &ast.Expr{Label: ast.BoolLit, Pos: pos, BoolVal: p.curTok.Type == token.TRUE}
		p.nextToken()
		return e
	case token.NULL:
		p.nextToken()
		return &ast.Expr{Label: ast.NullLit, Pos: pos}
	case token.IDENT:
		name := p.curTok.Literal
		p.nextToken()
		if p.curTok.Type == token.LPAREN {
			args := p.parseCallArgs()
			if args == nil {
				return nil
			}
			return &ast.Expr{Label: ast.IdentArg, Pos: pos, Name: name, Children: []*ast.Expr{args}}
		}
		return &ast.Expr{Label: ast.Ident, Pos: pos, Name: name}
	case token.DOT:
		// Leading-dot qualified name: .a.b or .a.b(args)
		p.nextToken()
		if p.curTok.Type != token.IDENT {
			p.errorf(p.curTok.Pos, "expected identifier after leading '.', found %s", p.curTok.Type)
			return nil
		}
		name := p.curTok.Literal
		p.nextToken()
		for p.curTok.Type == token.DOT && p.peekTok.Type == token.IDENT {
			p.nextToken()
			name += "." + p.curTok.Literal
			p.nextToken()
		}
		if p.curTok.Type == token.LPAREN {
			args := p.parseCallArgs()
			if args == nil {
				return nil
			}
			return &ast.Expr{Label: ast.DotIdentArg, Pos: pos, Name: name, Children: []*ast.Expr{args}}
		}
		return &ast.Expr{Label: ast.DotIdent, Pos: pos, Name: name}
	case token.LPAREN:
		p.nextToken()
		inner := p.parseExpr()
		if inner == nil {
			return nil
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
		return &ast.Expr{Label: ast.ParenExpr, Pos: pos, Children: []*ast.Expr{inner}}
	case token.LBRACKET:
		p.nextToken()
		elems := p.parseExprList(token.RBRACKET)
		if elems == nil {
			return nil
		}
		if !p.expect(token.RBRACKET) {
			return nil
		}
		return &ast.Expr{Label: ast.ListLit, Pos: pos, Children: []*ast.Expr{elems}}
	case token.LBRACE:
		inits := p.parseMapInits()
		if inits == nil {
			return nil
		}
		return &ast.Expr{Label: ast.MapLit, Pos: pos, Children: []*ast.Expr{inits}}
	}
	p.errorf(pos, "unexpected token %s", p.curTok.Type)
	return nil
}

// parseNumericLiteral parses the current INT or FLOAT token, optionally
// applying a leading minus folded in by parseUnary.
func (p *Parser) parseNumericLiteral(negated bool) *ast.Expr {
	pos := p.curTok.Pos
	lit := p.curTok.Literal
	typ := p.curTok.Type
	p.nextToken()

	sign := ""
	if negated {
		sign = "-"
	}
	if typ == token.FLOAT {
		v, err := strconv.ParseFloat(sign+lit, 64)
		if err != nil {
			p.errorf(pos, "invalid double literal %q", lit)
			return nil
		}
		return &ast.Expr{Label: ast.DoubleLit, Pos: pos, DoubleVal: v}
	}
	var v int64
	var err error
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		v, err = strconv.ParseInt(sign+lit[2:], 16, 64)
	} else {
		v, err = strconv.ParseInt(sign+lit, 10, 64)
	}
	if err != nil {
		p.errorf(pos, "invalid int literal %q", lit)
		return nil
	}
	return &ast.Expr{Label: ast.IntLit, Pos: pos, IntVal: v}
}

// parseCallArgs parses "(" [ExprList] ")" and returns the exprlist node.
func (p *Parser) parseCallArgs() *ast.Expr {
	if !p.expect(token.LPAREN) {
		return nil
	}
	args := p.parseExprList(token.RPAREN)
	if args == nil {
		return nil
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	return args
}

// parseExprList parses a comma-separated expression list up to (and not
// including) the given closing token. Trailing commas are allowed, as in the
// reference grammar's aggregate forms.
func (p *Parser) parseExprList(closing token.Type) *ast.Expr {
	list := &ast.Expr{Label: ast.ExprList, Pos: p.curTok.Pos}
	for p.curTok.Type != closing && p.curTok.Type != token.EOF {
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		list.Children = append(list.Children, e)
		if p.curTok.Type != token.COMMA {
			break
		}
		p.nextToken()
	}
	return list
}

// parseMapInits parses "{" [k:v {"," k:v}] "}" and returns the mapinits node
// with alternating key/value children.
func (p *Parser) parseMapInits() *ast.Expr {
	pos := p.curTok.Pos
	if !p.expect(token.LBRACE) {
		return nil
	}
	inits := &ast.Expr{Label: ast.MapInits, Pos: pos}
	for p.curTok.Type != token.RBRACE && p.curTok.Type != token.EOF {
		key := p.parseExpr()
		if key == nil {
			return nil
		}
		if !p.expect(token.COLON) {
			return nil
		}
		val := p.parseExpr()
		if val == nil {
			return nil
		}
		inits.Children = append(inits.Children, key, val)
		if p.curTok.Type != token.COMMA {
			break
		}
		p.nextToken()
	}
	if !p.expect(token.RBRACE) {
		return nil
	}
	return inits
}

// parseFieldInits parses "{" [f: v {"," f: v}] "}" for object construction.
// Children alternate between ident nodes (field names) and value expressions.
func (p *Parser) parseFieldInits() *ast.Expr {
	pos := p.curTok.Pos
	if !p.expect(token.LBRACE) {
		return nil
	}
	inits := &ast.Expr{Label: ast.FieldInits, Pos: pos}
	for p.curTok.Type != token.RBRACE && p.curTok.Type != token.EOF {
		if p.curTok.Type != token.IDENT {
			p.errorf(p.curTok.Pos, "expected field name, found %s", p.curTok.Type)
			return nil
		}
		field := &ast.Expr{Label: ast.Ident, Pos: p.curTok.Pos, Name: p.curTok.Literal}
		p.nextToken()
		if !p.expect(token.COLON) {
			return nil
		}
		val := p.parseExpr()
		if val == nil {
			return nil
		}
		inits.Children = append(inits.Children, field, val)
		if p.curTok.Type != token.COMMA {
			break
		}
		p.nextToken()
	}
	if !p.expect(token.RBRACE) {
		return nil
	}
	return inits
}
