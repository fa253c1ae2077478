// Package ast defines the COOL syntax tree. Expressions form a closed set:
// only the types in this file implement Expression, and passes switch over
// them exhaustively.
package ast

import (
	"coolc/lexer"
)

type Node interface {
	TokenLiteral() string
	Pos() lexer.Token
}

// Expression is implemented by every expression node. The type-check pass
// writes the inferred type with SetType.
type Expression interface {
	Node
	Type() ExprType
	SetType(ExprType)
	Typed() bool
	expressionNode()
}

type Feature interface {
	Node
	featureNode()
}

// typed carries the annotation shared by all expression nodes.
type typed struct {
	exprType ExprType
	set      bool
}

func (t *typed) Type() ExprType { return t.exprType }
func (t *typed) Typed() bool    { return t.set }

func (t *typed) SetType(et ExprType) {
	t.exprType = et
	t.set = true
}

type TypeIdentifier struct {
	Token lexer.Token
	Value string
}

func (ti *TypeIdentifier) TokenLiteral() string { return ti.Token.Literal }
func (ti *TypeIdentifier) Pos() lexer.Token     { return ti.Token }

type Program struct {
	Classes []*Class
}

func (p *Program) TokenLiteral() string { return "" }
func (p *Program) Pos() lexer.Token     { return lexer.Token{} }

type Class struct {
	Token    lexer.Token
	Name     *TypeIdentifier
	Parent   *TypeIdentifier
	Features []Feature
}

func (c *Class) TokenLiteral() string { return c.Token.Literal }
func (c *Class) Pos() lexer.Token     { return c.Token }

// ParentName returns the declared parent, Object when none was written.
func (c *Class) ParentName() string {
	if c.Parent == nil || c.Parent.Value == "" {
		return "Object"
	}
	return c.Parent.Value
}

type Attribute struct {
	Token lexer.Token
	Name  *ObjectIdentifier
	Type  *TypeIdentifier
	Init  Expression
}

func (a *Attribute) TokenLiteral() string { return a.Token.Literal }
func (a *Attribute) Pos() lexer.Token     { return a.Token }
func (a *Attribute) featureNode()         {}

type Method struct {
	Token      lexer.Token
	Name       *ObjectIdentifier
	Parameters []*Formal
	ReturnType *TypeIdentifier
	Body       Expression
}

func (m *Method) TokenLiteral() string { return m.Token.Literal }
func (m *Method) Pos() lexer.Token     { return m.Token }
func (m *Method) featureNode()         {}

type Formal struct {
	Token lexer.Token
	Name  *ObjectIdentifier
	Type  *TypeIdentifier
}

func (f *Formal) TokenLiteral() string { return f.Token.Literal }
func (f *Formal) Pos() lexer.Token     { return f.Token }

type ObjectIdentifier struct {
	typed
	Token lexer.Token
	Value string
}

func (oi *ObjectIdentifier) TokenLiteral() string { return oi.Token.Literal }
func (oi *ObjectIdentifier) Pos() lexer.Token     { return oi.Token }
func (oi *ObjectIdentifier) expressionNode()      {}

type IntegerLiteral struct {
	typed
	Token lexer.Token
	Value int32
}

func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) Pos() lexer.Token     { return il.Token }
func (il *IntegerLiteral) expressionNode()      {}

type StringLiteral struct {
	typed
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Pos() lexer.Token     { return sl.Token }
func (sl *StringLiteral) expressionNode()      {}

type BooleanLiteral struct {
	typed
	Token lexer.Token
	Value bool
}

func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) Pos() lexer.Token     { return bl.Token }
func (bl *BooleanLiteral) expressionNode()      {}

type BinaryOp int

const (
	OpPlus BinaryOp = iota + 1
	OpMinus
	OpTimes
	OpDivide
)

func (op BinaryOp) String() string {
	switch op {
	case OpPlus:
		return "+"
	case OpMinus:
		return "-"
	case OpTimes:
		return "*"
	case OpDivide:
		return "/"
	}
	return "?"
}

// BinaryExpression is an arithmetic operation over two Int operands.
type BinaryExpression struct {
	typed
	Token    lexer.Token
	Left     Expression
	Operator BinaryOp
	Right    Expression
}

func (be *BinaryExpression) TokenLiteral() string { return be.Token.Literal }
func (be *BinaryExpression) Pos() lexer.Token     { return be.Token }
func (be *BinaryExpression) expressionNode()      {}

type CompareOp int

const (
	OpLess CompareOp = iota + 1
	OpLessEqual
	OpEqual
)

func (op CompareOp) String() string {
	switch op {
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	case OpEqual:
		return "="
	}
	return "?"
}

type ComparisonExpression struct {
	typed
	Token    lexer.Token
	Left     Expression
	Operator CompareOp
	Right    Expression
}

func (ce *ComparisonExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *ComparisonExpression) Pos() lexer.Token     { return ce.Token }
func (ce *ComparisonExpression) expressionNode()      {}

type UnaryOp int

const (
	OpIsVoid UnaryOp = iota + 1
	OpNot
	OpComplement
	OpParen
)

func (op UnaryOp) String() string {
	switch op {
	case OpIsVoid:
		return "isvoid"
	case OpNot:
		return "not"
	case OpComplement:
		return "~"
	case OpParen:
		return "()"
	}
	return "?"
}

type UnaryExpression struct {
	typed
	Token      lexer.Token
	Operator   UnaryOp
	Expression Expression
}

func (ue *UnaryExpression) TokenLiteral() string { return ue.Token.Literal }
func (ue *UnaryExpression) Pos() lexer.Token     { return ue.Token }
func (ue *UnaryExpression) expressionNode()      {}

// BlockExpression holds at least one expression; the parser guarantees it.
type BlockExpression struct {
	typed
	Token       lexer.Token
	Expressions []Expression
}

func (be *BlockExpression) TokenLiteral() string { return be.Token.Literal }
func (be *BlockExpression) Pos() lexer.Token     { return be.Token }
func (be *BlockExpression) expressionNode()      {}

type IfExpression struct {
	typed
	Token       lexer.Token
	Condition   Expression
	Consequence Expression
	Alternative Expression
}

func (ie *IfExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IfExpression) Pos() lexer.Token     { return ie.Token }
func (ie *IfExpression) expressionNode()      {}

type WhileExpression struct {
	typed
	Token     lexer.Token
	Condition Expression
	Body      Expression
}

func (we *WhileExpression) TokenLiteral() string { return we.Token.Literal }
func (we *WhileExpression) Pos() lexer.Token     { return we.Token }
func (we *WhileExpression) expressionNode()      {}

type NewExpression struct {
	typed
	Token lexer.Token
	Class *TypeIdentifier
}

func (ne *NewExpression) TokenLiteral() string { return ne.Token.Literal }
func (ne *NewExpression) Pos() lexer.Token     { return ne.Token }
func (ne *NewExpression) expressionNode()      {}

type Assignment struct {
	typed
	Token      lexer.Token
	Name       *ObjectIdentifier
	Expression Expression
}

func (a *Assignment) TokenLiteral() string { return a.Token.Literal }
func (a *Assignment) Pos() lexer.Token     { return a.Token }
func (a *Assignment) expressionNode()      {}

// Binding is one `id : Type [<- init]` of a let.
type Binding struct {
	Name *ObjectIdentifier
	Type *TypeIdentifier
	Init Expression
}

type LetExpression struct {
	typed
	Token    lexer.Token
	Bindings []*Binding
	Body     Expression
}

func (le *LetExpression) TokenLiteral() string { return le.Token.Literal }
func (le *LetExpression) Pos() lexer.Token     { return le.Token }
func (le *LetExpression) expressionNode()      {}

type Case struct {
	Token      lexer.Token
	Name       *ObjectIdentifier
	Type       *TypeIdentifier
	Expression Expression
}

func (c *Case) TokenLiteral() string { return c.Token.Literal }
func (c *Case) Pos() lexer.Token     { return c.Token }

type CaseExpression struct {
	typed
	Token      lexer.Token
	Expression Expression
	Cases      []*Case
}

func (ce *CaseExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CaseExpression) Pos() lexer.Token     { return ce.Token }
func (ce *CaseExpression) expressionNode()      {}

// Dispatch is a method call. Object is nil for `f(...)`, which dispatches on
// self. StaticType is set for `e@T.f(...)`.
type Dispatch struct {
	typed
	Token      lexer.Token
	Object     Expression
	StaticType *TypeIdentifier
	Method     *ObjectIdentifier
	Arguments  []Expression
}

func (d *Dispatch) TokenLiteral() string { return d.Token.Literal }
func (d *Dispatch) Pos() lexer.Token     { return d.Token }
func (d *Dispatch) expressionNode()      {}
