package semant

import (
	"fmt"

	"coolc/ast"
	"coolc/status"
)

// TypeCheckPass infers and records the static type of every expression in a
// tree. Children are checked left to right; the first failure is returned
// unchanged and the parent is left untyped.
type TypeCheckPass struct{}

func errorAt(node ast.Node, format string, args ...any) status.Status {
	tok := node.Pos()
	return status.Errorf("line %d:%d: %s", tok.Line, tok.Column, fmt.Sprintf(format, args...))
}

// Visit type-checks expr in ctx.
func (p *TypeCheckPass) Visit(ctx *Context, expr ast.Expression) status.Status {
	switch e := expr.(type) {
	case *ast.BinaryExpression:
		return p.visitBinary(ctx, e)
	case *ast.ComparisonExpression:
		return p.visitComparison(ctx, e)
	case *ast.BlockExpression:
		return p.visitBlock(ctx, e)
	case *ast.BooleanLiteral:
		e.SetType(p.builtin(ctx, BoolClass))
		return status.Ok()
	case *ast.IntegerLiteral:
		e.SetType(p.builtin(ctx, IntClass))
		return status.Ok()
	case *ast.StringLiteral:
		e.SetType(p.builtin(ctx, StringClass))
		return status.Ok()
	case *ast.IfExpression:
		return p.visitIf(ctx, e)
	case *ast.NewExpression:
		return p.visitNew(ctx, e)
	case *ast.UnaryExpression:
		return p.visitUnary(ctx, e)
	case *ast.WhileExpression:
		return p.visitWhile(ctx, e)
	case *ast.ObjectIdentifier:
		return p.visitIdentifier(ctx, e)
	case *ast.Assignment:
		return p.visitAssignment(ctx, e)
	case *ast.LetExpression:
		return p.visitLet(ctx, e)
	case *ast.CaseExpression:
		return p.visitCase(ctx, e)
	case *ast.Dispatch:
		return p.visitDispatch(ctx, e)
	case nil:
		return status.GenericError("missing expression")
	default:
		return errorAt(expr, "unsupported expression %T", expr)
	}
}

func (p *TypeCheckPass) builtin(ctx *Context, name string) ast.ExprType {
	return ast.ExprType{TypeID: ctx.ClassRegistry().TypeID(name)}
}

func (p *TypeCheckPass) is(ctx *Context, t ast.ExprType, name string) bool {
	return t.TypeID == ctx.ClassRegistry().TypeID(name)
}

func (p *TypeCheckPass) visitAll(ctx *Context, exprs ...ast.Expression) status.Status {
	for _, e := range exprs {
		if s := p.Visit(ctx, e); !s.IsOk() {
			return s
		}
	}
	return status.Ok()
}

func (p *TypeCheckPass) visitBinary(ctx *Context, e *ast.BinaryExpression) status.Status {
	if s := p.visitAll(ctx, e.Left, e.Right); !s.IsOk() {
		return s
	}
	if !p.is(ctx, e.Left.Type(), IntClass) || !p.is(ctx, e.Right.Type(), IntClass) {
		return errorAt(e, "operand is not an integer")
	}
	e.SetType(p.builtin(ctx, IntClass))
	return status.Ok()
}

func (p *TypeCheckPass) visitComparison(ctx *Context, e *ast.ComparisonExpression) status.Status {
	if s := p.visitAll(ctx, e.Left, e.Right); !s.IsOk() {
		return s
	}
	left, right := e.Left.Type(), e.Right.Type()
	reg := ctx.ClassRegistry()
	switch e.Operator {
	case ast.OpLess, ast.OpLessEqual:
		if !p.is(ctx, left, IntClass) || !p.is(ctx, right, IntClass) {
			return errorAt(e, "operand is not an integer")
		}
	case ast.OpEqual:
		if (reg.IsBasic(left.TypeID) || reg.IsBasic(right.TypeID)) && left.TypeID != right.TypeID {
			return errorAt(e, "illegal comparison with a basic type")
		}
	default:
		return errorAt(e, "unsupported comparison operation")
	}
	e.SetType(p.builtin(ctx, BoolClass))
	return status.Ok()
}

func (p *TypeCheckPass) visitBlock(ctx *Context, e *ast.BlockExpression) status.Status {
	if len(e.Expressions) == 0 {
		return errorAt(e, "empty block")
	}
	if s := p.visitAll(ctx, e.Expressions...); !s.IsOk() {
		return s
	}
	e.SetType(e.Expressions[len(e.Expressions)-1].Type())
	return status.Ok()
}

func (p *TypeCheckPass) visitIf(ctx *Context, e *ast.IfExpression) status.Status {
	if s := p.visitAll(ctx, e.Condition, e.Consequence, e.Alternative); !s.IsOk() {
		return s
	}
	if !p.is(ctx, e.Condition.Type(), BoolClass) {
		return errorAt(e, "if-condition is not Bool")
	}
	e.SetType(ctx.ClassRegistry().LeastCommonAncestor(e.Consequence.Type(), e.Alternative.Type()))
	return status.Ok()
}

func (p *TypeCheckPass) visitNew(ctx *Context, e *ast.NewExpression) status.Status {
	t, ok := ctx.ClassRegistry().Resolve(e.Class.Value, ctx.CurrentClassID())
	if !ok {
		return errorAt(e, "undefined type in new expression")
	}
	e.SetType(t)
	return status.Ok()
}

func (p *TypeCheckPass) visitUnary(ctx *Context, e *ast.UnaryExpression) status.Status {
	if s := p.Visit(ctx, e.Expression); !s.IsOk() {
		return s
	}
	operand := e.Expression.Type()
	switch e.Operator {
	case ast.OpIsVoid:
		e.SetType(p.builtin(ctx, BoolClass))
	case ast.OpNot:
		if !p.is(ctx, operand, BoolClass) {
			return errorAt(e, "operand is of incorrect type")
		}
		e.SetType(operand)
	case ast.OpComplement:
		if !p.is(ctx, operand, IntClass) {
			return errorAt(e, "operand is of incorrect type")
		}
		e.SetType(operand)
	case ast.OpParen:
		e.SetType(operand)
	default:
		return errorAt(e, "unsupported unary operation")
	}
	return status.Ok()
}

func (p *TypeCheckPass) visitWhile(ctx *Context, e *ast.WhileExpression) status.Status {
	if s := p.Visit(ctx, e.Condition); !s.IsOk() {
		return s
	}
	if !p.is(ctx, e.Condition.Type(), BoolClass) {
		return errorAt(e, "while-condition is not Bool")
	}
	if s := p.Visit(ctx, e.Body); !s.IsOk() {
		return s
	}
	e.SetType(p.builtin(ctx, ObjectClass))
	return status.Ok()
}

func (p *TypeCheckPass) visitIdentifier(ctx *Context, e *ast.ObjectIdentifier) status.Status {
	if e.Value == "self" {
		e.SetType(ctx.SelfType())
		return status.Ok()
	}
	info, ok := ctx.LookupObject(e.Value)
	if !ok {
		return errorAt(e, "undeclared identifier %s", e.Value)
	}
	t, ok := ctx.ClassRegistry().Resolve(info.TypeName, ctx.CurrentClassID())
	if !ok {
		return errorAt(e, "identifier %s has undefined type %s", e.Value, info.TypeName)
	}
	e.SetType(t)
	return status.Ok()
}

func (p *TypeCheckPass) visitAssignment(ctx *Context, e *ast.Assignment) status.Status {
	if e.Name.Value == "self" {
		return errorAt(e, "cannot assign to 'self'")
	}
	if s := p.Visit(ctx, e.Name); !s.IsOk() {
		return s
	}
	if s := p.Visit(ctx, e.Expression); !s.IsOk() {
		return s
	}
	reg := ctx.ClassRegistry()
	declared, value := e.Name.Type(), e.Expression.Type()
	if !reg.Conforms(value, declared) {
		return errorAt(e, "type does not conform: %s assigned to %s of type %s",
			reg.TypeName(value), e.Name.Value, reg.TypeName(declared))
	}
	e.SetType(value)
	return status.Ok()
}

func (p *TypeCheckPass) visitLet(ctx *Context, e *ast.LetExpression) status.Status {
	table := ctx.SymbolTable()
	reg := ctx.ClassRegistry()
	pushed := 0
	defer func() {
		for ; pushed > 0; pushed-- {
			table.ExitScope()
		}
	}()

	for _, b := range e.Bindings {
		if b.Name.Value == "self" {
			return errorAt(b.Name, "'self' cannot be bound in a let expression")
		}
		declared, ok := reg.Resolve(b.Type.Value, ctx.CurrentClassID())
		if !ok {
			return errorAt(b.Type, "undefined type %s in let binding", b.Type.Value)
		}
		if b.Init != nil {
			if s := p.Visit(ctx, b.Init); !s.IsOk() {
				return s
			}
			if !reg.Conforms(b.Init.Type(), declared) {
				return errorAt(b.Name, "type does not conform: %s initializes %s of type %s",
					reg.TypeName(b.Init.Type()), b.Name.Value, reg.TypeName(declared))
			}
		}
		table.EnterScope()
		pushed++
		s := table.AddElement(b.Name.Value, ObjectInfo{
			Name:     b.Name.Value,
			Kind:     ObjectLocal,
			TypeName: b.Type.Value,
			Token:    b.Name.Token,
		})
		if !s.IsOk() {
			return errorAt(b.Name, "%s", s.ErrorMessage())
		}
	}

	if s := p.Visit(ctx, e.Body); !s.IsOk() {
		return s
	}
	e.SetType(e.Body.Type())
	return status.Ok()
}

func (p *TypeCheckPass) visitCase(ctx *Context, e *ast.CaseExpression) status.Status {
	if s := p.Visit(ctx, e.Expression); !s.IsOk() {
		return s
	}
	if len(e.Cases) == 0 {
		return errorAt(e, "case expression without branches")
	}

	reg := ctx.ClassRegistry()
	seen := make(map[ast.TypeID]bool)
	var result ast.ExprType
	for i, c := range e.Cases {
		if c.Name.Value == "self" {
			return errorAt(c, "'self' cannot be bound in a case branch")
		}
		if c.Type.Value == ast.SelfTypeName {
			return errorAt(c, "case branch cannot have type SELF_TYPE")
		}
		id := reg.TypeID(c.Type.Value)
		if id == ast.NoType {
			return errorAt(c, "undefined type %s in case branch", c.Type.Value)
		}
		if seen[id] {
			return errorAt(c, "duplicate branch type %s in case expression", c.Type.Value)
		}
		seen[id] = true

		if s := p.visitBranch(ctx, c); !s.IsOk() {
			return s
		}
		if i == 0 {
			result = c.Expression.Type()
		} else {
			result = reg.LeastCommonAncestor(result, c.Expression.Type())
		}
	}
	e.SetType(result)
	return status.Ok()
}

func (p *TypeCheckPass) visitBranch(ctx *Context, c *ast.Case) status.Status {
	table := ctx.SymbolTable()
	table.EnterScope()
	defer table.ExitScope()
	s := table.AddElement(c.Name.Value, ObjectInfo{
		Name:     c.Name.Value,
		Kind:     ObjectLocal,
		TypeName: c.Type.Value,
		Token:    c.Name.Token,
	})
	if !s.IsOk() {
		return errorAt(c, "%s", s.ErrorMessage())
	}
	return p.Visit(ctx, c.Expression)
}

func (p *TypeCheckPass) visitDispatch(ctx *Context, e *ast.Dispatch) status.Status {
	reg := ctx.ClassRegistry()

	receiver := ctx.SelfType()
	if e.Object != nil {
		if s := p.Visit(ctx, e.Object); !s.IsOk() {
			return s
		}
		receiver = e.Object.Type()
	}
	if s := p.visitAll(ctx, e.Arguments...); !s.IsOk() {
		return s
	}

	target := receiver.TypeID
	if e.StaticType != nil {
		if e.StaticType.Value == ast.SelfTypeName {
			return errorAt(e, "static dispatch to SELF_TYPE")
		}
		target = reg.TypeID(e.StaticType.Value)
		if target == ast.NoType {
			return errorAt(e, "undefined type %s in static dispatch", e.StaticType.Value)
		}
		if !reg.Conforms(receiver, ast.ExprType{TypeID: target}) {
			return errorAt(e, "type %s does not conform to static dispatch type %s",
				reg.TypeName(receiver), e.StaticType.Value)
		}
	}

	name := e.Method.Value
	m, ok := reg.LookupMethod(target, name)
	if !ok {
		return errorAt(e, "dispatch to undefined method %s of class %s", name, reg.Name(target))
	}
	if len(m.Formals) != len(e.Arguments) {
		return errorAt(e, "method %s called with wrong number of arguments: want %d, got %d",
			name, len(m.Formals), len(e.Arguments))
	}
	for i, f := range m.Formals {
		want, ok := reg.Resolve(f.TypeName, target)
		if !ok {
			return errorAt(e, "parameter %s of method %s has undefined type %s", f.Name, name, f.TypeName)
		}
		got := e.Arguments[i].Type()
		if !reg.Conforms(got, want) {
			return errorAt(e.Arguments[i], "type does not conform: argument %s of %s is %s, want %s",
				f.Name, name, reg.TypeName(got), f.TypeName)
		}
	}

	if m.ReturnType == ast.SelfTypeName {
		e.SetType(receiver)
		return status.Ok()
	}
	ret, ok := reg.Resolve(m.ReturnType, target)
	if !ok {
		return errorAt(e, "method %s has undefined return type %s", name, m.ReturnType)
	}
	e.SetType(ret)
	return status.Ok()
}
