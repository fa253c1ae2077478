package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"coolc/ast"
	"coolc/semant"
)

// generateExpression emits expr into block and returns its value together with
// the block where control continues.
func (g *CodeGenerator) generateExpression(block *ir.Block, expr ast.Expression) (value.Value, *ir.Block, error) {
	if expr == nil {
		return nil, block, fmt.Errorf("received nil expression")
	}

	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return constant.NewInt(types.I32, int64(e.Value)), block, nil
	case *ast.BooleanLiteral:
		return constant.NewBool(e.Value), block, nil
	case *ast.StringLiteral:
		return g.getOrCreateStringConstant(e.Value), block, nil
	case *ast.BinaryExpression:
		return g.generateBinaryExpression(block, e)
	case *ast.ComparisonExpression:
		return g.generateComparison(block, e)
	case *ast.UnaryExpression:
		return g.generateUnaryExpression(block, e)
	case *ast.IfExpression:
		return g.generateIfExpression(block, e)
	case *ast.WhileExpression:
		return g.generateWhileExpression(block, e)
	case *ast.BlockExpression:
		return g.generateBlockExpression(block, e)
	case *ast.LetExpression:
		return g.generateLetExpression(block, e)
	case *ast.ObjectIdentifier:
		return g.generateObjectIdentifier(block, e)
	case *ast.Assignment:
		return g.generateAssignment(block, e)
	case *ast.NewExpression:
		return g.generateNewExpression(block, e)
	case *ast.Dispatch:
		return nil, block, unsupported("dispatch to %s", e.Method.Value)
	case *ast.CaseExpression:
		return nil, block, unsupported("case expression")
	default:
		return nil, block, unsupported("expression %T", expr)
	}
}

func (g *CodeGenerator) generateOperands(block *ir.Block, left, right ast.Expression) (value.Value, value.Value, *ir.Block, error) {
	l, block, err := g.generateExpression(block, left)
	if err != nil {
		return nil, nil, block, err
	}
	r, block, err := g.generateExpression(block, right)
	if err != nil {
		return nil, nil, block, err
	}
	return l, r, block, nil
}

func (g *CodeGenerator) generateBinaryExpression(block *ir.Block, e *ast.BinaryExpression) (value.Value, *ir.Block, error) {
	left, right, block, err := g.generateOperands(block, e.Left, e.Right)
	if err != nil {
		return nil, block, err
	}

	switch e.Operator {
	case ast.OpPlus:
		return block.NewAdd(left, right), block, nil
	case ast.OpMinus:
		return block.NewSub(left, right), block, nil
	case ast.OpTimes:
		return block.NewMul(left, right), block, nil
	case ast.OpDivide:
		return block.NewSDiv(left, right), block, nil
	default:
		return nil, block, fmt.Errorf("unsupported operator: %s", e.Operator)
	}
}

func (g *CodeGenerator) generateComparison(block *ir.Block, e *ast.ComparisonExpression) (value.Value, *ir.Block, error) {
	left, right, block, err := g.generateOperands(block, e.Left, e.Right)
	if err != nil {
		return nil, block, err
	}

	switch e.Operator {
	case ast.OpLess:
		return block.NewICmp(enum.IPredSLT, left, right), block, nil
	case ast.OpLessEqual:
		return block.NewICmp(enum.IPredSLE, left, right), block, nil
	case ast.OpEqual:
		if left.Type().Equal(types.I8Ptr) && e.Left.Type().TypeID == g.registry.TypeID(semant.StringClass) {
			return nil, block, unsupported("string equality")
		}
		if !left.Type().Equal(right.Type()) {
			return nil, block, unsupported("comparison of %s with %s", left.Type(), right.Type())
		}
		return block.NewICmp(enum.IPredEQ, left, right), block, nil
	default:
		return nil, block, fmt.Errorf("unsupported operator: %s", e.Operator)
	}
}

func (g *CodeGenerator) generateUnaryExpression(block *ir.Block, e *ast.UnaryExpression) (value.Value, *ir.Block, error) {
	operand, block, err := g.generateExpression(block, e.Expression)
	if err != nil {
		return nil, block, err
	}

	switch e.Operator {
	case ast.OpIsVoid:
		if !operand.Type().Equal(types.I8Ptr) {
			return constant.False, block, nil
		}
		return block.NewICmp(enum.IPredEQ, operand, constant.NewNull(types.I8Ptr)), block, nil
	case ast.OpNot:
		return block.NewXor(operand, constant.True), block, nil
	case ast.OpComplement:
		return block.NewSub(constant.NewInt(types.I32, 0), operand), block, nil
	case ast.OpParen:
		return operand, block, nil
	default:
		return nil, block, fmt.Errorf("unsupported unary operation: %s", e.Operator)
	}
}

func (g *CodeGenerator) generateIfExpression(block *ir.Block, e *ast.IfExpression) (value.Value, *ir.Block, error) {
	cond, block, err := g.generateExpression(block, e.Condition)
	if err != nil {
		return nil, block, err
	}

	fn := block.Parent
	thenBlock := fn.NewBlock(g.label("if.then"))
	elseBlock := fn.NewBlock(g.label("if.else"))
	mergeBlock := fn.NewBlock(g.label("if.merge"))
	block.NewCondBr(cond, thenBlock, elseBlock)

	resultType := g.exprType(e.Type())
	branch := func(start *ir.Block, expr ast.Expression) (*ir.Incoming, error) {
		v, end, err := g.generateExpression(start, expr)
		if err != nil {
			return nil, err
		}
		if v, end, err = g.coerce(end, v, resultType); err != nil {
			return nil, err
		}
		end.NewBr(mergeBlock)
		return ir.NewIncoming(v, end), nil
	}

	thenIn, err := branch(thenBlock, e.Consequence)
	if err != nil {
		return nil, thenBlock, err
	}
	elseIn, err := branch(elseBlock, e.Alternative)
	if err != nil {
		return nil, elseBlock, err
	}
	return mergeBlock.NewPhi(thenIn, elseIn), mergeBlock, nil
}

func (g *CodeGenerator) generateWhileExpression(block *ir.Block, e *ast.WhileExpression) (value.Value, *ir.Block, error) {
	fn := block.Parent
	condBlock := fn.NewBlock(g.label("while.cond"))
	bodyBlock := fn.NewBlock(g.label("while.body"))
	endBlock := fn.NewBlock(g.label("while.end"))

	block.NewBr(condBlock)

	cond, condEnd, err := g.generateExpression(condBlock, e.Condition)
	if err != nil {
		return nil, condEnd, err
	}
	condEnd.NewCondBr(cond, bodyBlock, endBlock)

	_, bodyEnd, err := g.generateExpression(bodyBlock, e.Body)
	if err != nil {
		return nil, bodyEnd, err
	}
	bodyEnd.NewBr(condBlock)

	// A loop evaluates to void.
	return constant.NewNull(types.I8Ptr), endBlock, nil
}

func (g *CodeGenerator) generateBlockExpression(block *ir.Block, e *ast.BlockExpression) (value.Value, *ir.Block, error) {
	var result value.Value
	var err error
	for _, expr := range e.Expressions {
		result, block, err = g.generateExpression(block, expr)
		if err != nil {
			return nil, block, err
		}
	}
	return result, block, nil
}

func (g *CodeGenerator) defaultValue(typeName string) value.Value {
	switch typeName {
	case semant.IntClass:
		return constant.NewInt(types.I32, 0)
	case semant.BoolClass:
		return constant.False
	case semant.StringClass:
		return g.getOrCreateStringConstant("")
	default:
		return constant.NewNull(types.I8Ptr)
	}
}

func (g *CodeGenerator) generateLetExpression(block *ir.Block, e *ast.LetExpression) (value.Value, *ir.Block, error) {
	pushed := 0
	defer func() {
		for ; pushed > 0; pushed-- {
			g.locals.ExitScope()
		}
	}()

	for _, b := range e.Bindings {
		llvmTyp := llvmType(b.Type.Value)
		init := g.defaultValue(b.Type.Value)
		if b.Init != nil {
			v, next, err := g.generateExpression(block, b.Init)
			if err != nil {
				return nil, next, err
			}
			if init, block, err = g.coerce(next, v, llvmTyp); err != nil {
				return nil, block, err
			}
		}

		slot := g.entry.NewAlloca(llvmTyp)
		slot.SetName(g.label(b.Name.Value))
		block.NewStore(init, slot)

		g.locals.EnterScope()
		pushed++
		if s := g.locals.AddElement(b.Name.Value, slot); !s.IsOk() {
			return nil, block, s.Err()
		}
	}

	return g.generateExpression(block, e.Body)
}

func (g *CodeGenerator) generateObjectIdentifier(block *ir.Block, e *ast.ObjectIdentifier) (value.Value, *ir.Block, error) {
	if e.Value == "self" {
		return g.self, block, nil
	}
	slot, ok := g.locals.Lookup(e.Value)
	if !ok {
		return nil, block, unsupported("attribute %s of class %s", e.Value, g.class.Name)
	}
	return block.NewLoad(slot.ElemType, slot), block, nil
}

func (g *CodeGenerator) generateAssignment(block *ir.Block, e *ast.Assignment) (value.Value, *ir.Block, error) {
	slot, ok := g.locals.Lookup(e.Name.Value)
	if !ok {
		return nil, block, unsupported("assignment to attribute %s of class %s", e.Name.Value, g.class.Name)
	}
	v, block, err := g.generateExpression(block, e.Expression)
	if err != nil {
		return nil, block, err
	}
	stored, block, err := g.coerce(block, v, slot.ElemType)
	if err != nil {
		return nil, block, err
	}
	block.NewStore(stored, slot)
	return v, block, nil
}

func (g *CodeGenerator) generateNewExpression(block *ir.Block, e *ast.NewExpression) (value.Value, *ir.Block, error) {
	switch name := e.Class.Value; name {
	case semant.IntClass, semant.BoolClass, semant.StringClass:
		return g.defaultValue(name), block, nil
	case ast.SelfTypeName:
		header := block.NewBitCast(g.self, types.NewPointer(types.I32))
		typeID := block.NewLoad(types.I32, header)
		return g.allocate(block, typeID), block, nil
	default:
		id := g.registry.TypeID(name)
		if id == ast.NoType {
			return nil, block, fmt.Errorf("undefined type in new expression: %s", name)
		}
		return g.allocate(block, constant.NewInt(types.I32, int64(id))), block, nil
	}
}
