package ast

import (
	"fmt"
	"strings"
)

// TypeNamer renders an inferred type. Print omits types when it is nil.
type TypeNamer func(ExprType) string

type treeNode struct {
	label    string
	children []treeNode
}

// Print renders program as a tree, one node per line.
func Print(program *Program, names TypeNamer) string {
	var sb strings.Builder
	sb.WriteString("Program\n")
	p := &printer{sb: &sb, names: names}
	for i, class := range program.Classes {
		p.write(p.class(class), "", i == len(program.Classes)-1)
	}
	return sb.String()
}

type printer struct {
	sb    *strings.Builder
	names TypeNamer
}

func (p *printer) write(n treeNode, prefix string, last bool) {
	connector, next := "├── ", prefix+"│   "
	if last {
		connector, next = "└── ", prefix+"    "
	}
	p.sb.WriteString(prefix + connector + n.label + "\n")
	for i, c := range n.children {
		p.write(c, next, i == len(n.children)-1)
	}
}

func (p *printer) class(c *Class) treeNode {
	n := treeNode{label: "Class " + c.Name.Value + " inherits " + c.ParentName()}
	for _, feature := range c.Features {
		switch f := feature.(type) {
		case *Attribute:
			attr := treeNode{label: "Attribute " + f.Name.Value + " : " + f.Type.Value}
			if f.Init != nil {
				attr.children = append(attr.children, p.expr(f.Init))
			}
			n.children = append(n.children, attr)
		case *Method:
			params := make([]string, len(f.Parameters))
			for i, param := range f.Parameters {
				params[i] = param.Name.Value + " : " + param.Type.Value
			}
			n.children = append(n.children, treeNode{
				label:    fmt.Sprintf("Method %s(%s) : %s", f.Name.Value, strings.Join(params, ", "), f.ReturnType.Value),
				children: []treeNode{p.expr(f.Body)},
			})
		}
	}
	return n
}

func (p *printer) exprs(list []Expression) []treeNode {
	out := make([]treeNode, len(list))
	for i, e := range list {
		out[i] = p.expr(e)
	}
	return out
}

func (p *printer) expr(e Expression) treeNode {
	var n treeNode
	switch x := e.(type) {
	case *ObjectIdentifier:
		n.label = "Identifier " + x.Value
	case *IntegerLiteral:
		n.label = fmt.Sprintf("Int %d", x.Value)
	case *StringLiteral:
		n.label = fmt.Sprintf("String %q", x.Value)
	case *BooleanLiteral:
		n.label = fmt.Sprintf("Bool %t", x.Value)
	case *BinaryExpression:
		n.label = "Binary " + x.Operator.String()
		n.children = p.exprs([]Expression{x.Left, x.Right})
	case *ComparisonExpression:
		n.label = "Compare " + x.Operator.String()
		n.children = p.exprs([]Expression{x.Left, x.Right})
	case *UnaryExpression:
		n.label = "Unary " + x.Operator.String()
		n.children = p.exprs([]Expression{x.Expression})
	case *BlockExpression:
		n.label = "Block"
		n.children = p.exprs(x.Expressions)
	case *IfExpression:
		n.label = "If"
		n.children = p.exprs([]Expression{x.Condition, x.Consequence, x.Alternative})
	case *WhileExpression:
		n.label = "While"
		n.children = p.exprs([]Expression{x.Condition, x.Body})
	case *NewExpression:
		n.label = "New " + x.Class.Value
	case *Assignment:
		n.label = "Assign " + x.Name.Value
		n.children = p.exprs([]Expression{x.Expression})
	case *LetExpression:
		n.label = "Let"
		for _, b := range x.Bindings {
			binding := treeNode{label: "Binding " + b.Name.Value + " : " + b.Type.Value}
			if b.Init != nil {
				binding.children = append(binding.children, p.expr(b.Init))
			}
			n.children = append(n.children, binding)
		}
		n.children = append(n.children, p.expr(x.Body))
	case *CaseExpression:
		n.label = "Case"
		n.children = append(n.children, p.expr(x.Expression))
		for _, c := range x.Cases {
			n.children = append(n.children, treeNode{
				label:    "Branch " + c.Name.Value + " : " + c.Type.Value,
				children: []treeNode{p.expr(c.Expression)},
			})
		}
	case *Dispatch:
		n.label = "Dispatch " + x.Method.Value
		if x.StaticType != nil {
			n.label = "Dispatch @" + x.StaticType.Value + "." + x.Method.Value
		}
		if x.Object != nil {
			n.children = append(n.children, p.expr(x.Object))
		}
		n.children = append(n.children, p.exprs(x.Arguments)...)
	case nil:
		return treeNode{label: "<nil>"}
	default:
		n.label = fmt.Sprintf("%T", e)
	}
	if p.names != nil && e.Typed() {
		n.label += " : " + p.names(e.Type())
	}
	return n
}
