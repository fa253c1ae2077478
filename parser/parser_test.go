package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coolc/ast"
	"coolc/lexer"
)

// Helper function to create a parser from input string
func newParser(input string) *Parser {
	l := lexer.NewLexer(strings.NewReader(input))
	return New(l)
}

// Helper function to check parser errors
func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	require.Empty(t, p.Errors(), "parser errors")
}

// render prints an expression as an s-expression so precedence is visible.
func render(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.ObjectIdentifier:
		return n.Value
	case *ast.IntegerLiteral:
		return fmt.Sprint(n.Value)
	case *ast.StringLiteral:
		return fmt.Sprintf("%q", n.Value)
	case *ast.BooleanLiteral:
		return fmt.Sprint(n.Value)
	case *ast.BinaryExpression:
		return fmt.Sprintf("(%s %s %s)", n.Operator, render(n.Left), render(n.Right))
	case *ast.ComparisonExpression:
		return fmt.Sprintf("(%s %s %s)", n.Operator, render(n.Left), render(n.Right))
	case *ast.UnaryExpression:
		return fmt.Sprintf("(%s %s)", n.Operator, render(n.Expression))
	case *ast.Assignment:
		return fmt.Sprintf("(<- %s %s)", n.Name.Value, render(n.Expression))
	case *ast.NewExpression:
		return "(new " + n.Class.Value + ")"
	case *ast.Dispatch:
		var sb strings.Builder
		sb.WriteString("(call ")
		if n.Object != nil {
			sb.WriteString(render(n.Object))
		} else {
			sb.WriteString("self")
		}
		if n.StaticType != nil {
			sb.WriteString("@" + n.StaticType.Value)
		}
		sb.WriteString("." + n.Method.Value)
		for _, a := range n.Arguments {
			sb.WriteString(" " + render(a))
		}
		sb.WriteString(")")
		return sb.String()
	case *ast.BlockExpression:
		parts := make([]string, len(n.Expressions))
		for i, x := range n.Expressions {
			parts[i] = render(x)
		}
		return "{" + strings.Join(parts, "; ") + "}"
	case *ast.IfExpression:
		return fmt.Sprintf("(if %s %s %s)", render(n.Condition), render(n.Consequence), render(n.Alternative))
	case *ast.WhileExpression:
		return fmt.Sprintf("(while %s %s)", render(n.Condition), render(n.Body))
	case *ast.LetExpression:
		var sb strings.Builder
		sb.WriteString("(let")
		for _, b := range n.Bindings {
			sb.WriteString(" " + b.Name.Value + ":" + b.Type.Value)
			if b.Init != nil {
				sb.WriteString("=" + render(b.Init))
			}
		}
		sb.WriteString(" " + render(n.Body) + ")")
		return sb.String()
	case *ast.CaseExpression:
		var sb strings.Builder
		sb.WriteString("(case " + render(n.Expression))
		for _, c := range n.Cases {
			sb.WriteString(fmt.Sprintf(" [%s:%s %s]", c.Name.Value, c.Type.Value, render(c.Expression)))
		}
		sb.WriteString(")")
		return sb.String()
	}
	return fmt.Sprintf("<%T>", e)
}

func parseExpr(t *testing.T, input string) ast.Expression {
	t.Helper()
	p := newParser("class A { f() : Object { " + input + " }; };")
	program := p.ParseProgram()
	checkParserErrors(t, p)
	require.Len(t, program.Classes, 1)
	m, ok := program.Classes[0].Features[0].(*ast.Method)
	require.True(t, ok)
	return m.Body
}

func TestBasicClassParsing(t *testing.T) {
	tests := []struct {
		input          string
		expectedClass  string
		expectedParent string
	}{
		{"class A {};", "A", "Object"},
		{"class B inherits A {};", "B", "A"},
	}

	for _, tt := range tests {
		p := newParser(tt.input)
		program := p.ParseProgram()
		checkParserErrors(t, p)

		require.Len(t, program.Classes, 1)
		class := program.Classes[0]
		assert.Equal(t, tt.expectedClass, class.Name.Value)
		assert.Equal(t, tt.expectedParent, class.ParentName())
	}
}

func TestClassFeatureParsing(t *testing.T) {
	input := `
		class Test {
			x: Int;
			y: String <- "hello";
			method(a: Int, b: String): Int { 42 };
			empty(): SELF_TYPE { self };
		};
	`

	p := newParser(input)
	program := p.ParseProgram()
	checkParserErrors(t, p)

	require.Len(t, program.Classes, 1)
	class := program.Classes[0]
	require.Len(t, class.Features, 4)

	attr1, ok := class.Features[0].(*ast.Attribute)
	require.True(t, ok)
	assert.Equal(t, "x", attr1.Name.Value)
	assert.Equal(t, "Int", attr1.Type.Value)
	assert.Nil(t, attr1.Init)

	attr2, ok := class.Features[1].(*ast.Attribute)
	require.True(t, ok)
	assert.Equal(t, "y", attr2.Name.Value)
	assert.Equal(t, `"hello"`, render(attr2.Init))

	method, ok := class.Features[2].(*ast.Method)
	require.True(t, ok)
	assert.Equal(t, "method", method.Name.Value)
	require.Len(t, method.Parameters, 2)
	assert.Equal(t, "b", method.Parameters[1].Name.Value)
	assert.Equal(t, "String", method.Parameters[1].Type.Value)
	assert.Equal(t, "Int", method.ReturnType.Value)
	assert.Equal(t, "42", render(method.Body))

	empty, ok := class.Features[3].(*ast.Method)
	require.True(t, ok)
	assert.Empty(t, empty.Parameters)
	assert.Equal(t, "SELF_TYPE", empty.ReturnType.Value)
}

func TestExpressionParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2", "(+ 1 2)"},
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"(1 + 2) * 3", "(* (() (+ 1 2)) 3)"},
		{"a < b + 1", "(< a (+ b 1))"},
		{"a <= b", "(<= a b)"},
		{"a = b", "(= a b)"},
		{"not a = b", "(not (= a b))"},
		{"~a + b", "(+ (~ a) b)"},
		{"isvoid a.f()", "(isvoid (call a.f))"},
		{"x <- y <- 3", "(<- x (<- y 3))"},
		{"x <- 1 + 2", "(<- x (+ 1 2))"},
		{"new SELF_TYPE", "(new SELF_TYPE)"},
		{"true", "true"},
		{`"s"`, `"s"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, render(parseExpr(t, tt.input)))
		})
	}
}

func TestComplexExpressionParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"if a then 1 else 2 fi", "(if a 1 2)"},
		{"while 0 < n loop n <- n - 1 pool", "(while (< 0 n) (<- n (- n 1)))"},
		{"{ 1; 2; }", "{1; 2}"},
		{"let x : Int <- 5, y : Int in x + y", "(let x:Int=5 y:Int (+ x y))"},
		{"case o of i : Int => 1; s : String => 2; esac", "(case o [i:Int 1] [s:String 2])"},
		{"out_int(fact).out_string(\"\\n\")", `(call (call self.out_int fact).out_string "\n")`},
		{"(new B).print()", "(call (() (new B)).print)"},
		{"x@A.f(1, 2)", "(call x@A.f 1 2)"},
		{"f()", "(call self.f)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, render(parseExpr(t, tt.input)))
		})
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{"missing semicolon after class", "class A {}", "Expected next token to be SEMI"},
		{"attribute without type", "class Test { attr String; };", "Expected next token to be COLON"},
		{"empty block", "class A { f() : Int { {} }; };", "empty block"},
		{"if without else", "class A { f() : Int { if true then 1 fi }; };", "Expected next token to be ELSE"},
		{"assign to non-identifier", "class A { f() : Int { 1 <- 2 }; };", "Left side of assignment"},
		{"lexical error", "class A { f() : Int { # }; };", "lexical error"},
		{"not a class", "x : Int;", "Expected class"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(tt.input)
			p.ParseProgram()
			require.NotEmpty(t, p.Errors())
			assert.Contains(t, strings.Join(p.Errors(), "\n"), tt.contains)
		})
	}
}

func TestPreprocessImports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "list.cool"),
		[]byte("module list\nimport \"node\";\nclass List {};\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node.cool"),
		[]byte("class Node {};\n"), 0o644))

	code, err := PreprocessImports("import \"List\";\nimport \"node\";\nclass Main {};", dir)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(code, "class Node"), "each file is inlined once")
	assert.Contains(t, code, "class List")
	assert.NotContains(t, code, "module list")

	p := newParser(code)
	program := p.ParseProgram()
	checkParserErrors(t, p)
	assert.Len(t, program.Classes, 3)

	_, err = PreprocessImports("import \"missing\";", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to import missing.cool")
}
