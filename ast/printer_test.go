package ast_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coolc/ast"
	"coolc/lexer"
	"coolc/parser"
	"coolc/semant"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.NewLexer(strings.NewReader(src)))
	program := p.ParseProgram()
	require.Empty(t, p.Errors())
	return program
}

func TestPrintUntyped(t *testing.T) {
	program := parse(t, `class A inherits IO {
		s : String <- "hi";
		f(n : Int) : SELF_TYPE { self@IO.out_string(s) };
	};`)

	expected := `Program
└── Class A inherits IO
    ├── Attribute s : String
    │   └── String "hi"
    └── Method f(n : Int) : SELF_TYPE
        └── Dispatch @IO.out_string
            ├── Identifier self
            └── Identifier s
`
	assert.Equal(t, expected, ast.Print(program, nil))
}

func TestPrintTyped(t *testing.T) {
	program := parse(t, `class Main {
		main() : Int { let x : Int <- 1 in if x < 2 then x else ~x fi };
	};`)

	a := semant.NewAnalyzer(semant.Options{})
	require.NoError(t, a.Analyze(context.Background(), program))
	require.Empty(t, a.Errors())

	expected := `Program
└── Class Main inherits Object
    └── Method main() : Int
        └── Let : Int
            ├── Binding x : Int
            │   └── Int 1 : Int
            └── If : Int
                ├── Compare < : Bool
                │   ├── Identifier x : Int
                │   └── Int 2 : Int
                ├── Identifier x : Int
                └── Unary ~ : Int
                    └── Identifier x : Int
`
	assert.Equal(t, expected, ast.Print(program, a.Registry().TypeName))
}

func TestPrintNew(t *testing.T) {
	program := parse(t, `class Main {
		main() : Object { if true then new SELF_TYPE else new Main fi };
	};`)

	a := semant.NewAnalyzer(semant.Options{})
	require.NoError(t, a.Analyze(context.Background(), program))
	require.Empty(t, a.Errors())

	expected := `Program
└── Class Main inherits Object
    └── Method main() : Object
        └── If : Main
            ├── Bool true : Bool
            ├── New SELF_TYPE : SELF_TYPE
            └── New Main : Main
`
	assert.Equal(t, expected, ast.Print(program, a.Registry().TypeName))
}
