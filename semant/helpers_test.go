package semant

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coolc/ast"
	"coolc/lexer"
	"coolc/parser"
	"coolc/status"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.NewLexer(strings.NewReader(src)))
	program := p.ParseProgram()
	require.Empty(t, p.Errors(), "parser errors")
	return program
}

// parseExpr parses input as the body of a throwaway method.
func parseExpr(t *testing.T, input string) ast.Expression {
	t.Helper()
	program := parseProgram(t, "class X { f() : Object { "+input+" }; };")
	m, ok := program.Classes[0].Features[0].(*ast.Method)
	require.True(t, ok)
	return m.Body
}

func analyze(t *testing.T, src string, opts Options) []string {
	t.Helper()
	a := NewAnalyzer(opts)
	require.NoError(t, a.Analyze(context.Background(), parseProgram(t, src)))
	return a.Errors()
}

const fixture = `
class Main { main() : Object { 0 }; };
class Foo inherits IO {
	a : Int;
	s : String;
	f(x : Int) : SELF_TYPE { self };
	g() : Foo { self };
};
class Bar inherits Foo {};
`

// newFixture returns a registry built from fixture and the entry for Foo.
func newFixture(t *testing.T) (*ClassRegistry, *ClassInfo) {
	t.Helper()
	reg := NewClassRegistry()
	s := NewClassesDefinitionPass(nil).Run(reg, parseProgram(t, fixture))
	require.True(t, s.IsOk(), s.ErrorMessage())
	foo, ok := reg.Lookup("Foo")
	require.True(t, ok)
	return reg, foo
}

// checkExpr type-checks input inside class Foo of fixture.
func checkExpr(t *testing.T, input string) (ast.Expression, status.Status, *Context) {
	t.Helper()
	reg, foo := newFixture(t)
	expr := parseExpr(t, input)
	ctx := NewContext(reg, foo, nil)
	return expr, (&TypeCheckPass{}).Visit(ctx, expr), ctx
}

func assertErrorsContain(t *testing.T, errors []string, substr string) {
	t.Helper()
	for _, err := range errors {
		if strings.Contains(err, substr) {
			return
		}
	}
	assert.Failf(t, "missing error", "expected error containing %q, got: %v", substr, errors)
}
