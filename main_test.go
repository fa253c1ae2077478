package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coolc/config"
	"coolc/semant"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSource(t *testing.T, dir, name, code string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(code), 0o644))
	return path
}

const factorial = `class Main inherits IO {
    main(): Object {
        let n: Int <- 5, fact: Int <- 1 in {
            while 0 < n loop {
                fact <- fact * n;
                n <- n - 1;
            } pool;
            out_int(fact).out_string("\n");
        }
    };
};`

func TestCheckCommand(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantErr  bool
		contains string
	}{
		{"factorial", factorial, false, "ok (1 classes)"},
		{
			"inheritance and override",
			`class A { print(): Object { (new IO).out_string("A\n") }; };
			class B inherits A { print(): Object { (new IO).out_string("B\n") }; };
			class Main inherits IO { main(): Object { (new B).print() }; };`,
			false, "ok (3 classes)",
		},
		{"type error", `class Main { main(): Object { true + 1 }; };`, true, "operand is not an integer"},
		{"syntax error", `class Main { main(): Object { 1 } };`, true, "syntax error:"},
		{"missing main", `class A {};`, true, "class Main is not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSource(t, t.TempDir(), "prog.cool", tt.code)
			stdout, stderr, err := execute(t, "check", "--color", "off", path)
			if tt.wantErr {
				require.ErrorIs(t, err, errCompilationFailed)
				assert.Contains(t, stderr, tt.contains)
				assert.Contains(t, stderr, path)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, stdout, tt.contains)
		})
	}
}

func TestCheckImports(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "shapes.cool", `class Shape { area(): Int { 0 }; };`)
	path := writeSource(t, dir, "main.cool", "import \"shapes\";\nclass Main { main(): Object { (new Shape).area() }; };")

	stdout, _, err := execute(t, "check", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok (2 classes)")

	missing := writeSource(t, dir, "broken.cool", "import \"nothere\";\nclass Main { main(): Object { 0 }; };")
	_, _, err = execute(t, "check", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to import nothere.cool")
}

func TestCheckTypesOut(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "prog.cool", factorial)
	out := filepath.Join(dir, "types.msgpack")

	_, _, err := execute(t, "check", "--types-out", out, path)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	sigs, err := semant.ReadSignatures(f)
	require.NoError(t, err)

	var main *semant.ClassSignature
	for i := range sigs {
		if sigs[i].Name == "Main" {
			main = &sigs[i]
		}
	}
	require.NotNil(t, main)
	assert.Equal(t, "IO", main.Parent)
	require.Len(t, main.Methods, 1)
	assert.Equal(t, "main", main.Methods[0].Name)
}

func TestMaxErrorsFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, config.FileName, "[check]\nmax_errors = 1\njobs = 2\n")
	path := writeSource(t, dir, "prog.cool", `
		class Main { main(): Object { 0 }; };
		class A { f(): Int { true + 1 }; };
		class B { g(): Bool { 1 }; };`)

	_, stderr, err := execute(t, "check", path)
	require.ErrorIs(t, err, errCompilationFailed)
	assert.Contains(t, stderr, "operand is not an integer")
	assert.NotContains(t, stderr, "body of method g")
	assert.Contains(t, stderr, "1 more semantic errors not shown")

	_, _, err = execute(t, "check", "--config", filepath.Join(dir, "missing.toml"), path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, errCompilationFailed))
}

func TestEmitIRCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "prog.cool", `class Main {
		main(): Object { fact(5) };
		fact(n: Int): Int { if n <= 1 then 1 else n * 2 fi };
	};`)

	_, _, err := execute(t, "emit-ir", path)
	require.Error(t, err, "self dispatch is not lowered")
	assert.Contains(t, err.Error(), "unsupported in codegen")

	path = writeSource(t, dir, "ok.cool", `class Main {
		main(): Object { let n : Int <- 5 in n * 2 };
	};`)
	out := filepath.Join(dir, "ok.ll")
	_, _, err = execute(t, "emit-ir", "--target", "arm64-apple-macosx", "-o", out, path)
	require.NoError(t, err)

	ll, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(ll), `target triple = "arm64-apple-macosx"`)
	assert.Contains(t, string(ll), "define i32 @main()")
	assert.Contains(t, string(ll), "mul i32")

	stdout, _, err := execute(t, "emit-ir", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, `target triple = "x86_64-pc-linux-gnu"`)
}

func TestTokensCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "prog.cool", "class Main {};")
	stdout, _, err := execute(t, "tokens", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, `1:1 CLASS "class"`)
	assert.Contains(t, stdout, "EOF")

	bad := writeSource(t, dir, "bad.cool", "class # {};")
	_, stderr, err := execute(t, "tokens", "--color", "on", bad)
	require.ErrorIs(t, err, errCompilationFailed)
	assert.Contains(t, stderr, "unexpected character: #")
	assert.Contains(t, stderr, "\x1b[", "colored output")
}

func TestColorFlag(t *testing.T) {
	path := writeSource(t, t.TempDir(), "prog.cool", factorial)
	_, _, err := execute(t, "check", "--color", "sometimes", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown color mode")
}

func TestVerboseLogging(t *testing.T) {
	path := writeSource(t, t.TempDir(), "prog.cool", factorial)
	_, stderr, err := execute(t, "check", "--verbose", "--jobs", "1", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "building class hierarchy")
	assert.Contains(t, stderr, "jobs=1")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "coolc "+Version+"\n", stdout)
}

func TestASTCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "prog.cool", factorial)
	stdout, _, err := execute(t, "ast", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "└── Class Main inherits IO")
	assert.Contains(t, stdout, "Binding fact : Int")
	assert.Contains(t, stdout, "Dispatch out_string : SELF_TYPE")

	bad := writeSource(t, dir, "bad.cool", `class Main { main() : Object { 1 + "x" }; };`)
	_, stderr, err := execute(t, "ast", bad)
	require.ErrorIs(t, err, errCompilationFailed)
	assert.Contains(t, stderr, "operand is not an integer")
}
