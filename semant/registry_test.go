package semant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coolc/ast"
)

func TestBuiltinClasses(t *testing.T) {
	reg := NewClassRegistry()

	for i, name := range []string{ObjectClass, IOClass, IntClass, StringClass, BoolClass} {
		id := reg.TypeID(name)
		assert.Equal(t, ast.TypeID(i), id, name)
		assert.Equal(t, name, reg.Name(id))
		assert.True(t, reg.Class(id).Builtin)
	}
	assert.Equal(t, ast.NoType, reg.TypeID("Bogus"))
	assert.Equal(t, ast.NoType, reg.Parent(reg.TypeID(ObjectClass)))
	assert.Equal(t, reg.TypeID(ObjectClass), reg.Parent(reg.TypeID(StringClass)))

	m, ok := reg.LookupMethod(reg.TypeID(IOClass), "type_name")
	require.True(t, ok, "IO inherits Object methods")
	assert.Equal(t, ObjectClass, m.Class)
	assert.Equal(t, StringClass, m.ReturnType)

	m, ok = reg.LookupMethod(reg.TypeID(StringClass), "substr")
	require.True(t, ok)
	assert.Len(t, m.Formals, 2)

	_, ok = reg.LookupMethod(reg.TypeID(IntClass), "length")
	assert.False(t, ok)
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewClassRegistry()
	_, err := reg.Register("A", nil)
	require.NoError(t, err)
	_, err = reg.Register("A", nil)
	assert.Error(t, err)
}

func TestConforms(t *testing.T) {
	reg, foo := newFixture(t)
	bar, _ := reg.Lookup("Bar")
	typ := func(name string) ast.ExprType { return ast.ExprType{TypeID: reg.TypeID(name)} }
	selfFoo := ast.ExprType{TypeID: foo.ID, IsSelf: true}

	tests := []struct {
		name string
		a, b ast.ExprType
		want bool
	}{
		{"reflexive", typ("Foo"), typ("Foo"), true},
		{"subclass", typ("Bar"), typ("Foo"), true},
		{"transitive", typ("Bar"), typ("IO"), true},
		{"to Object", typ("Int"), typ(ObjectClass), true},
		{"superclass", typ("Foo"), typ("Bar"), false},
		{"siblings", typ("Int"), typ("String"), false},
		{"self to class", selfFoo, typ("Foo"), true},
		{"self to ancestor", selfFoo, typ("IO"), true},
		{"self to self", selfFoo, selfFoo, true},
		{"class to self", typ("Foo"), selfFoo, false},
		{"subclass to self", ast.ExprType{TypeID: bar.ID}, selfFoo, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.Conforms(tt.a, tt.b))
		})
	}
}

func TestLeastCommonAncestor(t *testing.T) {
	reg, foo := newFixture(t)
	typ := func(name string) ast.ExprType { return ast.ExprType{TypeID: reg.TypeID(name)} }
	selfFoo := ast.ExprType{TypeID: foo.ID, IsSelf: true}

	tests := []struct {
		name string
		a, b ast.ExprType
		want ast.ExprType
	}{
		{"same", typ("Int"), typ("Int"), typ("Int")},
		{"basic types", typ("Int"), typ("String"), typ(ObjectClass)},
		{"subclass", typ("Bar"), typ("Foo"), typ("Foo")},
		{"through IO", typ("Bar"), typ("IO"), typ("IO")},
		{"both self", selfFoo, selfFoo, selfFoo},
		{"one self", selfFoo, typ("Bar"), typ("Foo")},
		{"self and unrelated", typ("Int"), selfFoo, typ(ObjectClass)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.LeastCommonAncestor(tt.a, tt.b)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, reg.LeastCommonAncestor(tt.b, tt.a), "symmetric")
		})
	}
}

func TestResolve(t *testing.T) {
	reg, foo := newFixture(t)

	got, ok := reg.Resolve(ast.SelfTypeName, foo.ID)
	require.True(t, ok)
	assert.Equal(t, ast.ExprType{TypeID: foo.ID, IsSelf: true}, got)
	assert.Equal(t, ast.SelfTypeName, reg.TypeName(got))

	got, ok = reg.Resolve("Bar", foo.ID)
	require.True(t, ok)
	assert.Equal(t, "Bar", reg.TypeName(got))

	_, ok = reg.Resolve("Nope", foo.ID)
	assert.False(t, ok)
}
