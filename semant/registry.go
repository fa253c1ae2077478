package semant

import (
	"fmt"

	"fortio.org/safecast"

	"coolc/ast"
	"coolc/lexer"
	"coolc/symtab"
)

type ObjectKind int

const (
	ObjectAttribute ObjectKind = iota
	ObjectFormal
	ObjectLocal
)

// ObjectInfo describes a name bound in an object table. TypeName is kept as
// written so SELF_TYPE resolves against the class doing the lookup.
type ObjectInfo struct {
	Name     string
	Kind     ObjectKind
	TypeName string
	Token    lexer.Token
}

type FormalInfo struct {
	Name     string `msgpack:"name"`
	TypeName string `msgpack:"type"`
}

// MethodInfo is a method signature as declared in Class.
type MethodInfo struct {
	Name       string
	Class      string
	Formals    []FormalInfo
	ReturnType string
	Node       *ast.Method
}

type (
	ObjectTable = symtab.SymbolTable[string, ObjectInfo]
	MethodTable = symtab.SymbolTable[string, MethodInfo]
)

// ClassInfo is one entry of the registry. Node is nil for built-in classes.
type ClassInfo struct {
	Name       string
	ID         ast.TypeID
	Parent     ast.TypeID
	Builtin    bool
	Node       *ast.Class
	Attributes *ObjectTable
	Methods    *MethodTable
	// Declared lists the method names defined by the class itself, in
	// declaration order.
	Declared []string
}

// ClassRegistry owns the classes of one compilation and the symbol tables
// built for them. Tables are indexed by type id and linked to their
// superclass tables through SetParentTable.
type ClassRegistry struct {
	classes []*ClassInfo
	byName  map[string]ast.TypeID
}

const (
	ObjectClass = "Object"
	IOClass     = "IO"
	IntClass    = "Int"
	StringClass = "String"
	BoolClass   = "Bool"
)

// NewClassRegistry returns a registry holding the built-in classes.
func NewClassRegistry() *ClassRegistry {
	r := &ClassRegistry{byName: make(map[string]ast.TypeID)}

	object := r.mustRegister(ObjectClass, nil)
	r.addBuiltinMethod(object, "abort", ObjectClass)
	r.addBuiltinMethod(object, "type_name", StringClass)
	r.addBuiltinMethod(object, "copy", ast.SelfTypeName)

	io := r.mustRegister(IOClass, nil)
	r.addBuiltinMethod(io, "out_string", ast.SelfTypeName, FormalInfo{"x", StringClass})
	r.addBuiltinMethod(io, "out_int", ast.SelfTypeName, FormalInfo{"x", IntClass})
	r.addBuiltinMethod(io, "in_string", StringClass)
	r.addBuiltinMethod(io, "in_int", IntClass)

	r.mustRegister(IntClass, nil)

	str := r.mustRegister(StringClass, nil)
	r.addBuiltinMethod(str, "length", IntClass)
	r.addBuiltinMethod(str, "concat", StringClass, FormalInfo{"s", StringClass})
	r.addBuiltinMethod(str, "substr", StringClass, FormalInfo{"i", IntClass}, FormalInfo{"l", IntClass})

	r.mustRegister(BoolClass, nil)

	for _, c := range r.classes[1:] {
		r.setParent(c.ID, object.ID)
	}
	return r
}

func (r *ClassRegistry) mustRegister(name string, node *ast.Class) *ClassInfo {
	id, err := r.Register(name, node)
	if err != nil {
		panic(err)
	}
	c := r.classes[id]
	c.Builtin = node == nil
	return c
}

func (r *ClassRegistry) addBuiltinMethod(c *ClassInfo, name, ret string, formals ...FormalInfo) {
	c.Methods.AddElement(name, MethodInfo{
		Name:       name,
		Class:      c.Name,
		Formals:    formals,
		ReturnType: ret,
	})
	c.Declared = append(c.Declared, name)
}

// Register adds a class with empty tables and returns its id.
func (r *ClassRegistry) Register(name string, node *ast.Class) (ast.TypeID, error) {
	if _, exists := r.byName[name]; exists {
		return ast.NoType, fmt.Errorf("class %s is already registered", name)
	}
	n, err := safecast.Conv[int32](len(r.classes))
	if err != nil {
		return ast.NoType, fmt.Errorf("too many classes: %w", err)
	}
	id := ast.TypeID(n)
	r.classes = append(r.classes, &ClassInfo{
		Name:       name,
		ID:         id,
		Parent:     ast.NoType,
		Node:       node,
		Attributes: newObjectTable(),
		Methods:    symtab.New[string, MethodInfo](),
	})
	r.byName[name] = id
	return id, nil
}

func newObjectTable() *ObjectTable {
	return symtab.New[string, ObjectInfo]()
}

// setParent records the superclass and links the class tables to it.
func (r *ClassRegistry) setParent(child, parent ast.TypeID) {
	c, p := r.classes[child], r.classes[parent]
	c.Parent = parent
	c.Attributes.SetParentTable(p.Attributes)
	c.Methods.SetParentTable(p.Methods)
}

// TypeID returns the id registered for name, or ast.NoType.
func (r *ClassRegistry) TypeID(name string) ast.TypeID {
	if id, ok := r.byName[name]; ok {
		return id
	}
	return ast.NoType
}

// Class returns the entry for id, or nil when id is out of range.
func (r *ClassRegistry) Class(id ast.TypeID) *ClassInfo {
	if id < 0 || int(id) >= len(r.classes) {
		return nil
	}
	return r.classes[id]
}

func (r *ClassRegistry) Lookup(name string) (*ClassInfo, bool) {
	c := r.Class(r.TypeID(name))
	return c, c != nil
}

func (r *ClassRegistry) Name(id ast.TypeID) string {
	if c := r.Class(id); c != nil {
		return c.Name
	}
	return fmt.Sprintf("<unknown type %d>", id)
}

// Parent returns the superclass id, ast.NoType for Object.
func (r *ClassRegistry) Parent(id ast.TypeID) ast.TypeID {
	if c := r.Class(id); c != nil {
		return c.Parent
	}
	return ast.NoType
}

// Classes returns all entries in registration order.
func (r *ClassRegistry) Classes() []*ClassInfo {
	return r.classes
}

// IsBasic reports whether id is Int, String or Bool.
func (r *ClassRegistry) IsBasic(id ast.TypeID) bool {
	switch r.Name(id) {
	case IntClass, StringClass, BoolClass:
		return true
	}
	return false
}

// IsSubclass reports whether child is ancestor or inherits from it.
func (r *ClassRegistry) IsSubclass(child, ancestor ast.TypeID) bool {
	for id := child; id != ast.NoType; id = r.Parent(id) {
		if id == ancestor {
			return true
		}
	}
	return false
}

// Conforms reports whether a value of type a may be used where b is
// expected. SELF_TYPE only conforms to SELF_TYPE and to the ancestors of the
// class it stands for.
func (r *ClassRegistry) Conforms(a, b ast.ExprType) bool {
	if b.IsSelf {
		return a.IsSelf
	}
	return r.IsSubclass(a.TypeID, b.TypeID)
}

// LeastCommonAncestor joins two types. The result is SELF_TYPE only when both
// inputs are.
func (r *ClassRegistry) LeastCommonAncestor(a, b ast.ExprType) ast.ExprType {
	if a.IsSelf && b.IsSelf {
		return a
	}
	ancestors := make(map[ast.TypeID]struct{})
	for id := a.TypeID; id != ast.NoType; id = r.Parent(id) {
		ancestors[id] = struct{}{}
	}
	for id := b.TypeID; id != ast.NoType; id = r.Parent(id) {
		if _, ok := ancestors[id]; ok {
			return ast.ExprType{TypeID: id}
		}
	}
	return ast.ExprType{TypeID: r.TypeID(ObjectClass)}
}

// TypeName formats t for diagnostics.
func (r *ClassRegistry) TypeName(t ast.ExprType) string {
	if t.IsSelf {
		return ast.SelfTypeName
	}
	return r.Name(t.TypeID)
}

// Resolve turns a declared type name into an ExprType. SELF_TYPE stands for
// current.
func (r *ClassRegistry) Resolve(name string, current ast.TypeID) (ast.ExprType, bool) {
	if name == ast.SelfTypeName {
		return ast.ExprType{TypeID: current, IsSelf: true}, true
	}
	id := r.TypeID(name)
	if id == ast.NoType {
		return ast.ExprType{TypeID: ast.NoType}, false
	}
	return ast.ExprType{TypeID: id}, true
}

// LookupMethod finds name in the method table of class id or an ancestor.
func (r *ClassRegistry) LookupMethod(id ast.TypeID, name string) (MethodInfo, bool) {
	c := r.Class(id)
	if c == nil {
		return MethodInfo{}, false
	}
	return resolve(c.Methods, name)
}

// resolve looks key up in table and then along its parent tables.
func resolve[V any](table *symtab.SymbolTable[string, V], key string) (V, bool) {
	for t := table; t != nil; t = t.Parent() {
		if v, ok := t.Lookup(key); ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}
