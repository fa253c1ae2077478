package semant

import (
	"coolc/ast"
)

// Context is the state the type-check pass sees while walking one class.
// Objects is the active object table: a per-class local table whose parent
// chain reaches the attribute tables of the class and its ancestors.
type Context struct {
	registry *ClassRegistry
	class    *ClassInfo
	objects  *ObjectTable
}

// NewContext builds a context for class. A nil objects table gets a fresh
// local table parented to the class attributes.
func NewContext(registry *ClassRegistry, class *ClassInfo, objects *ObjectTable) *Context {
	if objects == nil {
		objects = newLocalTable(class)
	}
	return &Context{registry: registry, class: class, objects: objects}
}

func newLocalTable(class *ClassInfo) *ObjectTable {
	t := newObjectTable()
	t.SetParentTable(class.Attributes)
	return t
}

func (c *Context) ClassRegistry() *ClassRegistry { return c.registry }
func (c *Context) CurrentClassName() string      { return c.class.Name }
func (c *Context) CurrentClassID() ast.TypeID    { return c.class.ID }
func (c *Context) SymbolTable() *ObjectTable     { return c.objects }
func (c *Context) Methods() *MethodTable         { return c.class.Methods }

// SelfType is the type of self in the current class.
func (c *Context) SelfType() ast.ExprType {
	return ast.ExprType{TypeID: c.class.ID, IsSelf: true}
}

// LookupObject resolves name through the active table and its parents.
func (c *Context) LookupObject(name string) (ObjectInfo, bool) {
	return resolve(c.objects, name)
}
