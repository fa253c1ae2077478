package semant

import (
	"log/slog"

	"coolc/ast"
	"coolc/status"
)

// ClassesDefinitionPass registers the classes of a program, links them into
// the inheritance tree and fills the attribute and method tables. After Run
// succeeds the registry is read-only.
type ClassesDefinitionPass struct {
	logger *slog.Logger
}

func NewClassesDefinitionPass(logger *slog.Logger) *ClassesDefinitionPass {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ClassesDefinitionPass{logger: logger}
}

func (p *ClassesDefinitionPass) Run(reg *ClassRegistry, program *ast.Program) status.Status {
	p.logger.Debug("registering classes", "count", len(program.Classes))
	for _, class := range program.Classes {
		if s := p.register(reg, class); !s.IsOk() {
			return s
		}
	}

	for _, class := range program.Classes {
		if s := p.linkParent(reg, class); !s.IsOk() {
			return s
		}
	}

	if s := p.checkCycles(reg, program.Classes); !s.IsOk() {
		return s
	}

	for _, class := range p.topologicalSort(reg, program.Classes) {
		p.logger.Debug("building class tables", "class", class.Name.Value, "parent", class.ParentName())
		if s := p.buildFeatures(reg, class); !s.IsOk() {
			return s
		}
	}

	return p.checkMain(reg)
}

func (p *ClassesDefinitionPass) register(reg *ClassRegistry, class *ast.Class) status.Status {
	name := class.Name.Value
	if name == ast.SelfTypeName {
		return errorAt(class, "class name cannot be SELF_TYPE")
	}
	if c, exists := reg.Lookup(name); exists {
		if c.Builtin {
			return errorAt(class, "class %s cannot be redefined", name)
		}
		return errorAt(class, "class %s is redefined", name)
	}
	if _, err := reg.Register(name, class); err != nil {
		return errorAt(class, "%v", err)
	}
	return status.Ok()
}

func (p *ClassesDefinitionPass) linkParent(reg *ClassRegistry, class *ast.Class) status.Status {
	name, parent := class.Name.Value, class.ParentName()
	switch parent {
	case IntClass, StringClass, BoolClass, ast.SelfTypeName:
		return errorAt(class, "class %s cannot inherit from %s", name, parent)
	}
	parentID := reg.TypeID(parent)
	if parentID == ast.NoType {
		return errorAt(class, "class %s inherits from undefined class %s", name, parent)
	}
	reg.setParent(reg.TypeID(name), parentID)
	return status.Ok()
}

func (p *ClassesDefinitionPass) checkCycles(reg *ClassRegistry, classes []*ast.Class) status.Status {
	limit := len(reg.Classes())
	for _, class := range classes {
		id := reg.TypeID(class.Name.Value)
		for steps := 0; id != ast.NoType; steps++ {
			if steps > limit {
				return errorAt(class, "inheritance cycle detected involving class %s", class.Name.Value)
			}
			id = reg.Parent(id)
		}
	}
	return status.Ok()
}

// topologicalSort orders classes so that every class follows its parent.
func (p *ClassesDefinitionPass) topologicalSort(reg *ClassRegistry, classes []*ast.Class) []*ast.Class {
	visited := make(map[string]bool)
	order := make([]*ast.Class, 0, len(classes))

	var visit func(cls *ast.Class)
	visit = func(cls *ast.Class) {
		if visited[cls.Name.Value] {
			return
		}
		visited[cls.Name.Value] = true
		if parent, ok := reg.Lookup(cls.ParentName()); ok && parent.Node != nil {
			visit(parent.Node)
		}
		order = append(order, cls)
	}

	for _, cls := range classes {
		visit(cls)
	}
	return order
}

func (p *ClassesDefinitionPass) buildFeatures(reg *ClassRegistry, class *ast.Class) status.Status {
	info, _ := reg.Lookup(class.Name.Value)
	for _, feature := range class.Features {
		var s status.Status
		switch f := feature.(type) {
		case *ast.Attribute:
			s = p.defineAttribute(reg, info, f)
		case *ast.Method:
			s = p.defineMethod(reg, info, f)
		default:
			s = errorAt(feature, "unknown feature %T", feature)
		}
		if !s.IsOk() {
			return s
		}
	}
	return status.Ok()
}

func (p *ClassesDefinitionPass) defineAttribute(reg *ClassRegistry, info *ClassInfo, attr *ast.Attribute) status.Status {
	name := attr.Name.Value
	if name == "self" {
		return errorAt(attr, "'self' cannot be the name of an attribute")
	}
	if _, ok := reg.Resolve(attr.Type.Value, info.ID); !ok {
		return errorAt(attr, "undefined type %s for attribute %s", attr.Type.Value, name)
	}
	if parent := info.Attributes.Parent(); parent != nil {
		if _, inherited := resolve(parent, name); inherited {
			return errorAt(attr, "attribute %s is an attribute of an inherited class", name)
		}
	}
	s := info.Attributes.AddElement(name, ObjectInfo{
		Name:     name,
		Kind:     ObjectAttribute,
		TypeName: attr.Type.Value,
		Token:    attr.Name.Token,
	})
	if !s.IsOk() {
		return errorAt(attr, "attribute %s is multiply defined in class %s", name, info.Name)
	}
	return status.Ok()
}

func (p *ClassesDefinitionPass) defineMethod(reg *ClassRegistry, info *ClassInfo, m *ast.Method) status.Status {
	name := m.Name.Value
	formals := make([]FormalInfo, 0, len(m.Parameters))
	seen := make(map[string]bool, len(m.Parameters))
	for _, f := range m.Parameters {
		switch {
		case f.Name.Value == "self":
			return errorAt(f, "'self' cannot be the name of a formal parameter")
		case seen[f.Name.Value]:
			return errorAt(f, "formal parameter %s is multiply defined in method %s", f.Name.Value, name)
		case f.Type.Value == ast.SelfTypeName:
			return errorAt(f, "formal parameter %s cannot have type SELF_TYPE", f.Name.Value)
		case reg.TypeID(f.Type.Value) == ast.NoType:
			return errorAt(f, "undefined type %s for formal parameter %s", f.Type.Value, f.Name.Value)
		}
		seen[f.Name.Value] = true
		formals = append(formals, FormalInfo{Name: f.Name.Value, TypeName: f.Type.Value})
	}
	if _, ok := reg.Resolve(m.ReturnType.Value, info.ID); !ok {
		return errorAt(m, "undefined return type %s in method %s", m.ReturnType.Value, name)
	}

	if parent := info.Methods.Parent(); parent != nil {
		if inherited, ok := resolve(parent, name); ok {
			if s := checkOverride(m, formals, inherited); !s.IsOk() {
				return s
			}
		}
	}

	s := info.Methods.AddElement(name, MethodInfo{
		Name:       name,
		Class:      info.Name,
		Formals:    formals,
		ReturnType: m.ReturnType.Value,
		Node:       m,
	})
	if !s.IsOk() {
		return errorAt(m, "method %s is multiply defined in class %s", name, info.Name)
	}
	info.Declared = append(info.Declared, name)
	return status.Ok()
}

func checkOverride(m *ast.Method, formals []FormalInfo, inherited MethodInfo) status.Status {
	name := m.Name.Value
	if len(formals) != len(inherited.Formals) {
		return errorAt(m, "incompatible number of formal parameters in redefined method %s", name)
	}
	for i, f := range formals {
		if f.TypeName != inherited.Formals[i].TypeName {
			return errorAt(m, "in redefined method %s, parameter type %s is different from original type %s",
				name, f.TypeName, inherited.Formals[i].TypeName)
		}
	}
	if m.ReturnType.Value != inherited.ReturnType {
		return errorAt(m, "in redefined method %s, return type %s is different from original return type %s",
			name, m.ReturnType.Value, inherited.ReturnType)
	}
	return status.Ok()
}

func (p *ClassesDefinitionPass) checkMain(reg *ClassRegistry) status.Status {
	main, ok := reg.Lookup("Main")
	if !ok {
		return status.GenericError("class Main is not defined")
	}
	m, ok := reg.LookupMethod(main.ID, "main")
	if !ok {
		return errorAt(main.Node, "no 'main' method in class Main")
	}
	if len(m.Formals) != 0 {
		return errorAt(main.Node, "'main' method in class Main should have no arguments")
	}
	return status.Ok()
}
