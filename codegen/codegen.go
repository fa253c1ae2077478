// Package codegen lowers type-checked COOL methods to LLVM IR.
//
// Int is i32, Bool is i1, everything else is an i8* pointing at a heap
// object whose first word is the class type id. Basic values stored where an
// object is expected are boxed as { i32 typeid, value }.
package codegen

import (
	"errors"
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"coolc/ast"
	"coolc/semant"
	"coolc/symtab"
)

// ErrUnsupported is wrapped by every error for a construct the emitter does
// not lower.
var ErrUnsupported = errors.New("unsupported in codegen")

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

type CodeGenerator struct {
	module   *ir.Module
	registry *semant.ClassRegistry
	methods  map[string]*ir.Func
	strings  map[string]*ir.Global
	malloc   *ir.Func

	// per method
	class  *semant.ClassInfo
	self   value.Value
	entry  *ir.Block
	locals *symtab.SymbolTable[string, *ir.InstAlloca]
	labels int
}

// NewCodeGenerator returns a generator over an analyzed registry. An empty
// targetTriple leaves the module triple unset.
func NewCodeGenerator(registry *semant.ClassRegistry, targetTriple string) *CodeGenerator {
	module := ir.NewModule()
	module.TargetTriple = targetTriple
	return &CodeGenerator{
		module:   module,
		registry: registry,
		methods:  make(map[string]*ir.Func),
		strings:  make(map[string]*ir.Global),
	}
}

// Generate emits one function per user method plus a main entry point. The
// program must have passed semantic analysis.
func (g *CodeGenerator) Generate(program *ast.Program) (*ir.Module, error) {
	for _, class := range program.Classes {
		for _, feature := range class.Features {
			if m, ok := feature.(*ast.Method); ok {
				g.declareMethod(class.Name.Value, m)
			}
		}
	}

	for _, class := range program.Classes {
		info, ok := g.registry.Lookup(class.Name.Value)
		if !ok {
			return nil, fmt.Errorf("class %s is not registered", class.Name.Value)
		}
		for _, feature := range class.Features {
			switch f := feature.(type) {
			case *ast.Attribute:
				if f.Init != nil {
					return nil, unsupported("initializer of attribute %s.%s", info.Name, f.Name.Value)
				}
			case *ast.Method:
				if err := g.generateMethod(info, f); err != nil {
					return nil, fmt.Errorf("%s.%s: %w", info.Name, f.Name.Value, err)
				}
			}
		}
	}

	if err := g.generateEntryPoint(); err != nil {
		return nil, err
	}
	return g.module, nil
}

func methodName(class, method string) string {
	return class + "." + method
}

// llvmType maps a declared type name to its IR type.
func llvmType(name string) types.Type {
	switch name {
	case semant.IntClass:
		return types.I32
	case semant.BoolClass:
		return types.I1
	default:
		return types.I8Ptr
	}
}

func (g *CodeGenerator) exprType(t ast.ExprType) types.Type {
	if t.IsSelf {
		return types.I8Ptr
	}
	return llvmType(g.registry.Name(t.TypeID))
}

func (g *CodeGenerator) declareMethod(class string, m *ast.Method) {
	params := make([]*ir.Param, 0, len(m.Parameters)+1)
	params = append(params, ir.NewParam("self", types.I8Ptr))
	for _, f := range m.Parameters {
		params = append(params, ir.NewParam(f.Name.Value, llvmType(f.Type.Value)))
	}
	name := methodName(class, m.Name.Value)
	g.methods[name] = g.module.NewFunc(name, llvmType(m.ReturnType.Value), params...)
}

func (g *CodeGenerator) generateMethod(info *semant.ClassInfo, m *ast.Method) error {
	fn := g.methods[methodName(info.Name, m.Name.Value)]
	g.class = info
	g.self = fn.Params[0]
	g.entry = fn.NewBlock("entry")
	g.locals = symtab.New[string, *ir.InstAlloca]()
	g.labels = 0

	for i, f := range m.Parameters {
		param := fn.Params[i+1]
		slot := g.entry.NewAlloca(param.Typ)
		slot.SetName(f.Name.Value + ".addr")
		g.entry.NewStore(param, slot)
		if s := g.locals.AddElement(f.Name.Value, slot); !s.IsOk() {
			return fmt.Errorf("formal %s: %w", f.Name.Value, s.Err())
		}
	}

	result, block, err := g.generateExpression(g.entry, m.Body)
	if err != nil {
		return err
	}
	result, block, err = g.coerce(block, result, fn.Sig.RetType)
	if err != nil {
		return err
	}
	block.NewRet(result)
	return nil
}

// generateEntryPoint emits `i32 main()` which allocates a Main object and
// calls its main method.
func (g *CodeGenerator) generateEntryPoint() error {
	mainClass, ok := g.registry.Lookup("Main")
	if !ok {
		return errors.New("class Main is not defined")
	}
	m, ok := g.registry.LookupMethod(mainClass.ID, "main")
	if !ok {
		return errors.New("no 'main' method in class Main")
	}
	target, ok := g.methods[methodName(m.Class, "main")]
	if !ok {
		return unsupported("main inherited from built-in class %s", m.Class)
	}

	fn := g.module.NewFunc("main", types.I32)
	block := fn.NewBlock("entry")
	obj := g.allocate(block, constant.NewInt(types.I32, int64(mainClass.ID)))
	block.NewCall(target, obj)
	block.NewRet(constant.NewInt(types.I32, 0))
	return nil
}

func (g *CodeGenerator) label(prefix string) string {
	g.labels++
	return fmt.Sprintf("%s.%d", prefix, g.labels)
}

func (g *CodeGenerator) getOrCreateMalloc() *ir.Func {
	if g.malloc == nil {
		g.malloc = g.module.NewFunc("malloc", types.I8Ptr, ir.NewParam("size", types.I64))
	}
	return g.malloc
}

// allocate returns a fresh object whose header holds typeID.
func (g *CodeGenerator) allocate(block *ir.Block, typeID value.Value) value.Value {
	obj := block.NewCall(g.getOrCreateMalloc(), constant.NewInt(types.I64, 8))
	header := block.NewBitCast(obj, types.NewPointer(types.I32))
	block.NewStore(typeID, header)
	return obj
}

// box wraps an i32 or i1 into a heap object tagged with its class id.
func (g *CodeGenerator) box(block *ir.Block, v value.Value) (value.Value, error) {
	var class string
	switch {
	case v.Type().Equal(types.I32):
		class = semant.IntClass
	case v.Type().Equal(types.I1):
		class = semant.BoolClass
	default:
		return nil, unsupported("boxing a value of type %s", v.Type())
	}
	layout := types.NewStruct(types.I32, v.Type())
	obj := block.NewCall(g.getOrCreateMalloc(), constant.NewInt(types.I64, 8))
	typed := block.NewBitCast(obj, types.NewPointer(layout))
	zero := constant.NewInt(types.I32, 0)
	tag := block.NewGetElementPtr(layout, typed, zero, zero)
	block.NewStore(constant.NewInt(types.I32, int64(g.registry.TypeID(class))), tag)
	field := block.NewGetElementPtr(layout, typed, zero, constant.NewInt(types.I32, 1))
	block.NewStore(v, field)
	return obj, nil
}

// coerce converts v to type to, boxing basic values stored as objects.
func (g *CodeGenerator) coerce(block *ir.Block, v value.Value, to types.Type) (value.Value, *ir.Block, error) {
	if v.Type().Equal(to) {
		return v, block, nil
	}
	if to.Equal(types.I8Ptr) {
		boxed, err := g.box(block, v)
		return boxed, block, err
	}
	return nil, block, unsupported("conversion from %s to %s", v.Type(), to)
}

func (g *CodeGenerator) getOrCreateStringConstant(s string) value.Value {
	global, ok := g.strings[s]
	if !ok {
		global = g.module.NewGlobalDef(fmt.Sprintf(".str.%d", len(g.strings)), constant.NewCharArray([]byte(s+"\x00")))
		global.Immutable = true
		g.strings[s] = global
	}
	zero := constant.NewInt(types.I32, 0)
	return constant.NewGetElementPtr(global.ContentType, global, zero, zero)
}
