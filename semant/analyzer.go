package semant

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"coolc/ast"
	"coolc/status"
)

// Options configures an Analyzer. Jobs <= 0 means GOMAXPROCS; a nil Logger
// discards records.
type Options struct {
	Jobs   int
	Logger *slog.Logger
}

// Analyzer runs the class-definition pass and then type-checks every class.
type Analyzer struct {
	jobs     int
	logger   *slog.Logger
	registry *ClassRegistry
	errors   []string
}

func NewAnalyzer(opts Options) *Analyzer {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{
		jobs:     opts.Jobs,
		logger:   opts.Logger,
		registry: NewClassRegistry(),
	}
}

// Errors returns the diagnostics of the last Analyze call, at most one per
// class, in declaration order.
func (a *Analyzer) Errors() []string {
	return a.errors
}

func (a *Analyzer) Registry() *ClassRegistry {
	return a.registry
}

// Analyze checks program. Semantic errors are reported through Errors; the
// returned error is only set when ctx is cancelled.
func (a *Analyzer) Analyze(ctx context.Context, program *ast.Program) error {
	a.registry = NewClassRegistry()
	a.errors = nil

	a.logger.Info("building class hierarchy")
	if s := NewClassesDefinitionPass(a.logger).Run(a.registry, program); !s.IsOk() {
		a.errors = append(a.errors, s.ErrorMessage())
		return nil
	}

	a.logger.Info("type checking", "classes", len(program.Classes), "jobs", a.jobs)
	results := make([]status.Status, len(program.Classes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(a.jobs, len(program.Classes))))
	for i, class := range program.Classes {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = a.checkClass(class)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, s := range results {
		if !s.IsOk() {
			a.logger.Debug("class failed", "class", program.Classes[i].Name.Value, "error", s.ErrorMessage())
			a.errors = append(a.errors, s.ErrorMessage())
		}
	}
	return nil
}

func (a *Analyzer) checkClass(class *ast.Class) status.Status {
	info, _ := a.registry.Lookup(class.Name.Value)
	pass := &TypeCheckPass{}
	for _, feature := range class.Features {
		var s status.Status
		switch f := feature.(type) {
		case *ast.Attribute:
			s = a.checkAttribute(pass, info, f)
		case *ast.Method:
			s = a.checkMethod(pass, info, f)
		}
		if !s.IsOk() {
			return s
		}
	}
	return status.Ok()
}

func (a *Analyzer) checkAttribute(pass *TypeCheckPass, info *ClassInfo, attr *ast.Attribute) status.Status {
	if attr.Init == nil {
		return status.Ok()
	}
	ctx := NewContext(a.registry, info, nil)
	if s := pass.Visit(ctx, attr.Init); !s.IsOk() {
		return s
	}
	declared, _ := a.registry.Resolve(attr.Type.Value, info.ID)
	if got := attr.Init.Type(); !a.registry.Conforms(got, declared) {
		return errorAt(attr, "type does not conform: initializer of attribute %s is %s, want %s",
			attr.Name.Value, a.registry.TypeName(got), attr.Type.Value)
	}
	return status.Ok()
}

func (a *Analyzer) checkMethod(pass *TypeCheckPass, info *ClassInfo, m *ast.Method) status.Status {
	locals := newLocalTable(info)
	for _, f := range m.Parameters {
		s := locals.AddElement(f.Name.Value, ObjectInfo{
			Name:     f.Name.Value,
			Kind:     ObjectFormal,
			TypeName: f.Type.Value,
			Token:    f.Name.Token,
		})
		if !s.IsOk() {
			return errorAt(f, "formal parameter %s is multiply defined in method %s", f.Name.Value, m.Name.Value)
		}
	}
	ctx := NewContext(a.registry, info, locals)
	if s := pass.Visit(ctx, m.Body); !s.IsOk() {
		return s
	}
	declared, _ := a.registry.Resolve(m.ReturnType.Value, info.ID)
	if got := m.Body.Type(); !a.registry.Conforms(got, declared) {
		return errorAt(m, "type does not conform: body of method %s is %s, want %s",
			m.Name.Value, a.registry.TypeName(got), m.ReturnType.Value)
	}
	return status.Ok()
}
