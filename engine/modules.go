package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phonometrica/phonometrica-sub000/internal/compiler"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/object"
	"github.com/phonometrica/phonometrica-sub000/internal/trace"
)

// importModule backs `import a.b`: it resolves the dotted name to a file,
// runs it once with a fresh module object and returns that module. Later
// imports of the same file get the cached module.
func (rt *Runtime) importModule(ctx object.Context, args []object.Value) (object.Value, error) {
	h := ctx.Heap()
	name := args[0].S
	path, err := rt.resolveModule(name, rt.vm.File())
	if err != nil {
		return object.Null, err
	}
	if m, ok := rt.modules[path]; ok {
		trace.Point(rt.tracer, trace.ScopeModule, "import_cached", name, trace.CurrentSpan(rt.ctx), "path", path)
		return h.Retain(m), nil
	}
	if rt.loading[path] {
		return object.Null, diag.Errorf(diag.RuntimeError, diag.RunImportCycle, "import cycle: module '%s' is already being loaded", name)
	}
	rt.loading[path] = true
	defer delete(rt.loading, path)

	span := trace.Begin(rt.tracer, trace.ScopeModule, "import", trace.CurrentSpan(rt.ctx))
	defer span.End(path)
	cctx := rt.ctx
	if cctx == nil {
		cctx = context.Background()
	}
	if span.ID() != 0 {
		cctx = trace.WithSpanContext(cctx, span.Context())
	}

	id, err := rt.files.Load(path)
	if err != nil {
		return object.Null, &diag.Error{Kind: diag.RuntimeError, Code: diag.HostIOError, Message: err.Error(), Cause: err}
	}
	r, err := rt.compile(cctx, id, compiler.Options{Name: ""})
	if err != nil {
		return object.Null, err
	}
	fn := rt.vm.NewClosure(r)
	defer h.Release(fn)
	mod := h.NewModule(name, path)
	res, err := rt.vm.Call(fn, mod)
	if err != nil {
		h.Release(mod)
		return object.Null, err
	}
	h.Release(res)
	rt.modules[path] = mod
	return h.Retain(mod), nil
}

// resolveModule maps a dotted module name to a file: a.b becomes a/b plus
// the module extension, searched in the directory of the importing script
// and then in each configured module path.
func (rt *Runtime) resolveModule(name, importer string) (string, error) {
	if name == "" || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
		return "", diag.Errorf(diag.RuntimeError, diag.RunModuleNotFound, "invalid module name '%s'", name)
	}
	rel := filepath.Join(strings.Split(name, ".")...) + rt.cfg.ModuleExt

	var dirs []string
	if importer != "" && !strings.HasPrefix(importer, "<") {
		dirs = append(dirs, filepath.Dir(filepath.FromSlash(importer)))
	} else {
		dirs = append(dirs, ".")
	}
	dirs = append(dirs, rt.cfg.ModulePaths...)

	for _, dir := range dirs {
		candidate := filepath.Join(dir, rel)
		st, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", &diag.Error{Kind: diag.RuntimeError, Code: diag.HostIOError, Message: err.Error(), Cause: err}
		}
		if st.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(candidate); err == nil {
			candidate = abs
		}
		return candidate, nil
	}
	return "", diag.Errorf(diag.RuntimeError, diag.RunModuleNotFound, "cannot find module '%s' (searched %s)", name, strings.Join(dirs, ", "))
}

// Modules lists the resolved paths of the modules loaded so far, sorted.
func (rt *Runtime) Modules() []string {
	out := make([]string, 0, len(rt.modules))
	for path := range rt.modules {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
