package driver

import (
	"context"
	"fmt"

	"github.com/phonometrica/phonometrica-sub000/internal/bytecode"
	"github.com/phonometrica/phonometrica-sub000/internal/compiler"
	"github.com/phonometrica/phonometrica-sub000/internal/observ"
	"github.com/phonometrica/phonometrica-sub000/internal/parser"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/trace"
)

// Options configures one front-end run.
type Options struct {
	Compiler compiler.Options
	Parser   parser.Options
	// Cache, when set, is consulted before parsing and filled afterwards.
	// Virtual files never go through it.
	Cache *DiskCache
	// Timer receives one phase per pipeline step; may be nil.
	Timer *observ.Timer
}

// Result is the outcome of compiling one file.
type Result struct {
	Routine *bytecode.Routine
	// Cached is set when the routine was read from the disk cache.
	Cached bool
}

// Compile parses and compiles file id of fs. Syntax and compile errors are
// returned as *diag.Error. A cache read or write failure is not fatal: the
// file is compiled from source and the failure is recorded in the trace.
func Compile(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) (Result, error) {
	file := fs.Get(id)
	if file == nil {
		return Result{}, fmt.Errorf("compile: unknown file id %d", id)
	}
	tracer := trace.FromContext(ctx)
	ctx, span := trace.StartSpan(ctx, trace.ScopeModule, "front_end")

	useCache := opts.Cache != nil && file.Flags&source.FileVirtual == 0
	var key Digest
	if useCache {
		key = cacheKey(file, opts.Compiler)
		idx := opts.Timer.Begin("cache")
		var payload DiskPayload
		hit, err := opts.Cache.Get(key, &payload)
		opts.Timer.End(idx, file.Path)
		if err != nil {
			trace.Point(tracer, trace.ScopeModule, "cache_error", err.Error(), span.Context())
		}
		if hit && payload.Path == file.Path {
			span.End("cached")
			return Result{Routine: payload.Routine, Cached: true}, nil
		}
	}

	idx := opts.Timer.Begin("parse")
	b, root, err := parser.ParseFile(ctx, fs, id, opts.Parser)
	opts.Timer.End(idx, file.Path)
	if err != nil {
		span.End("syntax error")
		return Result{}, err
	}

	idx = opts.Timer.Begin("compile")
	r, err := compiler.Compile(ctx, b, root, file, opts.Compiler)
	opts.Timer.End(idx, file.Path)
	if err != nil {
		span.End("compile error")
		return Result{}, err
	}

	if useCache {
		if err := opts.Cache.Put(key, &DiskPayload{Path: file.Path, Routine: r}); err != nil {
			trace.Point(tracer, trace.ScopeModule, "cache_error", err.Error(), span.Context())
		}
	}
	span.End("")
	return Result{Routine: r}, nil
}
