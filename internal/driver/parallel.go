package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"github.com/phonometrica/phonometrica-sub000/internal/compiler"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/observ"
	"github.com/phonometrica/phonometrica-sub000/internal/parser"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/trace"
)

// DefaultExt is the extension of script files.
const DefaultExt = ".phon"

// FileResult is the outcome for one file of a batch compile.
type FileResult struct {
	Path   string
	FileID source.FileID
	Result
	// Err is a load failure, a *diag.Error or nil.
	Err    error
	Timing observ.Report
}

// BatchOptions configures ParallelCompile.
type BatchOptions struct {
	Compiler compiler.Options
	Cache    *DiskCache
	// Jobs bounds the number of files compiled at once; zero means GOMAXPROCS.
	Jobs int
	// OnStart is called from the worker goroutine before a file is compiled.
	OnStart func(path string)
	// OnDone is called from the worker goroutine after each file.
	OnDone func(FileResult)
}

// ListScripts returns the sorted paths of files with extension ext under
// dir, or dir itself when it is a file.
func ListScripts(dir, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultExt
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ParallelCompile compiles every path independently. Files are loaded up
// front so the shared FileSet is only read by the workers; each file gets
// its own interner. Per-file failures are reported in the results, the
// returned error is only set on cancellation.
func ParallelCompile(ctx context.Context, paths []string, opts BatchOptions) (*source.FileSet, []FileResult, error) {
	fileSet := source.NewFileSet()
	results := make([]FileResult, len(paths))
	if len(paths) == 0 {
		return fileSet, results, nil
	}
	loadErrors := make(map[int]error)
	for i, path := range paths {
		id, err := fileSet.Load(path)
		results[i] = FileResult{Path: path, FileID: id}
		if err != nil {
			loadErrors[i] = err
		}
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	limit, err := safecast.Conv[int](min(jobs, len(paths)))
	if err != nil {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res := &results[i]
			if opts.OnStart != nil {
				opts.OnStart(res.Path)
			}
			if loadErr, ok := loadErrors[i]; ok {
				res.Err = &diag.Error{Kind: diag.RuntimeError, Code: diag.HostIOError, File: res.Path, Message: loadErr.Error(), Cause: loadErr}
			} else {
				timer := observ.NewTimer()
				lane, _ := safecast.Conv[uint32](i + 1)
				r, err := Compile(trace.WithLane(gctx, lane), fileSet, res.FileID, Options{
					Compiler: opts.Compiler,
					Parser:   parser.Options{MaxDepth: opts.Compiler.MaxDepth},
					Cache:    opts.Cache,
					Timer:    timer,
				})
				res.Result, res.Err, res.Timing = r, err, timer.Report()
			}
			if opts.OnDone != nil {
				opts.OnDone(*res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}
