package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phonometrica/phonometrica-sub000/internal/compiler"
	"github.com/phonometrica/phonometrica-sub000/internal/driver"
	"github.com/phonometrica/phonometrica-sub000/internal/observ"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

// CheckRequest configures a batch compile of scripts.
type CheckRequest struct {
	// Targets are script files or directories searched for files with Ext.
	Targets  []string
	Ext      string
	BaseDir  string
	Jobs     int
	Compiler compiler.Options
	Cache    *driver.DiskCache
	Progress ProgressSink
}

// CheckResult holds one entry per script, in the order of Files.
type CheckResult struct {
	FileSet *source.FileSet
	// Files are the display names of the scripts, relative to BaseDir when possible.
	Files   []string
	Results []driver.FileResult
	Timings Timings
}

// Failed reports how many scripts did not compile.
func (r CheckResult) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Err joins the per-file errors, or returns nil when every script compiled.
func (r CheckResult) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// Expand resolves targets into a sorted, duplicate-free list of script paths.
func Expand(targets []string, ext string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		paths := []string{target}
		if info.IsDir() {
			if paths, err = driver.ListScripts(target, ext); err != nil {
				return nil, err
			}
		}
		for _, p := range paths {
			key := filepath.Clean(p)
			if !seen[key] {
				seen[key] = true
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// Check compiles every script of req in parallel and reports progress per
// file. Compile errors are collected in the result; the returned error is
// only set when the targets cannot be read or ctx is cancelled.
func Check(ctx context.Context, req *CheckRequest) (CheckResult, error) {
	var result CheckResult
	if req == nil {
		return result, fmt.Errorf("missing check request")
	}
	if len(req.Targets) == 0 {
		return result, fmt.Errorf("no scripts to check")
	}

	start := time.Now()
	paths, err := Expand(req.Targets, req.Ext)
	if err != nil {
		emitStage(req.Progress, nil, StageScan, StatusError, err, time.Since(start))
		return result, err
	}
	result.Timings.Scan = time.Since(start)
	result.Files = DisplayPaths(paths, req.BaseDir)
	names := make(map[string]string, len(paths))
	for i, p := range paths {
		names[p] = result.Files[i]
	}
	emitQueued(req.Progress, result.Files)

	start = time.Now()
	fs, results, err := driver.ParallelCompile(ctx, paths, driver.BatchOptions{
		Compiler: req.Compiler,
		Cache:    req.Cache,
		Jobs:     req.Jobs,
		OnStart: func(path string) {
			emit(req.Progress, Event{File: names[path], Stage: StageCompile, Status: StatusWorking})
		},
		OnDone: func(res driver.FileResult) {
			status := StatusDone
			switch {
			case res.Err != nil:
				status = StatusError
			case res.Cached:
				status = StatusCached
			}
			emit(req.Progress, Event{
				File:    names[res.Path],
				Stage:   StageCompile,
				Status:  status,
				Err:     res.Err,
				Elapsed: time.Duration(res.Timing.TotalMS * float64(time.Millisecond)),
			})
		},
	})
	result.FileSet, result.Results = fs, results
	result.Timings.Compile = time.Since(start)
	reports := make([]observ.Report, len(results))
	for i, r := range results {
		reports[i] = r.Timing
	}
	result.Timings.Phases = observ.Merge(reports...)
	if err != nil {
		emitStage(req.Progress, nil, StageCompile, StatusError, err, time.Since(start))
		return result, err
	}
	status := StatusDone
	if result.Failed() > 0 {
		status = StatusError
	}
	emitStage(req.Progress, nil, StageCompile, status, nil, time.Since(start))
	return result, nil
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}

func emitQueued(sink ProgressSink, files []string) {
	for _, file := range files {
		emit(sink, Event{File: file, Stage: StageCompile, Status: StatusQueued})
	}
}

func emitStage(sink ProgressSink, files []string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
}

// DisplayPaths shortens files to paths relative to baseDir when they live
// below it. Names stay unique because the inputs are.
func DisplayPaths(files []string, baseDir string) []string {
	base := strings.TrimSpace(baseDir)
	if base != "" {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
	}
	out := make([]string, len(files))
	for i, file := range files {
		path := filepath.Clean(file)
		if base != "" {
			if abs, err := filepath.Abs(path); err == nil {
				if rel, err := filepath.Rel(base, abs); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
					path = rel
				}
			}
		}
		out[i] = filepath.ToSlash(path)
	}
	return out
}
