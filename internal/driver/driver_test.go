package driver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/driver"
	"github.com/phonometrica/phonometrica-sub000/internal/observ"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func compilePath(t *testing.T, path string, cache *driver.DiskCache) driver.Result {
	t.Helper()
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	res, err := driver.Compile(context.Background(), fs, id, driver.Options{Cache: cache, Timer: observ.NewTimer()})
	if err != nil {
		t.Fatalf("compile %s: %v", path, err)
	}
	return res
}

func TestCompileUsesDiskCache(t *testing.T) {
	cache, err := driver.NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := writeScript(t, t.TempDir(), "main.phon", "var x = 2\nprint x & \"a\"\n")

	first := compilePath(t, path, cache)
	if first.Cached {
		t.Fatalf("first compile should not hit the cache")
	}
	second := compilePath(t, path, cache)
	if !second.Cached {
		t.Fatalf("second compile should hit the cache")
	}
	if !bytes.Equal(first.Routine.Code.Bytes, second.Routine.Code.Bytes) {
		t.Fatalf("cached bytecode differs")
	}
	if !slices.Equal(first.Routine.Strings, second.Routine.Strings) || second.Routine.File != first.Routine.File {
		t.Fatalf("cached routine differs: %+v", second.Routine)
	}

	writeScript(t, filepath.Dir(path), "main.phon", "print 1\n")
	if third := compilePath(t, path, cache); third.Cached {
		t.Fatalf("edited file should miss the cache")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if again := compilePath(t, path, cache); again.Cached {
		t.Fatalf("dropped cache should miss")
	}
}

func TestCompileSkipsCacheForVirtualFiles(t *testing.T) {
	dir := t.TempDir()
	cache, err := driver.NewDiskCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		fs := source.NewFileSet()
		id := fs.AddVirtual("<string>", []byte("print 1"))
		res, err := driver.Compile(context.Background(), fs, id, driver.Options{Cache: cache})
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached {
			t.Fatalf("virtual file was cached")
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("cache dir has %d entries", len(entries))
	}
}

func TestCompileReportsSyntaxErrors(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("bad.phon", []byte("print 1\nvar = 3\n"))
	_, err := driver.Compile(context.Background(), fs, id, driver.Options{})
	var de *diag.Error
	if !errors.As(err, &de) || de.Kind != diag.SyntaxError {
		t.Fatalf("want syntax error, got %v", err)
	}
	if de.Line != 2 || de.File != "bad.phon" {
		t.Fatalf("error located at %s:%d", de.File, de.Line)
	}
}

func TestParallelCompile(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.phon", "print 1\n")
	writeScript(t, dir, "sub/b.phon", "var y = (\n")
	writeScript(t, dir, "c.phon", "function f(x) return x end\n")
	writeScript(t, dir, "notes.txt", "not a script")

	paths, err := driver.ListScripts(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 {
		t.Fatalf("listed %v", paths)
	}
	paths = append(paths, filepath.Join(dir, "missing.phon"))

	var done atomic.Int32
	_, results, err := driver.ParallelCompile(context.Background(), paths, driver.BatchOptions{
		Jobs:   2,
		OnDone: func(driver.FileResult) { done.Add(1) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if done.Load() != 4 {
		t.Fatalf("OnDone called %d times", done.Load())
	}
	byName := make(map[string]driver.FileResult)
	for _, r := range results {
		byName[filepath.Base(r.Path)] = r
	}
	if r := byName["a.phon"]; r.Err != nil || r.Routine == nil || len(r.Timing.Phases) == 0 {
		t.Fatalf("a.phon: %+v", r)
	}
	if r := byName["c.phon"]; r.Err != nil || len(r.Routine.Routines) != 1 {
		t.Fatalf("c.phon: %+v", r)
	}
	var de *diag.Error
	if r := byName["b.phon"]; !errors.As(r.Err, &de) || de.Kind != diag.SyntaxError {
		t.Fatalf("b.phon: %v", r.Err)
	}
	if r := byName["missing.phon"]; !errors.As(r.Err, &de) || de.Code != diag.HostIOError || !errors.Is(r.Err, os.ErrNotExist) {
		t.Fatalf("missing.phon: %v", r.Err)
	}
}

func TestParallelCompileCancelled(t *testing.T) {
	path := writeScript(t, t.TempDir(), "a.phon", "print 1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := driver.ParallelCompile(ctx, []string{path}, driver.BatchOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want cancellation, got %v", err)
	}
}

func TestTokenize(t *testing.T) {
	path := writeScript(t, t.TempDir(), "t.phon", "var x = 1 # comment\nprint x\n")
	res, err := driver.Tokenize(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	if n := len(res.Tokens); n == 0 || res.Tokens[n-1].Kind != token.EOF {
		t.Fatalf("stream does not end with EOF: %v", res.Tokens)
	}

	bad := writeScript(t, t.TempDir(), "bad.phon", "print \"open\n")
	res, err = driver.Tokenize(bad, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Bag.HasErrors() {
		t.Fatalf("unterminated string not reported")
	}
}

func TestWriteTimings(t *testing.T) {
	tm := observ.NewTimer()
	tm.End(tm.Begin("parse"), "")
	results := []driver.FileResult{
		{Path: "a.phon", Timing: tm.Report()},
		{Path: "b.phon", Timing: tm.Report(), Err: errors.New("bad")},
	}

	var buf bytes.Buffer
	if err := driver.WriteTimings(&buf, results, true); err != nil {
		t.Fatal(err)
	}
	type payload struct {
		Kind   string `json:"kind"`
		Path   string `json:"path"`
		Failed bool   `json:"failed"`
		Phases []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"phases"`
	}
	var got []payload
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var p payload
		if err := dec.Decode(&p); err != nil {
			t.Fatal(err)
		}
		got = append(got, p)
	}
	if len(got) != 3 {
		t.Fatalf("decoded %d payloads", len(got))
	}
	if got[0].Kind != "file" || got[0].Path != "a.phon" || len(got[0].Phases) != 1 || !got[1].Failed {
		t.Fatalf("file payloads %+v", got[:2])
	}
	if got[2].Kind != "total" || len(got[2].Phases) != 1 || got[2].Phases[0].Count != 2 {
		t.Fatalf("total payload %+v", got[2])
	}

	buf.Reset()
	if err := driver.WriteTimings(&buf, results, false); err != nil {
		t.Fatal(err)
	}
	text := buf.String()
	if !strings.HasPrefix(text, "a.phon:\n") || !strings.Contains(text, "b.phon (failed):") || !strings.Contains(text, "2 file(s):") {
		t.Fatalf("text timings:\n%s", text)
	}
}
