package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/phonometrica/phonometrica-sub000/engine"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, src := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestImportRunsModuleOnce(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.phon": "import util.math as m\nimport util.math\nprint m.twice(21), math.pi\n",
		"util/math.phon": `print "loading"
export function twice(x) return 2 * x end
export var pi = 3
`,
	})
	rt, out := newRuntime(t, engine.DefaultConfig())
	v, err := rt.DoFile(context.Background(), filepath.Join(dir, "main.phon"))
	if err != nil {
		t.Fatal(err)
	}
	rt.Release(v)
	if out.String() != "loading\n42 3\n" {
		t.Fatalf("output %q", out.String())
	}
	if mods := rt.Modules(); len(mods) != 1 || filepath.Base(mods[0]) != "math.phon" {
		t.Fatalf("modules %v", mods)
	}
}

func TestImportSearchesModulePaths(t *testing.T) {
	lib := t.TempDir()
	writeFiles(t, lib, map[string]string{"helper.phon": "export var name = \"lib\""})
	scripts := t.TempDir()
	writeFiles(t, scripts, map[string]string{"main.phon": "import helper\nreturn helper.name"})

	cfg := engine.DefaultConfig()
	cfg.ModulePaths = []string{lib}
	rt, _ := newRuntime(t, cfg)
	v, err := rt.DoFile(context.Background(), filepath.Join(scripts, "main.phon"))
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Release(v)
	if v.S != "lib" {
		t.Fatalf("got %s", rt.Repr(v))
	}
}

func TestImportErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"missing.phon": "print 1\nimport nowhere\n",
		"a.phon":       "import b\n",
		"b.phon":       "import a\n",
		"broken.phon":  "import bad\n",
		"bad.phon":     "print 1\nprint )\n",
	})
	rt, _ := newRuntime(t, engine.DefaultConfig())
	ctx := context.Background()

	_, err := rt.DoFile(ctx, filepath.Join(dir, "missing.phon"))
	de := engineErr(t, err, diag.RuntimeError, diag.RunModuleNotFound)
	if de.Line != 2 {
		t.Fatalf("not found reported at line %d", de.Line)
	}

	_, err = rt.DoFile(ctx, filepath.Join(dir, "a.phon"))
	engineErr(t, err, diag.RuntimeError, diag.RunImportCycle)

	_, err = rt.DoFile(ctx, filepath.Join(dir, "broken.phon"))
	de = engineErr(t, err, diag.SyntaxError, diag.SynExpectExpression)
	if filepath.Base(de.File) != "bad.phon" || de.Line != 2 {
		t.Fatalf("syntax error located at %s:%d", de.File, de.Line)
	}
}
