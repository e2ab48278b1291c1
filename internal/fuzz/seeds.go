package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10

// languageSeeds cover every statement form and most expression forms.
var languageSeeds = []string{
	"",
	"print 1 + 2 * 3",
	"var x = 1; while x < 5 do x += 1 end; return x",
	"local a, b = 1, 2\nif a > b then print a elsif a == b then print 0 else print b end",
	"function f(n) if n <= 1 then return 1 end return n * f(n - 1) end\nprint f(10)",
	"function g(a as Integer, ref b) b = a end",
	"foreach ref x in [1, 2, 3] do x = x * 2 end",
	"foreach k, v in {\"a\": 1, \"b\": 2} do print k, v end",
	"for i = 10 downto 1 step 2 do continue end",
	"repeat x -= 1 until x == 0",
	"class Point end",
	"import a.b as c\nexport var name = c.name",
	"var f = function(x) return x end; print f(\"s\" & 1)",
	"throw \"bad\" & 1",
	"assert 1 == 1, \"math\"",
	"print #[1,2,3], not true, -2 ^ 2, 7 mod 3",
	"var s = \"unterminated",
	"print (1",
	"print [1, 2",
	"var m = {1: 2,",
	"x = y = z",
	"print 1 if",
	"function (",
	"@@",
	"print \"\\u00e9\\x41\\n\"",
	"print 0x1F + 1e10 + 1.5e-3",
	"# comment\nprint 1 # trailing",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range languageSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".phon" {
			return nil
		}
		// #nosec G304 -- path comes from the testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
