package fuzztests

import (
	"context"
	"testing"
	"time"

	"github.com/phonometrica/phonometrica-sub000/internal/compiler"
	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/parser"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/testkit"
)

// parseTimeout bounds a single parse; longer means a loop in error recovery.
const parseTimeout = 5 * time.Second

func FuzzParserSpans(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampSeed(input[:min(len(input), maxFuzzInput)])

		fs := source.NewFileSet()
		id := fs.AddVirtual("fuzz.phon", input)
		bag := diag.NewBag(128)
		b, root, err := parser.ParseFile(context.Background(), fs, id, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
		if err != nil {
			if bag.Len() == 0 {
				t.Fatalf("parse failed without a diagnostic: %v", err)
			}
			return
		}
		if err := testkit.CheckSpanInvariants(b, root, fs.Get(id)); err != nil {
			t.Fatalf("span invariants: %v", err)
		}
	})
}

// FuzzCompileNoHang runs the parser and the compiler under a deadline.
func FuzzCompileNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Add([]byte("while true do end"))
	f.Add([]byte("if if if then"))
	f.Add([]byte("function f() function g() function h() end end end"))
	f.Add([]byte("((((((((((((((((1))))))))))))))))"))

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampSeed(input[:min(len(input), maxFuzzInput)])

		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			fs := source.NewFileSet()
			id := fs.AddVirtual("fuzz.phon", input)
			b, root, err := parser.ParseFile(ctx, fs, id, parser.Options{})
			if err != nil {
				return
			}
			_, _ = compiler.Compile(ctx, b, root, fs.Get(id), compiler.Options{})
		}()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("front end hang: took longer than %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
