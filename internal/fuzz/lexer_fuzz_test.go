package fuzztests

import (
	"testing"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/lexer"
	"github.com/phonometrica/phonometrica-sub000/internal/source"
	"github.com/phonometrica/phonometrica-sub000/internal/token"
)

const maxFuzzInput = 1 << 16

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampSeed(input[:min(len(input), maxFuzzInput)])

		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.phon", input))

		bag := diag.NewBag(64)
		lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
		var last uint32
		for n := 0; ; n++ {
			tok := lx.Next()
			if tok.Span.Start < last || tok.Span.End < tok.Span.Start {
				t.Fatalf("token %d %v goes backwards (previous end %d)", n, tok.Span, last)
			}
			last = tok.Span.End
			if tok.Kind == token.EOF {
				break
			}
			if n > len(input)+1 {
				t.Fatalf("lexer produced more tokens than input bytes")
			}
		}
	})
}
