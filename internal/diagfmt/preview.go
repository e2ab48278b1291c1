package diagfmt

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/phonometrica/phonometrica-sub000/internal/source"
)

// excerptLine is one numbered source line of an excerpt.
type excerptLine struct {
	num  uint32
	text string
}

// excerpt returns line and up to context lines on each side of it.
func excerpt(f *source.File, line uint32, context uint8) []excerptLine {
	if f == nil || line == 0 {
		return nil
	}
	last := lineCount(f)
	if line > last {
		return nil
	}
	from := line - min(line-1, uint32(context))
	to := min(last, line+uint32(context))
	out := make([]excerptLine, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, excerptLine{num: n, text: f.GetLine(n)})
	}
	return out
}

// lineCount reports the number of lines in f. A trailing newline does not
// open a new line.
func lineCount(f *source.File) uint32 {
	n, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
		n++
	}
	return max(n, 1)
}

func lineStartOffset(f *source.File, line uint32) uint32 {
	if line <= 1 {
		return 0
	}
	idx := line - 2
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	lenFileContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return lenFileContent
}

func lineEndOffset(f *source.File, line uint32) uint32 {
	if line == 0 {
		return 0
	}
	idx := line - 1
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx]
	}
	lenFileContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return lenFileContent
}

// caretRange returns the 0-based byte columns underlined on the start line of
// span. The range is clipped to that line and is at least one column wide.
func caretRange(f *source.File, span source.Span, line uint32) (from, to int) {
	start := lineStartOffset(f, line)
	end := lineEndOffset(f, line)
	s := min(max(span.Start, start), end)
	e := min(max(span.End, s), end)
	from = int(s - start)
	to = int(e - start)
	if to <= from {
		to = from + 1
	}
	return from, to
}
