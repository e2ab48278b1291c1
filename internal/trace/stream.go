package trace

import (
	"bufio"
	"io"
	"sync"
)

// StreamTracer formats events as they arrive. Output is buffered; heartbeats,
// Flush and Close push it out. The first write error is kept and returned
// by Flush and Close instead of interrupting the traced work.
type StreamTracer struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer // set when the tracer owns the output file
	level  Level
	format Format
	seq    uint64
	n      int
	done   bool
	err    error
}

// NewStreamTracer writes events of level to w in format. FormatAuto means
// text. w is never closed.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	return &StreamTracer{w: bufio.NewWriter(w), level: level, format: format}
}

func (t *StreamTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.seq++
	e := *ev
	e.Seq = t.seq
	t.write(&e)
	if ev.Kind == KindHeartbeat {
		t.setErr(t.w.Flush())
	}
}

// write appends one formatted event; t.mu is held.
func (t *StreamTracer) write(ev *Event) {
	if t.format == FormatChrome {
		sep := ",\n"
		if t.n == 0 {
			sep = "{\"traceEvents\":[\n"
		}
		_, err := t.w.WriteString(sep)
		t.setErr(err)
	}
	_, err := t.w.Write(FormatEvent(ev, t.format))
	t.setErr(err)
	t.n++
}

func (t *StreamTracer) setErr(err error) {
	if t.err == nil && err != nil {
		t.err = err
	}
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setErr(t.w.Flush())
	return t.err
}

// Close terminates the chrome event array, flushes and closes the output
// file if the tracer opened it. Later events are dropped.
func (t *StreamTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return t.err
	}
	t.done = true
	if t.format == FormatChrome {
		footer := "\n]}\n"
		if t.n == 0 {
			footer = "{\"traceEvents\":[]}\n"
		}
		_, err := t.w.WriteString(footer)
		t.setErr(err)
	}
	t.setErr(t.w.Flush())
	if t.closer != nil {
		t.setErr(t.closer.Close())
	}
	return t.err
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
