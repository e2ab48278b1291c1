package trace_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/phonometrica/phonometrica-sub000/internal/trace"
)

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level trace.Level
		scope trace.Scope
		want  bool
	}{
		{trace.LevelOff, trace.ScopeCommand, false},
		{trace.LevelError, trace.ScopePhase, true},
		{trace.LevelError, trace.ScopeModule, false},
		{trace.LevelPhase, trace.ScopePhase, true},
		{trace.LevelPhase, trace.ScopeModule, false},
		{trace.LevelDetail, trace.ScopeModule, true},
		{trace.LevelDetail, trace.ScopeRuntime, false},
		{trace.LevelDebug, trace.ScopeRuntime, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v", tt.level, tt.scope, got)
		}
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := trace.ParseLevel("Detail"); err != nil || l != trace.LevelDetail {
		t.Fatalf("ParseLevel(Detail) = %v, %v", l, err)
	}
	if _, err := trace.ParseLevel("loud"); err == nil {
		t.Fatalf("ParseLevel accepted an unknown level")
	}
	if m, err := trace.ParseMode("both"); err != nil || m != trace.ModeBoth {
		t.Fatalf("ParseMode(both) = %v, %v", m, err)
	}
	if f, err := trace.ParseFormat("json"); err != nil || f != trace.FormatNDJSON {
		t.Fatalf("ParseFormat(json) = %v, %v", f, err)
	}
	if _, err := trace.ParseFormat("xml"); err == nil {
		t.Fatalf("ParseFormat accepted xml")
	}
}

func TestStartSpanNestsThroughContext(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)

	ctx, outer := trace.StartSpan(ctx, trace.ScopePhase, "run")
	laneCtx := trace.WithLane(ctx, 3)
	_, inner := trace.StartSpan(laneCtx, trace.ScopeModule, "import")
	trace.Point(ring, trace.ScopeRuntime, "gc", "", inner.Context(), "freed", "2", "odd")
	inner.WithExtra("path", "a.phon").End("done")
	outer.End("")

	evs := ring.Snapshot()
	if len(evs) != 5 {
		t.Fatalf("recorded %d events, want 5", len(evs))
	}
	if evs[1].ParentID != outer.ID() || evs[1].Lane != 3 {
		t.Fatalf("inner begin = %+v", evs[1])
	}
	if evs[2].ParentID != inner.ID() || evs[2].Extra["freed"] != "2" || len(evs[2].Extra) != 1 {
		t.Fatalf("point = %+v", evs[2])
	}
	if evs[3].Kind != trace.KindSpanEnd || evs[3].Detail != "done" || evs[3].Extra["path"] != "a.phon" {
		t.Fatalf("inner end = %+v", evs[3])
	}
	for i, ev := range evs {
		if ev.Seq != uint64(i+1) {
			t.Fatalf("event %d has seq %d", i, ev.Seq)
		}
	}
}

func TestFilteredSpanKeepsContext(t *testing.T) {
	ring := trace.NewRingTracer(4, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)
	got, span := trace.StartSpan(ctx, trace.ScopeRuntime, "gc")
	if got != ctx || span.ID() != 0 {
		t.Fatalf("filtered span changed the context")
	}
	if span.End("x") != 0 || len(ring.Snapshot()) != 0 {
		t.Fatalf("filtered span recorded events")
	}
	var nilSpan *trace.Span
	nilSpan.WithExtra("k", "v").End("")

	_, s := trace.StartSpan(context.Background(), trace.ScopeCommand, "run")
	if s.ID() != 0 {
		t.Fatalf("span started without a tracer")
	}
}

func TestRingWrapsAround(t *testing.T) {
	ring := trace.NewRingTracer(3, trace.LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		trace.Point(ring, trace.ScopeRuntime, name, "", trace.SpanContext{})
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if strings.Join(names, "") != "cde" {
		t.Fatalf("snapshot = %v", names)
	}
	if ring.Dropped() != 2 {
		t.Fatalf("dropped = %d", ring.Dropped())
	}
}

func TestStreamText(t *testing.T) {
	var buf bytes.Buffer
	st := trace.NewStreamTracer(&buf, trace.LevelDetail, trace.FormatText)
	span := trace.Begin(st, trace.ScopePhase, "parse", trace.SpanContext{Lane: 2})
	trace.Point(st, trace.ScopeRuntime, "gc", "", span.Context())
	trace.Point(st, trace.ScopeModule, "cache_error", "disk full", span.Context(), "b", "2", "a", "1")
	span.End("t.phon")
	if buf.Len() != 0 {
		t.Fatalf("stream wrote before flushing: %q", buf.String())
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines:\n%s", buf.String())
	}
	if lines[0] != "[     1] begin phase   #2 parse" {
		t.Errorf("begin line %q", lines[0])
	}
	if lines[1] != "[     2] point module  #2 cache_error (disk full) {a=1, b=2}" {
		t.Errorf("point line %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "[     3] end   phase   #2 parse ") || !strings.HasSuffix(lines[2], " (t.phon)") {
		t.Errorf("end line %q", lines[2])
	}
	st.Emit(&trace.Event{Kind: trace.KindPoint, Scope: trace.ScopePhase, Name: "late"})
	if strings.Contains(buf.String(), "late") {
		t.Fatalf("event written after Close")
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	st := trace.NewStreamTracer(&buf, trace.LevelPhase, trace.FormatNDJSON)
	trace.Begin(st, trace.ScopePhase, "compile", trace.SpanContext{}).End("x.phon")
	if err := st.Flush(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines:\n%s", buf.String())
	}
	var ev struct {
		Kind   string `json:"kind"`
		Scope  string `json:"scope"`
		Name   string `json:"name"`
		Detail string `json:"detail"`
		Seq    uint64 `json:"seq"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Kind != "end" || ev.Scope != "phase" || ev.Name != "compile" || ev.Detail != "x.phon" || ev.Seq != 2 {
		t.Fatalf("decoded %+v", ev)
	}
}

func TestStreamChromeIsValidJSON(t *testing.T) {
	for _, n := range []int{0, 2} {
		var buf bytes.Buffer
		st := trace.NewStreamTracer(&buf, trace.LevelDebug, trace.FormatChrome)
		for i := 0; i < n; i++ {
			trace.Begin(st, trace.ScopePhase, "run", trace.SpanContext{Lane: 1}).End("main.phon")
		}
		if err := st.Close(); err != nil {
			t.Fatal(err)
		}
		var doc struct {
			TraceEvents []struct {
				Name string            `json:"name"`
				Ph   string            `json:"ph"`
				Tid  uint32            `json:"tid"`
				Args map[string]string `json:"args"`
			} `json:"traceEvents"`
		}
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("%d events: %v\n%s", n, err, buf.String())
		}
		if len(doc.TraceEvents) != 2*n {
			t.Fatalf("decoded %d events, want %d", len(doc.TraceEvents), 2*n)
		}
		if n > 0 && (doc.TraceEvents[1].Ph != "E" || doc.TraceEvents[1].Tid != 1 || doc.TraceEvents[1].Args["detail"] != "main.phon") {
			t.Fatalf("end event %+v", doc.TraceEvents[1])
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestStreamKeepsFirstWriteError(t *testing.T) {
	st := trace.NewStreamTracer(failingWriter{}, trace.LevelPhase, trace.FormatText)
	trace.Begin(st, trace.ScopePhase, "parse", trace.SpanContext{}).End("")
	if err := st.Flush(); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Flush() = %v", err)
	}
}

func TestNewSelectsTracer(t *testing.T) {
	tr, err := trace.New(trace.Config{Level: trace.LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off level gave %T, %v", tr, err)
	}

	tr, err = trace.New(trace.Config{Level: trace.LevelError, Mode: trace.ModeStream})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.(*trace.RingTracer); !ok {
		t.Fatalf("error level gave %T, want a ring", tr)
	}

	var buf bytes.Buffer
	tr, err = trace.New(trace.Config{Level: trace.LevelPhase, Mode: trace.ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	trace.Begin(tr, trace.ScopePhase, "run", trace.SpanContext{}).End("")
	var dump bytes.Buffer
	ok, err := trace.DumpRing(tr, &dump, trace.FormatText)
	if !ok || err != nil {
		t.Fatalf("DumpRing() = %v, %v", ok, err)
	}
	if strings.Count(dump.String(), "\n") != 2 {
		t.Fatalf("dump:\n%s", dump.String())
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 2 {
		t.Fatalf("stream:\n%s", buf.String())
	}

	if ok, _ := trace.DumpRing(trace.Nop, &dump, trace.FormatText); ok {
		t.Fatalf("Nop reported a ring")
	}
}

func TestHeartbeat(t *testing.T) {
	var nilBeat *trace.Heartbeat
	nilBeat.Stop()
	if trace.StartHeartbeat(trace.Nop, time.Millisecond) != nil {
		t.Fatalf("heartbeat started on a disabled tracer")
	}

	ring := trace.NewRingTracer(64, trace.LevelPhase)
	h := trace.StartHeartbeat(ring, time.Millisecond)
	deadline := time.Now().Add(5 * time.Second)
	for len(ring.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	evs := ring.Snapshot()
	if len(evs) == 0 || evs[0].Kind != trace.KindHeartbeat || evs[0].Detail != "#1" {
		t.Fatalf("events %+v", evs)
	}
}
