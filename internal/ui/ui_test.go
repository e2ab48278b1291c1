package ui

import (
	"errors"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/phonometrica/phonometrica-sub000/internal/buildpipeline"
)

var errIncomplete = errors.New("incomplete")

type fakeRuntime struct {
	chunks []string
}

func (f *fakeRuntime) evaluator() Evaluator {
	return Evaluator{
		Eval: func(code string) (string, error) {
			f.chunks = append(f.chunks, code)
			switch {
			case strings.HasSuffix(code, "do"):
				return "", errIncomplete
			case strings.Contains(code, "oops"):
				return "partial\n", errors.New("boom")
			}
			return "ok\n", nil
		},
		Incomplete: func(_ string, err error) bool { return errors.Is(err, errIncomplete) },
		FormatError: func(err error) string {
			return "E: " + err.Error() + "\n"
		},
	}
}

func enter(t *testing.T, m tea.Model, line string) (tea.Model, tea.Cmd) {
	t.Helper()
	m.(*replModel).input.SetValue(line)
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestREPLEvaluatesAndContinues(t *testing.T) {
	rt := &fakeRuntime{}
	m := NewREPLModel("phon", rt.evaluator())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 60, Height: 10})

	m, _ = enter(t, m, "print 1")
	m, _ = enter(t, m, "while x do")
	if got := m.(*replModel).pending; len(got) != 1 {
		t.Fatalf("pending = %q", got)
	}
	m, _ = enter(t, m, "end")
	m, _ = enter(t, m, "oops")

	want := []string{"print 1", "while x do", "while x do\nend", "oops"}
	if !slices.Equal(rt.chunks, want) {
		t.Fatalf("chunks %q, want %q", rt.chunks, want)
	}
	rm := m.(*replModel)
	if len(rm.pending) != 0 || len(rm.history) != 3 {
		t.Fatalf("pending %q history %q", rm.pending, rm.history)
	}
	transcript := strings.Join(rm.lines, "\n")
	for _, s := range []string{"phon", "print 1", "ok", "partial", "E: boom"} {
		if !strings.Contains(transcript, s) {
			t.Errorf("transcript lacks %q:\n%s", s, transcript)
		}
	}
}

func TestREPLCommandsAndHistory(t *testing.T) {
	rt := &fakeRuntime{}
	m := NewREPLModel("", rt.evaluator())
	m, _ = enter(t, m, "a = 1")
	m, _ = enter(t, m, "b = 2")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if got := m.(*replModel).input.Value(); got != "b = 2" {
		t.Fatalf("history up = %q", got)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if got := m.(*replModel).input.Value(); got != "a = 1" {
		t.Fatalf("history clamps at the oldest entry, got %q", got)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := m.(*replModel).input.Value(); got != "" {
		t.Fatalf("history down past the end = %q", got)
	}

	m, _ = enter(t, m, ":clear")
	if len(m.(*replModel).lines) != 0 {
		t.Fatalf("clear kept %q", m.(*replModel).lines)
	}
	_, cmd := enter(t, m, ":quit")
	if cmd == nil {
		t.Fatalf(":quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf(":quit should quit")
	}
	if len(rt.chunks) != 2 {
		t.Fatalf("commands reached the evaluator: %q", rt.chunks)
	}
}

func TestREPLCtrlCClearsPendingInput(t *testing.T) {
	rt := &fakeRuntime{}
	m := NewREPLModel("", rt.evaluator())
	m, _ = enter(t, m, "while x do")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd != nil || len(m.(*replModel).pending) != 0 {
		t.Fatalf("ctrl+c should drop the pending chunk")
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("ctrl+c on an empty prompt should quit")
	}
}

func TestProgressModelTracksEvents(t *testing.T) {
	events := make(chan buildpipeline.Event)
	close(events)
	m := NewProgressModel("check", []string{"a.phon", "b.phon"}, events).(*progressModel)

	m.applyEvent(buildpipeline.Event{File: "a.phon", Status: buildpipeline.StatusWorking})
	if got := m.fraction(); got != 0.25 {
		t.Fatalf("fraction = %v", got)
	}
	m.applyEvent(buildpipeline.Event{File: "a.phon", Status: buildpipeline.StatusCached})
	m.applyEvent(buildpipeline.Event{File: "b.phon", Status: buildpipeline.StatusError})
	m.applyEvent(buildpipeline.Event{File: "unknown.phon", Status: buildpipeline.StatusDone})
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageCompile, Status: buildpipeline.StatusError})
	if got := m.fraction(); got != 1 {
		t.Fatalf("fraction = %v", got)
	}

	if _, ok := m.listenForEvent()().(doneMsg); !ok {
		t.Fatalf("closed channel should finish the model")
	}
	m.Update(doneMsg{})
	view := m.View()
	for _, s := range []string{"done: check (compile error)", "cached", "a.phon", "error", "b.phon"} {
		if !strings.Contains(view, s) {
			t.Errorf("view lacks %q:\n%s", s, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a/long/path.phon", 10, "a/long/..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
		{"日本語のパス", 7, "日本..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
