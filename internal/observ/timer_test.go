package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	i := tm.Begin("parse")
	tm.End(i, "main.phon")
	j := tm.Begin("compile")
	tm.End(j, "")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("got %d phases", len(r.Phases))
	}
	if r.Phases[0].Name != "parse" || r.Phases[0].Note != "main.phon" || r.Phases[0].Count != 1 {
		t.Fatalf("unexpected first phase %+v", r.Phases[0])
	}
	if r.TotalMS < r.Phases[0].DurationMS {
		t.Fatalf("total %.3f below phase %.3f", r.TotalMS, r.Phases[0].DurationMS)
	}
	s := r.String()
	if !strings.Contains(s, "parse") || !strings.Contains(s, "main.phon") || !strings.Contains(s, "total") {
		t.Fatalf("table:\n%s", s)
	}
}

func TestMerge(t *testing.T) {
	a := Report{TotalMS: 3, Phases: []PhaseReport{{Name: "parse", DurationMS: 1, Count: 1}, {Name: "compile", DurationMS: 2, Count: 1}}}
	b := Report{TotalMS: 0.5, Phases: []PhaseReport{{Name: "cache", DurationMS: 0.5, Count: 1}}}
	c := Report{TotalMS: 4, Phases: []PhaseReport{{Name: "parse", DurationMS: 1.5}, {Name: "compile", DurationMS: 2.5}}}

	m := Merge(a, b, c)
	if m.TotalMS != 7.5 {
		t.Fatalf("total %.2f", m.TotalMS)
	}
	want := []PhaseReport{
		{Name: "parse", DurationMS: 2.5, Count: 2},
		{Name: "compile", DurationMS: 4.5, Count: 2},
		{Name: "cache", DurationMS: 0.5, Count: 1},
	}
	if len(m.Phases) != len(want) {
		t.Fatalf("phases %+v", m.Phases)
	}
	for i := range want {
		if m.Phases[i] != want[i] {
			t.Errorf("phase %d = %+v, want %+v", i, m.Phases[i], want[i])
		}
	}
	if !strings.Contains(m.String(), "x2") {
		t.Fatalf("table:\n%s", m.String())
	}
	if r := Merge(); len(r.Phases) != 0 || r.TotalMS != 0 {
		t.Fatalf("empty merge %+v", r)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer reported %d phases", len(r.Phases))
	}
}
