package buildpipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/phonometrica/phonometrica-sub000/internal/diag"
	"github.com/phonometrica/phonometrica-sub000/internal/driver"
)

func writeFile(t *testing.T, dir, name, src string) string {
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

func TestExpandDeduplicates(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.phon", "print 1\n")
	writeFile(t, dir, "lib/b.phon", "print 2\n")
	writeFile(t, dir, "readme.md", "x")

	got, err := Expand([]string{dir, a}, ".phon")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{a, filepath.Join(dir, "lib", "b.phon")}
	if !slices.Equal(got, want) {
		t.Fatalf("Expand = %v, want %v", got, want)
	}
	if _, err := Expand([]string{filepath.Join(dir, "nope")}, ".phon"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing target: %v", err)
	}
}

func TestCheckReportsProgress(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.phon", "var x = 1\nprint x\n")
	writeFile(t, dir, "bad.phon", "print )\n")
	cache, err := driver.NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	sink := &RecordingSink{}
	req := &CheckRequest{Targets: []string{dir}, BaseDir: dir, Jobs: 2, Cache: cache, Progress: sink}
	res, err := Check(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Files, []string{"bad.phon", "good.phon"}) {
		t.Fatalf("files %v", res.Files)
	}
	if res.Failed() != 1 {
		t.Fatalf("failed = %d", res.Failed())
	}
	var de *diag.Error
	if !errors.As(res.Err(), &de) || de.Kind != diag.SyntaxError {
		t.Fatalf("Err() = %v", res.Err())
	}
	if res.Timings.Compile <= 0 || len(res.Timings.Phases.Phases) == 0 {
		t.Fatalf("missing timings %+v", res.Timings)
	}

	final := make(map[string]Status)
	var overall []Status
	for _, ev := range sink.Events() {
		if ev.File == "" {
			overall = append(overall, ev.Status)
			continue
		}
		final[ev.File] = ev.Status
	}
	if final["good.phon"] != StatusDone || final["bad.phon"] != StatusError {
		t.Fatalf("final statuses %v", final)
	}
	if !slices.Equal(overall, []Status{StatusError}) {
		t.Fatalf("overall events %v", overall)
	}

	// The good file is now cached; the bad one never is.
	sink = &RecordingSink{}
	req.Progress = sink
	if _, err := Check(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	for _, ev := range sink.Events() {
		if ev.File != "" {
			final[ev.File] = ev.Status
		}
	}
	if final["good.phon"] != StatusCached || final["bad.phon"] != StatusError {
		t.Fatalf("second run statuses %v", final)
	}
}

func TestCheckRequiresTargets(t *testing.T) {
	if _, err := Check(context.Background(), &CheckRequest{}); err == nil {
		t.Fatalf("expected an error without targets")
	}
	if _, err := Check(context.Background(), nil); err == nil {
		t.Fatalf("expected an error for a nil request")
	}
}

func TestChannelSink(t *testing.T) {
	ch := make(chan Event, 1)
	ChannelSink{Ch: ch}.OnEvent(Event{File: "a", Status: StatusDone})
	if ev := <-ch; ev.File != "a" || ev.Status != StatusDone {
		t.Fatalf("event %+v", ev)
	}
	ChannelSink{}.OnEvent(Event{})
}

func TestStatusFinished(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusQueued:  false,
		StatusWorking: false,
		StatusDone:    true,
		StatusCached:  true,
		StatusError:   true,
	} {
		if got := status.Finished(); got != want {
			t.Errorf("%s.Finished() = %v", status, got)
		}
	}
}
