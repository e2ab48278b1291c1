package buildpipeline

import (
	"time"

	"github.com/phonometrica/phonometrica-sub000/internal/observ"
)

// Stage is a step of a check.
type Stage string

const (
	// StageScan expands directories into script files.
	StageScan Stage = "scan"
	// StageCompile parses and compiles each file to bytecode.
	StageCompile Stage = "compile"
)

// Status is the state of a file, or of the whole check, within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusCached means the routine came from the disk cache.
	StatusCached Status = "cached"
	StatusError  Status = "error"
)

// Finished reports whether s is a terminal status.
func (s Status) Finished() bool {
	return s == StatusDone || s == StatusCached || s == StatusError
}

// Event reports progress for one file, or for the whole check when File is
// empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from several
// goroutines at once.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds the wall time of each stage and the per-file phases summed
// over the batch.
type Timings struct {
	Scan    time.Duration
	Compile time.Duration
	Phases  observ.Report
}
