package trace

import "time"

// Kind is the type of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "beat"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeCommand covers a whole CLI command or runtime lifetime.
	ScopeCommand Scope = iota + 1
	// ScopePhase covers one pipeline phase of one file: parse, compile, run.
	ScopePhase
	// ScopeModule covers imports and per-file cache activity.
	ScopeModule
	// ScopeRuntime covers events inside a running script, such as
	// collector cycles.
	ScopeRuntime
)

func (s Scope) String() string {
	switch s {
	case ScopeCommand:
		return "command"
	case ScopePhase:
		return "phase"
	case ScopeModule:
		return "module"
	case ScopeRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the tracer that stores the event
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for root spans and free-standing points
	Lane     uint32 // batch slot; 0 outside parallel work
	Name     string // "parse", "run", "import", "gc", ...
	Detail   string
	Dur      time.Duration // set on KindSpanEnd
	Extra    map[string]string
}
