package diag

// Severity ranks a diagnostic. Only SevError stops a script from running.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityLabels = [...]string{
	SevInfo:    "info",
	SevWarning: "warning",
	SevError:   "error",
}

func (s Severity) String() string {
	if int(s) < len(severityLabels) {
		return severityLabels[s]
	}
	return "unknown"
}

// Severity is the level a code is reported at: the per-phase *Info codes
// are informational and every other code is an error.
func (c Code) Severity() Severity {
	if c%1000 == 0 {
		return SevInfo
	}
	return SevError
}

// Kind is the engine error a code surfaces as once the phase that raised it
// gives up: lexical and syntax codes become a SyntaxError, compile codes a
// CompileError and the rest a RuntimeError.
func (c Code) Kind() Kind {
	switch {
	case c >= LexInfo && c < CmpInfo:
		return SyntaxError
	case c >= CmpInfo && c < RunInfo:
		return CompileError
	}
	return RuntimeError
}
