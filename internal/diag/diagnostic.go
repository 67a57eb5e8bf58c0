package diag

import (
	"strconv"

	"cinder/internal/source"
)

// Severity ranks diagnostics. The ordering of the constants is load-bearing:
// the bag sorts higher severities first and HasErrors compares against
// SevError.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{"info", "warning", "error"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "severity(" + strconv.Itoa(int(s)) + ")"
}

// Fails reports whether a diagnostic of this severity should fail the build.
func (s Severity) Fails() bool {
	return s >= SevError
}

// Note attaches secondary context to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one reported problem: a code, a message, and the primary
// span it points at. Codegen diagnostics often carry a zero span because the
// failure is tied to a function, not a byte range; the function name then
// lives in the message.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

// WithNote returns a copy of the diagnostic with an extra note appended.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}
