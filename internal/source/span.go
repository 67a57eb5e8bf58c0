package source

import (
	"fmt"
)

type (
	// FileID uniquely identifies a source file handed over by the frontend.
	FileID uint32
)

// Span is a half-open byte range inside one source file. Codegen never reads
// file content; spans travel with AST nodes so diagnostics can point back at
// the source the frontend compiled from.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover extends the span to include other. Spans from different files are
// left untouched.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}
