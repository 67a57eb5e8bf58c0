package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimer_BeginEndReport(t *testing.T) {
	tm := NewTimer()

	load := tm.Begin("load")
	time.Sleep(time.Millisecond)
	tm.End(load, "1 artifact")

	gen := tm.Begin("codegen")
	tm.End(gen, "")

	report := tm.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("phase count = %d, want 2", len(report.Phases))
	}
	if report.Phases[0].Name != "load" || report.Phases[1].Name != "codegen" {
		t.Errorf("phase order = %q, %q", report.Phases[0].Name, report.Phases[1].Name)
	}
	if report.Phases[0].Note != "1 artifact" {
		t.Errorf("note = %q", report.Phases[0].Note)
	}
	if report.Phases[0].DurationMS <= 0 {
		t.Errorf("load duration = %v, want > 0", report.Phases[0].DurationMS)
	}
	if report.TotalMS < report.Phases[0].DurationMS {
		t.Errorf("total %v is below the load phase %v", report.TotalMS, report.Phases[0].DurationMS)
	}
}

func TestTimer_EmptyReport(t *testing.T) {
	report := NewTimer().Report()
	if report.TotalMS != 0 || len(report.Phases) != 0 {
		t.Errorf("empty timer produced %+v", report)
	}
}

func TestTimer_EndIgnoresBadIndex(t *testing.T) {
	tm := NewTimer()
	tm.End(-1, "")
	tm.End(5, "")
	if got := tm.Report(); len(got.Phases) != 0 {
		t.Errorf("phases appeared from bad indices: %+v", got)
	}
}

func TestTimer_Summary(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("render")
	tm.End(idx, "12 functions")

	s := tm.Summary()
	if !strings.Contains(s, "render") {
		t.Errorf("summary missing phase name:\n%s", s)
	}
	if !strings.Contains(s, "// 12 functions") {
		t.Errorf("summary missing note:\n%s", s)
	}
	if !strings.Contains(s, "total") {
		t.Errorf("summary missing total line:\n%s", s)
	}
}
