package main

import (
	"fmt"
	"io"

	"cinder/internal/driver"
	"cinder/internal/observ"
)

func printPhaseTimings(out io.Writer, report observ.Report) {
	if out == nil || len(report.Phases) == 0 {
		return
	}
	for _, phase := range report.Phases {
		if phase.Note != "" {
			fmt.Fprintf(out, "%-12s %7.1f ms  (%s)\n", phase.Name, phase.DurationMS, phase.Note)
			continue
		}
		fmt.Fprintf(out, "%-12s %7.1f ms\n", phase.Name, phase.DurationMS)
	}
	fmt.Fprintf(out, "%-12s %7.1f ms\n", "total", report.TotalMS)
}

func printBuildStats(out io.Writer, stats driver.AggregateStats) {
	if out == nil {
		return
	}
	fmt.Fprintf(out, "functions:       %d\n", stats.Functions)
	fmt.Fprintf(out, "instructions:    %d\n", stats.Instructions)
	fmt.Fprintf(out, "bytes estimated: %d\n", stats.BytesEstimated)
	fmt.Fprintf(out, "register spills: %d\n", stats.RegisterSpills)
	fmt.Fprintf(out, "peak pressure:   %d\n", stats.PeakPressure)
	fmt.Fprintf(out, "labels created:  %d\n", stats.LabelsCreated)
}
