package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"cinder/internal/ast"
	"cinder/internal/buildpipeline"
	"cinder/internal/codegen"
	"cinder/internal/driver"
	"cinder/internal/ui"
)

type buildOutcome struct {
	result *driver.BuildResult
	err    error
}

// runBuildWithUI runs one build while a Bubble Tea progress view consumes
// its pipeline events. The build runs in a goroutine; the UI owns the
// terminal until the event channel closes.
func runBuildWithUI(ctx context.Context, title string, symbols []string, req driver.BuildRequest) (*driver.BuildResult, error) {
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		req.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := driver.Build(ctx, req)
		outcomeCh <- buildOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, symbols, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

// listFunctionSymbols reads the artifact header to name the progress rows
// before the build proper starts.
func listFunctionSymbols(artifactPath string) ([]string, error) {
	f, err := os.Open(artifactPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	program, err := ast.ReadArtifact(f)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(program.Funcs))
	for _, fn := range program.Funcs {
		symbols = append(symbols, codegen.MangleFunc(fn))
	}
	return symbols, nil
}
