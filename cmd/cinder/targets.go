package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cinder/internal/codegen"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List supported targets and calling conventions",
	RunE:  runTargets,
}

func runTargets(cmd *cobra.Command, _ []string) error {
	colorValue, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch colorValue {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stdout)
	}

	archHeader := color.New(color.FgCyan, color.Bold)
	defaultMark := color.New(color.FgGreen)

	arches := []codegen.TargetArch{codegen.ArchX86_64, codegen.ArchAArch64, codegen.ArchWasm32}
	conventions := map[codegen.TargetArch][]codegen.CallingConvention{
		codegen.ArchX86_64:  {codegen.ConvSystemVAMD64, codegen.ConvMicrosoftX64},
		codegen.ArchAArch64: {codegen.ConvAAPCS64},
		codegen.ArchWasm32:  {codegen.ConvWasmC},
	}

	for _, arch := range arches {
		_, _ = archHeader.Fprintln(os.Stdout, arch.String())
		def := codegen.DefaultConvention(arch)
		for _, conv := range conventions[arch] {
			info := codegen.ConventionFor(conv)
			line := fmt.Sprintf("  %-12s %d int regs, %d float regs", conv.String(), info.IntRegCount, info.FloatRegCount)
			if conv == def {
				line += defaultMark.Sprint("  (default)")
			}
			fmt.Fprintln(os.Stdout, line)
		}
	}
	return nil
}
