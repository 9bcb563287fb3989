// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command midiverb runs, compiles and validates Midiverb reverb ROMs.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ezrec/midiverb/isa"
	romio "github.com/ezrec/midiverb/io"
	"github.com/ezrec/midiverb/optimizer"
	"github.com/ezrec/midiverb/translate"
)

var f = translate.From

// Program range shared by the commands working on several programs.
type programRange struct {
	program int
	first   int
	last    int
}

func (pr *programRange) flags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&pr.program, "program", "p", 0, "Single program, overrides --first and --last")
	cmd.Flags().IntVar(&pr.first, "first", 0, "First program")
	cmd.Flags().IntVar(&pr.last, "last", isa.PROGRAMS-1, "Last program")
}

func (pr *programRange) bounds(cmd *cobra.Command) (first, last int) {
	if cmd.Flags().Changed("program") {
		return pr.program, pr.program
	}
	return pr.first, pr.last
}

func readRom(path string) (rom *isa.Rom, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	rom, err = romio.ReadRom(inf)
	if err != nil {
		err = &os.PathError{Op: "read", Path: path, Err: err}
	}
	return
}

func main() {
	var verbose bool
	passes := optimizer.PASS_EXACT

	rootCmd := &cobra.Command{
		Use:          "midiverb",
		Short:        "Midiverb reverb microcode interpreter and compiler",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose mode")
	rootCmd.PersistentFlags().Var(&passes, "passes", "Optimizer passes: pass names, exact, all, none or a mask")

	rootCmd.AddCommand(
		runCommand(&verbose, &passes),
		compileCommand(&verbose, &passes),
		verifyCommand(&verbose, &passes),
		disasmCommand(&verbose, &passes),
		asmCommand(&verbose),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
