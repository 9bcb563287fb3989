package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ezrec/midiverb/compiler"
	"github.com/ezrec/midiverb/emulator"
	romio "github.com/ezrec/midiverb/io"
	"github.com/ezrec/midiverb/isa"
	"github.com/ezrec/midiverb/optimizer"
	"github.com/ezrec/midiverb/translate"
)

var ErrMismatch = errors.New(f("compiled programs differ from the interpreter"))

// Output file, or stdout for "-".
func createOutput(path string) (w io.WriteCloser, err error) {
	if path == "-" || path == "" {
		w = nopCloser{os.Stdout}
		return
	}
	w, err = os.Create(path)
	return
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func runCommand(verbose *bool, passes *optimizer.Pass) *cobra.Command {
	var program int
	var compiled bool

	cmd := &cobra.Command{
		Use:   "run ROM IN.wav OUT.wav",
		Short: "Process a WAV recording with a ROM program",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rom, err := readRom(args[0])
			if err != nil {
				return
			}

			inf, err := os.Open(args[1])
			if err != nil {
				return
			}
			defer inf.Close()

			tape, err := romio.ReadTape(inf)
			if err != nil {
				return fmt.Errorf("%v: %w", args[1], err)
			}

			emu := emulator.NewEmulator(rom)
			emu.Verbose = *verbose
			if compiled {
				err = emu.UseCompiled(*passes)
				if err != nil {
					return
				}
			}

			err = emu.SetProgram(program)
			if err != nil {
				return
			}

			output := romio.NewTape(tape.SampleRate, emu.Render(tape.All()))

			ouf, err := os.Create(args[2])
			if err != nil {
				return
			}
			defer ouf.Close()

			err = output.Write(ouf)
			if err != nil {
				return
			}

			if *verbose {
				log.Printf("midiverb: %v", emu.Cpu)
			}

			return ouf.Close()
		},
	}
	cmd.Flags().IntVarP(&program, "program", "p", 0, "Program to run")
	cmd.Flags().BoolVarP(&compiled, "compiled", "c", false, "Run the compiled program instead of interpreting it")

	return cmd
}

func compileCommand(verbose *bool, passes *optimizer.Pass) *cobra.Command {
	var output string
	var pkg string
	var pr programRange

	cmd := &cobra.Command{
		Use:   "compile ROM",
		Short: "Generate Go source for the programs of a ROM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rom, err := readRom(args[0])
			if err != nil {
				return
			}

			comp := &compiler.Compiler{Verbose: *verbose, Passes: *passes}
			comp.First, comp.Last = pr.bounds(cmd)

			table, err := comp.Compile(rom)
			if err != nil {
				return
			}

			w, err := createOutput(output)
			if err != nil {
				return
			}
			defer w.Close()

			err = compiler.Generate(w, table, pkg)
			if err != nil {
				return
			}

			return w.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Go source output")
	cmd.Flags().StringVar(&pkg, "package", "programs", "Package name of the generated source")
	pr.flags(cmd)

	return cmd
}

func verifyCommand(verbose *bool, passes *optimizer.Pass) *cobra.Command {
	var input string
	var samples int
	var pr programRange

	cmd := &cobra.Command{
		Use:   "verify ROM",
		Short: "Compare the compiled programs of a ROM with the interpreter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rom, err := readRom(args[0])
			if err != nil {
				return
			}

			stimulus := func() iter.Seq[isa.Sample] { return emulator.Corpus(samples) }
			if input != "" {
				var inf *os.File
				inf, err = os.Open(input)
				if err != nil {
					return
				}
				defer inf.Close()

				var tape *romio.Tape
				tape, err = romio.ReadTape(inf)
				if err != nil {
					return fmt.Errorf("%v: %w", input, err)
				}
				stimulus = tape.All
			}

			val := &emulator.Validator{Verbose: *verbose, Passes: *passes}
			val.First, val.Last = pr.bounds(cmd)

			reports, err := val.Validate(rom, stimulus)
			if err != nil {
				return
			}

			failed := 0
			for _, report := range reports {
				fmt.Fprintln(cmd.OutOrStdout(), report.String())
				if report.Failed() {
					failed++
				}
			}

			if failed > 0 {
				err = fmt.Errorf("%w: %d programs, passes %v", ErrMismatch, failed, *passes)
			}

			return
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "WAV recording to use instead of the generated corpus")
	cmd.Flags().IntVarP(&samples, "samples", "n", emulator.SAMPLE_RATE, "Samples per corpus section")
	pr.flags(cmd)

	return cmd
}

func disasmCommand(verbose *bool, passes *optimizer.Pass) *cobra.Command {
	var optimized bool
	var pr programRange

	cmd := &cobra.Command{
		Use:   "disasm ROM",
		Short: "List the programs of a ROM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rom, err := readRom(args[0])
			if err != nil {
				return
			}

			first, last := pr.bounds(cmd)
			if first < 0 || last >= isa.PROGRAMS || first > last {
				return compiler.ErrRange
			}

			opt := &optimizer.Optimizer{Verbose: *verbose, Passes: *passes}
			w := cmd.OutOrStdout()
			for program := first; program <= last; program++ {
				translate.Fprintf(w, "; program %d\n", program)

				mc := rom[program].Decode()
				if optimized {
					res := opt.Optimize(&rom[program])
					for _, diag := range res.Diagnostics {
						translate.Fprintf(w, "; %v\n", diag)
					}
					mc = res.Microcode
				} else if err := mc.Check(); err != nil {
					translate.Fprintf(w, "; %v\n", err)
				}

				err = mc.Disassemble(w)
				if err != nil {
					return
				}
			}

			return
		},
	}
	cmd.Flags().BoolVarP(&optimized, "optimized", "O", false, "List the optimized microcode")
	pr.flags(cmd)

	return cmd
}

func asmCommand(verbose *bool) *cobra.Command {
	var output string
	var program int
	var romPath string

	cmd := &cobra.Command{
		Use:   "asm SOURCE",
		Short: "Assemble a program, optionally into a ROM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			inf, err := os.Open(args[0])
			if err != nil {
				return
			}
			defer inf.Close()

			asm := &isa.Assembler{Verbose: *verbose}
			prog, err := asm.Parse(inf)
			if err != nil {
				return fmt.Errorf("%v: %w", args[0], err)
			}

			if err := prog.Check(); err != nil {
				log.Printf("%v: %v", args[0], err)
			}

			w, err := createOutput(output)
			if err != nil {
				return
			}
			defer w.Close()

			if romPath == "" {
				err = binary.Write(w, binary.BigEndian, prog)
			} else {
				var rom *isa.Rom
				rom, err = readRom(romPath)
				if err != nil {
					return
				}
				if program < 0 || program >= isa.PROGRAMS {
					return compiler.ErrRange
				}
				rom[program] = *prog
				err = romio.WriteWords(w, rom)
			}
			if err != nil {
				return
			}

			return w.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Instruction word output")
	cmd.Flags().IntVarP(&program, "program", "p", 0, "Program to replace in the ROM")
	cmd.Flags().StringVar(&romPath, "rom", "", "ROM to splice the program into")

	return cmd
}
