// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"iter"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ezrec/midiverb/compiler"
	"github.com/ezrec/midiverb/cpu"
	"github.com/ezrec/midiverb/isa"
	"github.com/ezrec/midiverb/optimizer"
)

// Validator compares compiled programs against the interpreter.
type Validator struct {
	Verbose bool           // If set, logs each report.
	Passes  optimizer.Pass // Optimizer passes of the compiled programs.
	First   int            // First program to validate.
	Last    int            // Last program to validate.
}

// Validate compiles the program range of a ROM and compares each program
// with the interpreter over the input. The input function is called once
// per program and must return the same stream every time. Programs are
// validated concurrently; the reports are in program order.
func (val *Validator) Validate(rom *isa.Rom, input func() iter.Seq[isa.Sample]) (reports []Report, err error) {
	comp := &compiler.Compiler{
		Verbose: val.Verbose,
		Passes:  val.Passes,
		First:   val.First,
		Last:    val.Last,
	}

	table, err := comp.Compile(rom)
	if err != nil {
		return
	}

	reports = make([]Report, val.Last-val.First+1)

	var group errgroup.Group
	group.SetLimit(runtime.GOMAXPROCS(0))
	for n := range reports {
		program := val.First + n
		group.Go(func() (err error) {
			defer func() {
				if err != nil {
					err = &ErrProgram{Program: program, Err: err}
				}
			}()

			ref := cpu.NewCpu(rom)
			err = ref.SetProgram(program)
			if err != nil {
				return
			}

			unit, err := table.Lookup(program)
			if err != nil {
				return
			}

			report := Compare(ref, compiler.NewEngine(unit), input())
			report.Program = program
			report.Passes = val.Passes
			report.Exact = val.Passes.Exact()
			reports[n] = report

			if val.Verbose {
				log.Printf("emulator: %v", &report)
			}

			return
		})
	}

	err = group.Wait()
	if err != nil {
		reports = nil
	}

	return
}
