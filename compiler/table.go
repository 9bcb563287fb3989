// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package compiler

import (
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ezrec/midiverb/isa"
	"github.com/ezrec/midiverb/optimizer"
)

// Table is the dispatch table of compiled programs. Entries outside the
// compiled range are nil.
type Table [isa.PROGRAMS]*Unit

// Lookup returns the unit of a program.
func (table *Table) Lookup(program int) (unit *Unit, err error) {
	if program < 0 || program >= isa.PROGRAMS || table[program] == nil {
		err = ErrProgramMissing(program)
		return
	}

	unit = table[program]
	return
}

// Compiler optimizes and emits an inclusive range of ROM programs.
type Compiler struct {
	Verbose bool           // If set, logs the optimizer and emission results.
	Passes  optimizer.Pass // Optimizer passes.
	First   int            // First program to compile.
	Last    int            // Last program to compile.
}

// Check verifies the program range.
func (comp *Compiler) Check() (err error) {
	if comp.First < 0 || comp.Last >= isa.PROGRAMS || comp.First > comp.Last {
		err = ErrRange
	}
	return
}

// CompileProgram optimizes and emits one program.
func (comp *Compiler) CompileProgram(program int, prog *isa.Program) (unit *Unit) {
	opt := &optimizer.Optimizer{
		Verbose: comp.Verbose,
		Passes:  comp.Passes,
	}

	unit = Emit(program, opt.Optimize(prog))

	if comp.Verbose {
		log.Printf("compiler: prog%02d: %d steps, %d folded, %d null address slots",
			program, unit.Stats.Steps, unit.Stats.Folded, unit.Stats.Nulls)
	}

	return
}

// Compile emits the selected range of a ROM. The programs are compiled
// concurrently.
func (comp *Compiler) Compile(rom *isa.Rom) (table *Table, err error) {
	err = comp.Check()
	if err != nil {
		return
	}

	table = &Table{}

	var group errgroup.Group
	group.SetLimit(runtime.GOMAXPROCS(0))
	for program := comp.First; program <= comp.Last; program++ {
		group.Go(func() error {
			table[program] = comp.CompileProgram(program, &rom[program])
			return nil
		})
	}

	err = group.Wait()
	if err != nil {
		table = nil
	}

	return
}
