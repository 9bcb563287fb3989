// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"iter"
	"log"

	"github.com/ezrec/midiverb/compiler"
	"github.com/ezrec/midiverb/cpu"
	"github.com/ezrec/midiverb/isa"
	"github.com/ezrec/midiverb/optimizer"
)

// Emulator state. Interpreter, optional compiled programs and the selected
// program.
type Emulator struct {
	Verbose  bool            // If set, enables verbose logging.
	*cpu.Cpu                 // Reference to the interpreter.
	Table    *compiler.Table // Compiled programs, nil to interpret.

	engine compiler.Engine
}

var _ Processor = (*Emulator)(nil)

// NewEmulator creates a new emulator interpreting a ROM.
func NewEmulator(rom *isa.Rom) (emu *Emulator) {
	emu = &Emulator{
		Cpu: cpu.NewCpu(rom),
	}

	return
}

// Compiled returns true if the emulator runs compiled programs.
func (emu *Emulator) Compiled() bool {
	return emu.Table != nil
}

// UseCompiled compiles the whole ROM with the passes and switches to the
// compiled programs. The selected program restarts from a cleared state.
func (emu *Emulator) UseCompiled(passes optimizer.Pass) (err error) {
	comp := &compiler.Compiler{
		Verbose: emu.Verbose,
		Passes:  passes,
		First:   0,
		Last:    isa.PROGRAMS - 1,
	}

	table, err := comp.Compile(emu.Cpu.Rom)
	if err != nil {
		return
	}

	emu.Table = table
	if emu.Cpu.Program() != cpu.PROGRAM_NONE {
		err = emu.SetProgram(emu.Cpu.Program())
	}

	return
}

// UseInterpreter switches back to the interpreter.
func (emu *Emulator) UseInterpreter() {
	emu.Table = nil
	emu.engine = compiler.Engine{}
	emu.Cpu.Reset()
}

// SetProgram selects a program on both execution paths and clears the
// processor state.
func (emu *Emulator) SetProgram(program int) (err error) {
	defer func() {
		if err != nil {
			err = &ErrProgram{Program: program, Err: err}
		}
	}()

	emu.Cpu.Verbose = emu.Verbose

	err = emu.Cpu.SetProgram(program)
	if err != nil {
		return
	}

	emu.engine.Unit = nil
	emu.engine.Reset()
	if emu.Table != nil {
		var unit *compiler.Unit
		unit, err = emu.Table.Lookup(program)
		if err != nil && !emu.Cpu.Compat {
			return
		}
		err = nil
		emu.engine.Unit = unit
	}

	if emu.Verbose {
		log.Printf("emulator: program %d, compiled %v", program, emu.Compiled())
	}

	return
}

// Reset clears the processor state of the selected program.
func (emu *Emulator) Reset() {
	emu.Cpu.Reset()
	emu.engine.Reset()
}

// Process runs one sample on the selected execution path.
func (emu *Emulator) Process(in isa.Sample) (out isa.Sample) {
	if emu.Table != nil {
		out = emu.engine.Process(in)
		emu.Cpu.Ticks++
		return
	}

	out = emu.Cpu.Process(in)
	return
}

// Render returns the output stream of the selected program over the input.
func (emu *Emulator) Render(input iter.Seq[isa.Sample]) iter.Seq[isa.Sample] {
	return func(yield func(isa.Sample) bool) {
		for in := range input {
			if !yield(emu.Process(in)) {
				return
			}
		}
	}
}
