// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"io"
	"log"

	"github.com/ezrec/midiverb/isa"
)

// PROGRAM_NONE is the program selected before any SetProgram.
const PROGRAM_NONE = -1

// Cpu is the cycle accurate simulation of the reverb processor.
//
// It executes the raw instruction words of the selected program, one full
// 128-slot pass per sample.
type Cpu struct {
	Verbose bool      // Set to enable verbose logging.
	Compat  bool      // Set to silence, rather than reject, unknown programs.
	Trace   io.Writer // If set, receives one line per executed slot.

	Rom   *isa.Rom  // Program ROM.
	State isa.State // Accumulator, address accumulator and delay memory.

	Ticks int // Samples processed since the last reset.

	program int          // Selected program number.
	code    *isa.Program // Selected program, nil when silent.
}

// NewCpu creates a new processor executing from a ROM.
func NewCpu(rom *isa.Rom) (cpu *Cpu) {
	cpu = &Cpu{
		Rom:     rom,
		program: PROGRAM_NONE,
	}

	return
}

// Reset the processor state.
// - Zeros the accumulator and address accumulator.
// - Clears the delay memory.
// - Zeros the tick counter.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.State.Reset()
	cpu.Ticks = 0
}

// Program returns the selected program number.
func (cpu *Cpu) Program() int {
	return cpu.program
}

// SetProgram selects a program and resets the processor state.
//
// An unknown program number is an ErrProgramRange, leaving the selection
// unchanged. In Compat mode it is accepted instead, and the processor
// outputs silence as the hardware does.
func (cpu *Cpu) SetProgram(program int) (err error) {
	var code *isa.Program
	if program >= 0 && program < isa.PROGRAMS && cpu.Rom != nil {
		code = &cpu.Rom[program]
	} else if !cpu.Compat {
		err = ErrProgramRange(program)
		return
	}

	if cpu.Verbose {
		log.Printf("cpu: program %d", program)
		if code != nil {
			if cerr := code.Check(); cerr != nil {
				log.Printf("cpu: program %d: %v", program, cerr)
			}
		}
	}

	cpu.program = program
	cpu.code = code
	cpu.Reset()

	return
}

// Process runs one stereo sample through the selected program.
func (cpu *Cpu) Process(in isa.Sample) (out isa.Sample) {
	return cpu.Run(isa.Downmix(in))
}

// Run runs one full pass of the selected program on a mono bus sample.
func (cpu *Cpu) Run(bus int16) (out isa.Sample) {
	cpu.Ticks++

	if cpu.code == nil {
		return
	}

	s := &cpu.State
	for slot, in := range cpu.code {
		op, delta := isa.Decode(uint16(in))

		var value int16
		switch {
		case slot == isa.SLOT_INPUT:
			value = bus
		case op == isa.OP_STORE_POSITIVE:
			value = s.Acc
		case op == isa.OP_STORE_NEGATIVE:
			value = ^s.Acc
		default:
			value = s.Memory[s.Addr]
		}

		role := isa.RoleOf(slot)
		if role.Tap() {
			out[role.Channel()] = isa.Saturate(value)
		}

		if cpu.Trace != nil {
			fmt.Fprintf(cpu.Trace, "%02x %1x %04x %04x %04x %04x\n",
				slot, int(op), delta, s.Addr, uint16(value), uint16(s.Acc))
		}

		if op&2 != 0 || slot == isa.SLOT_INPUT {
			s.Memory[s.Addr] = value
		}

		if !role.Tap() {
			if op&1 != 0 {
				s.Acc = isa.RoundHalf(value)
			} else {
				s.Acc += isa.RoundHalf(value)
			}
		}

		s.Advance(delta)
	}

	return
}

// String returns the processor registers as a string.
func (cpu *Cpu) String() string {
	return fmt.Sprintf("program: %d\n    acc: %04x\n   addr: %04x\n  ticks: %d\n",
		cpu.program, uint16(cpu.State.Acc), cpu.State.Addr, cpu.Ticks)
}
