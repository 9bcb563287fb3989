// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package compiler

import (
	"fmt"

	"github.com/ezrec/midiverb/isa"
	"github.com/ezrec/midiverb/optimizer"
)

// step executes one emitted slot.
type step func(s *isa.State, in int16, out *isa.Sample)

// Stats counts the emission of a unit.
type Stats struct {
	Steps  int // Emitted slots.
	Folded int // Slots with no effect, whose delta moved to the preceding step.
	Nulls  int // Effective slots with no addressing step.
}

// Line is the Go source of one emitted slot.
type Line struct {
	Index      int      // Slot index.
	Slot       isa.Slot // Slot as emitted, with folded delta.
	Statements []string // Go statements.
}

// Unit is a compiled program.
//
// A Unit holds no processor state and may be run concurrently against
// distinct isa.State values.
type Unit struct {
	Program  int              // Program number.
	Rounding isa.Rounding     // Rounding model of the emitted code.
	Result   optimizer.Result // Optimizer output the unit was emitted from.
	Stats    Stats            // Emission counters.

	plan  []Line
	steps []step
}

// inert returns true if slot n of canonical microcode only addresses.
func inert(sl isa.Slot, n int) bool {
	return n != isa.SLOT_INPUT && sl.Op == isa.OP_NOP && sl.Output == isa.CHANNEL_NONE
}

// Emit lowers an optimized program to a unit. Each effective slot becomes one
// step; the deltas of the inert slots that follow it are folded into its own.
func Emit(program int, res *optimizer.Result) (unit *Unit) {
	unit = &Unit{
		Program:  program,
		Rounding: res.Rounding,
		Result:   *res,
	}

	mc := &res.Microcode
	for n, sl := range mc {
		if inert(sl, n) {
			// Slot 0 is always effective, so a plan entry exists.
			last := &unit.plan[len(unit.plan)-1]
			last.Slot.Delta = (last.Slot.Delta + sl.Delta) & isa.ADDRESS_MASK
			unit.Stats.Folded++
			continue
		}
		unit.plan = append(unit.plan, Line{Index: n, Slot: sl})
	}

	for n := range unit.plan {
		line := &unit.plan[n]
		if line.Slot.Delta == 0 {
			unit.Stats.Nulls++
		}
		line.Statements = statements(line.Index, line.Slot, unit.Rounding)
		unit.steps = append(unit.steps, emitStep(line.Index, line.Slot, unit.Rounding))
	}
	unit.Stats.Steps = len(unit.steps)

	return
}

// advance appends the addressing step of a slot.
func advance(op step, delta uint16) step {
	if delta == 0 {
		return op
	}
	return func(s *isa.State, in int16, out *isa.Sample) {
		op(s, in, out)
		s.Advance(delta)
	}
}

// emitStep returns the step specialized for the opcode of a slot.
func emitStep(index int, sl isa.Slot, r isa.Rounding) step {
	if index == isa.SLOT_INPUT || sl.Output != isa.CHANNEL_NONE {
		return func(s *isa.State, in int16, out *isa.Sample) {
			sl.Exec(s, index, in, out, r)
		}
	}

	var op step
	switch sl.Op {
	case isa.OP_ACCUMULATE:
		op = func(s *isa.State, in int16, out *isa.Sample) {
			s.Acc += r.Half(s.Memory[s.Addr])
		}
	case isa.OP_LOAD:
		op = func(s *isa.State, in int16, out *isa.Sample) {
			s.Acc = r.Half(s.Memory[s.Addr])
		}
	case isa.OP_STORE_POSITIVE:
		op = func(s *isa.State, in int16, out *isa.Sample) {
			s.Memory[s.Addr] = s.Acc
			s.Acc += r.Half(s.Acc)
		}
	case isa.OP_STORE_NEGATIVE:
		op = func(s *isa.State, in int16, out *isa.Sample) {
			bus := r.Invert(s.Acc)
			s.Memory[s.Addr] = bus
			s.Acc = r.Half(bus)
		}
	case isa.OP_UNITY_ADD:
		op = func(s *isa.State, in int16, out *isa.Sample) {
			s.Acc += s.Memory[s.Addr]
		}
	case isa.OP_UNITY_ASSIGN:
		op = func(s *isa.State, in int16, out *isa.Sample) {
			s.Acc = s.Memory[s.Addr]
		}
	case isa.OP_UPDATE_POSITIVE:
		op = func(s *isa.State, in int16, out *isa.Sample) {
			s.Acc += r.Half(s.Acc)
		}
	case isa.OP_UPDATE_NEGATIVE:
		op = func(s *isa.State, in int16, out *isa.Sample) {
			s.Acc = r.Half(r.Invert(s.Acc))
		}
	case isa.OP_WRITE_POSITIVE:
		op = func(s *isa.State, in int16, out *isa.Sample) {
			s.Memory[s.Addr] = s.Acc
		}
	case isa.OP_WRITE_NEGATIVE:
		op = func(s *isa.State, in int16, out *isa.Sample) {
			s.Memory[s.Addr] = r.Invert(s.Acc)
		}
	default:
		// Only addressing remains.
		delta := sl.Delta
		return func(s *isa.State, in int16, out *isa.Sample) {
			s.Advance(delta)
		}
	}

	return advance(op, sl.Delta)
}

// statements returns the Go source of a slot. The generated function has
// the parameters s, in, outr and outl.
func statements(index int, sl isa.Slot, r isa.Rounding) (lines []string) {
	var bus string
	switch {
	case index == isa.SLOT_INPUT:
		bus = "in"
	case sl.Op.Bus() == isa.BUS_MEMORY:
		bus = "s.Memory[s.Addr]"
	case sl.Op.Bus() == isa.BUS_ACC:
		bus = "s.Acc"
	case r == isa.ROUNDING_FAST:
		bus = "-s.Acc"
	default:
		bus = "^s.Acc"
	}

	half := func(x string) string {
		if r == isa.ROUNDING_FAST {
			return x + " >> 1"
		}
		return "isa.RoundHalf(" + x + ")"
	}

	// The update is emitted last, so the bus expression is evaluated on the
	// accumulator from before the slot.
	switch sl.Output {
	case isa.CHANNEL_RIGHT:
		lines = append(lines, fmt.Sprintf("*outr = isa.Saturate(%s)", bus))
	case isa.CHANNEL_LEFT:
		lines = append(lines, fmt.Sprintf("*outl = isa.Saturate(%s)", bus))
	}

	if sl.WritesMemory(index) {
		lines = append(lines, fmt.Sprintf("s.Memory[s.Addr] = %s", bus))
	}

	switch sl.Op.Update() {
	case isa.UPDATE_ADD_HALF:
		lines = append(lines, "s.Acc += "+half(bus))
	case isa.UPDATE_SET_HALF:
		lines = append(lines, "s.Acc = "+half(bus))
	case isa.UPDATE_ADD:
		lines = append(lines, "s.Acc += "+bus)
	case isa.UPDATE_SET:
		lines = append(lines, "s.Acc = "+bus)
	}

	if sl.Delta != 0 {
		lines = append(lines, fmt.Sprintf("s.Advance(0x%04x)", sl.Delta))
	}

	return
}

// Run executes one sample of the unit. The bus is the already mixed down
// input sample; right and left receive the tap outputs.
func (unit *Unit) Run(s *isa.State, bus int16, right, left *int16) {
	var out isa.Sample
	out[isa.RIGHT], out[isa.LEFT] = *right, *left
	for _, st := range unit.steps {
		st(s, bus, &out)
	}
	*right, *left = out[isa.RIGHT], out[isa.LEFT]
}

// Lines returns the Go source of every emitted slot, in execution order.
func (unit *Unit) Lines() []Line {
	return unit.plan
}
