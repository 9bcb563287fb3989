// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

import (
	"fmt"
)

const (
	SLOTS        = 128       // Slots per program.
	PROGRAMS     = 63        // Programs in a ROM.
	MEMORY_SIZE  = 16384     // Words of delay memory.
	ADDRESS_MASK = 0x3fff    // Address accumulator mask.
	OPCODE_SHIFT = 14        // Opcode position in an instruction word.
	SLOT_INPUT   = 0x00      // Input write slot.
	SLOT_RIGHT   = 0x60      // Right channel output tap.
	SLOT_LEFT    = 0x70      // Left channel output tap.
	ADDRESS_STEP = uint16(1) // Address advance of a well formed program pass.
)

// Role is the hard-wired role of a slot.
type Role int

const (
	ROLE_NONE  = Role(0) // -
	ROLE_INPUT = Role(1) // input
	ROLE_RIGHT = Role(2) // right
	ROLE_LEFT  = Role(3) // left
)

// RoleOf returns the role of a slot.
func RoleOf(slot int) Role {
	switch slot {
	case SLOT_INPUT:
		return ROLE_INPUT
	case SLOT_RIGHT:
		return ROLE_RIGHT
	case SLOT_LEFT:
		return ROLE_LEFT
	}
	return ROLE_NONE
}

// Tap returns true if the role is an output tap.
func (role Role) Tap() bool {
	return role == ROLE_RIGHT || role == ROLE_LEFT
}

// Channel returns the output channel of a tap role.
func (role Role) Channel() Channel {
	switch role {
	case ROLE_RIGHT:
		return CHANNEL_RIGHT
	case ROLE_LEFT:
		return CHANNEL_LEFT
	}
	return CHANNEL_NONE
}

// Instruction is a raw 16-bit microcode word.
type Instruction uint16

// Decode splits a raw word into its opcode and address delta.
func Decode(word uint16) (op Opcode, delta uint16) {
	op = Opcode(word >> OPCODE_SHIFT)
	delta = word & ADDRESS_MASK
	return
}

// MakeInstruction encodes a hardware opcode and an address delta.
func MakeInstruction(op Opcode, delta uint16) Instruction {
	return Instruction(uint16(op&3)<<OPCODE_SHIFT | delta&ADDRESS_MASK)
}

// Opcode of the instruction.
func (in Instruction) Opcode() Opcode {
	op, _ := Decode(uint16(in))
	return op
}

// Delta of the instruction.
func (in Instruction) Delta() uint16 {
	_, delta := Decode(uint16(in))
	return delta
}

// String returns the instruction in assembler syntax.
func (in Instruction) String() string {
	op, delta := Decode(uint16(in))
	return fmt.Sprintf("%v 0x%04x", op, delta)
}

// Program is one 128-slot microcode program.
type Program [SLOTS]Instruction

// Residue returns the address advance of a full pass, modulo memory size.
func (prog *Program) Residue() (residue uint16) {
	for _, in := range prog {
		residue += in.Delta()
	}
	residue &= ADDRESS_MASK
	return
}

// Check verifies that a full pass advances the address by exactly one.
// A violation is a warning, the program is still executable.
func (prog *Program) Check() (err error) {
	residue := prog.Residue()
	if residue != ADDRESS_STEP {
		err = ErrAddressSum(residue)
	}
	return
}

// Decode returns the slot form of the program.
// Hardware opcodes are retained; tap slots carry their output channel.
func (prog *Program) Decode() (mc Microcode) {
	for n, in := range prog {
		op, delta := Decode(uint16(in))
		mc[n] = Slot{Op: op, Delta: delta, Output: RoleOf(n).Channel()}
	}
	return
}

// Rom is the full set of programs.
type Rom [PROGRAMS]Program

// RomFromWords builds a ROM from a flat word array, program p slot i at
// index p*SLOTS+i.
func RomFromWords(words []uint16) (rom *Rom, err error) {
	if len(words) != PROGRAMS*SLOTS {
		err = ErrRomWords(len(words))
		return
	}

	rom = &Rom{}
	for n, word := range words {
		rom[n/SLOTS][n%SLOTS] = Instruction(word)
	}

	return
}

// Words returns the flat word array of the ROM.
func (rom *Rom) Words() (words []uint16) {
	words = make([]uint16, 0, PROGRAMS*SLOTS)
	for _, prog := range rom {
		for _, in := range prog {
			words = append(words, uint16(in))
		}
	}
	return
}

// Slot is one decoded microcode slot.
type Slot struct {
	Op     Opcode  // Operation.
	Delta  uint16  // Address delta applied after the operation.
	Output Channel // Output channel the bus value is routed to, if any.
}

// Reads returns true if the slot at index consumes the prior accumulator.
func (sl Slot) Reads(index int) bool {
	if index == SLOT_INPUT {
		switch sl.Op.Update() {
		case UPDATE_ADD_HALF, UPDATE_ADD:
			return true
		}
		return false
	}
	if sl.Op.Reads() {
		return true
	}
	return sl.Output != CHANNEL_NONE && sl.Op.Bus() != BUS_MEMORY
}

// ReadsMemory returns true if the slot at index observes the memory cell.
func (sl Slot) ReadsMemory(index int) bool {
	if index == SLOT_INPUT || sl.Op.Bus() != BUS_MEMORY {
		return false
	}
	return sl.Op != OP_NOP || sl.Output != CHANNEL_NONE
}

// WritesMemory returns true if the slot at index stores to the memory cell.
func (sl Slot) WritesMemory(index int) bool {
	return index == SLOT_INPUT || sl.Op.Writes()
}

// Defines returns true if the slot replaces the accumulator.
func (sl Slot) Defines() bool {
	return sl.Op.Update() != UPDATE_NONE
}

// String returns the slot in listing syntax.
func (sl Slot) String() (text string) {
	text = fmt.Sprintf("%v 0x%04x", sl.Op, sl.Delta)
	if sl.Output != CHANNEL_NONE {
		text += " -> " + sl.Output.String()
	}
	return
}

// Microcode is the slot form of a program.
//
// Microcode taken straight from Program.Decode carries hardware opcodes on
// the role slots, and so is only meaningful to the interpreter's rules for
// those slots. Microcode produced by the optimizer is canonical: every slot
// behaves exactly as its opcode says, except slot 0 which takes its bus from
// the input and always writes memory.
type Microcode [SLOTS]Slot

// Sums returns the address offset of every slot relative to the start of
// the pass. Entry SLOTS is the offset after the final slot.
func (mc *Microcode) Sums() (sums [SLOTS + 1]uint16) {
	for n, sl := range mc {
		sums[n+1] = (sums[n] + sl.Delta) & ADDRESS_MASK
	}
	return
}

// Residue returns the address advance of a full pass, modulo memory size.
func (mc *Microcode) Residue() uint16 {
	sums := mc.Sums()
	return sums[SLOTS]
}

// Check verifies that a full pass advances the address by exactly one.
func (mc *Microcode) Check() (err error) {
	residue := mc.Residue()
	if residue != ADDRESS_STEP {
		err = ErrAddressSum(residue)
	}
	return
}
