// Package isa models the microcode of the Midiverb reverb processor.
//
// A program is 128 slots executed once per audio sample. Each slot holds a
// 16-bit instruction: a 2-bit opcode and a 14-bit address delta. The slots
// share a signed accumulator, a 14-bit address accumulator that persists
// across samples, and 16384 words of delay memory.
//
// Slot 0 always writes the mixed-down input sample to memory. Slots 0x60
// and 0x70 are the right and left output taps.
//
// The package also provides the decoded, optimizer-friendly form of a
// program (Microcode), the numeric helpers shared by the interpreter and the
// compiler, a disassembler, and a small text assembler.
package isa
