// Package cpu implements the reference interpreter for Midiverb microcode.
//
// The interpreter executes the raw instruction words of one program, all
// 128 slots per sample, reproducing the hardware bus, accumulator, rounding
// and saturation behavior bit for bit. It is the oracle the compiled
// programs are validated against.
package cpu
