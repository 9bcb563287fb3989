// Package compiler lowers optimized Midiverb microcode to executable units.
//
// Each program becomes a Unit: a chain of steps specialized for the opcode
// of every effective slot. A Table holds the units of a ROM, indexed by
// program number, and Generate writes the same code as Go source.
package compiler
