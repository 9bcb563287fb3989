// Package optimizer rewrites Midiverb microcode into an equivalent, cheaper
// instruction stream.
//
// Every pass is a separate analysis (accumulator liveness, memory cell
// observation, overwrite coverage) followed by a rewrite that only uses the
// analysis verdict. The passes run in a fixed order, each enabled by a bit
// of a Pass mask. All passes keep the address residue of the program.
//
// The exact passes (PASS_EXACT) never change the output of a program. The
// approximate ones (PASS_APPROXIMATE) trade numeric fidelity for speed: the
// fast rounding model drops the negative rounding correction of the halving
// and negates with the two's complement, and the unity collapses replace
// two halved reads of a cell with one full read, which differs from the
// hardware whenever the cell holds an odd or negative value.
package optimizer
