// Package testprog provides microcode programs for tests.
package testprog

import (
	"math/rand"
	"strings"

	"github.com/ezrec/midiverb/isa"
)

// ECHO_DELAY is the echo spacing, in samples, of the Echo program.
const ECHO_DELAY = 0x100

// ECHO_LINE is the address offset of the Echo delay line.
const ECHO_LINE = 0x1000

// Echo is a feedback comb: y[n] = x[n]/2 + y[n-ECHO_DELAY]/2.
// The right tap plays y[n], the left tap plays y[n-ECHO_DELAY].
// The delay line lives at ECHO_LINE, clear of the input cells.
var Echo = strings.Join([]string{
	".equ DELAY 0x100",
	".equ LINE 0x1000",
	"ldhalf $(LINE - DELAY)   ; input at offset 0, acc = x/2",
	"sumhalf DELAY            ; acc += y[n-DELAY]/2",
	"strpos 0                 ; y[n] at offset LINE",
	".fill $(SLOT_RIGHT - SLOT) ldhalf 0",
	"ldhalf $(-DELAY)         ; right tap, y[n]",
	".fill $(SLOT_LEFT - SLOT) ldhalf 0",
	"ldhalf DELAY             ; left tap, y[n-DELAY]",
	".fill $(SLOTS - 1 - SLOT) ldhalf 0",
	".loop ldhalf",
}, "\n")

// MustAssemble assembles a program, panicking on error.
func MustAssemble(source string) *isa.Program {
	asm := &isa.Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	if err != nil {
		panic(err)
	}
	return prog
}

// delta returns a random address delta biased towards small and zero steps,
// so that slots often share memory cells.
func delta(rng *rand.Rand) uint16 {
	switch rng.Intn(6) {
	case 0, 1:
		return 0
	case 2:
		return 1
	case 3:
		return isa.ADDRESS_MASK
	case 4:
		return uint16(rng.Intn(64))
	}
	return uint16(rng.Intn(isa.MEMORY_SIZE))
}

// Random returns a random well formed program. The taps frequently read the
// cell an earlier slot wrote in the same pass.
func Random(rng *rand.Rand) (prog *isa.Program) {
	var mc isa.Microcode
	for n := range mc {
		mc[n] = isa.Slot{Op: isa.Opcode(rng.Intn(4)), Delta: delta(rng)}
	}

	for _, tap := range []int{isa.SLOT_RIGHT, isa.SLOT_LEFT} {
		if rng.Intn(2) == 0 {
			continue
		}
		// Point the tap at the cell of an earlier slot.
		w := 1 + rng.Intn(tap-1)
		sums := mc.Sums()
		mc[tap-1].Delta = (mc[tap-1].Delta + sums[w] - sums[tap]) & isa.ADDRESS_MASK
	}

	sums := mc.Sums()
	last := &mc[isa.SLOTS-1]
	last.Delta = (last.Delta + isa.ADDRESS_STEP - sums[isa.SLOTS]) & isa.ADDRESS_MASK

	prog = &isa.Program{}
	for n, sl := range mc {
		prog[n] = isa.MakeInstruction(sl.Op, sl.Delta)
	}

	return
}

// RandomRom returns a ROM of random well formed programs.
func RandomRom(rng *rand.Rand) (rom *isa.Rom) {
	rom = &isa.Rom{}
	for n := range rom {
		rom[n] = *Random(rng)
	}
	return
}
