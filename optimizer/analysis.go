package optimizer

import (
	"github.com/ezrec/midiverb/isa"
)

// Liveness is the accumulator liveness of every slot of a program.
//
// The accumulator survives the end of a pass into slot 0 of the next
// sample, so the analysis is cyclic.
type Liveness struct {
	In  [isa.SLOTS]bool // Accumulator is consumed before being replaced, from slot entry.
	Out [isa.SLOTS]bool // Accumulator is consumed before being replaced, from slot exit.
}

// AnalyzeLiveness computes the accumulator liveness of canonical microcode.
func AnalyzeLiveness(mc *isa.Microcode) (live *Liveness) {
	live = &Liveness{}

	for changed := true; changed; {
		changed = false
		for n := isa.SLOTS - 1; n >= 0; n-- {
			sl := mc[n]
			out := live.In[(n+1)%isa.SLOTS]
			in := sl.Reads(n) || (out && !sl.Defines())
			if out != live.Out[n] || in != live.In[n] {
				changed = true
				live.Out[n] = out
				live.In[n] = in
			}
		}
	}

	return
}

// Carried returns true if the accumulator left by a pass is consumed by
// the next sample.
func (live *Liveness) Carried() bool {
	return live.In[0]
}

// Dead returns true if slot n computes an accumulator value nothing consumes.
func (live *Liveness) Dead(mc *isa.Microcode, n int) bool {
	return mc[n].Defines() && !live.Out[n]
}

// firstReader returns the first slot consuming the accumulator, or SLOT_NONE.
func firstReader(mc *isa.Microcode) int {
	for n, sl := range mc {
		if sl.Reads(n) {
			return n
		}
	}
	return SLOT_NONE
}

// accessTime is the order of the next access by slot n to the cell slot w
// accesses at sample 0, counted in slots. It assumes a pass advances the
// address by exactly one cell.
func accessTime(sums *[isa.SLOTS + 1]uint16, w, n int) int {
	samples := int((sums[w] - sums[n]) & isa.ADDRESS_MASK)
	if samples == 0 && n < w {
		samples = isa.MEMORY_SIZE
	}
	return samples*isa.SLOTS + n
}

// CellObserved returns true if any slot reads the memory cell slot w
// writes before that cell is written again. The program must advance by
// exactly one cell per pass.
func CellObserved(mc *isa.Microcode, w int) bool {
	sums := mc.Sums()

	rewrite := isa.MEMORY_SIZE*isa.SLOTS + w
	for n, sl := range mc {
		if n != w && sl.WritesMemory(n) {
			rewrite = min(rewrite, accessTime(&sums, w, n))
		}
	}

	for n, sl := range mc {
		if n != w && sl.ReadsMemory(n) && accessTime(&sums, w, n) < rewrite {
			return true
		}
	}

	return false
}

// Overwritten returns, for each slot, whether its memory cell is written
// again later in the same pass before anything reads it: the following slots
// up to the overwriting one all have a zero delta and none of them read
// memory.
func Overwritten(mc *isa.Microcode) (covered [isa.SLOTS]bool) {
	for n := isa.SLOTS - 2; n >= 1; n-- {
		if mc[n].Delta != 0 {
			continue
		}
		next := mc[n+1]
		switch {
		case next.WritesMemory(n + 1):
			covered[n] = true
		case !next.ReadsMemory(n + 1):
			covered[n] = covered[n+1]
		}
	}
	return
}
