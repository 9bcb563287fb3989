package optimizer

import (
	"github.com/ezrec/midiverb/isa"
)

// retire drops the accumulator update of a slot, keeping its bus, memory
// write and output. It returns false if no opcode can express that.
func retire(sl *isa.Slot) bool {
	switch sl.Op {
	case isa.OP_ACCUMULATE, isa.OP_LOAD, isa.OP_UNITY_ADD, isa.OP_UNITY_ASSIGN:
		sl.Op = isa.OP_NOP
	case isa.OP_STORE_POSITIVE:
		sl.Op = isa.OP_WRITE_POSITIVE
	case isa.OP_STORE_NEGATIVE:
		sl.Op = isa.OP_WRITE_NEGATIVE
	case isa.OP_UPDATE_POSITIVE, isa.OP_UPDATE_NEGATIVE:
		if sl.Output != isa.CHANNEL_NONE {
			return false
		}
		sl.Op = isa.OP_NOP
	default:
		return false
	}
	return true
}

// suppress drops the memory write of a slot, keeping its bus, accumulator
// update and output. It returns false if no opcode can express that.
func suppress(sl *isa.Slot) bool {
	switch sl.Op {
	case isa.OP_STORE_POSITIVE:
		sl.Op = isa.OP_UPDATE_POSITIVE
	case isa.OP_STORE_NEGATIVE:
		sl.Op = isa.OP_UPDATE_NEGATIVE
	case isa.OP_WRITE_POSITIVE, isa.OP_WRITE_NEGATIVE:
		if sl.Output != isa.CHANNEL_NONE {
			return false
		}
		sl.Op = isa.OP_NOP
	default:
		return false
	}
	return true
}

// canonical rewrites the role slots so that every slot behaves as its
// opcode says. Taps lose their accumulator update, and the slot 0 store
// opcodes become the equivalent reads of the input bus.
func canonical(mc *isa.Microcode) {
	for _, tap := range []int{isa.SLOT_RIGHT, isa.SLOT_LEFT} {
		sl := &mc[tap]
		switch sl.Op {
		case isa.OP_ACCUMULATE, isa.OP_LOAD:
			sl.Op = isa.OP_NOP
		case isa.OP_STORE_POSITIVE:
			sl.Op = isa.OP_WRITE_POSITIVE
		case isa.OP_STORE_NEGATIVE:
			sl.Op = isa.OP_WRITE_NEGATIVE
		}
	}

	sl := &mc[isa.SLOT_INPUT]
	switch sl.Op {
	case isa.OP_STORE_POSITIVE:
		sl.Op = isa.OP_ACCUMULATE
	case isa.OP_STORE_NEGATIVE:
		sl.Op = isa.OP_LOAD
	}
}

// prepass canonicalizes the role slots and retires the accumulator update
// of slot 0 when nothing consumes it.
func prepass(mc *isa.Microcode) (retired int) {
	canonical(mc)

	live := AnalyzeLiveness(mc)
	if live.Dead(mc, isa.SLOT_INPUT) && retire(&mc[isa.SLOT_INPUT]) {
		retired++
	}

	return
}

// retireDead retires dead accumulator updates among slots first..last until
// no more are found.
func retireDead(mc *isa.Microcode, first, last int) (retired int) {
	for {
		live := AnalyzeLiveness(mc)
		count := 0
		for n := first; n <= last; n++ {
			if live.Dead(mc, n) && retire(&mc[n]) {
				count++
			}
		}
		if count == 0 {
			return
		}
		retired += count
	}
}

// escapes returns true if the slot sends the accumulator to memory or an
// output.
func escapes(sl isa.Slot, n int) bool {
	if n == isa.SLOT_INPUT || sl.Op.Bus() == isa.BUS_MEMORY {
		return false
	}
	return sl.Op.Writes() || sl.Output != isa.CHANNEL_NONE
}

// passTrailing retires the accumulator updates after the last slot that
// stores or outputs the accumulator, provided the accumulator left at the
// end of the pass is not consumed by the next sample.
func passTrailing(mc *isa.Microcode) (retired int, diags []Diagnostic) {
	live := AnalyzeLiveness(mc)
	if live.Carried() {
		diags = append(diags, Diagnostic{
			Pass: PASS_TRAILING,
			Slot: firstReader(mc),
			Err:  ErrAccumulatorCarried,
		})
		return
	}

	first := isa.SLOT_INPUT + 1
	for n := isa.SLOTS - 1; n > isa.SLOT_INPUT; n-- {
		if escapes(mc[n], n) {
			first = n + 1
			break
		}
	}

	retired = retireDead(mc, first, isa.SLOTS-1)
	return
}

// passDeadEnd retires every accumulator update nothing consumes.
func passDeadEnd(mc *isa.Microcode) (retired int) {
	return retireDead(mc, isa.SLOT_INPUT, isa.SLOTS-1)
}

// passTaps moves each output tap onto the slot that wrote the cell the tap
// reads, earlier in the same pass. The tap's delta is folded into its
// predecessor so every other slot keeps its address. When nothing else
// reads the cell before it is rewritten, the memory write is dropped.
func passTaps(mc *isa.Microcode) (relocated, suppressed int) {
	for _, tap := range []int{isa.SLOT_RIGHT, isa.SLOT_LEFT} {
		sl := &mc[tap]
		if sl.Op != isa.OP_NOP || sl.Output == isa.CHANNEL_NONE {
			continue
		}

		sums := mc.Sums()
		writer := SLOT_NONE
		for n := tap - 1; n >= isa.SLOT_INPUT; n-- {
			if sums[n] == sums[tap] && mc[n].WritesMemory(n) {
				writer = n
				break
			}
		}

		// Slot 0 writes the input bus, which no opcode can output.
		if writer == SLOT_NONE || writer == isa.SLOT_INPUT {
			continue
		}

		w := &mc[writer]
		if w.Output != isa.CHANNEL_NONE {
			continue
		}

		w.Output = sl.Output
		sl.Output = isa.CHANNEL_NONE
		mc[tap-1].Delta = (mc[tap-1].Delta + sl.Delta) & isa.ADDRESS_MASK
		sl.Delta = 0
		relocated++

		if mc.Residue() == isa.ADDRESS_STEP && !CellObserved(mc, writer) && suppress(w) {
			suppressed++
		}
	}

	return
}

// passUnity collapses a zero-delta read of a cell followed by a halved
// accumulate of the same cell into a single full scale read.
func passUnity(mc *isa.Microcode, from, to isa.Opcode) (collapsed int) {
	for n := isa.SLOT_INPUT + 1; n < isa.SLOTS-1; n++ {
		a, b := &mc[n], &mc[n+1]
		if a.Op != from || a.Delta != 0 || b.Op != isa.OP_ACCUMULATE {
			continue
		}
		if a.Output != isa.CHANNEL_NONE || b.Output != isa.CHANNEL_NONE {
			continue
		}
		a.Op = isa.OP_NOP
		b.Op = to
		collapsed++
		n++
	}
	return
}

// passRedundantWrites drops memory writes to cells that are written again
// before anything reads them.
func passRedundantWrites(mc *isa.Microcode) (suppressed int) {
	covered := Overwritten(mc)
	for n := isa.SLOTS - 2; n > isa.SLOT_INPUT; n-- {
		if covered[n] && mc[n].WritesMemory(n) && suppress(&mc[n]) {
			suppressed++
		}
	}
	return
}
