package isa

import (
	"fmt"
	"io"
	"strings"
)

// effect returns the bus, memory write and accumulator update of the slot
// at index, honouring the hardware role rules for undecorated role slots.
func (sl Slot) effect(index int) (bus string, writes bool, update Update) {
	bus = sl.Op.Bus().String()
	writes = sl.WritesMemory(index)
	update = sl.Op.Update()

	switch {
	case index == SLOT_INPUT:
		bus = "in"
		if sl.Op.Hardware() {
			update = UPDATE_ADD_HALF
			if sl.Op&1 != 0 {
				update = UPDATE_SET_HALF
			}
		}
	case RoleOf(index).Tap() && sl.Op.Hardware():
		update = UPDATE_NONE
	}

	return
}

// AllpassLength returns the delay length if the slot at index ends the
// all-pass macro: sumhalf at A, strneg at B, sumhalf at A, sumhalf at A.
func (mc *Microcode) AllpassLength(index int) (length uint16, ok bool) {
	if index < 3 {
		return
	}

	sums := mc.Sums()
	begin := sums[index-3]
	if mc[index-3].Op != OP_ACCUMULATE ||
		mc[index-2].Op != OP_STORE_NEGATIVE ||
		mc[index-1].Op != OP_ACCUMULATE || sums[index-1] != begin ||
		mc[index].Op != OP_ACCUMULATE || sums[index] != begin {
		return
	}

	length = (sums[index-2] - begin) & ADDRESS_MASK
	ok = true
	return
}

// Disassemble writes a listing of the microcode.
//
// Slots with hardware opcodes are listed in assembler syntax, with the slot
// number, memory offset, data flow and accumulator effect as a comment.
func (mc *Microcode) Disassemble(w io.Writer) (err error) {
	sums := mc.Sums()

	for n, sl := range mc {
		bus, writes, update := sl.effect(n)
		addr := fmt.Sprintf("[%04x]", sums[n])
		if bus == "mem" {
			bus += addr
		}

		var dst []string
		if writes {
			dst = append(dst, "mem"+addr)
		}
		if sl.Output != CHANNEL_NONE {
			dst = append(dst, sl.Output.String())
		}
		if len(dst) == 0 {
			dst = append(dst, "-")
		}

		var acc string
		switch update {
		case UPDATE_ADD_HALF:
			acc = "acc += " + bus + "/2"
		case UPDATE_SET_HALF:
			acc = "acc = " + bus + "/2"
		case UPDATE_ADD:
			acc = "acc += " + bus
		case UPDATE_SET:
			acc = "acc = " + bus
		}

		_, err = fmt.Fprintf(w, "%-7v 0x%04x ; %02x: %s -> %s; %s\n",
			sl.Op, sl.Delta, n, bus, strings.Join(dst, ", "), acc)
		if err != nil {
			return
		}

		length, ok := mc.AllpassLength(n)
		if ok {
			_, err = fmt.Fprintf(w, "; allpass, len = 0x%04x\n", length)
			if err != nil {
				return
			}
		}
	}

	_, err = fmt.Fprintf(w, "; address sum 0x%04x\n", mc.Residue())

	return
}
