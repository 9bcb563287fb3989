// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

const (
	LEFT  = int(CHANNEL_LEFT)  // Left channel index of a Sample.
	RIGHT = int(CHANNEL_RIGHT) // Right channel index of a Sample.

	OUTPUT_MIN   = -4096 // Lowest bus value a tap can represent.
	OUTPUT_MAX   = 4095  // Highest bus value a tap can represent.
	OUTPUT_SHIFT = 3     // Tap rescale to 16 bits.
)

// Sample is one stereo sample, indexed by LEFT and RIGHT.
type Sample [2]int16

// State is the processor state owned by one running program.
type State struct {
	Acc    int16              // Accumulator.
	Addr   uint16             // Address accumulator.
	Memory [MEMORY_SIZE]int16 // Delay memory.
}

// Reset zeros the accumulators and clears the delay memory.
func (s *State) Reset() {
	s.Acc = 0
	s.Addr = 0
	clear(s.Memory[:])
}

// Advance moves the address accumulator by delta.
func (s *State) Advance(delta uint16) {
	s.Addr = (s.Addr + delta) & ADDRESS_MASK
}

// RoundHalf halves x, rounding negative odd values up.
func RoundHalf(x int16) int16 {
	return x>>1 + int16(uint16(x)>>15)
}

// Saturate clamps a bus value to 13 bits and rescales it to 16 bits.
func Saturate(bus int16) int16 {
	switch {
	case bus < OUTPUT_MIN:
		bus = OUTPUT_MIN
	case bus > OUTPUT_MAX:
		bus = OUTPUT_MAX
	}
	return bus << OUTPUT_SHIFT
}

// Downmix mixes a stereo sample to the mono input bus.
// The low bit of the result is always clear.
func Downmix(in Sample) int16 {
	return (in[LEFT]>>4 + in[RIGHT]>>4) &^ 1
}

// Rounding is the arithmetic model used for halving and negation.
type Rounding int

const (
	ROUNDING_HARDWARE = Rounding(0) // hardware
	ROUNDING_FAST     = Rounding(1) // fast
)

// String returns the rounding model name.
func (r Rounding) String() string {
	if r == ROUNDING_FAST {
		return "fast"
	}
	return "hardware"
}

// Half halves x under the rounding model.
func (r Rounding) Half(x int16) int16 {
	if r == ROUNDING_FAST {
		return x >> 1
	}
	return RoundHalf(x)
}

// Invert negates x under the rounding model. The hardware uses the ones'
// complement.
func (r Rounding) Invert(x int16) int16 {
	if r == ROUNDING_FAST {
		return -x
	}
	return ^x
}

// Exec executes one canonical microcode slot at index against the state.
// The input bus value is used by slot 0; out receives tap values.
func (sl Slot) Exec(s *State, index int, in int16, out *Sample, r Rounding) {
	var bus int16
	switch {
	case index == SLOT_INPUT:
		bus = in
	case sl.Op.Bus() == BUS_MEMORY:
		bus = s.Memory[s.Addr]
	case sl.Op.Bus() == BUS_ACC:
		bus = s.Acc
	default:
		bus = r.Invert(s.Acc)
	}

	if sl.Output != CHANNEL_NONE {
		out[sl.Output] = Saturate(bus)
	}

	if sl.WritesMemory(index) {
		s.Memory[s.Addr] = bus
	}

	switch sl.Op.Update() {
	case UPDATE_ADD_HALF:
		s.Acc += r.Half(bus)
	case UPDATE_SET_HALF:
		s.Acc = r.Half(bus)
	case UPDATE_ADD:
		s.Acc += bus
	case UPDATE_SET:
		s.Acc = bus
	}

	s.Advance(sl.Delta)
}
