// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

// Opcode is a slot operation.
//
// The first four values are the hardware opcodes. The rest only appear in
// microcode rewritten by the optimizer.
type Opcode int

const (
	OP_ACCUMULATE      = Opcode(0)  // sumhalf
	OP_LOAD            = Opcode(1)  // ldhalf
	OP_STORE_POSITIVE  = Opcode(2)  // strpos
	OP_STORE_NEGATIVE  = Opcode(3)  // strneg
	OP_UNITY_ADD       = Opcode(4)  // sum
	OP_UNITY_ASSIGN    = Opcode(5)  // ld
	OP_UPDATE_POSITIVE = Opcode(6)  // updpos
	OP_UPDATE_NEGATIVE = Opcode(7)  // updneg
	OP_WRITE_POSITIVE  = Opcode(8)  // wrpos
	OP_WRITE_NEGATIVE  = Opcode(9)  // wrneg
	OP_NOP             = Opcode(10) // nop
)

// Bus is the source of the value an instruction reads.
type Bus int

const (
	BUS_MEMORY   = Bus(0) // mem
	BUS_ACC      = Bus(1) // acc
	BUS_INVERTED = Bus(2) // ~acc
)

// Update is the accumulator update an instruction performs with its bus value.
type Update int

const (
	UPDATE_NONE     = Update(0) // none
	UPDATE_ADD_HALF = Update(1) // acc + bus/2
	UPDATE_SET_HALF = Update(2) // bus/2
	UPDATE_ADD      = Update(3) // acc + bus
	UPDATE_SET      = Update(4) // bus
)

// Channel is an output channel. The values index a Sample.
type Channel int

const (
	CHANNEL_NONE  = Channel(-1) // -
	CHANNEL_LEFT  = Channel(0)  // left
	CHANNEL_RIGHT = Channel(1)  // right
)

type opcodeInfo struct {
	name   string
	bus    Bus
	writes bool
	update Update
}

var opcodeTable = [...]opcodeInfo{
	OP_ACCUMULATE:      {"sumhalf", BUS_MEMORY, false, UPDATE_ADD_HALF},
	OP_LOAD:            {"ldhalf", BUS_MEMORY, false, UPDATE_SET_HALF},
	OP_STORE_POSITIVE:  {"strpos", BUS_ACC, true, UPDATE_ADD_HALF},
	OP_STORE_NEGATIVE:  {"strneg", BUS_INVERTED, true, UPDATE_SET_HALF},
	OP_UNITY_ADD:       {"sum", BUS_MEMORY, false, UPDATE_ADD},
	OP_UNITY_ASSIGN:    {"ld", BUS_MEMORY, false, UPDATE_SET},
	OP_UPDATE_POSITIVE: {"updpos", BUS_ACC, false, UPDATE_ADD_HALF},
	OP_UPDATE_NEGATIVE: {"updneg", BUS_INVERTED, false, UPDATE_SET_HALF},
	OP_WRITE_POSITIVE:  {"wrpos", BUS_ACC, true, UPDATE_NONE},
	OP_WRITE_NEGATIVE:  {"wrneg", BUS_INVERTED, true, UPDATE_NONE},
	OP_NOP:             {"nop", BUS_MEMORY, false, UPDATE_NONE},
}

// Valid returns true if the opcode is in the closed opcode set.
func (op Opcode) Valid() bool {
	return op >= OP_ACCUMULATE && op <= OP_NOP
}

// Hardware returns true for the four opcodes the processor implements.
func (op Opcode) Hardware() bool {
	return op >= OP_ACCUMULATE && op <= OP_STORE_NEGATIVE
}

// String returns the opcode mnemonic.
func (op Opcode) String() string {
	if !op.Valid() {
		return "op?"
	}
	return opcodeTable[op].name
}

// Bus returns the bus source of the opcode.
func (op Opcode) Bus() Bus {
	return opcodeTable[op].bus
}

// Writes returns true if the opcode writes its bus value to memory.
func (op Opcode) Writes() bool {
	return opcodeTable[op].writes
}

// Update returns the accumulator update of the opcode.
func (op Opcode) Update() Update {
	return opcodeTable[op].update
}

// Reads returns true if the opcode consumes the accumulator value from
// before the slot.
func (op Opcode) Reads() bool {
	switch op.Update() {
	case UPDATE_ADD_HALF, UPDATE_ADD:
		return true
	}
	return op.Bus() != BUS_MEMORY && (op.Writes() || op.Update() != UPDATE_NONE)
}

// Parse an opcode mnemonic.
func ParseOpcode(name string) (op Opcode, ok bool) {
	for n, info := range opcodeTable {
		if info.name == name {
			return Opcode(n), true
		}
	}
	return
}

// String returns the bus name.
func (bus Bus) String() string {
	switch bus {
	case BUS_MEMORY:
		return "mem"
	case BUS_ACC:
		return "acc"
	case BUS_INVERTED:
		return "~acc"
	}
	return "bus?"
}

// String returns the channel name.
func (ch Channel) String() string {
	switch ch {
	case CHANNEL_NONE:
		return "-"
	case CHANNEL_LEFT:
		return "left"
	case CHANNEL_RIGHT:
		return "right"
	}
	return "channel?"
}
