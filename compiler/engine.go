package compiler

import (
	"github.com/ezrec/midiverb/isa"
)

// Engine runs a compiled unit against its own processor state, with the
// same stereo contract as the interpreter.
type Engine struct {
	Unit  *Unit     // Compiled program; nil outputs silence.
	State isa.State // Accumulator, address accumulator and delay memory.
}

// NewEngine creates an engine for a unit, with cleared state.
func NewEngine(unit *Unit) (engine *Engine) {
	engine = &Engine{Unit: unit}
	return
}

// Reset clears the processor state.
func (engine *Engine) Reset() {
	engine.State.Reset()
}

// Process mixes the stereo input down to the bus and runs one sample.
func (engine *Engine) Process(in isa.Sample) (out isa.Sample) {
	if engine.Unit == nil {
		return
	}

	engine.Unit.Run(&engine.State, isa.Downmix(in), &out[isa.RIGHT], &out[isa.LEFT])
	return
}
