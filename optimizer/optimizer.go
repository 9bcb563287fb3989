// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package optimizer

import (
	"log"

	"github.com/ezrec/midiverb/isa"
)

// Stats counts the rewrites of an optimization.
type Stats struct {
	Retired    int // Accumulator updates dropped.
	Relocated  int // Output taps moved onto their writer.
	Collapsed  int // Halved read pairs turned into one full read.
	Suppressed int // Memory writes dropped.
	Nops       int // Slots left with no effect besides addressing.
}

// Result is an optimized program.
type Result struct {
	Microcode   isa.Microcode // Canonical, rewritten microcode.
	Rounding    isa.Rounding  // Rounding model for code emission.
	Passes      Pass          // Passes applied.
	Diagnostics []Diagnostic  // Advisory messages.
	Stats       Stats         // Rewrite counters.
}

// Optimizer applies a fixed pipeline of passes to microcode programs.
// It holds no state between calls and may be shared by goroutines.
type Optimizer struct {
	Verbose bool // If set, logs the diagnostics and statistics.
	Passes  Pass // Enabled passes.
}

// Optimize decodes and optimizes a program.
func (opt *Optimizer) Optimize(prog *isa.Program) (res *Result) {
	return opt.OptimizeMicrocode(prog.Decode())
}

// OptimizeMicrocode optimizes decoded microcode. The microcode may be the
// result of an earlier optimization.
func (opt *Optimizer) OptimizeMicrocode(mc isa.Microcode) (res *Result) {
	res = &Result{
		Microcode: mc,
		Passes:    opt.Passes,
	}

	code := &res.Microcode
	stats := &res.Stats

	err := code.Check()
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{Pass: PASS_NONE, Slot: SLOT_NONE, Err: err})
	}

	stats.Retired += prepass(code)

	if opt.Passes.Has(PASS_TRAILING) {
		retired, diags := passTrailing(code)
		stats.Retired += retired
		res.Diagnostics = append(res.Diagnostics, diags...)
	}

	if opt.Passes.Has(PASS_TAPS) {
		relocated, suppressed := passTaps(code)
		stats.Relocated += relocated
		stats.Suppressed += suppressed
	}

	if opt.Passes.Has(PASS_DEAD_END) {
		stats.Retired += passDeadEnd(code)
	}

	if opt.Passes.Has(PASS_UNITY_ADD) {
		stats.Collapsed += passUnity(code, isa.OP_ACCUMULATE, isa.OP_UNITY_ADD)
	}

	if opt.Passes.Has(PASS_UNITY_ASSIGN) {
		stats.Collapsed += passUnity(code, isa.OP_LOAD, isa.OP_UNITY_ASSIGN)
	}

	if opt.Passes.Has(PASS_REDUNDANT_WRITE) {
		stats.Suppressed += passRedundantWrites(code)
	}

	res.Rounding = isa.ROUNDING_HARDWARE
	if opt.Passes.Has(PASS_FAST_ROUNDING) {
		res.Rounding = isa.ROUNDING_FAST
	}

	for n, sl := range code {
		if sl.Op == isa.OP_NOP && sl.Output == isa.CHANNEL_NONE && n != isa.SLOT_INPUT {
			stats.Nops++
		}
	}

	if opt.Verbose {
		for _, diag := range res.Diagnostics {
			log.Printf("optimizer: %v", diag)
		}
		log.Printf("optimizer: %v: %+v", opt.Passes, *stats)
	}

	return
}
