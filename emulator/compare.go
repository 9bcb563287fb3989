package emulator

import (
	"iter"

	"github.com/ezrec/midiverb/isa"
	"github.com/ezrec/midiverb/optimizer"
)

// SAMPLE_NONE marks a report without a mismatch.
const SAMPLE_NONE = -1

// Processor executes one program, one stereo sample at a time.
type Processor interface {
	Process(in isa.Sample) isa.Sample
	Reset()
}

// Report is the result of a comparison run.
type Report struct {
	Program int            // Program compared.
	Passes  optimizer.Pass // Optimizer passes of the compiled side.
	Exact   bool           // Set if the passes are expected to be bit exact.
	Samples int            // Samples compared.
	Errors  [2]int         // Mismatched samples per channel, indexed like isa.Sample.
	First   int            // First mismatched sample, or SAMPLE_NONE.
	Want    isa.Sample     // Reference output at First.
	Got     isa.Sample     // Compared output at First.
}

// Ok returns true if no sample differed.
func (report *Report) Ok() bool {
	return report.First == SAMPLE_NONE
}

// Failed returns true if an exact run differed.
func (report *Report) Failed() bool {
	return report.Exact && !report.Ok()
}

func (report *Report) String() string {
	if report.Ok() {
		return f("prog%02d: %d samples, ok", report.Program, report.Samples)
	}
	return f("prog%02d: %d samples, %d left and %d right errors, first at %d: want %v, got %v",
		report.Program, report.Samples,
		report.Errors[isa.LEFT], report.Errors[isa.RIGHT],
		report.First, report.Want, report.Got)
}

// Compare resets both processors, drives them with the same input and
// counts the output differences of dut against ref.
func Compare(ref, dut Processor, input iter.Seq[isa.Sample]) (report Report) {
	report.First = SAMPLE_NONE

	ref.Reset()
	dut.Reset()

	for in := range input {
		want := ref.Process(in)
		got := dut.Process(in)
		if want != got {
			for ch := range want {
				if want[ch] != got[ch] {
					report.Errors[ch]++
				}
			}
			if report.First == SAMPLE_NONE {
				report.First = report.Samples
				report.Want = want
				report.Got = got
			}
		}
		report.Samples++
	}

	return
}
