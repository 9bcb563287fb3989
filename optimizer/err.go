package optimizer

import (
	"errors"

	"github.com/ezrec/midiverb/translate"
)

var f = translate.From

var (
	ErrAccumulatorCarried = errors.New(f("accumulator carried into the next sample"))
	ErrPassUnknown        = errors.New(f("pass unknown"))
)

// SLOT_NONE marks a diagnostic about the whole program.
const SLOT_NONE = -1

// Diagnostic is an advisory message from a pass.
type Diagnostic struct {
	Pass Pass  // Pass that raised the diagnostic, PASS_NONE for the checks.
	Slot int   // Slot concerned, or SLOT_NONE.
	Err  error // Cause.
}

func (diag Diagnostic) Error() string {
	if diag.Slot == SLOT_NONE {
		return f("%v: %v", diag.Pass, diag.Err)
	}
	return f("%v: slot 0x%02x: %v", diag.Pass, diag.Slot, diag.Err)
}

func (diag Diagnostic) Unwrap() error {
	return diag.Err
}
