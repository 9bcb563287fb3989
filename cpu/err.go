package cpu

import (
	"github.com/ezrec/midiverb/isa"
	"github.com/ezrec/midiverb/translate"
)

var f = translate.From

// ErrProgramRange reports the selection of a program the ROM does not have.
type ErrProgramRange int

func (err ErrProgramRange) Error() string {
	return f("program %d out of range 0..%d", int(err), isa.PROGRAMS-1)
}

func (err ErrProgramRange) Is(target error) (ok bool) {
	_, ok = target.(ErrProgramRange)
	return
}
