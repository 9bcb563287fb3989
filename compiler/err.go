package compiler

import (
	"errors"

	"github.com/ezrec/midiverb/isa"
	"github.com/ezrec/midiverb/translate"
)

var f = translate.From

var (
	ErrRange       = errors.New(f("program range invalid"))
	ErrPackageName = errors.New(f("package name invalid"))
)

// ErrProgramMissing reports a lookup of a program the table does not hold.
type ErrProgramMissing int

func (err ErrProgramMissing) Error() string {
	if int(err) < 0 || int(err) >= isa.PROGRAMS {
		return f("program %d out of range 0..%d", int(err), isa.PROGRAMS-1)
	}
	return f("program %d not compiled", int(err))
}

func (err ErrProgramMissing) Is(target error) (ok bool) {
	_, ok = target.(ErrProgramMissing)
	return
}
