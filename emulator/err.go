package emulator

import (
	"github.com/ezrec/midiverb/translate"
)

var f = translate.From

// ErrProgram indicates the program a failure belongs to.
type ErrProgram struct {
	Program int
	Err     error
}

func (err *ErrProgram) Error() string {
	return f("program %d: %v", err.Program, err.Err)
}

func (err *ErrProgram) Unwrap() error {
	return err.Err
}
