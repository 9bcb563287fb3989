package isa

import (
	"errors"

	"github.com/ezrec/midiverb/translate"
)

var f = translate.From

var (
	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrFillSyntax         = errors.New(f(".fill syntax"))
	ErrLoopSyntax         = errors.New(f(".loop syntax"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOpcodeInvalid      = errors.New(f("opcode invalid"))
	ErrProgramFull        = errors.New(f("program full"))
)

// ErrAddressSum reports a program whose full pass does not advance the
// address accumulator by exactly one.
type ErrAddressSum uint16

func (err ErrAddressSum) Error() string {
	return f("address sum 0x%04x, expected 0x%04x", uint16(err), ADDRESS_STEP)
}

func (err ErrAddressSum) Is(target error) (ok bool) {
	_, ok = target.(ErrAddressSum)
	return
}

// ErrRomWords reports a flat word array of the wrong length.
type ErrRomWords int

func (err ErrRomWords) Error() string {
	return f("rom has %d words, expected %d", int(err), PROGRAMS*SLOTS)
}

// ErrSlotCount reports an assembled program with the wrong number of slots.
type ErrSlotCount int

func (err ErrSlotCount) Error() string {
	return f("program has %d slots, expected %d", int(err), SLOTS)
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
