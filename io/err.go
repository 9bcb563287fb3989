package io

import (
	"errors"

	"github.com/ezrec/midiverb/translate"
)

var f = translate.From

var (
	ErrTapeFormat = errors.New(f("tape is not a 16-bit stereo PCM WAV file"))
)

// ErrRomSize reports a ROM image of an unknown size.
type ErrRomSize int

func (err ErrRomSize) Error() string {
	return f("rom image of %d bytes, expected %d or %d", int(err), RAW_SIZE, WORDS_SIZE)
}

func (err ErrRomSize) Is(target error) (ok bool) {
	_, ok = target.(ErrRomSize)
	return
}
