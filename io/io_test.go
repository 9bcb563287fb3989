package io

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/midiverb/internal/testprog"
	"github.com/ezrec/midiverb/isa"
)

func TestUnscramble(t *testing.T) {
	assert := assert.New(t)

	rom := testprog.RandomRom(rand.New(rand.NewSource(3)))

	raw := Scramble(rom)
	assert.Equal(RAW_SIZE, len(raw))

	got, err := Unscramble(raw)
	assert.NoError(err)
	assert.Equal(rom, got)

	_, err = Unscramble(raw[:100])
	assert.ErrorIs(err, ErrRomSize(0))
}

func TestUnscrambleLayout(t *testing.T) {
	assert := assert.New(t)

	raw := make([]byte, RAW_SIZE)
	page := raw[5*PAGE_SIZE:]

	// Slot 0 wraps around to the end of its page.
	page[0xfd] = 0x80
	page[0xfe] = 0x34
	page[0xff] = 0x12

	// Slot 2 uses the bytes 1, 2 and 3.
	page[1] = 0xc0
	page[2] = 0xcd
	page[3] = 0xab

	rom, err := Unscramble(raw)
	assert.NoError(err)
	assert.Equal(isa.MakeInstruction(2, 0x1234), rom[5][0])
	assert.Equal(isa.MakeInstruction(3, 0x2bcd), rom[5][2])
	assert.Equal(isa.Instruction(0), rom[5][1])
	assert.Equal(isa.Instruction(0), rom[4][0])
}

func TestReadRom(t *testing.T) {
	assert := assert.New(t)

	rom := testprog.RandomRom(rand.New(rand.NewSource(4)))

	got, err := ReadRom(bytes.NewReader(Scramble(rom)))
	assert.NoError(err)
	assert.Equal(rom, got)

	var buf bytes.Buffer
	assert.NoError(WriteWords(&buf, rom))
	assert.Equal(WORDS_SIZE, buf.Len())
	assert.Equal(byte(rom[0][0]>>8), buf.Bytes()[0])
	assert.Equal(byte(rom[0][0]), buf.Bytes()[1])

	got, err = ReadRom(&buf)
	assert.NoError(err)
	assert.Equal(rom, got)

	_, err = ReadRom(bytes.NewReader(make([]byte, 100)))
	assert.ErrorIs(err, ErrRomSize(0))
	assert.Contains(err.Error(), "100 bytes")
}

func TestTape(t *testing.T) {
	assert := assert.New(t)

	tape := NewTape(22050, slices.Values([]isa.Sample{
		{0, 0},
		{1, -1},
		{32767, -32768},
		{-1234, 4321},
	}))
	assert.Equal(4, len(tape.Samples))

	path := filepath.Join(t.TempDir(), "tape.wav")
	file, err := os.Create(path)
	assert.NoError(err)
	assert.NoError(tape.Write(file))
	assert.NoError(file.Close())

	file, err = os.Open(path)
	assert.NoError(err)
	defer file.Close()

	got, err := ReadTape(file)
	assert.NoError(err)
	assert.Equal(tape, got)
	assert.Equal(tape.Samples, slices.Collect(got.All()))
}

func TestTapeFormat(t *testing.T) {
	assert := assert.New(t)

	_, err := ReadTape(bytes.NewReader([]byte("not a wave file at all, just some text")))
	assert.ErrorIs(err, ErrTapeFormat)
}
