// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"encoding/binary"
	"io"

	"github.com/ezrec/midiverb/isa"
)

const (
	PAGE_SIZE  = 256                           // Bytes of one program in a raw image.
	RAW_SIZE   = 16384                         // Bytes of a raw ROM image.
	WORDS_SIZE = isa.PROGRAMS * isa.SLOTS * 2 // Bytes of a flat big-endian word array.
)

// Raw ROM layout: in the page of program p, slot i takes its address delta
// from bytes 2i-2 (low) and 2i-1 (bits 5..0), and its opcode from bits 7..6
// of byte 2i-3, all modulo the page size.
func opcodeByte(slot int) int { return (slot*2 - 3) & (PAGE_SIZE - 1) }
func lowByte(slot int) int    { return (slot*2 - 2) & (PAGE_SIZE - 1) }
func highByte(slot int) int   { return (slot*2 - 1) & (PAGE_SIZE - 1) }

// Unscramble decodes a raw ROM image.
func Unscramble(raw []byte) (rom *isa.Rom, err error) {
	if len(raw) != RAW_SIZE {
		err = ErrRomSize(len(raw))
		return
	}

	rom = &isa.Rom{}
	for p := range rom {
		page := raw[p*PAGE_SIZE : (p+1)*PAGE_SIZE]
		for i := range isa.SLOTS {
			op := isa.Opcode(page[opcodeByte(i)] >> 6)
			delta := uint16(page[lowByte(i)]) | uint16(page[highByte(i)]&0x3f)<<8
			rom[p][i] = isa.MakeInstruction(op, delta)
		}
	}

	return
}

// Scramble encodes a ROM as a raw image. The unused final page is zero.
func Scramble(rom *isa.Rom) (raw []byte) {
	raw = make([]byte, RAW_SIZE)
	for p := range rom {
		page := raw[p*PAGE_SIZE : (p+1)*PAGE_SIZE]
		for i, in := range rom[p] {
			delta := in.Delta()
			page[lowByte(i)] = byte(delta)
			page[highByte(i)] |= byte(delta>>8) & 0x3f
			page[opcodeByte(i)] |= byte(in.Opcode()) << 6
		}
	}

	return
}

// ReadRom reads a raw ROM image, or a flat array of big-endian instruction
// words, telling them apart by size.
func ReadRom(r io.Reader) (rom *isa.Rom, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	switch len(data) {
	case RAW_SIZE:
		rom, err = Unscramble(data)
	case WORDS_SIZE:
		words := make([]uint16, len(data)/2)
		for n := range words {
			words[n] = binary.BigEndian.Uint16(data[n*2:])
		}
		rom, err = isa.RomFromWords(words)
	default:
		err = ErrRomSize(len(data))
	}

	return
}

// WriteWords writes a ROM as a flat array of big-endian instruction words.
func WriteWords(w io.Writer, rom *isa.Rom) (err error) {
	err = binary.Write(w, binary.BigEndian, rom.Words())
	return
}
