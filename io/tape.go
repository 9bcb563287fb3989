// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"io"
	"iter"
	"slices"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ezrec/midiverb/isa"
)

const (
	TAPE_CHANNELS  = 2     // Stereo.
	TAPE_BIT_DEPTH = 16    // Signed 16-bit PCM.
	TAPE_PCM       = 1     // WAV PCM audio format.
	TAPE_RATE      = 44100 // Default sample rate.
)

// Tape is a stereo 16-bit recording, in the interleaved left then right
// order of a WAV file.
type Tape struct {
	SampleRate int
	Samples    []isa.Sample
}

// NewTape records a stream of samples.
func NewTape(sampleRate int, samples iter.Seq[isa.Sample]) *Tape {
	return &Tape{
		SampleRate: sampleRate,
		Samples:    slices.Collect(samples),
	}
}

// ReadTape decodes a 16-bit stereo PCM WAV file.
func ReadTape(r io.ReadSeeker) (tape *Tape, err error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		err = ErrTapeFormat
		return
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return
	}

	if dec.NumChans != TAPE_CHANNELS || dec.BitDepth != TAPE_BIT_DEPTH || dec.WavAudioFormat != TAPE_PCM {
		err = ErrTapeFormat
		return
	}

	tape = &Tape{
		SampleRate: int(dec.SampleRate),
		Samples:    make([]isa.Sample, len(buf.Data)/TAPE_CHANNELS),
	}
	for n := range tape.Samples {
		tape.Samples[n][isa.LEFT] = int16(buf.Data[n*2])
		tape.Samples[n][isa.RIGHT] = int16(buf.Data[n*2+1])
	}

	return
}

// All returns the samples of the tape.
func (tape *Tape) All() iter.Seq[isa.Sample] {
	return slices.Values(tape.Samples)
}

// Write encodes the tape as a 16-bit stereo PCM WAV file.
func (tape *Tape) Write(w io.WriteSeeker) (err error) {
	rate := tape.SampleRate
	if rate == 0 {
		rate = TAPE_RATE
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: TAPE_CHANNELS,
			SampleRate:  rate,
		},
		Data:           make([]int, 0, len(tape.Samples)*TAPE_CHANNELS),
		SourceBitDepth: TAPE_BIT_DEPTH,
	}
	for _, sample := range tape.Samples {
		buf.Data = append(buf.Data, int(sample[isa.LEFT]), int(sample[isa.RIGHT]))
	}

	enc := wav.NewEncoder(w, rate, TAPE_BIT_DEPTH, TAPE_CHANNELS, TAPE_PCM)
	err = enc.Write(buf)
	if err != nil {
		enc.Close()
		return
	}

	err = enc.Close()
	return
}
