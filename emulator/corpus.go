package emulator

import (
	"iter"
	"math"

	"github.com/ezrec/midiverb/internal"
	"github.com/ezrec/midiverb/isa"
)

const (
	SAMPLE_RATE = 44100 // Sample rate of the sweep, in Hz.
	SWEEP_LOW   = 20.0  // Sweep start frequency, in Hz.
	SWEEP_HIGH  = 20e3  // Sweep end frequency, in Hz.

	IMPULSE_LEVEL = 8192 // Impulse amplitude of the corpus.
)

// Silence returns count zero samples.
func Silence(count int) iter.Seq[isa.Sample] {
	return func(yield func(isa.Sample) bool) {
		for range count {
			if !yield(isa.Sample{}) {
				return
			}
		}
	}
}

// Impulse returns a single sample of the given level followed by silence,
// count samples in total.
func Impulse(count int, left, right int16) iter.Seq[isa.Sample] {
	return func(yield func(isa.Sample) bool) {
		for n := range count {
			var in isa.Sample
			if n == 0 {
				in = isa.Sample{left, right}
			}
			if !yield(in) {
				return
			}
		}
	}
}

// Sweep returns a full scale sinusoid of count samples, its frequency rising
// exponentially from SWEEP_LOW to SWEEP_HIGH. The right channel is in
// quadrature with the left.
func Sweep(count int) iter.Seq[isa.Sample] {
	return func(yield func(isa.Sample) bool) {
		ratio := math.Pow(SWEEP_HIGH/SWEEP_LOW, 1/float64(max(count, 1)))
		freq := SWEEP_LOW
		phase := 0.0
		for range count {
			in := isa.Sample{
				int16(math.MaxInt16 * math.Sin(phase)),
				int16(math.MaxInt16 * math.Cos(phase)),
			}
			if !yield(in) {
				return
			}
			phase = math.Mod(phase+2*math.Pi*freq/SAMPLE_RATE, 2*math.Pi)
			freq *= ratio
		}
	}
}

// Corpus returns the validation corpus: silence, a left channel impulse
// with its decay, then a sweep, each count samples long.
func Corpus(count int) iter.Seq[isa.Sample] {
	return internal.IterSeqConcat(
		Silence(count),
		Impulse(count, IMPULSE_LEVEL, 0),
		Sweep(count),
	)
}
