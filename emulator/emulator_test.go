package emulator

import (
	"errors"
	"iter"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/midiverb/compiler"
	"github.com/ezrec/midiverb/cpu"
	"github.com/ezrec/midiverb/internal/testprog"
	romio "github.com/ezrec/midiverb/io"
	"github.com/ezrec/midiverb/isa"
	"github.com/ezrec/midiverb/optimizer"
)

const ECHO_PROGRAM = 21

func echoRom(t *testing.T) (rom *isa.Rom) {
	rng := rand.New(rand.NewSource(11))
	rom = testprog.RandomRom(rng)
	rom[ECHO_PROGRAM] = *testprog.MustAssemble(testprog.Echo)
	return
}

func TestCorpus(t *testing.T) {
	assert := assert.New(t)

	silence := slices.Collect(Silence(10))
	assert.Equal(make([]isa.Sample, 10), silence)

	impulse := slices.Collect(Impulse(5, 100, -100))
	assert.Equal([]isa.Sample{{100, -100}, {}, {}, {}, {}}, impulse)

	sweep := slices.Collect(Sweep(1000))
	assert.Equal(1000, len(sweep))
	assert.Equal(isa.Sample{0, 32767}, sweep[0])
	loud := 0
	for _, in := range sweep {
		if in[isa.LEFT] > 30000 || in[isa.LEFT] < -30000 {
			loud++
		}
	}
	assert.Greater(loud, 0)

	corpus := slices.Collect(Corpus(100))
	assert.Equal(300, len(corpus))
	assert.Equal(isa.Sample{}, corpus[99])
	assert.Equal(isa.Sample{IMPULSE_LEVEL, 0}, corpus[100])
	assert.Equal(isa.Sample{0, 32767}, corpus[200])

	// Consumers may stop early.
	count := 0
	for range Corpus(100) {
		count++
		if count == 150 {
			break
		}
	}
	assert.Equal(150, count)
}

func TestCompare(t *testing.T) {
	assert := assert.New(t)

	rom := echoRom(t)

	ref := cpu.NewCpu(rom)
	dut := cpu.NewCpu(rom)
	assert.NoError(ref.SetProgram(ECHO_PROGRAM))
	assert.NoError(dut.SetProgram(ECHO_PROGRAM))

	// State left over from an earlier run is cleared.
	for range 10 {
		dut.Process(isa.Sample{5000, 5000})
	}
	report := Compare(ref, dut, Corpus(300))
	assert.True(report.Ok())
	assert.Equal(900, report.Samples)
	assert.Equal([2]int{}, report.Errors)
	assert.Equal(SAMPLE_NONE, report.First)

	comp := &compiler.Compiler{Passes: optimizer.PASS_ALL, First: ECHO_PROGRAM, Last: ECHO_PROGRAM}
	table, err := comp.Compile(rom)
	assert.NoError(err)

	report = Compare(ref, compiler.NewEngine(table[ECHO_PROGRAM]), Impulse(600, -8192-16, 0))
	assert.False(report.Ok())
	assert.False(report.Failed())
	assert.Equal(0, report.First)
	assert.Equal(isa.Sample{0, -256 << 3}, report.Want)
	assert.Equal(isa.Sample{0, -257 << 3}, report.Got)
	assert.Equal(3, report.Errors[isa.RIGHT])
	assert.Equal(2, report.Errors[isa.LEFT])
	assert.Contains(report.String(), "first at 0")
}

func TestValidator(t *testing.T) {
	assert := assert.New(t)

	rom := echoRom(t)

	val := &Validator{Passes: optimizer.PASS_EXACT, First: 0, Last: isa.PROGRAMS - 1}
	reports, err := val.Validate(rom, func() iter.Seq[isa.Sample] { return Corpus(200) })
	assert.NoError(err)
	assert.Equal(isa.PROGRAMS, len(reports))
	for n, report := range reports {
		assert.Equal(n, report.Program)
		assert.True(report.Exact)
		assert.Equal(600, report.Samples)
		assert.True(report.Ok(), report.String())
	}

	val = &Validator{Passes: optimizer.PASS_FAST_ROUNDING, First: ECHO_PROGRAM, Last: ECHO_PROGRAM}
	reports, err = val.Validate(rom, func() iter.Seq[isa.Sample] { return Impulse(100, -8192-16, 0) })
	assert.NoError(err)
	if assert.Equal(1, len(reports)) {
		assert.False(reports[0].Exact)
		assert.False(reports[0].Ok())
		assert.False(reports[0].Failed())
	}

	val = &Validator{First: 10, Last: 9}
	_, err = val.Validate(rom, func() iter.Seq[isa.Sample] { return Silence(1) })
	assert.ErrorIs(err, compiler.ErrRange)
}

func TestEmulatorEcho(t *testing.T) {
	assert := assert.New(t)

	rom := echoRom(t)
	emu := NewEmulator(rom)
	assert.False(emu.Compiled())

	assert.NoError(emu.SetProgram(ECHO_PROGRAM))
	interpreted := slices.Collect(emu.Render(Impulse(2048, 8192, 0)))
	assert.Equal(2048, emu.Cpu.Ticks)

	// Each echo is half the previous one.
	var peaks []int16
	for n := 0; n < len(interpreted); n += testprog.ECHO_DELAY {
		peaks = append(peaks, interpreted[n][isa.RIGHT])
	}
	assert.Equal([]int16{2048, 1024, 512, 256, 128, 64, 32, 16}, peaks)

	assert.NoError(emu.UseCompiled(optimizer.PASS_EXACT))
	assert.True(emu.Compiled())
	assert.Equal(0, emu.Cpu.Ticks)
	compiled := slices.Collect(emu.Render(Impulse(2048, 8192, 0)))
	assert.Equal(interpreted, compiled)
	assert.Equal(2048, emu.Cpu.Ticks)

	emu.Reset()
	again := slices.Collect(emu.Render(Impulse(2048, 8192, 0)))
	assert.Equal(interpreted, again)

	emu.UseInterpreter()
	assert.False(emu.Compiled())
	again = slices.Collect(emu.Render(Impulse(2048, 8192, 0)))
	assert.Equal(interpreted, again)
}

func TestEmulatorProgramRange(t *testing.T) {
	assert := assert.New(t)

	rom := echoRom(t)
	emu := NewEmulator(rom)
	assert.NoError(emu.UseCompiled(optimizer.PASS_EXACT))

	err := emu.SetProgram(isa.PROGRAMS)
	assert.True(errors.Is(err, cpu.ErrProgramRange(0)))
	var perr *ErrProgram
	if assert.True(errors.As(err, &perr)) {
		assert.Equal(isa.PROGRAMS, perr.Program)
	}

	emu.Cpu.Compat = true
	assert.NoError(emu.SetProgram(isa.PROGRAMS))
	assert.Equal(isa.Sample{}, emu.Process(isa.Sample{8192, 8192}))

	emu.UseInterpreter()
	assert.NoError(emu.SetProgram(isa.PROGRAMS))
	assert.Equal(isa.Sample{}, emu.Process(isa.Sample{8192, 8192}))
}

// The factory ROM is not redistributable; drop a copy in testdata to run.
func TestRomImage(t *testing.T) {
	inf, err := os.Open(filepath.Join("testdata", "midifverb.bin"))
	if errors.Is(err, os.ErrNotExist) {
		t.Skip("testdata/midifverb.bin not present")
	}
	require.NoError(t, err)
	defer inf.Close()

	rom, err := romio.ReadRom(inf)
	require.NoError(t, err)

	assert := assert.New(t)

	val := &Validator{Passes: optimizer.PASS_EXACT, First: 0, Last: isa.PROGRAMS - 1}
	reports, err := val.Validate(rom, func() iter.Seq[isa.Sample] { return Corpus(4096) })
	require.NoError(t, err)
	for _, report := range reports {
		assert.True(report.Ok(), report.String())
	}

	emu := NewEmulator(rom)
	require.NoError(t, emu.SetProgram(ECHO_PROGRAM))
	interpreted := slices.Collect(emu.Render(Impulse(2048, IMPULSE_LEVEL, 0)))
	assert.NotEqual(make([]isa.Sample, 2048), interpreted)

	require.NoError(t, emu.UseCompiled(optimizer.PASS_EXACT))
	compiled := slices.Collect(emu.Render(Impulse(2048, IMPULSE_LEVEL, 0)))
	assert.Equal(interpreted, compiled)
}
