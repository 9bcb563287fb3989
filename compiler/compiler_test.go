package compiler

import (
	"bytes"
	"errors"
	"go/parser"
	"go/token"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/midiverb/cpu"
	"github.com/ezrec/midiverb/internal/testprog"
	"github.com/ezrec/midiverb/isa"
	"github.com/ezrec/midiverb/optimizer"
)

type processor interface {
	Process(in isa.Sample) isa.Sample
}

func render(proc processor, input []isa.Sample) (output []isa.Sample) {
	for _, in := range input {
		output = append(output, proc.Process(in))
	}
	return
}

func noise(rng *rand.Rand, count int) (input []isa.Sample) {
	for range count {
		input = append(input, isa.Sample{int16(rng.Int()), int16(rng.Int())})
	}
	return
}

func impulse(count int, left, right int16) (input []isa.Sample) {
	input = make([]isa.Sample, count)
	input[0] = isa.Sample{left, right}
	return
}

// reference renders a program on the interpreter.
func reference(rom *isa.Rom, program int, input []isa.Sample) []isa.Sample {
	ref := cpu.NewCpu(rom)
	err := ref.SetProgram(program)
	if err != nil {
		panic(err)
	}
	return render(ref, input)
}

func TestCompileOracle(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(5))
	rom := testprog.RandomRom(rng)
	rom[21] = *testprog.MustAssemble(testprog.Echo)

	inputs := [][]isa.Sample{
		make([]isa.Sample, 64),
		impulse(300, 8192, 0),
		impulse(300, -32768, 32767),
		noise(rng, 300),
	}

	for _, passes := range []optimizer.Pass{optimizer.PASS_NONE, optimizer.PASS_EXACT} {
		comp := &Compiler{Passes: passes, First: 0, Last: isa.PROGRAMS - 1}
		table, err := comp.Compile(rom)
		if !assert.NoError(err) {
			return
		}

		for program := range isa.PROGRAMS {
			unit, err := table.Lookup(program)
			if !assert.NoError(err) {
				continue
			}
			for _, input := range inputs {
				engine := NewEngine(unit)
				assert.Equal(reference(rom, program, input), render(engine, input),
					"prog%02d %v", program, passes)
			}
		}
	}
}

func TestCompileEcho(t *testing.T) {
	assert := assert.New(t)

	rom := &isa.Rom{}
	rom[21] = *testprog.MustAssemble(testprog.Echo)
	input := impulse(2048, 8192, 0)
	expected := reference(rom, 21, input)

	for n, out := range expected {
		var right, left int16
		if n%testprog.ECHO_DELAY == 0 {
			echo := n / testprog.ECHO_DELAY
			right = 2048 >> echo
			if echo > 0 {
				left = 2048 >> (echo - 1)
			}
		}
		assert.Equal(isa.Sample{left, right}, out, "sample %d", n)
	}

	// Echo clusters never grow louder.
	var peaks []int16
	for start := 0; start < len(expected); start += testprog.ECHO_DELAY {
		var peak int16
		for _, out := range expected[start:min(start+testprog.ECHO_DELAY, len(expected))] {
			for _, value := range out {
				peak = max(peak, value, -value)
			}
		}
		peaks = append(peaks, peak)
	}
	assert.Equal(2048/testprog.ECHO_DELAY, len(peaks))
	assert.Greater(peaks[0], int16(0))
	for n := 1; n < len(peaks); n++ {
		assert.LessOrEqual(peaks[n], peaks[n-1], "cluster %d", n)
	}

	for _, passes := range []optimizer.Pass{optimizer.PASS_EXACT, optimizer.PASS_ALL} {
		comp := &Compiler{Passes: passes, First: 21, Last: 21}
		table, err := comp.Compile(rom)
		if !assert.NoError(err) {
			return
		}
		unit, err := table.Lookup(21)
		if !assert.NoError(err) {
			return
		}
		// Positive values halve the same under both rounding models.
		assert.Equal(expected, render(NewEngine(unit), input), "%v", passes)
	}
}

func TestEmit(t *testing.T) {
	assert := assert.New(t)

	opt := &optimizer.Optimizer{Passes: optimizer.PASS_EXACT}
	unit := Emit(21, opt.Optimize(testprog.MustAssemble(testprog.Echo)))

	assert.Equal(21, unit.Program)
	assert.Equal(isa.ROUNDING_HARDWARE, unit.Rounding)
	assert.Equal(Stats{Steps: 4, Folded: isa.SLOTS - 4, Nulls: 0}, unit.Stats)

	lines := unit.Lines()
	assert.Equal(4, len(lines))
	assert.Equal([]int{0, 1, 2, isa.SLOT_LEFT},
		[]int{lines[0].Index, lines[1].Index, lines[2].Index, lines[3].Index})

	assert.Equal([]string{
		"s.Memory[s.Addr] = in",
		"s.Acc = isa.RoundHalf(in)",
		"s.Advance(0x0f00)",
	}, lines[0].Statements)
	assert.Equal([]string{
		"s.Acc += isa.RoundHalf(s.Memory[s.Addr])",
		"s.Advance(0x0100)",
	}, lines[1].Statements)
	assert.Equal([]string{
		"*outr = isa.Saturate(s.Acc)",
		"s.Memory[s.Addr] = s.Acc",
		"s.Advance(0x3f00)",
	}, lines[2].Statements)
	assert.Equal([]string{
		"*outl = isa.Saturate(s.Memory[s.Addr])",
		"s.Advance(0x3101)",
	}, lines[3].Statements)
}

func TestStatementsFast(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		slot  isa.Slot
		lines []string
	}{
		{isa.Slot{Op: isa.OP_STORE_NEGATIVE, Delta: 2, Output: isa.CHANNEL_NONE},
			[]string{"s.Memory[s.Addr] = -s.Acc", "s.Acc = -s.Acc >> 1", "s.Advance(0x0002)"}},
		{isa.Slot{Op: isa.OP_UNITY_ADD, Output: isa.CHANNEL_NONE},
			[]string{"s.Acc += s.Memory[s.Addr]"}},
		{isa.Slot{Op: isa.OP_UPDATE_POSITIVE, Output: isa.CHANNEL_RIGHT},
			[]string{"*outr = isa.Saturate(s.Acc)", "s.Acc += s.Acc >> 1"}},
		{isa.Slot{Op: isa.OP_NOP, Delta: 1, Output: isa.CHANNEL_LEFT},
			[]string{"*outl = isa.Saturate(s.Memory[s.Addr])", "s.Advance(0x0001)"}},
	}

	for _, entry := range table {
		assert.Equal(entry.lines, statements(5, entry.slot, isa.ROUNDING_FAST), "%v", entry.slot)
	}
}

// Every opcode step matches the canonical executor.
func TestEmitStep(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(6))
	for op := isa.OP_ACCUMULATE; op <= isa.OP_NOP; op++ {
		for _, r := range []isa.Rounding{isa.ROUNDING_HARDWARE, isa.ROUNDING_FAST} {
			for _, output := range []isa.Channel{isa.CHANNEL_NONE, isa.CHANNEL_RIGHT} {
				sl := isa.Slot{Op: op, Delta: uint16(rng.Intn(isa.MEMORY_SIZE)), Output: output}
				for _, index := range []int{isa.SLOT_INPUT, 7} {
					var a isa.State
					a.Acc = int16(rng.Int())
					a.Addr = uint16(rng.Intn(isa.MEMORY_SIZE))
					for n := range 4 {
						a.Memory[(int(a.Addr)+n)&isa.ADDRESS_MASK] = int16(rng.Int())
					}
					b := a
					in := int16(rng.Int())

					var outA, outB isa.Sample
					sl.Exec(&a, index, in, &outA, r)
					emitStep(index, sl, r)(&b, in, &outB)
					assert.Equal(a, b, "%v %v %d", sl, r, index)
					assert.Equal(outA, outB, "%v %v %d", sl, r, index)
				}
			}
		}
	}
}

func TestFastRounding(t *testing.T) {
	assert := assert.New(t)

	rom := &isa.Rom{}
	rom[21] = *testprog.MustAssemble(testprog.Echo)

	comp := &Compiler{Passes: optimizer.PASS_ALL, First: 21, Last: 21}
	table, err := comp.Compile(rom)
	assert.NoError(err)

	unit, err := table.Lookup(21)
	assert.NoError(err)
	assert.Equal(isa.ROUNDING_FAST, unit.Rounding)

	input := impulse(2*testprog.ECHO_DELAY, -8192-16, 0)
	assert.NotEqual(reference(rom, 21, input), render(NewEngine(unit), input))
}

func TestTapSeesInput(t *testing.T) {
	assert := assert.New(t)

	// Both taps read the cell slot 0 wrote on the same sample.
	source := strings.Join([]string{
		"ldhalf 0",
		".fill $(SLOT_RIGHT - SLOT) ldhalf 0",
		"ldhalf 0          ; right tap",
		".fill $(SLOT_LEFT - SLOT) ldhalf 0",
		"ldhalf 0          ; left tap",
		".fill $(SLOTS - 1 - SLOT) ldhalf 0",
		".loop ldhalf",
	}, "\n")
	rom := &isa.Rom{}
	rom[3] = *testprog.MustAssemble(source)

	input := []isa.Sample{{1600, 1600}, {-1600, -1600}, {0, 0}}
	expected := reference(rom, 3, input)
	assert.Equal(isa.Sample{200 << 3, 200 << 3}, expected[0])

	for _, passes := range []optimizer.Pass{optimizer.PASS_NONE, optimizer.PASS_EXACT} {
		comp := &Compiler{Passes: passes, First: 3, Last: 3}
		table, err := comp.Compile(rom)
		assert.NoError(err)
		assert.Equal(expected, render(NewEngine(table[3]), input), "%v", passes)
	}
}

func TestIdempotence(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(7))
	input := noise(rng, 200)
	opt := &optimizer.Optimizer{Passes: optimizer.PASS_EXACT}

	for program := range 10 {
		prog := testprog.Random(rng)
		first := Emit(program, opt.Optimize(prog))
		second := Emit(program, opt.OptimizeMicrocode(first.Result.Microcode))
		assert.Equal(render(NewEngine(first), input), render(NewEngine(second), input))
	}
}

func TestTable(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(8))
	rom := testprog.RandomRom(rng)

	bad := []Compiler{
		{First: -1, Last: 3},
		{First: 3, Last: isa.PROGRAMS},
		{First: 5, Last: 4},
	}
	for _, comp := range bad {
		_, err := comp.Compile(rom)
		assert.ErrorIs(err, ErrRange)
	}

	comp := &Compiler{Passes: optimizer.PASS_EXACT, First: 5, Last: 7}
	table, err := comp.Compile(rom)
	assert.NoError(err)

	for program := -1; program <= isa.PROGRAMS; program++ {
		unit, err := table.Lookup(program)
		if program >= 5 && program <= 7 {
			assert.NoError(err)
			assert.Equal(program, unit.Program)
			continue
		}
		assert.Nil(unit)
		var missing ErrProgramMissing
		assert.True(errors.As(err, &missing))
		assert.Equal(ErrProgramMissing(program), missing)
	}

	var engine Engine
	assert.Equal(isa.Sample{}, engine.Process(isa.Sample{1000, 1000}))
}

func TestGenerate(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(9))
	rom := testprog.RandomRom(rng)
	rom[21] = *testprog.MustAssemble(testprog.Echo)

	for _, passes := range []optimizer.Pass{optimizer.PASS_NONE, optimizer.PASS_ALL} {
		comp := &Compiler{Passes: passes, First: 19, Last: 21}
		table, err := comp.Compile(rom)
		assert.NoError(err)

		var buf bytes.Buffer
		err = Generate(&buf, table, "reverb")
		if !assert.NoError(err) {
			continue
		}

		source := buf.String()
		assert.True(strings.HasPrefix(source, "// Code generated by midiverb compile. DO NOT EDIT.\n"))
		assert.Contains(source, "func prog21(s *isa.State, in int16, outr, outl *int16) {")
		assert.Contains(source, "21: prog21,")
		assert.NotContains(source, "prog18")

		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, "reverb.go", source, parser.ParseComments)
		if assert.NoError(err) {
			assert.Equal("reverb", file.Name.Name)
			if assert.Equal(1, len(file.Imports)) {
				assert.Equal(`"`+ISA_IMPORT+`"`, file.Imports[0].Path.Value)
			}
			// Three functions and the dispatch table.
			assert.Equal(4, len(file.Decls)-1)
		}
	}

	err := Generate(&bytes.Buffer{}, &Table{}, "not a package")
	assert.ErrorIs(err, ErrPackageName)
}

func FuzzCompile(f *testing.F) {
	for seed := range int64(8) {
		f.Add(seed, uint8(optimizer.PASS_EXACT))
		f.Add(seed, uint8(optimizer.PASS_TAPS))
	}

	f.Fuzz(func(t *testing.T, seed int64, passes uint8) {
		assert := assert.New(t)

		rng := rand.New(rand.NewSource(seed))
		rom := &isa.Rom{}
		rom[0] = *testprog.Random(rng)
		input := noise(rng, 64)

		comp := &Compiler{Passes: optimizer.Pass(passes) & optimizer.PASS_EXACT}
		table, err := comp.Compile(rom)
		if !assert.NoError(err) {
			return
		}

		assert.Equal(reference(rom, 0, input), render(NewEngine(table[0]), input), "seed %d", seed)
	})
}
