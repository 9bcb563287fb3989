// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":       "0",
	"SLOT":         "0",
	"SLOTS":        fmt.Sprintf("%#v", SLOTS),
	"MEMORY_SIZE":  fmt.Sprintf("%#v", MEMORY_SIZE),
	"ADDRESS_MASK": fmt.Sprintf("%#v", ADDRESS_MASK),
	"SLOT_RIGHT":   fmt.Sprintf("%#v", SLOT_RIGHT),
	"SLOT_LEFT":    fmt.Sprintf("%#v", SLOT_LEFT),
}

var (
	reParen = regexp.MustCompile(`\$\([^\$]*\)`)
)

// Assembler is a single pass macro assembler for one microcode program.
//
// Each line holds one instruction, a hardware mnemonic followed by its
// address delta:
//
//	sumhalf 0x0010   ; acc += mem/2
//	ldhalf  -3       ; acc = mem/2, negative deltas wrap
//	strpos  $(D+1)   ; mem = acc, acc += acc/2
//	strneg  0        ; mem = ~acc, acc = ~acc/2
//
// Directives:
//
//	.equ NAME VALUE          define an equate
//	.macro NAME ARG...       begin a macro, ended by .endm
//	.fill COUNT OP DELTA     repeat an instruction
//	.loop OP                 emit the instruction whose delta closes the pass
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	Slots []Instruction // Instructions assembled so far.

	predefine map[string]string   // Predefines
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word as an address delta.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = uint16(v64) & ADDRESS_MASK

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, perr := strconv.ParseInt(str, 0, 32)
		if perr != nil {
			// Opcode names and other words are not expression values.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// residue is the address advance of the instructions so far.
func (asm *Assembler) residue() (sum uint16) {
	for _, in := range asm.Slots {
		sum += in.Delta()
	}
	sum &= ADDRESS_MASK
	return
}

// emit appends an instruction.
func (asm *Assembler) emit(op Opcode, delta uint16) (err error) {
	if len(asm.Slots) >= SLOTS {
		err = ErrProgramFull
		return
	}

	in := MakeInstruction(op, delta)
	if asm.Verbose {
		log.Printf("isa: slot 0x%02x %v", len(asm.Slots), in)
	}
	asm.Slots = append(asm.Slots, in)
	return
}

// opcodeOf returns the hardware opcode for a mnemonic.
func opcodeOf(word string) (op Opcode, err error) {
	op, ok := ParseOpcode(strings.ToLower(word))
	if !ok || !op.Hardware() {
		err = ErrOpcodeInvalid
	}
	return
}

// parseWords assembles a line of already expanded words.
func (asm *Assembler) parseWords(words []string) (err error) {
	if len(words) == 0 {
		return
	}

	switch words[0] {
	case ".fill":
		if len(words) != 4 {
			err = ErrFillSyntax
			return
		}
		var count uint16
		count, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		var op Opcode
		op, err = opcodeOf(words[2])
		if err != nil {
			return
		}
		var delta uint16
		delta, err = asm.valueOf(words[3])
		if err != nil {
			return
		}
		for range count {
			err = asm.emit(op, delta)
			if err != nil {
				return
			}
		}
		return
	case ".loop":
		if len(words) != 2 {
			err = ErrLoopSyntax
			return
		}
		var op Opcode
		op, err = opcodeOf(words[1])
		if err != nil {
			return
		}
		err = asm.emit(op, (ADDRESS_STEP-asm.residue())&ADDRESS_MASK)
		return
	}

	op, err := opcodeOf(words[0])
	if err != nil {
		return
	}

	switch len(words) {
	case 1:
		err = ErrOpcodeValueMissing
		return
	case 2:
	default:
		err = ErrOpcodeExtraArgs
		return
	}

	delta, err := asm.valueOf(words[1])
	if err != nil {
		return
	}

	err = asm.emit(op, delta)

	return
}

// parseLine expands a single line into words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)
	asm.Equate["SLOT"] = fmt.Sprintf("%v", len(asm.Slots))

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			words, err = asm.parseLine(line, lineno)
			if err == nil {
				err = asm.parseWords(words)
			}
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
// The address sum is not checked; see Program.Check.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Slots = asm.Slots[:0]
	asm.Macro = make(map[string](*Macro))
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("isa: %v: %v", lineno, text)
		}

		line, _, _ = strings.Cut(text, ";")
		line = strings.TrimSpace(line)
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
				Args:   words[2:],
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	if len(asm.Slots) != SLOTS {
		err = ErrSlotCount(len(asm.Slots))
		return
	}

	prog = &Program{}
	copy(prog[:], asm.Slots)

	return
}
