package compiler

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"io"
)

// ISA_IMPORT is the import path of the isa package used by generated code.
const ISA_IMPORT = "github.com/ezrec/midiverb/isa"

// writeUnit writes the Go function of one unit.
func writeUnit(buf *bytes.Buffer, unit *Unit) {
	res := &unit.Result
	fmt.Fprintf(buf, "// prog%02d: passes %v, rounding %v.\n", unit.Program, res.Passes, unit.Rounding)
	for _, diag := range res.Diagnostics {
		fmt.Fprintf(buf, "// Warning: %v\n", diag)
	}
	fmt.Fprintf(buf, "func prog%02d(s *isa.State, in int16, outr, outl *int16) {\n", unit.Program)
	for _, line := range unit.Lines() {
		fmt.Fprintf(buf, "// 0x%02x: %v\n", line.Index, line.Slot)
		for _, stmt := range line.Statements {
			fmt.Fprintf(buf, "%s\n", stmt)
		}
	}
	fmt.Fprintf(buf, "}\n\n")
}

// Generate writes the compiled programs of a table as a Go source file of
// package pkg. The file holds one function per compiled program and the
// Programs dispatch table, whose other entries are nil.
func Generate(w io.Writer, table *Table, pkg string) (err error) {
	if !token.IsIdentifier(pkg) {
		err = ErrPackageName
		return
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by midiverb compile. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	fmt.Fprintf(&buf, "import %q\n\n", ISA_IMPORT)

	for _, unit := range table {
		if unit != nil {
			writeUnit(&buf, unit)
		}
	}

	fmt.Fprintf(&buf, "// Programs dispatches by program number.\n")
	fmt.Fprintf(&buf, "var Programs = [isa.PROGRAMS]func(s *isa.State, in int16, outr, outl *int16){\n")
	for program, unit := range table {
		if unit != nil {
			fmt.Fprintf(&buf, "%d: prog%02d,\n", program, program)
		}
	}
	fmt.Fprintf(&buf, "}\n")

	source, err := format.Source(buf.Bytes())
	if err != nil {
		return
	}

	_, err = w.Write(source)
	return
}
