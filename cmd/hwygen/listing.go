package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/asmfmt"

	"github.com/KurtBoehm/grex-sub000/hwy"
	"github.com/KurtBoehm/grex-sub000/hwy/permute"
)

// emitListing writes the programs of one target as a Plan 9 style
// instruction listing. It is for reading, not assembling: operands name
// program values, and tables appear as numbered constants.
func (g *Generator) emitListing(target Target, lowerings []*permute.Lowering) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by hwygen. DO NOT EDIT.\n\n")
	for i, r := range g.Requests {
		writeListing(&buf, exportedName(r.Name)+target.Suffix(), target, lowerings[i])
	}
	out, err := asmfmt.Format(&buf)
	if err != nil {
		return fmt.Errorf("format listing for %s: %w", target.Name, err)
	}
	filename := filepath.Join(g.OutputDir, g.prefix()+target.FileSuffix()+".lst")
	if err := os.WriteFile(filename, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(filename), err)
	}
	return nil
}

func writeListing(buf *bytes.Buffer, name string, target Target, low *permute.Lowering) {
	prog := low.Program
	sizes := prog.Inputs()
	for _, s := range prog.Steps() {
		sizes = append(sizes, s.Size)
	}
	reg := func(v permute.Value) string { return target.regName(int(v), sizes[v]) }

	fmt.Fprintf(buf, "// %v on %s, cost %v\n", low.Layout, target.Name, low.Cost())
	fmt.Fprintf(buf, "TEXT ·%s(SB), NOSPLIT, $0\n", name)
	nin := len(prog.Inputs())
	live := liveSteps(prog)
	consts := 0
	for i, s := range prog.Steps() {
		if !live[i] {
			continue
		}
		// Plan 9 operand order: immediate, sources last to first, destination.
		var ops []string
		switch s.Op {
		case hwy.OpShuffle32, hwy.OpAlignBytes, hwy.OpShiftBytesUp, hwy.OpShiftBytesDown:
			ops = append(ops, fmt.Sprintf("$%d", s.Imm))
		case hwy.OpBlend, hwy.OpMaskConst:
			ops = append(ops, fmt.Sprintf("$%#x", s.Bits))
		case hwy.OpConst, hwy.OpTableBytes, hwy.OpPermuteLanes, hwy.OpPermute2, hwy.OpBlockPermute:
			ops = append(ops, fmt.Sprintf("K%d<>(SB)", consts))
			consts++
		case hwy.OpCopyLane:
			ops = append(ops, fmt.Sprintf("$%d", s.Lane))
		}
		args := slices.Clone(s.Args)
		slices.Reverse(args)
		for _, a := range args {
			ops = append(ops, reg(a))
		}
		ops = append(ops, reg(permute.Value(nin+i)))
		fmt.Fprintf(buf, "\t%s %s\n", target.Mnemonic(s.Op), strings.Join(ops, ", "))
	}
	fmt.Fprintf(buf, "\tRET\n\n")
}
