// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/imports"

	"github.com/KurtBoehm/grex-sub000/hwy"
	"github.com/KurtBoehm/grex-sub000/hwy/permute"
)

const hwyImport = "github.com/KurtBoehm/grex-sub000/hwy"

// Generator resolves a set of requests on every target and writes one Go
// file per target, a dispatcher selecting among them at init time, and
// optionally an instruction listing per target.
type Generator struct {
	OutputDir    string    // Output directory
	OutputPrefix string    // Output file prefix (defaults to the first request name)
	PackageOut   string    // Output package name
	Targets      []Target  // Targets to generate; the fallback is always added
	Requests     []Request // Operations to generate
	Listing      bool      // Also write a Plan 9 style listing per target
	Verbose      bool      // Report chosen strategies while generating
	Log          io.Writer // Destination of verbose output and warnings

	mu sync.Mutex // guards Log
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// exportedName returns the identifier a request is generated under.
func exportedName(name string) string {
	return strings.ReplaceAll(titleCaser.String(strings.ReplaceAll(name, "_", " ")), " ", "")
}

func unexportedName(name string) string {
	n := exportedName(name)
	return strings.ToLower(n[:1]) + n[1:]
}

func (g *Generator) logf(format string, args ...any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Log != nil {
		fmt.Fprintf(g.Log, format, args...)
	}
}

// targets returns the configured targets with the fallback appended when
// missing; the dispatcher's default case needs it.
func (g *Generator) targets() []Target {
	ts := slices.Clone(g.Targets)
	if !slices.ContainsFunc(ts, func(t Target) bool { return t.Level == hwy.DispatchScalar }) {
		ts = append(ts, FallbackTarget())
	}
	return ts
}

func (g *Generator) prefix() string {
	if g.OutputPrefix != "" {
		return g.OutputPrefix
	}
	return strings.ToLower(g.Requests[0].Name)
}

// Run resolves every request on every target and writes the output files.
func (g *Generator) Run(ctx context.Context) error {
	if len(g.Requests) == 0 {
		return fmt.Errorf("no operations requested")
	}
	if g.PackageOut == "" {
		return fmt.Errorf("output package name is required")
	}
	seen := make(map[string]bool)
	for _, r := range g.Requests {
		name := exportedName(r.Name)
		if seen[name] {
			return fmt.Errorf("duplicate operation name %s", name)
		}
		seen[name] = true
	}
	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	targets := g.targets()
	eg, ctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		eg.Go(func() error {
			lowerings := make([]*permute.Lowering, len(g.Requests))
			for i, r := range g.Requests {
				if err := ctx.Err(); err != nil {
					return err
				}
				low, err := r.Resolve(target.Capabilities())
				if err != nil {
					return err
				}
				if g.Verbose {
					g.logf("%s %s: %v, %d steps, choices %v\n", target.Name, r.Name, low.Cost(), len(low.Program.Steps()), low.Choices)
				}
				lowerings[i] = low
			}
			if err := g.emitTarget(target, lowerings); err != nil {
				return err
			}
			if g.Listing {
				return g.emitListing(target, lowerings)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return g.emitDispatcher(targets)
}

func (g *Generator) writeGo(filename string, src []byte) error {
	formatted, err := imports.Process(filename, src, nil)
	if err != nil {
		g.logf("Warning: formatting %s failed: %v\n", filename, err)
		formatted = src
	}
	if err := os.WriteFile(filename, formatted, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(filename), err)
	}
	return nil
}

func (g *Generator) header(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "// Code generated by hwygen. DO NOT EDIT.\n\n")
	fmt.Fprintf(buf, "package %s\n\n", g.PackageOut)
}

// emitTarget writes the implementations of all requests for one target.
func (g *Generator) emitTarget(target Target, lowerings []*permute.Lowering) error {
	var buf bytes.Buffer
	g.header(&buf)
	fmt.Fprintf(&buf, "import %q\n\n", hwyImport)
	for i, r := range g.Requests {
		emitImpl(&buf, r, target, lowerings[i])
	}
	filename := filepath.Join(g.OutputDir, g.prefix()+target.FileSuffix()+".gen.go")
	return g.writeGo(filename, buf.Bytes())
}

// emitImpl writes one function running the program of low, with its
// tables hoisted into package variables.
func emitImpl(buf *bytes.Buffer, r Request, target Target, low *permute.Lowering) {
	prog := low.Program
	name := exportedName(r.Name) + target.Suffix()
	hoist := unexportedName(r.Name) + target.Suffix()
	nin := len(prog.Inputs())
	steps := prog.Steps()
	live := liveSteps(prog)

	ref := func(v permute.Value) string {
		if int(v) < nin {
			return fmt.Sprintf("in[%d]", int(v))
		}
		return v.String()
	}

	var consts []string
	constant := func(lit string) string {
		id := fmt.Sprintf("%sK%d", hoist, len(consts))
		consts = append(consts, fmt.Sprintf("%s = %s", id, lit))
		return id
	}

	var body bytes.Buffer
	for i, s := range steps {
		if !live[i] {
			continue
		}
		dst := permute.Value(nin + i)
		fmt.Fprintf(&body, "\t%s := %s\n", dst, stepExpr(s, ref, constant))
	}

	if len(consts) > 0 {
		fmt.Fprintf(buf, "var (\n")
		for _, c := range consts {
			fmt.Fprintf(buf, "\t%s\n", c)
		}
		fmt.Fprintf(buf, ")\n\n")
	}
	fmt.Fprintf(buf, "// %s performs %s %s on %v for %s.\n", name, r.Family, r.Pattern, low.Layout, target.Name)
	fmt.Fprintf(buf, "// Cost %v, choices:\n", low.Cost())
	for _, c := range low.Choices {
		fmt.Fprintf(buf, "//\t%v\n", c)
	}
	fmt.Fprintf(buf, "func %s(in []hwy.Reg) []hwy.Reg {\n", name)
	buf.Write(body.Bytes())
	outs := lo.Map(prog.Outputs(), func(v permute.Value, _ int) string { return ref(v) })
	fmt.Fprintf(buf, "\treturn []hwy.Reg{%s}\n}\n\n", strings.Join(outs, ", "))
}

// liveSteps marks the steps an output depends on.
func liveSteps(prog *permute.Program) []bool {
	nin := len(prog.Inputs())
	steps := prog.Steps()
	live := make([]bool, len(steps))
	for _, o := range prog.Outputs() {
		if int(o) >= nin {
			live[int(o)-nin] = true
		}
	}
	for i := len(steps) - 1; i >= 0; i-- {
		if !live[i] {
			continue
		}
		for _, a := range steps[i].Args {
			if int(a) >= nin {
				live[int(a)-nin] = true
			}
		}
	}
	return live
}

// stepExpr renders the hwy call computing s. Tables and index lists are
// passed to constant, which returns the name they are hoisted under.
func stepExpr(s permute.Step, ref func(permute.Value) string, constant func(string) string) string {
	arg := func(i int) string { return ref(s.Args[i]) }
	switch s.Op {
	case hwy.OpZero:
		return fmt.Sprintf("hwy.NewReg(%d)", s.Size)
	case hwy.OpConst:
		return constant(fmt.Sprintf("hwy.RegFromBytes(%s)", bytesLit(s.Table)))
	case hwy.OpMaskConst:
		return fmt.Sprintf("hwy.NewReg(8).WithLane(8, 0, %#x)", s.Bits)
	case hwy.OpAnd, hwy.OpOr, hwy.OpXor, hwy.OpAndNot:
		return fmt.Sprintf("%s.%s(%s)", arg(0), s.Op, arg(1))
	case hwy.OpCopyLane:
		return fmt.Sprintf("%s.CopyLane(%s, %d, %d, %d)", arg(0), arg(1), s.Elem, s.Imm, s.Lane)
	case hwy.OpTableBytes:
		return fmt.Sprintf("%s.TableBytes(%s)", arg(0), constant(bytesLit(s.Table)))
	case hwy.OpShuffle32:
		return fmt.Sprintf("%s.Shuffle32(%#02x)", arg(0), s.Imm)
	case hwy.OpPermuteLanes:
		return fmt.Sprintf("%s.PermuteLanes(%d, %s)", arg(0), s.Elem, constant(intsLit(s.Indices)))
	case hwy.OpPermute2:
		return fmt.Sprintf("hwy.Permute2(%s, %s, %d, %s)", arg(0), arg(1), s.Elem, constant(intsLit(s.Indices)))
	case hwy.OpBlend:
		return fmt.Sprintf("hwy.Blend(%s, %s, %d, %#x)", arg(0), arg(1), s.Elem, s.Bits)
	case hwy.OpBlendVar:
		return fmt.Sprintf("hwy.BlendVar(%s, %s, %s, %d, %t)", arg(0), arg(1), arg(2), s.Elem, s.Compact)
	case hwy.OpZeroMasked:
		return fmt.Sprintf("hwy.ZeroMasked(%s, %s, %d)", arg(0), arg(1), s.Elem)
	case hwy.OpAlignBytes:
		return fmt.Sprintf("hwy.AlignBytes(%s, %s, %d)", arg(0), arg(1), s.Imm)
	case hwy.OpShiftBytesUp, hwy.OpShiftBytesDown:
		return fmt.Sprintf("%s.%s(%d)", arg(0), s.Op, s.Imm)
	case hwy.OpLowerHalf, hwy.OpUpperHalf:
		return fmt.Sprintf("%s.%s()", arg(0), s.Op)
	case hwy.OpBlockPermute:
		return fmt.Sprintf("%s.BlockPermute(%s)", arg(0), constant(intsLit(s.Indices)))
	case hwy.OpInterleaveLower, hwy.OpInterleaveUpper:
		return fmt.Sprintf("hwy.%s(%s, %s, %d)", s.Op, arg(0), arg(1), s.Elem)
	case hwy.OpCombine:
		return fmt.Sprintf("hwy.Combine(%s, %s)", arg(0), arg(1))
	default:
		panic(fmt.Sprintf("hwygen: no Go form for %v", s.Op))
	}
}

func bytesLit(b []byte) string {
	return "[]byte{" + strings.Join(lo.Map(b, func(x byte, _ int) string { return fmt.Sprintf("%#02x", x) }), ", ") + "}"
}

func intsLit(xs []int) string {
	return "[]int{" + strings.Join(lo.Map(xs, func(x int, _ int) string { return fmt.Sprint(x) }), ", ") + "}"
}

var levelIdents = map[hwy.DispatchLevel]string{
	hwy.DispatchScalar: "hwy.DispatchScalar",
	hwy.DispatchSSE2:   "hwy.DispatchSSE2",
	hwy.DispatchSSE4:   "hwy.DispatchSSE4",
	hwy.DispatchAVX2:   "hwy.DispatchAVX2",
	hwy.DispatchAVX512: "hwy.DispatchAVX512",
	hwy.DispatchNEON:   "hwy.DispatchNEON",
}

// emitDispatcher writes the typed entry points and the init function that
// binds them to the implementation for the current level.
func (g *Generator) emitDispatcher(targets []Target) error {
	var buf bytes.Buffer
	g.header(&buf)
	fmt.Fprintf(&buf, "import (\n\t\"slices\"\n\n\t%q\n)\n\n", hwyImport)

	fmt.Fprintf(&buf, "var (\n")
	for _, r := range g.Requests {
		un := unexportedName(r.Name)
		fmt.Fprintf(&buf, "\t%sImpl func([]hwy.Reg) []hwy.Reg\n", un)
		fmt.Fprintf(&buf, "\t%sTag hwy.Tag[%s]\n", un, r.Elem)
	}
	fmt.Fprintf(&buf, ")\n\n")

	for _, r := range g.Requests {
		name, un, elem := exportedName(r.Name), unexportedName(r.Name), r.Elem.String()
		params := lo.Times(r.Sources(), func(i int) string { return fmt.Sprintf("v%d", i) })
		regs := lo.Map(params, func(p string, _ int) string { return p + ".Registers()" })
		fmt.Fprintf(&buf, "// %s performs %s %s on vectors of %d %s lanes.\n", name, r.Family, r.Pattern, r.Lanes, elem)
		fmt.Fprintf(&buf, "func %s(%s hwy.Vec[%s]) hwy.Vec[%s] {\n", name, strings.Join(params, ", "), elem, elem)
		if len(regs) == 1 {
			fmt.Fprintf(&buf, "\treturn hwy.FromRegisters(%sTag, %sImpl(%s))\n}\n\n", un, un, regs[0])
		} else {
			fmt.Fprintf(&buf, "\treturn hwy.FromRegisters(%sTag, %sImpl(slices.Concat(%s)))\n}\n\n", un, un, strings.Join(regs, ", "))
		}
		fmt.Fprintf(&buf, "// %sTag returns the tag of the vectors %s operates on.\n", name, name)
		fmt.Fprintf(&buf, "func %sTag() hwy.Tag[%s] {\n\treturn %sTag\n}\n\n", name, elem, un)
	}

	fmt.Fprintf(&buf, "func init() {\n\tswitch hwy.CurrentLevel() {\n")
	for _, t := range targets {
		if t.Level == hwy.DispatchScalar {
			continue
		}
		fmt.Fprintf(&buf, "\tcase %s:\n\t\tinit%s()\n", levelIdents[t.Level], t.Name)
	}
	fmt.Fprintf(&buf, "\tdefault:\n\t\tinitFallback()\n\t}\n}\n\n")

	for _, t := range targets {
		fmt.Fprintf(&buf, "func init%s() {\n", t.Name)
		for _, r := range g.Requests {
			un := unexportedName(r.Name)
			fmt.Fprintf(&buf, "\t%sImpl = %s%s\n", un, exportedName(r.Name), t.Suffix())
			fmt.Fprintf(&buf, "\t%sTag = hwy.MustTag[%s](hwy.MustTarget(%s), %d)\n", un, r.Elem, levelIdents[t.Level], r.Lanes)
		}
		fmt.Fprintf(&buf, "}\n\n")
	}

	filename := filepath.Join(g.OutputDir, g.prefix()+"_dispatch.gen.go")
	return g.writeGo(filename, buf.Bytes())
}
