package main

import (
	"bytes"
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/KurtBoehm/grex-sub000/hwy"
	"github.com/KurtBoehm/grex-sub000/hwy/pattern"
	"github.com/KurtBoehm/grex-sub000/hwy/permute"
)

func TestGetTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		want    hwy.DispatchLevel
		wantErr bool
	}{
		{"AVX2", "avx2", hwy.DispatchAVX2, false},
		{"AVX512", "AVX512", hwy.DispatchAVX512, false},
		{"NEON", "neon", hwy.DispatchNEON, false},
		{"Fallback", "fallback", hwy.DispatchScalar, false},
		{"Scalar", "scalar", hwy.DispatchScalar, false},
		{"Unknown", "unknown", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetTarget(tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetTarget(%q) error = %v, wantErr %v", tt.target, err, tt.wantErr)
			}
			if err == nil && got.Level != tt.want {
				t.Errorf("GetTarget(%q).Level = %v, want %v", tt.target, got.Level, tt.want)
			}
		})
	}
}

func TestParseTargets(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"avx2,fallback", []string{"AVX2", "Fallback"}, false},
		{" sse4 , neon ", []string{"SSE4", "NEON"}, false},
		{"avx2,avx2,scalar,fallback", []string{"AVX2", "Fallback"}, false},
		{"all", []string{"Fallback", "SSE2", "SSE4", "AVX2", "AVX512", "NEON"}, false},
		{"", nil, true},
		{"avx2,bogus", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTargets(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, lo.Map(got, func(t Target, _ int) string { return t.Name }))
		})
	}
}

func TestTargetNames(t *testing.T) {
	avx512 := AVX512Target()
	require.Equal(t, "_avx512", avx512.FileSuffix())
	require.Equal(t, "AVX512", avx512.Suffix())
	require.Equal(t, "VPERMT2", avx512.Mnemonic(hwy.OpPermute2))
	require.Equal(t, "VPSHUFB", avx512.Mnemonic(hwy.OpTableBytes), "inherited from AVX2")
	require.Equal(t, "SHUFFLE32", FallbackTarget().Mnemonic(hwy.OpShuffle32))

	require.Equal(t, "X3", avx512.regName(3, 16))
	require.Equal(t, "Y4", avx512.regName(4, 32))
	require.Equal(t, "Z5", avx512.regName(5, 64))
	require.Equal(t, "V1", NEONTarget().regName(1, 8))

	// Every target resolves to a capability table.
	for _, name := range AvailableTargets() {
		target, err := GetTarget(name)
		require.NoError(t, err)
		require.Equal(t, target.Level, target.Capabilities().Level)
	}
}

func TestParseOp(t *testing.T) {
	tests := []struct {
		in      string
		want    Request
		wantErr bool
	}{
		{"Rev:shuffle:3,2,1,0", Request{Name: "Rev", Family: permute.FamilyShuffle, Elem: hwy.Int32, Lanes: 4, Pattern: "3,2,1,0"}, false},
		{"Zip:shuffle2:0,4,1,5", Request{Name: "Zip", Family: permute.FamilyPair, Elem: hwy.Int32, Lanes: 4, Pattern: "0,4,1,5"}, false},
		{"Zip:pair:0,4,1,5", Request{Name: "Zip", Family: permute.FamilyPair, Elem: hwy.Int32, Lanes: 4, Pattern: "0,4,1,5"}, false},
		{"Sel:Blend:LRLR", Request{Name: "Sel", Family: permute.FamilyBlend, Elem: hwy.Int32, Lanes: 4, Pattern: "LRLR"}, false},
		{"Odd:zeroblend:zKzK", Request{Name: "Odd", Family: permute.FamilyZeroBlend, Elem: hwy.Int32, Lanes: 4, Pattern: "zKzK"}, false},
		{"Rev:shuffle", Request{}, true},
		{":shuffle:0,1,2,3", Request{}, true},
		{"Rev:rotate:0,1,2,3", Request{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOp(tt.in, hwy.Int32, 4)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRequestResolve(t *testing.T) {
	avx2 := hwy.MustTarget(hwy.DispatchAVX2)
	tests := []struct {
		name    string
		req     Request
		family  permute.Family
		sources int
	}{
		{"shuffle", Request{Name: "Rev", Family: permute.FamilyShuffle, Elem: hwy.Int32, Lanes: 8, Pattern: "7,6,5,4,3,2,1,0"}, permute.FamilyShuffle, 1},
		{"pair", Request{Name: "Zip", Family: permute.FamilyPair, Elem: hwy.Uint16, Lanes: 8, Pattern: "0,8,1,9,2,10,3,11"}, permute.FamilyPair, 2},
		{"blend", Request{Name: "Sel", Family: permute.FamilyBlend, Elem: hwy.Float64, Lanes: 8, Pattern: "LRLR_RRL"}, permute.FamilyBlend, 2},
		{"zeroblend", Request{Name: "Odd", Family: permute.FamilyZeroBlend, Elem: hwy.Int8, Lanes: 4, Pattern: "zKzK"}, permute.FamilyZeroBlend, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, err := tt.req.Resolve(avx2)
			require.NoError(t, err)
			require.Equal(t, tt.family, low.Family)
			require.Equal(t, tt.sources, low.Sources)
			require.Equal(t, tt.sources, tt.req.Sources())
			require.NotEmpty(t, low.Choices)
		})
	}

	errTests := []struct {
		name string
		req  Request
		want error
	}{
		{"syntax", Request{Name: "Bad", Family: permute.FamilyShuffle, Elem: hwy.Int32, Lanes: 4, Pattern: "0,1,q,3"}, pattern.ErrSyntax},
		{"length", Request{Name: "Bad", Family: permute.FamilyShuffle, Elem: hwy.Int32, Lanes: 4, Pattern: "0,1"}, permute.ErrPatternLength},
		{"range", Request{Name: "Bad", Family: permute.FamilyShuffle, Elem: hwy.Int32, Lanes: 4, Pattern: "0,1,2,4"}, permute.ErrIndexRange},
		{"lanes", Request{Name: "Bad", Family: permute.FamilyShuffle, Elem: hwy.Int32, Lanes: 3, Pattern: "0,1,2"}, hwy.ErrLaneCount},
		{"blend syntax", Request{Name: "Bad", Family: permute.FamilyBlend, Elem: hwy.Int32, Lanes: 4, Pattern: "LRQR"}, pattern.ErrSyntax},
		{"zeroblend syntax", Request{Name: "Bad", Family: permute.FamilyZeroBlend, Elem: hwy.Int32, Lanes: 4, Pattern: "KKQK"}, pattern.ErrSyntax},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Resolve(avx2)
			require.ErrorIs(t, err, tt.want)
			require.Contains(t, err.Error(), "Bad")
		})
	}
}

func TestExportedName(t *testing.T) {
	tests := []struct {
		in, exported, unexported string
	}{
		{"rev", "Rev", "rev"},
		{"Rev", "Rev", "rev"},
		{"zip_lower", "ZipLower", "zipLower"},
		{"reverseAll", "ReverseAll", "reverseAll"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.exported, exportedName(tt.in))
			require.Equal(t, tt.unexported, unexportedName(tt.in))
		})
	}
}

func TestStepExpr(t *testing.T) {
	// Two inputs, so v2 is the first step's result.
	ref := func(v permute.Value) string {
		if v < 2 {
			return "in[" + strconv.Itoa(int(v)) + "]"
		}
		return v.String()
	}
	tests := []struct {
		name      string
		step      permute.Step
		want      string
		wantHoist string
	}{
		{"zero", permute.Step{Op: hwy.OpZero, Size: 16}, "hwy.NewReg(16)", ""},
		{"and", permute.Step{Op: hwy.OpAnd, Args: []permute.Value{0, 1}}, "in[0].And(in[1])", ""},
		{"andnot", permute.Step{Op: hwy.OpAndNot, Args: []permute.Value{2, 1}}, "v2.AndNot(in[1])", ""},
		{"shuffle32", permute.Step{Op: hwy.OpShuffle32, Args: []permute.Value{0}, Imm: 0x1b}, "in[0].Shuffle32(0x1b)", ""},
		{"table", permute.Step{Op: hwy.OpTableBytes, Args: []permute.Value{1}, Table: []byte{1, 0x80}}, "in[1].TableBytes(K)", "[]byte{0x01, 0x80}"},
		{"permute", permute.Step{Op: hwy.OpPermuteLanes, Args: []permute.Value{0}, Elem: 4, Indices: []int{3, 2, 1, 0}}, "in[0].PermuteLanes(4, K)", "[]int{3, 2, 1, 0}"},
		{"permute2", permute.Step{Op: hwy.OpPermute2, Args: []permute.Value{0, 1}, Elem: 8, Indices: []int{0, 2}}, "hwy.Permute2(in[0], in[1], 8, K)", "[]int{0, 2}"},
		{"const", permute.Step{Op: hwy.OpConst, Table: []byte{0xff}}, "K", "hwy.RegFromBytes([]byte{0xff})"},
		{"mask", permute.Step{Op: hwy.OpMaskConst, Bits: 0b101}, "hwy.NewReg(8).WithLane(8, 0, 0x5)", ""},
		{"blend", permute.Step{Op: hwy.OpBlend, Args: []permute.Value{0, 1}, Elem: 2, Bits: 0xf0}, "hwy.Blend(in[0], in[1], 2, 0xf0)", ""},
		{"blendvar", permute.Step{Op: hwy.OpBlendVar, Args: []permute.Value{0, 1, 2}, Elem: 1, Compact: true}, "hwy.BlendVar(in[0], in[1], v2, 1, true)", ""},
		{"zeromasked", permute.Step{Op: hwy.OpZeroMasked, Args: []permute.Value{0, 2}, Elem: 4}, "hwy.ZeroMasked(in[0], v2, 4)", ""},
		{"align", permute.Step{Op: hwy.OpAlignBytes, Args: []permute.Value{1, 0}, Imm: 4}, "hwy.AlignBytes(in[1], in[0], 4)", ""},
		{"shift", permute.Step{Op: hwy.OpShiftBytesDown, Args: []permute.Value{0}, Imm: 8}, "in[0].ShiftBytesDown(8)", ""},
		{"blocks", permute.Step{Op: hwy.OpBlockPermute, Args: []permute.Value{0}, Indices: []int{1, -1}}, "in[0].BlockPermute(K)", "[]int{1, -1}"},
		{"interleave", permute.Step{Op: hwy.OpInterleaveUpper, Args: []permute.Value{2, 0}, Elem: 2}, "hwy.InterleaveUpper(v2, in[0], 2)", ""},
		{"combine", permute.Step{Op: hwy.OpCombine, Args: []permute.Value{0, 1}}, "hwy.Combine(in[0], in[1])", ""},
		{"upper", permute.Step{Op: hwy.OpUpperHalf, Args: []permute.Value{0}}, "in[0].UpperHalf()", ""},
		{"copylane", permute.Step{Op: hwy.OpCopyLane, Args: []permute.Value{2, 1}, Elem: 4, Imm: 3, Lane: 0}, "v2.CopyLane(in[1], 4, 3, 0)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hoisted string
			got := stepExpr(tt.step, ref, func(lit string) string {
				hoisted = lit
				return "K"
			})
			if got != tt.want {
				t.Errorf("stepExpr(%v) = %q, want %q", tt.step, got, tt.want)
			}
			if hoisted != tt.wantHoist {
				t.Errorf("stepExpr(%v) hoisted %q, want %q", tt.step, hoisted, tt.wantHoist)
			}
		})
	}
}

func seq(n int, f func(i int) string) string {
	return strings.Join(lo.Times(n, f), ",")
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	targets, err := ParseTargets("avx2,neon")
	require.NoError(t, err)
	var log bytes.Buffer
	g := &Generator{
		OutputDir:  dir,
		PackageOut: "rev",
		Targets:    targets,
		Requests: []Request{
			{Name: "rev", Family: permute.FamilyShuffle, Elem: hwy.Int32, Lanes: 16,
				Pattern: seq(16, func(i int) string { return strconv.Itoa(15 - i) })},
			{Name: "zip_lower", Family: permute.FamilyPair, Elem: hwy.Int32, Lanes: 16,
				Pattern: seq(16, func(i int) string { return strconv.Itoa(i/2 + i%2*16) })},
			{Name: "Odd", Family: permute.FamilyZeroBlend, Elem: hwy.Int32, Lanes: 16,
				Pattern: strings.Repeat("zK", 8)},
			{Name: "Sel", Family: permute.FamilyBlend, Elem: hwy.Float32, Lanes: 8,
				Pattern: "LLRRLRRL"},
		},
		Listing: true,
		Verbose: true,
		Log:     &log,
	}
	require.NoError(t, g.Run(context.Background()))
	require.Contains(t, log.String(), "AVX2 rev:")

	funcs := func(name string) map[string]*ast.FuncDecl {
		t.Helper()
		src, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(src, []byte("// Code generated by hwygen. DO NOT EDIT.")))
		f, err := parser.ParseFile(token.NewFileSet(), name, src, parser.ParseComments)
		require.NoError(t, err, "%s:\n%s", name, src)
		require.Equal(t, "rev", f.Name.Name)
		out := make(map[string]*ast.FuncDecl)
		for _, d := range f.Decls {
			if fd, ok := d.(*ast.FuncDecl); ok {
				out[fd.Name.Name] = fd
			}
		}
		return out
	}

	for _, target := range []string{"AVX2", "NEON", "Fallback"} {
		decls := funcs("rev_" + strings.ToLower(target) + ".gen.go")
		for _, op := range []string{"Rev", "ZipLower", "Odd", "Sel"} {
			fd, ok := decls[op+target]
			require.True(t, ok, "missing %s%s", op, target)
			require.NotNil(t, fd.Doc, "%s%s has no doc comment", op, target)
		}

		lst, err := os.ReadFile(filepath.Join(dir, "rev_"+strings.ToLower(target)+".lst"))
		require.NoError(t, err)
		require.Contains(t, string(lst), "TEXT ·Rev"+target+"(SB)")
		require.Contains(t, string(lst), "RET")
	}

	avx2, err := os.ReadFile(filepath.Join(dir, "rev_avx2.lst"))
	require.NoError(t, err)
	require.Contains(t, string(avx2), "VPERMD", "reversing 8 int32 lanes is a single lane permute")

	dispatch := funcs("rev_dispatch.gen.go")
	for _, name := range []string{"Rev", "RevTag", "ZipLower", "Odd", "Sel", "SelTag", "init", "initAVX2", "initNEON", "initFallback"} {
		require.Contains(t, dispatch, name)
	}
	require.Len(t, dispatch["ZipLower"].Type.Params.List[0].Names, 2, "pair ops take two vectors")
	require.Len(t, dispatch["Rev"].Type.Params.List[0].Names, 1)
}

func TestGenerateErrors(t *testing.T) {
	req := Request{Name: "Rev", Family: permute.FamilyShuffle, Elem: hwy.Int32, Lanes: 4, Pattern: "3,2,1,0"}
	tests := []struct {
		name string
		g    *Generator
	}{
		{"no requests", &Generator{PackageOut: "p"}},
		{"no package", &Generator{Requests: []Request{req}}},
		{"duplicate", &Generator{PackageOut: "p", Requests: []Request{req, {Name: "rev", Family: permute.FamilyShuffle, Elem: hwy.Int32, Lanes: 4, Pattern: "0,1,2,3"}}}},
		{"bad pattern", &Generator{PackageOut: "p", Requests: []Request{{Name: "Rev", Family: permute.FamilyShuffle, Elem: hwy.Int32, Lanes: 4, Pattern: "9,9,9,9"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.g.OutputDir = t.TempDir()
			require.Error(t, tt.g.Run(context.Background()))
		})
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, err := runCLI(t, "plan", "--target", "sse2", "--type", "int32", "--lanes", "4", "--name", "Swap", "--shuffle", "1,0,3,2", "-v")
	require.NoError(t, err)
	require.Contains(t, out, "Swap shuffle 1,0,3,2 on int32x4 [SSE2]")
	require.Contains(t, out, "shuffle:shuffle32")
	require.Contains(t, out, "Shuffle32 v0")

	out, err = runCLI(t, "plan", "--target", "avx2,neon", "--type", "uint8", "--lanes", "16",
		"--op", "Lo:zeroblend:"+strings.Repeat("K", 8)+strings.Repeat("z", 8),
		"--op", "Mix:blend:"+strings.Repeat("LR", 8))
	require.NoError(t, err)
	require.Contains(t, out, "Lo zeroblend")
	require.Contains(t, out, "[NEON]")

	_, err = runCLI(t, "plan", "--lanes", "4", "--shuffle", "0,1,2,3", "--blend", "LLLL")
	require.Error(t, err)
	_, err = runCLI(t, "plan", "--lanes", "4")
	require.Error(t, err)
	_, err = runCLI(t, "plan", "--lanes", "4", "--type", "complex64", "--shuffle", "0,1,2,3")
	require.Error(t, err)
}

func TestGenCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "gen", "-o", dir, "--pkg", "swap", "--targets", "sse4", "--type", "uint16", "--lanes", "8",
		"--name", "Swap", "--shuffle", "1,0,3,2,5,4,7,6")
	require.NoError(t, err)
	for _, name := range []string{"swap_sse4.gen.go", "swap_fallback.gen.go", "swap_dispatch.gen.go"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(dir, "swap_sse4.lst"))
	require.True(t, os.IsNotExist(err), "listings are opt-in")

	_, err = runCLI(t, "gen", "-o", dir, "--type", "uint16", "--lanes", "8", "--shuffle", "0,1,2,3,4,5,6,7")
	require.Error(t, err, "--pkg is required")
}

func TestTargetsCommand(t *testing.T) {
	out, err := runCLI(t, "targets")
	require.NoError(t, err)
	for _, name := range AvailableTargets() {
		require.Contains(t, out, name)
	}
	require.Contains(t, out, "(current)")
}
