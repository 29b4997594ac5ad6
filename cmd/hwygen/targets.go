package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/KurtBoehm/grex-sub000/hwy"
)

// Target represents an architecture-specific generation target.
type Target struct {
	Name      string            // "AVX2", "AVX512", "NEON", "Fallback"
	Level     hwy.DispatchLevel // capability table the plans are resolved against
	Mnemonics map[hwy.Op]string // op -> instruction shown in listings
	Registers string            // register name prefix per size, see regName
}

// SSE2Target returns the target configuration for the x86-64 baseline.
func SSE2Target() Target {
	return Target{
		Name:  "SSE2",
		Level: hwy.DispatchSSE2,
		Mnemonics: map[hwy.Op]string{
			hwy.OpZero:            "PXOR",
			hwy.OpConst:           "MOVOU",
			hwy.OpAnd:             "PAND",
			hwy.OpOr:              "POR",
			hwy.OpXor:             "PXOR",
			hwy.OpAndNot:          "PANDN",
			hwy.OpCopyLane:        "PINSR",
			hwy.OpShuffle32:       "PSHUFD",
			hwy.OpShiftBytesUp:    "PSLLDQ",
			hwy.OpShiftBytesDown:  "PSRLDQ",
			hwy.OpInterleaveLower: "PUNPCKL",
			hwy.OpInterleaveUpper: "PUNPCKH",
		},
		Registers: "X",
	}
}

// SSE4Target returns the target configuration for SSSE3 + SSE4.1.
func SSE4Target() Target {
	t := SSE2Target()
	t.Name = "SSE4"
	t.Level = hwy.DispatchSSE4
	t.Mnemonics = withOps(t.Mnemonics, map[hwy.Op]string{
		hwy.OpTableBytes: "PSHUFB",
		hwy.OpAlignBytes: "PALIGNR",
		hwy.OpBlend:      "PBLENDW",
		hwy.OpBlendVar:   "PBLENDVB",
	})
	return t
}

// AVX2Target returns the target configuration for AVX2 (256-bit SIMD).
func AVX2Target() Target {
	return Target{
		Name:  "AVX2",
		Level: hwy.DispatchAVX2,
		Mnemonics: map[hwy.Op]string{
			hwy.OpZero:            "VPXOR",
			hwy.OpConst:           "VMOVDQU",
			hwy.OpAnd:             "VPAND",
			hwy.OpOr:              "VPOR",
			hwy.OpXor:             "VPXOR",
			hwy.OpAndNot:          "VPANDN",
			hwy.OpCopyLane:        "VPINSR",
			hwy.OpTableBytes:      "VPSHUFB",
			hwy.OpShuffle32:       "VPSHUFD",
			hwy.OpPermuteLanes:    "VPERMD",
			hwy.OpBlend:           "VPBLENDD",
			hwy.OpBlendVar:        "VPBLENDVB",
			hwy.OpAlignBytes:      "VPALIGNR",
			hwy.OpShiftBytesUp:    "VPSLLDQ",
			hwy.OpShiftBytesDown:  "VPSRLDQ",
			hwy.OpBlockPermute:    "VPERM2I128",
			hwy.OpInterleaveLower: "VPUNPCKL",
			hwy.OpInterleaveUpper: "VPUNPCKH",
			hwy.OpCombine:         "VINSERTI128",
			hwy.OpLowerHalf:       "VMOVDQA",
			hwy.OpUpperHalf:       "VEXTRACTI128",
		},
		Registers: "XYZ",
	}
}

// AVX512Target returns the target configuration for AVX-512 (512-bit SIMD).
func AVX512Target() Target {
	t := AVX2Target()
	t.Name = "AVX512"
	t.Level = hwy.DispatchAVX512
	t.Mnemonics = withOps(t.Mnemonics, map[hwy.Op]string{
		hwy.OpMaskConst:    "KMOVQ",
		hwy.OpPermuteLanes: "VPERMI2",
		hwy.OpPermute2:     "VPERMT2",
		hwy.OpBlend:        "VPBLENDM",
		hwy.OpBlendVar:     "VPBLENDM",
		hwy.OpZeroMasked:   "VMOVDQU64.Z",
		hwy.OpBlockPermute: "VSHUFI64X2",
		hwy.OpCombine:      "VINSERTI64X4",
		hwy.OpUpperHalf:    "VEXTRACTI64X4",
	})
	return t
}

// NEONTarget returns the target configuration for ARM NEON.
func NEONTarget() Target {
	return Target{
		Name:  "NEON",
		Level: hwy.DispatchNEON,
		Mnemonics: map[hwy.Op]string{
			hwy.OpZero:            "VEOR",
			hwy.OpConst:           "VLD1",
			hwy.OpAnd:             "VAND",
			hwy.OpOr:              "VORR",
			hwy.OpXor:             "VEOR",
			hwy.OpAndNot:          "VBIC",
			hwy.OpCopyLane:        "VMOV",
			hwy.OpTableBytes:      "VTBL",
			hwy.OpPermute2:        "VTBL2",
			hwy.OpBlendVar:        "VBSL",
			hwy.OpAlignBytes:      "VEXT",
			hwy.OpShiftBytesUp:    "VEXT",
			hwy.OpShiftBytesDown:  "VEXT",
			hwy.OpInterleaveLower: "VZIP1",
			hwy.OpInterleaveUpper: "VZIP2",
			hwy.OpCombine:         "VMOV",
			hwy.OpLowerHalf:       "VMOV",
			hwy.OpUpperHalf:       "VDUP",
		},
		Registers: "V",
	}
}

// FallbackTarget returns the scalar target, which only moves lanes.
func FallbackTarget() Target {
	return Target{
		Name:  "Fallback",
		Level: hwy.DispatchScalar,
		Mnemonics: map[hwy.Op]string{
			hwy.OpZero:     "MOVQ",
			hwy.OpConst:    "MOVQ",
			hwy.OpAnd:      "ANDQ",
			hwy.OpOr:       "ORQ",
			hwy.OpXor:      "XORQ",
			hwy.OpAndNot:   "ANDNQ",
			hwy.OpCopyLane: "MOVQ",
		},
		Registers: "R",
	}
}

func withOps(base, extra map[hwy.Op]string) map[hwy.Op]string {
	out := make(map[hwy.Op]string, len(base)+len(extra))
	for op, m := range base {
		out[op] = m
	}
	for op, m := range extra {
		out[op] = m
	}
	return out
}

// AvailableTargets returns the target names accepted by GetTarget.
func AvailableTargets() []string {
	return []string{"fallback", "sse2", "sse4", "avx2", "avx512", "neon"}
}

// GetTarget returns the target configuration for a name.
func GetTarget(name string) (Target, error) {
	switch strings.ToLower(name) {
	case "sse2":
		return SSE2Target(), nil
	case "sse4":
		return SSE4Target(), nil
	case "avx2":
		return AVX2Target(), nil
	case "avx512":
		return AVX512Target(), nil
	case "neon":
		return NEONTarget(), nil
	case "fallback", "scalar":
		return FallbackTarget(), nil
	default:
		return Target{}, fmt.Errorf("unknown target: %s (valid: %s)", name, strings.Join(AvailableTargets(), ", "))
	}
}

// ParseTargets resolves a comma-separated target list; "all" selects every
// target.
func ParseTargets(s string) ([]Target, error) {
	var names []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	if len(names) == 1 && names[0] == "all" {
		names = AvailableTargets()
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no valid targets specified")
	}
	var out []Target
	for _, n := range names {
		t, err := GetTarget(n)
		if err != nil {
			return nil, err
		}
		if slices.ContainsFunc(out, func(o Target) bool { return o.Name == t.Name }) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Capabilities returns the capability table of the target.
func (t Target) Capabilities() hwy.Target {
	return hwy.MustTarget(t.Level)
}

// Suffix returns the identifier suffix for this target (e.g., "AVX2").
func (t Target) Suffix() string {
	return t.Name
}

// FileSuffix returns the filename suffix for this target (e.g., "_avx2").
func (t Target) FileSuffix() string {
	return "_" + strings.ToLower(t.Name)
}

// Mnemonic returns the listing name of op, falling back to the portable op
// name for ops the table does not cover.
func (t Target) Mnemonic(op hwy.Op) string {
	if m, ok := t.Mnemonics[op]; ok {
		return m
	}
	return strings.ToUpper(op.String())
}

// regName names value v held in a register of size bytes. x86 targets use
// X, Y and Z for 16, 32 and 64 bytes.
func (t Target) regName(v int, size int) string {
	prefix := t.Registers[:1]
	if len(t.Registers) == 3 {
		switch size {
		case 32:
			prefix = t.Registers[1:2]
		case 64:
			prefix = t.Registers[2:3]
		}
	}
	return fmt.Sprintf("%s%d", prefix, v)
}
