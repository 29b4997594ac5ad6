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

// Command hwygen resolves static permutations ahead of time and generates
// Go code running the chosen instruction sequences.
//
// Usage:
//
//	hwygen plan --target avx2 --type int32 --lanes 8 --shuffle 3,2,z,_,7,6,5,4
//	hwygen gen -o . --pkg rev --targets avx2,neon --type int32 --lanes 16 --name Rev --shuffle 15,14,...
//	hwygen gen -o . --pkg ops --type uint8 --lanes 32 --op Zip:pair:0,32,1,33,... --op Mask:zeroblend:KzKz...
//	hwygen targets
//
// Or via go:generate:
//
//	//go:generate hwygen gen -o . --pkg $GOPACKAGE --type float32 --lanes 8 --name Rev4 --shuffle 3,2,1,0,7,6,5,4
//
// gen writes one implementation file per target, a dispatcher selecting
// among them at init time by hwy.CurrentLevel, and with --listing a Plan 9
// style instruction listing per target.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KurtBoehm/grex-sub000/hwy"
	"github.com/KurtBoehm/grex-sub000/hwy/permute"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "hwygen",
		Short:        "Resolve static SIMD permutations and generate Go code for them",
		SilenceUsage: true,
	}
	root.AddCommand(newPlanCmd(), newGenCmd(), newTargetsCmd())
	return root
}

// opFlags are the flags every command describing operations shares.
type opFlags struct {
	elem      string
	lanes     int
	name      string
	shuffle   string
	shuffle2  string
	blend     string
	zeroBlend string
	ops       []string
}

func (f *opFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.elem, "type", "float32", "Element type (int8 ... uint64, float32, float64)")
	fs.IntVar(&f.lanes, "lanes", 0, "Lane count of the vectors (power of two, required)")
	fs.StringVar(&f.name, "name", "Op", "Name of the operation given by --shuffle, --shuffle2, --blend or --zeroblend")
	fs.StringVar(&f.shuffle, "shuffle", "", "Single-source shuffle, e.g. 3,2,1,0 (z = zero, _ = any)")
	fs.StringVar(&f.shuffle2, "shuffle2", "", "Two-source shuffle; indices >= lanes read the second vector")
	fs.StringVar(&f.blend, "blend", "", "Blend, one of L, R or _ per lane")
	fs.StringVar(&f.zeroBlend, "zeroblend", "", "Conditional zeroing, one of K, z or _ per lane")
	fs.StringArrayVar(&f.ops, "op", nil, "Operation as Name:family:pattern (repeatable)")
	_ = cmd.MarkFlagRequired("lanes")
}

// requests builds the requests named by the flags.
func (f *opFlags) requests() ([]Request, error) {
	elem, err := hwy.ParseElementType(f.elem)
	if err != nil {
		return nil, err
	}
	var out []Request
	for family, pat := range map[permute.Family]string{
		permute.FamilyShuffle:   f.shuffle,
		permute.FamilyPair:      f.shuffle2,
		permute.FamilyBlend:     f.blend,
		permute.FamilyZeroBlend: f.zeroBlend,
	} {
		if pat == "" {
			continue
		}
		if len(out) > 0 {
			return nil, fmt.Errorf("at most one of --shuffle, --shuffle2, --blend and --zeroblend may be given; use --op for more")
		}
		out = append(out, Request{Name: f.name, Family: family, Elem: elem, Lanes: f.lanes, Pattern: pat})
	}
	for _, s := range f.ops {
		r, err := parseOp(s, elem, f.lanes)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no operation given: use --shuffle, --shuffle2, --blend, --zeroblend or --op")
	}
	return out, nil
}

func newPlanCmd() *cobra.Command {
	var (
		flags   opFlags
		targets string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the strategies chosen for an operation and their cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reqs, err := flags.requests()
			if err != nil {
				return err
			}
			ts, err := ParseTargets(targets)
			if err != nil {
				return err
			}
			for _, t := range ts {
				for _, r := range reqs {
					low, err := r.Resolve(t.Capabilities())
					if err != nil {
						return err
					}
					printPlan(cmd, r, t, low, verbose)
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&targets, "target", hwy.CurrentLevel().String(), "Comma-separated targets ("+strings.Join(AvailableTargets(), ",")+") or 'all'")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print the program")
	return cmd
}

func printPlan(cmd *cobra.Command, r Request, t Target, low *permute.Lowering, verbose bool) {
	cmd.Printf("%s %s %s on %v [%s]: cost %v\n", r.Name, r.Family, r.Pattern, low.Layout, t.Name, low.Cost())
	for _, c := range low.Choices {
		cmd.Printf("  %v\n", c)
	}
	if verbose {
		for _, line := range strings.Split(low.Program.String(), "\n") {
			cmd.Printf("    %s\n", line)
		}
	}
}

func newGenCmd() *cobra.Command {
	var (
		flags   opFlags
		gen     Generator
		targets string
	)
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate per-target Go implementations and a dispatcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reqs, err := flags.requests()
			if err != nil {
				return err
			}
			if gen.Targets, err = ParseTargets(targets); err != nil {
				return err
			}
			gen.Requests = reqs
			gen.Log = cmd.ErrOrStderr()
			if err := gen.Run(cmd.Context()); err != nil {
				return err
			}
			if gen.Verbose {
				cmd.PrintErrf("Generated %d operations for %d targets in %s\n", len(reqs), len(gen.targets()), gen.OutputDir)
			}
			return nil
		},
	}
	flags.register(cmd)
	fs := cmd.Flags()
	fs.StringVarP(&gen.OutputDir, "output", "o", ".", "Output directory")
	fs.StringVar(&gen.OutputPrefix, "prefix", "", "Output file prefix (default: first operation name, lower-cased)")
	fs.StringVar(&gen.PackageOut, "pkg", "", "Output package name (required)")
	fs.StringVar(&targets, "targets", "avx2,fallback", "Comma-separated targets ("+strings.Join(AvailableTargets(), ",")+") or 'all'")
	fs.BoolVar(&gen.Listing, "listing", false, "Also write a Plan 9 style instruction listing per target")
	fs.BoolVarP(&gen.Verbose, "verbose", "v", false, "Report chosen strategies")
	_ = cmd.MarkFlagRequired("pkg")
	return cmd
}

func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the available targets and their register sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range AvailableTargets() {
				t, err := GetTarget(name)
				if err != nil {
					return err
				}
				caps := t.Capabilities()
				marker := ""
				if t.Level == hwy.CurrentLevel() {
					marker = " (current)"
				}
				cmd.Printf("%-9s registers %v bytes, compact masks %t%s\n", name, caps.RegisterBytes, caps.CompactMasks, marker)
			}
			return nil
		},
	}
}
