// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

// Command symdump exercises the kernel from the command line: it prints
// the canonical forms of a few well-known rewrites and can intern a
// synthetic workload to dump sector statistics.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	symbolic "github.com/alfredoVallejoM/symbolic"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "symdump",
		Short: "symdump — inspect the hash-consed symbolic kernel",
	}

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Print canonical forms of well-known algebraic rewrites",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}

	var scalars int
	var mapSize int
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Intern a synthetic workload and dump sector statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(scalars, mapSize)
		},
	}
	statsCmd.Flags().IntVar(&scalars, "scalars", 10000, "number of distinct scalars to intern")
	statsCmd.Flags().IntVar(&mapSize, "map", 1000, "number of entries in the synthetic map")

	rootCmd.AddCommand(demoCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDemo() error {
	u := symbolic.New()

	a, b, c := u.Sym("a"), u.Sym("b"), u.Sym("c")
	x, y := u.Sym("x"), u.Sym("y")

	show := func(label string, id symbolic.ID) {
		args, _ := u.GetArgs(id)
		fmt.Printf("%-28s op=%-7v arity=%d  id=%s\n", label, u.GetOp(id), len(args), id)
	}

	fmt.Println("associativity and commutativity collapse to one id:")
	show("(a+b)+c", a.Add(b).Add(c).ID())
	show("b+(c+a)", b.Add(c.Add(a)).ID())
	fmt.Println()

	fmt.Println("constant folding and annihilation:")
	show("0·x·y", u.Int(0).Mul(x).Mul(y).ID())
	show("x+0", x.Add(u.Int(0)).ID())
	fmt.Println()

	fmt.Println("like-term grouping:")
	xxxy, err := u.Intern(symbolic.OpAdd, []symbolic.ID{x.ID(), x.ID(), x.ID(), y.ID()})
	if err != nil {
		return err
	}
	show("x+x+x+y", xxxy)
	cubed, err := u.Intern(symbolic.OpMul, []symbolic.ID{x.ID(), x.ID(), x.ID(), y.ID()})
	if err != nil {
		return err
	}
	show("x·x·x·y", cubed)
	fmt.Println()

	fmt.Println("powers and duals:")
	show("(x^2)^3", x.Pow(u.Int(2)).Pow(u.Int(3)).ID())
	show("~(~a⊗b)", a.Dual().Tensor(b).Dual().ID())

	return nil
}

func runStats(scalars, mapSize int) error {
	u := symbolic.New()

	for i := range scalars {
		u.Int(int64(i))
	}

	entries := make(map[symbolic.ID]symbolic.ID, mapSize)
	for i := range mapSize {
		entries[u.Int(int64(i)).ID()] = u.Int(int64(i * 2)).ID()
	}
	if _, err := u.FromMap(entries); err != nil {
		return err
	}

	fmt.Printf("live ids: %d\n\n", u.Len())
	fmt.Printf("%-10s %10s %10s %10s %8s\n", "sector", "capacity", "active", "free", "frag")

	stats := u.Stats()
	ops := make([]symbolic.Op, 0, len(stats))
	for op := range stats {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })

	for _, op := range ops {
		s := stats[op]
		if s.Capacity == 0 {
			continue
		}
		fmt.Printf("%-10v %10d %10d %10d %7.1f%%\n",
			op, s.Capacity, s.Active, s.Free, 100*s.Fragmentation)
	}
	return nil
}
