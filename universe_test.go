// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package symbolic

import (
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
)

func TestInternDeterminism(t *testing.T) {
	t.Parallel()
	u := New()

	a, b := u.Sym("a"), u.Sym("b")

	id1, err := u.Intern(OpAdd, []ID{a.ID(), b.ID()})
	if err != nil {
		t.Fatal(err)
	}
	id2, err := u.Intern(OpAdd, []ID{a.ID(), b.ID()})
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Error("Intern, expected identical ids for identical expressions")
	}
}

func TestInternDeterministicAcrossUniverses(t *testing.T) {
	t.Parallel()

	// ids are content-derived, independent of interning history
	u1, u2 := New(), New()

	n1 := u1.Sym("a").Add(u1.Int(7))
	n2 := u2.Int(7).Add(u2.Sym("a"))
	if n1.ID() != n2.ID() {
		t.Error("expected identical ids in independent universes")
	}
}

func TestScalarInjectivity(t *testing.T) {
	t.Parallel()
	u := New()

	seen := make(map[ID]bool, 5000)
	for i := range 5000 {
		seen[u.Int(int64(i)).ID()] = true
	}
	if len(seen) != 5000 {
		t.Errorf("expected 5000 distinct scalar ids, got %d", len(seen))
	}
	if got := u.Len(); got < 5000 {
		t.Errorf("Len, expected at least 5000 live ids, got %d", got)
	}
}

func TestBigIntScalars(t *testing.T) {
	t.Parallel()
	u := New()

	// beyond 64 bits, no silent truncation
	big1 := new(big.Int).Lsh(big.NewInt(1), 200)
	big2 := new(big.Int).Add(big1, big.NewInt(1))

	n1, n2 := u.IntBig(big1), u.IntBig(big2)
	if n1 == n2 {
		t.Error("expected distinct ids for 2^200 and 2^200+1")
	}

	v, err := u.GetPayload(n1.ID())
	if err != nil {
		t.Fatal(err)
	}
	if v.Int.Cmp(big1) != 0 {
		t.Error("GetPayload, expected the full 2^200 payload")
	}
}

func TestMetaLaneMatchesOperator(t *testing.T) {
	t.Parallel()
	u := New()

	a, b := u.Sym("a"), u.Sym("b")

	if got := u.GetOp(a.ID()); got != OpSymbol {
		t.Errorf("GetOp, expected symbol, got %v", got)
	}
	sum := a.Add(b)
	if got := u.GetOp(sum.ID()); got != OpAdd {
		t.Errorf("GetOp, expected add, got %v", got)
	}
	if got := u.GetOp(u.Int(1).ID()); got != OpScalar {
		t.Errorf("GetOp, expected scalar, got %v", got)
	}
}

func TestDepthAndMass(t *testing.T) {
	t.Parallel()
	u := New()

	one := u.Int(1)
	if u.GetDepth(one.ID()) != 1 || u.GetMass(one.ID()) != 1 {
		t.Error("scalar, expected depth=mass=1")
	}

	// a symbol sits on its name blob
	a := u.Sym("a")
	if got := u.GetDepth(a.ID()); got != 2 {
		t.Errorf("symbol depth, expected 2, got %d", got)
	}
	if got := u.GetMass(a.ID()); got != 2 {
		t.Errorf("symbol mass, expected 2, got %d", got)
	}

	sum := a.Add(u.Sym("b"))
	if got := u.GetDepth(sum.ID()); got != 3 {
		t.Errorf("sum depth, expected 3, got %d", got)
	}
	if got := u.GetMass(sum.ID()); got != 5 {
		t.Errorf("sum mass, expected 5, got %d", got)
	}
}

func TestBlobDeduplication(t *testing.T) {
	t.Parallel()
	u := New()

	id1 := u.InternBlob([]byte("content"))
	id2 := u.InternBlob([]byte("content"))
	if id1 != id2 {
		t.Error("InternBlob, expected content-identical blobs to share one id")
	}

	data, err := u.GetBlob(id1)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content" {
		t.Errorf("GetBlob, expected content, got %q", data)
	}

	if u.Sym("s").ID() != u.Sym("s").ID() {
		t.Error("Sym, expected identical ids for the same name")
	}
}

func TestPrimitiveEntryPointsEnforced(t *testing.T) {
	t.Parallel()
	u := New()

	for _, op := range []Op{OpScalar, OpBlob, OpHAMT} {
		if _, err := u.Intern(op, nil); !errors.Is(err, ErrMalformed) {
			t.Errorf("Intern(%v), expected ErrMalformed, got %v", op, err)
		}
	}

	if _, err := u.InternHAMT(0b11, []ID{u.Int(1).ID()}); !errors.Is(err, ErrMalformed) {
		t.Errorf("InternHAMT bitmap mismatch, expected ErrMalformed, got %v", err)
	}
}

func TestDeadIDAccess(t *testing.T) {
	t.Parallel()
	u := New()

	a, b := u.Sym("da"), u.Sym("db")
	sum, err := u.Intern(OpAdd, []ID{a.ID(), b.ID()})
	if err != nil {
		t.Fatal(err)
	}
	if err := u.Delete(sum); err != nil {
		t.Fatal(err)
	}

	if _, err := u.GetArgs(sum); !errors.Is(err, ErrNotLive) {
		t.Errorf("GetArgs after delete, expected ErrNotLive, got %v", err)
	}
	if err := u.Delete(sum); !errors.Is(err, ErrNotLive) {
		t.Errorf("double delete, expected ErrNotLive, got %v", err)
	}

	// an id that never existed fails the same way
	var ghost ID
	ghost[0] = uint64(OpAdd)
	_, err = u.GetArgs(ghost)
	if !errors.Is(err, ErrNotLive) {
		t.Errorf("GetArgs on ghost id, expected ErrNotLive, got %v", err)
	}

	// the failure names the operator and the hex id
	if msg := err.Error(); !strings.Contains(msg, "add") || !strings.Contains(msg, "0x") {
		t.Errorf("error, expected operator and hex id, got %q", msg)
	}
}

func TestRetainDefersReclamation(t *testing.T) {
	t.Parallel()
	u := New()

	a, b := u.Sym("ra"), u.Sym("rb")
	sum, err := u.Intern(OpAdd, []ID{a.ID(), b.ID()})
	if err != nil {
		t.Fatal(err)
	}
	if err := u.Retain(sum); err != nil {
		t.Fatal(err)
	}

	if err := u.Delete(sum); err != nil {
		t.Fatal(err)
	}
	if _, err := u.GetArgs(sum); err != nil {
		t.Fatal("expected the retained node to survive one delete")
	}

	if err := u.Delete(sum); err != nil {
		t.Fatal(err)
	}
	if _, err := u.GetArgs(sum); !errors.Is(err, ErrNotLive) {
		t.Error("expected the node to die on the final delete")
	}
}

func TestCascadingReclamation(t *testing.T) {
	t.Parallel()
	u := New()

	x, y := u.Sym("gx"), u.Sym("gy")
	leafBase := u.Len()

	// x+x+x+y creates the root plus the grouped 3·x and the scalar 3,
	// all owned by the root
	root, err := u.Intern(OpAdd, []ID{x.ID(), x.ID(), x.ID(), y.ID()})
	if err != nil {
		t.Fatal(err)
	}
	if u.Len() <= leafBase {
		t.Fatal("expected the build to add live ids")
	}

	if err := u.Delete(root); err != nil {
		t.Fatal(err)
	}
	if got := u.Len(); got != leafBase {
		t.Errorf("Len after delete, expected %d, got %d", leafBase, got)
	}

	// the leaves survive, the caller still holds them
	if _, err := u.GetArgs(x.ID()); err != nil {
		t.Error("expected the leaf symbols to survive")
	}
}

func TestReclamationClosure(t *testing.T) {
	t.Parallel()
	u := New()
	base := u.Len()

	x := u.Sym("cx")
	y := u.Sym("cy")

	root, err := u.Intern(OpAdd, []ID{x.ID(), x.ID(), x.ID(), y.ID()})
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []ID{root, x.ID(), y.ID()} {
		if err := u.Delete(id); err != nil {
			t.Fatal(err)
		}
	}
	if got := u.Len(); got != base {
		t.Errorf("Len, expected the pre-build size %d, got %d", base, got)
	}
}

func TestSlotRecycling(t *testing.T) {
	t.Parallel()
	u := New(WithPageSize(OpSymbol, 8))

	before := u.Stats()[OpSymbol]

	s := u.Sym("transient")
	if err := u.Delete(s.ID()); err != nil {
		t.Fatal(err)
	}

	after := u.Stats()[OpSymbol]
	if after.Active != before.Active {
		t.Errorf("Active, expected %d after reclamation, got %d", before.Active, after.Active)
	}
}

func TestInternBatch(t *testing.T) {
	t.Parallel()
	u := New()

	k1, v1 := u.Int(1), u.Int(10)
	k2, v2 := u.Int(2), u.Int(20)

	pairs := [][]ID{{k1.ID(), v1.ID()}, {k2.ID(), v2.ID()}}
	ids, err := u.InternBatch(OpKV, pairs)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] == ids[1] {
		t.Fatal("InternBatch, expected two distinct ids")
	}

	// idempotent
	again, err := u.InternBatch(OpKV, pairs)
	if err != nil {
		t.Fatal(err)
	}
	if ids[0] != again[0] || ids[1] != again[1] {
		t.Error("InternBatch, expected identical ids on re-intern")
	}

	args, err := u.GetArgs(ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if args[0] != k1.ID() || args[1] != v1.ID() {
		t.Error("kv args, expected key and value in order")
	}
}

func TestInternBatchRejectsNonRigid(t *testing.T) {
	t.Parallel()
	u := New()

	if _, err := u.InternBatch(OpAdd, [][]ID{{}}); !errors.Is(err, ErrMalformed) {
		t.Errorf("InternBatch(add), expected ErrMalformed, got %v", err)
	}
	if _, err := u.InternBatch(OpScalar, nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("InternBatch(scalar), expected ErrMalformed, got %v", err)
	}
}

func TestInternBatchLarge(t *testing.T) {
	t.Parallel()
	u := New(WithPageSize(OpKV, 16))

	// far beyond one page, exercises the batch reservation
	pairs := make([][]ID, 500)
	for i := range pairs {
		pairs[i] = []ID{u.Int(int64(i)).ID(), u.Int(int64(-i - 1)).ID()}
	}
	ids, err := u.InternBatch(OpKV, pairs)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[ID]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	if len(seen) != 500 {
		t.Errorf("expected 500 distinct kv ids, got %d", len(seen))
	}
}

func TestConcurrentInternConverges(t *testing.T) {
	t.Parallel()
	u := New()

	const workers = 16
	results := make([]ID, workers)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := u.Sym("the_one").Add(u.Int(42))
			results[w] = n.ID()
		}()
	}
	wg.Wait()

	for _, id := range results[1:] {
		if id != results[0] {
			t.Fatal("concurrent interns, expected one id for all workers")
		}
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()
	u := New()

	a, b := u.Sym("a"), u.Sym("b")

	if got := a.Similarity(a); got != 1.0 {
		t.Errorf("self similarity, expected 1.0, got %f", got)
	}

	// the fingerprint is locality-sensitive: isomorphic shapes over
	// near-identical atoms score high, structurally different nodes
	// score lower
	sum := a.Add(b).Mul(u.Sym("c"))
	if s := a.Similarity(sum); s >= a.Similarity(b) {
		t.Errorf("expected a deep product to be less similar to a than its sibling symbol, got %f", s)
	}
	if s := a.Similarity(b); s != b.Similarity(a) {
		t.Error("Similarity, expected symmetry")
	}

	if !a.IsIsomorphic(a, 0.95) {
		t.Error("IsIsomorphic, expected true for the same node")
	}
}

func TestNodeString(t *testing.T) {
	t.Parallel()
	u := New()

	if got := u.Int(42).String(); got != "42" {
		t.Errorf("String, expected 42, got %q", got)
	}
	if got := u.Sym("velocity").String(); got != "velocity" {
		t.Errorf("String, expected velocity, got %q", got)
	}
	if got := u.Float(2.5).String(); got != "2.5" {
		t.Errorf("String, expected 2.5, got %q", got)
	}
}
