// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package symbolic

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/alfredoVallejoM/symbolic/internal/ident"
	"github.com/alfredoVallejoM/symbolic/internal/opcode"
)

// Node is an immutable handle pairing a Universe with an interned id.
// Nodes are values; comparing with == is O(1) structural equality.
//
// The algebraic methods intern their results through the normalizer,
// so n.Add(n) is already the canonical 2·n. They panic on malformed
// constructions, which indicate caller bugs; all fallible inspection
// goes through the Universe accessors.
type Node struct {
	u  *Universe
	id ID
}

// ID returns the canonical identifier.
func (n Node) ID() ID { return n.id }

// Op returns the operator code.
func (n Node) Op() Op { return n.id.Op() }

// Depth returns the Depth lane.
func (n Node) Depth() uint64 { return n.id.Depth() }

// Mass returns the Mass lane.
func (n Node) Mass() uint64 { return n.id.Mass() }

// QEC returns the spectral fingerprint lane.
func (n Node) QEC() uint64 { return n.id.QEC() }

// Node wraps a live id in a handle.
func (u *Universe) Node(id ID) (Node, error) {
	if _, _, err := u.lookupRec(id); err != nil {
		return Node{}, err
	}
	return Node{u: u, id: id}, nil
}

// Sym interns the symbol with the given name. The name lives in a
// content-deduplicated blob retained by the symbol node.
func (u *Universe) Sym(name string) Node {
	blobID, blobFresh := u.internBlob([]byte(name))
	id := u.must(u.Intern(opcode.Symbol, []ID{blobID}))
	if blobFresh {
		u.dropHandles([]ID{blobID})
	}
	return Node{u: u, id: id}
}

// Int interns an integer scalar.
func (u *Universe) Int(v int64) Node {
	return Node{u: u, id: u.InternVal(ident.Int64(v))}
}

// IntBig interns an arbitrary-precision integer scalar.
func (u *Universe) IntBig(z *big.Int) Node {
	return Node{u: u, id: u.InternVal(ident.BigInt(z))}
}

// Float interns a float scalar.
func (u *Universe) Float(f float64) Node {
	return Node{u: u, id: u.InternVal(ident.Float(f))}
}

// Str interns a string scalar.
func (u *Universe) Str(s string) Node {
	return Node{u: u, id: u.InternVal(ident.Str(s))}
}

// Val interns a scalar from an explicit payload.
func (u *Universe) Val(v Val) Node {
	return Node{u: u, id: u.InternVal(v)}
}

// Add returns the canonical sum n + o.
func (n Node) Add(o Node) Node { return n.bin(opcode.Add, o) }

// Mul returns the canonical product n · o.
func (n Node) Mul(o Node) Node { return n.bin(opcode.Mul, o) }

// Pow returns the canonical power n ^ o.
func (n Node) Pow(o Node) Node { return n.bin(opcode.Pow, o) }

// Tensor returns the tensor product of n and o.
func (n Node) Tensor(o Node) Node { return n.bin(opcode.Tensor, o) }

// Neg returns -n, represented as (-1) · n.
func (n Node) Neg() Node {
	return n.u.Int(-1).Mul(n)
}

// Sub returns n - o, represented as n + (-1)·o.
func (n Node) Sub(o Node) Node {
	return n.Add(o.Neg())
}

// Dual returns the dual of n. Dual is involutive: n.Dual().Dual() == n.
func (n Node) Dual() Node {
	return Node{u: n.u, id: n.u.must(n.u.Intern(opcode.Dual, []ID{n.id}))}
}

// Exp returns e^n.
func (n Node) Exp() Node {
	return Node{u: n.u, id: n.u.must(n.u.Intern(opcode.Exp, []ID{n.id}))}
}

func (n Node) bin(op Op, o Node) Node {
	return Node{u: n.u, id: n.u.must(n.u.Intern(op, []ID{n.id, o.id}))}
}

// Similarity measures structural correlation through the spectral
// fingerprints: 1.0 for isomorphic structure, about 0.5 for unrelated
// nodes, approaching 0 for topological opposites.
func (n Node) Similarity(o Node) float64 {
	diff := n.id.QEC() ^ o.id.QEC()
	return 1.0 - float64(bits.OnesCount64(diff))/64.0
}

// IsIsomorphic reports whether the spectral similarity reaches the
// threshold. A quick approximate check, not a proof.
func (n Node) IsIsomorphic(o Node, threshold float64) bool {
	return n.Similarity(o) >= threshold
}

// String renders scalars and symbols by content, everything else by
// operator and abbreviated id.
func (n Node) String() string {
	switch n.id.Op() {
	case opcode.Scalar:
		if v, err := n.u.GetPayload(n.id); err == nil {
			return v.String()
		}
	case opcode.Symbol:
		if args, err := n.u.GetArgs(n.id); err == nil && len(args) == 1 {
			if name, err := n.u.GetBlob(args[0]); err == nil {
				return string(name)
			}
		}
	}
	return fmt.Sprintf("<%v:%s>", n.id.Op(), n.id)
}

// must panics on malformed constructions from the infallible facades.
func (u *Universe) must(id ID, err error) ID {
	if err != nil {
		panic(err)
	}
	return id
}
