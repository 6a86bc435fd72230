// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package ident

import (
	"encoding/binary"
	"math/bits"

	"lukechampine.com/blake3"

	"github.com/alfredoVallejoM/symbolic/internal/opcode"
)

// The encoder assembles the 512-bit identifier from two independent
// signals: a blake3-256 digest over operator, payload and child ids
// (the Entropy lane) and the trait-directed spectral mix of the child
// fingerprints (the QEC lane). The physical lanes Depth and Mass are
// monotone under construction and saturate at 2^64-1.

// ComputeComposite returns the identifier for a composite node over
// already-canonicalized children.
func ComputeComposite(op opcode.Op, children []ID) ID {
	h := newDigest(op)
	qec := mixChildren(op, Basis(op), children, h)
	depth, mass := physLanes(children)
	return assemble(op, depth, mass, qec, h)
}

// ComputeHAMT returns the identifier for a trie node. The bucket bitmap
// is data, not a child id: it enters the digest as minimal little-endian
// bytes and perturbs the spectral basis by XOR, so sibling nodes that
// differ only in bitmap cannot collide.
func ComputeHAMT(bitmap uint64, children []ID) ID {
	h := newDigest(opcode.HAMT)
	h.Write(minimalLE(bitmap))

	basis := Basis(opcode.HAMT) ^ bitmap
	qec := mixChildren(opcode.HAMT, basis, children, h)
	depth, mass := physLanes(children)
	return assemble(opcode.HAMT, depth, mass, qec, h)
}

// ComputeScalar returns the identifier for a scalar payload.
// Scalars are leaves: depth and mass are 1.
func ComputeScalar(v Val) ID {
	h := newDigest(opcode.Scalar)
	h.Write(v.Encode())

	qec := MixCommutative(Basis(opcode.Scalar), []uint64{v.Seed()})
	return assemble(opcode.Scalar, 1, 1, qec, h)
}

// ComputeBlob returns the identifier for raw byte content.
// Blobs are leaves: depth and mass are 1.
func ComputeBlob(data []byte) ID {
	h := newDigest(opcode.Blob)
	h.Write(data)

	qec := MixCommutative(Basis(opcode.Blob), []uint64{seed8(data)})
	return assemble(opcode.Blob, 1, 1, qec, h)
}

// newDigest seeds the entropy hasher with the 16-bit operator code,
// little-endian.
func newDigest(op opcode.Op) *blake3.Hasher {
	h := blake3.New(32, nil)
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(op))
	h.Write(b[:])
	return h
}

// mixChildren feeds every child id into the digest in canonical order
// and folds the child fingerprints into the basis, order-insensitively
// for commutative operators, position-sensitively otherwise.
func mixChildren(op opcode.Op, basis uint64, children []ID, h *blake3.Hasher) uint64 {
	if len(children) == 0 {
		return basis
	}

	buf := make([]byte, 0, 64)
	qecs := make([]uint64, len(children))
	for i, c := range children {
		buf = c.AppendBytes(buf[:0])
		h.Write(buf)
		qecs[i] = c.QEC()
	}

	if opcode.TraitsOf(op).Is(opcode.Commutative) {
		return MixCommutative(basis, qecs)
	}
	return MixNonCommutative(basis, qecs)
}

// physLanes computes the saturating Depth and Mass lanes from the
// children. A node with no children is a leaf: depth and mass are 1.
func physLanes(children []ID) (depth, mass uint64) {
	if len(children) == 0 {
		return 1, 1
	}

	for _, c := range children {
		depth = max(depth, c.Depth())
		mass = satAdd(mass, c.Mass())
	}
	return satAdd(depth, 1), satAdd(mass, 1)
}

// satAdd adds saturating at 2^64-1.
func satAdd(a, b uint64) uint64 {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return ^uint64(0)
	}
	return s
}

// assemble concatenates the lanes at their fixed offsets. The 256-bit
// digest is read little-endian into words 4..7.
func assemble(op opcode.Op, depth, mass, qec uint64, h *blake3.Hasher) ID {
	var d [32]byte
	h.Sum(d[:0])

	var id ID
	id[0] = uint64(op)
	id[1] = depth
	id[2] = mass
	id[3] = qec
	id[4] = binary.LittleEndian.Uint64(d[0:8])
	id[5] = binary.LittleEndian.Uint64(d[8:16])
	id[6] = binary.LittleEndian.Uint64(d[16:24])
	id[7] = binary.LittleEndian.Uint64(d[24:32])
	return id
}

// minimalLE encodes v as its minimal little-endian bytes, at least one.
func minimalLE(v uint64) []byte {
	n := (bits.Len64(v) + 7) / 8
	if n == 0 {
		n = 1
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
