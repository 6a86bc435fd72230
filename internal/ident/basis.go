// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package ident

import (
	"math/bits"

	"github.com/alfredoVallejoM/symbolic/internal/opcode"
)

// basisTab holds one fixed 64-bit basis vector per operator. The
// constants are chosen for mutual Hamming distance around 32 bits, so
// that distinct operators start from near-orthogonal fingerprints.
var basisTab = map[opcode.Op]uint64{
	opcode.Scalar:   0x9e3779b97f4a7c15,
	opcode.Blob:     0xc2b2ae3d27d4eb4f,
	opcode.Chunk:    0x165667b19e3779f9,
	opcode.Symbol:   0x27d4eb2f165667c5,
	opcode.Add:      0x85ebca77c2b2ae63,
	opcode.Mul:      0xff51afd7ed558ccd,
	opcode.Pow:      0xc4ceb9fe1a85ec53,
	opcode.Exp:      0x2545f4914f6cdd1d,
	opcode.Cons:     0xd6e8feb86659fd93,
	opcode.Queue:    0xa0761d6478bd642f,
	opcode.HAMT:     0xe7037ed1a0b428db,
	opcode.KV:       0x8ebc6af09c88c6e3,
	opcode.Vector:   0x589965cc75374cc3,
	opcode.Zipper:   0x1d8e4e27c47d124f,
	opcode.Lens:     0xeb44accab455d165,
	opcode.Tensor:   0xb492b66fbe98f273,
	opcode.Dual:     0x9ae16a3b2f90404f,
	opcode.Contract: 0xc949d7c7509e6557,
	opcode.Lambda:   0x3c79ac492ba7b653,
}

// Basis returns the spectral basis vector for op.
// Unknown codes derive a vector from the code itself so the function is
// total, but every defined operator has a fixed table entry.
func Basis(op opcode.Op) uint64 {
	if b, ok := basisTab[op]; ok {
		return b
	}
	// splitmix64 step over the raw code
	z := uint64(op) + 0x9e3779b97f4a7c15
	z = (z ^ z>>30) * 0xbf58476d1ce4e5b9
	z = (z ^ z>>27) * 0x94d049bb133111eb
	return z ^ z>>31
}

// MixCommutative folds child fingerprints into the basis with modular
// addition. Order-insensitive: any permutation of qecs yields the same
// result.
func MixCommutative(basis uint64, qecs []uint64) uint64 {
	v := basis
	for _, q := range qecs {
		v += q
	}
	return v
}

// MixNonCommutative folds child fingerprints position-sensitively: each
// child is rotated by 7·(i+1) bits before the modular sum, so reordering
// children changes the result with overwhelming probability.
func MixNonCommutative(basis uint64, qecs []uint64) uint64 {
	v := basis
	for i, q := range qecs {
		v += bits.RotateLeft64(q, -7*(i+1))
	}
	return v
}
