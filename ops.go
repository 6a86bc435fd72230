// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package symbolic

import (
	"math/big"

	"github.com/alfredoVallejoM/symbolic/internal/ident"
	"github.com/alfredoVallejoM/symbolic/internal/opcode"
)

// ID is the canonical 512-bit identifier of an interned node.
type ID = ident.ID

// Op is a 16-bit operator code.
type Op = opcode.Op

// Val is a primitive scalar payload.
type Val = ident.Val

// The closed operator ontology.
const (
	OpScalar = opcode.Scalar
	OpBlob   = opcode.Blob
	OpChunk  = opcode.Chunk

	OpSymbol = opcode.Symbol
	OpAdd    = opcode.Add
	OpMul    = opcode.Mul
	OpPow    = opcode.Pow
	OpExp    = opcode.Exp

	OpCons   = opcode.Cons
	OpQueue  = opcode.Queue
	OpHAMT   = opcode.HAMT
	OpKV     = opcode.KV
	OpVector = opcode.Vector

	OpZipper = opcode.Zipper
	OpLens   = opcode.Lens

	OpTensor   = opcode.Tensor
	OpDual     = opcode.Dual
	OpContract = opcode.Contract
	OpLambda   = opcode.Lambda
)

// Int64 returns an integer payload.
func Int64(v int64) Val { return ident.Int64(v) }

// BigInt returns an arbitrary-precision integer payload.
func BigInt(z *big.Int) Val { return ident.BigInt(z) }

// Float returns a float payload.
func Float(f float64) Val { return ident.Float(f) }

// Str returns a string payload.
func Str(s string) Val { return ident.Str(s) }

// Raw returns a raw bytes payload.
func Raw(b []byte) Val { return ident.Raw(b) }

// Fold is the holographic projection of an identifier down to 64 bits.
// It is the exact hash used for HAMT bucket selection; callers routing
// keys themselves must consume these bits unchanged.
func Fold(id ID) uint64 { return ident.Fold(id) }
