// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package ident

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
)

// Kind discriminates the primitive payload variants.
type Kind uint8

const (
	KindNone Kind = iota
	KindInt
	KindFloat
	KindStr
	KindBytes
)

// Val is a primitive scalar payload: an arbitrary-precision integer, a
// float, a string or raw bytes. The zero Val has KindNone and is not a
// valid payload.
type Val struct {
	Kind  Kind
	Int   *big.Int
	Float float64
	Str   string
	Bytes []byte
}

// Int64 returns an integer payload.
func Int64(v int64) Val {
	return Val{Kind: KindInt, Int: big.NewInt(v)}
}

// BigInt returns an arbitrary-precision integer payload.
// The argument is copied, the payload does not alias z.
func BigInt(z *big.Int) Val {
	return Val{Kind: KindInt, Int: new(big.Int).Set(z)}
}

// Float returns a float payload.
func Float(f float64) Val {
	return Val{Kind: KindFloat, Float: f}
}

// Str returns a string payload.
func Str(s string) Val {
	return Val{Kind: KindStr, Str: s}
}

// Raw returns a raw bytes payload. The argument is copied.
func Raw(b []byte) Val {
	return Val{Kind: KindBytes, Bytes: append([]byte(nil), b...)}
}

// IsNumber reports whether v is an integer or float payload.
func (v Val) IsNumber() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

// EqualInt64 reports whether v is a number equal to n.
// An integer 0 and a float 0.0 both equal 0.
func (v Val) EqualInt64(n int64) bool {
	switch v.Kind {
	case KindInt:
		return v.Int.IsInt64() && v.Int.Int64() == n
	case KindFloat:
		return v.Float == float64(n)
	}
	return false
}

// Encode returns the deterministic byte encoding fed to the entropy
// digest: integers as minimal two's-complement little-endian, floats as
// 8-byte IEEE-754 little-endian, strings as UTF-8, bytes as themselves.
func (v Val) Encode() []byte {
	switch v.Kind {
	case KindInt:
		return encodeInt(v.Int)
	case KindFloat:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.Float))
		return b[:]
	case KindStr:
		return []byte(v.Str)
	case KindBytes:
		return v.Bytes
	}
	return nil
}

// Seed derives the 64-bit word mixed into the scalar's spectral
// fingerprint. Integers contribute their low 64 two's-complement bits,
// floats their IEEE bit pattern, strings an FNV-1a fold of their UTF-8
// bytes, raw bytes their first 8 bytes little-endian.
func (v Val) Seed() uint64 {
	switch v.Kind {
	case KindInt:
		return low64TwosComplement(v.Int)
	case KindFloat:
		return math.Float64bits(v.Float)
	case KindStr:
		return fnv1a([]byte(v.Str))
	case KindBytes:
		return seed8(v.Bytes)
	}
	return 0
}

func (v Val) String() string {
	switch v.Kind {
	case KindInt:
		return v.Int.String()
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindStr:
		return v.Str
	case KindBytes:
		return fmt.Sprintf("0x%x", v.Bytes)
	}
	return "<none>"
}

// encodeInt produces the minimal two's-complement little-endian
// encoding of z: the fewest bytes whose top bit is the sign bit; zero
// encodes as one zero byte. Arbitrary widths are encoded in full, never
// truncated.
func encodeInt(z *big.Int) []byte {
	// z >= 0 needs BitLen(z)+1 bits, z < 0 needs BitLen(-z-1)+1 bits
	mag := z
	if z.Sign() < 0 {
		mag = new(big.Int).Not(z)
	}
	n := (mag.BitLen() + 8) / 8
	if n == 0 {
		n = 1
	}

	buf := make([]byte, n)
	if z.Sign() >= 0 {
		z.FillBytes(buf)
	} else {
		// 2^(8n) + z
		t := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
		t.Add(t, z)
		t.FillBytes(buf)
	}

	// big-endian to little-endian
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

// low64TwosComplement returns the low 64 bits of z in two's complement.
func low64TwosComplement(z *big.Int) uint64 {
	enc := encodeInt(z)
	filler := byte(0x00)
	if z.Sign() < 0 {
		filler = 0xFF
	}
	var b [8]byte
	for i := range b {
		if i < len(enc) {
			b[i] = enc[i]
		} else {
			b[i] = filler
		}
	}
	return binary.LittleEndian.Uint64(b[:])
}

// seed8 reads the first 8 bytes little-endian, zero-padded.
func seed8(data []byte) uint64 {
	var b [8]byte
	copy(b[:], data)
	return binary.LittleEndian.Uint64(b[:])
}

// fnv1a is the 64-bit FNV-1a fold.
func fnv1a(data []byte) uint64 {
	h := uint64(0xcbf29ce484222325)
	for _, c := range data {
		h ^= uint64(c)
		h *= 0x100000001b3
	}
	return h
}
