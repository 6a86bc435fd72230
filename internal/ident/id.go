// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

// Package ident implements the 512-bit composite identifier: its lane
// layout, the signature encoder, the spectral fingerprint mixers and the
// holographic 64-bit projection. This is an internal package with a wide
// open public API.
package ident

import (
	"encoding/binary"
	"fmt"

	"github.com/alfredoVallejoM/symbolic/internal/opcode"
)

// ID is a 512-bit identifier, stored as eight 64-bit words in
// little-endian word order. The lanes at fixed offsets:
//
//	word 0      Meta     operator code in the low 16 bits
//	word 1      Depth    max(child depth)+1, saturating
//	word 2      Mass     sum(child mass)+1, saturating
//	word 3      QEC      64-bit spectral fingerprint
//	words 4..7  Entropy  256-bit cryptographic digest
//
// An ID is comparable and usable as a map key.
type ID [8]uint64

// Zero is the null identifier. No interned node ever carries it.
var Zero ID

// Op returns the operator code from the Meta lane.
func (id ID) Op() opcode.Op {
	return opcode.Op(id[0] & 0xFFFF)
}

// Depth returns the Depth lane.
func (id ID) Depth() uint64 { return id[1] }

// Mass returns the Mass lane.
func (id ID) Mass() uint64 { return id[2] }

// QEC returns the spectral fingerprint lane.
func (id ID) QEC() uint64 { return id[3] }

// Entropy returns the four words of the 256-bit digest lane,
// least significant word first.
func (id ID) Entropy() [4]uint64 {
	return [4]uint64{id[4], id[5], id[6], id[7]}
}

// IsZero reports whether id is the null identifier.
func (id ID) IsZero() bool {
	return id == Zero
}

// Cmp compares two identifiers as 512-bit unsigned integers.
// The Entropy lane holds the most significant bits.
func (id ID) Cmp(o ID) int {
	for i := 7; i >= 0; i-- {
		switch {
		case id[i] < o[i]:
			return -1
		case id[i] > o[i]:
			return 1
		}
	}
	return 0
}

// Less reports whether id sorts before o, see Cmp.
func (id ID) Less(o ID) bool {
	return id.Cmp(o) < 0
}

// AppendBytes appends the canonical 64-byte little-endian serialization,
// used for digesting child identifiers.
func (id ID) AppendBytes(b []byte) []byte {
	for _, w := range id {
		b = binary.LittleEndian.AppendUint64(b, w)
	}
	return b
}

// Hex returns the full 128-digit hex representation, most significant
// digit first.
func (id ID) Hex() string {
	return fmt.Sprintf("%016x%016x%016x%016x%016x%016x%016x%016x",
		id[7], id[6], id[5], id[4], id[3], id[2], id[1], id[0])
}

// String returns an abbreviated form for error messages and logs.
func (id ID) String() string {
	return "0x" + id.Hex()[:16] + "…"
}
