// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package opcode

// Traits is the set of algebraic laws an operator obeys. The traits
// drive normalization and canonicalization: commutative operators get
// their arguments sorted, associative operators get flattened, and so on.
type Traits uint8

const (
	Commutative Traits = 1 << iota
	Associative
	Idempotent
	IdentityZero
	IdentityOne
	Involutive
	Antisymmetric

	None Traits = 0
)

// traitTab assigns the algebraic laws per operator. Operators absent
// from the table are rigid: argument order is semantically significant.
var traitTab = map[Op]Traits{
	Add:    Commutative | Associative | IdentityZero,
	Mul:    Commutative | Associative | IdentityOne,
	Tensor: Associative | IdentityOne, // NOT commutative
	Dual:   Involutive,
}

// TraitsOf returns the trait set for op, None for rigid operators.
func TraitsOf(op Op) Traits {
	return traitTab[op]
}

// Is reports whether all bits of t are present in the trait set.
func (ts Traits) Is(t Traits) bool {
	return ts&t == t
}

// Identity returns the identity element for op, if it has one.
// add has identity 0, mul and tensor have identity 1.
func Identity(op Op) (int64, bool) {
	switch {
	case TraitsOf(op).Is(IdentityZero):
		return 0, true
	case TraitsOf(op).Is(IdentityOne):
		return 1, true
	}
	return 0, false
}
