// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

// Package symbolic provides a hash-consed symbolic computation kernel:
// a content-addressed DAG in which every algebraic expression, persistent
// data structure node and primitive value is represented by a single
// canonical 512-bit identifier.
//
// Two structurally equivalent expressions, however constructed, resolve
// to the same identifier, enabling O(1) equality, structural sharing and
// memoized rewriting. Expressions are normalized before interning, so
// canonical form is a property of the identifier, not of the caller:
// a+b and b+a, (a+b)+c and a+(b+c) all intern to the same node.
//
// The kernel is the [Universe]: a concurrent hash-cons table coupled to
// per-operator arena allocators with explicit reference counting and
// cascading reclamation. On top of it the package builds persistent
// maps ([Map], hash-array-mapped tries), persistent lists ([List]) and
// persistent queues ([Queue]), plus an algebraic [Node] facade.
//
// A Universe is an explicit context object; create one with [New] and
// share it between goroutines freely. Hash-cons lookups are lock-free,
// slot reads take only a per-sector read lock, and writers are
// serialized by a single mutex per universe.
package symbolic
