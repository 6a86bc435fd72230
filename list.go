// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package symbolic

import (
	"iter"

	"github.com/pkg/errors"

	"github.com/alfredoVallejoM/symbolic/internal/opcode"
)

// List is a persistent cons list over the kernel. Prepending shares the
// entire tail with the source list: l.Cons(x).Tail() is l, the same id.
//
// The empty list is a distinguished sentinel node interned once per
// Universe, so empty lists of any provenance compare equal.
type List struct {
	u  *Universe
	id ID
}

// NilList returns the empty list.
func (u *Universe) NilList() List {
	return List{u: u, id: u.nilID}
}

// ListOf builds a list of the given nodes, first element at the head.
func (u *Universe) ListOf(items ...Node) (List, error) {
	acc := u.NilList()
	for i := len(items) - 1; i >= 0; i-- {
		var err error
		if acc, err = acc.Cons(items[i]); err != nil {
			return List{}, err
		}
	}
	return acc, nil
}

// ListAt wraps an existing cons cell or the nil sentinel.
func (u *Universe) ListAt(id ID) (List, error) {
	if id != u.nilID && id.Op() != opcode.Cons {
		return List{}, errors.Wrapf(ErrMalformed, "op=%v id=%s is not a list", id.Op(), id)
	}
	if _, _, err := u.lookupRec(id); err != nil {
		return List{}, err
	}
	return List{u: u, id: id}, nil
}

// ID returns the id of the head cell.
func (l List) ID() ID { return l.id }

// IsEmpty reports whether l is the nil sentinel.
func (l List) IsEmpty() bool { return l.id == l.u.nilID }

// Cons returns the list with head prepended. O(1), the tail is shared.
func (l List) Cons(head Node) (List, error) {
	id, err := l.u.Intern(opcode.Cons, []ID{head.id, l.id})
	if err != nil {
		return List{}, err
	}
	return List{u: l.u, id: id}, nil
}

// Head returns the first element.
func (l List) Head() (Node, error) {
	if l.IsEmpty() {
		return Node{}, errors.Wrap(ErrMalformed, "head of empty list")
	}
	args, err := l.u.GetArgs(l.id)
	if err != nil {
		return Node{}, err
	}
	return Node{u: l.u, id: args[0]}, nil
}

// Tail returns the list without its first element.
func (l List) Tail() (List, error) {
	if l.IsEmpty() {
		return List{}, errors.Wrap(ErrMalformed, "tail of empty list")
	}
	args, err := l.u.GetArgs(l.id)
	if err != nil {
		return List{}, err
	}
	return List{u: l.u, id: args[1]}, nil
}

// Len counts the elements. O(n), iterative.
func (l List) Len() int {
	n := 0
	for range l.All() {
		n++
	}
	return n
}

// All iterates the elements front to back.
func (l List) All() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		cur := l
		for !cur.IsEmpty() {
			args, err := l.u.GetArgs(cur.id)
			if err != nil {
				return
			}
			if !yield(Node{u: l.u, id: args[0]}) {
				return
			}
			cur = List{u: l.u, id: args[1]}
		}
	}
}

// Map applies fn to every element and returns the new list.
// Iterative, safe for long lists.
func (l List) Map(fn func(Node) Node) (List, error) {
	var items []Node
	for n := range l.All() {
		items = append(items, fn(n))
	}
	return l.u.ListOf(items...)
}

// Filter keeps the elements satisfying pred.
func (l List) Filter(pred func(Node) bool) (List, error) {
	var items []Node
	for n := range l.All() {
		if pred(n) {
			items = append(items, n)
		}
	}
	return l.u.ListOf(items...)
}

// Fold reduces the list left to right from init.
func (l List) Fold(init any, fn func(any, Node) any) any {
	acc := init
	for n := range l.All() {
		acc = fn(acc, n)
	}
	return acc
}
