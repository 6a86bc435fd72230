// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package symbolic

import (
	"iter"
	"math/bits"
	"slices"

	"github.com/pkg/errors"

	"github.com/alfredoVallejoM/symbolic/internal/ident"
	"github.com/alfredoVallejoM/symbolic/internal/opcode"
)

// Trie routing consumes the holographic projection of the key id in
// 5-bit slices, a 32-way branch per level with a popcount-compressed
// child array: the bucket bitmap marks occupied branches and the rank
// of a bucket's bit is the child's slice index.
const (
	hamtShift = 5
	hamtMask  = 1<<hamtShift - 1
)

// hamtLeaf pairs a kv node with the projection of its key.
type hamtLeaf struct {
	h  uint64
	id ID
}

// FromMap builds the canonical trie for the given key→value ids,
// bottom-up and collision-free: kv leaves are interned in one batch,
// sorted by key projection and partitioned by successive 5-bit slices.
// Equal maps yield equal ids regardless of construction order.
//
// The caller receives the root handle; interior nodes and leaves are
// owned by their parents.
func (u *Universe) FromMap(m map[ID]ID) (ID, error) {
	if len(m) == 0 {
		return u.InternHAMT(0, nil)
	}

	// deterministic batch order
	keys := make([]ID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, ID.Cmp)

	pairs := make([][]ID, len(keys))
	for i, k := range keys {
		pairs[i] = []ID{k, m[k]}
	}
	kvIDs, kvFresh, err := u.internBatch(opcode.KV, pairs)
	if err != nil {
		return ID{}, err
	}

	var interior []ID // freshly built nodes below the root
	for i, f := range kvFresh {
		if f {
			interior = append(interior, kvIDs[i])
		}
	}

	leaves := make([]hamtLeaf, len(keys))
	for i, k := range keys {
		leaves[i] = hamtLeaf{h: ident.Fold(k), id: kvIDs[i]}
	}
	slices.SortFunc(leaves, func(a, b hamtLeaf) int {
		switch {
		case a.h < b.h:
			return -1
		case a.h > b.h:
			return 1
		}
		return a.id.Cmp(b.id)
	})

	root, err := u.buildHAMT(leaves, 0, &interior)
	if err != nil {
		return ID{}, err
	}

	// a singleton map comes out as a bare kv leaf; wrap it so the root
	// is always the container operator
	if root.Op() == opcode.KV {
		root, _, err = u.internHAMT(1<<(leaves[0].h&hamtMask), []ID{root})
		if err != nil {
			return ID{}, err
		}
	}

	// the root now owns the whole structure, drop the builder handles
	if i := slices.Index(interior, root); i >= 0 {
		interior = slices.Delete(interior, i, i+1)
	}
	u.dropHandles(interior)
	return root, nil
}

// buildHAMT partitions hash-sorted leaves into 32 buckets on the slice
// at shift and recurses per occupied bucket. Fresh interior ids are
// appended to interior for later handle release.
func (u *Universe) buildHAMT(leaves []hamtLeaf, shift uint, interior *[]ID) (ID, error) {
	if len(leaves) == 1 {
		return leaves[0].id, nil
	}
	if shift >= 64 {
		// distinct keys with identical 64-bit projections; the id
		// space is assumed collision-free, refuse to build
		return ID{}, errors.Wrapf(ErrCorrupt,
			"projection collision among %d keys", len(leaves))
	}

	var buckets [1 << hamtShift][]hamtLeaf
	for _, lf := range leaves {
		b := (lf.h >> shift) & hamtMask
		buckets[b] = append(buckets[b], lf)
	}

	var bitmap uint64
	var kids []ID
	for b, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		child, err := u.buildHAMT(bucket, shift+hamtShift, interior)
		if err != nil {
			return ID{}, err
		}
		bitmap |= 1 << b
		kids = append(kids, child)
	}

	id, fresh, err := u.internHAMT(bitmap, kids)
	if err != nil {
		return ID{}, err
	}
	if fresh {
		*interior = append(*interior, id)
	}
	return id, nil
}

// Map is a persistent hash-array-mapped trie over the kernel. Updates
// path-copy: they return a new Map sharing all unchanged structure with
// the old one.
type Map struct {
	u  *Universe
	id ID
}

// EmptyMap returns the empty persistent map.
func (u *Universe) EmptyMap() Map {
	id, err := u.InternHAMT(0, nil)
	if err != nil {
		panic(err)
	}
	return Map{u: u, id: id}
}

// MapFrom builds a persistent map from key→value nodes.
func (u *Universe) MapFrom(entries map[Node]Node) (Map, error) {
	m := make(map[ID]ID, len(entries))
	for k, v := range entries {
		m[k.id] = v.id
	}
	id, err := u.FromMap(m)
	if err != nil {
		return Map{}, err
	}
	return Map{u: u, id: id}, nil
}

// MapOf wraps an existing trie root id.
func (u *Universe) MapOf(id ID) (Map, error) {
	if id.Op() != opcode.HAMT {
		return Map{}, errors.Wrapf(ErrMalformed, "op=%v id=%s is not a map", id.Op(), id)
	}
	if _, _, err := u.lookupRec(id); err != nil {
		return Map{}, err
	}
	return Map{u: u, id: id}, nil
}

// ID returns the root id.
func (m Map) ID() ID { return m.id }

// Put returns a new map with key bound to val. The previous binding of
// key, if any, is replaced; rebinding a key to its current value
// returns the same map.
func (m Map) Put(key, val Node) (Map, error) {
	root, _, err := m.u.hamtPut(m.id, key.id, val.id, ident.Fold(key.id), 0)
	if err != nil {
		return Map{}, err
	}
	return Map{u: m.u, id: root}, nil
}

// Get returns the value bound to key.
func (m Map) Get(key Node) (Node, bool, error) {
	id, ok, err := m.u.hamtGet(m.id, key.id, ident.Fold(key.id), 0)
	if err != nil || !ok {
		return Node{}, false, err
	}
	return Node{u: m.u, id: id}, true, nil
}

// Len counts the bindings, walking the trie.
func (m Map) Len() int {
	n := 0
	for range m.All() {
		n++
	}
	return n
}

// All iterates the bindings in trie order.
func (m Map) All() iter.Seq2[Node, Node] {
	return func(yield func(Node, Node) bool) {
		stack := []ID{m.id}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			args, err := m.u.GetArgs(cur)
			if err != nil {
				return
			}
			switch cur.Op() {
			case opcode.HAMT:
				stack = append(stack, args...)
			case opcode.KV:
				if !yield(Node{u: m.u, id: args[0]}, Node{u: m.u, id: args[1]}) {
					return
				}
			}
		}
	}
}

// hamtPut is the path-copying insert. The key projection h is consumed
// hamtShift bits per level starting at shift. Reports whether the
// returned node was materialized by this call: the caller either links
// it into a parent and drops the builder handle, or keeps the handle
// when the node is the new root.
func (u *Universe) hamtPut(nodeID, k, v ID, h uint64, shift uint) (ID, bool, error) {
	switch nodeID.Op() {
	case opcode.HAMT:
		bitmap, err := u.GetBitmap(nodeID)
		if err != nil {
			return ID{}, false, err
		}
		kids, err := u.GetArgs(nodeID)
		if err != nil {
			return ID{}, false, err
		}

		bit := uint64(1) << ((h >> shift) & hamtMask)
		rank := bits.OnesCount64(bitmap & (bit - 1))

		if bitmap&bit != 0 {
			newChild, childFresh, err := u.hamtPut(kids[rank], k, v, h, shift+hamtShift)
			if err != nil {
				return ID{}, false, err
			}
			if newChild == kids[rank] {
				// binding unchanged, the whole path is unchanged
				return nodeID, false, nil
			}
			kids[rank] = newChild
			id, fresh, err := u.internHAMT(bitmap, kids)
			if err != nil {
				return ID{}, false, err
			}
			if childFresh {
				u.dropHandles([]ID{newChild})
			}
			return id, fresh, nil
		}

		leaf, leafFresh, err := u.intern(opcode.KV, []ID{k, v})
		if err != nil {
			return ID{}, false, err
		}
		kids = slices.Insert(kids, rank, leaf)
		id, fresh, err := u.internHAMT(bitmap|bit, kids)
		if err != nil {
			return ID{}, false, err
		}
		if leafFresh {
			u.dropHandles([]ID{leaf})
		}
		return id, fresh, nil

	case opcode.KV:
		args, err := u.GetArgs(nodeID)
		if err != nil {
			return ID{}, false, err
		}
		if args[0] == k {
			return u.intern(opcode.KV, []ID{k, v})
		}
		if shift >= 64 {
			// distinct keys with identical 64-bit projections; the
			// id space is assumed collision-free, refuse to build
			return ID{}, false, errors.Wrapf(ErrCorrupt,
				"projection collision between %s and %s", args[0], k)
		}

		// both keys route below this point: push the resident leaf
		// into a sub-trie, then insert the new binding. The sub-trie
		// scaffolding is not part of the result and is torn down.
		empty, emptyFresh, err := u.internHAMT(0, nil)
		if err != nil {
			return ID{}, false, err
		}
		sub, subFresh, err := u.hamtPut(empty, args[0], args[1], ident.Fold(args[0]), shift)
		if err != nil {
			return ID{}, false, err
		}
		final, finalFresh, err := u.hamtPut(sub, k, v, h, shift)
		if err != nil {
			return ID{}, false, err
		}
		if subFresh {
			u.dropHandles([]ID{sub})
		}
		if emptyFresh {
			u.dropHandles([]ID{empty})
		}
		return final, finalFresh, nil
	}

	return ID{}, false, errors.Wrapf(ErrCorrupt,
		"unexpected %v node in trie at shift %d", nodeID.Op(), shift)
}

// hamtGet walks the trie by successive 5-bit slices of h.
func (u *Universe) hamtGet(nodeID, k ID, h uint64, shift uint) (ID, bool, error) {
	switch nodeID.Op() {
	case opcode.HAMT:
		bitmap, err := u.GetBitmap(nodeID)
		if err != nil {
			return ID{}, false, err
		}

		bit := uint64(1) << ((h >> shift) & hamtMask)
		if bitmap&bit == 0 {
			return ID{}, false, nil
		}

		kids, err := u.GetArgs(nodeID)
		if err != nil {
			return ID{}, false, err
		}
		rank := bits.OnesCount64(bitmap & (bit - 1))
		return u.hamtGet(kids[rank], k, h, shift+hamtShift)

	case opcode.KV:
		args, err := u.GetArgs(nodeID)
		if err != nil {
			return ID{}, false, err
		}
		if args[0] == k {
			return args[1], true, nil
		}
		return ID{}, false, nil
	}

	return ID{}, false, errors.Wrapf(ErrCorrupt,
		"unexpected %v node in trie at shift %d", nodeID.Op(), shift)
}
