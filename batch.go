// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package symbolic

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/alfredoVallejoM/symbolic/internal/ident"
	"github.com/alfredoVallejoM/symbolic/internal/opcode"
)

// InternBatch interns one node per entry of argsList under a single
// lock acquisition: ids are computed and probed outside the lock, the
// missing remainder is re-checked, allocated with one batch reservation
// and installed in bulk. The reservation is all-or-nothing, either the
// whole batch fits or nothing is mutated.
//
// The batch path serves rigid structural operators (kv, cons, vector…)
// whose arguments pass through unrewritten. Operators with algebraic
// traits, and pow and exp with their own rewrite rules, must go through
// Intern so canonical form is preserved, and primitives keep their
// dedicated entry points.
func (u *Universe) InternBatch(op Op, argsList [][]ID) ([]ID, error) {
	ids, _, err := u.internBatch(op, argsList)
	return ids, err
}

// internBatch additionally reports, per entry, whether the call
// materialized a new node.
func (u *Universe) internBatch(op Op, argsList [][]ID) ([]ID, []bool, error) {
	if op.IsPrimitive() || op == opcode.HAMT {
		return nil, nil, errors.Wrapf(ErrMalformed, "batch interning does not serve %v nodes", op)
	}
	if opcode.TraitsOf(op) != opcode.None {
		return nil, nil, errors.Wrapf(ErrMalformed, "batch interning serves rigid operators, not %v", op)
	}
	if op == opcode.Pow || op == opcode.Exp {
		// trait-free, but rewritten by the power and exp rules
		return nil, nil, errors.Wrapf(ErrMalformed, "batch interning skips the rewrite rules of %v nodes", op)
	}
	if u.sector(op) == nil {
		return nil, nil, errors.Wrapf(ErrMalformed, "unknown operator %#x", uint16(op))
	}

	// phase 1: vectorized id computation, optimistic probes, no lock
	ids := make([]ID, len(argsList))
	fresh := make([]bool, len(argsList))
	var missing []int
	for i, args := range argsList {
		ids[i] = ident.ComputeComposite(op, args)
		if _, ok := u.lookup.Load(ids[i]); !ok {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return ids, fresh, nil
	}

	// phase 2: materialize the remainder under one lock hold
	u.mu.Lock()
	defer u.mu.Unlock()

	seen := make(map[ID]bool, len(missing))
	var todo []int
	for _, i := range missing {
		if _, ok := u.lookup.Load(ids[i]); ok {
			continue
		}
		if seen[ids[i]] {
			// duplicate within the batch, first occurrence wins
			continue
		}
		seen[ids[i]] = true
		todo = append(todo, i)
	}
	if len(todo) == 0 {
		return ids, fresh, nil
	}

	recs := make([]rec, len(todo))
	for k, i := range todo {
		recs[k] = rec{args: slices.Clone(argsList[i])}
	}
	idxs := u.sector(op).AllocBatch(recs)

	for k, i := range todo {
		for _, c := range argsList[i] {
			u.retainLocked(c)
		}
		u.lookup.Store(ids[i], opcode.PackPhys(op, idxs[k]))
		u.count.Add(1)
		fresh[i] = true
	}
	return ids, fresh, nil
}
