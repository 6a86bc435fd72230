// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package symbolic

import (
	"math/big"
	"slices"

	"github.com/alfredoVallejoM/symbolic/internal/ident"
	"github.com/alfredoVallejoM/symbolic/internal/opcode"
)

// The normalizer rewrites (op, args) by the operator's algebraic laws
// before id computation, so canonical form is a property of the id.
// Rule order per invocation: flatten associativity, fold constants,
// group like terms, involution and distribution, idempotent dedup,
// unary degeneration, power rules, exp rules. The rewriting is
// confluent: any order reaching a fixpoint yields the same result.

// normResult is the outcome of one normalization pass. Either a
// rewritten (op, args) pair still to be canonicalized and interned, or
// a resolved id when the rules collapsed the expression onto an
// existing node.
//
// fresh lists nodes materialized by the rewrite itself, for example the
// mul(count, term) of a grouped sum. Once the final node has retained
// them, their creation handles are dropped: rewrite intermediates are
// owned by their parents, never by the caller.
type normResult struct {
	op    Op
	args  []ID
	id    ID
	done  bool
	fresh []ID
}

// resolve marks id as the final result, transferring its creation
// handle (if the rewrite produced it) to the caller.
func (n *normResult) resolve(id ID) normResult {
	if i := slices.Index(n.fresh, id); i >= 0 {
		n.fresh = slices.Delete(n.fresh, i, i+1)
	}
	return normResult{id: id, done: true, fresh: n.fresh}
}

func (u *Universe) normalize(op Op, args []ID) (normResult, error) {
	traits := opcode.TraitsOf(op)
	n := normResult{}
	var err error

	// flatten associativity: inline children sharing the same op
	if traits.Is(opcode.Associative) {
		if args, err = u.flatten(op, args); err != nil {
			return normResult{}, err
		}
	}

	// constant folding and like-term grouping
	if op == opcode.Add || op == opcode.Mul {
		collapsed, folded, err := u.foldScalars(&n, op, args)
		if err != nil {
			return normResult{}, err
		}
		if collapsed != nil {
			return *collapsed, nil
		}
		args = folded

		if len(args) >= 2 {
			if args, err = u.groupTerms(&n, op, args); err != nil {
				return normResult{}, err
			}
		}
	}

	// an empty invocation of an operator with an identity element
	// denotes that identity
	if len(args) == 0 && traits.Is(opcode.Associative) {
		if e, ok := opcode.Identity(op); ok {
			return n.resolve(u.InternVal(ident.Int64(e))), nil
		}
	}

	// involution and distribution over tensor products
	if op == opcode.Dual && len(args) == 1 {
		child := args[0]
		switch child.Op() {
		case opcode.Dual:
			inner, err := u.GetArgs(child)
			if err != nil {
				return normResult{}, err
			}
			if len(inner) == 1 {
				return n.resolve(inner[0]), nil
			}
		case opcode.Tensor:
			comps, err := u.GetArgs(child)
			if err != nil {
				return normResult{}, err
			}
			duals := make([]ID, len(comps))
			for i, c := range comps {
				d, dFresh, err := u.intern(opcode.Dual, []ID{c})
				if err != nil {
					return normResult{}, err
				}
				if dFresh {
					n.fresh = append(n.fresh, d)
				}
				duals[i] = d
			}
			n.op, n.args = opcode.Tensor, duals
			return n, nil
		}
	}

	// idempotent operators ignore duplicates
	if traits.Is(opcode.Idempotent) {
		args = dedupSorted(args)
	}

	// unary degeneration: add(x) is x
	if traits.Is(opcode.Associative) && len(args) == 1 {
		return n.resolve(args[0]), nil
	}

	// power rules
	if op == opcode.Pow && len(args) == 2 {
		collapsed, err := u.reducePow(&n, args[0], args[1])
		if err != nil {
			return normResult{}, err
		}
		if collapsed != nil {
			return *collapsed, nil
		}
	}

	// exp(0) is 1
	if op == opcode.Exp && len(args) == 1 {
		zero, err := u.scalarEquals(args[0], 0)
		if err != nil {
			return normResult{}, err
		}
		if zero {
			return n.resolve(u.InternVal(ident.Int64(1))), nil
		}
	}

	n.op, n.args = op, args
	return n, nil
}

// flatten inlines children carrying the same associative operator:
// add(add(a,b), c) becomes add(a,b,c). One level suffices, children
// were already flattened when they were interned.
func (u *Universe) flatten(op Op, args []ID) ([]ID, error) {
	dirty := false
	for _, a := range args {
		if a.Op() == op {
			dirty = true
			break
		}
	}
	if !dirty {
		return args, nil
	}

	out := make([]ID, 0, len(args)+4)
	for _, a := range args {
		if a.Op() != op {
			out = append(out, a)
			continue
		}
		kids, err := u.GetArgs(a)
		if err != nil {
			return nil, err
		}
		out = append(out, kids...)
	}
	return out, nil
}

// foldScalars accumulates the numeric scalars among args with the
// operator's binary operation. A zero factor annihilates the whole
// product without visiting the remaining children; an accumulator equal
// to the identity element is dropped. Returns a collapsed result on
// annihilation or when only the identity remains, otherwise the folded
// args; a lone non-identity accumulator is returned as the single
// folded arg and unwrapped later by unary degeneration.
func (u *Universe) foldScalars(n *normResult, op Op, args []ID) (*normResult, []ID, error) {
	neutral := int64(0)
	if op == opcode.Mul {
		neutral = 1
	}

	acc := newAccum(op)
	rest := make([]ID, 0, len(args))
	sawScalar := false

	for _, id := range args {
		if id.Op() != opcode.Scalar {
			rest = append(rest, id)
			continue
		}
		v, err := u.GetPayload(id)
		if err != nil {
			return nil, nil, err
		}
		if !v.IsNumber() {
			rest = append(rest, id)
			continue
		}
		if op == opcode.Mul && v.EqualInt64(0) {
			// annihilation, skip the remaining children
			r := n.resolve(u.InternVal(ident.Int64(0)))
			return &r, nil, nil
		}
		sawScalar = true
		acc.apply(v)
	}

	if !sawScalar {
		return nil, args, nil
	}

	accVal := acc.val()
	if accVal.EqualInt64(neutral) {
		if len(rest) == 0 {
			r := n.resolve(u.InternVal(accVal))
			return &r, nil, nil
		}
		return nil, rest, nil
	}

	accID, accFresh := u.internVal(accVal)
	if accFresh {
		n.fresh = append(n.fresh, accID)
	}
	return nil, append([]ID{accID}, rest...), nil
}

// groupTerms collects identical terms: x+x+x+y becomes 3·x+y and
// x·x·x·y becomes x³·y. The root operator is kept; the caller
// re-canonicalizes the rewritten args before id computation.
func (u *Universe) groupTerms(n *normResult, op Op, args []ID) ([]ID, error) {
	counts := make(map[ID]int, len(args))
	order := make([]ID, 0, len(args))
	for _, id := range args {
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}
	if len(order) == len(args) {
		return args, nil
	}

	out := make([]ID, 0, len(order))
	for _, id := range order {
		c := counts[id]
		if c == 1 {
			out = append(out, id)
			continue
		}

		countID, countFresh := u.internVal(ident.Int64(int64(c)))
		if countFresh {
			n.fresh = append(n.fresh, countID)
		}

		var term ID
		var termFresh bool
		var err error
		if op == opcode.Add {
			term, termFresh, err = u.intern(opcode.Mul, []ID{countID, id})
		} else {
			term, termFresh, err = u.intern(opcode.Pow, []ID{id, countID})
		}
		if err != nil {
			return nil, err
		}
		if termFresh {
			n.fresh = append(n.fresh, term)
		}
		out = append(out, term)
	}
	return out, nil
}

// reducePow applies x^0 = 1, x^1 = x and (x^a)^b = x^(a·b).
func (u *Universe) reducePow(n *normResult, base, exp ID) (*normResult, error) {
	if exp.Op() == opcode.Scalar {
		v, err := u.GetPayload(exp)
		if err != nil {
			return nil, err
		}
		if v.EqualInt64(0) {
			r := n.resolve(u.InternVal(ident.Int64(1)))
			return &r, nil
		}
		if v.EqualInt64(1) {
			r := n.resolve(base)
			return &r, nil
		}
	}

	if base.Op() == opcode.Pow {
		inner, err := u.GetArgs(base)
		if err != nil {
			return nil, err
		}
		if len(inner) == 2 {
			m, mFresh, err := u.intern(opcode.Mul, []ID{inner[1], exp})
			if err != nil {
				return nil, err
			}
			if mFresh {
				n.fresh = append(n.fresh, m)
			}
			// the multiplied exponent may itself be 1
			if r, err := u.reducePow(n, inner[0], m); err != nil || r != nil {
				return r, err
			}
			r := *n
			r.op, r.args = opcode.Pow, []ID{inner[0], m}
			return &r, nil
		}
	}
	return nil, nil
}

// scalarEquals reports whether id is a numeric scalar equal to v.
func (u *Universe) scalarEquals(id ID, v int64) (bool, error) {
	if id.Op() != opcode.Scalar {
		return false, nil
	}
	p, err := u.GetPayload(id)
	if err != nil {
		return false, err
	}
	return p.EqualInt64(v), nil
}

// dedupSorted sorts by id and removes duplicates.
func dedupSorted(args []ID) []ID {
	args = slices.Clone(args)
	slices.SortFunc(args, ID.Cmp)
	return slices.CompactFunc(args, func(a, b ID) bool { return a == b })
}

// accum folds numeric scalars under add or mul. Integer arithmetic is
// arbitrary precision; the first float promotes the whole accumulation.
type accum struct {
	op      Op
	z       *big.Int
	f       float64
	isFloat bool
}

func newAccum(op Op) *accum {
	n := int64(0)
	if op == opcode.Mul {
		n = 1
	}
	return &accum{op: op, z: big.NewInt(n)}
}

func (a *accum) apply(v Val) {
	if v.Kind == ident.KindFloat && !a.isFloat {
		a.f, _ = new(big.Float).SetInt(a.z).Float64()
		a.isFloat = true
	}

	if a.isFloat {
		var x float64
		if v.Kind == ident.KindFloat {
			x = v.Float
		} else {
			x, _ = new(big.Float).SetInt(v.Int).Float64()
		}
		if a.op == opcode.Add {
			a.f += x
		} else {
			a.f *= x
		}
		return
	}

	if a.op == opcode.Add {
		a.z.Add(a.z, v.Int)
	} else {
		a.z.Mul(a.z, v.Int)
	}
}

func (a *accum) val() Val {
	if a.isFloat {
		return ident.Float(a.f)
	}
	return ident.BigInt(a.z)
}
