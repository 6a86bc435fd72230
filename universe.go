// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package symbolic

import (
	"math/bits"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/alfredoVallejoM/symbolic/internal/arena"
	"github.com/alfredoVallejoM/symbolic/internal/ident"
	"github.com/alfredoVallejoM/symbolic/internal/opcode"
)

// rec is the physical argument tuple of one interned node: child ids
// for composites, a payload for primitives. The trie bucket bitmap is
// data, not a child id, and lives outside args.
type rec struct {
	args   []ID
	bitmap uint64
	val    ident.Val
}

// sectorPageSize tunes the arena growth unit per operator. Scalars
// dominate most workloads and get large pages, trie nodes are heavy
// and grow conservatively.
var sectorPageSize = map[Op]int{
	opcode.Scalar: 65536,
	opcode.Symbol: 16384,
	opcode.Add:    8192,
	opcode.Mul:    8192,
	opcode.HAMT:   1024,
	opcode.Blob:   4096,
}

// Universe is the interning context: the hash-cons table mapping each
// 512-bit id to its physical slot, plus one arena sector per operator.
//
// A slot's reference count equals the number of live parents plus one
// handle per creation returned to a caller. Kernel-internal builders
// drop their creation handles once a parent retains the node, so
// deleting a root reclaims everything it transitively owns.
//
// Lookups are lock-free; a single mutex serializes materialization,
// retention and reclamation. A Universe is safe for concurrent use.
type Universe struct {
	mu sync.Mutex

	// lookup maps ID to a packed physical pointer (op | slot index).
	// Probed optimistically without the lock; the locked slow path
	// re-checks before installing.
	lookup sync.Map
	count  atomic.Int64

	// blobLookup deduplicates blob content by value.
	blobLookup map[string]uint64

	sectors map[Op]*arena.Pool[rec]

	// nilID is the distinguished empty-list sentinel, interned at
	// construction so it is always live.
	nilID ID
}

// Option tunes a Universe at construction.
type Option func(map[Op]int)

// WithPageSize overrides the arena growth unit for one operator sector.
func WithPageSize(op Op, n int) Option {
	return func(sizes map[Op]int) {
		sizes[op] = n
	}
}

// New returns an empty Universe.
func New(opts ...Option) *Universe {
	sizes := make(map[Op]int, len(sectorPageSize))
	for op, n := range sectorPageSize {
		sizes[op] = n
	}
	for _, o := range opts {
		o(sizes)
	}

	u := &Universe{
		blobLookup: make(map[string]uint64),
		sectors:    make(map[Op]*arena.Pool[rec], len(opcode.All())),
	}
	for _, op := range opcode.All() {
		n, ok := sizes[op]
		if !ok {
			n = arena.DefaultPageSize
		}
		u.sectors[op] = arena.New[rec](n)
	}

	u.nilID = u.Sym("__NIL__").id
	return u
}

// sector returns the arena for op, nil for unknown codes.
func (u *Universe) sector(op Op) *arena.Pool[rec] {
	return u.sectors[op]
}

// Intern creates or recovers the canonical node for (op, args) and
// returns its id. The expression is normalized and canonicalized first,
// so any two structurally equivalent constructions yield the same id.
//
// Primitives have dedicated entry points: InternVal for scalars,
// InternBlob for byte content, InternHAMT for trie nodes.
func (u *Universe) Intern(op Op, args []ID) (ID, error) {
	id, _, err := u.intern(op, args)
	return id, err
}

// intern additionally reports whether the call materialized a new node.
func (u *Universe) intern(op Op, args []ID) (ID, bool, error) {
	switch op {
	case opcode.Scalar:
		return ID{}, false, errors.Wrap(ErrMalformed, "scalar nodes are interned with InternVal")
	case opcode.Chunk:
		return ID{}, false, errors.Wrap(ErrMalformed, "chunk nodes have no construction entry point")
	case opcode.Blob:
		return ID{}, false, errors.Wrap(ErrMalformed, "blobs are interned with InternBlob")
	case opcode.HAMT:
		return ID{}, false, errors.Wrap(ErrMalformed, "trie nodes are interned with InternHAMT")
	}
	if u.sector(op) == nil {
		return ID{}, false, errors.Wrapf(ErrMalformed, "unknown operator %#x", uint16(op))
	}

	n, err := u.normalize(op, args)
	if err != nil {
		return ID{}, false, err
	}
	if n.done {
		u.dropHandles(n.fresh)
		return n.id, false, nil
	}

	canon := canonicalize(n.op, n.args)
	id := ident.ComputeComposite(n.op, canon)

	// optimistic path, no lock
	if _, ok := u.lookup.Load(id); ok {
		u.dropHandles(n.fresh)
		return id, false, nil
	}

	u.mu.Lock()
	_, fresh := u.materialize(id, n.op, rec{args: canon})
	u.mu.Unlock()

	// the rewrite intermediates are now owned by their parents
	u.dropHandles(n.fresh)
	return id, fresh, nil
}

// InternVal creates or recovers the canonical scalar for payload v.
func (u *Universe) InternVal(v Val) ID {
	id, _ := u.internVal(v)
	return id
}

func (u *Universe) internVal(v Val) (ID, bool) {
	id := ident.ComputeScalar(v)
	if _, ok := u.lookup.Load(id); ok {
		return id, false
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	_, fresh := u.materialize(id, opcode.Scalar, rec{val: v})
	return id, fresh
}

// InternBlob creates or recovers the blob holding data, deduplicated
// by content. The bytes are copied.
func (u *Universe) InternBlob(data []byte) ID {
	id, _ := u.internBlob(data)
	return id
}

func (u *Universe) internBlob(data []byte) (ID, bool) {
	id := ident.ComputeBlob(data)
	if _, ok := u.lookup.Load(id); ok {
		return id, false
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	w, fresh := u.materialize(id, opcode.Blob, rec{val: ident.Raw(data)})
	if fresh {
		u.blobLookup[string(data)] = w
	}
	return id, fresh
}

// InternHAMT creates or recovers a trie node from its bucket bitmap and
// child ids. The popcount of the bitmap must match the child count.
func (u *Universe) InternHAMT(bitmap uint64, kids []ID) (ID, error) {
	id, _, err := u.internHAMT(bitmap, kids)
	return id, err
}

func (u *Universe) internHAMT(bitmap uint64, kids []ID) (ID, bool, error) {
	if bits.OnesCount64(bitmap) != len(kids) {
		return ID{}, false, errors.Wrapf(ErrMalformed,
			"hamt bitmap %#x does not match %d children", bitmap, len(kids))
	}

	kids = slices.Clone(kids)
	id := ident.ComputeHAMT(bitmap, kids)
	if _, ok := u.lookup.Load(id); ok {
		return id, false, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	_, fresh := u.materialize(id, opcode.HAMT, rec{args: kids, bitmap: bitmap})
	return id, fresh, nil
}

// materialize installs id if still absent: retains the children owned
// by the new node, allocates a sector slot and publishes the mapping.
// The caller must hold u.mu. Returns the packed physical pointer and
// whether a new slot was allocated.
func (u *Universe) materialize(id ID, op Op, r rec) (uint64, bool) {
	if w, ok := u.lookup.Load(id); ok {
		return w.(uint64), false
	}

	if !op.IsPrimitive() {
		for _, c := range r.args {
			u.retainLocked(c)
		}
	}

	idx := u.sector(op).Alloc(r)
	w := opcode.PackPhys(op, idx)
	u.lookup.Store(id, w)
	u.count.Add(1)
	return w, true
}

// retainLocked bumps the ref count of a live child. The caller must
// hold u.mu.
func (u *Universe) retainLocked(id ID) {
	w, ok := u.lookup.Load(id)
	if !ok {
		return
	}
	pw := w.(uint64)
	u.sector(opcode.PhysOp(pw)).Retain(opcode.PhysIndex(pw))
}

// dropHandles releases the creation handles of freshly materialized
// intermediates after their parents have retained them.
func (u *Universe) dropHandles(ids []ID) {
	if len(ids) == 0 {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, id := range ids {
		u.deleteLocked(id)
	}
}

// Retain bumps the ref count of id, keeping it alive across deletes of
// its parents.
func (u *Universe) Retain(id ID) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	w, ok := u.lookup.Load(id)
	if !ok {
		return notLive(id)
	}
	pw := w.(uint64)
	u.sector(opcode.PhysOp(pw)).Retain(opcode.PhysIndex(pw))
	return nil
}

// Delete drops one reference from id. When the count reaches zero the
// slot is recycled, the id leaves the hash-cons table and the delete
// cascades into every child the dying node had retained.
func (u *Universe) Delete(id ID) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.lookup.Load(id); !ok {
		return notLive(id)
	}
	u.deleteLocked(id)
	return nil
}

// deleteLocked performs the cascading release. The cascade walks an
// explicit worklist under the single lock hold instead of recursing
// through the locked region. The caller must hold u.mu.
func (u *Universe) deleteLocked(id ID) {
	work := []ID{id}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]

		w, ok := u.lookup.Load(cur)
		if !ok {
			continue
		}
		pw := w.(uint64)
		op, idx := opcode.PhysOp(pw), opcode.PhysIndex(pw)
		pool := u.sector(op)

		// snapshot the tuple before release clears the slot
		r, ok := pool.Get(idx)
		if !ok {
			continue
		}
		if !pool.Release(idx) {
			continue
		}

		u.lookup.Delete(cur)
		u.count.Add(-1)

		if op == opcode.Blob {
			delete(u.blobLookup, string(r.val.Bytes))
		}
		if !op.IsPrimitive() {
			work = append(work, r.args...)
		}
	}
}

// lookupRec resolves a live id to its operator and physical tuple.
func (u *Universe) lookupRec(id ID) (Op, rec, error) {
	w, ok := u.lookup.Load(id)
	if !ok {
		return 0, rec{}, notLive(id)
	}
	pw := w.(uint64)
	op, idx := opcode.PhysOp(pw), opcode.PhysIndex(pw)
	r, ok := u.sector(op).Get(idx)
	if !ok {
		return 0, rec{}, notLive(id)
	}
	return op, r, nil
}

// GetOp extracts the operator code from the Meta lane. Pure bit
// extraction, the id need not be live.
func (u *Universe) GetOp(id ID) Op { return id.Op() }

// GetDepth extracts the Depth lane.
func (u *Universe) GetDepth(id ID) uint64 { return id.Depth() }

// GetMass extracts the Mass lane.
func (u *Universe) GetMass(id ID) uint64 { return id.Mass() }

// GetQEC extracts the spectral fingerprint lane.
func (u *Universe) GetQEC(id ID) uint64 { return id.QEC() }

// GetArgs returns the child ids of a live node, nil for primitives.
// For trie nodes the bucket bitmap is not included, see GetBitmap.
func (u *Universe) GetArgs(id ID) ([]ID, error) {
	_, r, err := u.lookupRec(id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(r.args), nil
}

// GetPayload returns the payload of a live scalar or blob.
func (u *Universe) GetPayload(id ID) (Val, error) {
	op, r, err := u.lookupRec(id)
	if err != nil {
		return Val{}, err
	}
	if !op.IsPrimitive() {
		return Val{}, errors.Wrapf(ErrMalformed, "op=%v id=%s has no payload", op, id)
	}
	return r.val, nil
}

// GetBlob returns a copy of the content of a live blob.
func (u *Universe) GetBlob(id ID) ([]byte, error) {
	op, r, err := u.lookupRec(id)
	if err != nil {
		return nil, err
	}
	if op != opcode.Blob {
		return nil, errors.Wrapf(ErrMalformed, "op=%v id=%s is not a blob", op, id)
	}
	return slices.Clone(r.val.Bytes), nil
}

// GetBitmap returns the bucket bitmap of a live trie node.
func (u *Universe) GetBitmap(id ID) (uint64, error) {
	op, r, err := u.lookupRec(id)
	if err != nil {
		return 0, err
	}
	if op != opcode.HAMT {
		return 0, errors.Wrapf(ErrMalformed, "op=%v id=%s is not a trie node", op, id)
	}
	return r.bitmap, nil
}

// Len returns the number of live ids in the hash-cons table.
func (u *Universe) Len() int {
	return int(u.count.Load())
}

// Stats reports the health of every sector arena.
func (u *Universe) Stats() map[Op]arena.Stats {
	out := make(map[Op]arena.Stats, len(u.sectors))
	for op, pool := range u.sectors {
		out[op] = pool.Stats()
	}
	return out
}

// canonicalize sorts commutative arguments by ascending 512-bit id and
// returns a fresh slice in either case.
func canonicalize(op Op, args []ID) []ID {
	args = slices.Clone(args)
	if opcode.TraitsOf(op).Is(opcode.Commutative) {
		slices.SortFunc(args, ID.Cmp)
	}
	return args
}
