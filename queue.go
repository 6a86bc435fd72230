// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package symbolic

import (
	"github.com/pkg/errors"

	"github.com/alfredoVallejoM/symbolic/internal/opcode"
)

// Queue is a persistent FIFO queue in the Banker's representation: a
// front list serving dequeues and a rear list collecting enqueues.
// Invariant: an empty front implies an empty rear; when the front runs
// out, the rear is reversed into it. Amortized O(1) per operation.
type Queue struct {
	u  *Universe
	id ID
}

// EmptyQueue returns the empty queue.
func (u *Universe) EmptyQueue() (Queue, error) {
	id, err := u.Intern(opcode.Queue, []ID{u.nilID, u.nilID})
	if err != nil {
		return Queue{}, err
	}
	return Queue{u: u, id: id}, nil
}

// ID returns the queue node id.
func (q Queue) ID() ID { return q.id }

// IsEmpty reports whether the queue has no elements.
func (q Queue) IsEmpty() (bool, error) {
	front, _, err := q.unpack()
	if err != nil {
		return false, err
	}
	return front.IsEmpty(), nil
}

// Enqueue appends item at the back.
func (q Queue) Enqueue(item Node) (Queue, error) {
	front, rear, err := q.unpack()
	if err != nil {
		return Queue{}, err
	}
	newRear, err := rear.Cons(item)
	if err != nil {
		return Queue{}, err
	}
	return q.u.makeQueue(front, newRear)
}

// Dequeue removes the element at the front. ok is false on an empty
// queue, which dequeues to itself.
func (q Queue) Dequeue() (head Node, rest Queue, ok bool, err error) {
	front, rear, err := q.unpack()
	if err != nil {
		return Node{}, Queue{}, false, err
	}
	if front.IsEmpty() {
		return Node{}, q, false, nil
	}

	head, err = front.Head()
	if err != nil {
		return Node{}, Queue{}, false, err
	}
	newFront, err := front.Tail()
	if err != nil {
		return Node{}, Queue{}, false, err
	}
	rest, err = q.u.makeQueue(newFront, rear)
	if err != nil {
		return Node{}, Queue{}, false, err
	}
	return head, rest, true, nil
}

// Peek returns the front element without removing it.
func (q Queue) Peek() (Node, bool, error) {
	front, _, err := q.unpack()
	if err != nil {
		return Node{}, false, err
	}
	if front.IsEmpty() {
		return Node{}, false, nil
	}
	head, err := front.Head()
	if err != nil {
		return Node{}, false, err
	}
	return head, true, nil
}

// Len counts the elements. O(n).
func (q Queue) Len() (int, error) {
	front, rear, err := q.unpack()
	if err != nil {
		return 0, err
	}
	return front.Len() + rear.Len(), nil
}

// makeQueue restores the invariant: an exhausted front swallows the
// reversed rear.
func (u *Universe) makeQueue(front, rear List) (Queue, error) {
	if front.IsEmpty() && !rear.IsEmpty() {
		var items []Node
		for n := range rear.All() {
			items = append(items, n)
		}
		// rear is newest-first; reverse into arrival order
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		var err error
		if front, err = u.ListOf(items...); err != nil {
			return Queue{}, err
		}
		rear = u.NilList()
	}

	id, err := u.Intern(opcode.Queue, []ID{front.id, rear.id})
	if err != nil {
		return Queue{}, err
	}
	return Queue{u: u, id: id}, nil
}

func (q Queue) unpack() (front, rear List, err error) {
	if q.id.Op() != opcode.Queue {
		return List{}, List{}, errors.Wrapf(ErrMalformed, "op=%v id=%s is not a queue", q.id.Op(), q.id)
	}
	args, err := q.u.GetArgs(q.id)
	if err != nil {
		return List{}, List{}, err
	}
	if len(args) != 2 {
		return List{}, List{}, errors.Wrapf(ErrCorrupt, "queue id=%s has %d args", q.id, len(args))
	}
	return List{u: q.u, id: args[0]}, List{u: q.u, id: args[1]}, nil
}
