// Package pairing implements a mergeable min-heap (pairing heap).
//
// Nodes use the leftmost-child / right-sibling layout: a node's children are
// its child pointer followed by that child's sibling chain. Melding two roots
// makes the loser the new head of the winner's child list in O(1).
//
// DeleteMin uses the standard two-pass pairing: children are melded in
// adjacent pairs left to right, then the pairs are folded right to left.
// The two passes are what give the amortized O(log n) delete-min bound;
// a single left-to-right fold does not.
//
// A Heap owns its nodes exclusively. Meld transfers ownership of the other
// heap's nodes and leaves it empty. Not safe for concurrent use.
package pairing

import (
	"cmp"

	sieveerrors "github.com/tamirms/wheelsieve/errors"
)

type node[K cmp.Ordered, V any] struct {
	key     K
	value   V
	child   *node[K, V] // head of children list
	sibling *node[K, V] // next child of the parent
}

// Heap is a pairing heap keyed by K carrying values of type V.
// The zero value is an empty heap.
type Heap[K cmp.Ordered, V any] struct {
	root *node[K, V]

	// scratch holds the first-pass pairs during DeleteMin; reused to avoid
	// a per-call allocation.
	scratch []*node[K, V]
}

// New returns an empty heap.
func New[K cmp.Ordered, V any]() *Heap[K, V] {
	return &Heap[K, V]{}
}

// Empty reports whether the heap has no entries.
func (h *Heap[K, V]) Empty() bool {
	return h.root == nil
}

// Insert adds (key, value). Equivalent to melding with a singleton heap.
func (h *Heap[K, V]) Insert(key K, value V) {
	h.root = meld(h.root, &node[K, V]{key: key, value: value})
}

// Meld moves every entry of other into h. other is left empty.
func (h *Heap[K, V]) Meld(other *Heap[K, V]) {
	if other == nil || other == h {
		return
	}
	h.root = meld(h.root, other.root)
	other.root = nil
}

// Min returns the smallest key and its value.
// Returns ErrEmptyCollection if the heap is empty.
func (h *Heap[K, V]) Min() (K, V, error) {
	if h.root == nil {
		var k K
		var v V
		return k, v, sieveerrors.ErrEmptyCollection
	}
	return h.root.key, h.root.value, nil
}

// DeleteMin removes the minimum entry.
// Returns ErrEmptyCollection if the heap is empty.
func (h *Heap[K, V]) DeleteMin() error {
	_, _, err := h.Pop()
	return err
}

// Pop removes and returns the minimum entry.
// Returns ErrEmptyCollection if the heap is empty.
func (h *Heap[K, V]) Pop() (K, V, error) {
	r := h.root
	if r == nil {
		var k K
		var v V
		return k, v, sieveerrors.ErrEmptyCollection
	}
	h.root = h.pair(r.child)
	return r.key, r.value, nil
}

// meld links two roots (either may be nil). The root with the larger key
// becomes the first child of the other. Ties keep a as the winner.
func meld[K cmp.Ordered, V any](a, b *node[K, V]) *node[K, V] {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.key < a.key {
		a, b = b, a
	}
	b.sibling = a.child
	a.child = b
	return a
}

// pair merges a sibling chain into a single root using two passes.
func (h *Heap[K, V]) pair(first *node[K, V]) *node[K, V] {
	if first == nil {
		return nil
	}
	if first.sibling == nil {
		return first
	}

	// Pass 1: left to right, meld adjacent pairs.
	pairs := h.scratch[:0]
	for first != nil {
		a := first
		b := a.sibling
		if b == nil {
			pairs = append(pairs, a)
			break
		}
		first = b.sibling
		a.sibling = nil
		b.sibling = nil
		pairs = append(pairs, meld(a, b))
	}

	// Pass 2: right to left, fold into the last pair.
	root := pairs[len(pairs)-1]
	for i := len(pairs) - 2; i >= 0; i-- {
		root = meld(pairs[i], root)
	}

	clear(pairs)
	h.scratch = pairs[:0]
	return root
}
