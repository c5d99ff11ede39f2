// Package pqueue is a size-tracking priority queue over a pairing heap.
package pqueue

import (
	"cmp"

	"github.com/tamirms/wheelsieve/internal/pairing"
)

// Entry is a key/value pair held by a Queue.
type Entry[K cmp.Ordered, V any] struct {
	Key   K
	Value V
}

// Queue is a min-priority queue. Len equals inserts minus removals.
// Not safe for concurrent use.
type Queue[K cmp.Ordered, V any] struct {
	heap pairing.Heap[K, V]
	size int
}

// New returns an empty queue.
func New[K cmp.Ordered, V any]() *Queue[K, V] {
	return &Queue[K, V]{}
}

// FromEntries builds a queue holding every entry of es.
func FromEntries[K cmp.Ordered, V any](es []Entry[K, V]) *Queue[K, V] {
	q := New[K, V]()
	for _, e := range es {
		q.Insert(e.Key, e.Value)
	}
	return q
}

// Len returns the number of entries.
func (q *Queue[K, V]) Len() int {
	return q.size
}

// Empty reports whether the queue has no entries.
func (q *Queue[K, V]) Empty() bool {
	return q.size == 0
}

// Insert adds (key, value).
func (q *Queue[K, V]) Insert(key K, value V) {
	q.heap.Insert(key, value)
	q.size++
}

// Meld moves every entry of other into q; other is left empty.
func (q *Queue[K, V]) Meld(other *Queue[K, V]) {
	if other == nil || other == q {
		return
	}
	q.heap.Meld(&other.heap)
	q.size += other.size
	other.size = 0
}

// PeekMin returns the minimum entry without removing it.
// Returns ErrEmptyCollection if the queue is empty.
func (q *Queue[K, V]) PeekMin() (K, V, error) {
	return q.heap.Min()
}

// DeleteMin removes the minimum entry.
// Returns ErrEmptyCollection if the queue is empty.
func (q *Queue[K, V]) DeleteMin() error {
	if err := q.heap.DeleteMin(); err != nil {
		return err
	}
	q.size--
	return nil
}

// Pop removes and returns the minimum entry.
// Returns ErrEmptyCollection if the queue is empty.
func (q *Queue[K, V]) Pop() (K, V, error) {
	k, v, err := q.heap.Pop()
	if err != nil {
		return k, v, err
	}
	q.size--
	return k, v, nil
}

// Drain pops every entry and returns them in non-decreasing key order.
// The queue is empty afterwards.
func (q *Queue[K, V]) Drain() []Entry[K, V] {
	out := make([]Entry[K, V], 0, q.size)
	for !q.heap.Empty() {
		k, v, _ := q.heap.Pop() // non-empty checked above
		out = append(out, Entry[K, V]{Key: k, Value: v})
	}
	q.size = 0
	return out
}
