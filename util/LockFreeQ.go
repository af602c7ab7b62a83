package util

import (
	"sync/atomic"
)

type qnode[T any] struct {
	value T
	next  atomic.Pointer[qnode[T]]
}

// LockFreeQ is an unbounded FIFO for many producers and a single consumer. Enqueue may be
// called from any goroutine. Dequeue and IsEmpty belong to the one consuming goroutine.
type LockFreeQ[T any] struct {
	// head is a sentinel, the first queued value is head.next
	head   *qnode[T]
	tail   atomic.Pointer[qnode[T]]
	length atomic.Int64
}

func NewLockFreeQ[T any]() *LockFreeQ[T] {
	q := &LockFreeQ[T]{head: &qnode[T]{}}
	q.tail.Store(q.head)

	return q
}

func (q *LockFreeQ[T]) Enqueue(v T) {
	n := &qnode[T]{value: v}

	q.length.Add(1)
	q.tail.Swap(n).next.Store(n)
}

// Dequeue returns the oldest value, or false when nothing is linked in yet.
func (q *LockFreeQ[T]) Dequeue() (T, bool) {
	next := q.head.next.Load()
	if next == nil {
		var zero T
		return zero, false
	}

	value := next.value

	// the dequeued node becomes the new sentinel; drop its value so it can be collected
	var zero T
	next.value = zero
	q.head = next

	q.length.Add(-1)

	return value, true
}

func (q *LockFreeQ[T]) IsEmpty() bool {
	return q.head.next.Load() == nil
}

// Length is approximate while producers are enqueueing.
func (q *LockFreeQ[T]) Length() int64 {
	return q.length.Load()
}
