package list

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrPoisoned is the panic value raised when acquiring a slot whose previous
// holder panicked while holding it. The list is in an undefined state at that
// point and the process should be treated as broken.
var ErrPoisoned = errors.New("list: slot lock poisoned by a panicking holder")

var errSharedSlot = errors.New("list: removed node's next slot is still referenced by another cursor")

// slot is a lockable cell holding an optional node. The list head is a slot,
// and so is every node's next.
type slot[T any] struct {
	mu   sync.Mutex
	node *node[T]

	// refs counts cursors that have taken a reference to this slot,
	// whether or not they got the lock yet
	refs     atomic.Int32
	poisoned atomic.Bool
}

type node[T any] struct {
	val  T
	next *slot[T]
}

func newSlot[T any](n *node[T]) *slot[T] {
	return &slot[T]{node: n}
}

// Guard is a held lock on one slot of a List. It is returned by Find and
// FindFunc so that the caller can act on the located position before any
// other goroutine restructures it. Release must be called exactly when the
// caller is done; defer it.
type Guard[T any] struct {
	s        *slot[T]
	released bool
}

// acquire takes a reference to s and then its lock.
// The caller must already hold the lock of the slot s was read from.
func acquire[T any](s *slot[T]) *Guard[T] {
	s.refs.Add(1)
	s.mu.Lock()
	if s.poisoned.Load() {
		s.refs.Add(-1)
		s.mu.Unlock()
		panic(ErrPoisoned)
	}
	return &Guard[T]{s: s}
}

// Release unlocks the slot. It is safe on a nil guard and safe to call twice.
func (g *Guard[T]) Release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	g.s.refs.Add(-1)
	g.s.mu.Unlock()
}

// poison marks the slot unusable and unlocks it.
func (g *Guard[T]) poison() {
	if g == nil || g.released {
		return
	}
	g.s.poisoned.Store(true)
	g.Release()
}

func (g *Guard[T]) mustHold() {
	if g == nil || g.released {
		panic("guard is released")
	}
}

// Value returns the value of the node in the guarded slot, or false if the
// slot is empty.
func (g *Guard[T]) Value() (val T, ok bool) {
	g.mustHold()
	if g.s.node == nil {
		return val, false
	}
	return g.s.node.val, true
}

// Empty reports whether the guarded slot is the end of the chain.
func (g *Guard[T]) Empty() bool {
	g.mustHold()
	return g.s.node == nil
}

// Insert links a new node holding v at this position. Whatever the slot held
// before becomes the successor of the new node.
func (g *Guard[T]) Insert(v T) {
	g.mustHold()
	g.s.node = &node[T]{
		val:  v,
		next: newSlot(g.s.node),
	}
}
