// Package list implements a singly linked list that is safe for concurrent
// use and locks per slot instead of per list.
//
// Every position in the chain, the head included, is a slot: a mutex around
// an optional node. Traversals use lock coupling (the lock on the next slot is
// taken before the lock on the current one is dropped) and always move from
// head to tail, so no goroutine ever waits for a lock behind one it holds.
//
// A panic raised while an operation holds slot locks poisons those slots. Any
// later attempt to lock a poisoned slot panics with ErrPoisoned; there is no
// recovery from that state.
package list

// Consumer is called for each value during ForEach, with its position from
// the head. Returning false stops the walk.
type Consumer[T any] func(i int, v T) bool

// Expected reports whether v is the value being looked for.
type Expected[T any] func(v T) bool

// List is a concurrent singly linked list. The zero value is an empty list.
// A List must not be copied after first use.
type List[T any] struct {
	head slot[T]
}

// New returns an empty list.
func New[T any]() *List[T] {
	return &List[T]{}
}

// NewFrom returns a list holding the single value v.
func NewFrom[T any](v T) *List[T] {
	l := &List[T]{}
	l.head.node = &node[T]{val: v, next: newSlot[T](nil)}
	return l
}

// NewFromTwo returns the list head -> tail.
func NewFromTwo[T any](head, tail T) *List[T] {
	l := &List[T]{}
	t := &node[T]{val: tail, next: newSlot[T](nil)}
	l.head.node = &node[T]{val: head, next: newSlot(t)}
	return l
}

// Make returns a list holding vals, vals[0] at the head.
func Make[T any](vals ...T) *List[T] {
	l := New[T]()
	for i := len(vals) - 1; i >= 0; i-- {
		l.Push(vals[i])
	}
	return l
}

// unwind releases guards still held by an operation. When r is a recovered
// panic the guards are poisoned instead and the panic is resumed.
func unwind[T any](r interface{}, guards ...*Guard[T]) {
	if r == nil {
		for _, g := range guards {
			g.Release()
		}
		return
	}
	for _, g := range guards {
		g.poison()
	}
	panic(r)
}

// Push makes item the new head of the list.
//
// Pushes issued by one goroutine come back out of RemoveOne newest first.
// Pushes from different goroutines land in whatever order the scheduler
// grants the head lock.
func (l *List[T]) Push(item T) {
	if l == nil {
		panic("list is nil")
	}
	head := acquire(&l.head)
	defer func() { unwind(recover(), head) }()
	head.Insert(item)
}

// RemoveOne unlinks the head node and returns its value. It returns false if
// the list was empty when the head lock was taken.
func (l *List[T]) RemoveOne() (val T, ok bool) {
	if l == nil {
		panic("list is nil")
	}
	head := acquire(&l.head)
	var succ *Guard[T]
	defer func() { unwind(recover(), succ, head) }()

	n := head.s.node
	if n == nil {
		return val, false
	}
	head.s.node = nil

	// Nobody can reach n.next without passing through the head, which we
	// hold. Once we also own its lock, ours must be the only reference.
	succ = acquire(n.next)
	if succ.s.refs.Load() != 1 {
		panic(errSharedSlot)
	}
	head.s.node, succ.s.node = succ.s.node, nil
	return n.val, true
}

// FindFunc walks the list until expected matches and returns the matching
// position as cur, with the position before it as prev (nil at the head).
//
// Both guards are returned locked; the caller must Release them. While they
// are held, no other goroutine can push, pop or traverse past them, so the
// caller must not call back into the list from the same goroutine.
//
// When nothing matches, ok is false and cur is the last node reached (and
// prev the one before it). On an empty list cur is the empty head slot, which
// can still be used to Insert.
func (l *List[T]) FindFunc(expected Expected[T]) (prev, cur *Guard[T], ok bool) {
	if l == nil {
		panic("list is nil")
	}
	var probe *Guard[T]
	cur = acquire(&l.head)
	defer func() {
		if r := recover(); r != nil {
			probe.poison()
			cur.poison()
			prev.poison()
			panic(r)
		}
	}()

	for {
		n := cur.s.node
		if n == nil {
			return prev, cur, false
		}
		if expected(n.val) {
			return prev, cur, true
		}
		probe = acquire(n.next)
		if probe.s.node == nil {
			probe.Release()
			return prev, cur, false
		}
		prev.Release()
		prev, cur, probe = cur, probe, nil
	}
}

// Find is FindFunc matching by ==.
func Find[T comparable](l *List[T], target T) (prev, cur *Guard[T], ok bool) {
	return l.FindFunc(func(v T) bool {
		return v == target
	})
}

// ForEach visits values from head to tail, holding the lock of the visited
// slot while consumer runs. consumer must not modify the list.
//
// The walk is not a snapshot: a value pushed after the walk has started is
// not seen, and a value popped behind the cursor is still reported.
func (l *List[T]) ForEach(consumer Consumer[T]) {
	if l == nil {
		panic("list is nil")
	}
	cur := acquire(&l.head)
	defer func() { unwind(recover(), cur) }()

	for i := 0; ; i++ {
		n := cur.s.node
		if n == nil || !consumer(i, n.val) {
			return
		}
		next := acquire(n.next)
		cur.Release()
		cur = next
	}
}

// ContainsFunc reports whether some visited value satisfies expected.
//
// A false result only means no node seen during this walk matched. A
// concurrent Push can add a match at the head after the cursor has moved on.
func (l *List[T]) ContainsFunc(expected Expected[T]) bool {
	contains := false
	l.ForEach(func(i int, v T) bool {
		if expected(v) {
			contains = true
			return false
		}
		return true
	})
	return contains
}

// Contains is ContainsFunc matching by ==.
func Contains[T comparable](l *List[T], target T) bool {
	return l.ContainsFunc(func(v T) bool {
		return v == target
	})
}

// Len returns the number of nodes counted during one ForEach walk.
func (l *List[T]) Len() int {
	size := 0
	l.ForEach(func(i int, v T) bool {
		size++
		return true
	})
	return size
}
