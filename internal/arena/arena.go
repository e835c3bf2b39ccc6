// Package arena stores cache entries in a flat slot pool and links them into
// intrusive doubly linked lists by slot index instead of by pointer.
//
// A slot is either live (owned by exactly one List) or on the free list.
// Every method must be called with the owning cache's lock held.
package arena

import (
	"errors"
	"fmt"
)

// Nil is the index sentinel for "no slot".
const Nil int32 = -1

// ErrCorrupt reports a structural misuse of the arena (double free, unlink of
// a free slot, ...). It always indicates a bug in the caller.
var ErrCorrupt = errors.New("arena: corrupt slot links")

type slot[T any] struct {
	val  T
	prev int32
	next int32 // doubles as the free-list link when the slot is free
	live bool
}

// Arena is a growable pool of T with O(1) allocation and release.
type Arena[T any] struct {
	slots []slot[T]
	free  int32 // head of the free list
	live  int
}

// List is an index-linked list threaded through an Arena.
// The zero value is not usable; call NewList.
type List struct {
	head int32
	tail int32
	n    int
}

// NewList returns an empty list.
func NewList() List { return List{head: Nil, tail: Nil} }

// Len returns the number of slots linked into l.
func (l *List) Len() int { return l.n }

// Front returns the first slot or Nil.
func (l *List) Front() int32 { return l.head }

// Back returns the last slot or Nil.
func (l *List) Back() int32 { return l.tail }

// New allocates an arena with room for capacity slots before it grows.
func New[T any](capacity int) *Arena[T] {
	return &Arena[T]{slots: make([]slot[T], 0, capacity), free: Nil}
}

// Alloc stores v in a free slot and returns its index.
// The slot is unlinked; link it with PushFront or PushBack.
func (a *Arena[T]) Alloc(v T) int32 {
	var i int32
	if a.free != Nil {
		i = a.free
		a.free = a.slots[i].next
	} else {
		a.slots = append(a.slots, slot[T]{})
		i = int32(len(a.slots) - 1)
	}
	a.slots[i] = slot[T]{val: v, prev: Nil, next: Nil, live: true}
	a.live++
	return i
}

// Release returns slot i to the free list and zeroes its value so the
// arena does not pin the caller's keys and values. i must be unlinked.
func (a *Arena[T]) Release(i int32) {
	s := a.mustLive(i)
	if s.prev != Nil || s.next != Nil {
		panic(fmt.Errorf("%w: release of linked slot %d", ErrCorrupt, i))
	}
	*s = slot[T]{prev: Nil, next: a.free}
	a.free = i
	a.live--
}

// At returns a pointer to the value in slot i.
func (a *Arena[T]) At(i int32) *T { return &a.mustLive(i).val }

// Live reports whether i names an allocated slot.
func (a *Arena[T]) Live(i int32) bool {
	return i >= 0 && int(i) < len(a.slots) && a.slots[i].live
}

// Len returns the number of allocated slots.
func (a *Arena[T]) Len() int { return a.live }

// Next returns the slot after i in its list, or Nil.
func (a *Arena[T]) Next(i int32) int32 { return a.mustLive(i).next }

// Prev returns the slot before i in its list, or Nil.
func (a *Arena[T]) Prev(i int32) int32 { return a.mustLive(i).prev }

// Reset drops every slot. Lists threaded through the arena must be
// reinitialized by the caller.
func (a *Arena[T]) Reset() {
	clear(a.slots)
	a.slots = a.slots[:0]
	a.free = Nil
	a.live = 0
}

// PushFront links unlinked slot i at the head of l.
func (a *Arena[T]) PushFront(l *List, i int32) {
	s := a.mustLive(i)
	s.prev = Nil
	s.next = l.head
	if l.head != Nil {
		a.slots[l.head].prev = i
	}
	l.head = i
	if l.tail == Nil {
		l.tail = i
	}
	l.n++
}

// PushBack links unlinked slot i at the tail of l.
func (a *Arena[T]) PushBack(l *List, i int32) {
	s := a.mustLive(i)
	s.next = Nil
	s.prev = l.tail
	if l.tail != Nil {
		a.slots[l.tail].next = i
	}
	l.tail = i
	if l.head == Nil {
		l.head = i
	}
	l.n++
}

// Unlink detaches slot i from l. i must currently be linked into l.
func (a *Arena[T]) Unlink(l *List, i int32) {
	s := a.mustLive(i)
	if l.n == 0 {
		panic(fmt.Errorf("%w: unlink of slot %d from empty list", ErrCorrupt, i))
	}
	if s.prev != Nil {
		a.slots[s.prev].next = s.next
	} else {
		if l.head != i {
			panic(fmt.Errorf("%w: slot %d has no prev but is not head", ErrCorrupt, i))
		}
		l.head = s.next
	}
	if s.next != Nil {
		a.slots[s.next].prev = s.prev
	} else {
		if l.tail != i {
			panic(fmt.Errorf("%w: slot %d has no next but is not tail", ErrCorrupt, i))
		}
		l.tail = s.prev
	}
	s.prev, s.next = Nil, Nil
	l.n--
}

// MoveToFront promotes slot i, already linked into l, to the head.
func (a *Arena[T]) MoveToFront(l *List, i int32) {
	if l.head == i {
		return
	}
	a.Unlink(l, i)
	a.PushFront(l, i)
}

func (a *Arena[T]) mustLive(i int32) *slot[T] {
	if !a.Live(i) {
		panic(fmt.Errorf("%w: slot %d is not allocated", ErrCorrupt, i))
	}
	return &a.slots[i]
}
