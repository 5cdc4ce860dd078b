// Package arena provides a paged slot allocator with a free list.
//
// Slots are addressed by index, never by pointer, so a handle stays valid
// across any number of alloc/free cycles. Pages are fixed-size once the
// first slot is claimed, which also means a *T obtained from Alloc or Get
// stays valid while the slot is live, no matter how much the slab grows.
package arena

import "fmt"

const defaultPageSize = 256

// Slab allocates slots of T. The zero Slab is ready to use.
type Slab[T any] struct {
	// PageSize specifies the length for newly allocated pages; it is
	// frozen at its current value (or a default) on first allocation.
	PageSize uint

	// Limit caps the total number of slots ever handed out; 0 means no
	// limit. Freed slots do not count against it twice.
	Limit uint

	size  uint
	pages [][]slot[T]
	free  []uint
	used  uint
	next  uint
}

type slot[T any] struct {
	used bool
	val  T
}

// LimitError indicates that an allocation would exceed the slab's Limit.
type LimitError struct {
	Size uint
}

func (lim LimitError) Error() string {
	return fmt.Sprintf("arena limit exceeded at %v slots", lim.Size)
}

// Alloc claims a slot, preferring to reuse a freed one, and returns its
// index along with a pointer to the (zeroed) slot value. Indexes start at
// 1 so that callers may use 0 as a null handle.
func (sl *Slab[T]) Alloc() (uint, *T, error) {
	if n := len(sl.free); n > 0 {
		id := sl.free[n-1]
		sl.free = sl.free[:n-1]
		s := sl.slot(id)
		s.used = true
		sl.used++
		return id, &s.val, nil
	}

	if maxSize := sl.Limit; maxSize != 0 && sl.next >= maxSize {
		return 0, nil, LimitError{sl.next + 1}
	}

	if sl.size == 0 {
		if sl.size = sl.PageSize; sl.size == 0 {
			sl.size = defaultPageSize
		}
	}

	sl.next++
	id := sl.next
	for pageID := (id - 1) / sl.size; pageID >= uint(len(sl.pages)); {
		sl.pages = append(sl.pages, make([]slot[T], sl.size))
	}

	s := sl.slot(id)
	s.used = true
	sl.used++
	return id, &s.val, nil
}

// Get returns a pointer to the value in a live slot, or nil if id is 0,
// out of range, or freed.
func (sl *Slab[T]) Get(id uint) *T {
	s := sl.slot(id)
	if s == nil || !s.used {
		return nil
	}
	return &s.val
}

// Free releases a slot back to the free list, zeroing its value. Freeing
// an unknown or already-free slot is a no-op.
func (sl *Slab[T]) Free(id uint) {
	s := sl.slot(id)
	if s == nil || !s.used {
		return
	}
	var zero T
	s.val = zero
	s.used = false
	sl.used--
	sl.free = append(sl.free, id)
}

// Each calls fn for every live slot in ascending index order. fn must not
// allocate from or free into the slab.
func (sl *Slab[T]) Each(fn func(id uint, val *T)) {
	for id := uint(1); id <= sl.next; id++ {
		if s := sl.slot(id); s.used {
			fn(id, &s.val)
		}
	}
}

// Len returns the number of live slots.
func (sl *Slab[T]) Len() int { return int(sl.used) }

// Cap returns the highest index ever allocated.
func (sl *Slab[T]) Cap() uint { return sl.next }

func (sl *Slab[T]) slot(id uint) *slot[T] {
	if id == 0 || id > sl.next {
		return nil
	}
	i := id - 1
	return &sl.pages[i/sl.size][i%sl.size]
}
