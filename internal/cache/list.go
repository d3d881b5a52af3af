package cache

// nilHandle marks the absence of a neighbour in the recency list.
const nilHandle int32 = -1

type entry[K comparable, V any] struct {
	key   K
	value V

	prev, next int32
}

// recencyList is a doubly linked list of entries kept in a slice arena.
// Head is the most recently used entry, tail the least recently used one.
//
// A handle returned by pushFront addresses the same entry until that entry
// is removed, no matter how other entries are pushed, moved or removed.
// Slots of removed entries are recycled through the free list.
type recencyList[K comparable, V any] struct {
	slots []entry[K, V]
	free  []int32
	head  int32
	tail  int32
	n     int
}

func newRecencyList[K comparable, V any](sizeHint int) *recencyList[K, V] {
	return &recencyList[K, V]{
		slots: make([]entry[K, V], 0, min(sizeHint, 1<<10)),
		head:  nilHandle,
		tail:  nilHandle,
	}
}

func (l *recencyList[K, V]) len() int { return l.n }

func (l *recencyList[K, V]) at(h int32) *entry[K, V] { return &l.slots[h] }

func (l *recencyList[K, V]) back() int32 { return l.tail }

func (l *recencyList[K, V]) pushFront(key K, value V) int32 {
	e := entry[K, V]{key: key, value: value, prev: nilHandle, next: l.head}

	var h int32
	if n := len(l.free); n > 0 {
		h = l.free[n-1]
		l.free = l.free[:n-1]
		l.slots[h] = e
	} else {
		h = int32(len(l.slots))
		l.slots = append(l.slots, e)
	}

	if l.head != nilHandle {
		l.slots[l.head].prev = h
	} else {
		l.tail = h
	}
	l.head = h
	l.n++
	return h
}

func (l *recencyList[K, V]) moveToFront(h int32) {
	if h == l.head {
		return
	}
	l.unlink(h)

	e := &l.slots[h]
	e.next = l.head
	if l.head != nilHandle {
		l.slots[l.head].prev = h
	} else {
		l.tail = h
	}
	l.head = h
}

// remove unlinks the entry, frees its slot and returns what it held.
func (l *recencyList[K, V]) remove(h int32) (K, V) {
	l.unlink(h)

	e := l.slots[h]
	l.slots[h] = entry[K, V]{prev: nilHandle, next: nilHandle}
	l.free = append(l.free, h)
	l.n--
	return e.key, e.value
}

func (l *recencyList[K, V]) unlink(h int32) {
	e := &l.slots[h]
	if e.prev != nilHandle {
		l.slots[e.prev].next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nilHandle {
		l.slots[e.next].prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev, e.next = nilHandle, nilHandle
}

// each walks the list from the most to the least recently used entry.
// Iteration stops when fn returns false.
func (l *recencyList[K, V]) each(fn func(h int32, e *entry[K, V]) bool) {
	for h := l.head; h != nilHandle; {
		e := &l.slots[h]
		next := e.next
		if !fn(h, e) {
			return
		}
		h = next
	}
}

func (l *recencyList[K, V]) reset() {
	clear(l.slots)
	l.slots = l.slots[:0]
	l.free = l.free[:0]
	l.head, l.tail = nilHandle, nilHandle
	l.n = 0
}
