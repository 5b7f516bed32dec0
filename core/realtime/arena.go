package realtime

import "container/list"

// arena keeps callbacks in registration order with O(1) add and remove by id.
// It is not safe for concurrent use.
type arena[T any] struct {
	next  uint64
	order *list.List
	index map[uint64]*list.Element
}

type arenaEntry[T any] struct {
	id uint64
	fn T
}

func newArena[T any]() *arena[T] {
	return &arena[T]{
		order: list.New(),
		index: make(map[uint64]*list.Element),
	}
}

func (a *arena[T]) add(fn T) uint64 {
	id := a.next
	a.next++
	a.index[id] = a.order.PushBack(arenaEntry[T]{id: id, fn: fn})
	return id
}

func (a *arena[T]) remove(id uint64) bool {
	el, ok := a.index[id]
	if !ok {
		return false
	}
	a.order.Remove(el)
	delete(a.index, id)
	return true
}

func (a *arena[T]) len() int {
	return len(a.index)
}

func (a *arena[T]) snapshot() []T {
	out := make([]T, 0, len(a.index))
	for el := a.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(arenaEntry[T]).fn)
	}
	return out
}

func (a *arena[T]) reset() {
	a.order.Init()
	clear(a.index)
}
