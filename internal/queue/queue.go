// Package queue provides the priority-ordered waiting line shared by the
// admission controller and the task scheduler.
//
// Items are kept sorted by ascending priority value. Within a priority tier
// items keep their insertion order, so the queue is stable. An id can be held
// at most once.
//
// Queue is not safe for concurrent use. Its owners already serialise their own
// compound operations (pop, inspect, push back) under a single mutex, and the
// queue relies on that lock.
package queue

import (
	"errors"
	"slices"
	"sort"

	"github.com/phrazzld/coursegen/internal/domain"
)

// ErrDuplicateID is returned when an item with the same id is already queued.
var ErrDuplicateID = errors.New("item with this id is already queued")

// Item is anything that can wait in a Queue.
type Item interface {
	// QueueID returns the unique identifier of the item.
	QueueID() string

	// QueuePriority returns the item's priority; lower values drain first.
	QueuePriority() domain.Priority
}

type entry[T Item] struct {
	item     T
	priority domain.Priority
	seq      int64
}

func (e entry[T]) before(o entry[T]) bool {
	if e.priority != o.priority {
		return e.priority < o.priority
	}
	return e.seq < o.seq
}

// Queue is a stable priority queue of unique items.
type Queue[T Item] struct {
	entries []entry[T]
	ids     map[string]struct{}

	// backSeq grows for Push, frontSeq shrinks for PushFront, so an item
	// pushed to the front sorts ahead of every existing item of its tier.
	backSeq  int64
	frontSeq int64
}

// New creates an empty queue.
func New[T Item]() *Queue[T] {
	return &Queue[T]{
		ids:      make(map[string]struct{}),
		frontSeq: -1,
	}
}

// Push inserts item behind every queued item of the same or higher priority.
func (q *Queue[T]) Push(item T) error {
	if err := q.claim(item); err != nil {
		return err
	}
	q.insert(entry[T]{item: item, priority: item.QueuePriority(), seq: q.backSeq})
	q.backSeq++
	return nil
}

// PushFront inserts item ahead of every queued item of its priority tier. It
// is used to return a just-popped head that could not be served yet.
func (q *Queue[T]) PushFront(item T) error {
	if err := q.claim(item); err != nil {
		return err
	}
	q.insert(entry[T]{item: item, priority: item.QueuePriority(), seq: q.frontSeq})
	q.frontSeq--
	return nil
}

func (q *Queue[T]) claim(item T) error {
	id := item.QueueID()
	if _, exists := q.ids[id]; exists {
		return ErrDuplicateID
	}
	q.ids[id] = struct{}{}
	return nil
}

func (q *Queue[T]) insert(e entry[T]) {
	i := sort.Search(len(q.entries), func(i int) bool {
		return e.before(q.entries[i])
	})
	q.entries = slices.Insert(q.entries, i, e)
}

// Pop removes and returns the head of the queue.
func (q *Queue[T]) Pop() (T, bool) {
	if len(q.entries) == 0 {
		var zero T
		return zero, false
	}
	return q.removeAt(0), true
}

// Peek returns the head of the queue without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if len(q.entries) == 0 {
		var zero T
		return zero, false
	}
	return q.entries[0].item, true
}

// Remove deletes the item with the given id.
func (q *Queue[T]) Remove(id string) (T, bool) {
	i := q.indexOf(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	return q.removeAt(i), true
}

// First returns the earliest item in queue order for which match is true.
func (q *Queue[T]) First(match func(T) bool) (T, bool) {
	for _, e := range q.entries {
		if match(e.item) {
			return e.item, true
		}
	}
	var zero T
	return zero, false
}

// Position returns the 1-based position of id, or 0 when it is not queued.
func (q *Queue[T]) Position(id string) int {
	return q.indexOf(id) + 1
}

// Contains reports whether id is queued.
func (q *Queue[T]) Contains(id string) bool {
	_, ok := q.ids[id]
	return ok
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.entries)
}

// Items returns the queued items in drain order.
func (q *Queue[T]) Items() []T {
	out := make([]T, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.item
	}
	return out
}

func (q *Queue[T]) indexOf(id string) int {
	if _, ok := q.ids[id]; !ok {
		return -1
	}
	for i, e := range q.entries {
		if e.item.QueueID() == id {
			return i
		}
	}
	return -1
}

func (q *Queue[T]) removeAt(i int) T {
	item := q.entries[i].item
	q.entries = slices.Delete(q.entries, i, i+1)
	delete(q.ids, item.QueueID())
	return item
}
