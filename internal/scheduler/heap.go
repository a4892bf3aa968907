package scheduler

import (
	"container/heap"
	"time"

	"github.com/buttonpad/buttonpad/internal/button"
)

// taskKey orders the pending index: deadline first, then insertion sequence.
// seq is unique, so no two keys are equal.
type taskKey struct {
	deadline int64 // unix milliseconds
	seq      uint64
}

func (k taskKey) less(o taskKey) bool {
	if k.deadline != o.deadline {
		return k.deadline < o.deadline
	}
	return k.seq < o.seq
}

type task struct {
	name   string
	button button.Button
	action Action

	key    taskKey
	at     time.Time
	repeat int

	// index is the position in the heap, -1 while not queued.
	index     int
	cancelled bool
}

// taskHeap implements container/heap.Interface, earliest key first.
type taskHeap []*task

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].key.less(h[j].key) }

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// heapPush adds a task, maintaining the heap invariant.
func heapPush(h *taskHeap, t *task) {
	heap.Push(h, t)
}

// heapPop removes and returns the task with the smallest key.
// Panics if the heap is empty.
func heapPop(h *taskHeap) *task {
	return heap.Pop(h).(*task)
}

// heapRemove removes t if it is queued and reports whether it was.
func heapRemove(h *taskHeap, t *task) bool {
	if t.index < 0 || t.index >= len(*h) || (*h)[t.index] != t {
		return false
	}
	heap.Remove(h, t.index)
	return true
}
