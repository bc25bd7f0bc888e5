package graph

import "container/heap"

// queueItem carries the push sequence used to break ties between equal totals.
type queueItem struct {
	path Path
	seq  uint64
}

// pathHeap is a max-heap on path total. Equal totals pop in push order,
// which makes search results reproducible.
type pathHeap []queueItem

func (h pathHeap) Len() int { return len(h) }

func (h pathHeap) Less(i, j int) bool {
	if c := h[i].path.total.Cmp(&h[j].path.total); c != 0 {
		return c > 0
	}
	return h[i].seq < h[j].seq
}

func (h pathHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *pathHeap) Push(x any) {
	*h = append(*h, x.(queueItem))
}

func (h *pathHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = queueItem{}
	*h = old[:n-1]
	return item
}

// pathQueue wraps pathHeap with a monotonically increasing push counter.
type pathQueue struct {
	items pathHeap
	seq   uint64
}

func newPathQueue(capacity int) *pathQueue {
	return &pathQueue{items: make(pathHeap, 0, capacity)}
}

func (q *pathQueue) Len() int { return q.items.Len() }

func (q *pathQueue) push(p Path) {
	heap.Push(&q.items, queueItem{path: p, seq: q.seq})
	q.seq++
}

func (q *pathQueue) pop() Path {
	return heap.Pop(&q.items).(queueItem).path
}

// peek returns the path that pop would return next. The queue must not be empty.
func (q *pathQueue) peek() Path {
	return q.items[0].path
}
