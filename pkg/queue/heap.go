package queue

// itemHeap is a min-heap ordered by NotBefore, ties broken by submission order
type itemHeap []*Item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].NotBefore.Equal(h[j].NotBefore) {
		return h[i].seq < h[j].seq
	}
	return h[i].NotBefore.Before(h[j].NotBefore)
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) {
	*h = append(*h, x.(*Item))
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
