package message

import "sync"

// Queue is a FIFO of messages shared between producers on any goroutine and
// the single consumer running on the designated thread.
type Queue struct {
	mu    sync.Mutex
	items []Message
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends msg to the tail.
func (q *Queue) Push(msg Message) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
}

// Drain removes and returns every queued message in insertion order.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// Len reports the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Count reports how many queued messages have tag at their head.
func (q *Queue) Count(tag Tag) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, m := range q.items {
		if m.Tag == tag {
			n++
		}
	}
	return n
}
