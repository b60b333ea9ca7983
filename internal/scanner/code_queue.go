package scanner

import (
	"sync"

	"github.com/eapache/queue"
)

// codeQueue is an unbounded FIFO of confirmed codes with a single consumer.
// Put never blocks; Take blocks until a code is available or the queue is
// closed and drained.
type codeQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  *queue.Queue
	closed bool
}

func newCodeQueue() *codeQueue {
	q := &codeQueue{items: queue.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put reports false if the queue has already been closed.
func (q *codeQueue) Put(code string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items.Add(code)
	q.cond.Signal()
	return true
}

func (q *codeQueue) Take() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Length() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.items.Length() == 0 {
		return "", false
	}
	return q.items.Remove().(string), true
}

func (q *codeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

func (q *codeQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
