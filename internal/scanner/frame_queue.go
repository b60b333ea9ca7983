package scanner

import (
	"qrmanager/internal/models"
	"time"
)

// frameQueue is the bounded hand-off between the producer and the decode
// workers. Closing it tells the workers no more frames are coming.
type frameQueue struct {
	ch chan *models.Frame
}

func newFrameQueue(size int) *frameQueue {
	return &frameQueue{ch: make(chan *models.Frame, size)}
}

// Put blocks for at most timeout waiting for free capacity.
func (q *frameQueue) Put(frame *models.Frame, timeout time.Duration) bool {
	select {
	case q.ch <- frame:
		return true
	default:
	}
	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case q.ch <- frame:
		return true
	case <-timer.C:
		return false
	}
}

func (q *frameQueue) Frames() <-chan *models.Frame {
	return q.ch
}

func (q *frameQueue) Len() int {
	return len(q.ch)
}

// Close must be called by the producer only, once.
func (q *frameQueue) Close() {
	close(q.ch)
}
