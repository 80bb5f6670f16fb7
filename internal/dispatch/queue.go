package dispatch

import (
	"sync"

	"github.com/TimelordUK/mtail/internal/tail"
)

// fileQueue is a FIFO of files holding each file at most once
type fileQueue struct {
	mu     sync.Mutex
	items  []*tail.File
	queued map[*tail.File]struct{}
}

func newFileQueue() *fileQueue {
	return &fileQueue{queued: make(map[*tail.File]struct{})}
}

func (q *fileQueue) add(f *tail.File) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.queued[f]; ok {
		return false
	}
	q.queued[f] = struct{}{}
	q.items = append(q.items, f)
	return true
}

func (q *fileQueue) next() (*tail.File, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	f := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	delete(q.queued, f)
	return f, true
}

func (q *fileQueue) remove(f *tail.File) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.queued[f]; !ok {
		return
	}
	delete(q.queued, f)
	for i, it := range q.items {
		if it == f {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

func (q *fileQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// queues holds files announced by notifications and by sweeps
type queues struct {
	push *fileQueue
	poll *fileQueue
}

func newQueues() queues {
	return queues{push: newFileQueue(), poll: newFileQueue()}
}
