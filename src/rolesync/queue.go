package rolesync

import (
	"sync"

	"github.com/gammazero/deque"
)

// BlockQueue decouples the stream consumer from reconciliation so slow
// external calls never block chain event intake. One instance per network,
// drained by a single loop, which keeps chunks of one network strictly
// ordered.
type BlockQueue struct {
	mtx   sync.Mutex
	queue deque.Deque[*BlockChunk]
}

func NewBlockQueue() *BlockQueue {
	return new(BlockQueue)
}

func (self *BlockQueue) Enqueue(chunk *BlockChunk) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.queue.PushBack(chunk)
}

func (self *BlockQueue) Dequeue() (chunk *BlockChunk, ok bool) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.queue.Len() == 0 {
		return nil, false
	}
	return self.queue.PopFront(), true
}

func (self *BlockQueue) Len() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.queue.Len()
}
