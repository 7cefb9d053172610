package events

import "sync"

const defaultBufferCapacity = 1024

type message struct {
	Kind    string
	Subject string
	Data    []byte
}

// buffer is a bounded FIFO. When full the oldest message is dropped so a
// stalled writer never grows memory without limit.
type buffer struct {
	lock     sync.Mutex
	items    []*message
	start    int
	size     int
	dropped  int
	capacity int
}

func newBuffer(capacity int) *buffer {
	if capacity <= 0 {
		capacity = defaultBufferCapacity
	}
	return &buffer{items: make([]*message, capacity), capacity: capacity}
}

// PushBack queues msg and reports whether an older message had to be dropped.
func (b *buffer) PushBack(msg *message) bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	dropped := false
	if b.size == b.capacity {
		b.items[b.start] = nil
		b.start = (b.start + 1) % b.capacity
		b.size--
		b.dropped++
		dropped = true
	}
	b.items[(b.start+b.size)%b.capacity] = msg
	b.size++
	return dropped
}

func (b *buffer) Pop() *message {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.size == 0 {
		return nil
	}
	msg := b.items[b.start]
	b.items[b.start] = nil
	b.start = (b.start + 1) % b.capacity
	b.size--
	return msg
}

func (b *buffer) Size() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.size
}

func (b *buffer) Dropped() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.dropped
}
