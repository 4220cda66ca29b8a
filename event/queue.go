package event

import (
	"sync/atomic"
)

const (
	// QueueSize is the number of events held between two drains, a power of two
	QueueSize = 256
	queueMask = QueueSize - 1
)

// Queue hands mapped input from decoder goroutines to the goroutine that owns
// the pile. Any number of goroutines may Push; only one may Consume.
// A slow consumer loses the oldest input first, the newest QueueSize events
// are always kept.
type Queue struct {
	events [QueueSize]Event
	ready  [QueueSize]atomic.Bool // slot holds an event not yet drained
	head   atomic.Uint64          // next slot to drain
	tail   atomic.Uint64          // next slot to claim
}

// NewQueue returns an empty queue
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends ev without blocking
func (q *Queue) Push(ev Event) {
	for {
		claimed := q.tail.Load()
		if !q.tail.CompareAndSwap(claimed, claimed+1) {
			continue
		}
		slot := claimed & queueMask
		q.events[slot] = ev
		// The consumer only reads slots marked ready
		q.ready[slot].Store(true)

		// Full ring: drop the oldest event
		if head := q.head.Load(); claimed+1-head > QueueSize {
			q.head.CompareAndSwap(head, claimed+1-QueueSize)
		}
		return
	}
}

// PushRaw maps raw and pushes the result, dropping NoInput records
func (q *Queue) PushRaw(raw Raw) {
	ev := Map(raw)
	if !ev.IsReceived() {
		return
	}
	q.Push(ev)
}

// Consume drains the queue in arrival order, nil when empty
// Events claimed by a producer that has not finished writing stay for the next drain.
func (q *Queue) Consume() []Event {
	for {
		head, tail := q.head.Load(), q.tail.Load()
		if head == tail {
			return nil
		}
		pending := tail - head
		if pending > QueueSize {
			pending = QueueSize
			head = tail - QueueSize
		}

		out := make([]Event, 0, pending)
		for i := uint64(0); i < pending; i++ {
			slot := (head + i) & queueMask
			if !q.ready[slot].Load() {
				break
			}
			out = append(out, q.events[slot])
			q.ready[slot].Store(false)
		}

		if q.head.CompareAndSwap(head, head+uint64(len(out))) {
			if len(out) == 0 {
				return nil
			}
			return out
		}
	}
}

// Len returns the number of pending events, approximate while producers run
func (q *Queue) Len() int {
	head, tail := q.head.Load(), q.tail.Load()
	if tail <= head {
		return 0
	}
	return int(min(tail-head, QueueSize))
}
