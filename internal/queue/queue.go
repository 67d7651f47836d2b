// Package queue provides a bounded buffered queue for events with backpressure support
package queue

import (
	"context"
	"sync"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/obs"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/types"
)

// Queue is a bounded buffer of raw SNS envelope events between the consumer
// and the worker pool. When the queue is full, Enqueue blocks, providing backpressure.
type Queue struct {
	events  chan *types.Event
	done    chan struct{}
	size    int
	metrics *obs.Metrics

	// mu is held for reading while sending so Close never closes events
	// under a blocked sender.
	mu       sync.RWMutex
	closed   bool
	doneOnce sync.Once
}

// NewQueue creates a new Queue with the specified buffer size
func NewQueue(size int, metrics *obs.Metrics) *Queue {
	q := &Queue{
		events:  make(chan *types.Event, size),
		done:    make(chan struct{}),
		size:    size,
		metrics: metrics,
	}

	if metrics != nil {
		metrics.NullifyQueueDepth()
	}

	return q
}

// Enqueue adds an event to the queue, blocking while it is full.
// Returns ErrQueueClosed after Close, or the context error if ctx ends first.
func (q *Queue) Enqueue(ctx context.Context, event *types.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.events <- event:
		if q.metrics != nil {
			q.metrics.IncrementQueueDepth()
			q.metrics.IncrementEventsIngested()
		}
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue removes and returns an event from the queue, blocking while it is empty.
// Events buffered before Close are still handed out; afterwards ErrQueueClosed is returned.
func (q *Queue) Dequeue(ctx context.Context) (*types.Event, error) {
	select {
	case event, ok := <-q.events:
		if !ok {
			return nil, ErrQueueClosed
		}
		if q.metrics != nil {
			q.metrics.DecrementQueueDepth()
		}
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Depth returns the current number of events in the queue
func (q *Queue) Depth() int {
	return len(q.events)
}

// Capacity returns the configured buffer size
func (q *Queue) Capacity() int {
	return q.size
}

// Close stops accepting events. Blocked Enqueue calls return ErrQueueClosed.
// It is safe to call Close more than once.
func (q *Queue) Close() {
	// Wake blocked senders first; they hold mu for reading.
	q.doneOnce.Do(func() { close(q.done) })

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.events)
}

// Errors
var (
	ErrQueueClosed = &QueueError{msg: "queue is closed"}
)

// QueueError represents a queue operation error
type QueueError struct {
	msg string
}

func (e *QueueError) Error() string {
	return e.msg
}
