package consumer

import "sync"

type partitionKey struct {
	topic     string
	partition int
}

// offsetTracker releases offsets for commit in fetch order. Workers finish
// out of order, and committing offset N+1 also acknowledges N, so an offset
// is only released once every offset fetched before it on the same
// partition is done.
type offsetTracker struct {
	mu         sync.Mutex
	partitions map[partitionKey]*partitionOffsets
}

type partitionOffsets struct {
	// pending holds fetched offsets in fetch order; done marks finished ones.
	pending []int64
	done    map[int64]bool
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{partitions: make(map[partitionKey]*partitionOffsets)}
}

// track records a fetched offset. An offset at or below the last tracked one
// means the partition was rewound (rebalance or restart), so earlier state is
// discarded.
func (t *offsetTracker) track(topic string, partition int, offset int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := partitionKey{topic, partition}
	p := t.partitions[key]
	if p == nil || (len(p.pending) > 0 && offset <= p.pending[len(p.pending)-1]) {
		p = &partitionOffsets{done: make(map[int64]bool)}
		t.partitions[key] = p
	}
	p.pending = append(p.pending, offset)
}

// untrack forgets an offset that will never be finished, such as one that
// could not be enqueued.
func (t *offsetTracker) untrack(topic string, partition int, offset int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.partitions[partitionKey{topic, partition}]
	if p == nil {
		return
	}
	for i, o := range p.pending {
		if o == offset {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			break
		}
	}
}

// finish marks offset done and calls release with the highest offset that
// is now safe to commit, if any. release runs under the tracker lock so
// released offsets reach the commit loop in increasing order.
func (t *offsetTracker) finish(topic string, partition int, offset int64, release func(offset int64)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.partitions[partitionKey{topic, partition}]
	if p == nil {
		return
	}
	p.done[offset] = true

	released, ok := int64(0), false
	for len(p.pending) > 0 && p.done[p.pending[0]] {
		released, ok = p.pending[0], true
		delete(p.done, p.pending[0])
		p.pending = p.pending[1:]
	}
	if ok {
		release(released)
	}
}

// inFlight returns how many fetched offsets of a partition are not yet released.
func (t *offsetTracker) inFlight(topic string, partition int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p := t.partitions[partitionKey{topic, partition}]; p != nil {
		return len(p.pending)
	}
	return 0
}
