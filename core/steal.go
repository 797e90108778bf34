package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultLocalQueueCap = 16

	// MaxStealBatch caps how many units a single steal moves at once.
	MaxStealBatch = 32
)

// Steal is the outcome of a steal attempt against a queue.
type Steal int

const (
	// StealEmpty: the source had nothing to give.
	StealEmpty Steal = iota

	// StealSuccess: a unit was taken.
	StealSuccess

	// StealRetry: the source was contended; the caller should try again.
	StealRetry
)

func (s Steal) String() string {
	switch s {
	case StealEmpty:
		return "empty"
	case StealSuccess:
		return "success"
	case StealRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// UnitID identifies one queued residency of a task. A task that is
// re-enqueued gets a new unit, and therefore a new ID.
type UnitID = uuid.UUID

// SchedUnit is the wrapper a task travels in while it sits in a queue.
type SchedUnit[T any] struct {
	ID         UnitID
	Task       T
	EnqueuedAt time.Time
}

// NewSchedUnit wraps task in a fresh unit.
func NewSchedUnit[T any](task T) SchedUnit[T] {
	return SchedUnit[T]{
		ID:         uuid.New(),
		Task:       task,
		EnqueuedAt: time.Now(),
	}
}

// =============================================================================
// LocalQueue: per-worker FIFO
// =============================================================================

// LocalQueue is the queue owned by one worker. The owner pushes and pops;
// idle peers may take half of it with StealHalf.
type LocalQueue[T any] struct {
	mu    sync.Mutex
	units []SchedUnit[T]
}

func NewLocalQueue[T any]() *LocalQueue[T] {
	return &LocalQueue[T]{
		units: make([]SchedUnit[T], 0, defaultLocalQueueCap),
	}
}

func (q *LocalQueue[T]) Push(unit SchedUnit[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.units = append(q.units, unit)
}

// PushBatch appends units in order.
func (q *LocalQueue[T]) PushBatch(units []SchedUnit[T]) {
	if len(units) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.units = append(q.units, units...)
}

func (q *LocalQueue[T]) Pop() (SchedUnit[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.units) == 0 {
		return SchedUnit[T]{}, false
	}

	unit := q.units[0]
	var zero SchedUnit[T]
	q.units[0] = zero
	q.units = q.units[1:]
	if len(q.units) == 0 {
		q.units = make([]SchedUnit[T], 0, defaultLocalQueueCap)
	}
	return unit, true
}

// StealHalf moves the older half of q (rounded up, capped at MaxStealBatch)
// into dst and pops one of the moved units for the caller.
func (q *LocalQueue[T]) StealHalf(dst *LocalQueue[T]) (SchedUnit[T], Steal) {
	if q == dst {
		return SchedUnit[T]{}, StealEmpty
	}
	if !q.mu.TryLock() {
		return SchedUnit[T]{}, StealRetry
	}
	n := stealCount(len(q.units))
	if n == 0 {
		q.mu.Unlock()
		return SchedUnit[T]{}, StealEmpty
	}
	batch := make([]SchedUnit[T], n)
	copy(batch, q.units[:n])
	var zero SchedUnit[T]
	for i := range n {
		q.units[i] = zero
	}
	q.units = q.units[n:]
	q.mu.Unlock()

	dst.PushBatch(batch[1:])
	return batch[0], StealSuccess
}

func (q *LocalQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.units)
}

func (q *LocalQueue[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Clear drops every unit so task references can be released.
func (q *LocalQueue[T]) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.units)
	q.units = make([]SchedUnit[T], 0, defaultLocalQueueCap)
	return n
}

// stealCount is half of n rounded up, capped at MaxStealBatch.
func stealCount(n int) int {
	if n <= 0 {
		return 0
	}
	return min((n+1)/2, MaxStealBatch)
}
