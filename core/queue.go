package core

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// GlobalQueue is the shared store every worker pulls from. Implementations
// decide the scheduling policy (single FIFO, sharded, priority, ...); the
// runners never look behind this interface.
//
// Implementations must be safe for concurrent producers and consumers.
type GlobalQueue[T any] interface {
	// Push enqueues unit. A non-nil error means the unit was not accepted;
	// the pool reports it as rejected and drops it.
	Push(unit SchedUnit[T]) error

	// StealBatchAndPop moves a batch of pending units into local and returns
	// one of them. It reports StealEmpty when nothing is pending and
	// StealRetry when the caller should simply try again.
	StealBatchAndPop(local *LocalQueue[T]) (SchedUnit[T], Steal)
}

// Lener is implemented by queues that can report their depth.
type Lener interface {
	Len() int
}

// Clearer is implemented by queues that can drop everything they hold.
type Clearer interface {
	Clear()
}

// =============================================================================
// Injector: single shared unbounded FIFO
// =============================================================================

// Injector is the reference GlobalQueue: one unbounded FIFO shared by all
// workers. It offers no locality and no priority.
type Injector[T any] struct {
	mu     sync.Mutex
	units  []SchedUnit[T]
	closed bool
}

var (
	_ GlobalQueue[int] = (*Injector[int])(nil)
	_ Lener            = (*Injector[int])(nil)
	_ Clearer          = (*Injector[int])(nil)
)

func NewInjector[T any]() *Injector[T] {
	return &Injector[T]{
		units: make([]SchedUnit[T], 0, defaultQueueCap),
	}
}

func (q *Injector[T]) Push(unit SchedUnit[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrPoolClosed
	}
	q.units = append(q.units, unit)
	return nil
}

func (q *Injector[T]) StealBatchAndPop(local *LocalQueue[T]) (SchedUnit[T], Steal) {
	unit, _, steal := q.stealBatch(local)
	return unit, steal
}

// stealBatch also reports how many units left the injector.
func (q *Injector[T]) stealBatch(local *LocalQueue[T]) (SchedUnit[T], int, Steal) {
	q.mu.Lock()
	n := stealCount(len(q.units))
	if n == 0 {
		q.mu.Unlock()
		return SchedUnit[T]{}, 0, StealEmpty
	}

	batch := make([]SchedUnit[T], n)
	copy(batch, q.units[:n])
	// Zero out the moved elements to release task references
	var zero SchedUnit[T]
	for i := range n {
		q.units[i] = zero
	}
	q.units = q.units[n:]
	q.maybeCompactLocked()
	q.mu.Unlock()

	if local != nil {
		local.PushBatch(batch[1:])
	}
	return batch[0], n, StealSuccess
}

func (q *Injector[T]) maybeCompactLocked() {
	n := len(q.units)
	c := cap(q.units)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.units = make([]SchedUnit[T], 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]SchedUnit[T], n, newCap)
	copy(newSlice, q.units)
	q.units = newSlice
}

func (q *Injector[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.units)
}

func (q *Injector[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Clear removes all units and releases references
func (q *Injector[T]) Clear() {
	q.clear()
}

func (q *Injector[T]) clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.units)
	q.units = make([]SchedUnit[T], 0, defaultQueueCap)
	return n
}

// Close makes every later Push fail with ErrPoolClosed. Pending units can
// still be stolen.
func (q *Injector[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// =============================================================================
// BoundedInjector: Injector with a fixed capacity
// =============================================================================

// BoundedInjector is an Injector that refuses pushes beyond capacity with
// ErrQueueFull instead of growing.
type BoundedInjector[T any] struct {
	inner    *Injector[T]
	capacity int64
	slots    *semaphore.Weighted
}

var (
	_ GlobalQueue[int] = (*BoundedInjector[int])(nil)
	_ Lener            = (*BoundedInjector[int])(nil)
	_ Clearer          = (*BoundedInjector[int])(nil)
)

// NewBoundedInjector panics if capacity is not positive.
func NewBoundedInjector[T any](capacity int) *BoundedInjector[T] {
	if capacity < 1 {
		panic("BoundedInjector: capacity must be at least 1")
	}
	return &BoundedInjector[T]{
		inner:    NewInjector[T](),
		capacity: int64(capacity),
		slots:    semaphore.NewWeighted(int64(capacity)),
	}
}

func (q *BoundedInjector[T]) Push(unit SchedUnit[T]) error {
	if !q.slots.TryAcquire(1) {
		return errors.Wrapf(ErrQueueFull, "capacity %d", q.capacity)
	}
	if err := q.inner.Push(unit); err != nil {
		q.slots.Release(1)
		return err
	}
	return nil
}

func (q *BoundedInjector[T]) StealBatchAndPop(local *LocalQueue[T]) (SchedUnit[T], Steal) {
	unit, n, steal := q.inner.stealBatch(local)
	if n > 0 {
		q.slots.Release(int64(n))
	}
	return unit, steal
}

func (q *BoundedInjector[T]) Capacity() int { return int(q.capacity) }
func (q *BoundedInjector[T]) Len() int      { return q.inner.Len() }
func (q *BoundedInjector[T]) Close()        { q.inner.Close() }

func (q *BoundedInjector[T]) Clear() {
	if n := q.inner.clear(); n > 0 {
		q.slots.Release(int64(n))
	}
}
