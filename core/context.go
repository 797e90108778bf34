package core

import "context"

// PoolContext is what a Runner sees of the pool while it handles a task on
// one worker. It is owned by that worker.
type PoolContext[T any] struct {
	ctx      context.Context
	workerID int
	core     *QueueCore[T]
}

// NewPoolContext binds a worker index to a pool's QueueCore. Workers build
// one each; tests use it to drive a Runner without starting a pool.
func NewPoolContext[T any](ctx context.Context, workerID int, core *QueueCore[T]) *PoolContext[T] {
	if core == nil {
		panic("PoolContext: core must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &PoolContext[T]{ctx: ctx, workerID: workerID, core: core}
}

// Spawn pushes task into the pool's global queue.
func (c *PoolContext[T]) Spawn(task T) {
	c.core.Push(task)
}

// Remote returns a push capability that is not tied to this worker.
func (c *PoolContext[T]) Remote() Remote[T] {
	return Remote[T]{core: c.core}
}

func (c *PoolContext[T]) WorkerID() int { return c.workerID }

// Context is done once the pool shuts down.
func (c *PoolContext[T]) Context() context.Context { return c.ctx }

func (c *PoolContext[T]) PoolName() string { return c.core.name }

// =============================================================================
// Remote: spawn capability usable from anywhere
// =============================================================================

// Remote pushes tasks into a pool from any goroutine. It is a small value
// and may be copied freely. Spawning after the pool has shut down is a
// no-op reported to the pool's RejectedTaskHandler. The zero Remote
// discards everything.
type Remote[T any] struct {
	core *QueueCore[T]
}

// NewRemote returns a Remote for core.
func NewRemote[T any](core *QueueCore[T]) Remote[T] {
	return Remote[T]{core: core}
}

func (r Remote[T]) Spawn(task T) {
	if r.core == nil {
		return
	}
	r.core.Push(task)
}
