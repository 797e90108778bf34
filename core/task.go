package core

// =============================================================================
// Runner: the per-worker task driver
// =============================================================================

// Runner drives one popped task per Handle call. Each worker owns its own
// Runner, so implementations need no internal synchronization.
type Runner[T any] interface {
	// Handle executes task. It returns true when the task is finished and
	// false when the task was handed back to the pool (through ctx.Spawn)
	// and the worker should move on to other work.
	Handle(ctx *PoolContext[T], task T) bool
}

// RunnerFactory produces one Runner per worker.
type RunnerFactory[T any] interface {
	Produce() Runner[T]
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc[T any] func(ctx *PoolContext[T], task T) bool

func (f RunnerFunc[T]) Handle(ctx *PoolContext[T], task T) bool {
	return f(ctx, task)
}

// RunnerFactoryFunc adapts a plain function to RunnerFactory.
type RunnerFactoryFunc[T any] func() Runner[T]

func (f RunnerFactoryFunc[T]) Produce() Runner[T] {
	return f()
}
