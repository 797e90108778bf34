package callback

import (
	"github.com/Swind/go-steal-pool/core"
)

// SingleQueue is one shared unbounded queue for every worker.
type SingleQueue = core.Injector[*Task]

func NewSingleQueue() *SingleQueue {
	return core.NewInjector[*Task]()
}

// BoundedQueue is a SingleQueue that rejects pushes beyond its capacity.
type BoundedQueue = core.BoundedInjector[*Task]

func NewBoundedQueue(capacity int) *BoundedQueue {
	return core.NewBoundedInjector[*Task](capacity)
}

// =============================================================================
// ThreadPool: callback tasks over any queue
// =============================================================================

// ThreadPool is a started core.ThreadPool running callback tasks.
type ThreadPool struct {
	*core.ThreadPool[*Task]
}

// NewThreadPool binds queue and factory into a running pool. A nil factory
// means NewRunnerFactory().
func NewThreadPool(config *core.Config, factory core.RunnerFactory[*Task], queue core.GlobalQueue[*Task]) (*ThreadPool, error) {
	if factory == nil {
		factory = NewRunnerFactory()
	}
	pool, err := core.NewThreadPool(config, factory, queue)
	if err != nil {
		return nil, err
	}
	return &ThreadPool{ThreadPool: pool}, nil
}

// SpawnOnce queues fn as a run-once task.
func (p *ThreadPool) SpawnOnce(fn func(*Handle)) {
	p.Spawn(NewOnceTask(fn))
}

// SpawnMut queues fn as a run-repeatable task.
func (p *ThreadPool) SpawnMut(fn func(*Handle)) {
	p.Spawn(NewMutTask(fn))
}

// Remote returns a callback Remote for this pool.
func (p *ThreadPool) Remote() Remote {
	return Remote{remote: p.ThreadPool.Remote()}
}

// =============================================================================
// SimpleThreadPool: the default pairing
// =============================================================================

// SimpleThreadPool runs callback tasks from one SingleQueue with the default
// spin budget.
type SimpleThreadPool struct {
	*ThreadPool
	queue *SingleQueue
}

func NewSimpleThreadPool(config *core.Config) (*SimpleThreadPool, error) {
	queue := NewSingleQueue()
	pool, err := NewThreadPool(config, NewRunnerFactory(), queue)
	if err != nil {
		return nil, err
	}
	return &SimpleThreadPool{ThreadPool: pool, queue: queue}, nil
}

// Queue exposes the backing queue, mostly for inspection.
func (p *SimpleThreadPool) Queue() *SingleQueue { return p.queue }
