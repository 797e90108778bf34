package core

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ThreadPool runs one worker goroutine per configured worker, each driven
// by its own Runner. Workers take units from their local queue first, then
// steal a batch from the global queue, then steal half of a peer's local
// queue, and park on the wake-up signal when all of those are empty.
type ThreadPool[T any] struct {
	core    *QueueCore[T]
	runners []Runner[T]
	locals  []*LocalQueue[T]
	history *executionHistory

	logger       Logger
	panicHandler PanicHandler
	metrics      Metrics

	metricActive atomic.Int32 // Executing in Worker

	ctx      context.Context
	cancel   context.CancelFunc
	group    errgroup.Group
	running  atomic.Bool
	stopOnce sync.Once
}

// NewThreadPool produces one Runner per worker from factory and starts the
// workers. A nil config uses DefaultConfig().
func NewThreadPool[T any](config *Config, factory RunnerFactory[T], queue GlobalQueue[T]) (*ThreadPool[T], error) {
	if factory == nil {
		return nil, errors.New("thread pool: runner factory must not be nil")
	}
	if queue == nil {
		return nil, errors.New("thread pool: queue must not be nil")
	}
	if config != nil {
		if err := config.Validate(); err != nil {
			return nil, errors.Wrap(err, "thread pool: invalid config")
		}
	}
	config = config.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	p := &ThreadPool[T]{
		core:         NewQueueCore(queue, config),
		runners:      make([]Runner[T], config.Workers),
		locals:       make([]*LocalQueue[T], config.Workers),
		history:      newExecutionHistory(config.HistoryCapacity),
		logger:       config.Logger,
		panicHandler: config.PanicHandler,
		metrics:      config.Metrics,
		ctx:          ctx,
		cancel:       cancel,
	}

	// Runners are produced up front so later factory changes cannot reach
	// a running pool.
	for i := range config.Workers {
		runner := factory.Produce()
		if runner == nil {
			cancel()
			return nil, errors.Errorf("thread pool: runner factory produced nil runner for worker %d", i)
		}
		p.runners[i] = runner
		p.locals[i] = NewLocalQueue[T]()
	}

	p.running.Store(true)
	for i := range config.Workers {
		p.group.Go(func() error {
			p.workerLoop(i)
			return nil
		})
	}

	p.logger.Info("thread pool started", F("pool", p.core.name), F("workers", config.Workers))
	return p, nil
}

// Spawn pushes task into the global queue.
func (p *ThreadPool[T]) Spawn(task T) {
	p.core.Push(task)
}

// Remote returns a spawn capability that stays valid after the pool shuts
// down; spawns made then are rejected.
func (p *ThreadPool[T]) Remote() Remote[T] {
	return Remote[T]{core: p.core}
}

// workerLoop is the main loop for each worker
func (p *ThreadPool[T]) workerLoop(id int) {
	runner := p.runners[id]
	pctx := NewPoolContext(p.ctx, id, p.core)

	for {
		unit, ok := p.nextUnit(id)
		if !ok {
			p.logger.Debug("worker exiting", F("pool", p.core.name), F("worker", id))
			return
		}
		// Count the unit as active before it stops counting as queued so
		// ShutdownGraceful never sees both at zero while a unit is in hand.
		p.metricActive.Add(1)
		p.core.taken()
		p.runUnit(pctx, runner, unit)
	}
}

// nextUnit blocks until a unit is available or the pool stops.
func (p *ThreadPool[T]) nextUnit(id int) (SchedUnit[T], bool) {
	local := p.locals[id]
	stopCh := p.ctx.Done()

	for {
		if p.ctx.Err() != nil {
			return SchedUnit[T]{}, false
		}

		if unit, ok := local.Pop(); ok {
			return unit, true
		}

		unit, steal := p.core.queue.StealBatchAndPop(local)
		if steal == StealSuccess {
			p.wakePeerIfBacklogged(local)
			return unit, true
		}
		retry := steal == StealRetry

		unit, steal = p.stealFromPeers(id)
		if steal == StealSuccess {
			p.wakePeerIfBacklogged(local)
			return unit, true
		}
		if retry || steal == StealRetry {
			runtime.Gosched()
			continue
		}

		select {
		case <-p.core.signal:
			continue
		case <-stopCh:
			return SchedUnit[T]{}, false
		}
	}
}

// stealFromPeers visits every other worker once, starting with the next
// index, and takes half of the first non-empty local queue.
func (p *ThreadPool[T]) stealFromPeers(id int) (SchedUnit[T], Steal) {
	n := len(p.locals)
	result := StealEmpty
	for k := 1; k < n; k++ {
		victim := p.locals[(id+k)%n]
		unit, steal := victim.StealHalf(p.locals[id])
		switch steal {
		case StealSuccess:
			return unit, StealSuccess
		case StealRetry:
			result = StealRetry
		}
	}
	return SchedUnit[T]{}, result
}

// wakePeerIfBacklogged lets a parked peer know there is something to steal
// from local.
func (p *ThreadPool[T]) wakePeerIfBacklogged(local *LocalQueue[T]) {
	if local.IsEmpty() {
		return
	}
	select {
	case p.core.signal <- struct{}{}:
	default:
	}
}

// runUnit hands one unit to the runner and captures panics, timing and
// the runner's verdict. The caller has already counted the unit as active.
func (p *ThreadPool[T]) runUnit(pctx *PoolContext[T], runner Runner[T], unit SchedUnit[T]) {
	startedAt := time.Now()
	completed := false
	panicked := false

	defer func() {
		if r := recover(); r != nil {
			panicked = true
			p.core.metricPanicked.Add(1)
			p.panicHandler.HandlePanic(p.ctx, p.core.name, pctx.WorkerID(), r, debug.Stack())
			p.metrics.RecordTaskPanic(p.core.name, r)
		}

		finishedAt := time.Now()
		duration := finishedAt.Sub(startedAt)
		if !completed && !panicked {
			p.core.metricYielded.Add(1)
			p.metrics.RecordTaskYield(p.core.name)
		}
		p.metrics.RecordTaskDuration(p.core.name, duration)
		p.history.Add(TaskExecutionRecord{
			UnitID:     unit.ID,
			PoolName:   p.core.name,
			WorkerID:   pctx.WorkerID(),
			QueuedFor:  startedAt.Sub(unit.EnqueuedAt),
			StartedAt:  startedAt,
			FinishedAt: finishedAt,
			Duration:   duration,
			Completed:  completed,
			Panicked:   panicked,
		})
		p.metricActive.Add(-1)
	}()

	completed = runner.Handle(pctx, unit.Task)
}

// Shutdown stops accepting spawns, stops the workers after their current
// task and drops everything still queued. It must not be called from inside
// a task, since it waits for every worker to return.
func (p *ThreadPool[T]) Shutdown() {
	p.stopOnce.Do(func() {
		p.core.shutdown()
		p.cancel()
		_ = p.group.Wait()

		dropped := 0
		for _, local := range p.locals {
			dropped += local.Clear()
		}
		p.core.metricQueued.Store(0)
		p.running.Store(false)

		p.logger.Info("thread pool stopped", F("pool", p.core.name), F("dropped_local", dropped))
	})
}

// ShutdownGraceful waits until no unit is queued or running, then shuts
// down. Spawns are still accepted while draining, so tasks that keep
// re-running can hold the pool open until timeout. On timeout the pool is
// shut down anyway and an error is returned.
func (p *ThreadPool[T]) ShutdownGraceful(timeout time.Duration) error {
	if !p.running.Load() {
		return nil
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if p.QueuedTaskCount() == 0 && p.ActiveTaskCount() == 0 {
			p.Shutdown()
			return nil
		}

		select {
		case <-deadline.C:
			queued, active := p.QueuedTaskCount(), p.ActiveTaskCount()
			p.Shutdown()
			return errors.Errorf("graceful shutdown timed out after %v (%d queued, %d active)", timeout, queued, active)
		case <-ticker.C:
		}
	}
}

// Name returns the configured pool name
func (p *ThreadPool[T]) Name() string { return p.core.name }

// WorkerCount returns the number of workers
func (p *ThreadPool[T]) WorkerCount() int { return len(p.runners) }

func (p *ThreadPool[T]) IsRunning() bool      { return p.running.Load() }
func (p *ThreadPool[T]) QueuedTaskCount() int { return p.core.QueuedTaskCount() }
func (p *ThreadPool[T]) ActiveTaskCount() int { return int(p.metricActive.Load()) }
func (p *ThreadPool[T]) Core() *QueueCore[T]  { return p.core }

// Context is done once Shutdown has begun.
func (p *ThreadPool[T]) Context() context.Context { return p.ctx }

// Stats returns current observability data for this pool.
func (p *ThreadPool[T]) Stats() PoolStats {
	return PoolStats{
		ID:       p.core.name,
		Workers:  p.WorkerCount(),
		Queued:   p.QueuedTaskCount(),
		Active:   p.ActiveTaskCount(),
		Yielded:  p.core.YieldedTaskCount(),
		Rejected: p.core.RejectedTaskCount(),
		Panicked: p.core.PanickedTaskCount(),
		Running:  p.IsRunning(),
	}
}

// RecentTasks returns handled unit records in newest-first order.
func (p *ThreadPool[T]) RecentTasks(limit int) []TaskExecutionRecord {
	return p.history.Recent(limit)
}

// LastTask returns the most recently handled unit, if any.
func (p *ThreadPool[T]) LastTask() (TaskExecutionRecord, bool) {
	return p.history.Last()
}
