package core

import "sync/atomic"

// QueueCore is the state shared by every worker, PoolContext and Remote of
// one pool: the global queue, the wake-up signal and the counters.
type QueueCore[T any] struct {
	name   string
	queue  GlobalQueue[T]
	signal chan struct{}

	metricQueued   atomic.Int32 // Pushed but not yet taken by a worker
	metricYielded  atomic.Int64
	metricRejected atomic.Int64
	metricPanicked atomic.Int64

	metrics             Metrics
	rejectedTaskHandler RejectedTaskHandler

	// Lifecycle
	shuttingDown atomic.Bool
}

// NewQueueCore panics if queue is nil. A nil config uses DefaultConfig().
func NewQueueCore[T any](queue GlobalQueue[T], config *Config) *QueueCore[T] {
	if queue == nil {
		panic("QueueCore: queue must not be nil")
	}
	config = config.withDefaults()
	return &QueueCore[T]{
		name:                config.Name,
		queue:               queue,
		signal:              make(chan struct{}, config.Workers*2),
		metrics:             config.Metrics,
		rejectedTaskHandler: config.RejectedTaskHandler,
	}
}

// Push wraps task in a new SchedUnit and enqueues it. A refused push is
// reported to the RejectedTaskHandler and Metrics and the task is dropped.
func (c *QueueCore[T]) Push(task T) {
	if c.shuttingDown.Load() {
		c.reject("shutdown")
		return
	}

	c.metricQueued.Add(1)
	if err := c.queue.Push(NewSchedUnit(task)); err != nil {
		c.metricQueued.Add(-1)
		c.reject(rejectReason(err))
		return
	}

	if l, ok := c.queue.(Lener); ok {
		c.metrics.RecordQueueDepth(c.name, l.Len())
	}

	select {
	case c.signal <- struct{}{}:
	default:
		// Signal channel full, but the unit is already queued
		// This is not an error, just a optimization hint
	}
}

func (c *QueueCore[T]) reject(reason string) {
	c.metricRejected.Add(1)
	c.rejectedTaskHandler.HandleRejectedTask(c.name, reason)
	c.metrics.RecordTaskRejected(c.name, reason)
}

// taken is called by a worker for every unit it is about to run.
func (c *QueueCore[T]) taken() {
	c.metricQueued.Add(-1)
}

// shutdown makes every later Push a rejection and drops what is queued.
func (c *QueueCore[T]) shutdown() {
	c.shuttingDown.Store(true)
	if cl, ok := c.queue.(Clearer); ok {
		cl.Clear()
	}
}

func (c *QueueCore[T]) Name() string          { return c.name }
func (c *QueueCore[T]) Queue() GlobalQueue[T] { return c.queue }
func (c *QueueCore[T]) IsShuttingDown() bool  { return c.shuttingDown.Load() }
func (c *QueueCore[T]) QueuedTaskCount() int  { return int(c.metricQueued.Load()) }
func (c *QueueCore[T]) YieldedTaskCount() int64 {
	return c.metricYielded.Load()
}
func (c *QueueCore[T]) RejectedTaskCount() int64 {
	return c.metricRejected.Load()
}
func (c *QueueCore[T]) PanickedTaskCount() int64 {
	return c.metricPanicked.Load()
}
