package core

import "time"

// TaskExecutionRecord captures one Runner.Handle call made by a worker.
type TaskExecutionRecord struct {
	UnitID     UnitID
	PoolName   string
	WorkerID   int
	QueuedFor  time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration

	// Completed is the runner's verdict: false means the task yielded and
	// was re-enqueued.
	Completed bool
	Panicked  bool
}

// PoolStats represents runtime observability state for a thread pool.
type PoolStats struct {
	ID       string
	Workers  int
	Queued   int
	Active   int
	Yielded  int64
	Rejected int64
	Panicked int64
	Running  bool
}
