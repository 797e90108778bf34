package core

import (
	"context"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a runner lets a panic escape while handling a
// task. The worker recovers the panic, drops the task, reports it here and
// keeps serving the queue. A handler that prefers to stop the process may
// do so itself.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The pool's lifetime context
	// - poolName: The name of the pool where the panic occurred
	// - workerID: The index of the worker that was running the task
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, poolName string, workerID int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler logs panics through Logger, or the DefaultLogger when
// Logger is nil.
type DefaultPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic value and stack at error level.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, poolName string, workerID int, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Error("task panicked",
		F("pool", poolName),
		F("worker", workerID),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting pool execution metrics.
//
// Methods should be non-blocking and fast; they run on worker goroutines
// and on every spawn path.
type Metrics interface {
	// RecordTaskDuration records how long one Runner.Handle call took,
	// including every in-place re-run it performed.
	RecordTaskDuration(poolName string, duration time.Duration)

	// RecordTaskYield records that a runner returned false, i.e. the task
	// exhausted its spin budget and was pushed back into the queue.
	RecordTaskYield(poolName string)

	// RecordTaskPanic records that a task panicked during execution.
	RecordTaskPanic(poolName string, panicInfo any)

	// RecordQueueDepth records the depth of the global queue after a push.
	// Only called for queues implementing Lener.
	RecordQueueDepth(poolName string, depth int)

	// RecordTaskRejected records that a push was refused (shutdown, full
	// bounded queue, ...).
	RecordTaskRejected(poolName string, reason string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordTaskDuration(poolName string, duration time.Duration) {}
func (m *NilMetrics) RecordTaskYield(poolName string)                            {}
func (m *NilMetrics) RecordTaskPanic(poolName string, panicInfo any)             {}
func (m *NilMetrics) RecordQueueDepth(poolName string, depth int)                {}
func (m *NilMetrics) RecordTaskRejected(poolName string, reason string)          {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected tasks
// =============================================================================

// RejectedTaskHandler is called when a spawn could not be queued. This
// happens when:
// - The pool is shutting down ("shutdown")
// - A bounded queue is at capacity ("queue full")
// - A custom queue returned any other error (the error text)
//
// A rejected task is dropped. Implementations should be thread-safe as they
// may be called concurrently.
type RejectedTaskHandler interface {
	HandleRejectedTask(poolName string, reason string)
}

// DefaultRejectedTaskHandler logs rejected tasks at warn level.
type DefaultRejectedTaskHandler struct {
	Logger Logger
}

// HandleRejectedTask logs the rejected task.
func (h *DefaultRejectedTaskHandler) HandleRejectedTask(poolName string, reason string) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Warn("task rejected", F("pool", poolName), F("reason", reason))
}
