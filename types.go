package stealpool

import (
	"github.com/Swind/go-steal-pool/callback"
	"github.com/Swind/go-steal-pool/core"
)

// Re-export commonly used types from the callback and core packages.
// This allows users to import only the stealpool package for most use cases.

// Task is the unit of work: a run-once or run-repeatable closure
type Task = callback.Task

// Handle is passed to a running task
type Handle = callback.Handle

// Remote spawns tasks from outside any running task
type Remote = callback.Remote

// Runner drives callback tasks on one worker
type Runner = callback.Runner

// RunnerFactory produces Runners sharing a spin budget
type RunnerFactory = callback.RunnerFactory

// ThreadPool runs callback tasks over any GlobalQueue
type ThreadPool = callback.ThreadPool

// SimpleThreadPool is a ThreadPool over one shared unbounded queue
type SimpleThreadPool = callback.SimpleThreadPool

// Config configures a pool
type Config = core.Config

// PoolStats is a snapshot of pool counters
type PoolStats = core.PoolStats

// DefaultSpinBudget is the in-place re-run limit used unless configured
const DefaultSpinBudget = callback.DefaultSpinBudget

var (
	DefaultConfig    = core.DefaultConfig
	NewRunnerFactory = callback.NewRunnerFactory
	NewOnceTask      = callback.NewOnceTask
	NewMutTask       = callback.NewMutTask
)

// NewSimpleThreadPool starts a pool over one shared unbounded queue.
func NewSimpleThreadPool(config *Config) (*SimpleThreadPool, error) {
	return callback.NewSimpleThreadPool(config)
}
