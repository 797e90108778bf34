package callback

import (
	"fmt"

	"github.com/Swind/go-steal-pool/core"
)

// DefaultSpinBudget is how many times a run-repeatable task is invoked in
// place before it is pushed back into the pool.
const DefaultSpinBudget = 4

// Runner executes callback tasks for one worker.
type Runner struct {
	spinBudget int
}

var _ core.Runner[*Task] = (*Runner)(nil)

// SpinBudget is fixed when the runner is produced.
func (r *Runner) SpinBudget() int { return r.spinBudget }

// Handle runs task until it completes or yields.
//
// A run-repeatable task is invoked with its re-run flag cleared before every
// call. If the closure returns without calling Rerun, Handle returns true.
// After SpinBudget consecutive re-run requests the task is pushed back with
// ctx.Spawn and Handle returns false.
//
// A run-once task is invoked exactly once, Rerun is ignored, and Handle
// returns true. Handing the same run-once task in twice panics with
// ErrTaskConsumed.
//
// Panics raised by the closure are not recovered here.
func (r *Runner) Handle(ctx *core.PoolContext[*Task], task *Task) bool {
	h := &Handle{ctx: ctx}
	defer h.expire()

	switch task.kind {
	case KindMut:
		spins := 0
		for {
			h.rerun = false
			task.mut(h)
			if !h.rerun {
				return true
			}
			spins++
			if spins >= r.spinBudget {
				break
			}
		}
	case KindOnce:
		task.takeOnce()(h)
		return true
	default:
		panic(fmt.Sprintf("callback: unknown task kind %v", task.kind))
	}

	ctx.Spawn(task)
	return false
}

// =============================================================================
// RunnerFactory
// =============================================================================

// RunnerFactory produces Runners sharing one spin budget. It is meant to be
// configured before the pool is built and is not safe for concurrent use.
type RunnerFactory struct {
	spinBudget int
}

var _ core.RunnerFactory[*Task] = (*RunnerFactory)(nil)

func NewRunnerFactory() *RunnerFactory {
	return &RunnerFactory{spinBudget: DefaultSpinBudget}
}

// SetSpinBudget changes the budget of Runners produced from now on.
// Runners already produced keep theirs. It panics if n < 1.
func (f *RunnerFactory) SetSpinBudget(n int) {
	if n < 1 {
		panic("callback: spin budget must be at least 1")
	}
	f.spinBudget = n
}

func (f *RunnerFactory) SpinBudget() int { return f.spinBudget }

func (f *RunnerFactory) Produce() core.Runner[*Task] {
	return &Runner{spinBudget: f.spinBudget}
}
