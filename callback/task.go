// Package callback is a closure-based execution core for core.ThreadPool.
//
// A Task wraps a func(*Handle). Run-once tasks are invoked a single time;
// run-repeatable tasks may ask, through Handle.Rerun, to be invoked again.
// The Runner re-invokes such a task in place up to its spin budget and then
// pushes it back into the pool so the worker can serve other work.
//
//	pool, err := callback.NewSimpleThreadPool(core.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer pool.Shutdown()
//
//	pool.SpawnMut(func(h *callback.Handle) {
//		if !ready() {
//			h.Rerun()
//			return
//		}
//		consume()
//	})
package callback

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrTaskConsumed is the panic value (wrapped) raised when a run-once task
// is handed to a Runner after it has already run. It signals a bug in the
// driving loop, not a runtime condition to recover from.
var ErrTaskConsumed = errors.New("callback: run-once task already consumed")

// Kind tells how a Task may be invoked.
type Kind int

const (
	// KindOnce tasks run at most once.
	KindOnce Kind = iota

	// KindMut tasks may run any number of times.
	KindMut
)

func (k Kind) String() string {
	switch k {
	case KindOnce:
		return "once"
	case KindMut:
		return "mut"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Task is the unit of work scheduled by a callback pool. It is owned by
// exactly one queue slot or one Runner at a time.
type Task struct {
	kind Kind
	once func(*Handle) // nil once taken
	mut  func(*Handle)
}

// NewOnceTask wraps fn as a run-once task. It panics if fn is nil.
func NewOnceTask(fn func(*Handle)) *Task {
	if fn == nil {
		panic("callback: nil task closure")
	}
	return &Task{kind: KindOnce, once: fn}
}

// NewMutTask wraps fn as a run-repeatable task. It panics if fn is nil.
func NewMutTask(fn func(*Handle)) *Task {
	if fn == nil {
		panic("callback: nil task closure")
	}
	return &Task{kind: KindMut, mut: fn}
}

func (t *Task) Kind() Kind { return t.kind }

// takeOnce empties the run-once slot and returns what it held.
func (t *Task) takeOnce() func(*Handle) {
	fn := t.once
	if fn == nil {
		panic(errors.WithStack(ErrTaskConsumed))
	}
	t.once = nil
	return fn
}
