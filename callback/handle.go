package callback

import (
	"context"

	"github.com/Swind/go-steal-pool/core"
)

const errHandleExpired = "callback: Handle used after its invocation returned; keep a Remote from ToOwned instead"

// Handle is passed to a running task's closure. It is valid only until the
// Runner's Handle call that created it returns; code that outlives the call
// must keep a Remote obtained from ToOwned.
type Handle struct {
	ctx   *core.PoolContext[*Task]
	rerun bool
}

func (h *Handle) pool() *core.PoolContext[*Task] {
	if h.ctx == nil {
		panic(errHandleExpired)
	}
	return h.ctx
}

func (h *Handle) expire() {
	h.ctx = nil
}

// SpawnOnce queues fn as a new run-once task in the same pool.
func (h *Handle) SpawnOnce(fn func(*Handle)) {
	h.pool().Spawn(NewOnceTask(fn))
}

// SpawnMut queues fn as a new run-repeatable task in the same pool.
func (h *Handle) SpawnMut(fn func(*Handle)) {
	h.pool().Spawn(NewMutTask(fn))
}

// Rerun asks the Runner to invoke the current task again once the closure
// returns. It has no effect on run-once tasks.
func (h *Handle) Rerun() {
	h.pool()
	h.rerun = true
}

// ToOwned returns a Remote for the same pool that outlives this Handle.
func (h *Handle) ToOwned() Remote {
	return Remote{remote: h.pool().Remote()}
}

// WorkerID is the index of the worker running the task.
func (h *Handle) WorkerID() int {
	return h.pool().WorkerID()
}

// Context is done once the pool shuts down. Tasks that need cancellation
// check it themselves.
func (h *Handle) Context() context.Context {
	return h.pool().Context()
}

// =============================================================================
// Remote
// =============================================================================

// Remote spawns tasks into a pool from any goroutine, with no running task
// required. Spawning after the pool shut down is a no-op reported to the
// pool's RejectedTaskHandler. The zero Remote discards every task.
type Remote struct {
	remote core.Remote[*Task]
}

// NewRemote wraps a core remote for callback tasks.
func NewRemote(remote core.Remote[*Task]) Remote {
	return Remote{remote: remote}
}

func (r Remote) SpawnOnce(fn func(*Handle)) {
	r.remote.Spawn(NewOnceTask(fn))
}

func (r Remote) SpawnMut(fn func(*Handle)) {
	r.remote.Spawn(NewMutTask(fn))
}
