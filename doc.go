// Package stealpool provides a work-stealing goroutine pool whose tasks are
// plain closures that can cooperatively ask to run again.
//
// The pool is split in two layers. Package core holds the scheduling
// machinery: a pluggable GlobalQueue, per-worker local queues, the worker
// loop that steals between them, and the Runner contract the loop calls for
// every popped task. Package callback holds the execution core: Task,
// Runner, Handle and Remote. Swapping the queue policy never touches the
// task-execution logic.
//
// # Quick Start
//
//	stealpool.InitGlobalThreadPool(4) // 4 workers
//	defer stealpool.ShutdownGlobalThreadPool()
//
//	stealpool.SpawnOnce(func(h *stealpool.Handle) {
//		fmt.Println("runs once")
//		h.SpawnOnce(func(*stealpool.Handle) { fmt.Println("spawned from a task") })
//	})
//
// # Cooperative re-runs
//
// A run-repeatable task calls Handle.Rerun to be invoked again. The Runner
// re-invokes it in place up to the spin budget (DefaultSpinBudget, 4),
// then pushes it back into the queue so the worker can serve other tasks:
//
//	stealpool.SpawnMut(func(h *stealpool.Handle) {
//		if !resource.Ready() {
//			h.Rerun()
//			return
//		}
//		resource.Consume()
//	})
//
// # Spawning from outside
//
// A Handle is only valid during the call it was passed to. Callbacks that
// fire later, such as timers or event sources, keep a Remote instead:
//
//	stealpool.SpawnOnce(func(h *stealpool.Handle) {
//		remote := h.ToOwned()
//		time.AfterFunc(time.Second, func() {
//			remote.SpawnOnce(func(*stealpool.Handle) { fmt.Println("later") })
//		})
//	})
//
// # Errors
//
// A panic inside a closure is recovered by the worker, reported to the
// configured core.PanicHandler and core.Metrics, and the task is dropped.
// Spawns that the queue refuses (shutdown, full bounded queue) are dropped
// and reported to core.RejectedTaskHandler.
package stealpool
