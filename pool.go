package stealpool

import (
	"fmt"
	"sync"

	"github.com/Swind/go-steal-pool/callback"
	"github.com/Swind/go-steal-pool/core"
)

// =============================================================================
// Global Thread Pool Helper (Singleton)
// =============================================================================

var (
	globalThreadPool *callback.SimpleThreadPool
	globalMu         sync.Mutex
)

// InitGlobalThreadPool starts the global pool with the given number of
// workers. Later calls are no-ops until ShutdownGlobalThreadPool.
func InitGlobalThreadPool(workers int) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalThreadPool != nil {
		return // Already initialized
	}

	config := core.DefaultConfig()
	config.Name = "global-pool"
	config.Workers = workers
	pool, err := callback.NewSimpleThreadPool(config)
	if err != nil {
		panic(fmt.Sprintf("InitGlobalThreadPool: %v", err))
	}
	globalThreadPool = pool
}

// GetGlobalThreadPool returns the global thread pool instance.
// It panics if InitGlobalThreadPool has not been called.
func GetGlobalThreadPool() *callback.SimpleThreadPool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalThreadPool == nil {
		panic("GlobalThreadPool not initialized. Call InitGlobalThreadPool() first.")
	}
	return globalThreadPool
}

// ShutdownGlobalThreadPool stops the global thread pool.
func ShutdownGlobalThreadPool() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalThreadPool != nil {
		globalThreadPool.Shutdown()
		globalThreadPool = nil
	}
}

// SpawnOnce queues fn as a run-once task on the global pool.
func SpawnOnce(fn func(*Handle)) {
	GetGlobalThreadPool().SpawnOnce(fn)
}

// SpawnMut queues fn as a run-repeatable task on the global pool.
func SpawnMut(fn func(*Handle)) {
	GetGlobalThreadPool().SpawnMut(fn)
}

// GlobalRemote returns a Remote for the global pool.
func GlobalRemote() Remote {
	return GetGlobalThreadPool().Remote()
}
