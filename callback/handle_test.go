package callback

import (
	"sync"
	"testing"

	"github.com/Swind/go-steal-pool/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRejections is a core.RejectedTaskHandler that keeps every reason.
type recordingRejections struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recordingRejections) HandleRejectedTask(poolName string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *recordingRejections) Reasons() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reasons...)
}

// TestHandle_SpawnFromClosure verifies spawning from inside a running task
// Given: A task whose closure spawns one run-once and one repeatable task
// When: It is handled
// Then: Both new tasks sit in the queue with the right kinds
func TestHandle_SpawnFromClosure(t *testing.T) {
	h := newHarness(t)

	var workerID int
	runner := defaultRunner()
	runner.Handle(h.ctx, NewOnceTask(func(handle *Handle) {
		handle.SpawnOnce(func(*Handle) {})
		handle.SpawnMut(func(*Handle) {})
		workerID = handle.WorkerID()
		assert.NotNil(t, handle.Context())
	}))

	require.Equal(t, 2, h.queue.Len())
	assert.Equal(t, KindOnce, h.next(t).Kind())
	assert.Equal(t, KindMut, h.next(t).Kind())
	assert.Equal(t, 0, workerID)
}

// TestHandle_ExpiresAfterInvocation verifies a leaked Handle cannot be used
// Given: A closure that stores its Handle in an outer variable
// When: The stored Handle is used after Runner.Handle returned
// Then: Every method panics with the expiry message
func TestHandle_ExpiresAfterInvocation(t *testing.T) {
	h := newHarness(t)

	var leaked *Handle
	defaultRunner().Handle(h.ctx, NewOnceTask(func(handle *Handle) {
		leaked = handle
	}))
	require.NotNil(t, leaked)

	assert.PanicsWithValue(t, errHandleExpired, func() { leaked.Rerun() })
	assert.PanicsWithValue(t, errHandleExpired, func() { leaked.SpawnOnce(func(*Handle) {}) })
	assert.PanicsWithValue(t, errHandleExpired, func() { leaked.SpawnMut(func(*Handle) {}) })
	assert.PanicsWithValue(t, errHandleExpired, func() { leaked.ToOwned() })
	assert.PanicsWithValue(t, errHandleExpired, func() { leaked.WorkerID() })
	assert.Equal(t, 0, h.queue.Len())
}

// TestHandle_ToOwnedOutlivesInvocation verifies the detach path
// Given: A closure that keeps a Remote from ToOwned
// When: The Remote is used after the invocation ended
// Then: The spawn reaches the same queue
func TestHandle_ToOwnedOutlivesInvocation(t *testing.T) {
	h := newHarness(t)

	var remote Remote
	defaultRunner().Handle(h.ctx, NewOnceTask(func(handle *Handle) {
		remote = handle.ToOwned()
	}))

	remote.SpawnOnce(func(*Handle) {})
	remote.SpawnMut(func(*Handle) {})

	assert.Equal(t, 2, h.queue.Len())
}

// TestRemote_ConcurrentSpawn verifies Remote under many producers
// Given: 8 goroutines each holding a copy of one Remote
// When: Each spawns 1250 run-once tasks concurrently
// Then: Exactly 10000 tasks are in the queue
func TestRemote_ConcurrentSpawn(t *testing.T) {
	h := newHarness(t)
	remote := NewRemote(h.ctx.Remote())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func(r Remote) {
			defer wg.Done()
			for range 1250 {
				r.SpawnOnce(func(*Handle) {})
			}
		}(remote)
	}
	wg.Wait()

	assert.Equal(t, 10_000, h.queue.Len())
	assert.Equal(t, 10_000, h.core.QueuedTaskCount())
}

func TestRemote_ZeroValueDiscards(t *testing.T) {
	var remote Remote

	remote.SpawnOnce(func(*Handle) {})
	remote.SpawnMut(func(*Handle) {})
}

func TestRemote_RejectedAfterShutdown(t *testing.T) {
	rejections := &recordingRejections{}
	config := core.DefaultConfig()
	config.Workers = 1
	config.Logger = core.NewNoOpLogger()
	config.RejectedTaskHandler = rejections

	pool, err := NewSimpleThreadPool(config)
	require.NoError(t, err)
	remote := pool.Remote()
	pool.Shutdown()

	ran := false
	remote.SpawnOnce(func(*Handle) { ran = true })
	remote.SpawnMut(func(*Handle) { ran = true })

	assert.False(t, ran)
	assert.Equal(t, []string{"shutdown", "shutdown"}, rejections.Reasons())
	assert.Equal(t, 0, pool.Queue().Len())
}
