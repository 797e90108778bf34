package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/Swind/go-steal-pool/callback"
	"github.com/Swind/go-steal-pool/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type poolStub struct {
	stats core.PoolStats
}

func (s poolStub) Stats() core.PoolStats { return s.stats }

func TestSnapshotPoller_CollectsPoolStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddPool("pool-a", poolStub{stats: core.PoolStats{
		Queued:   4,
		Active:   2,
		Workers:  8,
		Yielded:  3,
		Rejected: 1,
		Running:  true,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		queued := testutil.ToFloat64(poller.poolQueued.WithLabelValues("pool-a"))
		active := testutil.ToFloat64(poller.poolActive.WithLabelValues("pool-a"))
		return queued == 4 && active == 2
	})

	if got := testutil.ToFloat64(poller.poolRunning.WithLabelValues("pool-a")); got != 1 {
		t.Fatalf("pool running gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.poolYielded.WithLabelValues("pool-a")); got != 3 {
		t.Fatalf("pool yielded gauge = %v, want 3", got)
	}
}

func TestSnapshotPoller_RealPool(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("stealpool", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	config := core.DefaultConfig()
	config.Name = "real-pool"
	config.Workers = 2
	config.Metrics = exporter
	config.Logger = core.NewNoOpLogger()
	pool, err := callback.NewSimpleThreadPool(config)
	if err != nil {
		t.Fatalf("NewSimpleThreadPool failed: %v", err)
	}

	poller.AddPool(pool.Name(), pool)
	poller.Start(context.Background())
	defer poller.Stop()

	// One task that always asks to re-run yields once per Handle call.
	done := make(chan struct{})
	runs := 0
	pool.SpawnMut(func(h *callback.Handle) {
		runs++
		if runs < 3*callback.DefaultSpinBudget {
			h.Rerun()
			return
		}
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
	pool.Shutdown()

	assertEventually(t, 2*time.Second, func() bool {
		return testutil.ToFloat64(poller.poolRunning.WithLabelValues("real-pool")) == 0
	})
	if got := testutil.ToFloat64(exporter.taskYieldTotal.WithLabelValues("real-pool")); got != 2 {
		t.Fatalf("yield total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(poller.poolWorkers.WithLabelValues("real-pool")); got != 2 {
		t.Fatalf("pool workers gauge = %v, want 2", got)
	}
}

func TestSnapshotPoller_RemovePool(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, time.Hour)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddPool("pool-a", poolStub{stats: core.PoolStats{Workers: 1}})
	poller.collectOnce()
	if got := testutil.CollectAndCount(poller.poolWorkers); got != 1 {
		t.Fatalf("series before remove = %d, want 1", got)
	}

	poller.RemovePool("pool-a")
	poller.collectOnce()
	if got := testutil.CollectAndCount(poller.poolWorkers); got != 0 {
		t.Fatalf("series after remove = %d, want 0", got)
	}
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
