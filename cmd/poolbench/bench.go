package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Swind/go-steal-pool/callback"
	"github.com/Swind/go-steal-pool/core"
	obs "github.com/Swind/go-steal-pool/observability/prometheus"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type benchOptions struct {
	Workers     int
	SpinBudget  int
	Tasks       int
	Reruns      int
	Capacity    int
	MetricsAddr string
	Timeout     time.Duration
	Verbose     bool
}

func defaultBenchOptions() *benchOptions {
	return &benchOptions{
		SpinBudget: callback.DefaultSpinBudget,
		Tasks:      1000,
		Reruns:     10,
		Timeout:    30 * time.Second,
	}
}

func (o *benchOptions) validate() error {
	switch {
	case o.SpinBudget < 1:
		return errors.Errorf("spin-budget must be at least 1, got %d", o.SpinBudget)
	case o.Tasks < 0:
		return errors.Errorf("tasks must not be negative, got %d", o.Tasks)
	case o.Reruns < 0:
		return errors.Errorf("reruns must not be negative, got %d", o.Reruns)
	case o.Capacity < 0:
		return errors.Errorf("capacity must not be negative, got %d", o.Capacity)
	case o.Timeout <= 0:
		return errors.Errorf("timeout must be positive, got %v", o.Timeout)
	}
	return nil
}

// benchResult is what one run reports.
type benchResult struct {
	Stats      core.PoolStats
	Completed  int
	Elapsed    time.Duration
	Rejections map[string]int
}

func runBench(ctx context.Context, opts *benchOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := opts.validate(); err != nil {
		return err
	}

	reg := prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter("poolbench", reg, obs.ExporterOptions{})
	if err != nil {
		return errors.Wrap(err, "creating metrics exporter")
	}

	g, gctx := errgroup.WithContext(ctx)
	var server *http.Server
	if opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server = &http.Server{Addr: opts.MetricsAddr, Handler: mux}
		g.Go(func() error {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "serving metrics")
			}
			return nil
		})
	}

	var result benchResult
	g.Go(func() error {
		if server != nil {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()
		}
		var err error
		result, err = drive(gctx, opts, exporter)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(out, "completed %d/%d tasks in %v\n", result.Completed, opts.Tasks, result.Elapsed)
	fmt.Fprintf(out, "workers=%d yielded=%d rejected=%d panicked=%d\n",
		result.Stats.Workers, result.Stats.Yielded, result.Stats.Rejected, result.Stats.Panicked)
	for reason, n := range result.Rejections {
		fmt.Fprintf(out, "  rejected %q: %d\n", reason, n)
	}
	return nil
}

// drive runs one pool until every accepted task has completed.
func drive(ctx context.Context, opts *benchOptions, metrics core.Metrics) (benchResult, error) {
	logger := &core.DefaultLogger{Verbose: opts.Verbose}
	config := core.DefaultConfig()
	config.Name = "poolbench"
	config.Workers = opts.Workers
	config.Metrics = metrics
	config.Logger = logger
	config.PanicHandler = &core.DefaultPanicHandler{Logger: logger}

	var wg sync.WaitGroup
	rejections := &countingRejections{onReject: wg.Done}
	config.RejectedTaskHandler = rejections

	var queue core.GlobalQueue[*callback.Task] = callback.NewSingleQueue()
	if opts.Capacity > 0 {
		queue = callback.NewBoundedQueue(opts.Capacity)
	}
	factory := callback.NewRunnerFactory()
	factory.SetSpinBudget(opts.SpinBudget)

	pool, err := callback.NewThreadPool(config, factory, queue)
	if err != nil {
		return benchResult{}, err
	}
	defer pool.Shutdown()

	var mu sync.Mutex
	done := 0

	start := time.Now()
	remote := pool.Remote()
	for range opts.Tasks {
		wg.Add(1)
		runs := 0
		remote.SpawnMut(func(h *callback.Handle) {
			if runs < opts.Reruns {
				runs++
				h.Rerun()
				return
			}
			mu.Lock()
			done++
			mu.Unlock()
			wg.Done()
		})
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		return benchResult{}, ctx.Err()
	case <-time.After(opts.Timeout):
		return benchResult{}, errors.Errorf("pool did not drain within %v", opts.Timeout)
	}
	elapsed := time.Since(start)

	if err := pool.ShutdownGraceful(opts.Timeout); err != nil {
		return benchResult{}, err
	}

	mu.Lock()
	defer mu.Unlock()
	return benchResult{
		Stats:      pool.Stats(),
		Completed:  done,
		Elapsed:    elapsed,
		Rejections: rejections.Snapshot(),
	}, nil
}

// countingRejections releases the wait slot of every dropped task so the
// run still terminates under backpressure.
type countingRejections struct {
	mu       sync.Mutex
	reasons  map[string]int
	onReject func()
}

func (r *countingRejections) HandleRejectedTask(poolName string, reason string) {
	r.mu.Lock()
	if r.reasons == nil {
		r.reasons = make(map[string]int)
	}
	r.reasons[reason]++
	r.mu.Unlock()
	if r.onReject != nil {
		r.onReject()
	}
}

func (r *countingRejections) Snapshot() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.reasons))
	for k, v := range r.reasons {
		out[k] = v
	}
	return out
}
