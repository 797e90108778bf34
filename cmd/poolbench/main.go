// Command poolbench drives a work-stealing pool with re-running tasks and
// reports the pool counters. It doubles as a smoke test for custom spin
// budgets and bounded queues.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc := NewRootCommand(os.Stdout, os.Stderr)
	if err := rc.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
