package core

import "github.com/pkg/errors"

var (
	// ErrQueueFull is returned by bounded queues that cannot accept a push.
	ErrQueueFull = errors.New("queue is full")

	// ErrPoolClosed is returned once the pool or queue has shut down.
	ErrPoolClosed = errors.New("pool is closed")
)

// rejectReason maps a push error to the short label handed to
// RejectedTaskHandler and Metrics.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrPoolClosed):
		return "shutdown"
	case errors.Is(err, ErrQueueFull):
		return "queue full"
	default:
		return err.Error()
	}
}
