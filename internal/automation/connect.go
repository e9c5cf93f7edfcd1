package automation

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultConnectTimeout = 4 * time.Second
	connectPollInterval   = 200 * time.Millisecond
)

// TimeoutError means the toolkit never reported the connection attempt done.
type TimeoutError struct {
	System string
	Node   string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s@%s: Instrument connection timeout.", e.System, e.Node)
}

// WaitForConnection reconnects inst to system on node and polls until the
// toolkit reports the connection attempt done. A timeout <= 0 means
// DefaultConnectTimeout.
func WaitForConnection(ctx context.Context, inst Instrument, node, system string, timeout time.Duration) error {
	return waitForConnection(ctx, inst, node, system, timeout, connectPollInterval)
}

func waitForConnection(ctx context.Context, inst Instrument, node, system string, timeout, poll time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	// A stale connection is dropped first; failure to do so is not fatal.
	_ = inst.Disconnect()
	if err := inst.Connect(node, system); err != nil {
		return &CallError{Op: "connect", Err: fmt.Errorf("instrument connection exception: %w", err)}
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for !inst.ConnectionDone() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return &CallError{Op: "connect", Err: &TimeoutError{System: system, Node: node}}
		case <-ticker.C:
		}
	}
	if !inst.ConnectionSucceeded() {
		return &CallError{Op: "connect", Err: fmt.Errorf("%s@%s: connection not succeeded", system, node)}
	}
	return nil
}
