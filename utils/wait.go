// Package utils contains small helpers shared by the control loop and its producers.
package utils

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// SelectContextOrWait waits for d on the given clock. It returns ctx.Err() if the context is
// done first. A non-positive duration returns immediately unless the context is already done.
func SelectContextOrWait(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := clk.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
