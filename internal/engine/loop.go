// Package engine drives the decision cycles: the run-then-sleep polling
// loops, the per-cycle venue fan-out, and the journaling of every action.
package engine

import (
	"context"
	"log/slog"
	"time"
)

// Loop runs fn on a fixed cadence until ctx is cancelled. Cycles never
// overlap: the next sleep starts only after the previous cycle returns. A
// cycle error or panic is logged and the loop continues — nothing that
// happens inside a cycle may terminate the loop. When a cycle fails the
// loop waits retryDelay instead of interval before the next attempt.
func Loop(ctx context.Context, logger *slog.Logger, name string, interval, retryDelay time.Duration, fn func(context.Context) error) error {
	logger = logger.With(slog.String("loop", name))
	logger.Info("loop started", slog.Duration("interval", interval))

	for {
		if err := ctx.Err(); err != nil {
			logger.Info("loop stopped")
			return err
		}

		start := time.Now()
		err := runIsolated(ctx, logger, fn)

		wait := interval
		if err != nil && ctx.Err() == nil {
			logger.Error("cycle failed",
				slog.String("error", err.Error()),
				slog.Duration("elapsed", time.Since(start)))
			if retryDelay > 0 {
				wait = retryDelay
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("loop stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// runIsolated invokes one cycle with panic recovery, so a programming error
// in a single cycle degrades to a logged failure instead of a crash.
func runIsolated(ctx context.Context, logger *slog.Logger, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("cycle panicked", slog.Any("panic", r))
			err = nil // treated as a logged failure, loop continues
		}
	}()
	return fn(ctx)
}
