package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoopStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Loop(ctx, testLogger(), "test", time.Millisecond, 0, func(context.Context) error {
			runs.Add(1)
			return nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Greater(t, runs.Load(), int32(1))
}

func TestLoopCyclesDoNotOverlap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var inCycle atomic.Int32
	var overlapped atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- Loop(ctx, testLogger(), "test", time.Millisecond, 0, func(context.Context) error {
			if inCycle.Add(1) > 1 {
				overlapped.Store(true)
			}
			time.Sleep(5 * time.Millisecond)
			inCycle.Add(-1)
			return nil
		})
	}()

	time.Sleep(40 * time.Millisecond)
	cancel()
	<-done

	assert.False(t, overlapped.Load(), "cycles must never overlap")
}

func TestLoopSurvivesErrorsAndPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Loop(ctx, testLogger(), "test", time.Millisecond, time.Millisecond, func(context.Context) error {
			n := runs.Add(1)
			switch n {
			case 1:
				return errors.New("venue down")
			case 2:
				panic("bug in cycle")
			}
			return nil
		})
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done

	assert.Greater(t, runs.Load(), int32(2), "loop must outlive both an error and a panic")
}
