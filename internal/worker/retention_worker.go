package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ayo6706/payment-notification/internal/observability"
	"go.uber.org/zap"
)

// OutcomePurger deletes outcome records older than a cutoff.
type OutcomePurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionWorker periodically drops outcome records past the retention window.
type RetentionWorker struct {
	purger    OutcomePurger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewRetentionWorker constructs a worker with an hourly interval.
func NewRetentionWorker(purger OutcomePurger, retention time.Duration) *RetentionWorker {
	return &RetentionWorker{
		purger:    purger,
		retention: retention,
		interval:  time.Hour,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// WithInterval updates the run interval.
func (w *RetentionWorker) WithInterval(interval time.Duration) *RetentionWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Start blocks and purges at the configured interval.
func (w *RetentionWorker) Start(ctx context.Context) {
	zap.L().Info("retention worker starting",
		zap.Duration("interval", w.interval),
		zap.Duration("retention", w.retention),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("retention worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("retention worker stop signal received")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *RetentionWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *RetentionWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

// RunOnce purges a single time.
func (w *RetentionWorker) RunOnce(ctx context.Context) {
	cutoff := w.now().Add(-w.retention)
	removed, err := w.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		observability.IncrementWorkerRun("retention", "failed")
		zap.L().Error("outcome retention run failed", zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("retention", "success")
	if removed > 0 {
		zap.L().Info("purged outcome records", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	}
}
