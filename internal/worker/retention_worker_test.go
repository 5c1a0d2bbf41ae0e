package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (p *fakePurger) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, cutoff)
	return 3, p.err
}

func (p *fakePurger) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoffs)
}

func TestRetentionWorkerRunOnceUsesRetentionWindow(t *testing.T) {
	purger := &fakePurger{}
	w := NewRetentionWorker(purger, 48*time.Hour)
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	w.RunOnce(context.Background())

	require.Equal(t, 1, purger.calls())
	assert.Equal(t, now.Add(-48*time.Hour), purger.cutoffs[0])
}

func TestRetentionWorkerSurvivesFailures(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	w := NewRetentionWorker(purger, time.Hour)

	w.RunOnce(context.Background())
	w.RunOnce(context.Background())
	assert.Equal(t, 2, purger.calls())
}

func TestRetentionWorkerRunsUntilStopped(t *testing.T) {
	purger := &fakePurger{}
	w := NewRetentionWorker(purger, time.Hour).WithInterval(5 * time.Millisecond)

	stop := w.Run(context.Background())
	require.Eventually(t, func() bool { return purger.calls() >= 3 }, time.Second, 5*time.Millisecond)
	stop()
	stop()

	settled := purger.calls()
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, purger.calls(), settled+1)
}
