package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/logoscout/logoscout/internal/crawler"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestSummaryConcurrentIncrements(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0)}
	s := NewSummary(clock)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.RecordSuccess(j%2 == 0)
			}
			if n%2 == 0 {
				s.RecordError(crawler.ErrKindTimeout)
			} else {
				s.RecordError(crawler.ErrKindNetwork)
			}
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	require.Equal(t, uint64(1000), snap.TotalProcessed)
	require.Equal(t, uint64(500), snap.LogosFound)
	require.Equal(t, uint64(5), snap.ErrorCounts[crawler.ErrKindTimeout])
	require.Equal(t, uint64(5), snap.ErrorCounts[crawler.ErrKindNetwork])
	require.InDelta(t, 50.0, snap.SuccessPercent(), 0.001)
}

func TestSummarySnapshotElapsedAndRate(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	s := NewSummary(clock)
	s.RecordSuccess(true)
	s.RecordSuccess(false)
	clock.advance(2 * time.Second)

	snap := s.Snapshot()
	require.Equal(t, 2*time.Second, snap.Elapsed)
	require.InDelta(t, 1.0, snap.Rate(), 0.001)
}

func TestSnapshotZeroTotals(t *testing.T) {
	t.Parallel()

	snap := Snapshot{}
	require.Zero(t, snap.SuccessPercent())
	require.Zero(t, snap.Rate())
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()
	require.NotNil(t, Handler())
}
