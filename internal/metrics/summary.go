package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/logoscout/logoscout/internal/crawler"
)

// Summary is the process-wide run accumulator. Workers mutate it only
// through the atomic Record methods; the orchestrator reads it once, at
// shutdown, via Snapshot. Counters are monotonically non-decreasing.
type Summary struct {
	clock crawler.Clock
	start time.Time

	totalProcessed atomic.Uint64
	logosFound     atomic.Uint64

	mu     sync.Mutex
	errors map[crawler.ErrorKind]uint64
}

// NewSummary creates an accumulator anchored at the current time.
func NewSummary(clock crawler.Clock) *Summary {
	return &Summary{
		clock:  clock,
		start:  clock.Now(),
		errors: make(map[crawler.ErrorKind]uint64),
	}
}

// RecordSuccess counts one fully processed page, whether or not a logo was
// extracted from it.
func (s *Summary) RecordSuccess(hasLogo bool) {
	s.totalProcessed.Add(1)
	if hasLogo {
		s.logosFound.Add(1)
	}
}

// RecordError counts one per-item failure by kind.
func (s *Summary) RecordError(kind crawler.ErrorKind) {
	s.mu.Lock()
	s.errors[kind]++
	s.mu.Unlock()
}

// Snapshot returns a consistent copy of the accumulated counters.
func (s *Summary) Snapshot() Snapshot {
	s.mu.Lock()
	errors := make(map[crawler.ErrorKind]uint64, len(s.errors))
	for kind, count := range s.errors {
		errors[kind] = count
	}
	s.mu.Unlock()

	return Snapshot{
		TotalProcessed: s.totalProcessed.Load(),
		LogosFound:     s.logosFound.Load(),
		ErrorCounts:    errors,
		Elapsed:        s.clock.Now().Sub(s.start),
	}
}

// Snapshot is a point-in-time view of a Summary.
type Snapshot struct {
	TotalProcessed uint64
	LogosFound     uint64
	ErrorCounts    map[crawler.ErrorKind]uint64
	Elapsed        time.Duration
}

// SuccessPercent reports logos found as a percentage of processed pages.
func (s Snapshot) SuccessPercent() float64 {
	if s.TotalProcessed == 0 {
		return 0
	}
	return float64(s.LogosFound) / float64(s.TotalProcessed) * 100
}

// Rate reports processed pages per second over the run.
func (s Snapshot) Rate() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.TotalProcessed) / secs
}
