package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar counts the accesses of a run. Finished accesses have
// completed at the requester. InProgress ones are held by an L1 cache.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// Update replaces the counts. Finished never goes down, so a stale sample is
// ignored.
func (b *ProgressBar) Update(finished, inProgress uint64) {
	b.Lock()
	defer b.Unlock()

	if finished < b.Finished {
		return
	}

	b.Finished = finished
	b.InProgress = inProgress
}

// Fraction returns the share of the total that has finished.
func (b *ProgressBar) Fraction() float64 {
	b.Lock()
	defer b.Unlock()

	if b.Total == 0 {
		return 0
	}

	return float64(b.Finished) / float64(b.Total)
}
