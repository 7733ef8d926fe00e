package cache

// Stats counts what happened in one cache level.
type Stats struct {
	ReadHits    uint64
	WriteHits   uint64
	ReadMisses  uint64
	WriteMisses uint64
	Upgrades    uint64

	// AddressConflicts counts requests turned away because their line
	// already had a pending MSHR entry.
	AddressConflicts uint64

	// CapacityRejections counts requests turned away because the MSHR table
	// was full.
	CapacityRejections uint64

	Fills         uint64
	Evictions     uint64
	Writebacks    uint64
	Invalidations uint64
	Downgrades    uint64

	// WritebackStalls counts requests turned away because the write-back
	// queue had no slot for the line they would dirty.
	WritebackStalls uint64

	// Retries counts downstream requests that were refused and sent again.
	Retries uint64
}

// HitRate returns the fraction of accesses that hit.
func (s Stats) HitRate() float64 {
	hits := s.ReadHits + s.WriteHits
	total := hits + s.ReadMisses + s.WriteMisses

	if total == 0 {
		return 0
	}

	return float64(hits) / float64(total)
}
