package system

import (
	"github.com/sarchlab/msisim/datarecording"
	"github.com/sarchlab/msisim/mem/cache"
)

// StatsTableName is the table RecordStats writes to.
const StatsTableName = "cache_stats"

// StatsEntry is one row of cache statistics.
type StatsEntry struct {
	Component          string
	ReadHits           uint64
	WriteHits          uint64
	ReadMisses         uint64
	WriteMisses        uint64
	Upgrades           uint64
	AddressConflicts   uint64
	CapacityRejections uint64
	Fills              uint64
	Evictions          uint64
	Writebacks         uint64
	Invalidations      uint64
	Downgrades         uint64
	WritebackStalls    uint64
	Retries            uint64
	HitRate            float64
}

func makeStatsEntry(name string, s cache.Stats) StatsEntry {
	return StatsEntry{
		Component:          name,
		ReadHits:           s.ReadHits,
		WriteHits:          s.WriteHits,
		ReadMisses:         s.ReadMisses,
		WriteMisses:        s.WriteMisses,
		Upgrades:           s.Upgrades,
		AddressConflicts:   s.AddressConflicts,
		CapacityRejections: s.CapacityRejections,
		Fills:              s.Fills,
		Evictions:          s.Evictions,
		Writebacks:         s.Writebacks,
		Invalidations:      s.Invalidations,
		Downgrades:         s.Downgrades,
		WritebackStalls:    s.WritebackStalls,
		Retries:            s.Retries,
		HitRate:            s.HitRate(),
	}
}

// Stats returns the statistics of every cache, L1 caches first.
func (s *System) Stats() []StatsEntry {
	entries := make([]StatsEntry, 0, len(s.L1s)+1)

	for _, c := range s.L1s {
		entries = append(entries, makeStatsEntry(c.Name(), c.Stats()))
	}

	entries = append(entries, makeStatsEntry(s.L2.Name(), s.L2.Stats()))

	return entries
}

// RecordStats writes the statistics of every cache to the recorder.
func (s *System) RecordStats(recorder datarecording.DataRecorder) {
	recorder.CreateTable(StatsTableName, StatsEntry{})

	for _, entry := range s.Stats() {
		recorder.InsertData(StatsTableName, entry)
	}

	recorder.Flush()
}
