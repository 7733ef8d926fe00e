package l2

import (
	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/mem/cache"
	"github.com/sarchlab/msisim/mem/cache/internal/mshr"
	"github.com/sarchlab/msisim/tracing"
)

type policy struct {
	comp *Comp
}

// PrepareWriteback holds a write-back until an MSHR entry can track it. A
// fill of the same line is refused while the entry is pending.
func (p *policy) PrepareWriteback(
	wb *cache.WritebackRequest,
) (*mem.Transaction, bool) {
	trans := p.comp.core.WritebackTransaction(wb)
	if !p.comp.core.TrackWriteback(wb, trans) {
		return nil, false
	}

	return trans, true
}

func (p *policy) Filled(entry mshr.Entry, fill *mem.Transaction) {
	c := p.comp
	trans := entry.Trans

	copy(trans.Data, fill.Data)

	if !trans.IsRead() {
		c.owners[entry.Address] = trans.Tags.SourceID
	}

	tracing.AddTaskStep(tracing.ReqInTaskID(trans.ID, c), c, "fill")
	c.respond(trans, 0)
}

func (p *policy) WritebackAcked(trans *mem.Transaction) {
	p.comp.core.ReleaseWriteback(trans.Address)
}
