package l1

import (
	"log"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/mem/cache"
	"github.com/sarchlab/msisim/mem/cache/internal/mshr"
)

type policy struct {
	comp *Comp
}

func (p *policy) PrepareWriteback(
	wb *cache.WritebackRequest,
) (*mem.Transaction, bool) {
	return p.comp.core.WritebackTransaction(wb), true
}

// Filled completes the requester's access with the newly installed line.
func (p *policy) Filled(entry mshr.Entry, fill *mem.Transaction) {
	c := p.comp
	trans := entry.Trans

	line, found := c.core.Lookup(fill.Address)
	if !found {
		log.Panicf("%s: filled line 0x%x is not in the store",
			c.Name(), fill.Address)
	}

	_, _, offset := c.core.Geometry().Decompose(trans.Address)
	if trans.IsRead() {
		copy(trans.Data, line.Data[offset:])
	} else {
		copy(line.Data[offset:], trans.Data)
	}

	c.deliver(trans)
}

func (p *policy) WritebackAcked(_ *mem.Transaction) {}
