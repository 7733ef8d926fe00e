package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/mem/cache/internal/mshr"
	"github.com/sarchlab/msisim/sim"
)

type recordingEngine struct {
	now    sim.VTimeInCycle
	events []sim.Event
}

func (e *recordingEngine) CurrentTime() sim.VTimeInCycle {
	return e.now
}

func (e *recordingEngine) Schedule(evt sim.Event) {
	e.events = append(e.events, evt)
}

func (e *recordingEngine) phaseEvents() []*mem.PhaseEvent {
	var evts []*mem.PhaseEvent

	for _, evt := range e.events {
		if pe, ok := evt.(*mem.PhaseEvent); ok {
			evts = append(evts, pe)
		}
	}

	return evts
}

type fakeOwner struct {
	*sim.ComponentBase

	tickRequests int
}

func (o *fakeOwner) Handle(_ sim.Event) error {
	return nil
}

func (o *fakeOwner) TickLater() {
	o.tickRequests++
}

type fakePolicy struct {
	core   *Core
	filled []mshr.Entry
	acked  []*mem.Transaction
	hold   bool
}

func (p *fakePolicy) PrepareWriteback(
	wb *WritebackRequest,
) (*mem.Transaction, bool) {
	if p.hold {
		return nil, false
	}

	return p.core.WritebackTransaction(wb), true
}

func (p *fakePolicy) Filled(entry mshr.Entry, _ *mem.Transaction) {
	p.filled = append(p.filled, entry)
}

func (p *fakePolicy) WritebackAcked(trans *mem.Transaction) {
	p.acked = append(p.acked, trans)
}

func smallConfig() Config {
	config := DefaultL1Config()
	config.CacheSize = 256
	config.Associativity = 2
	config.NumMSHREntry = 2

	return config
}

var _ = Describe("Core", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *recordingEngine
		owner    *fakeOwner
		policy   *fakePolicy
		bottom   *MockForwardHandler
		core     *Core
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = &recordingEngine{}
		owner = &fakeOwner{ComponentBase: sim.NewComponentBase("Cache")}
		policy = &fakePolicy{}
		bottom = NewMockForwardHandler(mockCtrl)

		var err error
		core, err = NewCore(smallConfig(), engine, owner, policy)
		Expect(err).NotTo(HaveOccurred())

		policy.core = core
		core.SetBottom(bottom)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should refuse an invalid configuration", func() {
		config := smallConfig()
		config.LineSize = 48

		_, err := NewCore(config, engine, owner, policy)

		Expect(err).To(HaveOccurred())
	})

	Context("allocating misses", func() {
		It("should key the entry by line address", func() {
			trans := mem.NewTransaction(0x104, mem.CmdRead, 4,
				mem.Tags{OpKind: mem.OpLoad, PipelineKind: mem.PipelineMSHRFill})

			Expect(core.AllocateMiss(trans, mshr.KindRead)).To(Succeed())

			Expect(core.HasPending(0x100)).To(BeTrue())
			Expect(core.HasPending(0x13c)).To(BeTrue())
			Expect(core.NumPendingFor(0x100)).To(Equal(1))
			Expect(core.Stats.ReadMisses).To(Equal(uint64(1)))
			Expect(owner.tickRequests).To(Equal(1))
		})

		It("should reject a second miss on a pending line", func() {
			first := mem.NewTransaction(0x100, mem.CmdRead, 4, mem.Tags{})
			second := mem.NewTransaction(0x110, mem.CmdWrite, 4, mem.Tags{})

			Expect(core.AllocateMiss(first, mshr.KindRead)).To(Succeed())
			err := core.AllocateMiss(second, mshr.KindWrite)

			Expect(err).To(MatchError(mshr.ErrAddressPending))
			Expect(core.MSHROccupancy()).To(Equal(1))
			Expect(core.Stats.AddressConflicts).To(Equal(uint64(1)))
		})

		It("should reject a miss when the table is full", func() {
			for i := uint64(0); i < 2; i++ {
				trans := mem.NewTransaction(i*64, mem.CmdRead, 4, mem.Tags{})
				Expect(core.AllocateMiss(trans, mshr.KindRead)).To(Succeed())
			}

			trans := mem.NewTransaction(0x400, mem.CmdRead, 4, mem.Tags{})
			err := core.AllocateMiss(trans, mshr.KindRead)

			Expect(err).To(MatchError(mshr.ErrFull))
			Expect(core.MSHROccupancy()).To(Equal(2))
			Expect(core.Stats.CapacityRejections).To(Equal(uint64(1)))
		})
	})

	Context("guarding the write-back queue", func() {
		BeforeEach(func() {
			for _, addr := range []uint64{0x000, 0x040, 0x080, 0x0c0} {
				core.Install(addr, Modified, nil)
			}

			core.Invalidate(0x000)
			core.Invalidate(0x040)
			core.Install(0x100, Modified, nil)
			core.Install(0x140, Modified, nil)
		})

		It("should refuse a miss while every slot is held", func() {
			Expect(core.WritebackQueueSize()).To(Equal(2))
			Expect(core.CanDirty()).To(BeFalse())

			trans := mem.NewTransaction(0x200, mem.CmdRead, 4, mem.Tags{})
			err := core.AllocateMiss(trans, mshr.KindRead)

			Expect(err).To(MatchError(ErrWritebackQueueFull))
			Expect(core.MSHROccupancy()).To(Equal(0))
			Expect(core.Stats.WritebackStalls).To(Equal(uint64(1)))
			Expect(core.Stats.ReadMisses).To(BeZero())
		})

		It("should free a slot when a write-back leaves the queue", func() {
			core.Tick()

			Expect(core.WritebackQueueSize()).To(Equal(1))
			Expect(core.CanDirty()).To(BeTrue())

			trans := mem.NewTransaction(0x200, mem.CmdRead, 4, mem.Tags{})
			Expect(core.AllocateMiss(trans, mshr.KindRead)).To(Succeed())
			Expect(core.CanDirty()).To(BeFalse())
		})
	})

	Context("sending requests", func() {
		var trans *mem.Transaction

		BeforeEach(func() {
			trans = mem.NewTransaction(0x104, mem.CmdWrite, 4, mem.Tags{})
			Expect(core.AllocateMiss(trans, mshr.KindWrite)).To(Succeed())
		})

		It("should send a line-sized fill request", func() {
			var sent *mem.Transaction

			bottom.EXPECT().
				HandleForward(gomock.Any(), mem.BeginReq).
				DoAndReturn(func(t *mem.Transaction, _ mem.Phase) mem.SyncStatus {
					sent = t
					return mem.Accepted
				})

			core.Tick()
			Expect(core.Tick()).To(BeTrue())

			Expect(sent.Address).To(Equal(uint64(0x100)))
			Expect(sent.Length).To(Equal(64))
			Expect(sent.Command).To(Equal(mem.CmdWrite))
			Expect(sent.Tags.OpKind).To(Equal(mem.OpStore))
			Expect(sent.Tags.PipelineKind).To(Equal(mem.PipelineMSHRFill))
			Expect(core.RequestQueueSize()).To(Equal(0))
		})

		It("should keep the request when it is refused", func() {
			bottom.EXPECT().
				HandleForward(gomock.Any(), mem.BeginReq).
				Return(mem.Completed)

			core.Tick()
			core.Tick()
			Expect(core.RequestQueueSize()).To(Equal(1))

			bottom.EXPECT().
				HandleForward(gomock.Any(), mem.BeginReq).
				Return(mem.Completed)

			engine.now = 1
			core.Tick()

			Expect(core.RequestQueueSize()).To(Equal(1))
			Expect(core.Stats.Retries).To(Equal(uint64(2)))
		})

		It("should wait for Request-End before the next request", func() {
			other := mem.NewTransaction(0x40, mem.CmdRead, 4, mem.Tags{})
			Expect(core.AllocateMiss(other, mshr.KindRead)).To(Succeed())

			var sent []*mem.Transaction
			bottom.EXPECT().
				HandleForward(gomock.Any(), mem.BeginReq).
				DoAndReturn(func(t *mem.Transaction, _ mem.Phase) mem.SyncStatus {
					sent = append(sent, t)
					return mem.Accepted
				}).
				Times(2)

			core.Tick()
			core.Tick()
			engine.now = 10
			core.Tick()
			Expect(sent).To(HaveLen(1))

			core.RequestEnded(sent[0])
			core.Tick()
			Expect(sent).To(HaveLen(2))
		})

		It("should respect the issue interval", func() {
			other := mem.NewTransaction(0x40, mem.CmdRead, 4, mem.Tags{})
			Expect(core.AllocateMiss(other, mshr.KindRead)).To(Succeed())

			count := 0
			bottom.EXPECT().
				HandleForward(gomock.Any(), mem.BeginReq).
				DoAndReturn(func(_ *mem.Transaction, _ mem.Phase) mem.SyncStatus {
					count++
					return mem.Updated
				}).
				Times(2)

			core.Tick()
			core.Tick()
			Expect(count).To(Equal(1))

			engine.now = 1
			core.Tick()
			Expect(count).To(Equal(1))

			engine.now = 2
			core.Tick()
			Expect(count).To(Equal(2))
		})

		It("should panic on an unexpected Request-End", func() {
			stray := mem.NewTransaction(0x40, mem.CmdRead, 64,
				mem.Tags{OpKind: mem.OpLoad, PipelineKind: mem.PipelineMSHRFill})

			Expect(func() { core.RequestEnded(stray) }).To(Panic())
		})
	})

	Context("receiving fills", func() {
		It("should install the line and free the entry", func() {
			trans := mem.NewTransaction(0x104, mem.CmdRead, 4, mem.Tags{})
			Expect(core.AllocateMiss(trans, mshr.KindRead)).To(Succeed())

			var sent *mem.Transaction
			bottom.EXPECT().
				HandleForward(gomock.Any(), mem.BeginReq).
				DoAndReturn(func(t *mem.Transaction, _ mem.Phase) mem.SyncStatus {
					sent = t
					return mem.Updated
				})
			core.Tick()
			core.Tick()

			sent.Data[4] = 0xaa
			core.HandleResponse(sent)

			line, found := core.Lookup(0x104)
			Expect(found).To(BeTrue())
			Expect(line.State).To(Equal(Shared))
			Expect(line.Data[4]).To(Equal(byte(0xaa)))
			Expect(core.HasPending(0x100)).To(BeFalse())
			Expect(policy.filled).To(HaveLen(1))
			Expect(policy.filled[0].Trans).To(BeIdenticalTo(trans))

			evts := engine.phaseEvents()
			Expect(evts).To(HaveLen(1))
			Expect(evts[0].Phase).To(Equal(mem.EndResp))
			Expect(evts[0].Trans).To(BeIdenticalTo(sent))
		})

		It("should install a write fill as Modified", func() {
			trans := mem.NewTransaction(0x100, mem.CmdWrite, 4, mem.Tags{})
			Expect(core.AllocateMiss(trans, mshr.KindWrite)).To(Succeed())

			fill := mem.NewTransaction(0x100, mem.CmdWrite, 64,
				mem.Tags{OpKind: mem.OpStore, PipelineKind: mem.PipelineMSHRFill})
			core.HandleResponse(fill)

			Expect(core.State(0x100)).To(Equal(Modified))
		})

		It("should panic on a fill without an entry", func() {
			fill := mem.NewTransaction(0x100, mem.CmdRead, 64,
				mem.Tags{OpKind: mem.OpLoad, PipelineKind: mem.PipelineMSHRFill})

			Expect(func() { core.HandleResponse(fill) }).To(Panic())
		})

		It("should hand write-back acknowledgments to the policy", func() {
			ack := mem.NewTransaction(0x100, mem.CmdWrite, 64,
				mem.Tags{OpKind: mem.OpStore, PipelineKind: mem.PipelineWriteback})

			core.HandleResponse(ack)

			Expect(policy.acked).To(ConsistOf(ack))
		})
	})

	Context("evicting", func() {
		It("should write back a Modified victim", func() {
			core.Install(0x000, Modified, nil)
			core.Install(0x080, Shared, nil)
			core.Install(0x100, Shared, nil)

			Expect(core.State(0x000)).To(Equal(Invalid))
			Expect(core.WritebackQueueSize()).To(Equal(1))
			Expect(core.IsWritebackQueued(0x010)).To(BeTrue())
			Expect(core.Stats.Evictions).To(Equal(uint64(1)))
		})

		It("should silently drop a Shared victim", func() {
			core.Install(0x000, Shared, nil)
			core.Install(0x080, Modified, nil)
			core.Lookup(0x080)
			core.Install(0x100, Shared, nil)

			Expect(core.State(0x000)).To(Equal(Invalid))
			Expect(core.State(0x080)).To(Equal(Modified))
			Expect(core.WritebackQueueSize()).To(Equal(0))
		})

		It("should send queued write-backs downstream", func() {
			core.Install(0x000, Modified, []byte{1, 2, 3})
			Expect(core.Invalidate(0x000)).To(BeTrue())

			var sent *mem.Transaction
			bottom.EXPECT().
				HandleForward(gomock.Any(), mem.BeginReq).
				DoAndReturn(func(t *mem.Transaction, _ mem.Phase) mem.SyncStatus {
					sent = t
					return mem.Updated
				})

			core.Tick()
			core.Tick()

			Expect(sent.Tags.PipelineKind).To(Equal(mem.PipelineWriteback))
			Expect(sent.Command).To(Equal(mem.CmdWrite))
			Expect(sent.Data[:3]).To(Equal([]byte{1, 2, 3}))
			Expect(core.WritebackQueueSize()).To(Equal(0))
			Expect(core.IsWritebackQueued(0x000)).To(BeFalse())
		})

		It("should hold write-backs the policy is not ready for", func() {
			policy.hold = true
			core.Install(0x000, Modified, nil)
			core.Invalidate(0x000)

			Expect(core.Tick()).To(BeFalse())
			Expect(core.WritebackQueueSize()).To(Equal(1))
		})
	})

	Context("snooping", func() {
		It("should downgrade a Modified line with a write-back", func() {
			core.Install(0x40, Modified, nil)

			Expect(core.Downgrade(0x40)).To(BeTrue())

			Expect(core.State(0x40)).To(Equal(Shared))
			Expect(core.WritebackQueueSize()).To(Equal(1))
		})

		It("should not downgrade a Shared line", func() {
			core.Install(0x40, Shared, nil)

			Expect(core.Downgrade(0x40)).To(BeFalse())
			Expect(core.State(0x40)).To(Equal(Shared))
		})

		It("should invalidate a Shared line without a write-back", func() {
			core.Install(0x40, Shared, nil)

			Expect(core.Invalidate(0x40)).To(BeTrue())

			Expect(core.State(0x40)).To(Equal(Invalid))
			Expect(core.WritebackQueueSize()).To(Equal(0))
		})

		It("should apply a snoop that hit a taken fill", func() {
			trans := mem.NewTransaction(0x100, mem.CmdWrite, 4, mem.Tags{})
			Expect(core.AllocateMiss(trans, mshr.KindWrite)).To(Succeed())

			var sent *mem.Transaction
			bottom.EXPECT().
				HandleForward(gomock.Any(), mem.BeginReq).
				DoAndReturn(func(t *mem.Transaction, _ mem.Phase) mem.SyncStatus {
					sent = t
					return mem.Updated
				})
			core.Tick()
			core.Tick()

			Expect(core.Invalidate(0x100)).To(BeFalse())
			core.HandleResponse(sent)

			Expect(policy.filled).To(HaveLen(1))
			Expect(core.State(0x100)).To(Equal(Invalid))
			Expect(core.WritebackQueueSize()).To(Equal(1))
		})

		It("should not apply a snoop to a fill not yet taken", func() {
			trans := mem.NewTransaction(0x100, mem.CmdRead, 4, mem.Tags{})
			Expect(core.AllocateMiss(trans, mshr.KindRead)).To(Succeed())

			var sent *mem.Transaction
			bottom.EXPECT().
				HandleForward(gomock.Any(), mem.BeginReq).
				DoAndReturn(func(t *mem.Transaction, _ mem.Phase) mem.SyncStatus {
					sent = t
					return mem.Accepted
				})
			core.Tick()
			core.Tick()

			core.Invalidate(0x100)
			core.RequestEnded(sent)
			core.HandleResponse(sent)

			Expect(core.State(0x100)).To(Equal(Shared))
		})

		It("should ignore an absent line", func() {
			Expect(core.Invalidate(0x40)).To(BeFalse())
			Expect(core.Downgrade(0x40)).To(BeFalse())
		})
	})
})
