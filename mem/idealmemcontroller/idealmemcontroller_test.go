package idealmemcontroller

import (
	"go.uber.org/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/sim"
)

var _ = Describe("Ideal Memory Controller", func() {
	var (
		mockCtrl      *gomock.Controller
		engine        *MockEventScheduler
		top           *MockBackwardHandler
		memController *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEventScheduler(mockCtrl)
		top = NewMockBackwardHandler(mockCtrl)

		memController = MakeBuilder().
			WithEngine(engine).
			Build("MemCtrl")
		memController.SetTop(top)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should synthesize data that was never written", func() {
		data := memController.Access(0x100, mem.CmdRead, make([]byte, 4))

		Expect(data).To(Equal([]byte{0x00, 0x01, 0x02, 0x03}))
	})

	It("should read back written data", func() {
		memController.Access(0x101, mem.CmdWrite, []byte{9, 9})

		data := memController.Access(0x100, mem.CmdRead, make([]byte, 4))

		Expect(data).To(Equal([]byte{0x00, 9, 9, 0x03}))
		Expect(memController.Stats.Writes).To(Equal(uint64(1)))
		Expect(memController.Stats.Reads).To(Equal(uint64(1)))
	})

	It("should accept a request and schedule its phases", func() {
		trans := mem.NewTransaction(0x40, mem.CmdRead, 64,
			mem.Tags{OpKind: mem.OpLoad, PipelineKind: mem.PipelineMSHRFill})

		var events []sim.Event
		engine.EXPECT().CurrentTime().Return(sim.VTimeInCycle(10)).AnyTimes()
		engine.EXPECT().
			Schedule(gomock.Any()).
			Do(func(e sim.Event) { events = append(events, e) }).
			Times(2)

		status := memController.HandleForward(trans, mem.BeginReq)

		Expect(status).To(Equal(mem.Accepted))
		Expect(events[0]).To(BeAssignableToTypeOf(&mem.PhaseEvent{}))
		Expect(events[0].Time()).To(Equal(sim.VTimeInCycle(15)))
		Expect(events[1]).To(BeAssignableToTypeOf(&respondEvent{}))
		Expect(events[1].Time()).To(Equal(sim.VTimeInCycle(110)))
		Expect(memController.NumInflight()).To(Equal(1))
	})

	It("should not respond before Request-End when the latency is short", func() {
		fast := MakeBuilder().
			WithEngine(engine).
			WithLatency(2).
			WithHandshakeDelay(5).
			Build("FastMemCtrl")
		fast.SetTop(top)

		trans := mem.NewTransaction(0x40, mem.CmdRead, 64,
			mem.Tags{OpKind: mem.OpLoad, PipelineKind: mem.PipelineMSHRFill})

		var events []sim.Event
		engine.EXPECT().CurrentTime().Return(sim.VTimeInCycle(10)).AnyTimes()
		engine.EXPECT().
			Schedule(gomock.Any()).
			Do(func(e sim.Event) { events = append(events, e) }).
			Times(2)

		Expect(fast.HandleForward(trans, mem.BeginReq)).To(Equal(mem.Accepted))

		Expect(events[0].(*mem.PhaseEvent).Phase).To(Equal(mem.EndReq))
		Expect(events[0].Time()).To(Equal(sim.VTimeInCycle(15)))
		Expect(events[1]).To(BeAssignableToTypeOf(&respondEvent{}))
		Expect(events[1].Time()).To(Equal(sim.VTimeInCycle(15)))
	})

	It("should respond with the data", func() {
		trans := mem.NewTransaction(0x40, mem.CmdRead, 2,
			mem.Tags{OpKind: mem.OpLoad, PipelineKind: mem.PipelineMSHRFill})
		evt := newRespondEvent(110, memController, trans)

		top.EXPECT().HandleBackward(trans, mem.BeginResp)

		Expect(memController.Handle(evt)).To(Succeed())

		Expect(trans.Data).To(Equal([]byte{0x40, 0x41}))
		Expect(trans.Status).To(Equal(mem.RespOK))
	})

	It("should count acknowledged responses", func() {
		trans := mem.NewTransaction(0x40, mem.CmdWrite, 2,
			mem.Tags{OpKind: mem.OpStore, PipelineKind: mem.PipelineWriteback})

		engine.EXPECT().CurrentTime().Return(sim.VTimeInCycle(0)).AnyTimes()
		engine.EXPECT().Schedule(gomock.Any()).Times(2)

		memController.HandleForward(trans, mem.BeginReq)
		memController.HandleForward(trans, mem.EndResp)

		Expect(memController.NumInflight()).To(Equal(0))
		Expect(memController.Stats.Completed).To(Equal(uint64(1)))
	})

	It("should panic on an unknown Response-End", func() {
		trans := mem.NewTransaction(0x40, mem.CmdRead, 2,
			mem.Tags{OpKind: mem.OpLoad, PipelineKind: mem.PipelineMSHRFill})

		Expect(func() {
			memController.HandleForward(trans, mem.EndResp)
		}).To(Panic())
	})
})
