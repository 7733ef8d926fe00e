package sim

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EventLogger", func() {
	It("should print each event before it is handled", func() {
		buf := bytes.NewBuffer(nil)
		engine := NewSerialEngine()
		engine.AcceptHook(NewEventLogger(log.New(buf, "", 0)))

		ticker := &countdownTicker{remaining: 0}
		ticker.tc = NewTickingComponent("Ticker", engine, ticker)
		ticker.tc.TickLater()

		Expect(engine.Run()).To(Succeed())

		Expect(buf.String()).To(Equal("1, sim.TickEvent -> Ticker\n"))
	})
})
