package mshr_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/mem/cache/internal/mshr"
)

var _ = Describe("Table", func() {
	var (
		m     *mshr.Table
		trans *mem.Transaction
	)

	BeforeEach(func() {
		m = mshr.NewTable(2)
		trans = mem.NewTransaction(0x100, mem.CmdRead, 64,
			mem.Tags{OpKind: mem.OpLoad, PipelineKind: mem.PipelineMSHRFill})
	})

	It("should allocate and free an entry", func() {
		i, err := m.Allocate(0x100, mshr.KindRead, trans, 3)
		Expect(err).NotTo(HaveOccurred())

		found, ok := m.FindByAddress(0x100)
		Expect(ok).To(BeTrue())
		Expect(found).To(Equal(i))

		e := m.Entry(i)
		Expect(e.Trans).To(BeIdenticalTo(trans))
		Expect(e.IssueTime).To(BeEquivalentTo(3))
		Expect(e.Pending).To(BeTrue())
		Expect(e.Issued).To(BeFalse())

		Expect(m.Free(i)).To(Succeed())
		_, ok = m.FindByAddress(0x100)
		Expect(ok).To(BeFalse())
		Expect(m.NumPending()).To(Equal(0))
	})

	It("should refuse a second entry for the same address", func() {
		_, err := m.Allocate(0x100, mshr.KindRead, trans, 0)
		Expect(err).NotTo(HaveOccurred())

		_, err = m.Allocate(0x100, mshr.KindWrite, trans, 1)
		Expect(err).To(MatchError(mshr.ErrAddressPending))
		Expect(m.CountAddress(0x100)).To(Equal(1))
		Expect(m.NumPending()).To(Equal(1))
	})

	It("should refuse to allocate when full and mutate nothing", func() {
		_, err := m.Allocate(0x100, mshr.KindRead, trans, 0)
		Expect(err).NotTo(HaveOccurred())
		_, err = m.Allocate(0x200, mshr.KindRead, trans, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.IsFull()).To(BeTrue())

		_, err = m.Allocate(0x300, mshr.KindRead, trans, 0)
		Expect(err).To(MatchError(mshr.ErrFull))
		Expect(m.NumPending()).To(Equal(2))
		_, ok := m.FindByAddress(0x300)
		Expect(ok).To(BeFalse())
	})

	It("should reuse a freed entry", func() {
		i, _ := m.Allocate(0x100, mshr.KindRead, trans, 0)
		_, _ = m.Allocate(0x200, mshr.KindRead, trans, 0)
		Expect(m.Free(i)).To(Succeed())

		j, err := m.Allocate(0x300, mshr.KindWrite, trans, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(j).To(Equal(i))
	})

	It("should error when freeing an entry that is not pending", func() {
		Expect(m.Free(0)).NotTo(Succeed())
	})

	It("should hand out unissued entries oldest first", func() {
		a, _ := m.Allocate(0x100, mshr.KindRead, trans, 5)
		b, _ := m.Allocate(0x200, mshr.KindRead, trans, 2)

		next, ok := m.NextUnissued()
		Expect(ok).To(BeTrue())
		Expect(next).To(Equal(b))

		m.MarkIssued(b)
		next, ok = m.NextUnissued()
		Expect(ok).To(BeTrue())
		Expect(next).To(Equal(a))

		m.MarkIssued(a)
		_, ok = m.NextUnissued()
		Expect(ok).To(BeFalse())
	})

	It("should count only the entries waiting for a line as fills", func() {
		_, _ = m.Allocate(0x100, mshr.KindRead, trans, 0)
		_, _ = m.Allocate(0x200, mshr.KindWriteback, trans, 0)

		Expect(m.NumPending()).To(Equal(2))
		Expect(m.NumFills()).To(Equal(1))
	})

	It("should keep the stronger snoop", func() {
		i, _ := m.Allocate(0x100, mshr.KindWrite, trans, 0)
		m.MarkTaken(i)

		m.RecordSnoop(i, mshr.SnoopInvalidate)
		m.RecordSnoop(i, mshr.SnoopDowngrade)

		e := m.Entry(i)
		Expect(e.Taken).To(BeTrue())
		Expect(e.Snoop).To(Equal(mshr.SnoopInvalidate))
	})

	It("should clear the snoop when the entry is reused", func() {
		i, _ := m.Allocate(0x100, mshr.KindRead, trans, 0)
		m.RecordSnoop(i, mshr.SnoopDowngrade)
		Expect(m.Free(i)).To(Succeed())

		j, _ := m.Allocate(0x200, mshr.KindRead, trans, 0)

		Expect(m.Entry(j).Snoop).To(Equal(mshr.SnoopNone))
		Expect(m.Entry(j).Taken).To(BeFalse())
	})

	It("should reset", func() {
		_, _ = m.Allocate(0x100, mshr.KindRead, trans, 0)
		m.Reset()
		Expect(m.NumPending()).To(Equal(0))
	})
})
