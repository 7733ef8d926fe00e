package requester

import (
	"math/rand"

	"github.com/sarchlab/msisim/mem"
)

// RandomGenerator creates random 4-byte accesses in a 4 KB window above a base
// address.
type RandomGenerator struct {
	NumOps int
	Base   uint64
	Seed   int64

	// WriteRatio is the probability of an access being a write.
	WriteRatio float64
}

// Generate returns the accesses. The same seed always gives the same list.
func (g RandomGenerator) Generate() []Op {
	r := rand.New(rand.NewSource(g.Seed))
	ops := make([]Op, 0, g.NumOps)

	for i := 0; i < g.NumOps; i++ {
		op := Op{
			Address: g.Base + uint64(r.Intn(1024))*4,
			Command: mem.CmdRead,
			Length:  4,
		}

		if r.Float64() < g.WriteRatio {
			op.Command = mem.CmdWrite
			op.Data = make([]byte, 4)
			r.Read(op.Data)
		}

		ops = append(ops, op)
	}

	return ops
}
