// Command coherence drives random traffic through a full hierarchy and checks
// that no line ever has a writer next to another copy, that every access
// completes, and that every requester reads back its own writes.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/mem/cache"
	"github.com/sarchlab/msisim/mem/cache/l1"
	"github.com/sarchlab/msisim/requester"
	"github.com/sarchlab/msisim/sim"
	"github.com/sarchlab/msisim/system"
)

var seedFlag = flag.Int64("seed", 0, "Random Seed")
var numAccessFlag = flag.Int("num-access", 10000,
	"Number of accesses per requester")
var numRequesterFlag = flag.Int("num-requesters", 4, "Number of requesters")
var sharedFlag = flag.Bool("shared", false,
	"Let the requesters access the same addresses, which skips the data check")

const regionSize = 1 << 20

// singleWriterChecker halts the simulation once a line is Modified in one L1
// while another L1 holds it.
type singleWriterChecker struct {
	engine sim.TimeTeller
	l1s    []*l1.Comp
	lines  map[uint64]bool
}

func (c *singleWriterChecker) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}

	for line := range c.lines {
		modified, valid := 0, 0

		for _, l1Cache := range c.l1s {
			switch l1Cache.State(line) {
			case cache.Modified:
				modified++
				valid++
			case cache.Shared:
				valid++
			}
		}

		if modified > 0 && valid > 1 {
			log.Panicf("cycle %d: line 0x%x has a writer and %d copies",
				c.engine.CurrentTime(), line, valid)
		}
	}
}

func main() {
	flag.Parse()

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	fmt.Fprintf(os.Stderr, "Seed %d\n", seed)

	engine := sim.NewSerialEngine()

	l1Config := cache.DefaultL1Config()
	l1Config.CacheSize = 1024
	l1Config.Associativity = 2

	l2Config := cache.DefaultL2Config()
	l2Config.CacheSize = 8192
	l2Config.Associativity = 4

	sys := system.MakeBuilder().
		WithEngine(engine).
		WithNumRequesters(*numRequesterFlag).
		WithL1Config(l1Config).
		WithL2Config(l2Config).
		Build("System")

	checker := &singleWriterChecker{
		engine: engine,
		l1s:    sys.L1s,
		lines:  make(map[uint64]bool),
	}
	engine.AcceptHook(checker)

	for i, r := range sys.Requesters {
		base := uint64(i) * regionSize
		if *sharedFlag {
			base = 0
		}

		ops := requester.RandomGenerator{
			NumOps:     *numAccessFlag,
			Base:       base,
			Seed:       seed + int64(i),
			WriteRatio: 0.4,
		}.Generate()

		for _, op := range ops {
			checker.lines[op.Address&^uint64(l1Config.LineSize-1)] = true
		}

		r.Enqueue(ops...)
	}

	err := engine.Run()
	if err != nil {
		log.Panic(err)
	}

	allAccessesMustComplete(sys)

	if !*sharedFlag {
		readsMustSeeWrites(sys)
	}

	fmt.Fprintf(os.Stderr, "Passed at cycle %d\n", engine.CurrentTime())
}

func allAccessesMustComplete(sys *system.System) {
	for _, r := range sys.Requesters {
		if !r.Done() || len(r.Completions) != *numAccessFlag {
			log.Panicf("%s: %d accesses left", r.Name(), r.NumLeft())
		}
	}

	for _, c := range sys.L1s {
		if c.MSHROccupancy() != 0 || c.WritebackQueueSize() != 0 {
			log.Panicf("%s: not drained", c.Name())
		}
	}

	if sys.L2.MSHROccupancy() != 0 || sys.Bus.QueueSize() != 0 {
		log.Panic("L2 or bus not drained")
	}
}

// readsMustSeeWrites replays the completions of each requester on a shadow
// memory that starts with the placeholder content of the main memory.
func readsMustSeeWrites(sys *system.System) {
	for _, r := range sys.Requesters {
		shadow := make(map[uint64]byte)

		for i, c := range r.Completions {
			if c.Command == mem.CmdWrite {
				for j, b := range c.Data {
					shadow[c.Address+uint64(j)] = b
				}

				continue
			}

			for j, got := range c.Result {
				addr := c.Address + uint64(j)

				want, found := shadow[addr]
				if !found {
					want = byte(addr)
				}

				if got != want {
					log.Panicf("%s: access %d read 0x%02x at 0x%x, want 0x%02x",
						r.Name(), i, got, addr, want)
				}
			}
		}
	}
}
