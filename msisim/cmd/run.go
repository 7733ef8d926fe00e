package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/msisim/mem/cache"
	"github.com/sarchlab/msisim/mem/trace"
	"github.com/sarchlab/msisim/monitoring"
	"github.com/sarchlab/msisim/requester"
	"github.com/sarchlab/msisim/sim"
	"github.com/sarchlab/msisim/simulation"
	"github.com/sarchlab/msisim/system"
	"github.com/sarchlab/msisim/tracing"
)

type runConfig struct {
	numRequesters int
	numOps        int
	seed          int64
	writeRatio    float64

	lineSize     int
	l1Size       int
	l1Ways       int
	l1MSHR       int
	l2Size       int
	l2Ways       int
	l2MSHR       int
	victimPolicy string

	memoryLatency int
	busQueueSize  int
	issueInterval int

	output      string
	monitor     bool
	monitorPort int
	trace       bool
	traceMemory bool
	logEvents   bool
}

var runCfg runConfig

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run random traffic through the cache hierarchy.",
	Long: `Run builds the hierarchy, lets every requester issue random ` +
		`reads and writes, and prints the statistics of every cache. The ` +
		`statistics are also recorded in the output database.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return run(runCfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.IntVar(&runCfg.numRequesters, "requesters",
		envInt("REQUESTERS", 2), "number of requesters and L1 caches")
	f.IntVar(&runCfg.numOps, "ops",
		envInt("OPS", 10), "number of accesses per requester")
	f.Int64Var(&runCfg.seed, "seed",
		int64(envInt("SEED", 1)), "seed of the traffic generator")
	f.Float64Var(&runCfg.writeRatio, "write-ratio",
		envFloat("WRITE_RATIO", 0.5), "fraction of accesses that write")

	f.IntVar(&runCfg.lineSize, "line-size",
		envInt("LINE_SIZE", 64), "line size in bytes of both levels")
	f.IntVar(&runCfg.l1Size, "l1-size",
		envInt("L1_SIZE", 8192), "L1 capacity in bytes")
	f.IntVar(&runCfg.l1Ways, "l1-ways",
		envInt("L1_WAYS", 4), "L1 associativity")
	f.IntVar(&runCfg.l1MSHR, "l1-mshr",
		envInt("L1_MSHR", 8), "L1 MSHR entries")
	f.IntVar(&runCfg.l2Size, "l2-size",
		envInt("L2_SIZE", 65536), "L2 capacity in bytes")
	f.IntVar(&runCfg.l2Ways, "l2-ways",
		envInt("L2_WAYS", 8), "L2 associativity")
	f.IntVar(&runCfg.l2MSHR, "l2-mshr",
		envInt("L2_MSHR", 16), "L2 MSHR entries")
	f.StringVar(&runCfg.victimPolicy, "victim-policy",
		envString("VICTIM_POLICY", "lru"), "victim policy, lru or fixed")

	f.IntVar(&runCfg.memoryLatency, "memory-latency",
		envInt("MEMORY_LATENCY", 100), "main memory latency in cycles")
	f.IntVar(&runCfg.busQueueSize, "bus-queue",
		envInt("BUS_QUEUE", 16), "requests that can wait for the bus")
	f.IntVar(&runCfg.issueInterval, "issue-interval",
		envInt("ISSUE_INTERVAL", 2), "cycles between two requester accesses")

	f.StringVar(&runCfg.output, "output",
		envString("OUTPUT", ""), "database name, without the .sqlite3 suffix")
	f.BoolVar(&runCfg.monitor, "monitor",
		envBool("MONITOR", false), "serve the monitoring page")
	f.IntVar(&runCfg.monitorPort, "monitor-port",
		envInt("MONITOR_PORT", 0), "port of the monitoring page")
	f.BoolVar(&runCfg.trace, "trace",
		envBool("TRACE", false), "record every task in the database")
	f.BoolVar(&runCfg.traceMemory, "trace-memory",
		envBool("TRACE_MEMORY", false),
		"record every memory transaction and its steps in the database")
	f.BoolVar(&runCfg.logEvents, "log-events",
		envBool("LOG_EVENTS", false), "print every event to stderr")
}

func (c runConfig) cacheConfigs() (l1, l2 cache.Config) {
	l1 = cache.DefaultL1Config()
	l1.LineSize = c.lineSize
	l1.CacheSize = c.l1Size
	l1.Associativity = c.l1Ways
	l1.NumMSHREntry = c.l1MSHR
	l1.VictimPolicy = c.victimPolicy

	l2 = cache.DefaultL2Config()
	l2.LineSize = c.lineSize
	l2.CacheSize = c.l2Size
	l2.Associativity = c.l2Ways
	l2.NumMSHREntry = c.l2MSHR
	l2.VictimPolicy = c.victimPolicy

	return l1, l2
}

func (c runConfig) validate() error {
	l1, l2 := c.cacheConfigs()

	if err := l1.Validate(); err != nil {
		return fmt.Errorf("invalid L1 configuration: %w", err)
	}

	if err := l2.Validate(); err != nil {
		return fmt.Errorf("invalid L2 configuration: %w", err)
	}

	if c.numRequesters <= 0 {
		return errors.New("at least one requester is needed")
	}

	if c.busQueueSize <= 0 || c.memoryLatency <= 0 || c.issueInterval <= 0 {
		return errors.New("bus queue, memory latency, and issue interval " +
			"must be positive")
	}

	return nil
}

func (c runConfig) buildSimulation() *simulation.Simulation {
	b := simulation.MakeBuilder().WithOutputFileName(c.output)

	if c.monitor {
		b = b.WithMonitorPort(c.monitorPort)
	} else {
		b = b.WithoutMonitoring()
	}

	if c.trace {
		b = b.WithTracing()
	}

	return b.Build()
}

func run(c runConfig) error {
	if err := c.validate(); err != nil {
		return err
	}

	l1Config, l2Config := c.cacheConfigs()

	s := c.buildSimulation()
	defer s.Terminate()

	engine := s.GetEngine()
	if c.logEvents {
		engine.AcceptHook(sim.NewEventLogger(log.New(os.Stderr, "", 0)))
	}

	sys := system.MakeBuilder().
		WithEngine(engine).
		WithNumRequesters(c.numRequesters).
		WithL1Config(l1Config).
		WithL2Config(l2Config).
		WithBusQueueSize(c.busQueueSize).
		WithMemoryLatency(sim.VTimeInCycle(c.memoryLatency)).
		WithIssueInterval(sim.VTimeInCycle(c.issueInterval)).
		Build("System")

	for _, comp := range sys.Components() {
		s.RegisterComponent(comp)
	}

	steps := tracing.NewStepCountTracer(func(t tracing.Task) bool {
		return t.Kind == "req_in"
	})
	fills := tracing.NewAverageTimeTracer(engine, func(t tracing.Task) bool {
		return t.Kind == "req_out" && t.What != "writeback"
	})

	for _, l1 := range sys.L1s {
		tracing.CollectTrace(l1, steps)
		tracing.CollectTrace(l1, fills)
	}

	if c.traceMemory {
		traceMemory(s, sys)
	}

	for i, r := range sys.Requesters {
		r.Enqueue(requester.RandomGenerator{
			NumOps:     c.numOps,
			Base:       uint64(i) * 1000,
			Seed:       c.seed + int64(i),
			WriteRatio: c.writeRatio,
		}.Generate()...)
	}

	if monitor := s.GetMonitor(); monitor != nil {
		trackProgress(engine, monitor, sys, c.numRequesters*c.numOps)
	}

	if err := engine.Run(); err != nil {
		return err
	}

	if !sys.Done() {
		return errors.New("simulation stopped with accesses left")
	}

	sys.RecordStats(s.GetDataRecorder())
	report(engine, sys, steps, fills)

	return nil
}

func traceMemory(s *simulation.Simulation, sys *system.System) {
	tracer := trace.NewDBTracer(s.GetDataRecorder(), s.GetEngine())

	domains := []tracing.NamedHookable{sys.Bus, sys.L2, sys.Memory}
	for _, l1 := range sys.L1s {
		domains = append(domains, l1)
	}

	tracing.CollectTraceFrom(tracer, domains...)
}

// progressHook moves the progress bar forward as accesses complete.
type progressHook struct {
	system *system.System
	bar    *monitoring.ProgressBar
	shown  int
}

func (h *progressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}

	done, pending := 0, 0
	for _, r := range h.system.Requesters {
		done += len(r.Completions)
		if r.HasPending() {
			pending++
		}
	}

	if done != h.shown {
		h.bar.Update(uint64(done), uint64(pending))
		h.shown = done
	}
}

func trackProgress(
	engine sim.Engine,
	monitor *monitoring.Monitor,
	sys *system.System,
	total int,
) {
	bar := monitor.CreateProgressBar("Accesses", uint64(total))
	engine.AcceptHook(&progressHook{system: sys, bar: bar})
}

func report(
	engine sim.Engine,
	sys *system.System,
	steps *tracing.StepCountTracer,
	fills *tracing.AverageTimeTracer,
) {
	var total sim.VTimeInCycle
	count := 0

	for _, r := range sys.Requesters {
		for _, c := range r.Completions {
			total += c.Latency()
			count++
		}
	}

	fmt.Printf("Finished at cycle %d\n", engine.CurrentTime())
	if count > 0 {
		fmt.Printf("Average access latency: %.2f cycles over %d accesses\n",
			float64(total)/float64(count), count)
	}
	fmt.Printf("Average L1 miss service: %.2f cycles over %d requests\n",
		fills.AverageTime(), fills.TotalCount())
	fmt.Printf("L1 requests with a hit: %d, with a miss: %d\n\n",
		steps.GetTaskCount("cache_hit"), steps.GetTaskCount("cache_miss"))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Cache\tRead hits\tWrite hits\tRead misses\t"+
		"Write misses\tUpgrades\tWrite-backs\tInvalidations\t"+
		"Write-back stalls\tHit rate")

	for _, e := range sys.Stats() {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.3f\n",
			e.Component, e.ReadHits, e.WriteHits, e.ReadMisses,
			e.WriteMisses, e.Upgrades, e.Writebacks, e.Invalidations,
			e.WritebackStalls, e.HitRate)
	}

	w.Flush()
}
