package l2

import (
	"log"

	"github.com/sarchlab/msisim/mem"
	"github.com/sarchlab/msisim/mem/cache"
	"github.com/sarchlab/msisim/sim"
)

// A Builder can build L2 caches.
type Builder struct {
	engine sim.Engine
	config cache.Config
}

// MakeBuilder returns a Builder with the default L2 configuration.
func MakeBuilder() Builder {
	return Builder{
		config: cache.DefaultL2Config(),
	}
}

// WithEngine sets the engine that the cache uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(config cache.Config) Builder {
	b.config = config
	return b
}

// WithCacheSize sets the capacity of the cache in bytes.
func (b Builder) WithCacheSize(size int) Builder {
	b.config.CacheSize = size
	return b
}

// WithAssociativity sets the number of ways in a set.
func (b Builder) WithAssociativity(ways int) Builder {
	b.config.Associativity = ways
	return b
}

// WithNumMSHREntry sets the number of MSHR entries.
func (b Builder) WithNumMSHREntry(num int) Builder {
	b.config.NumMSHREntry = num
	return b
}

// Build creates an L2 cache.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		owners:   make(map[uint64]int),
		inflight: make(map[string]*mem.Transaction),
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, c)

	core, err := cache.NewCore(b.config, b.engine, c, &policy{comp: c})
	if err != nil {
		log.Panicf("%s: %v", name, err)
	}

	c.core = core

	return c
}
