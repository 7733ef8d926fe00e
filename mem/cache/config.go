package cache

import (
	"fmt"

	"github.com/sarchlab/msisim/mem/cache/internal/tagging"
	"github.com/sarchlab/msisim/sim"
)

// Config is the construction-time configuration of one cache level. It is
// fixed for the lifetime of the cache.
type Config struct {
	CacheSize     int
	LineSize      int
	Associativity int
	NumMSHREntry  int

	// HitLatency is the number of cycles before a hit is answered.
	HitLatency sim.VTimeInCycle

	// HandshakeDelay is the number of cycles before Request-End is sent for an
	// accepted request.
	HandshakeDelay sim.VTimeInCycle

	// IssueInterval is the number of cycles between two requests sent
	// downstream.
	IssueInterval sim.VTimeInCycle

	RequestQueueSize int
	VictimPolicy     string
}

// DefaultL1Config returns the configuration of a private first-level cache.
func DefaultL1Config() Config {
	return Config{
		CacheSize:        8192,
		LineSize:         64,
		Associativity:    4,
		NumMSHREntry:     8,
		HitLatency:       5,
		HandshakeDelay:   5,
		IssueInterval:    2,
		RequestQueueSize: 4,
		VictimPolicy:     "lru",
	}
}

// DefaultL2Config returns the configuration of the shared second-level cache.
func DefaultL2Config() Config {
	return Config{
		CacheSize:        65536,
		LineSize:         64,
		Associativity:    8,
		NumMSHREntry:     16,
		HitLatency:       10,
		HandshakeDelay:   5,
		IssueInterval:    2,
		RequestQueueSize: 4,
		VictimPolicy:     "lru",
	}
}

// Validate checks that the configuration describes a buildable cache.
func (c Config) Validate() error {
	if _, err := c.geometry(); err != nil {
		return err
	}

	if c.NumMSHREntry <= 0 {
		return fmt.Errorf("number of MSHR entries %d is not positive",
			c.NumMSHREntry)
	}

	if c.RequestQueueSize <= 0 {
		return fmt.Errorf("request queue size %d is not positive",
			c.RequestQueueSize)
	}

	if c.IssueInterval == 0 {
		return fmt.Errorf("issue interval must be at least 1 cycle")
	}

	if _, err := tagging.NewVictimFinder(c.VictimPolicy); err != nil {
		return err
	}

	return nil
}

func (c Config) geometry() (tagging.Geometry, error) {
	return tagging.NewGeometry(c.CacheSize, c.LineSize, c.Associativity)
}
