package adaptive

import "sync/atomic"

// Stats is a snapshot of the state and activity of an atomic.
type Stats struct {
	Kind     Kind
	Refs     uint32
	Holders  int32
	Tier     Tier
	Disposed bool

	// Value is the current value converted to float64, zero once disposed.
	Value float64

	// Ops counts the operations executed in each tier, indexed by Tier.
	Ops [numTiers]uint64

	CASRetries uint64 // failed compare-and-swap commits of read-modify-writes
	Spins      uint64 // failed non-blocking attempts on the contention lock
	Blocks     uint64 // acquisitions of the contention lock that blocked
}

// TotalOps returns the number of operations across all tiers.
func (s Stats) TotalOps() (n uint64) {
	for _, ops := range s.Ops {
		n += ops
	}
	return n
}

type counters struct {
	ops        [numTiers]atomic.Uint64
	casRetries atomic.Uint64
	spins      atomic.Uint64
	blocks     atomic.Uint64
}

func (c *counters) op(t Tier) {
	if int(t) < numTiers {
		c.ops[t].Add(1)
	}
}

func (c *counters) snapshot(s *Stats) {
	for i := range c.ops {
		s.Ops[i] = c.ops[i].Load()
	}
	s.CASRetries = c.casRetries.Load()
	s.Spins = c.spins.Load()
	s.Blocks = c.blocks.Load()
}
