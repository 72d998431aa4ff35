package adaptive

// Tier is the synchronization strategy used by an atomic for a given level of
// contention.
type Tier uint8

const (
	// Solo is used while a single holder exists: plain atomic loads and
	// stores.
	Solo Tier = iota
	// Shared is used with two holders: every access goes through a locked
	// instruction acting as a full fence.
	Shared
	// Contended is used with three holders or more: accesses are serialized
	// by the contention lock, acquired by spinning briefly then blocking.
	Contended
)

const numTiers = 3

// Tiers lists all tiers in escalation order.
func Tiers() []Tier { return []Tier{Solo, Shared, Contended} }

func (t Tier) String() string {
	switch t {
	case Solo:
		return "solo"
	case Shared:
		return "shared"
	case Contended:
		return "contended"
	default:
		return "unknown"
	}
}

// TierOf maps the number of observed concurrent holders to a tier.
func TierOf(holders int) Tier {
	switch {
	case holders <= 1:
		return Solo
	case holders == 2:
		return Shared
	default:
		return Contended
	}
}

// FixedTier returns a tiering function that always selects t, regardless of
// the number of holders.
func FixedTier(t Tier) func(int) Tier {
	return func(int) Tier { return t }
}
