// Package prometheus exports the statistics of adaptive atomics to a
// prometheus registry.
//
// Typically, a program creates one Collector, registers it to a registry,
// and adds the atomics it wants to observe:
//
//	c := prometheus.NewCollector("myapp")
//	registry.MustRegister(c)
//	c.Register("inflight_requests", inflight)
package prometheus

import (
	"bytes"
	"sort"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/segmentio/adaptive"
)

// DefaultNamespace is the namespace of the metrics exported by collectors
// created with an empty namespace.
const DefaultNamespace = "adaptive"

// Source is implemented by *adaptive.Atomic[T] for every T.
type Source interface {
	Stats() adaptive.Stats
}

// Collector satisfies the prometheus.Collector interface, it exposes one set
// of series per registered atomic, labeled with the name it was registered
// with and its kind.
type Collector struct {
	value      *prom.Desc
	refs       *prom.Desc
	holders    *prom.Desc
	tier       *prom.Desc
	disposed   *prom.Desc
	ops        *prom.Desc
	casRetries *prom.Desc
	spins      *prom.Desc
	blocks     *prom.Desc

	mutex   sync.RWMutex
	sources map[string]Source
}

var _ prom.Collector = (*Collector)(nil)

// NewCollector returns a collector exporting metrics under namespace.
func NewCollector(namespace string) *Collector {
	if namespace = sanitize(namespace); namespace == "" {
		namespace = DefaultNamespace
	}

	labels := []string{"atomic", "kind"}
	desc := func(name, help string, extra ...string) *prom.Desc {
		return prom.NewDesc(prom.BuildFQName(namespace, "", name), help, append(labels[:2:2], extra...), nil)
	}

	return &Collector{
		value:      desc("value", "Current value of the atomic."),
		refs:       desc("refs", "Reference count of the atomic."),
		holders:    desc("holders", "Number of holders used to select the contention tier."),
		tier:       desc("tier", "Contention tier selected by the next operation (0 solo, 1 shared, 2 contended)."),
		disposed:   desc("disposed", "Whether the storage of the atomic was released."),
		ops:        desc("operations_total", "Operations executed by the atomic, by contention tier.", "tier"),
		casRetries: desc("cas_retries_total", "Failed compare-and-swap commits of read-modify-write operations."),
		spins:      desc("lock_spins_total", "Failed non-blocking attempts to acquire the contention lock."),
		blocks:     desc("lock_blocks_total", "Acquisitions of the contention lock that had to block."),
		sources:    make(map[string]Source),
	}
}

// Register adds the atomic s to the collector under name, replacing any
// source previously registered with the same name.
func (c *Collector) Register(name string, s Source) {
	c.mutex.Lock()
	c.sources[name] = s
	c.mutex.Unlock()
}

// Unregister removes the source registered under name.
func (c *Collector) Unregister(name string) {
	c.mutex.Lock()
	delete(c.sources, name)
	c.mutex.Unlock()
}

// Names returns the sorted names of the registered sources.
func (c *Collector) Names() []string {
	c.mutex.RLock()
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	c.mutex.RUnlock()
	sort.Strings(names)
	return names
}

// Describe satisfies the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prom.Desc) {
	for _, d := range []*prom.Desc{
		c.value,
		c.refs,
		c.holders,
		c.tier,
		c.disposed,
		c.ops,
		c.casRetries,
		c.spins,
		c.blocks,
	} {
		ch <- d
	}
}

// Collect satisfies the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prom.Metric) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for name, src := range c.sources {
		s := src.Stats()
		kind := s.Kind.String()

		gauge := func(d *prom.Desc, v float64) {
			ch <- prom.MustNewConstMetric(d, prom.GaugeValue, v, name, kind)
		}
		counter := func(d *prom.Desc, v uint64) {
			ch <- prom.MustNewConstMetric(d, prom.CounterValue, float64(v), name, kind)
		}

		gauge(c.value, s.Value)
		gauge(c.refs, float64(s.Refs))
		gauge(c.holders, float64(s.Holders))
		gauge(c.tier, float64(s.Tier))
		if s.Disposed {
			gauge(c.disposed, 1)
		} else {
			gauge(c.disposed, 0)
		}

		for _, t := range adaptive.Tiers() {
			ch <- prom.MustNewConstMetric(c.ops, prom.CounterValue, float64(s.Ops[t]), name, kind, t.String())
		}

		counter(c.casRetries, s.CASRetries)
		counter(c.spins, s.Spins)
		counter(c.blocks, s.Blocks)
	}
}

// sanitize replaces the bytes which cannot appear in a metric name.
func sanitize(s string) string {
	if isSafeString(s) {
		// fast path
		return s
	}

	b := &bytes.Buffer{}
	b.Grow(len(s))

	for i := range s {
		if c := s[i]; isSafeByte(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}

	return b.String()
}

func isSafeString(s string) bool {
	for i := range s {
		if !isSafeByte(s[i]) {
			return false
		}
	}
	return true
}

func isSafeByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_' || b == ':'
}
