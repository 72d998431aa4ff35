// Package debugstats is a very small helper that makes it easy to **see** the
// state of adaptive atomics while you are debugging or tuning the contention
// of a program.
//
//   - Every snapshot written to the client is rendered as a set of lines in a
//     StatsD-like format (metric name, value, type, tags) followed by '\n'.
//   - A time-stamp (RFC-3339) is prepended so that the stream can later be
//     correlated with logs if desired.
//
// # Destination
//
// By default the lines are written to os.Stdout, but any io.Writer can be
// supplied through the Client’s Dst field:
//
//	var buf bytes.Buffer
//	c := &debugstats.Client{Dst: &buf} // write into a buffer
//	c.HandleStats(time.Now(), "requests", requests.Stats())
//
// # Grep-like filtering
//
// When you are only interested in a subset of the lines you can pass a
// regular expression via the Grep field.  Only the lines whose *full textual
// representation* match the regexp are emitted:
//
//	c := &debugstats.Client{
//	    Grep: regexp.MustCompile(`\.ops:`),
//	}
//
// Typical output (wrapped for readability):
//
//	2024-04-18T09:45:00Z requests.value:42|g|#kind:uint32,tier:contended
//	2024-04-18T09:45:00Z requests.ops:1200|c|#kind:uint32,tier:solo
package debugstats

import (
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/segmentio/adaptive"
)

// Client will print out received snapshots. If Dst is nil, lines will be
// printed to stdout, otherwise they will be printed to Dst.
//
// You can optionally provide a Grep regexp to limit printed lines to ones
// matching the regular expression.
type Client struct {
	Dst  io.Writer
	Grep *regexp.Regexp
}

func (c *Client) Write(p []byte) (int, error) {
	if c.Dst == nil {
		return os.Stdout.Write(p)
	}
	return c.Dst.Write(p)
}

func normalizeFloat(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0.0
	case math.IsInf(f, +1):
		return +math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	default:
		return f
	}
}

type tag struct {
	name  string
	value string
}

type line struct {
	field string
	value float64
	kind  byte
	tier  string
}

func lines(s adaptive.Stats) []line {
	disposed := 0.0
	if s.Disposed {
		disposed = 1
	}

	l := []line{
		{field: "value", value: s.Value, kind: 'g', tier: s.Tier.String()},
		{field: "refs", value: float64(s.Refs), kind: 'g'},
		{field: "holders", value: float64(s.Holders), kind: 'g'},
		{field: "disposed", value: disposed, kind: 'g'},
	}
	for _, t := range adaptive.Tiers() {
		l = append(l, line{field: "ops", value: float64(s.Ops[t]), kind: 'c', tier: t.String()})
	}
	return append(l,
		line{field: "cas_retries", value: float64(s.CASRetries), kind: 'c'},
		line{field: "spins", value: float64(s.Spins), kind: 'c'},
		line{field: "blocks", value: float64(s.Blocks), kind: 'c'},
	)
}

func appendLine(b []byte, name string, l line, tags ...tag) []byte {
	b = append(b, name...)
	b = append(b, '.')
	b = append(b, l.field...)
	b = append(b, ':')
	b = strconv.AppendFloat(b, normalizeFloat(l.value), 'g', -1, 64)
	b = append(b, '|', l.kind)

	if n := len(tags); n != 0 {
		b = append(b, '|', '#')

		for i, t := range tags {
			if i != 0 {
				b = append(b, ',')
			}
			b = append(b, t.name...)
			b = append(b, ':')
			b = append(b, t.value...)
		}
	}

	return append(b, '\n')
}

// HandleStats writes the lines describing the snapshot s of the atomic known
// as name.
func (c *Client) HandleStats(t time.Time, name string, s adaptive.Stats) {
	out := make([]byte, 0, 128)

	for _, l := range lines(s) {
		tags := []tag{{name: "kind", value: s.Kind.String()}}
		if l.tier != "" {
			tags = append(tags, tag{name: "tier", value: l.tier})
		}

		out = appendLine(out[:0], name, l, tags...)
		if c.Grep != nil && !c.Grep.Match(out) {
			continue // Skip this line
		}

		fmt.Fprintf(c, "%s %s", t.Format(time.RFC3339), out)
	}
}
