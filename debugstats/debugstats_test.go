package debugstats

import (
	"bytes"
	"math"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/adaptive"
)

var now = time.Date(2024, 4, 18, 9, 45, 0, 0, time.UTC)

func TestStdout(t *testing.T) {
	var buf bytes.Buffer
	s := &Client{Dst: &buf}

	a := adaptive.MustNew[int32](10)
	defer a.Dispose()
	if _, err := a.Add(5); err != nil {
		t.Fatal(err)
	}

	s.HandleStats(now, "requests", a.Stats())
	bufstr := buf.String()

	for _, want := range []string{
		"2024-04-18T09:45:00Z requests.value:15|g|#kind:int32,tier:solo\n",
		"2024-04-18T09:45:00Z requests.refs:1|g|#kind:int32\n",
		"2024-04-18T09:45:00Z requests.ops:1|c|#kind:int32,tier:solo\n",
		"2024-04-18T09:45:00Z requests.ops:0|c|#kind:int32,tier:contended\n",
		"2024-04-18T09:45:00Z requests.disposed:0|g|#kind:int32\n",
	} {
		if !strings.Contains(bufstr, want) {
			t.Errorf("debugstats: got %v want %v", bufstr, want)
		}
	}

	if n := strings.Count(bufstr, "\n"); n != 10 {
		t.Errorf("debugstats: expected 10 lines, got %d", n)
	}
}

func TestStdoutGrepMatch(t *testing.T) {
	var buf bytes.Buffer
	s := &Client{
		Dst:  &buf,
		Grep: regexp.MustCompile(`\.ops:`),
	}

	s.HandleStats(now, "ratio", adaptive.Stats{Kind: adaptive.Float64, Value: 0.3, Ops: [3]uint64{4, 5, 6}})
	bufstr := buf.String()

	// Check that only the matching lines are output
	if !strings.Contains(bufstr, "ratio.ops:5|c|#kind:float64,tier:shared") {
		t.Errorf("debugstats: expected output to contain 'ratio.ops:5', but it did not. Output: %s", bufstr)
	}

	if strings.Contains(bufstr, "ratio.value") {
		t.Errorf("debugstats: expected output not to contain 'ratio.value', but it did. Output: %s", bufstr)
	}
}

func TestNormalizeFloat(t *testing.T) {
	for in, want := range map[float64]float64{
		1.5:          1.5,
		math.Inf(+1): math.MaxFloat64,
		math.Inf(-1): -math.MaxFloat64,
	} {
		if got := normalizeFloat(in); got != want {
			t.Errorf("normalizeFloat(%v): got %v want %v", in, got, want)
		}
	}

	if got := normalizeFloat(math.NaN()); got != 0 {
		t.Errorf("normalizeFloat(NaN): got %v want 0", got)
	}
}
