// Package adaptivetest provides helpers to test code sharing values through
// adaptive atomics.
package adaptivetest

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/segmentio/adaptive"
)

// Hold adds n references to a, moving it up the contention tiers, and
// releases them when the test completes. Release errors are reported unless
// the atomic was disposed by the test.
func Hold[T adaptive.Number](tb testing.TB, a *adaptive.Atomic[T], n int) {
	tb.Helper()

	for i := 0; i != n; i++ {
		if err := a.AddReference(); err != nil {
			tb.Fatalf("adding reference %d to %s: %v", i+1, a, err)
		}
	}

	tb.Cleanup(func() {
		for i := 0; i != n; i++ {
			if err := a.Release(); err != nil && !a.Disposed() {
				tb.Errorf("releasing reference %d of %s: %v", i+1, a, err)
			}
		}
	})
}

// NewLogger returns a logger discarding its output and recording every entry
// at debug level or above in the returned hook.
func NewLogger(tb testing.TB) (*logrus.Logger, *test.Hook) {
	tb.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	tb.Cleanup(hook.Reset)
	return logger, hook
}

// Messages returns the messages of the entries recorded by hook.
func Messages(hook *test.Hook) []string {
	entries := hook.AllEntries()
	msgs := make([]string, len(entries))
	for i, e := range entries {
		msgs[i] = e.Message
	}
	return msgs
}
