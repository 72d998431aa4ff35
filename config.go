package adaptive

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/segmentio/adaptive/cell"
)

const (
	// DefaultSpinLimit is the number of non-blocking attempts made to acquire
	// the contention lock before blocking on it.
	DefaultSpinLimit = 16

	// DefaultMaxBackoff caps the number of scheduler yields between two
	// attempts to acquire the contention lock.
	DefaultMaxBackoff = 64
)

// DefaultLogger is the logger used by atomics created without WithLogger. It
// only reports warnings.
var DefaultLogger logrus.FieldLogger = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: new(logrus.TextFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.WarnLevel,
	ExitFunc:  os.Exit,
}

// Config carries the different configuration values that can be set when
// creating an atomic.
type Config struct {
	// Allocator provides the storage cell, defaults to cell.Heap.
	Allocator cell.Allocator

	// Logger receives debug entries on tier changes and disposal, and
	// warnings when releasing the storage fails.
	Logger logrus.FieldLogger

	// Tiering maps the number of holders to a tier, defaults to TierOf.
	Tiering func(holders int) Tier

	// SpinLimit is the number of attempts to acquire the contention lock
	// without blocking.
	SpinLimit int

	// MaxBackoff caps the exponential backoff between two spins.
	MaxBackoff int
}

func (c *Config) setDefaults() {
	if c.Allocator == nil {
		c.Allocator = cell.Heap{}
	}

	if c.Logger == nil {
		c.Logger = DefaultLogger
	}

	if c.Tiering == nil {
		c.Tiering = TierOf
	}

	if c.SpinLimit <= 0 {
		c.SpinLimit = DefaultSpinLimit
	}

	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
}

// Option configures an atomic created by New.
type Option func(*Config)

// WithConfig replaces the configuration with config, zero fields are set to
// their defaults.
func WithConfig(config Config) Option {
	return func(c *Config) { *c = config }
}

// WithAllocator sets the allocator of the storage cell.
func WithAllocator(a cell.Allocator) Option {
	return func(c *Config) { c.Allocator = a }
}

// WithLogger sets the logger of the atomic.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithTiering replaces the function used to select a tier.
func WithTiering(tiering func(holders int) Tier) Option {
	return func(c *Config) { c.Tiering = tiering }
}

// WithSpin configures the spin phase of the contention lock.
func WithSpin(limit, maxBackoff int) Option {
	return func(c *Config) {
		c.SpinLimit = limit
		c.MaxBackoff = maxBackoff
	}
}
