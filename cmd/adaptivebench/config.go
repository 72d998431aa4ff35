package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/segmentio/adaptive"
	"github.com/segmentio/adaptive/cell"
)

type benchConfig struct {
	Kind       string `yaml:"kind" json:"kind"`
	Workers    int    `yaml:"workers" json:"workers"`
	Ops        int    `yaml:"ops" json:"ops"`
	Holders    int    `yaml:"holders" json:"holders"`
	Tier       string `yaml:"tier" json:"tier,omitempty"`
	Allocator  string `yaml:"allocator" json:"allocator"`
	SpinLimit  int    `yaml:"spin_limit" json:"spin_limit,omitempty"`
	MaxBackoff int    `yaml:"max_backoff" json:"max_backoff,omitempty"`
	Listen     string `yaml:"listen" json:"-"`
	JSON       bool   `yaml:"json" json:"-"`
}

func defaultConfig() benchConfig {
	return benchConfig{
		Kind:      "int64",
		Workers:   4,
		Ops:       10000,
		Holders:   1,
		Allocator: "heap",
	}
}

// load overwrites c with the fields set in the YAML file at path.
func (c *benchConfig) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// override copies the fields of from whose flag was set on the command line.
func (c *benchConfig) override(from benchConfig, changed func(string) bool) {
	if changed("kind") {
		c.Kind = from.Kind
	}
	if changed("workers") {
		c.Workers = from.Workers
	}
	if changed("ops") {
		c.Ops = from.Ops
	}
	if changed("holders") {
		c.Holders = from.Holders
	}
	if changed("tier") {
		c.Tier = from.Tier
	}
	if changed("allocator") {
		c.Allocator = from.Allocator
	}
	if changed("spin-limit") {
		c.SpinLimit = from.SpinLimit
	}
	if changed("max-backoff") {
		c.MaxBackoff = from.MaxBackoff
	}
	if changed("listen") {
		c.Listen = from.Listen
	}
	if changed("json") {
		c.JSON = from.JSON
	}
}

func (c *benchConfig) validate() error {
	switch {
	case adaptive.ParseKind(c.Kind) == adaptive.Invalid:
		return fmt.Errorf("unsupported kind: %q", c.Kind)
	case c.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.Ops <= 0:
		return fmt.Errorf("ops must be positive, got %d", c.Ops)
	case c.Holders <= 0:
		return fmt.Errorf("holders must be positive, got %d", c.Holders)
	}

	if c.Tier != "" {
		if _, err := c.tier(); err != nil {
			return err
		}
	}
	_, err := c.allocator()
	return err
}

func (c *benchConfig) tier() (adaptive.Tier, error) {
	for _, t := range adaptive.Tiers() {
		if t.String() == c.Tier {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tier: %q", c.Tier)
}

func (c *benchConfig) allocator() (cell.Allocator, error) {
	switch c.Allocator {
	case "", "heap":
		return cell.Heap{}, nil
	case "mapped":
		return cell.Mapped{}, nil
	default:
		return nil, fmt.Errorf("unknown allocator: %q", c.Allocator)
	}
}

// options returns the options of the atomic under test.
func (c *benchConfig) options() ([]adaptive.Option, error) {
	alloc, err := c.allocator()
	if err != nil {
		return nil, err
	}

	options := []adaptive.Option{
		adaptive.WithAllocator(alloc),
		adaptive.WithSpin(c.SpinLimit, c.MaxBackoff),
	}

	if c.Tier != "" {
		t, err := c.tier()
		if err != nil {
			return nil, err
		}
		options = append(options, adaptive.WithTiering(adaptive.FixedTier(t)))
	}

	return options, nil
}
