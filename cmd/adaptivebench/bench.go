package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/segmentio/adaptive"
	"github.com/segmentio/adaptive/prometheus"
)

// report is the outcome of a benchmark run. Every iteration of the workload
// adds 2 to the atomic, Final differs from Expected only if updates were lost.
type report struct {
	Config       benchConfig   `json:"config"`
	Duration     time.Duration `json:"duration_ns"`
	Operations   uint64        `json:"operations"`
	OpsPerSecond float64       `json:"ops_per_second"`
	Final        float64       `json:"final"`
	Expected     float64       `json:"expected"`
	Consistent   bool          `json:"consistent"`
	Stats        statsReport   `json:"stats"`

	stats adaptive.Stats
}

type statsReport struct {
	Kind       string            `json:"kind"`
	Refs       uint32            `json:"refs"`
	Holders    int32             `json:"holders"`
	Tier       string            `json:"tier"`
	Ops        map[string]uint64 `json:"ops"`
	CASRetries uint64            `json:"cas_retries"`
	Spins      uint64            `json:"spins"`
	Blocks     uint64            `json:"blocks"`
}

func makeStatsReport(s adaptive.Stats) statsReport {
	r := statsReport{
		Kind:       s.Kind.String(),
		Refs:       s.Refs,
		Holders:    s.Holders,
		Tier:       s.Tier.String(),
		Ops:        make(map[string]uint64, len(s.Ops)),
		CASRetries: s.CASRetries,
		Spins:      s.Spins,
		Blocks:     s.Blocks,
	}
	for _, t := range adaptive.Tiers() {
		r.Ops[t.String()] = s.Ops[t]
	}
	return r
}

// benchmark runs the workload described by config on an atomic of the
// configured kind.
func benchmark(ctx context.Context, config benchConfig, logger logrus.FieldLogger, collector *prometheus.Collector) (*report, error) {
	options, err := config.options()
	if err != nil {
		return nil, err
	}
	options = append(options, adaptive.WithLogger(logger))

	switch kind := adaptive.ParseKind(config.Kind); kind {
	case adaptive.Int8:
		return run[int8](ctx, config, options, collector)
	case adaptive.Int16:
		return run[int16](ctx, config, options, collector)
	case adaptive.Int32:
		return run[int32](ctx, config, options, collector)
	case adaptive.Int64:
		return run[int64](ctx, config, options, collector)
	case adaptive.Uint8:
		return run[uint8](ctx, config, options, collector)
	case adaptive.Uint16:
		return run[uint16](ctx, config, options, collector)
	case adaptive.Uint32:
		return run[uint32](ctx, config, options, collector)
	case adaptive.Uint64:
		return run[uint64](ctx, config, options, collector)
	case adaptive.Float32:
		return run[float32](ctx, config, options, collector)
	case adaptive.Float64:
		return run[float64](ctx, config, options, collector)
	default:
		return nil, fmt.Errorf("unsupported kind: %q", config.Kind)
	}
}

func run[T adaptive.Number](ctx context.Context, config benchConfig, options []adaptive.Option, collector *prometheus.Collector) (*report, error) {
	a, err := adaptive.New[T](0, options...)
	if err != nil {
		return nil, err
	}
	defer a.Dispose()

	collector.Register(config.Kind, a)
	defer collector.Unregister(config.Kind)

	for i := 1; i < config.Holders; i++ {
		if err := a.AddReference(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i != config.Workers; i++ {
		g.Go(func() error { return work(ctx, a, config.Ops) })
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	final, err := a.Read()
	if err != nil {
		return nil, err
	}
	expected := T(2) * T(config.Workers*config.Ops)
	stats := a.Stats()

	r := &report{
		Config:     config,
		Duration:   elapsed,
		Operations: stats.TotalOps(),
		Final:      float64(final),
		Expected:   float64(expected),
		Consistent: final == expected,
		Stats:      makeStatsReport(stats),
		stats:      stats,
	}
	if elapsed > 0 {
		r.OpsPerSecond = float64(r.Operations) / elapsed.Seconds()
	}
	return r, nil
}

// work runs ops iterations of the workload, each one moves the value of a by
// exactly 2 and exercises every tiered access path.
func work[T adaptive.Number](ctx context.Context, a *adaptive.Atomic[T], ops int) error {
	for i := 0; i != ops; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if _, err := a.Increment(); err != nil {
			return err
		}
		if _, err := a.Add(2); err != nil {
			return err
		}
		if _, err := a.Subtract(1); err != nil {
			return err
		}

		cur, err := a.Read()
		if err != nil {
			return err
		}
		if _, err := a.CompareExchange(cur, cur); err != nil {
			return err
		}
		if _, err := a.Pure().Multiply(2); err != nil {
			return err
		}
	}
	return nil
}
