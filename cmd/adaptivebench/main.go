// Command adaptivebench stresses an adaptive atomic shared by a configurable
// number of holders and reports how its contention tiers behaved.
//
//	adaptivebench run --kind int32 --workers 8 --holders 3
//	adaptivebench run --config bench.yaml --json
//	adaptivebench version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/segmentio/adaptive/debugstats"
	"github.com/segmentio/adaptive/prometheus"
	"github.com/segmentio/adaptive/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "adaptivebench",
		Short:        "Stress an adaptive atomic and report its contention statistics",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCommand(), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of adaptivebench",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String("adaptivebench"))
		},
	}
}

func newRunCommand() *cobra.Command {
	var (
		configPath string
		verbose    bool
		flags      = defaultConfig()
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark workload on an atomic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := defaultConfig()
			if configPath != "" {
				if err := config.load(configPath); err != nil {
					return err
				}
			}
			config.override(flags, cmd.Flags().Changed)

			if err := config.validate(); err != nil {
				return err
			}

			logger := logrus.New()
			logger.SetOutput(cmd.ErrOrStderr())
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}

			return execute(cmd.Context(), cmd.OutOrStdout(), config, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML file holding the benchmark configuration, flags take precedence")
	f.StringVar(&flags.Kind, "kind", flags.Kind, "Element type of the atomic (int8 ... uint64, float32, float64)")
	f.IntVar(&flags.Workers, "workers", flags.Workers, "Number of goroutines running the workload")
	f.IntVar(&flags.Ops, "ops", flags.Ops, "Iterations of the workload run by each worker")
	f.IntVar(&flags.Holders, "holders", flags.Holders, "Number of references held on the atomic, selects the contention tier")
	f.StringVar(&flags.Tier, "tier", "", "Pin the contention tier (solo, shared, contended) regardless of holders")
	f.StringVar(&flags.Allocator, "allocator", flags.Allocator, "Storage cell allocator (heap, mapped)")
	f.IntVar(&flags.SpinLimit, "spin-limit", 0, "Non-blocking attempts on the contention lock before blocking")
	f.IntVar(&flags.MaxBackoff, "max-backoff", 0, "Maximum number of yields between two attempts on the contention lock")
	f.StringVar(&flags.Listen, "listen", "", "Address serving prometheus metrics on /metrics while the benchmark runs")
	f.BoolVar(&flags.JSON, "json", false, "Print the report as JSON")
	f.BoolVarP(&verbose, "verbose", "v", false, "Log tier changes and storage release")
	return cmd
}

func execute(ctx context.Context, w io.Writer, config benchConfig, logger *logrus.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	collector := prometheus.NewCollector("adaptivebench")

	if config.Listen != "" {
		srv, _, err := serveMetrics(config.Listen, newRegistry(collector), logger)
		if err != nil {
			return err
		}
		defer srv.Close()
	}

	r, err := benchmark(ctx, config, logger, collector)
	if err != nil {
		return err
	}

	if config.JSON {
		b, err := json.Marshal(r)
		if err != nil {
			return err
		}
		_, err = w.Write(append(b, '\n'))
		return err
	}

	printReport(w, r)
	return nil
}

func printReport(w io.Writer, r *report) {
	fmt.Fprintf(w, "kind:        %s\n", r.Config.Kind)
	fmt.Fprintf(w, "workers:     %d x %d iterations\n", r.Config.Workers, r.Config.Ops)
	fmt.Fprintf(w, "holders:     %d (%s)\n", r.Stats.Holders, r.Stats.Tier)
	fmt.Fprintf(w, "duration:    %s\n", r.Duration)
	fmt.Fprintf(w, "operations:  %d (%.0f/s)\n", r.Operations, r.OpsPerSecond)
	fmt.Fprintf(w, "final value: %v (expected %v, consistent=%t)\n", r.Final, r.Expected, r.Consistent)
	fmt.Fprintln(w)

	(&debugstats.Client{Dst: w}).HandleStats(time.Now(), r.Config.Kind, r.stats)
}

func newRegistry(collectors ...prom.Collector) *prom.Registry {
	registry := prom.NewRegistry()
	registry.MustRegister(collectors...)
	return registry
}

// serveMetrics exposes registry on /metrics at addr until the returned server
// is closed, it also returns the address the server listens on.
func serveMetrics(addr string, registry *prom.Registry, logger logrus.FieldLogger) (*http.Server, string, error) {
	lstn, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(lstn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("serving metrics")
		}
	}()

	addr = lstn.Addr().String()
	logger.WithField("addr", addr).Info("serving metrics on /metrics")
	return srv, addr, nil
}
