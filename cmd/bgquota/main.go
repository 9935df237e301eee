//go:build linux

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ja7ad/bgquota/pkg/quota"
	"github.com/ja7ad/bgquota/pkg/ratelimit"
	"github.com/ja7ad/bgquota/pkg/types"
)

type opts struct {
	ioBandwidth uint64
	interval    time.Duration
	metricsAddr string
	pretty      bool
	groups      []string // "name:ru_quota" pairs
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "bgquota",
		Short: "Background resource quota adjuster",
		Long: `bgquota runs the periodic control loop that re-computes per-group rate
limits for background workloads so they opportunistically fill whatever
headroom foreground traffic leaves unused, across CPU and IO.

It samples process-wide CPU usage from the enclosing cgroup and
/proc/self/stat, and IO throughput from /proc/self/io, then applies a
two-dimension water-filling allocation across the configured background
groups every --interval.

Examples:
  bgquota --io-bandwidth 52428800 --group default:8 --group background:15
  bgquota --io-bandwidth 104857600 --metrics-addr :9105 --group default:10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o)
		},
	}

	root.Flags().Uint64Var(&o.ioBandwidth, "io-bandwidth", 50<<20, "administrative IO bandwidth cap, bytes/sec")
	root.Flags().DurationVar(&o.interval, "interval", quota.BackgroundLimitAdjustDuration, "scheduling cadence for tick (debounced internally to >= 1s)")
	root.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9105)")
	root.Flags().BoolVar(&o.pretty, "pretty", true, "human-readable console logging instead of JSON")
	root.Flags().StringArrayVar(&o.groups, "group", nil, "background group to register, as name:ru_quota (repeatable)")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("bgquota exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts) error {
	if o.pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	registry := ratelimit.NewRegistry()
	groups, err := parseGroups(o.groups)
	if err != nil {
		return fmt.Errorf("parse groups: %w", err)
	}
	for name, ruQuota := range groups {
		registry.AddBackgroundGroup(name, ruQuota)
	}
	if len(groups) == 0 {
		registry.AddBackgroundGroup("default", 1)
		log.Warn().Msg("no --group flags given, registering a single 'default' group with ru_quota=1")
	}

	m := quota.NewMetrics()
	adjuster, err := quota.NewAdjuster(registry, o.ioBandwidth)
	if err != nil {
		return fmt.Errorf("build adjuster: %w", err)
	}
	adjuster.WithLogger(log.Logger).WithMetrics(m)

	var metricsSrv *http.Server
	if o.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", quota.Handler())
		metricsSrv = &http.Server{Addr: o.metricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		log.Info().Str("addr", o.metricsAddr).Msg("serving metrics")
	}

	log.Info().
		Str("io_bandwidth", types.Bytes(o.ioBandwidth).Humanized()+"/s").
		Dur("interval", o.interval).
		Int("groups", len(groups)).
		Msg("bgquota starting")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			if metricsSrv != nil {
				_ = metricsSrv.Close()
			}
			return nil
		case <-ticker.C:
			adjuster.Tick()
		}
	}
}

// parseGroups parses repeated "name:ru_quota" flag values into a map.
func parseGroups(raw []string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for _, g := range raw {
		name, ruStr, ok := strings.Cut(g, ":")
		if !ok {
			return nil, fmt.Errorf("bad group %q, want name:ru_quota", g)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("bad group %q: empty name", g)
		}
		ru, err := strconv.ParseFloat(strings.TrimSpace(ruStr), 64)
		if err != nil || ru <= 0 {
			return nil, fmt.Errorf("bad group %q: ru_quota must be a positive number", g)
		}
		out[name] = ru
	}
	return out, nil
}
