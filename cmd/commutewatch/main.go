package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/commutewatch/commutewatch/internal/alerts"
	"github.com/commutewatch/commutewatch/internal/check"
	"github.com/commutewatch/commutewatch/internal/config"
	"github.com/commutewatch/commutewatch/internal/metrics"
	"github.com/commutewatch/commutewatch/internal/notify"
	"github.com/commutewatch/commutewatch/internal/route"
	"github.com/commutewatch/commutewatch/internal/state"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file; empty means environment variables only")
	watchMode := flag.Bool("watch", false, "keep running and repeat the check on the configured interval")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		// Configuration problems are reported before any network call
		// and exit with code 2.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	slog.Info("commutewatch starting",
		"config", configSource(*configPath),
		"threshold_min", cfg.Thresholds.DelayMin,
		"threshold_pct", cfg.Thresholds.DelayPct,
		"state_backend", cfg.State.Backend,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	checker, cleanup, err := buildChecker(cfg)
	if err != nil {
		slog.Error("failed to set up checker", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	if *watchMode {
		runWatch(ctx, *configPath, cfg, checker)
		return
	}

	res, err := checker.Run(ctx)
	if err != nil {
		slog.Error("check failed", "err", err)
		cleanup()
		os.Exit(1)
	}
	report(res)
}

func configSource(path string) string {
	if path == "" {
		return "env"
	}
	return path
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv()
	}
	return config.Load(path)
}

// buildChecker assembles the fetcher, store and notifiers from cfg.
// The returned cleanup releases the state backend.
func buildChecker(cfg *config.Config) (*check.Checker, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	st, cleanup, err := buildStore(cfg.State)
	if err != nil {
		return nil, nil, err
	}

	return &check.Checker{
		Fetcher: route.New(cfg.Route.APIKey(), *cfg.Route.Origin, *cfg.Route.Destination),
		Thresholds: alerts.Thresholds{
			DelayMin: cfg.Thresholds.DelayMin,
			DelayPct: cfg.Thresholds.DelayPct,
		},
		Store:     st,
		Notifiers: buildNotifiers(cfg),
		Location:  loc,
	}, cleanup, nil
}

func buildStore(sc config.StateConfig) (state.Store, func(), error) {
	switch sc.Backend {
	case "sqlite":
		db, err := state.OpenSQLite(sc.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	default:
		return state.NewFileStore(sc.Dir), func() {}, nil
	}
}

func buildNotifiers(cfg *config.Config) []notify.Notifier {
	var out []notify.Notifier
	e := cfg.Notify.Email
	if m := notify.NewMailjet(e.APIKey(), e.APISecret(), e.From, e.To); m != nil {
		out = append(out, m)
	}
	for _, wh := range cfg.Notify.Webhooks {
		if w := notify.NewWebhook(wh.Type, wh.URL()); w != nil {
			out = append(out, w)
		}
	}
	return out
}

// report logs the outcome of one pass. All of these are normal-path
// results; only transport and persistence errors are fatal.
func report(res check.Result) {
	switch res.Outcome {
	case check.RouteUnavailable:
		slog.Warn("routing failed", "reason", res.Reason)
	case check.NoDelay:
		slog.Info("no significant delay",
			"travel_min", res.Decision.TravelMin,
			"no_traffic_min", res.Decision.NoTrafficMin,
			"delay_min", res.Decision.DelayMin,
			"delay_pct", fmt.Sprintf("%.0f", res.Decision.DelayPct),
		)
	case check.AlreadyAlerted:
		slog.Info("alert already sent today, skipping delivery")
	case check.NotConfigured:
		slog.Info("delay exceeds thresholds but no notification channel is configured")
	case check.Sent:
		slog.Info("alert sent",
			"travel_min", res.Decision.TravelMin,
			"delay_min", res.Decision.DelayMin,
			"delay_pct", fmt.Sprintf("%.0f", res.Decision.DelayPct),
		)
	}
}

// runWatch repeats the check on the configured interval until ctx is
// cancelled. Unlike the one-shot path, a failed pass is logged and the
// loop carries on. When a config file is in use it is watched for
// hot reload; thresholds and notification channels are swapped in place,
// fetcher and state backend stay as built.
func runWatch(ctx context.Context, path string, cfg *config.Config, checker *check.Checker) {
	var mu sync.Mutex

	if path != "" {
		go func() {
			err := config.Watch(ctx, path, func(updated *config.Config) {
				ns := buildNotifiers(updated)
				mu.Lock()
				checker.Thresholds = alerts.Thresholds{
					DelayMin: updated.Thresholds.DelayMin,
					DelayPct: updated.Thresholds.DelayPct,
				}
				checker.Notifiers = ns
				mu.Unlock()
				slog.Info("applied reloaded thresholds and channels",
					"threshold_min", updated.Thresholds.DelayMin,
					"threshold_pct", updated.Thresholds.DelayPct,
					"channels", len(ns),
				)
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Watch.MetricsPort),
		Handler: mux,
	}
	go func() {
		slog.Info("metrics endpoint listening", "port", cfg.Watch.MetricsPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server stopped", "err", err)
		}
	}()

	runOnce := func() {
		mu.Lock()
		c := *checker
		mu.Unlock()

		metrics.ChecksTotal.Inc()
		res, err := c.Run(ctx)
		if err != nil {
			metrics.CheckErrorsTotal.Inc()
			slog.Error("check failed", "err", err)
			return
		}
		if res.Summary.OK {
			metrics.TravelSeconds.Set(float64(res.Summary.TravelSec))
			metrics.DelaySeconds.Set(float64(res.Summary.DelaySec))
		}
		if res.Outcome == check.Sent {
			metrics.AlertsSentTotal.Inc()
		}
		report(res)
	}

	runOnce()
	ticker := time.NewTicker(cfg.Watch.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("commutewatch shutting down")
			srv.Shutdown(context.Background()) //nolint:errcheck
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
