package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/hoststate/internal/config"
	"codeberg.org/mutker/hoststate/internal/errors"
	"codeberg.org/mutker/hoststate/internal/logger"
	"codeberg.org/mutker/hoststate/internal/pid"
	"codeberg.org/mutker/hoststate/internal/store"
	"codeberg.org/mutker/hoststate/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

const usage = `usage: hoststate [flags] <command>

commands:
  summary                   print the normalized host summary
  monitor                   log and record the host summary every interval,
                            serving metrics on --metrics-addr when set
  store init                initialize the persistent store
  store get <key>           print the value stored under key
  store set <key> <json>    store a JSON value under key
  store delete <key>        remove key
  store backup <dest>       write a copy of the store to dest
  settings show             print the stored settings
  settings update <json>    merge a JSON object into the settings`

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.GetLogLevel(), logger.IsService()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := dispatch(ctx, cfg, os.Stdout); err != nil {
		if errors.HasCode(err, errors.ErrUsage) {
			fmt.Fprintln(os.Stderr, usage)
		}

		var appErr errors.Error
		if errors.As(err, &appErr) {
			logger.ErrorWithCode(appErr).Msg("Command failed")
		} else {
			logger.Error().Err(err).Msg("Command failed")
		}
		cancel()
		os.Exit(1)
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// lastSummaryKey holds the most recent summary written by monitor
const lastSummaryKey = "telemetry.last_summary"

// recorder persists monitor output
type recorder interface {
	Set(ctx context.Context, key string, value any) error
}

// monitor re-reads the snapshot source every interval until ctx is done.
// A failed read is logged and retried on the next tick.
func monitor(ctx context.Context, cfg config.Provider) error {
	errFactory := errors.New()

	interval := cfg.GetInterval()
	if interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, interval)
	}

	summarizer, err := telemetry.NewFileService(
		telemetry.Config{SnapshotPath: cfg.GetSnapshotPath()},
		logger.Default(),
	)
	if err != nil {
		return err
	}

	if err := pid.Write(""); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(""); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var registerer prometheus.Registerer
	serveErr := make(chan error, 1)

	if addr := cfg.GetMetricsAddr(); addr != "" {
		registerer = prometheus.DefaultRegisterer

		srv, bound, err := startMetricsServer(addr, prometheus.DefaultGatherer, func(err error) {
			serveErr <- err
			cancel()
		})
		if err != nil {
			return err
		}
		defer shutdownMetricsServer(srv)

		logger.Info().Str("addr", bound.String()).Msg("Serving metrics")
	}

	st, err := openStore(ctx, cfg, store.WithRegisterer(registerer))
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	logger.Info().
		Str("snapshot", cfg.GetSnapshotPath()).
		Dur("interval", interval).
		Msg("Monitor mode activated. Logging host summary...")

	if err := runMonitor(ctx, summarizer, st, interval); err != nil {
		return err
	}

	select {
	case err := <-serveErr:
		return errFactory.Wrap(errors.ErrMainLoop, err)
	default:
		return nil
	}
}

func runMonitor(ctx context.Context, summarizer telemetry.Summarizer, rec recorder, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick := func() {
		summary, err := summarizer.Summarize(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn().Err(err).Msg("Host summary unavailable")
			return
		}
		logSummary(summary)

		if err := rec.Set(ctx, lastSummaryKey, summary); err != nil && ctx.Err() == nil {
			logger.Warn().Err(err).Msg("failed to record host summary")
		}
	}

	tick()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Exiting...")
			return nil
		case <-ticker.C:
			tick()
		}
	}
}

func logSummary(summary *telemetry.SystemSummary) {
	logger.Info().
		Str("hostname", summary.Hostname).
		Str("system", summary.SystemName).
		Str("os_version", summary.OSVersion).
		Str("kernel", summary.KernelVersion).
		Uint64("cpu_count", summary.CPUCount).
		Str("cpu_brand", summary.CPUBrand).
		Float64("cpu_usage", summary.CPUUsage).
		Uint64("used_memory", summary.UsedMemory).
		Uint64("total_memory", summary.TotalMemory).
		Float64("memory_usage", summary.MemoryUsagePercentage).
		Msg("")

	for _, disk := range summary.Disks {
		logger.Debug().
			Str("disk", disk.Name).
			Str("mount_point", disk.MountPoint).
			Uint64("total_space", disk.TotalSpace).
			Uint64("available_space", disk.AvailableSpace).
			Float64("usage", disk.UsagePercentage).
			Msg("")
	}
}
