package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/mibagent/internal/config"
	"github.com/roach88/mibagent/internal/monitor"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	SamplerKind string
	Interval    time.Duration

	// Sampler overrides the configured sampler (for testing).
	Sampler monitor.Sampler
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the agent and its threshold monitor",
		Long: `Start the agent and its threshold monitor.

The agent loads the descriptor table and state database (creating both
with defaults if missing), then samples the gauge every interval, stores
the sample, and raises a trap and a message each time the sample rises
above the threshold object. Alerts are delivered as structured log records.

Stop with Ctrl-C or SIGTERM.

Example:
  mibagent run
  mibagent run --db ./state.db --sampler load --interval 10s --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SamplerKind, "sampler", "", "sampler kind: cpu or load (overrides config)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "sampling interval (overrides config)")

	return cmd
}

func runAgent(opts *RunOptions, cmd *cobra.Command) error {
	parentCtx := commandContext(cmd)

	a, cfg, logger, err := opts.openAgent(parentCtx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	slog.SetDefault(logger)

	if opts.SamplerKind != "" {
		cfg.Monitor.Sampler = opts.SamplerKind
	}
	if opts.Interval > 0 {
		cfg.Monitor.Interval = config.Duration{Duration: opts.Interval}
	}

	sampler := opts.Sampler
	if sampler == nil {
		if sampler, err = newSampler(cfg.Monitor.Sampler); err != nil {
			return WrapExitError(ExitCommandError, "failed to create sampler", err)
		}
	}

	mon, err := a.NewMonitor(sampler,
		monitor.WithInterval(cfg.Monitor.Interval.Duration),
		monitor.WithObjects(monitor.Objects{
			Gauge:     cfg.Monitor.Gauge,
			Threshold: cfg.Monitor.Threshold,
			Address:   cfg.Monitor.Address,
			Manager:   cfg.Monitor.Manager,
		}),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create monitor", err)
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	logger.Info("agent starting",
		"db", cfg.DBPath,
		"catalog", cfg.CatalogPath,
		"objects", a.Catalog().Len(),
		"sampler", cfg.Monitor.Sampler,
	)
	fmt.Fprintln(cmd.OutOrStdout(), "Agent started. Monitoring", cfg.Monitor.Gauge, "every", cfg.Monitor.Interval)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "monitor error", err)
	}

	logger.Info("agent stopped gracefully")
	return nil
}

func newSampler(kind string) (monitor.Sampler, error) {
	switch kind {
	case config.SamplerCPU:
		return monitor.NewCPUSampler("")
	case config.SamplerLoad:
		return monitor.NewLoadSampler()
	}
	return nil, fmt.Errorf("unknown sampler kind %q", kind)
}
