package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"convostore/pkg/config"
	"convostore/pkg/logger"
	"convostore/pkg/store"
)

// Start launches the purge scheduler when retention is enabled. Returns a
// cancel func; the no-op cancel is returned when retention is disabled.
func Start(ctx context.Context, cfg config.RetentionConfig) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	period, err := time.ParseDuration(cfg.Period)
	if err != nil || period <= 0 {
		return nil, fmt.Errorf("invalid retention period %q", cfg.Period)
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *" // daily at 02:00
	}
	if !gronx.New().IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid retention cron expression: %s", cronExpr)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "period", cfg.Period, "dry_run", cfg.DryRun)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cfg, cronExpr, period)
	return cancel, nil
}

// runScheduler sleeps until the next cron tick and triggers one purge run.
func runScheduler(ctx context.Context, cfg config.RetentionConfig, cronExpr string, period time.Duration) {
	for {
		next, err := gronx.NextTickAfter(cronExpr, time.Now(), false)
		if err != nil {
			logger.Error("retention_next_tick_failed", "error", err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}
		if n, err := RunOnce(ctx, cfg, period); err != nil {
			logger.Error("retention_run_failed", "error", err)
		} else {
			logger.Info("retention_run_complete", "purged", n, "dry_run", cfg.DryRun)
		}
	}
}

// RunOnce purges conversations idle longer than period, in batches, until the
// store reports no more stale records.
func RunOnce(ctx context.Context, cfg config.RetentionConfig, period time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-period)
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	total := 0
	for {
		n, err := store.PurgeOlderThan(ctx, cutoff, batch, cfg.DryRun)
		if err != nil {
			return total, err
		}
		total += n
		if n < batch || cfg.DryRun {
			return total, nil
		}
	}
}
