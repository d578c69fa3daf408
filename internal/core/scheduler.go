package core

// scheduler.go runs periodic maintenance. The only job today purges audit
// entries past their retention. A failed run is logged and retried on the
// next tick.

import (
	"context"
	"log/slog"
	"time"
)

// PurgeConfig holds configuration for the audit purge job.
type PurgeConfig struct {
	RetentionDays int           // entries older than this are deleted (default: 180)
	Interval      time.Duration // how often to run (default: 24h)
}

func (c PurgeConfig) withDefaults() PurgeConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 180
	}
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	return c
}

// StartAuditPurge purges once immediately, then every Interval, until ctx
// is cancelled. It blocks; run it in a goroutine.
func (s *Service) StartAuditPurge(ctx context.Context, cfg PurgeConfig) {
	cfg = cfg.withDefaults()
	slog.Info("audit purge scheduler started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.Interval.String(),
	)

	s.runPurgeJob(ctx, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("audit purge scheduler stopped")
			return
		case <-ticker.C:
			s.runPurgeJob(ctx, cfg)
		}
	}
}

func (s *Service) runPurgeJob(ctx context.Context, cfg PurgeConfig) {
	start := time.Now()

	purged, err := s.PurgeAuditLog(ctx, cfg.RetentionDays)
	if err != nil {
		slog.Error("audit purge failed", "error", err)
		return
	}
	slog.Info("audit purge completed",
		"entries_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
