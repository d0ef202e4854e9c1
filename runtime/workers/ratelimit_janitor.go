package workers

import (
	"context"
	"log/slog"
	"time"
)

// RateTable is the slice of the rate limiter the janitor needs.
type RateTable interface {
	Purge() int
}

// RateLimitJanitor drops expired rate-limit windows so the in-memory
// table stays bounded by currently active users.
type RateLimitJanitor struct {
	log      *slog.Logger
	table    RateTable
	interval time.Duration
}

func NewRateLimitJanitor(log *slog.Logger, table RateTable, interval time.Duration) *RateLimitJanitor {
	return &RateLimitJanitor{log: log, table: table, interval: interval}
}

func (w *RateLimitJanitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if purged := w.table.Purge(); purged > 0 {
				w.log.Debug("purged expired rate windows", "count", purged)
			}
		}
	}
}
