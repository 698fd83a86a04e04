package jobs

import (
	"context"
	"log"
	"time"

	"github.com/saintdannyyy/shelta/internal/config"
	"github.com/saintdannyyy/shelta/internal/realtime"
	"github.com/saintdannyyy/shelta/internal/repository"
)

// StartOverdueRentJob periodically flags pending ledger entries past their
// due date as overdue. The status transition is server-side only; clients
// just display it.
func StartOverdueRentJob(ctx context.Context, cfg config.Config, store *repository.Store, feed *realtime.Feed) {
	if !cfg.OverdueJobEnabled {
		return
	}
	interval := cfg.OverdueJobInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := time.Now().UTC()
				count, err := store.MarkOverdueLedgerEntries(ctx, now)
				if err != nil {
					log.Printf("overdue rent job error: %v", err)
					continue
				}
				if count > 0 {
					log.Printf("overdue rent job flagged %d entries", count)
					feed.Publish(ctx, realtime.Event{Table: "rent_ledger_entries", Action: "update"})
				}
			}
		}
	}()
}
