package cost

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lumahq/luma/internal/logging"
)

// Retention windows for ledger rows. Rows older than these are dead weight;
// nothing reads them after the usage history views age out.
const (
	dailyRetention   = 31 * 24 * time.Hour
	monthlyRetention = 12 // months
)

// StartRetentionJob schedules a daily purge of expired ledger rows and
// returns the running scheduler. Callers stop it on shutdown.
func (g *Governor) StartRetentionJob() *cron.Cron {
	c := cron.New()
	c.AddFunc("0 3 * * *", func() {
		if err := g.PurgeExpired(context.Background()); err != nil {
			logging.Errorf("Ledger retention purge failed: %v", err)
		}
	})
	c.Start()
	return c
}

// PurgeExpired deletes daily rows older than 31 days and monthly rows older
// than 12 months.
func (g *Governor) PurgeExpired(ctx context.Context) error {
	now := g.now()
	dailyCutoff := dayPeriod(now.Add(-dailyRetention))
	monthlyCutoff := monthPeriod(now.AddDate(0, -monthlyRetention, 0))

	n, err := g.store.PurgeUsageBefore(ctx, dailyCutoff, monthlyCutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		logging.Infof("Purged %d expired usage ledger rows", n)
	}
	return nil
}
