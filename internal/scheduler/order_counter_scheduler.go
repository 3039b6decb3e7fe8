package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spsports/sps-backend/internal/ordernumber"
	"github.com/spsports/sps-backend/pkg/logger"
)

// DefaultPruneSpec runs shortly after midnight in the order calendar.
const DefaultPruneSpec = "5 0 * * *"

const pruneTimeout = 30 * time.Second

// CounterPruner deletes daily sequence rows older than a day key.
type CounterPruner interface {
	PruneBefore(ctx context.Context, day string) (int64, error)
}

// OrderCounterScheduler removes stale per-day order counters.
type OrderCounterScheduler struct {
	cron          *cron.Cron
	pruner        CounterPruner
	loc           *time.Location
	retentionDays int
	now           func() time.Time
}

// NewOrderCounterScheduler keeps retentionDays days of counters (minimum 1,
// so today's row always survives).
func NewOrderCounterScheduler(pruner CounterPruner, loc *time.Location, retentionDays int) *OrderCounterScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if retentionDays < 1 {
		retentionDays = 1
	}
	return &OrderCounterScheduler{
		cron:          cron.New(cron.WithLocation(loc)),
		pruner:        pruner,
		loc:           loc,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// Start registers the nightly job and starts the cron runner.
func (s *OrderCounterScheduler) Start() error {
	_, err := s.cron.AddFunc(DefaultPruneSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			logger.Error("Scheduled order counter pruning failed", err)
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for order counter pruning", err)
		return err
	}

	s.cron.Start()
	logger.Info("Order counter scheduler started", map[string]interface{}{
		"spec":           DefaultPruneSpec,
		"location":       s.loc.String(),
		"retention_days": s.retentionDays,
	})
	return nil
}

// Cutoff is the oldest day key that is kept.
func (s *OrderCounterScheduler) Cutoff() string {
	return ordernumber.DayKey(s.now().In(s.loc).AddDate(0, 0, -(s.retentionDays - 1)))
}

// RunOnce prunes counters older than the retention window.
func (s *OrderCounterScheduler) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.Cutoff()
	removed, err := s.pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	logger.Info("Order counters pruned", map[string]interface{}{
		"before":  cutoff,
		"removed": removed,
	})
	return removed, nil
}

// Stop halts the cron runner and waits for a running job to finish.
func (s *OrderCounterScheduler) Stop() {
	logger.Info("Stopping order counter scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Order counter scheduler stopped")
}
