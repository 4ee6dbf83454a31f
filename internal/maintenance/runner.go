// Package maintenance runs the scheduled store upkeep job: manual
// compaction of the record store plus a metrics snapshot in the log.
package maintenance

import (
	"context"
	"time"

	"github.com/adhocore/gronx"

	"drawsync/pkg/logger"
	"drawsync/pkg/store"
)

// Runner executes store maintenance on a cron schedule.
type Runner struct {
	db   *store.DB
	cron string
}

// New validates the cron expression and returns a Runner. An empty
// expression defaults to daily at 03:00.
func New(db *store.DB, cron string) (*Runner, error) {
	if cron == "" {
		cron = "0 3 * * *"
	}
	if err := validateCron(cron); err != nil {
		return nil, err
	}
	return &Runner{db: db, cron: cron}, nil
}

func validateCron(expr string) error {
	g := gronx.New()
	if !g.IsValid(expr) {
		return &CronError{Expr: expr}
	}
	return nil
}

// CronError reports an invalid cron expression.
type CronError struct{ Expr string }

func (e *CronError) Error() string { return "invalid cron expression: " + e.Expr }

// Start launches the scheduler loop. It returns immediately; the loop
// exits when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	logger.Info("maintenance_scheduled", "cron", r.cron)
	go r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) {
	for {
		next, err := gronx.NextTickAfter(r.cron, time.Now(), false)
		if err != nil {
			logger.Error("maintenance_next_tick_failed", "cron", r.cron, "error", err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}
		r.runOnce()
	}
}

func (r *Runner) runOnce() {
	start := time.Now()
	if err := r.db.Compact(); err != nil {
		logger.Error("maintenance_compact_failed", "error", err)
		return
	}
	logger.Info("maintenance_complete",
		"duration", time.Since(start).String(),
		"store", r.db.MetricsString(),
	)
}
