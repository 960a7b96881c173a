package journal

import (
	"context"
	"time"

	"github.com/ecoeats/mealplanner/pkg/logger"
	"github.com/ecoeats/mealplanner/pkg/metrics"
	"github.com/ecoeats/mealplanner/pkg/types"
	"go.uber.org/multierr"
)

// Writer persists a full plan document.
type Writer interface {
	SavePlan(ctx context.Context, plan *types.WeekPlan) error
}

// ReplayReport summarizes one replay pass.
type ReplayReport struct {
	Replayed int
	Failed   int
}

// Replayer pushes journaled documents to the backend on request.
type Replayer struct {
	Repo    *Repository
	Writer  Writer
	Metrics *metrics.PlanSyncMetrics
	Logger  *logger.Logger
}

// Replay tries each pending document for userID exactly once. Successful
// entries are removed; failures stay journaled and are combined into the
// returned error.
func (r Replayer) Replay(ctx context.Context, userID string) (ReplayReport, error) {
	logg := r.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	entries, err := r.Repo.Pending(ctx, userID)
	if err != nil {
		return ReplayReport{}, err
	}

	var report ReplayReport
	var errs error
	for _, entry := range entries {
		entryCtx := logg.WithFields(ctx, map[string]any{
			"journal_id": entry.ID.String(),
			"user_id":    entry.UserID,
			"week_start": entry.WeekStart,
		})
		plan, err := entry.Plan()
		if err != nil {
			logg.Error(entryCtx, "journaled plan is unreadable", err)
			report.Failed++
			errs = multierr.Append(errs, err)
			continue
		}

		start := time.Now()
		err = r.Writer.SavePlan(entryCtx, plan)
		r.Metrics.ObserveDuration(metrics.OpReplayPlan, time.Since(start))
		if err != nil {
			r.Metrics.IncFailure(metrics.OpReplayPlan)
			logg.Error(entryCtx, "replay of journaled plan failed", err)
			if merr := r.Repo.MarkFailed(entryCtx, entry.ID, err); merr != nil {
				errs = multierr.Append(errs, merr)
			}
			report.Failed++
			errs = multierr.Append(errs, err)
			continue
		}

		r.Metrics.IncSuccess(metrics.OpReplayPlan)
		if err := r.Repo.Clear(entryCtx, entry.UserID, entry.WeekStart); err != nil {
			errs = multierr.Append(errs, err)
		}
		report.Replayed++
		logg.Info(entryCtx, "replayed journaled plan")
	}
	return report, errs
}
