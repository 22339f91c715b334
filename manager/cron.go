package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fedwatch/fedwatch/pkg/cron"
	"github.com/fedwatch/fedwatch/trigger"
)

const defaultCronCheckInterval = time.Minute

// DriftScheduler runs drift checks on a cron schedule.
type DriftScheduler interface {
	Start(ctx context.Context) error
	Stop()
}

type driftScheduler struct {
	service       Service
	schedule      cron.Schedule
	timezone      string
	spec          DriftCheckSpec
	logger        *slog.Logger
	checkInterval time.Duration
	nextRun       time.Time
	stopChan      chan struct{}
}

// NewDriftScheduler parses the cron expression and returns a scheduler that
// submits the given drift check spec every time the schedule fires. The
// current date of the spec is ignored and replaced with the fire date so
// recurring checks always compare against fresh data.
func NewDriftScheduler(service Service, expr, timezone string, spec DriftCheckSpec, logger *slog.Logger) (DriftScheduler, error) {
	schedule, err := cron.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse drift check schedule: %w", err)
	}

	return &driftScheduler{
		service:       service,
		schedule:      schedule,
		timezone:      timezone,
		spec:          spec,
		logger:        logger,
		checkInterval: defaultCronCheckInterval,
		stopChan:      make(chan struct{}),
	}, nil
}

func (ds *driftScheduler) Start(ctx context.Context) error {
	ds.nextRun = ds.schedule.Next(time.Now(), ds.timezone)

	ticker := time.NewTicker(ds.checkInterval)
	defer ticker.Stop()

	ds.logger.Info("drift scheduler started",
		slog.Duration("check_interval", ds.checkInterval),
		slog.Time("next_run", ds.nextRun))

	for {
		select {
		case <-ctx.Done():
			ds.logger.Info("drift scheduler stopping")

			return ctx.Err()
		case <-ds.stopChan:
			ds.logger.Info("drift scheduler stopped")

			return nil
		case now := <-ticker.C:
			if ds.nextRun.After(now) {
				continue
			}

			ds.runCheck(ctx, now)
			ds.nextRun = ds.schedule.Next(now, ds.timezone)

			ds.logger.Debug("scheduled next drift check",
				slog.Time("next_run", ds.nextRun))
		}
	}
}

func (ds *driftScheduler) Stop() {
	close(ds.stopChan)
}

func (ds *driftScheduler) runCheck(ctx context.Context, now time.Time) {
	spec := ds.spec
	spec.CurrentDate = now.UTC().Format("2006-01-02")

	ds.logger.Info("running scheduled drift check",
		slog.String("current_date", spec.CurrentDate),
		slog.String("node_id", spec.NodeID))

	decision, err := ds.service.CheckDrift(ctx, spec)
	switch {
	case errors.Is(err, trigger.ErrCheckInProgress):
		ds.logger.Warn("scheduled drift check skipped, another check is running")
	case err != nil:
		ds.logger.Error("scheduled drift check failed",
			slog.String("error", err.Error()))
	default:
		ds.logger.Info("scheduled drift check completed",
			slog.String("decision_id", decision.ID),
			slog.String("outcome", string(decision.Outcome)),
			slog.Float64("score", decision.Score))
	}
}
